package reports

import (
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"camion_tracker/internal/config"
	"camion_tracker/internal/models"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := config.Connect(sqlite.Open(filepath.Join(t.TempDir(), "reports.db")))
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	return db
}

func at(date string, hour int) time.Time {
	d, _ := time.Parse(models.DateLayout, date)
	return d.Add(time.Duration(hour) * time.Hour)
}

// seedYard inserts a small, hand-checked data set.
func seedYard(t *testing.T, db *gorm.DB) {
	t.Helper()
	trucks := []models.Truck{
		{Plate: "AB-123-CD", Driver: "Jean Dupont", EntryDate: "2024-01-15", ArrivedAt: at("2024-01-15", 8), Status: models.StatusExited, AmountDue: 50000, AmountPaid: 50000, ArrivalOrder: 1},
		{Plate: "EF-456-GH", Driver: "Pierre Martin", EntryDate: "2024-01-15", ArrivedAt: at("2024-01-15", 8), Status: models.StatusLoaded, ArrivalOrder: 2},
		{Plate: "IJ-789-KL", Driver: "Mohamed Ali", EntryDate: "2024-01-15", ArrivedAt: at("2024-01-15", 10), Status: models.StatusWaiting, ArrivalOrder: 3},
		{Plate: "MN-012-OP", Driver: "Jean Dupont", EntryDate: "2024-01-16", ArrivedAt: at("2024-01-16", 9), Status: models.StatusToPay, AmountDue: 30000, ArrivalOrder: 1},
		{Plate: "QR-345-ST", Driver: "Awa Diop", EntryDate: "2024-02-03", ArrivedAt: at("2024-02-03", 14), Status: models.StatusExited, AmountDue: 40000, AmountPaid: 45000, ArrivalOrder: 1},
		{Plate: "UV-678-WX", Driver: "Jean Dupont", EntryDate: "2023-12-30", ArrivedAt: at("2023-12-30", 7), Status: models.StatusExited, AmountDue: 20000, AmountPaid: 20000, ArrivalOrder: 1},
	}
	if err := db.Create(&trucks).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}
}

func TestSummarizeTotalsMatchPaidAmounts(t *testing.T) {
	db := setupDB(t)
	seedYard(t, db)

	s, err := Summarize(db, Filter{})
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	var trucks []models.Truck
	db.Find(&trucks)
	var paid float64
	for _, tr := range trucks {
		paid += tr.AmountPaid
	}
	if s.TotalRevenue != paid {
		t.Errorf("revenue %v, sum of paid amounts %v", s.TotalRevenue, paid)
	}
	if s.TotalTrucks != 6 || s.ExitedTrucks != 3 {
		t.Errorf("unexpected counts %+v", s)
	}
	if s.TotalDue != 140000 {
		t.Errorf("total due = %v", s.TotalDue)
	}
}

func TestSummarizeEmptySet(t *testing.T) {
	db := setupDB(t)
	s, err := Summarize(db, Filter{Date: "2030-01-01"})
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if s != (Summary{}) {
		t.Errorf("expected zero summary, got %+v", s)
	}
}

func TestFilterSearchIsCaseInsensitiveAndLiteral(t *testing.T) {
	db := setupDB(t)
	seedYard(t, db)

	var n int64
	db.Scopes(Filter{Search: "jean"}.Scope()).Count(&n)
	if n != 3 {
		t.Errorf("search jean: %d results", n)
	}
	db.Scopes(Filter{Search: "ef-456"}.Scope()).Count(&n)
	if n != 1 {
		t.Errorf("search plate: %d results", n)
	}
	db.Scopes(Filter{Search: "%"}.Scope()).Count(&n)
	if n != 0 {
		t.Errorf("wildcard should be literal, got %d results", n)
	}
}

func TestFilterDateRangeAndStatus(t *testing.T) {
	db := setupDB(t)
	seedYard(t, db)

	var n int64
	db.Scopes(Filter{From: "2024-01-01", To: "2024-01-31"}.Scope()).Count(&n)
	if n != 4 {
		t.Errorf("january: %d", n)
	}
	db.Scopes(Filter{Status: models.StatusExited}.Scope()).Count(&n)
	if n != 3 {
		t.Errorf("exited: %d", n)
	}
	db.Scopes(Filter{Status: "all"}.Scope()).Count(&n)
	if n != 6 {
		t.Errorf("all: %d", n)
	}
}

func TestByStatusAndLive(t *testing.T) {
	db := setupDB(t)
	seedYard(t, db)

	lc, err := Live(db)
	if err != nil {
		t.Fatalf("Live: %v", err)
	}
	want := LiveCounts{Total: 6, Waiting: 1, Loaded: 1, ToPay: 1, Exited: 3, Active: 3}
	if lc != want {
		t.Errorf("live = %+v, want %+v", lc, want)
	}
}

func TestByMonthKeepsLatestOldestFirst(t *testing.T) {
	db := setupDB(t)
	seedYard(t, db)

	months, err := ByMonth(db, Filter{}, 2)
	if err != nil {
		t.Fatalf("ByMonth: %v", err)
	}
	if len(months) != 2 || months[0].Period != "2024-01" || months[1].Period != "2024-02" {
		t.Fatalf("months = %+v", months)
	}
	if months[0].TotalTrucks != 4 || months[0].Revenue != 50000 || months[0].ExitedTrucks != 1 {
		t.Errorf("january bucket = %+v", months[0])
	}
}

func TestTopDriversAndPeakHours(t *testing.T) {
	db := setupDB(t)
	seedYard(t, db)

	drivers, err := TopDrivers(db, Filter{}, 10)
	if err != nil {
		t.Fatalf("TopDrivers: %v", err)
	}
	if drivers[0].Driver != "Jean Dupont" || drivers[0].Count != 3 || drivers[0].TotalAmount != 70000 {
		t.Errorf("top driver = %+v", drivers[0])
	}

	hours, err := PeakHours(db, Filter{Date: "2024-01-15"}, 5, time.UTC)
	if err != nil {
		t.Fatalf("PeakHours: %v", err)
	}
	if len(hours) != 2 || hours[0].Hour != 8 || hours[0].Count != 2 || hours[1].Hour != 10 {
		t.Errorf("peak hours = %+v", hours)
	}

	paris, err := time.LoadLocation("Europe/Paris")
	if err != nil {
		t.Fatal(err)
	}
	hours, err = PeakHours(db, Filter{Date: "2024-01-15"}, 5, paris)
	if err != nil {
		t.Fatalf("PeakHours in Paris: %v", err)
	}
	if len(hours) != 2 || hours[0].Hour != 9 || hours[0].Count != 2 || hours[1].Hour != 11 {
		t.Errorf("Paris peak hours = %+v", hours)
	}
}

func TestPayments(t *testing.T) {
	db := setupDB(t)
	seedYard(t, db)

	p, err := Payments(db, Filter{From: "2024-01-01"})
	if err != nil {
		t.Fatalf("Payments: %v", err)
	}
	if p.Count != 2 || p.Total != 95000 || p.Max != 50000 || p.Min != 45000 || p.Average != 47500 {
		t.Errorf("payments = %+v", p)
	}
}

func TestPaymentsByMonth(t *testing.T) {
	db := setupDB(t)
	seedYard(t, db)

	months, err := PaymentsByMonth(db, Filter{}, 2)
	if err != nil {
		t.Fatalf("PaymentsByMonth: %v", err)
	}
	want := []PaymentMonth{{Month: "2024-01", Total: 50000, Count: 1}, {Month: "2024-02", Total: 45000, Count: 1}}
	if len(months) != len(want) {
		t.Fatalf("months = %+v", months)
	}
	for i := range want {
		if months[i] != want[i] {
			t.Errorf("months[%d] = %+v, want %+v", i, months[i], want[i])
		}
	}

	raw, _ := json.Marshal(months[0])
	if string(raw) != `{"_id":"2024-01","total":50000,"count":1}` {
		t.Errorf("json = %s", raw)
	}
}

func TestDayMonthYear(t *testing.T) {
	db := setupDB(t)
	seedYard(t, db)

	day, err := Day(db, "2024-01-15")
	if err != nil {
		t.Fatalf("Day: %v", err)
	}
	if day.TotalTrucks != 3 || day.ExitedTrucks != 1 || day.Waiting != 1 || day.Loaded != 1 || day.Revenue != 50000 {
		t.Errorf("day = %+v", day)
	}

	next, _ := Day(db, "2024-01-16")
	if next.ToPay != 1 || next.Outstanding != 30000 {
		t.Errorf("outstanding = %+v", next)
	}

	month, err := Month(db, 2024, 1)
	if err != nil {
		t.Fatalf("Month: %v", err)
	}
	if month.TotalTrucks != 4 || month.ActiveDays != 2 || month.DailyAverage != 2 || month.ExitRate != 25 {
		t.Errorf("month = %+v", month)
	}
	if _, err := Month(db, 2024, 13); err == nil {
		t.Error("month 13 accepted")
	}

	year, err := Year(db, 2024)
	if err != nil {
		t.Fatalf("Year: %v", err)
	}
	if year.TotalTrucks != 5 || year.ActiveMonths != 2 || year.Revenue != 95000 || year.MonthlyAverage != 2.5 {
		t.Errorf("year = %+v", year)
	}
}

func TestCompleteAndGlobal(t *testing.T) {
	db := setupDB(t)
	seedYard(t, db)
	today := at("2024-02-03", 18)

	ov, err := Complete(db, today)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if ov.Day.TotalTrucks != 1 || ov.Year.TotalTrucks != 5 || ov.Summary.RotationRate != 40 {
		t.Errorf("overview = %+v", ov)
	}
	if len(ov.Last30Days) != 3 || len(ov.Last12Months) != 3 {
		t.Fatalf("history lengths %d / %d", len(ov.Last30Days), len(ov.Last12Months))
	}
	if first := ov.Last30Days[0]; first != (SeriesPoint{Period: "2024-01-15", TotalTrucks: 3, ExitedTrucks: 1, Revenue: 50000}) {
		t.Errorf("first day = %+v", first)
	}

	raw, err := json.Marshal(ov)
	if err != nil {
		t.Fatal(err)
	}
	var decoded map[string]json.RawMessage
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"historique30Jours", "historique12Mois"} {
		var points []map[string]interface{}
		if err := json.Unmarshal(decoded[key], &points); err != nil {
			t.Fatalf("%s: %v", key, err)
		}
		for _, field := range []string{"_id", "totalCamions", "camionsSortis", "sommeGeneree"} {
			if _, ok := points[0][field]; !ok {
				t.Errorf("%s item lacks %q: %v", key, field, points[0])
			}
		}
	}
	if ov.Last12Months[0].Period != "2023-12" || ov.Last12Months[0].Revenue != 20000 {
		t.Errorf("first month = %+v", ov.Last12Months[0])
	}

	g, err := GlobalStats(db, today)
	if err != nil {
		t.Fatalf("GlobalStats: %v", err)
	}
	if g.AllTime.TotalTrucks != 6 || g.Today.Entered != 1 || g.Month.Entered != 1 || g.Year.Entered != 5 {
		t.Errorf("global = %+v", g)
	}
	if g.Year.Revenue != 95000 || len(g.ByStatus) != 4 {
		t.Errorf("global = %+v", g)
	}
}

func TestPeriodFilter(t *testing.T) {
	today := at("2024-02-07", 12) // a Wednesday
	tests := []struct {
		period, date string
		want         Filter
	}{
		{"jour", "", Filter{Date: "2024-02-07"}},
		{"jour", "2024-01-15", Filter{Date: "2024-01-15"}},
		{"semaine", "", Filter{From: "2024-02-04", To: "2024-02-07"}},
		{"mois", "", Filter{From: "2024-02-01", To: "2024-02-07"}},
		{"annee", "", Filter{From: "2024-01-01", To: "2024-02-07"}},
	}
	for _, tt := range tests {
		got, err := PeriodFilter(tt.period, tt.date, today)
		if err != nil {
			t.Fatalf("%s: %v", tt.period, err)
		}
		if got != tt.want {
			t.Errorf("%s: got %+v, want %+v", tt.period, got, tt.want)
		}
	}
	if _, err := PeriodFilter("siecle", "", today); err == nil {
		t.Error("unknown period accepted")
	}
}

func TestDailyReport(t *testing.T) {
	db := setupDB(t)
	seedYard(t, db)

	r, err := Daily(db, "2024-01-15", time.UTC)
	if err != nil {
		t.Fatalf("Daily: %v", err)
	}
	if r.Stats.TotalTrucks != 3 || len(r.Details) != 3 || len(r.PeakHours) != 2 {
		t.Fatalf("report = %+v", r)
	}
	var listed int
	for _, d := range r.Details {
		if int64(len(d.Trucks)) != d.Count {
			t.Errorf("status %s lists %d trucks for count %d", d.Status, len(d.Trucks), d.Count)
		}
		listed += len(d.Trucks)
	}
	if listed != 3 {
		t.Errorf("listed %d trucks", listed)
	}
}
