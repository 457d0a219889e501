package reports

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"camion_tracker/internal/models"
)

// Summary is the headline aggregate over a filtered set of trucks.
type Summary struct {
	TotalTrucks    int64   `json:"totalCamions" gorm:"column:total_trucks"`
	ExitedTrucks   int64   `json:"camionsSortis" gorm:"column:exited_trucks"`
	TotalRevenue   float64 `json:"totalRevenus" gorm:"column:total_revenue"`
	AverageRevenue float64 `json:"revenusMoyens" gorm:"column:average_revenue"`
	TotalDue       float64 `json:"totalDu" gorm:"column:total_due"`
}

// StatusBucket groups trucks sharing a status.
type StatusBucket struct {
	Status        models.TruckStatus `json:"_id" gorm:"column:status"`
	Count         int64              `json:"count" gorm:"column:count"`
	TotalAmount   float64            `json:"totalMontant" gorm:"column:total_amount"`
	AverageAmount float64            `json:"montantMoyen" gorm:"column:average_amount"`
}

// PeriodBucket groups trucks by entry day (YYYY-MM-DD) or month (YYYY-MM).
type PeriodBucket struct {
	Period       string  `json:"_id" gorm:"column:period"`
	TotalTrucks  int64   `json:"camions" gorm:"column:total_trucks"`
	ExitedTrucks int64   `json:"camionsSortis" gorm:"column:exited_trucks"`
	Revenue      float64 `json:"revenus" gorm:"column:revenue"`
}

// SeriesPoint is one point of the statistics page trend charts. It carries
// the same figures as PeriodBucket under the names of the day/month stats.
type SeriesPoint struct {
	Period       string  `json:"_id"`
	TotalTrucks  int64   `json:"totalCamions"`
	ExitedTrucks int64   `json:"camionsSortis"`
	Revenue      float64 `json:"sommeGeneree"`
}

// Series renames buckets for the statistics page.
func Series(buckets []PeriodBucket) []SeriesPoint {
	points := make([]SeriesPoint, len(buckets))
	for i, b := range buckets {
		points[i] = SeriesPoint{Period: b.Period, TotalTrucks: b.TotalTrucks, ExitedTrucks: b.ExitedTrucks, Revenue: b.Revenue}
	}
	return points
}

// PaymentMonth is the paid total of one entry month (YYYY-MM).
type PaymentMonth struct {
	Month string  `json:"_id" gorm:"column:month"`
	Total float64 `json:"total" gorm:"column:total"`
	Count int64   `json:"count" gorm:"column:count"`
}

// DriverBucket ranks drivers by number of visits.
type DriverBucket struct {
	Driver      string  `json:"_id" gorm:"column:driver"`
	Count       int64   `json:"count" gorm:"column:count"`
	TotalAmount float64 `json:"totalMontant" gorm:"column:total_amount"`
}

// HourBucket counts arrivals within one hour of the day.
type HourBucket struct {
	Hour  int   `json:"_id" gorm:"column:hour_of_day"`
	Count int64 `json:"count" gorm:"column:count"`
}

// PaymentStats describes the paid amounts of a filtered set.
type PaymentStats struct {
	Total   float64 `json:"totalPaiements" gorm:"column:total"`
	Count   int64   `json:"nombrePaiements" gorm:"column:count"`
	Average float64 `json:"moyennePaiement" gorm:"column:average"`
	Max     float64 `json:"paiementMax" gorm:"column:max"`
	Min     float64 `json:"paiementMin" gorm:"column:min"`
}

// LiveCounts is the quick yard snapshot shown on the operator screen.
type LiveCounts struct {
	Total   int64 `json:"totalCamions"`
	Waiting int64 `json:"enAttente"`
	Loaded  int64 `json:"charges"`
	ToPay   int64 `json:"payes"`
	Exited  int64 `json:"sortis"`
	Active  int64 `json:"nonSortis"`
}

const exitedCount = "COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0)"

// Summarize computes the headline aggregate for f.
func Summarize(db *gorm.DB, f Filter) (Summary, error) {
	var s Summary
	err := db.Scopes(f.Scope()).
		Select("COUNT(*) AS total_trucks, "+
			exitedCount+" AS exited_trucks, "+
			"COALESCE(SUM(amount_paid), 0) AS total_revenue, "+
			"COALESCE(AVG(amount_paid), 0) AS average_revenue, "+
			"COALESCE(SUM(amount_due), 0) AS total_due", models.StatusExited).
		Scan(&s).Error
	return s, err
}

// ByStatus groups f by lifecycle status.
func ByStatus(db *gorm.DB, f Filter) ([]StatusBucket, error) {
	buckets := []StatusBucket{}
	err := db.Scopes(f.Scope()).
		Select("status, COUNT(*) AS count, " +
			"COALESCE(SUM(amount_paid), 0) AS total_amount, " +
			"COALESCE(AVG(amount_paid), 0) AS average_amount").
		Group("status").
		Order("status").
		Scan(&buckets).Error
	return buckets, err
}

// ByDay groups f by entry date, oldest first.
func ByDay(db *gorm.DB, f Filter) ([]PeriodBucket, error) {
	return byPeriod(db, f, "entry_date", 0)
}

// ByMonth groups f by entry month and keeps the latest limit months, oldest
// first. limit <= 0 keeps them all.
func ByMonth(db *gorm.DB, f Filter, limit int) ([]PeriodBucket, error) {
	return byPeriod(db, f, "SUBSTR(entry_date, 1, 7)", limit)
}

func byPeriod(db *gorm.DB, f Filter, expr string, limit int) ([]PeriodBucket, error) {
	buckets := []PeriodBucket{}
	q := db.Scopes(f.Scope()).
		Select(expr+" AS period, COUNT(*) AS total_trucks, "+
			exitedCount+" AS exited_trucks, "+
			"COALESCE(SUM(amount_paid), 0) AS revenue", models.StatusExited).
		Group(expr).
		Order("period DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(&buckets).Error; err != nil {
		return nil, err
	}
	for i, j := 0, len(buckets)-1; i < j; i, j = i+1, j-1 {
		buckets[i], buckets[j] = buckets[j], buckets[i]
	}
	return buckets, nil
}

// TopDrivers ranks drivers by visit count.
func TopDrivers(db *gorm.DB, f Filter, limit int) ([]DriverBucket, error) {
	buckets := []DriverBucket{}
	err := db.Scopes(f.Scope()).
		Select("driver, COUNT(*) AS count, COALESCE(SUM(amount_paid), 0) AS total_amount").
		Group("driver").
		Order("COUNT(*) DESC, driver").
		Limit(limit).
		Scan(&buckets).Error
	return buckets, err
}

// PeakHours returns the busiest arrival hours in loc, busiest first.
func PeakHours(db *gorm.DB, f Filter, limit int, loc *time.Location) ([]HourBucket, error) {
	expr, arg := hourExpr(db, f, loc)
	buckets := []HourBucket{}
	err := db.Scopes(f.Scope()).
		Select(expr+" AS hour_of_day, COUNT(*) AS count", arg).
		Group("hour_of_day").
		Order("COUNT(*) DESC, hour_of_day").
		Limit(limit).
		Scan(&buckets).Error
	return buckets, err
}

// hourExpr extracts the arrival hour in loc, in the dialect of db. Postgres
// converts with the zone name. SQLite only knows fixed offsets, so the offset
// in force on the filtered day is used.
func hourExpr(db *gorm.DB, f Filter, loc *time.Location) (string, interface{}) {
	if db.Dialector.Name() == "sqlite" {
		ref := time.Now()
		for _, d := range []string{f.Date, f.From, f.To} {
			if t, err := time.ParseInLocation(models.DateLayout, d, loc); err == nil {
				ref = t.Add(12 * time.Hour)
				break
			}
		}
		_, offset := ref.In(loc).Zone()
		return "CAST(strftime('%H', arrived_at, ?) AS INTEGER)", fmt.Sprintf("%+d minutes", offset/60)
	}
	return "CAST(EXTRACT(HOUR FROM arrived_at AT TIME ZONE ?) AS INTEGER)", loc.String()
}

// Payments aggregates the paid amounts of f. PaidOnly is forced on.
func Payments(db *gorm.DB, f Filter) (PaymentStats, error) {
	f.PaidOnly = true
	var s PaymentStats
	err := db.Scopes(f.Scope()).
		Select("COALESCE(SUM(amount_paid), 0) AS total, COUNT(*) AS count, " +
			"COALESCE(AVG(amount_paid), 0) AS average, " +
			"COALESCE(MAX(amount_paid), 0) AS max, COALESCE(MIN(amount_paid), 0) AS min").
		Scan(&s).Error
	return s, err
}

// PaymentsByMonth groups the paid exits of f by entry month and keeps the
// latest limit months, oldest first. limit <= 0 keeps them all.
func PaymentsByMonth(db *gorm.DB, f Filter, limit int) ([]PaymentMonth, error) {
	f.PaidOnly = true
	const expr = "SUBSTR(entry_date, 1, 7)"
	months := []PaymentMonth{}
	q := db.Scopes(f.Scope()).
		Select(expr + " AS month, COALESCE(SUM(amount_paid), 0) AS total, COUNT(*) AS count").
		Group(expr).
		Order("month DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(&months).Error; err != nil {
		return nil, err
	}
	for i, j := 0, len(months)-1; i < j; i, j = i+1, j-1 {
		months[i], months[j] = months[j], months[i]
	}
	return months, nil
}

// Live counts the trucks per status over the whole table.
func Live(db *gorm.DB) (LiveCounts, error) {
	buckets, err := ByStatus(db, Filter{})
	if err != nil {
		return LiveCounts{}, err
	}
	var lc LiveCounts
	counts := make(map[models.TruckStatus]int64, len(buckets))
	for _, b := range buckets {
		lc.Total += b.Count
		counts[b.Status] = b.Count
		switch b.Status {
		case models.StatusWaiting:
			lc.Waiting = b.Count
		case models.StatusLoaded:
			lc.Loaded = b.Count
		case models.StatusToPay:
			lc.ToPay = b.Count
		case models.StatusExited:
			lc.Exited = b.Count
		}
	}
	for _, s := range models.ActiveStatuses {
		lc.Active += counts[s]
	}
	return lc, nil
}

// Rate returns part/total as a percentage, 0 when total is 0.
func Rate(part, total int64) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) * 100 / float64(total)
}
