package reports

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"camion_tracker/internal/models"
)

// DayStats is the activity of one calendar day.
type DayStats struct {
	Date         string  `json:"date"`
	TotalTrucks  int64   `json:"totalCamions"`
	ExitedTrucks int64   `json:"camionsSortis"`
	Waiting      int64   `json:"enAttente"`
	Loaded       int64   `json:"charges"`
	ToPay        int64   `json:"payes"`
	Revenue      float64 `json:"sommeGeneree"`
	// Outstanding is the amount due by trucks validated but not yet paid.
	Outstanding float64 `json:"sommeDue"`
	ExitRate    float64 `json:"tauxSortie"`
}

// MonthStats is the activity of one calendar month.
type MonthStats struct {
	Year         int           `json:"annee"`
	Month        int           `json:"mois"`
	TotalTrucks  int64         `json:"totalCamions"`
	ExitedTrucks int64         `json:"camionsSortis"`
	Revenue      float64       `json:"sommeGeneree"`
	ActiveDays   int           `json:"joursActifs"`
	ExitRate     float64       `json:"tauxSortie"`
	DailyAverage float64       `json:"moyenneJournaliere"`
	Days         []SeriesPoint `json:"parJour"`
}

// YearStats is the activity of one calendar year.
type YearStats struct {
	Year           int           `json:"annee"`
	TotalTrucks    int64         `json:"totalCamions"`
	ExitedTrucks   int64         `json:"camionsSortis"`
	Revenue        float64       `json:"sommeGeneree"`
	ActiveMonths   int           `json:"moisActifs"`
	ExitRate       float64       `json:"tauxSortie"`
	MonthlyAverage float64       `json:"moyenneMensuelle"`
	Months         []SeriesPoint `json:"parMois"`
}

// Overview feeds the statistics page: current day, month and year plus trends.
type Overview struct {
	Day     DayStats   `json:"journalier"`
	Month   MonthStats `json:"mensuel"`
	Year    YearStats  `json:"annuel"`
	Summary struct {
		MonthlyAverage float64 `json:"moyenneMensuelle"`
		RotationRate   float64 `json:"tauxRotation"`
		TotalTrucks    int64   `json:"totalCamions"`
		Revenue        float64 `json:"sommeGeneree"`
	} `json:"resume"`
	Last30Days   []SeriesPoint `json:"historique30Jours"`
	Last12Months []SeriesPoint `json:"historique12Mois"`
}

// WindowStats is the compact aggregate used by the admin overview.
type WindowStats struct {
	Entered int64   `json:"camionsEntres"`
	Revenue float64 `json:"revenus"`
	Exited  int64   `json:"camionsSortis"`
}

// Global feeds the admin home page.
type Global struct {
	AllTime   Summary        `json:"globales"`
	Today     WindowStats    `json:"aujourdhui"`
	Month     WindowStats    `json:"mois"`
	Year      WindowStats    `json:"annee"`
	Evolution []PeriodBucket `json:"evolutionMensuelle"`
	ByStatus  []StatusBucket `json:"repartitionStatuts"`
}

// Detailed is the period report of the admin dashboard.
type Detailed struct {
	Summary    Summary        `json:"resume"`
	ByStatus   []StatusBucket `json:"parStatut"`
	ByDay      []PeriodBucket `json:"parJour"`
	TopDrivers []DriverBucket `json:"topChauffeurs"`
}

// StatusDetail lists the trucks of one status within a daily report.
type StatusDetail struct {
	StatusBucket
	Trucks []models.Truck `json:"camions"`
}

// DailyReport is the printable report of one day.
type DailyReport struct {
	Date      string         `json:"date"`
	Stats     Summary        `json:"stats"`
	Details   []StatusDetail `json:"details"`
	PeakHours []HourBucket   `json:"heuresPointe"`
}

// Day computes the statistics of date (YYYY-MM-DD).
func Day(db *gorm.DB, date string) (DayStats, error) {
	f := Filter{Date: date}
	sum, err := Summarize(db, f)
	if err != nil {
		return DayStats{}, err
	}
	buckets, err := ByStatus(db, f)
	if err != nil {
		return DayStats{}, err
	}
	var outstanding float64
	if err := db.Scopes(Filter{Date: date, Status: models.StatusToPay}.Scope()).
		Select("COALESCE(SUM(amount_due), 0)").Scan(&outstanding).Error; err != nil {
		return DayStats{}, err
	}

	ds := DayStats{
		Date:         date,
		TotalTrucks:  sum.TotalTrucks,
		ExitedTrucks: sum.ExitedTrucks,
		Revenue:      sum.TotalRevenue,
		Outstanding:  outstanding,
		ExitRate:     Rate(sum.ExitedTrucks, sum.TotalTrucks),
	}
	for _, b := range buckets {
		switch b.Status {
		case models.StatusWaiting:
			ds.Waiting = b.Count
		case models.StatusLoaded:
			ds.Loaded = b.Count
		case models.StatusToPay:
			ds.ToPay = b.Count
		}
	}
	return ds, nil
}

// Month computes the statistics of a calendar month.
func Month(db *gorm.DB, year, month int) (MonthStats, error) {
	if month < 1 || month > 12 {
		return MonthStats{}, fmt.Errorf("mois invalide: %d", month)
	}
	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	f := Filter{From: first.Format(models.DateLayout), To: first.AddDate(0, 1, -1).Format(models.DateLayout)}

	sum, err := Summarize(db, f)
	if err != nil {
		return MonthStats{}, err
	}
	days, err := ByDay(db, f)
	if err != nil {
		return MonthStats{}, err
	}
	ms := MonthStats{
		Year:         year,
		Month:        month,
		TotalTrucks:  sum.TotalTrucks,
		ExitedTrucks: sum.ExitedTrucks,
		Revenue:      sum.TotalRevenue,
		ActiveDays:   len(days),
		ExitRate:     Rate(sum.ExitedTrucks, sum.TotalTrucks),
		Days:         Series(days),
	}
	if ms.ActiveDays > 0 {
		ms.DailyAverage = float64(ms.TotalTrucks) / float64(ms.ActiveDays)
	}
	return ms, nil
}

// Year computes the statistics of a calendar year.
func Year(db *gorm.DB, year int) (YearStats, error) {
	f := Filter{From: fmt.Sprintf("%04d-01-01", year), To: fmt.Sprintf("%04d-12-31", year)}
	sum, err := Summarize(db, f)
	if err != nil {
		return YearStats{}, err
	}
	months, err := ByMonth(db, f, 0)
	if err != nil {
		return YearStats{}, err
	}
	ys := YearStats{
		Year:         year,
		TotalTrucks:  sum.TotalTrucks,
		ExitedTrucks: sum.ExitedTrucks,
		Revenue:      sum.TotalRevenue,
		ActiveMonths: len(months),
		ExitRate:     Rate(sum.ExitedTrucks, sum.TotalTrucks),
		Months:       Series(months),
	}
	if ys.ActiveMonths > 0 {
		ys.MonthlyAverage = float64(ys.TotalTrucks) / float64(ys.ActiveMonths)
	}
	return ys, nil
}

// Complete builds the overview as of today.
func Complete(db *gorm.DB, today time.Time) (Overview, error) {
	var ov Overview
	var err error
	if ov.Day, err = Day(db, today.Format(models.DateLayout)); err != nil {
		return ov, err
	}
	if ov.Month, err = Month(db, today.Year(), int(today.Month())); err != nil {
		return ov, err
	}
	if ov.Year, err = Year(db, today.Year()); err != nil {
		return ov, err
	}
	ov.Summary.MonthlyAverage = ov.Year.MonthlyAverage
	ov.Summary.RotationRate = ov.Year.ExitRate
	ov.Summary.TotalTrucks = ov.Year.TotalTrucks
	ov.Summary.Revenue = ov.Year.Revenue

	last30 := Filter{From: today.AddDate(0, 0, -29).Format(models.DateLayout), To: today.Format(models.DateLayout)}
	days, err := ByDay(db, last30)
	if err != nil {
		return ov, err
	}
	months, err := ByMonth(db, Filter{From: monthsAgo(today, 11)}, 12)
	if err != nil {
		return ov, err
	}
	ov.Last30Days = Series(days)
	ov.Last12Months = Series(months)
	return ov, nil
}

// GlobalStats builds the admin overview as of today.
func GlobalStats(db *gorm.DB, today time.Time) (Global, error) {
	var g Global
	var err error
	if g.AllTime, err = Summarize(db, Filter{}); err != nil {
		return g, err
	}
	windows := []struct {
		dst *WindowStats
		f   Filter
	}{
		{&g.Today, Filter{Date: today.Format(models.DateLayout)}},
		{&g.Month, Filter{From: monthsAgo(today, 0)}},
		{&g.Year, Filter{From: fmt.Sprintf("%04d-01-01", today.Year())}},
	}
	for _, w := range windows {
		s, err := Summarize(db, w.f)
		if err != nil {
			return g, err
		}
		*w.dst = WindowStats{Entered: s.TotalTrucks, Revenue: s.TotalRevenue, Exited: s.ExitedTrucks}
	}
	if g.Evolution, err = ByMonth(db, Filter{From: monthsAgo(today, 11)}, 12); err != nil {
		return g, err
	}
	if g.ByStatus, err = ByStatus(db, Filter{}); err != nil {
		return g, err
	}
	return g, nil
}

// PeriodFilter resolves a named period (jour, semaine, mois, annee) ending
// today. date only applies to "jour" and defaults to today.
func PeriodFilter(period, date string, today time.Time) (Filter, error) {
	end := today.Format(models.DateLayout)
	switch period {
	case "", "jour":
		if date == "" {
			date = end
		}
		return Filter{Date: date}, nil
	case "semaine":
		// weeks start on Sunday, as on the dashboard calendar
		start := today.AddDate(0, 0, -int(today.Weekday()))
		return Filter{From: start.Format(models.DateLayout), To: end}, nil
	case "mois":
		return Filter{From: monthsAgo(today, 0), To: end}, nil
	case "annee":
		return Filter{From: fmt.Sprintf("%04d-01-01", today.Year()), To: end}, nil
	default:
		return Filter{}, fmt.Errorf("période inconnue: %q", period)
	}
}

// DetailedStats builds the period report for f.
func DetailedStats(db *gorm.DB, f Filter) (Detailed, error) {
	var d Detailed
	var err error
	if d.Summary, err = Summarize(db, f); err != nil {
		return d, err
	}
	if d.ByStatus, err = ByStatus(db, f); err != nil {
		return d, err
	}
	if d.ByDay, err = ByDay(db, f); err != nil {
		return d, err
	}
	if d.TopDrivers, err = TopDrivers(db, f, 10); err != nil {
		return d, err
	}
	return d, nil
}

// Daily builds the report of one day with the trucks grouped by status.
// Peak hours are read in loc.
func Daily(db *gorm.DB, date string, loc *time.Location) (DailyReport, error) {
	f := Filter{Date: date}
	r := DailyReport{Date: date, Details: []StatusDetail{}}
	var err error
	if r.Stats, err = Summarize(db, f); err != nil {
		return r, err
	}
	buckets, err := ByStatus(db, f)
	if err != nil {
		return r, err
	}
	for _, b := range buckets {
		var trucks []models.Truck
		if err := db.Where("entry_date = ? AND status = ?", date, b.Status).
			Order("arrived_at").Find(&trucks).Error; err != nil {
			return r, err
		}
		r.Details = append(r.Details, StatusDetail{StatusBucket: b, Trucks: trucks})
	}
	if r.PeakHours, err = PeakHours(db, f, 5, loc); err != nil {
		return r, err
	}
	return r, nil
}

// monthsAgo returns the first day of the month n months before today.
func monthsAgo(today time.Time, n int) string {
	first := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
	return first.AddDate(0, -n, 0).Format(models.DateLayout)
}
