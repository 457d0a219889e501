// Package reports holds the aggregation queries behind the statistics and
// admin endpoints. Grouping and summing is done by the database; the Go side
// only fills zero values and derives ratios.
package reports

import (
	"strings"

	"gorm.io/gorm"

	"camion_tracker/internal/models"
)

// Filter narrows the trucks a query runs over. Zero fields are ignored.
type Filter struct {
	// Date matches one entry date exactly and wins over From/To.
	Date string
	// From and To bound the entry date, both inclusive.
	From string
	To   string
	// Status "all" is treated like an empty status.
	Status models.TruckStatus
	// Search is a case-insensitive substring of the plate or the driver name.
	Search string
	// PaidOnly keeps exited trucks that paid a positive amount.
	PaidOnly bool
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Scope returns a GORM scope applying the filter to the camions table.
func (f Filter) Scope() func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		db = db.Model(&models.Truck{})
		switch {
		case f.Date != "":
			db = db.Where("entry_date = ?", f.Date)
		case f.From != "" || f.To != "":
			if f.From != "" {
				db = db.Where("entry_date >= ?", f.From)
			}
			if f.To != "" {
				db = db.Where("entry_date <= ?", f.To)
			}
		}
		if f.Status != "" && f.Status != "all" {
			db = db.Where("status = ?", f.Status)
		}
		if f.PaidOnly {
			db = db.Where("status = ? AND amount_paid > 0", models.StatusExited)
		}
		if s := strings.TrimSpace(f.Search); s != "" {
			pattern := "%" + likeEscaper.Replace(strings.ToLower(s)) + "%"
			db = db.Where(`(LOWER(plate) LIKE ? ESCAPE '\' OR LOWER(driver) LIKE ? ESCAPE '\')`, pattern, pattern)
		}
		return db
	}
}
