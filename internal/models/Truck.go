// internal/models/truck.go
package models

import (
	"strings"
	"time"
)

// TruckStatus is the lifecycle position of a truck in the yard.
// Values are kept in French as the dashboard reads them verbatim.
type TruckStatus string

const (
	StatusWaiting TruckStatus = "en_attente"
	StatusLoaded  TruckStatus = "charge"
	StatusToPay   TruckStatus = "paye"
	StatusExited  TruckStatus = "sorti"
)

// AllStatuses lists the lifecycle in order.
var AllStatuses = []TruckStatus{StatusWaiting, StatusLoaded, StatusToPay, StatusExited}

// ActiveStatuses are the statuses of a truck still inside the yard.
var ActiveStatuses = []TruckStatus{StatusWaiting, StatusLoaded, StatusToPay}

// DateLayout is the format of EntryDate and ExitDate.
const DateLayout = "2006-01-02"

// Truck is one visit of a vehicle to the weighbridge, from entry to exit.
type Truck struct {
	ID           uint        `json:"_id" gorm:"primaryKey"`
	Plate        string      `json:"plaque" gorm:"not null;index"`
	Driver       string      `json:"chauffeur" gorm:"not null"`
	EntryDate    string      `json:"dateEntree" gorm:"not null;index;size:10"`
	ArrivedAt    time.Time   `json:"heureArrivee"`
	DepartedAt   *time.Time  `json:"heureDepart"`
	ExitDate     string      `json:"dateSortie,omitempty" gorm:"size:10"`
	Status       TruckStatus `json:"statut" gorm:"not null;default:'en_attente';index"`
	AmountDue    float64     `json:"montantDu" gorm:"not null;default:0"`
	AmountPaid   float64     `json:"montantPaye" gorm:"not null;default:0"`
	ArrivalOrder int         `json:"ordreArrivee"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`

	StatusChanges []StatusChange `json:"historique,omitempty" gorm:"foreignKey:TruckID;constraint:OnDelete:CASCADE;"`
}

// TableName keeps the historical collection name.
func (Truck) TableName() string {
	return "camions"
}

// NormalizePlate trims and upper-cases a licence plate.
func NormalizePlate(plate string) string {
	return strings.ToUpper(strings.TrimSpace(plate))
}
