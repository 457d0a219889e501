package models

import "time"

// StatusChange is the audit trail of every lifecycle transition of a truck.
type StatusChange struct {
	ID         uint        `json:"id" gorm:"primaryKey"`
	TruckID    uint        `json:"camionId" gorm:"not null;index"`
	FromStatus TruckStatus `json:"de"`
	ToStatus   TruckStatus `json:"vers" gorm:"not null"`
	ChangedBy  uint        `json:"parUtilisateur"` // user id from the token, 0 for scripts
	Note       string      `json:"note"`
	CreatedAt  time.Time   `json:"date"`
}
