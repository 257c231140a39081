package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PaymentReconciliation records a captured payment for which the reservation
// insert failed. Support works these off manually; the webhook marks a row
// resolved when a matching reservation shows up after all.
type PaymentReconciliation struct {
	ID               uuid.UUID `gorm:"type:uuid;primary_key"`
	PaymentReference string    `gorm:"not null;uniqueIndex"`
	EventID          uuid.UUID `gorm:"type:uuid;not null"`
	UserEmail        string    `gorm:"not null"`
	// Amount is in ZAR cents.
	Amount    int  `gorm:"not null"`
	Resolved  bool `gorm:"not null;default:false"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (rec *PaymentReconciliation) BeforeCreate(tx *gorm.DB) (err error) {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	return
}
