package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	DonationKindOnce        = "donation"
	DonationKindSponsorship = "sponsorship"
)

type DonationStatus string

const (
	DonationPending   DonationStatus = "pending"
	DonationCompleted DonationStatus = "completed"
)

type Donation struct {
	gorm.Model
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	DonorName string    `gorm:"not null"`
	Email     string    `gorm:"not null"`
	// Amount is in ZAR cents.
	Amount   int    `gorm:"not null"`
	Currency string `gorm:"not null;default:'ZAR'"`
	Kind     string `gorm:"not null;default:'donation'"`
	// PaymentReference is assigned when the gateway transaction is
	// initialized and is how the webhook finds the row to complete.
	PaymentReference string         `gorm:"not null;uniqueIndex"`
	Status           DonationStatus `gorm:"not null;default:'pending'"`
}

func (donation *Donation) BeforeCreate(tx *gorm.DB) (err error) {
	if donation.ID == uuid.Nil {
		donation.ID = uuid.New()
	}
	return
}
