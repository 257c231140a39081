package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ReservationStatus string

const (
	ReservationConfirmed ReservationStatus = "confirmed"
	ReservationCancelled ReservationStatus = "cancelled"
)

type PaymentStatus string

const (
	PaymentCompleted       PaymentStatus = "completed"
	PaymentPending         PaymentStatus = "pending"
	PaymentRefundRequested PaymentStatus = "refund_requested"
	PaymentRefunded        PaymentStatus = "refunded"
)

type Reservation struct {
	gorm.Model
	ID            uuid.UUID `gorm:"type:uuid;primary_key"`
	EventID       uuid.UUID `gorm:"type:uuid;not null;index"`
	Event         Event
	UserName      string `gorm:"not null"`
	UserEmail     string `gorm:"not null;index"`
	UserPhone     string
	Status        ReservationStatus `gorm:"not null;default:'confirmed'"`
	PaymentStatus PaymentStatus     `gorm:"not null;default:'pending'"`
	// PaymentAmount is in ZAR cents.
	PaymentAmount int `gorm:"not null;default:0"`
	// PaymentReference is the gateway reference, set only for paid events.
	// It doubles as the idempotency key for the reservation write.
	PaymentReference *string `gorm:"uniqueIndex"`
	TicketID         string  `gorm:"not null;uniqueIndex"`
	Notes            []ReservationNote
}

func (reservation *Reservation) BeforeCreate(tx *gorm.DB) (err error) {
	if reservation.ID == uuid.Nil {
		reservation.ID = uuid.New()
	}
	return
}

type NoteAction string

const (
	NoteReserved        NoteAction = "reserved"
	NoteCancelled       NoteAction = "cancelled"
	NoteRefundRequested NoteAction = "refund_requested"
)

// ReservationNote is one entry of a reservation's append-only audit trail.
// Rows are never updated or deleted.
type ReservationNote struct {
	ID            uuid.UUID  `gorm:"type:uuid;primary_key"`
	ReservationID uuid.UUID  `gorm:"type:uuid;not null;index"`
	Actor         string     `gorm:"not null"`
	Action        NoteAction `gorm:"not null"`
	Reason        string
	CreatedAt     time.Time
}

func (note *ReservationNote) BeforeCreate(tx *gorm.DB) (err error) {
	if note.ID == uuid.Nil {
		note.ID = uuid.New()
	}
	return
}
