package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	EventTypeInPerson = "in-person"
	EventTypeVirtual  = "virtual"
	EventTypeHybrid   = "hybrid"
)

// ValidEventType reports whether t is one of the supported event types.
func ValidEventType(t string) bool {
	return t == EventTypeInPerson || t == EventTypeVirtual || t == EventTypeHybrid
}

type Event struct {
	gorm.Model
	ID          uuid.UUID `gorm:"type:uuid;primary_key"`
	Title       string    `gorm:"not null"`
	Description string    `gorm:"not null"`
	Date        time.Time `gorm:"not null;index"`
	StartTime   string    `gorm:"not null"`
	EndTime     string    `gorm:"not null"`
	Location    string    `gorm:"not null"`
	Capacity    int       `gorm:"not null"`
	// Price is in ZAR cents, zero when IsFree.
	Price     int  `gorm:"not null;default:0"`
	IsFree    bool `gorm:"not null;default:false"`
	Category  string
	EventType string `gorm:"not null;default:'in-person'"`
	ImagePath string
	// LockVersion is bumped inside the reservation transaction to take a
	// row lock on the event, serialising concurrent reservers.
	LockVersion  int `gorm:"not null;default:0"`
	Reservations []Reservation
}

func (event *Event) BeforeCreate(tx *gorm.DB) (err error) {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	return
}
