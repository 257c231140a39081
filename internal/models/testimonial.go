package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Testimonial struct {
	gorm.Model
	ID     uuid.UUID `gorm:"type:uuid;primary_key"`
	Author string    `gorm:"not null"`
	Role   string
	Body   string           `gorm:"not null"`
	Status ModerationStatus `gorm:"not null;default:'pending'"`
}

func (testimonial *Testimonial) BeforeCreate(tx *gorm.DB) (err error) {
	if testimonial.ID == uuid.Nil {
		testimonial.ID = uuid.New()
	}
	return
}
