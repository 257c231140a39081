package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Post struct {
	gorm.Model
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	Title     string    `gorm:"not null"`
	Slug      string    `gorm:"not null;uniqueIndex"`
	Body      string    `gorm:"not null"`
	Published bool      `gorm:"not null;default:false"`
	Comments  []Comment
}

func (post *Post) BeforeCreate(tx *gorm.DB) (err error) {
	if post.ID == uuid.Nil {
		post.ID = uuid.New()
	}
	return
}
