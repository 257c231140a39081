package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ModerationStatus string

const (
	ModerationPending  ModerationStatus = "pending"
	ModerationApproved ModerationStatus = "approved"
	ModerationRejected ModerationStatus = "rejected"
)

// Comment is a visitor comment on a blog post. Comments are moderated:
// they start out pending and only approved ones are served publicly.
type Comment struct {
	gorm.Model
	ID          uuid.UUID        `gorm:"type:uuid;primary_key"`
	PostID      uuid.UUID        `gorm:"type:uuid;not null;index"`
	AuthorName  string           `gorm:"not null"`
	AuthorEmail string           `gorm:"not null"`
	Body        string           `gorm:"not null"`
	Status      ModerationStatus `gorm:"not null;default:'pending'"`
}

func (comment *Comment) BeforeCreate(tx *gorm.DB) (err error) {
	if comment.ID == uuid.Nil {
		comment.ID = uuid.New()
	}
	return
}
