package model

import (
	"time"
)

// PaperSubmission is append-only: rows are never updated or deleted.
type PaperSubmission struct {
	ID               uint      `gorm:"primarykey" json:"id"`
	PaperID          uint      `json:"paper_id" gorm:"not null;index"`
	Paper            Paper     `json:"-" gorm:"foreignKey:PaperID"`
	UserID           uint      `json:"user_id" gorm:"not null;index:idx_submission_user_time,priority:1"`
	User             User      `json:"-" gorm:"foreignKey:UserID"`
	Marks            int       `json:"marks" gorm:"not null"`
	TimeSpentSeconds int       `json:"time_spent" gorm:"not null"`
	SubmittedAt      time.Time `json:"submitted_at" gorm:"not null;index:idx_submission_user_time,priority:2"`
}
