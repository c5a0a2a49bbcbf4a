package model

import (
	"time"

	"gorm.io/gorm"
)

type Question struct {
	ID           uint           `gorm:"primarykey" json:"id"`
	PaperID      uint           `json:"paper_id" gorm:"not null;index"`
	QuestionText string         `json:"question_text" gorm:"type:text;not null"`
	Answer       string         `json:"answer" gorm:"type:text;not null"`
	Marks        int            `json:"marks" gorm:"not null"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}
