package model

import (
	"time"

	"gorm.io/gorm"
)

type Paper struct {
	ID              uint           `gorm:"primarykey" json:"id"`
	Title           string         `json:"title" gorm:"not null;index"`
	Description     string         `json:"description" gorm:"type:text"`
	DurationMinutes int            `json:"duration_minutes" gorm:"not null"`
	TotalMarks      int            `json:"total_marks" gorm:"not null"`
	PDFKey          *string        `json:"-" gorm:"column:pdf_key"` // blob store handle, nil when no PDF is linked
	CreatedByID     *uint          `json:"created_by_id,omitempty" gorm:"index"`
	Questions       []Question     `json:"questions,omitempty" gorm:"foreignKey:PaperID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}

func (p *Paper) HasPDF() bool {
	return p.PDFKey != nil && *p.PDFKey != ""
}
