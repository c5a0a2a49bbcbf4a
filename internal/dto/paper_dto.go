package dto

import "time"

// PaperRequest carries the four scalar fields of a paper. Updates are full
// replaces, so every field is required on PUT as well.
type PaperRequest struct {
	Title           string `form:"title" json:"title" binding:"required,max=255"`
	Description     string `form:"description" json:"description" binding:"required"`
	DurationMinutes int    `form:"duration_minutes" json:"duration_minutes" binding:"required,min=1"`
	TotalMarks      int    `form:"total_marks" json:"total_marks" binding:"required,min=1"`
}

type PaperListQuery struct {
	Offset int `form:"offset" binding:"omitempty,min=0"`
	Limit  int `form:"limit" binding:"omitempty,min=1,max=100"`
}

type QuestionCreateRequest struct {
	QuestionText string `json:"question_text" binding:"required"`
	Answer       string `json:"answer" binding:"required"`
	Marks        *int   `json:"marks" binding:"required,min=0"`
}

type QuestionResponse struct {
	ID           uint   `json:"id"`
	PaperID      uint   `json:"paper_id"`
	QuestionText string `json:"question_text"`
	Answer       string `json:"answer"`
	Marks        int    `json:"marks"`
}

type PaperResponse struct {
	ID              uint               `json:"id"`
	Title           string             `json:"title"`
	Description     string             `json:"description"`
	DurationMinutes int                `json:"duration_minutes"`
	TotalMarks      int                `json:"total_marks"`
	PDFPath         *string            `json:"pdf_path"`
	HasPDF          bool               `json:"has_pdf"`
	Questions       []QuestionResponse `json:"questions"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

type PaperUploadResponse struct {
	PaperID uint   `json:"paper_id"`
	Title   string `json:"title"`
	PDFPath string `json:"pdf_path"`
}
