package dto

import "time"

// SubmissionCreateRequest is the body of POST /papers/{id}/submit. The user
// and timestamp are never taken from the client.
type SubmissionCreateRequest struct {
	Marks     *int `json:"marks" binding:"required,min=0"`
	TimeSpent *int `json:"time_spent" binding:"required,min=0"` // seconds
}

type SubmissionResponse struct {
	ID          uint      `json:"id"`
	PaperID     uint      `json:"paper_id"`
	UserID      uint      `json:"user_id"`
	Marks       int       `json:"marks"`
	TimeSpent   int       `json:"time_spent"`
	SubmittedAt time.Time `json:"submitted_at"`
}

type SubmissionStatsResponse struct {
	Count          int64   `json:"count"`
	AverageMarks   float64 `json:"average_marks"`
	HighestMarks   int     `json:"highest_marks"`
	LowestMarks    int     `json:"lowest_marks"`
	TotalTimeSpent int64   `json:"total_time_spent"`
}
