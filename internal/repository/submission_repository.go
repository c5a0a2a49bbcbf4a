package repository

import (
	"github.com/chempartner/paperdesk/internal/model"
	"gorm.io/gorm"
)

// SubmissionStats aggregates one user's submissions.
type SubmissionStats struct {
	Count          int64
	AverageMarks   float64
	HighestMarks   int
	LowestMarks    int
	TotalTimeSpent int64
}

type SubmissionRepository interface {
	Create(submission *model.PaperSubmission) error
	FindByUserID(userID uint) ([]model.PaperSubmission, error)
	StatsByUserID(userID uint) (*SubmissionStats, error)
}

type submissionRepository struct {
	db *gorm.DB
}

func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

func (r *submissionRepository) Create(submission *model.PaperSubmission) error {
	return r.db.Omit("Paper", "User").Create(submission).Error
}

func (r *submissionRepository) FindByUserID(userID uint) ([]model.PaperSubmission, error) {
	var submissions []model.PaperSubmission
	err := r.db.Where("user_id = ?", userID).
		Order("submitted_at ASC").
		Order("id ASC").
		Find(&submissions).Error
	return submissions, err
}

func (r *submissionRepository) StatsByUserID(userID uint) (*SubmissionStats, error) {
	var stats SubmissionStats
	err := r.db.Model(&model.PaperSubmission{}).
		Select(`COUNT(*) AS count,
			COALESCE(AVG(marks), 0) AS average_marks,
			COALESCE(MAX(marks), 0) AS highest_marks,
			COALESCE(MIN(marks), 0) AS lowest_marks,
			COALESCE(SUM(time_spent_seconds), 0) AS total_time_spent`).
		Where("user_id = ?", userID).
		Scan(&stats).Error
	if err != nil {
		return nil, err
	}
	return &stats, nil
}
