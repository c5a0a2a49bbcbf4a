package service

import (
	"fmt"
	"time"

	"github.com/chempartner/paperdesk/internal/apperror"
	"github.com/chempartner/paperdesk/internal/dto"
	"github.com/chempartner/paperdesk/internal/model"
	"github.com/chempartner/paperdesk/internal/repository"
	"github.com/rs/zerolog/log"
)

type SubmissionService interface {
	Record(paperID, userID uint, req dto.SubmissionCreateRequest) (*dto.SubmissionResponse, error)
	ListForUser(userID uint) ([]dto.SubmissionResponse, error)
	StatsForUser(userID uint) (*dto.SubmissionStatsResponse, error)
}

type submissionService struct {
	paperRepo      repository.PaperRepository
	submissionRepo repository.SubmissionRepository
	now            func() time.Time
}

func NewSubmissionService(paperRepo repository.PaperRepository, submissionRepo repository.SubmissionRepository) SubmissionService {
	return &submissionService{paperRepo: paperRepo, submissionRepo: submissionRepo, now: time.Now}
}

func toSubmissionResponse(sub *model.PaperSubmission) dto.SubmissionResponse {
	return dto.SubmissionResponse{
		ID:          sub.ID,
		PaperID:     sub.PaperID,
		UserID:      sub.UserID,
		Marks:       sub.Marks,
		TimeSpent:   sub.TimeSpentSeconds,
		SubmittedAt: sub.SubmittedAt,
	}
}

// Record appends a submission. Resubmitting creates another row.
func (s *submissionService) Record(paperID, userID uint, req dto.SubmissionCreateRequest) (*dto.SubmissionResponse, error) {
	if req.Marks == nil || req.TimeSpent == nil {
		return nil, apperror.New(apperror.KindInvalidInput, "marks and time_spent are required")
	}
	paper, err := s.paperRepo.FindByID(paperID)
	if err != nil {
		return nil, lookupError(err, "Paper not found", "load paper")
	}
	if *req.Marks < 0 || *req.Marks > paper.TotalMarks {
		return nil, apperror.New(apperror.KindInvalidInput,
			fmt.Sprintf("marks must be between 0 and %d", paper.TotalMarks))
	}
	if *req.TimeSpent < 0 {
		return nil, apperror.New(apperror.KindInvalidInput, "time_spent must not be negative")
	}

	submission := model.PaperSubmission{
		PaperID:          paperID,
		UserID:           userID,
		Marks:            *req.Marks,
		TimeSpentSeconds: *req.TimeSpent,
		SubmittedAt:      s.now().UTC(),
	}
	if err := s.submissionRepo.Create(&submission); err != nil {
		log.Error().Err(err).Uint("paperID", paperID).Uint("userID", userID).Msg("Record: failed to create submission")
		return nil, fmt.Errorf("create submission: %w", err)
	}

	log.Info().Uint("submissionID", submission.ID).Uint("paperID", paperID).Uint("userID", userID).Msg("Submission recorded")
	resp := toSubmissionResponse(&submission)
	return &resp, nil
}

func (s *submissionService) ListForUser(userID uint) ([]dto.SubmissionResponse, error) {
	subs, err := s.submissionRepo.FindByUserID(userID)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	resp := make([]dto.SubmissionResponse, 0, len(subs))
	for i := range subs {
		resp = append(resp, toSubmissionResponse(&subs[i]))
	}
	return resp, nil
}

func (s *submissionService) StatsForUser(userID uint) (*dto.SubmissionStatsResponse, error) {
	stats, err := s.submissionRepo.StatsByUserID(userID)
	if err != nil {
		return nil, fmt.Errorf("submission stats: %w", err)
	}
	return &dto.SubmissionStatsResponse{
		Count:          stats.Count,
		AverageMarks:   stats.AverageMarks,
		HighestMarks:   stats.HighestMarks,
		LowestMarks:    stats.LowestMarks,
		TotalTimeSpent: stats.TotalTimeSpent,
	}, nil
}
