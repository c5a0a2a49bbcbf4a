package service

import (
	"fmt"

	"github.com/chempartner/paperdesk/internal/dto"
	"github.com/chempartner/paperdesk/internal/model"
	"github.com/chempartner/paperdesk/internal/repository"
	"github.com/jinzhu/copier"
	"github.com/rs/zerolog/log"
)

type QuestionService interface {
	AddQuestion(paperID uint, req dto.QuestionCreateRequest) (*dto.QuestionResponse, error)
	ListQuestions(paperID uint) ([]dto.QuestionResponse, error)
}

type questionService struct {
	repo      repository.QuestionRepository
	paperRepo repository.PaperRepository // To validate PaperID
}

func NewQuestionService(repo repository.QuestionRepository, paperRepo repository.PaperRepository) QuestionService {
	return &questionService{repo: repo, paperRepo: paperRepo}
}

func (s *questionService) AddQuestion(paperID uint, req dto.QuestionCreateRequest) (*dto.QuestionResponse, error) {
	if _, err := s.paperRepo.FindByID(paperID); err != nil {
		log.Warn().Err(err).Uint("paperID", paperID).Msg("AddQuestion: paper lookup failed")
		return nil, lookupError(err, "Paper not found", "load paper")
	}

	question := model.Question{
		PaperID:      paperID,
		QuestionText: req.QuestionText,
		Answer:       req.Answer,
	}
	if req.Marks != nil {
		question.Marks = *req.Marks
	}

	if err := s.repo.Create(&question); err != nil {
		log.Error().Err(err).Uint("paperID", paperID).Msg("AddQuestion: failed to create question")
		return nil, fmt.Errorf("create question: %w", err)
	}
	var resp dto.QuestionResponse
	copier.Copy(&resp, &question)
	return &resp, nil
}

func (s *questionService) ListQuestions(paperID uint) ([]dto.QuestionResponse, error) {
	if _, err := s.paperRepo.FindByID(paperID); err != nil {
		return nil, lookupError(err, "Paper not found", "load paper")
	}
	questions, err := s.repo.FindByPaperID(paperID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	resp := make([]dto.QuestionResponse, 0, len(questions))
	copier.Copy(&resp, &questions)
	return resp, nil
}
