package service

import (
	"context"
	"fmt"

	"github.com/chempartner/paperdesk/internal/dto"
	"github.com/chempartner/paperdesk/internal/model"
	"github.com/chempartner/paperdesk/internal/repository"
	"github.com/jinzhu/copier"
	"github.com/rs/zerolog/log"
)

const (
	DefaultPaperPageSize = 100
	MaxPaperPageSize     = 100
)

type PaperService interface {
	// CreatePaper validates pdf (when given) before creating the row, so an
	// invalid upload never leaves a paper behind.
	CreatePaper(ctx context.Context, req dto.PaperRequest, createdBy uint, pdf *PDFUpload) (*dto.PaperResponse, error)
	// UpdatePaper replaces all four scalar fields and, when pdf is given,
	// the paper's PDF.
	UpdatePaper(ctx context.Context, id uint, req dto.PaperRequest, pdf *PDFUpload) (*dto.PaperResponse, error)
	DeletePaper(ctx context.Context, id uint) error
	GetPaper(id uint) (*dto.PaperResponse, error)
	ListPapers(offset, limit int) ([]dto.PaperResponse, error)
}

type paperService struct {
	paperRepo repository.PaperRepository
	assets    PDFAssetService
	locks     *PaperLocks
}

func NewPaperService(paperRepo repository.PaperRepository, assets PDFAssetService, locks *PaperLocks) PaperService {
	return &paperService{paperRepo: paperRepo, assets: assets, locks: locks}
}

func toPaperResponse(paper *model.Paper) dto.PaperResponse {
	var resp dto.PaperResponse
	copier.Copy(&resp, paper)
	resp.PDFPath = paper.PDFKey
	resp.HasPDF = paper.HasPDF()
	if resp.Questions == nil {
		resp.Questions = []dto.QuestionResponse{}
	}
	return resp
}

func (s *paperService) CreatePaper(ctx context.Context, req dto.PaperRequest, createdBy uint, pdf *PDFUpload) (*dto.PaperResponse, error) {
	if pdf != nil {
		if err := s.assets.Validate(pdf); err != nil {
			return nil, err
		}
	}

	paper := model.Paper{
		Title:           req.Title,
		Description:     req.Description,
		DurationMinutes: req.DurationMinutes,
		TotalMarks:      req.TotalMarks,
		CreatedByID:     &createdBy,
	}
	if err := s.paperRepo.Create(&paper); err != nil {
		log.Error().Err(err).Msg("CreatePaper: failed to create paper")
		return nil, fmt.Errorf("create paper: %w", err)
	}

	if pdf != nil {
		upload, err := s.assets.Attach(ctx, paper.ID, pdf)
		if err != nil {
			log.Error().Err(err).Uint("paperID", paper.ID).Msg("CreatePaper: PDF upload failed, removing paper")
			if delErr := s.DeletePaper(ctx, paper.ID); delErr != nil {
				log.Error().Err(delErr).Uint("paperID", paper.ID).Msg("CreatePaper: failed to remove paper after PDF failure")
			}
			return nil, err
		}
		paper.PDFKey = &upload.PDFPath
	}

	log.Info().Uint("paperID", paper.ID).Str("title", paper.Title).Msg("Paper created")
	resp := toPaperResponse(&paper)
	return &resp, nil
}

func (s *paperService) UpdatePaper(ctx context.Context, id uint, req dto.PaperRequest, pdf *PDFUpload) (*dto.PaperResponse, error) {
	if pdf != nil {
		if err := s.assets.Validate(pdf); err != nil {
			return nil, err
		}
	}

	paper, err := s.paperRepo.FindByID(id)
	if err != nil {
		return nil, lookupError(err, "Paper not found", "load paper")
	}

	// The PDF goes first so a failed write leaves the whole paper as it was.
	if pdf != nil {
		if _, err := s.assets.Attach(ctx, id, pdf); err != nil {
			return nil, err
		}
	}

	paper.Title = req.Title
	paper.Description = req.Description
	paper.DurationMinutes = req.DurationMinutes
	paper.TotalMarks = req.TotalMarks
	if err := s.paperRepo.Update(paper); err != nil {
		if pdf != nil {
			log.Error().Err(err).Uint("paperID", id).Msg("UpdatePaper: PDF replaced but field update failed")
		}
		return nil, lookupError(err, "Paper not found", "update paper")
	}
	return s.GetPaper(id)
}

func (s *paperService) DeletePaper(ctx context.Context, id uint) error {
	unlock := s.locks.Lock(id)
	defer unlock()

	err := s.paperRepo.Delete(id, func(paper *model.Paper) error {
		return s.assets.Discard(ctx, paper)
	})
	if err != nil {
		return lookupError(err, "Paper not found", "delete paper")
	}
	log.Info().Uint("paperID", id).Msg("Paper deleted")
	return nil
}

func (s *paperService) GetPaper(id uint) (*dto.PaperResponse, error) {
	paper, err := s.paperRepo.FindByIDWithQuestions(id)
	if err != nil {
		return nil, lookupError(err, "Paper not found", "load paper")
	}
	resp := toPaperResponse(paper)
	return &resp, nil
}

func (s *paperService) ListPapers(offset, limit int) ([]dto.PaperResponse, error) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = DefaultPaperPageSize
	}
	if limit > MaxPaperPageSize {
		limit = MaxPaperPageSize
	}
	papers, err := s.paperRepo.FindAll(offset, limit)
	if err != nil {
		log.Error().Err(err).Msg("ListPapers: failed to fetch papers")
		return nil, fmt.Errorf("list papers: %w", err)
	}
	resp := make([]dto.PaperResponse, 0, len(papers))
	for i := range papers {
		resp = append(resp, toPaperResponse(&papers[i]))
	}
	return resp, nil
}
