package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/chempartner/paperdesk/config"
	"github.com/chempartner/paperdesk/internal/apperror"
	"github.com/chempartner/paperdesk/internal/dto"
	"github.com/chempartner/paperdesk/internal/model"
	"github.com/chempartner/paperdesk/internal/repository"
	"github.com/chempartner/paperdesk/internal/storage"
	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog/log"
)

var pdfMagic = []byte("%PDF-")

// sniffLen is how much of an upload is read to validate its signature.
const sniffLen = 512

// PDFUpload is an uploaded file as received from a multipart form.
type PDFUpload struct {
	Filename string
	Size     int64
	Content  io.ReadSeeker
}

// PDFStream is an open PDF ready to be written to a client.
type PDFStream struct {
	Body     io.ReadCloser
	Size     int64
	Filename string
}

type PDFAssetService interface {
	// Validate checks extension, size and signature without persisting
	// anything. Content is rewound afterwards.
	Validate(upload *PDFUpload) error
	// Attach stores upload as the paper's PDF, replacing any previous one.
	Attach(ctx context.Context, paperID uint, upload *PDFUpload) (*dto.PaperUploadResponse, error)
	// Open returns the paper's current PDF. It waits for any replace or
	// delete of the same paper to finish.
	Open(ctx context.Context, paperID uint) (*PDFStream, error)
	// Discard deletes the paper's blob. A blob already missing is not an
	// error. The caller must hold the paper's lock.
	Discard(ctx context.Context, paper *model.Paper) error
}

type pdfAssetService struct {
	paperRepo repository.PaperRepository
	store     storage.BlobStore
	locks     *PaperLocks
	maxBytes  int64
	now       func() time.Time
}

func NewPDFAssetService(paperRepo repository.PaperRepository, store storage.BlobStore, locks *PaperLocks, cfg *config.Config) PDFAssetService {
	return &pdfAssetService{
		paperRepo: paperRepo,
		store:     store,
		locks:     locks,
		maxBytes:  cfg.Upload.MaxBytes,
		now:       time.Now,
	}
}

func (s *pdfAssetService) Validate(upload *PDFUpload) error {
	if upload == nil || upload.Content == nil {
		return apperror.New(apperror.KindInvalidFormat, "No file uploaded")
	}
	if !strings.EqualFold(filepath.Ext(upload.Filename), ".pdf") {
		return apperror.New(apperror.KindInvalidFormat, "File must be a PDF document")
	}
	if upload.Size > s.maxBytes {
		return apperror.New(apperror.KindTooLarge,
			fmt.Sprintf("File size exceeds %s limit", humanize.IBytes(uint64(s.maxBytes))))
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(upload.Content, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return apperror.Wrap(apperror.KindInvalidFormat, "Could not read uploaded file", err)
	}
	head = head[:n]
	if _, err := upload.Content.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("rewind upload: %w", err)
	}

	if !bytes.HasPrefix(head, pdfMagic) || !mimetype.Detect(head).Is("application/pdf") {
		return apperror.ErrInvalidFormat
	}
	return nil
}

func (s *pdfAssetService) Attach(ctx context.Context, paperID uint, upload *PDFUpload) (*dto.PaperUploadResponse, error) {
	unlock := s.locks.Lock(paperID)
	defer unlock()

	paper, err := s.paperRepo.FindByID(paperID)
	if err != nil {
		return nil, lookupError(err, "Paper not found", "load paper")
	}
	if err := s.Validate(upload); err != nil {
		return nil, err
	}

	key := storage.NewKey(paperID, s.now())
	// The limit guards against a Size that understates the real payload.
	body := io.LimitReader(upload.Content, s.maxBytes+1)
	if err := s.store.Put(ctx, key, body, upload.Size); err != nil {
		log.Error().Err(err).Uint("paperID", paperID).Str("key", key).Msg("Attach: failed to store PDF")
		return nil, apperror.Wrap(apperror.KindStorage, "Failed to save PDF file", err)
	}

	if err := s.paperRepo.SetPDFKey(paperID, &key); err != nil {
		if delErr := s.store.Delete(ctx, key); delErr != nil && !errors.Is(delErr, storage.ErrBlobNotFound) {
			log.Error().Err(delErr).Str("key", key).Msg("Attach: failed to remove unlinked PDF")
		}
		return nil, lookupError(err, "Paper not found", "link PDF")
	}

	if paper.HasPDF() && *paper.PDFKey != key {
		if err := s.store.Delete(ctx, *paper.PDFKey); err != nil && !errors.Is(err, storage.ErrBlobNotFound) {
			// The new PDF is already linked; the old blob is now orphaned.
			log.Error().Err(err).Uint("paperID", paperID).Str("key", *paper.PDFKey).Msg("Attach: failed to remove replaced PDF")
		}
	}

	log.Info().
		Uint("paperID", paperID).
		Str("key", key).
		Str("size", humanize.IBytes(uint64(upload.Size))).
		Bool("replaced", paper.HasPDF()).
		Msg("PDF attached to paper")

	return &dto.PaperUploadResponse{PaperID: paper.ID, Title: paper.Title, PDFPath: key}, nil
}

func (s *pdfAssetService) Open(ctx context.Context, paperID uint) (*PDFStream, error) {
	// Held until the blob is open so a concurrent replace cannot delete the
	// key between lookup and open.
	unlock := s.locks.Lock(paperID)
	defer unlock()

	paper, err := s.paperRepo.FindByID(paperID)
	if err != nil {
		return nil, lookupError(err, "Paper not found", "load paper")
	}
	if !paper.HasPDF() {
		return nil, apperror.New(apperror.KindNotFound, "PDF not found for this paper")
	}

	obj, err := s.store.Open(ctx, *paper.PDFKey)
	if err != nil {
		if errors.Is(err, storage.ErrBlobNotFound) {
			log.Warn().Uint("paperID", paperID).Str("key", *paper.PDFKey).Msg("Open: linked PDF is missing from storage")
			return nil, apperror.Wrap(apperror.KindAssetMissing, apperror.ErrAssetMissing.Message, err)
		}
		return nil, apperror.Wrap(apperror.KindStorage, "Failed to read PDF file", err)
	}
	return &PDFStream{
		Body:     obj.Body,
		Size:     obj.Size,
		Filename: fmt.Sprintf("paper_%d.pdf", paperID),
	}, nil
}

func (s *pdfAssetService) Discard(ctx context.Context, paper *model.Paper) error {
	if !paper.HasPDF() {
		return nil
	}
	if err := s.store.Delete(ctx, *paper.PDFKey); err != nil {
		if errors.Is(err, storage.ErrBlobNotFound) {
			log.Warn().Uint("paperID", paper.ID).Str("key", *paper.PDFKey).Msg("Discard: PDF already missing")
			return nil
		}
		return apperror.Wrap(apperror.KindStorage, "Failed to delete PDF file", err)
	}
	return nil
}
