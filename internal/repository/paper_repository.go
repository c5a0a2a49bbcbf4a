package repository

import (
	"errors"
	"fmt"

	"github.com/chempartner/paperdesk/internal/model"
	"gorm.io/gorm"
)

type PaperRepository interface {
	Create(paper *model.Paper) error
	FindByID(id uint) (*model.Paper, error)
	FindByIDWithQuestions(id uint) (*model.Paper, error)
	FindAll(offset, limit int) ([]model.Paper, error)
	// Update replaces the scalar fields; the PDF handle is left untouched.
	Update(paper *model.Paper) error
	// SetPDFKey links (or unlinks, with nil) the paper's blob handle.
	SetPDFKey(id uint, key *string) error
	// Delete soft-deletes the paper and its questions, then runs afterCommit
	// once that is committed. If afterCommit fails the rows are restored, so
	// the paper only disappears together with its asset.
	Delete(id uint, afterCommit func(paper *model.Paper) error) error
}

type paperRepository struct {
	db *gorm.DB
}

func NewPaperRepository(db *gorm.DB) PaperRepository {
	return &paperRepository{db: db}
}

func (r *paperRepository) Create(paper *model.Paper) error {
	return r.db.Create(paper).Error
}

func (r *paperRepository) FindByID(id uint) (*model.Paper, error) {
	var paper model.Paper
	if err := r.db.First(&paper, id).Error; err != nil {
		return nil, err
	}
	return &paper, nil
}

func (r *paperRepository) FindByIDWithQuestions(id uint) (*model.Paper, error) {
	var paper model.Paper
	err := r.db.Preload("Questions", func(db *gorm.DB) *gorm.DB {
		return db.Order("questions.id ASC")
	}).First(&paper, id).Error
	if err != nil {
		return nil, err
	}
	return &paper, nil
}

func (r *paperRepository) FindAll(offset, limit int) ([]model.Paper, error) {
	var papers []model.Paper
	err := r.db.Order("papers.id ASC").Offset(offset).Limit(limit).Find(&papers).Error
	return papers, err
}

func (r *paperRepository) Update(paper *model.Paper) error {
	res := r.db.Model(paper).
		Select("title", "description", "duration_minutes", "total_marks").
		Updates(paper)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *paperRepository) SetPDFKey(id uint, key *string) error {
	res := r.db.Model(&model.Paper{}).Where("id = ?", id).Update("pdf_key", key)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *paperRepository) Delete(id uint, afterCommit func(paper *model.Paper) error) error {
	var paper model.Paper
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&paper, id).Error; err != nil {
			return err
		}
		if err := tx.Where("paper_id = ?", id).Delete(&model.Question{}).Error; err != nil {
			return err
		}
		return tx.Delete(&paper).Error
	})
	if err != nil || afterCommit == nil {
		return err
	}

	if err := afterCommit(&paper); err != nil {
		if restoreErr := r.restore(id); restoreErr != nil {
			return errors.Join(err, fmt.Errorf("restore paper %d: %w", id, restoreErr))
		}
		return err
	}
	return nil
}

// restore undoes a soft delete. Questions are only ever removed with their
// paper, so every deleted question of the paper comes back.
func (r *paperRepository) restore(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Model(&model.Paper{}).Where("id = ?", id).Update("deleted_at", nil).Error; err != nil {
			return err
		}
		return tx.Unscoped().Model(&model.Question{}).
			Where("paper_id = ? AND deleted_at IS NOT NULL", id).
			Update("deleted_at", nil).Error
	})
}
