package repository

import (
	"github.com/chempartner/paperdesk/internal/model"
	"gorm.io/gorm"
)

type QuestionRepository interface {
	Create(question *model.Question) error
	FindByPaperID(paperID uint) ([]model.Question, error)
}

type questionRepository struct {
	db *gorm.DB
}

func NewQuestionRepository(db *gorm.DB) QuestionRepository {
	return &questionRepository{db: db}
}

func (r *questionRepository) Create(question *model.Question) error {
	return r.db.Create(question).Error
}

func (r *questionRepository) FindByPaperID(paperID uint) ([]model.Question, error) {
	var questions []model.Question
	err := r.db.Where("paper_id = ?", paperID).Order("id ASC").Find(&questions).Error
	return questions, err
}
