package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/modu-camp/quizdeck-api/internal/models"
)

// QuizRepository defines persistence operations for quizzes.
type QuizRepository interface {
	GetByID(ctx context.Context, id uint) (models.Quiz, error)
	Create(ctx context.Context, quiz *models.Quiz) error
}

// CohortRepository defines persistence operations for cohorts.
type CohortRepository interface {
	GetByID(ctx context.Context, id uint) (models.Cohort, error)
	Create(ctx context.Context, cohort *models.Cohort) error
}

type quizRepository struct {
	db *gorm.DB
}

// NewQuizRepository instantiates a GORM-backed quiz repository.
func NewQuizRepository(db *gorm.DB) QuizRepository {
	return &quizRepository{db: db}
}

func (r *quizRepository) GetByID(ctx context.Context, id uint) (models.Quiz, error) {
	var quiz models.Quiz
	if err := r.db.WithContext(ctx).First(&quiz, id).Error; err != nil {
		return models.Quiz{}, err
	}

	return quiz, nil
}

func (r *quizRepository) Create(ctx context.Context, quiz *models.Quiz) error {
	return r.db.WithContext(ctx).Create(quiz).Error
}

type cohortRepository struct {
	db *gorm.DB
}

// NewCohortRepository instantiates a GORM-backed cohort repository.
func NewCohortRepository(db *gorm.DB) CohortRepository {
	return &cohortRepository{db: db}
}

func (r *cohortRepository) GetByID(ctx context.Context, id uint) (models.Cohort, error) {
	var cohort models.Cohort
	if err := r.db.WithContext(ctx).First(&cohort, id).Error; err != nil {
		return models.Cohort{}, err
	}

	return cohort, nil
}

func (r *cohortRepository) Create(ctx context.Context, cohort *models.Cohort) error {
	return r.db.WithContext(ctx).Create(cohort).Error
}
