package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/modu-camp/quizdeck-api/internal/models"
)

// DeploymentRepository defines persistence operations for quiz deployments.
type DeploymentRepository interface {
	Create(ctx context.Context, deployment *models.Deployment) error
	GetByID(ctx context.Context, id uint) (models.Deployment, error)
	ListByQuiz(ctx context.Context, quizID uint) ([]models.Deployment, error)
	UpdateStatus(ctx context.Context, id uint, status string) (models.Deployment, error)
	Delete(ctx context.Context, id uint) error
}

type deploymentRepository struct {
	db *gorm.DB
}

// NewDeploymentRepository instantiates a GORM-backed repository.
func NewDeploymentRepository(db *gorm.DB) DeploymentRepository {
	return &deploymentRepository{db: db}
}

func (r *deploymentRepository) Create(ctx context.Context, deployment *models.Deployment) error {
	return r.db.WithContext(ctx).Create(deployment).Error
}

func (r *deploymentRepository) GetByID(ctx context.Context, id uint) (models.Deployment, error) {
	var deployment models.Deployment
	if err := r.db.WithContext(ctx).First(&deployment, id).Error; err != nil {
		return models.Deployment{}, err
	}

	return deployment, nil
}

func (r *deploymentRepository) ListByQuiz(ctx context.Context, quizID uint) ([]models.Deployment, error) {
	var deployments []models.Deployment
	if err := r.db.WithContext(ctx).
		Where("quiz_id = ?", quizID).
		Order("created_at DESC").
		Find(&deployments).Error; err != nil {
		return nil, err
	}

	return deployments, nil
}

// UpdateStatus changes only the status column and returns the fresh row. The
// snapshot and window columns are never touched after creation.
func (r *deploymentRepository) UpdateStatus(ctx context.Context, id uint, status string) (models.Deployment, error) {
	var deployment models.Deployment
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&deployment, id).Error; err != nil {
			return err
		}

		if err := tx.Model(&deployment).UpdateColumn("status", status).Error; err != nil {
			return err
		}

		return tx.First(&deployment, id).Error
	})
	if err != nil {
		return models.Deployment{}, err
	}

	return deployment, nil
}

func (r *deploymentRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Deployment{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
