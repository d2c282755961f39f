package dto

import (
	"time"

	"github.com/modu-camp/quizdeck-api/internal/models"
)

// DeploymentCreateRequest describes the payload for deploying a quiz to a cohort.
type DeploymentCreateRequest struct {
	QuizID          uint   `json:"quiz_id" validate:"required"`
	CohortID        uint   `json:"cohort_id" validate:"required"`
	DurationMinutes int    `json:"duration_minutes" validate:"omitempty,min=1"`
	OpenAt          string `json:"open_at" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
	CloseAt         string `json:"close_at" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
}

// DeploymentResponse is the serialized deployment returned to admin clients.
type DeploymentResponse struct {
	ID              uint      `json:"id"`
	QuizID          uint      `json:"quiz_id"`
	CohortID        uint      `json:"cohort_id"`
	DurationMinutes int       `json:"duration_minutes"`
	AccessCode      string    `json:"access_code"`
	OpenAt          time.Time `json:"open_at"`
	CloseAt         time.Time `json:"close_at"`
	Status          string    `json:"status"`
	QuestionCount   int       `json:"question_count"`
	CreatedAt       time.Time `json:"created_at"`
}

// NewDeploymentResponse converts a model into a DTO.
func NewDeploymentResponse(model models.Deployment) DeploymentResponse {
	return DeploymentResponse{
		ID:              model.ID,
		QuizID:          model.QuizID,
		CohortID:        model.CohortID,
		DurationMinutes: model.DurationMinutes,
		AccessCode:      model.AccessCode,
		OpenAt:          model.OpenAt,
		CloseAt:         model.CloseAt,
		Status:          model.Status,
		QuestionCount:   model.QuestionCount,
		CreatedAt:       model.CreatedAt,
	}
}

// NewDeploymentResponseSlice converts a slice of models into DTOs.
func NewDeploymentResponseSlice(deployments []models.Deployment) []DeploymentResponse {
	responses := make([]DeploymentResponse, 0, len(deployments))
	for _, deployment := range deployments {
		responses = append(responses, NewDeploymentResponse(deployment))
	}

	return responses
}

// AccessRequest carries a student's access-code entry attempt.
type AccessRequest struct {
	Code string `json:"code" validate:"required,len=6"`
}

// AccessInfoResponse is returned when an access code is accepted.
type AccessInfoResponse struct {
	DeploymentID    uint   `json:"deployment_id"`
	QuizTitle       string `json:"quiz_title"`
	DurationMinutes int    `json:"duration_minutes"`
	QuestionCount   int    `json:"question_count"`
}

// DeploymentToggleResponse reports the status after a toggle.
type DeploymentToggleResponse struct {
	ID        uint      `json:"id"`
	Status    string    `json:"status"`
	UpdatedAt time.Time `json:"updated_at"`
}
