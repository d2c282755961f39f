package dto

import (
	"time"

	"github.com/modu-camp/quizdeck-api/internal/models"
	"github.com/modu-camp/quizdeck-api/internal/quiz"
)

// QuestionCreateRequest describes the payload for creating a new question.
type QuestionCreateRequest struct {
	Type        string   `json:"type" validate:"required,oneof=single_choice multi_choice true_false ordering fill_in_blank short_answer"`
	Question    string   `json:"question" validate:"required"`
	Prompt      *string  `json:"prompt"`
	BlankCount  *int     `json:"blank_count"`
	Options     []string `json:"options"`
	Answer      []string `json:"answer" validate:"required,min=1,dive,required"`
	Point       int      `json:"point" validate:"required,min=1,max=10"`
	Explanation string   `json:"explanation"`
}

// QuestionUpdateRequest describes a partial question update.
type QuestionUpdateRequest struct {
	Question    *string  `json:"question" validate:"omitempty,min=1"`
	Prompt      *string  `json:"prompt"`
	BlankCount  *int     `json:"blank_count"`
	Options     []string `json:"options"`
	Answer      []string `json:"answer" validate:"omitempty,min=1,dive,required"`
	Point       *int     `json:"point" validate:"omitempty,min=1,max=10"`
	Explanation *string  `json:"explanation"`
}

// QuestionBulkReplaceRequest carries a full replacement question set.
type QuestionBulkReplaceRequest struct {
	Questions []QuestionCreateRequest `json:"questions" validate:"required,min=1,dive"`
}

// QuestionResponse is the serialized representation returned to API clients.
type QuestionResponse struct {
	ID          uint      `json:"id"`
	QuizID      uint      `json:"quiz_id"`
	Type        string    `json:"type"`
	Question    string    `json:"question"`
	Prompt      *string   `json:"prompt,omitempty"`
	BlankCount  *int      `json:"blank_count,omitempty"`
	Options     []string  `json:"options,omitempty"`
	Answer      []string  `json:"answer"`
	Point       int       `json:"point"`
	Explanation string    `json:"explanation"`
	ImageURL    string    `json:"image_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewQuestionResponse converts a model into a DTO.
func NewQuestionResponse(model models.Question) QuestionResponse {
	return QuestionResponse{
		ID:          model.ID,
		QuizID:      model.QuizID,
		Type:        model.Type,
		Question:    model.Text,
		Prompt:      model.Prompt,
		BlankCount:  model.BlankCount,
		Options:     model.OptionList(),
		Answer:      model.AnswerList(),
		Point:       model.Point,
		Explanation: model.Explanation,
		ImageURL:    model.ImageURL,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}
}

// NewQuestionResponseSlice converts a slice of models into DTOs.
func NewQuestionResponseSlice(questions []models.Question) []QuestionResponse {
	responses := make([]QuestionResponse, 0, len(questions))
	for _, question := range questions {
		responses = append(responses, NewQuestionResponse(question))
	}

	return responses
}

// QuestionErrorDetail attributes one validation failure to a question index
// and field, for the aggregated bulk error payload.
type QuestionErrorDetail struct {
	Index  int    `json:"index"`
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// NewQuestionErrorDetails flattens a batch validation error for the wire.
func NewQuestionErrorDetails(batch *quiz.BatchError) []QuestionErrorDetail {
	details := make([]QuestionErrorDetail, 0, len(batch.Questions))
	for _, question := range batch.Questions {
		for _, field := range question.Fields {
			details = append(details, QuestionErrorDetail{
				Index:  question.Index,
				Field:  field.Field,
				Reason: field.Reason,
			})
		}
	}

	return details
}
