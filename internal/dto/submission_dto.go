package dto

import (
	"time"

	"github.com/modu-camp/quizdeck-api/internal/models"
	"github.com/modu-camp/quizdeck-api/internal/quiz"
)

// SubmissionCreateRequest carries a student's answers for one deployment.
// Answers maps question ids (as strings) to ordered answer token lists; an
// empty mapping is a valid, zero-scoring submission.
type SubmissionCreateRequest struct {
	StartedAt     string              `json:"started_at" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
	CheatingCount int                 `json:"cheating_count" validate:"min=0"`
	Answers       map[string][]string `json:"answers"`
}

// SubmissionResponse is the graded summary returned right after submission.
type SubmissionResponse struct {
	ID            uint      `json:"id"`
	DeploymentID  uint      `json:"deployment_id"`
	StudentID     uint      `json:"student_id"`
	Score         int       `json:"score"`
	CorrectCount  int       `json:"correct_count"`
	QuestionCount int       `json:"question_count"`
	CreatedAt     time.Time `json:"created_at"`
}

// NewSubmissionResponse converts a model into a DTO.
func NewSubmissionResponse(model models.Submission, questionCount int) SubmissionResponse {
	return SubmissionResponse{
		ID:            model.ID,
		DeploymentID:  model.DeploymentID,
		StudentID:     model.StudentID,
		Score:         model.Score,
		CorrectCount:  model.CorrectCount,
		QuestionCount: questionCount,
		CreatedAt:     model.CreatedAt,
	}
}

// QuestionResultResponse is the per-question breakdown entry of a graded result.
type QuestionResultResponse struct {
	QuestionID uint     `json:"question_id"`
	Type       string   `json:"type"`
	Question   string   `json:"question"`
	Options    []string `json:"options,omitempty"`
	Submitted  []string `json:"submitted"`
	Answer     []string `json:"answer"`
	Point      int      `json:"point"`
	Correct    bool     `json:"correct"`
}

// SubmissionResultResponse is the full graded detail for one submission,
// reconstructed from the deployment snapshot and the stored answers.
type SubmissionResultResponse struct {
	SubmissionResponse
	StartedAt     time.Time                `json:"started_at"`
	CheatingCount int                      `json:"cheating_count"`
	Questions     []QuestionResultResponse `json:"questions"`
}

// NewSubmissionResultResponse assembles the detail payload. The stored
// score/correct_count are reported as persisted; the breakdown comes from
// re-walking the frozen snapshot against the stored answers.
func NewSubmissionResultResponse(model models.Submission, result quiz.Result) SubmissionResultResponse {
	questions := make([]QuestionResultResponse, 0, len(result.Questions))
	for _, q := range result.Questions {
		submitted := q.Submitted
		if submitted == nil {
			submitted = []string{}
		}
		questions = append(questions, QuestionResultResponse{
			QuestionID: q.QuestionID,
			Type:       q.Type,
			Question:   q.Text,
			Options:    q.Options,
			Submitted:  submitted,
			Answer:     q.Answer,
			Point:      q.Point,
			Correct:    q.Correct,
		})
	}

	return SubmissionResultResponse{
		SubmissionResponse: NewSubmissionResponse(model, len(result.Questions)),
		StartedAt:          model.StartedAt,
		CheatingCount:      model.CheatingCount,
		Questions:          questions,
	}
}
