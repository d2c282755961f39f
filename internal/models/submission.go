package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// Submission is one student's graded attempt against a deployment. Score and
// CorrectCount are computed once at submission time from the deployment's
// snapshot and never recomputed afterwards.
type Submission struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	DeploymentID  uint           `gorm:"not null;uniqueIndex:idx_submissions_deployment_student" json:"deployment_id"`
	StudentID     uint           `gorm:"not null;uniqueIndex:idx_submissions_deployment_student" json:"student_id"`
	StartedAt     time.Time      `gorm:"not null" json:"started_at"`
	CheatingCount int            `gorm:"not null;default:0" json:"cheating_count"`
	Answers       datatypes.JSON `gorm:"type:json" json:"-"`
	Score         int            `gorm:"not null" json:"score"`
	CorrectCount  int            `gorm:"not null" json:"correct_count"`
	CreatedAt     time.Time      `json:"created_at"`
}

// SetAnswers serializes the submitted answer mapping into the JSON column.
func (s *Submission) SetAnswers(answers map[string][]string) {
	if answers == nil {
		answers = map[string][]string{}
	}

	data, err := json.Marshal(answers)
	if err != nil {
		s.Answers = datatypes.JSON([]byte("{}"))
		return
	}
	s.Answers = datatypes.JSON(data)
}

// AnswerMap deserializes the stored answer mapping.
func (s Submission) AnswerMap() map[string][]string {
	if len(s.Answers) == 0 {
		return map[string][]string{}
	}

	var answers map[string][]string
	if err := json.Unmarshal(s.Answers, &answers); err != nil {
		return map[string][]string{}
	}

	return answers
}
