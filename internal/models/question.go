package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// Question type vocabulary. The values are stable wire identifiers.
const (
	QuestionTypeSingleChoice = "single_choice"
	QuestionTypeMultiChoice  = "multi_choice"
	QuestionTypeTrueFalse    = "true_false"
	QuestionTypeOrdering     = "ordering"
	QuestionTypeFillInBlank  = "fill_in_blank"
	QuestionTypeShortAnswer  = "short_answer"
)

// QuestionTypes lists every supported question type.
var QuestionTypes = []string{
	QuestionTypeSingleChoice,
	QuestionTypeMultiChoice,
	QuestionTypeTrueFalse,
	QuestionTypeOrdering,
	QuestionTypeFillInBlank,
	QuestionTypeShortAnswer,
}

// Question is one entry in a quiz's live question bank. Options and Answer
// are stored as JSON arrays of strings; Answer is a list even for
// single-answer types so every type shares one canonical shape.
type Question struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	QuizID      uint           `gorm:"not null;index" json:"quiz_id"`
	Type        string         `gorm:"size:32;not null" json:"type"`
	Text        string         `gorm:"type:text;not null" json:"question"`
	Prompt      *string        `gorm:"type:text" json:"prompt,omitempty"`
	BlankCount  *int           `json:"blank_count,omitempty"`
	Options     datatypes.JSON `gorm:"type:json" json:"-"`
	Answer      datatypes.JSON `gorm:"type:json;not null" json:"-"`
	Point       int            `gorm:"not null" json:"point"`
	Explanation string         `gorm:"type:text" json:"explanation"`
	ImageURL    string         `gorm:"size:512" json:"image_url"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// SetOptions serializes the option list into the JSON storage column.
// A nil slice clears the column.
func (q *Question) SetOptions(options []string) {
	q.Options = marshalStringList(options)
}

// OptionList deserializes the stored options into a Go slice.
func (q Question) OptionList() []string {
	return unmarshalStringList(q.Options)
}

// SetAnswer serializes the canonical answer list into the JSON storage column.
func (q *Question) SetAnswer(answer []string) {
	q.Answer = marshalStringList(answer)
}

// AnswerList deserializes the stored canonical answer into a Go slice.
func (q Question) AnswerList() []string {
	return unmarshalStringList(q.Answer)
}

func marshalStringList(values []string) datatypes.JSON {
	if values == nil {
		return nil
	}

	data, err := json.Marshal(values)
	if err != nil {
		return datatypes.JSON([]byte("[]"))
	}

	return datatypes.JSON(data)
}

func unmarshalStringList(data datatypes.JSON) []string {
	if len(data) == 0 {
		return nil
	}

	var values []string
	if err := json.Unmarshal(data, &values); err != nil {
		return nil
	}

	return values
}
