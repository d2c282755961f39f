package quiz

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/modu-camp/quizdeck-api/internal/models"
)

// Per-quiz limits enforced when a question set is created or replaced.
const (
	MaxQuestionsPerQuiz = 20
	MaxPointsPerQuiz    = 100
	MinQuestionPoint    = 1
	MaxQuestionPoint    = 10
)

// ErrTooManyQuestions indicates a quiz would exceed the question count limit.
var ErrTooManyQuestions = fmt.Errorf("a quiz may hold at most %d questions", MaxQuestionsPerQuiz)

// ErrPointLimitExceeded indicates the summed point values would exceed the budget.
var ErrPointLimitExceeded = fmt.Errorf("total question points must not exceed %d", MaxPointsPerQuiz)

// FieldError attributes a single validation failure to a question field.
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// ValidationError aggregates every rule violated by one question payload.
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

func (e *ValidationError) Error() string {
	reasons := make([]string, 0, len(e.Fields))
	for _, field := range e.Fields {
		reasons = append(reasons, field.Error())
	}
	return "invalid question: " + strings.Join(reasons, "; ")
}

// QuestionError pairs a validation failure with the question's position in a
// batch payload.
type QuestionError struct {
	Index  int          `json:"index"`
	Fields []FieldError `json:"fields"`
}

// BatchError collects validation failures across a bulk question payload.
type BatchError struct {
	Questions []QuestionError `json:"questions"`
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("invalid question set: %d question(s) failed validation", len(e.Questions))
}

// Normalize validates a question against the rules of its declared type and
// canonicalizes it in place: type-irrelevant fields are cleared, true/false
// answers are upper-cased and the O/X options are defaulted. The returned
// error, if any, is a *ValidationError listing every violated rule.
func Normalize(q *models.Question) error {
	var fields []FieldError

	if q.Point < MinQuestionPoint || q.Point > MaxQuestionPoint {
		fields = append(fields, FieldError{
			Field:  "point",
			Reason: fmt.Sprintf("must be between %d and %d", MinQuestionPoint, MaxQuestionPoint),
		})
	}

	if strings.TrimSpace(q.Text) == "" {
		fields = append(fields, FieldError{Field: "question", Reason: "must not be empty"})
	}

	options := q.OptionList()
	answer := q.AnswerList()

	switch q.Type {
	case models.QuestionTypeSingleChoice:
		fields = append(fields, validateSingleChoice(options, answer)...)
		q.Prompt = nil
		q.BlankCount = nil
	case models.QuestionTypeMultiChoice:
		fields = append(fields, validateMultiChoice(options, answer)...)
		q.Prompt = nil
		q.BlankCount = nil
	case models.QuestionTypeTrueFalse:
		normalized, errs := validateTrueFalse(answer)
		fields = append(fields, errs...)
		if len(errs) == 0 {
			q.SetAnswer(normalized)
		}
		q.SetOptions([]string{"O", "X"})
		q.Prompt = nil
		q.BlankCount = nil
	case models.QuestionTypeOrdering:
		fields = append(fields, validateOrdering(options, answer)...)
		q.Prompt = nil
		q.BlankCount = nil
	case models.QuestionTypeFillInBlank:
		fields = append(fields, validateFillInBlank(q.Prompt, q.BlankCount, answer)...)
		q.SetOptions(nil)
	case models.QuestionTypeShortAnswer:
		if len(answer) != 1 {
			fields = append(fields, FieldError{Field: "answer", Reason: "must contain exactly one entry"})
		}
		q.SetOptions(nil)
		q.Prompt = nil
		q.BlankCount = nil
	default:
		fields = append(fields, FieldError{Field: "type", Reason: "unknown question type"})
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}

	return nil
}

// ValidateSet enforces the per-quiz count and point budget over a full
// question set (existing plus incoming, or a bulk replacement set).
func ValidateSet(questions []models.Question) error {
	if len(questions) > MaxQuestionsPerQuiz {
		return ErrTooManyQuestions
	}

	total := 0
	for _, q := range questions {
		total += q.Point
	}
	if total > MaxPointsPerQuiz {
		return ErrPointLimitExceeded
	}

	return nil
}

// AsValidationError unwraps err into a *ValidationError when possible.
func AsValidationError(err error) (*ValidationError, bool) {
	var validation *ValidationError
	if errors.As(err, &validation) {
		return validation, true
	}
	return nil, false
}

func validateSingleChoice(options, answer []string) []FieldError {
	fields := validateOptionSet(options)
	if len(answer) != 1 {
		fields = append(fields, FieldError{Field: "answer", Reason: "must contain exactly one entry"})
	} else if !contains(options, answer[0]) {
		fields = append(fields, FieldError{Field: "answer", Reason: "must be one of the options"})
	}
	return fields
}

func validateMultiChoice(options, answer []string) []FieldError {
	fields := validateOptionSet(options)
	if len(answer) < 2 {
		fields = append(fields, FieldError{Field: "answer", Reason: "must contain at least two entries"})
		return fields
	}
	for _, value := range answer {
		if !contains(options, value) {
			fields = append(fields, FieldError{Field: "answer", Reason: fmt.Sprintf("%q is not one of the options", value)})
		}
	}
	return fields
}

func validateTrueFalse(answer []string) ([]string, []FieldError) {
	if len(answer) != 1 {
		return nil, []FieldError{{Field: "answer", Reason: "must contain exactly one entry"}}
	}

	normalized := strings.ToUpper(strings.TrimSpace(answer[0]))
	if normalized != "O" && normalized != "X" {
		return nil, []FieldError{{Field: "answer", Reason: `must be "O" or "X"`}}
	}

	return []string{normalized}, nil
}

func validateOrdering(options, answer []string) []FieldError {
	fields := validateOptionSet(options)
	if len(answer) != len(options) {
		fields = append(fields, FieldError{Field: "answer", Reason: "must contain the same entries as options"})
		return fields
	}
	if !sameMultiset(options, answer) {
		fields = append(fields, FieldError{Field: "answer", Reason: "must be a permutation of options"})
	}
	return fields
}

func validateFillInBlank(prompt *string, blankCount *int, answer []string) []FieldError {
	var fields []FieldError
	if prompt == nil || strings.TrimSpace(*prompt) == "" {
		fields = append(fields, FieldError{Field: "prompt", Reason: "must not be empty"})
	}
	if blankCount == nil || *blankCount < 1 {
		fields = append(fields, FieldError{Field: "blank_count", Reason: "must be at least 1"})
		return fields
	}
	if len(answer) != *blankCount {
		fields = append(fields, FieldError{
			Field:  "answer",
			Reason: fmt.Sprintf("must contain exactly %d entries", *blankCount),
		})
	}
	return fields
}

// validateOptionSet checks the rules shared by every option-bearing type:
// at least two entries, all distinct.
func validateOptionSet(options []string) []FieldError {
	var fields []FieldError
	if len(options) < 2 {
		fields = append(fields, FieldError{Field: "options", Reason: "must contain at least two entries"})
	}

	seen := make(map[string]struct{}, len(options))
	for _, value := range options {
		if _, dup := seen[value]; dup {
			fields = append(fields, FieldError{Field: "options", Reason: "must not contain duplicate entries"})
			break
		}
		seen[value] = struct{}{}
	}

	return fields
}

func contains(values []string, target string) bool {
	for _, value := range values {
		if value == target {
			return true
		}
	}
	return false
}

func sameMultiset(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}

	left := append([]string(nil), a...)
	right := append([]string(nil), b...)
	sort.Strings(left)
	sort.Strings(right)
	for i := range left {
		if left[i] != right[i] {
			return false
		}
	}
	return true
}
