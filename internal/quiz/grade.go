package quiz

import (
	"strconv"
	"strings"

	"github.com/modu-camp/quizdeck-api/internal/models"
)

// QuestionResult is the graded outcome for one snapshot question.
type QuestionResult struct {
	QuestionID uint
	Type       string
	Text       string
	Options    []string
	Submitted  []string
	Answer     []string
	Point      int
	Correct    bool
}

// Result is the deterministic outcome of grading one answer mapping against
// one frozen snapshot.
type Result struct {
	Score        int
	CorrectCount int
	Questions    []QuestionResult
}

// Grade scores a submitted answer mapping against a deployment's frozen
// snapshot. Comparison is exact, order-sensitive list equality: an ordering
// answer must match element for element, and multi-choice answers are
// compared as given, without set semantics. Keys that do not resolve to a
// snapshot question are ignored and contribute nothing. Grading never reads
// the live question bank, so results stay reproducible after source
// questions are edited or deleted.
func Grade(snapshot []models.QuestionSnapshot, answers map[string][]string) Result {
	result := Result{Questions: make([]QuestionResult, 0, len(snapshot))}

	for _, q := range snapshot {
		submitted := answers[strconv.FormatUint(uint64(q.QuestionID), 10)]
		correct := len(q.Answer) > 0 && equalStringLists(submitted, q.Answer)

		if correct {
			result.Score += q.Point
			result.CorrectCount++
		}

		result.Questions = append(result.Questions, QuestionResult{
			QuestionID: q.QuestionID,
			Type:       q.Type,
			Text:       q.Text,
			Options:    q.Options,
			Submitted:  submitted,
			Answer:     q.Answer,
			Point:      q.Point,
			Correct:    correct,
		})
	}

	return result
}

// NormalizeSubmitted canonicalizes submitted tokens the same way the
// question validator canonicalizes stored answers, so grading can stay an
// exact comparison. Today that means upper-casing true/false tokens; other
// types pass through untouched.
func NormalizeSubmitted(snapshot []models.QuestionSnapshot, answers map[string][]string) map[string][]string {
	trueFalse := make(map[string]struct{})
	for _, q := range snapshot {
		if q.Type == models.QuestionTypeTrueFalse {
			trueFalse[strconv.FormatUint(uint64(q.QuestionID), 10)] = struct{}{}
		}
	}

	normalized := make(map[string][]string, len(answers))
	for key, values := range answers {
		if _, ok := trueFalse[key]; !ok {
			normalized[key] = values
			continue
		}

		upper := make([]string, 0, len(values))
		for _, value := range values {
			upper = append(upper, strings.ToUpper(strings.TrimSpace(value)))
		}
		normalized[key] = upper
	}

	return normalized
}

func equalStringLists(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
