package quiz

import "github.com/modu-camp/quizdeck-api/internal/models"

// BuildSnapshot copies a quiz's live question set into the frozen,
// order-preserving form embedded in a deployment. The result holds no
// reference to the live rows; editing or deleting source questions after
// deployment leaves the snapshot untouched.
func BuildSnapshot(questions []models.Question) []models.QuestionSnapshot {
	snapshot := make([]models.QuestionSnapshot, 0, len(questions))
	for _, q := range questions {
		snapshot = append(snapshot, models.QuestionSnapshot{
			QuestionID: q.ID,
			Type:       q.Type,
			Text:       q.Text,
			Prompt:     copyStringPtr(q.Prompt),
			Options:    append([]string(nil), q.OptionList()...),
			Answer:     append([]string(nil), q.AnswerList()...),
			Point:      q.Point,
		})
	}

	return snapshot
}

func copyStringPtr(value *string) *string {
	if value == nil {
		return nil
	}
	copied := *value
	return &copied
}
