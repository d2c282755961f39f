package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// Deployment status values. Window expiry never changes the stored status;
// it is enforced only when a student tries to enter.
const (
	DeploymentStatusActivated   = "Activated"
	DeploymentStatusDeactivated = "Deactivated"
)

// QuestionSnapshot is the frozen copy of one question embedded in a
// deployment at creation time. It carries everything grading needs so the
// live question bank can change or disappear without affecting results.
type QuestionSnapshot struct {
	QuestionID uint     `json:"question_id"`
	Type       string   `json:"type"`
	Text       string   `json:"question"`
	Prompt     *string  `json:"prompt,omitempty"`
	Options    []string `json:"options,omitempty"`
	Answer     []string `json:"answer"`
	Point      int      `json:"point"`
}

// Deployment is one timed, access-code-gated instance of a quiz assigned to
// a cohort. The snapshot column is written once and never mutated.
type Deployment struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	QuizID          uint           `gorm:"not null;index" json:"quiz_id"`
	CohortID        uint           `gorm:"not null;index" json:"cohort_id"`
	DurationMinutes int            `gorm:"not null" json:"duration_minutes"`
	AccessCode      string         `gorm:"size:6;not null;uniqueIndex" json:"access_code"`
	OpenAt          time.Time      `gorm:"not null" json:"open_at"`
	CloseAt         time.Time      `gorm:"not null" json:"close_at"`
	Status          string         `gorm:"size:16;not null" json:"status"`
	Snapshot        datatypes.JSON `gorm:"type:json" json:"-"`
	QuestionCount   int            `gorm:"not null" json:"question_count"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// SetSnapshot serializes the frozen question list into the JSON column.
func (d *Deployment) SetSnapshot(snapshot []QuestionSnapshot) {
	if snapshot == nil {
		snapshot = []QuestionSnapshot{}
	}

	data, err := json.Marshal(snapshot)
	if err != nil {
		d.Snapshot = datatypes.JSON([]byte("[]"))
		return
	}
	d.Snapshot = datatypes.JSON(data)
}

// SnapshotList deserializes the stored snapshot.
func (d Deployment) SnapshotList() []QuestionSnapshot {
	if len(d.Snapshot) == 0 {
		return nil
	}

	var snapshot []QuestionSnapshot
	if err := json.Unmarshal(d.Snapshot, &snapshot); err != nil {
		return nil
	}

	return snapshot
}

// InWindow reports whether the reference time falls inside [open_at, close_at].
func (d Deployment) InWindow(reference time.Time) bool {
	return !reference.Before(d.OpenAt) && !reference.After(d.CloseAt)
}
