package models

import "time"

// Quiz is a named set of questions belonging to a course subject.
type Quiz struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	Title     string     `gorm:"size:255;not null" json:"title"`
	Subject   string     `gorm:"size:255" json:"subject"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	Questions []Question `gorm:"foreignKey:QuizID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

// Cohort is a numbered intake group of a course, the unit a deployment targets.
type Cohort struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Number    int       `gorm:"not null" json:"number"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
