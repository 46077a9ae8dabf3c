package model

import (
	"encoding/json"
	"time"
)

// QuizAttempt 一次完整作答的成绩
type QuizAttempt struct {
	BaseModel
	UserID      uint            `gorm:"index;not null" json:"userId"`
	StudySetID  string          `gorm:"index;size:36" json:"studySetId"`
	SessionID   string          `gorm:"size:36;uniqueIndex" json:"sessionId"`
	Title       string          `gorm:"size:255" json:"title"`
	Score       int             `gorm:"not null" json:"score"`
	Total       int             `gorm:"not null" json:"total"`
	Selections  json.RawMessage `gorm:"type:json" json:"selections"` // JSON: []int，每题所选下标
	CompletedAt time.Time       `json:"completedAt"`
}

func (QuizAttempt) TableName() string {
	return "quiz_attempts"
}
