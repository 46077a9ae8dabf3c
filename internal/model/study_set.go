package model

import "encoding/json"

// swagger:model StudySet
type StudySet struct {
	UUIDBase
	UserID          uint            `gorm:"index;uniqueIndex:idx_study_sets_user_title,priority:1;not null" json:"userId"`
	Title           string          `gorm:"size:255;uniqueIndex:idx_study_sets_user_title,priority:2;not null" json:"title"`
	QuizData        json.RawMessage `gorm:"type:json" json:"quizData"` // JSON: Quiz
	BackgroundVideo string          `gorm:"size:255" json:"backgroundVideo"`
	VoiceID         string          `gorm:"size:100" json:"voiceId"`
	LastScore       *int            `json:"lastScore,omitempty"`
	TotalQuestions  int             `gorm:"default:0" json:"totalQuestions"`
	AudioFiles      json.RawMessage `gorm:"type:json" json:"audioFiles"` // JSON: []string，下标与题目对应
}

func (StudySet) TableName() string {
	return "study_sets"
}

// DecodeQuiz 反序列化 QuizData
func (s *StudySet) DecodeQuiz() (*Quiz, error) {
	var q Quiz
	if len(s.QuizData) == 0 {
		return &q, nil
	}
	if err := json.Unmarshal(s.QuizData, &q); err != nil {
		return nil, err
	}
	return &q, nil
}

// DecodeAudioFiles 反序列化 AudioFiles
func (s *StudySet) DecodeAudioFiles() []string {
	var files []string
	if len(s.AudioFiles) == 0 {
		return files
	}
	_ = json.Unmarshal(s.AudioFiles, &files)
	return files
}
