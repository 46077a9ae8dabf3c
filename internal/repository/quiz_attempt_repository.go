package repository

import (
	"fypquiz_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type QuizAttemptRepository struct {
	DB *gorm.DB
}

func NewQuizAttemptRepository(db *gorm.DB) *QuizAttemptRepository {
	return &QuizAttemptRepository{DB: db}
}

// Create 同一个 session 只记录一次
func (r *QuizAttemptRepository) Create(attempt *model.QuizAttempt) error {
	return r.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "session_id"}},
		DoNothing: true,
	}).Create(attempt).Error
}

func (r *QuizAttemptRepository) ListByStudySet(userID uint, studySetID string, limit int) ([]model.QuizAttempt, error) {
	var attempts []model.QuizAttempt
	err := r.DB.Where("user_id = ? AND study_set_id = ?", userID, studySetID).
		Order("completed_at DESC").
		Limit(limit).
		Find(&attempts).Error
	return attempts, err
}

// UserStats 作答次数与平均正确率
type UserStats struct {
	Attempts     int64   `json:"attempts"`
	AverageScore float64 `json:"averageScore"`
}

func (r *QuizAttemptRepository) StatsByUser(userID uint) (*UserStats, error) {
	var row struct {
		Attempts int64
		Ratio    *float64
	}
	err := r.DB.Model(&model.QuizAttempt{}).
		Select("COUNT(*) AS attempts, AVG(score * 1.0 / NULLIF(total, 0)) AS ratio").
		Where("user_id = ?", userID).
		Scan(&row).Error
	if err != nil {
		return nil, err
	}
	stats := &UserStats{Attempts: row.Attempts}
	if row.Ratio != nil {
		stats.AverageScore = *row.Ratio * 100
	}
	return stats, nil
}
