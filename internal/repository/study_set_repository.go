package repository

import (
	"bytes"
	"encoding/json"
	"errors"

	"fypquiz_backend/internal/model"
	"fypquiz_backend/internal/util"

	"gorm.io/gorm"
)

type StudySetRepository struct {
	DB *gorm.DB
}

func NewStudySetRepository(db *gorm.DB) *StudySetRepository {
	return &StudySetRepository{DB: db}
}

// Upsert 按 (user_id, title) 保存：已存在则更新内容，返回是否为新建
func (r *StudySetRepository) Upsert(set *model.StudySet) (bool, error) {
	created := false
	err := r.DB.Transaction(func(tx *gorm.DB) error {
		var existing model.StudySet
		err := tx.Where("user_id = ? AND title = ?", set.UserID, set.Title).
			First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			created = true
			return tx.Create(set).Error
		}
		if err != nil {
			return err
		}

		updates := map[string]interface{}{
			"quiz_data":        set.QuizData,
			"background_video": set.BackgroundVideo,
			"voice_id":         set.VoiceID,
			"last_score":       set.LastScore,
			"total_questions":  set.TotalQuestions,
		}
		// 题目未变时保留已有音频；题目变了而调用方没给音频，旧音频与新题目对不上，清空
		switch {
		case len(set.AudioFiles) > 0:
			updates["audio_files"] = set.AudioFiles
		case !sameJSON(existing.QuizData, set.QuizData):
			updates["audio_files"] = json.RawMessage("[]")
		}
		if err := tx.Model(&existing).Updates(updates).Error; err != nil {
			return err
		}
		return tx.First(set, "id = ?", existing.ID).Error
	})
	return created, err
}

func sameJSON(a, b []byte) bool {
	var ca, cb bytes.Buffer
	if json.Compact(&ca, a) != nil || json.Compact(&cb, b) != nil {
		return bytes.Equal(a, b)
	}
	return bytes.Equal(ca.Bytes(), cb.Bytes())
}

func (r *StudySetRepository) FindByID(userID uint, id string) (*model.StudySet, error) {
	var set model.StudySet
	err := r.DB.Where("id = ? AND user_id = ?", id, userID).First(&set).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrStudySetNotFound
	}
	return &set, err
}

func (r *StudySetRepository) FindByTitle(userID uint, title string) (*model.StudySet, error) {
	var set model.StudySet
	err := r.DB.Where("user_id = ? AND title = ?", userID, title).First(&set).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrStudySetNotFound
	}
	return &set, err
}

// ListByUser 列表不返回题目内容
func (r *StudySetRepository) ListByUser(userID uint, limit, offset int) ([]model.StudySet, int64, error) {
	var sets []model.StudySet
	var total int64

	db := r.DB.Model(&model.StudySet{}).Where("user_id = ?", userID)
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.Omit("quiz_data").
		Order("updated_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&sets).Error
	return sets, total, err
}

func (r *StudySetRepository) UpdateAudioFiles(userID uint, id string, files []string) error {
	data, err := json.Marshal(files)
	if err != nil {
		return err
	}
	res := r.DB.Model(&model.StudySet{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("audio_files", json.RawMessage(data))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return util.ErrStudySetNotFound
	}
	return nil
}

func (r *StudySetRepository) UpdateScore(userID uint, id string, score int) error {
	return r.DB.Model(&model.StudySet{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("last_score", score).Error
}

// Delete 物理删除，否则 (user_id, title) 唯一索引会挡住同名重建
func (r *StudySetRepository) Delete(userID uint, id string) error {
	res := r.DB.Unscoped().Where("id = ? AND user_id = ?", id, userID).Delete(&model.StudySet{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return util.ErrStudySetNotFound
	}
	return nil
}
