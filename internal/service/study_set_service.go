package service

import (
	"context"
	"encoding/json"
	"strings"

	"fypquiz_backend/internal/model"
	"fypquiz_backend/internal/repository"
	"fypquiz_backend/internal/util"
	"fypquiz_backend/pkg/logger"

	"go.uber.org/zap"
)

const recentAttemptLimit = 10

type SaveStudySetRequest struct {
	Title           string      `json:"title" binding:"required"`
	Quiz            *model.Quiz `json:"quiz" binding:"required"`
	BackgroundVideo string      `json:"backgroundVideo"`
	VoiceID         string      `json:"voiceId"`
	Score           *int        `json:"score"`
	AudioFiles      []string    `json:"audioFiles"`
}

type StudySetDetail struct {
	*model.StudySet
	Quiz     *model.Quiz         `json:"quiz"`
	Audio    []string            `json:"audio"`
	Attempts []model.QuizAttempt `json:"attempts"`
}

type StudySetList struct {
	Items []model.StudySet `json:"items"`
	Total int64            `json:"total"`
	Page  int              `json:"page"`
	Size  int              `json:"size"`
}

type StudySetService struct {
	Repo      *repository.StudySetRepository
	Attempts  *repository.QuizAttemptRepository
	Storage   *StorageService
	Narration *NarrationService
}

func NewStudySetService(repo *repository.StudySetRepository, attempts *repository.QuizAttemptRepository,
	storage *StorageService, narration *NarrationService) *StudySetService {
	return &StudySetService{
		Repo:      repo,
		Attempts:  attempts,
		Storage:   storage,
		Narration: narration,
	}
}

// Save 按标题保存，同名学习集被覆盖
func (s *StudySetService) Save(userID uint, req SaveStudySetRequest) (*model.StudySet, bool, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, false, util.NewValidationError("title", "title is required")
	}
	if req.Quiz == nil || len(req.Quiz.Questions) == 0 {
		return nil, false, util.NewValidationError("quiz", "quiz must contain at least one question")
	}
	if err := validateQuiz(req.Quiz); err != nil {
		return nil, false, err
	}

	quizData, err := json.Marshal(req.Quiz)
	if err != nil {
		return nil, false, err
	}
	set := &model.StudySet{
		UserID:          userID,
		Title:           title,
		QuizData:        quizData,
		BackgroundVideo: req.BackgroundVideo,
		VoiceID:         req.VoiceID,
		LastScore:       req.Score,
		TotalQuestions:  len(req.Quiz.Questions),
	}
	if len(req.AudioFiles) > 0 {
		set.AudioFiles, _ = json.Marshal(req.AudioFiles)
	}

	created, err := s.Repo.Upsert(set)
	if err != nil {
		return nil, false, err
	}
	logger.Log.Info("Study set saved",
		zap.Uint("userId", userID),
		zap.String("studySetId", set.ID),
		zap.Bool("created", created),
	)
	return set, created, nil
}

func (s *StudySetService) List(userID uint, page, size int) (*StudySetList, error) {
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 100 {
		size = 20
	}
	items, total, err := s.Repo.ListByUser(userID, size, (page-1)*size)
	if err != nil {
		return nil, err
	}
	return &StudySetList{Items: items, Total: total, Page: page, Size: size}, nil
}

func (s *StudySetService) Get(userID uint, id string) (*StudySetDetail, error) {
	set, err := s.Repo.FindByID(userID, id)
	if err != nil {
		return nil, err
	}
	quiz, err := set.DecodeQuiz()
	if err != nil {
		return nil, err
	}
	attempts, err := s.Attempts.ListByStudySet(userID, id, recentAttemptLimit)
	if err != nil {
		return nil, err
	}
	return &StudySetDetail{
		StudySet: set,
		Quiz:     quiz,
		Audio:    set.DecodeAudioFiles(),
		Attempts: attempts,
	}, nil
}

// Delete 删除学习集及其音频文件
func (s *StudySetService) Delete(ctx context.Context, userID uint, id string) error {
	set, err := s.Repo.FindByID(userID, id)
	if err != nil {
		return err
	}
	if err := s.Repo.Delete(userID, id); err != nil {
		return err
	}
	if s.Storage != nil {
		s.Storage.DeleteURLs(ctx, set.DecodeAudioFiles())
	}
	return nil
}

// UploadAudio 上传单题的朗读音频，替换原有地址
func (s *StudySetService) UploadAudio(ctx context.Context, userID uint, id string, index int, data []byte) ([]string, error) {
	set, err := s.Repo.FindByID(userID, id)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= set.TotalQuestions {
		return nil, util.NewValidationError("index", "question index out of range")
	}
	if len(data) == 0 {
		return nil, util.NewValidationError("file", "audio file is empty")
	}

	url, err := s.Storage.SaveNarration(ctx, set.ID, index, data)
	if err != nil {
		return nil, err
	}
	files := set.DecodeAudioFiles()
	if len(files) != set.TotalQuestions {
		padded := make([]string, set.TotalQuestions)
		copy(padded, files)
		files = padded
	}
	files[index] = url
	if err := s.Repo.UpdateAudioFiles(userID, id, files); err != nil {
		return nil, err
	}
	return files, nil
}

// GenerateAudio 为整个学习集重新生成朗读，失败的题目为空串
func (s *StudySetService) GenerateAudio(ctx context.Context, userID uint, id, voiceID string) ([]string, error) {
	set, err := s.Repo.FindByID(userID, id)
	if err != nil {
		return nil, err
	}
	quiz, err := set.DecodeQuiz()
	if err != nil {
		return nil, err
	}
	if voiceID == "" {
		voiceID = set.VoiceID
	}

	texts := make([]string, len(quiz.Questions))
	for i, q := range quiz.Questions {
		texts[i] = q.NarrationText()
	}
	files := s.Narration.Generate(ctx, set.ID, texts, voiceID, nil)
	if err := s.Repo.UpdateAudioFiles(userID, id, files); err != nil {
		return nil, err
	}
	return files, nil
}
