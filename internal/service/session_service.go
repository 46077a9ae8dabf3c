package service

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"fypquiz_backend/internal/model"
	"fypquiz_backend/internal/repository"
	"fypquiz_backend/internal/util"
	"fypquiz_backend/pkg/logger"
	"fypquiz_backend/pkg/monitoring"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// 会话事件类型，经 Redis 发布给 WebSocket 订阅者
const (
	EventNarrationBatch    = "narration.batch"
	EventNarrationComplete = "narration.complete"
	EventNarrationStop     = "narration.stop"
	EventSessionComplete   = "session.complete"
)

const persistTimeout = 10 * time.Second

// AudioCleaner 删除不再被引用的音频文件
type AudioCleaner interface {
	DeleteURLs(ctx context.Context, urls []string)
}

// SessionEvent 推送给客户端的消息
type SessionEvent struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type CreateSessionRequest struct {
	Quiz            *model.Quiz `json:"quiz"`
	StudySetID      string      `json:"studySetId"`
	Title           string      `json:"title"`
	VoiceID         string      `json:"voiceId"`
	BackgroundVideo string      `json:"backgroundVideo"`
	// 默认生成朗读，显式传 false 关闭
	Narrate *bool `json:"narrate"`
}

// QuestionView 当前题目。选项始终返回，answersVisible 为 false 时客户端应隐藏
type QuestionView struct {
	Index            int        `json:"index"`
	Question         string     `json:"question"`
	VoiceScript      string     `json:"voiceScript,omitempty"`
	Choices          []string   `json:"choices"`
	AudioURL         string     `json:"audioUrl,omitempty"`
	AudioPending     bool       `json:"audioPending"`
	RevealIntervalMs int64      `json:"revealIntervalMs"`
	RevealDurationMs int64      `json:"revealDurationMs"`
	AnswersVisible   bool       `json:"answersVisible"`
	AnswersVisibleAt *time.Time `json:"answersVisibleAt,omitempty"`
	Selected         *int       `json:"selected,omitempty"`
	Correct          *bool      `json:"correct,omitempty"`
	CorrectIndex     *int       `json:"correctIndex,omitempty"`
	NarrationSkipped bool       `json:"narrationSkipped"`
}

type SessionResult struct {
	Score      int    `json:"score"`
	Total      int    `json:"total"`
	Percentage int    `json:"percentage"`
	StudySetID string `json:"studySetId,omitempty"`
	Saved      bool   `json:"saved"`
}

type SessionView struct {
	ID              string             `json:"id"`
	Title           string             `json:"title"`
	Phase           model.SessionPhase `json:"phase"`
	CurrentIndex    int                `json:"currentIndex"`
	Total           int                `json:"total"`
	Score           int                `json:"score"`
	BackgroundVideo string             `json:"backgroundVideo,omitempty"`
	AudioReady      int                `json:"audioReady"`
	Question        *QuestionView      `json:"question,omitempty"`
	Result          *SessionResult     `json:"result,omitempty"`
}

// SessionService 作答会话：状态存 Redis，由 model.QuizSession 的转换方法推进，
// 完成时写入学习集和成绩
type SessionService struct {
	Sessions  *repository.SessionRepository
	StudySets *repository.StudySetRepository
	Attempts  *repository.QuizAttemptRepository
	Narration *NarrationService
	Cleaner   AudioCleaner

	now   func() time.Time
	newID func() string
}

func NewSessionService(sessions *repository.SessionRepository, studySets *repository.StudySetRepository,
	attempts *repository.QuizAttemptRepository, narration *NarrationService, cleaner AudioCleaner) *SessionService {
	return &SessionService{
		Sessions:  sessions,
		StudySets: studySets,
		Attempts:  attempts,
		Narration: narration,
		Cleaner:   cleaner,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// Create 新建会话并同步生成首批朗读，其余题目在后台生成
func (s *SessionService) Create(ctx context.Context, userID uint, req CreateSessionRequest) (*SessionView, error) {
	var (
		quiz     model.Quiz
		existing []string
	)
	voiceID, video, title := req.VoiceID, req.BackgroundVideo, strings.TrimSpace(req.Title)

	switch {
	case req.StudySetID != "":
		set, err := s.StudySets.FindByID(userID, req.StudySetID)
		if err != nil {
			return nil, err
		}
		q, err := set.DecodeQuiz()
		if err != nil {
			return nil, err
		}
		quiz = *q
		existing = set.DecodeAudioFiles()
		title = set.Title
		if voiceID == "" {
			voiceID = set.VoiceID
		}
		if video == "" {
			video = set.BackgroundVideo
		}
	case req.Quiz != nil:
		quiz = *req.Quiz
	default:
		return nil, util.NewValidationError("quiz", "quiz or studySetId is required")
	}

	if err := validateQuiz(&quiz); err != nil {
		return nil, err
	}
	if title == "" {
		title = strings.TrimSpace(quiz.Title)
	}
	if title == "" {
		title = "Untitled quiz"
	}

	now := s.now()
	session := model.NewQuizSession(s.newID(), userID, quiz, now)
	session.Title = title
	session.StudySetID = req.StudySetID
	session.VoiceID = voiceID
	session.BackgroundVideo = video

	total := session.Total()
	narrate := req.Narrate == nil || *req.Narrate
	session.AudioBorrowed = total > 0 && narrate && reusable(existing, total)
	if err := s.Sessions.Create(ctx, session); err != nil {
		return nil, err
	}

	switch {
	case total == 0 || !narrate:
	case session.AudioBorrowed:
		if err := s.Sessions.SetAudio(ctx, session.ID, 0, existing); err != nil {
			return nil, err
		}
	case s.Narration != nil:
		s.startNarration(ctx, session)
	}

	logger.Log.Info("Quiz session created",
		zap.String("sessionId", session.ID),
		zap.Uint("userId", userID),
		zap.Int("questions", total),
		zap.Bool("narrate", narrate),
	)
	return s.view(ctx, session)
}

func reusable(files []string, total int) bool {
	if len(files) != total {
		return false
	}
	for _, f := range files {
		if f == "" {
			return false
		}
	}
	return true
}

func validateQuiz(q *model.Quiz) error {
	for i, question := range q.Questions {
		if strings.TrimSpace(question.Question) == "" ||
			len(question.Choices) != util.ChoicesPerQuestion ||
			question.CorrectIndex < 0 || question.CorrectIndex >= util.ChoicesPerQuestion {
			return util.NewValidationError("quiz.questions", "question "+strconv.Itoa(i+1)+" is malformed")
		}
	}
	return nil
}

func (s *SessionService) startNarration(ctx context.Context, session *model.QuizSession) {
	texts := make([]string, session.Total())
	for i, q := range session.Quiz.Questions {
		texts[i] = q.NarrationText()
	}
	id := session.ID

	var discarded atomic.Bool
	onBatch := func(start int, handles []string) bool {
		bctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		err := s.Sessions.SetAudio(bctx, id, start, handles)
		if errors.Is(err, util.ErrSessionNotFound) {
			// 会话已结束，本批文件无人引用
			discarded.Store(true)
			if s.Cleaner != nil {
				s.Cleaner.DeleteURLs(bctx, handles)
			}
			logger.Log.Info("Discarded narration for closed session", zap.String("sessionId", id), zap.Int("start", start))
			return false
		}
		if err != nil {
			logger.Log.Error("Failed to store narration batch", zap.String("sessionId", id), zap.Error(err))
			return true
		}
		s.publish(bctx, id, EventNarrationBatch, map[string]interface{}{"start": start, "audioUrls": handles})
		return true
	}

	_, done := s.Narration.Start(ctx, id, texts, session.VoiceID, onBatch)
	go func() {
		<-done
		if discarded.Load() {
			return
		}
		bctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		ready, _ := s.Sessions.AudioReady(bctx, id)
		s.publish(bctx, id, EventNarrationComplete, map[string]interface{}{"ready": ready})
	}()
}

func (s *SessionService) publish(ctx context.Context, id, typ string, data interface{}) {
	payload, err := json.Marshal(SessionEvent{Type: typ, Data: data})
	if err != nil {
		return
	}
	if err := s.Sessions.Publish(ctx, id, payload); err != nil {
		logger.Log.Warn("Failed to publish session event",
			zap.String("sessionId", id),
			zap.String("type", typ),
			zap.Error(err),
		)
	}
}

// load 读取会话并校验归属；不属于该用户的会话按不存在处理
func (s *SessionService) load(ctx context.Context, userID uint, id string) (*model.QuizSession, error) {
	session, err := s.Sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.UserID != userID {
		return nil, util.ErrSessionNotFound
	}
	return session, nil
}

func (s *SessionService) update(ctx context.Context, userID uint, id string, fn func(*model.QuizSession) error) (*model.QuizSession, error) {
	return s.Sessions.Update(ctx, id, func(session *model.QuizSession) error {
		if session.UserID != userID {
			return util.ErrSessionNotFound
		}
		return fn(session)
	})
}

func (s *SessionService) Get(ctx context.Context, userID uint, id string) (*SessionView, error) {
	session, err := s.load(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, session)
}

// currentAudio 当前题目的音频地址以及是否仍在生成中
func (s *SessionService) currentAudio(ctx context.Context, session *model.QuizSession) (string, bool, int, error) {
	urls, err := s.Sessions.GetAudio(ctx, session.ID, session.Total())
	if err != nil {
		return "", false, 0, err
	}
	ready, err := s.Sessions.AudioReady(ctx, session.ID)
	if err != nil {
		return "", false, 0, err
	}
	if session.IsComplete() {
		return "", false, int(ready), nil
	}
	idx := session.CurrentIndex
	url := urls[idx]
	pending := url == "" && int(ready) <= idx
	return url, pending, int(ready), nil
}

// gateOpen 只有客户端确实开始播放音频时才需要等待朗读结束
func gateOpen(session *model.QuizSession, audioURL string, now time.Time) bool {
	hasAudio := audioURL != "" && session.Narration.StartedAt != nil
	return AnswersVisible(session.Narration, hasAudio, now)
}

func (s *SessionService) view(ctx context.Context, session *model.QuizSession) (*SessionView, error) {
	audioURL, pending, ready, err := s.currentAudio(ctx, session)
	if err != nil {
		return nil, err
	}

	v := &SessionView{
		ID:              session.ID,
		Title:           session.Title,
		Phase:           session.Phase,
		CurrentIndex:    session.CurrentIndex,
		Total:           session.Total(),
		Score:           session.Score,
		BackgroundVideo: session.BackgroundVideo,
		AudioReady:      ready,
	}

	if session.IsComplete() {
		v.Result = &SessionResult{
			Score:      session.Score,
			Total:      session.Total(),
			Percentage: percentage(session.Score, session.Total()),
			StudySetID: session.StudySetID,
		}
		return v, nil
	}

	q := session.CurrentQuestion()
	reveal := NewRevealSchedule(q.Question, 0)
	qv := &QuestionView{
		Index:            session.CurrentIndex,
		Question:         q.Question,
		VoiceScript:      q.VoiceScript,
		Choices:          q.Choices,
		AudioURL:         audioURL,
		AudioPending:     pending,
		RevealIntervalMs: reveal.Interval.Milliseconds(),
		RevealDurationMs: reveal.Total.Milliseconds(),
		AnswersVisible:   gateOpen(session, audioURL, s.now()),
		NarrationSkipped: session.Narration.Skipped,
	}
	hasAudio := audioURL != "" && session.Narration.StartedAt != nil
	if at, ok := AnswersVisibleAt(session.Narration, hasAudio); ok && !at.IsZero() {
		qv.AnswersVisibleAt = &at
	}
	if session.Phase == model.PhaseAnswered {
		selected := session.Selections[session.CurrentIndex]
		correct := session.CurrentCorrect
		correctIndex := q.CorrectIndex
		qv.Selected, qv.Correct, qv.CorrectIndex = &selected, &correct, &correctIndex
	}
	v.Question = qv
	return v, nil
}

func percentage(score, total int) int {
	if total == 0 {
		return 0
	}
	return score * 100 / total
}

// Answer 选择当前题目的答案；朗读尚未结束时拒绝
func (s *SessionService) Answer(ctx context.Context, userID uint, id string, choice int) (*SessionView, error) {
	current, err := s.load(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	audioURL, _, _, err := s.currentAudio(ctx, current)
	if err != nil {
		return nil, err
	}

	session, err := s.update(ctx, userID, id, func(session *model.QuizSession) error {
		if session.Phase == model.PhaseAwaitingAnswer && !gateOpen(session, audioURL, s.now()) {
			return model.ErrAnswersHidden
		}
		_, err := session.Select(choice)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.view(ctx, session)
}

// Next 进入下一题。进入完成态时保存学习集和成绩
func (s *SessionService) Next(ctx context.Context, userID uint, id string) (*SessionView, error) {
	var leaving int
	session, err := s.update(ctx, userID, id, func(session *model.QuizSession) error {
		leaving = session.CurrentIndex
		return session.Next(s.now())
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, id, EventNarrationStop, map[string]interface{}{"index": leaving})

	if !session.IsComplete() {
		return s.view(ctx, session)
	}

	monitoring.CompletedSessions.Inc()
	result := s.persist(ctx, session)
	s.publish(ctx, id, EventSessionComplete, result)

	v, err := s.view(ctx, session)
	if err != nil {
		return nil, err
	}
	v.Result = result
	return v, nil
}

// persist 保存学习集（按标题覆盖）与本次成绩；失败只记日志，不影响作答结果
func (s *SessionService) persist(ctx context.Context, session *model.QuizSession) *SessionResult {
	result := &SessionResult{
		Score:      session.Score,
		Total:      session.Total(),
		Percentage: percentage(session.Score, session.Total()),
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()

	quizData, err := json.Marshal(session.Quiz)
	if err != nil {
		logger.Log.Error("Failed to encode quiz", zap.String("sessionId", session.ID), zap.Error(err))
		return result
	}
	score := session.Score
	set := &model.StudySet{
		UserID:          session.UserID,
		Title:           session.Title,
		QuizData:        quizData,
		BackgroundVideo: session.BackgroundVideo,
		VoiceID:         session.VoiceID,
		LastScore:       &score,
		TotalQuestions:  session.Total(),
	}
	if urls, err := s.Sessions.GetAudio(ctx, session.ID, session.Total()); err == nil && reusable(urls, session.Total()) {
		set.AudioFiles, _ = json.Marshal(urls)
	}

	if _, err := s.StudySets.Upsert(set); err != nil {
		logger.Log.Error("Failed to save study set", zap.String("sessionId", session.ID), zap.Error(err))
		return result
	}
	result.StudySetID = set.ID

	selections, _ := json.Marshal(session.Selections)
	completedAt := s.now()
	if session.CompletedAt != nil {
		completedAt = *session.CompletedAt
	}
	attempt := &model.QuizAttempt{
		UserID:      session.UserID,
		StudySetID:  set.ID,
		SessionID:   session.ID,
		Title:       session.Title,
		Score:       session.Score,
		Total:       session.Total(),
		Selections:  selections,
		CompletedAt: completedAt,
	}
	if err := s.Attempts.Create(attempt); err != nil {
		logger.Log.Error("Failed to record quiz attempt", zap.String("sessionId", session.ID), zap.Error(err))
		return result
	}

	result.Saved = true
	logger.Log.Info("Quiz session completed",
		zap.String("sessionId", session.ID),
		zap.String("studySetId", set.ID),
		zap.Int("score", session.Score),
		zap.Int("total", session.Total()),
	)
	return result
}

// NarrationEvent 客户端上报的播放事件
type NarrationEvent string

const (
	NarrationStarted NarrationEvent = "start"
	NarrationEnded   NarrationEvent = "end"
	NarrationSkipped NarrationEvent = "skip"
)

// ReportNarration 记录当前题目的播放开始、结束或跳过
func (s *SessionService) ReportNarration(ctx context.Context, userID uint, id string, event NarrationEvent) (*SessionView, error) {
	now := s.now()
	session, err := s.update(ctx, userID, id, func(session *model.QuizSession) error {
		switch event {
		case NarrationStarted:
			if session.IsComplete() {
				return model.ErrSessionComplete
			}
			session.StartNarration(now)
		case NarrationEnded:
			if session.IsComplete() {
				return model.ErrSessionComplete
			}
			session.EndNarration(now)
		case NarrationSkipped:
			return session.SkipNarration(now)
		default:
			return util.NewValidationError("event", "must be one of start, end, skip")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if event == NarrationSkipped {
		s.publish(ctx, id, EventNarrationStop, map[string]interface{}{"index": session.CurrentIndex})
	}
	return s.view(ctx, session)
}

// Delete 结束会话。未完成且自行生成音频的会话，其音频不会被任何学习集引用，一并删除
func (s *SessionService) Delete(ctx context.Context, userID uint, id string) error {
	session, err := s.load(ctx, userID, id)
	if err != nil {
		return err
	}
	s.publish(ctx, id, EventNarrationStop, map[string]interface{}{"index": session.CurrentIndex})

	// 删除之后到达的后台批次由 startNarration 自行清理
	urls, err := s.Sessions.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !session.IsComplete() && !session.AudioBorrowed && s.Cleaner != nil {
		s.Cleaner.DeleteURLs(ctx, urls)
	}
	logger.Log.Info("Quiz session closed", zap.String("sessionId", id), zap.Bool("completed", session.IsComplete()))
	return nil
}
