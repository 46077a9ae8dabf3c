package model

import (
	"errors"
	"time"
)

var (
	ErrSessionComplete  = errors.New("quiz session already complete")
	ErrNotAnswered      = errors.New("current question has not been answered")
	ErrChoiceOutOfRange = errors.New("choice index out of range")
	ErrAnswersHidden    = errors.New("answers are hidden until narration ends")
)

type SessionPhase string

const (
	PhaseAwaitingAnswer SessionPhase = "awaiting_answer"
	PhaseAnswered       SessionPhase = "answered"
	PhaseComplete       SessionPhase = "complete"
)

// NoSelection 未作答题目在 Selections 中的取值
const NoSelection = -1

// NarrationState 当前题目的朗读进度
type NarrationState struct {
	StartedAt *time.Time `json:"startedAt,omitempty"`
	EndedAt   *time.Time `json:"endedAt,omitempty"`
	Skipped   bool       `json:"skipped"`
}

// Ended 朗读结束或被跳过的时间点
func (n NarrationState) Ended() (time.Time, bool) {
	if n.EndedAt == nil {
		return time.Time{}, false
	}
	return *n.EndedAt, true
}

// QuizSession 一次作答过程，状态只能通过 Select / Next 推进
//
//	AwaitingAnswer(i) --Select--> Answered(i, correct) --Next--> AwaitingAnswer(i+1) | Complete(score, total)
type QuizSession struct {
	ID              string         `json:"id"`
	UserID          uint           `json:"userId"`
	StudySetID      string         `json:"studySetId,omitempty"`
	Title           string         `json:"title"`
	VoiceID         string         `json:"voiceId,omitempty"`
	BackgroundVideo string         `json:"backgroundVideo,omitempty"`
	// 音频沿用学习集已有文件，会话结束时不能删除
	AudioBorrowed   bool           `json:"audioBorrowed,omitempty"`
	Quiz            Quiz           `json:"quiz"`
	CurrentIndex    int            `json:"currentIndex"`
	Score           int            `json:"score"`
	Phase           SessionPhase   `json:"phase"`
	CurrentCorrect  bool           `json:"currentCorrect"`
	Selections      []int          `json:"selections"`
	Narration       NarrationState `json:"narration"`
	CreatedAt       time.Time      `json:"createdAt"`
	CompletedAt     *time.Time     `json:"completedAt,omitempty"`
}

func NewQuizSession(id string, userID uint, quiz Quiz, now time.Time) *QuizSession {
	selections := make([]int, len(quiz.Questions))
	for i := range selections {
		selections[i] = NoSelection
	}
	s := &QuizSession{
		ID:         id,
		UserID:     userID,
		Title:      quiz.Title,
		Quiz:       quiz,
		Phase:      PhaseAwaitingAnswer,
		Selections: selections,
		CreatedAt:  now,
	}
	if len(quiz.Questions) == 0 {
		s.Phase = PhaseComplete
		s.CompletedAt = &now
	}
	return s
}

func (s *QuizSession) Total() int {
	return len(s.Quiz.Questions)
}

func (s *QuizSession) IsComplete() bool {
	return s.Phase == PhaseComplete
}

// CurrentQuestion 完成后返回 nil
func (s *QuizSession) CurrentQuestion() *Question {
	if s.IsComplete() || s.CurrentIndex >= s.Total() {
		return nil
	}
	return &s.Quiz.Questions[s.CurrentIndex]
}

// Select 记录当前题目的选择。已作答时重复选择不改变状态，返回首次作答的结果
func (s *QuizSession) Select(choice int) (bool, error) {
	switch s.Phase {
	case PhaseComplete:
		return false, ErrSessionComplete
	case PhaseAnswered:
		return s.CurrentCorrect, nil
	}

	q := s.CurrentQuestion()
	if choice < 0 || choice >= len(q.Choices) {
		return false, ErrChoiceOutOfRange
	}

	s.CurrentCorrect = choice == q.CorrectIndex
	s.Selections[s.CurrentIndex] = choice
	s.Phase = PhaseAnswered
	return s.CurrentCorrect, nil
}

// Next 计分并进入下一题，最后一题作答后进入完成态
func (s *QuizSession) Next(now time.Time) error {
	switch s.Phase {
	case PhaseComplete:
		return ErrSessionComplete
	case PhaseAwaitingAnswer:
		return ErrNotAnswered
	}

	if s.CurrentCorrect {
		s.Score++
	}
	s.CurrentCorrect = false
	s.Narration = NarrationState{}

	if s.CurrentIndex == s.Total()-1 {
		s.Phase = PhaseComplete
		s.CompletedAt = &now
		return nil
	}

	s.CurrentIndex++
	s.Phase = PhaseAwaitingAnswer
	return nil
}

// StartNarration 标记当前题目开始朗读，重复调用保留第一次的时间
func (s *QuizSession) StartNarration(now time.Time) {
	if s.Narration.StartedAt == nil {
		s.Narration.StartedAt = &now
	}
}

// EndNarration 朗读自然结束
func (s *QuizSession) EndNarration(now time.Time) {
	if s.Narration.EndedAt == nil {
		s.Narration.EndedAt = &now
	}
}

// SkipNarration 用户跳过朗读
func (s *QuizSession) SkipNarration(now time.Time) error {
	if s.IsComplete() {
		return ErrSessionComplete
	}
	if s.Narration.EndedAt == nil {
		s.Narration.EndedAt = &now
		s.Narration.Skipped = true
	}
	return nil
}
