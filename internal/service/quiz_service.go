package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"fypquiz_backend/internal/config"
	"fypquiz_backend/internal/model"
	"fypquiz_backend/internal/util"
	"fypquiz_backend/pkg/logger"
	"fypquiz_backend/pkg/monitoring"
	"fypquiz_backend/pkg/tracing"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const tokensPerQuestion = 150

var (
	paddingChoices  = []string{"The uploaded content", "A different topic", "Something unrelated", "I'm not sure"}
	fallbackChoices = []string{"The content you uploaded", "A different topic", "Something unrelated", "I'm not sure"}
)

// QuizService 调用模型生成测验，修复数量并打乱正确答案位置。
// 除超时和输入校验外，所有失败都退化为兜底测验
type QuizService struct {
	client CompletionClient

	mu   sync.RWMutex
	cfg  config.QuizConfig
	intn func(n int) int
}

func NewQuizService(client CompletionClient, cfg config.QuizConfig) *QuizService {
	s := &QuizService{
		client: client,
		intn:   rand.Intn,
	}
	s.ApplyConfig(cfg)
	return s
}

// ApplyConfig 配置热更新
func (s *QuizService) ApplyConfig(cfg config.QuizConfig) {
	if cfg.DefaultQuestions <= 0 {
		cfg.DefaultQuestions = 10
	}
	if cfg.MaxContentChars <= 0 {
		cfg.MaxContentChars = 2000
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 2000
	}
	if cfg.GenerationTimeout <= 0 {
		cfg.GenerationTimeout = 60 * time.Second
	}
	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
}

func (s *QuizService) config() config.QuizConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// Generate 返回恰好 desiredCount（限制在 5-50）道题的测验
func (s *QuizService) Generate(ctx context.Context, content, sourceName string, desiredCount int) (*model.Quiz, error) {
	cfg := s.config()
	count := util.ClampQuestionCount(desiredCount, cfg.DefaultQuestions)

	if strings.TrimSpace(sourceName) == "" {
		return nil, util.NewValidationError("fileName", "content and fileName are required")
	}
	if len(strings.TrimSpace(content)) < util.MinContentChars {
		return nil, util.NewValidationError("content", "Content is too short to generate meaningful questions")
	}
	if util.ReadableRatio(content) < util.MinReadableRatio {
		return nil, util.NewValidationError("content", "Content does not contain enough readable text")
	}

	ctx, span := tracing.StartSpan(ctx, "quiz.generate",
		attribute.Int("question_count", count),
		attribute.Int("content_chars", len(content)),
	)
	start := time.Now()
	quiz, outcome, err := s.generate(ctx, cfg, content, sourceName, count)
	tracing.EndSpan(span, err)

	monitoring.QuizGenerationCounter.WithLabelValues(outcome).Inc()
	monitoring.QuizGenerationDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}

	logger.Log.Info("Quiz generated",
		zap.String("source", sourceName),
		zap.Int("questions", len(quiz.Questions)),
		zap.String("outcome", outcome),
		zap.Duration("took", time.Since(start)),
	)
	return quiz, nil
}

func (s *QuizService) generate(ctx context.Context, cfg config.QuizConfig, content, sourceName string, count int) (*model.Quiz, string, error) {
	genCtx, cancel := context.WithTimeout(ctx, cfg.GenerationTimeout)
	defer cancel()

	prompt := "Content: " + util.Truncate(content, cfg.MaxContentChars)
	raw, err := s.client.Complete(genCtx, CompletionRequest{
		SystemPrompt: quizSystemPrompt(count),
		UserPrompt:   prompt,
		MaxTokens:    min(cfg.MaxTokens, count*tokensPerQuestion),
		Temperature:  cfg.Temperature,
	})
	if err != nil {
		if isDeadline(genCtx, err) {
			return nil, "timeout", &util.TimeoutError{Op: "Quiz generation", Limit: cfg.GenerationTimeout.String()}
		}
		s.logFallback(sourceName, &util.GenerationError{Stage: "completion", Err: err})
		return FallbackQuiz(sourceName, count), "fallback", nil
	}

	quiz, verr := DecodeQuiz(raw)
	if verr != nil {
		s.logFallback(sourceName, &util.GenerationError{Stage: "decode", Err: verr})
		return FallbackQuiz(sourceName, count), "fallback", nil
	}

	outcome := "ok"
	if len(quiz.Questions) < count && cfg.SupplementShortage {
		outcome = "repaired"
		extra := s.supplement(genCtx, cfg, prompt, quiz.Questions, count-len(quiz.Questions))
		quiz.Questions = append(quiz.Questions, extra...)
	}
	if len(quiz.Questions) != count {
		outcome = "repaired"
	}
	quiz.Questions = reconcileCount(quiz.Questions, count)

	for i := range quiz.Questions {
		quiz.Questions[i] = RandomizeAnswer(quiz.Questions[i], s.intn)
	}
	if strings.TrimSpace(quiz.Title) == "" {
		quiz.Title = "Quiz: " + sourceName
	}
	return quiz, outcome, nil
}

// supplement 补一次缺少的题目，失败时返回空，由模板题补齐
func (s *QuizService) supplement(ctx context.Context, cfg config.QuizConfig, prompt string, have []model.Question, missing int) []model.Question {
	existing := make([]string, 0, len(have))
	for _, q := range have {
		existing = append(existing, "- "+q.Question)
	}
	raw, err := s.client.Complete(ctx, CompletionRequest{
		SystemPrompt: quizSystemPrompt(missing) + "\nDo not repeat any of these questions:\n" + strings.Join(existing, "\n"),
		UserPrompt:   prompt,
		MaxTokens:    min(cfg.MaxTokens, missing*tokensPerQuestion),
		Temperature:  cfg.Temperature,
	})
	if err != nil {
		logger.Log.Warn("Supplementary quiz request failed", zap.Int("missing", missing), zap.Error(err))
		return nil
	}
	extra, verr := DecodeQuiz(raw)
	if verr != nil {
		logger.Log.Warn("Supplementary quiz response invalid", zap.Int("missing", missing), zap.Error(verr))
		return nil
	}
	if len(extra.Questions) > missing {
		extra.Questions = extra.Questions[:missing]
	}
	return extra.Questions
}

func (s *QuizService) logFallback(sourceName string, err error) {
	logger.Log.Warn("Using fallback quiz", zap.String("source", sourceName), zap.Error(err))
}

func isDeadline(ctx context.Context, err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) || util.IsTimeout(err)
}

func quizSystemPrompt(count int) string {
	return fmt.Sprintf(`Generate exactly %d multiple choice questions based on the provided content. Each question should have 4 choices (A, B, C, D) with one correct answer. Make questions specific to the content, not generic. Return as JSON:
{
  "title": "Quiz title",
  "questions": [
    {
      "question": "Question text",
      "choices": ["Choice A", "Choice B", "Choice C", "Choice D"],
      "correctIndex": 0,
      "voiceScript": "Brief engaging commentary"
    }
  ]
}`, count)
}

// StripCodeFences 去掉模型输出外层的 ```json ... ``` 包裹
func StripCodeFences(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		if nl := strings.IndexByte(s, '\n'); nl >= 0 && !strings.Contains(s[:nl], "{") {
			s = s[nl+1:]
		} else {
			s = strings.TrimPrefix(s, "json")
		}
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

type rawQuiz struct {
	Title     string            `json:"title"`
	Questions []json.RawMessage `json:"questions"`
}

type rawQuestion struct {
	Question     string   `json:"question"`
	Choices      []string `json:"choices"`
	CorrectIndex *int     `json:"correctIndex"`
	VoiceScript  string   `json:"voiceScript"`
}

// DecodeQuiz 按结构校验模型输出：不合法的题目被丢弃，一道合法题都没有时返回 ValidationError
func DecodeQuiz(raw string) (*model.Quiz, *util.ValidationError) {
	body := StripCodeFences(raw)
	if start, end := strings.IndexByte(body, '{'), strings.LastIndexByte(body, '}'); start >= 0 && end > start {
		body = body[start : end+1]
	}

	var rq rawQuiz
	if err := json.Unmarshal([]byte(body), &rq); err != nil {
		return nil, util.NewValidationError("quiz", "response is not valid JSON: "+err.Error())
	}
	if len(rq.Questions) == 0 {
		return nil, util.NewValidationError("questions", "missing or empty")
	}

	quiz := &model.Quiz{Title: strings.TrimSpace(rq.Title)}
	for _, item := range rq.Questions {
		var q rawQuestion
		if err := json.Unmarshal(item, &q); err != nil {
			continue
		}
		if question, ok := validQuestion(q); ok {
			quiz.Questions = append(quiz.Questions, question)
		}
	}
	if len(quiz.Questions) == 0 {
		return nil, util.NewValidationError("questions", "no structurally valid questions")
	}
	return quiz, nil
}

func validQuestion(q rawQuestion) (model.Question, bool) {
	text := strings.TrimSpace(q.Question)
	if text == "" || len(q.Choices) != util.ChoicesPerQuestion || q.CorrectIndex == nil {
		return model.Question{}, false
	}
	if *q.CorrectIndex < 0 || *q.CorrectIndex >= util.ChoicesPerQuestion {
		return model.Question{}, false
	}
	choices := make([]string, len(q.Choices))
	for i, c := range q.Choices {
		c = strings.TrimSpace(c)
		if c == "" {
			return model.Question{}, false
		}
		choices[i] = c
	}
	return model.Question{
		Question:     text,
		Choices:      choices,
		CorrectIndex: *q.CorrectIndex,
		VoiceScript:  strings.TrimSpace(q.VoiceScript),
	}, true
}

// reconcileCount 不足时用模板题补齐，超出时截断
func reconcileCount(questions []model.Question, count int) []model.Question {
	if len(questions) > count {
		return questions[:count]
	}
	for len(questions) < count {
		questions = append(questions, model.Question{
			Question:     "What is the main topic of this content?",
			Choices:      append([]string(nil), paddingChoices...),
			CorrectIndex: 0,
			VoiceScript:  "Let's see what you remember from the content!",
		})
	}
	return questions
}

// RandomizeAnswer 取出正确选项，在 [0,4) 中均匀选一个新位置插回
func RandomizeAnswer(q model.Question, intn func(int) int) model.Question {
	correct := q.Choices[q.CorrectIndex]
	others := make([]string, 0, len(q.Choices)-1)
	for i, c := range q.Choices {
		if i != q.CorrectIndex {
			others = append(others, c)
		}
	}

	idx := intn(len(q.Choices))
	choices := make([]string, 0, len(q.Choices))
	choices = append(choices, others[:idx]...)
	choices = append(choices, correct)
	choices = append(choices, others[idx:]...)

	q.Choices = choices
	q.CorrectIndex = idx
	return q
}

// FallbackQuiz 模型不可用时的确定性兜底测验
func FallbackQuiz(sourceName string, count int) *model.Quiz {
	questions := make([]model.Question, count)
	for i := range questions {
		questions[i] = model.Question{
			Question:     fmt.Sprintf("Question %d: What is the main topic of your uploaded content?", i+1),
			Choices:      append([]string(nil), fallbackChoices...),
			CorrectIndex: 0,
			VoiceScript:  "Let's test your knowledge!",
		}
	}
	return &model.Quiz{
		Title:     "Quiz: " + sourceName,
		Questions: questions,
	}
}
