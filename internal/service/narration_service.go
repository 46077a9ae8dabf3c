package service

import (
	"context"
	"sync"
	"time"

	"fypquiz_backend/internal/config"
	"fypquiz_backend/internal/util"
	"fypquiz_backend/pkg/logger"
	"fypquiz_backend/pkg/monitoring"
	"fypquiz_backend/pkg/tracing"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// AudioStore 保存朗读音频并返回可播放地址
type AudioStore interface {
	SaveNarration(ctx context.Context, owner string, index int, data []byte) (string, error)
}

// BatchFunc 每批完成后回调，handles[i] 对应第 start+i 题，空串表示失败。
// 返回 false 时不再生成剩余批次
type BatchFunc func(start int, handles []string) bool

// NarrationService 逐题生成朗读音频。前几题并行生成以尽快可播放，
// 其余小批量串行，批次之间留固定间隔；单题失败只得到空地址
type NarrationService struct {
	voice Synthesizer
	store AudioStore

	mu      sync.RWMutex
	cfg     config.NarrationConfig
	limiter *rate.Limiter
}

func NewNarrationService(voice Synthesizer, store AudioStore, cfg config.NarrationConfig) *NarrationService {
	s := &NarrationService{voice: voice, store: store}
	s.ApplyConfig(cfg)
	return s
}

// ApplyConfig 配置热更新
func (s *NarrationService) ApplyConfig(cfg config.NarrationConfig) {
	if cfg.InitialBatch <= 0 {
		cfg.InitialBatch = 3
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 2
	}
	if cfg.BatchDelay < 0 {
		cfg.BatchDelay = 0
	}
	if cfg.BackgroundTimeout <= 0 {
		cfg.BackgroundTimeout = 10 * time.Minute
	}

	// 全局限制对语音接口的请求速率，所有会话共享
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg = cfg
	if s.limiter == nil {
		s.limiter = rate.NewLimiter(limit, cfg.InitialBatch)
	} else {
		s.limiter.SetLimit(limit)
		s.limiter.SetBurst(cfg.InitialBatch)
	}
}

func (s *NarrationService) config() config.NarrationConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// Generate 同步生成全部音频，返回与 texts 等长的地址列表
func (s *NarrationService) Generate(ctx context.Context, owner string, texts []string, voiceID string, onBatch BatchFunc) []string {
	cfg := s.config()
	handles := make([]string, len(texts))

	initial := min(cfg.InitialBatch, len(texts))
	copy(handles, s.runBatch(ctx, owner, texts, 0, initial, voiceID))
	if onBatch != nil && initial > 0 && !onBatch(0, handles[:initial]) {
		return handles
	}

	s.generateRest(ctx, cfg, owner, texts, initial, voiceID, handles, onBatch)
	return handles
}

// Start 同步生成首批音频后返回，剩余题目在后台继续；后台任务脱离请求的取消，
// 只受 BackgroundTimeout 约束。done 在后台任务结束时关闭
func (s *NarrationService) Start(ctx context.Context, owner string, texts []string, voiceID string, onBatch BatchFunc) (initial []string, done <-chan struct{}) {
	cfg := s.config()
	n := min(cfg.InitialBatch, len(texts))
	initial = s.runBatch(ctx, owner, texts, 0, n, voiceID)
	proceed := true
	if onBatch != nil && n > 0 {
		proceed = onBatch(0, initial)
	}

	ch := make(chan struct{})
	if n == len(texts) || !proceed {
		close(ch)
		return initial, ch
	}

	bgCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.BackgroundTimeout)
	go func() {
		defer close(ch)
		defer cancel()
		defer func() {
			if r := recover(); r != nil {
				logger.Log.Error("Background narration panicked", zap.String("owner", owner), zap.Any("panic", r))
			}
		}()
		handles := make([]string, len(texts))
		s.generateRest(bgCtx, cfg, owner, texts, n, voiceID, handles, onBatch)
	}()
	return initial, ch
}

func (s *NarrationService) generateRest(ctx context.Context, cfg config.NarrationConfig, owner string, texts []string, from int, voiceID string, handles []string, onBatch BatchFunc) {
	for start := from; start < len(texts); start += cfg.BatchSize {
		if cfg.BatchDelay > 0 {
			select {
			case <-ctx.Done():
				logger.Log.Warn("Narration stopped before completion",
					zap.String("owner", owner),
					zap.Int("generated", start),
					zap.Int("total", len(texts)),
					zap.Error(ctx.Err()),
				)
				return
			case <-time.After(cfg.BatchDelay):
			}
		}

		end := min(start+cfg.BatchSize, len(texts))
		copy(handles[start:end], s.runBatch(ctx, owner, texts, start, end, voiceID))
		if onBatch != nil && !onBatch(start, handles[start:end]) {
			logger.Log.Info("Narration cancelled by owner",
				zap.String("owner", owner),
				zap.Int("generated", end),
				zap.Int("total", len(texts)),
			)
			return
		}
	}
}

// runBatch 并行生成 [start, end) 的音频；错误不会中止同批其他题目
func (s *NarrationService) runBatch(ctx context.Context, owner string, texts []string, start, end int, voiceID string) []string {
	out := make([]string, end-start)
	if end <= start {
		return out
	}

	ctx, span := tracing.StartSpan(ctx, "narration.batch",
		attribute.Int("start", start),
		attribute.Int("size", end-start),
	)
	defer span.End()

	var g errgroup.Group
	for i := start; i < end; i++ {
		i := i
		g.Go(func() error {
			url, err := s.one(ctx, owner, i, texts[i], voiceID)
			if err != nil {
				monitoring.NarrationCounter.WithLabelValues("failed").Inc()
				logger.Log.Warn("Narration item failed",
					zap.String("owner", owner),
					zap.Error(&util.NarrationError{Index: i, Err: err}),
				)
				return nil
			}
			monitoring.NarrationCounter.WithLabelValues("ok").Inc()
			out[i-start] = url
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (s *NarrationService) one(ctx context.Context, owner string, index int, text, voiceID string) (string, error) {
	s.mu.RLock()
	limiter := s.limiter
	s.mu.RUnlock()
	if err := limiter.Wait(ctx); err != nil {
		return "", err
	}

	audio, err := s.voice.Synthesize(ctx, text, voiceID)
	if err != nil {
		return "", err
	}
	return s.store.SaveNarration(ctx, owner, index, audio)
}
