package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"fypquiz_backend/internal/config"
	"fypquiz_backend/internal/util"
	"fypquiz_backend/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const (
	voiceCatalogKey   = "voices:catalog"
	voiceCatalogTTL   = time.Hour
	voiceCatalogLimit = 20
)

// Synthesizer 文本转语音，返回 MPEG 音频
type Synthesizer interface {
	Synthesize(ctx context.Context, text, voiceID string) ([]byte, error)
}

// Voice 可选的朗读音色
type Voice struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Category    string            `json:"category"`
	PreviewURL  string            `json:"preview_url"`
	Labels      map[string]string `json:"labels,omitempty"`
}

type VoiceService struct {
	config  config.VoiceConfig
	timeout time.Duration
	maxText int
	client  *http.Client
	rdb     *redis.Client
}

func NewVoiceService(cfg config.VoiceConfig, narration config.NarrationConfig, rdb *redis.Client) *VoiceService {
	s := &VoiceService{
		config: cfg,
		client: &http.Client{},
		rdb:    rdb,
	}
	s.ApplyConfig(narration)
	return s
}

// ApplyConfig 热更新超时与截断长度
func (s *VoiceService) ApplyConfig(narration config.NarrationConfig) {
	s.timeout = narration.VoiceTimeout
	if s.timeout <= 0 {
		s.timeout = 30 * time.Second
	}
	s.maxText = narration.MaxTextChars
	if s.maxText <= 0 {
		s.maxText = 500
	}
}

type ttsRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Style           float64 `json:"style"`
	UseSpeakerBoost bool    `json:"use_speaker_boost"`
}

func (s *VoiceService) Synthesize(ctx context.Context, text, voiceID string) ([]byte, error) {
	if s.config.APIKey == "" {
		return nil, util.ErrVoiceNotConfigured
	}
	if strings.TrimSpace(text) == "" || voiceID == "" {
		return nil, util.NewValidationError("text", "text and voice ID are required")
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	body, err := json.Marshal(ttsRequest{
		Text:    util.Truncate(text, s.maxText),
		ModelID: s.config.ModelID,
		VoiceSettings: voiceSettings{
			Stability:       0.5,
			SimilarityBoost: 0.5,
			Style:           0,
			UseSpeakerBoost: true,
		},
	})
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/v1/text-to-speech/%s", strings.TrimRight(s.config.BaseURL, "/"), voiceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("xi-api-key", s.config.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", util.MimeAudioMPEG)

	resp, err := s.client.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, &util.TimeoutError{Op: "voice generation", Limit: s.timeout.String()}
		}
		return nil, err
	}
	defer resp.Body.Close()

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, &util.TimeoutError{Op: "voice generation", Limit: s.timeout.String()}
		}
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("voice API error (status %d): %s", resp.StatusCode, util.Truncate(string(audio), 200))
	}
	return audio, nil
}

type voicesResponse struct {
	Voices []struct {
		VoiceID     string            `json:"voice_id"`
		Name        string            `json:"name"`
		Description string            `json:"description"`
		Category    string            `json:"category"`
		PreviewURL  string            `json:"preview_url"`
		Labels      map[string]string `json:"labels"`
	} `json:"voices"`
}

// ListVoices 返回 professional / generated 音色，最多 20 个，结果在 Redis 缓存 1 小时
func (s *VoiceService) ListVoices(ctx context.Context) ([]Voice, error) {
	if s.config.APIKey == "" {
		return nil, util.ErrVoiceNotConfigured
	}

	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, voiceCatalogKey).Bytes(); err == nil {
			var voices []Voice
			if json.Unmarshal(cached, &voices) == nil {
				return voices, nil
			}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(s.config.BaseURL, "/")+"/v2/voices", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("xi-api-key", s.config.APIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("voice API error: %d", resp.StatusCode)
	}

	var data voicesResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, err
	}

	voices := make([]Voice, 0, voiceCatalogLimit)
	for _, v := range data.Voices {
		if v.Category != "professional" && v.Category != "generated" {
			continue
		}
		desc := v.Description
		if desc == "" {
			accent := v.Labels["accent"]
			if accent == "" {
				accent = "Professional"
			}
			desc = accent + " voice"
		}
		voices = append(voices, Voice{
			ID:          v.VoiceID,
			Name:        v.Name,
			Description: desc,
			Category:    v.Category,
			PreviewURL:  v.PreviewURL,
			Labels:      v.Labels,
		})
		if len(voices) == voiceCatalogLimit {
			break
		}
	}

	if s.rdb != nil {
		if payload, err := json.Marshal(voices); err == nil {
			if err := s.rdb.Set(ctx, voiceCatalogKey, payload, voiceCatalogTTL).Err(); err != nil {
				logger.Log.Warn("Failed to cache voice catalog", zap.Error(err))
			}
		}
	}
	return voices, nil
}
