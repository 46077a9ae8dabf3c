package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"fypquiz_backend/internal/config"
	"fypquiz_backend/internal/util"
)

const transcriptionTimeout = 300 * time.Second

// CompletionClient 对话补全接口，测验和博客生成依赖它，测试中替换为假实现
type CompletionClient interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// Transcriber 语音转文字
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (string, error)
}

type CompletionRequest struct {
	SystemPrompt string
	UserPrompt   string
	MaxTokens    int
	Temperature  float64
}

type AIService struct {
	config config.AIConfig
	client *http.Client
}

func NewAIService(cfg config.AIConfig) *AIService {
	return &AIService{
		config: cfg,
		client: &http.Client{},
	}
}

type AIChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatCompletionRequest struct {
	Model       string          `json:"model"`
	Messages    []AIChatMessage `json:"messages"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
	Temperature float64         `json:"temperature"`
}

type ChatCompletionResponse struct {
	Choices []struct {
		Message AIChatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (s *AIService) Complete(ctx context.Context, creq CompletionRequest) (string, error) {
	if s.config.APIKey == "" {
		return "", errors.New("AI API key not configured")
	}

	reqBody := ChatCompletionRequest{
		Model: s.config.Model,
		Messages: []AIChatMessage{
			{Role: "system", Content: creq.SystemPrompt},
			{Role: "user", Content: creq.UserPrompt},
		},
		MaxTokens:   creq.MaxTokens,
		Temperature: creq.Temperature,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.BaseURL+"/chat/completions", bytes.NewReader(jsonData))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.config.APIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	var chatResp ChatCompletionResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", fmt.Errorf("AI API error (status %d): %s", resp.StatusCode, util.Truncate(string(body), 300))
	}
	if chatResp.Error != nil {
		return "", fmt.Errorf("AI API error (status %d): %s", resp.StatusCode, chatResp.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("AI API error (status %d)", resp.StatusCode)
	}
	if len(chatResp.Choices) == 0 {
		return "", errors.New("AI API returned no choices")
	}
	return chatResp.Choices[0].Message.Content, nil
}

// Transcribe 调用 /audio/transcriptions，返回纯文本
func (s *AIService) Transcribe(ctx context.Context, audioPath string) (string, error) {
	if s.config.APIKey == "" {
		return "", errors.New("AI API key not configured")
	}

	ctx, cancel := context.WithTimeout(ctx, transcriptionTimeout)
	defer cancel()

	f, err := os.Open(audioPath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, f); err != nil {
		return "", err
	}
	model := s.config.TranscriptionModel
	if model == "" {
		model = "whisper-1"
	}
	_ = mw.WriteField("model", model)
	_ = mw.WriteField("response_format", "text")
	if err := mw.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.BaseURL+"/audio/transcriptions", &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+s.config.APIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", &util.TimeoutError{Op: "transcription", Limit: transcriptionTimeout.String()}
		}
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("transcription API error (status %d): %s", resp.StatusCode, util.Truncate(string(body), 300))
	}
	return strings.TrimSpace(string(body)), nil
}
