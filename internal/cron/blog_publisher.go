package cron

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"fypquiz_backend/pkg/logger"

	"go.uber.org/zap"
)

const defaultTimeout = 2 * time.Minute

// envelope 对应服务端 util.Response
type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type schedule struct {
	ShouldPublish   bool      `json:"shouldPublish"`
	NextPublishTime time.Time `json:"nextPublishTime"`
}

type publishResult struct {
	Published       bool      `json:"published"`
	Message         string    `json:"message"`
	NextPublishTime time.Time `json:"nextPublishTime"`
}

// Outcome 一次检查的结果
type Outcome struct {
	ShouldPublish   bool
	Published       bool
	Message         string
	NextPublishTime time.Time
}

// BlogPublisher 查询发布计划，到点时触发发布。由外部定时器每小时调用一次
type BlogPublisher struct {
	URL    string
	Client *http.Client
}

func NewBlogPublisher(url string, timeout time.Duration) *BlogPublisher {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &BlogPublisher{URL: url, Client: &http.Client{Timeout: timeout}}
}

func (p *BlogPublisher) Run(ctx context.Context) (*Outcome, error) {
	logger.Log.Info("Starting blog publishing check", zap.String("url", p.URL))

	var body struct {
		Schedule schedule `json:"schedule"`
	}
	if err := p.call(ctx, http.MethodGet, &body); err != nil {
		return nil, fmt.Errorf("check schedule: %w", err)
	}
	out := &Outcome{
		ShouldPublish:   body.Schedule.ShouldPublish,
		NextPublishTime: body.Schedule.NextPublishTime,
	}
	logger.Log.Info("Schedule checked",
		zap.Bool("shouldPublish", out.ShouldPublish),
		zap.Time("nextPublishTime", out.NextPublishTime),
	)
	if !out.ShouldPublish {
		out.Message = "Not time to publish yet"
		return out, nil
	}

	var result publishResult
	if err := p.call(ctx, http.MethodPost, &result); err != nil {
		return nil, fmt.Errorf("publish: %w", err)
	}
	out.Published = result.Published
	out.Message = result.Message
	out.NextPublishTime = result.NextPublishTime
	logger.Log.Info("Publish triggered",
		zap.Bool("published", out.Published),
		zap.String("message", out.Message),
		zap.Time("nextPublishTime", out.NextPublishTime),
	)
	return out, nil
}

func (p *BlogPublisher) call(ctx context.Context, method string, data interface{}) error {
	var reqBody io.Reader
	if method == http.MethodPost {
		reqBody = bytes.NewReader([]byte("{}"))
	}
	req, err := http.NewRequestWithContext(ctx, method, p.URL, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(raw))
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return err
	}
	return json.Unmarshal(env.Data, data)
}
