package util

import (
	"errors"
	"fmt"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailRegistered    = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrStudySetNotFound   = errors.New("study set not found")
	ErrSessionNotFound    = errors.New("quiz session not found")
	ErrBlogPostNotFound   = errors.New("blog post not found")
	ErrVoiceNotConfigured = errors.New("voice API key not configured")
)

// ExtractionError.Reason 取值
const (
	ReasonLowQuality    = "low-quality/image-based"
	ReasonUnsupported   = "unsupported file type"
	ReasonVideoTooLarge = "video too large"
	ReasonVideoTooLong  = "video duration exceeds limit"
	ReasonNoAudio       = "no audio track"
	ReasonTranscription = "transcription failed"
	ReasonUnreadable    = "unreadable file"
)

// ExtractionError 上传内容无法读取或质量过低
type ExtractionError struct {
	Reason string
	Err    error
}

func (e *ExtractionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("extraction failed: %s: %v", e.Reason, e.Err)
	}
	return "extraction failed: " + e.Reason
}

func (e *ExtractionError) Unwrap() error { return e.Err }

func NewExtractionError(reason string, err error) *ExtractionError {
	return &ExtractionError{Reason: reason, Err: err}
}

// GenerationError 模型调用失败或输出不可解析，调用方一般用兜底测验替代
type GenerationError struct {
	Stage string
	Err   error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("quiz generation failed at %s: %v", e.Stage, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// NarrationError 单条语音合成失败
type NarrationError struct {
	Index int
	Err   error
}

func (e *NarrationError) Error() string {
	return fmt.Sprintf("narration for question %d failed: %v", e.Index+1, e.Err)
}

func (e *NarrationError) Unwrap() error { return e.Err }

// TimeoutError 外部调用超过墙钟时限
type TimeoutError struct {
	Op    string
	Limit string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s timed out after %s", e.Op, e.Limit)
}

// AuthError 缺失或非法的 Bearer Token
type AuthError struct {
	Reason string
}

func (e *AuthError) Error() string { return "authentication failed: " + e.Reason }

// ValidationError 请求参数或模型输出结构不合法
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func IsTimeout(err error) bool {
	var te *TimeoutError
	return errors.As(err, &te)
}
