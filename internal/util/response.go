package util

import (
	"errors"
	"net/http"

	"fypquiz_backend/internal/model"
	"fypquiz_backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Response 统一响应结构
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    http.StatusOK,
		Message: "success",
		Data:    data,
	})
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Code:    http.StatusCreated,
		Message: "created",
		Data:    data,
	})
}

func Error(c *gin.Context, code int, message string) {
	c.JSON(code, Response{
		Code:    code,
		Message: message,
	})
}

func Unauthorized(c *gin.Context) {
	Error(c, http.StatusUnauthorized, "Authentication required")
}

func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, message)
}

func NotFound(c *gin.Context) {
	Error(c, http.StatusNotFound, "Resource not found")
}

func InternalServerError(c *gin.Context) {
	Error(c, http.StatusInternalServerError, "Internal server error")
}

func LogInternalError(c *gin.Context, err error) {
	logger.Log.Error("Internal server error",
		zap.String("path", c.FullPath()),
		zap.Error(err),
	)
	InternalServerError(c)
}

// HandleError 按错误类型区分超时、校验失败和服务端错误
func HandleError(c *gin.Context, err error) {
	var (
		timeoutErr    *TimeoutError
		extractionErr *ExtractionError
		validationErr *ValidationError
		authErr       *AuthError
	)

	switch {
	case errors.As(err, &timeoutErr):
		Error(c, http.StatusRequestTimeout, timeoutErr.Op+" timed out. Please try again, ideally with a shorter document.")
	case errors.As(err, &extractionErr):
		BadRequest(c, extractionMessage(extractionErr))
	case errors.As(err, &validationErr):
		BadRequest(c, validationErr.Error())
	case errors.As(err, &authErr):
		Error(c, http.StatusUnauthorized, "Invalid authentication token")
	case errors.Is(err, ErrStudySetNotFound), errors.Is(err, ErrSessionNotFound),
		errors.Is(err, ErrBlogPostNotFound), errors.Is(err, ErrUserNotFound):
		Error(c, http.StatusNotFound, err.Error())
	case errors.Is(err, model.ErrSessionComplete), errors.Is(err, model.ErrNotAnswered),
		errors.Is(err, model.ErrAnswersHidden):
		Error(c, http.StatusConflict, err.Error())
	case errors.Is(err, model.ErrChoiceOutOfRange):
		BadRequest(c, err.Error())
	case errors.Is(err, ErrEmailRegistered):
		Error(c, http.StatusConflict, err.Error())
	case errors.Is(err, ErrInvalidCredentials):
		Error(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, ErrVoiceNotConfigured):
		Error(c, http.StatusServiceUnavailable, err.Error())
	default:
		LogInternalError(c, err)
	}
}

func extractionMessage(e *ExtractionError) string {
	switch e.Reason {
	case ReasonLowQuality:
		return "The uploaded file appears to be image-based or encrypted. Please try uploading a text-based PDF or convert your file to text format first."
	case ReasonVideoTooLong:
		return "Video too long. Maximum duration is 10 minutes."
	case ReasonVideoTooLarge:
		return "Video file too large. Maximum size is 200MB. For larger files, try compressing the video first."
	case ReasonNoAudio:
		return "No clear audio found in video. Please ensure the video has clear speech."
	case ReasonUnsupported:
		return "Unsupported file type. Please upload a PDF, DOCX, TXT or video file."
	default:
		return "Could not extract meaningful text from the uploaded file: " + e.Reason
	}
}
