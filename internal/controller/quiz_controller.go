package controller

import (
	"io"
	"net/http"

	"fypquiz_backend/internal/service"
	"fypquiz_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type QuizController struct {
	Extraction *service.ExtractionService
	Quiz       *service.QuizService
}

func NewQuizController(extraction *service.ExtractionService, quiz *service.QuizService) *QuizController {
	return &QuizController{Extraction: extraction, Quiz: quiz}
}

// Extract godoc
// @Summary 从上传文件抽取文本
// @Description 支持 TXT、PDF、DOCX 和视频（≤200MB、≤10 分钟，转写音轨）
// @Tags 测验
// @Accept  multipart/form-data
// @Produce  json
// @Security ApiKeyAuth
// @Param   file formData file true "待抽取的文件"
// @Success 200 {object} util.Response{data=service.Extraction}
// @Failure 400 {object} util.Response "无法抽取或文件类型不支持"
// @Failure 408 {object} util.Response "转写超时"
// @Failure 413 {object} util.Response "文件过大"
// @Router /api/extract [post]
func (c *QuizController) Extract(ctx *gin.Context) {
	fh, err := ctx.FormFile("file")
	if err != nil {
		util.BadRequest(ctx, "File is required")
		return
	}
	if fh.Size > util.MaxVideoBytes {
		util.Error(ctx, http.StatusRequestEntityTooLarge, "File too large. Maximum size is 200MB.")
		return
	}

	f, err := fh.Open()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	mimeType := util.ResolveMimeType(fh.Header.Get("Content-Type"), fh.Filename, data)
	result, err := c.Extraction.Extract(ctx.Request.Context(), fh.Filename, mimeType, data)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

// GenerateQuizRequest 测验生成参数
// swagger:model GenerateQuizRequest
type GenerateQuizRequest struct {
	Content       string `json:"content"`
	FileName      string `json:"fileName"`
	QuestionCount int    `json:"questionCount"`
}

// Generate godoc
// @Summary 由文本生成测验
// @Description 返回恰好 questionCount（5-50，默认 10）道四选一题目；模型失败时返回兜底测验
// @Tags 测验
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body GenerateQuizRequest true "内容与题目数量"
// @Success 200 {object} util.Response{data=model.Quiz}
// @Failure 400 {object} util.Response "内容过短或不可读"
// @Failure 408 {object} util.Response "生成超时"
// @Router /api/quizzes/generate [post]
func (c *QuizController) Generate(ctx *gin.Context) {
	var req GenerateQuizRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	quiz, err := c.Quiz.Generate(ctx.Request.Context(), req.Content, req.FileName, req.QuestionCount)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, quiz)
}
