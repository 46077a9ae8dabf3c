package controller

import (
	"net/http"

	"fypquiz_backend/internal/service"
	"fypquiz_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type VoiceController struct {
	Voices *service.VoiceService
}

func NewVoiceController(voices *service.VoiceService) *VoiceController {
	return &VoiceController{Voices: voices}
}

// List godoc
// @Summary 可选朗读音色
// @Tags 朗读
// @Produce  json
// @Success 200 {object} util.Response{data=[]service.Voice}
// @Failure 503 {object} util.Response "未配置语音服务"
// @Router /api/voices [get]
func (c *VoiceController) List(ctx *gin.Context) {
	voices, err := c.Voices.ListVoices(ctx.Request.Context())
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, voices)
}

// PreviewRequest 试听文本
// swagger:model PreviewRequest
type PreviewRequest struct {
	Text    string `json:"text" binding:"required"`
	VoiceID string `json:"voiceId"`
}

// Preview godoc
// @Summary 试听音色
// @Description 文本超过 500 字符会被截断
// @Tags 朗读
// @Accept  json
// @Produce  audio/mpeg
// @Security ApiKeyAuth
// @Param   body body PreviewRequest true "文本与音色"
// @Success 200 {file} binary
// @Failure 408 {object} util.Response "语音合成超时"
// @Router /api/voice [post]
func (c *VoiceController) Preview(ctx *gin.Context) {
	var req PreviewRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	audio, err := c.Voices.Synthesize(ctx.Request.Context(), req.Text, req.VoiceID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	ctx.Data(http.StatusOK, util.MimeAudioMPEG, audio)
}
