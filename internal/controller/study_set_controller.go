package controller

import (
	"io"
	"strconv"

	"fypquiz_backend/internal/middleware"
	"fypquiz_backend/internal/service"
	"fypquiz_backend/internal/util"

	"github.com/gin-gonic/gin"
)

const maxAudioUploadBytes = 10 << 20

type StudySetController struct {
	StudySets *service.StudySetService
}

func NewStudySetController(studySets *service.StudySetService) *StudySetController {
	return &StudySetController{StudySets: studySets}
}

// Save godoc
// @Summary 保存学习集
// @Description 同一用户下标题相同则覆盖原学习集
// @Tags 学习集
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body service.SaveStudySetRequest true "学习集"
// @Success 200 {object} util.Response{data=model.StudySet} "已更新"
// @Success 201 {object} util.Response{data=model.StudySet} "已创建"
// @Failure 400 {object} util.Response
// @Router /api/study-sets [post]
func (c *StudySetController) Save(ctx *gin.Context) {
	userID, ok := middleware.CurrentUserID(ctx)
	if !ok {
		return
	}
	var req service.SaveStudySetRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	set, created, err := c.StudySets.Save(userID, req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	if created {
		util.Created(ctx, set)
		return
	}
	util.Success(ctx, set)
}

// List godoc
// @Summary 学习集列表
// @Tags 学习集
// @Produce  json
// @Security ApiKeyAuth
// @Param   page query int false "页码" default(1)
// @Param   size query int false "每页数量" default(20)
// @Success 200 {object} util.Response{data=service.StudySetList}
// @Router /api/study-sets [get]
func (c *StudySetController) List(ctx *gin.Context) {
	userID, ok := middleware.CurrentUserID(ctx)
	if !ok {
		return
	}
	page := util.ParseIntDefault(ctx.Query("page"), 1)
	size := util.ParseIntDefault(ctx.Query("size"), 20)

	list, err := c.StudySets.List(userID, page, size)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, list)
}

// Get godoc
// @Summary 学习集详情
// @Description 包含题目、音频和最近的作答记录
// @Tags 学习集
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "学习集 ID"
// @Success 200 {object} util.Response{data=service.StudySetDetail}
// @Failure 404 {object} util.Response
// @Router /api/study-sets/{id} [get]
func (c *StudySetController) Get(ctx *gin.Context) {
	userID, ok := middleware.CurrentUserID(ctx)
	if !ok {
		return
	}
	detail, err := c.StudySets.Get(userID, ctx.Param("id"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, detail)
}

// Delete godoc
// @Summary 删除学习集
// @Tags 学习集
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "学习集 ID"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/study-sets/{id} [delete]
func (c *StudySetController) Delete(ctx *gin.Context) {
	userID, ok := middleware.CurrentUserID(ctx)
	if !ok {
		return
	}
	if err := c.StudySets.Delete(ctx.Request.Context(), userID, ctx.Param("id")); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// UploadAudio godoc
// @Summary 上传单题朗读音频
// @Tags 学习集
// @Accept  multipart/form-data
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "学习集 ID"
// @Param   index formData int true "题目下标，从 0 开始"
// @Param   file formData file true "mp3 音频"
// @Success 200 {object} util.Response{data=[]string}
// @Failure 400 {object} util.Response
// @Router /api/study-sets/{id}/audio [post]
func (c *StudySetController) UploadAudio(ctx *gin.Context) {
	userID, ok := middleware.CurrentUserID(ctx)
	if !ok {
		return
	}
	index, err := strconv.Atoi(ctx.PostForm("index"))
	if err != nil {
		util.BadRequest(ctx, "index must be an integer")
		return
	}
	fh, err := ctx.FormFile("file")
	if err != nil {
		util.BadRequest(ctx, "File is required")
		return
	}
	if fh.Size > maxAudioUploadBytes {
		util.BadRequest(ctx, "Audio file too large. Maximum size is 10MB.")
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

	files, err := c.StudySets.UploadAudio(ctx.Request.Context(), userID, ctx.Param("id"), index, data)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, files)
}

// GenerateAudioRequest 可选音色，默认沿用学习集的音色
// swagger:model GenerateAudioRequest
type GenerateAudioRequest struct {
	VoiceID string `json:"voiceId"`
}

// GenerateAudio godoc
// @Summary 重新生成全部朗读
// @Description 失败的题目音频地址为空串
// @Tags 学习集
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "学习集 ID"
// @Param   body body GenerateAudioRequest false "音色"
// @Success 200 {object} util.Response{data=[]string}
// @Router /api/study-sets/{id}/narration [post]
func (c *StudySetController) GenerateAudio(ctx *gin.Context) {
	userID, ok := middleware.CurrentUserID(ctx)
	if !ok {
		return
	}
	var req GenerateAudioRequest
	_ = ctx.ShouldBindJSON(&req)

	files, err := c.StudySets.GenerateAudio(ctx.Request.Context(), userID, ctx.Param("id"), req.VoiceID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, files)
}
