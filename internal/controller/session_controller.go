package controller

import (
	"fypquiz_backend/internal/middleware"
	"fypquiz_backend/internal/service"
	"fypquiz_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type SessionController struct {
	Sessions *service.SessionService
}

func NewSessionController(sessions *service.SessionService) *SessionController {
	return &SessionController{Sessions: sessions}
}

// Create godoc
// @Summary 开始作答
// @Description 传入测验或学习集 ID。前 3 题的朗读同步生成，其余在后台生成并通过 WebSocket 推送
// @Tags 作答
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body service.CreateSessionRequest true "测验来源"
// @Success 201 {object} util.Response{data=service.SessionView}
// @Failure 400 {object} util.Response
// @Failure 404 {object} util.Response "学习集不存在"
// @Router /api/quiz-sessions [post]
func (c *SessionController) Create(ctx *gin.Context) {
	userID, ok := middleware.CurrentUserID(ctx)
	if !ok {
		return
	}
	var req service.CreateSessionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	view, err := c.Sessions.Create(ctx.Request.Context(), userID, req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, view)
}

// Get godoc
// @Summary 获取作答状态
// @Tags 作答
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "会话 ID"
// @Success 200 {object} util.Response{data=service.SessionView}
// @Failure 404 {object} util.Response
// @Router /api/quiz-sessions/{id} [get]
func (c *SessionController) Get(ctx *gin.Context) {
	userID, ok := middleware.CurrentUserID(ctx)
	if !ok {
		return
	}
	view, err := c.Sessions.Get(ctx.Request.Context(), userID, ctx.Param("id"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, view)
}

// AnswerRequest 选择的选项下标
// swagger:model AnswerRequest
type AnswerRequest struct {
	Choice *int `json:"choice" binding:"required"`
}

// Answer godoc
// @Summary 回答当前题目
// @Description 重复回答返回首次作答结果；朗读结束前返回 409
// @Tags 作答
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "会话 ID"
// @Param   body body AnswerRequest true "选项下标 0-3"
// @Success 200 {object} util.Response{data=service.SessionView}
// @Failure 400 {object} util.Response "选项越界"
// @Failure 409 {object} util.Response "已完成或选项尚未显示"
// @Router /api/quiz-sessions/{id}/answer [post]
func (c *SessionController) Answer(ctx *gin.Context) {
	userID, ok := middleware.CurrentUserID(ctx)
	if !ok {
		return
	}
	var req AnswerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	view, err := c.Sessions.Answer(ctx.Request.Context(), userID, ctx.Param("id"), *req.Choice)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, view)
}

// Next godoc
// @Summary 进入下一题
// @Description 最后一题之后进入完成态，保存学习集与成绩
// @Tags 作答
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "会话 ID"
// @Success 200 {object} util.Response{data=service.SessionView}
// @Failure 409 {object} util.Response "尚未作答或已完成"
// @Router /api/quiz-sessions/{id}/next [post]
func (c *SessionController) Next(ctx *gin.Context) {
	userID, ok := middleware.CurrentUserID(ctx)
	if !ok {
		return
	}
	view, err := c.Sessions.Next(ctx.Request.Context(), userID, ctx.Param("id"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, view)
}

// NarrationRequest 播放事件
// swagger:model NarrationRequest
type NarrationRequest struct {
	Event service.NarrationEvent `json:"event" binding:"required" enums:"start,end,skip"`
}

// Narration godoc
// @Summary 上报朗读播放事件
// @Description start 之后选项隐藏，end / skip 之后 1 秒显示
// @Tags 作答
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "会话 ID"
// @Param   body body NarrationRequest true "start / end / skip"
// @Success 200 {object} util.Response{data=service.SessionView}
// @Router /api/quiz-sessions/{id}/narration [post]
func (c *SessionController) Narration(ctx *gin.Context) {
	var req NarrationRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	c.report(ctx, req.Event)
}

// Skip godoc
// @Summary 跳过当前朗读
// @Tags 作答
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "会话 ID"
// @Success 200 {object} util.Response{data=service.SessionView}
// @Router /api/quiz-sessions/{id}/skip [post]
func (c *SessionController) Skip(ctx *gin.Context) {
	c.report(ctx, service.NarrationSkipped)
}

func (c *SessionController) report(ctx *gin.Context, event service.NarrationEvent) {
	userID, ok := middleware.CurrentUserID(ctx)
	if !ok {
		return
	}
	view, err := c.Sessions.ReportNarration(ctx.Request.Context(), userID, ctx.Param("id"), event)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, view)
}

// Delete godoc
// @Summary 结束作答
// @Description 停止朗读；未完成会话的音频一并删除
// @Tags 作答
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "会话 ID"
// @Success 200 {object} util.Response
// @Router /api/quiz-sessions/{id} [delete]
func (c *SessionController) Delete(ctx *gin.Context) {
	userID, ok := middleware.CurrentUserID(ctx)
	if !ok {
		return
	}
	if err := c.Sessions.Delete(ctx.Request.Context(), userID, ctx.Param("id")); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// Stream godoc
// @Summary 会话事件流 (WebSocket)
// @Description 推送 session.snapshot、narration.batch、narration.complete、narration.stop、session.complete。浏览器无法设置请求头，token 通过查询参数传入
// @Tags 作答
// @Param   id path string true "会话 ID"
// @Param   token query string true "JWT"
// @Router /api/quiz-sessions/{id}/ws [get]
func (c *SessionController) Stream(ctx *gin.Context) {
	userID, ok := middleware.CurrentUserID(ctx)
	if !ok {
		return
	}
	if err := c.Sessions.ServeStream(ctx.Writer, ctx.Request, userID, ctx.Param("id")); err != nil {
		util.HandleError(ctx, err)
	}
}
