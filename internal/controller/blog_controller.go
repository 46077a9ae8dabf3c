package controller

import (
	"fypquiz_backend/internal/service"
	"fypquiz_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type BlogController struct {
	Blog *service.BlogService
}

func NewBlogController(blog *service.BlogService) *BlogController {
	return &BlogController{Blog: blog}
}

// List godoc
// @Summary 已发布文章列表
// @Tags 博客
// @Produce  json
// @Param   page query int false "页码" default(1)
// @Param   size query int false "每页数量" default(10)
// @Success 200 {object} util.Response{data=service.BlogList}
// @Router /api/blog/posts [get]
func (c *BlogController) List(ctx *gin.Context) {
	list, err := c.Blog.List(util.ParseIntDefault(ctx.Query("page"), 1), util.ParseIntDefault(ctx.Query("size"), 10))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, list)
}

// Get godoc
// @Summary 文章详情
// @Tags 博客
// @Produce  json
// @Param   slug path string true "文章 slug"
// @Success 200 {object} util.Response{data=model.BlogPost}
// @Failure 404 {object} util.Response
// @Router /api/blog/posts/{slug} [get]
func (c *BlogController) Get(ctx *gin.Context) {
	post, err := c.Blog.Get(ctx.Param("slug"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, post)
}

// Schedule godoc
// @Summary 发布计划
// @Description shouldPublish 为 true 表示今天是发布日且已过发布时间
// @Tags 博客
// @Produce  json
// @Success 200 {object} util.Response{data=service.Schedule}
// @Router /api/blog/schedule [get]
func (c *BlogController) Schedule(ctx *gin.Context) {
	util.Success(ctx, gin.H{"schedule": c.Blog.Schedule()})
}

// Publish godoc
// @Summary 按计划发布
// @Description 到点且当天未发布时生成一篇文章，否则返回原因
// @Tags 博客
// @Produce  json
// @Success 200 {object} util.Response{data=service.PublishResult}
// @Failure 408 {object} util.Response "生成超时"
// @Router /api/blog/schedule [post]
func (c *BlogController) Publish(ctx *gin.Context) {
	result, err := c.Blog.Publish(ctx.Request.Context())
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

// Stats godoc
// @Summary 文章统计
// @Tags 博客
// @Produce  json
// @Success 200 {object} util.Response{data=repository.BlogStats}
// @Router /api/blog/stats [get]
func (c *BlogController) Stats(ctx *gin.Context) {
	stats, err := c.Blog.Stats()
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, stats)
}
