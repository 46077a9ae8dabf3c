package app

import (
	"fypquiz_backend/docs"
	"fypquiz_backend/internal/config"
	"fypquiz_backend/internal/middleware"
	"fypquiz_backend/pkg/monitoring"
	"fypquiz_backend/pkg/security"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// 视频上限 200MB，multipart 包头留出余量
const maxExtractBody = 210 << 20

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由(无需登录)
	a.registerPublicRoutes(router, c)

	// 2. 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg.JWT.Secret))
	{
		a.registerQuizRoutes(authGroup, c)
		a.registerStudySetRoutes(authGroup, c)
	}
}

func (a *App) registerPublicRoutes(router *gin.Engine, c *controllers) {
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)
		public.GET("/voices", c.voice.List)

		// 博客，schedule 由定时任务调用
		public.GET("/blog/posts", c.blog.List)
		public.GET("/blog/posts/:slug", c.blog.Get)
		public.GET("/blog/schedule", c.blog.Schedule)
		public.POST("/blog/schedule", c.blog.Publish)
		public.GET("/blog/stats", c.blog.Stats)
	}
}

func (a *App) registerQuizRoutes(rg *gin.RouterGroup, c *controllers) {
	rg.GET("/profile", c.auth.Profile)

	rg.POST("/extract", security.MaxBodySize(maxExtractBody), c.quiz.Extract)
	rg.POST("/quizzes/generate", c.quiz.Generate)
	rg.POST("/voice", c.voice.Preview)

	sessions := rg.Group("/quiz-sessions")
	{
		sessions.POST("", c.session.Create)
		sessions.GET("/:id", c.session.Get)
		sessions.DELETE("/:id", c.session.Delete)
		sessions.POST("/:id/answer", c.session.Answer)
		sessions.POST("/:id/next", c.session.Next)
		sessions.POST("/:id/skip", c.session.Skip)
		sessions.POST("/:id/narration", c.session.Narration)
		sessions.GET("/:id/ws", c.session.Stream)
	}
}

func (a *App) registerStudySetRoutes(rg *gin.RouterGroup, c *controllers) {
	sets := rg.Group("/study-sets")
	{
		sets.GET("", c.studySet.List)
		sets.POST("", c.studySet.Save)
		sets.GET("/:id", c.studySet.Get)
		sets.DELETE("/:id", c.studySet.Delete)
		sets.POST("/:id/audio", c.studySet.UploadAudio)
		sets.POST("/:id/narration", c.studySet.GenerateAudio)
	}
}
