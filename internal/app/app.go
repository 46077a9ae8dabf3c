package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"fypquiz_backend/internal/config"
	"fypquiz_backend/internal/controller"
	"fypquiz_backend/internal/repository"
	"fypquiz_backend/internal/service"
	"fypquiz_backend/pkg/configwatcher"
	"fypquiz_backend/pkg/database"
	"fypquiz_backend/pkg/logger"
	"fypquiz_backend/pkg/monitoring"
	"fypquiz_backend/pkg/security"
	"fypquiz_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const configDir = "configs"

type App struct {
	Config          *config.Config
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	services        *services
	tracer          *trace.TracerProvider
	stopWatch       context.CancelFunc
	configCallbacks []func(*config.Config)
}

type repositories struct {
	user     *repository.UserRepository
	studySet *repository.StudySetRepository
	attempt  *repository.QuizAttemptRepository
	session  *repository.SessionRepository
	blogPost *repository.BlogPostRepository
}

type services struct {
	ai         *service.AIService
	storage    *service.StorageService
	voice      *service.VoiceService
	narration  *service.NarrationService
	extraction *service.ExtractionService
	quiz       *service.QuizService
	session    *service.SessionService
	studySet   *service.StudySetService
	auth       *service.AuthService
	blog       *service.BlogService
}

type controllers struct {
	auth     *controller.AuthController
	quiz     *controller.QuizController
	session  *controller.SessionController
	studySet *controller.StudySetController
	voice    *controller.VoiceController
	blog     *controller.BlogController
	health   *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

func (a *App) initRepositories(db *gorm.DB, rdb *redis.Client, cfg *config.Config) *repositories {
	return &repositories{
		user:     repository.NewUserRepository(db),
		studySet: repository.NewStudySetRepository(db),
		attempt:  repository.NewQuizAttemptRepository(db),
		session:  repository.NewSessionRepository(rdb, cfg.Narration.SessionTTL),
		blogPost: repository.NewBlogPostRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, rdb *redis.Client) *services {
	s := &services{}
	s.ai = service.NewAIService(cfg.AI)
	s.storage = service.NewStorageService(cfg)
	s.voice = service.NewVoiceService(cfg.Voice, cfg.Narration, rdb)
	s.narration = service.NewNarrationService(s.voice, s.storage, cfg.Narration)

	tempDir := cfg.Storage.TempPath
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	s.extraction = service.NewExtractionService(s.ai, tempDir)
	s.quiz = service.NewQuizService(s.ai, cfg.Quiz)
	s.session = service.NewSessionService(repos.session, repos.studySet, repos.attempt, s.narration, s.storage)
	s.studySet = service.NewStudySetService(repos.studySet, repos.attempt, s.storage, s.narration)
	s.auth = service.NewAuthService(repos.user, repos.attempt, cfg)
	s.blog = service.NewBlogService(repos.blogPost, s.ai, cfg.Blog)

	// 热更新只覆盖生成参数，连接类配置需要重启
	a.RegisterConfigCallback(func(newCfg *config.Config) {
		s.quiz.ApplyConfig(newCfg.Quiz)
		s.narration.ApplyConfig(newCfg.Narration)
		s.voice.ApplyConfig(newCfg.Narration)
		s.blog.ApplyConfig(newCfg.Blog)
	})
	return s
}

func (a *App) initControllers(s *services, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		auth:     controller.NewAuthController(s.auth),
		quiz:     controller.NewQuizController(s.extraction, s.quiz),
		session:  controller.NewSessionController(s.session),
		studySet: controller.NewStudySetController(s.studySet),
		voice:    controller.NewVoiceController(s.voice),
		blog:     controller.NewBlogController(s.blog),
		health:   controller.NewHealthController(db, rdb),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
	if window <= 0 {
		window = time.Minute
	}
	router.Use(security.RateLimiter(cfg.RateLimit.MaxRequests, window))

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}
	router.Use(monitoring.MetricsMiddleware())
}

// watchConfig 配置文件变更后依次执行回调
func (a *App) watchConfig() {
	ctx, cancel := context.WithCancel(context.Background())
	a.stopWatch = cancel
	go func() {
		err := configwatcher.WatchConfig(ctx, filepath.Join(configDir, "config.yaml"), func(newCfg *config.Config) {
			for _, cb := range a.configCallbacks {
				cb(newCfg)
			}
		})
		if err != nil {
			logger.Log.Warn("Config watcher stopped", zap.Error(err))
		}
	}()
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)
	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database, cfg.Server.Mode == gin.DebugMode)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}
	if err := database.Migrate(db); err != nil {
		logger.Log.Fatal("Failed to migrate database", zap.Error(err))
	}

	app := &App{
		Config: cfg,
		DB:     db,
	}
	if cfg.MigrateOnly {
		return app
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
	}
	app.Redis = rdb

	repos := app.initRepositories(db, rdb, cfg)
	services := app.initServices(repos, cfg, rdb)
	app.services = services
	controllers := app.initControllers(services, db, rdb)

	// 监控初始化
	monitoring.Init()

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer(tracing.ServiceName, cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		app.tracer = tp
	}

	gin.SetMode(cfg.Server.Mode)
	router := gin.Default()
	app.Router = router
	app.setupMiddlewares(router, cfg)
	app.registerRoutes(router, controllers, cfg)

	if cfg.Storage.Type == "local" {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

	app.watchConfig()
	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	// 启动服务器
	go func() {
		logger.Log.Info("Server running", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	if a.stopWatch != nil {
		a.stopWatch()
	}

	// 关闭服务
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error("Server forced to shutdown", zap.Error(err))
	}

	if a.tracer != nil {
		if err := a.tracer.Shutdown(ctx); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
	logger.Log.Info("Server exiting")
}
