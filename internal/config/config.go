package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	Storage   StorageConfig
	Tracing   TracingConfig `mapstructure:"tracing"`
	Redis     RedisConfig
	AI        AIConfig
	Voice     VoiceConfig
	Quiz      QuizConfig      `mapstructure:"quiz"`
	Narration NarrationConfig `mapstructure:"narration"`
	Blog      BlogConfig      `mapstructure:"blog"`
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`

	// 运行时标志（非配置文件，通过命令行参数设置）
	MigrateOnly bool `mapstructure:"-"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type RateLimitConfig struct {
	MaxRequests   int `mapstructure:"max_requests"`
	WindowMinutes int `mapstructure:"window_minutes"`
}

// AIConfig OpenAI 兼容接口（对话补全 + 语音转写）
type AIConfig struct {
	BaseURL            string `mapstructure:"base_url"`
	APIKey             string `mapstructure:"api_key"`
	Model              string `mapstructure:"model"`
	TranscriptionModel string `mapstructure:"transcription_model"`
}

// VoiceConfig ElevenLabs 语音合成
type VoiceConfig struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
	ModelID string `mapstructure:"model_id"`
}

type QuizConfig struct {
	DefaultQuestions   int           `mapstructure:"default_questions"`
	MaxContentChars    int           `mapstructure:"max_content_chars"`
	MaxTokens          int           `mapstructure:"max_tokens"`
	Temperature        float64       `mapstructure:"temperature"`
	GenerationTimeout  time.Duration `mapstructure:"generation_timeout"`
	SupplementShortage bool          `mapstructure:"supplement_shortage"`
}

type NarrationConfig struct {
	InitialBatch      int           `mapstructure:"initial_batch"`
	BatchSize         int           `mapstructure:"batch_size"`
	BatchDelay        time.Duration `mapstructure:"batch_delay"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	VoiceTimeout      time.Duration `mapstructure:"voice_timeout"`
	BackgroundTimeout time.Duration `mapstructure:"background_timeout"`
	MaxTextChars      int           `mapstructure:"max_text_chars"`
	SessionTTL        time.Duration `mapstructure:"session_ttl"`
}

type BlogConfig struct {
	ScheduleURL    string   `mapstructure:"schedule_url"`
	PreferredDays  []string `mapstructure:"preferred_days"`
	PreferredTime  string   `mapstructure:"preferred_time"`
	PostsPerWeek   int      `mapstructure:"posts_per_week"`
	TimeoutSeconds int      `mapstructure:"timeout_seconds"`
}

type ServerConfig struct {
	Port    string
	Mode    string
	LogFile string `mapstructure:"log_file"`
}

type DatabaseConfig struct {
	Host      string
	Port      int
	User      string
	Password  string
	DBName    string
	Charset   string
	ParseTime bool
}

type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	ExpireTime time.Duration `mapstructure:"expire_hours"`
}

type StorageConfig struct {
	Type          string `mapstructure:"type"`
	LocalPath     string `mapstructure:"local_path"`
	TempPath      string `mapstructure:"temp_path"`
	PublicBaseURL string `mapstructure:"public_base_url"`
	MinioEndpoint string `mapstructure:"minio_endpoint"`
	MinioAccessID string `mapstructure:"minio_access_key"`
	MinioSecret   string `mapstructure:"minio_secret_key"`
	MinioBucket   string `mapstructure:"minio_bucket"`
	MinioSecure   bool   `mapstructure:"minio_secure"`
	OSSEndpoint   string `mapstructure:"oss_endpoint"`
	OSSAccessKey  string `mapstructure:"oss_access_key"`
	OSSSecretKey  string `mapstructure:"oss_secret_key"`
	OSSBucket     string `mapstructure:"oss_bucket"`
}

type TracingConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	CollectorEndpoint string `mapstructure:"collector_endpoint"`
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")

	v.SetDefault("ai.base_url", "https://api.openai.com/v1")
	v.SetDefault("ai.model", "gpt-4o")
	v.SetDefault("ai.transcription_model", "whisper-1")

	v.SetDefault("voice.base_url", "https://api.elevenlabs.io")
	v.SetDefault("voice.model_id", "eleven_multilingual_v2")

	v.SetDefault("quiz.default_questions", 10)
	v.SetDefault("quiz.max_content_chars", 2000)
	v.SetDefault("quiz.max_tokens", 2000)
	v.SetDefault("quiz.temperature", 0.7)
	v.SetDefault("quiz.generation_timeout", 60*time.Second)
	v.SetDefault("quiz.supplement_shortage", true)

	v.SetDefault("narration.initial_batch", 3)
	v.SetDefault("narration.batch_size", 2)
	v.SetDefault("narration.batch_delay", 100*time.Millisecond)
	v.SetDefault("narration.requests_per_second", 5.0)
	v.SetDefault("narration.voice_timeout", 30*time.Second)
	v.SetDefault("narration.background_timeout", 10*time.Minute)
	v.SetDefault("narration.max_text_chars", 500)
	v.SetDefault("narration.session_ttl", 24*time.Hour)

	v.SetDefault("blog.schedule_url", "http://localhost:8080/api/blog/schedule")
	v.SetDefault("blog.preferred_days", []string{"monday", "wednesday", "friday"})
	v.SetDefault("blog.preferred_time", "10:00")
	v.SetDefault("blog.posts_per_week", 3)
	v.SetDefault("blog.timeout_seconds", 120)

	v.SetDefault("storage.type", "local")
	v.SetDefault("storage.local_path", "uploads")

	v.SetDefault("jwt.expire_hours", 72)
	v.SetDefault("rate_limit.max_requests", 600)
	v.SetDefault("rate_limit.window_minutes", 1)
}

func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvPrefix("FYPQUIZ")
	v.AutomaticEnv()
	setDefaults(v)

	// Database
	v.BindEnv("database.host", "DATABASE_HOST")
	v.BindEnv("database.port", "DATABASE_PORT")
	v.BindEnv("database.user", "DATABASE_USER")
	v.BindEnv("database.password", "DATABASE_PASSWORD")
	v.BindEnv("database.dbname", "DATABASE_NAME")

	// JWT
	v.BindEnv("jwt.secret", "JWT_SECRET")

	// Redis
	v.BindEnv("redis.host", "REDIS_HOST")
	v.BindEnv("redis.port", "REDIS_PORT")
	v.BindEnv("redis.password", "REDIS_PASSWORD")

	// Server
	v.BindEnv("server.mode", "SERVER_MODE")
	v.BindEnv("server.port", "PORT")

	// AI / Voice
	v.BindEnv("ai.base_url", "OPENAI_BASE_URL")
	v.BindEnv("ai.api_key", "OPENAI_API_KEY")
	v.BindEnv("ai.model", "OPENAI_MODEL")
	v.BindEnv("voice.api_key", "ELEVENLABS_API_KEY")

	// Storage
	v.BindEnv("storage.type", "STORAGE_TYPE")
	v.BindEnv("storage.public_base_url", "STORAGE_PUBLIC_BASE_URL")
	v.BindEnv("storage.oss_endpoint", "OSS_ENDPOINT")
	v.BindEnv("storage.oss_access_key", "OSS_ACCESS_KEY")
	v.BindEnv("storage.oss_secret_key", "OSS_SECRET_KEY")
	v.BindEnv("storage.oss_bucket", "OSS_BUCKET")
	v.BindEnv("storage.minio_endpoint", "MINIO_ENDPOINT")
	v.BindEnv("storage.minio_access_key", "MINIO_ACCESS_KEY")
	v.BindEnv("storage.minio_secret_key", "MINIO_SECRET_KEY")
	v.BindEnv("storage.minio_bucket", "MINIO_BUCKET")

	// Tracing
	v.BindEnv("tracing.enabled", "TRACING_ENABLED")
	v.BindEnv("tracing.collector_endpoint", "TRACING_COLLECTOR_ENDPOINT")

	// Blog cron
	v.BindEnv("blog.schedule_url", "BLOG_SCHEDULE_URL")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.JWT.ExpireTime = cfg.JWT.ExpireTime * time.Hour

	// 生产环境校验 JWT Secret 强度
	if cfg.Server.Mode == "release" && len(cfg.JWT.Secret) < 32 {
		return nil, fmt.Errorf("JWT secret is too short (%d chars), must be at least 32 characters in release mode", len(cfg.JWT.Secret))
	}

	if cfg.Storage.Type == "local" {
		if _, err := os.Stat(cfg.Storage.LocalPath); os.IsNotExist(err) {
			os.MkdirAll(cfg.Storage.LocalPath, 0755)
		}
	}

	return &cfg, nil
}
