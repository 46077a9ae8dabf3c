// 博客定时发布脚本
//
// 查询发布计划，到点时触发生成。建议每小时执行一次：
//
//	0 * * * * go run scripts/blog_cron.go
//
// 地址优先级：--url > BLOG_SCHEDULE_URL > 配置文件 blog.schedule_url

package main

import (
	"context"
	"errors"
	"os"
	"time"

	"fypquiz_backend/internal/cron"
	"fypquiz_backend/pkg/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const defaultScheduleURL = "http://localhost:8080/api/blog/schedule"

type cronConfig struct {
	Blog struct {
		ScheduleURL    string `yaml:"schedule_url"`
		TimeoutSeconds int    `yaml:"timeout_seconds"`
	} `yaml:"blog"`
}

func loadCronConfig(path string) (*cronConfig, error) {
	var cfg cronConfig
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return &cfg, nil
	}
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		url        string
		verbose    bool
	)

	cmd := &cobra.Command{
		Use:           "blog-cron",
		Short:         "Check the blog schedule and publish when due",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger.InitConsoleLogger(verbose)
			defer logger.Log.Sync()

			cfg, err := loadCronConfig(configPath)
			if err != nil {
				return err
			}
			if url == "" {
				url = os.Getenv("BLOG_SCHEDULE_URL")
			}
			if url == "" {
				url = cfg.Blog.ScheduleURL
			}
			if url == "" {
				url = defaultScheduleURL
			}

			timeout := time.Duration(cfg.Blog.TimeoutSeconds) * time.Second
			if _, err := cron.NewBlogPublisher(url, timeout).Run(cmd.Context()); err != nil {
				// 单次失败等下一轮重试
				logger.Log.Error("Blog publishing check failed", zap.Error(err))
			}
			logger.Log.Info("Blog publishing check completed")
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "configs/config.yaml", "path to YAML config")
	cmd.Flags().StringVar(&url, "url", "", "schedule endpoint URL")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "debug logging")
	return cmd
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		logger.Log.Error("Fatal error", zap.Error(err))
		os.Exit(1)
	}
}
