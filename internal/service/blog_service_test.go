package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"fypquiz_backend/internal/config"
	"fypquiz_backend/internal/model"
	"fypquiz_backend/internal/repository"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var mwf = []string{"monday", "wednesday", "friday"}

func TestShouldPublish(t *testing.T) {
	// 2025-03-03 是周一
	tests := []struct {
		name string
		at   time.Time
		want bool
	}{
		{"monday before ten", time.Date(2025, 3, 3, 9, 59, 0, 0, time.UTC), false},
		{"monday at ten", time.Date(2025, 3, 3, 10, 0, 0, 0, time.UTC), true},
		{"monday evening", time.Date(2025, 3, 3, 22, 15, 0, 0, time.UTC), true},
		{"tuesday noon", time.Date(2025, 3, 4, 12, 0, 0, 0, time.UTC), false},
		{"wednesday at ten thirty", time.Date(2025, 3, 5, 10, 30, 0, 0, time.UTC), true},
		{"friday morning", time.Date(2025, 3, 7, 8, 0, 0, 0, time.UTC), false},
		{"sunday", time.Date(2025, 3, 9, 11, 0, 0, 0, time.UTC), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShouldPublish(tt.at, mwf, "10:00"); got != tt.want {
				t.Fatalf("ShouldPublish(%s) = %v, want %v", tt.at.Weekday(), got, tt.want)
			}
		})
	}
}

func TestNextPublishTime(t *testing.T) {
	tests := []struct {
		from time.Time
		want time.Time
	}{
		{time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC), time.Date(2025, 3, 3, 10, 0, 0, 0, time.UTC)},
		{time.Date(2025, 3, 3, 10, 0, 0, 0, time.UTC), time.Date(2025, 3, 5, 10, 0, 0, 0, time.UTC)},
		{time.Date(2025, 3, 7, 12, 0, 0, 0, time.UTC), time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)},
		{time.Date(2025, 3, 8, 12, 0, 0, 0, time.UTC), time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		if got := NextPublishTime(tt.from, mwf, "10:00"); !got.Equal(tt.want) {
			t.Errorf("NextPublishTime(%v) = %v, want %v", tt.from, got, tt.want)
		}
	}
}

func TestSlugifyExcerptReadTime(t *testing.T) {
	if got := Slugify("Best Study Tools for High School & College in 2025"); got != "best-study-tools-for-high-school-college-in-2025" {
		t.Fatalf("Slugify = %q", got)
	}
	content := "<h2>Intro</h2><p>" + strings.Repeat("word ", 401) + "</p>"
	if got := ReadTime(content); got != 3 {
		t.Fatalf("ReadTime = %d", got)
	}
	ex := Excerpt(content)
	if strings.Contains(ex, "<") || !strings.HasPrefix(ex, "Intro word") || !strings.HasSuffix(ex, "...") {
		t.Fatalf("Excerpt = %q", ex)
	}
}

func newBlogEnv(t *testing.T, client CompletionClient, now time.Time) *BlogService {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(&model.BlogPost{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	svc := NewBlogService(repository.NewBlogPostRepository(db), client, config.BlogConfig{})
	svc.now = func() time.Time { return now }
	svc.intn = func(int) int { return 0 }
	return svc
}

func TestBlogPublish_OncePerDay(t *testing.T) {
	client := &scriptedClient{responses: []func(context.Context, CompletionRequest) (string, error){
		reply("<h2>Hello</h2><p>Study smarter with short quizzes.</p>"),
	}}
	monday := time.Date(2025, 3, 3, 10, 5, 0, 0, time.Local)
	svc := newBlogEnv(t, client, monday)

	res, err := svc.Publish(context.Background())
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if !res.Published || res.Post == nil || res.Post.Slug != "5-gen-z-study-hacks-that-actually-work" {
		t.Fatalf("result = %+v", res)
	}
	if client.requests[0].MaxTokens != 4000 || !strings.Contains(client.requests[0].SystemPrompt, "study hacks") {
		t.Fatalf("request = %+v", client.requests[0])
	}

	res, err = svc.Publish(context.Background())
	if err != nil {
		t.Fatalf("second publish: %v", err)
	}
	if res.Published || res.Message != "Already published today" {
		t.Fatalf("second result = %+v", res)
	}
	if len(client.requests) != 1 {
		t.Fatalf("requests = %d", len(client.requests))
	}
}

func TestBlogPublish_NotScheduled(t *testing.T) {
	client := &scriptedClient{}
	svc := newBlogEnv(t, client, time.Date(2025, 3, 4, 11, 0, 0, 0, time.Local))

	res, err := svc.Publish(context.Background())
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if res.Published || len(client.requests) != 0 {
		t.Fatalf("published on tuesday: %+v", res)
	}
	if res.NextPublishTime.Weekday() != time.Wednesday {
		t.Fatalf("next = %v", res.NextPublishTime)
	}
}

func TestBlogGenerate_RotatesTopicsAndSlugs(t *testing.T) {
	body := reply("<p>content</p>")
	client := &scriptedClient{responses: []func(context.Context, CompletionRequest) (string, error){body, body}}
	svc := newBlogEnv(t, client, time.Date(2025, 3, 5, 10, 0, 0, 0, time.Local))

	first, err := svc.Generate(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	second, err := svc.Generate(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if first.Topic == second.Topic {
		t.Fatalf("topic repeated: %s", first.Topic)
	}

	stats, err := svc.Stats()
	if err != nil {
		t.Fatal(err)
	}
	if stats.PublishedPosts != 2 || stats.TotalKeywords == 0 || len(stats.Topics) != 2 {
		t.Fatalf("stats = %+v", stats)
	}
}
