package repository

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"fypquiz_backend/internal/model"
	"fypquiz_backend/internal/util"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(&model.User{}, &model.StudySet{}, &model.QuizAttempt{}, &model.BlogPost{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestUserRepository_DuplicateEmail(t *testing.T) {
	repo := NewUserRepository(newTestDB(t))

	if err := repo.Create(&model.User{Name: "Ada", Email: "Ada@Uni.edu", Password: "x"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	err := repo.Create(&model.User{Name: "Ada2", Email: "ada@uni.edu", Password: "y"})
	if !errors.Is(err, util.ErrEmailRegistered) {
		t.Fatalf("expected ErrEmailRegistered, got %v", err)
	}

	u, err := repo.FindByEmail(" ADA@uni.edu ")
	if err != nil || u.Name != "Ada" {
		t.Fatalf("find by email: %v %+v", err, u)
	}
	if _, err := repo.FindByID(999); !errors.Is(err, util.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestStudySetRepository_UpsertUpdatesOnDuplicateTitle(t *testing.T) {
	repo := NewStudySetRepository(newTestDB(t))

	first := &model.StudySet{
		UserID:         1,
		Title:          "Photosynthesis",
		QuizData:       json.RawMessage(`{"title":"Photosynthesis","questions":[]}`),
		VoiceID:        "voice-a",
		TotalQuestions: 5,
		AudioFiles:     json.RawMessage(`["a.mp3"]`),
	}
	created, err := repo.Upsert(first)
	if err != nil || !created {
		t.Fatalf("first upsert: created=%v err=%v", created, err)
	}

	score := 4
	second := &model.StudySet{
		UserID:         1,
		Title:          "Photosynthesis",
		QuizData:       json.RawMessage(`{"title":"Photosynthesis","questions":[]}`),
		VoiceID:        "voice-b",
		TotalQuestions: 10,
		LastScore:      &score,
	}
	created, err = repo.Upsert(second)
	if err != nil || created {
		t.Fatalf("second upsert: created=%v err=%v", created, err)
	}
	if second.ID != first.ID {
		t.Fatalf("expected same row, got %s vs %s", second.ID, first.ID)
	}

	sets, total, err := repo.ListByUser(1, 10, 0)
	if err != nil || total != 1 || len(sets) != 1 {
		t.Fatalf("list: total=%d len=%d err=%v", total, len(sets), err)
	}

	got, err := repo.FindByID(1, first.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.VoiceID != "voice-b" || got.TotalQuestions != 10 || got.LastScore == nil || *got.LastScore != 4 {
		t.Fatalf("not updated: %+v", got)
	}
	if files := got.DecodeAudioFiles(); len(files) != 1 || files[0] != "a.mp3" {
		t.Fatalf("audio files overwritten: %v", files)
	}

	// 其他用户同名不冲突
	if created, err := repo.Upsert(&model.StudySet{UserID: 2, Title: "Photosynthesis"}); err != nil || !created {
		t.Fatalf("other user upsert: created=%v err=%v", created, err)
	}
}

func TestStudySetRepository_UpsertNewQuizDropsStaleAudio(t *testing.T) {
	repo := NewStudySetRepository(newTestDB(t))

	first := &model.StudySet{
		UserID:     1,
		Title:      "Mitosis",
		QuizData:   json.RawMessage(`{"title":"Mitosis","questions":[{"question":"Old?"}]}`),
		AudioFiles: json.RawMessage(`["old-1.mp3"]`),
	}
	if _, err := repo.Upsert(first); err != nil {
		t.Fatal(err)
	}

	second := &model.StudySet{
		UserID:   1,
		Title:    "Mitosis",
		QuizData: json.RawMessage(`{"title":"Mitosis","questions":[{"question":"New?"}]}`),
	}
	if created, err := repo.Upsert(second); err != nil || created {
		t.Fatalf("upsert: created=%v err=%v", created, err)
	}

	got, err := repo.FindByID(1, first.ID)
	if err != nil {
		t.Fatal(err)
	}
	if files := got.DecodeAudioFiles(); len(files) != 0 {
		t.Fatalf("stale audio kept for rewritten quiz: %v", files)
	}

	// 新音频随新题目一起写入
	third := &model.StudySet{
		UserID:     1,
		Title:      "Mitosis",
		QuizData:   json.RawMessage(`{"title":"Mitosis","questions":[{"question":"Newer?"}]}`),
		AudioFiles: json.RawMessage(`["new-1.mp3"]`),
	}
	if _, err := repo.Upsert(third); err != nil {
		t.Fatal(err)
	}
	got, _ = repo.FindByID(1, first.ID)
	if files := got.DecodeAudioFiles(); len(files) != 1 || files[0] != "new-1.mp3" {
		t.Fatalf("audio files = %v", files)
	}
}

func TestStudySetRepository_DeleteScopedToOwner(t *testing.T) {
	repo := NewStudySetRepository(newTestDB(t))
	set := &model.StudySet{UserID: 1, Title: "Owned"}
	if _, err := repo.Upsert(set); err != nil {
		t.Fatal(err)
	}

	if err := repo.Delete(2, set.ID); !errors.Is(err, util.ErrStudySetNotFound) {
		t.Fatalf("foreign delete: %v", err)
	}
	if err := repo.Delete(1, set.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.FindByID(1, set.ID); !errors.Is(err, util.ErrStudySetNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestQuizAttemptRepository_OncePerSession(t *testing.T) {
	repo := NewQuizAttemptRepository(newTestDB(t))
	now := time.Now()

	for i := 0; i < 2; i++ {
		err := repo.Create(&model.QuizAttempt{
			UserID: 1, StudySetID: "set", SessionID: "sess-1", Score: 2, Total: 4, CompletedAt: now,
		})
		if err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
	}
	repo.Create(&model.QuizAttempt{UserID: 1, StudySetID: "set", SessionID: "sess-2", Score: 4, Total: 4, CompletedAt: now})

	attempts, err := repo.ListByStudySet(1, "set", 10)
	if err != nil || len(attempts) != 2 {
		t.Fatalf("attempts: %d %v", len(attempts), err)
	}

	stats, err := repo.StatsByUser(1)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Attempts != 2 || stats.AverageScore < 74.9 || stats.AverageScore > 75.1 {
		t.Fatalf("stats = %+v", stats)
	}
}

func TestBlogPostRepository_PublishedOnly(t *testing.T) {
	repo := NewBlogPostRepository(newTestDB(t))
	now := time.Now()

	repo.Create(&model.BlogPost{Slug: "draft", Title: "Draft", Status: model.BlogDraft, Topic: "study-tips"})
	repo.Create(&model.BlogPost{Slug: "live", Title: "Live", Content: "body", Status: model.BlogPublished, Topic: "study-tips", PublishedAt: &now})

	if _, err := repo.FindBySlug("draft"); !errors.Is(err, util.ErrBlogPostNotFound) {
		t.Fatalf("draft should be hidden, got %v", err)
	}
	post, err := repo.FindBySlug("live")
	if err != nil || post.Content != "body" {
		t.Fatalf("find live: %v %+v", err, post)
	}

	posts, total, err := repo.ListPublished(10, 0)
	if err != nil || total != 1 || len(posts) != 1 || posts[0].Content != "" {
		t.Fatalf("list: total=%d err=%v posts=%+v", total, err, posts)
	}

	n, _ := repo.CountPublishedSince(now.Add(-time.Hour))
	if n != 1 {
		t.Fatalf("count since = %d", n)
	}
	counts, _ := repo.TopicCounts()
	if counts["study-tips"] != 1 {
		t.Fatalf("topic counts = %v", counts)
	}
	exists, _ := repo.SlugExists("draft")
	if !exists {
		t.Fatal("draft slug should exist")
	}
}
