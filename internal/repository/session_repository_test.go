package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"fypquiz_backend/internal/model"
	"fypquiz_backend/internal/util"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
)

func newTestSessionRepo(t *testing.T) (*SessionRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewSessionRepository(client, time.Hour), mr
}

func sampleSession(id string) *model.QuizSession {
	quiz := model.Quiz{
		Title: "Biology",
		Questions: []model.Question{
			{Question: "Q1", Choices: []string{"a", "b", "c", "d"}, CorrectIndex: 1},
			{Question: "Q2", Choices: []string{"a", "b", "c", "d"}, CorrectIndex: 2},
		},
	}
	return model.NewQuizSession(id, 7, quiz, time.Now())
}

func TestSessionRepository_RoundTrip(t *testing.T) {
	repo, mr := newTestSessionRepo(t)
	ctx := context.Background()

	if err := repo.Create(ctx, sampleSession("abc")); err != nil {
		t.Fatalf("create: %v", err)
	}
	if ttl := mr.TTL(sessionKey("abc")); ttl != time.Hour {
		t.Fatalf("ttl = %v", ttl)
	}

	got, err := repo.Get(ctx, "abc")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.UserID != 7 || got.Total() != 2 || got.Phase != model.PhaseAwaitingAnswer {
		t.Fatalf("unexpected session: %+v", got)
	}

	if err := repo.Create(ctx, sampleSession("abc")); err == nil {
		t.Fatal("duplicate create should fail")
	}
}

func TestSessionRepository_GetMissing(t *testing.T) {
	repo, _ := newTestSessionRepo(t)
	_, err := repo.Get(context.Background(), "nope")
	if !errors.Is(err, util.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestSessionRepository_UpdateAppliesTransition(t *testing.T) {
	repo, _ := newTestSessionRepo(t)
	ctx := context.Background()
	repo.Create(ctx, sampleSession("abc"))

	updated, err := repo.Update(ctx, "abc", func(s *model.QuizSession) error {
		_, err := s.Select(1)
		return err
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Phase != model.PhaseAnswered || !updated.CurrentCorrect {
		t.Fatalf("unexpected state: %+v", updated)
	}

	stored, _ := repo.Get(ctx, "abc")
	if stored.Selections[0] != 1 {
		t.Fatalf("selection not persisted: %v", stored.Selections)
	}

	// 回调报错时不写回
	_, err = repo.Update(ctx, "abc", func(s *model.QuizSession) error {
		s.Score = 99
		return model.ErrNotAnswered
	})
	if !errors.Is(err, model.ErrNotAnswered) {
		t.Fatalf("expected callback error, got %v", err)
	}
	stored, _ = repo.Get(ctx, "abc")
	if stored.Score != 0 {
		t.Fatalf("failed update was persisted: score=%d", stored.Score)
	}
}

func TestSessionRepository_AudioHashIsIndependent(t *testing.T) {
	repo, _ := newTestSessionRepo(t)
	ctx := context.Background()
	repo.Create(ctx, sampleSession("abc"))

	if err := repo.SetAudio(ctx, "abc", 0, []string{"u0", ""}); err != nil {
		t.Fatalf("set audio: %v", err)
	}
	if _, err := repo.Update(ctx, "abc", func(s *model.QuizSession) error {
		_, err := s.Select(0)
		return err
	}); err != nil {
		t.Fatal(err)
	}

	urls, err := repo.GetAudio(ctx, "abc", 2)
	if err != nil {
		t.Fatal(err)
	}
	if urls[0] != "u0" || urls[1] != "" {
		t.Fatalf("urls = %v", urls)
	}
	n, _ := repo.AudioReady(ctx, "abc")
	if n != 2 {
		t.Fatalf("ready = %d", n)
	}

	removed, err := repo.Delete(ctx, "abc")
	if err != nil {
		t.Fatal(err)
	}
	if len(removed) != 1 || removed[0] != "u0" {
		t.Fatalf("removed = %v", removed)
	}
	urls, _ = repo.GetAudio(ctx, "abc", 2)
	if urls[0] != "" {
		t.Fatal("audio hash not removed with session")
	}
}

func TestSessionRepository_SetAudioAfterDelete(t *testing.T) {
	repo, _ := newTestSessionRepo(t)
	ctx := context.Background()
	repo.Create(ctx, sampleSession("gone"))
	if _, err := repo.Delete(ctx, "gone"); err != nil {
		t.Fatal(err)
	}

	if err := repo.SetAudio(ctx, "gone", 3, []string{"late.mp3"}); !errors.Is(err, util.ErrSessionNotFound) {
		t.Fatalf("set audio on deleted session: %v", err)
	}
	if n, _ := repo.AudioReady(ctx, "gone"); n != 0 {
		t.Fatalf("audio hash recreated with %d entries", n)
	}
}
