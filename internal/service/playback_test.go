package service

import (
	"testing"
	"time"

	"fypquiz_backend/internal/model"
)

func TestEstimatedDuration(t *testing.T) {
	tests := []struct {
		words int
		want  time.Duration
	}{
		{0, 2 * time.Second},
		{5, 2 * time.Second},
		{7, 2100 * time.Millisecond},
		{20, 6 * time.Second},
	}
	for _, tt := range tests {
		if got := EstimatedDuration(tt.words); got != tt.want {
			t.Errorf("EstimatedDuration(%d) = %v, want %v", tt.words, got, tt.want)
		}
	}
}

func TestRevealSchedule_Monotonic(t *testing.T) {
	r := NewRevealSchedule("What is the capital city of France today", 0)
	if r.Total != 2400*time.Millisecond || r.Interval != 300*time.Millisecond {
		t.Fatalf("total=%v interval=%v", r.Total, r.Interval)
	}

	prev := 0
	for ms := 0; ms <= 3000; ms += 50 {
		n := r.VisibleWords(time.Duration(ms) * time.Millisecond)
		if n < prev {
			t.Fatalf("visible words decreased at %dms: %d -> %d", ms, prev, n)
		}
		if n > len(r.Words) {
			t.Fatalf("visible words %d > %d", n, len(r.Words))
		}
		prev = n
	}
	if prev != 8 {
		t.Fatalf("final visible = %d", prev)
	}

	if got := r.VisibleText(650 * time.Millisecond); got != "What is" {
		t.Fatalf("VisibleText = %q", got)
	}
}

func TestRevealSchedule_ShortQuestionUsesFloor(t *testing.T) {
	r := NewRevealSchedule("Define osmosis", 0)
	if r.Interval != time.Second {
		t.Fatalf("interval = %v", r.Interval)
	}
	if r.VisibleWords(999*time.Millisecond) != 0 || r.VisibleWords(time.Second) != 1 {
		t.Fatal("unexpected reveal at interval boundary")
	}
}

func TestRevealSchedule_Empty(t *testing.T) {
	r := NewRevealSchedule("   ", 0)
	if r.VisibleWords(time.Hour) != 0 || r.VisibleText(time.Hour) != "" {
		t.Fatal("empty text should reveal nothing")
	}
}

func TestProgressPercent(t *testing.T) {
	tests := []struct {
		pos, dur, want float64
	}{
		{0, 10, 0},
		{5, 10, 50},
		{12, 10, 100},
		{3, 0, 0},
		{-1, 10, 0},
	}
	for _, tt := range tests {
		if got := ProgressPercent(tt.pos, tt.dur); got != tt.want {
			t.Errorf("ProgressPercent(%v, %v) = %v, want %v", tt.pos, tt.dur, got, tt.want)
		}
	}
}

func TestAnswersVisible(t *testing.T) {
	t0 := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	ended := t0.Add(4 * time.Second)

	playing := model.NarrationState{StartedAt: &t0}
	if AnswersVisible(playing, true, t0.Add(time.Hour)) {
		t.Fatal("answers visible while narration still playing")
	}
	if !AnswersVisible(playing, false, t0) {
		t.Fatal("answers hidden without audio")
	}

	done := model.NarrationState{StartedAt: &t0, EndedAt: &ended}
	if AnswersVisible(done, true, ended.Add(999*time.Millisecond)) {
		t.Fatal("answers visible before reveal delay")
	}
	if !AnswersVisible(done, true, ended.Add(time.Second)) {
		t.Fatal("answers hidden after reveal delay")
	}

	skipped := model.NarrationState{StartedAt: &t0, EndedAt: &ended, Skipped: true}
	if AnswersVisible(skipped, true, ended.Add(500*time.Millisecond)) {
		t.Fatal("skip should still wait for reveal delay")
	}
	if at, ok := AnswersVisibleAt(skipped, true); !ok || !at.Equal(ended.Add(time.Second)) {
		t.Fatalf("AnswersVisibleAt = %v, %v", at, ok)
	}
}
