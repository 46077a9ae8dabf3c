package model

import (
	"errors"
	"testing"
	"time"
)

func threeQuestionQuiz() Quiz {
	q := func(text string, correct int) Question {
		return Question{
			Question:     text,
			Choices:      []string{"a", "b", "c", "d"},
			CorrectIndex: correct,
		}
	}
	return Quiz{
		Title:     "Cells",
		Questions: []Question{q("Q1", 0), q("Q2", 1), q("Q3", 2)},
	}
}

func TestQuizSession_ScoreCountsCorrectAnswersIncludingLast(t *testing.T) {
	now := time.Now()
	s := NewQuizSession("s1", 1, threeQuestionQuiz(), now)

	// Q1 correct, Q2 incorrect, Q3 correct
	for _, choice := range []int{0, 3, 2} {
		if _, err := s.Select(choice); err != nil {
			t.Fatalf("select: %v", err)
		}
		if err := s.Next(now); err != nil {
			t.Fatalf("next: %v", err)
		}
	}

	if !s.IsComplete() {
		t.Fatalf("expected complete, got phase %s", s.Phase)
	}
	if s.Score != 2 || s.Total() != 3 {
		t.Fatalf("expected 2/3, got %d/%d", s.Score, s.Total())
	}
	if s.CompletedAt == nil {
		t.Fatal("CompletedAt not set")
	}
}

func TestQuizSession_RepeatedSelectIsNoOp(t *testing.T) {
	s := NewQuizSession("s1", 1, threeQuestionQuiz(), time.Now())

	correct, err := s.Select(0)
	if err != nil || !correct {
		t.Fatalf("first select: correct=%v err=%v", correct, err)
	}

	correct, err = s.Select(2)
	if err != nil {
		t.Fatalf("second select: %v", err)
	}
	if !correct {
		t.Fatal("second select must not change the recorded result")
	}
	if s.Selections[0] != 0 {
		t.Fatalf("selection overwritten: %d", s.Selections[0])
	}
	if s.Phase != PhaseAnswered {
		t.Fatalf("phase = %s", s.Phase)
	}
}

func TestQuizSession_InvalidTransitions(t *testing.T) {
	now := time.Now()
	s := NewQuizSession("s1", 1, threeQuestionQuiz(), now)

	if err := s.Next(now); !errors.Is(err, ErrNotAnswered) {
		t.Fatalf("next before answer: got %v", err)
	}
	if _, err := s.Select(4); !errors.Is(err, ErrChoiceOutOfRange) {
		t.Fatalf("out of range: got %v", err)
	}
	if _, err := s.Select(-1); !errors.Is(err, ErrChoiceOutOfRange) {
		t.Fatalf("negative: got %v", err)
	}

	for i := 0; i < 3; i++ {
		s.Select(0)
		s.Next(now)
	}
	if _, err := s.Select(0); !errors.Is(err, ErrSessionComplete) {
		t.Fatalf("select after complete: got %v", err)
	}
	if err := s.Next(now); !errors.Is(err, ErrSessionComplete) {
		t.Fatalf("next after complete: got %v", err)
	}
	if s.CurrentQuestion() != nil {
		t.Fatal("no current question after completion")
	}
}

func TestQuizSession_NarrationResetsOnNext(t *testing.T) {
	now := time.Now()
	s := NewQuizSession("s1", 1, threeQuestionQuiz(), now)

	s.StartNarration(now)
	if err := s.SkipNarration(now.Add(time.Second)); err != nil {
		t.Fatal(err)
	}
	if !s.Narration.Skipped {
		t.Fatal("expected skipped")
	}
	ended, ok := s.Narration.Ended()
	if !ok || !ended.Equal(now.Add(time.Second)) {
		t.Fatalf("ended = %v %v", ended, ok)
	}

	s.Select(1)
	s.Next(now)
	if s.Narration.StartedAt != nil || s.Narration.EndedAt != nil || s.Narration.Skipped {
		t.Fatalf("narration state not reset: %+v", s.Narration)
	}
}

func TestQuizSession_EmptyQuizStartsComplete(t *testing.T) {
	s := NewQuizSession("s1", 1, Quiz{Title: "empty"}, time.Now())
	if !s.IsComplete() {
		t.Fatal("empty quiz should be complete")
	}
}
