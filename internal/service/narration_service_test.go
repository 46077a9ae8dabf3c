package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"fypquiz_backend/internal/config"
)

type fakeSynth struct {
	mu     sync.Mutex
	failOn map[string]bool
	calls  []string
}

func (f *fakeSynth) Synthesize(ctx context.Context, text, voiceID string) ([]byte, error) {
	f.mu.Lock()
	f.calls = append(f.calls, text)
	f.mu.Unlock()
	if f.failOn[text] {
		return nil, errors.New("voice api 500")
	}
	return []byte("audio:" + text), nil
}

type memStore struct {
	mu    sync.Mutex
	saved map[string][]byte
}

func (m *memStore) SaveNarration(ctx context.Context, owner string, index int, data []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saved == nil {
		m.saved = map[string][]byte{}
	}
	url := fmt.Sprintf("/uploads/%s", NarrationKey(owner, index))
	m.saved[url] = data
	return url, nil
}

func narrationTexts(n int) []string {
	texts := make([]string, n)
	for i := range texts {
		texts[i] = fmt.Sprintf("question %d", i)
	}
	return texts
}

func fastNarrationConfig() config.NarrationConfig {
	return config.NarrationConfig{InitialBatch: 3, BatchSize: 2, BatchDelay: time.Millisecond}
}

func TestNarrationGenerate_IsolatesFailures(t *testing.T) {
	texts := narrationTexts(5)
	synth := &fakeSynth{failOn: map[string]bool{texts[2]: true}}
	svc := NewNarrationService(synth, &memStore{}, fastNarrationConfig())

	handles := svc.Generate(context.Background(), "set-1", texts, "voice", nil)
	if len(handles) != 5 {
		t.Fatalf("len = %d", len(handles))
	}
	for i, h := range handles {
		if i == 2 {
			if h != "" {
				t.Fatalf("handle[2] = %q, want empty", h)
			}
			continue
		}
		want := "/uploads/" + NarrationKey("set-1", i)
		if h != want {
			t.Fatalf("handle[%d] = %q, want %q", i, h, want)
		}
	}
	if len(synth.calls) != 5 {
		t.Fatalf("synth calls = %d, want 5", len(synth.calls))
	}
}

func TestNarrationGenerate_ReportsBatches(t *testing.T) {
	svc := NewNarrationService(&fakeSynth{}, &memStore{}, fastNarrationConfig())

	var starts []int
	var sizes []int
	svc.Generate(context.Background(), "o", narrationTexts(8), "", func(start int, handles []string) bool {
		starts = append(starts, start)
		sizes = append(sizes, len(handles))
		return true
	})

	wantStarts := []int{0, 3, 5, 7}
	wantSizes := []int{3, 2, 2, 1}
	if fmt.Sprint(starts) != fmt.Sprint(wantStarts) || fmt.Sprint(sizes) != fmt.Sprint(wantSizes) {
		t.Fatalf("batches starts=%v sizes=%v", starts, sizes)
	}
}

func TestNarrationStart_ContinuesInBackground(t *testing.T) {
	svc := NewNarrationService(&fakeSynth{}, &memStore{}, fastNarrationConfig())

	var mu sync.Mutex
	got := map[int]string{}
	ctx, cancel := context.WithCancel(context.Background())
	initial, done := svc.Start(ctx, "o", narrationTexts(6), "", func(start int, handles []string) bool {
		mu.Lock()
		defer mu.Unlock()
		for i, h := range handles {
			got[start+i] = h
		}
		return true
	})
	// 请求结束不影响后台生成
	cancel()

	if len(initial) != 3 {
		t.Fatalf("initial batch = %d", len(initial))
	}
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("background narration did not finish")
	}

	mu.Lock()
	defer mu.Unlock()
	keys := make([]int, 0, len(got))
	for k, v := range got {
		if v == "" {
			t.Fatalf("handle %d empty", k)
		}
		keys = append(keys, k)
	}
	sort.Ints(keys)
	if fmt.Sprint(keys) != "[0 1 2 3 4 5]" {
		t.Fatalf("reported indices %v", keys)
	}
}

func TestNarrationStart_SmallQuizFinishesImmediately(t *testing.T) {
	svc := NewNarrationService(&fakeSynth{}, &memStore{}, fastNarrationConfig())
	initial, done := svc.Start(context.Background(), "o", narrationTexts(2), "", nil)
	if len(initial) != 2 {
		t.Fatalf("initial = %d", len(initial))
	}
	select {
	case <-done:
	default:
		t.Fatal("done should already be closed")
	}
}

func TestNarrationStart_StopsWhenCallbackDeclines(t *testing.T) {
	synth := &fakeSynth{}
	svc := NewNarrationService(synth, &memStore{}, fastNarrationConfig())

	var batches int
	_, done := svc.Start(context.Background(), "o", narrationTexts(7), "", func(start int, handles []string) bool {
		batches++
		return start == 0
	})
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("background narration did not stop")
	}

	// 首批 3 题加第二批 2 题，之后不再生成
	if batches != 2 {
		t.Fatalf("batches = %d, want 2", batches)
	}
	synth.mu.Lock()
	defer synth.mu.Unlock()
	if len(synth.calls) != 5 {
		t.Fatalf("synth calls = %d, want 5", len(synth.calls))
	}
}
