package cron

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func scheduleServer(t *testing.T, shouldPublish bool, status int, posts *int) *httptest.Server {
	t.Helper()
	next := time.Date(2025, 3, 5, 10, 0, 0, 0, time.UTC)
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if status != http.StatusOK {
			w.WriteHeader(status)
			_ = json.NewEncoder(w).Encode(map[string]interface{}{"code": status, "message": "boom"})
			return
		}
		var data interface{}
		switch r.Method {
		case http.MethodGet:
			data = map[string]interface{}{"schedule": map[string]interface{}{
				"shouldPublish":   shouldPublish,
				"nextPublishTime": next,
			}}
		case http.MethodPost:
			*posts++
			data = map[string]interface{}{
				"published":       true,
				"message":         "Blog post generated and published successfully",
				"nextPublishTime": next,
			}
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"code": 200, "message": "success", "data": data})
	}))
}

func TestBlogPublisherPublishesWhenDue(t *testing.T) {
	posts := 0
	srv := scheduleServer(t, true, http.StatusOK, &posts)
	defer srv.Close()

	out, err := NewBlogPublisher(srv.URL, time.Second).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !out.Published || posts != 1 {
		t.Fatalf("published=%v posts=%d, want true and 1", out.Published, posts)
	}
	if out.NextPublishTime.Weekday() != time.Wednesday {
		t.Errorf("next publish = %v", out.NextPublishTime)
	}
}

func TestBlogPublisherSkipsWhenNotDue(t *testing.T) {
	posts := 0
	srv := scheduleServer(t, false, http.StatusOK, &posts)
	defer srv.Close()

	out, err := NewBlogPublisher(srv.URL, time.Second).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out.Published || posts != 0 {
		t.Fatalf("published=%v posts=%d, want no publish", out.Published, posts)
	}
	if out.Message != "Not time to publish yet" {
		t.Errorf("message = %q", out.Message)
	}
}

func TestBlogPublisherReportsServerError(t *testing.T) {
	posts := 0
	srv := scheduleServer(t, true, http.StatusInternalServerError, &posts)
	defer srv.Close()

	if _, err := NewBlogPublisher(srv.URL, time.Second).Run(context.Background()); err == nil {
		t.Fatal("expected error for 500 response")
	}
}
