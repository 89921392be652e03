package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ayusman/handson/internal/app"
	"github.com/ayusman/handson/internal/store"
)

func TestStatsHandler(t *testing.T) {
	s := newTestStore(t)
	handler := NewStatsHandler(s)

	get := func() []store.Stat {
		t.Helper()
		req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
		}
		var response struct {
			Stats []store.Stat `json:"stats"`
		}
		if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if response.Stats == nil {
			t.Fatal("stats should be an empty list, not null")
		}
		return response.Stats
	}

	if got := get(); len(got) != 0 {
		t.Fatalf("expected no stats, got %v", got)
	}

	ctx := context.Background()
	for _, key := range []string{"Phrases", "Letters", "Letters"} {
		if _, err := s.Stats().Increment(ctx, key); err != nil {
			t.Fatalf("Increment() error = %v", err)
		}
	}

	got := get()
	if len(got) != 2 {
		t.Fatalf("expected 2 stats, got %d", len(got))
	}
	if got[0].Key != "Letters" || got[0].Value != 2 || got[1].Key != "Phrases" || got[1].Value != 1 {
		t.Errorf("unexpected stats %+v", got)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/stats", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST: expected status %d, got %d", http.StatusMethodNotAllowed, rec.Code)
	}
}

func TestReportHandler(t *testing.T) {
	handler := NewReportHandler(func() app.PoseStatsSnapshot {
		return app.PoseStatsSnapshot{Frames: 30, FramesWithHand: 15, DetectionRate: 0.5, FPS: 14.5}
	})

	req := httptest.NewRequest(http.MethodGet, "/api/report", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	var snap app.PoseStatsSnapshot
	if err := json.NewDecoder(rec.Body).Decode(&snap); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if snap.Frames != 30 || snap.DetectionRate != 0.5 {
		t.Errorf("unexpected report %+v", snap)
	}
}
