package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/ayusman/handson/internal/gesture"
	"github.com/ayusman/handson/internal/store"
)

// newTestStore creates a new Store with a temporary database for testing.
func newTestStore(t *testing.T) *store.Store {
	t.Helper()

	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() {
		s.Close()
	})

	return s
}

func newTestCatalog(t *testing.T) *gesture.Catalog {
	t.Helper()

	c, err := gesture.DefaultCatalog()
	if err != nil {
		t.Fatalf("failed to load catalog: %v", err)
	}
	return c
}

func TestGestureHandler_List(t *testing.T) {
	catalog := newTestCatalog(t)
	handler := NewGestureHandler(catalog)

	req := httptest.NewRequest(http.MethodGet, "/api/gestures", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected Content-Type application/json, got %s", ct)
	}

	var response struct {
		Gestures []gestureResponse `json:"gestures"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if len(response.Gestures) != catalog.Len() {
		t.Fatalf("expected %d gestures, got %d", catalog.Len(), len(response.Gestures))
	}
	names := catalog.Names()
	for i, g := range response.Gestures {
		if g.Name != names[i] {
			t.Errorf("gesture %d = %q, want %q", i, g.Name, names[i])
		}
		if g.Pairs != gesture.PairCount(len(g.Joints)) {
			t.Errorf("%s: pairs = %d for %d joints", g.Name, g.Pairs, len(g.Joints))
		}
	}
}

func TestGestureHandler_Get(t *testing.T) {
	handler := NewGestureHandler(newTestCatalog(t))

	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantName   string
		wantKind   gesture.Kind
		wantStat   string
	}{
		{"letter", "/api/gestures/B", http.StatusOK, "B", gesture.KindLetter, gesture.StatLetters},
		{"phrase with spaces", "/api/gestures/I%20Love%20You", http.StatusOK, "I Love You", gesture.KindPhrase, gesture.StatPhrases},
		{"case insensitive", "/api/gestures/i%20love%20you", http.StatusOK, "I Love You", gesture.KindPhrase, gesture.StatPhrases},
		{"unknown", "/api/gestures/Zebra", http.StatusNotFound, "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}
			if tt.wantStatus != http.StatusOK {
				var errResp errorResponse
				if err := json.NewDecoder(rec.Body).Decode(&errResp); err != nil || errResp.Error == "" {
					t.Errorf("expected JSON error body, got %q", rec.Body.String())
				}
				return
			}

			var response gestureDetailResponse
			if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if response.Name != tt.wantName || response.Kind != tt.wantKind || response.StatKey != tt.wantStat {
				t.Errorf("unexpected gesture %+v", response.gestureResponse)
			}
			if len(response.Distances) != response.Pairs {
				t.Errorf("distances = %d, pairs = %d", len(response.Distances), response.Pairs)
			}
		})
	}
}

func TestGestureHandler_MethodNotAllowed(t *testing.T) {
	handler := NewGestureHandler(newTestCatalog(t))

	for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodDelete} {
		for _, path := range []string{"/api/gestures", "/api/gestures/B"} {
			req := httptest.NewRequest(method, path, nil)
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			if rec.Code != http.StatusMethodNotAllowed {
				t.Errorf("%s %s: expected status %d, got %d", method, path, http.StatusMethodNotAllowed, rec.Code)
			}
		}
	}
}
