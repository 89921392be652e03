package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ayusman/handson/internal/app"
	"github.com/ayusman/handson/internal/capture"
)

// fakeController records commands and returns scripted errors.
type fakeController struct {
	snap     app.SessionSnapshot
	selected []string
	flips    int
	retries  int
	err      error
}

func (f *fakeController) Snapshot() app.SessionSnapshot { return f.snap }

func (f *fakeController) SelectGesture(name string) error {
	if f.err != nil {
		return f.err
	}
	f.selected = append(f.selected, name)
	f.snap.Gesture = name
	return nil
}

func (f *fakeController) Flip() error {
	if f.err != nil {
		return f.err
	}
	f.flips++
	f.snap.Facing = f.snap.Facing.Toggle()
	return nil
}

func (f *fakeController) Retry() error {
	if f.err != nil {
		return f.err
	}
	f.retries++
	f.snap.Count = 0
	return nil
}

func TestSessionHandler_Get(t *testing.T) {
	ctrl := &fakeController{snap: app.SessionSnapshot{ID: "s-1", Gesture: "B", Facing: capture.FacingFront, Count: 12, Max: 50, Running: true}}
	handler := NewSessionHandler(ctrl)

	req := httptest.NewRequest(http.MethodGet, "/api/session", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}

	var snap app.SessionSnapshot
	if err := json.NewDecoder(rec.Body).Decode(&snap); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if snap.ID != "s-1" || snap.Gesture != "B" || snap.Count != 12 || snap.Facing != capture.FacingFront {
		t.Errorf("unexpected snapshot %+v", snap)
	}
}

func TestSessionHandler_Commands(t *testing.T) {
	ctrl := &fakeController{snap: app.SessionSnapshot{Gesture: "B", Facing: capture.FacingFront, Count: 12}}
	handler := NewSessionHandler(ctrl)

	post := func(path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	if rec := post("/api/session/gesture", `{"name":"I Love You"}`); rec.Code != http.StatusOK {
		t.Errorf("gesture: status %d: %s", rec.Code, rec.Body.String())
	}
	if len(ctrl.selected) != 1 || ctrl.selected[0] != "I Love You" {
		t.Errorf("selected = %v", ctrl.selected)
	}

	rec := post("/api/session/flip", "")
	if rec.Code != http.StatusOK || ctrl.flips != 1 {
		t.Errorf("flip: status %d, flips %d", rec.Code, ctrl.flips)
	}
	var snap app.SessionSnapshot
	json.NewDecoder(rec.Body).Decode(&snap)
	if snap.Facing != capture.FacingBack {
		t.Errorf("flip response facing = %q, want back", snap.Facing)
	}

	if rec := post("/api/session/retry", ""); rec.Code != http.StatusOK || ctrl.retries != 1 {
		t.Errorf("retry: status %d, retries %d", rec.Code, ctrl.retries)
	}
}

func TestSessionHandler_BadRequests(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
	}{
		{"invalid json", http.MethodPost, "/api/session/gesture", "not json", http.StatusBadRequest},
		{"missing name", http.MethodPost, "/api/session/gesture", `{"name":"  "}`, http.StatusBadRequest},
		{"unknown command", http.MethodPost, "/api/session/dance", "", http.StatusNotFound},
		{"get command", http.MethodGet, "/api/session/flip", "", http.StatusMethodNotAllowed},
		{"post session", http.MethodPost, "/api/session", "", http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := &fakeController{}
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			rec := httptest.NewRecorder()

			NewSessionHandler(ctrl).ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}
			if len(ctrl.selected) != 0 || ctrl.flips != 0 || ctrl.retries != 0 {
				t.Error("rejected request reached the controller")
			}
		})
	}
}

func TestSessionHandler_ErrorStatus(t *testing.T) {
	tests := []struct {
		err        error
		wantStatus int
	}{
		{fmt.Errorf("%w: %q", app.ErrUnknownGesture, "Zebra"), http.StatusNotFound},
		{app.ErrNoSession, http.StatusConflict},
		{app.ErrStopped, http.StatusConflict},
		{fmt.Errorf("%w: camera busy", app.ErrUpstream), http.StatusServiceUnavailable},
		{fmt.Errorf("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			handler := NewSessionHandler(&fakeController{err: tt.err})

			req := httptest.NewRequest(http.MethodPost, "/api/session/gesture", strings.NewReader(`{"name":"Zebra"}`))
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}
			var errResp errorResponse
			if err := json.NewDecoder(rec.Body).Decode(&errResp); err != nil || errResp.Error != tt.err.Error() {
				t.Errorf("error body = %q", rec.Body.String())
			}
		})
	}
}
