package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/ayusman/handson/internal/app"
)

// SessionController is the part of the application the session endpoints
// drive.
type SessionController interface {
	Snapshot() app.SessionSnapshot
	SelectGesture(name string) error
	Flip() error
	Retry() error
}

// SessionHandler handles /api/session and its commands.
type SessionHandler struct {
	ctrl SessionController
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(ctrl SessionController) *SessionHandler {
	return &SessionHandler{ctrl: ctrl}
}

type selectGestureRequest struct {
	Name string `json:"name"`
}

// ServeHTTP routes GET /api/session and POST /api/session/{gesture,flip,retry}.
func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/session")
	path = strings.TrimPrefix(path, "/")

	if path == "" {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, http.StatusOK, h.ctrl.Snapshot())
		return
	}

	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var err error
	switch path {
	case "gesture":
		var req selectGestureRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid JSON")
			return
		}
		if strings.TrimSpace(req.Name) == "" {
			writeError(w, http.StatusBadRequest, "Name is required")
			return
		}
		err = h.ctrl.SelectGesture(req.Name)
	case "flip":
		err = h.ctrl.Flip()
	case "retry":
		err = h.ctrl.Retry()
	default:
		writeError(w, http.StatusNotFound, "Unknown session command")
		return
	}

	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, h.ctrl.Snapshot())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, app.ErrUnknownGesture):
		return http.StatusNotFound
	case errors.Is(err, app.ErrNoSession), errors.Is(err, app.ErrStopped):
		return http.StatusConflict
	case errors.Is(err, app.ErrUpstream):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
