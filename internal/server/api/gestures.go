// Package api provides HTTP API handlers for the Hands-On gesture trainer.
package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/ayusman/handson/internal/detector"
	"github.com/ayusman/handson/internal/gesture"
)

// GestureHandler serves the template catalog.
type GestureHandler struct {
	catalog *gesture.Catalog
}

// NewGestureHandler creates a new GestureHandler for the given catalog.
func NewGestureHandler(c *gesture.Catalog) *GestureHandler {
	return &GestureHandler{catalog: c}
}

// ServeHTTP implements the http.Handler interface and routes requests to appropriate methods.
func (h *GestureHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Expected paths: /api/gestures or /api/gestures/{name}
	path := strings.TrimPrefix(r.URL.Path, "/api/gestures")
	path = strings.TrimPrefix(path, "/")

	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if path == "" {
		h.list(w, r)
		return
	}
	h.get(w, r, path)
}

type gestureResponse struct {
	Name      string           `json:"name"`
	Kind      gesture.Kind     `json:"kind"`
	StatKey   string           `json:"statKey"`
	Joints    []detector.Joint `json:"joints"`
	Pairs     int              `json:"pairs"`
	Tolerance float64          `json:"tolerance"`
}

type gestureDetailResponse struct {
	gestureResponse
	Distances []float64 `json:"distances"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func toResponse(t *gesture.Template) gestureResponse {
	return gestureResponse{
		Name:      t.Name,
		Kind:      t.Kind(),
		StatKey:   t.StatKey(),
		Joints:    t.Joints,
		Pairs:     len(t.Distances),
		Tolerance: t.Tolerance,
	}
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// list handles GET /api/gestures and returns all templates in name order.
func (h *GestureHandler) list(w http.ResponseWriter, r *http.Request) {
	response := make([]gestureResponse, 0, h.catalog.Len())
	for _, t := range h.catalog.Templates() {
		response = append(response, toResponse(t))
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"gestures": response,
	})
}

// get handles GET /api/gestures/{name}. Names are matched the same way the
// pipeline matches them, ignoring case and extra spaces.
func (h *GestureHandler) get(w http.ResponseWriter, r *http.Request, name string) {
	t, ok := h.catalog.Lookup(name)
	if !ok {
		writeError(w, http.StatusNotFound, "Gesture not found")
		return
	}

	writeJSON(w, http.StatusOK, gestureDetailResponse{
		gestureResponse: toResponse(t),
		Distances:       t.Distances,
	})
}
