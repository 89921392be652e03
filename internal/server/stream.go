package server

import (
	"fmt"
	"net/http"
)

func (h *Hub) publishFrame(data []byte) {
	h.frameMu.Lock()
	defer h.frameMu.Unlock()
	h.frame = data
	close(h.frameReady)
	h.frameReady = make(chan struct{})
}

// nextFrame returns the latest frame and a channel closed when a newer one
// is published.
func (h *Hub) nextFrame() ([]byte, <-chan struct{}) {
	h.frameMu.Lock()
	defer h.frameMu.Unlock()
	return h.frame, h.frameReady
}

// Streams returns the number of connected MJPEG clients.
func (h *Hub) Streams() int {
	return int(h.streams.Load())
}

// StreamHandler returns the MJPEG handler for annotated preview frames.
func (h *Hub) StreamHandler() http.Handler {
	return http.HandlerFunc(h.serveStream)
}

// serveStream streams MJPEG frames to the client as they are rendered.
func (h *Hub) serveStream(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	h.streams.Add(1)
	defer h.streams.Add(-1)

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}

	_, ready := h.nextFrame()
	for {
		select {
		case <-r.Context().Done():
			return
		case <-ready:
		}

		var frame []byte
		frame, ready = h.nextFrame()
		if len(frame) == 0 {
			continue
		}

		// Write MJPEG frame
		fmt.Fprintf(w, "--frame\r\n")
		fmt.Fprintf(w, "Content-Type: image/jpeg\r\n")
		fmt.Fprintf(w, "Content-Length: %d\r\n\r\n", len(frame))
		if _, err := w.Write(frame); err != nil {
			return
		}
		fmt.Fprintf(w, "\r\n")

		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
	}
}
