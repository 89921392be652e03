package server

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/handson/internal/app"
	"github.com/ayusman/handson/internal/render"
)

// Live event types.
const (
	EventProgress  = "progress"
	EventPoses     = "poses"
	EventCompleted = "completed"
	EventError     = "error"
)

const (
	clientBuffer = 32
	writeWait    = 2 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// Event is the JSON envelope pushed to live clients.
type Event struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type errorEvent struct {
	SessionID string `json:"sessionId"`
	Error     string `json:"error"`
}

type liveClient struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub pushes pipeline updates to websocket clients and serves the annotated
// preview as MJPEG. It implements app.Sink and app.Reporter.
//
// Frames are only rendered while at least one stream client is connected.
type Hub struct {
	overlay *render.Overlay

	mu      sync.RWMutex
	clients map[*liveClient]struct{}
	closed  bool

	streams atomic.Int32

	frameMu    sync.Mutex
	frame      []byte
	frameReady chan struct{}
}

// NewHub creates a hub that draws frames with overlay.
func NewHub(overlay *render.Overlay) *Hub {
	if overlay == nil {
		overlay = render.NewOverlay(app.DefaultPipelineConfig().MinKeypointConfidence)
	}
	return &Hub{
		overlay:    overlay,
		clients:    make(map[*liveClient]struct{}),
		frameReady: make(chan struct{}),
	}
}

// ServeHTTP upgrades the request and streams live events until the client
// disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	c := &liveClient{conn: conn, send: make(chan []byte, clientBuffer)}
	if !h.register(c) {
		return
	}
	defer h.unregister(c)

	go c.writeLoop()

	// Keep connection alive by reading messages
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (c *liveClient) writeLoop() {
	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			c.conn.Close()
			return
		}
	}
}

func (h *Hub) register(c *liveClient) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	return true
}

func (h *Hub) unregister(c *liveClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// Clients returns the number of connected live clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every live client. Later connections are refused.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
		c.conn.Close()
	}
}

// broadcast queues an event for every client. Clients whose queue is full
// miss the event.
func (h *Hub) broadcast(eventType string, data any) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if len(h.clients) == 0 {
		return
	}

	payload, err := json.Marshal(data)
	if err != nil {
		log.Printf("Failed to encode %s event: %v", eventType, err)
		return
	}
	msg, err := json.Marshal(Event{Type: eventType, Data: payload})
	if err != nil {
		return
	}

	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
		}
	}
}

// Display renders the frame for stream clients, if any.
func (h *Hub) Display(env *app.FrameEnvelope) {
	if h.streams.Load() == 0 || env.Image == nil {
		return
	}

	data, err := h.overlay.RenderJPEG(env.Image, env.Poses, env.Facing)
	if err != nil {
		log.Printf("Failed to render frame %d: %v", env.ID, err)
		return
	}
	h.publishFrame(data)
}

// Progress pushes a progress event.
func (h *Hub) Progress(p app.Progress) {
	h.broadcast(EventProgress, p)
}

// Completed pushes a completed event.
func (h *Hub) Completed(c app.Completion) {
	h.broadcast(EventCompleted, c)
}

// Failed pushes an error event.
func (h *Hub) Failed(sessionID string, err error) {
	h.broadcast(EventError, errorEvent{SessionID: sessionID, Error: err.Error()})
}

// Report pushes a poses event. It runs on the pipeline's reporting
// goroutine.
func (h *Hub) Report(r app.PoseReport) {
	h.broadcast(EventPoses, r)
}
