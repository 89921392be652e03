package server

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"gocv.io/x/gocv"

	"github.com/ayusman/handson/internal/app"
	"github.com/ayusman/handson/internal/capture"
	"github.com/ayusman/handson/internal/detector"
)

func waitUntil(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func dialLive(t *testing.T, hub *Hub) *websocket.Conn {
	t.Helper()

	ts := httptest.NewServer(hub)
	t.Cleanup(ts.Close)

	url := "ws" + strings.TrimPrefix(ts.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("websocket dial error = %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	waitUntil(t, "client registration", func() bool { return hub.Clients() == 1 })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) Event {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var ev Event
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("ReadJSON() error = %v", err)
	}
	return ev
}

func TestHub_LiveEvents(t *testing.T) {
	hub := NewHub(nil)
	conn := dialLive(t, hub)

	hub.Progress(app.Progress{SessionID: "s-1", Gesture: "B", Count: 3, Max: 50, Attempted: true, Passed: true})
	hub.Report(app.PoseReport{SessionID: "s-1", FrameID: 7, Poses: []detector.Pose{detector.FistPose()}})
	hub.Completed(app.Completion{SessionID: "s-1", Gesture: "B", StatKey: "Letters", Total: 4})
	hub.Failed("s-1", errors.New("camera unplugged"))

	ev := readEvent(t, conn)
	if ev.Type != EventProgress {
		t.Fatalf("first event = %q, want progress", ev.Type)
	}
	var p app.Progress
	if err := json.Unmarshal(ev.Data, &p); err != nil || p.Count != 3 || p.Gesture != "B" {
		t.Errorf("progress payload = %s (%v)", ev.Data, err)
	}

	ev = readEvent(t, conn)
	if ev.Type != EventPoses {
		t.Fatalf("second event = %q, want poses", ev.Type)
	}
	var r app.PoseReport
	if err := json.Unmarshal(ev.Data, &r); err != nil || r.FrameID != 7 || len(r.Poses) != 1 {
		t.Errorf("poses payload = %s (%v)", ev.Data, err)
	}
	if _, ok := r.Poses[0].Keypoint(detector.ThumbTip); !ok {
		t.Error("poses payload lost keypoints")
	}

	ev = readEvent(t, conn)
	var c app.Completion
	if ev.Type != EventCompleted || json.Unmarshal(ev.Data, &c) != nil || c.Total != 4 {
		t.Errorf("completed event = %s %s", ev.Type, ev.Data)
	}

	ev = readEvent(t, conn)
	if ev.Type != EventError || !strings.Contains(string(ev.Data), "camera unplugged") {
		t.Errorf("error event = %s %s", ev.Type, ev.Data)
	}
}

func TestHub_ClientDisconnect(t *testing.T) {
	hub := NewHub(nil)
	conn := dialLive(t, hub)

	conn.Close()
	waitUntil(t, "client removal", func() bool { return hub.Clients() == 0 })

	// Broadcasting with no clients is a no-op.
	hub.Progress(app.Progress{Gesture: "B"})
}

func TestHub_Close(t *testing.T) {
	hub := NewHub(nil)
	conn := dialLive(t, hub)

	hub.Close()
	if hub.Clients() != 0 {
		t.Errorf("Clients() = %d after Close", hub.Clients())
	}

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("expected connection to be closed")
	}
}

func TestHub_DisplaySkipsRenderingWithoutStreamClients(t *testing.T) {
	hub := NewHub(nil)

	frame := gocv.NewMatWithSize(48, 64, gocv.MatTypeCV8UC3)
	defer frame.Close()
	hub.Display(&app.FrameEnvelope{ID: 1, Image: &frame, Facing: capture.FacingBack})

	if data, _ := hub.nextFrame(); data != nil {
		t.Error("frame rendered with no stream clients")
	}
}

func TestHub_Stream(t *testing.T) {
	hub := NewHub(nil)
	ts := httptest.NewServer(hub.StreamHandler())
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL, nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("GET stream error = %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "multipart/x-mixed-replace") {
		t.Fatalf("Content-Type = %q", ct)
	}
	waitUntil(t, "stream client", func() bool { return hub.Streams() == 1 })

	frame := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), 48, 64, gocv.MatTypeCV8UC3)
	defer frame.Close()
	hub.Display(&app.FrameEnvelope{
		ID:     1,
		Image:  &frame,
		Poses:  []detector.Pose{detector.OpenPalmPose()},
		Facing: capture.FacingFront,
	})

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	if err != nil {
		t.Fatalf("reading stream: %v", err)
	}
	if strings.TrimSpace(line) != "--frame" {
		t.Errorf("first line = %q, want boundary", line)
	}
	line, _ = reader.ReadString('\n')
	if strings.TrimSpace(line) != "Content-Type: image/jpeg" {
		t.Errorf("part header = %q", line)
	}

	cancel()
	waitUntil(t, "stream client to leave", func() bool { return hub.Streams() == 0 })
}

func TestServer_LiveAndStreamRoutes(t *testing.T) {
	hub := NewHub(nil)
	s := New(Config{Hub: hub})

	req := httptest.NewRequest(http.MethodPost, "/api/stream", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST /api/stream: expected status %d, got %d", http.StatusMethodNotAllowed, rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/live", nil)
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("GET /api/live without upgrade: expected status %d, got %d", http.StatusBadRequest, rec.Code)
	}
}
