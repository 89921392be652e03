package capture

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

// Facing selects which physical camera a session reads from.
type Facing string

const (
	FacingFront Facing = "front"
	FacingBack  Facing = "back"
)

// Toggle returns the opposite facing.
func (f Facing) Toggle() Facing {
	if f == FacingFront {
		return FacingBack
	}
	return FacingFront
}

// ParseFacing parses "front" or "back" (case-insensitive).
func ParseFacing(s string) (Facing, error) {
	switch Facing(strings.ToLower(strings.TrimSpace(s))) {
	case FacingFront:
		return FacingFront, nil
	case FacingBack:
		return FacingBack, nil
	}
	return "", fmt.Errorf("unknown camera facing %q", s)
}

// Frame is one captured image with a per-stream sequence number.
// The receiver owns Image and must close it.
type Frame struct {
	ID        uint64
	Image     *gocv.Mat
	Facing    Facing
	Timestamp time.Time
}

// Close releases the frame's image, if any.
func (f *Frame) Close() {
	if f != nil && f.Image != nil {
		f.Image.Close()
		f.Image = nil
	}
}

// Source is an ordered, cancellable stream of frames.
// Next returns io.EOF when a finite stream is exhausted.
type Source interface {
	Open(facing Facing) error
	Next(ctx context.Context) (*Frame, error)
	Close() error
}

// maxReadFailures is how many consecutive failed reads are tolerated before
// the camera is treated as broken. Cameras commonly return a few empty frames
// right after opening.
const maxReadFailures = 10

// Devices maps camera facings to OpenCV device IDs.
type Devices struct {
	Front int `json:"front"`
	Back  int `json:"back"`
}

// CameraSource reads frames from the camera device selected by facing.
type CameraSource struct {
	devices   Devices
	fps       int
	newCamera func(deviceID int) Camera

	mu     sync.Mutex
	camera Camera
	facing Facing
	seq    uint64
}

// NewCameraSource creates a source that opens GoCV cameras. A non-positive
// fps keeps the camera default.
func NewCameraSource(devices Devices, width, height, fps int) *CameraSource {
	return &CameraSource{
		devices: devices,
		fps:     fps,
		newCamera: func(id int) Camera {
			return NewCameraWithSize(id, width, height)
		},
	}
}

// Open opens the camera for the given facing, closing any previous one.
// Frame IDs restart at 1.
func (s *CameraSource) Open(facing Facing) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.camera != nil {
		s.camera.Close()
		s.camera = nil
	}

	deviceID := s.devices.Back
	if facing == FacingFront {
		deviceID = s.devices.Front
	}

	cam := s.newCamera(deviceID)
	cam.SetFPS(s.fps)
	if err := cam.Open(); err != nil {
		return fmt.Errorf("open %s camera (device %d): %w", facing, deviceID, err)
	}

	s.camera = cam
	s.facing = facing
	s.seq = 0
	return nil
}

// Next blocks until the next frame is captured. It returns ctx.Err() once the
// context is cancelled; a read in progress finishes within one frame period.
func (s *CameraSource) Next(ctx context.Context) (*Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.camera == nil || !s.camera.IsOpen() {
		return nil, ErrCameraNotOpen
	}

	var lastErr error
	for failures := 0; failures < maxReadFailures; failures++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		mat, err := s.camera.ReadFrame()
		if err != nil {
			lastErr = err
			continue
		}

		if err := ctx.Err(); err != nil {
			mat.Close()
			return nil, err
		}

		s.seq++
		return &Frame{
			ID:        s.seq,
			Image:     mat,
			Facing:    s.facing,
			Timestamp: time.Now(),
		}, nil
	}

	return nil, fmt.Errorf("read %s camera: %w", s.facing, lastErr)
}

// Close releases the open camera.
func (s *CameraSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.camera == nil {
		return nil
	}
	err := s.camera.Close()
	s.camera = nil
	return err
}
