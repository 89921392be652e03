package detector

import "gocv.io/x/gocv"

// Detector defines the interface for hand pose extraction implementations.
type Detector interface {
	// Detect analyzes a video frame and returns the detected hand poses.
	// Returns an empty slice if no hands are detected.
	Detect(frame *gocv.Mat) ([]Pose, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds configuration options for hand detection.
type Config struct {
	// MaxHands is the maximum number of hands to detect (default: 1).
	MaxHands int `json:"maxHands"`

	// MinConfidence is the minimum detection confidence threshold (0.0-1.0).
	MinConfidence float64 `json:"minConfidence"`

	// MinTrackingConf is the minimum tracking confidence threshold (0.0-1.0).
	MinTrackingConf float64 `json:"minTrackingConf"`
}

// DefaultConfig returns a Config with sensible default values.
// Only the primary hand is matched, so one hand is enough.
func DefaultConfig() Config {
	return Config{
		MaxHands:        1,
		MinConfidence:   0.5,
		MinTrackingConf: 0.5,
	}
}
