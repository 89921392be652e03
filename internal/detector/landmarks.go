// Package detector provides hand pose types and pose extraction for gesture recognition.
package detector

import (
	"errors"
	"fmt"
	"math"
)

// Joint identifies a tracked hand landmark.
// Values follow the MediaPipe landmark index order.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
type Joint int

const (
	Wrist Joint = iota
	ThumbCMC
	ThumbMP
	ThumbIP
	ThumbTip
	IndexMCP
	IndexPIP
	IndexDIP
	IndexTip
	MiddleMCP
	MiddlePIP
	MiddleDIP
	MiddleTip
	RingMCP
	RingPIP
	RingDIP
	RingTip
	LittleMCP
	LittlePIP
	LittleDIP
	LittleTip
)

// NumJoints is the number of landmarks in a full hand pose.
const NumJoints = 21

// ErrMissingKeypoint is returned when a required joint was not detected
// or its confidence is below the configured threshold.
var ErrMissingKeypoint = errors.New("missing keypoint")

var jointNames = [NumJoints]string{
	"wrist",
	"thumbCMC", "thumbMP", "thumbIP", "thumbTip",
	"indexMCP", "indexPIP", "indexDIP", "indexTip",
	"middleMCP", "middlePIP", "middleDIP", "middleTip",
	"ringMCP", "ringPIP", "ringDIP", "ringTip",
	"littleMCP", "littlePIP", "littleDIP", "littleTip",
}

// AllJoints returns every joint in index order.
func AllJoints() []Joint {
	joints := make([]Joint, NumJoints)
	for i := range joints {
		joints[i] = Joint(i)
	}
	return joints
}

// Valid reports whether j is one of the known landmarks.
func (j Joint) Valid() bool {
	return j >= 0 && int(j) < NumJoints
}

func (j Joint) String() string {
	if !j.Valid() {
		return fmt.Sprintf("Joint(%d)", int(j))
	}
	return jointNames[j]
}

// ParseJoint returns the joint with the given name, e.g. "littleTip".
func ParseJoint(name string) (Joint, error) {
	for i, n := range jointNames {
		if n == name {
			return Joint(i), nil
		}
	}
	return 0, fmt.Errorf("unknown joint %q", name)
}

// MarshalText encodes the joint by name so it can be used as a JSON map key.
func (j Joint) MarshalText() ([]byte, error) {
	if !j.Valid() {
		return nil, fmt.Errorf("invalid joint %d", int(j))
	}
	return []byte(jointNames[j]), nil
}

// UnmarshalText decodes a joint name.
func (j *Joint) UnmarshalText(text []byte) error {
	parsed, err := ParseJoint(string(text))
	if err != nil {
		return err
	}
	*j = parsed
	return nil
}

// Point2D is a location in normalized image coordinates.
type Point2D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Distance returns the Euclidean distance between p and q.
func (p Point2D) Distance(q Point2D) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// Keypoint is a detected joint location with its detection confidence.
type Keypoint struct {
	Location   Point2D `json:"location"`
	Confidence float64 `json:"confidence"`
}

// Pose is the set of joints detected for one hand in one frame.
// Joints the extractor did not find are absent from Keypoints.
type Pose struct {
	Keypoints  map[Joint]Keypoint `json:"keypoints"`
	Handedness string             `json:"handedness"` // "Left" or "Right"
	Score      float64            `json:"score"`
}

// Keypoint returns the keypoint for j if it was detected.
func (p *Pose) Keypoint(j Joint) (Keypoint, bool) {
	if p == nil || p.Keypoints == nil {
		return Keypoint{}, false
	}
	kp, ok := p.Keypoints[j]
	return kp, ok
}

// Points returns the locations of joints in the given order.
// It fails with ErrMissingKeypoint if any joint is absent or below minConfidence.
func (p *Pose) Points(joints []Joint, minConfidence float64) ([]Point2D, error) {
	points := make([]Point2D, len(joints))
	for i, j := range joints {
		kp, ok := p.Keypoint(j)
		if !ok {
			return nil, fmt.Errorf("%w: %s not detected", ErrMissingKeypoint, j)
		}
		if !(kp.Confidence >= minConfidence) {
			return nil, fmt.Errorf("%w: %s confidence %.2f below %.2f", ErrMissingKeypoint, j, kp.Confidence, minConfidence)
		}
		points[i] = kp.Location
	}
	return points, nil
}
