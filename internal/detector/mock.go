package detector

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	mu       sync.Mutex
	poses    []Pose
	sequence [][]Pose
	err      error
	calls    int
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetPoses sets the poses that will be returned by every Detect call.
func (m *MockDetector) SetPoses(poses []Pose) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.poses = poses
}

// SetSequence queues per-call results. Once the queue is drained Detect falls
// back to the poses set with SetPoses.
func (m *MockDetector) SetSequence(seq [][]Pose) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sequence = seq
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns how many times Detect has been called.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Detect returns the pre-configured poses or error.
func (m *MockDetector) Detect(frame *gocv.Mat) ([]Pose, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if len(m.sequence) > 0 {
		next := m.sequence[0]
		m.sequence = m.sequence[1:]
		return next, nil
	}
	return m.poses, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// PoseFromPoints builds a right-hand pose with every joint present at the
// given confidence.
func PoseFromPoints(points [NumJoints]Point2D, confidence float64) Pose {
	pose := Pose{
		Keypoints:  make(map[Joint]Keypoint, NumJoints),
		Handedness: "Right",
		Score:      0.95,
	}
	for i, p := range points {
		pose.Keypoints[Joint(i)] = Keypoint{Location: p, Confidence: confidence}
	}
	return pose
}

// Without returns a copy of the pose with the given joints removed.
func (p Pose) Without(joints ...Joint) Pose {
	out := Pose{
		Keypoints:  make(map[Joint]Keypoint, len(p.Keypoints)),
		Handedness: p.Handedness,
		Score:      p.Score,
	}
	for j, kp := range p.Keypoints {
		out.Keypoints[j] = kp
	}
	for _, j := range joints {
		delete(out.Keypoints, j)
	}
	return out
}

// FistPose returns a closed hand with the thumb resting across the fingers.
func FistPose() Pose {
	var pts [NumJoints]Point2D

	pts[Wrist] = Point2D{X: 0.50, Y: 0.80}

	pts[ThumbCMC] = Point2D{X: 0.55, Y: 0.75}
	pts[ThumbMP] = Point2D{X: 0.58, Y: 0.69}
	pts[ThumbIP] = Point2D{X: 0.55, Y: 0.65}
	pts[ThumbTip] = Point2D{X: 0.51, Y: 0.64}

	pts[IndexMCP] = Point2D{X: 0.55, Y: 0.70}
	pts[IndexPIP] = Point2D{X: 0.55, Y: 0.66}
	pts[IndexDIP] = Point2D{X: 0.53, Y: 0.69}
	pts[IndexTip] = Point2D{X: 0.52, Y: 0.71}

	pts[MiddleMCP] = Point2D{X: 0.50, Y: 0.68}
	pts[MiddlePIP] = Point2D{X: 0.50, Y: 0.64}
	pts[MiddleDIP] = Point2D{X: 0.48, Y: 0.67}
	pts[MiddleTip] = Point2D{X: 0.47, Y: 0.70}

	pts[RingMCP] = Point2D{X: 0.45, Y: 0.70}
	pts[RingPIP] = Point2D{X: 0.45, Y: 0.66}
	pts[RingDIP] = Point2D{X: 0.43, Y: 0.69}
	pts[RingTip] = Point2D{X: 0.42, Y: 0.71}

	pts[LittleMCP] = Point2D{X: 0.40, Y: 0.72}
	pts[LittlePIP] = Point2D{X: 0.40, Y: 0.69}
	pts[LittleDIP] = Point2D{X: 0.38, Y: 0.71}
	pts[LittleTip] = Point2D{X: 0.37, Y: 0.73}

	return PoseFromPoints(pts, 0.9)
}

// OpenPalmPose returns a hand with all fingers extended upward.
func OpenPalmPose() Pose {
	var pts [NumJoints]Point2D

	pts[Wrist] = Point2D{X: 0.50, Y: 0.80}

	pts[ThumbCMC] = Point2D{X: 0.55, Y: 0.75}
	pts[ThumbMP] = Point2D{X: 0.62, Y: 0.70}
	pts[ThumbIP] = Point2D{X: 0.68, Y: 0.65}
	pts[ThumbTip] = Point2D{X: 0.73, Y: 0.60}

	pts[IndexMCP] = Point2D{X: 0.55, Y: 0.68}
	pts[IndexPIP] = Point2D{X: 0.57, Y: 0.55}
	pts[IndexDIP] = Point2D{X: 0.58, Y: 0.45}
	pts[IndexTip] = Point2D{X: 0.58, Y: 0.35}

	pts[MiddleMCP] = Point2D{X: 0.50, Y: 0.66}
	pts[MiddlePIP] = Point2D{X: 0.50, Y: 0.52}
	pts[MiddleDIP] = Point2D{X: 0.50, Y: 0.40}
	pts[MiddleTip] = Point2D{X: 0.50, Y: 0.28}

	pts[RingMCP] = Point2D{X: 0.45, Y: 0.68}
	pts[RingPIP] = Point2D{X: 0.43, Y: 0.55}
	pts[RingDIP] = Point2D{X: 0.42, Y: 0.45}
	pts[RingTip] = Point2D{X: 0.42, Y: 0.35}

	pts[LittleMCP] = Point2D{X: 0.40, Y: 0.70}
	pts[LittlePIP] = Point2D{X: 0.37, Y: 0.60}
	pts[LittleDIP] = Point2D{X: 0.35, Y: 0.50}
	pts[LittleTip] = Point2D{X: 0.34, Y: 0.42}

	return PoseFromPoints(pts, 0.9)
}

// ILoveYouPose returns a hand with thumb, index and little finger extended and
// the middle and ring fingers curled.
func ILoveYouPose() Pose {
	open := OpenPalmPose()
	fist := FistPose()

	pose := open.Without()
	for _, j := range []Joint{MiddlePIP, MiddleDIP, MiddleTip, RingPIP, RingDIP, RingTip} {
		pose.Keypoints[j] = fist.Keypoints[j]
	}
	return pose
}
