package gesture

import (
	"fmt"
	"log"
	"math"

	"github.com/ayusman/handson/internal/detector"
)

// mismatchDeviation is reported when a live fingerprint cannot be compared
// with a template. It is far above any usable tolerance.
const mismatchDeviation = 1.0

// MatchResult is the outcome of comparing a live fingerprint with a template.
type MatchResult struct {
	Passed                bool    `json:"passed"`
	MeanAbsoluteDeviation float64 `json:"meanAbsoluteDeviation"`
}

// Match compares a live fingerprint against the template's reference
// distances. The comparison is the mean absolute difference per pair; the
// match passes when it does not exceed the template's tolerance.
//
// A length mismatch is a caller bug rather than a runtime failure: it is
// logged and reported as a failed match with deviation 1.0.
func Match(live []float64, t *Template) MatchResult {
	if t == nil {
		return MatchResult{MeanAbsoluteDeviation: mismatchDeviation}
	}

	if len(live) != len(t.Distances) || len(live) == 0 {
		log.Printf("gesture: fingerprint length %d does not match template %q (%d distances)",
			len(live), t.Name, len(t.Distances))
		return MatchResult{MeanAbsoluteDeviation: mismatchDeviation}
	}

	mad := meanAbsoluteDeviation(live, t.Distances)
	return MatchResult{
		Passed:                mad <= t.Tolerance,
		MeanAbsoluteDeviation: mad,
	}
}

// MatchPose extracts the template's joints from pose, fingerprints them and
// matches the result. It returns an error wrapping
// detector.ErrMissingKeypoint when a required joint is absent or below
// minConfidence.
func MatchPose(pose *detector.Pose, t *Template, minConfidence float64) (MatchResult, error) {
	if t == nil {
		return MatchResult{}, fmt.Errorf("match pose: nil template")
	}

	points, err := pose.Points(t.Joints, minConfidence)
	if err != nil {
		return MatchResult{}, fmt.Errorf("match %q: %w", t.Name, err)
	}

	return Match(Fingerprint(points), t), nil
}

func meanAbsoluteDeviation(a, b []float64) float64 {
	var total float64
	for i := range a {
		total += math.Abs(a[i] - b[i])
	}
	return total / float64(len(a))
}
