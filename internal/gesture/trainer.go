package gesture

import (
	"errors"
	"fmt"
	"log"

	"github.com/ayusman/handson/internal/detector"
)

// Bounds and margin for proposed tolerances.
const (
	MinTrainedTolerance = 0.025
	MaxTrainedTolerance = 0.065
	toleranceMargin     = 1.5
)

// ErrNoUsableSamples is returned when every sample lacks a required joint.
var ErrNoUsableSamples = errors.New("no usable samples")

// Trainer turns recorded sample poses into gesture templates.
type Trainer struct{}

// NewTrainer creates a new Trainer instance.
func NewTrainer() *Trainer {
	return &Trainer{}
}

// Train averages the fingerprints of the samples over the given joints.
// Samples missing any joint at minConfidence are skipped. The proposed
// tolerance is the largest sample deviation from the mean, widened by a
// margin and clamped to [MinTrainedTolerance, MaxTrainedTolerance].
func (t *Trainer) Train(name string, joints []detector.Joint, samples []detector.Pose, minConfidence float64) (*Template, error) {
	if len(joints) < 2 {
		return nil, fmt.Errorf("train %q: need at least two joints, got %d", name, len(joints))
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("train %q: no samples provided", name)
	}

	var fingerprints [][]float64
	for i := range samples {
		points, err := samples[i].Points(joints, minConfidence)
		if err != nil {
			log.Printf("gesture: skipping sample %d for %q: %v", i, name, err)
			continue
		}
		fingerprints = append(fingerprints, Fingerprint(points))
	}
	if len(fingerprints) == 0 {
		return nil, fmt.Errorf("train %q: %w (%d samples)", name, ErrNoUsableSamples, len(samples))
	}

	// Average distances across all usable samples
	mean := make([]float64, PairCount(len(joints)))
	for _, fp := range fingerprints {
		for i, d := range fp {
			mean[i] += d
		}
	}
	n := float64(len(fingerprints))
	for i := range mean {
		mean[i] /= n
	}

	var worst float64
	for _, fp := range fingerprints {
		if mad := meanAbsoluteDeviation(fp, mean); mad > worst {
			worst = mad
		}
	}

	tmpl := &Template{
		Name:      name,
		Joints:    append([]detector.Joint(nil), joints...),
		Distances: mean,
		Tolerance: clamp(worst*toleranceMargin, MinTrainedTolerance, MaxTrainedTolerance),
	}
	if err := validate(tmpl); err != nil {
		return nil, fmt.Errorf("train %q: %w", name, err)
	}
	return tmpl, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
