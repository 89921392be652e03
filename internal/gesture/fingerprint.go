// Package gesture provides hand-gesture fingerprints, template matching and
// repetition counting.
package gesture

import (
	"github.com/ayusman/handson/internal/detector"
)

// PairCount returns the number of distinct joint pairs among k joints,
// which is the length of a fingerprint over k points.
func PairCount(k int) int {
	if k < 2 {
		return 0
	}
	return k * (k - 1) / 2
}

// Fingerprint returns the Euclidean distance between every pair of points,
// ordered (0,1), (0,2), ..., (0,k-1), (1,2), ..., (k-2,k-1).
//
// Callers must pass points in the same joint order as the template they
// intend to compare against; Fingerprint itself has no notion of joints.
func Fingerprint(points []detector.Point2D) []float64 {
	out := make([]float64, 0, PairCount(len(points)))
	for i := 0; i < len(points); i++ {
		for j := i + 1; j < len(points); j++ {
			out = append(out, points[i].Distance(points[j]))
		}
	}
	return out
}
