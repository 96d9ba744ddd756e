package facematch

import (
	"fmt"
	"math"
)

// EuclideanDistance returns the L2 norm of a-b.
func EuclideanDistance(a, b Embedding) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d != %d", ErrDimensionMismatch, len(a), len(b))
	}

	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum), nil
}

// Match returns the enrolled identity closest to query if its distance is at most
// threshold, or nil when nothing qualifies.
//
// Records are scanned in order and a later record replaces the current best only
// when strictly closer, so the earliest record wins ties. Records with an empty
// embedding, or one whose length differs from the query, are skipped.
func Match(query Embedding, enrollment []EnrollmentRecord, threshold float64) *MatchResult {
	if len(query) == 0 {
		return nil
	}

	best := -1
	bestDistance := math.Inf(1)
	for i := range enrollment {
		if len(enrollment[i].Embedding) == 0 {
			continue
		}
		d, err := EuclideanDistance(query, enrollment[i].Embedding)
		if err != nil {
			continue
		}
		if d < bestDistance {
			best = i
			bestDistance = d
		}
	}

	if best < 0 || bestDistance > threshold {
		return nil
	}
	return &MatchResult{
		Identity: enrollment[best].Identity,
		Distance: bestDistance,
	}
}
