package curve

import (
	"sort"
)

// findSegment returns the knot interval used to interpolate at time t and the
// position of t inside it. Outside the knot range the nearest boundary interval is
// returned, so lambda falls outside [0, 1] and the interval is extrapolated.
//
// knots must be sorted ascending and hold at least two values.
func findSegment(knots []float64, t float64) (j int, lambda float64) {
	if len(knots) < 2 {
		panic("findSegment: need at least 2 knots")
	}

	// Binary search for first knot >= t
	idx := sort.Search(len(knots), func(i int) bool {
		return knots[i] >= t
	})

	switch {
	case idx <= 0:
		j = 0
	case idx >= len(knots):
		j = len(knots) - 2
	default:
		j = idx - 1
	}

	width := knots[j+1] - knots[j]
	if width == 0 {
		return j, 0
	}
	return j, (t - knots[j]) / width
}
