package fsrs

import (
	"fmt"
	"strconv"
	"strings"
)

// DefaultWeights is the 21-element FSRS-6 weight vector from the glossary.
// Treat as configuration: changing any entry resets the semantics of every
// persisted FsrsState.
var DefaultWeights = [21]float64{
	0.212, 1.2931, 2.3065, 8.2956, 6.4133, 0.8334, 3.0194, 0.001, 1.8722,
	0.1666, 0.796, 1.4835, 0.0614, 0.2629, 1.6483, 0.6014, 1.8729, 0.5425,
	0.0912, 0.0658, 0.1542,
}

// ParseWeights parses a comma-separated list of exactly 21 floats, as
// supplied via FSRS_WEIGHTS_OVERRIDE.
func ParseWeights(csv string) ([21]float64, error) {
	var w [21]float64
	parts := strings.Split(csv, ",")
	if len(parts) != 21 {
		return w, fmt.Errorf("fsrs: expected 21 weights, got %d", len(parts))
	}
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return w, fmt.Errorf("fsrs: invalid weight %d (%q): %w", i, p, err)
		}
		w[i] = v
	}
	return w, nil
}
