package gate

import (
	"strconv"
	"strings"
)

// BoundKind says which side a bound limits.
type BoundKind string

// Bound kinds.
const (
	Min BoundKind = "min"
	Max BoundKind = "max"
)

// Threshold is one raw configuration entry such as buoyancy_min: 100.
type Threshold struct {
	Key   string  `json:"key" yaml:"key"`
	Limit float64 `json:"limit" yaml:"limit"`
}

// Bound is a parsed threshold.
type Bound struct {
	Trait string
	Kind  BoundKind
	Limit float64
}

// Reason renders the failure reason for a value of the named column beyond
// this bound, e.g. "Buoyancy below 100".
func (b Bound) Reason(column string) string {
	side := "below"
	if b.Kind == Max {
		side = "above"
	}
	return column + " " + side + " " + formatLimit(b.Limit)
}

// Violated reports whether v is outside the bound.
func (b Bound) Violated(v float64) bool {
	if b.Kind == Max {
		return v > b.Limit
	}
	return v < b.Limit
}

// Bounds is an evaluation-ordered list of bounds.
type Bounds []Bound

// ParseBounds turns raw thresholds into bounds: every _min bound in
// declaration order, then every _max bound in declaration order. Keys with
// neither suffix are returned as skipped.
func ParseBounds(thresholds []Threshold) (Bounds, []string) {
	var mins, maxes Bounds
	var skipped []string
	for _, th := range thresholds {
		lower := strings.ToLower(th.Key)
		switch {
		case strings.HasSuffix(lower, "_min") && len(th.Key) > 4:
			mins = append(mins, Bound{Trait: th.Key[:len(th.Key)-4], Kind: Min, Limit: th.Limit})
		case strings.HasSuffix(lower, "_max") && len(th.Key) > 4:
			maxes = append(maxes, Bound{Trait: th.Key[:len(th.Key)-4], Kind: Max, Limit: th.Limit})
		default:
			skipped = append(skipped, th.Key)
		}
	}
	return append(mins, maxes...), skipped
}

func formatLimit(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
