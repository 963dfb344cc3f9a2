package rank

import "sort"

// Weight is a signed trait weight. Positive weights reward high values,
// negative weights reward low values.
type Weight struct {
	Trait  string  `json:"trait" yaml:"trait" validate:"required"`
	Weight float64 `json:"weight" yaml:"weight"`
}

// Weights is an ordered weight specification.
type Weights []Weight

// WeightsOf converts an unordered map, sorting by trait name.
func WeightsOf(m map[string]float64) Weights {
	out := make(Weights, 0, len(m))
	for trait, w := range m {
		out = append(out, Weight{Trait: trait, Weight: w})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Trait < out[j].Trait })
	return out
}

// Traits returns the weighted trait names in order.
func (w Weights) Traits() []string {
	out := make([]string, len(w))
	for i, wt := range w {
		out[i] = wt.Trait
	}
	return out
}
