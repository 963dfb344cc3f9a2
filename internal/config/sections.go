package config

import (
	"fmt"

	"github.com/goccy/go-yaml"

	"github.com/agentstation/alloymap/pkg/errors"
	"github.com/agentstation/alloymap/pkg/gate"
	"github.com/agentstation/alloymap/pkg/property"
	"github.com/agentstation/alloymap/pkg/rank"
)

// orderedSections holds the order-sensitive parts of the config file.
type orderedSections struct {
	Weights    yaml.MapSlice `yaml:"weights"`
	Thresholds yaml.MapSlice `yaml:"default_thresholds"`
}

func (s orderedSections) weights() (rank.Weights, error) {
	out := make(rank.Weights, 0, len(s.Weights))
	for _, item := range s.Weights {
		trait := fmt.Sprint(item.Key)
		w, err := number("weights."+trait, item.Value)
		if err != nil {
			return nil, err
		}
		out = append(out, rank.Weight{Trait: trait, Weight: w})
	}
	return out, nil
}

func (s orderedSections) thresholds() (gate.Spec, error) {
	spec := make(gate.Spec, len(s.Thresholds))
	for _, item := range s.Thresholds {
		app := fmt.Sprint(item.Key)
		entries, err := mapping(item.Value)
		if err != nil {
			return nil, errors.NewConfigError("default_thresholds", fmt.Sprintf("application %q: %v", app, err), err)
		}
		thresholds := make([]gate.Threshold, 0, len(entries))
		for _, entry := range entries {
			key := fmt.Sprint(entry.Key)
			limit, err := number("default_thresholds."+app+"."+key, entry.Value)
			if err != nil {
				return nil, err
			}
			thresholds = append(thresholds, gate.Threshold{Key: key, Limit: limit})
		}
		spec[app] = thresholds
	}
	return spec, nil
}

func mapping(raw any) (yaml.MapSlice, error) {
	switch v := raw.(type) {
	case yaml.MapSlice:
		return v, nil
	case nil:
		return nil, nil
	default:
		return nil, fmt.Errorf("expected a mapping, got %T", raw)
	}
}

// number reads a config scalar through the same numeric rules as trait values.
func number(field string, raw any) (float64, error) {
	v, err := property.NewDecoder().Value(raw)
	if err != nil {
		return 0, errors.WrapValidation(field, err)
	}
	f, err := property.ParseNumeric(v)
	if err != nil {
		return 0, errors.NewValidationError(field, raw, err.Error())
	}
	return f, nil
}
