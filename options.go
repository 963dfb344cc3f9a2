package alloymap

import (
	"github.com/rs/zerolog"

	internalconfig "github.com/agentstation/alloymap/internal/config"
	"github.com/agentstation/alloymap/pkg/errors"
	"github.com/agentstation/alloymap/pkg/gate"
	"github.com/agentstation/alloymap/pkg/logging"
	"github.com/agentstation/alloymap/pkg/pipeline"
	"github.com/agentstation/alloymap/pkg/property"
	"github.com/agentstation/alloymap/pkg/rank"
	"github.com/agentstation/alloymap/pkg/reconcile"
)

// config holds the settings of an Alloymap instance
type config struct {
	pipeline pipeline.Config
	decoder  *property.Decoder
	logger   *zerolog.Logger
}

func defaultConfig() *config {
	return &config{
		decoder: property.NewDecoder(),
		logger:  logging.Default(),
	}
}

// options applies each option in order
func (a *alloymap) options(opts ...Option) error {
	for _, opt := range opts {
		if err := opt(a.config); err != nil {
			return err
		}
	}
	return nil
}

// Option is a function that configures an Alloymap instance
type Option func(*config) error

// WithApplication selects the application whose thresholds apply
func WithApplication(application string) Option {
	return func(c *config) error {
		c.pipeline.Application = application
		return nil
	}
}

// WithWeights sets the ranking criteria
func WithWeights(weights rank.Weights) Option {
	return func(c *config) error {
		c.pipeline.Weights = weights
		return nil
	}
}

// WithThresholds sets the per-application thresholds
func WithThresholds(spec gate.Spec) Option {
	return func(c *config) error {
		c.pipeline.Thresholds = spec
		return nil
	}
}

// WithSchema declares the accepted trait names
func WithSchema(traits ...string) Option {
	return func(c *config) error {
		c.pipeline.Schema = property.NewSchema(traits...)
		return nil
	}
}

// WithStrategy overrides how conflicting values are resolved
func WithStrategy(strategy reconcile.Strategy) Option {
	return func(c *config) error {
		if strategy == nil {
			return errors.NewValidationError("strategy", nil, "cannot be nil")
		}
		c.pipeline.Strategy = strategy
		return nil
	}
}

// WithProvenance enables per-field provenance on results
func WithProvenance(enabled bool) Option {
	return func(c *config) error {
		c.pipeline.TrackProvenance = enabled
		return nil
	}
}

// WithIDColumn names the material table's identifier column
func WithIDColumn(name string) Option {
	return func(c *config) error {
		c.pipeline.IDColumn = name
		return nil
	}
}

// WithMissingMarkers sets the strings read as missing values from files
func WithMissingMarkers(markers ...string) Option {
	return func(c *config) error {
		c.decoder = &property.Decoder{MissingMarkers: markers}
		return nil
	}
}

// WithLogger sets the logger
func WithLogger(logger *zerolog.Logger) Option {
	return func(c *config) error {
		if logger != nil {
			c.logger = logger
		}
		return nil
	}
}

// WithConfigFile loads every setting from a config file, the environment
// and .env files. Later options override it.
func WithConfigFile(path string) Option {
	return func(c *config) error {
		cfg, err := internalconfig.Load(internalconfig.WithFile(path))
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		pc, err := cfg.Pipeline()
		if err != nil {
			return err
		}
		c.pipeline = pc
		c.decoder = cfg.Decoder()
		return nil
	}
}
