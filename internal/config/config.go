// Package config loads alloymap run configuration from a YAML file, the
// environment and .env files.
//
// Scalar settings go through a per-instance viper so ALLOYMAP_* variables
// override the file. The weights and default_thresholds sections are read
// straight from the file with an ordered decode, since their declaration
// order decides evaluation order.
package config

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/agentstation/alloymap/pkg/errors"
	"github.com/agentstation/alloymap/pkg/gate"
	"github.com/agentstation/alloymap/pkg/pipeline"
	"github.com/agentstation/alloymap/pkg/property"
	"github.com/agentstation/alloymap/pkg/rank"
	"github.com/agentstation/alloymap/pkg/reconcile"
	"github.com/agentstation/alloymap/pkg/table"
)

// EnvPrefix prefixes every environment override, e.g. ALLOYMAP_APPLICATION.
const EnvPrefix = "ALLOYMAP"

// Strategy names accepted by the strategy setting.
const (
	StrategyPrimaryFirst = "primary-first"
	StrategySourceOrder  = "source-order"
)

// Config is the complete run configuration.
type Config struct {
	// File is the config file that was read, empty when none was found.
	File string `json:"file,omitempty" yaml:"file,omitempty"`

	Application      string   `json:"application" yaml:"application"`
	IdentifierColumn string   `json:"identifier_column" yaml:"identifier_column" validate:"required"`
	TextPath         string   `json:"text,omitempty" yaml:"text,omitempty"`
	GraphPath        string   `json:"graph,omitempty" yaml:"graph,omitempty"`
	MissingMarkers   []string `json:"missing_markers" yaml:"missing_markers" validate:"dive,required"`

	Strategy        string   `json:"strategy" yaml:"strategy" validate:"oneof=primary-first source-order"`
	SourcePriority  []string `json:"source_priority,omitempty" yaml:"source_priority,omitempty" validate:"dive,oneof=text graph completion"`
	TrackProvenance bool     `json:"track_provenance" yaml:"track_provenance"`
	Schema          []string `json:"schema,omitempty" yaml:"schema,omitempty" validate:"dive,required"`

	Weights    rank.Weights `json:"weights" yaml:"weights" validate:"dive"`
	Thresholds gate.Spec    `json:"default_thresholds" yaml:"default_thresholds"`

	MetricsTextfile string `json:"metrics_textfile,omitempty" yaml:"metrics_textfile,omitempty"`
}

// Option configures Load.
type Option func(*loader)

type loader struct {
	file     string
	envFiles []string
	search   []string
}

// WithFile reads the given file. A missing explicit file is an error.
func WithFile(path string) Option {
	return func(l *loader) {
		l.file = path
	}
}

// WithEnvFiles replaces the .env files loaded before reading the environment.
func WithEnvFiles(files ...string) Option {
	return func(l *loader) {
		l.envFiles = files
	}
}

// WithSearchPaths replaces the candidate files tried when no explicit file
// is given. The first existing one wins.
func WithSearchPaths(paths ...string) Option {
	return func(l *loader) {
		l.search = paths
	}
}

// DefaultSearchPaths returns ./alloymap.yaml and $HOME/.alloymap.yaml.
func DefaultSearchPaths() []string {
	paths := []string{"alloymap.yaml"}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".alloymap.yaml"))
	}
	return paths
}

// Load reads configuration in order of precedence:
//  1. Environment variables (ALLOYMAP_*)
//  2. .env files
//  3. Config file
//  4. Defaults
//
// Flags are applied afterwards by the caller. Load does not validate; call
// Validate once every override is in place.
func Load(opts ...Option) (*Config, error) {
	l := &loader{
		envFiles: []string{".env", ".env.local"},
		search:   DefaultSearchPaths(),
	}
	for _, opt := range opts {
		opt(l)
	}

	// .env.local overrides .env, so later files are applied with Overload.
	for i, f := range l.envFiles {
		if i == 0 {
			_ = godotenv.Load(f)
			continue
		}
		_ = godotenv.Overload(f)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("identifier_column", table.DefaultIDColumn)
	v.SetDefault("missing_markers", property.DefaultMissingMarkers)
	v.SetDefault("strategy", StrategyPrimaryFirst)
	v.SetDefault("track_provenance", false)

	path, err := l.resolve()
	if err != nil {
		return nil, err
	}

	var sections orderedSections
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.WrapIO("read", path, err)
		}
		if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
			return nil, errors.WrapParse("yaml", path, err)
		}
		if err := yaml.UnmarshalWithOptions(data, &sections, yaml.UseOrderedMap()); err != nil {
			return nil, errors.WrapParse("yaml", path, err)
		}
	}

	cfg := &Config{
		File:             path,
		Application:      v.GetString("application"),
		IdentifierColumn: v.GetString("identifier_column"),
		TextPath:         v.GetString("text"),
		GraphPath:        v.GetString("graph"),
		MissingMarkers:   v.GetStringSlice("missing_markers"),
		Strategy:         strings.ToLower(v.GetString("strategy")),
		SourcePriority:   v.GetStringSlice("source_priority"),
		TrackProvenance:  v.GetBool("track_provenance"),
		Schema:           v.GetStringSlice("schema"),
		MetricsTextfile:  v.GetString("metrics_textfile"),
	}

	if cfg.Weights, err = sections.weights(); err != nil {
		return nil, err
	}
	if cfg.Thresholds, err = sections.thresholds(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (l *loader) resolve() (string, error) {
	if l.file != "" {
		if _, err := os.Stat(l.file); err != nil {
			return "", errors.WrapIO("read", l.file, err)
		}
		return l.file, nil
	}
	for _, p := range l.search {
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p, nil
		}
	}
	return "", nil
}

// UpdateFromFlags applies non-empty flag values on top of the loaded values.
func (c *Config) UpdateFromFlags(application, text, graph, metricsTextfile string) {
	if application != "" {
		c.Application = application
	}
	if text != "" {
		c.TextPath = text
	}
	if graph != "" {
		c.GraphPath = graph
	}
	if metricsTextfile != "" {
		c.MetricsTextfile = metricsTextfile
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("finite", func(fl validator.FieldLevel) bool {
		f := fl.Field().Float()
		return !math.IsNaN(f) && !math.IsInf(f, 0)
	})
	return v
}

// Validate checks the configuration. Every failing field is reported in a
// single errors.FieldErrors.
func (c *Config) Validate() error {
	var fe errors.FieldErrors

	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return errors.NewConfigError("config", err.Error(), err)
		}
		for _, e := range verrs {
			fe = append(fe, errors.NewValidationError(fieldName(e), e.Value(), fmt.Sprintf("failed %q check", e.Tag())))
		}
	}

	for _, w := range c.Weights {
		if err := validate.Var(w.Weight, "finite"); err != nil {
			fe = append(fe, errors.NewValidationError("weights."+w.Trait, w.Weight, "weight must be finite"))
		}
	}
	for app, thresholds := range c.Thresholds {
		for _, th := range thresholds {
			if err := validate.Var(th.Limit, "finite"); err != nil {
				fe = append(fe, errors.NewValidationError("default_thresholds."+app+"."+th.Key, th.Limit, "limit must be finite"))
			}
		}
	}

	if len(fe) > 0 {
		return fe
	}
	return nil
}

func fieldName(e validator.FieldError) string {
	ns := e.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

// RequireApplication fails when no application was selected. Only the
// stages that gate materials need one.
func (c *Config) RequireApplication() error {
	if strings.TrimSpace(c.Application) == "" {
		return errors.NewValidationError("application", c.Application, "no application selected; set --application or application in the config file")
	}
	return nil
}

// Decoder returns a property decoder using the configured missing markers.
func (c *Config) Decoder() *property.Decoder {
	d := property.NewDecoder()
	if len(c.MissingMarkers) > 0 {
		d.MissingMarkers = append([]string(nil), c.MissingMarkers...)
	}
	return d
}

// Pipeline converts the configuration into a pipeline.Config.
func (c *Config) Pipeline() (pipeline.Config, error) {
	cfg := pipeline.Config{
		Application:     c.Application,
		IDColumn:        c.IdentifierColumn,
		Weights:         c.Weights,
		Thresholds:      c.Thresholds,
		TrackProvenance: c.TrackProvenance,
	}
	if len(c.Schema) > 0 {
		cfg.Schema = property.NewSchema(c.Schema...)
	}

	switch c.Strategy {
	case "", StrategyPrimaryFirst:
		cfg.Strategy = reconcile.PrimaryFirst()
	case StrategySourceOrder:
		priority := make([]reconcile.SourceID, len(c.SourcePriority))
		for i, id := range c.SourcePriority {
			priority[i] = reconcile.SourceID(id)
		}
		cfg.Strategy = reconcile.NewSourceOrderStrategy(priority...)
	default:
		return pipeline.Config{}, errors.NewValidationError("strategy", c.Strategy, "unknown strategy")
	}
	return cfg, nil
}
