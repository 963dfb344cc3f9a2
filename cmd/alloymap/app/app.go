// Package app provides the application context and dependency management
// for the alloymap CLI: configuration, logging and lifecycle live on one
// App value that every command receives.
package app

import (
	"context"
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"

	"github.com/agentstation/alloymap/internal/config"
	"github.com/agentstation/alloymap/internal/metrics"
)

// App represents the alloymap application with all its dependencies.
type App struct {
	// Version information
	version string
	commit  string
	date    string
	builtBy string

	config *Config
	logger *zerolog.Logger
	out    io.Writer

	metrics *metrics.Recorder

	// Run configuration (lazy-initialized once flags are parsed)
	mu  sync.Mutex
	run *config.Config
}

// New creates a new App instance with the given version information.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	app := &App{
		version: version,
		commit:  commit,
		date:    date,
		builtBy: builtBy,
		out:     os.Stdout,
		metrics: metrics.New(),
	}

	app.config = LoadConfig()

	logger := NewLogger(app.config)
	app.logger = &logger

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	return app, nil
}

// Version returns the version information.
func (a *App) Version() string {
	return a.version
}

// Config returns the application configuration.
func (a *App) Config() *Config {
	return a.config
}

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger {
	return a.logger
}

// Metrics returns the run metrics recorder.
func (a *App) Metrics() *metrics.Recorder {
	return a.metrics
}

// RunConfig loads and validates the run configuration on first use. The
// config file comes from --config when set, otherwise from the default
// search paths; --application, --text and --graph override it.
func (a *App) RunConfig() (*config.Config, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.run != nil {
		return a.run, nil
	}

	var opts []config.Option
	if a.config.ConfigFile != "" {
		opts = append(opts, config.WithFile(a.config.ConfigFile))
	}
	cfg, err := config.Load(opts...)
	if err != nil {
		return nil, err
	}
	cfg.UpdateFromFlags(a.config.Application, a.config.TextPath, a.config.GraphPath, a.config.MetricsTextfile)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	a.logger.Debug().
		Str("file", cfg.File).
		Str("application", cfg.Application).
		Int("weights", len(cfg.Weights)).
		Msg("Loaded run configuration")

	a.run = cfg
	return cfg, nil
}

// Shutdown flushes the metrics textfile when one is configured.
func (a *App) Shutdown(_ context.Context) error {
	a.mu.Lock()
	run := a.run
	a.mu.Unlock()

	if run == nil || run.MetricsTextfile == "" {
		return nil
	}
	return a.metrics.WriteTextfile(run.MetricsTextfile)
}

// Option is a functional option for configuring the App.
type Option func(*App) error

// WithConfig sets a custom configuration.
func WithConfig(config *Config) Option {
	return func(a *App) error {
		a.config = config
		logger := NewLogger(config)
		a.logger = &logger
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(a *App) error {
		a.logger = logger
		return nil
	}
}

// WithOutput redirects command output, e.g. to a buffer in tests.
func WithOutput(w io.Writer) Option {
	return func(a *App) error {
		a.out = w
		return nil
	}
}
