package app

import (
	"os"

	"github.com/agentstation/alloymap/pkg/logging"
)

// Config holds the CLI-level configuration: global flags and logging. The
// run configuration (weights, thresholds, sources) is loaded separately by
// internal/config once flags are known.
type Config struct {
	// Global flags
	Verbose bool
	Quiet   bool
	NoColor bool
	Output  string

	// Config file
	ConfigFile string

	// Run overrides
	Application     string
	TextPath        string
	GraphPath       string
	MetricsTextfile string

	// Logging configuration
	LogLevel  string
	LogFormat string
	LogOutput string
}

// LoadConfig reads CLI defaults from the environment. LOG_LEVEL stays empty
// when unset so -v and -q can still pick the level.
func LoadConfig() *Config {
	env := logging.ConfigFromEnv()
	return &Config{
		Output:    os.Getenv("ALLOYMAP_OUTPUT"),
		NoColor:   env.NoColor,
		LogLevel:  os.Getenv("LOG_LEVEL"),
		LogFormat: env.Format,
		LogOutput: env.Output,
	}
}
