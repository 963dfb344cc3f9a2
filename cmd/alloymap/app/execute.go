package app

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/agentstation/alloymap/internal/cmd/output"
)

// Execute runs the alloymap CLI application with the given arguments.
func (a *App) Execute(ctx context.Context, args []string) error {
	rootCmd := a.createRootCommand()
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(ctx)
}

// createRootCommand creates the root cobra command with all subcommands.
func (a *App) createRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "alloymap",
		Short:   "Alloy property reconciliation and selection CLI",
		Version: a.version,
		Long: `Alloymap unifies alloy properties read from datasheet text (text) with
values digitized from stress-strain graph images (graph), checks the result
for completeness, ranks candidate materials by weighted criteria and gates
them against the thresholds of a target application.`,
		PersistentPreRunE: a.setupCommand,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}
	rootCmd.SetOut(a.out)

	rootCmd.AddGroup(&cobra.Group{
		ID:    "core",
		Title: "Core Commands:",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    "stages",
		Title: "Stage Commands:",
	})

	// Flag defaults are the values already loaded from the environment.
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.config.ConfigFile, "config", a.config.ConfigFile, "config file (default is ./alloymap.yaml or $HOME/.alloymap.yaml)")
	flags.BoolVarP(&a.config.Verbose, "verbose", "v", a.config.Verbose, "verbose output (shortcut for --log-level=debug)")
	flags.BoolVarP(&a.config.Quiet, "quiet", "q", a.config.Quiet, "minimal output (shortcut for --log-level=warn)")
	flags.BoolVar(&a.config.NoColor, "no-color", a.config.NoColor, "disable colored output")
	flags.StringVarP(&a.config.Output, "output", "o", a.config.Output, "output format: table, json, yaml")
	flags.StringVar(&a.config.LogLevel, "log-level", a.config.LogLevel, "log level: trace, debug, info, warn, error (overrides -v/-q)")
	flags.StringVar(&a.config.TextPath, "text", a.config.TextPath, "text-derived property map (YAML or JSON)")
	flags.StringVar(&a.config.GraphPath, "graph", a.config.GraphPath, "graph-derived property map (YAML or JSON)")
	flags.StringVarP(&a.config.Application, "application", "a", a.config.Application, "target application whose thresholds apply")

	rootCmd.SetVersionTemplate("alloymap {{.Version}}\n")

	a.registerCommands(rootCmd)

	return rootCmd
}

// setupCommand is called before any command runs.
func (a *App) setupCommand(_ *cobra.Command, _ []string) error {
	format, err := output.ParseFormat(a.config.Output)
	if err != nil {
		return err
	}
	a.config.Output = string(format)

	logger := NewLogger(a.config)
	a.logger = &logger
	return nil
}

// registerCommands registers all subcommands with the root command.
func (a *App) registerCommands(rootCmd *cobra.Command) {
	rootCmd.AddCommand(a.NewRunCommand())
	rootCmd.AddCommand(a.NewExportCommand())

	rootCmd.AddCommand(a.NewMergeCommand())
	rootCmd.AddCommand(a.NewReconcileCommand())
	rootCmd.AddCommand(a.NewValidateCommand())
	rootCmd.AddCommand(a.NewRankCommand())
	rootCmd.AddCommand(a.NewGateCommand())

	rootCmd.AddCommand(a.NewVersionCommand())
}

// ExitOnError is a helper that prints an error and exits with status 1.
// This is meant to be used in main.go for top-level error handling.
func ExitOnError(err error) {
	if err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
}
