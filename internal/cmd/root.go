// Package cmd implements the nbrun command line interface.
package cmd

import (
	"context"
	"fmt"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"

	"github.com/3leaps/nbrun/internal/config"
	"github.com/3leaps/nbrun/internal/observability"
	"github.com/3leaps/nbrun/internal/server"
)

var rootCmd = &cobra.Command{
	Use:   "nbrun",
	Short: "Run Jupyter notebooks as SageMaker Processing jobs",
	Long: `nbrun expands a sparse notebook execution request into a complete
SageMaker Processing job and submits it.

Only the input notebook is required. The container image, execution
role, output prefix, and instance type are filled in by convention
against the caller's AWS account and region.

Examples:
  nbrun run s3://bucket/notebooks/weather.ipynb
  nbrun run s3://bucket/notebooks/weather.ipynb --param start=2026-01-01
  nbrun payload s3://bucket/notebooks/weather.ipynb
  nbrun status papermill-weather-2026-08-24-15-04-05
  nbrun sweep "s3://bucket/notebooks/**/*.ipynb"`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initRuntime(cmd.Context())
	},
}

var versionInfo = struct {
	Version   string
	Commit    string
	BuildDate string
}{
	Version:   "dev",
	Commit:    "HEAD",
	BuildDate: "unknown",
}

// SetVersionInfo records build-time version metadata. Called from main
// with values stamped via -ldflags.
func SetVersionInfo(version, commit, buildDate string) {
	versionInfo.Version = version
	versionInfo.Commit = commit
	versionInfo.BuildDate = buildDate
	server.Version = version
}

var (
	flagLogLevel   string
	flagLogProfile string

	// runtimeConfig is the resolved configuration, loaded once in the
	// persistent pre-run hook.
	runtimeConfig *config.Config
)

func init() {
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level (debug|info|warn|error)")
	rootCmd.PersistentFlags().StringVar(&flagLogProfile, "log-profile", "", "Log profile (CONSOLE|STRUCTURED)")

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("nbrun %s (commit %s, built %s)\n",
			versionInfo.Version, versionInfo.Commit, versionInfo.BuildDate)
	},
}

// initRuntime loads configuration and initializes the loggers.
func initRuntime(ctx context.Context) error {
	overrides := map[string]any{}
	if flagLogLevel != "" {
		overrides["logging.level"] = flagLogLevel
	}
	if flagLogProfile != "" {
		overrides["logging.profile"] = flagLogProfile
	}

	cfg, err := config.Load(ctx, overrides)
	if err != nil {
		return exitError(foundry.ExitInvalidArgument, "Failed to load configuration", err)
	}
	runtimeConfig = cfg

	if err := observability.Init(cfg.Logging.Level, cfg.Logging.Profile); err != nil {
		return exitError(foundry.ExitInvalidArgument, "Failed to initialize logging", err)
	}
	return nil
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	defer observability.Sync()
	return rootCmd.ExecuteContext(ctx)
}

// exitError creates an error that will cause the CLI to exit with the given code.
func exitError(code int, message string, err error) error {
	return fmt.Errorf("%s: %w (exit code %d)", message, err, code)
}
