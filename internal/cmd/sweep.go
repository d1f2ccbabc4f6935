package cmd

import (
	"os"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/3leaps/nbrun/internal/observability"
	"github.com/3leaps/nbrun/pkg/output"
	"github.com/3leaps/nbrun/pkg/storage"
	"github.com/3leaps/nbrun/pkg/sweep"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep <pattern>",
	Short: "Submit a job for every notebook matching a glob",
	Long: `Submit one execution job per notebook matching an S3 glob pattern.

Listing is bounded to the pattern's static prefix, and submissions are
rate limited. Output is JSONL: one nbrun.submission.v1 record per job
plus a final nbrun.summary.v1 record. Individual failures are recorded
without aborting the sweep.

Examples:
  nbrun sweep "s3://bucket/notebooks/**/*.ipynb"
  nbrun sweep "s3://bucket/notebooks/daily-*.ipynb" --param date=2026-08-24
  nbrun sweep "s3://bucket/notebooks/**/*.ipynb" --rate 0.5`,
	Args: cobra.ExactArgs(1),
	RunE: runSweep,
}

var (
	sweepFlags requestFlags
	sweepRate  float64
)

func init() {
	rootCmd.AddCommand(sweepCmd)
	sweepFlags.register(sweepCmd)
	sweepCmd.Flags().Float64Var(&sweepRate, "rate", 0, "Max submissions per second (default from config)")
}

func runSweep(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	pattern, err := sweep.ParsePattern(args[0])
	if err != nil {
		return exitError(foundry.ExitInvalidArgument, "Invalid sweep pattern", err)
	}

	// The template request carries everything but the input path; the
	// sweeper fills that in per matched notebook.
	template, err := sweepFlags.template()
	if err != nil {
		return err
	}

	r, err := newRunner(ctx)
	if err != nil {
		return err
	}

	lister, err := storage.New(ctx, storage.Config{Region: sweepFlags.region, Profile: sweepFlags.profile})
	if err != nil {
		return exitError(foundry.ExitExternalServiceUnavailable, "Failed to create storage client", err)
	}

	rateLimit := sweepRate
	if rateLimit <= 0 {
		rateLimit = runtimeConfig.Sweep.RateLimit
	}

	runID := uuid.New().String()
	w := output.NewJSONLWriter(os.Stdout, runID)
	defer func() { _ = w.Close() }()

	sum, err := sweep.New(lister, r, w, rateLimit).Run(ctx, pattern, template)
	if err != nil {
		return exitError(foundry.ExitExternalServiceUnavailable, "Sweep failed", err)
	}

	observability.CLILogger.Info("Sweep complete",
		zap.String("run_id", runID),
		zap.Int("matched", sum.Matched),
		zap.Int("submitted", sum.Submitted),
		zap.Int("failed", sum.Failed))
	return nil
}
