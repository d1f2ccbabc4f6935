package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/3leaps/nbrun/internal/observability"
)

var runCmd = &cobra.Command{
	Use:   "run <notebook>",
	Short: "Submit a notebook execution job",
	Long: `Submit a notebook for execution as a SageMaker Processing job.

The notebook is an S3 URI, or a local path combined with --upload.
Missing fields are filled in by convention: the image from the
caller's ECR registry, the role from the caller's account, the output
prefix from the input directory.

Examples:
  nbrun run s3://bucket/notebooks/weather.ipynb
  nbrun run s3://bucket/notebooks/weather.ipynb --param start=2026-01-01 --param window=7
  nbrun run s3://bucket/notebooks/weather.ipynb --params-file params.yaml
  nbrun run ./weather.ipynb --upload s3://bucket/notebooks/
  nbrun run --job job.yaml
  nbrun run s3://bucket/notebooks/weather.ipynb --extra-args overrides.json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRun,
}

var runFlags requestFlags

func init() {
	rootCmd.AddCommand(runCmd)
	runFlags.register(runCmd)
	runFlags.registerJob(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	input := ""
	if len(args) > 0 {
		input = args[0]
	}
	req, err := runFlags.buildRequest(ctx, input)
	if err != nil {
		return err
	}

	r, err := newRunner(ctx)
	if err != nil {
		return err
	}

	jobName, err := r.Execute(ctx, req)
	if err != nil {
		observability.CLILogger.Error("Submission failed",
			zap.String("input", req.InputPath), zap.Error(err))
		return serviceExitError("Failed to submit execution", err)
	}

	observability.CLILogger.Info("Job submitted",
		zap.String("job_name", jobName),
		zap.String("input", req.InputPath))
	cmd.Println(jobName)
	return nil
}
