package cmd

import (
	"github.com/spf13/cobra"
)

var payloadCmd = &cobra.Command{
	Use:   "payload <notebook>",
	Short: "Print the expanded job payload without submitting",
	Long: `Expand a notebook execution request into the full processing job
payload and print it as JSON, without creating a job.

Useful for auditing what run would submit, and for feeding external
schedulers that create the job themselves.

Example:
  nbrun payload s3://bucket/notebooks/weather.ipynb --param start=2026-01-01`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPayload,
}

var payloadFlags requestFlags

func init() {
	rootCmd.AddCommand(payloadCmd)
	payloadFlags.register(payloadCmd)
	payloadFlags.registerJob(payloadCmd)
}

func runPayload(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	input := ""
	if len(args) > 0 {
		input = args[0]
	}
	req, err := payloadFlags.buildRequest(ctx, input)
	if err != nil {
		return err
	}

	r, err := newRunner(ctx)
	if err != nil {
		return err
	}

	payload, err := r.Plan(ctx, req)
	if err != nil {
		return serviceExitError("Failed to build payload", err)
	}

	return printJSON(cmd, payload)
}
