package cmd

import (
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status <job-name>",
	Short: "Show the status of a submitted job",
	Args:  cobra.ExactArgs(1),
	RunE:  runStatus,
}

var stopCmd = &cobra.Command{
	Use:   "stop <job-name>",
	Short: "Stop a running job",
	Args:  cobra.ExactArgs(1),
	RunE:  runStop,
}

func init() {
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(stopCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	r, err := newRunner(ctx)
	if err != nil {
		return err
	}

	status, err := r.Describe(ctx, args[0])
	if err != nil {
		return serviceExitError("Failed to describe job", err)
	}

	return printJSON(cmd, status)
}

func runStop(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	r, err := newRunner(ctx)
	if err != nil {
		return err
	}

	if err := r.Stop(ctx, args[0]); err != nil {
		return serviceExitError("Failed to stop job", err)
	}

	cmd.Printf("stop requested: %s\n", args[0])
	return nil
}
