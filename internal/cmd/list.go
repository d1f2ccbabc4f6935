package cmd

import (
	"os"
	"time"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/3leaps/nbrun/pkg/output"
	"github.com/3leaps/nbrun/pkg/submit"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List submitted jobs, newest first",
	Long: `List processing jobs, newest first.

Output is JSONL: one nbrun.job.v1 record per job. Pages are followed
automatically up to --max jobs.

Examples:
  nbrun list
  nbrun list --contains papermill-weather
  nbrun list --since 24h --max 50`,
	Args: cobra.NoArgs,
	RunE: runList,
}

var (
	listContains string
	listSince    time.Duration
	listMax      int
)

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().StringVar(&listContains, "contains", "", "Only jobs whose name contains the substring")
	listCmd.Flags().DurationVar(&listSince, "since", 0, "Only jobs created within the duration (e.g. 24h)")
	listCmd.Flags().IntVar(&listMax, "max", 100, "Maximum number of jobs to list")
}

func runList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	r, err := newRunner(ctx)
	if err != nil {
		return err
	}

	opts := submit.ListOptions{NameContains: listContains}
	if listSince > 0 {
		opts.Since = time.Now().Add(-listSince)
	}

	w := output.NewJSONLWriter(os.Stdout, uuid.New().String())
	defer func() { _ = w.Close() }()

	listed := 0
	for {
		page, err := r.List(ctx, opts)
		if err != nil {
			return serviceExitError("Failed to list jobs", err)
		}

		for i := range page.Jobs {
			if listed >= listMax {
				return nil
			}
			if err := w.WriteJob(ctx, &page.Jobs[i]); err != nil {
				return exitError(foundry.ExitFileWriteError, "Failed to write job record", err)
			}
			listed++
		}

		if page.NextToken == "" || listed >= listMax {
			return nil
		}
		opts.NextToken = page.NextToken
	}
}
