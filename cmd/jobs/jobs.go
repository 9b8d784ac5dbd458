// Package jobs implements the jobs command for inspecting configured crawl jobs.
package jobs

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/north-cloud/statcrawl/cmd/common"
	"github.com/jonesrussell/north-cloud/statcrawl/internal/job"
)

// Command returns the jobs command.
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Inspect configured crawl jobs",
	}
	cmd.AddCommand(newListCmd(), newValidateCmd())
	return cmd
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List configured jobs and their seeds",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := common.Load()
			if err != nil {
				return err
			}
			job.RenderJobs(cmd.OutOrStdout(), cfg.Jobs)
			return nil
		},
	}
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [job...]",
		Short: "Check that jobs resolve to a site, valid seeds and valid limits",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := common.Load()
			if err != nil {
				return err
			}
			runner, err := job.NewRunner(cfg, log)
			if err != nil {
				return err
			}
			if err := runner.Validate(args...); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "All jobs are valid")
			return nil
		},
	}
}
