package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"vthell-api/pkg/models"
)

const jobTimeLayout = "2006-01-02 15:04 MST"

func newJobsCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "List recording jobs ordered by start time",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.ensureApp(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			list, err := a.Jobs.ListJobs(nil)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, list)
			}
			if len(list) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No jobs")
				return nil
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"ID", "State", "Start", "Type", "Member", "Title"},
				jobRows(list),
				[]columnAlignment{alignLeft, alignLeft, alignRight},
			))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the stored job records as JSON")
	return cmd
}

func jobRows(list []*models.Job) [][]string {
	rows := make([][]string, 0, len(list))
	for _, job := range list {
		start := time.Unix(int64(job.StartTime)+models.LeadTime, 0).UTC()
		member := ""
		if job.MemberOnly {
			member = "yes"
		}
		rows = append(rows, []string{
			job.ID,
			string(job.State()),
			start.Format(jobTimeLayout),
			string(job.Type),
			member,
			job.Title(),
		})
	}
	return rows
}
