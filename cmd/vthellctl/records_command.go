package main

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"vthell-api/internal/archive"
	"vthell-api/pkg/models"
)

func newRecordsCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "records",
		Short: "Summarize the stored archive index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.ensureApp(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			snapshot, err := a.Index.Load()
			if err != nil {
				return err
			}
			if snapshot == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "Archive index has not been built yet; run `vthellctl rebuild`")
				return nil
			}
			if asJSON {
				return writeJSON(cmd, snapshot)
			}
			printSnapshot(cmd, snapshot)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the full index as JSON")
	return cmd
}

func newRebuildCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "rebuild",
		Short: "Rebuild the archive index from the configured listing source",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.ensureApp(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if a.Rebuilder == nil {
				return fmt.Errorf("%w; set ARCHIVE_SOURCE to rclone or s3", archive.ErrNoFeed)
			}

			snapshot, err := a.Rebuilder.Rebuild(cmd.Context())
			if errors.Is(err, archive.ErrRebuildInProgress) {
				return fmt.Errorf("%w; try again once it finishes", err)
			}
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Archive index rebuilt")
			printSnapshot(cmd, snapshot)
			return nil
		},
	}
}

type categorySummary struct {
	name  string
	files int
	size  int64
}

func summarize(snapshot *models.Snapshot) []categorySummary {
	if snapshot.Tree == nil {
		return nil
	}
	summaries := make([]categorySummary, 0, len(snapshot.Tree.Children))
	for _, category := range snapshot.Tree.Children {
		s := categorySummary{name: category.Name}
		category.Walk(func(n *models.Node) {
			if !n.IsFolder() {
				s.files++
				s.size += n.Size
			}
		})
		summaries = append(summaries, s)
	}
	return summaries
}

func printSnapshot(cmd *cobra.Command, snapshot *models.Snapshot) {
	out := cmd.OutOrStdout()
	updated := time.Unix(snapshot.LastUpdated, 0)
	fmt.Fprintf(out, "Last updated: %s (%s)\n", updated.UTC().Format(time.RFC3339), humanize.Time(updated))
	fmt.Fprintf(out, "Total size:   %s\n", humanize.Bytes(uint64(snapshot.TotalSize)))

	summaries := summarize(snapshot)
	if len(summaries) == 0 {
		return
	}
	rows := make([][]string, 0, len(summaries))
	for _, s := range summaries {
		rows = append(rows, []string{s.name, humanize.Comma(int64(s.files)), humanize.Bytes(uint64(s.size)), strconv.FormatInt(s.size, 10)})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Category", "Files", "Size", "Bytes"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignRight, alignRight},
	))
}
