package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"ohopus/internal/queue"
)

func newStatusCommand(cctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the most recent batch",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := queue.Open(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			batchRow, err := store.LatestBatch(cmd.Context())
			if errors.Is(err, queue.ErrNotFound) {
				fmt.Fprintln(cmd.OutOrStdout(), "No batches recorded yet.")
				return nil
			}
			if err != nil {
				return err
			}
			counts, err := store.BatchCounts(cmd.Context(), batchRow.ID)
			if err != nil {
				return err
			}

			rows := [][]string{
				{"Batch", batchRow.ID},
				{"Status", string(batchRow.Status)},
				{"Source", batchRow.SourceRoot},
				{"Destination", batchRow.DestRoot},
				{"Started", batchRow.CreatedAt.Local().Format(time.RFC1123)},
				{"Total", fmt.Sprintf("%d", counts.Total)},
				{"Pending", fmt.Sprintf("%d", counts.Pending)},
				{"Running", fmt.Sprintf("%d", counts.Running)},
				{"Completed", fmt.Sprintf("%d", counts.Completed)},
				{"Failed", fmt.Sprintf("%d", counts.Failed)},
				{"Skipped", fmt.Sprintf("%d", counts.Skipped)},
				{"Cancelled", fmt.Sprintf("%d", counts.Cancelled)},
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Field", "Value"}, rows, nil))
			return nil
		},
	}
}
