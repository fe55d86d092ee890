package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"ohopus/internal/queue"
)

func newQueueCommand(cctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and maintain the job queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	queueCmd.AddCommand(newQueueListCommand(cctx))
	queueCmd.AddCommand(newQueueClearCommand(cctx))
	return queueCmd
}

func newQueueListCommand(cctx *commandContext) *cobra.Command {
	var batchFlag string
	var statusFlag string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List jobs for a batch (latest by default)",
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

			batchID := strings.TrimSpace(batchFlag)
			if batchID == "" {
				latest, err := store.LatestBatch(cmd.Context())
				if errors.Is(err, queue.ErrNotFound) {
					fmt.Fprintln(cmd.OutOrStdout(), "No batches recorded yet.")
					return nil
				}
				if err != nil {
					return err
				}
				batchID = latest.ID
			}

			var jobs []*queue.Job
			if statusFlag != "" {
				status, ok := queue.ParseStatus(statusFlag)
				if !ok {
					return fmt.Errorf("unknown status %q", statusFlag)
				}
				jobs, err = store.ListJobsByStatus(cmd.Context(), batchID, status)
			} else {
				jobs, err = store.ListJobs(cmd.Context(), batchID)
			}
			if err != nil {
				return err
			}
			if len(jobs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No jobs found.")
				return nil
			}

			rows := make([][]string, 0, len(jobs))
			for _, job := range jobs {
				bitrate := ""
				if job.EffectiveBitrate > 0 {
					bitrate = fmt.Sprintf("%dk", job.EffectiveBitrate)
				}
				detail := job.ErrorMessage
				if idx := strings.IndexByte(detail, '\n'); idx >= 0 {
					detail = detail[:idx]
				}
				rows = append(rows, []string{
					fmt.Sprintf("%d", job.ID),
					filepath.Base(job.SourcePath),
					string(job.Status),
					bitrate,
					fmt.Sprintf("%.0f%%", job.ProgressPercent),
					detail,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"ID", "File", "Status", "Bitrate", "Progress", "Detail"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().StringVar(&batchFlag, "batch", "", "Batch ID (defaults to the latest batch)")
	cmd.Flags().StringVar(&statusFlag, "status", "", "Filter by job status")
	return cmd
}

func newQueueClearCommand(cctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove finished batches and their jobs",
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

			n, err := store.ClearFinished(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d finished batches.\n", n)
			return nil
		},
	}
}
