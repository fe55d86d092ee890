package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"ohopus/internal/batch"
	"ohopus/internal/config"
	"ohopus/internal/deps"
	"ohopus/internal/encoder"
	"ohopus/internal/ffprobe"
	"ohopus/internal/logging"
	"ohopus/internal/notifications"
	"ohopus/internal/policy"
	"ohopus/internal/queue"
	"ohopus/internal/replaygain"
	"ohopus/internal/walker"
)

func newConvertCommand(cctx *commandContext) *cobra.Command {
	var sourceFlag string
	var destFlag string
	var workersFlag int
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert the MP3 library to Opus",
		Long: `Walk the source directory, convert every MP3 to Opus into a mirrored
destination tree, and apply the configured ReplayGain post-pass.

A running batch responds to signals: SIGINT or SIGTERM cancels, SIGUSR1
pauses, SIGUSR2 resumes.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(cmd, cctx, sourceFlag, destFlag, workersFlag, dryRun)
		},
	}

	cmd.Flags().StringVar(&sourceFlag, "source", "", "Source directory (defaults to paths.source_dir)")
	cmd.Flags().StringVar(&destFlag, "dest", "", "Destination directory (defaults to paths.dest_dir)")
	cmd.Flags().IntVar(&workersFlag, "workers", 0, "Concurrent encoder processes (defaults to encoder.threads)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "List what would be converted without encoding")
	return cmd
}

func runConvert(cmd *cobra.Command, cctx *commandContext, source, dest string, workers int, dryRun bool) error {
	cfg, err := cctx.ensureConfig()
	if err != nil {
		return err
	}
	if strings.TrimSpace(source) == "" {
		source = cfg.Paths.SourceDir
	}
	if strings.TrimSpace(dest) == "" {
		dest = cfg.Paths.DestDir
	}
	if workers <= 0 {
		workers = cfg.Encoder.Threads
	}

	entries, err := walker.Discover(source, dest)
	if err != nil {
		return err
	}
	if dryRun {
		return printDryRun(cmd, entries)
	}
	if len(entries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No MP3 files found.")
		return nil
	}

	logger, err := logging.New(logging.Options{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{"stderr", filepath.Join(cfg.Paths.LogDir, "ohopus.log")},
	})
	if err != nil {
		return fmt.Errorf("initialize logging: %w", err)
	}

	lock := flock.New(filepath.Join(cfg.Paths.StateDir, "ohopus.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire run lock: %w", err)
	}
	if !locked {
		return errors.New("another ohopus run is already in progress")
	}
	defer func() { _ = lock.Unlock() }()

	if err := checkRequiredBinaries(cfg); err != nil {
		return err
	}

	store, err := queue.Open(cfg)
	if err != nil {
		return fmt.Errorf("open queue: %w", err)
	}
	defer store.Close()
	if n, err := store.ResetStuckRunning(cmd.Context()); err != nil {
		logger.Warn("reset interrupted jobs", logging.Error(err))
	} else if n > 0 {
		logger.Info("reset interrupted jobs from previous run", logging.Int64("jobs", n))
	}

	engine, err := buildEngine(cfg)
	if err != nil {
		return err
	}
	gain, err := buildGain(cfg)
	if err != nil {
		return err
	}

	probe := func(ctx context.Context, path string) (float64, error) {
		result, err := ffprobe.Inspect(ctx, cfg.FFprobeBinary(), path)
		if err != nil {
			return 0, err
		}
		return result.DurationSeconds(), nil
	}

	sched, err := batch.New(batch.Options{
		Store:        store,
		Engine:       engine,
		Policy:       policy.New(cfg.Encoder.Bitrate, cfg.Conversion.GenreBoost),
		Logger:       logger,
		Workers:      workers,
		VBR:          cfg.Encoder.VBR,
		SkipExisting: cfg.Conversion.SkipExisting,
		Gain:         gain,
		GainMode:     cfg.ReplayGain.Mode,
		Probe:        probe,
		Notifier:     notifications.NewService(cfg),
		OnEvent:      newEventPrinter(cmd.OutOrStdout(), len(entries)),
	})
	if err != nil {
		return err
	}

	stopSignals := watchSignals(sched)
	defer stopSignals()

	counts, err := sched.Run(cmd.Context(), source, dest, entries)
	if err != nil {
		return err
	}

	printSummary(cmd, sched, counts)
	if counts.Failed > 0 {
		return fmt.Errorf("%d of %d conversions failed", counts.Failed, counts.Total)
	}
	return nil
}

func buildEngine(cfg *config.Config) (encoder.Engine, error) {
	settings := encoder.Settings{
		VBR:         cfg.Encoder.VBR,
		Application: cfg.Encoder.Application,
		FrameSizeMS: cfg.Encoder.FrameSize,
		Complexity:  cfg.Encoder.Complexity,
		BufferKiB:   cfg.Encoder.BufferKiB,
		JobTimeout:  time.Duration(cfg.Encoder.JobTimeout) * time.Second,
	}
	binary := cfg.FFmpegBinary()
	if cfg.Encoder.Engine == "opusenc" {
		binary = cfg.OpusencBinary()
	}
	return encoder.New(cfg.Encoder.Engine, binary, settings)
}

func buildGain(cfg *config.Config) (*replaygain.Adapter, error) {
	if cfg.ReplayGain.Mode == "" || cfg.ReplayGain.Mode == replaygain.ModeOff {
		return nil, nil
	}
	return replaygain.New(cfg.ReplayGain.Tool, cfg.GainBinary(),
		replaygain.WithTimeout(time.Duration(cfg.Encoder.JobTimeout)*time.Second))
}

func checkRequiredBinaries(cfg *config.Config) error {
	var missing []string
	for _, status := range deps.CheckBinaries(deps.Requirements(cfg)) {
		if !status.Available && !status.Optional {
			missing = append(missing, fmt.Sprintf("%s (%s)", status.Name, status.Command))
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required binaries: %s", strings.Join(missing, ", "))
	}
	return nil
}

func printDryRun(cmd *cobra.Command, entries []walker.Entry) error {
	if len(entries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No MP3 files found.")
		return nil
	}
	rows := make([][]string, 0, len(entries))
	for _, entry := range entries {
		rows = append(rows, []string{entry.RelativePath, entry.DestPath})
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderTable(
		[]string{"Source", "Destination"}, rows, nil))
	fmt.Fprintf(cmd.OutOrStdout(), "%d files would be converted.\n", len(entries))
	return nil
}

func printSummary(cmd *cobra.Command, sched *batch.Scheduler, counts queue.Counts) {
	rows := [][]string{
		{"Batch", sched.BatchID()},
		{"State", string(sched.State())},
		{"Completed", fmt.Sprintf("%d", counts.Completed)},
		{"Failed", fmt.Sprintf("%d", counts.Failed)},
		{"Skipped", fmt.Sprintf("%d", counts.Skipped)},
		{"Cancelled", fmt.Sprintf("%d", counts.Cancelled)},
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Summary", ""}, rows, nil))
}
