package batch

import (
	"context"
	"path/filepath"
	"sort"

	"ohopus/internal/logging"
	"ohopus/internal/queue"
	"ohopus/internal/replaygain"
)

// applyGain runs the ReplayGain post-pass over completed outputs. Track
// mode tags every completed file. Album mode treats each destination
// directory as an album and only tags directories where every job
// completed, so partial albums never carry misleading album gain.
// A cancelled batch never enters the pass, and the scanner runs on the
// cancellable run context so Cancel kills it mid-pass.
func (s *Scheduler) applyGain(ctx context.Context, batchID string) {
	if s.gain == nil || s.gainMode == "" || s.gainMode == replaygain.ModeOff {
		return
	}
	if s.isCancelled() {
		s.logger.Info("gain pass skipped: batch cancelled",
			logging.String(logging.FieldBatchID, batchID))
		return
	}

	// Read the final queue state even when cancellation raced the end of
	// the worker pool.
	jobs, err := s.store.ListJobs(context.WithoutCancel(ctx), batchID)
	if err != nil {
		s.logger.Warn("list jobs for gain pass", logging.Error(err))
		return
	}

	type dirGroup struct {
		completed  []string
		incomplete bool
	}
	groups := make(map[string]*dirGroup)
	for _, job := range jobs {
		dir := filepath.Dir(job.DestPath)
		group := groups[dir]
		if group == nil {
			group = &dirGroup{}
			groups[dir] = group
		}
		switch job.Status {
		case queue.StatusCompleted:
			group.completed = append(group.completed, job.DestPath)
		case queue.StatusSkipped:
			// Skipped outputs already exist and keep their existing tags.
		default:
			group.incomplete = true
		}
	}

	dirs := make([]string, 0, len(groups))
	for dir := range groups {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)

	for _, dir := range dirs {
		if s.isCancelled() || ctx.Err() != nil {
			s.logger.Info("gain pass stopped: batch cancelled",
				logging.String(logging.FieldBatchID, batchID))
			return
		}
		group := groups[dir]
		if len(group.completed) == 0 {
			continue
		}
		if s.gainMode == replaygain.ModeAlbum && group.incomplete {
			s.logger.Warn("gain skipped: incomplete album",
				logging.String(logging.FieldDestination, dir))
			s.emit(Event{Type: EventGainSkipped, BatchID: batchID, Message: dir})
			continue
		}

		var err error
		if s.gainMode == replaygain.ModeAlbum {
			err = s.gain.Album(ctx, group.completed)
		} else {
			err = s.gain.Track(ctx, group.completed)
		}
		if err != nil {
			s.logger.Error("gain pass failed",
				logging.String(logging.FieldDestination, dir), logging.Error(err))
			s.emit(Event{Type: EventGainSkipped, BatchID: batchID, Message: dir})
			continue
		}
		s.logger.Info("gain applied",
			logging.String(logging.FieldDestination, dir),
			logging.Int("files", len(group.completed)),
			logging.String("mode", s.gainMode))
		s.emit(Event{Type: EventGainApplied, BatchID: batchID, Message: dir})
	}
}
