package encoder

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"ohopus/internal/metadata"
	"ohopus/internal/services"
)

// FFmpeg encodes through ffmpeg's libopus. Text tags are written in the
// encode pass; an embedded picture needs a second stream-copy pass because
// ffmpeg cannot attach METADATA_BLOCK_PICTURE while encoding.
type FFmpeg struct {
	engineBase
}

// NewFFmpeg constructs the ffmpeg-backed engine.
func NewFFmpeg(binary string, settings Settings, opts ...Option) (*FFmpeg, error) {
	base, err := newEngineBase(binary, settings, opts)
	if err != nil {
		return nil, err
	}
	return &FFmpeg{engineBase: base}, nil
}

func (e *FFmpeg) Name() string {
	return "ffmpeg"
}

func (e *FFmpeg) Encode(ctx context.Context, req Request) error {
	const component = "encoder.ffmpeg"
	if err := prepareDest(component, req); err != nil {
		return err
	}

	tail := newStderrTail(0)
	opts := RunOptions{
		OnStderr:  tail.Append,
		OnStart:   req.OnStart,
		BufferKiB: e.settings.BufferKiB,
	}
	if req.OnProgress != nil && req.DurationSeconds > 0 {
		opts.OnStdout = progressForwarder(req.DurationSeconds, req.OnProgress)
	}

	if err := e.run(ctx, component, e.encodeArgs(req), opts, tail); err != nil {
		removePartial(req.DestPath)
		return err
	}

	if req.Tags.Picture != nil {
		if err := e.attachPicture(ctx, component, req); err != nil {
			removePartial(req.DestPath)
			return err
		}
	}
	return nil
}

func (e *FFmpeg) encodeArgs(req Request) []string {
	args := []string{
		"-y", "-hide_banner", "-nostdin", "-v", "error",
		"-progress", "pipe:1",
		"-i", req.SourcePath,
		"-map_metadata", "-1",
		"-vn",
		"-c:a", "libopus",
		"-b:a", fmt.Sprintf("%dk", req.Bitrate),
		"-vbr", vbrMode(e.settings.VBR),
		"-application", e.settings.Application,
		"-frame_duration", strconv.FormatFloat(e.settings.FrameSizeMS, 'f', -1, 64),
		"-compression_level", strconv.Itoa(e.settings.Complexity),
	}
	for _, key := range req.Tags.Keys() {
		// ffmpeg keeps only the last occurrence of a repeated -metadata key,
		// so multi-valued tags are flattened into one value here.
		value := strings.Join(req.Tags.Values(key), "; ")
		args = append(args, "-metadata", key+"="+value)
	}
	args = append(args, req.DestPath)
	return args
}

// attachPicture remuxes the encoded file with the picture comment added,
// then swaps it into place. A remux failure fails the whole job.
func (e *FFmpeg) attachPicture(ctx context.Context, component string, req Request) error {
	tmpPath := req.DestPath + ".pic.tmp.opus"
	args := []string{
		"-y", "-hide_banner", "-nostdin", "-v", "error",
		"-i", req.DestPath,
		"-c", "copy",
		"-metadata", metadata.PictureKey + "=" + req.Tags.Picture.Base64Block(),
		tmpPath,
	}

	tail := newStderrTail(0)
	opts := RunOptions{OnStderr: tail.Append, BufferKiB: e.settings.BufferKiB}
	if err := e.run(ctx, component, args, opts, tail); err != nil {
		removePartial(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, req.DestPath); err != nil {
		removePartial(tmpPath)
		return services.Wrap(services.ErrIO, component, "encode", "replace output with tagged copy", err)
	}
	return nil
}

func vbrMode(vbr bool) string {
	if vbr {
		return "on"
	}
	return "off"
}

// progressForwarder parses ffmpeg -progress key=value output and reports
// percent complete against the known source duration.
func progressForwarder(durationSeconds float64, report func(float64)) func(string) {
	return func(line string) {
		key, value, found := strings.Cut(strings.TrimSpace(line), "=")
		if !found {
			return
		}
		switch key {
		case "out_time_us":
			us, err := strconv.ParseInt(value, 10, 64)
			if err != nil || us < 0 {
				return
			}
			percent := float64(us) / 1e6 / durationSeconds * 100
			if percent > 100 {
				percent = 100
			}
			report(percent)
		case "progress":
			if value == "end" {
				report(100)
			}
		}
	}
}
