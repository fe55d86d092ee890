package encoder

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"ohopus/internal/services"
)

// Opusenc encodes through the reference opusenc binary. It embeds all tags
// in the single encode pass: repeated --comment flags preserve multi-valued
// tags and --picture carries the cover art, so no remux pass is needed.
// opusenc reports progress on a rewritten terminal line rather than
// parseable output, so incremental progress is not available; callers see
// 0% then completion.
type Opusenc struct {
	engineBase
}

// NewOpusenc constructs the opusenc-backed engine.
func NewOpusenc(binary string, settings Settings, opts ...Option) (*Opusenc, error) {
	base, err := newEngineBase(binary, settings, opts)
	if err != nil {
		return nil, err
	}
	return &Opusenc{engineBase: base}, nil
}

func (e *Opusenc) Name() string {
	return "opusenc"
}

func (e *Opusenc) Encode(ctx context.Context, req Request) error {
	const component = "encoder.opusenc"
	if err := prepareDest(component, req); err != nil {
		return err
	}

	var pictureFile string
	if req.Tags.Picture != nil {
		path, err := writePictureFile(req.Tags.Picture.Data)
		if err != nil {
			return services.Wrap(services.ErrIO, component, "encode", "write picture temp file", err)
		}
		pictureFile = path
		defer os.Remove(pictureFile)
	}

	tail := newStderrTail(0)
	opts := RunOptions{
		OnStderr:  tail.Append,
		OnStart:   req.OnStart,
		BufferKiB: e.settings.BufferKiB,
	}
	if err := e.run(ctx, component, e.encodeArgs(req, pictureFile), opts, tail); err != nil {
		removePartial(req.DestPath)
		return err
	}
	if req.OnProgress != nil {
		req.OnProgress(100)
	}
	return nil
}

func (e *Opusenc) encodeArgs(req Request, pictureFile string) []string {
	args := []string{
		"--quiet",
		"--bitrate", strconv.Itoa(req.Bitrate),
		"--comp", strconv.Itoa(e.settings.Complexity),
		"--framesize", strconv.FormatFloat(e.settings.FrameSizeMS, 'f', -1, 64),
		"--discard-comments",
		"--discard-pictures",
	}
	if e.settings.VBR {
		args = append(args, "--vbr")
	} else {
		args = append(args, "--hard-cbr")
	}
	switch e.settings.Application {
	case "audio":
		args = append(args, "--music")
	case "voip":
		args = append(args, "--speech")
	}

	for _, tag := range req.Tags.Tags {
		args = append(args, "--comment", tag.Key+"="+tag.Value)
	}
	if pictureFile != "" {
		pic := req.Tags.Picture
		args = append(args, "--picture",
			fmt.Sprintf("%d|%s|%s||%s", pic.PictureType, pic.MIME, pic.Description, pictureFile))
	}

	return append(args, req.SourcePath, req.DestPath)
}

func writePictureFile(data []byte) (string, error) {
	f, err := os.CreateTemp("", "ohopus-picture-*")
	if err != nil {
		return "", err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return filepath.Clean(f.Name()), nil
}
