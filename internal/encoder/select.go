package encoder

import "fmt"

// New returns the engine named by configuration.
func New(name, binary string, settings Settings, opts ...Option) (Engine, error) {
	switch name {
	case "ffmpeg":
		return NewFFmpeg(binary, settings, opts...)
	case "opusenc":
		return NewOpusenc(binary, settings, opts...)
	default:
		return nil, fmt.Errorf("unknown encoder engine %q", name)
	}
}
