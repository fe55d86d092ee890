package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeBinaries(); err != nil {
		return err
	}
	c.normalizeEncoder()
	c.normalizeReplayGain()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.SourceDir, err = expandPath(c.Paths.SourceDir); err != nil {
		return fmt.Errorf("paths.source_dir: %w", err)
	}
	if c.Paths.DestDir, err = expandPath(c.Paths.DestDir); err != nil {
		return fmt.Errorf("paths.dest_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeBinaries() error {
	fields := []struct {
		name  string
		value *string
	}{
		{"binaries.ffmpeg", &c.Binaries.FFmpeg},
		{"binaries.ffprobe", &c.Binaries.FFprobe},
		{"binaries.opusenc", &c.Binaries.Opusenc},
		{"binaries.opusgain", &c.Binaries.Opusgain},
		{"binaries.loudgain", &c.Binaries.Loudgain},
	}
	for _, field := range fields {
		trimmed := strings.TrimSpace(*field.value)
		if trimmed == "" {
			*field.value = ""
			continue
		}
		// Bare names stay as PATH lookups; anything with a separator is a file path.
		if !strings.ContainsAny(trimmed, "/\\") {
			*field.value = trimmed
			continue
		}
		expanded, err := expandPath(trimmed)
		if err != nil {
			return fmt.Errorf("%s: %w", field.name, err)
		}
		*field.value = expanded
	}
	return nil
}

func (c *Config) normalizeEncoder() {
	c.Encoder.Engine = strings.ToLower(strings.TrimSpace(c.Encoder.Engine))
	if c.Encoder.Engine == "" {
		c.Encoder.Engine = defaultEngine
	}
	c.Encoder.Application = strings.ToLower(strings.TrimSpace(c.Encoder.Application))
	if c.Encoder.Application == "" {
		c.Encoder.Application = defaultApplication
	}
	if c.Encoder.FrameSize == 0 {
		c.Encoder.FrameSize = defaultFrameSize
	}
	if c.Encoder.BufferKiB <= 0 {
		c.Encoder.BufferKiB = defaultBufferKiB
	}
}

func (c *Config) normalizeReplayGain() {
	c.ReplayGain.Mode = strings.ToLower(strings.TrimSpace(c.ReplayGain.Mode))
	if c.ReplayGain.Mode == "" {
		c.ReplayGain.Mode = defaultReplayGainMode
	}
	c.ReplayGain.Tool = strings.ToLower(strings.TrimSpace(c.ReplayGain.Tool))
	if c.ReplayGain.Tool == "" {
		c.ReplayGain.Tool = defaultReplayGainTool
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
