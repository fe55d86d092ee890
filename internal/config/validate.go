package config

import (
	"errors"
	"fmt"
)

// BitrateMin and BitrateMax bound the supported Opus bitrate range in kbps.
const (
	BitrateMin = 96
	BitrateMax = 256
)

var validEngines = map[string]struct{}{
	"ffmpeg":  {},
	"opusenc": {},
}

var validApplications = map[string]struct{}{
	"audio":    {},
	"voip":     {},
	"lowdelay": {},
}

var validFrameSizes = map[float64]struct{}{
	2.5: {},
	5:   {},
	10:  {},
	20:  {},
	40:  {},
	60:  {},
}

var validGainModes = map[string]struct{}{
	"off":   {},
	"track": {},
	"album": {},
}

var validGainTools = map[string]struct{}{
	"opusgain": {},
	"loudgain": {},
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateEncoder(); err != nil {
		return err
	}
	if err := c.validateReplayGain(); err != nil {
		return err
	}
	if c.Notifications.RequestTimeout <= 0 {
		return errors.New("notifications.request_timeout must be positive")
	}
	return nil
}

func (c *Config) validateEncoder() error {
	if _, ok := validEngines[c.Encoder.Engine]; !ok {
		return fmt.Errorf("encoder.engine must be one of ffmpeg, opusenc (got %q)", c.Encoder.Engine)
	}
	if c.Encoder.Bitrate < BitrateMin || c.Encoder.Bitrate > BitrateMax {
		return fmt.Errorf("encoder.bitrate must be within [%d, %d] kbps (got %d)", BitrateMin, BitrateMax, c.Encoder.Bitrate)
	}
	if _, ok := validApplications[c.Encoder.Application]; !ok {
		return fmt.Errorf("encoder.application must be one of audio, voip, lowdelay (got %q)", c.Encoder.Application)
	}
	if _, ok := validFrameSizes[c.Encoder.FrameSize]; !ok {
		return fmt.Errorf("encoder.frame_size must be one of 2.5, 5, 10, 20, 40, 60 (got %g)", c.Encoder.FrameSize)
	}
	if c.Encoder.Complexity < 0 || c.Encoder.Complexity > 10 {
		return fmt.Errorf("encoder.complexity must be within [0, 10] (got %d)", c.Encoder.Complexity)
	}
	if c.Encoder.Threads < 0 {
		return errors.New("encoder.threads must not be negative")
	}
	if c.Encoder.JobTimeout < 0 {
		return errors.New("encoder.job_timeout must not be negative")
	}
	return nil
}

func (c *Config) validateReplayGain() error {
	if _, ok := validGainModes[c.ReplayGain.Mode]; !ok {
		return fmt.Errorf("replaygain.mode must be one of off, track, album (got %q)", c.ReplayGain.Mode)
	}
	if _, ok := validGainTools[c.ReplayGain.Tool]; !ok {
		return fmt.Errorf("replaygain.tool must be one of opusgain, loudgain (got %q)", c.ReplayGain.Tool)
	}
	return nil
}
