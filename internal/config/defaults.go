package config

const (
	defaultStateDir       = "~/.local/share/ohopus/state"
	defaultLogDir         = "~/.local/share/ohopus/logs"
	defaultEngine         = "ffmpeg"
	defaultBitrate        = 160
	defaultApplication    = "audio"
	defaultFrameSize      = 20.0
	defaultComplexity     = 10
	defaultBufferKiB      = 256
	defaultJobTimeout     = 1800
	defaultReplayGainMode = "off"
	defaultReplayGainTool = "opusgain"
	defaultNotifyTimeout  = 10
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
		},
		Encoder: Encoder{
			Engine:      defaultEngine,
			Bitrate:     defaultBitrate,
			VBR:         true,
			Application: defaultApplication,
			FrameSize:   defaultFrameSize,
			Complexity:  defaultComplexity,
			BufferKiB:   defaultBufferKiB,
			JobTimeout:  defaultJobTimeout,
		},
		ReplayGain: ReplayGain{
			Mode: defaultReplayGainMode,
			Tool: defaultReplayGainTool,
		},
		Conversion: Conversion{
			SkipExisting: true,
			GenreBoost:   true,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
