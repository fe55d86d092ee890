package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	SourceDir string `toml:"source_dir"`
	DestDir   string `toml:"dest_dir"`
	StateDir  string `toml:"state_dir"`
	LogDir    string `toml:"log_dir"`
}

// Encoder contains the encode settings captured as the batch snapshot.
type Encoder struct {
	Engine      string  `toml:"engine"`
	Bitrate     int     `toml:"bitrate"`
	VBR         bool    `toml:"vbr"`
	Application string  `toml:"application"`
	FrameSize   float64 `toml:"frame_size"`
	Complexity  int     `toml:"complexity"`
	Threads     int     `toml:"threads"`
	BufferKiB   int     `toml:"buffer_kib"`
	JobTimeout  int     `toml:"job_timeout"`
}

// Binaries contains per-tool executable path overrides. Empty values fall
// back to PATH lookup of the conventional names.
type Binaries struct {
	FFmpeg   string `toml:"ffmpeg"`
	FFprobe  string `toml:"ffprobe"`
	Opusenc  string `toml:"opusenc"`
	Opusgain string `toml:"opusgain"`
	Loudgain string `toml:"loudgain"`
}

// ReplayGain contains loudness-analysis settings for the optional post-pass.
type ReplayGain struct {
	Mode string `toml:"mode"`
	Tool string `toml:"tool"`
}

// Conversion contains batch behavior switches.
type Conversion struct {
	SkipExisting bool `toml:"skip_existing"`
	GenreBoost   bool `toml:"genre_boost"`
}

// Notifications contains ntfy push notification settings.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for ohopus.
//
// Configuration sections by subsystem:
//   - Paths: source/destination roots plus state and log directories
//   - Encoder: engine selection and encode parameters (one immutable
//     snapshot per batch run)
//   - Binaries: external tool path overrides
//   - ReplayGain: loudness analysis mode and tool
//   - Conversion: skip-existing and genre-boost switches
//   - Notifications: ntfy batch completion/error pushes
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Encoder       Encoder       `toml:"encoder"`
	Binaries      Binaries      `toml:"binaries"`
	ReplayGain    ReplayGain    `toml:"replaygain"`
	Conversion    Conversion    `toml:"conversion"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/ohopus/config.toml")
}

// Load locates, parses, normalizes, and validates a configuration file. The
// returned config has all path fields expanded.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err = os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("ohopus.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the state and log directories. The destination
// root is created best-effort so config load works when external storage is
// temporarily unavailable.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if strings.TrimSpace(c.Paths.DestDir) != "" {
		_ = os.MkdirAll(c.Paths.DestDir, 0o755)
	}
	return nil
}

// FFmpegBinary returns the configured ffmpeg executable or the PATH name.
func (c *Config) FFmpegBinary() string {
	return binaryOrDefault(c.Binaries.FFmpeg, "ffmpeg")
}

// FFprobeBinary returns the configured ffprobe executable or the PATH name.
func (c *Config) FFprobeBinary() string {
	return binaryOrDefault(c.Binaries.FFprobe, "ffprobe")
}

// OpusencBinary returns the configured opusenc executable or the PATH name.
func (c *Config) OpusencBinary() string {
	return binaryOrDefault(c.Binaries.Opusenc, "opusenc")
}

// GainBinary returns the executable for the configured ReplayGain tool.
func (c *Config) GainBinary() string {
	if c.ReplayGain.Tool == "loudgain" {
		return binaryOrDefault(c.Binaries.Loudgain, "loudgain")
	}
	return binaryOrDefault(c.Binaries.Opusgain, "opusgain")
}

func binaryOrDefault(override, fallback string) string {
	if trimmed := strings.TrimSpace(override); trimmed != "" {
		return trimmed
	}
	return fallback
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
