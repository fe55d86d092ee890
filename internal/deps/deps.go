package deps

import (
	"fmt"
	"os/exec"
	"strings"

	"ohopus/internal/config"
)

// Requirement defines an external binary the converter relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a requirement.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// Requirements builds the dependency list for a configuration. Only the
// binaries the active engine and gain mode would invoke are mandatory.
func Requirements(cfg *config.Config) []Requirement {
	ffmpegOptional := cfg.Encoder.Engine != "ffmpeg"
	reqs := []Requirement{
		{
			Name:        "FFmpeg",
			Command:     cfg.FFmpegBinary(),
			Description: "libopus encode engine and picture tag pass",
			Optional:    ffmpegOptional,
		},
		{
			Name:        "FFprobe",
			Command:     cfg.FFprobeBinary(),
			Description: "duration probing for progress reporting",
			Optional:    true,
		},
		{
			Name:        "opusenc",
			Command:     cfg.OpusencBinary(),
			Description: "opus-tools encode engine",
			Optional:    cfg.Encoder.Engine != "opusenc",
		},
	}
	gainName := "opusgain"
	if cfg.ReplayGain.Tool == "loudgain" {
		gainName = "loudgain"
	}
	reqs = append(reqs, Requirement{
		Name:        gainName,
		Command:     cfg.GainBinary(),
		Description: "ReplayGain loudness analysis",
		Optional:    cfg.ReplayGain.Mode == "off",
	})
	return reqs
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		if _, err := exec.LookPath(cmd); err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		results = append(results, status)
	}
	return results
}
