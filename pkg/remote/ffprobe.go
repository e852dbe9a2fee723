package remote

import (
	"context"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/lbogdanov/stethoscope/pkg/model"
)

const DefaultProbeTimeout = 2 * time.Minute

// Config configures the ffprobe executable used to measure durations.
type Config struct {
	// FFprobePath is the ffprobe binary, looked up in PATH when empty
	FFprobePath string `toml:"ffprobe_path"`
	// Timeout of a single probe, such as "90s" or "2m"
	Timeout time.Duration `toml:"timeout"`
}

// FFprobe measures media duration. ffprobe reads remote files with range requests itself.
type FFprobe struct {
	path    string
	timeout time.Duration
}

func NewFFprobe(cfg Config) (*FFprobe, error) {
	path := cfg.FFprobePath
	if path == "" {
		found, err := exec.LookPath("ffprobe")
		if err != nil {
			return nil, errors.Wrap(err, "ffprobe binary not found")
		}
		path = found
	}

	log.Debugf("found ffprobe binary at %q", path)

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}

	return &FFprobe{path: path, timeout: timeout}, nil
}

// Duration returns the media duration in seconds.
func (p *FFprobe) Duration(ctx context.Context, url string) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	args := []string{
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		url,
	}

	output, err := exec.CommandContext(ctx, p.path, args...).Output()
	if err != nil {
		return 0, errors.Wrapf(model.ErrUpstream, "ffprobe failed: %v", err)
	}

	return parseDuration(string(output))
}

func parseDuration(output string) (float64, error) {
	value := strings.TrimSpace(output)
	if value == "" || value == "N/A" {
		return 0, errors.Wrap(model.ErrUpstream, "ffprobe reported no duration")
	}

	// Some containers report one line per program, the first one wins
	if idx := strings.IndexByte(value, '\n'); idx >= 0 {
		value = strings.TrimSpace(value[:idx])
	}

	seconds, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, errors.Wrapf(model.ErrUpstream, "unexpected ffprobe output %q", value)
	}

	return seconds, nil
}
