package ytdl

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"io/ioutil"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/lbogdanov/stethoscope/pkg/model"
)

const (
	DefaultDownloadTimeout = 10 * time.Minute
	DefaultFormat          = "ba[ext=m4a]"

	// yt-dlp writes to this exact name since the template has no extension placeholder
	audioFileName = "audiotrack"
)

var (
	ErrTooManyRequests = errors.New(http.StatusText(http.StatusTooManyRequests))
)

// Config is the downloader configuration.
type Config struct {
	// Path to the yt-dlp binary, looked up in PATH when empty
	Path string `toml:"path"`
	// NetrcLocation is a directory or file with .netrc credentials, enables --netrc when set
	NetrcLocation string `toml:"netrc_location"`
	// Format selector passed to --format
	Format string `toml:"format"`
	// MimeType of the audio produced by Format
	MimeType string `toml:"mime_type"`
	// Timeout of a single fetch, such as "15m"
	Timeout time.Duration `toml:"timeout"`
	// CustomArgs are extra arguments passed to every yt-dlp invocation
	CustomArgs []string `toml:"custom_args"`
}

type YoutubeDl struct {
	path     string
	config   Config
	timeout  time.Duration
	mimeType string
	format   string
}

func New(ctx context.Context, cfg Config) (*YoutubeDl, error) {
	path := cfg.Path
	if path == "" {
		found, err := exec.LookPath("yt-dlp")
		if err != nil {
			return nil, errors.Wrap(err, "yt-dlp binary not found")
		}
		path = found
	}

	log.Debugf("found yt-dlp binary at %q", path)

	ytdl := &YoutubeDl{
		path:     path,
		config:   cfg,
		timeout:  cfg.Timeout,
		format:   cfg.Format,
		mimeType: cfg.MimeType,
	}

	if ytdl.timeout <= 0 {
		ytdl.timeout = DefaultDownloadTimeout
	}
	if ytdl.format == "" {
		ytdl.format = DefaultFormat
	}
	if ytdl.mimeType == "" {
		ytdl.mimeType = "audio/mp4"
	}

	// Make sure yt-dlp exists
	version, _, err := ytdl.exec(ctx, "--version")
	if err != nil {
		return nil, errors.Wrap(err, "could not find yt-dlp")
	}

	log.Infof("using yt-dlp %s", strings.TrimSpace(version))

	return ytdl, nil
}

// videoInfo is the subset of the --dump-json output we keep.
type videoInfo struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Duration    float64 `json:"duration"`
	Timestamp   int64   `json:"timestamp"`
	Epoch       int64   `json:"epoch"`
	Thumbnail   string  `json:"thumbnail"`
}

// Fetch downloads the audio track of a youtube video and reads its metadata.
// Metadata and audio are fetched by two concurrent yt-dlp runs.
// The returned reader removes the downloaded file on Close.
func (dl *YoutubeDl) Fetch(ctx context.Context, url string) (*model.Audio, io.ReadCloser, error) {
	tmpDir, err := ioutil.TempDir("", "stethoscope-")
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to get temp dir for download")
	}

	filePath := filepath.Join(tmpDir, audioFileName)

	var info videoInfo

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		stdout, stderr, err := dl.exec(groupCtx, dl.buildArgs("--dump-json", url)...)
		if err != nil {
			return dl.failure(err, stderr)
		}

		if err := json.Unmarshal([]byte(stdout), &info); err != nil {
			return errors.Wrap(err, "failed to decode yt-dlp metadata")
		}
		return nil
	})

	group.Go(func() error {
		_, stderr, err := dl.exec(groupCtx, dl.buildArgs("--format", dl.format, "--output", filePath, url)...)
		if err != nil {
			log.WithError(err).Errorf("yt-dlp error: %s", filePath)
			return dl.failure(err, stderr)
		}
		return nil
	})

	if err := group.Wait(); err != nil {
		_ = os.RemoveAll(tmpDir)
		return nil, nil, err
	}

	f, err := os.Open(filePath)
	if err != nil {
		_ = os.RemoveAll(tmpDir)
		return nil, nil, errors.Wrap(err, "failed to open downloaded file")
	}

	stat, err := f.Stat()
	if err != nil {
		_ = f.Close()
		_ = os.RemoveAll(tmpDir)
		return nil, nil, errors.Wrap(err, "failed to stat downloaded file")
	}

	audio := info.audio(stat.Size(), dl.mimeType)
	return audio, &tempFile{File: f, dir: tmpDir}, nil
}

func (info *videoInfo) audio(size int64, mimeType string) *model.Audio {
	published := info.Timestamp
	if published == 0 {
		published = info.Epoch
	}

	return &model.Audio{
		ID:           info.ID,
		Title:        info.Title,
		Description:  info.Description,
		Duration:     int64(info.Duration),
		Size:         size,
		Published:    time.Unix(published, 0).UTC(),
		ThumbnailURL: info.Thumbnail,
		MimeType:     mimeType,
	}
}

func (dl *YoutubeDl) failure(err error, stderr string) error {
	// YouTube might block host with HTTP Error 429: Too Many Requests
	if strings.Contains(stderr, "HTTP Error 429") {
		return ErrTooManyRequests
	}

	if msg := strings.TrimSpace(stderr); msg != "" {
		return errors.Wrapf(model.ErrUpstream, "%v: %s", err, msg)
	}

	return errors.Wrapf(model.ErrUpstream, "%v", err)
}

func (dl *YoutubeDl) buildArgs(args ...string) []string {
	var result []string

	if dl.config.NetrcLocation != "" {
		result = append(result, "--netrc", "--netrc-location", dl.config.NetrcLocation)
	}

	result = append(result, dl.config.CustomArgs...)
	return append(result, args...)
}

func (dl *YoutubeDl) exec(ctx context.Context, args ...string) (string, string, error) {
	ctx, cancel := context.WithTimeout(ctx, dl.timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, dl.path, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return stdout.String(), stderr.String(), errors.Wrap(err, "failed to execute yt-dlp")
	}

	return stdout.String(), stderr.String(), nil
}
