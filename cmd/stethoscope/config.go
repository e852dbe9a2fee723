package main

import (
	"fmt"
	"io/ioutil"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/pelletier/go-toml"
	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"

	"github.com/lbogdanov/stethoscope/pkg/db"
	"github.com/lbogdanov/stethoscope/pkg/feed"
	"github.com/lbogdanov/stethoscope/pkg/fs"
	"github.com/lbogdanov/stethoscope/pkg/model"
	"github.com/lbogdanov/stethoscope/pkg/pipeline"
	"github.com/lbogdanov/stethoscope/pkg/remote"
	"github.com/lbogdanov/stethoscope/pkg/server"
	"github.com/lbogdanov/stethoscope/pkg/ytdl"
)

type Config struct {
	// Server is the web server configuration
	Server server.Config `toml:"server"`
	// Log is the optional logging configuration
	Log Log `toml:"log"`
	// Database configuration
	Database db.Config `toml:"database"`
	// Storage is the object store holding audio files
	Storage fs.Config `toml:"storage"`
	// Downloader (yt-dlp) configuration
	Downloader ytdl.Config `toml:"downloader"`
	// Tagger configures duration probing of uploaded chapters
	Tagger remote.Config `toml:"tagger"`
	// Tasks tunes background processing
	Tasks Tasks `toml:"tasks"`
	// Feed is the podcast metadata shared by all feeds
	Feed feed.Config `toml:"feed"`
	// Hooks run after every finished background task
	Hooks []*pipeline.ExecHook `toml:"hooks"`
}

type Log struct {
	// Filename to write the log to (instead of stdout)
	Filename string `toml:"filename"`
	// MaxSize is the maximum size of the log file in MB
	MaxSize int `toml:"max_size"`
	// MaxBackups is the maximum number of log file backups to keep after rotation
	MaxBackups int `toml:"max_backups"`
	// MaxAge is the maximum number of days to keep the logs for
	MaxAge int `toml:"max_age"`
	// Compress old backups
	Compress bool `toml:"compress"`
}

type Tasks struct {
	// Workers is the number of background tasks run at once
	Workers int `toml:"workers"`
	// QueueSize bounds the number of queued tasks
	QueueSize int `toml:"queue_size"`
	// RetrySchedule is a cron expression for the failed task sweep
	RetrySchedule string `toml:"retry_schedule"`
	// MaxAttempts is how many times a task runs before it is given up
	MaxAttempts int `toml:"max_attempts"`
}

// LoadConfig loads TOML configuration from a file path
func LoadConfig(path string) (*Config, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read config file: %s", path)
	}

	config := Config{}
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal toml")
	}

	config.applyDefaults(path)

	if err := config.validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) validate() error {
	var result *multierror.Error

	if !strings.HasPrefix(c.Server.Hostname, "http://") && !strings.HasPrefix(c.Server.Hostname, "https://") {
		result = multierror.Append(result, errors.Errorf("hostname %q must be an http(s) URL", c.Server.Hostname))
	}

	switch c.Storage.Backend {
	case fs.BackendS3:
		if c.Storage.S3.Bucket == "" {
			result = multierror.Append(result, errors.New("s3 bucket is required"))
		}
	case fs.BackendGCS:
		if c.Storage.GCS.Bucket == "" {
			result = multierror.Append(result, errors.New("gcs bucket is required"))
		}
	default:
		result = multierror.Append(result, errors.Errorf("unsupported storage backend %q", c.Storage.Backend))
	}

	if _, err := cron.ParseStandard(c.Tasks.RetrySchedule); err != nil {
		result = multierror.Append(result, errors.Wrapf(err, "invalid retry schedule %q", c.Tasks.RetrySchedule))
	}

	if len(c.Server.Protected) > 0 && len(c.Server.Accounts) == 0 {
		result = multierror.Append(result, errors.New("protected paths require at least one account"))
	}

	for i, hook := range c.Hooks {
		if len(hook.Command) == 0 {
			result = multierror.Append(result, errors.Errorf("hook %d has no command", i))
		}
	}

	return result.ErrorOrNil()
}

func (c *Config) applyDefaults(configPath string) {
	if c.Server.Hostname == "" {
		if c.Server.Port != 0 && c.Server.Port != 80 {
			c.Server.Hostname = fmt.Sprintf("http://localhost:%d", c.Server.Port)
		} else {
			c.Server.Hostname = "http://localhost"
		}
	}

	if c.Log.Filename != "" {
		if c.Log.MaxSize == 0 {
			c.Log.MaxSize = model.DefaultLogMaxSize
		}
		if c.Log.MaxAge == 0 {
			c.Log.MaxAge = model.DefaultLogMaxAge
		}
		if c.Log.MaxBackups == 0 {
			c.Log.MaxBackups = model.DefaultLogMaxBackups
		}
	}

	if c.Database.Dir == "" {
		c.Database.Dir = filepath.Join(filepath.Dir(configPath), "db")
	}

	if c.Storage.Backend == "" {
		c.Storage.Backend = fs.BackendS3
	}
	if c.Storage.UploadTTL == 0 {
		c.Storage.UploadTTL = model.DefaultUploadTTL
	}
	if c.Storage.DownloadTTL == 0 {
		c.Storage.DownloadTTL = model.DefaultDownloadTTL
	}

	if c.Tasks.Workers == 0 {
		c.Tasks.Workers = model.DefaultWorkers
	}
	if c.Tasks.QueueSize == 0 {
		c.Tasks.QueueSize = model.DefaultQueueSize
	}
	if c.Tasks.MaxAttempts == 0 {
		c.Tasks.MaxAttempts = model.DefaultMaxAttempts
	}
	if c.Tasks.RetrySchedule == "" {
		c.Tasks.RetrySchedule = model.DefaultRetrySchedule
	}
}
