package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/lbogdanov/stethoscope/pkg/db"
	"github.com/lbogdanov/stethoscope/pkg/feed"
	"github.com/lbogdanov/stethoscope/pkg/fs"
	"github.com/lbogdanov/stethoscope/pkg/pipeline"
	"github.com/lbogdanov/stethoscope/pkg/remote"
	"github.com/lbogdanov/stethoscope/pkg/server"
	"github.com/lbogdanov/stethoscope/pkg/ytdl"
)

type Opts struct {
	ConfigPath string `long:"config" short:"c" default:"config.toml" env:"STETHOSCOPE_CONFIG_PATH"`
	Debug      bool   `long:"debug"`
	NoBanner   bool   `long:"no-banner"`
}

const banner = `
     _       _   _                                   
 ___| |_ ___| |_| |__   ___  ___  ___ ___  _ __   ___ 
/ __| __/ _ \ __| '_ \ / _ \/ __|/ __/ _ \| '_ \ / _ \
\__ \ ||  __/ |_| | | | (_) \__ \ (_| (_) | |_) |  __/
|___/\__\___|\__|_| |_|\___/|___/\___\___/| .__/ \___|
                                          |_|         
`

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	log.SetFormatter(&log.TextFormatter{
		TimestampFormat: time.RFC3339,
		FullTimestamp:   true,
	})

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Parse args
	opts := Opts{}
	_, err := flags.Parse(&opts)
	if err != nil {
		log.WithError(err).Fatal("failed to parse command line arguments")
	}

	if opts.Debug {
		log.SetLevel(log.DebugLevel)
	}

	if !opts.NoBanner {
		log.Info(banner)
	}

	log.WithFields(log.Fields{
		"version": version,
		"commit":  commit,
		"date":    date,
	}).Info("running stethoscope")

	// Load TOML file
	log.Debugf("loading configuration %q", opts.ConfigPath)
	cfg, err := LoadConfig(opts.ConfigPath)
	if err != nil {
		log.WithError(err).Fatal("failed to load configuration file")
	}

	if cfg.Log.Filename != "" {
		log.Infof("writing logs to %s", cfg.Log.Filename)

		log.SetOutput(&lumberjack.Logger{
			Filename:   cfg.Log.Filename,
			MaxSize:    cfg.Log.MaxSize,
			MaxBackups: cfg.Log.MaxBackups,
			MaxAge:     cfg.Log.MaxAge,
			Compress:   cfg.Log.Compress,
		})
	}

	catalog, err := db.NewCatalog(&cfg.Database)
	if err != nil {
		log.WithError(err).Fatal("failed to open catalog")
	}

	defer func() {
		if err := catalog.Close(); err != nil {
			log.WithError(err).Error("failed to close catalog")
		}
	}()

	ledger, err := db.NewLedger(&cfg.Database)
	if err != nil {
		log.WithError(err).Fatal("failed to open task ledger")
	}

	defer func() {
		if err := ledger.Close(); err != nil {
			log.WithError(err).Error("failed to close task ledger")
		}
	}()

	storage, err := fs.New(ctx, cfg.Storage)
	if err != nil {
		log.WithError(err).Fatal("failed to create object store")
	}

	downloader, err := ytdl.New(ctx, cfg.Downloader)
	if err != nil {
		log.WithError(err).Fatal("yt-dlp error")
	}

	prober, err := remote.NewFFprobe(cfg.Tagger)
	if err != nil {
		log.WithError(err).Fatal("ffprobe error")
	}

	client := &http.Client{}

	service := pipeline.New(pipeline.Config{
		UploadTTL:     cfg.Storage.UploadTTL,
		DownloadTTL:   cfg.Storage.DownloadTTL,
		BookThumbnail: cfg.Server.BookThumbnail,
		Workers:       cfg.Tasks.Workers,
		QueueSize:     cfg.Tasks.QueueSize,
		MaxAttempts:   cfg.Tasks.MaxAttempts,
		Hooks:         cfg.Hooks,
	}, pipeline.Deps{
		Catalog: catalog,
		Ledger:  ledger,
		Storage: storage,
		Fetcher: downloader,
		Tagger:  remote.NewReader(client, prober),
	})

	builder := feed.NewBuilder(cfg.Feed, cfg.Server.Hostname, catalog)

	if _, err := service.Resume(ctx); err != nil {
		log.WithError(err).Fatal("failed to resume pending tasks")
	}

	group, ctx := errgroup.WithContext(ctx)

	// Run background tasks
	group.Go(func() error {
		return service.Run(ctx)
	})

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))

	group.Go(func() error {
		defer func() {
			log.Info("shutting down cron")
			<-c.Stop().Done()
		}()

		_, err := c.AddFunc(cfg.Tasks.RetrySchedule, func() {
			count, err := service.RetryFailed(ctx)
			if err != nil {
				log.WithError(err).Error("failed to retry tasks")
				return
			}

			if count > 0 {
				log.Infof("queued %d task(s) for retry", count)
			}
		})
		if err != nil {
			return err
		}

		log.Debugf("retrying failed tasks %s", cfg.Tasks.RetrySchedule)
		c.Start()

		<-ctx.Done()
		return ctx.Err()
	})

	// Run web server
	srv := server.New(cfg.Server, service, builder)

	group.Go(func() error {
		return srv.Serve(ctx)
	})

	group.Go(func() error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			cancel()
			return nil
		}
	})

	if err := group.Wait(); err != nil && (err != context.Canceled && err != http.ErrServerClosed) {
		log.WithError(err).Error("wait error")
	}

	log.Info("gracefully stopped")
}
