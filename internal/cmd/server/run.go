package serverrun

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/sensorhop/relay/internal/bus"
	cfgpkg "github.com/sensorhop/relay/internal/config"
	"github.com/sensorhop/relay/internal/fanout"
	"github.com/sensorhop/relay/internal/relay"
	httpserver "github.com/sensorhop/relay/internal/server/http"
	"github.com/sensorhop/relay/internal/server/http/controllers"
	"github.com/sensorhop/relay/internal/snapshot"
	pebblestore "github.com/sensorhop/relay/internal/storage/pebble"
	logpkg "github.com/sensorhop/relay/pkg/log"
)

func getenvDefault(key, def string) string {
	if v := getenv(key); v != "" {
		return v
	}
	return def
}

// small wrapper to allow testing; replaced by os.Getenv at build time
var getenv = func(key string) string { return os.Getenv(key) }

type Options struct {
	DataDir       string
	Fsync         pebblestore.FsyncMode
	FsyncInterval time.Duration
	Config        cfgpkg.Config
}

// Run starts the relay and its HTTP server and blocks until ctx is cancelled.
func Run(ctx context.Context, opts Options) error {
	// Be robust to callers that don't pass a signal-aware context; layer a
	// local signal context over the provided one.
	sctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	if opts.DataDir == "" {
		opts.DataDir = opts.Config.DataDir
	}
	if opts.DataDir == "" {
		opts.DataDir = cfgpkg.DefaultDataDir()
	}

	// Build process-wide logger using env/ApplyConfig; defaults: level=info, format=text
	cfg := &logpkg.Config{
		Level:  getenvDefault("RELAY_LOG_LEVEL", "info"),
		Format: getenvDefault("RELAY_LOG_FORMAT", "text"),
	}
	procLogger, err := logpkg.ApplyConfig(cfg)
	if err != nil {
		lvl := logpkg.InfoLevel
		if l, e := logpkg.ParseLevel(cfg.Level); e == nil {
			lvl = l
		}
		procLogger = logpkg.NewLogger(logpkg.WithLevel(lvl), logpkg.WithFormatter(&logpkg.TextFormatter{}))
	}

	// Redirect stdlib logs (e.g., Pebble) to our logger
	logpkg.RedirectStdLog(procLogger)

	procLogger.Info("Starting relay",
		logpkg.Str("name", opts.Config.RelayName),
		logpkg.Str("broker", opts.Config.Broker.URL()),
		logpkg.Str("http", opts.Config.HTTPAddr),
		logpkg.Int("topics", len(opts.Config.SensorTopics)),
		logpkg.Str("level", cfg.Level),
		logpkg.Str("format", cfg.Format),
	)

	storeDir := filepath.Join(opts.DataDir, "store")
	db, err := pebblestore.Open(pebblestore.Options{
		DataDir:       storeDir,
		Fsync:         opts.Fsync,
		FsyncInterval: opts.FsyncInterval,
	})
	if err != nil {
		return err
	}
	defer db.Close()

	snaps, err := snapshot.Open(db)
	if err != nil {
		return err
	}

	events := fanout.New(opts.Config.SessionBuf, procLogger)
	defer events.Close()

	client := bus.NewMQTTClient(opts.Config.Broker, opts.Config.RelayName, procLogger)
	defer client.Close()

	rl := relay.New(relay.Options{
		Name:      opts.Config.RelayName,
		Topics:    opts.Config.SensorTopics,
		Client:    client,
		Snapshots: snaps,
		Events:    events,
		Logger:    procLogger,
	})
	if err := rl.Start(sctx); err != nil {
		return err
	}

	hsrv := httpserver.New(controllers.Deps{
		RelayName: opts.Config.RelayName,
		Client:    client,
		Events:    events,
		Snapshots: snaps,
		Logger:    procLogger,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- hsrv.ListenAndServe(sctx, opts.Config.HTTPAddr)
	}()

	select {
	case <-sctx.Done():
	case err := <-errCh:
		if err != nil && sctx.Err() == nil {
			return err
		}
	}
	hsrv.Close()
	return nil
}
