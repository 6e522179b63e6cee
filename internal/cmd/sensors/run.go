package sensorsrun

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sensorhop/relay/internal/bus"
	cfgpkg "github.com/sensorhop/relay/internal/config"
	"github.com/sensorhop/relay/internal/sensors"
	logpkg "github.com/sensorhop/relay/pkg/log"
)

type Options struct {
	Config cfgpkg.Config
}

// Run starts the simulated sensor fleet and blocks until ctx is cancelled.
func Run(ctx context.Context, opts Options, logger logpkg.Logger) error {
	sctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := bus.NewMQTTClient(opts.Config.Broker, "publisher", logger)
	defer client.Close()
	if err := client.Connect(sctx); err != nil {
		return err
	}

	fleet := sensors.DefaultFleet(client, logger)
	if err := sensors.StartFleet(sctx, fleet); err != nil {
		return err
	}
	logger.Info("Sensors started", logpkg.Int("count", len(fleet)))

	<-sctx.Done()
	return nil
}
