package main

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	sensorsrun "github.com/sensorhop/relay/internal/cmd/sensors"
	serverrun "github.com/sensorhop/relay/internal/cmd/server"
	cfgpkg "github.com/sensorhop/relay/internal/config"
	pebblestore "github.com/sensorhop/relay/internal/storage/pebble"
	logpkg "github.com/sensorhop/relay/pkg/log"
)

func main() {
	// initialize logger for CLI; respect RELAY_LOG_LEVEL for CLI output
	level := os.Getenv("RELAY_LOG_LEVEL")
	parsed, err := logpkg.ParseLevel(level)
	if err != nil || level == "" {
		parsed = logpkg.InfoLevel
	}
	logger := logpkg.NewLogger(
		logpkg.WithLevel(parsed),
		logpkg.WithFormatter(&logpkg.TextFormatter{}),
		logpkg.WithOutput(logpkg.NewConsoleOutput()),
	)
	logpkg.RedirectStdLog(logger)

	rootCmd := &cobra.Command{
		Use:   "relay",
		Short: "Sensor relay CLI",
		Long:  "relay annotates MQTT telemetry with transport hops, acknowledges readings and streams the hop events to live viewers.",
	}

	rootCmd.AddCommand(newServerCommand())
	rootCmd.AddCommand(newSensorsCommand(logger))
	rootCmd.AddCommand(newTailCommand())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newServerCommand() *cobra.Command {
	serverCmd := &cobra.Command{Use: "server", Short: "Server commands"}
	startCmd := &cobra.Command{
		Use:     "start",
		Short:   "Start the relay server (MQTT bridge + HTTP)",
		Aliases: []string{"run"},
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			dataDir, _ := cmd.Flags().GetString("data-dir")
			name, _ := cmd.Flags().GetString("name")
			broker, _ := cmd.Flags().GetString("broker")
			port, _ := cmd.Flags().GetInt("port")
			httpAddr, _ := cmd.Flags().GetString("http")
			topics, _ := cmd.Flags().GetStringSlice("topics")
			sessionBuf, _ := cmd.Flags().GetInt("session-buf")
			fsyncMode, _ := cmd.Flags().GetString("fsync")
			fsyncIntervalMs, _ := cmd.Flags().GetInt("fsync-interval-ms")
			logLevel, _ := cmd.Flags().GetString("log-level")
			logFormat, _ := cmd.Flags().GetString("log-format")

			mode := pebblestore.FsyncModeAlways
			switch fsyncMode {
			case "never":
				mode = pebblestore.FsyncModeNever
			case "interval":
				mode = pebblestore.FsyncModeInterval
			case "always":
				mode = pebblestore.FsyncModeAlways
			default:
				return fmt.Errorf("invalid --fsync; use always|interval|never")
			}

			cfg := cfgpkg.Default()
			if configPath != "" {
				loaded, err := cfgpkg.Load(configPath)
				if err != nil {
					return err
				}
				cfg = loaded
			}
			cfgpkg.FromEnv(&cfg)
			if name != "" {
				cfg.RelayName = name
			}
			if broker != "" {
				cfg.Broker.Addr = broker
			}
			if port > 0 {
				cfg.Broker.Port = port
			}
			if httpAddr != "" {
				cfg.HTTPAddr = httpAddr
			}
			if len(topics) > 0 {
				cfg.SensorTopics = topics
			}
			if sessionBuf > 0 {
				cfg.SessionBuf = sessionBuf
			}
			if logLevel != "" {
				_ = os.Setenv("RELAY_LOG_LEVEL", logLevel)
			}
			if logFormat != "" {
				_ = os.Setenv("RELAY_LOG_FORMAT", logFormat)
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			if err := serverrun.Run(ctx, serverrun.Options{
				DataDir:       dataDir,
				Fsync:         mode,
				FsyncInterval: time.Duration(fsyncIntervalMs) * time.Millisecond,
				Config:        cfg,
			}); err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			// brief delay to allow logs flush
			time.Sleep(100 * time.Millisecond)
			return nil
		},
	}
	startCmd.Flags().String("config", "", "Path to JSON config file")
	startCmd.Flags().String("data-dir", "", "Data directory (if not specified, uses OS-specific application data directory)")
	startCmd.Flags().String("name", "", "Relay name used in events and acks (default dashboard)")
	startCmd.Flags().String("broker", "", "MQTT broker host (default localhost)")
	startCmd.Flags().Int("port", 0, "MQTT broker port (default 1883)")
	startCmd.Flags().String("http", "", "HTTP listen address (default :8080)")
	startCmd.Flags().StringSlice("topics", nil, "Sensor topic filters to watch")
	startCmd.Flags().Int("session-buf", func() int { v, _ := strconv.Atoi(os.Getenv("RELAY_SESSION_BUF")); return v }(), "Event buffer per viewer session (default 1024)")
	startCmd.Flags().String("fsync", "always", "Fsync mode: always|interval|never")
	startCmd.Flags().Int("fsync-interval-ms", 5, "When --fsync=interval, group-commit window in ms (default 5)")
	startCmd.Flags().String("log-level", os.Getenv("RELAY_LOG_LEVEL"), "Log level: debug|info|warn|error")
	startCmd.Flags().String("log-format", os.Getenv("RELAY_LOG_FORMAT"), "Log format: text|json (default text)")
	serverCmd.AddCommand(startCmd)
	return serverCmd
}

func newSensorsCommand(logger logpkg.Logger) *cobra.Command {
	sensorsCmd := &cobra.Command{Use: "sensors", Short: "Sensor fleet commands"}
	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Start the simulated home sensor fleet",
		RunE: func(cmd *cobra.Command, args []string) error {
			broker, _ := cmd.Flags().GetString("broker")
			port, _ := cmd.Flags().GetInt("port")

			cfg := cfgpkg.Default()
			cfgpkg.FromEnv(&cfg)
			if broker != "" {
				cfg.Broker.Addr = broker
			}
			if port > 0 {
				cfg.Broker.Port = port
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			return sensorsrun.Run(ctx, sensorsrun.Options{Config: cfg}, logger)
		},
	}
	startCmd.Flags().String("broker", "", "MQTT broker host (default localhost)")
	startCmd.Flags().Int("port", 0, "MQTT broker port (default 1883)")
	sensorsCmd.AddCommand(startCmd)
	return sensorsCmd
}

func newTailCommand() *cobra.Command {
	tailCmd := &cobra.Command{
		Use:   "tail",
		Short: "Tail the relay's hop-event stream",
		RunE: func(cmd *cobra.Command, args []string) error {
			base, _ := cmd.Flags().GetString("url")
			filter, _ := cmd.Flags().GetString("filter")

			u := base + "/v1/events/stream"
			if filter != "" {
				u += "?filter=" + url.QueryEscape(filter)
			}
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
			if err != nil {
				return err
			}
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("stream returned %s", resp.Status)
			}

			sc := bufio.NewScanner(resp.Body)
			sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
			for sc.Scan() {
				line := sc.Text()
				if strings.HasPrefix(line, "data: ") {
					fmt.Println(strings.TrimPrefix(line, "data: "))
				}
			}
			if ctx.Err() != nil {
				return nil
			}
			return sc.Err()
		},
	}
	tailCmd.Flags().String("url", apiURL(), "Relay HTTP base URL")
	tailCmd.Flags().String("filter", "", "CEL filter expression, e.g. direction == \"broker->publisher\"")
	return tailCmd
}

func apiURL() string {
	if v := os.Getenv("RELAY_HTTP_URL"); v != "" {
		return v
	}
	return "http://127.0.0.1:8080"
}
