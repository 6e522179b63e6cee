package config

import (
	"os"
	"strconv"
	"strings"
)

// FromEnv overlays RELAY_* environment variables onto cfg.
func FromEnv(cfg *Config) {
	if v := os.Getenv("RELAY_NAME"); v != "" {
		cfg.RelayName = v
	}
	if v := os.Getenv("RELAY_BROKER_ADDR"); v != "" {
		cfg.Broker.Addr = v
	}
	if v := os.Getenv("RELAY_BROKER_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Broker.Port = n
		}
	}
	if v := os.Getenv("RELAY_BROKER_KEEPALIVE_SEC"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Broker.KeepAliveSec = n
		}
	}
	if v := os.Getenv("RELAY_ACK_QOS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 && n <= 2 {
			cfg.Broker.AckQoS = byte(n)
		}
	}
	if v := os.Getenv("RELAY_HTTP_ADDR"); v != "" {
		cfg.HTTPAddr = v
	}
	if v := os.Getenv("RELAY_SENSOR_TOPICS"); v != "" {
		parts := strings.Split(v, ",")
		cfg.SensorTopics = nil
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cfg.SensorTopics = append(cfg.SensorTopics, p)
			}
		}
	}
	if v := os.Getenv("RELAY_SESSION_BUF"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			if n > 65536 { // cap unbounded values
				n = 65536
			}
			cfg.SessionBuf = n
		}
	}
	if v := os.Getenv("RELAY_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
}
