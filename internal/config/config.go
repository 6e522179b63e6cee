package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// Config is the top-level configuration loaded from file/env.
type Config struct {
	// RelayName is the label stamped on acknowledgements ("from") and on
	// delivery hop events ("subscriber"/"publisher").
	RelayName string `json:"relayName"`
	// Broker addresses the MQTT bus.
	Broker BrokerConfig `json:"broker"`
	// HTTPAddr is the listen address for the viewer/API surface.
	HTTPAddr string `json:"httpAddr"`
	// SensorTopics is the fixed set of sensor topics to subscribe to.
	SensorTopics []string `json:"sensorTopics"`
	// SessionBuf is the per-viewer event buffer; a viewer that falls this
	// many events behind is disconnected.
	SessionBuf int `json:"sessionBuf"`
	// DataDir holds the latest-reading snapshot store. Empty means the
	// OS-specific default (see DefaultDataDir).
	DataDir string `json:"dataDir"`
}

// BrokerConfig captures how to reach the MQTT broker.
type BrokerConfig struct {
	Addr         string `json:"addr"`
	Port         int    `json:"port"`
	KeepAliveSec int    `json:"keepAliveSec"`
	// AckQoS is the QoS used for acknowledgement publishes. It must be >0
	// for the broker to confirm publishes (the fourth hop event).
	AckQoS byte `json:"ackQoS"`
}

// URL renders the broker address as a paho broker URL.
func (b BrokerConfig) URL() string {
	return fmt.Sprintf("tcp://%s:%d", b.Addr, b.Port)
}

// DefaultSensorTopics is the simulated home sensor topic set.
var DefaultSensorTopics = []string{
	"home/livingroom/temperature",
	"home/livingroom/humidity",
	"home/entrance/motion",
	"home/livingroom/light",
	"home/entrance/door",
}

// Default returns built-in defaults.
func Default() Config {
	return Config{
		RelayName: "dashboard",
		Broker: BrokerConfig{
			Addr:         "localhost",
			Port:         1883,
			KeepAliveSec: 60,
			AckQoS:       1,
		},
		HTTPAddr:     ":8080",
		SensorTopics: append([]string{}, DefaultSensorTopics...),
		SessionBuf:   1024,
	}
}

// Load reads configuration from a JSON file over the defaults. If path is
// empty, returns defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg := Default()
	if err := json.Unmarshal(b, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}
