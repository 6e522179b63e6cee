package sensors

import (
	"context"
	"encoding/json"
	"math/rand"
	"sync"
	"time"

	"github.com/sensorhop/relay/internal/bus"
	"github.com/sensorhop/relay/internal/event"
	"github.com/sensorhop/relay/internal/relay"
	"github.com/sensorhop/relay/pkg/id"
	"github.com/sensorhop/relay/pkg/log"
)

// jitter is the span around the publish interval each cycle is offset by.
const jitter = 700 * time.Millisecond

// Sensor is one simulated device: it publishes readings on its topic at a
// jittered interval and watches its ack topic for acknowledgements.
type Sensor struct {
	ID       string
	Name     string
	Topic    string
	Interval time.Duration
	Generate Generator

	client bus.Client
	logger log.Logger

	mu      sync.Mutex
	lastAck string

	// nowMs and sleep are swapped in tests.
	nowMs func() int64
	sleep func(ctx context.Context, d time.Duration)
}

// New builds a sensor bound to a bus client.
func New(client bus.Client, sensorID, name, topic string, interval time.Duration, gen Generator, logger log.Logger) *Sensor {
	return &Sensor{
		ID:       sensorID,
		Name:     name,
		Topic:    topic,
		Interval: interval,
		Generate: gen,
		client:   client,
		logger:   logger.With(log.Component("sensor"), log.Str("sensor", sensorID)),
		nowMs:    func() int64 { return time.Now().UnixMilli() },
		sleep:    sleepCtx,
	}
}

// Start subscribes to the sensor's ack topic and launches the publish loop.
// The loop ends when ctx is done.
func (s *Sensor) Start(ctx context.Context) error {
	if err := s.client.Subscribe(relay.AckTopic(s.ID), s.onAck); err != nil {
		return err
	}
	go s.run(ctx)
	return nil
}

func (s *Sensor) run(ctx context.Context) {
	for {
		if err := s.PublishOnce(); err != nil {
			s.logger.Warn("publish failed", log.Err(err))
		}
		d := s.Interval + time.Duration(rand.Int63n(int64(2*jitter))) - jitter
		if d < 0 {
			d = 0
		}
		s.sleep(ctx, d)
		if ctx.Err() != nil {
			return
		}
	}
}

// PublishOnce generates and publishes a single reading.
func (s *Sensor) PublishOnce() error {
	reading := event.Reading{
		ID:     id.NewReadingID(),
		Sensor: s.ID,
		Value:  s.Generate(),
		TsMs:   s.nowMs(),
	}
	payload, err := json.Marshal(reading)
	if err != nil {
		return err
	}
	if _, err := s.client.Publish(s.Topic, payload); err != nil {
		return err
	}
	s.logger.Debug("published reading", log.Str("topic", s.Topic), log.Str("id", reading.ID))
	return nil
}

func (s *Sensor) onAck(_ string, payload []byte) {
	var ack event.Ack
	if err := json.Unmarshal(payload, &ack); err != nil {
		s.logger.Warn("malformed ack", log.Err(err))
		return
	}
	s.mu.Lock()
	s.lastAck = ack.OrigID
	s.mu.Unlock()
	s.logger.Info("ack received", log.Str("origId", ack.OrigID), log.Str("from", ack.From))
}

// LastAck returns the id of the most recently acknowledged reading, empty if
// no ack has arrived yet.
func (s *Sensor) LastAck() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastAck
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
