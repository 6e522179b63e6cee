package relay

import (
	"context"
	"encoding/json"
	"time"

	"github.com/sensorhop/relay/internal/bus"
	"github.com/sensorhop/relay/internal/event"
	"github.com/sensorhop/relay/internal/fanout"
	"github.com/sensorhop/relay/internal/snapshot"
	"github.com/sensorhop/relay/pkg/log"
)

// Relay subscribes to the sensor topics, annotates each message with the
// transport hops it implies, acknowledges readings back to their publishers
// and correlates broker confirmations for those acknowledgements.
type Relay struct {
	name      string
	topics    []string
	client    bus.Client
	tracker   *Tracker
	snapshots *snapshot.Store
	events    *fanout.Bus
	logger    log.Logger

	// nowMs is swapped in tests for deterministic timestamps.
	nowMs func() int64
}

// Options wires a Relay's collaborators.
type Options struct {
	// Name identifies this relay in synthesized events and acks.
	Name string
	// Topics are the sensor topic filters to watch.
	Topics []string
	// Client is the bus session.
	Client bus.Client
	// Snapshots retains the latest reading per sensor.
	Snapshots *snapshot.Store
	// Events receives the synthesized hop events.
	Events *fanout.Bus
	// Logger for relay activity.
	Logger log.Logger
}

func New(opts Options) *Relay {
	return &Relay{
		name:      opts.Name,
		topics:    opts.Topics,
		client:    opts.Client,
		tracker:   NewTracker(),
		snapshots: opts.Snapshots,
		events:    opts.Events,
		logger:    opts.Logger.With(log.Component("relay")),
		nowMs:     func() int64 { return time.Now().UnixMilli() },
	}
}

// Start connects the bus session and registers the sensor and ack
// subscriptions plus the confirmation and connection-loss hooks.
func (r *Relay) Start(ctx context.Context) error {
	r.client.OnConfirm(r.OnPublishConfirm)
	r.client.OnConnectionLost(func(err error) {
		if n := r.tracker.Abandon(); n > 0 {
			r.logger.Warn("abandoning unconfirmed acks after disconnect",
				log.Int("count", n), log.Err(err))
		}
	})

	if err := r.client.Connect(ctx); err != nil {
		return err
	}
	for _, topic := range r.topics {
		if err := r.client.Subscribe(topic, r.OnMessage); err != nil {
			return err
		}
	}
	// Watch the ack namespace to observe deliveries back to publishers.
	if err := r.client.Subscribe(AckPrefix+"#", r.OnMessage); err != nil {
		return err
	}
	r.logger.Info("relay started", log.Str("name", r.name), log.Int("topics", len(r.topics)))
	return nil
}

// OnMessage processes one inbound bus message. Malformed payloads are dropped
// with a log line; everything else becomes one or more hop events on the
// fan-out bus, in the order the hops occur.
func (r *Relay) OnMessage(topic string, payload []byte) {
	if !json.Valid(payload) {
		r.logger.Warn("dropping malformed message", log.Str("topic", topic))
		return
	}
	raw := json.RawMessage(append([]byte(nil), payload...))
	ts := r.nowMs()

	if Classify(topic) == KindAck {
		// An ack arriving here means the broker delivered it to the ack
		// topic's subscribers, the originating publisher among them.
		r.events.Publish(event.Event{
			Direction: event.BrokerToPublisher,
			Topic:     topic,
			Payload:   raw,
			TsMs:      ts,
		})
		return
	}

	reading, err := event.ParseReading(raw)
	if err != nil {
		r.logger.Warn("dropping unreadable reading", log.Str("topic", topic), log.Err(err))
		return
	}

	// The observed message implies two hops: the publisher handed it to the
	// broker, and the broker delivered it to this relay.
	r.events.Publish(event.Event{
		Direction: event.PublisherToBroker,
		Topic:     topic,
		Payload:   raw,
		TsMs:      ts,
	})
	r.events.Publish(event.Event{
		Direction:  event.BrokerToSubscriber,
		Topic:      topic,
		Payload:    raw,
		TsMs:       ts,
		Subscriber: r.name,
	})

	if err := r.snapshots.Put(reading.Sensor, raw); err != nil {
		r.logger.Error("snapshot write failed", log.Str("sensor", reading.Sensor), log.Err(err))
	}

	r.acknowledge(reading)
}

// acknowledge publishes the ack for a reading, tracks its broker handle and
// emits the subscriber->broker hop. The hop event is emitted even when the
// publish fails: the attempt happened and viewers should see it.
func (r *Relay) acknowledge(reading event.Reading) {
	ackTopic := AckTopic(reading.Sensor)
	ack := event.Ack{OrigID: reading.ID, TsMs: r.nowMs(), From: r.name}
	payload := ack.Encode()

	h, err := r.client.Publish(ackTopic, payload)
	if err != nil {
		r.logger.Error("ack publish failed", log.Str("topic", ackTopic), log.Err(err))
	} else if h != 0 {
		if trackErr := r.tracker.Track(PendingPublish{
			Handle:      h,
			Topic:       ackTopic,
			Payload:     payload,
			CreatedAtMs: r.nowMs(),
		}); trackErr != nil {
			r.logger.Warn("publish handle reused", log.Uint16("handle", uint16(h)))
		}
	}

	r.events.Publish(event.Event{
		Direction: event.SubscriberToBroker,
		Topic:     ackTopic,
		Payload:   payload,
		TsMs:      r.nowMs(),
		Publisher: r.name,
	})
}

// OnPublishConfirm resolves a broker confirmation against the pending acks.
// Unknown handles are ignored; a handle resolves at most once.
func (r *Relay) OnPublishConfirm(h bus.Handle) {
	p, ok := r.tracker.Resolve(h)
	if !ok {
		return
	}
	r.events.Publish(event.Event{
		Direction: event.BrokerToSubscriber,
		Topic:     p.Topic,
		Payload:   p.Payload,
		TsMs:      r.nowMs(),
		Note:      event.NoteBrokerAccepted,
	})
	r.logger.Debug("broker accepted publish",
		log.Uint16("handle", uint16(h)), log.Str("topic", p.Topic))
}

// Pending reports the number of acks awaiting broker confirmation.
func (r *Relay) Pending() int {
	return r.tracker.Len()
}
