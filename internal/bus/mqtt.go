package bus

import (
	"context"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/sensorhop/relay/internal/config"
	"github.com/sensorhop/relay/pkg/id"
	"github.com/sensorhop/relay/pkg/log"
)

// MQTTClient is the paho-backed Client implementation.
type MQTTClient struct {
	inner mqtt.Client
	qos   byte

	mu      sync.Mutex
	subs    map[string]MessageHandler
	confirm ConfirmHandler
	lost    ConnectionLostHandler
	closed  bool

	logger log.Logger
}

var _ Client = (*MQTTClient)(nil)

// NewMQTTClient builds a client for the given broker. role becomes the prefix
// of the generated MQTT client id.
func NewMQTTClient(cfg config.BrokerConfig, role string, logger log.Logger) *MQTTClient {
	c := &MQTTClient{
		qos:    cfg.AckQoS,
		subs:   make(map[string]MessageHandler),
		logger: logger.With(log.Component("bus")),
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.URL()).
		SetClientID(id.NewClientID(role)).
		SetKeepAlive(time.Duration(cfg.KeepAliveSec) * time.Second).
		SetAutoReconnect(true).
		SetOrderMatters(true).
		SetCleanSession(true)

	opts.SetOnConnectHandler(func(mqtt.Client) {
		c.resubscribe()
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		c.logger.Warn("connection lost", log.Err(err))
		c.mu.Lock()
		fn := c.lost
		c.mu.Unlock()
		if fn != nil {
			fn(err)
		}
	})

	c.inner = mqtt.NewClient(opts)
	return c
}

// Connect dials the broker, blocking until the session is up, the broker
// rejects it, or ctx is done.
func (c *MQTTClient) Connect(ctx context.Context) error {
	tok := c.inner.Connect()
	select {
	case <-tok.Done():
		return tok.Error()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Subscribe registers handler for the topic filter and records it for
// replay after reconnect.
func (c *MQTTClient) Subscribe(filter string, handler MessageHandler) error {
	c.mu.Lock()
	c.subs[filter] = handler
	c.mu.Unlock()

	tok := c.inner.Subscribe(filter, c.qos, func(_ mqtt.Client, m mqtt.Message) {
		handler(m.Topic(), m.Payload())
	})
	tok.Wait()
	return tok.Error()
}

// Publish hands payload to the broker session and returns its in-flight
// handle. Confirmation is delivered asynchronously through OnConfirm once the
// broker accepts the message; a handle of zero means no confirmation will
// follow.
func (c *MQTTClient) Publish(topic string, payload []byte) (Handle, error) {
	tok := c.inner.Publish(topic, c.qos, false, payload)
	pt, ok := tok.(*mqtt.PublishToken)
	if !ok {
		tok.Wait()
		return 0, tok.Error()
	}
	h := Handle(pt.MessageID())
	go func() {
		pt.Wait()
		if err := pt.Error(); err != nil {
			c.logger.Warn("publish not confirmed", log.Str("topic", topic), log.Err(err))
			return
		}
		c.mu.Lock()
		fn := c.confirm
		c.mu.Unlock()
		if fn != nil {
			fn(h)
		}
	}()
	return h, nil
}

func (c *MQTTClient) OnConfirm(fn ConfirmHandler) {
	c.mu.Lock()
	c.confirm = fn
	c.mu.Unlock()
}

func (c *MQTTClient) OnConnectionLost(fn ConnectionLostHandler) {
	c.mu.Lock()
	c.lost = fn
	c.mu.Unlock()
}

func (c *MQTTClient) Connected() bool {
	return c.inner.IsConnectionOpen()
}

// Close disconnects from the broker, allowing a short drain for in-flight
// messages.
func (c *MQTTClient) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()
	c.inner.Disconnect(250)
}

// resubscribe replays recorded subscriptions on a fresh session. The broker
// drops server-side state on clean-session reconnects, so filters must be
// re-registered here.
func (c *MQTTClient) resubscribe() {
	c.mu.Lock()
	subs := make(map[string]MessageHandler, len(c.subs))
	for f, h := range c.subs {
		subs[f] = h
	}
	c.mu.Unlock()

	for filter, handler := range subs {
		h := handler
		tok := c.inner.Subscribe(filter, c.qos, func(_ mqtt.Client, m mqtt.Message) {
			h(m.Topic(), m.Payload())
		})
		go func(filter string, tok mqtt.Token) {
			tok.Wait()
			if err := tok.Error(); err != nil {
				c.logger.Error("resubscribe failed", log.Str("filter", filter), log.Err(err))
			}
		}(filter, tok)
	}
}
