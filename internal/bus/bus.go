package bus

import "context"

// Handle is the broker-assigned identifier for an in-flight publish. A zero
// handle means the broker did not assign one (QoS 0) and the publish cannot
// be correlated with a confirmation.
type Handle uint16

// MessageHandler receives inbound messages for a subscription.
type MessageHandler func(topic string, payload []byte)

// ConfirmHandler receives broker confirmations for tracked publishes.
type ConfirmHandler func(h Handle)

// ConnectionLostHandler is invoked when the link to the broker drops.
type ConnectionLostHandler func(err error)

// Client is the transport surface the relay and sensors drive. Implementations
// must deliver messages for a single subscription in arrival order.
type Client interface {
	// Connect establishes the broker session, blocking until connected or the
	// context is done.
	Connect(ctx context.Context) error
	// Subscribe registers a handler for a topic filter. Subscriptions survive
	// reconnects.
	Subscribe(filter string, handler MessageHandler) error
	// Publish sends a payload and returns the broker-assigned handle for the
	// in-flight message. The confirmation arrives later via the confirm
	// handler; a returned error means the publish was not handed off.
	Publish(topic string, payload []byte) (Handle, error)
	// OnConfirm sets the handler invoked when the broker accepts a publish.
	OnConfirm(fn ConfirmHandler)
	// OnConnectionLost sets the handler invoked when the session drops.
	OnConnectionLost(fn ConnectionLostHandler)
	// Connected reports whether the session is currently up.
	Connected() bool
	// Close tears down the session.
	Close()
}
