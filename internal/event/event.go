package event

import "encoding/json"

// Direction identifies the transport hop a relay event describes.
type Direction string

// The four hops of a message's journey through the bus.
const (
	PublisherToBroker  Direction = "publisher->broker"
	BrokerToSubscriber Direction = "broker->subscriber"
	SubscriberToBroker Direction = "subscriber->broker"
	BrokerToPublisher  Direction = "broker->publisher"
)

// Event is a single synthesized hop event. Events are immutable once
// published to the fan-out bus; Payload must not be mutated after Publish.
type Event struct {
	Direction Direction       `json:"direction"`
	Topic     string          `json:"topic"`
	Payload   json.RawMessage `json:"payload"`
	TsMs      int64           `json:"ts"`
	// Subscriber names the receiving side on delivery hops.
	Subscriber string `json:"subscriber,omitempty"`
	// Publisher names the sending side on ack-publish hops.
	Publisher string `json:"publisher,omitempty"`
	// Note carries free-form annotation, e.g. the broker-accepted marker.
	Note string `json:"note,omitempty"`
}

// NoteBrokerAccepted marks the confirmation hop emitted once the broker
// acknowledges receipt of an acknowledgement publish.
const NoteBrokerAccepted = "broker accepted publish"
