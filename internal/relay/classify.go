package relay

import "strings"

// AckPrefix is the topic namespace acknowledgements travel on. The relay
// publishes to "ack/<sensor>" and watches the whole namespace to observe
// deliveries back to publishers.
const AckPrefix = "ack/"

// Kind classifies an inbound topic.
type Kind int

const (
	// KindReading is a sensor telemetry topic.
	KindReading Kind = iota
	// KindAck is a topic under the acknowledgement namespace.
	KindAck
)

// Classify determines how an inbound message is processed based on its topic.
func Classify(topic string) Kind {
	if strings.HasPrefix(topic, AckPrefix) {
		return KindAck
	}
	return KindReading
}

// AckTopic builds the acknowledgement topic for a sensor id. An empty sensor
// id yields the bare namespace prefix; the message still flows, it just
// cannot be routed to a specific publisher.
func AckTopic(sensor string) string {
	return AckPrefix + sensor
}
