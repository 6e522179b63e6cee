package event

import "encoding/json"

// Reading is a sensor reading as carried on the bus.
type Reading struct {
	ID     string      `json:"id"`
	Sensor string      `json:"sensor"`
	Value  interface{} `json:"value"`
	TsMs   int64       `json:"ts"`
}

// ParseReading decodes a raw payload into a Reading. Any syntactically valid
// JSON object is accepted; field presence is a downstream concern (a missing
// sensor id degrades the ack topic, it does not reject the reading).
func ParseReading(raw []byte) (Reading, error) {
	var r Reading
	if err := json.Unmarshal(raw, &r); err != nil {
		return Reading{}, err
	}
	return r, nil
}

// Ack is the acknowledgement payload the relay publishes for each accepted
// reading.
type Ack struct {
	OrigID string `json:"origId"`
	TsMs   int64  `json:"ts"`
	From   string `json:"from"`
}

// Encode renders the ack as its wire JSON.
func (a Ack) Encode() []byte {
	b, _ := json.Marshal(a)
	return b
}
