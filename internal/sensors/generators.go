package sensors

import (
	"math"
	"math/rand"
	"time"
)

// Generator produces one reading value. Values are JSON-encodable: numbers
// for analog sensors, state strings for binary ones.
type Generator func() interface{}

// Temperature yields degrees Celsius around a comfortable indoor range with
// a slow sinusoidal drift.
func Temperature() interface{} {
	v := 18.0 + rand.Float64()*8.0 + 0.5*math.Sin(float64(time.Now().Unix())/60)
	return math.Round(v*10) / 10
}

// Humidity yields relative humidity in percent.
func Humidity() interface{} {
	return 30 + rand.Intn(30)
}

// Motion yields "motion" occasionally and "idle" otherwise.
func Motion() interface{} {
	if rand.Float64() < 0.12 {
		return "motion"
	}
	return "idle"
}

// Light yields a lux-like level following a slow day cycle plus noise.
func Light() interface{} {
	base := 400 + 600*(0.5+0.5*math.Sin(float64(time.Now().Unix())/300))
	return int(math.Abs(base + (rand.Float64()*200 - 100)))
}

// Door yields "open" occasionally and "closed" otherwise.
func Door() interface{} {
	if rand.Float64() < 0.08 {
		return "open"
	}
	return "closed"
}
