package snapshot

import (
	"encoding/json"
	"sync"

	"github.com/cockroachdb/pebble"

	pebblestore "github.com/sensorhop/relay/internal/storage/pebble"
)

const keyPrefix = "sensor/latest/"

func latestKey(sensor string) []byte {
	return []byte(keyPrefix + sensor)
}

// Store keeps the latest accepted reading per sensor. Reads are served from
// memory; when backed by a Pebble database, writes also persist so the
// dashboard shows last-known values across restarts.
type Store struct {
	mu     sync.RWMutex
	latest map[string]json.RawMessage
	db     *pebblestore.DB
}

// Open builds a store. db may be nil for a memory-only store; otherwise the
// persisted snapshots are loaded before returning.
func Open(db *pebblestore.DB) (*Store, error) {
	s := &Store{latest: make(map[string]json.RawMessage), db: db}
	if db == nil {
		return s, nil
	}

	iter, err := db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(keyPrefix),
		UpperBound: []byte(keyPrefix + "\xff"),
	})
	if err != nil {
		return nil, err
	}
	defer iter.Close()
	for iter.First(); iter.Valid(); iter.Next() {
		sensor := string(iter.Key()[len(keyPrefix):])
		s.latest[sensor] = append(json.RawMessage(nil), iter.Value()...)
	}
	if err := iter.Error(); err != nil {
		return nil, err
	}
	return s, nil
}

// Put records payload as the latest reading for sensor. The in-memory view
// updates even when the persistent write fails; the error is reported so the
// caller can log it.
func (s *Store) Put(sensor string, payload json.RawMessage) error {
	cp := append(json.RawMessage(nil), payload...)
	s.mu.Lock()
	s.latest[sensor] = cp
	s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	return s.db.Set(latestKey(sensor), cp)
}

// Get returns the latest reading for sensor, or false when none was seen.
func (s *Store) Get(sensor string) (json.RawMessage, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.latest[sensor]
	return p, ok
}

// All returns a copy of every sensor's latest reading.
func (s *Store) All() map[string]json.RawMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]json.RawMessage, len(s.latest))
	for sensor, p := range s.latest {
		out[sensor] = p
	}
	return out
}

// Len reports the number of sensors with a recorded reading.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.latest)
}
