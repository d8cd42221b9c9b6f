package metadata

import (
	"sort"
	"strings"
	"sync"

	"github.com/brizzai/httpdeco/pkg/reqconfig"
)

// Store associates declaration-time facts with method keys. Every fact for a key accumulates into
// one record, so the order annotations are recorded in does not matter. Recording the same fact twice
// keeps the last value.
type Store struct {
	mu      sync.RWMutex
	records map[Key]*Metadata
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{records: make(map[Key]*Metadata)}
}

var defaultStore = NewStore()

// Default returns the process-wide store.
func Default() *Store {
	return defaultStore
}

func (s *Store) record(key Key) *Metadata {
	r, ok := s.records[key]
	if !ok {
		m := empty()
		r = &m
		s.records[key] = r
	}
	return r
}

func (s *Store) update(key Key, fn func(*Metadata)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.record(key))
}

// RecordRoute records the verb and URL a method dispatches to.
func (s *Store) RecordRoute(key Key, verb, url string) {
	s.update(key, func(m *Metadata) {
		m.Verb = strings.ToUpper(verb)
		m.URL = url
	})
}

// RecordHeaders records static headers for a method.
func (s *Store) RecordHeaders(key Key, headers map[string]any) {
	if headers == nil {
		headers = map[string]any{}
	}
	cloned := reqconfig.Clone(headers).(map[string]any)
	s.update(key, func(m *Metadata) { m.Headers = cloned })
}

// RecordParams records static params for a method.
func (s *Store) RecordParams(key Key, params map[string]any) {
	if params == nil {
		params = map[string]any{}
	}
	cloned := reqconfig.Clone(params).(map[string]any)
	s.update(key, func(m *Metadata) { m.Params = cloned })
}

// RecordConfig records a static request configuration fragment for a method.
func (s *Store) RecordConfig(key Key, fragment reqconfig.RequestConfig) {
	cloned := reqconfig.CloneConfig(fragment)
	s.update(key, func(m *Metadata) { m.Config = cloned })
}

// RecordSlot records which argument index plays the given role. Negative indices record no slot.
func (s *Store) RecordSlot(kind SlotKind, key Key, index int) {
	slot := Slot(index)
	if !slot.Valid() {
		slot = NoSlot
	}
	s.update(key, func(m *Metadata) {
		switch kind {
		case SlotParams:
			m.ParamsSlot = slot
		case SlotConfig:
			m.ConfigSlot = slot
		case SlotResponse:
			m.ResponseSlot = slot
		case SlotError:
			m.ErrorSlot = slot
		}
	})
}

// Metadata assembles the record for key. Keys never recorded yield a record with every fact absent.
// The returned record is a private copy.
func (s *Store) Metadata(key Key) Metadata {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[key]
	if !ok {
		return empty()
	}
	return r.clone()
}

// Has reports whether anything was recorded for key.
func (s *Store) Has(key Key) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.records[key]
	return ok
}

// Keys lists every recorded key, sorted by type then method.
func (s *Store) Keys() []Key {
	s.mu.RLock()
	keys := make([]Key, 0, len(s.records))
	for k := range s.records {
		keys = append(keys, k)
	}
	s.mu.RUnlock()

	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Type != keys[j].Type {
			return keys[i].Type < keys[j].Type
		}
		return keys[i].Method < keys[j].Method
	})
	return keys
}

// Reset forgets everything recorded for key.
func (s *Store) Reset(key Key) {
	s.mu.Lock()
	delete(s.records, key)
	s.mu.Unlock()
}
