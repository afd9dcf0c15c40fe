package server

import "sync"

// themePref is the last resolved option set for one client and host.
type themePref struct {
	Flavor  string
	Accent  string
	Variant string
}

type prefStore struct {
	mu   sync.RWMutex
	data map[string]themePref
}

func newPrefStore() *prefStore {
	return &prefStore{data: make(map[string]themePref)}
}

func (s *prefStore) Remember(key string, p themePref) {
	s.mu.Lock()
	s.data[key] = p
	s.mu.Unlock()
}

func (s *prefStore) Get(key string) (themePref, bool) {
	s.mu.RLock()
	p, ok := s.data[key]
	s.mu.RUnlock()
	return p, ok
}
