package server

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Override pins theme options for one host. Values are kept as written;
// the selection chain validates each candidate, so a bad value simply
// loses its slot.
type Override struct {
	Flavor  string `json:"flavor,omitempty"`
	Accent  string `json:"accent,omitempty"`
	Variant string `json:"variant,omitempty"`
}

// overrideStore reads per-host override files `<dir>/<host>.json`.
// Lookups walk the host's label suffixes, so a.b.example.com is served
// by example.com.json. Results, including misses, are cached.
type overrideStore struct {
	dir   string
	mu    sync.RWMutex
	cache map[string]*Override
}

func newOverrideStore(dir string) *overrideStore {
	return &overrideStore{
		dir:   dir,
		cache: make(map[string]*Override),
	}
}

func (s *overrideStore) Find(host string) (Override, bool) {
	host = strings.ToLower(strings.TrimSpace(host))
	if host == "" {
		return Override{}, false
	}
	s.mu.RLock()
	if ov, ok := s.cache[host]; ok {
		s.mu.RUnlock()
		if ov == nil {
			return Override{}, false
		}
		return *ov, true
	}
	s.mu.RUnlock()

	labels := strings.Split(host, ".")
	for i := 0; i < len(labels); i++ {
		candidate := strings.Join(labels[i:], ".")
		if ov := s.load(candidate); ov != nil {
			s.mu.Lock()
			s.cache[host] = ov
			s.mu.Unlock()
			return *ov, true
		}
	}
	s.mu.Lock()
	s.cache[host] = nil
	s.mu.Unlock()
	return Override{}, false
}

func (s *overrideStore) load(host string) *Override {
	if s.dir == "" {
		return nil
	}
	data, err := os.ReadFile(filepath.Join(s.dir, host+".json"))
	if err != nil {
		return nil
	}
	var ov Override
	if err := json.Unmarshal(data, &ov); err != nil {
		return nil
	}
	return &ov
}
