// Package pref provides the implementation for persisting and applying per-user playback preferences.
package pref

import (
	"fmt"
	"sync"

	"github.com/metafates/gache"
	"github.com/miru-player/miru/filesystem"
	"github.com/miru-player/miru/log"
	"github.com/miru-player/miru/where"
	"github.com/spf13/viper"
)

// Record is a single persisted preference value. Explicit marks values the
// user chose deliberately, as opposed to values inferred from the media.
type Record struct {
	Value    any  `json:"value"`
	Explicit bool `json:"explicit"`
}

// Store is a write-through preference registry. Reads fall back to the
// configured defaults, writes land in memory first and are persisted to disk
// on a best-effort basis.
type Store struct {
	mu      sync.Mutex
	cacher  *gache.Cache[map[string]*Record]
	records map[string]*Record
	nextID  int
	subs    map[int]func(key string)

	// applying suppresses AutoSave while ApplyTo pushes state onto a player.
	applying bool
}

// NewStore opens the preference registry at the standard location.
func NewStore() *Store {
	return &Store{
		cacher: gache.New[map[string]*Record](
			&gache.Options{
				Path:       where.Preferences(),
				FileSystem: &filesystem.GacheFs{},
			},
		),
		subs: make(map[int]func(key string)),
	}
}

// load reads the persisted records once and keeps them in memory. Callers
// must hold s.mu.
func (s *Store) load() map[string]*Record {
	if s.records != nil {
		return s.records
	}

	cached, expired, err := s.cacher.Get()
	if err != nil || expired || cached == nil {
		if err != nil {
			log.Warnf("read preferences: %v", err)
		}
		cached = make(map[string]*Record)
	}

	s.records = cached
	return s.records
}

// Get returns the stored value for a preference key, falling back to the
// configured default when nothing was ever saved.
func (s *Store) Get(key string) any {
	s.mu.Lock()
	record, ok := s.load()[key]
	s.mu.Unlock()

	if ok {
		return record.Value
	}
	return viper.Get(key)
}

// GetString returns the preference as a string.
func (s *Store) GetString(key string) string {
	switch v := s.Get(key).(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// GetBool returns the preference as a bool. Non-bool values read false.
func (s *Store) GetBool(key string) bool {
	v, _ := s.Get(key).(bool)
	return v
}

// GetFloat returns the preference as a float64. Integer values are widened.
func (s *Store) GetFloat(key string) float64 {
	switch v := s.Get(key).(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return 0
	}
}

// Explicit reports whether the stored value was chosen by the user rather
// than inferred.
func (s *Store) Explicit(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.load()[key]
	return ok && record.Explicit
}

// Set stores a preference and persists the registry. An explicit write
// always wins; an inferred write never downgrades an explicit record. The
// in-memory value survives even when the disk write fails.
func (s *Store) Set(key string, value any, explicit bool) {
	s.mu.Lock()
	records := s.load()

	if existing, ok := records[key]; ok && existing.Explicit && !explicit {
		s.mu.Unlock()
		return
	}

	if existing, ok := records[key]; ok && existing.Value == value && existing.Explicit == explicit {
		s.mu.Unlock()
		return
	}

	records[key] = &Record{Value: value, Explicit: explicit}

	snapshot := make(map[string]*Record, len(records))
	for k, v := range records {
		snapshot[k] = v
	}
	subs := make([]func(string), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	if err := s.cacher.Set(snapshot); err != nil {
		log.Warnf("persist preference %s: %v", key, err)
	}

	for _, fn := range subs {
		fn(key)
	}
}

// Subscribe registers a callback invoked with the key of every preference
// change. It returns an idempotent disposer.
func (s *Store) Subscribe(fn func(key string)) (off func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}
