// Package store holds the client-side cache of server configuration state.
//
// The cache is never authoritative: the server owns the data, and every
// locally held copy is possibly stale until confirmed by a round trip.
// Mutations are applied only from server-returned canonical records, and
// push notices invalidate the whole cache rather than patching it.
package store

import (
	"sync"

	"sheetdesk-cli/internal/model"
)

// Store is the in-memory config cache. It preserves the order the server
// returned sheet configs in; reads hand out copies so callers can never
// mutate cached state in place.
//
// A mutex guards the cache because the push listener reads and replaces it
// from its own goroutine while the UI reads it from the event loop.
type Store struct {
	mu       sync.RWMutex
	settings model.GlobalSettings
	sheets   []model.SheetConfig
}

func New() *Store {
	return &Store{
		settings: model.GlobalSettings{TransferDestination: model.DefaultTransferDestination},
	}
}

// ReplaceAll discards all cached state in favor of a fresh server snapshot.
func (s *Store) ReplaceAll(snap model.ConfigSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = snap.GlobalSettings
	s.sheets = append([]model.SheetConfig(nil), snap.SheetConfigs...)
}

// Snapshot returns a copy of the cached state in server order.
func (s *Store) Snapshot() model.ConfigSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return model.ConfigSnapshot{
		GlobalSettings: s.settings,
		SheetConfigs:   append([]model.SheetConfig(nil), s.sheets...),
	}
}

func (s *Store) GlobalSettings() model.GlobalSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// SetGlobalSettings replaces the single settings record with the
// server-returned canonical value.
func (s *Store) SetGlobalSettings(gs model.GlobalSettings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = gs
}

// Get returns the cached sheet config with the given id.
func (s *Store) Get(id string) (model.SheetConfig, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.sheets {
		if c.SheetID == id {
			return c, true
		}
	}
	return model.SheetConfig{}, false
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sheets)
}

// Append adds a server-returned record to the end of the collection
// (insertion order, matching what the server will return on the next
// wholesale fetch).
func (s *Store) Append(cfg model.SheetConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sheets = append(s.sheets, cfg)
}

// Replace swaps the entry matching id for the server-returned record.
// It reports whether a matching entry existed.
func (s *Store) Replace(id string, cfg model.SheetConfig) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, c := range s.sheets {
		if c.SheetID == id {
			s.sheets[i] = cfg
			return true
		}
	}
	return false
}

// Remove deletes the entry matching id. A missing id is a no-op, never an
// error: the server already confirmed the deletion, so an absent local copy
// means the cache was simply ahead.
func (s *Store) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, c := range s.sheets {
		if c.SheetID == id {
			s.sheets = append(s.sheets[:i], s.sheets[i+1:]...)
			return
		}
	}
}
