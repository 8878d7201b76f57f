// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"fmt"

	"github.com/darwinia-network/darwinia-go/cache"
	"github.com/darwinia-network/darwinia-go/kv"
	"github.com/darwinia-network/darwinia-go/stackedmap"
)

// Cache caches committed values by key. A nil value caches the absence of the key.
type Cache = cache.LRU[string, []byte]

// NewCache creates a state cache holding up to size entries.
func NewCache(size int) (*Cache, error) {
	return cache.NewLRU[string, []byte](size)
}

// Error is the error caused by state access failure.
type Error struct {
	cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("state: %v", e.cause)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// State manages the runtime state.
type State struct {
	db    kv.Getter
	cache *Cache                                 // optional, shared across blocks
	sm    *stackedmap.StackedMap[string, []byte] // keeps revisions of values, nil for deleted
}

// New create state object. c may be nil.
func New(db kv.Getter, c *Cache) *State {
	state := State{
		db:    db,
		cache: c,
	}
	state.sm = stackedmap.New(state.load)
	return &state
}

// load implements stackedmap.MapGetter.
func (s *State) load(key string) ([]byte, bool, error) {
	if s.cache != nil {
		if v, ok := s.cache.Get(key); ok {
			metricCacheLookup().AddWithLabel(1, map[string]string{"result": "hit"})
			return v, true, nil
		}
		metricCacheLookup().AddWithLabel(1, map[string]string{"result": "miss"})
	}

	v, err := s.db.Get([]byte(key))
	if err != nil {
		if !s.db.IsNotFound(err) {
			return nil, false, err
		}
		v = nil
	}
	if s.cache != nil {
		s.cache.Add(key, v)
	}
	return v, true, nil
}

// Get returns the value stored under key, or nil if absent.
// The returned slice must not be modified.
func (s *State) Get(key []byte) ([]byte, error) {
	v, _, err := s.sm.Get(string(key))
	if err != nil {
		return nil, &Error{err}
	}
	return v, nil
}

// Has returns whether a value exists under key.
func (s *State) Has(key []byte) (bool, error) {
	v, err := s.Get(key)
	if err != nil {
		return false, err
	}
	return len(v) > 0, nil
}

// Set stores val under key. An empty val deletes the key.
func (s *State) Set(key, val []byte) {
	if len(val) == 0 {
		s.sm.Put(string(key), nil)
		return
	}
	s.sm.Put(string(key), append([]byte(nil), val...))
}

// Delete removes the value stored under key.
func (s *State) Delete(key []byte) {
	s.sm.Put(string(key), nil)
}

// NewCheckpoint makes a checkpoint of current state.
// It returns revision of the checkpoint.
func (s *State) NewCheckpoint() int {
	return s.sm.Push()
}

// RevertTo revert to checkpoint specified by revision.
func (s *State) RevertTo(revision int) {
	s.sm.PopTo(revision)
}

// Stage makes a stage object to compute the change digest or commit changes.
func (s *State) Stage() *Stage {
	changes := make(map[string][]byte)
	s.sm.Journal(func(k string, v []byte) bool {
		changes[k] = v
		return true
	})
	return newStage(changes, s.cache)
}
