// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package co holds goroutine coordination helpers.
package co

import "sync"

// Signal wakes up one waiting goroutine. Signals sent while nobody waits
// coalesce into one. The zero value is ready to use.
type Signal struct {
	once sync.Once
	ch   chan struct{}
}

func (s *Signal) init() {
	s.once.Do(func() { s.ch = make(chan struct{}, 1) })
}

// Signal notifies the waiter without blocking.
func (s *Signal) Signal() {
	s.init()
	select {
	case s.ch <- struct{}{}:
	default:
	}
}

// C returns the channel to wait on.
func (s *Signal) C() <-chan struct{} {
	s.init()
	return s.ch
}
