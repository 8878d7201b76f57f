// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package session rotates the validator set in fixed-length sessions and
// keeps the sets of past sessions for offence reporting.
package session

import (
	"slices"

	"github.com/pkg/errors"

	"github.com/darwinia-network/darwinia-go/darwinia"
	"github.com/darwinia-network/darwinia-go/event"
	"github.com/darwinia-network/darwinia-go/log"
	"github.com/darwinia-network/darwinia-go/metrics"
	"github.com/darwinia-network/darwinia-go/state"
	"github.com/darwinia-network/darwinia-go/storage"
)

var (
	logger = log.WithContext("pkg", "session")

	metricSessionIndex = metrics.LazyLoadGauge("session_index")
	metricDisabled     = metrics.LazyLoadGauge("session_disabled_validators")
)

// Manager plans the validator sets of sessions.
type Manager interface {
	// NewSession plans session i and returns its validators if they changed.
	NewSession(i darwinia.SessionIndex) ([]darwinia.AccountID, bool, error)
	StartSession(i darwinia.SessionIndex) error
	EndSession(i darwinia.SessionIndex) error
}

// Config holds the rotation schedule.
type Config struct {
	Period darwinia.BlockNumber
	Offset darwinia.BlockNumber
	// DisabledThreshold is the share of disabled validators at which
	// DisableValidator asks for a new era.
	DisabledThreshold darwinia.Perbill
}

// HistoricalRange is the half-open range of sessions with a stored set.
type HistoricalRange struct {
	Start darwinia.SessionIndex
	End   darwinia.SessionIndex
}

// NewSession is emitted when a session starts.
type NewSession struct {
	Index darwinia.SessionIndex
}

func (NewSession) Module() string { return "session" }

// Session is the session module.
type Session struct {
	cfg     Config
	manager Manager
	events  event.Emitter

	currentIndex    *storage.Value[darwinia.SessionIndex]
	validators      *storage.Value[[]darwinia.AccountID]
	queued          *storage.Value[[]darwinia.AccountID]
	disabled        *storage.Value[[]uint32]
	historical      *storage.Mapping[darwinia.SessionIndex, []darwinia.AccountID]
	historicalRange *storage.Value[HistoricalRange]
}

// New creates the session module over st.
func New(st *state.State, cfg Config, manager Manager, events event.Emitter) *Session {
	ctx := storage.NewContext(st, "Session")
	return &Session{
		cfg:     cfg,
		manager: manager,
		events:  events,

		currentIndex:    storage.NewValue[darwinia.SessionIndex](ctx, "CurrentIndex"),
		validators:      storage.NewValue[[]darwinia.AccountID](ctx, "Validators"),
		queued:          storage.NewValue[[]darwinia.AccountID](ctx, "QueuedKeys"),
		disabled:        storage.NewValue[[]uint32](ctx, "DisabledValidators"),
		historical:      storage.NewMapping[darwinia.SessionIndex, []darwinia.AccountID](ctx, "HistoricalSessions"),
		historicalRange: storage.NewValue[HistoricalRange](ctx, "StoredRange"),
	}
}

// InitGenesis plans sessions 0 and 1 and starts session 0. The manager's
// plan wins over initial, which only applies when the manager has none.
func (s *Session) InitGenesis(initial []darwinia.AccountID) error {
	first, ok, err := s.manager.NewSession(0)
	if err != nil {
		return errors.Wrap(err, "plan session 0")
	}
	if !ok {
		first = initial
	}
	if len(first) == 0 {
		return errors.New("empty genesis validator set")
	}
	if err := s.validators.Set(first); err != nil {
		return err
	}
	if err := s.noteHistorical(0, first); err != nil {
		return err
	}

	next, ok, err := s.manager.NewSession(1)
	if err != nil {
		return errors.Wrap(err, "plan session 1")
	}
	if !ok {
		next = first
	}
	if err := s.queued.Set(next); err != nil {
		return err
	}
	return s.manager.StartSession(0)
}

// ShouldEndSession reports whether the session rotates at bn.
func (s *Session) ShouldEndSession(bn darwinia.BlockNumber) bool {
	if s.cfg.Period == 0 || bn < s.cfg.Offset {
		return false
	}
	return (bn-s.cfg.Offset)%s.cfg.Period == 0
}

// EstimateNextNewSession returns the block the next session starts at.
func (s *Session) EstimateNextNewSession(now darwinia.BlockNumber) (darwinia.BlockNumber, bool) {
	if s.cfg.Period == 0 {
		return 0, false
	}
	if now < s.cfg.Offset {
		return s.cfg.Offset, true
	}
	return s.cfg.Offset + ((now-s.cfg.Offset)/s.cfg.Period+1)*s.cfg.Period, true
}

// OnInitialize rotates the session when bn ends one.
func (s *Session) OnInitialize(bn darwinia.BlockNumber) error {
	if !s.ShouldEndSession(bn) {
		return nil
	}
	return s.Rotate()
}

// Rotate ends the current session, promotes the queued validators and
// queues the set planned two sessions ahead.
func (s *Session) Rotate() error {
	i, err := s.currentIndex.Get()
	if err != nil {
		return err
	}
	if err := s.manager.EndSession(i); err != nil {
		return errors.Wrapf(err, "end session %d", i)
	}

	validators, err := s.queued.Get()
	if err != nil {
		return err
	}
	if err := s.validators.Set(validators); err != nil {
		return err
	}
	s.disabled.Delete()
	metricDisabled().Set(0)

	i++
	if err := s.currentIndex.Set(i); err != nil {
		return err
	}
	if err := s.noteHistorical(i, validators); err != nil {
		return err
	}
	if err := s.manager.StartSession(i); err != nil {
		return errors.Wrapf(err, "start session %d", i)
	}

	next, changed, err := s.manager.NewSession(i + 1)
	if err != nil {
		return errors.Wrapf(err, "plan session %d", i+1)
	}
	if !changed {
		next = validators
	}
	if err := s.queued.Set(next); err != nil {
		return err
	}

	metricSessionIndex().Set(int64(i))
	logger.Debug("new session", "index", i, "validators", len(validators), "queued-changed", changed)
	s.events.Emit(NewSession{Index: i})
	return nil
}

func (s *Session) noteHistorical(i darwinia.SessionIndex, validators []darwinia.AccountID) error {
	if err := s.historical.Set(i, validators); err != nil {
		return err
	}
	return s.historicalRange.Mutate(func(r *HistoricalRange) error {
		if r.End == 0 {
			r.Start = i
		}
		r.End = i + 1
		return nil
	})
}

// DisableValidator disables stash until the end of the session. It reports
// whether the disabled share reached the threshold. Stashes outside the
// current set are ignored.
func (s *Session) DisableValidator(stash darwinia.AccountID) (bool, error) {
	validators, err := s.validators.Get()
	if err != nil {
		return false, err
	}
	idx := slices.Index(validators, stash)
	if idx < 0 {
		return false, nil
	}

	var count int
	err = s.disabled.Mutate(func(d *[]uint32) error {
		if i, found := slices.BinarySearch(*d, uint32(idx)); !found {
			*d = slices.Insert(*d, i, uint32(idx))
		}
		count = len(*d)
		return nil
	})
	if err != nil {
		return false, err
	}
	metricDisabled().Set(int64(count))
	return uint64(count) >= s.cfg.DisabledThreshold.Mul(uint64(len(validators))), nil
}

// IsDisabled reports whether stash is a disabled validator of the session.
func (s *Session) IsDisabled(stash darwinia.AccountID) (bool, error) {
	validators, err := s.validators.Get()
	if err != nil {
		return false, err
	}
	idx := slices.Index(validators, stash)
	if idx < 0 {
		return false, nil
	}
	disabled, err := s.disabled.Get()
	if err != nil {
		return false, err
	}
	_, found := slices.BinarySearch(disabled, uint32(idx))
	return found, nil
}

// PruneHistoricalUpTo drops the stored sets of sessions before up.
func (s *Session) PruneHistoricalUpTo(up darwinia.SessionIndex) error {
	return s.historicalRange.Mutate(func(r *HistoricalRange) error {
		up = min(up, r.End)
		for i := r.Start; i < up; i++ {
			s.historical.Delete(i)
		}
		r.Start = max(r.Start, up)
		return nil
	})
}

func (s *Session) CurrentIndex() (darwinia.SessionIndex, error) { return s.currentIndex.Get() }

func (s *Session) Validators() ([]darwinia.AccountID, error) { return s.validators.Get() }

func (s *Session) QueuedValidators() ([]darwinia.AccountID, error) { return s.queued.Get() }

func (s *Session) DisabledValidators() ([]uint32, error) { return s.disabled.Get() }

func (s *Session) HistoricalRange() (HistoricalRange, error) { return s.historicalRange.Get() }

// HistoricalValidators returns the validator set of session i, if still kept.
func (s *Session) HistoricalValidators(i darwinia.SessionIndex) ([]darwinia.AccountID, bool, error) {
	return s.historical.Lookup(i)
}
