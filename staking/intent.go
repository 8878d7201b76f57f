// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"slices"

	"github.com/darwinia-network/darwinia-go/darwinia"
)

// Validate declares the stash controlled by origin a validator candidate.
func (s *Staking) Validate(origin darwinia.Origin, prefs ValidatorPrefs) error {
	controller, err := origin.EnsureSigned()
	if err != nil {
		return err
	}
	if err := s.ensureStorageOpsAllowed(); err != nil {
		return err
	}
	l, err := s.mustLedger(controller)
	if err != nil {
		return err
	}
	stash := l.Stash

	if _, err := s.nominators.Remove(stash); err != nil {
		return err
	}
	s.nominations.Delete(stash)
	if err := s.validators.Add(stash); err != nil {
		return err
	}
	logger.Debug("validate", "stash", stash, "commission", prefs.Commission)
	return s.prefs.Set(stash, prefs)
}

// Nominate declares the stash controlled by origin a nominator of targets.
// Targets are deduplicated and capped at MaxNominations; each must be a
// bonded stash.
func (s *Staking) Nominate(origin darwinia.Origin, targets []darwinia.AccountID) error {
	controller, err := origin.EnsureSigned()
	if err != nil {
		return err
	}
	if err := s.ensureStorageOpsAllowed(); err != nil {
		return err
	}
	l, err := s.mustLedger(controller)
	if err != nil {
		return err
	}
	if len(targets) == 0 {
		return ErrEmptyTargets
	}

	unique := make([]darwinia.AccountID, 0, min(len(targets), darwinia.MaxNominations))
	for _, t := range targets {
		if len(unique) == darwinia.MaxNominations {
			break
		}
		if slices.Contains(unique, t) {
			continue
		}
		if ok, err := s.bonded.Has(t); err != nil {
			return err
		} else if !ok {
			return ErrBadTarget
		}
		unique = append(unique, t)
	}

	era, _, err := s.currentEra.Lookup()
	if err != nil {
		return err
	}
	stash := l.Stash
	if _, err := s.validators.Remove(stash); err != nil {
		return err
	}
	s.prefs.Delete(stash)
	if err := s.nominators.Add(stash); err != nil {
		return err
	}
	logger.Debug("nominate", "stash", stash, "targets", len(unique))
	return s.nominations.Set(stash, Nominations{Targets: unique, SubmittedIn: era})
}

// Chill removes the intention of the stash controlled by origin to validate
// or nominate.
func (s *Staking) Chill(origin darwinia.Origin) error {
	controller, err := origin.EnsureSigned()
	if err != nil {
		return err
	}
	if err := s.ensureStorageOpsAllowed(); err != nil {
		return err
	}
	l, err := s.mustLedger(controller)
	if err != nil {
		return err
	}
	_, err = s.chillStash(l.Stash)
	return err
}

// chillStash drops stash from both candidate lists and reports whether it was
// in either.
func (s *Staking) chillStash(stash darwinia.AccountID) (bool, error) {
	wasValidator, err := s.validators.Remove(stash)
	if err != nil {
		return false, err
	}
	s.prefs.Delete(stash)
	wasNominator, err := s.nominators.Remove(stash)
	if err != nil {
		return false, err
	}
	s.nominations.Delete(stash)
	if wasValidator || wasNominator {
		s.emit(Chilled{Stash: stash})
	}
	return wasValidator || wasNominator, nil
}
