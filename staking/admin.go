// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"github.com/darwinia-network/darwinia-go/darwinia"
)

func (s *Staking) SetValidatorCount(origin darwinia.Origin, n uint32) error {
	if err := origin.EnsureRoot(); err != nil {
		return err
	}
	return s.validatorCount.Set(n)
}

func (s *Staking) IncreaseValidatorCount(origin darwinia.Origin, additional uint32) error {
	if err := origin.EnsureRoot(); err != nil {
		return err
	}
	return s.validatorCount.Mutate(func(n *uint32) error {
		*n = darwinia.SaturatingAdd(*n, additional)
		return nil
	})
}

// ScaleValidatorCount grows the validator count by factor of itself.
func (s *Staking) ScaleValidatorCount(origin darwinia.Origin, factor darwinia.Percent) error {
	if err := origin.EnsureRoot(); err != nil {
		return err
	}
	return s.validatorCount.Mutate(func(n *uint32) error {
		*n = darwinia.SaturatingAdd(*n, uint32(factor.Mul(uint64(*n))))
		return nil
	})
}

// ForceNoEras stops era rotation until forcing is changed again.
func (s *Staking) ForceNoEras(origin darwinia.Origin) error {
	return s.setForcing(origin, ForceNone)
}

// ForceNewEra starts a new era at the next session end.
func (s *Staking) ForceNewEra(origin darwinia.Origin) error {
	return s.setForcing(origin, ForceNew)
}

// ForceNewEraAlways starts a new era at every session end.
func (s *Staking) ForceNewEraAlways(origin darwinia.Origin) error {
	return s.setForcing(origin, ForceAlways)
}

func (s *Staking) setForcing(origin darwinia.Origin, f Forcing) error {
	if err := origin.EnsureRoot(); err != nil {
		return err
	}
	logger.Info("forcing changed", "forcing", f)
	return s.forceEra.Set(f)
}

func (s *Staking) SetInvulnerables(origin darwinia.Origin, who []darwinia.AccountID) error {
	if err := origin.EnsureRoot(); err != nil {
		return err
	}
	return s.invulnerables.Set(who)
}

// ForceUnstake removes a stash with all its records and locks.
func (s *Staking) ForceUnstake(origin darwinia.Origin, stash darwinia.AccountID) error {
	if err := origin.EnsureRoot(); err != nil {
		return err
	}
	logger.Info("force unstake", "stash", stash)
	return s.killStash(stash)
}

// SetHistoryDepth changes how many eras of rewards are kept. Eras falling out
// of the new depth are cleared right away.
func (s *Staking) SetHistoryDepth(origin darwinia.Origin, depth darwinia.EraIndex) error {
	if err := origin.EnsureRoot(); err != nil {
		return err
	}
	if era, ok, err := s.currentEra.Lookup(); err != nil {
		return err
	} else if ok {
		last, err := s.historyDepth.Get()
		if err != nil {
			return err
		}
		if depth < last {
			first := darwinia.SaturatingSub(era, last)
			upTo := darwinia.SaturatingSub(era, depth)
			for e := first; e < upTo; e++ {
				if err := s.clearEraInformation(e); err != nil {
					return err
				}
			}
		}
	}
	return s.historyDepth.Set(depth)
}

func (s *Staking) SetPayoutFraction(origin darwinia.Origin, fraction darwinia.Perbill) error {
	if err := origin.EnsureRoot(); err != nil {
		return err
	}
	return s.payoutFraction.Set(fraction)
}
