// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"github.com/darwinia-network/darwinia-go/currency"
	"github.com/darwinia-network/darwinia-go/darwinia"
	"github.com/darwinia-network/darwinia-go/reverts"
)

// PayoutStakers pays the era reward of validatorStash and its clipped
// nominators. Each (validator, era) is paid at most once.
func (s *Staking) PayoutStakers(origin darwinia.Origin, validatorStash darwinia.AccountID, era darwinia.EraIndex) error {
	if _, err := origin.EnsureSigned(); err != nil {
		return err
	}
	if err := s.ensureStorageOpsAllowed(); err != nil {
		return err
	}

	current, ok, err := s.currentEra.Lookup()
	if err != nil {
		return err
	}
	depth, err := s.historyDepth.Get()
	if err != nil {
		return err
	}
	oldest := darwinia.SaturatingSub(current, depth)
	if !ok || era > current || era < oldest {
		return ErrInvalidEraToReward
	}
	eraPayout, ok, err := s.erasValidatorReward.Lookup(era)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidEraToReward
	}

	l, controller, err := s.LedgerOfStash(validatorStash)
	if err != nil {
		return err
	}
	if !l.ClaimReward(era, oldest) {
		return ErrAlreadyClaimed
	}
	if err := s.updateLedger(controller, l); err != nil {
		return err
	}

	points, err := s.erasRewardPoints.Get(era)
	if err != nil {
		return err
	}
	validatorPoints := points.Of(validatorStash)
	if validatorPoints == 0 {
		return nil
	}

	exposure, err := s.erasStakersClipped.Get(era, validatorStash)
	if err != nil {
		return err
	}
	prefs, err := s.erasValidatorPrefs.Get(era, validatorStash)
	if err != nil {
		return err
	}

	part := darwinia.PerbillFromRational(uint64(validatorPoints), uint64(points.Total))
	validatorTotal := darwinia.Balance(part.Mul(uint64(eraPayout)))
	commission := darwinia.Balance(prefs.Commission.Mul(uint64(validatorTotal)))
	leftover := validatorTotal - commission

	own := darwinia.PerbillFromRational(uint64(exposure.OwnPower), uint64(exposure.TotalPower))
	validatorPayout := darwinia.Balance(own.Mul(uint64(leftover))) + commission

	logger.Debug("payout stakers", "era", era, "validator", validatorStash, "total", validatorTotal, "commission", commission)

	if err := s.makePayout(validatorStash, validatorPayout); err != nil {
		return err
	}
	for _, n := range exposure.Others {
		share := darwinia.PerbillFromRational(uint64(n.Power), uint64(exposure.TotalPower))
		if err := s.makePayout(n.Who, darwinia.Balance(share.Mul(uint64(leftover)))); err != nil {
			return err
		}
	}
	return nil
}

// makePayout pays amount from the staking pot to the reward destination of
// stash. Transfers that can't be made are logged and skipped.
func (s *Staking) makePayout(stash darwinia.AccountID, amount darwinia.Balance) error {
	if amount == 0 {
		return nil
	}
	dest, err := s.payee.Get(stash)
	if err != nil {
		return err
	}

	var to darwinia.AccountID
	switch dest.Kind {
	case PayNone:
		return nil
	case PayStash, PayStaked:
		to = stash
	case PayController:
		controller, ok, err := s.bonded.Lookup(stash)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		to = controller
	case PayAccount:
		to = dest.Account
	}

	if err := s.deps.Ring.Transfer(s.AccountID(), to, amount, currency.AllowDeath); err != nil {
		if !reverts.IsRevertErr(err) {
			return err
		}
		logger.Error("payout failed", "stash", stash, "to", to, "amount", amount, "err", err)
		return nil
	}

	if dest.Kind == PayStaked {
		l, controller, err := s.LedgerOfStash(stash)
		if err != nil && !reverts.IsRevertErr(err) {
			return err
		}
		if err != nil {
			logger.Warn("reward paid to stash without ledger", "stash", stash, "amount", amount)
			s.emit(Reward{Stash: stash, Amount: amount})
			return nil
		}
		l.BondRing(amount, s.deps.Clock.Now(), 0)
		if err := s.updateLedger(controller, l); err != nil {
			return err
		}
	}

	metricPayouts().Add(1)
	s.emit(Reward{Stash: stash, Amount: amount})
	return nil
}
