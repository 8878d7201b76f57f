// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"github.com/pkg/errors"

	"github.com/darwinia-network/darwinia-go/currency"
	"github.com/darwinia-network/darwinia-go/darwinia"
	"github.com/darwinia-network/darwinia-go/staking/inflation"
	"github.com/darwinia-network/darwinia-go/staking/ledger"
)

// Bond locks value of the origin stash and pairs it with controller.
func (s *Staking) Bond(
	origin darwinia.Origin,
	controller darwinia.AccountID,
	value StakingBalance,
	payee RewardDestination,
	promiseMonth uint8,
) error {
	stash, err := origin.EnsureSigned()
	if err != nil {
		return err
	}
	if ok, err := s.bonded.Has(stash); err != nil {
		return err
	} else if ok {
		return ErrAlreadyBonded
	}
	if ok, err := s.ledgers.Has(controller); err != nil {
		return err
	} else if ok {
		return ErrAlreadyPaired
	}
	if value.Amount < s.currencyOf(value.Asset).MinimumBalance() {
		return ErrInsufficientValue
	}

	logger.Debug("bond", "stash", stash, "controller", controller, "asset", value.Asset, "value", value.Amount)

	l := ledger.New(stash)
	if err := s.bondValue(l, value, promiseMonth); err != nil {
		return err
	}
	if l.ActiveRing < s.deps.Ring.MinimumBalance() && l.ActiveKton < s.deps.Kton.MinimumBalance() {
		return ErrInsufficientBond
	}

	if err := s.bonded.Set(stash, controller); err != nil {
		return err
	}
	if err := s.payee.Set(stash, payee); err != nil {
		return err
	}
	return s.updateLedger(controller, l)
}

// BondExtra adds up to value of free stash balance to the stake.
func (s *Staking) BondExtra(origin darwinia.Origin, value StakingBalance, promiseMonth uint8) error {
	stash, err := origin.EnsureSigned()
	if err != nil {
		return err
	}
	if err := s.ensureStorageOpsAllowed(); err != nil {
		return err
	}
	l, controller, err := s.LedgerOfStash(stash)
	if err != nil {
		return err
	}
	if err := s.bondValue(l, value, promiseMonth); err != nil {
		return err
	}
	return s.updateLedger(controller, l)
}

// bondValue moves up to value of the usable stash balance into l. Ring
// promised for three months or more becomes a deposit that mints Kton.
func (s *Staking) bondValue(l *ledger.StakingLedger, value StakingBalance, promiseMonth uint8) error {
	stash := l.Stash
	now := s.deps.Clock.Now()

	usable, err := s.currencyOf(value.Asset).UsableBalance(stash)
	if err != nil {
		return err
	}
	amount := min(value.Amount, usable)
	if amount == 0 {
		return nil
	}

	if value.Asset == AssetKton {
		l.BondKton(amount)
		s.emit(BondKton{Stash: stash, Amount: amount})
		return nil
	}

	promiseMonth = min(promiseMonth, darwinia.MaxPromiseMonth)
	l.ClearMatureDeposits(now)
	expire := l.BondRing(amount, now, promiseMonth)
	if promiseMonth >= 3 {
		if err := s.mintDepositBonus(stash, amount, promiseMonth); err != nil {
			return err
		}
	}
	s.emit(BondRing{Stash: stash, Amount: amount, StartTime: now, ExpireTime: expire})
	return nil
}

func (s *Staking) mintDepositBonus(stash darwinia.AccountID, value darwinia.Balance, months uint8) error {
	bonus := inflation.KtonBonus(value, months)
	if bonus == 0 {
		return nil
	}
	if _, err := s.deps.Kton.DepositCreating(stash, bonus); err != nil {
		return errors.Wrap(err, "mint deposit bonus")
	}
	return nil
}

// DepositExtra turns up to value of bonded normal Ring into a deposit.
func (s *Staking) DepositExtra(origin darwinia.Origin, value darwinia.Balance, promiseMonth uint8) error {
	stash, err := origin.EnsureSigned()
	if err != nil {
		return err
	}
	if err := s.ensureStorageOpsAllowed(); err != nil {
		return err
	}
	l, controller, err := s.LedgerOfStash(stash)
	if err != nil {
		return err
	}

	now := s.deps.Clock.Now()
	promiseMonth = max(3, min(promiseMonth, darwinia.MaxPromiseMonth))
	l.ClearMatureDeposits(now)
	deposited, expire := l.Deposit(value, now, promiseMonth)
	if deposited > 0 {
		if err := s.mintDepositBonus(stash, deposited, promiseMonth); err != nil {
			return err
		}
		s.emit(BondRing{Stash: stash, Amount: deposited, StartTime: now, ExpireTime: expire})
	}
	return s.updateLedger(controller, l)
}

// Unbond schedules value to leave the stake after the bonding duration.
// Deposited Ring can not be unbonded. When the stake left would be dust in
// both assets, the remainder is swept along.
func (s *Staking) Unbond(origin darwinia.Origin, value StakingBalance) error {
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

	lock := &l.RingStakingLock
	if value.Asset == AssetKton {
		lock = &l.KtonStakingLock
	}
	if len(lock.Unbondings) >= darwinia.MaxUnlockingChunks {
		return ErrNoMoreChunks
	}

	l.ClearMatureDeposits(s.deps.Clock.Now())
	until := s.deps.Clock.BlockNumber() + s.cfg.BondingDurationInBlockNumber

	var ring, kton darwinia.Balance
	if value.Asset == AssetKton {
		kton = l.UnbondKton(value.Amount, until)
	} else {
		ring = l.UnbondRing(value.Amount, until)
	}

	if l.ActiveDepositRing == 0 &&
		l.ActiveRing < s.deps.Ring.MinimumBalance() &&
		l.ActiveKton < s.deps.Kton.MinimumBalance() {
		ring += l.UnbondRing(l.ActiveRing, until)
		kton += l.UnbondKton(l.ActiveKton, until)
	}

	logger.Debug("unbond", "stash", l.Stash, "ring", ring, "kton", kton, "until", until)

	if ring > 0 {
		s.emit(UnbondRing{Stash: l.Stash, Amount: ring, Until: until})
	}
	if kton > 0 {
		s.emit(UnbondKton{Stash: l.Stash, Amount: kton, Until: until})
	}
	return s.updateLedger(controller, l)
}

// Rebond moves unbonding chunks back into the stake, most recent first.
func (s *Staking) Rebond(origin darwinia.Origin, ring, kton darwinia.Balance) error {
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
	if l.UnbondingChunks() == 0 {
		return ErrNoUnlockChunk
	}

	l.ConsolidateUnbondings(s.deps.Clock.BlockNumber())
	rebondedRing, rebondedKton := l.Rebond(ring, kton)
	if rebondedRing > 0 {
		now := s.deps.Clock.Now()
		s.emit(BondRing{Stash: l.Stash, Amount: rebondedRing, StartTime: now, ExpireTime: now})
	}
	if rebondedKton > 0 {
		s.emit(BondKton{Stash: l.Stash, Amount: rebondedKton})
	}
	return s.updateLedger(controller, l)
}

// WithdrawUnbonded releases the chunks whose bonding duration has passed.
func (s *Staking) WithdrawUnbonded(origin darwinia.Origin) error {
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

	bn := s.deps.Clock.BlockNumber()
	ring := unlocked(&l.RingStakingLock, bn)
	kton := unlocked(&l.KtonStakingLock, bn)
	l.ConsolidateUnbondings(bn)
	if ring > 0 || kton > 0 {
		s.emit(Withdrawn{Stash: l.Stash, Ring: ring, Kton: kton})
	}
	return s.updateLedger(controller, l)
}

func unlocked(lock *currency.StakingLock, bn darwinia.BlockNumber) (sum darwinia.Balance) {
	for _, u := range lock.Unbondings {
		if u.Until <= bn {
			sum += u.Amount
		}
	}
	return sum
}

// ClaimMatureDeposits turns the expired deposits back into normal Ring.
func (s *Staking) ClaimMatureDeposits(origin darwinia.Origin) error {
	controller, err := origin.EnsureSigned()
	if err != nil {
		return err
	}
	l, err := s.mustLedger(controller)
	if err != nil {
		return err
	}
	l.ClearMatureDeposits(s.deps.Clock.Now())
	s.emit(DepositsClaimed{Stash: l.Stash})
	return s.updateLedger(controller, l)
}

// TryClaimDepositsWithPunish releases the unexpired deposit ending at
// expireTime if the stash can pay the Kton penalty for leaving early.
// Nothing changes when it can't.
func (s *Staking) TryClaimDepositsWithPunish(origin darwinia.Origin, expireTime darwinia.Moment) error {
	controller, err := origin.EnsureSigned()
	if err != nil {
		return err
	}
	l, err := s.mustLedger(controller)
	if err != nil {
		return err
	}

	now := s.deps.Clock.Now()
	stash := l.Stash
	kept := l.DepositItems[:0]
	for _, item := range l.DepositItems {
		if item.ExpireTime != expireTime || item.ExpireTime <= now {
			kept = append(kept, item)
			continue
		}
		penalty := inflation.EarlyClaimPenalty(item.Value, item.StartTime, item.ExpireTime, now)
		paid, err := s.punish(stash, penalty)
		if err != nil {
			return err
		}
		if !paid {
			kept = append(kept, item)
			continue
		}
		l.ActiveDepositRing = darwinia.SaturatingSub(l.ActiveDepositRing, item.Value)
		s.emit(DepositsClaimedWithPunish{Stash: stash, Kton: penalty})
	}
	l.DepositItems = kept
	l.ClearMatureDeposits(now)
	return s.updateLedger(controller, l)
}

// punish takes penalty of free Kton from stash into the Kton slash handler.
// It reports false without touching anything when stash can't cover it.
func (s *Staking) punish(stash darwinia.AccountID, penalty darwinia.Balance) (bool, error) {
	free, err := s.deps.Kton.FreeBalance(stash)
	if err != nil {
		return false, err
	}
	if free < penalty {
		return false, nil
	}
	if err := s.deps.Kton.EnsureCanWithdraw(stash, penalty, currency.ReasonTransfer, free-penalty); err != nil {
		if errors.Is(err, currency.ErrLiquidityRestrictions) {
			return false, nil
		}
		return false, err
	}
	slashed, _, err := s.deps.Kton.Slash(stash, penalty)
	if err != nil {
		return false, err
	}
	if s.deps.KtonSlash != nil {
		if err := s.deps.KtonSlash.OnUnbalanced(slashed); err != nil {
			return false, err
		}
	}
	return true, nil
}

// SetPayee changes the reward destination of the stash controlled by origin.
func (s *Staking) SetPayee(origin darwinia.Origin, payee RewardDestination) error {
	controller, err := origin.EnsureSigned()
	if err != nil {
		return err
	}
	l, err := s.mustLedger(controller)
	if err != nil {
		return err
	}
	return s.payee.Set(l.Stash, payee)
}

// SetController pairs the origin stash with a new controller.
func (s *Staking) SetController(origin darwinia.Origin, controller darwinia.AccountID) error {
	stash, err := origin.EnsureSigned()
	if err != nil {
		return err
	}
	old, ok, err := s.bonded.Lookup(stash)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotStash
	}
	if ok, err := s.ledgers.Has(controller); err != nil {
		return err
	} else if ok {
		return ErrAlreadyPaired
	}
	if old == controller {
		return nil
	}
	l, ok, err := s.ledgers.Take(old)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotController
	}
	if err := s.bonded.Set(stash, controller); err != nil {
		return err
	}
	return s.ledgers.Set(controller, l)
}

// ReapStash removes a stash whose Ring has fallen to dust, typically after
// being slashed.
func (s *Staking) ReapStash(origin darwinia.Origin, stash darwinia.AccountID) error {
	if _, err := origin.EnsureSigned(); err != nil {
		return err
	}
	total, err := s.deps.Ring.TotalBalance(stash)
	if err != nil {
		return err
	}
	if total > s.deps.Ring.MinimumBalance() {
		return ErrFundedTarget
	}
	if err := s.killStash(stash); err != nil {
		return err
	}
	s.emit(StashReaped{Stash: stash})
	return nil
}

// killStash removes every staking record of stash together with its locks.
func (s *Staking) killStash(stash darwinia.AccountID) error {
	controller, ok, err := s.bonded.Take(stash)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotStash
	}
	l, ok, err := s.ledgers.Take(controller)
	if err != nil {
		return err
	}
	if ok {
		if err := s.adjustPools(l.ActiveRing, 0, l.ActiveKton, 0); err != nil {
			return err
		}
	}
	s.payee.Delete(stash)
	if _, err := s.chillStash(stash); err != nil {
		return err
	}
	if err := s.clearSlashingMetadata(stash); err != nil {
		return err
	}
	if err := s.deps.Ring.RemoveLock(darwinia.StakingLockID, stash); err != nil {
		return err
	}
	return s.deps.Kton.RemoveLock(darwinia.StakingLockID, stash)
}

func (s *Staking) clearSlashingMetadata(stash darwinia.AccountID) error {
	spans, ok, err := s.slashingSpans.Take(stash)
	if err != nil || !ok {
		return err
	}
	for _, span := range spans.All() {
		s.spanSlash.Delete(stash, span.Index)
	}
	return nil
}

// updateLedger is the only path writing a ledger. It keeps the pools and the
// staking locks of both currencies in line with the active stake.
func (s *Staking) updateLedger(controller darwinia.AccountID, l *ledger.StakingLedger) error {
	old, err := s.ledgers.Get(controller)
	if err != nil {
		return err
	}
	if err := s.adjustPools(old.ActiveRing, l.ActiveRing, old.ActiveKton, l.ActiveKton); err != nil {
		return err
	}

	l.SyncLocks()
	if err := s.deps.Ring.SetLock(darwinia.StakingLockID, l.Stash, currency.Staking(l.RingStakingLock), currency.ReasonsAll); err != nil {
		return errors.Wrap(err, "set ring lock")
	}
	ktonLocked := l.KtonStakingLock.StakingAmount > 0 || len(l.KtonStakingLock.Unbondings) > 0
	if _, exists, err := s.deps.Kton.Lock(darwinia.StakingLockID, l.Stash); err != nil {
		return err
	} else if ktonLocked || exists {
		if err := s.deps.Kton.SetLock(darwinia.StakingLockID, l.Stash, currency.Staking(l.KtonStakingLock), currency.ReasonsAll); err != nil {
			return errors.Wrap(err, "set kton lock")
		}
	}
	return s.ledgers.Set(controller, *l)
}

func (s *Staking) adjustPools(oldRing, newRing, oldKton, newKton darwinia.Balance) error {
	if oldRing != newRing {
		if err := s.ringPool.Mutate(func(p *darwinia.Balance) error {
			*p = darwinia.SaturatingAdd(darwinia.SaturatingSub(*p, oldRing), newRing)
			return nil
		}); err != nil {
			return err
		}
	}
	if oldKton != newKton {
		return s.ktonPool.Mutate(func(p *darwinia.Balance) error {
			*p = darwinia.SaturatingAdd(darwinia.SaturatingSub(*p, oldKton), newKton)
			return nil
		})
	}
	return nil
}

func (s *Staking) mustLedger(controller darwinia.AccountID) (*ledger.StakingLedger, error) {
	l, ok, err := s.Ledger(controller)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotController
	}
	return l, nil
}

func (s *Staking) currencyOf(asset Asset) *currency.Currency {
	if asset == AssetKton {
		return s.deps.Kton
	}
	return s.deps.Ring
}

// ensureStorageOpsAllowed rejects calls changing the election inputs while
// the election window is open.
func (s *Staking) ensureStorageOpsAllowed() error {
	status, err := s.eraElectionStatus.Get()
	if err != nil {
		return err
	}
	if status.Open {
		return ErrCallNotAllowed
	}
	return nil
}
