// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package ledger holds the bonding ledger of a stash and its pure mutations.
// Writing the ledger back and syncing the currency locks is up to the caller.
package ledger

import (
	"slices"

	"github.com/darwinia-network/darwinia-go/currency"
	"github.com/darwinia-network/darwinia-go/darwinia"
)

// DepositItem is a fixed term Ring deposit.
type DepositItem struct {
	Value      darwinia.Balance
	StartTime  darwinia.Moment
	ExpireTime darwinia.Moment
}

// StakingLedger is the bonding record of a stash, keyed by its controller.
type StakingLedger struct {
	Stash             darwinia.AccountID
	ActiveRing        darwinia.Balance
	ActiveDepositRing darwinia.Balance
	ActiveKton        darwinia.Balance
	DepositItems      []DepositItem
	RingStakingLock   currency.StakingLock
	KtonStakingLock   currency.StakingLock
	ClaimedRewards    []darwinia.EraIndex
}

// New returns an empty ledger of stash.
func New(stash darwinia.AccountID) *StakingLedger {
	return &StakingLedger{Stash: stash}
}

// ActiveNormalRing is the bonded Ring not held by a deposit.
func (l *StakingLedger) ActiveNormalRing() darwinia.Balance {
	return darwinia.SaturatingSub(l.ActiveRing, l.ActiveDepositRing)
}

// IsEmpty tells whether nothing is bonded or unbonding.
func (l *StakingLedger) IsEmpty() bool {
	return l.ActiveRing == 0 && l.ActiveKton == 0 &&
		len(l.RingStakingLock.Unbondings) == 0 && len(l.KtonStakingLock.Unbondings) == 0
}

// UnbondingChunks returns the number of unbonding chunks of both assets.
func (l *StakingLedger) UnbondingChunks() int {
	return len(l.RingStakingLock.Unbondings) + len(l.KtonStakingLock.Unbondings)
}

// SyncLocks sets the staking amount of both locks to the active balances.
func (l *StakingLedger) SyncLocks() {
	l.RingStakingLock.StakingAmount = l.ActiveRing
	l.KtonStakingLock.StakingAmount = l.ActiveKton
}

// BondRing adds value to the active Ring. A deposit item is recorded when
// the promise is at least three months.
func (l *StakingLedger) BondRing(value darwinia.Balance, now darwinia.Moment, promiseMonth uint8) (expire darwinia.Moment) {
	l.ActiveRing = darwinia.SaturatingAdd(l.ActiveRing, value)
	expire = now
	if promiseMonth >= 3 {
		expire = now + darwinia.Moment(promiseMonth)*darwinia.MonthInMilliseconds
		l.ActiveDepositRing = darwinia.SaturatingAdd(l.ActiveDepositRing, value)
		l.DepositItems = append(l.DepositItems, DepositItem{Value: value, StartTime: now, ExpireTime: expire})
	}
	return expire
}

// BondKton adds value to the active Kton.
func (l *StakingLedger) BondKton(value darwinia.Balance) {
	l.ActiveKton = darwinia.SaturatingAdd(l.ActiveKton, value)
}

// Deposit turns up to value of normal Ring into a deposit and returns the
// amount deposited.
func (l *StakingLedger) Deposit(value darwinia.Balance, now darwinia.Moment, promiseMonth uint8) (darwinia.Balance, darwinia.Moment) {
	value = min(value, l.ActiveNormalRing())
	expire := now + darwinia.Moment(promiseMonth)*darwinia.MonthInMilliseconds
	if value == 0 {
		return 0, expire
	}
	l.ActiveDepositRing += value
	l.DepositItems = append(l.DepositItems, DepositItem{Value: value, StartTime: now, ExpireTime: expire})
	return value, expire
}

// ClearMatureDeposits drops the deposit items expired at now and returns the
// Ring they released.
func (l *StakingLedger) ClearMatureDeposits(now darwinia.Moment) darwinia.Balance {
	var released darwinia.Balance
	l.DepositItems = slices.DeleteFunc(l.DepositItems, func(item DepositItem) bool {
		if item.ExpireTime <= now {
			released += item.Value
			return true
		}
		return false
	})
	l.ActiveDepositRing = darwinia.SaturatingSub(l.ActiveDepositRing, released)
	return released
}

// ConsolidateUnbondings drops the chunks unlocked at bn.
func (l *StakingLedger) ConsolidateUnbondings(bn darwinia.BlockNumber) {
	l.RingStakingLock.Shrink(bn)
	l.KtonStakingLock.Shrink(bn)
}

// UnbondRing moves up to value of normal Ring into an unbonding chunk.
// Deposited Ring can not be unbonded.
func (l *StakingLedger) UnbondRing(value darwinia.Balance, until darwinia.BlockNumber) darwinia.Balance {
	value = min(value, l.ActiveNormalRing())
	if value == 0 {
		return 0
	}
	l.ActiveRing -= value
	l.RingStakingLock.Unbondings = append(l.RingStakingLock.Unbondings, currency.Unbonding{Amount: value, Until: until})
	return value
}

// UnbondKton moves up to value of Kton into an unbonding chunk.
func (l *StakingLedger) UnbondKton(value darwinia.Balance, until darwinia.BlockNumber) darwinia.Balance {
	value = min(value, l.ActiveKton)
	if value == 0 {
		return 0
	}
	l.ActiveKton -= value
	l.KtonStakingLock.Unbondings = append(l.KtonStakingLock.Unbondings, currency.Unbonding{Amount: value, Until: until})
	return value
}

// Rebond moves up to ring and kton back from the unbonding chunks, newest
// first, and returns the amounts rebonded.
func (l *StakingLedger) Rebond(ring, kton darwinia.Balance) (darwinia.Balance, darwinia.Balance) {
	rebondedRing := rebond(&l.RingStakingLock, ring)
	rebondedKton := rebond(&l.KtonStakingLock, kton)
	l.ActiveRing = darwinia.SaturatingAdd(l.ActiveRing, rebondedRing)
	l.ActiveKton = darwinia.SaturatingAdd(l.ActiveKton, rebondedKton)
	return rebondedRing, rebondedKton
}

func rebond(lock *currency.StakingLock, plan darwinia.Balance) darwinia.Balance {
	var rebonded darwinia.Balance
	for rebonded < plan && len(lock.Unbondings) > 0 {
		last := &lock.Unbondings[len(lock.Unbondings)-1]
		if rest := plan - rebonded; last.Amount <= rest {
			rebonded += last.Amount
			lock.Unbondings = lock.Unbondings[:len(lock.Unbondings)-1]
		} else {
			last.Amount -= rest
			rebonded = plan
		}
	}
	return rebonded
}

// ClaimReward records era as paid, forgetting eras before oldest. It
// returns false if era was already claimed.
func (l *StakingLedger) ClaimReward(era, oldest darwinia.EraIndex) bool {
	l.ClaimedRewards = slices.DeleteFunc(l.ClaimedRewards, func(e darwinia.EraIndex) bool { return e < oldest })
	pos, found := slices.BinarySearch(l.ClaimedRewards, era)
	if found {
		return false
	}
	l.ClaimedRewards = slices.Insert(l.ClaimedRewards, pos, era)
	return true
}
