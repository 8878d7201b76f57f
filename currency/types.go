// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package currency

import (
	"github.com/darwinia-network/darwinia-go/darwinia"
)

// ExistenceRequirement tells a withdrawal whether the source may be reaped.
type ExistenceRequirement uint8

const (
	KeepAlive ExistenceRequirement = iota
	AllowDeath
)

// Reasons are the purposes of a withdrawal a lock applies to.
type Reasons uint8

const (
	ReasonTransfer Reasons = 1 << iota
	ReasonReserve
	ReasonFee

	ReasonsAll = ReasonTransfer | ReasonReserve | ReasonFee
)

// AccountData is the balance record of an account.
type AccountData struct {
	Free     darwinia.Balance
	Reserved darwinia.Balance
}

// Total returns free plus reserved, saturating.
func (a AccountData) Total() darwinia.Balance {
	return darwinia.SaturatingAdd(a.Free, a.Reserved)
}

// Unbonding is a chunk of stake unlocking at Until.
type Unbonding struct {
	Amount darwinia.Balance
	Until  darwinia.BlockNumber
}

// StakingLock is the lock staking holds on a stash.
type StakingLock struct {
	StakingAmount darwinia.Balance
	Unbondings    []Unbonding
}

// LockedAmount returns the staking amount plus all chunks still unbonding at bn.
func (l *StakingLock) LockedAmount(bn darwinia.BlockNumber) darwinia.Balance {
	locked := l.StakingAmount
	for _, u := range l.Unbondings {
		if bn < u.Until {
			locked = darwinia.SaturatingAdd(locked, u.Amount)
		}
	}
	return locked
}

// Shrink drops the chunks that have unlocked at bn.
func (l *StakingLock) Shrink(bn darwinia.BlockNumber) {
	kept := l.Unbondings[:0]
	for _, u := range l.Unbondings {
		if bn < u.Until {
			kept = append(kept, u)
		}
	}
	l.Unbondings = kept
}

// LockKind tells how a LockFor is interpreted.
type LockKind uint8

const (
	LockCommon LockKind = iota
	LockStaking
)

// LockFor is either a plain amount or a staking lock.
type LockFor struct {
	Kind    LockKind
	Amount  darwinia.Balance
	Staking StakingLock
}

// Common makes a plain lock of amount.
func Common(amount darwinia.Balance) LockFor {
	return LockFor{Kind: LockCommon, Amount: amount}
}

// Staking makes a staking lock.
func Staking(l StakingLock) LockFor {
	return LockFor{Kind: LockStaking, Staking: l}
}

func (l *LockFor) LockedAmount(bn darwinia.BlockNumber) darwinia.Balance {
	if l.Kind == LockStaking {
		return l.Staking.LockedAmount(bn)
	}
	return l.Amount
}

// BalanceLock is a named lock on an account.
type BalanceLock struct {
	ID      darwinia.ModuleID
	LockFor LockFor
	Reasons Reasons
}
