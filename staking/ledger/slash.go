// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"github.com/darwinia-network/darwinia-go/currency"
	"github.com/darwinia-network/darwinia-go/darwinia"
)

// Slash removes up to ring and kton from the ledger and returns the amounts
// actually removed. Active stake is taken first. Slashed deposit Ring
// consumes unexpired deposit items in order. What remains is taken from the
// unbonding chunks not yet unlocked at bn, front first.
func (l *StakingLedger) Slash(ring, kton darwinia.Balance, bn darwinia.BlockNumber, now darwinia.Moment) (darwinia.Balance, darwinia.Balance) {
	restRing, restKton := ring, kton

	if fromActive := min(restRing, l.ActiveRing); fromActive > 0 {
		if fromDeposit, ok := darwinia.CheckedSub(fromActive, l.ActiveNormalRing()); ok {
			l.ActiveDepositRing = darwinia.SaturatingSub(l.ActiveDepositRing, fromDeposit)
			l.DepositItems = slashDeposits(l.DepositItems, fromDeposit, now)
		}
		l.ActiveRing -= fromActive
		restRing -= fromActive
	}
	if fromActive := min(restKton, l.ActiveKton); fromActive > 0 {
		l.ActiveKton -= fromActive
		restKton -= fromActive
	}

	restRing = slashUnbondings(&l.RingStakingLock, restRing, bn)
	restKton = slashUnbondings(&l.KtonStakingLock, restKton, bn)

	return ring - restRing, kton - restKton
}

// slashDeposits drops expired items and consumes amount from the others in
// order. The first pass works out what each item keeps, the second rebuilds.
func slashDeposits(items []DepositItem, amount darwinia.Balance, now darwinia.Moment) []DepositItem {
	keep := make([]darwinia.Balance, len(items))
	for i, item := range items {
		if now >= item.ExpireTime {
			continue
		}
		taken := min(amount, item.Value)
		amount -= taken
		keep[i] = item.Value - taken
	}

	out := make([]DepositItem, 0, len(items))
	for i, item := range items {
		if keep[i] > 0 {
			item.Value = keep[i]
			out = append(out, item)
		}
	}
	return out
}

// slashUnbondings consumes amount from the chunks still unbonding at bn and
// returns what could not be taken. Unlocked chunks are left untouched.
func slashUnbondings(lock *currency.StakingLock, amount darwinia.Balance, bn darwinia.BlockNumber) darwinia.Balance {
	if amount == 0 {
		return 0
	}
	keep := make([]darwinia.Balance, len(lock.Unbondings))
	for i, u := range lock.Unbondings {
		keep[i] = u.Amount
		if bn >= u.Until {
			continue
		}
		taken := min(amount, u.Amount)
		amount -= taken
		keep[i] -= taken
	}

	out := lock.Unbondings[:0]
	for i, u := range lock.Unbondings {
		if keep[i] > 0 {
			u.Amount = keep[i]
			out = append(out, u)
		}
	}
	lock.Unbondings = out
	return amount
}
