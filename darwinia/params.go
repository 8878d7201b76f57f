// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package darwinia

// Clock gives modules the height and timestamp of the block being executed.
type Clock interface {
	BlockNumber() BlockNumber
	Now() Moment
}

// constants of the staking and fee market protocols.
const (
	Coin  Balance = 1_000_000_000
	Milli         = Coin / 1000

	// TotalPower is the power of all staked Ring and Kton together, split
	// evenly between the two pools.
	TotalPower Power = 1_000_000_000

	MonthInMilliseconds Moment = 30 * 24 * 60 * 60 * 1000
	// MillisecondsPerYear is the length of a julian year.
	MillisecondsPerYear Moment = 36525 * 24 * 60 * 60 / 100 * 1000

	MaxUnlockingChunks = 32
	MaxNominations     = 16
	// MaxPromiseMonth bounds the term of a ring deposit.
	MaxPromiseMonth = 36
)

var (
	StakingLockID   = NewModuleID("da/staki")
	FeeMarketLockID = NewModuleID("da/feelf")

	StakingModuleID   = NewModuleID("da/staki")
	TreasuryModuleID  = NewModuleID("da/trsry")
	FeeMarketModuleID = NewModuleID("da/feemk")
)
