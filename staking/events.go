// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import "github.com/darwinia-network/darwinia-go/darwinia"

type stakingEvent struct{}

func (stakingEvent) Module() string { return moduleName }

type (
	// EraPayout is emitted when an era ends with the validator payout and
	// the remainder minted to the remainder handler.
	EraPayout struct {
		stakingEvent
		Era    darwinia.EraIndex
		Payout darwinia.Balance
		Rest   darwinia.Balance
	}
	Reward struct {
		stakingEvent
		Stash  darwinia.AccountID
		Amount darwinia.Balance
	}
	Slash struct {
		stakingEvent
		Stash darwinia.AccountID
		Ring  darwinia.Balance
		Kton  darwinia.Balance
	}
	// OldSlashingReportDiscarded is emitted for offences older than the
	// bonding window.
	OldSlashingReportDiscarded struct {
		stakingEvent
		Session darwinia.SessionIndex
	}
	StakingElection struct {
		stakingEvent
		Compute ElectionCompute
	}
	StakingElectionFailed struct {
		stakingEvent
	}
	SolutionStored struct {
		stakingEvent
		Compute ElectionCompute
	}
	BondRing struct {
		stakingEvent
		Stash      darwinia.AccountID
		Amount     darwinia.Balance
		StartTime  darwinia.Moment
		ExpireTime darwinia.Moment
	}
	BondKton struct {
		stakingEvent
		Stash  darwinia.AccountID
		Amount darwinia.Balance
	}
	UnbondRing struct {
		stakingEvent
		Stash  darwinia.AccountID
		Amount darwinia.Balance
		Until  darwinia.BlockNumber
	}
	UnbondKton struct {
		stakingEvent
		Stash  darwinia.AccountID
		Amount darwinia.Balance
		Until  darwinia.BlockNumber
	}
	// Withdrawn reports the chunks that unlocked and left the staking lock.
	Withdrawn struct {
		stakingEvent
		Stash darwinia.AccountID
		Ring  darwinia.Balance
		Kton  darwinia.Balance
	}
	DepositsClaimed struct {
		stakingEvent
		Stash darwinia.AccountID
	}
	DepositsClaimedWithPunish struct {
		stakingEvent
		Stash darwinia.AccountID
		Kton  darwinia.Balance
	}
	Chilled struct {
		stakingEvent
		Stash darwinia.AccountID
	}
	StashReaped struct {
		stakingEvent
		Stash darwinia.AccountID
	}
	SlashCancelled struct {
		stakingEvent
		Era     darwinia.EraIndex
		Indices []uint32
	}
)
