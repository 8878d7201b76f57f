// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"github.com/darwinia-network/darwinia-go/darwinia"
	"github.com/darwinia-network/darwinia-go/phragmen"
)

// Asset selects Ring or Kton.
type Asset uint8

const (
	AssetRing Asset = iota
	AssetKton
)

func (a Asset) String() string {
	if a == AssetKton {
		return "kton"
	}
	return "ring"
}

// StakingBalance is an amount of one of the two staking assets.
type StakingBalance struct {
	Asset  Asset
	Amount darwinia.Balance
}

func RingBalance(v darwinia.Balance) StakingBalance { return StakingBalance{AssetRing, v} }
func KtonBalance(v darwinia.Balance) StakingBalance { return StakingBalance{AssetKton, v} }

// RewardKind tells where rewards of a stash go.
type RewardKind uint8

const (
	// PayStaked pays into the stash and bonds it.
	PayStaked RewardKind = iota
	PayStash
	PayController
	PayAccount
	PayNone
)

// RewardDestination is where the rewards of a stash are paid.
// Account is only used with PayAccount.
type RewardDestination struct {
	Kind    RewardKind
	Account darwinia.AccountID
}

func Staked() RewardDestination                        { return RewardDestination{Kind: PayStaked} }
func ToStash() RewardDestination                       { return RewardDestination{Kind: PayStash} }
func ToController() RewardDestination                  { return RewardDestination{Kind: PayController} }
func ToAccount(a darwinia.AccountID) RewardDestination { return RewardDestination{PayAccount, a} }
func NoPayout() RewardDestination                      { return RewardDestination{Kind: PayNone} }

// ValidatorPrefs are the preferences a validator declares.
type ValidatorPrefs struct {
	Commission darwinia.Perbill
}

// Nominations are the targets of a nominator and the era they were made in.
type Nominations struct {
	Targets     []darwinia.AccountID
	SubmittedIn darwinia.EraIndex
	Suppressed  bool
}

// IndividualExposure is the stake of one nominator behind a validator.
type IndividualExposure struct {
	Who         darwinia.AccountID
	RingBalance darwinia.Balance
	KtonBalance darwinia.Balance
	Power       darwinia.Power
}

// Exposure is the stake behind a validator in an era.
type Exposure struct {
	OwnRingBalance darwinia.Balance
	OwnKtonBalance darwinia.Balance
	OwnPower       darwinia.Power
	TotalPower     darwinia.Power
	Others         []IndividualExposure
}

// StashExposure pairs an exposure with its validator.
type StashExposure struct {
	Stash    darwinia.AccountID
	Exposure Exposure
}

// ActiveEraInfo is the era being rewarded. Start is only meaningful once
// Started, which happens when the first block of the era is finalized.
type ActiveEraInfo struct {
	Index   darwinia.EraIndex
	Started bool
	Start   darwinia.Moment
}

// Forcing overrides the era rotation cadence.
type Forcing uint8

const (
	NotForcing Forcing = iota
	ForceNew
	ForceNone
	ForceAlways
)

// ElectionStatus tells whether the election window is open, and since when.
type ElectionStatus struct {
	Open  bool
	Start darwinia.BlockNumber
}

// ElectionCompute is how an election result was obtained.
type ElectionCompute uint8

const (
	ComputeOnChain ElectionCompute = iota
	ComputeSigned
	ComputeUnsigned
)

func (c ElectionCompute) String() string {
	switch c {
	case ComputeSigned:
		return "signed"
	case ComputeUnsigned:
		return "unsigned"
	default:
		return "onchain"
	}
}

// ElectionSize is the snapshot size a solution was computed against.
type ElectionSize struct {
	Validators phragmen.TargetIndex
	Nominators phragmen.VoterIndex
}

// ElectionResult is an election outcome waiting to be used by the next era.
type ElectionResult struct {
	ElectedStashes []darwinia.AccountID
	Exposures      []StashExposure
	Compute        ElectionCompute
}

// Solution is an election result computed off chain.
type Solution struct {
	Winners []phragmen.TargetIndex
	Compact phragmen.Compact
	Score   phragmen.Score
	Era     darwinia.EraIndex
	Size    ElectionSize
}

// IndividualPoints are the reward points of a validator.
type IndividualPoints struct {
	Who    darwinia.AccountID
	Points uint32
}

// EraRewardPoints are the reward points of an era, sorted by account.
type EraRewardPoints struct {
	Total      uint32
	Individual []IndividualPoints
}

// Of returns the points of who.
func (p *EraRewardPoints) Of(who darwinia.AccountID) uint32 {
	for _, ip := range p.Individual {
		if ip.Who == who {
			return ip.Points
		}
	}
	return 0
}

// RK is a pair of Ring and Kton amounts.
type RK struct {
	Ring darwinia.Balance
	Kton darwinia.Balance
}

func (rk RK) IsZero() bool { return rk.Ring == 0 && rk.Kton == 0 }

func (rk RK) add(o RK) RK {
	return RK{darwinia.SaturatingAdd(rk.Ring, o.Ring), darwinia.SaturatingAdd(rk.Kton, o.Kton)}
}

func (rk RK) sub(o RK) RK {
	return RK{darwinia.SaturatingSub(rk.Ring, o.Ring), darwinia.SaturatingSub(rk.Kton, o.Kton)}
}

func mulRK(p darwinia.Perbill, rk RK) RK {
	return RK{darwinia.Balance(p.Mul(uint64(rk.Ring))), darwinia.Balance(p.Mul(uint64(rk.Kton)))}
}

// StashSlash is the amount a stash will lose to a slash.
type StashSlash struct {
	Stash darwinia.AccountID
	Value RK
}

// UnappliedSlash is a slash waiting for its era to be applied.
type UnappliedSlash struct {
	Validator darwinia.AccountID
	Own       RK
	Others    []StashSlash
	Reporters []darwinia.AccountID
	Payout    RK
}

// ValidatorSlash is the largest slash of a validator in an era.
type ValidatorSlash struct {
	Fraction darwinia.Perbill
	Value    RK
}

// BondedEra records the session an era in the bonding window started at.
type BondedEra struct {
	Era          darwinia.EraIndex
	StartSession darwinia.SessionIndex
}

// OffenceDetails is an offender with the exposure it had and who reported it.
type OffenceDetails struct {
	Offender  darwinia.AccountID
	Exposure  Exposure
	Reporters []darwinia.AccountID
}
