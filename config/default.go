// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package config

import (
	"time"

	"github.com/darwinia-network/darwinia-go/darwinia"
)

const coin = darwinia.Coin

// Default returns a development chain of four validators, two nominators
// and three relayers, with short eras.
func Default() *Config {
	return &Config{
		Ring: Currency{ExistentialDeposit: darwinia.Milli},
		Kton: Currency{ExistentialDeposit: darwinia.Milli},
		Staking: Staking{
			SessionsPerEra:                   3,
			BondingDurationInEra:             2,
			BondingDurationInBlockNumber:     200,
			SlashDeferDuration:               0,
			ElectionLookahead:                5,
			MaxNominatorRewardedPerValidator: 64,
			Cap:                              10_000_000_000 * coin,
			SlashRewardFraction:              10,
			PayoutFraction:                   50,
			HistoryDepth:                     84,
			ValidatorCount:                   3,
			MinimumValidatorCount:            2,
		},
		Session: Session{
			Period:            20,
			DisabledThreshold: 33,
		},
		FeeMarket: FeeMarket{
			MinimumLockCollateral: 100 * coin,
			MinimumRelayFee:       10 * coin,
			CollateralPerOrder:    10 * coin,
			SlotTimes:             []darwinia.BlockNumber{50, 50, 50},
			ForAssignedRelayers:   60,
			ForMessageRelayer:     80,
			ForConfirmRelayer:     20,
			SlashPerBlock:         2 * coin,
		},
		Offchain: Offchain{Enabled: true, Timeout: 10 * time.Second},
		Genesis: Genesis{
			Accounts: []Endowment{
				{Account: "v1", Ring: 10_000 * coin, Kton: 100 * coin},
				{Account: "v2", Ring: 10_000 * coin, Kton: 100 * coin},
				{Account: "v3", Ring: 10_000 * coin},
				{Account: "v4", Ring: 10_000 * coin},
				{Account: "n1", Ring: 5_000 * coin, Kton: 50 * coin},
				{Account: "n2", Ring: 5_000 * coin},
				{Account: "r1", Ring: 1_000 * coin},
				{Account: "r2", Ring: 1_000 * coin},
				{Account: "r3", Ring: 1_000 * coin},
				{Account: "sender", Ring: 100_000 * coin},
			},
			Stakers: []Staker{
				{Stash: "v1", Controller: "v1-ctrl", Ring: 5_000 * coin, Kton: 50 * coin, Validator: true, Commission: 5},
				{Stash: "v2", Controller: "v2-ctrl", Ring: 4_000 * coin, Validator: true, Commission: 10},
				{Stash: "v3", Controller: "v3-ctrl", Ring: 3_000 * coin, Validator: true},
				{Stash: "v4", Controller: "v4-ctrl", Ring: 2_000 * coin, Validator: true},
				{Stash: "n1", Controller: "n1-ctrl", Ring: 2_000 * coin, Kton: 20 * coin, Targets: []Account{"v3", "v4"}},
				{Stash: "n2", Controller: "n2-ctrl", Ring: 1_000 * coin, Targets: []Account{"v1", "v4"}},
			},
		},
		Traffic: Traffic{
			BlockTime:       6000,
			Relayers:        []Account{"r1", "r2", "r3"},
			Sender:          "sender",
			MessageInterval: 3,
			ConfirmDelay:    4,
			Payout:          true,
		},
		Log:     Log{Level: "info", Format: "terminal"},
		Metrics: Metrics{Addr: "localhost:2112"},
	}
}
