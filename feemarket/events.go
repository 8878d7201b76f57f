// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package feemarket

import "github.com/darwinia-network/darwinia-go/darwinia"

type feeMarketEvent struct{}

func (feeMarketEvent) Module() string { return moduleName }

type (
	Enroll struct {
		feeMarketEvent
		Who        darwinia.AccountID
		Collateral darwinia.Balance
		Fee        darwinia.Balance
	}
	UpdateLockedCollateral struct {
		feeMarketEvent
		Who        darwinia.AccountID
		Collateral darwinia.Balance
	}
	UpdateRelayFee struct {
		feeMarketEvent
		Who darwinia.AccountID
		Fee darwinia.Balance
	}
	CancelEnrollment struct {
		feeMarketEvent
		Who darwinia.AccountID
	}
	OrderCreated struct {
		feeMarketEvent
		Lane     darwinia.LaneID
		Nonce    darwinia.MessageNonce
		Fee      darwinia.Balance
		Assigned []darwinia.AccountID
	}
	// OrderReward reports the split of one confirmed order. SlotRelayer is
	// zero when the order was delivered out of every slot.
	OrderReward struct {
		feeMarketEvent
		Lane           darwinia.LaneID
		Nonce          darwinia.MessageNonce
		SlotRelayer    darwinia.AccountID
		SlotReward     darwinia.Balance
		MessageRelayer darwinia.AccountID
		MessageReward  darwinia.Balance
		ConfirmRelayer darwinia.AccountID
		ConfirmReward  darwinia.Balance
		TreasuryReward darwinia.Balance
	}
	// RelayerSlashed is emitted for an assigned relayer that missed its slot.
	RelayerSlashed struct {
		feeMarketEvent
		Who    darwinia.AccountID
		Lane   darwinia.LaneID
		Nonce  darwinia.MessageNonce
		Amount darwinia.Balance
		Delay  darwinia.BlockNumber
	}
)
