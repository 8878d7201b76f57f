// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package feemarket

import (
	"cmp"

	"github.com/darwinia-network/darwinia-go/darwinia"
)

// AssignedRelayersNumber is the number of relayers an order is assigned to.
const AssignedRelayersNumber = 3

// MaxMessagesInConfirmation bounds the nonce range of one delivery
// confirmation.
const MaxMessagesInConfirmation = 1024

// Relayer is an enrolled relayer.
type Relayer struct {
	ID         darwinia.AccountID
	Collateral darwinia.Balance
	Fee        darwinia.Balance
}

// compareRelayers orders by fee ascending, then by collateral descending.
func compareRelayers(a, b Relayer) int {
	if c := cmp.Compare(a.Fee, b.Fee); c != 0 {
		return c
	}
	return cmp.Compare(b.Collateral, a.Collateral)
}

// PriorRelayer is an assigned relayer of an order together with the
// blocks it is expected to deliver in.
type PriorRelayer struct {
	ID  darwinia.AccountID
	Fee darwinia.Balance
	// ValidFrom and ValidTo bound its slot, ValidTo exclusive.
	ValidFrom darwinia.BlockNumber
	ValidTo   darwinia.BlockNumber
}

// Order is a message waiting for its delivery to be confirmed.
type Order struct {
	Lane     darwinia.LaneID
	Nonce    darwinia.MessageNonce
	Fee      darwinia.Balance
	SentTime darwinia.BlockNumber
	// Confirmed is set with ConfirmTime once the delivery is confirmed.
	Confirmed   bool
	ConfirmTime darwinia.BlockNumber
	// Collateral is locked from each assigned relayer until confirmation.
	Collateral darwinia.Balance
	Relayers   []PriorRelayer
}

func (o *Order) IsConfirmed() bool { return o.Confirmed }

// RequiredDeliveryRelayer returns the assigned relayer whose slot covers
// time.
func (o *Order) RequiredDeliveryRelayer(time darwinia.BlockNumber) (PriorRelayer, bool) {
	for _, r := range o.Relayers {
		if time >= r.ValidFrom && time < r.ValidTo {
			return r, true
		}
	}
	return PriorRelayer{}, false
}

// LastSlotEnd is the block after which no assigned relayer is in its slot.
func (o *Order) LastSlotEnd() darwinia.BlockNumber {
	if len(o.Relayers) == 0 {
		return o.SentTime
	}
	return o.Relayers[len(o.Relayers)-1].ValidTo
}

// MessageRelayer delivered the nonces from Begin to End inclusive.
type MessageRelayer struct {
	Relayer darwinia.AccountID
	Begin   darwinia.MessageNonce
	End     darwinia.MessageNonce
}

// OrderKey identifies an order.
type OrderKey struct {
	Lane  darwinia.LaneID
	Nonce darwinia.MessageNonce
}
