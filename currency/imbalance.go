// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package currency

import "github.com/darwinia-network/darwinia-go/darwinia"

// OnUnbalanced handles an amount that was burned by a slash or a penalty,
// or that is to be minted as a remainder.
type OnUnbalanced interface {
	OnUnbalanced(amount darwinia.Balance) error
}

// DepositInto credits imbalances to a fixed account, e.g. the treasury.
type DepositInto struct {
	Currency *Currency
	Account  darwinia.AccountID
}

func (d DepositInto) OnUnbalanced(amount darwinia.Balance) error {
	_, err := d.Currency.DepositCreating(d.Account, amount)
	return err
}

// Discard leaves the imbalance burned.
type Discard struct{}

func (Discard) OnUnbalanced(darwinia.Balance) error { return nil }
