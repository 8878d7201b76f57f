// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package currency

import "github.com/darwinia-network/darwinia-go/darwinia"

// instance names the currency emitting an event.
type instance string

func (i instance) Module() string { return string(i) }

type (
	// Endowed is emitted when an account is created with some free balance.
	Endowed struct {
		instance
		Who    darwinia.AccountID
		Amount darwinia.Balance
	}
	// DustLost is emitted when an account is reaped with a non-zero remainder.
	DustLost struct {
		instance
		Who    darwinia.AccountID
		Amount darwinia.Balance
	}
	Transfer struct {
		instance
		From, To darwinia.AccountID
		Amount   darwinia.Balance
	}
	Reserved struct {
		instance
		Who    darwinia.AccountID
		Amount darwinia.Balance
	}
	Unreserved struct {
		instance
		Who    darwinia.AccountID
		Amount darwinia.Balance
	}
	Slashed struct {
		instance
		Who    darwinia.AccountID
		Amount darwinia.Balance
	}
)
