// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package currency

import "github.com/darwinia-network/darwinia-go/reverts"

var (
	ErrInsufficientBalance   = reverts.New("balances", "InsufficientBalance")
	ErrLiquidityRestrictions = reverts.New("balances", "LiquidityRestrictions")
	ErrExistentialDeposit    = reverts.New("balances", "ExistentialDeposit")
	ErrKeepAlive             = reverts.New("balances", "KeepAlive")
	ErrDeadAccount           = reverts.New("balances", "DeadAccount")
	ErrOverflow              = reverts.New("balances", "Overflow")
)
