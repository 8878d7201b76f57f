// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package feemarket

import "github.com/darwinia-network/darwinia-go/reverts"

const moduleName = "feemarket"

var (
	ErrInsufficientBalance        = reverts.New(moduleName, "InsufficientBalance")
	ErrAlreadyEnrolled            = reverts.New(moduleName, "AlreadyEnrolled")
	ErrNotEnrolled                = reverts.New(moduleName, "NotEnrolled")
	ErrLockCollateralTooLow       = reverts.New(moduleName, "LockCollateralTooLow")
	ErrRelayFeeTooLow             = reverts.New(moduleName, "RelayFeeTooLow")
	ErrOccupiedRelayer            = reverts.New(moduleName, "OccupiedRelayer")
	ErrStillHasOrdersNotConfirmed = reverts.New(moduleName, "StillHasOrdersNotConfirmed")
	ErrTooFewEnrolledRelayers     = reverts.New(moduleName, "TooFewEnrolledRelayers")
	ErrInsufficientFee            = reverts.New(moduleName, "InsufficientFee")
	ErrOrderExists                = reverts.New(moduleName, "OrderExists")
	ErrInvalidRange               = reverts.New(moduleName, "InvalidRange")
	ErrTooManyMessages            = reverts.New(moduleName, "TooManyMessages")
)
