// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package reverts defines the failures a dispatched call may end with.
// Each module declares its closed set of failures as package level values,
// so callers match them with errors.Is.
package reverts

import (
	"errors"
)

type ErrRevert struct {
	module string
	name   string
}

func New(module, name string) *ErrRevert {
	return &ErrRevert{
		module: module,
		name:   name,
	}
}

func (e *ErrRevert) Error() string {
	return e.module + ": " + e.name
}

// Module returns the module that declared the failure.
func (e *ErrRevert) Module() string {
	return e.module
}

// Name returns the failure name, e.g. "NotController".
func (e *ErrRevert) Name() string {
	return e.name
}

func IsRevertErr(err any) bool {
	if err == nil {
		return false
	}
	e, ok := err.(error)
	if !ok {
		return false
	}
	var ve *ErrRevert
	return errors.As(e, &ve)
}

// Of returns the revert wrapped in err, if any.
func Of(err error) (*ErrRevert, bool) {
	var ve *ErrRevert
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
