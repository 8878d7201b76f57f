// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package reverts

import (
	"errors"
	"testing"

	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestIsRevertErr(t *testing.T) {
	errNotController := New("staking", "NotController")

	assert.True(t, IsRevertErr(errNotController))
	assert.True(t, IsRevertErr(pkgerrors.Wrap(errNotController, "unbond")))
	assert.False(t, IsRevertErr(errors.New("disk failure")))
	assert.False(t, IsRevertErr(nil))
	assert.False(t, IsRevertErr("not an error"))
}

func TestOf(t *testing.T) {
	errAlreadyClaimed := New("staking", "AlreadyClaimed")

	ve, ok := Of(pkgerrors.Wrap(errAlreadyClaimed, "payout"))
	assert.True(t, ok)
	assert.Equal(t, "staking", ve.Module())
	assert.Equal(t, "AlreadyClaimed", ve.Name())
	assert.Equal(t, "staking: AlreadyClaimed", ve.Error())
	assert.ErrorIs(t, pkgerrors.Wrap(errAlreadyClaimed, "payout"), errAlreadyClaimed)

	_, ok = Of(errors.New("plain"))
	assert.False(t, ok)
}
