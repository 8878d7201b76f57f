// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package darwinia

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestAccountIDText(t *testing.T) {
	alice := NamedAccount("alice")

	parsed, err := ParseAccountID(alice.String())
	require.NoError(t, err)
	assert.Equal(t, alice, parsed)

	_, err = ParseAccountID("0x1234")
	assert.Error(t, err)
	_, err = ParseAccountID("zz")
	assert.Error(t, err)

	var out struct {
		Who AccountID `yaml:"who"`
	}
	require.NoError(t, yaml.Unmarshal([]byte("who: "+alice.String()), &out))
	assert.Equal(t, alice, out.Who)
}

func TestModuleAccount(t *testing.T) {
	acc := StakingModuleID.Account()
	assert.Equal(t, []byte("modlda/staki"), acc[:12])
	assert.Equal(t, make([]byte, 20), acc[12:])
	assert.Equal(t, "da/staki", StakingModuleID.String())
	assert.NotEqual(t, TreasuryModuleID.Account(), acc)
}

func TestOrigin(t *testing.T) {
	alice := NamedAccount("alice")

	who, err := Signed(alice).EnsureSigned()
	assert.NoError(t, err)
	assert.Equal(t, alice, who)

	_, err = Root().EnsureSigned()
	assert.ErrorIs(t, err, ErrBadOrigin)
	assert.NoError(t, Root().EnsureRoot())
	assert.ErrorIs(t, Signed(alice).EnsureRoot(), ErrBadOrigin)
	assert.NoError(t, None().EnsureNone())
	assert.ErrorIs(t, Root().EnsureNone(), ErrBadOrigin)
}

func TestBytesToAccountID(t *testing.T) {
	a := BytesToAccountID([]byte{1, 2})
	assert.Equal(t, byte(1), a[30])
	assert.Equal(t, byte(2), a[31])
	assert.Equal(t, -1, BytesToAccountID([]byte{1}).Compare(BytesToAccountID([]byte{2})))
}
