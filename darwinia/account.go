// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package darwinia

import (
	"bytes"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/pkg/errors"
)

// AccountID identifies an on-chain account. Stashes, controllers, relayers
// and module pots all share this type.
type AccountID [32]byte

// String implements stringer
func (a AccountID) String() string {
	return hexutil.Encode(a[:])
}

// AbbrevString returns abbrev string presentation.
func (a AccountID) AbbrevString() string {
	return fmt.Sprintf("0x%x…%x", a[:4], a[28:])
}

// Bytes returns byte slice form of AccountID.
func (a AccountID) Bytes() []byte {
	return a[:]
}

// IsZero returns if the account has all zero bytes.
func (a AccountID) IsZero() bool {
	return a == AccountID{}
}

// Compare orders accounts by their raw bytes.
func (a AccountID) Compare(b AccountID) int {
	return bytes.Compare(a[:], b[:])
}

// MarshalText implements encoding.TextMarshaler.
func (a AccountID) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *AccountID) UnmarshalText(text []byte) error {
	parsed, err := ParseAccountID(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// ParseAccountID converts a 0x prefixed hex string into AccountID.
func ParseAccountID(s string) (AccountID, error) {
	raw, err := hexutil.Decode(s)
	if err != nil {
		return AccountID{}, errors.Wrap(err, "parse account")
	}
	if len(raw) != 32 {
		return AccountID{}, errors.New("invalid account length")
	}
	var a AccountID
	copy(a[:], raw)
	return a, nil
}

// MustParseAccountID panics on error.
func MustParseAccountID(s string) AccountID {
	a, err := ParseAccountID(s)
	if err != nil {
		panic(err)
	}
	return a
}

// BytesToAccountID converts bytes slice into AccountID, left padded.
func BytesToAccountID(b []byte) AccountID {
	return AccountID(leftPad32(b))
}

// NamedAccount derives a well-known account from a name, used for development
// chains and tests ("alice", "bob", ...).
func NamedAccount(name string) AccountID {
	return AccountID(Blake2b([]byte("account"), []byte(name)))
}

// ModuleID is the 8-byte identifier of a module owned pot, e.g. "da/staki".
type ModuleID [8]byte

// NewModuleID builds a ModuleID from a string, truncating or zero filling it to 8 bytes.
func NewModuleID(s string) (id ModuleID) {
	copy(id[:], s)
	return
}

func (id ModuleID) String() string {
	return string(bytes.TrimRight(id[:], "\x00"))
}

// Account returns the account owned by the module: "modl" followed by the id,
// zero filled.
func (id ModuleID) Account() AccountID {
	var a AccountID
	copy(a[:], "modl")
	copy(a[4:], id[:])
	return a
}
