// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package darwinia

import "github.com/darwinia-network/darwinia-go/reverts"

// ErrBadOrigin is returned when a call is dispatched from an origin it does not accept.
var ErrBadOrigin = reverts.New("system", "BadOrigin")

type originKind uint8

const (
	originNone originKind = iota
	originSigned
	originRoot
)

// Origin is the dispatcher of a call.
type Origin struct {
	kind originKind
	who  AccountID
}

// Signed returns an origin for a call signed by who.
func Signed(who AccountID) Origin { return Origin{kind: originSigned, who: who} }

// Root returns the privileged origin.
func Root() Origin { return Origin{kind: originRoot} }

// None returns the origin of unsigned calls, e.g. off-chain worker submissions.
func None() Origin { return Origin{kind: originNone} }

// EnsureSigned returns the signer or ErrBadOrigin.
func (o Origin) EnsureSigned() (AccountID, error) {
	if o.kind != originSigned {
		return AccountID{}, ErrBadOrigin
	}
	return o.who, nil
}

// EnsureRoot fails unless the origin is root.
func (o Origin) EnsureRoot() error {
	if o.kind != originRoot {
		return ErrBadOrigin
	}
	return nil
}

// EnsureNone fails unless the call is unsigned.
func (o Origin) EnsureNone() error {
	if o.kind != originNone {
		return ErrBadOrigin
	}
	return nil
}

func (o Origin) String() string {
	switch o.kind {
	case originSigned:
		return "signed(" + o.who.AbbrevString() + ")"
	case originRoot:
		return "root"
	default:
		return "none"
	}
}
