// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package darwinia

import "encoding/binary"

type (
	// Balance is an amount of either Ring or Kton, in the smallest unit.
	Balance uint64
	// Power is the normalized staking weight, see TotalPower.
	Power uint32
	// EraIndex counts eras from genesis.
	EraIndex uint32
	// SessionIndex counts sessions from genesis.
	SessionIndex uint32
	// BlockNumber is the height of a block.
	BlockNumber uint32
	// Moment is a unix timestamp in milliseconds.
	Moment uint64
	// SpanIndex indexes the slashing spans of a stash.
	SpanIndex uint32
	// MessageNonce numbers messages within a lane.
	MessageNonce uint64
)

// LaneID identifies a cross-chain message lane.
type LaneID [4]byte

func (l LaneID) Bytes() []byte { return l[:] }

func (e EraIndex) Bytes() []byte     { return binary.BigEndian.AppendUint32(nil, uint32(e)) }
func (s SessionIndex) Bytes() []byte { return binary.BigEndian.AppendUint32(nil, uint32(s)) }
func (b BlockNumber) Bytes() []byte  { return binary.BigEndian.AppendUint32(nil, uint32(b)) }
func (s SpanIndex) Bytes() []byte    { return binary.BigEndian.AppendUint32(nil, uint32(s)) }
func (n MessageNonce) Bytes() []byte { return binary.BigEndian.AppendUint64(nil, uint64(n)) }

type unsigned interface {
	~uint8 | ~uint16 | ~uint32 | ~uint64
}

// SaturatingAdd returns a+b, clamped to the maximum of T.
func SaturatingAdd[T unsigned](a, b T) T {
	if s := a + b; s >= a {
		return s
	}
	return ^T(0)
}

// SaturatingSub returns a-b, clamped to zero.
func SaturatingSub[T unsigned](a, b T) T {
	if a > b {
		return a - b
	}
	return 0
}

// SaturatingMul returns a*b, clamped to the maximum of T.
func SaturatingMul[T unsigned](a, b T) T {
	if a == 0 || b == 0 {
		return 0
	}
	p := a * b
	if p/b != a {
		return ^T(0)
	}
	return p
}

// CheckedSub returns a-b and whether it did not underflow.
func CheckedSub[T unsigned](a, b T) (T, bool) {
	if a < b {
		return 0, false
	}
	return a - b, true
}
