// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package darwinia

import (
	"fmt"
	"math"

	"github.com/holiman/uint256"
)

// Rounding selects how a rational product is rounded to an integer.
type Rounding uint8

const (
	RoundDown Rounding = iota
	RoundNearest
	RoundUp
)

// MulDiv returns a*b/d with the requested rounding, saturating at the maximum uint64.
// The product is computed with 256 bits so it never overflows. d must not be zero.
func MulDiv(a, b, d uint64, r Rounding) uint64 {
	prod := new(uint256.Int).Mul(uint256.NewInt(a), uint256.NewInt(b))
	den := uint256.NewInt(d)
	rem := new(uint256.Int)
	q, _ := new(uint256.Int).DivMod(prod, den, rem)

	switch r {
	case RoundUp:
		if !rem.IsZero() {
			q.AddUint64(q, 1)
		}
	case RoundNearest:
		if rem.Uint64() >= d/2+d%2 {
			q.AddUint64(q, 1)
		}
	}
	if !q.IsUint64() {
		return math.MaxUint64
	}
	return q.Uint64()
}

// rationalParts approximates p/q with the given accuracy, rounding down.
func rationalParts(p, q, acc uint64) uint64 {
	q = max(q, 1)
	p = min(p, q)
	return MulDiv(p, acc, q, RoundDown)
}

const (
	perbillOne     = 1_000_000_000
	permillOne     = 1_000_000
	percentOne     = 100
	perquintillOne = 1_000_000_000_000_000_000
	perU16One      = math.MaxUint16
)

// Perbill is a fraction in parts per billion.
type Perbill uint32

func PerbillFromRational(p, q uint64) Perbill { return Perbill(rationalParts(p, q, perbillOne)) }
func PerbillFromParts(parts uint32) Perbill   { return Perbill(min(parts, perbillOne)) }
func PerbillFromPercent(x uint32) Perbill     { return Perbill(min(x, 100) * (perbillOne / 100)) }
func PerbillOne() Perbill                     { return perbillOne }

func (p Perbill) Deconstruct() uint32      { return uint32(p) }
func (p Perbill) IsZero() bool             { return p == 0 }
func (p Perbill) Mul(n uint64) uint64      { return MulDiv(n, uint64(p), perbillOne, RoundNearest) }
func (p Perbill) MulFloor(n uint64) uint64 { return MulDiv(n, uint64(p), perbillOne, RoundDown) }
func (p Perbill) MulCeil(n uint64) uint64  { return MulDiv(n, uint64(p), perbillOne, RoundUp) }

// MulPerbill multiplies two fractions, rounding down.
func (p Perbill) MulPerbill(o Perbill) Perbill {
	return Perbill(MulDiv(uint64(p), uint64(o), perbillOne, RoundDown))
}

// Square returns p*p.
func (p Perbill) Square() Perbill { return p.MulPerbill(p) }

func (p Perbill) String() string { return formatParts(uint64(p), perbillOne) }

// Permill is a fraction in parts per million.
type Permill uint32

func PermillFromRational(p, q uint64) Permill { return Permill(rationalParts(p, q, permillOne)) }
func PermillFromPercent(x uint32) Permill     { return Permill(min(x, 100) * (permillOne / 100)) }

func (p Permill) Deconstruct() uint32      { return uint32(p) }
func (p Permill) IsZero() bool             { return p == 0 }
func (p Permill) Mul(n uint64) uint64      { return MulDiv(n, uint64(p), permillOne, RoundNearest) }
func (p Permill) MulFloor(n uint64) uint64 { return MulDiv(n, uint64(p), permillOne, RoundDown) }
func (p Permill) String() string           { return formatParts(uint64(p), permillOne) }

// Percent is a fraction in whole percents.
type Percent uint8

func PercentFromRational(p, q uint64) Percent { return Percent(rationalParts(p, q, percentOne)) }

func (p Percent) Deconstruct() uint8  { return uint8(p) }
func (p Percent) Mul(n uint64) uint64 { return MulDiv(n, uint64(p), percentOne, RoundNearest) }
func (p Percent) String() string      { return formatParts(uint64(p), percentOne) }

// Perquintill is a fraction in parts per 10^18.
type Perquintill uint64

func PerquintillFromRational(p, q uint64) Perquintill {
	return Perquintill(rationalParts(p, q, perquintillOne))
}

func (p Perquintill) Deconstruct() uint64 { return uint64(p) }
func (p Perquintill) IsZero() bool        { return p == 0 }
func (p Perquintill) Mul(n uint64) uint64 { return MulDiv(n, uint64(p), perquintillOne, RoundNearest) }
func (p Perquintill) MulFloor(n uint64) uint64 {
	return MulDiv(n, uint64(p), perquintillOne, RoundDown)
}
func (p Perquintill) String() string { return formatParts(uint64(p), perquintillOne) }

// PerU16 is a fraction in parts of 65535, the accuracy of compact election solutions.
type PerU16 uint16

func PerU16FromRational(p, q uint64) PerU16 { return PerU16(rationalParts(p, q, perU16One)) }
func PerU16One() PerU16                     { return perU16One }

func (p PerU16) Deconstruct() uint16 { return uint16(p) }
func (p PerU16) Mul(n uint64) uint64 { return MulDiv(n, uint64(p), perU16One, RoundNearest) }

func formatParts(parts, one uint64) string {
	whole := MulDiv(parts, 100, one, RoundDown)
	frac := MulDiv(parts, 100_000, one, RoundDown) % 1000
	if frac == 0 {
		return fmt.Sprintf("%d%%", whole)
	}
	return fmt.Sprintf("%d.%03d%%", whole, frac)
}
