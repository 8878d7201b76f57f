// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package phragmen

import "github.com/holiman/uint256"

// maxU128 is the largest numerator or denominator a rational may hold.
var maxU128 = new(uint256.Int).SubUint64(new(uint256.Int).Lsh(uint256.NewInt(1), 128), 1)

// den is the common denominator of all scores.
var den = *maxU128

// rational is n/d with both parts bounded to 128 bits. d may be zero to
// express infinity.
type rational struct {
	n, d uint256.Int
}

func zeroRational() rational {
	return rational{d: *uint256.NewInt(1)}
}

func newRational(n, d *uint256.Int) rational {
	return rational{n: *n, d: *d}
}

func (r rational) isZero() bool { return r.n.IsZero() }

func saturate128(x *uint256.Int) *uint256.Int {
	if x.Gt(maxU128) {
		return x.Set(maxU128)
	}
	return x
}

// mulDiv128 returns a*b/c rounded down, saturating at 128 bits. c must not be zero.
func mulDiv128(a, b, c *uint256.Int) *uint256.Int {
	prod, overflow := new(uint256.Int).MulOverflow(a, b)
	if overflow {
		// only reachable with operands wider than 128 bits
		return prod.Set(maxU128)
	}
	return saturate128(prod.Div(prod, c))
}

// cmp compares two rationals, treating a zero denominator as infinity.
func (r rational) cmp(o rational) int {
	switch {
	case r.d.Eq(&o.d):
		return r.n.Cmp(&o.n)
	case r.d.IsZero():
		return 1
	case o.d.IsZero():
		return -1
	}
	a := new(uint256.Int).Mul(&r.n, &o.d)
	b := new(uint256.Int).Mul(&o.n, &r.d)
	return a.Cmp(b)
}

func (r rational) eq(o rational) bool {
	if r.d.Eq(&o.d) {
		return r.n.Eq(&o.n)
	}
	a := new(uint256.Int).Mul(&r.n, &o.d)
	b := new(uint256.Int).Mul(&o.n, &r.d)
	return a.Eq(b)
}

func gcd(a, b *uint256.Int) *uint256.Int {
	x, y := new(uint256.Int).Set(a), new(uint256.Int).Set(b)
	for !y.IsZero() {
		x.Mod(x, y)
		x, y = y, x
	}
	return x
}

// toDen rescales r onto denominator d.
func (r rational) toDen(d *uint256.Int) (rational, bool) {
	if r.d.Eq(d) {
		return r, true
	}
	if r.d.IsZero() {
		return rational{}, false
	}
	prod, overflow := new(uint256.Int).MulOverflow(&r.n, d)
	if overflow {
		return rational{}, false
	}
	prod.Div(prod, &r.d)
	if prod.Gt(maxU128) {
		return rational{}, false
	}
	return rational{n: *prod, d: *d}, true
}

func (r rational) checkedAddSub(o rational, add bool) (rational, bool) {
	if r.d.IsZero() || o.d.IsZero() {
		return rational{}, false
	}
	lcm := new(uint256.Int).Div(&r.d, gcd(&r.d, &o.d))
	if _, overflow := lcm.MulOverflow(lcm, &o.d); overflow || lcm.Gt(maxU128) {
		return rational{}, false
	}
	a, ok := r.toDen(lcm)
	if !ok {
		return rational{}, false
	}
	b, ok := o.toDen(lcm)
	if !ok {
		return rational{}, false
	}
	n := new(uint256.Int)
	if add {
		n.Add(&a.n, &b.n)
		if n.Gt(maxU128) {
			return rational{}, false
		}
	} else {
		if a.n.Lt(&b.n) {
			return rational{}, false
		}
		n.Sub(&a.n, &b.n)
	}
	return rational{n: *n, d: *lcm}, true
}

// lazySaturatingAdd adds o to r. When the exact sum is not representable,
// the numerators are added saturating, keeping r's denominator.
func (r rational) lazySaturatingAdd(o rational) rational {
	if o.isZero() {
		return r
	}
	if sum, ok := r.checkedAddSub(o, true); ok {
		return sum
	}
	n := saturate128(new(uint256.Int).Add(&r.n, &o.n))
	return rational{n: *n, d: r.d}
}

// lazySaturatingSub is the subtraction counterpart of lazySaturatingAdd.
func (r rational) lazySaturatingSub(o rational) rational {
	if o.isZero() {
		return r
	}
	if diff, ok := r.checkedAddSub(o, false); ok {
		return diff
	}
	n := new(uint256.Int)
	if r.n.Gt(&o.n) {
		n.Sub(&r.n, &o.n)
	}
	return rational{n: *n, d: r.d}
}
