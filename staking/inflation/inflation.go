// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package inflation computes era payouts and the Kton bonus of Ring deposits.
package inflation

import (
	"math"

	"github.com/holiman/uint256"

	"github.com/darwinia-network/darwinia-go/darwinia"
)

// fixed point numbers carry 18 decimals
var (
	fixedOne    = uint256.NewInt(1e18)
	fixedOneSq  = new(uint256.Int).Mul(fixedOne, fixedOne)
	ninetyNine  = uint256.NewInt(99e16)
	lnHundredBy = uint256.NewInt(10_050_335_853_501_441) // ln(100/99)
	yearMillis  = uint256.NewInt(uint64(darwinia.MillisecondsPerYear))
)

// EraPayout returns the validator payout of an era and the remainder of
// the maximum payout. The maximum payout is the share of totalLeft the era
// covers within a year, scaled by 1 - 0.99^sqrt(year), where year counts
// from 1 using livingTime.
func EraPayout(eraDuration, livingTime darwinia.Moment, totalLeft darwinia.Balance, fraction darwinia.Perbill) (payout, rest darwinia.Balance) {
	year := uint64(livingTime/darwinia.MillisecondsPerYear + 1)

	root := new(uint256.Int).Mul(uint256.NewInt(year), fixedOneSq)
	root.Sqrt(root)
	ratio := new(uint256.Int).Sub(fixedOne, powNinetyNine(root))

	// totalLeft * eraDuration / year * ratio
	maxPayout := new(uint256.Int).Mul(uint256.NewInt(uint64(totalLeft)), uint256.NewInt(uint64(eraDuration)))
	maxPayout.Mul(maxPayout, ratio)
	maxPayout.Div(maxPayout, new(uint256.Int).Mul(yearMillis, fixedOne))

	maximum := uint64(totalLeft)
	if maxPayout.IsUint64() {
		maximum = min(maximum, maxPayout.Uint64())
	}

	payout = darwinia.Balance(fraction.MulFloor(maximum))
	return payout, darwinia.Balance(maximum) - payout
}

func mulFixed(a, b *uint256.Int) *uint256.Int {
	z := new(uint256.Int).Mul(a, b)
	return z.Div(z, fixedOne)
}

// powNinetyNine returns 0.99^x in fixed point. The integer part of x is
// raised by squaring, the fraction as e^-(frac*ln(100/99)) from its series.
func powNinetyNine(x *uint256.Int) *uint256.Int {
	whole, frac := new(uint256.Int).DivMod(x, fixedOne, new(uint256.Int))

	res := new(uint256.Int).Set(fixedOne)
	base := new(uint256.Int).Set(ninetyNine)
	for n := whole.Uint64(); n > 0; n >>= 1 {
		if n&1 == 1 {
			res = mulFixed(res, base)
		}
		base = mulFixed(base, base)
	}

	y := mulFixed(frac, lnHundredBy)
	pos, neg := new(uint256.Int).Set(fixedOne), new(uint256.Int)
	term := new(uint256.Int).Set(fixedOne)
	for i := uint64(1); !term.IsZero(); i++ {
		term = mulFixed(term, y)
		term.Div(term, uint256.NewInt(i))
		if i%2 == 1 {
			neg.Add(neg, term)
		} else {
			pos.Add(pos, term)
		}
	}
	return mulFixed(res, pos.Sub(pos, neg))
}

var (
	bonusNumerator   = uint256.NewInt(67)
	bonusDenominator = uint256.NewInt(66)
	thousand         = uint256.NewInt(1000)
	bonusDivisor     = uint256.NewInt(1_970_000)
)

// KtonBonus returns the Kton minted for depositing value Ring for months:
// value * (67^m/66^m - 1) / 1970, with the fraction kept to three digits.
func KtonBonus(value darwinia.Balance, months uint8) darwinia.Balance {
	m := uint256.NewInt(uint64(months))
	no := new(uint256.Int).Exp(bonusNumerator, m)
	de := new(uint256.Int).Exp(bonusDenominator, m)

	quotient, remainder := new(uint256.Int).DivMod(no, de, new(uint256.Int))

	// 1000 * (quotient - 1) + 1000 * remainder / de
	scaled := new(uint256.Int).Mul(thousand, new(uint256.Int).SubUint64(quotient, 1))
	frac := new(uint256.Int).Mul(thousand, remainder)
	scaled.Add(scaled, frac.Div(frac, de))

	res := new(uint256.Int).Mul(uint256.NewInt(uint64(value)), scaled)
	res.Div(res, bonusDivisor)
	if !res.IsUint64() {
		return darwinia.Balance(math.MaxUint64)
	}
	return darwinia.Balance(res.Uint64())
}

// EarlyClaimPenalty is the Kton charged for claiming a deposit made at
// start for plannedEnd before its term: three times the bonus the remaining
// term would have earned, at least 3.
func EarlyClaimPenalty(value darwinia.Balance, start, plannedEnd, now darwinia.Moment) darwinia.Balance {
	passed := uint8((now - start) / darwinia.MonthInMilliseconds)
	planned := uint8((plannedEnd - start) / darwinia.MonthInMilliseconds)
	diff := darwinia.SaturatingSub(KtonBonus(value, planned), KtonBonus(value, passed))
	return darwinia.SaturatingMul(max(diff, 1), 3)
}
