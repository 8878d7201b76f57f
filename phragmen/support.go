// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package phragmen

import (
	"math"
	"slices"

	"github.com/darwinia-network/darwinia-go/darwinia"
)

// StakedEdge is the stake a voter gives to Target.
type StakedEdge struct {
	Target darwinia.AccountID
	Stake  uint64
}

// StakedAssignment is an assignment with ratios converted to stake.
type StakedAssignment struct {
	Who          darwinia.AccountID
	Distribution []StakedEdge
}

// IntoStaked converts ratios to stake, rounding each to nearest. Zero ratios
// are dropped. With fill, the rounding error is settled on the last edge so
// the distribution sums to stake.
func (a Assignment) IntoStaked(stake uint64, acc Accuracy, fill bool) StakedAssignment {
	out := StakedAssignment{Who: a.Who}
	var sum uint64
	for _, e := range a.Distribution {
		if e.Ratio == 0 {
			continue
		}
		s := darwinia.MulDiv(stake, e.Ratio, uint64(acc), darwinia.RoundNearest)
		sum = darwinia.SaturatingAdd(sum, s)
		out.Distribution = append(out.Distribution, StakedEdge{Target: e.Target, Stake: s})
	}
	if fill && len(out.Distribution) > 0 {
		last := &out.Distribution[len(out.Distribution)-1]
		if stake >= sum {
			last.Stake = darwinia.SaturatingAdd(last.Stake, stake-sum)
		} else {
			last.Stake = darwinia.SaturatingSub(last.Stake, sum-stake)
		}
	}
	return out
}

// ToStaked converts all assignments using stakeOf for each voter's stake.
func ToStaked(assignments []Assignment, acc Accuracy, stakeOf func(darwinia.AccountID) uint64) []StakedAssignment {
	out := make([]StakedAssignment, 0, len(assignments))
	for _, a := range assignments {
		out = append(out, a.IntoStaked(stakeOf(a.Who), acc, true))
	}
	return out
}

// Support is the backing of one winner.
type Support struct {
	Who    darwinia.AccountID
	Total  uint64
	Voters []StakedEdge // Target holds the voter
}

// SupportMap holds supports sorted by winner account.
type SupportMap []Support

// Get returns the support of who.
func (m SupportMap) Get(who darwinia.AccountID) (*Support, bool) {
	i, ok := slices.BinarySearchFunc(m, who, func(s Support, t darwinia.AccountID) int {
		return s.Who.Compare(t)
	})
	if !ok {
		return nil, false
	}
	return &m[i], true
}

// BuildSupportMap aggregates staked assignments into per-winner supports.
// It returns the number of edges pointing at non-winners.
func BuildSupportMap(winners []darwinia.AccountID, assignments []StakedAssignment) (SupportMap, int) {
	supports := make(SupportMap, 0, len(winners))
	for _, w := range winners {
		if _, ok := supports.Get(w); ok {
			continue
		}
		i, _ := slices.BinarySearchFunc(supports, w, func(s Support, t darwinia.AccountID) int {
			return s.Who.Compare(t)
		})
		supports = slices.Insert(supports, i, Support{Who: w})
	}

	errs := 0
	for _, a := range assignments {
		for _, e := range a.Distribution {
			s, ok := supports.Get(e.Target)
			if !ok {
				errs++
				continue
			}
			s.Total = darwinia.SaturatingAdd(s.Total, e.Stake)
			s.Voters = append(s.Voters, StakedEdge{Target: a.Who, Stake: e.Stake})
		}
	}
	return supports, errs
}

// Score is [minimal support, sum of supports, sum of squared supports].
type Score [3]uint64

// EvaluateSupport computes the score of a support map.
func EvaluateSupport(m SupportMap) Score {
	score := Score{math.MaxUint64, 0, 0}
	for _, s := range m {
		score[1] = darwinia.SaturatingAdd(score[1], s.Total)
		score[2] = darwinia.SaturatingAdd(score[2], darwinia.SaturatingMul(s.Total, s.Total))
		score[0] = min(score[0], s.Total)
	}
	return score
}

// IsScoreBetter reports whether that is strictly better than this: a larger
// minimal support, then a larger sum, then a smaller sum of squares.
func IsScoreBetter(this, that Score) bool {
	switch {
	case that[0] != this[0]:
		return that[0] > this[0]
	case that[1] != this[1]:
		return that[1] > this[1]
	default:
		return that[2] < this[2]
	}
}
