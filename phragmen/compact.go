// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package phragmen

import (
	"errors"

	"github.com/darwinia-network/darwinia-go/darwinia"
)

// compact solution failures
var (
	ErrCompactStakeOverflow  = errors.New("phragmen: compact ratios exceed a whole vote")
	ErrCompactTargetOverflow = errors.New("phragmen: too many targets in compact vote")
	ErrCompactInvalidIndex   = errors.New("phragmen: invalid index in compact")
)

// MaxCompactTargets is the most targets a single compact vote can carry.
const MaxCompactTargets = darwinia.MaxNominations

type (
	// VoterIndex indexes the nominator snapshot.
	VoterIndex = uint32
	// TargetIndex indexes the validator snapshot.
	TargetIndex = uint16
)

// Vote1 gives the whole vote of Voter to Target.
type Vote1 struct {
	Voter  VoterIndex
	Target TargetIndex
}

// TargetRatio is a share of a compact vote, in parts of OffchainAccuracy.
type TargetRatio struct {
	Target TargetIndex
	Ratio  uint16
}

// VoteN splits the vote of Voter. Last receives the whole vote less the
// sum of Targets.
type VoteN struct {
	Voter   VoterIndex
	Targets []TargetRatio
	Last    TargetIndex
}

// Compact is the index based encoding of assignments at OffchainAccuracy.
type Compact struct {
	Votes1 []Vote1
	VotesN []VoteN
}

// Len returns the number of voters.
func (c *Compact) Len() int {
	return len(c.Votes1) + len(c.VotesN)
}

// EdgeCount returns the number of edges.
func (c *Compact) EdgeCount() int {
	n := len(c.Votes1)
	for _, v := range c.VotesN {
		n += len(v.Targets) + 1
	}
	return n
}

// CompactFromAssignment encodes assignments made at OffchainAccuracy.
func CompactFromAssignment(
	assignments []Assignment,
	voterIndex func(darwinia.AccountID) (VoterIndex, bool),
	targetIndex func(darwinia.AccountID) (TargetIndex, bool),
) (*Compact, error) {
	var c Compact
	for _, a := range assignments {
		n := len(a.Distribution)
		if n == 0 {
			continue
		}
		if n > MaxCompactTargets {
			return nil, ErrCompactTargetOverflow
		}
		vi, ok := voterIndex(a.Who)
		if !ok {
			return nil, ErrCompactInvalidIndex
		}
		targets := make([]TargetIndex, n)
		for i, e := range a.Distribution {
			if targets[i], ok = targetIndex(e.Target); !ok {
				return nil, ErrCompactInvalidIndex
			}
		}
		if n == 1 {
			c.Votes1 = append(c.Votes1, Vote1{Voter: vi, Target: targets[0]})
			continue
		}
		vote := VoteN{Voter: vi, Last: targets[n-1]}
		for i, e := range a.Distribution[:n-1] {
			if e.Ratio > uint64(OffchainAccuracy) {
				return nil, ErrCompactStakeOverflow
			}
			vote.Targets = append(vote.Targets, TargetRatio{Target: targets[i], Ratio: uint16(e.Ratio)})
		}
		c.VotesN = append(c.VotesN, vote)
	}
	return &c, nil
}

// IntoAssignment decodes the compact back into assignments at OffchainAccuracy.
func (c *Compact) IntoAssignment(
	voterAt func(VoterIndex) (darwinia.AccountID, bool),
	targetAt func(TargetIndex) (darwinia.AccountID, bool),
) ([]Assignment, error) {
	out := make([]Assignment, 0, c.Len())
	for _, v := range c.Votes1 {
		who, ok := voterAt(v.Voter)
		if !ok {
			return nil, ErrCompactInvalidIndex
		}
		target, ok := targetAt(v.Target)
		if !ok {
			return nil, ErrCompactInvalidIndex
		}
		out = append(out, Assignment{
			Who:          who,
			Distribution: []Edge{{Target: target, Ratio: uint64(OffchainAccuracy)}},
		})
	}
	for _, v := range c.VotesN {
		if len(v.Targets)+1 > MaxCompactTargets {
			return nil, ErrCompactTargetOverflow
		}
		who, ok := voterAt(v.Voter)
		if !ok {
			return nil, ErrCompactInvalidIndex
		}
		a := Assignment{Who: who}
		var sum uint64
		for _, tr := range v.Targets {
			target, ok := targetAt(tr.Target)
			if !ok {
				return nil, ErrCompactInvalidIndex
			}
			sum += uint64(tr.Ratio)
			a.Distribution = append(a.Distribution, Edge{Target: target, Ratio: uint64(tr.Ratio)})
		}
		if sum >= uint64(OffchainAccuracy) {
			return nil, ErrCompactStakeOverflow
		}
		last, ok := targetAt(v.Last)
		if !ok {
			return nil, ErrCompactInvalidIndex
		}
		a.Distribution = append(a.Distribution, Edge{Target: last, Ratio: uint64(OffchainAccuracy) - sum})
		out = append(out, a)
	}
	return out, nil
}
