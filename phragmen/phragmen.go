// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package phragmen implements the sequential weighted Phragmén election,
// support maps, solution scores and compact solution encoding.
// Everything here is pure and deterministic.
package phragmen

import (
	"errors"

	"github.com/holiman/uint256"

	"github.com/darwinia-network/darwinia-go/darwinia"
)

// ErrInsufficientCandidates is returned when fewer candidates than the required minimum exist.
var ErrInsufficientCandidates = errors.New("phragmen: insufficient candidates")

// Accuracy is the number of parts representing a whole vote in an assignment.
type Accuracy uint64

const (
	// ChainAccuracy is used by the on-chain election, a Perbill.
	ChainAccuracy Accuracy = 1_000_000_000
	// OffchainAccuracy is used by submitted solutions, a PerU16.
	OffchainAccuracy Accuracy = 65535
)

// Voter votes for Targets with Weight.
type Voter struct {
	Who     darwinia.AccountID
	Weight  uint64
	Targets []darwinia.AccountID
}

// Winner is an elected candidate with its approval stake.
type Winner struct {
	Who      darwinia.AccountID
	Approval uint64
}

// Edge is a share of a voter's vote given to Target, in parts of the accuracy.
type Edge struct {
	Target darwinia.AccountID
	Ratio  uint64
}

// Assignment is how a voter's vote is split among winners.
type Assignment struct {
	Who          darwinia.AccountID
	Distribution []Edge
}

// Result of an election.
type Result struct {
	Winners     []Winner
	Assignments []Assignment
}

type candidate struct {
	who      darwinia.AccountID
	score    rational
	approval uint64
	elected  bool
}

type edge struct {
	who   darwinia.AccountID
	index int
	load  rational
}

type voter struct {
	who    darwinia.AccountID
	edges  []edge
	budget uint64
	load   rational
}

// Elect runs sequential Phragmén electing up to toElect of candidates.
// Votes for unknown candidates are ignored. It fails if there are fewer than
// minimum candidates.
func Elect(toElect, minimum int, candidates []darwinia.AccountID, voters []Voter, acc Accuracy) (*Result, error) {
	if len(candidates) < minimum {
		return nil, ErrInsufficientCandidates
	}

	index := make(map[darwinia.AccountID]int, len(candidates))
	cands := make([]candidate, len(candidates))
	for i, who := range candidates {
		index[who] = i
		cands[i] = candidate{who: who}
	}

	vs := make([]voter, 0, len(voters))
	for _, v := range voters {
		edges := make([]edge, 0, len(v.Targets))
		for _, t := range v.Targets {
			if i, ok := index[t]; ok {
				cands[i].approval = darwinia.SaturatingAdd(cands[i].approval, v.Weight)
				edges = append(edges, edge{who: t, index: i, load: zeroRational()})
			}
		}
		vs = append(vs, voter{who: v.Who, edges: edges, budget: v.Weight, load: zeroRational()})
	}

	toElect = min(toElect, len(cands))
	winners := make([]Winner, 0, toElect)

	for round := 0; round < toElect; round++ {
		for i := range cands {
			c := &cands[i]
			if c.elected {
				continue
			}
			if c.approval == 0 {
				c.score = rational{n: den}
			} else {
				n := new(uint256.Int).Div(&den, uint256.NewInt(c.approval))
				c.score = newRational(n, &den)
			}
		}

		for _, v := range vs {
			for _, e := range v.edges {
				c := &cands[e.index]
				if c.elected || c.approval == 0 {
					continue
				}
				n := mulDiv128(&v.load.n, uint256.NewInt(v.budget), uint256.NewInt(c.approval))
				c.score = c.score.lazySaturatingAdd(newRational(n, &v.load.d))
			}
		}

		best := -1
		for i := range cands {
			if cands[i].elected {
				continue
			}
			if best < 0 || cands[i].score.cmp(cands[best].score) < 0 {
				best = i
			}
		}
		if best < 0 {
			break
		}

		w := &cands[best]
		w.elected = true
		for i := range vs {
			v := &vs[i]
			for j := range v.edges {
				if v.edges[j].who == w.who {
					v.edges[j].load = w.score.lazySaturatingSub(v.load)
					v.load = w.score
				}
			}
		}
		winners = append(winners, Winner{Who: w.who, Approval: w.approval})
	}

	elected := make(map[darwinia.AccountID]bool, len(winners))
	for _, w := range winners {
		elected[w.Who] = true
	}

	var assignments []Assignment
	for _, v := range vs {
		a := Assignment{Who: v.who}
		for _, e := range v.edges {
			if !elected[e.who] {
				continue
			}
			a.Distribution = append(a.Distribution, Edge{Target: e.who, Ratio: edgeRatio(v.load, e.load, acc)})
		}
		if len(a.Distribution) > 0 {
			normalize(a.Distribution, uint64(acc))
			assignments = append(assignments, a)
		}
	}

	return &Result{Winners: winners, Assignments: assignments}, nil
}

// edgeRatio is e/n in parts of acc.
func edgeRatio(n, e rational, acc Accuracy) uint64 {
	if n.eq(e) {
		return uint64(acc)
	}
	if !e.d.Eq(&n.d) || n.n.IsZero() {
		// loads are built from scores and share their denominator
		return 0
	}
	parts := mulDiv128(uint256.NewInt(uint64(acc)), &e.n, &n.n)
	if !parts.IsUint64() {
		return uint64(acc)
	}
	return min(parts.Uint64(), uint64(acc))
}

// normalize spreads the parts missing to a whole evenly over all edges,
// handing the remainder out one part at a time from the first edge.
func normalize(dist []Edge, acc uint64) {
	var sum uint64
	for _, e := range dist {
		sum = darwinia.SaturatingAdd(sum, e.Ratio)
	}
	count := uint64(len(dist))
	diff := darwinia.SaturatingSub(acc, sum)
	perVote := min(diff/count, acc)
	if perVote > 0 {
		for i := range dist {
			dist[i].Ratio = min(darwinia.SaturatingAdd(dist[i].Ratio, perVote), acc)
		}
	}
	remainder := diff - perVote*count
	for i := uint64(0); i < remainder; i++ {
		e := &dist[i%count]
		e.Ratio = min(e.Ratio+1, acc)
	}
}
