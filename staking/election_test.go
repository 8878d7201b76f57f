// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darwinia-network/darwinia-go/darwinia"
	"github.com/darwinia-network/darwinia-go/event"
	"github.com/darwinia-network/darwinia-go/phragmen"
)

var submitter = darwinia.NamedAccount("submitter")

// newWindowEnv has two validators and a nominator backing both, with the
// election window of era 1 open.
func newWindowEnv(t *testing.T) *testEnv {
	e := newTestEnv(t, testConfig())
	e.bond(t, stash1, ctrl1, 1000*coin, Staked())
	e.bond(t, stash2, ctrl2, 600*coin, Staked())
	e.bond(t, stash3, ctrl3, 800*coin, Staked())
	require.NoError(t, e.Validate(darwinia.Signed(ctrl1), ValidatorPrefs{}))
	require.NoError(t, e.Validate(darwinia.Signed(ctrl2), ValidatorPrefs{}))
	require.NoError(t, e.Nominate(darwinia.Signed(ctrl3), []darwinia.AccountID{stash1, stash2}))
	e.start(t)

	e.rotate(t, 0)
	final, err := e.isCurrentSessionFinal.Get()
	require.NoError(t, err)
	require.True(t, final)

	e.session.nextAt = e.clock.bn + 3
	require.NoError(t, e.OnInitialize(e.clock.bn))
	return e
}

func TestElectionWindow(t *testing.T) {
	e := newTestEnv(t, testConfig())
	e.bond(t, stash1, ctrl1, 1000*coin, Staked())
	require.NoError(t, e.Validate(darwinia.Signed(ctrl1), ValidatorPrefs{}))
	e.start(t)

	// not the last session of the era
	e.session.nextAt = e.clock.bn + 3
	require.NoError(t, e.OnInitialize(e.clock.bn))
	status, _ := e.EraElectionStatus()
	assert.False(t, status.Open)

	e.rotate(t, 0)
	// too early
	e.session.nextAt = e.clock.bn + 50
	require.NoError(t, e.OnInitialize(e.clock.bn))
	status, _ = e.EraElectionStatus()
	assert.False(t, status.Open)

	e.session.nextAt = e.clock.bn + 5
	require.NoError(t, e.OnInitialize(e.clock.bn))
	status, _ = e.EraElectionStatus()
	assert.Equal(t, ElectionStatus{Open: true, Start: e.clock.bn}, status)
	validators, ok, _ := e.SnapshotValidators()
	require.True(t, ok)
	assert.Equal(t, []darwinia.AccountID{stash1}, validators)

	assert.ErrorIs(t, e.BondExtra(darwinia.Signed(stash1), RingBalance(coin), 0), ErrCallNotAllowed)
	assert.ErrorIs(t, e.Unbond(darwinia.Signed(ctrl1), RingBalance(coin)), ErrCallNotAllowed)
	assert.ErrorIs(t, e.Chill(darwinia.Signed(ctrl1)), ErrCallNotAllowed)
	assert.ErrorIs(t, e.PayoutStakers(darwinia.Signed(nobody), stash1, 0), ErrCallNotAllowed)

	// the next era closes it
	e.rotate(t, 1)
	status, _ = e.EraElectionStatus()
	assert.False(t, status.Open)
	_, ok, _ = e.SnapshotValidators()
	assert.False(t, ok)
}

func TestSubmitMinedSolution(t *testing.T) {
	e := newWindowEnv(t)

	snap, ok, err := e.Snapshot()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, darwinia.EraIndex(0), snap.Era)
	assert.Equal(t, 2, snap.Desired)
	assert.Len(t, snap.Voters, 3)

	sol, err := MineSolution(snap)
	require.NoError(t, err)
	assert.Len(t, sol.Winners, 2)

	assert.ErrorIs(t, e.SubmitElectionSolution(darwinia.None(), sol), darwinia.ErrBadOrigin)
	e.events.Drain()
	require.NoError(t, e.SubmitElectionSolution(darwinia.Signed(submitter), sol))
	assert.Equal(t, []event.Event{SolutionStored{Compute: ComputeSigned}}, e.events.Drain())
	score, ok, _ := e.QueuedScore()
	require.True(t, ok)
	assert.Equal(t, sol.Score, score)

	// only a strictly better score replaces the queued one
	assert.ErrorIs(t, e.SubmitElectionSolution(darwinia.Signed(submitter), sol), ErrPhragmenWeakSubmission)

	e.rotate(t, 1)
	elected, _ := e.ErasElected(1)
	assert.ElementsMatch(t, []darwinia.AccountID{stash1, stash2}, elected)
	assert.Contains(t, e.events.Drain(), event.Event(StakingElection{Compute: ComputeSigned}))
	_, ok, _ = e.QueuedScore()
	assert.False(t, ok)
}

func TestSubmitUnsignedSolution(t *testing.T) {
	e := newWindowEnv(t)
	e.session.validators = []darwinia.AccountID{stash1, stash2}

	snap, _, err := e.Snapshot()
	require.NoError(t, err)
	sol, err := MineSolution(snap)
	require.NoError(t, err)

	assert.ErrorIs(t, e.SubmitElectionSolutionUnsigned(darwinia.Signed(submitter), sol, 0), darwinia.ErrBadOrigin)
	assert.ErrorIs(t, e.SubmitElectionSolutionUnsigned(darwinia.None(), sol, 2), ErrPhragmenBogusSubmitter)
	require.NoError(t, e.SubmitElectionSolutionUnsigned(darwinia.None(), sol, 1))
}

func TestSolutionChecks(t *testing.T) {
	e := newWindowEnv(t)
	snap, _, err := e.Snapshot()
	require.NoError(t, err)
	good, err := MineSolution(snap)
	require.NoError(t, err)

	submit := func(mutate func(sol *Solution)) error {
		sol := *good
		sol.Winners = append([]phragmen.TargetIndex(nil), good.Winners...)
		mutate(&sol)
		return e.SubmitElectionSolution(darwinia.Signed(submitter), &sol)
	}

	assert.ErrorIs(t, submit(func(s *Solution) { s.Era = 7 }), ErrPhragmenBogusEra)
	assert.ErrorIs(t, submit(func(s *Solution) { s.Size.Nominators++ }), ErrPhragmenBogusElectionSize)
	assert.ErrorIs(t, submit(func(s *Solution) { s.Winners = s.Winners[:1] }), ErrPhragmenBogusWinnerCount)
	assert.ErrorIs(t, submit(func(s *Solution) { s.Winners[1] = s.Winners[0] }), ErrPhragmenBogusWinner)
	assert.ErrorIs(t, submit(func(s *Solution) { s.Winners[1] = 9 }), ErrPhragmenBogusWinner)
	assert.ErrorIs(t, submit(func(s *Solution) {
		s.Compact = phragmen.Compact{Votes1: []phragmen.Vote1{{Voter: 99, Target: 0}}}
	}), ErrPhragmenBogusCompact)
	assert.ErrorIs(t, submit(func(s *Solution) { s.Score[0]++ }), ErrPhragmenBogusScore)

	// snapshot order: the nominator stash3, then the validators stash1 and stash2
	assert.ErrorIs(t, submit(func(s *Solution) {
		s.Compact = phragmen.Compact{Votes1: []phragmen.Vote1{{Voter: 1, Target: 1}}}
	}), ErrPhragmenBogusSelfVote)

	require.NoError(t, submit(func(*Solution) {}))
}

func TestSolutionRejectedOutsideWindow(t *testing.T) {
	e := newWindowEnv(t)
	snap, _, err := e.Snapshot()
	require.NoError(t, err)
	sol, err := MineSolution(snap)
	require.NoError(t, err)

	require.NoError(t, e.closeElectionWindow())
	assert.ErrorIs(t, e.SubmitElectionSolution(darwinia.Signed(submitter), sol), ErrPhragmenEarlySubmission)
	_, ok, err := e.Snapshot()
	require.NoError(t, err)
	assert.False(t, ok)
}
