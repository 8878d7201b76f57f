// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package offchain

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darwinia-network/darwinia-go/darwinia"
	"github.com/darwinia-network/darwinia-go/phragmen"
	"github.com/darwinia-network/darwinia-go/staking"
)

var (
	v1 = darwinia.NamedAccount("v1")
	v2 = darwinia.NamedAccount("v2")
	v3 = darwinia.NamedAccount("v3")
	n1 = darwinia.NamedAccount("n1")
)

type submission struct {
	sol   *staking.Solution
	index uint32
}

type fakeSubmitter struct {
	mu   sync.Mutex
	err  error
	subs []submission
	ch   chan submission
}

func (s *fakeSubmitter) SubmitUnsigned(sol *staking.Solution, index uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	sub := submission{sol, index}
	s.subs = append(s.subs, sub)
	if s.ch != nil {
		s.ch <- sub
	}
	return nil
}

func testSnapshot() *staking.ElectionSnapshot {
	return &staking.ElectionSnapshot{
		Era:        5,
		Desired:    2,
		Validators: []darwinia.AccountID{v1, v2, v3},
		Voters: []phragmen.Voter{
			{Who: n1, Weight: 50, Targets: []darwinia.AccountID{v1, v2}},
			{Who: v1, Weight: 100, Targets: []darwinia.AccountID{v1}},
			{Who: v2, Weight: 80, Targets: []darwinia.AccountID{v2}},
			{Who: v3, Weight: 10, Targets: []darwinia.AccountID{v3}},
		},
	}
}

func TestProcess(t *testing.T) {
	sub := &fakeSubmitter{}
	w := New(Config{Validator: v2, Timeout: time.Minute}, sub)
	job := Job{Snapshot: testSnapshot(), Validators: []darwinia.AccountID{v1, v2}}

	require.NoError(t, w.Process(context.Background(), job))
	require.Len(t, sub.subs, 1)
	assert.Equal(t, uint32(1), sub.subs[0].index)
	sol := sub.subs[0].sol
	assert.Equal(t, darwinia.EraIndex(5), sol.Era)
	assert.ElementsMatch(t, []phragmen.TargetIndex{0, 1}, sol.Winners)
	assert.Equal(t, staking.ElectionSize{Validators: 3, Nominators: 4}, sol.Size)
	assert.True(t, w.Submitted(5))

	// one solution per era
	require.NoError(t, w.Process(context.Background(), job))
	assert.Len(t, sub.subs, 1)
}

func TestProcessNotValidator(t *testing.T) {
	sub := &fakeSubmitter{}
	w := New(Config{Validator: v3}, sub)

	require.NoError(t, w.Process(context.Background(), Job{Snapshot: testSnapshot(), Validators: []darwinia.AccountID{v1, v2}}))
	assert.Empty(t, sub.subs)
	assert.False(t, w.Submitted(5))
}

func TestProcessRejected(t *testing.T) {
	sub := &fakeSubmitter{err: errors.New("rejected")}
	w := New(Config{Validator: v1}, sub)

	err := w.Process(context.Background(), Job{Snapshot: testSnapshot(), Validators: []darwinia.AccountID{v1}})
	assert.Error(t, err)
	assert.False(t, w.Submitted(5))
}

func TestMineNotEnoughCandidates(t *testing.T) {
	w := New(Config{}, &fakeSubmitter{})
	snap := testSnapshot()
	snap.Validators = nil
	snap.Voters = nil
	snap.Desired = 0

	sol, err := w.Mine(context.Background(), snap)
	assert.Nil(t, sol)
	assert.ErrorIs(t, err, phragmen.ErrInsufficientCandidates)
}

func TestRun(t *testing.T) {
	sub := &fakeSubmitter{ch: make(chan submission, 1)}
	w := New(Config{Validator: v1, Timeout: time.Minute}, sub)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	w.Offer(Job{Snapshot: testSnapshot(), Validators: []darwinia.AccountID{v1}})
	select {
	case s := <-sub.ch:
		assert.Equal(t, uint32(0), s.index)
	case <-time.After(5 * time.Second):
		require.Fail(t, "no solution submitted")
	}

	// the era is done, further offers are dropped
	w.Offer(Job{Snapshot: testSnapshot(), Validators: []darwinia.AccountID{v1}})

	cancel()
	assert.NoError(t, <-done)
	assert.Len(t, sub.subs, 1)
}
