// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package offchain mines election solutions outside block execution. It
// works on copies of the election snapshot and hands solutions back to the
// runtime, never touching state.
package offchain

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/darwinia-network/darwinia-go/co"
	"github.com/darwinia-network/darwinia-go/darwinia"
	"github.com/darwinia-network/darwinia-go/log"
	"github.com/darwinia-network/darwinia-go/metrics"
	"github.com/darwinia-network/darwinia-go/staking"
)

var (
	logger = log.WithContext("pkg", "offchain")

	metricMined     = metrics.LazyLoadCounterVec("offchain_solution_count", []string{"result"})
	metricMinedTime = metrics.LazyLoadHistogram("offchain_mine_duration_ms", metrics.BucketElection)
)

// Submitter takes mined solutions, typically by queueing an unsigned
// command for the next block.
type Submitter interface {
	SubmitUnsigned(sol *staking.Solution, validatorIndex uint32) error
}

// Job is the input of one mining round.
type Job struct {
	Snapshot *staking.ElectionSnapshot
	// Validators is the current session set, used to find the index the
	// solution is submitted under.
	Validators []darwinia.AccountID
}

// Config configures the worker.
type Config struct {
	// Validator is the local validator the worker submits as.
	Validator darwinia.AccountID
	// Timeout bounds a mining round.
	Timeout time.Duration
}

// Worker mines one solution per era.
type Worker struct {
	cfg       Config
	submitter Submitter

	mu        sync.Mutex
	pending   *Job
	submitted map[darwinia.EraIndex]bool
	wake      co.Signal
}

// New creates a worker.
func New(cfg Config, submitter Submitter) *Worker {
	return &Worker{
		cfg:       cfg,
		submitter: submitter,
		submitted: make(map[darwinia.EraIndex]bool),
	}
}

// Submitted reports whether a solution for era was handed over.
func (w *Worker) Submitted(era darwinia.EraIndex) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.submitted[era]
}

// Offer queues job for Run, replacing a job not picked up yet. Jobs for
// eras already submitted are dropped.
func (w *Worker) Offer(job Job) {
	if job.Snapshot == nil || w.Submitted(job.Snapshot.Era) {
		return
	}
	w.mu.Lock()
	w.pending = &job
	w.mu.Unlock()
	w.wake.Signal()
}

func (w *Worker) take() *Job {
	w.mu.Lock()
	defer w.mu.Unlock()
	job := w.pending
	w.pending = nil
	return job
}

// Run processes offered jobs until ctx is done.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-w.wake.C():
			job := w.take()
			if job == nil {
				continue
			}
			if err := w.Process(ctx, *job); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				logger.Warn("offchain election failed", "era", job.Snapshot.Era, "err", err)
			}
		}
	}
}

// Process mines job and submits the solution. It does nothing when the
// local validator is not in the session set or the era was submitted.
func (w *Worker) Process(ctx context.Context, job Job) error {
	snap := job.Snapshot
	if w.Submitted(snap.Era) {
		return nil
	}

	var (
		sol   *staking.Solution
		index = -1
	)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		index = slices.Index(job.Validators, w.cfg.Validator)
		if index < 0 {
			return errNotValidator
		}
		return nil
	})
	g.Go(func() (err error) {
		sol, err = w.Mine(ctx, snap)
		return err
	})
	if err := g.Wait(); err != nil {
		if errors.Is(err, errNotValidator) {
			logger.Debug("not a validator, skip mining", "era", snap.Era)
			return nil
		}
		metricMined().AddWithLabel(1, map[string]string{"result": "failed"})
		return err
	}

	if err := w.submitter.SubmitUnsigned(sol, uint32(index)); err != nil {
		metricMined().AddWithLabel(1, map[string]string{"result": "rejected"})
		return errors.Wrap(err, "submit")
	}

	w.mu.Lock()
	w.submitted[snap.Era] = true
	for era := range w.submitted {
		if era < snap.Era {
			delete(w.submitted, era)
		}
	}
	w.mu.Unlock()

	metricMined().AddWithLabel(1, map[string]string{"result": "submitted"})
	logger.Info("election solution submitted", "era", snap.Era, "winners", len(sol.Winners), "score", sol.Score)
	return nil
}

var errNotValidator = errors.New("not a validator")

// Mine runs the election of snap. It gives up when ctx is done or the
// configured timeout passes, leaving the election to finish unobserved.
func (w *Worker) Mine(ctx context.Context, snap *staking.ElectionSnapshot) (*staking.Solution, error) {
	if w.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.cfg.Timeout)
		defer cancel()
	}
	start := time.Now()

	type outcome struct {
		sol *staking.Solution
		err error
	}
	mined := make(chan outcome, 1)
	go func() {
		sol, err := staking.MineSolution(snap)
		mined <- outcome{sol, err}
	}()

	select {
	case <-ctx.Done():
		return nil, errors.Wrap(ctx.Err(), "mine")
	case o := <-mined:
		if o.err != nil {
			return nil, o.err
		}
		metricMinedTime().Observe(time.Since(start).Milliseconds())
		return o.sol, nil
	}
}
