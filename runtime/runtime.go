// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package runtime wires the modules together over a key-value store and
// executes blocks of commands against them.
package runtime

import (
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/darwinia-network/darwinia-go/darwinia"
	"github.com/darwinia-network/darwinia-go/event"
	"github.com/darwinia-network/darwinia-go/feemarket"
	"github.com/darwinia-network/darwinia-go/kv"
	"github.com/darwinia-network/darwinia-go/log"
	"github.com/darwinia-network/darwinia-go/metrics"
	"github.com/darwinia-network/darwinia-go/offchain"
	"github.com/darwinia-network/darwinia-go/reverts"
	"github.com/darwinia-network/darwinia-go/session"
	"github.com/darwinia-network/darwinia-go/staking"
	"github.com/darwinia-network/darwinia-go/state"
)

var (
	logger = log.WithContext("pkg", "runtime")

	metricCommands      = metrics.LazyLoadCounterVec("runtime_command_count", []string{"module", "outcome"})
	metricBlockDuration = metrics.LazyLoadHistogram("runtime_block_duration_ms", metrics.BucketBlockExecution)
	metricBlockEvents   = metrics.LazyLoadCounter("runtime_event_count")
	metricChain         = metrics.LazyLoadGaugeVec("runtime_chain", []string{"index"})
)

// Config holds the parameters of every module.
type Config struct {
	RingExistentialDeposit darwinia.Balance
	KtonExistentialDeposit darwinia.Balance
	Staking                staking.Config
	Session                session.Config
	FeeMarket              feemarket.Config
	// CacheSize is the number of state entries cached across blocks.
	CacheSize int
}

// Runtime executes blocks over a store. Blocks must be executed from a
// single goroutine; SubmitUnsigned may be called concurrently.
type Runtime struct {
	cfg    Config
	db     kv.Store
	states kv.Store
	hashes kv.Getter
	cache  *state.Cache

	mu       sync.Mutex
	unsigned []Extrinsic
}

// New creates a runtime over db.
func New(db kv.Store, cfg Config) (*Runtime, error) {
	cache, err := state.NewCache(max(cfg.CacheSize, 1024))
	if err != nil {
		return nil, errors.Wrap(err, "state cache")
	}
	return &Runtime{
		cfg:    cfg,
		db:     db,
		states: stateBucket.NewStore(db),
		hashes: hashBucket.NewGetter(db),
		cache:  cache,
	}, nil
}

// Head returns the last executed block. It is absent before genesis.
func (r *Runtime) Head() (Head, bool, error) {
	e := newEnv(state.New(r.states, r.cache), r.cfg, BlockContext{})
	return e.head.Lookup()
}

// View returns an env at the head for queries. Changes made through it are
// never committed.
func (r *Runtime) View() (*Env, error) {
	head, ok, err := r.Head()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.New("not initialized")
	}
	return newEnv(state.New(r.states, r.cache), r.cfg, BlockContext{head.Number, head.Timestamp}), nil
}

// SubmitUnsigned queues an election solution for the next block.
func (r *Runtime) SubmitUnsigned(sol *staking.Solution, validatorIndex uint32) error {
	if sol == nil {
		return errors.New("nil solution")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.unsigned = append(r.unsigned, Extrinsic{
		Origin:  darwinia.None(),
		Command: SubmitElectionSolutionUnsigned{Solution: sol, ValidatorIndex: validatorIndex},
	})
	return nil
}

func (r *Runtime) takeUnsigned() []Extrinsic {
	r.mu.Lock()
	defer r.mu.Unlock()
	queued := r.unsigned
	r.unsigned = nil
	return queued
}

// Block is the input of one block.
type Block struct {
	Number    darwinia.BlockNumber
	Timestamp darwinia.Moment
	Author    darwinia.AccountID
	// Uncles are the authors of the uncles included by the block.
	Uncles   []darwinia.AccountID
	Commands []Extrinsic
}

// Receipt is the outcome of one command.
type Receipt struct {
	Name   string
	Origin darwinia.Origin
	Events []event.Event
	// Err is the dispatch failure, the command had no effect.
	Err error
}

// Result is the outcome of a block.
type Result struct {
	Head     Head
	Hash     darwinia.Bytes32
	Changes  int
	Events   []event.Event
	Receipts []Receipt
	// Election is set while the election window is open, for the off-chain
	// worker to mine.
	Election *offchain.Job
}

// ExecuteBlock executes b on top of the head and commits it. Commands that
// fail with a dispatch error are recorded in their receipt; any other error
// aborts the block without writing.
func (r *Runtime) ExecuteBlock(b Block) (*Result, error) {
	start := time.Now()
	head, ok, err := r.Head()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.New("not initialized")
	}
	if b.Number != head.Number+1 {
		return nil, errors.Errorf("block number %d does not follow head %d", b.Number, head.Number)
	}
	if b.Timestamp < head.Timestamp {
		return nil, errors.Errorf("block timestamp %d before head %d", b.Timestamp, head.Timestamp)
	}

	e := newEnv(state.New(r.states, r.cache), r.cfg, BlockContext{b.Number, b.Timestamp})
	if err := e.initialize(b); err != nil {
		return nil, errors.Wrapf(err, "initialize block %d", b.Number)
	}

	commands := append(r.takeUnsigned(), b.Commands...)
	receipts := make([]Receipt, 0, len(commands))
	for _, x := range commands {
		events, err := e.Apply(x.Origin, x.Command)
		if err != nil && !reverts.IsRevertErr(err) {
			return nil, errors.Wrapf(err, "apply %s", Name(x.Command))
		}
		if err != nil {
			logger.Debug("command failed", "block", b.Number, "call", Name(x.Command), "origin", x.Origin, "err", err)
		}
		receipts = append(receipts, Receipt{Name: Name(x.Command), Origin: x.Origin, Events: events, Err: err})
	}

	if err := e.finalize(); err != nil {
		return nil, errors.Wrapf(err, "finalize block %d", b.Number)
	}
	res, err := r.commit(e, head)
	if err != nil {
		return nil, err
	}
	res.Receipts = receipts

	if res.Election, err = e.electionJob(); err != nil {
		return nil, err
	}
	e.reportMetrics()
	metricBlockDuration().Observe(time.Since(start).Milliseconds())
	logger.Debug("block executed", "number", b.Number, "commands", len(receipts), "events", len(res.Events), "changes", res.Changes)
	return res, nil
}

// initialize runs the hooks at the beginning of a block: session rotation,
// the election window, deferred offences and authorship points.
func (e *Env) initialize(b Block) error {
	if err := e.Session.OnInitialize(b.Number); err != nil {
		return errors.Wrap(err, "session")
	}
	if err := e.Staking.OnInitialize(b.Number); err != nil {
		return errors.Wrap(err, "staking")
	}
	if err := e.Offences.OnInitialize(b.Number); err != nil {
		return errors.Wrap(err, "offences")
	}
	if b.Author.IsZero() {
		return nil
	}
	if err := e.Staking.NoteAuthor(b.Author); err != nil {
		return errors.Wrap(err, "note author")
	}
	for _, uncle := range b.Uncles {
		if err := e.Staking.NoteUncle(b.Author, uncle); err != nil {
			return errors.Wrap(err, "note uncle")
		}
	}
	return nil
}

func (e *Env) finalize() error {
	if err := e.Staking.OnFinalize(); err != nil {
		return errors.Wrap(err, "staking")
	}
	return errors.Wrap(e.FeeMarket.OnFinalize(), "feemarket")
}

// commit writes the head and every change of e to the store.
func (r *Runtime) commit(e *Env, parent Head) (*Result, error) {
	head := Head{Number: e.ctx.Number, Timestamp: e.ctx.Timestamp}
	if e.ctx.Number > 0 {
		parentHash, err := r.HashOf(parent.Number)
		if err != nil {
			return nil, err
		}
		head.Parent = parentHash
	}
	if err := e.head.Set(head); err != nil {
		return nil, err
	}

	stage := e.state.Stage()
	hash := stage.Hash()
	bulk := r.db.Bulk()
	if err := hashBucket.NewPutter(bulk).Put(head.Number.Bytes(), hash.Bytes()); err != nil {
		return nil, errors.Wrap(err, "put block hash")
	}
	if err := stage.Commit(stateBucket.NewBulk(bulk)); err != nil {
		return nil, errors.Wrapf(err, "commit block %d", head.Number)
	}

	events := e.Events()
	metricBlockEvents().Add(int64(len(events)))
	return &Result{Head: head, Hash: hash, Changes: stage.Len(), Events: events}, nil
}

var (
	stateBucket = kv.Bucket("s/")
	hashBucket  = kv.Bucket("h/")
)

// HashOf returns the state hash committed by block n.
func (r *Runtime) HashOf(n darwinia.BlockNumber) (darwinia.Bytes32, error) {
	val, err := r.hashes.Get(n.Bytes())
	if err != nil {
		return darwinia.Bytes32{}, errors.Wrapf(err, "get hash of block %d", n)
	}
	return darwinia.BytesToBytes32(val), nil
}

// electionJob reads the election input while the window is open.
func (e *Env) electionJob() (*offchain.Job, error) {
	snap, ok, err := e.Staking.Snapshot()
	if err != nil || !ok {
		return nil, err
	}
	validators, err := e.Session.Validators()
	if err != nil {
		return nil, err
	}
	return &offchain.Job{Snapshot: snap, Validators: validators}, nil
}

func (e *Env) reportMetrics() {
	if era, ok, err := e.Staking.CurrentEra(); err == nil && ok {
		metricChain().SetWithLabel(int64(era), map[string]string{"index": "era"})
	}
	if i, err := e.Session.CurrentIndex(); err == nil {
		metricChain().SetWithLabel(int64(i), map[string]string{"index": "session"})
	}
	metricChain().SetWithLabel(int64(e.ctx.Number), map[string]string{"index": "block"})
}
