// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// darwinia-sim runs a development chain of the staking and fee market
// runtime, driven by scripted users.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/darwinia-network/darwinia-go/config"
	"github.com/darwinia-network/darwinia-go/darwinia"
	"github.com/darwinia-network/darwinia-go/event"
	"github.com/darwinia-network/darwinia-go/log"
	"github.com/darwinia-network/darwinia-go/metrics"
	"github.com/darwinia-network/darwinia-go/offchain"
	"github.com/darwinia-network/darwinia-go/runtime"
)

var (
	version   string
	gitCommit string
	gitTag    string

	logger = log.WithContext("pkg", "sim")
)

func run(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	if err := initLogger(ctx, cfg.Log); err != nil {
		return errors.Wrap(err, "init logger")
	}
	if ctx.Bool(enableMetricsFlag.Name) {
		cfg.Metrics.Enabled = true
	}
	if ctx.IsSet(metricsAddrFlag.Name) {
		cfg.Metrics.Addr = ctx.String(metricsAddrFlag.Name)
	}
	if ctx.Bool(noOffchainFlag.Name) {
		cfg.Offchain.Enabled = false
	}

	db, err := openStore(ctx.String(storeFlag.Name), ctx.String(dataDirFlag.Name))
	if err != nil {
		return err
	}
	defer db.Close()

	rt, err := runtime.New(db, cfg.RuntimeConfig())
	if err != nil {
		return err
	}
	if err := initChain(rt, cfg); err != nil {
		return err
	}

	exit, stop := handleExitSignal()
	defer stop()
	group, groupCtx := errgroup.WithContext(exit)

	if cfg.Metrics.Enabled {
		metrics.InitializePrometheusMetrics()
		url, serve, err := startMetricsServer(groupCtx, cfg.Metrics.Addr)
		if err != nil {
			return fmt.Errorf("unable to start metrics server - %w", err)
		}
		logger.Info("metrics server started", "url", url)
		group.Go(serve)
	}

	sim, err := newSimulator(rt, cfg, ctx.Uint64(blocksFlag.Name), ctx.Duration(blockIntervalFlag.Name))
	if err != nil {
		return err
	}
	if sim.worker != nil {
		group.Go(func() error { return sim.worker.Run(groupCtx) })
	}
	group.Go(func() error {
		err := sim.run(groupCtx)
		// the worker and the metrics server stop with the chain
		stop()
		return err
	})
	return group.Wait()
}

// initChain executes genesis on an empty store.
func initChain(rt *runtime.Runtime, cfg *config.Config) error {
	head, ok, err := rt.Head()
	if err != nil {
		return err
	}
	if ok {
		logger.Info("resuming chain", "number", head.Number, "timestamp", head.Timestamp)
		return nil
	}
	g, err := cfg.GenesisConfig()
	if err != nil {
		return err
	}
	res, err := rt.Genesis(g)
	if err != nil {
		return errors.Wrap(err, "genesis")
	}
	logger.Info("chain initialized", "hash", res.Hash, "events", len(res.Events))
	return nil
}

type simulator struct {
	rt        *runtime.Runtime
	script    *script
	worker    *offchain.Worker
	blockTime darwinia.Moment
	limit     uint64
	interval  time.Duration
}

func newSimulator(rt *runtime.Runtime, cfg *config.Config, limit uint64, interval time.Duration) (*simulator, error) {
	sc, err := newScript(cfg)
	if err != nil {
		return nil, err
	}
	sim := &simulator{
		rt:        rt,
		script:    sc,
		blockTime: cfg.Traffic.BlockTime,
		limit:     limit,
		interval:  interval,
	}
	if !cfg.Offchain.Enabled {
		return sim, nil
	}
	env, err := rt.View()
	if err != nil {
		return nil, err
	}
	validators, err := env.Session.Validators()
	if err != nil {
		return nil, err
	}
	if len(validators) == 0 {
		return nil, errors.New("no session validators")
	}
	sim.worker = offchain.New(cfg.OffchainConfig(validators[0]), rt)
	logger.Info("offchain worker enabled", "validator", validators[0])
	return sim, nil
}

func (s *simulator) run(ctx context.Context) error {
	var ticker <-chan time.Time
	if s.interval > 0 {
		t := time.NewTicker(s.interval)
		defer t.Stop()
		ticker = t.C
	}
	for executed := uint64(0); s.limit == 0 || executed < s.limit; executed++ {
		if ticker != nil {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker:
			}
		} else if ctx.Err() != nil {
			return nil
		}
		if _, err := s.step(); err != nil {
			return err
		}
	}
	logger.Info("block limit reached", "blocks", s.limit)
	return nil
}

// step builds and executes the block on top of the head.
func (s *simulator) step() (*runtime.Result, error) {
	env, err := s.rt.View()
	if err != nil {
		return nil, err
	}
	head, _, err := s.rt.Head()
	if err != nil {
		return nil, err
	}
	n := head.Number + 1

	validators, err := env.Session.Validators()
	if err != nil {
		return nil, err
	}
	var author darwinia.AccountID
	if len(validators) > 0 {
		author = validators[int(n)%len(validators)]
	}
	cmds, err := s.script.commands(env, n)
	if err != nil {
		return nil, errors.Wrapf(err, "script of block %d", n)
	}

	res, err := s.rt.ExecuteBlock(runtime.Block{
		Number:    n,
		Timestamp: head.Timestamp + s.blockTime,
		Author:    author,
		Commands:  cmds,
	})
	if err != nil {
		return nil, err
	}
	if res.Election != nil && s.worker != nil {
		s.worker.Offer(*res.Election)
	}

	failed := 0
	for _, r := range res.Receipts {
		if r.Err != nil {
			failed++
			logger.Warn("command failed", "number", n, "call", r.Name, "err", r.Err)
		}
	}
	for _, ev := range res.Events {
		logger.Debug("event", "number", n, "event", event.String(ev))
	}
	logger.Info("block executed", "number", n, "hash", res.Hash, "commands", len(res.Receipts), "failed", failed, "events", len(res.Events))
	return res, nil
}

func printConfig(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	data, err := cfg.Marshal()
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(data)
	return err
}

func main() {
	versionMeta := "release"
	if gitTag == "" {
		versionMeta = "dev"
	}
	runFlags := []cli.Flag{
		configFlag,
		dataDirFlag,
		storeFlag,
		blocksFlag,
		blockIntervalFlag,
		verbosityFlag,
		jsonLogsFlag,
		enableMetricsFlag,
		metricsAddrFlag,
		noOffchainFlag,
	}
	app := cli.App{
		Version: fmt.Sprintf("%s-%s-%s", version, gitCommit, versionMeta),
		Name:    "darwinia-sim",
		Usage:   "Darwinia staking and fee market simulator",
		Flags:   runFlags,
		Action:  run,
		Commands: []cli.Command{
			{
				Name:   "run",
				Usage:  "execute the scripted chain",
				Flags:  runFlags,
				Action: run,
			},
			{
				Name:   "config",
				Usage:  "print the effective config as YAML",
				Flags:  []cli.Flag{configFlag},
				Action: printConfig,
			},
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
