// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"os/user"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/darwinia-network/darwinia-go/config"
	"github.com/darwinia-network/darwinia-go/kv"
	"github.com/darwinia-network/darwinia-go/log"
	"github.com/darwinia-network/darwinia-go/lvldb"
	"github.com/darwinia-network/darwinia-go/metrics"
	"github.com/darwinia-network/darwinia-go/pebbledb"
)

func loadConfig(ctx *cli.Context) (*config.Config, error) {
	path := ctx.String(configFlag.Name)
	if path == "" {
		return config.Default(), nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, errors.Wrapf(err, "load config %v", path)
	}
	return cfg, nil
}

// parseLevel accepts the slog level names plus trace and crit.
func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "trace":
		return log.LevelTrace, nil
	case "crit":
		return log.LevelCrit, nil
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return 0, errors.Wrapf(err, "log level %q", s)
	}
	return lvl, nil
}

func newLogHandler(wr io.Writer, format string, lvl *slog.LevelVar, useColor bool) (slog.Handler, error) {
	switch format {
	case "", "terminal":
		return log.NewTerminalHandlerWithLevel(wr, lvl, useColor), nil
	case "json":
		return log.JSONHandlerWithLevel(wr, lvl), nil
	case "logfmt":
		return log.LogfmtHandlerWithLevel(wr, lvl), nil
	}
	return nil, errors.Errorf("unknown log format %q", format)
}

func initLogger(ctx *cli.Context, cfg config.Log) error {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return err
	}
	if ctx.IsSet(verbosityFlag.Name) {
		level = log.FromLegacyLevel(int(ctx.Uint64(verbosityFlag.Name)))
	}
	format := cfg.Format
	if ctx.Bool(jsonLogsFlag.Name) {
		format = "json"
	}

	lvl := &slog.LevelVar{}
	lvl.Set(level)
	useColor := isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())
	h, err := newLogHandler(os.Stderr, format, lvl, useColor)
	if err != nil {
		return err
	}
	log.SetDefault(log.NewLogger(h))
	return nil
}

func homeDir() string {
	if home := os.Getenv("HOME"); home != "" {
		return home
	}
	if usr, err := user.Current(); err == nil {
		return usr.HomeDir
	}
	return ""
}

func defaultDataDir() string {
	if home := homeDir(); home != "" {
		return filepath.Join(home, ".darwinia-sim")
	}
	return ""
}

// openStore opens the chain database of the named engine under dataDir.
func openStore(engine, dataDir string) (kv.Store, error) {
	if engine == "memory" {
		return lvldb.NewMem()
	}
	if dataDir == "" {
		return nil, errors.New("unable to infer default data dir, use --datadir to specify one")
	}
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, errors.Wrapf(err, "create data dir %v", dataDir)
	}
	switch engine {
	case "leveldb":
		dir := filepath.Join(dataDir, "chain.db")
		db, err := lvldb.New(dir, lvldb.Options{CacheSize: 128, OpenFilesCacheCapacity: 64})
		if err != nil {
			return nil, errors.Wrapf(err, "open chain database at %v", dir)
		}
		return db, nil
	case "pebble":
		dir := filepath.Join(dataDir, "chain.pebble")
		db, err := pebbledb.Open(dir, pebbledb.Options{CacheSize: 128, MemTableSize: 16})
		if err != nil {
			return nil, errors.Wrapf(err, "open chain database at %v", dir)
		}
		return db, nil
	}
	return nil, errors.Errorf("unknown store %q", engine)
}

// startMetricsServer serves the prometheus registry at addr/metrics until
// ctx is done.
func startMetricsServer(ctx context.Context, addr string) (string, func() error, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return "", nil, errors.Wrapf(err, "listen metrics API addr [%v]", addr)
	}

	router := mux.NewRouter()
	router.PathPrefix("/metrics").Handler(metrics.HTTPHandler())
	handler := handlers.CompressHandler(router)

	srv := &http.Server{Handler: handler, ReadHeaderTimeout: time.Second, ReadTimeout: 5 * time.Second}
	serve := func() error {
		go func() {
			<-ctx.Done()
			srv.Close()
		}()
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
	return "http://" + listener.Addr().String() + "/metrics", serve, nil
}

func handleExitSignal() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
