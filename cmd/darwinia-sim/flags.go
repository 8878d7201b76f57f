// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	cli "gopkg.in/urfave/cli.v1"
)

var (
	configFlag = cli.StringFlag{
		Name:   "config",
		Usage:  "path of the YAML config, the development config is used when empty",
		EnvVar: "DARWINIA_CONFIG",
	}
	dataDirFlag = cli.StringFlag{
		Name:   "datadir",
		Value:  defaultDataDir(),
		Usage:  "directory for the chain database",
		EnvVar: "DARWINIA_DATA_DIR",
	}
	storeFlag = cli.StringFlag{
		Name:  "store",
		Value: "leveldb",
		Usage: "storage engine (leveldb|pebble|memory)",
	}
	blocksFlag = cli.Uint64Flag{
		Name:  "blocks",
		Usage: "number of blocks to execute, 0 runs until interrupted",
	}
	blockIntervalFlag = cli.DurationFlag{
		Name:  "block-interval",
		Usage: "wall clock delay between blocks",
	}
	verbosityFlag = cli.Uint64Flag{
		Name:  "verbosity",
		Value: 3,
		Usage: "log verbosity (0-5), overrides the config level when set",
	}
	jsonLogsFlag = cli.BoolFlag{
		Name:  "json-logs",
		Usage: "output logs in JSON format",
	}
	enableMetricsFlag = cli.BoolFlag{
		Name:  "enable-metrics",
		Usage: "enables metrics collection",
	}
	metricsAddrFlag = cli.StringFlag{
		Name:  "metrics-addr",
		Value: "localhost:2112",
		Usage: "metrics service listening address",
	}
	noOffchainFlag = cli.BoolFlag{
		Name:  "no-offchain",
		Usage: "disable the off-chain election worker",
	}
)
