// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import "github.com/darwinia-network/darwinia-go/reverts"

const moduleName = "staking"

var (
	ErrNotController       = reverts.New(moduleName, "NotController")
	ErrNotStash            = reverts.New(moduleName, "NotStash")
	ErrAlreadyBonded       = reverts.New(moduleName, "AlreadyBonded")
	ErrAlreadyPaired       = reverts.New(moduleName, "AlreadyPaired")
	ErrEmptyTargets        = reverts.New(moduleName, "EmptyTargets")
	ErrBadTarget           = reverts.New(moduleName, "BadTarget")
	ErrInvalidSlashIndex   = reverts.New(moduleName, "InvalidSlashIndex")
	ErrInsufficientValue   = reverts.New(moduleName, "InsufficientValue")
	ErrInsufficientBond    = reverts.New(moduleName, "InsufficientBond")
	ErrNoMoreChunks        = reverts.New(moduleName, "NoMoreChunks")
	ErrNoUnlockChunk       = reverts.New(moduleName, "NoUnlockChunk")
	ErrFundedTarget        = reverts.New(moduleName, "FundedTarget")
	ErrInvalidEraToReward  = reverts.New(moduleName, "InvalidEraToReward")
	ErrNotSortedAndUnique  = reverts.New(moduleName, "NotSortedAndUnique")
	ErrAlreadyClaimed      = reverts.New(moduleName, "AlreadyClaimed")
	ErrCallNotAllowed      = reverts.New(moduleName, "CallNotAllowed")
	ErrSnapshotUnavailable = reverts.New(moduleName, "SnapshotUnavailable")

	ErrPhragmenEarlySubmission   = reverts.New(moduleName, "PhragmenEarlySubmission")
	ErrPhragmenWeakSubmission    = reverts.New(moduleName, "PhragmenWeakSubmission")
	ErrPhragmenBogusWinnerCount  = reverts.New(moduleName, "PhragmenBogusWinnerCount")
	ErrPhragmenBogusWinner       = reverts.New(moduleName, "PhragmenBogusWinner")
	ErrPhragmenBogusCompact      = reverts.New(moduleName, "PhragmenBogusCompact")
	ErrPhragmenBogusNominator    = reverts.New(moduleName, "PhragmenBogusNominator")
	ErrPhragmenBogusNomination   = reverts.New(moduleName, "PhragmenBogusNomination")
	ErrPhragmenSlashedNomination = reverts.New(moduleName, "PhragmenSlashedNomination")
	ErrPhragmenBogusSelfVote     = reverts.New(moduleName, "PhragmenBogusSelfVote")
	ErrPhragmenBogusEdge         = reverts.New(moduleName, "PhragmenBogusEdge")
	ErrPhragmenBogusScore        = reverts.New(moduleName, "PhragmenBogusScore")
	ErrPhragmenBogusElectionSize = reverts.New(moduleName, "PhragmenBogusElectionSize")
	ErrPhragmenBogusEra          = reverts.New(moduleName, "PhragmenBogusEra")
	ErrPhragmenBogusSubmitter    = reverts.New(moduleName, "PhragmenBogusSubmitter")
)
