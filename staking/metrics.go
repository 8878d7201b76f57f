// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import "github.com/darwinia-network/darwinia-go/metrics"

var (
	metricActiveEra       = metrics.LazyLoadGauge("staking_active_era")
	metricElections       = metrics.LazyLoadCounterVec("staking_election_count", []string{"compute", "result"})
	metricElectionWinners = metrics.LazyLoadGauge("staking_election_winners")
	metricElectionTime    = metrics.LazyLoadHistogram("staking_election_duration_ms", metrics.BucketElection)
	metricSlashes         = metrics.LazyLoadCounterVec("staking_slash_count", []string{"asset"})
	metricSlashedAmount   = metrics.LazyLoadCounterVec("staking_slashed_amount", []string{"asset"})
	metricPayouts         = metrics.LazyLoadCounter("staking_payout_count")
)
