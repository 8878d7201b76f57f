// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package kv

import "github.com/darwinia-network/darwinia-go/metrics"

var (
	metricBulks   = metrics.LazyLoadCounterVec("kv_bulk_count", []string{"engine"})
	metricBulkOps = metrics.LazyLoadCounterVec("kv_bulk_op_count", []string{"engine"})
)

// RecordBulkWrite counts one flushed bulk of ops writes on engine.
func RecordBulkWrite(engine string, ops int) {
	labels := map[string]string{"engine": engine}
	metricBulks().AddWithLabel(1, labels)
	metricBulkOps().AddWithLabel(int64(ops), labels)
}
