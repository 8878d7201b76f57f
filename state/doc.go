// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package state manages the runtime key-value state of a block.
// It follows the flow as bellow:
//
//	         o
//	         |
//	[ revertable state ]
//	         |
//	  [ stacked map ] -> [ journal ] -> [ stage ] -> [ kv bulk ]
//	         |
//	   [ lru cache ]
//	         |
//	  [ kv getter ]
//
// A State is created per block. Writes are journaled in the stacked map so
// that any dispatched call can be reverted to a checkpoint, and only the
// final value of each touched key is staged and committed.
package state
