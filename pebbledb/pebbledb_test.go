// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pebbledb

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPebbleDB(t *testing.T) {
	disk, err := Open(filepath.Join(t.TempDir(), "pebble"), Options{})
	require.NoError(t, err)
	mem, err := NewMem()
	require.NoError(t, err)

	for _, db := range []*PebbleDB{disk, mem} {
		key, val := []byte("k"), []byte("v")

		has, err := db.Has(key)
		assert.NoError(t, err)
		assert.False(t, has)

		_, err = db.Get(key)
		assert.True(t, db.IsNotFound(err))

		assert.NoError(t, db.Put(key, val))
		got, err := db.Get(key)
		assert.NoError(t, err)
		assert.Equal(t, val, got)

		bulk := db.Bulk()
		assert.NoError(t, bulk.Delete(key))
		assert.NoError(t, bulk.Put([]byte("k2"), []byte("v2")))
		assert.Equal(t, 2, bulk.Len())
		assert.NoError(t, bulk.Write())
		assert.Equal(t, 0, bulk.Len())

		has, _ = db.Has(key)
		assert.False(t, has)
		got, err = db.Get([]byte("k2"))
		assert.NoError(t, err)
		assert.Equal(t, []byte("v2"), got)

		assert.NoError(t, db.Close())
	}
}
