// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package lvldb

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darwinia-network/darwinia-go/kv"
)

func testStore(t *testing.T, store kv.Store) {
	var (
		key        = []byte("123")
		value      = []byte("456")
		inValidKey = []byte("abc")
	)

	assert.NoError(t, store.Put(key, value))

	got, err := store.Get(key)
	assert.NoError(t, err)
	assert.Equal(t, value, got)

	has, err := store.Has(key)
	assert.NoError(t, err)
	assert.True(t, has)

	has, err = store.Has(inValidKey)
	assert.NoError(t, err)
	assert.False(t, has)

	assert.NoError(t, store.Delete(key))
	_, err = store.Get(key)
	assert.True(t, store.IsNotFound(err))

	bulk := store.Bulk()
	assert.NoError(t, bulk.Put([]byte("a"), []byte("1")))
	assert.NoError(t, bulk.Put([]byte("b"), []byte("2")))
	assert.NoError(t, bulk.Delete([]byte("a")))
	assert.Equal(t, 3, bulk.Len())

	has, _ = store.Has([]byte("b"))
	assert.False(t, has, "bulk must not be visible before write")

	assert.NoError(t, bulk.Write())
	assert.Equal(t, 0, bulk.Len())

	got, err = store.Get([]byte("b"))
	assert.NoError(t, err)
	assert.Equal(t, []byte("2"), got)
	has, _ = store.Has([]byte("a"))
	assert.False(t, has)
}

func TestLevelDB(t *testing.T) {
	db, err := New(filepath.Join(t.TempDir(), "lvldb"), Options{16, 16})
	require.NoError(t, err)
	defer db.Close()
	testStore(t, db)

	mem, err := NewMem()
	require.NoError(t, err)
	defer mem.Close()
	testStore(t, mem)
}

func TestLevelDBBucket(t *testing.T) {
	db, err := NewMem()
	require.NoError(t, err)
	defer db.Close()

	testStore(t, kv.Bucket("x").NewStore(db))

	_, err = db.Get([]byte("x123"))
	assert.True(t, db.IsNotFound(err))
	v, err := db.Get([]byte("xb"))
	assert.NoError(t, err)
	assert.Equal(t, []byte("2"), v)
}
