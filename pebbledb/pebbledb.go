// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package pebbledb implements kv.Store on top of cockroachdb pebble.
package pebbledb

import (
	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
	"github.com/pkg/errors"

	"github.com/darwinia-network/darwinia-go/kv"
)

var _ kv.Store = (*PebbleDB)(nil)

// Options for opening a pebble instance.
type Options struct {
	CacheSize    int // MiB
	MemTableSize int // MiB
}

// PebbleDB wraps a pebble database.
type PebbleDB struct {
	db    *pebble.DB
	cache *pebble.Cache
}

func buildOptions(opts Options) *pebble.Options {
	if opts.CacheSize < 16 {
		opts.CacheSize = 16
	}
	if opts.MemTableSize < 4 {
		opts.MemTableSize = 4
	}
	return &pebble.Options{
		Cache:        pebble.NewCache(int64(opts.CacheSize) << 20),
		MemTableSize: uint64(opts.MemTableSize) << 20,
	}
}

// Open opens or creates a persistent pebble database at path.
func Open(path string, opts Options) (*PebbleDB, error) {
	o := buildOptions(opts)
	db, err := pebble.Open(path, o)
	if err != nil {
		o.Cache.Unref()
		return nil, errors.Wrap(err, "open pebble")
	}
	return &PebbleDB{db: db, cache: o.Cache}, nil
}

// NewMem creates a pebble database on an in-memory filesystem.
func NewMem() (*PebbleDB, error) {
	o := buildOptions(Options{})
	o.FS = vfs.NewMem()
	db, err := pebble.Open("", o)
	if err != nil {
		o.Cache.Unref()
		return nil, errors.Wrap(err, "open mem pebble")
	}
	return &PebbleDB{db: db, cache: o.Cache}, nil
}

// IsNotFound checks if the error returned by Get indicates key not found.
func (p *PebbleDB) IsNotFound(err error) bool {
	return errors.Is(err, pebble.ErrNotFound)
}

// Get returns a copy of the value stored under key.
func (p *PebbleDB) Get(key []byte) ([]byte, error) {
	val, closer, err := p.db.Get(key)
	if err != nil {
		return nil, err
	}
	defer closer.Close()

	return append([]byte(nil), val...), nil
}

func (p *PebbleDB) Has(key []byte) (bool, error) {
	_, closer, err := p.db.Get(key)
	if err != nil {
		if p.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, closer.Close()
}

func (p *PebbleDB) Put(key, val []byte) error {
	return p.db.Set(key, val, pebble.NoSync)
}

func (p *PebbleDB) Delete(key []byte) error {
	return p.db.Delete(key, pebble.NoSync)
}

func (p *PebbleDB) Bulk() kv.Bulk {
	return &bulk{db: p.db, batch: p.db.NewBatch()}
}

func (p *PebbleDB) Close() error {
	err := p.db.Close()
	p.cache.Unref()
	return err
}

type bulk struct {
	db    *pebble.DB
	batch *pebble.Batch
}

func (b *bulk) Put(key, val []byte) error {
	return b.batch.Set(key, val, nil)
}

func (b *bulk) Delete(key []byte) error {
	return b.batch.Delete(key, nil)
}

func (b *bulk) Len() int {
	return int(b.batch.Count())
}

func (b *bulk) Write() error {
	if err := b.batch.Commit(pebble.Sync); err != nil {
		return errors.Wrap(err, "commit batch")
	}
	kv.RecordBulkWrite("pebble", b.Len())
	if err := b.batch.Close(); err != nil {
		return err
	}
	b.batch = b.db.NewBatch()
	return nil
}
