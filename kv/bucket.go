// Copyright (c) 2021 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package kv

// Bucket namespaces a store by prefixing every key with the bucket name.
type Bucket string

func (b Bucket) key(k []byte) []byte {
	out := make([]byte, 0, len(b)+len(k))
	return append(append(out, b...), k...)
}

// NewGetter reads src through the bucket.
func (b Bucket) NewGetter(src Getter) Getter { return bucketGetter{b, src} }

// NewPutter writes src through the bucket.
func (b Bucket) NewPutter(src Putter) Putter { return bucketPutter{b, src} }

// NewBulk buffers writes through the bucket into src. Writing the returned
// bulk writes src, so several buckets may share one atomic bulk.
func (b Bucket) NewBulk(src Bulk) Bulk { return bucketBulk{bucketPutter{b, src}, src} }

// NewStore creates a bucket store from the source store.
// Closing the bucket store is a no-op, the source store owns the resources.
func (b Bucket) NewStore(src Store) Store {
	return bucketStore{bucketGetter{b, src}, bucketPutter{b, src}, src}
}

type bucketGetter struct {
	b   Bucket
	src Getter
}

func (g bucketGetter) Get(key []byte) ([]byte, error) { return g.src.Get(g.b.key(key)) }
func (g bucketGetter) Has(key []byte) (bool, error)   { return g.src.Has(g.b.key(key)) }
func (g bucketGetter) IsNotFound(err error) bool      { return g.src.IsNotFound(err) }

type bucketPutter struct {
	b   Bucket
	src Putter
}

func (p bucketPutter) Put(key, val []byte) error { return p.src.Put(p.b.key(key), val) }
func (p bucketPutter) Delete(key []byte) error   { return p.src.Delete(p.b.key(key)) }

type bucketBulk struct {
	bucketPutter
	src Bulk
}

func (k bucketBulk) Len() int     { return k.src.Len() }
func (k bucketBulk) Write() error { return k.src.Write() }

type bucketStore struct {
	bucketGetter
	bucketPutter
	src Store
}

func (s bucketStore) Bulk() Bulk   { return s.bucketPutter.b.NewBulk(s.src.Bulk()) }
func (s bucketStore) Close() error { return nil }
