// Copyright (c) 2021 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package kv

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

var errNotFound = errors.New("not found")

type mem map[string]string

func (m mem) Get(k []byte) ([]byte, error) {
	if v, ok := m[string(k)]; ok {
		return []byte(v), nil
	}
	return nil, errNotFound
}

func (m mem) Has(k []byte) (bool, error) {
	_, ok := m[string(k)]
	return ok, nil
}

func (m mem) Put(k, v []byte) error {
	m[string(k)] = string(v)
	return nil
}

func (m mem) Delete(k []byte) error {
	delete(m, string(k))
	return nil
}

func (m mem) IsNotFound(err error) bool {
	return errors.Is(err, errNotFound)
}

type memBulk struct {
	m   mem
	ops []func()
}

func (b *memBulk) Put(k, v []byte) error {
	ks, vs := string(k), string(v)
	b.ops = append(b.ops, func() { b.m[ks] = vs })
	return nil
}

func (b *memBulk) Delete(k []byte) error {
	ks := string(k)
	b.ops = append(b.ops, func() { delete(b.m, ks) })
	return nil
}

func (b *memBulk) Len() int { return len(b.ops) }

func (b *memBulk) Write() error {
	for _, op := range b.ops {
		op()
	}
	b.ops = nil
	return nil
}

type memStore struct {
	mem
}

func (s memStore) Bulk() Bulk   { return &memBulk{m: s.mem} }
func (s memStore) Close() error { return nil }

func TestBucket_GetterGet(t *testing.T) {
	m := mem{"k1": "v1", "k2": "v2"}

	tests := []struct {
		b    Bucket
		key  string
		want string
	}{
		{Bucket(""), "k1", "v1"},
		{Bucket(""), "k2", "v2"},
		{Bucket("k"), "k1", ""},
		{Bucket("k"), "1", "v1"},
		{Bucket("k"), "2", "v2"},
		{Bucket("k1"), "", "v1"},
	}
	for _, tt := range tests {
		got, _ := tt.b.NewGetter(m).Get([]byte(tt.key))
		assert.Equal(t, tt.want, string(got), "bucket %q key %q", tt.b, tt.key)
	}
}

func TestBucket_GetterHas(t *testing.T) {
	m := mem{"k1": "v1", "k2": "v2"}

	tests := []struct {
		b    Bucket
		key  string
		want bool
	}{
		{Bucket(""), "k1", true},
		{Bucket("k"), "k1", false},
		{Bucket("k"), "1", true},
		{Bucket("k1"), "", true},
		{Bucket("x"), "1", false},
	}
	for _, tt := range tests {
		got, err := tt.b.NewGetter(m).Has([]byte(tt.key))
		assert.NoError(t, err)
		assert.Equal(t, tt.want, got, "bucket %q key %q", tt.b, tt.key)
	}
}

func TestBucket_GetterIsNotFound(t *testing.T) {
	g := Bucket("b").NewGetter(mem{})
	_, err := g.Get([]byte("missing"))
	assert.True(t, g.IsNotFound(err))
}

func TestBucket_Putter(t *testing.T) {
	m := mem{}
	p := Bucket("b").NewPutter(m)

	assert.NoError(t, p.Put([]byte("1"), []byte("v1")))
	assert.Equal(t, mem{"b1": "v1"}, m)

	assert.NoError(t, p.Delete([]byte("1")))
	assert.Empty(t, m)
}

func TestBucket_StoreBulk(t *testing.T) {
	m := mem{"a1": "x"}
	s := Bucket("a").NewStore(memStore{m})

	bulk := s.Bulk()
	assert.NoError(t, bulk.Put([]byte("2"), []byte("y")))
	assert.NoError(t, bulk.Delete([]byte("1")))
	assert.Equal(t, 2, bulk.Len())

	// nothing applied before write
	assert.Equal(t, mem{"a1": "x"}, m)

	assert.NoError(t, bulk.Write())
	assert.Equal(t, mem{"a2": "y"}, m)

	v, err := s.Get([]byte("2"))
	assert.NoError(t, err)
	assert.Equal(t, "y", string(v))
	assert.NoError(t, s.Close())
}

func TestBucket_SharedBulk(t *testing.T) {
	m := mem{}
	src := memStore{m}.Bulk()

	left, right := Bucket("l/").NewBulk(src), Bucket("r/").NewBulk(src)
	assert.NoError(t, left.Put([]byte("k"), []byte("1")))
	assert.NoError(t, right.Put([]byte("k"), []byte("2")))
	assert.Equal(t, 2, left.Len())
	assert.Empty(t, m)

	assert.NoError(t, right.Write())
	assert.Equal(t, mem{"l/k": "1", "r/k": "2"}, m)
}
