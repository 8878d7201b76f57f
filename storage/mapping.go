// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package storage

// Mapping is a key/value storage item.
type Mapping[K Key, V any] struct {
	ctx    *Context
	prefix []byte
}

func NewMapping[K Key, V any](ctx *Context, item string) *Mapping[K, V] {
	return &Mapping[K, V]{ctx: ctx, prefix: ctx.itemPrefix(item)}
}

func (m *Mapping[K, V]) Get(key K) (val V, err error) {
	_, err = m.ctx.decode(join(m.prefix, key.Bytes()), &val)
	return
}

func (m *Mapping[K, V]) Lookup(key K) (val V, ok bool, err error) {
	ok, err = m.ctx.decode(join(m.prefix, key.Bytes()), &val)
	return
}

func (m *Mapping[K, V]) Has(key K) (bool, error) {
	return m.ctx.state.Has(join(m.prefix, key.Bytes()))
}

func (m *Mapping[K, V]) Set(key K, val V) error {
	return m.ctx.encode(join(m.prefix, key.Bytes()), val)
}

func (m *Mapping[K, V]) Delete(key K) {
	m.ctx.state.Delete(join(m.prefix, key.Bytes()))
}

// Take returns the value and removes it.
func (m *Mapping[K, V]) Take(key K) (val V, ok bool, err error) {
	if val, ok, err = m.Lookup(key); err == nil && ok {
		m.Delete(key)
	}
	return
}

// Mutate loads the value under key, applies fn and stores the result.
func (m *Mapping[K, V]) Mutate(key K, fn func(*V) error) error {
	val, err := m.Get(key)
	if err != nil {
		return err
	}
	if err := fn(&val); err != nil {
		return err
	}
	return m.Set(key, val)
}

// DoubleMapping is a storage item keyed by two keys.
// Both key types must encode to fixed-length bytes.
type DoubleMapping[K1 Key, K2 Key, V any] struct {
	ctx    *Context
	prefix []byte
}

func NewDoubleMapping[K1 Key, K2 Key, V any](ctx *Context, item string) *DoubleMapping[K1, K2, V] {
	return &DoubleMapping[K1, K2, V]{ctx: ctx, prefix: ctx.itemPrefix(item)}
}

func (m *DoubleMapping[K1, K2, V]) key(k1 K1, k2 K2) []byte {
	return join(m.prefix, k1.Bytes(), k2.Bytes())
}

func (m *DoubleMapping[K1, K2, V]) Get(k1 K1, k2 K2) (val V, err error) {
	_, err = m.ctx.decode(m.key(k1, k2), &val)
	return
}

func (m *DoubleMapping[K1, K2, V]) Lookup(k1 K1, k2 K2) (val V, ok bool, err error) {
	ok, err = m.ctx.decode(m.key(k1, k2), &val)
	return
}

func (m *DoubleMapping[K1, K2, V]) Has(k1 K1, k2 K2) (bool, error) {
	return m.ctx.state.Has(m.key(k1, k2))
}

func (m *DoubleMapping[K1, K2, V]) Set(k1 K1, k2 K2, val V) error {
	return m.ctx.encode(m.key(k1, k2), val)
}

func (m *DoubleMapping[K1, K2, V]) Delete(k1 K1, k2 K2) {
	m.ctx.state.Delete(m.key(k1, k2))
}

func (m *DoubleMapping[K1, K2, V]) Mutate(k1 K1, k2 K2, fn func(*V) error) error {
	val, err := m.Get(k1, k2)
	if err != nil {
		return err
	}
	if err := fn(&val); err != nil {
		return err
	}
	return m.Set(k1, k2, val)
}
