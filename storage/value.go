// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package storage

// Value is a single typed storage slot.
type Value[V any] struct {
	ctx *Context
	key []byte
}

func NewValue[V any](ctx *Context, item string) *Value[V] {
	return &Value[V]{ctx: ctx, key: ctx.itemPrefix(item)}
}

// Get returns the stored value, or the zero value if absent.
func (v *Value[V]) Get() (val V, err error) {
	_, err = v.ctx.decode(v.key, &val)
	return
}

// Lookup returns the stored value and whether it exists.
func (v *Value[V]) Lookup() (val V, ok bool, err error) {
	ok, err = v.ctx.decode(v.key, &val)
	return
}

func (v *Value[V]) Exists() (bool, error) {
	return v.ctx.state.Has(v.key)
}

func (v *Value[V]) Set(val V) error {
	return v.ctx.encode(v.key, val)
}

func (v *Value[V]) Delete() {
	v.ctx.state.Delete(v.key)
}

// Mutate loads the value, applies fn and stores the result.
// Nothing is stored if fn fails.
func (v *Value[V]) Mutate(fn func(*V) error) error {
	val, err := v.Get()
	if err != nil {
		return err
	}
	if err := fn(&val); err != nil {
		return err
	}
	return v.Set(val)
}
