// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package storage provides typed storage items over the runtime state.
// Each item lives under blake2b(module)[:8] ‖ blake2b(item)[:8] followed by
// the item key bytes. Values are rlp encoded.
package storage

import (
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/darwinia-network/darwinia-go/darwinia"
	"github.com/darwinia-network/darwinia-go/state"
)

// Key is implemented by everything usable as a storage key.
type Key interface {
	Bytes() []byte
}

// Context binds storage items of a module to a state.
type Context struct {
	state  *state.State
	module string
	prefix []byte
}

// NewContext creates a storage context for module over st.
func NewContext(st *state.State, module string) *Context {
	h := darwinia.Blake2b([]byte(module))
	return &Context{state: st, module: module, prefix: h[:8]}
}

// State returns the underlying state.
func (c *Context) State() *state.State { return c.state }

// Module returns the module name.
func (c *Context) Module() string { return c.module }

func (c *Context) itemPrefix(item string) []byte {
	h := darwinia.Blake2b([]byte(item))
	return append(append(make([]byte, 0, 16), c.prefix...), h[:8]...)
}

func (c *Context) decode(key []byte, val any) (bool, error) {
	raw, err := c.state.Get(key)
	if err != nil {
		return false, err
	}
	if len(raw) == 0 {
		return false, nil
	}
	if err := rlp.DecodeBytes(raw, val); err != nil {
		return false, errors.Wrapf(err, "decode %s", c.module)
	}
	return true, nil
}

func (c *Context) encode(key []byte, val any) error {
	raw, err := rlp.EncodeToBytes(val)
	if err != nil {
		return errors.Wrapf(err, "encode %s", c.module)
	}
	c.state.Set(key, raw)
	return nil
}

func join(prefix []byte, keys ...[]byte) []byte {
	n := len(prefix)
	for _, k := range keys {
		n += len(k)
	}
	out := append(make([]byte, 0, n), prefix...)
	for _, k := range keys {
		out = append(out, k...)
	}
	return out
}
