// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package storage

import (
	"github.com/darwinia-network/darwinia-go/darwinia"
)

// List is an insertion ordered set of accounts kept as a doubly linked list.
// The zero account can not be a member.
type List struct {
	head  *Value[darwinia.AccountID]
	tail  *Value[darwinia.AccountID]
	count *Value[uint64]
	next  *Mapping[darwinia.AccountID, darwinia.AccountID]
	prev  *Mapping[darwinia.AccountID, darwinia.AccountID]
}

// NewList creates a list persisted under item.
func NewList(ctx *Context, item string) *List {
	return &List{
		head:  NewValue[darwinia.AccountID](ctx, item+".head"),
		tail:  NewValue[darwinia.AccountID](ctx, item+".tail"),
		count: NewValue[uint64](ctx, item+".count"),
		next:  NewMapping[darwinia.AccountID, darwinia.AccountID](ctx, item+".next"),
		prev:  NewMapping[darwinia.AccountID, darwinia.AccountID](ctx, item+".prev"),
	}
}

// Contains returns whether id is in the list.
func (l *List) Contains(id darwinia.AccountID) (bool, error) {
	if id.IsZero() {
		return false, nil
	}
	prev, err := l.prev.Get(id)
	if err != nil {
		return false, err
	}
	if !prev.IsZero() {
		return true, nil
	}
	head, err := l.head.Get()
	if err != nil {
		return false, err
	}
	return head == id, nil
}

// Add appends id to the end of the list. It's a no-op if id is present.
func (l *List) Add(id darwinia.AccountID) error {
	if ok, err := l.Contains(id); err != nil || ok || id.IsZero() {
		return err
	}

	oldTail, err := l.tail.Get()
	if err != nil {
		return err
	}
	if oldTail.IsZero() {
		if err := l.head.Set(id); err != nil {
			return err
		}
	} else {
		if err := l.next.Set(oldTail, id); err != nil {
			return err
		}
		if err := l.prev.Set(id, oldTail); err != nil {
			return err
		}
	}
	if err := l.tail.Set(id); err != nil {
		return err
	}
	return l.count.Mutate(func(n *uint64) error { *n++; return nil })
}

// Remove extracts id from anywhere in the list, reconnecting adjacent nodes.
// It returns false if id was not present.
func (l *List) Remove(id darwinia.AccountID) (bool, error) {
	if ok, err := l.Contains(id); err != nil || !ok {
		return false, err
	}

	prev, err := l.prev.Get(id)
	if err != nil {
		return false, err
	}
	next, err := l.next.Get(id)
	if err != nil {
		return false, err
	}

	if prev.IsZero() {
		err = l.setOrClear(l.head, next)
	} else {
		err = l.setOrClearNext(prev, next)
	}
	if err != nil {
		return false, err
	}

	if next.IsZero() {
		err = l.setOrClear(l.tail, prev)
	} else if prev.IsZero() {
		l.prev.Delete(next)
	} else {
		err = l.prev.Set(next, prev)
	}
	if err != nil {
		return false, err
	}

	l.next.Delete(id)
	l.prev.Delete(id)

	n, err := l.count.Get()
	if err != nil {
		return false, err
	}
	if n <= 1 {
		l.count.Delete()
		return true, nil
	}
	return true, l.count.Set(n - 1)
}

func (l *List) setOrClear(v *Value[darwinia.AccountID], id darwinia.AccountID) error {
	if id.IsZero() {
		v.Delete()
		return nil
	}
	return v.Set(id)
}

func (l *List) setOrClearNext(of, id darwinia.AccountID) error {
	if id.IsZero() {
		l.next.Delete(of)
		return nil
	}
	return l.next.Set(of, id)
}

// Len returns the number of members.
func (l *List) Len() (uint64, error) {
	return l.count.Get()
}

// Iter traverses the list in insertion order until cb returns false or an error.
func (l *List) Iter(cb func(darwinia.AccountID) (bool, error)) error {
	ptr, err := l.head.Get()
	if err != nil {
		return err
	}
	for !ptr.IsZero() {
		next, err := l.next.Get(ptr)
		if err != nil {
			return err
		}
		cont, err := cb(ptr)
		if err != nil || !cont {
			return err
		}
		ptr = next
	}
	return nil
}

// All returns all members in insertion order.
func (l *List) All() ([]darwinia.AccountID, error) {
	var out []darwinia.AccountID
	err := l.Iter(func(id darwinia.AccountID) (bool, error) {
		out = append(out, id)
		return true, nil
	})
	return out, err
}
