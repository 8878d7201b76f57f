// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"encoding/binary"
	"io"
	"sort"

	"github.com/pkg/errors"

	"github.com/darwinia-network/darwinia-go/darwinia"
	"github.com/darwinia-network/darwinia-go/kv"
)

// Stage abstracts the final changes of a state.
type Stage struct {
	keys    []string
	changes map[string][]byte
	cache   *Cache
}

func newStage(changes map[string][]byte, c *Cache) *Stage {
	keys := make([]string, 0, len(changes))
	for k := range changes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return &Stage{keys: keys, changes: changes, cache: c}
}

// Len returns the count of changed keys.
func (s *Stage) Len() int {
	return len(s.keys)
}

// Hash computes a digest over all changes ordered by key.
func (s *Stage) Hash() darwinia.Bytes32 {
	return darwinia.Blake2bFn(func(w io.Writer) {
		var buf []byte
		for _, k := range s.keys {
			v := s.changes[k]
			buf = binary.BigEndian.AppendUint32(buf[:0], uint32(len(k)))
			buf = append(buf, k...)
			buf = binary.BigEndian.AppendUint32(buf, uint32(len(v)))
			buf = append(buf, v...)
			w.Write(buf)
		}
	})
}

// Commit writes all changes through the bulk and flushes it.
// The cache is updated only after the bulk is written.
func (s *Stage) Commit(bulk kv.Bulk) error {
	for _, k := range s.keys {
		var err error
		if v := s.changes[k]; len(v) == 0 {
			err = bulk.Delete([]byte(k))
		} else {
			err = bulk.Put([]byte(k), v)
		}
		if err != nil {
			return errors.Wrap(err, "stage")
		}
	}
	if err := bulk.Write(); err != nil {
		return errors.Wrap(err, "commit state")
	}
	if s.cache != nil {
		for _, k := range s.keys {
			s.cache.Add(k, s.changes[k])
		}
	}
	metricStateWrites().Add(int64(len(s.keys)))
	return nil
}
