// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type testModule struct{}

func (testModule) Module() string { return "test" }

type Bonded struct {
	testModule
	Amount uint64
}

type Chilled struct {
	testModule
}

func TestName(t *testing.T) {
	assert.Equal(t, "Bonded", Name(Bonded{Amount: 1}))
	assert.Equal(t, "Chilled", Name(&Chilled{}))
	assert.Equal(t, "test.Bonded{testModule:{} Amount:7}", String(Bonded{Amount: 7}))
}

func TestRecorder(t *testing.T) {
	var r Recorder

	r.Emit(Bonded{Amount: 1})
	mark := r.Mark()
	r.Emit(Chilled{})
	r.Emit(Bonded{Amount: 2})

	assert.Equal(t, []Event{Chilled{}, Bonded{Amount: 2}}, r.Since(mark))

	r.RevertTo(mark)
	assert.Equal(t, 1, r.Len())
	assert.Nil(t, r.Since(mark))

	// reverting forward is a no-op
	r.RevertTo(5)
	assert.Equal(t, 1, r.Len())

	assert.Equal(t, []Event{Bonded{Amount: 1}}, r.Drain())
	assert.Equal(t, 0, r.Len())
}
