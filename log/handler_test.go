// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"math/big"
	"strings"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stringer struct{ s string }

func (s stringer) String() string { return s.s }

func TestTerminalHandler(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(NewTerminalHandler(&buf, false)).With("pkg", "staking")

	l.Info("new era planned", "era", 3, "who", stringer{"0xabcd"}, "note", "two words")

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "INFO  ["), out)
	assert.Contains(t, out, "new era planned")
	assert.Contains(t, out, "pkg=staking")
	assert.Contains(t, out, "era=3")
	assert.Contains(t, out, "who=0xabcd")
	assert.Contains(t, out, `note="two words"`)
	assert.True(t, strings.HasSuffix(out, "\n"))
}

func TestTerminalHandlerLevel(t *testing.T) {
	var buf bytes.Buffer
	var lvl slog.LevelVar
	lvl.Set(slog.LevelWarn)
	l := NewLogger(NewTerminalHandlerWithLevel(&buf, &lvl, false))

	l.Info("hidden")
	assert.Empty(t, buf.String())
	l.Warn("shown")
	assert.Contains(t, buf.String(), "WARN")
}

func TestJSONHandlerRendersNumbers(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(JSONHandler(&buf))

	l.Info("payout", "big", big.NewInt(42), "u256", uint256.NewInt(7), "nilbig", (*big.Int)(nil))

	var m map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &m))
	assert.Equal(t, "42", m["big"])
	assert.Equal(t, "7", m["u256"])
	assert.Equal(t, "<nil>", m["nilbig"])
	assert.Equal(t, "info", m["lvl"])
}

func TestWithContextFollowsRoot(t *testing.T) {
	pkgLogger := WithContext("pkg", "feemarket")

	var buf bytes.Buffer
	prev := Root()
	SetDefault(NewLogger(LogfmtHandler(&buf)))
	defer SetDefault(prev)

	pkgLogger.Info("order created", "nonce", 1)
	assert.Contains(t, buf.String(), "pkg=feemarket")
	assert.Contains(t, buf.String(), "nonce=1")
}

func TestFromLegacyLevel(t *testing.T) {
	assert.Equal(t, LevelCrit, FromLegacyLevel(0))
	assert.Equal(t, slog.LevelInfo, FromLegacyLevel(3))
	assert.Equal(t, LevelTrace, FromLegacyLevel(9))
	assert.Equal(t, "debug", LevelString(slog.LevelDebug))
}
