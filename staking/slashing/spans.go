// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package slashing tracks the slashing spans of a stash. A span is a run of
// eras between two slashes; within a span only the largest slash counts.
package slashing

import (
	"github.com/darwinia-network/darwinia-go/darwinia"
)

// Span is one slashing span. Length is zero for the current, open span.
type Span struct {
	Index  darwinia.SpanIndex
	Start  darwinia.EraIndex
	Length darwinia.EraIndex
}

// ContainsEra tells whether era falls into the span.
func (s Span) ContainsEra(era darwinia.EraIndex) bool {
	return s.Start <= era && (s.Length == 0 || era < s.Start+s.Length)
}

// Spans is the span history of a stash.
type Spans struct {
	SpanIndex        darwinia.SpanIndex
	LastStart        darwinia.EraIndex
	LastNonzeroSlash darwinia.EraIndex
	// Prior holds the lengths of the closed spans, most recent first.
	Prior []darwinia.EraIndex
}

// New opens the first span at windowStart.
func New(windowStart darwinia.EraIndex) *Spans {
	return &Spans{LastStart: windowStart}
}

// EndSpan closes the current span at now, the next one starting at now+1.
// It returns false if the current span started after now.
func (s *Spans) EndSpan(now darwinia.EraIndex) bool {
	nextStart := now + 1
	if nextStart <= s.LastStart {
		return false
	}
	s.Prior = append([]darwinia.EraIndex{nextStart - s.LastStart}, s.Prior...)
	s.LastStart = nextStart
	s.SpanIndex++
	return true
}

// All returns the spans, the current one first.
func (s *Spans) All() []Span {
	out := make([]Span, 0, len(s.Prior)+1)
	out = append(out, Span{Index: s.SpanIndex, Start: s.LastStart})
	start, index := s.LastStart, s.SpanIndex
	for _, length := range s.Prior {
		start -= length
		index--
		out = append(out, Span{Index: index, Start: start, Length: length})
	}
	return out
}

// EraSpan returns the span era falls into.
func (s *Spans) EraSpan(era darwinia.EraIndex) (Span, bool) {
	for _, span := range s.All() {
		if span.ContainsEra(era) {
			return span, true
		}
	}
	return Span{}, false
}

// NoteSlash records a nonzero slash in era.
func (s *Spans) NoteSlash(era darwinia.EraIndex) {
	s.LastNonzeroSlash = max(s.LastNonzeroSlash, era)
}

// Prune drops the closed spans that ended at or before windowStart. It
// returns the removed span index range [from, to).
func (s *Spans) Prune(windowStart darwinia.EraIndex) (from, to darwinia.SpanIndex, pruned bool) {
	spans := s.All()
	for i, span := range spans[1:] {
		if span.Start+span.Length <= windowStart {
			earliest := s.SpanIndex - darwinia.SpanIndex(len(s.Prior))
			s.Prior = s.Prior[:i]
			from, to, pruned = earliest, s.SpanIndex-darwinia.SpanIndex(len(s.Prior)), true
			break
		}
	}
	s.LastStart = max(s.LastStart, windowStart)
	return
}

// SpanRecord is the slash taken and the reward paid out within a span.
type SpanRecord struct {
	SlashedRing darwinia.Balance
	SlashedKton darwinia.Balance
	PaidOutRing darwinia.Balance
	PaidOutKton darwinia.Balance
}
