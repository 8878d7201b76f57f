// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package offences

import (
	"encoding/binary"

	"github.com/darwinia-network/darwinia-go/darwinia"
)

// Kind is the kind of misbehaviour.
type Kind uint8

const (
	// Unresponsiveness is a validator missing a whole session.
	Unresponsiveness Kind = iota + 1
	// Equivocation is a validator producing two blocks in one slot.
	Equivocation
)

func (k Kind) String() string {
	switch k {
	case Unresponsiveness:
		return "unresponsiveness"
	case Equivocation:
		return "equivocation"
	default:
		return "unknown"
	}
}

func (k Kind) Bytes() []byte { return []byte{byte(k)} }

// TimeSlot orders offences of one kind. Unresponsiveness uses the session
// index, equivocation the block slot.
type TimeSlot uint64

func (t TimeSlot) Bytes() []byte { return binary.BigEndian.AppendUint64(nil, uint64(t)) }

// Offence is a report of misbehaviour by one or more validators.
type Offence struct {
	Kind     Kind
	TimeSlot TimeSlot
	// Session is the session the offence happened in.
	Session           darwinia.SessionIndex
	ValidatorSetCount uint32
	Offenders         []darwinia.AccountID
}

var unresponsivenessMax = darwinia.PerbillFromPercent(7)

// SlashFraction is the share of stake slashed when offenders validators out
// of the set misbehaved together.
func (o *Offence) SlashFraction(offenders uint32) darwinia.Perbill {
	n := uint64(o.ValidatorSetCount)
	k := uint64(offenders)
	switch o.Kind {
	case Unresponsiveness:
		// up to 10% of the set may go offline at no cost
		threshold := n/10 + 1
		if k <= threshold {
			return 0
		}
		x := darwinia.PerbillFromRational(3*(k-threshold), n)
		return x.MulPerbill(unresponsivenessMax)
	case Equivocation:
		return darwinia.PerbillFromRational(3*k, n).Square()
	default:
		return 0
	}
}

// Disabling reports whether offenders are disabled for the session.
func (o *Offence) Disabling(fraction darwinia.Perbill) bool {
	if o.Kind == Unresponsiveness {
		return !fraction.IsZero()
	}
	return true
}

// reportID identifies the report of one offender for one offence.
func reportID(kind Kind, slot TimeSlot, offender darwinia.AccountID) darwinia.Bytes32 {
	return darwinia.Blake2b(kind.Bytes(), slot.Bytes(), offender.Bytes())
}
