// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package offences records reported misbehaviour and hands slashes to the
// staking module.
package offences

import (
	"github.com/pkg/errors"

	"github.com/darwinia-network/darwinia-go/darwinia"
	"github.com/darwinia-network/darwinia-go/event"
	"github.com/darwinia-network/darwinia-go/log"
	"github.com/darwinia-network/darwinia-go/metrics"
	"github.com/darwinia-network/darwinia-go/reverts"
	"github.com/darwinia-network/darwinia-go/staking"
	"github.com/darwinia-network/darwinia-go/state"
	"github.com/darwinia-network/darwinia-go/storage"
)

const moduleName = "offences"

var (
	logger = log.WithContext("pkg", "offences")

	metricReports  = metrics.LazyLoadCounterVec("offences_report_count", []string{"kind"})
	metricDeferred = metrics.LazyLoadGauge("offences_deferred")
)

var (
	// ErrDuplicateReport is returned when every offender of a report was
	// already reported for the same kind and time slot.
	ErrDuplicateReport = reverts.New(moduleName, "DuplicateReport")
	ErrNoOffenders     = reverts.New(moduleName, "NoOffenders")
	ErrNoActiveEra     = reverts.New(moduleName, "NoActiveEra")
)

// Handler slashes offenders. It is implemented by staking.
type Handler interface {
	OnOffence(details []staking.OffenceDetails, fractions []darwinia.Perbill, session darwinia.SessionIndex, disabling bool) (bool, error)
	ActiveEra() (staking.ActiveEraInfo, bool, error)
	EraOfSession(session darwinia.SessionIndex) (darwinia.EraIndex, bool, error)
	ErasStakers(era darwinia.EraIndex, stash darwinia.AccountID) (staking.Exposure, error)
}

// Report is a stored report of one offender.
type Report struct {
	Offender  darwinia.AccountID
	Exposure  staking.Exposure
	Reporters []darwinia.AccountID
}

// DeferredOffence is a batch the handler could not process yet.
type DeferredOffence struct {
	Details   []staking.OffenceDetails
	Fractions []darwinia.Perbill
	Session   darwinia.SessionIndex
	Disabling bool
}

// OffenceEvent is emitted when an offence with new offenders is reported.
type OffenceEvent struct {
	Kind     Kind
	TimeSlot TimeSlot
	// Applied is false when the slash was deferred.
	Applied bool
}

func (OffenceEvent) Module() string { return moduleName }

// Offences is the offences module.
type Offences struct {
	handler Handler
	events  event.Emitter

	reports           *storage.Mapping[darwinia.Bytes32, Report]
	concurrentReports *storage.DoubleMapping[Kind, TimeSlot, []darwinia.Bytes32]
	deferred          *storage.Value[[]DeferredOffence]
}

// New creates the offences module over st.
func New(st *state.State, handler Handler, events event.Emitter) *Offences {
	ctx := storage.NewContext(st, "Offences")
	return &Offences{
		handler: handler,
		events:  events,

		reports:           storage.NewMapping[darwinia.Bytes32, Report](ctx, "Reports"),
		concurrentReports: storage.NewDoubleMapping[Kind, TimeSlot, []darwinia.Bytes32](ctx, "ConcurrentReportsIndex"),
		deferred:          storage.NewValue[[]DeferredOffence](ctx, "DeferredOffences"),
	}
}

// ReportOffence records o and slashes everyone reported for the same kind
// and time slot by the fraction the offender count now warrants. The
// handler only takes the difference to earlier slashes.
func (m *Offences) ReportOffence(reporters []darwinia.AccountID, o *Offence) error {
	if len(o.Offenders) == 0 {
		return ErrNoOffenders
	}

	if _, ok, err := m.handler.ActiveEra(); err != nil {
		return err
	} else if !ok {
		return ErrNoActiveEra
	}
	// exposure is taken at the era of the offence; sessions out of the
	// bonding window carry none and are discarded by the handler
	era, inWindow, err := m.handler.EraOfSession(o.Session)
	if err != nil {
		return err
	}

	var ids []darwinia.Bytes32
	if err := m.concurrentReports.Mutate(o.Kind, o.TimeSlot, func(index *[]darwinia.Bytes32) error {
		for _, offender := range o.Offenders {
			id := reportID(o.Kind, o.TimeSlot, offender)
			if ok, err := m.reports.Has(id); err != nil {
				return err
			} else if ok {
				continue
			}
			var exposure staking.Exposure
			if inWindow {
				if exposure, err = m.handler.ErasStakers(era, offender); err != nil {
					return err
				}
			}
			if err := m.reports.Set(id, Report{
				Offender:  offender,
				Exposure:  exposure,
				Reporters: reporters,
			}); err != nil {
				return err
			}
			*index = append(*index, id)
			ids = append(ids, id)
		}
		if len(ids) == 0 {
			return ErrDuplicateReport
		}
		ids = *index
		return nil
	}); err != nil {
		return err
	}

	details := make([]staking.OffenceDetails, 0, len(ids))
	for _, id := range ids {
		r, err := m.reports.Get(id)
		if err != nil {
			return err
		}
		details = append(details, staking.OffenceDetails{
			Offender:  r.Offender,
			Exposure:  r.Exposure,
			Reporters: r.Reporters,
		})
	}
	fraction := o.SlashFraction(uint32(len(details)))
	fractions := make([]darwinia.Perbill, len(details))
	for i := range fractions {
		fractions[i] = fraction
	}
	batch := DeferredOffence{
		Details:   details,
		Fractions: fractions,
		Session:   o.Session,
		Disabling: o.Disabling(fraction),
	}

	applied, err := m.handler.OnOffence(batch.Details, batch.Fractions, batch.Session, batch.Disabling)
	if err != nil {
		return errors.Wrap(err, "on offence")
	}
	if !applied {
		if err := m.deferred.Mutate(func(list *[]DeferredOffence) error {
			*list = append(*list, batch)
			metricDeferred().Set(int64(len(*list)))
			return nil
		}); err != nil {
			return err
		}
	}

	metricReports().AddWithLabel(1, map[string]string{"kind": o.Kind.String()})
	logger.Info("offence reported", "kind", o.Kind, "slot", o.TimeSlot, "offenders", len(details), "fraction", fraction, "applied", applied)
	m.events.Emit(OffenceEvent{Kind: o.Kind, TimeSlot: o.TimeSlot, Applied: applied})
	return nil
}

// OnInitialize retries the deferred batches, keeping those the handler
// still refuses.
func (m *Offences) OnInitialize(darwinia.BlockNumber) error {
	list, err := m.deferred.Get()
	if err != nil || len(list) == 0 {
		return err
	}
	var left []DeferredOffence
	for _, d := range list {
		applied, err := m.handler.OnOffence(d.Details, d.Fractions, d.Session, d.Disabling)
		if err != nil {
			return errors.Wrap(err, "on deferred offence")
		}
		if !applied {
			left = append(left, d)
		}
	}
	metricDeferred().Set(int64(len(left)))
	if len(left) == 0 {
		m.deferred.Delete()
		return nil
	}
	return m.deferred.Set(left)
}

// IsKnownOffence reports whether offender was reported for kind at slot.
func (m *Offences) IsKnownOffence(kind Kind, slot TimeSlot, offender darwinia.AccountID) (bool, error) {
	return m.reports.Has(reportID(kind, slot, offender))
}

// ConcurrentReports returns the offenders reported for kind at slot.
func (m *Offences) ConcurrentReports(kind Kind, slot TimeSlot) ([]Report, error) {
	ids, err := m.concurrentReports.Get(kind, slot)
	if err != nil {
		return nil, err
	}
	out := make([]Report, 0, len(ids))
	for _, id := range ids {
		r, err := m.reports.Get(id)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// DeferredOffences returns the batches waiting to be applied.
func (m *Offences) DeferredOffences() ([]DeferredOffence, error) {
	return m.deferred.Get()
}
