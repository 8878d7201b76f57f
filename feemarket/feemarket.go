// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package feemarket prices cross-chain messages. Relayers enroll with
// locked collateral and a fee, every message is assigned to the three
// cheapest relayers and rewards are split once its delivery is confirmed.
package feemarket

import (
	"slices"

	"github.com/pkg/errors"

	"github.com/darwinia-network/darwinia-go/currency"
	"github.com/darwinia-network/darwinia-go/darwinia"
	"github.com/darwinia-network/darwinia-go/event"
	"github.com/darwinia-network/darwinia-go/log"
	"github.com/darwinia-network/darwinia-go/metrics"
	"github.com/darwinia-network/darwinia-go/state"
	"github.com/darwinia-network/darwinia-go/storage"
)

var (
	logger = log.WithContext("pkg", "feemarket")

	metricEnrolled      = metrics.LazyLoadGauge("feemarket_enrolled_relayers")
	metricMarketFee     = metrics.LazyLoadGauge("feemarket_market_fee")
	metricOrders        = metrics.LazyLoadCounterVec("feemarket_order_count", []string{"event"})
	metricSlashedAmount = metrics.LazyLoadCounter("feemarket_slashed_amount")
)

// Config holds the market parameters.
type Config struct {
	MinimumLockCollateral darwinia.Balance
	MinimumRelayFee       darwinia.Balance
	CollateralPerOrder    darwinia.Balance
	// SlotTimes are the lengths in blocks of the consecutive delivery slots
	// of the assigned relayers.
	SlotTimes [AssignedRelayersNumber]darwinia.BlockNumber

	ForAssignedRelayers darwinia.Permill
	ForMessageRelayer   darwinia.Permill
	ForConfirmRelayer   darwinia.Permill
	// SlashPerBlock is taken from each assigned relayer per block of delay
	// after the last slot.
	SlashPerBlock darwinia.Balance
}

// FeeMarket is the fee market module.
type FeeMarket struct {
	cfg      Config
	currency *currency.Currency
	clock    darwinia.Clock
	events   event.Emitter

	relayers           *storage.List
	relayersMap        *storage.Mapping[darwinia.AccountID, Relayer]
	occupied           *storage.Mapping[darwinia.AccountID, darwinia.Balance]
	assignedRelayers   *storage.Value[[]Relayer]
	orders             *storage.DoubleMapping[darwinia.LaneID, darwinia.MessageNonce, Order]
	confirmedThisBlock *storage.Value[[]OrderKey]
}

// New creates the fee market over st, collecting fees in cur.
func New(st *state.State, cfg Config, cur *currency.Currency, clock darwinia.Clock, events event.Emitter) *FeeMarket {
	ctx := storage.NewContext(st, "FeeMarket")
	return &FeeMarket{
		cfg:      cfg,
		currency: cur,
		clock:    clock,
		events:   events,

		relayers:           storage.NewList(ctx, "Relayers"),
		relayersMap:        storage.NewMapping[darwinia.AccountID, Relayer](ctx, "RelayersMap"),
		occupied:           storage.NewMapping[darwinia.AccountID, darwinia.Balance](ctx, "Occupied"),
		assignedRelayers:   storage.NewValue[[]Relayer](ctx, "AssignedRelayers"),
		orders:             storage.NewDoubleMapping[darwinia.LaneID, darwinia.MessageNonce, Order](ctx, "Orders"),
		confirmedThisBlock: storage.NewValue[[]OrderKey](ctx, "ConfirmedMessagesThisBlock"),
	}
}

// FundAccount holds message fees and slashed collateral until paid out.
func FundAccount() darwinia.AccountID { return darwinia.FeeMarketModuleID.Account() }

// TreasuryAccount receives what is not paid to relayers.
func TreasuryAccount() darwinia.AccountID { return darwinia.TreasuryModuleID.Account() }

// EnrollAndLockCollateral enrolls the caller with collateral locked. The
// fee defaults to the minimum relay fee.
func (m *FeeMarket) EnrollAndLockCollateral(origin darwinia.Origin, collateral darwinia.Balance, fee *darwinia.Balance) error {
	who, err := origin.EnsureSigned()
	if err != nil {
		return err
	}
	if ok, err := m.relayersMap.Has(who); err != nil {
		return err
	} else if ok {
		return ErrAlreadyEnrolled
	}
	free, err := m.currency.FreeBalance(who)
	if err != nil {
		return err
	}
	if free < collateral {
		return ErrInsufficientBalance
	}
	if collateral < m.cfg.MinimumLockCollateral {
		return ErrLockCollateralTooLow
	}
	relayFee := m.cfg.MinimumRelayFee
	if fee != nil {
		if *fee < m.cfg.MinimumRelayFee {
			return ErrRelayFeeTooLow
		}
		relayFee = *fee
	}

	if err := m.lock(who, collateral); err != nil {
		return err
	}
	if err := m.relayers.Add(who); err != nil {
		return err
	}
	if err := m.relayersMap.Set(who, Relayer{ID: who, Collateral: collateral, Fee: relayFee}); err != nil {
		return err
	}
	if err := m.updateMarket(); err != nil {
		return err
	}
	logger.Debug("relayer enrolled", "who", who, "collateral", collateral, "fee", relayFee)
	m.events.Emit(Enroll{Who: who, Collateral: collateral, Fee: relayFee})
	return nil
}

// UpdateLockedCollateral sets the collateral of an enrolled caller. It
// cannot go below what its unconfirmed orders occupy.
func (m *FeeMarket) UpdateLockedCollateral(origin darwinia.Origin, collateral darwinia.Balance) error {
	who, err := origin.EnsureSigned()
	if err != nil {
		return err
	}
	r, ok, err := m.relayersMap.Lookup(who)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotEnrolled
	}
	free, err := m.currency.FreeBalance(who)
	if err != nil {
		return err
	}
	if free < collateral {
		return ErrInsufficientBalance
	}
	if collateral < r.Collateral {
		occupied, err := m.occupied.Get(who)
		if err != nil {
			return err
		}
		if collateral < occupied {
			return ErrStillHasOrdersNotConfirmed
		}
	}

	if err := m.setCollateral(r, collateral); err != nil {
		return err
	}
	m.events.Emit(UpdateLockedCollateral{Who: who, Collateral: collateral})
	return nil
}

// UpdateRelayFee sets the fee of an enrolled caller.
func (m *FeeMarket) UpdateRelayFee(origin darwinia.Origin, fee darwinia.Balance) error {
	who, err := origin.EnsureSigned()
	if err != nil {
		return err
	}
	if fee < m.cfg.MinimumRelayFee {
		return ErrRelayFeeTooLow
	}
	r, ok, err := m.relayersMap.Lookup(who)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotEnrolled
	}
	r.Fee = fee
	if err := m.relayersMap.Set(who, r); err != nil {
		return err
	}
	if err := m.updateMarket(); err != nil {
		return err
	}
	m.events.Emit(UpdateRelayFee{Who: who, Fee: fee})
	return nil
}

// CancelEnrollment removes the caller from the market and unlocks its
// collateral. It fails while the caller has unconfirmed orders.
func (m *FeeMarket) CancelEnrollment(origin darwinia.Origin) error {
	who, err := origin.EnsureSigned()
	if err != nil {
		return err
	}
	if ok, err := m.relayersMap.Has(who); err != nil {
		return err
	} else if !ok {
		return ErrNotEnrolled
	}
	occupied, err := m.occupied.Get(who)
	if err != nil {
		return err
	}
	if occupied > 0 {
		return ErrOccupiedRelayer
	}

	if err := m.currency.RemoveLock(darwinia.FeeMarketLockID, who); err != nil {
		return err
	}
	if _, err := m.relayers.Remove(who); err != nil {
		return err
	}
	m.relayersMap.Delete(who)
	if err := m.updateMarket(); err != nil {
		return err
	}
	logger.Debug("relayer left", "who", who)
	m.events.Emit(CancelEnrollment{Who: who})
	return nil
}

func (m *FeeMarket) lock(who darwinia.AccountID, collateral darwinia.Balance) error {
	return m.currency.SetLock(darwinia.FeeMarketLockID, who, currency.Common(collateral), currency.ReasonsAll)
}

func (m *FeeMarket) setCollateral(r Relayer, collateral darwinia.Balance) error {
	if err := m.lock(r.ID, collateral); err != nil {
		return err
	}
	r.Collateral = collateral
	if err := m.relayersMap.Set(r.ID, r); err != nil {
		return err
	}
	return m.updateMarket()
}

// usableCapacity is the number of further orders r has collateral for.
func (m *FeeMarket) usableCapacity(r Relayer) (darwinia.Balance, error) {
	occupied, err := m.occupied.Get(r.ID)
	if err != nil {
		return 0, err
	}
	if m.cfg.CollateralPerOrder == 0 {
		return 1, nil
	}
	return darwinia.SaturatingSub(r.Collateral, occupied) / m.cfg.CollateralPerOrder, nil
}

// updateMarket reassigns the market to the three cheapest relayers with
// order capacity left. With fewer than three the market is closed.
func (m *FeeMarket) updateMarket() error {
	ids, err := m.relayers.All()
	if err != nil {
		return err
	}
	all := make([]Relayer, 0, len(ids))
	for _, id := range ids {
		r, err := m.relayersMap.Get(id)
		if err != nil {
			return errors.Wrap(err, "get relayer")
		}
		all = append(all, r)
	}
	slices.SortStableFunc(all, compareRelayers)

	assigned := make([]Relayer, 0, AssignedRelayersNumber)
	for _, r := range all {
		capacity, err := m.usableCapacity(r)
		if err != nil {
			return err
		}
		if capacity >= 1 {
			assigned = append(assigned, r)
		}
		if len(assigned) == AssignedRelayersNumber {
			break
		}
	}

	metricEnrolled().Set(int64(len(ids)))
	if len(assigned) < AssignedRelayersNumber {
		m.assignedRelayers.Delete()
		metricMarketFee().Set(0)
		return nil
	}
	metricMarketFee().Set(int64(assigned[len(assigned)-1].Fee))
	return m.assignedRelayers.Set(assigned)
}

// AssignedRelayers returns the relayers new orders are assigned to.
func (m *FeeMarket) AssignedRelayers() ([]Relayer, bool, error) {
	return m.assignedRelayers.Lookup()
}

// MarketFee is the fee of the most expensive assigned relayer, the price
// of a message.
func (m *FeeMarket) MarketFee() (darwinia.Balance, bool, error) {
	assigned, ok, err := m.assignedRelayers.Lookup()
	if err != nil || !ok || len(assigned) == 0 {
		return 0, false, err
	}
	return assigned[len(assigned)-1].Fee, true, nil
}

// Relayer returns an enrolled relayer.
func (m *FeeMarket) Relayer(who darwinia.AccountID) (Relayer, bool, error) {
	return m.relayersMap.Lookup(who)
}

// Relayers returns the enrolled relayers in enrollment order.
func (m *FeeMarket) Relayers() ([]darwinia.AccountID, error) {
	return m.relayers.All()
}

// Occupied returns the collateral of who locked by unconfirmed orders.
func (m *FeeMarket) Occupied(who darwinia.AccountID) (darwinia.Balance, error) {
	return m.occupied.Get(who)
}

// Order returns the order of a message.
func (m *FeeMarket) Order(lane darwinia.LaneID, nonce darwinia.MessageNonce) (Order, bool, error) {
	return m.orders.Lookup(lane, nonce)
}
