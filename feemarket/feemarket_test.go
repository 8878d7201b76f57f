// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package feemarket

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darwinia-network/darwinia-go/currency"
	"github.com/darwinia-network/darwinia-go/darwinia"
	"github.com/darwinia-network/darwinia-go/event"
	"github.com/darwinia-network/darwinia-go/lvldb"
	"github.com/darwinia-network/darwinia-go/state"
)

type testClock struct {
	bn darwinia.BlockNumber
}

func (c *testClock) BlockNumber() darwinia.BlockNumber { return c.bn }
func (c *testClock) Now() darwinia.Moment              { return darwinia.Moment(c.bn) * 6000 }

var (
	r1        = darwinia.NamedAccount("relayer1")
	r2        = darwinia.NamedAccount("relayer2")
	r3        = darwinia.NamedAccount("relayer3")
	r4        = darwinia.NamedAccount("relayer4")
	sender    = darwinia.NamedAccount("sender")
	deliverer = darwinia.NamedAccount("deliverer")
	confirmer = darwinia.NamedAccount("confirmer")

	lane = darwinia.LaneID{0, 0, 0, 1}
)

func testConfig() Config {
	return Config{
		MinimumLockCollateral: 100,
		MinimumRelayFee:       10,
		CollateralPerOrder:    100,
		SlotTimes:             [AssignedRelayersNumber]darwinia.BlockNumber{10, 10, 10},
		ForAssignedRelayers:   darwinia.PermillFromPercent(60),
		ForMessageRelayer:     darwinia.PermillFromPercent(80),
		ForConfirmRelayer:     darwinia.PermillFromPercent(20),
		SlashPerBlock:         2,
	}
}

type testEnv struct {
	*FeeMarket
	ring   *currency.Currency
	clock  *testClock
	events *event.Recorder
}

func newTestEnv(t *testing.T) *testEnv {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	st := state.New(db, nil)
	clock := &testClock{bn: 10}
	rec := &event.Recorder{}
	ring := currency.New(st, "ring", 1, clock, rec)
	for _, who := range []darwinia.AccountID{r1, r2, r3, r4, sender} {
		_, err := ring.DepositCreating(who, 1000)
		require.NoError(t, err)
	}
	_, err = ring.DepositCreating(FundAccount(), 100)
	require.NoError(t, err)

	return &testEnv{New(st, testConfig(), ring, clock, rec), ring, clock, rec}
}

func (e *testEnv) enroll(t *testing.T, who darwinia.AccountID, collateral, fee darwinia.Balance) {
	require.NoError(t, e.EnrollAndLockCollateral(darwinia.Signed(who), collateral, &fee))
}

func (e *testEnv) free(t *testing.T, who darwinia.AccountID) darwinia.Balance {
	b, err := e.ring.FreeBalance(who)
	require.NoError(t, err)
	return b
}

func (e *testEnv) assignedIDs(t *testing.T) []darwinia.AccountID {
	assigned, ok, err := e.AssignedRelayers()
	require.NoError(t, err)
	if !ok {
		return nil
	}
	ids := make([]darwinia.AccountID, 0, len(assigned))
	for _, r := range assigned {
		ids = append(ids, r.ID)
	}
	return ids
}

func (e *testEnv) confirm(t *testing.T, nonce darwinia.MessageNonce) {
	require.NoError(t, e.ConfirmDelivery(darwinia.Signed(confirmer), lane, nonce, nonce,
		[]MessageRelayer{{Relayer: deliverer, Begin: nonce, End: nonce}}))
}

func TestMarketAssignment(t *testing.T) {
	e := newTestEnv(t)

	e.enroll(t, r1, 100, 30)
	e.enroll(t, r2, 100, 40)
	_, ok, _ := e.MarketFee()
	assert.False(t, ok)

	e.enroll(t, r3, 100, 50)
	assert.Equal(t, []darwinia.AccountID{r1, r2, r3}, e.assignedIDs(t))
	fee, ok, _ := e.MarketFee()
	require.True(t, ok)
	assert.Equal(t, darwinia.Balance(50), fee)

	// cheaper relayers push out the most expensive one
	e.enroll(t, r4, 100, 20)
	assert.Equal(t, []darwinia.AccountID{r4, r1, r2}, e.assignedIDs(t))
	fee, _, _ = e.MarketFee()
	assert.Equal(t, darwinia.Balance(40), fee)

	// equal fees prefer more collateral
	require.NoError(t, e.UpdateRelayFee(darwinia.Signed(r3), 30))
	require.NoError(t, e.UpdateLockedCollateral(darwinia.Signed(r3), 200))
	assert.Equal(t, []darwinia.AccountID{r4, r3, r1}, e.assignedIDs(t))

	require.NoError(t, e.CancelEnrollment(darwinia.Signed(r4)))
	assert.Equal(t, []darwinia.AccountID{r3, r1, r2}, e.assignedIDs(t))
	_, ok, _ = e.ring.Lock(darwinia.FeeMarketLockID, r4)
	assert.False(t, ok)
	relayers, _ := e.Relayers()
	assert.Equal(t, []darwinia.AccountID{r1, r2, r3}, relayers)
}

func TestEnrollment(t *testing.T) {
	e := newTestEnv(t)

	assert.ErrorIs(t, e.EnrollAndLockCollateral(darwinia.Signed(r1), 1001, nil), ErrInsufficientBalance)
	assert.ErrorIs(t, e.EnrollAndLockCollateral(darwinia.Signed(r1), 99, nil), ErrLockCollateralTooLow)
	low := darwinia.Balance(9)
	assert.ErrorIs(t, e.EnrollAndLockCollateral(darwinia.Signed(r1), 100, &low), ErrRelayFeeTooLow)
	assert.ErrorIs(t, e.EnrollAndLockCollateral(darwinia.None(), 100, nil), darwinia.ErrBadOrigin)

	e.events.Drain()
	require.NoError(t, e.EnrollAndLockCollateral(darwinia.Signed(r1), 100, nil))
	assert.Equal(t, []event.Event{Enroll{Who: r1, Collateral: 100, Fee: 10}}, e.events.Drain())
	r, ok, _ := e.Relayer(r1)
	require.True(t, ok)
	assert.Equal(t, Relayer{ID: r1, Collateral: 100, Fee: 10}, r)
	lock, ok, _ := e.ring.Lock(darwinia.FeeMarketLockID, r1)
	require.True(t, ok)
	assert.Equal(t, darwinia.Balance(100), lock.LockFor.Amount)
	usable, _ := e.ring.UsableBalance(r1)
	assert.Equal(t, darwinia.Balance(900), usable)

	assert.ErrorIs(t, e.EnrollAndLockCollateral(darwinia.Signed(r1), 100, nil), ErrAlreadyEnrolled)
	assert.ErrorIs(t, e.UpdateRelayFee(darwinia.Signed(r2), 20), ErrNotEnrolled)
	assert.ErrorIs(t, e.UpdateRelayFee(darwinia.Signed(r1), 9), ErrRelayFeeTooLow)
	assert.ErrorIs(t, e.UpdateLockedCollateral(darwinia.Signed(r2), 200), ErrNotEnrolled)
	assert.ErrorIs(t, e.UpdateLockedCollateral(darwinia.Signed(r1), 2000), ErrInsufficientBalance)
	assert.ErrorIs(t, e.CancelEnrollment(darwinia.Signed(r2)), ErrNotEnrolled)

	require.NoError(t, e.UpdateLockedCollateral(darwinia.Signed(r1), 500))
	lock, _, _ = e.ring.Lock(darwinia.FeeMarketLockID, r1)
	assert.Equal(t, darwinia.Balance(500), lock.LockFor.Amount)
}

func TestAcceptMessage(t *testing.T) {
	e := newTestEnv(t)
	e.enroll(t, r1, 300, 30)
	e.enroll(t, r2, 300, 40)

	assert.ErrorIs(t, e.AcceptMessage(darwinia.Signed(sender), lane, 1, 100), ErrTooFewEnrolledRelayers)

	e.enroll(t, r3, 300, 50)
	assert.ErrorIs(t, e.AcceptMessage(darwinia.Signed(sender), lane, 1, 49), ErrInsufficientFee)

	e.events.Drain()
	require.NoError(t, e.AcceptMessage(darwinia.Signed(sender), lane, 1, 50))
	assert.Contains(t, e.events.Drain(), event.Event(OrderCreated{Lane: lane, Nonce: 1, Fee: 50, Assigned: []darwinia.AccountID{r1, r2, r3}}))
	assert.Equal(t, darwinia.Balance(950), e.free(t, sender))
	assert.Equal(t, darwinia.Balance(150), e.free(t, FundAccount()))

	order, ok, _ := e.Order(lane, 1)
	require.True(t, ok)
	assert.Equal(t, Order{
		Lane:       lane,
		Nonce:      1,
		Fee:        50,
		SentTime:   10,
		Collateral: 100,
		Relayers: []PriorRelayer{
			{ID: r1, Fee: 30, ValidFrom: 10, ValidTo: 20},
			{ID: r2, Fee: 40, ValidFrom: 20, ValidTo: 30},
			{ID: r3, Fee: 50, ValidFrom: 30, ValidTo: 40},
		},
	}, order)
	occupied, _ := e.Occupied(r2)
	assert.Equal(t, darwinia.Balance(100), occupied)

	assert.ErrorIs(t, e.AcceptMessage(darwinia.Signed(sender), lane, 1, 50), ErrOrderExists)
}

func TestCapacityAndOccupiedCollateral(t *testing.T) {
	e := newTestEnv(t)
	e.enroll(t, r1, 100, 30)
	e.enroll(t, r2, 100, 40)
	e.enroll(t, r3, 100, 50)
	e.enroll(t, r4, 100, 60)

	require.NoError(t, e.AcceptMessage(darwinia.Signed(sender), lane, 1, 50))
	// the three assigned relayers have no capacity left
	assert.Empty(t, e.assignedIDs(t))
	assert.ErrorIs(t, e.AcceptMessage(darwinia.Signed(sender), lane, 2, 100), ErrTooFewEnrolledRelayers)

	assert.ErrorIs(t, e.UpdateLockedCollateral(darwinia.Signed(r1), 99), ErrStillHasOrdersNotConfirmed)
	assert.ErrorIs(t, e.CancelEnrollment(darwinia.Signed(r1)), ErrOccupiedRelayer)
	require.NoError(t, e.UpdateLockedCollateral(darwinia.Signed(r1), 200))
	assert.Empty(t, e.assignedIDs(t))

	e.clock.bn = 12
	e.confirm(t, 1)
	assert.Equal(t, []darwinia.AccountID{r1, r2, r3}, e.assignedIDs(t))
	occupied, _ := e.Occupied(r1)
	assert.Zero(t, occupied)
	require.NoError(t, e.CancelEnrollment(darwinia.Signed(r1)))
}

func TestConfirmInFirstSlot(t *testing.T) {
	e := newTestEnv(t)
	e.enroll(t, r1, 300, 30)
	e.enroll(t, r2, 300, 40)
	e.enroll(t, r3, 300, 50)
	require.NoError(t, e.AcceptMessage(darwinia.Signed(sender), lane, 1, 50))

	e.clock.bn = 15
	e.events.Drain()
	e.confirm(t, 1)

	// slot share 60% of 30, the rest of the base fee 80/20 and the
	// difference to the paid fee plus rounding to the treasury
	assert.Contains(t, e.events.Drain(), event.Event(OrderReward{
		Lane:           lane,
		Nonce:          1,
		SlotRelayer:    r1,
		SlotReward:     18,
		MessageRelayer: deliverer,
		MessageReward:  9,
		ConfirmRelayer: confirmer,
		ConfirmReward:  2,
		TreasuryReward: 21,
	}))
	assert.Equal(t, darwinia.Balance(1018), e.free(t, r1))
	assert.Equal(t, darwinia.Balance(9), e.free(t, deliverer))
	assert.Equal(t, darwinia.Balance(2), e.free(t, confirmer))
	assert.Equal(t, darwinia.Balance(21), e.free(t, TreasuryAccount()))
	assert.Equal(t, darwinia.Balance(100), e.free(t, FundAccount()))

	order, ok, _ := e.Order(lane, 1)
	require.True(t, ok)
	assert.Equal(t, darwinia.BlockNumber(15), order.ConfirmTime)

	// a second proof of the same delivery changes nothing
	e.clock.bn = 16
	e.confirm(t, 1)
	assert.Empty(t, e.events.Drain())
	order, _, _ = e.Order(lane, 1)
	assert.Equal(t, darwinia.BlockNumber(15), order.ConfirmTime)

	require.NoError(t, e.OnFinalize())
	_, ok, _ = e.Order(lane, 1)
	assert.False(t, ok)
}

func TestConfirmInSecondSlot(t *testing.T) {
	e := newTestEnv(t)
	e.enroll(t, r1, 300, 30)
	e.enroll(t, r2, 300, 40)
	e.enroll(t, r3, 300, 50)
	require.NoError(t, e.AcceptMessage(darwinia.Signed(sender), lane, 1, 50))

	e.clock.bn = 25
	e.events.Drain()
	e.confirm(t, 1)
	assert.Contains(t, e.events.Drain(), event.Event(OrderReward{
		Lane:           lane,
		Nonce:          1,
		SlotRelayer:    r2,
		SlotReward:     24,
		MessageRelayer: deliverer,
		MessageReward:  12,
		ConfirmRelayer: confirmer,
		ConfirmReward:  3,
		TreasuryReward: 11,
	}))
	assert.Equal(t, darwinia.Balance(1000), e.free(t, r1))
	assert.Equal(t, darwinia.Balance(1024), e.free(t, r2))
}

func TestConfirmOutOfSlots(t *testing.T) {
	e := newTestEnv(t)
	e.enroll(t, r1, 300, 30)
	e.enroll(t, r2, 300, 40)
	e.enroll(t, r3, 300, 50)
	require.NoError(t, e.AcceptMessage(darwinia.Signed(sender), lane, 1, 50))

	// five blocks after the last slot
	e.clock.bn = 45
	e.events.Drain()
	e.confirm(t, 1)

	evs := e.events.Drain()
	for _, who := range []darwinia.AccountID{r1, r2, r3} {
		assert.Contains(t, evs, event.Event(RelayerSlashed{Who: who, Lane: lane, Nonce: 1, Amount: 10, Delay: 5}))
		assert.Equal(t, darwinia.Balance(990), e.free(t, who))
		r, _, _ := e.Relayer(who)
		assert.Equal(t, darwinia.Balance(290), r.Collateral)
		lock, _, _ := e.ring.Lock(darwinia.FeeMarketLockID, who)
		assert.Equal(t, darwinia.Balance(290), lock.LockFor.Amount)
	}
	assert.Contains(t, evs, event.Event(OrderReward{
		Lane:           lane,
		Nonce:          1,
		MessageRelayer: deliverer,
		MessageReward:  64,
		ConfirmRelayer: confirmer,
		ConfirmReward:  16,
	}))
	assert.Equal(t, darwinia.Balance(64), e.free(t, deliverer))
	assert.Equal(t, darwinia.Balance(16), e.free(t, confirmer))
	assert.Equal(t, darwinia.Balance(100), e.free(t, FundAccount()))
}

func TestConfirmWithoutMessageRelayer(t *testing.T) {
	e := newTestEnv(t)
	e.enroll(t, r1, 300, 30)
	e.enroll(t, r2, 300, 40)
	e.enroll(t, r3, 300, 50)
	require.NoError(t, e.AcceptMessage(darwinia.Signed(sender), lane, 1, 50))
	require.NoError(t, e.AcceptMessage(darwinia.Signed(sender), lane, 2, 50))

	assert.ErrorIs(t, e.ConfirmDelivery(darwinia.Signed(confirmer), lane, 2, 1, nil), ErrInvalidRange)

	e.clock.bn = 15
	require.NoError(t, e.ConfirmDelivery(darwinia.Signed(confirmer), lane, 1, 2,
		[]MessageRelayer{{Relayer: deliverer, Begin: 2, End: 5}}))
	// nonce 1 had no message relayer, its fee goes to the treasury
	assert.Equal(t, darwinia.Balance(21+50), e.free(t, TreasuryAccount()))
	assert.Equal(t, darwinia.Balance(100), e.free(t, FundAccount()))
}

func TestConfirmAtLargestNonce(t *testing.T) {
	e := newTestEnv(t)
	e.enroll(t, r1, 300, 30)
	e.enroll(t, r2, 300, 40)
	e.enroll(t, r3, 300, 50)
	last := darwinia.MessageNonce(math.MaxUint64)
	require.NoError(t, e.AcceptMessage(darwinia.Signed(sender), lane, last-1, 50))
	require.NoError(t, e.AcceptMessage(darwinia.Signed(sender), lane, last, 50))

	e.clock.bn = 15
	e.events.Drain()
	require.NoError(t, e.ConfirmDelivery(darwinia.Signed(confirmer), lane, last-1, last,
		[]MessageRelayer{{Relayer: deliverer, Begin: 0, End: last}}))
	assert.Contains(t, e.events.Drain(), event.Event(OrderReward{
		Lane:           lane,
		Nonce:          last,
		SlotRelayer:    r1,
		SlotReward:     18,
		MessageRelayer: deliverer,
		MessageReward:  9,
		ConfirmRelayer: confirmer,
		ConfirmReward:  2,
		TreasuryReward: 21,
	}))
	assert.Equal(t, darwinia.Balance(18), e.free(t, deliverer))
	for _, nonce := range []darwinia.MessageNonce{last - 1, last} {
		order, ok, err := e.Order(lane, nonce)
		require.NoError(t, err)
		require.True(t, ok)
		assert.True(t, order.IsConfirmed())
	}
}

func TestConfirmRangeBounded(t *testing.T) {
	e := newTestEnv(t)
	e.enroll(t, r1, 300, 30)
	e.enroll(t, r2, 300, 40)
	e.enroll(t, r3, 300, 50)
	require.NoError(t, e.AcceptMessage(darwinia.Signed(sender), lane, 1, 50))

	assert.ErrorIs(t, e.ConfirmDelivery(darwinia.Signed(confirmer), lane, 0, math.MaxUint64, nil), ErrTooManyMessages)
	assert.ErrorIs(t, e.ConfirmDelivery(darwinia.Signed(confirmer), lane, 1, MaxMessagesInConfirmation+1, nil), ErrTooManyMessages)
	order, _, _ := e.Order(lane, 1)
	assert.False(t, order.IsConfirmed())

	require.NoError(t, e.ConfirmDelivery(darwinia.Signed(confirmer), lane, 1, MaxMessagesInConfirmation, nil))
	order, _, _ = e.Order(lane, 1)
	assert.True(t, order.IsConfirmed())
}

func TestConfirmAtGenesisBlock(t *testing.T) {
	e := newTestEnv(t)
	e.clock.bn = 0
	e.enroll(t, r1, 300, 30)
	e.enroll(t, r2, 300, 40)
	e.enroll(t, r3, 300, 50)
	require.NoError(t, e.AcceptMessage(darwinia.Signed(sender), lane, 1, 50))

	e.events.Drain()
	e.confirm(t, 1)
	assert.NotEmpty(t, e.events.Drain())
	order, ok, _ := e.Order(lane, 1)
	require.True(t, ok)
	assert.True(t, order.IsConfirmed())
	assert.Equal(t, darwinia.BlockNumber(0), order.ConfirmTime)

	// already confirmed, a repeated proof pays nothing
	e.confirm(t, 1)
	assert.Empty(t, e.events.Drain())
	assert.Equal(t, darwinia.Balance(9), e.free(t, deliverer))
}
