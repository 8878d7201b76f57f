// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darwinia-network/darwinia-go/currency"
	"github.com/darwinia-network/darwinia-go/darwinia"
	"github.com/darwinia-network/darwinia-go/event"
	"github.com/darwinia-network/darwinia-go/lvldb"
	"github.com/darwinia-network/darwinia-go/staking/inflation"
	"github.com/darwinia-network/darwinia-go/state"
)

const coin = darwinia.Coin

type testClock struct {
	bn  darwinia.BlockNumber
	now darwinia.Moment
}

func (c *testClock) BlockNumber() darwinia.BlockNumber { return c.bn }
func (c *testClock) Now() darwinia.Moment              { return c.now }

type testSession struct {
	index      darwinia.SessionIndex
	validators []darwinia.AccountID
	disabled   []darwinia.AccountID
	prunedTo   darwinia.SessionIndex
	nextAt     darwinia.BlockNumber
	forceNew   bool
}

func (s *testSession) CurrentIndex() (darwinia.SessionIndex, error) { return s.index, nil }
func (s *testSession) Validators() ([]darwinia.AccountID, error)    { return s.validators, nil }
func (s *testSession) PruneHistoricalUpTo(up darwinia.SessionIndex) error {
	s.prunedTo = up
	return nil
}

func (s *testSession) DisableValidator(stash darwinia.AccountID) (bool, error) {
	s.disabled = append(s.disabled, stash)
	return s.forceNew, nil
}

func (s *testSession) EstimateNextNewSession(darwinia.BlockNumber) (darwinia.BlockNumber, bool) {
	return s.nextAt, s.nextAt != 0
}

type testEnv struct {
	*Staking
	ring    *currency.Currency
	kton    *currency.Currency
	clock   *testClock
	session *testSession
	events  *event.Recorder
}

var (
	stash1 = darwinia.NamedAccount("stash1")
	ctrl1  = darwinia.NamedAccount("ctrl1")
	stash2 = darwinia.NamedAccount("stash2")
	ctrl2  = darwinia.NamedAccount("ctrl2")
	stash3 = darwinia.NamedAccount("stash3")
	ctrl3  = darwinia.NamedAccount("ctrl3")
	nobody = darwinia.NamedAccount("nobody")
)

func testConfig() Config {
	return Config{
		SessionsPerEra:                   3,
		BondingDurationInEra:             2,
		BondingDurationInBlockNumber:     100,
		ElectionLookahead:                5,
		MaxNominatorRewardedPerValidator: 64,
		Cap:                              1_000_000_000 * coin,
		SlashRewardFraction:              darwinia.PerbillFromPercent(10),
	}
}

func newTestEnv(t *testing.T, cfg Config) *testEnv {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	st := state.New(db, nil)
	clock := &testClock{bn: 1, now: 1000}
	rec := &event.Recorder{}
	session := &testSession{}
	ring := currency.New(st, "ring", 10, clock, rec)
	kton := currency.New(st, "kton", 10, clock, rec)

	s := New(st, cfg, Deps{
		Ring:    ring,
		Kton:    kton,
		Clock:   clock,
		Events:  rec,
		Session: session,
	})
	require.NoError(t, s.InitGenesis(Genesis{
		HistoryDepth:          84,
		ValidatorCount:        2,
		MinimumValidatorCount: 1,
		PayoutFraction:        darwinia.PerbillFromPercent(50),
	}))
	return &testEnv{s, ring, kton, clock, session, rec}
}

func (e *testEnv) fund(t *testing.T, who darwinia.AccountID, ring, kton darwinia.Balance) {
	if ring > 0 {
		_, err := e.ring.DepositCreating(who, ring)
		require.NoError(t, err)
	}
	if kton > 0 {
		_, err := e.kton.DepositCreating(who, kton)
		require.NoError(t, err)
	}
}

func (e *testEnv) bond(t *testing.T, stash, ctrl darwinia.AccountID, ring darwinia.Balance, payee RewardDestination) {
	e.fund(t, stash, 2*ring, 0)
	require.NoError(t, e.Bond(darwinia.Signed(stash), ctrl, RingBalance(ring), payee, 0))
}

func (e *testEnv) ledger(t *testing.T, ctrl darwinia.AccountID) (active darwinia.Balance, unbondings []currency.Unbonding) {
	l, ok, err := e.Ledger(ctrl)
	require.NoError(t, err)
	require.True(t, ok)
	return l.ActiveRing, l.RingStakingLock.Unbondings
}

// checkLedgers asserts what every call leaves true of the ledgers of ctrls,
// which must be all the bonded controllers: the staking locks follow the
// active stake, the deposits fit in the active Ring and the pools add up.
func (e *testEnv) checkLedgers(t *testing.T, ctrls ...darwinia.AccountID) {
	t.Helper()
	var ring, kton darwinia.Balance
	for _, ctrl := range ctrls {
		l, ok, err := e.Ledger(ctrl)
		require.NoError(t, err)
		if !ok {
			continue
		}
		ring += l.ActiveRing
		kton += l.ActiveKton

		assert.Equal(t, l.ActiveRing, l.RingStakingLock.StakingAmount)
		assert.Equal(t, l.ActiveKton, l.KtonStakingLock.StakingAmount)
		assert.LessOrEqual(t, l.ActiveDepositRing, l.ActiveRing)
		var deposited darwinia.Balance
		for _, item := range l.DepositItems {
			deposited += item.Value
		}
		assert.LessOrEqual(t, deposited, l.ActiveDepositRing)

		for _, c := range []struct {
			cur  *currency.Currency
			lock currency.StakingLock
		}{{e.ring, l.RingStakingLock}, {e.kton, l.KtonStakingLock}} {
			held, ok, err := c.cur.Lock(darwinia.StakingLockID, l.Stash)
			require.NoError(t, err)
			var locked darwinia.Balance
			if ok {
				locked = held.LockFor.LockedAmount(e.clock.bn)
			}
			assert.Equal(t, c.lock.LockedAmount(e.clock.bn), locked, "%s lock of %v", c.cur.Name(), l.Stash)
		}
	}
	pool, err := e.RingPool()
	require.NoError(t, err)
	assert.Equal(t, ring, pool)
	pool, err = e.KtonPool()
	require.NoError(t, err)
	assert.Equal(t, kton, pool)
}

func (e *testEnv) free(t *testing.T, c *currency.Currency, who darwinia.AccountID) darwinia.Balance {
	b, err := c.FreeBalance(who)
	require.NoError(t, err)
	return b
}

// start runs the genesis sessions: era 0 is planned and started.
func (e *testEnv) start(t *testing.T) {
	_, _, err := e.NewSession(0)
	require.NoError(t, err)
	_, _, err = e.NewSession(1)
	require.NoError(t, err)
	require.NoError(t, e.StartSession(0))
	require.NoError(t, e.OnFinalize())
}

// rotate ends session i, starts session i+1 and plans session i+2, an hour
// later.
func (e *testEnv) rotate(t *testing.T, i darwinia.SessionIndex) {
	e.clock.bn += 10
	e.clock.now += 60 * 60 * 1000
	e.session.index = i + 1
	require.NoError(t, e.EndSession(i))
	require.NoError(t, e.StartSession(i+1))
	_, _, err := e.NewSession(i + 2)
	require.NoError(t, err)
	require.NoError(t, e.OnFinalize())
}

func TestBondUnbondWithdraw(t *testing.T) {
	e := newTestEnv(t, testConfig())
	e.fund(t, stash1, 2000*coin, 0)

	require.NoError(t, e.Bond(darwinia.Signed(stash1), ctrl1, RingBalance(1000*coin), Staked(), 0))
	e.checkLedgers(t, ctrl1)
	active, _ := e.ledger(t, ctrl1)
	assert.Equal(t, 1000*coin, active)
	pool, _ := e.RingPool()
	assert.Equal(t, 1000*coin, pool)
	usable, _ := e.ring.UsableBalance(stash1)
	assert.Equal(t, 1000*coin, usable)
	assert.Contains(t, e.events.Drain(), event.Event(BondRing{Stash: stash1, Amount: 1000 * coin, StartTime: 1000, ExpireTime: 1000}))

	require.NoError(t, e.Unbond(darwinia.Signed(ctrl1), RingBalance(1000*coin)))
	e.checkLedgers(t, ctrl1)
	active, unbondings := e.ledger(t, ctrl1)
	assert.Zero(t, active)
	assert.Equal(t, []currency.Unbonding{{Amount: 1000 * coin, Until: 101}}, unbondings)
	pool, _ = e.RingPool()
	assert.Zero(t, pool)
	usable, _ = e.ring.UsableBalance(stash1)
	assert.Equal(t, 1000*coin, usable, "unbonding stays locked")

	e.clock.bn = 100
	require.NoError(t, e.WithdrawUnbonded(darwinia.Signed(ctrl1)))
	e.checkLedgers(t, ctrl1)
	_, unbondings = e.ledger(t, ctrl1)
	assert.Len(t, unbondings, 1)

	e.events.Drain()
	e.clock.bn = 101
	require.NoError(t, e.WithdrawUnbonded(darwinia.Signed(ctrl1)))
	e.checkLedgers(t, ctrl1)
	_, unbondings = e.ledger(t, ctrl1)
	assert.Empty(t, unbondings)
	usable, _ = e.ring.UsableBalance(stash1)
	assert.Equal(t, 2000*coin, usable)
	assert.Contains(t, e.events.Drain(), event.Event(Withdrawn{Stash: stash1, Ring: 1000 * coin}))
}

func TestBondErrors(t *testing.T) {
	e := newTestEnv(t, testConfig())
	e.fund(t, stash1, 2000*coin, 0)
	e.fund(t, stash2, 2000*coin, 0)

	assert.ErrorIs(t, e.Bond(darwinia.Root(), ctrl1, RingBalance(coin), Staked(), 0), darwinia.ErrBadOrigin)
	assert.ErrorIs(t, e.Bond(darwinia.Signed(stash1), ctrl1, RingBalance(5), Staked(), 0), ErrInsufficientValue)
	assert.ErrorIs(t, e.Bond(darwinia.Signed(nobody), ctrl1, RingBalance(coin), Staked(), 0), ErrInsufficientBond,
		"nothing usable to bond")

	require.NoError(t, e.Bond(darwinia.Signed(stash1), ctrl1, RingBalance(coin), Staked(), 0))
	assert.ErrorIs(t, e.Bond(darwinia.Signed(stash1), ctrl2, RingBalance(coin), Staked(), 0), ErrAlreadyBonded)
	assert.ErrorIs(t, e.Bond(darwinia.Signed(stash2), ctrl1, RingBalance(coin), Staked(), 0), ErrAlreadyPaired)

	assert.ErrorIs(t, e.Unbond(darwinia.Signed(stash1), RingBalance(coin)), ErrNotController)
	assert.ErrorIs(t, e.BondExtra(darwinia.Signed(ctrl1), RingBalance(coin), 0), ErrNotStash)
	assert.ErrorIs(t, e.Rebond(darwinia.Signed(ctrl1), coin, 0), ErrNoUnlockChunk)
}

func TestBondMoreThanFreeTakesUsable(t *testing.T) {
	e := newTestEnv(t, testConfig())
	e.fund(t, stash1, 100*coin, 50*coin)

	require.NoError(t, e.Bond(darwinia.Signed(stash1), ctrl1, RingBalance(1000*coin), Staked(), 0))
	require.NoError(t, e.BondExtra(darwinia.Signed(stash1), KtonBalance(1000*coin), 0))
	e.checkLedgers(t, ctrl1)

	l, _, err := e.Ledger(ctrl1)
	require.NoError(t, err)
	assert.Equal(t, 100*coin, l.ActiveRing)
	assert.Equal(t, 50*coin, l.ActiveKton)
	kpool, _ := e.KtonPool()
	assert.Equal(t, 50*coin, kpool)
	usable, _ := e.kton.UsableBalance(stash1)
	assert.Zero(t, usable)
}

func TestRebond(t *testing.T) {
	e := newTestEnv(t, testConfig())
	e.bond(t, stash1, ctrl1, 1000*coin, Staked())

	require.NoError(t, e.Unbond(darwinia.Signed(ctrl1), RingBalance(300*coin)))
	e.checkLedgers(t, ctrl1)
	e.clock.bn = 5
	require.NoError(t, e.Unbond(darwinia.Signed(ctrl1), RingBalance(200*coin)))
	e.checkLedgers(t, ctrl1)

	require.NoError(t, e.Rebond(darwinia.Signed(ctrl1), 250*coin, 0))
	e.checkLedgers(t, ctrl1)
	active, unbondings := e.ledger(t, ctrl1)
	assert.Equal(t, 750*coin, active)
	assert.Equal(t, []currency.Unbonding{{Amount: 250 * coin, Until: 101}}, unbondings)
	pool, _ := e.RingPool()
	assert.Equal(t, 750*coin, pool)
}

func TestUnbondSweepsDust(t *testing.T) {
	e := newTestEnv(t, testConfig())
	e.bond(t, stash1, ctrl1, 1000, Staked())

	require.NoError(t, e.Unbond(darwinia.Signed(ctrl1), RingBalance(995)))
	e.checkLedgers(t, ctrl1)
	active, unbondings := e.ledger(t, ctrl1)
	assert.Zero(t, active)
	assert.Equal(t, []currency.Unbonding{{Amount: 995, Until: 101}, {Amount: 5, Until: 101}}, unbondings)
}

func TestUnbondChunkLimit(t *testing.T) {
	e := newTestEnv(t, testConfig())
	e.bond(t, stash1, ctrl1, 1000*coin, Staked())

	for i := 0; i < darwinia.MaxUnlockingChunks; i++ {
		require.NoError(t, e.Unbond(darwinia.Signed(ctrl1), RingBalance(coin)))
	}
	assert.ErrorIs(t, e.Unbond(darwinia.Signed(ctrl1), RingBalance(coin)), ErrNoMoreChunks)
}

func TestDepositAndEarlyClaim(t *testing.T) {
	e := newTestEnv(t, testConfig())
	value := 10_000 * coin
	e.fund(t, stash1, value, 0)

	require.NoError(t, e.Bond(darwinia.Signed(stash1), ctrl1, RingBalance(value), Staked(), 12))
	e.checkLedgers(t, ctrl1)
	bonus := e.free(t, e.kton, stash1)
	assert.NotZero(t, bonus)

	l, _, err := e.Ledger(ctrl1)
	require.NoError(t, err)
	require.Len(t, l.DepositItems, 1)
	expire := l.DepositItems[0].ExpireTime
	assert.Equal(t, darwinia.Moment(1000)+12*darwinia.MonthInMilliseconds, expire)
	assert.Equal(t, value, l.ActiveDepositRing)
	assert.Zero(t, l.ActiveNormalRing())

	require.NoError(t, e.Unbond(darwinia.Signed(ctrl1), RingBalance(value)))
	e.checkLedgers(t, ctrl1)
	active, _ := e.ledger(t, ctrl1)
	assert.Equal(t, value, active, "deposits can not be unbonded")

	e.clock.now += darwinia.MonthInMilliseconds + darwinia.MonthInMilliseconds/2
	penalty := inflation.EarlyClaimPenalty(value, 1000, expire, e.clock.now)
	require.Greater(t, penalty, bonus)

	// the bonus alone can't pay the penalty
	require.NoError(t, e.TryClaimDepositsWithPunish(darwinia.Signed(ctrl1), expire))
	e.checkLedgers(t, ctrl1)
	l, _, _ = e.Ledger(ctrl1)
	assert.Len(t, l.DepositItems, 1)
	assert.Equal(t, bonus, e.free(t, e.kton, stash1))

	e.fund(t, stash1, 0, 3*bonus)
	e.events.Drain()
	require.NoError(t, e.TryClaimDepositsWithPunish(darwinia.Signed(ctrl1), expire))
	e.checkLedgers(t, ctrl1)
	l, _, _ = e.Ledger(ctrl1)
	assert.Empty(t, l.DepositItems)
	assert.Zero(t, l.ActiveDepositRing)
	assert.Equal(t, value, l.ActiveNormalRing())
	assert.Equal(t, 4*bonus-penalty, e.free(t, e.kton, stash1))
	assert.Contains(t, e.events.Drain(), event.Event(DepositsClaimedWithPunish{Stash: stash1, Kton: penalty}))
}

func TestClaimMatureDeposits(t *testing.T) {
	e := newTestEnv(t, testConfig())
	e.fund(t, stash1, 1000*coin, 0)
	require.NoError(t, e.Bond(darwinia.Signed(stash1), ctrl1, RingBalance(1000*coin), Staked(), 3))

	e.clock.now += 3 * darwinia.MonthInMilliseconds
	require.NoError(t, e.ClaimMatureDeposits(darwinia.Signed(ctrl1)))
	e.checkLedgers(t, ctrl1)
	l, _, _ := e.Ledger(ctrl1)
	assert.Empty(t, l.DepositItems)
	assert.Equal(t, 1000*coin, l.ActiveNormalRing())
}

func TestDepositExtra(t *testing.T) {
	e := newTestEnv(t, testConfig())
	e.bond(t, stash1, ctrl1, 1000*coin, Staked())

	require.NoError(t, e.DepositExtra(darwinia.Signed(stash1), 400*coin, 1))
	e.checkLedgers(t, ctrl1)
	l, _, _ := e.Ledger(ctrl1)
	require.Len(t, l.DepositItems, 1)
	assert.Equal(t, 400*coin, l.ActiveDepositRing)
	assert.Equal(t, darwinia.Moment(1000)+3*darwinia.MonthInMilliseconds, l.DepositItems[0].ExpireTime, "at least three months")
	assert.NotZero(t, e.free(t, e.kton, stash1))
}

func TestIntentions(t *testing.T) {
	e := newTestEnv(t, testConfig())
	e.bond(t, stash1, ctrl1, 1000*coin, Staked())
	e.bond(t, stash2, ctrl2, 1000*coin, Staked())

	require.NoError(t, e.Validate(darwinia.Signed(ctrl1), ValidatorPrefs{Commission: darwinia.PerbillFromPercent(5)}))
	assert.ErrorIs(t, e.Nominate(darwinia.Signed(ctrl2), nil), ErrEmptyTargets)
	assert.ErrorIs(t, e.Nominate(darwinia.Signed(ctrl2), []darwinia.AccountID{nobody}), ErrBadTarget)
	require.NoError(t, e.Nominate(darwinia.Signed(ctrl2), []darwinia.AccountID{stash1, stash1}))

	validators, _ := e.Validators()
	assert.Equal(t, []darwinia.AccountID{stash1}, validators)
	n, ok, _ := e.Nominations(stash2)
	require.True(t, ok)
	assert.Equal(t, []darwinia.AccountID{stash1}, n.Targets)

	// a nominator turning validator stops nominating
	require.NoError(t, e.Validate(darwinia.Signed(ctrl2), ValidatorPrefs{}))
	nominators, _ := e.Nominators()
	assert.Empty(t, nominators)

	e.events.Drain()
	require.NoError(t, e.Chill(darwinia.Signed(ctrl1)))
	validators, _ = e.Validators()
	assert.Equal(t, []darwinia.AccountID{stash2}, validators)
	assert.Equal(t, []event.Event{Chilled{Stash: stash1}}, e.events.Drain())
}

func TestSetControllerAndReap(t *testing.T) {
	e := newTestEnv(t, testConfig())
	e.bond(t, stash1, ctrl1, 1000*coin, Staked())
	e.bond(t, stash2, ctrl2, 1000*coin, Staked())

	assert.ErrorIs(t, e.SetController(darwinia.Signed(stash1), ctrl2), ErrAlreadyPaired)
	require.NoError(t, e.SetController(darwinia.Signed(stash1), ctrl3))
	_, ok, _ := e.Ledger(ctrl1)
	assert.False(t, ok)
	active, _ := e.ledger(t, ctrl3)
	assert.Equal(t, 1000*coin, active)

	assert.ErrorIs(t, e.ReapStash(darwinia.Signed(nobody), stash1), ErrFundedTarget)
	require.NoError(t, e.ForceUnstake(darwinia.Root(), stash1))
	_, ok, _ = e.Bonded(stash1)
	assert.False(t, ok)
	pool, _ := e.RingPool()
	assert.Equal(t, 1000*coin, pool)
	_, ok, _ = e.ring.Lock(darwinia.StakingLockID, stash1)
	assert.False(t, ok)
}

func TestAdminCalls(t *testing.T) {
	e := newTestEnv(t, testConfig())

	assert.ErrorIs(t, e.SetValidatorCount(darwinia.Signed(nobody), 10), darwinia.ErrBadOrigin)
	require.NoError(t, e.SetValidatorCount(darwinia.Root(), 10))
	require.NoError(t, e.IncreaseValidatorCount(darwinia.Root(), 5))
	require.NoError(t, e.ScaleValidatorCount(darwinia.Root(), darwinia.Percent(20)))
	count, _ := e.ValidatorCount()
	assert.Equal(t, uint32(18), count)

	require.NoError(t, e.ForceNewEraAlways(darwinia.Root()))
	f, _ := e.ForceEra()
	assert.Equal(t, ForceAlways, f)
	require.NoError(t, e.ForceNoEras(darwinia.Root()))
	f, _ = e.ForceEra()
	assert.Equal(t, ForceNone, f)

	require.NoError(t, e.SetInvulnerables(darwinia.Root(), []darwinia.AccountID{stash1}))
	inv, _ := e.Invulnerables()
	assert.Equal(t, []darwinia.AccountID{stash1}, inv)
}

func TestEraRotation(t *testing.T) {
	e := newTestEnv(t, testConfig())
	e.bond(t, stash1, ctrl1, 1000*coin, Staked())
	require.NoError(t, e.Validate(darwinia.Signed(ctrl1), ValidatorPrefs{}))

	e.start(t)
	active, ok, _ := e.ActiveEra()
	require.True(t, ok)
	assert.Equal(t, ActiveEraInfo{Index: 0, Started: true, Start: 1000}, active)
	elected, _ := e.ErasElected(0)
	assert.Equal(t, []darwinia.AccountID{stash1}, elected)

	for i := darwinia.SessionIndex(0); i < 3; i++ {
		e.rotate(t, i)
	}
	active, _, _ = e.ActiveEra()
	assert.Equal(t, darwinia.EraIndex(1), active.Index)
	start, _, _ := e.ErasStartSessionIndex(1)
	assert.Equal(t, darwinia.SessionIndex(3), start)

	reward, ok, _ := e.ErasValidatorReward(0)
	require.True(t, ok)
	assert.NotZero(t, reward)
	assert.Equal(t, reward, e.free(t, e.ring, e.AccountID()))
	living, _ := e.LivingTime()
	assert.Equal(t, darwinia.Moment(3*60*60*1000), living)
}

func TestEraStartedAtMomentZero(t *testing.T) {
	e := newTestEnv(t, testConfig())
	e.clock.now = 0
	e.bond(t, stash1, ctrl1, 1000*coin, Staked())
	require.NoError(t, e.Validate(darwinia.Signed(ctrl1), ValidatorPrefs{}))

	e.start(t)
	active, _, _ := e.ActiveEra()
	assert.Equal(t, ActiveEraInfo{Index: 0, Started: true, Start: 0}, active)

	for i := darwinia.SessionIndex(0); i < 3; i++ {
		e.rotate(t, i)
	}
	reward, ok, _ := e.ErasValidatorReward(0)
	require.True(t, ok)
	assert.NotZero(t, reward)
	living, _ := e.LivingTime()
	assert.Equal(t, darwinia.Moment(3*60*60*1000), living)
}

func TestEraOfSession(t *testing.T) {
	e := newTestEnv(t, testConfig())
	e.bond(t, stash1, ctrl1, 1000*coin, Staked())
	require.NoError(t, e.Validate(darwinia.Signed(ctrl1), ValidatorPrefs{}))
	e.start(t)
	for i := darwinia.SessionIndex(0); i < 9; i++ {
		e.rotate(t, i)
	}
	active, _, _ := e.ActiveEra()
	require.Equal(t, darwinia.EraIndex(3), active.Index)

	for session, want := range map[darwinia.SessionIndex]darwinia.EraIndex{10: 3, 9: 3, 8: 2, 6: 2, 4: 1, 3: 1} {
		era, ok, err := e.EraOfSession(session)
		require.NoError(t, err)
		require.True(t, ok, "session %d", session)
		assert.Equal(t, want, era, "session %d", session)
	}
	// era 0 left the bonding window
	_, ok, err := e.EraOfSession(2)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestForcedEra(t *testing.T) {
	e := newTestEnv(t, testConfig())
	e.bond(t, stash1, ctrl1, 1000*coin, Staked())
	require.NoError(t, e.Validate(darwinia.Signed(ctrl1), ValidatorPrefs{}))
	e.start(t)

	require.NoError(t, e.ForceNewEra(darwinia.Root()))
	e.rotate(t, 0)
	era, _, _ := e.CurrentEra()
	assert.Equal(t, darwinia.EraIndex(1), era)
	f, _ := e.ForceEra()
	assert.Equal(t, NotForcing, f)

	require.NoError(t, e.ForceNoEras(darwinia.Root()))
	for i := darwinia.SessionIndex(1); i < 8; i++ {
		e.rotate(t, i)
	}
	era, _, _ = e.CurrentEra()
	assert.Equal(t, darwinia.EraIndex(1), era)
}

func TestPayoutStakers(t *testing.T) {
	e := newTestEnv(t, testConfig())
	e.bond(t, stash1, ctrl1, 1000*coin, ToStash())
	e.bond(t, stash2, ctrl2, 1000*coin, Staked())
	require.NoError(t, e.Validate(darwinia.Signed(ctrl1), ValidatorPrefs{}))
	require.NoError(t, e.Nominate(darwinia.Signed(ctrl2), []darwinia.AccountID{stash1}))
	require.NoError(t, e.SetValidatorCount(darwinia.Root(), 1))

	e.start(t)
	exposure, _ := e.ErasStakersClipped(0, stash1)
	assert.Equal(t, exposure.OwnPower, exposure.Others[0].Power)
	assert.Equal(t, 1000*coin, exposure.Others[0].RingBalance)

	require.NoError(t, e.NoteAuthor(stash1))
	for i := darwinia.SessionIndex(0); i < 3; i++ {
		e.rotate(t, i)
	}
	reward, _, _ := e.ErasValidatorReward(0)
	require.NotZero(t, reward)
	// rounding headroom for the pot
	e.fund(t, e.AccountID(), coin, 0)

	before := e.free(t, e.ring, stash1)
	require.NoError(t, e.PayoutStakers(darwinia.Signed(nobody), stash1, 0))
	e.checkLedgers(t, ctrl1, ctrl2)
	half := darwinia.Balance(darwinia.PerbillFromRational(1, 2).Mul(uint64(reward)))
	assert.Equal(t, before+half, e.free(t, e.ring, stash1))
	active, _ := e.ledger(t, ctrl2)
	assert.Equal(t, 1000*coin+half, active, "staked reward is bonded")

	assert.ErrorIs(t, e.PayoutStakers(darwinia.Signed(nobody), stash1, 0), ErrAlreadyClaimed)
	assert.ErrorIs(t, e.PayoutStakers(darwinia.Signed(nobody), stash1, 5), ErrInvalidEraToReward)
	assert.ErrorIs(t, e.PayoutStakers(darwinia.Signed(nobody), stash1, 1), ErrInvalidEraToReward, "not ended")
}

func TestPayoutToController(t *testing.T) {
	e := newTestEnv(t, testConfig())
	e.bond(t, stash1, ctrl1, 1000*coin, ToController())
	e.bond(t, stash2, ctrl2, 1000*coin, ToController())
	require.NoError(t, e.Validate(darwinia.Signed(ctrl1), ValidatorPrefs{}))
	require.NoError(t, e.Nominate(darwinia.Signed(ctrl2), []darwinia.AccountID{stash1}))
	require.NoError(t, e.SetValidatorCount(darwinia.Root(), 1))
	e.start(t)

	require.NoError(t, e.NoteAuthor(stash1))
	for i := darwinia.SessionIndex(0); i < 3; i++ {
		e.rotate(t, i)
	}
	reward, _, _ := e.ErasValidatorReward(0)
	require.NotZero(t, reward)
	e.fund(t, e.AccountID(), coin, 0)
	stashes := []darwinia.Balance{e.free(t, e.ring, stash1), e.free(t, e.ring, stash2)}

	require.NoError(t, e.PayoutStakers(darwinia.Signed(nobody), stash1, 0))
	e.checkLedgers(t, ctrl1, ctrl2)
	half := darwinia.Balance(darwinia.PerbillFromRational(1, 2).Mul(uint64(reward)))
	assert.Equal(t, half, e.free(t, e.ring, ctrl1))
	assert.Equal(t, half, e.free(t, e.ring, ctrl2))
	assert.Equal(t, stashes, []darwinia.Balance{e.free(t, e.ring, stash1), e.free(t, e.ring, stash2)})
	active, _ := e.ledger(t, ctrl2)
	assert.Equal(t, 1000*coin, active, "nothing is bonded")
}

func TestPayoutCommission(t *testing.T) {
	e := newTestEnv(t, testConfig())
	e.bond(t, stash1, ctrl1, 1000*coin, ToAccount(nobody))
	e.bond(t, stash2, ctrl2, 1000*coin, NoPayout())
	require.NoError(t, e.Validate(darwinia.Signed(ctrl1), ValidatorPrefs{Commission: darwinia.PerbillFromPercent(100)}))
	require.NoError(t, e.Nominate(darwinia.Signed(ctrl2), []darwinia.AccountID{stash1}))
	e.start(t)

	require.NoError(t, e.NoteAuthor(stash1))
	for i := darwinia.SessionIndex(0); i < 3; i++ {
		e.rotate(t, i)
	}
	reward, _, _ := e.ErasValidatorReward(0)
	before := e.free(t, e.ring, stash2)

	require.NoError(t, e.PayoutStakers(darwinia.Signed(nobody), stash1, 0))
	assert.Equal(t, reward, e.free(t, e.ring, nobody))
	assert.Equal(t, before, e.free(t, e.ring, stash2))
}

func TestNoteUncle(t *testing.T) {
	e := newTestEnv(t, testConfig())
	e.bond(t, stash1, ctrl1, 1000*coin, Staked())
	require.NoError(t, e.Validate(darwinia.Signed(ctrl1), ValidatorPrefs{}))
	e.start(t)

	require.NoError(t, e.NoteAuthor(stash2))
	require.NoError(t, e.NoteUncle(stash2, stash1))
	points, _ := e.ErasRewardPoints(0)
	assert.Equal(t, uint32(23), points.Total)
	assert.Equal(t, uint32(22), points.Of(stash2))
	assert.Equal(t, uint32(1), points.Of(stash1))
}

func TestElectionIsDeterministic(t *testing.T) {
	elect := func() ([]darwinia.AccountID, Exposure, Exposure) {
		e := newTestEnv(t, testConfig())
		e.bond(t, stash1, ctrl1, 1000*coin, Staked())
		e.bond(t, stash2, ctrl2, 300*coin, Staked())
		e.bond(t, stash3, ctrl3, 500*coin, Staked())
		require.NoError(t, e.Validate(darwinia.Signed(ctrl1), ValidatorPrefs{}))
		require.NoError(t, e.Validate(darwinia.Signed(ctrl2), ValidatorPrefs{}))
		require.NoError(t, e.Nominate(darwinia.Signed(ctrl3), []darwinia.AccountID{stash1, stash2}))
		e.start(t)

		elected, _ := e.ErasElected(0)
		a, _ := e.ErasStakers(0, stash1)
		b, _ := e.ErasStakers(0, stash2)
		return elected, a, b
	}

	elected, a, b := elect()
	assert.ElementsMatch(t, []darwinia.AccountID{stash1, stash2}, elected)
	total := a.TotalPower + b.TotalPower
	assert.InDelta(t, uint64(darwinia.TotalPower/2), uint64(total), 10)

	elected2, a2, b2 := elect()
	assert.Equal(t, elected, elected2)
	assert.Equal(t, a, a2)
	assert.Equal(t, b, b2)
}

func TestElectionFailureKeepsValidators(t *testing.T) {
	e := newTestEnv(t, testConfig())
	e.start(t)

	elected, _ := e.ErasElected(0)
	assert.Empty(t, elected)
	assert.Contains(t, e.events.Drain(), event.Event(StakingElectionFailed{}))
}
