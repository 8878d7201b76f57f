// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package currency

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darwinia-network/darwinia-go/darwinia"
	"github.com/darwinia-network/darwinia-go/event"
	"github.com/darwinia-network/darwinia-go/lvldb"
	"github.com/darwinia-network/darwinia-go/state"
)

type testClock struct {
	bn  darwinia.BlockNumber
	now darwinia.Moment
}

func (c *testClock) BlockNumber() darwinia.BlockNumber { return c.bn }
func (c *testClock) Now() darwinia.Moment              { return c.now }

var (
	alice = darwinia.NamedAccount("alice")
	bob   = darwinia.NamedAccount("bob")
	lock  = darwinia.NewModuleID("test/lck")
)

func newTestCurrency(t *testing.T) (*Currency, *testClock, *event.Recorder) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	clock := &testClock{bn: 1}
	rec := &event.Recorder{}
	return New(state.New(db, nil), "ring", 10, clock, rec), clock, rec
}

func balanceOf(t *testing.T, c *Currency, who darwinia.AccountID) darwinia.Balance {
	b, err := c.FreeBalance(who)
	require.NoError(t, err)
	return b
}

func TestDepositAndIssuance(t *testing.T) {
	c, _, rec := newTestCurrency(t)

	minted, err := c.DepositCreating(alice, 5)
	assert.NoError(t, err)
	assert.Equal(t, darwinia.Balance(0), minted, "below existential deposit")

	minted, err = c.DepositCreating(alice, 100)
	assert.NoError(t, err)
	assert.Equal(t, darwinia.Balance(100), minted)

	_, err = c.DepositIntoExisting(bob, 100)
	assert.ErrorIs(t, err, ErrDeadAccount)

	issuance, _ := c.TotalIssuance()
	assert.Equal(t, darwinia.Balance(100), issuance)
	assert.Equal(t, []event.Event{Endowed{"ring", alice, 100}}, rec.Drain())
}

func TestTransfer(t *testing.T) {
	c, _, _ := newTestCurrency(t)
	_, err := c.DepositCreating(alice, 100)
	require.NoError(t, err)

	assert.ErrorIs(t, c.Transfer(alice, bob, 5, AllowDeath), ErrExistentialDeposit)
	assert.ErrorIs(t, c.Transfer(alice, bob, 101, AllowDeath), ErrInsufficientBalance)
	assert.ErrorIs(t, c.Transfer(alice, bob, 95, KeepAlive), ErrKeepAlive)

	assert.NoError(t, c.Transfer(alice, bob, 50, KeepAlive))
	assert.Equal(t, darwinia.Balance(50), balanceOf(t, c, alice))
	assert.Equal(t, darwinia.Balance(50), balanceOf(t, c, bob))

	// leaves 5 dust which is reaped and burned
	assert.NoError(t, c.Transfer(alice, bob, 45, AllowDeath))
	assert.Equal(t, darwinia.Balance(0), balanceOf(t, c, alice))
	issuance, _ := c.TotalIssuance()
	assert.Equal(t, darwinia.Balance(95), issuance)
}

func TestLocks(t *testing.T) {
	c, clock, _ := newTestCurrency(t)
	_, err := c.DepositCreating(alice, 100)
	require.NoError(t, err)

	require.NoError(t, c.SetLock(lock, alice, Staking(StakingLock{
		StakingAmount: 30,
		Unbondings:    []Unbonding{{Amount: 20, Until: 10}},
	}), ReasonsAll))

	usable, _ := c.UsableBalance(alice)
	assert.Equal(t, darwinia.Balance(50), usable)
	assert.ErrorIs(t, c.Transfer(alice, bob, 60, AllowDeath), ErrLiquidityRestrictions)
	assert.ErrorIs(t, c.EnsureCanWithdraw(alice, 60, ReasonTransfer, 40), ErrLiquidityRestrictions)

	// unbonding matured
	clock.bn = 10
	usable, _ = c.UsableBalance(alice)
	assert.Equal(t, darwinia.Balance(70), usable)

	// a larger common lock dominates
	require.NoError(t, c.SetLock(darwinia.NewModuleID("other"), alice, Common(90), ReasonsAll))
	usable, _ = c.UsableBalance(alice)
	assert.Equal(t, darwinia.Balance(10), usable)

	// zero common lock removes it
	require.NoError(t, c.SetLock(darwinia.NewModuleID("other"), alice, Common(0), ReasonsAll))
	locks, _ := c.Locks(alice)
	assert.Len(t, locks, 1)

	// an empty staking lock is retained
	require.NoError(t, c.SetLock(lock, alice, Staking(StakingLock{}), ReasonsAll))
	_, ok, _ := c.Lock(lock, alice)
	assert.True(t, ok)

	require.NoError(t, c.RemoveLock(lock, alice))
	locks, _ = c.Locks(alice)
	assert.Empty(t, locks)
}

func TestSlashAndReserve(t *testing.T) {
	c, _, _ := newTestCurrency(t)
	_, err := c.DepositCreating(alice, 100)
	require.NoError(t, err)

	assert.ErrorIs(t, c.Reserve(alice, 200), ErrInsufficientBalance)
	require.NoError(t, c.Reserve(alice, 40))
	acc, _ := c.Account(alice)
	assert.Equal(t, AccountData{Free: 60, Reserved: 40}, acc)

	slashed, missing, err := c.Slash(alice, 80)
	assert.NoError(t, err)
	assert.Equal(t, darwinia.Balance(80), slashed)
	assert.Equal(t, darwinia.Balance(0), missing)
	acc, _ = c.Account(alice)
	assert.Equal(t, AccountData{Free: 0, Reserved: 20}, acc)

	left, err := c.Unreserve(alice, 30)
	assert.NoError(t, err)
	assert.Equal(t, darwinia.Balance(10), left)

	slashed, missing, _ = c.Slash(alice, 50)
	assert.Equal(t, darwinia.Balance(20), slashed)
	assert.Equal(t, darwinia.Balance(30), missing)

	issuance, _ := c.TotalIssuance()
	assert.Equal(t, darwinia.Balance(0), issuance)
}

func TestWithdrawAndImbalance(t *testing.T) {
	c, _, _ := newTestCurrency(t)
	_, err := c.DepositCreating(alice, 100)
	require.NoError(t, err)

	require.NoError(t, c.Withdraw(alice, 30, ReasonFee, KeepAlive))
	assert.Equal(t, darwinia.Balance(70), balanceOf(t, c, alice))

	treasury := DepositInto{Currency: c, Account: bob}
	require.NoError(t, treasury.OnUnbalanced(30))
	assert.Equal(t, darwinia.Balance(30), balanceOf(t, c, bob))

	issuance, _ := c.TotalIssuance()
	assert.Equal(t, darwinia.Balance(100), issuance)
}
