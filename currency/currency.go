// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package currency implements the balances of one fungible asset. The runtime
// runs two independent instances of it, Ring and Kton.
package currency

import (
	"slices"

	"github.com/pkg/errors"

	"github.com/darwinia-network/darwinia-go/darwinia"
	"github.com/darwinia-network/darwinia-go/event"
	"github.com/darwinia-network/darwinia-go/log"
	"github.com/darwinia-network/darwinia-go/state"
	"github.com/darwinia-network/darwinia-go/storage"
)

var logger = log.WithContext("pkg", "currency")

// Currency is the balances module of one asset instance.
type Currency struct {
	name     instance
	ed       darwinia.Balance
	clock    darwinia.Clock
	events   event.Emitter
	accounts *storage.Mapping[darwinia.AccountID, AccountData]
	locks    *storage.Mapping[darwinia.AccountID, []BalanceLock]
	issuance *storage.Value[darwinia.Balance]
}

// New creates the currency named name (e.g. "ring") over st.
func New(st *state.State, name string, existentialDeposit darwinia.Balance, clock darwinia.Clock, events event.Emitter) *Currency {
	ctx := storage.NewContext(st, name)
	return &Currency{
		name:     instance(name),
		ed:       existentialDeposit,
		clock:    clock,
		events:   events,
		accounts: storage.NewMapping[darwinia.AccountID, AccountData](ctx, "Account"),
		locks:    storage.NewMapping[darwinia.AccountID, []BalanceLock](ctx, "Locks"),
		issuance: storage.NewValue[darwinia.Balance](ctx, "TotalIssuance"),
	}
}

// Name returns the instance name.
func (c *Currency) Name() string { return string(c.name) }

// MinimumBalance returns the existential deposit.
func (c *Currency) MinimumBalance() darwinia.Balance { return c.ed }

func (c *Currency) TotalIssuance() (darwinia.Balance, error) {
	return c.issuance.Get()
}

func (c *Currency) Account(who darwinia.AccountID) (AccountData, error) {
	return c.accounts.Get(who)
}

func (c *Currency) FreeBalance(who darwinia.AccountID) (darwinia.Balance, error) {
	acc, err := c.accounts.Get(who)
	return acc.Free, err
}

func (c *Currency) ReservedBalance(who darwinia.AccountID) (darwinia.Balance, error) {
	acc, err := c.accounts.Get(who)
	return acc.Reserved, err
}

func (c *Currency) TotalBalance(who darwinia.AccountID) (darwinia.Balance, error) {
	acc, err := c.accounts.Get(who)
	return acc.Total(), err
}

func (c *Currency) Locks(who darwinia.AccountID) ([]BalanceLock, error) {
	return c.locks.Get(who)
}

// frozen returns the largest amount any lock matching reasons holds.
func (c *Currency) frozen(who darwinia.AccountID, reasons Reasons) (darwinia.Balance, error) {
	locks, err := c.locks.Get(who)
	if err != nil {
		return 0, err
	}
	bn := c.clock.BlockNumber()
	var frozen darwinia.Balance
	for i := range locks {
		if locks[i].Reasons&reasons != 0 {
			frozen = max(frozen, locks[i].LockFor.LockedAmount(bn))
		}
	}
	return frozen, nil
}

// UsableBalance returns the free balance not held by any lock.
func (c *Currency) UsableBalance(who darwinia.AccountID) (darwinia.Balance, error) {
	acc, err := c.accounts.Get(who)
	if err != nil {
		return 0, err
	}
	frozen, err := c.frozen(who, ReasonsAll)
	if err != nil {
		return 0, err
	}
	return darwinia.SaturatingSub(acc.Free, frozen), nil
}

// EnsureCanWithdraw checks that who may bring its free balance down to newBalance
// by withdrawing amount for reasons. It never mutates state.
func (c *Currency) EnsureCanWithdraw(who darwinia.AccountID, amount darwinia.Balance, reasons Reasons, newBalance darwinia.Balance) error {
	if amount == 0 {
		return nil
	}
	frozen, err := c.frozen(who, reasons)
	if err != nil {
		return err
	}
	if newBalance < frozen {
		return ErrLiquidityRestrictions
	}
	return nil
}

// setAccount writes acc, reaping the account if its total falls below the
// existential deposit and it holds no lock. Dust is burned.
func (c *Currency) setAccount(who darwinia.AccountID, acc AccountData) error {
	total := acc.Total()
	if total == 0 || total < c.ed {
		hasLocks, err := c.locks.Has(who)
		if err != nil {
			return err
		}
		if total == 0 || !hasLocks {
			return c.reap(who, total)
		}
	}
	return c.accounts.Set(who, acc)
}

func (c *Currency) reap(who darwinia.AccountID, dust darwinia.Balance) error {
	c.accounts.Delete(who)
	c.locks.Delete(who)
	if dust > 0 {
		if err := c.issuance.Mutate(func(i *darwinia.Balance) error {
			*i = darwinia.SaturatingSub(*i, dust)
			return nil
		}); err != nil {
			return err
		}
		c.events.Emit(DustLost{c.name, who, dust})
		logger.Debug("account reaped", "currency", c.name, "who", who, "dust", dust)
	}
	return nil
}

func (c *Currency) addIssuance(amount darwinia.Balance) error {
	return c.issuance.Mutate(func(i *darwinia.Balance) error {
		*i = darwinia.SaturatingAdd(*i, amount)
		return nil
	})
}

// Transfer moves value from the free balance of from to to.
func (c *Currency) Transfer(from, to darwinia.AccountID, value darwinia.Balance, req ExistenceRequirement) error {
	if value == 0 || from == to {
		return nil
	}
	fromAcc, err := c.accounts.Get(from)
	if err != nil {
		return err
	}
	newFrom, ok := darwinia.CheckedSub(fromAcc.Free, value)
	if !ok {
		return ErrInsufficientBalance
	}
	toAcc, err := c.accounts.Get(to)
	if err != nil {
		return err
	}
	newTo := toAcc.Free + value
	if newTo < toAcc.Free {
		return ErrOverflow
	}
	if toAcc.Total() == 0 && value < c.ed {
		return ErrExistentialDeposit
	}
	if err := c.EnsureCanWithdraw(from, value, ReasonTransfer, newFrom); err != nil {
		return err
	}
	if req == KeepAlive && newFrom+fromAcc.Reserved < c.ed {
		return ErrKeepAlive
	}

	fromAcc.Free = newFrom
	if err := c.setAccount(from, fromAcc); err != nil {
		return err
	}
	if toAcc.Total() == 0 {
		c.events.Emit(Endowed{c.name, to, value})
	}
	toAcc.Free = newTo
	if err := c.accounts.Set(to, toAcc); err != nil {
		return err
	}
	c.events.Emit(Transfer{c.name, from, to, value})
	return nil
}

// DepositCreating mints value into who, creating the account if needed.
// Nothing is minted if the account does not exist and value is below the
// existential deposit. It returns the amount minted.
func (c *Currency) DepositCreating(who darwinia.AccountID, value darwinia.Balance) (darwinia.Balance, error) {
	if value == 0 {
		return 0, nil
	}
	acc, err := c.accounts.Get(who)
	if err != nil {
		return 0, err
	}
	if acc.Total() == 0 {
		if value < c.ed {
			return 0, nil
		}
		c.events.Emit(Endowed{c.name, who, value})
	}
	acc.Free = darwinia.SaturatingAdd(acc.Free, value)
	if err := c.accounts.Set(who, acc); err != nil {
		return 0, err
	}
	return value, c.addIssuance(value)
}

// DepositIntoExisting mints value into an existing account.
func (c *Currency) DepositIntoExisting(who darwinia.AccountID, value darwinia.Balance) (darwinia.Balance, error) {
	if value == 0 {
		return 0, nil
	}
	acc, err := c.accounts.Get(who)
	if err != nil {
		return 0, err
	}
	if acc.Total() == 0 {
		return 0, ErrDeadAccount
	}
	if acc.Free+value < acc.Free {
		return 0, ErrOverflow
	}
	acc.Free += value
	if err := c.accounts.Set(who, acc); err != nil {
		return 0, err
	}
	return value, c.addIssuance(value)
}

// Withdraw burns value from the free balance of who.
func (c *Currency) Withdraw(who darwinia.AccountID, value darwinia.Balance, reasons Reasons, req ExistenceRequirement) error {
	if value == 0 {
		return nil
	}
	acc, err := c.accounts.Get(who)
	if err != nil {
		return err
	}
	newFree, ok := darwinia.CheckedSub(acc.Free, value)
	if !ok {
		return ErrInsufficientBalance
	}
	if req == KeepAlive && newFree+acc.Reserved < c.ed {
		return ErrKeepAlive
	}
	if err := c.EnsureCanWithdraw(who, value, reasons, newFree); err != nil {
		return err
	}
	acc.Free = newFree
	if err := c.setAccount(who, acc); err != nil {
		return err
	}
	return c.issuance.Mutate(func(i *darwinia.Balance) error {
		*i = darwinia.SaturatingSub(*i, value)
		return nil
	})
}

// Slash burns up to value from who, free balance first, then reserved,
// ignoring locks. It returns the amount slashed and the amount that could not be.
func (c *Currency) Slash(who darwinia.AccountID, value darwinia.Balance) (slashed, missing darwinia.Balance, err error) {
	if value == 0 {
		return 0, 0, nil
	}
	acc, err := c.accounts.Get(who)
	if err != nil {
		return 0, 0, err
	}
	fromFree := min(acc.Free, value)
	acc.Free -= fromFree
	fromReserved := min(acc.Reserved, value-fromFree)
	acc.Reserved -= fromReserved
	slashed = fromFree + fromReserved

	if err := c.setAccount(who, acc); err != nil {
		return 0, 0, err
	}
	if err := c.issuance.Mutate(func(i *darwinia.Balance) error {
		*i = darwinia.SaturatingSub(*i, slashed)
		return nil
	}); err != nil {
		return 0, 0, err
	}
	if slashed > 0 {
		c.events.Emit(Slashed{c.name, who, slashed})
	}
	return slashed, value - slashed, nil
}

// Reserve moves value from free to reserved.
func (c *Currency) Reserve(who darwinia.AccountID, value darwinia.Balance) error {
	if value == 0 {
		return nil
	}
	acc, err := c.accounts.Get(who)
	if err != nil {
		return err
	}
	newFree, ok := darwinia.CheckedSub(acc.Free, value)
	if !ok {
		return ErrInsufficientBalance
	}
	if err := c.EnsureCanWithdraw(who, value, ReasonReserve, newFree); err != nil {
		return err
	}
	acc.Free = newFree
	acc.Reserved += value
	if err := c.accounts.Set(who, acc); err != nil {
		return err
	}
	c.events.Emit(Reserved{c.name, who, value})
	return nil
}

// Unreserve moves up to value from reserved back to free and returns the
// amount that could not be unreserved.
func (c *Currency) Unreserve(who darwinia.AccountID, value darwinia.Balance) (darwinia.Balance, error) {
	if value == 0 {
		return 0, nil
	}
	acc, err := c.accounts.Get(who)
	if err != nil {
		return 0, err
	}
	actual := min(acc.Reserved, value)
	acc.Reserved -= actual
	acc.Free = darwinia.SaturatingAdd(acc.Free, actual)
	if err := c.accounts.Set(who, acc); err != nil {
		return 0, err
	}
	if actual > 0 {
		c.events.Emit(Unreserved{c.name, who, actual})
	}
	return value - actual, nil
}

// SetLock creates or replaces the lock id on who. A common lock of zero
// amount or a lock without reasons removes the lock. Staking locks are kept
// even when empty.
func (c *Currency) SetLock(id darwinia.ModuleID, who darwinia.AccountID, lockFor LockFor, reasons Reasons) error {
	if (lockFor.Kind == LockCommon && lockFor.Amount == 0) || reasons == 0 {
		return c.RemoveLock(id, who)
	}
	return c.locks.Mutate(who, func(locks *[]BalanceLock) error {
		lock := BalanceLock{ID: id, LockFor: lockFor, Reasons: reasons}
		if i := slices.IndexFunc(*locks, func(l BalanceLock) bool { return l.ID == id }); i >= 0 {
			(*locks)[i] = lock
		} else {
			*locks = append(*locks, lock)
		}
		return nil
	})
}

// RemoveLock drops the lock id from who.
func (c *Currency) RemoveLock(id darwinia.ModuleID, who darwinia.AccountID) error {
	locks, err := c.locks.Get(who)
	if err != nil {
		return err
	}
	kept := slices.DeleteFunc(locks, func(l BalanceLock) bool { return l.ID == id })
	if len(kept) == 0 {
		c.locks.Delete(who)
		return nil
	}
	return c.locks.Set(who, kept)
}

// Lock returns the lock id on who, if any.
func (c *Currency) Lock(id darwinia.ModuleID, who darwinia.AccountID) (BalanceLock, bool, error) {
	locks, err := c.locks.Get(who)
	if err != nil {
		return BalanceLock{}, false, err
	}
	for _, l := range locks {
		if l.ID == id {
			return l, true, nil
		}
	}
	return BalanceLock{}, false, nil
}

// Issue mints amount out of thin air into issuance, returning it for the
// caller to credit. Burn does the reverse.
func (c *Currency) Issue(amount darwinia.Balance) (darwinia.Balance, error) {
	return amount, c.addIssuance(amount)
}

func (c *Currency) Burn(amount darwinia.Balance) error {
	return c.issuance.Mutate(func(i *darwinia.Balance) error {
		if *i < amount {
			return errors.New("burn more than issuance")
		}
		*i -= amount
		return nil
	})
}
