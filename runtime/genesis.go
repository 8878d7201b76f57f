// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package runtime

import (
	"github.com/pkg/errors"

	"github.com/darwinia-network/darwinia-go/currency"
	"github.com/darwinia-network/darwinia-go/darwinia"
	"github.com/darwinia-network/darwinia-go/feemarket"
	"github.com/darwinia-network/darwinia-go/staking"
	"github.com/darwinia-network/darwinia-go/state"
)

// GenesisAccount is an endowed account.
type GenesisAccount struct {
	Account darwinia.AccountID
	Ring    darwinia.Balance
	Kton    darwinia.Balance
}

// GenesisStaker is bonded at genesis. It validates when Validator is set
// and nominates Targets otherwise.
type GenesisStaker struct {
	Stash      darwinia.AccountID
	Controller darwinia.AccountID
	Ring       darwinia.Balance
	Kton       darwinia.Balance
	Validator  bool
	Commission darwinia.Perbill
	Targets    []darwinia.AccountID
}

// GenesisConfig is the initial state of the chain.
type GenesisConfig struct {
	Timestamp darwinia.Moment
	Accounts  []GenesisAccount
	Stakers   []GenesisStaker
	Staking   staking.Genesis
}

// Genesis builds block 0 from g and commits it. Stakers must be endowed by
// g.Accounts.
func (r *Runtime) Genesis(g GenesisConfig) (*Result, error) {
	if _, ok, err := r.Head(); err != nil {
		return nil, err
	} else if ok {
		return nil, errors.New("already initialized")
	}

	e := newEnv(state.New(r.states, r.cache), r.cfg, BlockContext{Number: 0, Timestamp: g.Timestamp})
	for _, acc := range g.Accounts {
		if _, err := e.Ring.DepositCreating(acc.Account, acc.Ring); err != nil {
			return nil, errors.Wrap(err, "endow ring")
		}
		if _, err := e.Kton.DepositCreating(acc.Account, acc.Kton); err != nil {
			return nil, errors.Wrap(err, "endow kton")
		}
	}
	// module pots are kept alive so that any amount can be paid into them
	for _, pot := range []darwinia.AccountID{feemarket.FundAccount(), feemarket.TreasuryAccount()} {
		if err := endowMinimum(e.Ring, pot); err != nil {
			return nil, err
		}
	}

	if err := e.Staking.InitGenesis(g.Staking); err != nil {
		return nil, errors.Wrap(err, "staking genesis")
	}
	var initial []darwinia.AccountID
	for i, s := range g.Stakers {
		if err := e.bondStaker(s); err != nil {
			return nil, errors.Wrapf(err, "staker #%d %v", i, s.Stash)
		}
		if s.Validator {
			initial = append(initial, s.Stash)
		}
	}
	if err := e.Session.InitGenesis(initial); err != nil {
		return nil, errors.Wrap(err, "session genesis")
	}
	if err := e.finalize(); err != nil {
		return nil, errors.Wrap(err, "finalize genesis")
	}

	res, err := r.commit(e, Head{})
	if err != nil {
		return nil, err
	}
	logger.Info("genesis built", "accounts", len(g.Accounts), "stakers", len(g.Stakers), "validators", len(initial), "hash", res.Hash)
	return res, nil
}

func endowMinimum(c *currency.Currency, who darwinia.AccountID) error {
	total, err := c.TotalBalance(who)
	if err != nil {
		return err
	}
	if total >= c.MinimumBalance() {
		return nil
	}
	_, err = c.DepositCreating(who, c.MinimumBalance()-total)
	return err
}

func (e *Env) bondStaker(s GenesisStaker) error {
	stash := darwinia.Signed(s.Stash)
	first, extra := staking.RingBalance(s.Ring), staking.KtonBalance(s.Kton)
	if s.Ring == 0 {
		first, extra = extra, first
	}
	if err := e.Staking.Bond(stash, s.Controller, first, staking.Staked(), 0); err != nil {
		return errors.Wrap(err, "bond")
	}
	if extra.Amount > 0 {
		if err := e.Staking.BondExtra(stash, extra, 0); err != nil {
			return errors.Wrap(err, "bond extra")
		}
	}

	controller := darwinia.Signed(s.Controller)
	if s.Validator {
		return errors.Wrap(e.Staking.Validate(controller, staking.ValidatorPrefs{Commission: s.Commission}), "validate")
	}
	if len(s.Targets) == 0 {
		return nil
	}
	return errors.Wrap(e.Staking.Nominate(controller, s.Targets), "nominate")
}
