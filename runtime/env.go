// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package runtime

import (
	"github.com/darwinia-network/darwinia-go/currency"
	"github.com/darwinia-network/darwinia-go/darwinia"
	"github.com/darwinia-network/darwinia-go/event"
	"github.com/darwinia-network/darwinia-go/feemarket"
	"github.com/darwinia-network/darwinia-go/offences"
	"github.com/darwinia-network/darwinia-go/reverts"
	"github.com/darwinia-network/darwinia-go/session"
	"github.com/darwinia-network/darwinia-go/staking"
	"github.com/darwinia-network/darwinia-go/state"
	"github.com/darwinia-network/darwinia-go/storage"
)

// BlockContext is the height and time of the block being executed.
type BlockContext struct {
	Number    darwinia.BlockNumber
	Timestamp darwinia.Moment
}

func (c BlockContext) BlockNumber() darwinia.BlockNumber { return c.Number }
func (c BlockContext) Now() darwinia.Moment              { return c.Timestamp }

// Head is the last executed block.
type Head struct {
	Number    darwinia.BlockNumber
	Timestamp darwinia.Moment
	// Parent is the state hash of the block before.
	Parent darwinia.Bytes32
}

// Env binds every module to one state and one event recorder. It is the
// environment commands are dispatched in.
type Env struct {
	ctx    BlockContext
	state  *state.State
	events *event.Recorder
	head   *storage.Value[Head]

	Ring      *currency.Currency
	Kton      *currency.Currency
	Staking   *staking.Staking
	Session   *session.Session
	Offences  *offences.Offences
	FeeMarket *feemarket.FeeMarket
}

func newEnv(st *state.State, cfg Config, ctx BlockContext) *Env {
	e := &Env{
		ctx:    ctx,
		state:  st,
		events: &event.Recorder{},
		head:   storage.NewValue[Head](storage.NewContext(st, "System"), "Head"),
	}
	e.Ring = currency.New(st, "ring", cfg.RingExistentialDeposit, ctx, e.events)
	e.Kton = currency.New(st, "kton", cfg.KtonExistentialDeposit, ctx, e.events)

	treasury := darwinia.TreasuryModuleID.Account()
	e.Staking = staking.New(st, cfg.Staking, staking.Deps{
		Ring:                e.Ring,
		Kton:                e.Kton,
		Clock:               ctx,
		Events:              e.events,
		RingRewardRemainder: currency.DepositInto{Currency: e.Ring, Account: treasury},
		RingSlash:           currency.DepositInto{Currency: e.Ring, Account: treasury},
		KtonSlash:           currency.DepositInto{Currency: e.Kton, Account: treasury},
	})
	e.Session = session.New(st, cfg.Session, e.Staking, e.events)
	e.Staking.SetSession(e.Session)
	e.Offences = offences.New(st, e.Staking, e.events)
	e.FeeMarket = feemarket.New(st, cfg.FeeMarket, e.Ring, ctx, e.events)
	return e
}

// Context returns the block the env executes.
func (e *Env) Context() BlockContext { return e.ctx }

// Currency returns the currency of asset.
func (e *Env) Currency(asset staking.Asset) *currency.Currency {
	if asset == staking.AssetKton {
		return e.Kton
	}
	return e.Ring
}

// Apply dispatches cmd from origin. Either the command succeeds and its
// events are returned, or every change it made is reverted along with its
// events.
func (e *Env) Apply(origin darwinia.Origin, cmd Command) ([]event.Event, error) {
	revision := e.state.NewCheckpoint()
	mark := e.events.Mark()

	if err := cmd.Dispatch(e, origin); err != nil {
		e.state.RevertTo(revision)
		e.events.RevertTo(mark)

		outcome := "error"
		if reverts.IsRevertErr(err) {
			outcome = "revert"
		}
		metricCommands().AddWithLabel(1, map[string]string{"module": cmd.Module(), "outcome": outcome})
		return nil, err
	}
	metricCommands().AddWithLabel(1, map[string]string{"module": cmd.Module(), "outcome": "ok"})
	return e.events.Since(mark), nil
}

// Events returns every event recorded so far.
func (e *Env) Events() []event.Event {
	return e.events.Since(0)
}
