// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package runtime

import (
	"reflect"

	"github.com/darwinia-network/darwinia-go/currency"
	"github.com/darwinia-network/darwinia-go/darwinia"
	"github.com/darwinia-network/darwinia-go/feemarket"
	"github.com/darwinia-network/darwinia-go/offences"
	"github.com/darwinia-network/darwinia-go/staking"
)

// Command is a call to one module.
type Command interface {
	Module() string
	Dispatch(e *Env, origin darwinia.Origin) error
}

// Name returns the call name of cmd, e.g. "staking.Bond".
func Name(cmd Command) string {
	t := reflect.TypeOf(cmd)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return cmd.Module() + "." + t.Name()
}

// Extrinsic is a command with the origin it is dispatched from.
type Extrinsic struct {
	Origin  darwinia.Origin
	Command Command
}

type (
	balancesCall  struct{}
	stakingCall   struct{}
	offencesCall  struct{}
	feeMarketCall struct{}
)

func (balancesCall) Module() string  { return "balances" }
func (stakingCall) Module() string   { return "staking" }
func (offencesCall) Module() string  { return "offences" }
func (feeMarketCall) Module() string { return "feemarket" }

// Transfer moves Value of Asset from the signer to To.
type Transfer struct {
	balancesCall
	Asset     staking.Asset
	To        darwinia.AccountID
	Value     darwinia.Balance
	KeepAlive bool
}

func (c Transfer) Dispatch(e *Env, origin darwinia.Origin) error {
	from, err := origin.EnsureSigned()
	if err != nil {
		return err
	}
	req := currency.AllowDeath
	if c.KeepAlive {
		req = currency.KeepAlive
	}
	return e.Currency(c.Asset).Transfer(from, c.To, c.Value, req)
}

// staking calls

type Bond struct {
	stakingCall
	Controller   darwinia.AccountID
	Value        staking.StakingBalance
	Payee        staking.RewardDestination
	PromiseMonth uint8
}

func (c Bond) Dispatch(e *Env, origin darwinia.Origin) error {
	return e.Staking.Bond(origin, c.Controller, c.Value, c.Payee, c.PromiseMonth)
}

type BondExtra struct {
	stakingCall
	Value        staking.StakingBalance
	PromiseMonth uint8
}

func (c BondExtra) Dispatch(e *Env, origin darwinia.Origin) error {
	return e.Staking.BondExtra(origin, c.Value, c.PromiseMonth)
}

type DepositExtra struct {
	stakingCall
	Value        darwinia.Balance
	PromiseMonth uint8
}

func (c DepositExtra) Dispatch(e *Env, origin darwinia.Origin) error {
	return e.Staking.DepositExtra(origin, c.Value, c.PromiseMonth)
}

type Unbond struct {
	stakingCall
	Value staking.StakingBalance
}

func (c Unbond) Dispatch(e *Env, origin darwinia.Origin) error {
	return e.Staking.Unbond(origin, c.Value)
}

type Rebond struct {
	stakingCall
	Ring darwinia.Balance
	Kton darwinia.Balance
}

func (c Rebond) Dispatch(e *Env, origin darwinia.Origin) error {
	return e.Staking.Rebond(origin, c.Ring, c.Kton)
}

type WithdrawUnbonded struct{ stakingCall }

func (WithdrawUnbonded) Dispatch(e *Env, origin darwinia.Origin) error {
	return e.Staking.WithdrawUnbonded(origin)
}

type ClaimMatureDeposits struct{ stakingCall }

func (ClaimMatureDeposits) Dispatch(e *Env, origin darwinia.Origin) error {
	return e.Staking.ClaimMatureDeposits(origin)
}

type TryClaimDepositsWithPunish struct {
	stakingCall
	ExpireTime darwinia.Moment
}

func (c TryClaimDepositsWithPunish) Dispatch(e *Env, origin darwinia.Origin) error {
	return e.Staking.TryClaimDepositsWithPunish(origin, c.ExpireTime)
}

type Validate struct {
	stakingCall
	Prefs staking.ValidatorPrefs
}

func (c Validate) Dispatch(e *Env, origin darwinia.Origin) error {
	return e.Staking.Validate(origin, c.Prefs)
}

type Nominate struct {
	stakingCall
	Targets []darwinia.AccountID
}

func (c Nominate) Dispatch(e *Env, origin darwinia.Origin) error {
	return e.Staking.Nominate(origin, c.Targets)
}

type Chill struct{ stakingCall }

func (Chill) Dispatch(e *Env, origin darwinia.Origin) error {
	return e.Staking.Chill(origin)
}

type SetPayee struct {
	stakingCall
	Payee staking.RewardDestination
}

func (c SetPayee) Dispatch(e *Env, origin darwinia.Origin) error {
	return e.Staking.SetPayee(origin, c.Payee)
}

type SetController struct {
	stakingCall
	Controller darwinia.AccountID
}

func (c SetController) Dispatch(e *Env, origin darwinia.Origin) error {
	return e.Staking.SetController(origin, c.Controller)
}

type PayoutStakers struct {
	stakingCall
	Validator darwinia.AccountID
	Era       darwinia.EraIndex
}

func (c PayoutStakers) Dispatch(e *Env, origin darwinia.Origin) error {
	return e.Staking.PayoutStakers(origin, c.Validator, c.Era)
}

type ReapStash struct {
	stakingCall
	Stash darwinia.AccountID
}

func (c ReapStash) Dispatch(e *Env, origin darwinia.Origin) error {
	return e.Staking.ReapStash(origin, c.Stash)
}

type SubmitElectionSolution struct {
	stakingCall
	Solution *staking.Solution
}

func (c SubmitElectionSolution) Dispatch(e *Env, origin darwinia.Origin) error {
	return e.Staking.SubmitElectionSolution(origin, c.Solution)
}

// SubmitElectionSolutionUnsigned is queued by the off-chain worker.
type SubmitElectionSolutionUnsigned struct {
	stakingCall
	Solution       *staking.Solution
	ValidatorIndex uint32
}

func (c SubmitElectionSolutionUnsigned) Dispatch(e *Env, origin darwinia.Origin) error {
	return e.Staking.SubmitElectionSolutionUnsigned(origin, c.Solution, c.ValidatorIndex)
}

// root staking calls

type SetValidatorCount struct {
	stakingCall
	Count uint32
}

func (c SetValidatorCount) Dispatch(e *Env, origin darwinia.Origin) error {
	return e.Staking.SetValidatorCount(origin, c.Count)
}

type IncreaseValidatorCount struct {
	stakingCall
	Additional uint32
}

func (c IncreaseValidatorCount) Dispatch(e *Env, origin darwinia.Origin) error {
	return e.Staking.IncreaseValidatorCount(origin, c.Additional)
}

type ScaleValidatorCount struct {
	stakingCall
	Factor darwinia.Percent
}

func (c ScaleValidatorCount) Dispatch(e *Env, origin darwinia.Origin) error {
	return e.Staking.ScaleValidatorCount(origin, c.Factor)
}

type ForceNoEras struct{ stakingCall }

func (ForceNoEras) Dispatch(e *Env, origin darwinia.Origin) error {
	return e.Staking.ForceNoEras(origin)
}

type ForceNewEra struct{ stakingCall }

func (ForceNewEra) Dispatch(e *Env, origin darwinia.Origin) error {
	return e.Staking.ForceNewEra(origin)
}

type ForceNewEraAlways struct{ stakingCall }

func (ForceNewEraAlways) Dispatch(e *Env, origin darwinia.Origin) error {
	return e.Staking.ForceNewEraAlways(origin)
}

type SetInvulnerables struct {
	stakingCall
	Validators []darwinia.AccountID
}

func (c SetInvulnerables) Dispatch(e *Env, origin darwinia.Origin) error {
	return e.Staking.SetInvulnerables(origin, c.Validators)
}

type ForceUnstake struct {
	stakingCall
	Stash darwinia.AccountID
}

func (c ForceUnstake) Dispatch(e *Env, origin darwinia.Origin) error {
	return e.Staking.ForceUnstake(origin, c.Stash)
}

type CancelDeferredSlash struct {
	stakingCall
	Era     darwinia.EraIndex
	Indices []uint32
}

func (c CancelDeferredSlash) Dispatch(e *Env, origin darwinia.Origin) error {
	return e.Staking.CancelDeferredSlash(origin, c.Era, c.Indices)
}

type SetHistoryDepth struct {
	stakingCall
	Depth darwinia.EraIndex
}

func (c SetHistoryDepth) Dispatch(e *Env, origin darwinia.Origin) error {
	return e.Staking.SetHistoryDepth(origin, c.Depth)
}

type SetPayoutFraction struct {
	stakingCall
	Fraction darwinia.Perbill
}

func (c SetPayoutFraction) Dispatch(e *Env, origin darwinia.Origin) error {
	return e.Staking.SetPayoutFraction(origin, c.Fraction)
}

// ReportOffence reports offenders of one time slot. Only root may report.
type ReportOffence struct {
	offencesCall
	Reporters []darwinia.AccountID
	Offence   offences.Offence
}

func (c ReportOffence) Dispatch(e *Env, origin darwinia.Origin) error {
	if err := origin.EnsureRoot(); err != nil {
		return err
	}
	o := c.Offence
	return e.Offences.ReportOffence(c.Reporters, &o)
}

// fee market calls

type EnrollAndLockCollateral struct {
	feeMarketCall
	Collateral darwinia.Balance
	// Fee defaults to the minimum relay fee when nil.
	Fee *darwinia.Balance
}

func (c EnrollAndLockCollateral) Dispatch(e *Env, origin darwinia.Origin) error {
	return e.FeeMarket.EnrollAndLockCollateral(origin, c.Collateral, c.Fee)
}

type UpdateLockedCollateral struct {
	feeMarketCall
	Collateral darwinia.Balance
}

func (c UpdateLockedCollateral) Dispatch(e *Env, origin darwinia.Origin) error {
	return e.FeeMarket.UpdateLockedCollateral(origin, c.Collateral)
}

type UpdateRelayFee struct {
	feeMarketCall
	Fee darwinia.Balance
}

func (c UpdateRelayFee) Dispatch(e *Env, origin darwinia.Origin) error {
	return e.FeeMarket.UpdateRelayFee(origin, c.Fee)
}

type CancelEnrollment struct{ feeMarketCall }

func (CancelEnrollment) Dispatch(e *Env, origin darwinia.Origin) error {
	return e.FeeMarket.CancelEnrollment(origin)
}

// SendMessage pays for an outbound message.
type SendMessage struct {
	feeMarketCall
	Lane  darwinia.LaneID
	Nonce darwinia.MessageNonce
	Fee   darwinia.Balance
}

func (c SendMessage) Dispatch(e *Env, origin darwinia.Origin) error {
	return e.FeeMarket.AcceptMessage(origin, c.Lane, c.Nonce, c.Fee)
}

// ConfirmDelivery confirms messages Begin..End of Lane.
type ConfirmDelivery struct {
	feeMarketCall
	Lane     darwinia.LaneID
	Begin    darwinia.MessageNonce
	End      darwinia.MessageNonce
	Relayers []feemarket.MessageRelayer
}

func (c ConfirmDelivery) Dispatch(e *Env, origin darwinia.Origin) error {
	return e.FeeMarket.ConfirmDelivery(origin, c.Lane, c.Begin, c.End, c.Relayers)
}
