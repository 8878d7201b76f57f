// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"github.com/pkg/errors"

	"github.com/darwinia-network/darwinia-go/config"
	"github.com/darwinia-network/darwinia-go/darwinia"
	"github.com/darwinia-network/darwinia-go/feemarket"
	"github.com/darwinia-network/darwinia-go/runtime"
)

var simLane = darwinia.LaneID{0, 0, 0, 1}

type sentMessage struct {
	nonce darwinia.MessageNonce
	at    darwinia.BlockNumber
}

// script generates the commands of simulated users: relayers enroll in the
// fee market, a sender pays for messages that are confirmed after a delay,
// and validator rewards are claimed at every new era.
type script struct {
	traffic    config.Traffic
	relayers   []darwinia.AccountID
	sender     darwinia.AccountID
	collateral darwinia.Balance
	baseFee    darwinia.Balance

	nonce    darwinia.MessageNonce
	pending  []sentMessage
	confirms int

	lastEra    darwinia.EraIndex
	eraStarted bool
}

func newScript(cfg *config.Config) (*script, error) {
	s := &script{
		traffic:    cfg.Traffic,
		collateral: cfg.FeeMarket.MinimumLockCollateral,
		baseFee:    cfg.FeeMarket.MinimumRelayFee,
	}
	for _, r := range cfg.Traffic.Relayers {
		id, err := r.ID()
		if err != nil {
			return nil, errors.Wrap(err, "traffic.relayers")
		}
		s.relayers = append(s.relayers, id)
	}
	if cfg.Traffic.MessageInterval > 0 {
		id, err := cfg.Traffic.Sender.ID()
		if err != nil {
			return nil, errors.Wrap(err, "traffic.sender")
		}
		s.sender = id
	}
	return s, nil
}

func signed(who darwinia.AccountID, cmd runtime.Command) runtime.Extrinsic {
	return runtime.Extrinsic{Origin: darwinia.Signed(who), Command: cmd}
}

// commands returns the commands of block n, reading the chain through env.
func (s *script) commands(env *runtime.Env, n darwinia.BlockNumber) ([]runtime.Extrinsic, error) {
	var cmds []runtime.Extrinsic
	if n == 1 {
		cmds = append(cmds, s.enroll()...)
	}

	send, err := s.send(env, n)
	if err != nil {
		return nil, err
	}
	cmds = append(cmds, send...)
	cmds = append(cmds, s.confirm(n)...)

	if s.traffic.Payout {
		payouts, err := s.payout(env)
		if err != nil {
			return nil, err
		}
		cmds = append(cmds, payouts...)
	}
	return cmds, nil
}

// enroll registers every relayer, each asking one base fee more than the one
// before.
func (s *script) enroll() []runtime.Extrinsic {
	cmds := make([]runtime.Extrinsic, 0, len(s.relayers))
	for i, r := range s.relayers {
		fee := s.baseFee * darwinia.Balance(i+1)
		cmds = append(cmds, signed(r, runtime.EnrollAndLockCollateral{Collateral: s.collateral, Fee: &fee}))
	}
	return cmds
}

func (s *script) send(env *runtime.Env, n darwinia.BlockNumber) ([]runtime.Extrinsic, error) {
	if s.traffic.MessageInterval == 0 || n%s.traffic.MessageInterval != 0 {
		return nil, nil
	}
	fee, ok, err := env.FeeMarket.MarketFee()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	s.nonce++
	s.pending = append(s.pending, sentMessage{nonce: s.nonce, at: n})
	return []runtime.Extrinsic{signed(s.sender, runtime.SendMessage{Lane: simLane, Nonce: s.nonce, Fee: fee})}, nil
}

// confirm confirms every message older than the confirm delay in one
// command. Relayers take turns delivering and confirming.
func (s *script) confirm(n darwinia.BlockNumber) []runtime.Extrinsic {
	if len(s.relayers) == 0 {
		return nil
	}
	due := 0
	// a proof covers at most MaxMessagesInConfirmation nonces, the rest wait
	for due < len(s.pending) && due < feemarket.MaxMessagesInConfirmation && s.pending[due].at+s.traffic.ConfirmDelay <= n {
		due++
	}
	if due == 0 {
		return nil
	}
	begin, end := s.pending[0].nonce, s.pending[due-1].nonce
	s.pending = s.pending[due:]

	deliverer := s.relayers[s.confirms%len(s.relayers)]
	confirmer := s.relayers[(s.confirms+1)%len(s.relayers)]
	s.confirms++
	return []runtime.Extrinsic{signed(confirmer, runtime.ConfirmDelivery{
		Lane:     simLane,
		Begin:    begin,
		End:      end,
		Relayers: []feemarket.MessageRelayer{{Relayer: deliverer, Begin: begin, End: end}},
	})}
}

// payout claims the rewards of the previous era for every validator that
// earned points, once per era.
func (s *script) payout(env *runtime.Env) ([]runtime.Extrinsic, error) {
	active, ok, err := env.Staking.ActiveEra()
	if err != nil || !ok {
		return nil, err
	}
	if !s.eraStarted {
		s.lastEra, s.eraStarted = active.Index, true
		return nil, nil
	}
	if active.Index <= s.lastEra {
		return nil, nil
	}
	era := active.Index - 1
	s.lastEra = active.Index

	points, err := env.Staking.ErasRewardPoints(era)
	if err != nil {
		return nil, err
	}
	payer := s.sender
	if payer.IsZero() && len(s.relayers) > 0 {
		payer = s.relayers[0]
	}
	if payer.IsZero() {
		return nil, nil
	}
	cmds := make([]runtime.Extrinsic, 0, len(points.Individual))
	for _, p := range points.Individual {
		cmds = append(cmds, signed(payer, runtime.PayoutStakers{Validator: p.Who, Era: era}))
	}
	return cmds, nil
}
