// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package feemarket

import (
	"maps"
	"slices"

	"github.com/darwinia-network/darwinia-go/currency"
	"github.com/darwinia-network/darwinia-go/darwinia"
	"github.com/darwinia-network/darwinia-go/reverts"
)

// AcceptMessage takes fee from the caller for the message (lane, nonce) and
// assigns it to the current market relayers.
func (m *FeeMarket) AcceptMessage(origin darwinia.Origin, lane darwinia.LaneID, nonce darwinia.MessageNonce, fee darwinia.Balance) error {
	sender, err := origin.EnsureSigned()
	if err != nil {
		return err
	}
	assigned, ok, err := m.assignedRelayers.Lookup()
	if err != nil {
		return err
	}
	if !ok || len(assigned) < AssignedRelayersNumber {
		return ErrTooFewEnrolledRelayers
	}
	if fee < assigned[len(assigned)-1].Fee {
		return ErrInsufficientFee
	}
	if ok, err := m.orders.Has(lane, nonce); err != nil {
		return err
	} else if ok {
		return ErrOrderExists
	}
	if err := m.currency.Transfer(sender, FundAccount(), fee, currency.KeepAlive); err != nil {
		return err
	}

	now := m.clock.BlockNumber()
	order := Order{
		Lane:       lane,
		Nonce:      nonce,
		Fee:        fee,
		SentTime:   now,
		Collateral: m.cfg.CollateralPerOrder,
	}
	ids := make([]darwinia.AccountID, 0, len(assigned))
	from := now
	for i, r := range assigned {
		to := from + m.cfg.SlotTimes[i]
		order.Relayers = append(order.Relayers, PriorRelayer{ID: r.ID, Fee: r.Fee, ValidFrom: from, ValidTo: to})
		ids = append(ids, r.ID)
		from = to

		if err := m.occupied.Mutate(r.ID, func(v *darwinia.Balance) error {
			*v += order.Collateral
			return nil
		}); err != nil {
			return err
		}
	}
	if err := m.orders.Set(lane, nonce, order); err != nil {
		return err
	}
	if err := m.updateMarket(); err != nil {
		return err
	}

	metricOrders().AddWithLabel(1, map[string]string{"event": "created"})
	m.events.Emit(OrderCreated{Lane: lane, Nonce: nonce, Fee: fee, Assigned: ids})
	return nil
}

// ConfirmDelivery confirms the messages begin..end of lane, delivered by
// relayers, and pays the rewards. The caller is the confirm relayer.
// Orders confirmed earlier are left untouched.
func (m *FeeMarket) ConfirmDelivery(
	origin darwinia.Origin,
	lane darwinia.LaneID,
	begin, end darwinia.MessageNonce,
	relayers []MessageRelayer,
) error {
	confirmer, err := origin.EnsureSigned()
	if err != nil {
		return err
	}
	if begin > end {
		return ErrInvalidRange
	}
	if end-begin >= MaxMessagesInConfirmation {
		return ErrTooManyMessages
	}

	now := m.clock.BlockNumber()
	confirmed := make(map[darwinia.MessageNonce]*Order)
	if err := eachNonce(begin, end, func(nonce darwinia.MessageNonce) error {
		order, ok, err := m.orders.Lookup(lane, nonce)
		if err != nil {
			return err
		}
		if !ok || order.IsConfirmed() {
			return nil
		}
		order.Confirmed = true
		order.ConfirmTime = now
		if err := m.orders.Set(lane, nonce, order); err != nil {
			return err
		}
		if err := m.releaseCollateral(&order); err != nil {
			return err
		}
		if err := m.confirmedThisBlock.Mutate(func(keys *[]OrderKey) error {
			*keys = append(*keys, OrderKey{Lane: lane, Nonce: nonce})
			return nil
		}); err != nil {
			return err
		}
		confirmed[nonce] = &order
		return nil
	}); err != nil {
		return err
	}
	if len(confirmed) == 0 {
		return nil
	}

	book := newRewardBook()
	for _, mr := range relayers {
		lo, hi := max(mr.Begin, begin), min(mr.End, end)
		if lo > hi {
			continue
		}
		if err := eachNonce(lo, hi, func(nonce darwinia.MessageNonce) error {
			order, ok := confirmed[nonce]
			if !ok {
				return nil
			}
			delete(confirmed, nonce)
			return m.settle(order, mr.Relayer, confirmer, book)
		}); err != nil {
			return err
		}
	}
	// no relayer claimed these, the fee is not paid to anyone
	for _, order := range confirmed {
		book.treasury += order.Fee
	}

	if err := m.payRewards(book); err != nil {
		return err
	}
	return m.updateMarket()
}

// eachNonce calls fn for every nonce from begin to end inclusive, stopping
// at end so that a range ending at the largest nonce terminates.
func eachNonce(begin, end darwinia.MessageNonce, fn func(darwinia.MessageNonce) error) error {
	for nonce := begin; ; nonce++ {
		if err := fn(nonce); err != nil {
			return err
		}
		if nonce == end {
			return nil
		}
	}
}

func (m *FeeMarket) releaseCollateral(order *Order) error {
	for _, r := range order.Relayers {
		occupied, err := m.occupied.Get(r.ID)
		if err != nil {
			return err
		}
		if left := darwinia.SaturatingSub(occupied, order.Collateral); left > 0 {
			if err := m.occupied.Set(r.ID, left); err != nil {
				return err
			}
		} else {
			m.occupied.Delete(r.ID)
		}
	}
	return nil
}

// settle splits the reward of a confirmed order. Within a slot the slot
// relayer is paid from the base fee. Past every slot all assigned relayers
// are slashed and the slashes go to the message and confirm relayers.
func (m *FeeMarket) settle(order *Order, messageRelayer, confirmRelayer darwinia.AccountID, book *rewardBook) error {
	ev := OrderReward{
		Lane:           order.Lane,
		Nonce:          order.Nonce,
		MessageRelayer: messageRelayer,
		ConfirmRelayer: confirmRelayer,
	}

	var share darwinia.Balance
	if slot, ok := order.RequiredDeliveryRelayer(order.ConfirmTime); ok {
		ev.TreasuryReward = darwinia.SaturatingSub(order.Fee, slot.Fee)
		base := min(order.Fee, slot.Fee)
		ev.SlotRelayer = slot.ID
		ev.SlotReward = darwinia.Balance(m.cfg.ForAssignedRelayers.MulFloor(uint64(base)))
		share = base - ev.SlotReward
	} else {
		share = order.Fee
		delay := darwinia.SaturatingSub(order.ConfirmTime, order.LastSlotEnd())
		for _, r := range order.Relayers {
			amount := min(order.Collateral, darwinia.SaturatingMul(m.cfg.SlashPerBlock, darwinia.Balance(delay)))
			slashed, err := m.slashRelayer(r.ID, amount)
			if err != nil {
				return err
			}
			if slashed > 0 {
				m.events.Emit(RelayerSlashed{Who: r.ID, Lane: order.Lane, Nonce: order.Nonce, Amount: slashed, Delay: delay})
			}
			share += slashed
		}
	}
	ev.MessageReward = darwinia.Balance(m.cfg.ForMessageRelayer.MulFloor(uint64(share)))
	ev.ConfirmReward = darwinia.Balance(m.cfg.ForConfirmRelayer.MulFloor(uint64(share)))
	ev.TreasuryReward += darwinia.SaturatingSub(share, ev.MessageReward+ev.ConfirmReward)

	if !ev.SlotRelayer.IsZero() {
		book.add(ev.SlotRelayer, ev.SlotReward)
	}
	book.add(messageRelayer, ev.MessageReward)
	book.add(confirmRelayer, ev.ConfirmReward)
	book.treasury += ev.TreasuryReward

	metricOrders().AddWithLabel(1, map[string]string{"event": "rewarded"})
	m.events.Emit(ev)
	return nil
}

// slashRelayer moves up to amount of the collateral of who into the fund
// account and returns what was taken.
func (m *FeeMarket) slashRelayer(who darwinia.AccountID, amount darwinia.Balance) (darwinia.Balance, error) {
	r, ok, err := m.relayersMap.Lookup(who)
	if err != nil || !ok {
		return 0, err
	}
	amount = min(amount, r.Collateral)
	if amount == 0 {
		return 0, nil
	}

	// the collateral lock would block the transfer
	if err := m.lock(who, r.Collateral-amount); err != nil {
		return 0, err
	}
	if err := m.currency.Transfer(who, FundAccount(), amount, currency.AllowDeath); err != nil {
		if !reverts.IsRevertErr(err) {
			return 0, err
		}
		logger.Warn("slash relayer failed", "who", who, "amount", amount, "err", err)
		return 0, m.lock(who, r.Collateral)
	}

	metricSlashedAmount().Add(int64(amount))
	logger.Info("relayer slashed", "who", who, "amount", amount)
	return amount, m.setCollateral(r, r.Collateral-amount)
}

type rewardBook struct {
	rewards  map[darwinia.AccountID]darwinia.Balance
	treasury darwinia.Balance
}

func newRewardBook() *rewardBook {
	return &rewardBook{rewards: make(map[darwinia.AccountID]darwinia.Balance)}
}

func (b *rewardBook) add(who darwinia.AccountID, v darwinia.Balance) {
	if v > 0 {
		b.rewards[who] += v
	}
}

// payRewards pays the book out of the fund account. A reward that cannot
// be paid goes to the treasury instead.
func (m *FeeMarket) payRewards(b *rewardBook) error {
	fund := FundAccount()
	pay := func(who darwinia.AccountID, v darwinia.Balance) (bool, error) {
		err := m.currency.Transfer(fund, who, v, currency.KeepAlive)
		if err == nil {
			return true, nil
		}
		if !reverts.IsRevertErr(err) {
			return false, err
		}
		logger.Warn("pay relayer reward failed", "who", who, "amount", v, "err", err)
		return false, nil
	}

	for _, who := range slices.SortedFunc(maps.Keys(b.rewards), darwinia.AccountID.Compare) {
		ok, err := pay(who, b.rewards[who])
		if err != nil {
			return err
		}
		if !ok {
			b.treasury += b.rewards[who]
		}
	}
	if b.treasury == 0 {
		return nil
	}
	_, err := pay(TreasuryAccount(), b.treasury)
	return err
}

// OnFinalize purges the orders confirmed in the block.
func (m *FeeMarket) OnFinalize() error {
	keys, err := m.confirmedThisBlock.Get()
	if err != nil {
		return err
	}
	for _, k := range keys {
		m.orders.Delete(k.Lane, k.Nonce)
	}
	m.confirmedThisBlock.Delete()
	if len(keys) > 0 {
		metricOrders().AddWithLabel(int64(len(keys)), map[string]string{"event": "purged"})
	}
	return nil
}
