// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"slices"

	"github.com/darwinia-network/darwinia-go/currency"
	"github.com/darwinia-network/darwinia-go/darwinia"
	"github.com/darwinia-network/darwinia-go/reverts"
	"github.com/darwinia-network/darwinia-go/staking/slashing"
)

// rewardF1 is the share of the reporter reward paid on the first report
// of a span maximum.
var rewardF1 = darwinia.PerbillFromPercent(50)

// OnOffence slashes offenders by the matching fractions for misbehaviour in
// slashSession. With a non-disabling offence, offenders slashed by nothing
// are left alone.
//
// It returns false without doing anything while the election window is
// open. The caller is expected to report again later.
func (s *Staking) OnOffence(
	details []OffenceDetails,
	fractions []darwinia.Perbill,
	slashSession darwinia.SessionIndex,
	disabling bool,
) (bool, error) {
	status, err := s.eraElectionStatus.Get()
	if err != nil {
		return false, err
	}
	if status.Open {
		return false, nil
	}

	active, ok, err := s.activeEra.Lookup()
	if err != nil {
		return false, err
	}
	if !ok {
		return true, nil
	}
	windowStart := darwinia.SaturatingSub(active.Index, s.cfg.BondingDurationInEra)

	slashEra, found, err := s.EraOfSession(slashSession)
	if err != nil {
		return false, err
	}
	if !found {
		logger.Warn("offence older than the bonding window discarded", "session", slashSession)
		s.emit(OldSlashingReportDiscarded{Session: slashSession})
		return true, nil
	}

	if ok, err := s.earliestUnappliedSlash.Exists(); err != nil {
		return false, err
	} else if !ok {
		if err := s.earliestUnappliedSlash.Set(active.Index); err != nil {
			return false, err
		}
	}

	invulnerables, err := s.invulnerables.Get()
	if err != nil {
		return false, err
	}
	for i, d := range details {
		if i >= len(fractions) {
			break
		}
		if slices.Contains(invulnerables, d.Offender) {
			continue
		}
		p := slashParams{
			stash:       d.Offender,
			fraction:    fractions[i],
			exposure:    d.Exposure,
			slashEra:    slashEra,
			windowStart: windowStart,
			now:         active.Index,
			disabling:   disabling,
		}
		unapplied, err := s.computeSlash(p)
		if err != nil {
			return false, err
		}
		if unapplied == nil {
			continue
		}
		unapplied.Reporters = d.Reporters

		logger.Info("offence slashed", "validator", d.Offender, "fraction", fractions[i], "era", slashEra, "deferred", s.cfg.SlashDeferDuration > 0)
		if s.cfg.SlashDeferDuration == 0 {
			if err := s.applySlash(unapplied); err != nil {
				return false, err
			}
			continue
		}
		if err := s.unappliedSlashes.Mutate(active.Index, func(list *[]UnappliedSlash) error {
			*list = append(*list, *unapplied)
			return nil
		}); err != nil {
			return false, err
		}
	}
	return true, nil
}

// EraOfSession returns the era session i belongs to. Sessions before the
// bonded eras are not found.
func (s *Staking) EraOfSession(i darwinia.SessionIndex) (darwinia.EraIndex, bool, error) {
	active, ok, err := s.activeEra.Lookup()
	if err != nil || !ok {
		return 0, false, err
	}
	activeStart, ok, err := s.erasStartSessionIndex.Lookup(active.Index)
	if err != nil {
		return 0, false, err
	}
	if !ok {
		logger.Error("start session of active era missing", "era", active.Index)
	}
	if i >= activeStart {
		return active.Index, true, nil
	}
	bonded, err := s.bondedEras.Get()
	if err != nil {
		return 0, false, err
	}
	for j := len(bonded) - 1; j >= 0; j-- {
		if bonded[j].StartSession <= i {
			return bonded[j].Era, true, nil
		}
	}
	return 0, false, nil
}

type slashParams struct {
	stash       darwinia.AccountID
	fraction    darwinia.Perbill
	exposure    Exposure
	slashEra    darwinia.EraIndex
	windowStart darwinia.EraIndex
	now         darwinia.EraIndex
	disabling   bool
}

// computeSlash works out what the validator of p and its nominators lose.
// Only a new maximum of the era for the validator slashes anyone.
func (s *Staking) computeSlash(p slashParams) (*UnappliedSlash, error) {
	own := mulRK(p.fraction, RK{p.exposure.OwnRingBalance, p.exposure.OwnKtonBalance})
	if p.fraction.Mul(uint64(p.exposure.TotalPower)) == 0 {
		if p.disabling {
			return nil, s.kickOutIfRecent(p)
		}
		return nil, nil
	}

	prior, err := s.validatorSlashInEra.Get(p.slashEra, p.stash)
	if err != nil {
		return nil, err
	}
	if p.fraction <= prior.Fraction {
		return nil, nil
	}
	if err := s.validatorSlashInEra.Set(p.slashEra, p.stash, ValidatorSlash{Fraction: p.fraction, Value: own}); err != nil {
		return nil, err
	}
	if err := s.noteSlashedInEra(p.slashEra, p.stash); err != nil {
		return nil, err
	}

	var payout, slashed RK
	spans, err := s.inspectSpans(p.stash, p.windowStart, &payout, &slashed)
	if err != nil {
		return nil, err
	}
	target, ok, err := spans.compareAndUpdateSpanSlash(p.slashEra, own)
	if err != nil {
		return nil, err
	}
	if ok && target == spans.SpanIndex {
		spans.endSpan(p.now)
		if err := s.chillAndDisable(p.stash); err != nil {
			return nil, err
		}
	}
	if err := spans.commit(); err != nil {
		return nil, err
	}

	others, nominatorsPayout, err := s.slashNominators(p, prior.Fraction)
	if err != nil {
		return nil, err
	}
	return &UnappliedSlash{
		Validator: p.stash,
		Own:       slashed,
		Others:    others,
		Payout:    payout.add(nominatorsPayout),
	}, nil
}

// kickOutIfRecent chills and disables a validator not slashed by anything,
// as long as the offence is in its current span.
func (s *Staking) kickOutIfRecent(p slashParams) error {
	var payout, slashed RK
	spans, err := s.inspectSpans(p.stash, p.windowStart, &payout, &slashed)
	if err != nil {
		return err
	}
	if span, ok := spans.EraSpan(p.slashEra); ok && span.Index == spans.SpanIndex {
		spans.endSpan(p.now)
		if err := s.chillAndDisable(p.stash); err != nil {
			return err
		}
	}
	return spans.commit()
}

func (s *Staking) chillAndDisable(stash darwinia.AccountID) error {
	if _, err := s.chillStash(stash); err != nil {
		return err
	}
	forceNew, err := s.deps.Session.DisableValidator(stash)
	if err != nil {
		return err
	}
	if forceNew {
		return s.ensureNewEra()
	}
	return nil
}

func (s *Staking) ensureNewEra() error {
	forcing, err := s.forceEra.Get()
	if err != nil {
		return err
	}
	if forcing == ForceAlways || forcing == ForceNew {
		return nil
	}
	logger.Info("too many validators disabled, forcing a new era")
	return s.forceEra.Set(ForceNew)
}

// slashNominators slashes the nominators of the validator in p by the
// growth of the validator's era slash over prior.
func (s *Staking) slashNominators(p slashParams, prior darwinia.Perbill) ([]StashSlash, RK, error) {
	var payout RK
	out := make([]StashSlash, 0, len(p.exposure.Others))
	for _, n := range p.exposure.Others {
		value := RK{n.RingBalance, n.KtonBalance}
		diff := mulRK(p.fraction, value).sub(mulRK(prior, value))

		var eraSlash RK
		if err := s.nominatorSlashInEra.Mutate(p.slashEra, n.Who, func(rk *RK) error {
			*rk = rk.add(diff)
			eraSlash = *rk
			return nil
		}); err != nil {
			return nil, RK{}, err
		}
		if err := s.noteSlashedInEra(p.slashEra, n.Who); err != nil {
			return nil, RK{}, err
		}

		var slashed RK
		spans, err := s.inspectSpans(n.Who, p.windowStart, &payout, &slashed)
		if err != nil {
			return nil, RK{}, err
		}
		target, ok, err := spans.compareAndUpdateSpanSlash(p.slashEra, eraSlash)
		if err != nil {
			return nil, RK{}, err
		}
		// the nomination is ignored by later elections, the nominator is not chilled
		if ok && target == spans.SpanIndex {
			spans.endSpan(p.now)
		}
		if err := spans.commit(); err != nil {
			return nil, RK{}, err
		}
		out = append(out, StashSlash{Stash: n.Who, Value: slashed})
	}
	return out, payout, nil
}

func (s *Staking) noteSlashedInEra(era darwinia.EraIndex, stash darwinia.AccountID) error {
	return s.slashedInEra.Mutate(era, func(list *[]darwinia.AccountID) error {
		if !slices.Contains(*list, stash) {
			*list = append(*list, stash)
		}
		return nil
	})
}

// spanInspector wraps the spans of a stash while a slash is computed. The
// spans are written back on commit, pruned to the bonding window, only if
// they changed.
type spanInspector struct {
	*slashing.Spans
	s           *Staking
	stash       darwinia.AccountID
	windowStart darwinia.EraIndex
	dirty       bool
	paidOut     *RK
	slashOf     *RK
}

func (s *Staking) inspectSpans(stash darwinia.AccountID, windowStart darwinia.EraIndex, paidOut, slashOf *RK) (*spanInspector, error) {
	spans, ok, err := s.slashingSpans.Lookup(stash)
	if err != nil {
		return nil, err
	}
	if !ok {
		spans = *slashing.New(windowStart)
		if err := s.slashingSpans.Set(stash, spans); err != nil {
			return nil, err
		}
	}
	return &spanInspector{
		Spans:       &spans,
		s:           s,
		stash:       stash,
		windowStart: windowStart,
		paidOut:     paidOut,
		slashOf:     slashOf,
	}, nil
}

func (si *spanInspector) endSpan(now darwinia.EraIndex) {
	if si.EndSpan(now) {
		si.dirty = true
	}
}

// compareAndUpdateSpanSlash records slash against the span of slashEra. Of
// each asset only the part above the span's recorded maximum is slashed,
// and reporters are paid from the new maximum less what was paid before.
func (si *spanInspector) compareAndUpdateSpanSlash(slashEra darwinia.EraIndex, slash RK) (darwinia.SpanIndex, bool, error) {
	span, ok := si.EraSpan(slashEra)
	if !ok {
		return 0, false, nil
	}
	record, err := si.s.spanSlash.Get(si.stash, span.Index)
	if err != nil {
		return 0, false, err
	}
	proportion := si.s.cfg.SlashRewardFraction

	var diff, reward RK
	changed := false
	diff.Ring, reward.Ring, changed = updateSpanAsset(&record.SlashedRing, &record.PaidOutRing, slash.Ring, proportion, changed)
	diff.Kton, reward.Kton, changed = updateSpanAsset(&record.SlashedKton, &record.PaidOutKton, slash.Kton, proportion, changed)

	if !diff.IsZero() {
		*si.slashOf = si.slashOf.add(diff)
		si.NoteSlash(slashEra)
	}
	*si.paidOut = si.paidOut.add(reward)
	if changed {
		si.dirty = true
		if err := si.s.spanSlash.Set(si.stash, span.Index, record); err != nil {
			return 0, false, err
		}
	}
	return span.Index, true, nil
}

func updateSpanAsset(
	slashed, paidOut *darwinia.Balance,
	slash darwinia.Balance,
	proportion darwinia.Perbill,
	changed bool,
) (diff, reward darwinia.Balance, _ bool) {
	if *slashed > slash {
		return 0, 0, changed
	}
	if *slashed < slash {
		diff = slash - *slashed
		*slashed = slash
		changed = true
	}
	reward = darwinia.Balance(rewardF1.Mul(uint64(darwinia.SaturatingSub(darwinia.Balance(proportion.Mul(uint64(slash))), *paidOut))))
	if reward > 0 {
		*paidOut += reward
		changed = true
	}
	return diff, reward, changed
}

func (si *spanInspector) commit() error {
	if !si.dirty {
		return nil
	}
	if from, to, pruned := si.Prune(si.windowStart); pruned {
		for i := from; i < to; i++ {
			si.s.spanSlash.Delete(si.stash, i)
		}
	}
	return si.s.slashingSpans.Set(si.stash, *si.Spans)
}

// applySlash takes the slash of a validator and its nominators and pays the
// reporters out of it.
func (s *Staking) applySlash(u *UnappliedSlash) error {
	payout := u.Payout
	var slashed RK
	if err := s.doSlash(u.Validator, u.Own, &payout, &slashed); err != nil {
		return err
	}
	for _, o := range u.Others {
		if err := s.doSlash(o.Stash, o.Value, &payout, &slashed); err != nil {
			return err
		}
	}
	return s.payReporters(payout, slashed, u.Reporters)
}

// doSlash takes value from the ledger and the balances of stash. What the
// stash can't cover is taken off the reporters payout.
func (s *Staking) doSlash(stash darwinia.AccountID, value RK, payout, slashed *RK) error {
	l, controller, err := s.LedgerOfStash(stash)
	if err != nil {
		if reverts.IsRevertErr(err) {
			return nil
		}
		return err
	}

	now := s.deps.Clock.Now()
	l.ClearMatureDeposits(now)
	ring, kton := l.Slash(value.Ring, value.Kton, s.deps.Clock.BlockNumber(), now)
	if ring == 0 && kton == 0 {
		return nil
	}

	if ring > 0 {
		taken, missing, err := s.deps.Ring.Slash(stash, ring)
		if err != nil {
			return err
		}
		slashed.Ring += taken
		payout.Ring = darwinia.SaturatingSub(payout.Ring, missing)
		metricSlashes().AddWithLabel(1, map[string]string{"asset": AssetRing.String()})
		metricSlashedAmount().AddWithLabel(int64(taken), map[string]string{"asset": AssetRing.String()})
	}
	if kton > 0 {
		taken, missing, err := s.deps.Kton.Slash(stash, kton)
		if err != nil {
			return err
		}
		slashed.Kton += taken
		payout.Kton = darwinia.SaturatingSub(payout.Kton, missing)
		metricSlashes().AddWithLabel(1, map[string]string{"asset": AssetKton.String()})
		metricSlashedAmount().AddWithLabel(int64(taken), map[string]string{"asset": AssetKton.String()})
	}
	if err := s.updateLedger(controller, l); err != nil {
		return err
	}
	logger.Info("stash slashed", "stash", stash, "ring", ring, "kton", kton)
	s.emit(Slash{Stash: stash, Ring: ring, Kton: kton})
	return nil
}

// payReporters splits payout evenly among reporters. The rest of what was
// slashed goes to the slash handlers.
func (s *Staking) payReporters(payout, slashed RK, reporters []darwinia.AccountID) error {
	ring, err := s.payReportersAsset(s.deps.Ring, payout.Ring, slashed.Ring, reporters)
	if err != nil {
		return err
	}
	kton, err := s.payReportersAsset(s.deps.Kton, payout.Kton, slashed.Kton, reporters)
	if err != nil {
		return err
	}
	if ring > 0 && s.deps.RingSlash != nil {
		if err := s.deps.RingSlash.OnUnbalanced(ring); err != nil {
			return err
		}
	}
	if kton > 0 && s.deps.KtonSlash != nil {
		return s.deps.KtonSlash.OnUnbalanced(kton)
	}
	return nil
}

func (s *Staking) payReportersAsset(
	c *currency.Currency,
	payout, slashed darwinia.Balance,
	reporters []darwinia.AccountID,
) (rest darwinia.Balance, err error) {
	if payout == 0 || len(reporters) == 0 {
		return slashed, nil
	}
	payout = min(payout, slashed)
	rest = slashed - payout
	each := payout / darwinia.Balance(len(reporters))
	for _, r := range reporters {
		if each == 0 {
			break
		}
		minted, err := c.DepositCreating(r, each)
		if err != nil {
			if !reverts.IsRevertErr(err) {
				return 0, err
			}
			logger.Debug("reporter reward skipped", "reporter", r, "err", err)
			continue
		}
		payout -= minted
	}
	return rest + payout, nil
}

// applyUnappliedSlashes applies the deferred slashes whose delay has passed
// by active era.
func (s *Staking) applyUnappliedSlashes(active darwinia.EraIndex) error {
	earliest, ok, err := s.earliestUnappliedSlash.Lookup()
	if err != nil || !ok {
		return err
	}
	keepFrom := darwinia.SaturatingSub(active, s.cfg.SlashDeferDuration)
	for era := earliest; era < keepFrom; era++ {
		slashes, _, err := s.unappliedSlashes.Take(era)
		if err != nil {
			return err
		}
		for i := range slashes {
			if err := s.applySlash(&slashes[i]); err != nil {
				return err
			}
		}
	}
	return s.earliestUnappliedSlash.Set(max(earliest, keepFrom))
}

// CancelDeferredSlash drops the deferred slashes of era at indices, which
// must be sorted and unique.
func (s *Staking) CancelDeferredSlash(origin darwinia.Origin, era darwinia.EraIndex, indices []uint32) error {
	if err := origin.EnsureRoot(); err != nil {
		return err
	}
	if len(indices) == 0 {
		return ErrEmptyTargets
	}
	for i := 1; i < len(indices); i++ {
		if indices[i] <= indices[i-1] {
			return ErrNotSortedAndUnique
		}
	}
	unapplied, err := s.unappliedSlashes.Get(era)
	if err != nil {
		return err
	}
	if int(indices[len(indices)-1]) >= len(unapplied) {
		return ErrInvalidSlashIndex
	}
	for removed, index := range indices {
		i := int(index) - removed
		unapplied = slices.Delete(unapplied, i, i+1)
	}
	if err := s.unappliedSlashes.Set(era, unapplied); err != nil {
		return err
	}
	logger.Info("deferred slashes cancelled", "era", era, "count", len(indices))
	s.emit(SlashCancelled{Era: era, Indices: indices})
	return nil
}
