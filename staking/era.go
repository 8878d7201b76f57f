// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"slices"

	"github.com/pkg/errors"

	"github.com/darwinia-network/darwinia-go/darwinia"
	"github.com/darwinia-network/darwinia-go/staking/inflation"
)

// reward points of block production
const (
	pointsPerBlock       = 20
	pointsPerUncleAuthor = 1
	pointsPerUncleNoter  = 2
)

// OnInitialize opens the election window and snapshots the candidates when
// the era is about to end within the election lookahead.
func (s *Staking) OnInitialize(bn darwinia.BlockNumber) error {
	status, err := s.eraElectionStatus.Get()
	if err != nil {
		return err
	}
	if status.Open {
		return nil
	}
	final, err := s.isCurrentSessionFinal.Get()
	if err != nil {
		return err
	}
	forcing, err := s.forceEra.Get()
	if err != nil {
		return err
	}
	if !final && forcing != ForceNew && forcing != ForceAlways {
		return nil
	}

	next, ok := s.deps.Session.EstimateNextNewSession(bn)
	if !ok {
		logger.Warn("next session change unknown, election window not opened", "block", bn)
		return nil
	}
	remaining, ok := darwinia.CheckedSub(next, bn)
	if !ok || remaining == 0 || remaining > s.cfg.ElectionLookahead {
		return nil
	}

	created, err := s.createStakersSnapshot()
	if err != nil {
		return err
	}
	if !created {
		logger.Warn("failed to create snapshot, election window not opened", "block", bn)
		return nil
	}
	logger.Info("election window opened", "block", bn, "next-session-at", next)
	return s.eraElectionStatus.Set(ElectionStatus{Open: true, Start: bn})
}

// OnFinalize records the start of the active era at its first block.
func (s *Staking) OnFinalize() error {
	active, ok, err := s.activeEra.Lookup()
	if err != nil || !ok || active.Started {
		return err
	}
	active.Started = true
	active.Start = s.deps.Clock.Now()
	return s.activeEra.Set(active)
}

// createStakersSnapshot freezes the candidate lists for off-chain election.
// Nominators are followed by the validators, which vote for themselves.
func (s *Staking) createStakersSnapshot() (bool, error) {
	validators, err := s.validators.All()
	if err != nil {
		return false, err
	}
	nominators, err := s.nominators.All()
	if err != nil {
		return false, err
	}
	voters := append(nominators, validators...)
	if len(validators) > int(^uint16(0)) || uint64(len(voters)) > uint64(^uint32(0)) {
		return false, nil
	}
	if err := s.snapshotValidators.Set(validators); err != nil {
		return false, err
	}
	return true, s.snapshotNominators.Set(voters)
}

func (s *Staking) killStakersSnapshot() {
	s.snapshotValidators.Delete()
	s.snapshotNominators.Delete()
}

func (s *Staking) closeElectionWindow() error {
	s.killStakersSnapshot()
	if err := s.isCurrentSessionFinal.Set(false); err != nil {
		return err
	}
	return s.eraElectionStatus.Set(ElectionStatus{})
}

// NewSession plans session i and returns the validators for it when a new
// era was planned.
func (s *Staking) NewSession(i darwinia.SessionIndex) ([]darwinia.AccountID, bool, error) {
	era, ok, err := s.currentEra.Lookup()
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return s.newEra(i)
	}
	start, ok, err := s.erasStartSessionIndex.Lookup(era)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, errors.Errorf("start session of current era %d missing", era)
	}
	eraLength := darwinia.SaturatingSub(i, start)

	forcing, err := s.forceEra.Get()
	if err != nil {
		return nil, false, err
	}
	switch {
	case forcing == ForceNew:
		s.forceEra.Delete()
	case forcing == ForceAlways:
	case forcing == NotForcing && eraLength >= s.cfg.SessionsPerEra:
	default:
		if eraLength+1 == s.cfg.SessionsPerEra {
			return nil, false, s.isCurrentSessionFinal.Set(true)
		}
		if eraLength >= s.cfg.SessionsPerEra {
			// era due but forced off
			return nil, false, s.closeElectionWindow()
		}
		return nil, false, nil
	}
	return s.newEra(i)
}

// StartSession starts the planned era if session i is its first.
func (s *Staking) StartSession(i darwinia.SessionIndex) error {
	next := darwinia.EraIndex(0)
	active, ok, err := s.activeEra.Lookup()
	if err != nil {
		return err
	}
	if ok {
		next = active.Index + 1
	}
	start, ok, err := s.erasStartSessionIndex.Lookup(next)
	if err != nil || !ok {
		return err
	}
	if start == i {
		return s.startEra(i)
	}
	if start < i {
		logger.Error("missing start of era", "era", next, "planned-session", start, "session", i)
	}
	return nil
}

// EndSession ends the active era if session i is its last.
func (s *Staking) EndSession(i darwinia.SessionIndex) error {
	active, ok, err := s.activeEra.Lookup()
	if err != nil || !ok {
		return err
	}
	start, ok, err := s.erasStartSessionIndex.Lookup(active.Index + 1)
	if err != nil || !ok {
		return err
	}
	if start == i+1 {
		return s.endEra(active)
	}
	return nil
}

func (s *Staking) startEra(startSession darwinia.SessionIndex) error {
	prev, ok, err := s.activeEra.Lookup()
	if err != nil {
		return err
	}
	var era darwinia.EraIndex
	if ok {
		era = prev.Index + 1
	}
	if err := s.activeEra.Set(ActiveEraInfo{Index: era}); err != nil {
		return err
	}
	logger.Info("era started", "era", era, "session", startSession)
	metricActiveEra().Set(int64(era))

	bonded, err := s.bondedEras.Get()
	if err != nil {
		return err
	}
	bonded = append(bonded, BondedEra{Era: era, StartSession: startSession})
	if era > s.cfg.BondingDurationInEra {
		firstKept := era - s.cfg.BondingDurationInEra
		n := 0
		for n < len(bonded) && bonded[n].Era < firstKept {
			if err := s.clearEraSlashMetadata(bonded[n].Era); err != nil {
				return err
			}
			n++
		}
		bonded = slices.Delete(bonded, 0, n)
		if n > 0 && len(bonded) > 0 {
			if err := s.deps.Session.PruneHistoricalUpTo(bonded[0].StartSession); err != nil {
				return err
			}
		}
	}
	if err := s.bondedEras.Set(bonded); err != nil {
		return err
	}
	return s.applyUnappliedSlashes(era)
}

// endEra mints the era payout. The validator part goes to the staking pot,
// the rest to the remainder handler.
func (s *Staking) endEra(active ActiveEraInfo) error {
	if !active.Started {
		return nil
	}
	now := s.deps.Clock.Now()
	duration := darwinia.SaturatingSub(now, active.Start)

	living, err := s.livingTime.Get()
	if err != nil {
		return err
	}
	issuance, err := s.deps.Ring.TotalIssuance()
	if err != nil {
		return err
	}
	fraction, err := s.payoutFraction.Get()
	if err != nil {
		return err
	}
	payout, rest := inflation.EraPayout(duration, living, darwinia.SaturatingSub(s.cfg.Cap, issuance), fraction)

	logger.Info("era ended", "era", active.Index, "duration", duration, "payout", payout, "rest", rest)
	s.emit(EraPayout{Era: active.Index, Payout: payout, Rest: rest})

	if err := s.livingTime.Set(darwinia.SaturatingAdd(living, duration)); err != nil {
		return err
	}
	if err := s.erasValidatorReward.Set(active.Index, payout); err != nil {
		return err
	}
	if payout > 0 {
		if _, err := s.deps.Ring.DepositCreating(s.AccountID(), payout); err != nil {
			return errors.Wrap(err, "mint era payout")
		}
	}
	if rest > 0 && s.deps.RingRewardRemainder != nil {
		minted, err := s.deps.Ring.Issue(rest)
		if err != nil {
			return err
		}
		return s.deps.RingRewardRemainder.OnUnbalanced(minted)
	}
	return nil
}

// newEra plans the era starting at session startSession and elects its
// validators.
func (s *Staking) newEra(startSession darwinia.SessionIndex) ([]darwinia.AccountID, bool, error) {
	era, ok, err := s.currentEra.Lookup()
	if err != nil {
		return nil, false, err
	}
	if ok {
		era++
	}
	if err := s.currentEra.Set(era); err != nil {
		return nil, false, err
	}
	if err := s.erasStartSessionIndex.Set(era, startSession); err != nil {
		return nil, false, err
	}

	depth, err := s.historyDepth.Get()
	if err != nil {
		return nil, false, err
	}
	if old, ok := darwinia.CheckedSub(era, depth+1); ok {
		if err := s.clearEraInformation(old); err != nil {
			return nil, false, err
		}
	}

	logger.Info("new era planned", "era", era, "start-session", startSession)
	return s.selectAndUpdateValidators(era)
}

// clearEraInformation drops everything recorded for era.
func (s *Staking) clearEraInformation(era darwinia.EraIndex) error {
	elected, err := s.erasElected.Get(era)
	if err != nil {
		return err
	}
	for _, stash := range elected {
		s.erasStakers.Delete(era, stash)
		s.erasStakersClipped.Delete(era, stash)
		s.erasValidatorPrefs.Delete(era, stash)
	}
	s.erasElected.Delete(era)
	s.erasValidatorReward.Delete(era)
	s.erasRewardPoints.Delete(era)
	s.erasTotalStake.Delete(era)
	s.erasStartSessionIndex.Delete(era)
	return nil
}

// clearEraSlashMetadata drops the per era slash records of an era leaving
// the bonding window.
func (s *Staking) clearEraSlashMetadata(era darwinia.EraIndex) error {
	slashed, err := s.slashedInEra.Get(era)
	if err != nil {
		return err
	}
	for _, stash := range slashed {
		s.validatorSlashInEra.Delete(era, stash)
		s.nominatorSlashInEra.Delete(era, stash)
	}
	s.slashedInEra.Delete(era)
	return nil
}

// NoteAuthor rewards the author of a block.
func (s *Staking) NoteAuthor(author darwinia.AccountID) error {
	return s.rewardByIDs(IndividualPoints{author, pointsPerBlock})
}

// NoteUncle rewards the author of a block including an uncle, and the
// author of the uncle.
func (s *Staking) NoteUncle(author, uncleAuthor darwinia.AccountID) error {
	return s.rewardByIDs(
		IndividualPoints{author, pointsPerUncleNoter},
		IndividualPoints{uncleAuthor, pointsPerUncleAuthor},
	)
}

// rewardByIDs adds points to validators in the active era.
func (s *Staking) rewardByIDs(points ...IndividualPoints) error {
	active, ok, err := s.activeEra.Lookup()
	if err != nil || !ok {
		return err
	}
	return s.erasRewardPoints.Mutate(active.Index, func(p *EraRewardPoints) error {
		for _, ip := range points {
			i, found := slices.BinarySearchFunc(p.Individual, ip.Who, func(e IndividualPoints, who darwinia.AccountID) int {
				return e.Who.Compare(who)
			})
			if found {
				p.Individual[i].Points += ip.Points
			} else {
				p.Individual = slices.Insert(p.Individual, i, ip)
			}
			p.Total += ip.Points
		}
		return nil
	})
}
