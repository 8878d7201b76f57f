// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"slices"
	"time"

	"github.com/pkg/errors"

	"github.com/darwinia-network/darwinia-go/darwinia"
	"github.com/darwinia-network/darwinia-go/phragmen"
)

// selectAndUpdateValidators elects the validators of era and records their
// exposures. The election window is closed whatever the outcome.
func (s *Staking) selectAndUpdateValidators(era darwinia.EraIndex) ([]darwinia.AccountID, bool, error) {
	startTime := time.Now()
	result, ok, err := s.tryDoElection()
	if err != nil {
		return nil, false, err
	}
	if err := s.closeElectionWindow(); err != nil {
		return nil, false, err
	}
	if !ok {
		logger.Warn("election failed, keeping the previous validator set", "era", era)
		metricElections().AddWithLabel(1, map[string]string{"compute": ComputeOnChain.String(), "result": "failed"})
		s.emit(StakingElectionFailed{})
		return nil, false, nil
	}

	var total darwinia.Power
	for _, se := range result.Exposures {
		total = darwinia.SaturatingAdd(total, se.Exposure.TotalPower)
		if err := s.erasStakers.Set(era, se.Stash, se.Exposure); err != nil {
			return nil, false, err
		}
		if err := s.erasStakersClipped.Set(era, se.Stash, s.clip(se.Exposure)); err != nil {
			return nil, false, err
		}
	}
	if err := s.erasTotalStake.Set(era, total); err != nil {
		return nil, false, err
	}
	for _, stash := range result.ElectedStashes {
		prefs, err := s.prefs.Get(stash)
		if err != nil {
			return nil, false, err
		}
		if err := s.erasValidatorPrefs.Set(era, stash, prefs); err != nil {
			return nil, false, err
		}
	}
	if err := s.erasElected.Set(era, result.ElectedStashes); err != nil {
		return nil, false, err
	}

	logger.Info("validators elected", "era", era, "compute", result.Compute, "count", len(result.ElectedStashes), "total-power", total)
	metricElections().AddWithLabel(1, map[string]string{"compute": result.Compute.String(), "result": "ok"})
	metricElectionWinners().Set(int64(len(result.ElectedStashes)))
	metricElectionTime().Observe(time.Since(startTime).Milliseconds())
	s.emit(StakingElection{Compute: result.Compute})
	return result.ElectedStashes, true, nil
}

// clip keeps the nominators with the most power, up to the number rewarded
// per validator.
func (s *Staking) clip(e Exposure) Exposure {
	limit := int(s.cfg.MaxNominatorRewardedPerValidator)
	if len(e.Others) <= limit {
		return e
	}
	others := slices.Clone(e.Others)
	slices.SortStableFunc(others, func(a, b IndividualExposure) int {
		switch {
		case a.Power > b.Power:
			return -1
		case a.Power < b.Power:
			return 1
		}
		return 0
	})
	e.Others = others[:limit]
	return e
}

// tryDoElection takes the queued solution, falling back to an on-chain
// election.
func (s *Staking) tryDoElection() (*ElectionResult, bool, error) {
	queued, ok, err := s.queuedElected.Lookup()
	if err != nil {
		return nil, false, err
	}
	s.queuedElected.Delete()
	s.queuedScore.Delete()
	if ok {
		return &queued, true, nil
	}
	return s.doOnChainPhragmen()
}

func (s *Staking) doOnChainPhragmen() (*ElectionResult, bool, error) {
	validators, voters, powers, err := s.electionInputs()
	if err != nil {
		return nil, false, err
	}
	count, err := s.validatorCount.Get()
	if err != nil {
		return nil, false, err
	}
	minimum, err := s.minimumValidatorCount.Get()
	if err != nil {
		return nil, false, err
	}
	minimum = max(1, minimum)

	res, err := phragmen.Elect(int(count), int(minimum), validators, voters, phragmen.ChainAccuracy)
	if err != nil {
		if errors.Is(err, phragmen.ErrInsufficientCandidates) {
			logger.Warn("not enough candidates", "candidates", len(validators), "minimum", minimum)
			return nil, false, nil
		}
		return nil, false, err
	}
	if len(res.Winners) < int(minimum) {
		logger.Warn("not enough winners", "winners", len(res.Winners), "minimum", minimum)
		return nil, false, nil
	}

	winners := make([]darwinia.AccountID, 0, len(res.Winners))
	for _, w := range res.Winners {
		winners = append(winners, w.Who)
	}
	staked := phragmen.ToStaked(res.Assignments, phragmen.ChainAccuracy, func(who darwinia.AccountID) uint64 {
		return uint64(powers[who])
	})
	supports, _ := phragmen.BuildSupportMap(winners, staked)
	exposures, err := s.collectExposures(winners, supports, powers)
	if err != nil {
		return nil, false, err
	}
	return &ElectionResult{ElectedStashes: winners, Exposures: exposures, Compute: ComputeOnChain}, true, nil
}

// electionInputs builds the self votes of the validators followed by the
// votes of the nominators. Targets slashed after a nomination was submitted
// are dropped from it.
func (s *Staking) electionInputs() ([]darwinia.AccountID, []phragmen.Voter, map[darwinia.AccountID]darwinia.Power, error) {
	validators, err := s.validators.All()
	if err != nil {
		return nil, nil, nil, err
	}
	nominators, err := s.nominators.All()
	if err != nil {
		return nil, nil, nil, err
	}

	powers := make(map[darwinia.AccountID]darwinia.Power, len(validators)+len(nominators))
	voters := make([]phragmen.Voter, 0, len(validators)+len(nominators))
	for _, v := range validators {
		p, err := s.PowerOf(v)
		if err != nil {
			return nil, nil, nil, err
		}
		powers[v] = p
		voters = append(voters, phragmen.Voter{Who: v, Weight: uint64(p), Targets: []darwinia.AccountID{v}})
	}
	for _, n := range nominators {
		nominations, err := s.nominations.Get(n)
		if err != nil {
			return nil, nil, nil, err
		}
		targets := make([]darwinia.AccountID, 0, len(nominations.Targets))
		for _, t := range nominations.Targets {
			stale, err := s.slashedSince(t, nominations.SubmittedIn)
			if err != nil {
				return nil, nil, nil, err
			}
			if !stale {
				targets = append(targets, t)
			}
		}
		p, err := s.PowerOf(n)
		if err != nil {
			return nil, nil, nil, err
		}
		powers[n] = p
		voters = append(voters, phragmen.Voter{Who: n, Weight: uint64(p), Targets: targets})
	}
	return validators, voters, powers, nil
}

// slashedSince tells whether target was slashed later than era.
func (s *Staking) slashedSince(target darwinia.AccountID, era darwinia.EraIndex) (bool, error) {
	spans, ok, err := s.slashingSpans.Lookup(target)
	if err != nil || !ok {
		return false, err
	}
	return era < spans.LastNonzeroSlash, nil
}

// collectExposures turns supports into exposures, converting each voter's
// power back to the Ring and Kton behind it.
func (s *Staking) collectExposures(
	winners []darwinia.AccountID,
	supports phragmen.SupportMap,
	powers map[darwinia.AccountID]darwinia.Power,
) ([]StashExposure, error) {
	out := make([]StashExposure, 0, len(winners))
	for _, validator := range winners {
		var exp Exposure
		if sup, ok := supports.Get(validator); ok {
			for _, edge := range sup.Voters {
				nominator, stake := edge.Target, edge.Stake
				l, _, err := s.LedgerOfStash(nominator)
				if err != nil {
					return nil, errors.Wrap(err, "exposure ledger")
				}
				origin := uint64(max(powers[nominator], 1))
				ring := darwinia.Balance(darwinia.MulDiv(uint64(l.ActiveRing), stake, origin, darwinia.RoundDown))
				kton := darwinia.Balance(darwinia.MulDiv(uint64(l.ActiveKton), stake, origin, darwinia.RoundDown))
				power := darwinia.Power(stake)
				if nominator == validator {
					exp.OwnRingBalance += ring
					exp.OwnKtonBalance += kton
					exp.OwnPower += power
				} else {
					exp.Others = append(exp.Others, IndividualExposure{
						Who:         nominator,
						RingBalance: ring,
						KtonBalance: kton,
						Power:       power,
					})
				}
				exp.TotalPower = darwinia.SaturatingAdd(exp.TotalPower, power)
			}
		}
		out = append(out, StashExposure{Stash: validator, Exposure: exp})
	}
	return out, nil
}

// SubmitElectionSolution submits an election result computed off chain.
func (s *Staking) SubmitElectionSolution(origin darwinia.Origin, sol *Solution) error {
	if _, err := origin.EnsureSigned(); err != nil {
		return err
	}
	return s.checkAndReplaceSolution(sol, ComputeSigned)
}

// SubmitElectionSolutionUnsigned is the path of the off-chain worker of the
// validator at validatorIndex in the current session.
func (s *Staking) SubmitElectionSolutionUnsigned(origin darwinia.Origin, sol *Solution, validatorIndex uint32) error {
	if err := origin.EnsureNone(); err != nil {
		return err
	}
	current, err := s.deps.Session.Validators()
	if err != nil {
		return err
	}
	if int(validatorIndex) >= len(current) {
		return ErrPhragmenBogusSubmitter
	}
	return s.checkAndReplaceSolution(sol, ComputeUnsigned)
}

// checkAndReplaceSolution verifies a submitted solution against the
// snapshot and queues it if it beats the queued one.
func (s *Staking) checkAndReplaceSolution(sol *Solution, compute ElectionCompute) error {
	status, err := s.eraElectionStatus.Get()
	if err != nil {
		return err
	}
	if !status.Open {
		return ErrPhragmenEarlySubmission
	}
	if era, _, err := s.currentEra.Lookup(); err != nil {
		return err
	} else if era != sol.Era {
		return ErrPhragmenBogusEra
	}
	if queued, ok, err := s.queuedScore.Lookup(); err != nil {
		return err
	} else if ok && !phragmen.IsScoreBetter(queued, sol.Score) {
		return ErrPhragmenWeakSubmission
	}

	snapValidators, ok, err := s.snapshotValidators.Lookup()
	if err != nil {
		return err
	}
	if !ok {
		return ErrSnapshotUnavailable
	}
	snapNominators, ok, err := s.snapshotNominators.Lookup()
	if err != nil {
		return err
	}
	if !ok {
		return ErrSnapshotUnavailable
	}
	if int(sol.Size.Validators) != len(snapValidators) || int(sol.Size.Nominators) != len(snapNominators) {
		return ErrPhragmenBogusElectionSize
	}

	count, err := s.validatorCount.Get()
	if err != nil {
		return err
	}
	if len(sol.Winners) != min(int(count), len(snapValidators)) {
		return ErrPhragmenBogusWinnerCount
	}
	winners := make([]darwinia.AccountID, 0, len(sol.Winners))
	for _, i := range sol.Winners {
		if int(i) >= len(snapValidators) || slices.Contains(winners, snapValidators[i]) {
			return ErrPhragmenBogusWinner
		}
		winners = append(winners, snapValidators[i])
	}

	assignments, err := sol.Compact.IntoAssignment(
		func(i phragmen.VoterIndex) (darwinia.AccountID, bool) {
			if int(i) < len(snapNominators) {
				return snapNominators[i], true
			}
			return darwinia.AccountID{}, false
		},
		func(i phragmen.TargetIndex) (darwinia.AccountID, bool) {
			if int(i) < len(snapValidators) {
				return snapValidators[i], true
			}
			return darwinia.AccountID{}, false
		},
	)
	if err != nil {
		return ErrPhragmenBogusCompact
	}

	powers := make(map[darwinia.AccountID]darwinia.Power, len(assignments))
	for _, a := range assignments {
		if err := s.checkAssignment(a); err != nil {
			return err
		}
		p, err := s.PowerOf(a.Who)
		if err != nil {
			return err
		}
		powers[a.Who] = p
	}

	staked := phragmen.ToStaked(assignments, phragmen.OffchainAccuracy, func(who darwinia.AccountID) uint64 {
		return uint64(powers[who])
	})
	supports, errs := phragmen.BuildSupportMap(winners, staked)
	if errs > 0 {
		return ErrPhragmenBogusEdge
	}
	if phragmen.EvaluateSupport(supports) != sol.Score {
		return ErrPhragmenBogusScore
	}

	exposures, err := s.collectExposures(winners, supports, powers)
	if err != nil {
		return err
	}
	if err := s.queuedElected.Set(ElectionResult{ElectedStashes: winners, Exposures: exposures, Compute: compute}); err != nil {
		return err
	}
	if err := s.queuedScore.Set(sol.Score); err != nil {
		return err
	}
	logger.Info("election solution queued", "compute", compute, "era", sol.Era, "score", sol.Score)
	s.emit(SolutionStored{Compute: compute})
	return nil
}

// checkAssignment verifies a voter only votes as it may: a validator for
// itself alone, a nominator for targets it nominated and that weren't
// slashed since.
func (s *Staking) checkAssignment(a phragmen.Assignment) error {
	isValidator, err := s.validators.Contains(a.Who)
	if err != nil {
		return err
	}
	if isValidator {
		if len(a.Distribution) != 1 ||
			a.Distribution[0].Target != a.Who ||
			a.Distribution[0].Ratio != uint64(phragmen.OffchainAccuracy) {
			return ErrPhragmenBogusSelfVote
		}
		return nil
	}

	nominations, ok, err := s.nominations.Lookup(a.Who)
	if err != nil {
		return err
	}
	if !ok {
		return ErrPhragmenBogusNominator
	}
	for _, e := range a.Distribution {
		if !slices.Contains(nominations.Targets, e.Target) {
			return ErrPhragmenBogusNomination
		}
		slashed, err := s.slashedSince(e.Target, nominations.SubmittedIn)
		if err != nil {
			return err
		}
		if slashed {
			return ErrPhragmenSlashedNomination
		}
	}
	return nil
}
