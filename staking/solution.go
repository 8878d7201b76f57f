// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"github.com/pkg/errors"

	"github.com/darwinia-network/darwinia-go/darwinia"
	"github.com/darwinia-network/darwinia-go/phragmen"
)

// ElectionSnapshot is the input of an off-chain election, read from the
// frozen snapshot. Voters follow the snapshot nominator order.
type ElectionSnapshot struct {
	Era        darwinia.EraIndex
	Desired    int
	Validators []darwinia.AccountID
	Voters     []phragmen.Voter
}

// Snapshot reads the election input while the election window is open.
func (s *Staking) Snapshot() (*ElectionSnapshot, bool, error) {
	status, err := s.eraElectionStatus.Get()
	if err != nil || !status.Open {
		return nil, false, err
	}
	validators, ok, err := s.snapshotValidators.Lookup()
	if err != nil || !ok {
		return nil, false, err
	}
	nominators, ok, err := s.snapshotNominators.Lookup()
	if err != nil || !ok {
		return nil, false, err
	}
	era, _, err := s.currentEra.Lookup()
	if err != nil {
		return nil, false, err
	}
	count, err := s.validatorCount.Get()
	if err != nil {
		return nil, false, err
	}

	voters := make([]phragmen.Voter, 0, len(nominators))
	for _, who := range nominators {
		power, err := s.PowerOf(who)
		if err != nil {
			return nil, false, err
		}
		v := phragmen.Voter{Who: who, Weight: uint64(power)}
		if ok, err := s.validators.Contains(who); err != nil {
			return nil, false, err
		} else if ok {
			v.Targets = []darwinia.AccountID{who}
			voters = append(voters, v)
			continue
		}
		nominations, err := s.nominations.Get(who)
		if err != nil {
			return nil, false, err
		}
		for _, t := range nominations.Targets {
			slashed, err := s.slashedSince(t, nominations.SubmittedIn)
			if err != nil {
				return nil, false, err
			}
			if !slashed {
				v.Targets = append(v.Targets, t)
			}
		}
		voters = append(voters, v)
	}

	return &ElectionSnapshot{
		Era:        era,
		Desired:    min(int(count), len(validators)),
		Validators: validators,
		Voters:     voters,
	}, true, nil
}

// MineSolution runs the election over snap at off-chain accuracy and
// encodes the result as a solution.
func MineSolution(snap *ElectionSnapshot) (*Solution, error) {
	res, err := phragmen.Elect(snap.Desired, 1, snap.Validators, snap.Voters, phragmen.OffchainAccuracy)
	if err != nil {
		return nil, errors.Wrap(err, "elect")
	}
	return EncodeSolution(snap, res)
}

// EncodeSolution converts an election result over snap into a solution.
func EncodeSolution(snap *ElectionSnapshot, res *phragmen.Result) (*Solution, error) {
	targetIndex := make(map[darwinia.AccountID]phragmen.TargetIndex, len(snap.Validators))
	for i, v := range snap.Validators {
		targetIndex[v] = phragmen.TargetIndex(i)
	}
	voterIndex := make(map[darwinia.AccountID]phragmen.VoterIndex, len(snap.Voters))
	weights := make(map[darwinia.AccountID]uint64, len(snap.Voters))
	for i, v := range snap.Voters {
		voterIndex[v.Who] = phragmen.VoterIndex(i)
		weights[v.Who] = v.Weight
	}

	sol := &Solution{
		Era: snap.Era,
		Size: ElectionSize{
			Validators: phragmen.TargetIndex(len(snap.Validators)),
			Nominators: phragmen.VoterIndex(len(snap.Voters)),
		},
	}
	winners := make([]darwinia.AccountID, 0, len(res.Winners))
	for _, w := range res.Winners {
		i, ok := targetIndex[w.Who]
		if !ok {
			return nil, errors.Errorf("winner %v not in snapshot", w.Who)
		}
		sol.Winners = append(sol.Winners, i)
		winners = append(winners, w.Who)
	}

	compact, err := phragmen.CompactFromAssignment(
		res.Assignments,
		func(who darwinia.AccountID) (phragmen.VoterIndex, bool) {
			i, ok := voterIndex[who]
			return i, ok
		},
		func(who darwinia.AccountID) (phragmen.TargetIndex, bool) {
			i, ok := targetIndex[who]
			return i, ok
		},
	)
	if err != nil {
		return nil, errors.Wrap(err, "compact")
	}
	sol.Compact = *compact

	// the score is computed from the compact the way it will be verified
	assignments, err := compact.IntoAssignment(
		func(i phragmen.VoterIndex) (darwinia.AccountID, bool) {
			if int(i) < len(snap.Voters) {
				return snap.Voters[i].Who, true
			}
			return darwinia.AccountID{}, false
		},
		func(i phragmen.TargetIndex) (darwinia.AccountID, bool) {
			if int(i) < len(snap.Validators) {
				return snap.Validators[i], true
			}
			return darwinia.AccountID{}, false
		},
	)
	if err != nil {
		return nil, errors.Wrap(err, "decode compact")
	}
	staked := phragmen.ToStaked(assignments, phragmen.OffchainAccuracy, func(who darwinia.AccountID) uint64 {
		return weights[who]
	})
	supports, _ := phragmen.BuildSupportMap(winners, staked)
	sol.Score = phragmen.EvaluateSupport(supports)
	return sol, nil
}
