// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package staking implements dual asset nominated proof of stake: bonding of
// Ring and Kton, validator election, era rotation, reward payout and
// slashing.
package staking

import (
	"github.com/pkg/errors"

	"github.com/darwinia-network/darwinia-go/currency"
	"github.com/darwinia-network/darwinia-go/darwinia"
	"github.com/darwinia-network/darwinia-go/event"
	"github.com/darwinia-network/darwinia-go/log"
	"github.com/darwinia-network/darwinia-go/phragmen"
	"github.com/darwinia-network/darwinia-go/staking/ledger"
	"github.com/darwinia-network/darwinia-go/staking/slashing"
	"github.com/darwinia-network/darwinia-go/state"
	"github.com/darwinia-network/darwinia-go/storage"
)

var logger = log.WithContext("pkg", "staking")

// SetLogger overrides the package logger.
func SetLogger(l log.Logger) {
	logger = l
}

// Config holds the protocol parameters of staking.
type Config struct {
	SessionsPerEra                   darwinia.SessionIndex
	BondingDurationInEra             darwinia.EraIndex
	BondingDurationInBlockNumber     darwinia.BlockNumber
	SlashDeferDuration               darwinia.EraIndex
	ElectionLookahead                darwinia.BlockNumber
	MaxNominatorRewardedPerValidator uint32
	// Cap is the maximum Ring issuance inflation mints towards.
	Cap                 darwinia.Balance
	SlashRewardFraction darwinia.Perbill
}

// SessionInterface is what staking needs from the session layer.
type SessionInterface interface {
	CurrentIndex() (darwinia.SessionIndex, error)
	Validators() ([]darwinia.AccountID, error)
	// DisableValidator disables stash for the rest of the session and
	// reports whether too many validators are disabled.
	DisableValidator(stash darwinia.AccountID) (bool, error)
	PruneHistoricalUpTo(up darwinia.SessionIndex) error
	EstimateNextNewSession(now darwinia.BlockNumber) (darwinia.BlockNumber, bool)
}

// Deps are the collaborators of staking.
type Deps struct {
	Ring    *currency.Currency
	Kton    *currency.Currency
	Clock   darwinia.Clock
	Events  event.Emitter
	Session SessionInterface

	// RingRewardRemainder receives the part of the era payout not paid to validators.
	RingRewardRemainder currency.OnUnbalanced
	// RingSlash and KtonSlash receive slashed funds not paid to reporters.
	RingSlash currency.OnUnbalanced
	KtonSlash currency.OnUnbalanced
}

// Staking is the staking module.
type Staking struct {
	cfg  Config
	deps Deps

	historyDepth          *storage.Value[darwinia.EraIndex]
	validatorCount        *storage.Value[uint32]
	minimumValidatorCount *storage.Value[uint32]
	invulnerables         *storage.Value[[]darwinia.AccountID]
	payoutFraction        *storage.Value[darwinia.Perbill]

	bonded      *storage.Mapping[darwinia.AccountID, darwinia.AccountID]
	ledgers     *storage.Mapping[darwinia.AccountID, ledger.StakingLedger]
	payee       *storage.Mapping[darwinia.AccountID, RewardDestination]
	validators  *storage.List
	prefs       *storage.Mapping[darwinia.AccountID, ValidatorPrefs]
	nominators  *storage.List
	nominations *storage.Mapping[darwinia.AccountID, Nominations]
	ringPool    *storage.Value[darwinia.Balance]
	ktonPool    *storage.Value[darwinia.Balance]

	currentEra            *storage.Value[darwinia.EraIndex]
	activeEra             *storage.Value[ActiveEraInfo]
	erasStartSessionIndex *storage.Mapping[darwinia.EraIndex, darwinia.SessionIndex]
	erasElected           *storage.Mapping[darwinia.EraIndex, []darwinia.AccountID]
	erasStakers           *storage.DoubleMapping[darwinia.EraIndex, darwinia.AccountID, Exposure]
	erasStakersClipped    *storage.DoubleMapping[darwinia.EraIndex, darwinia.AccountID, Exposure]
	erasValidatorPrefs    *storage.DoubleMapping[darwinia.EraIndex, darwinia.AccountID, ValidatorPrefs]
	erasValidatorReward   *storage.Mapping[darwinia.EraIndex, darwinia.Balance]
	erasRewardPoints      *storage.Mapping[darwinia.EraIndex, EraRewardPoints]
	erasTotalStake        *storage.Mapping[darwinia.EraIndex, darwinia.Power]
	forceEra              *storage.Value[Forcing]
	isCurrentSessionFinal *storage.Value[bool]
	livingTime            *storage.Value[darwinia.Moment]

	eraElectionStatus  *storage.Value[ElectionStatus]
	queuedElected      *storage.Value[ElectionResult]
	queuedScore        *storage.Value[phragmen.Score]
	snapshotValidators *storage.Value[[]darwinia.AccountID]
	snapshotNominators *storage.Value[[]darwinia.AccountID]

	unappliedSlashes       *storage.Mapping[darwinia.EraIndex, []UnappliedSlash]
	earliestUnappliedSlash *storage.Value[darwinia.EraIndex]
	bondedEras             *storage.Value[[]BondedEra]
	validatorSlashInEra    *storage.DoubleMapping[darwinia.EraIndex, darwinia.AccountID, ValidatorSlash]
	nominatorSlashInEra    *storage.DoubleMapping[darwinia.EraIndex, darwinia.AccountID, RK]
	slashedInEra           *storage.Mapping[darwinia.EraIndex, []darwinia.AccountID]
	slashingSpans          *storage.Mapping[darwinia.AccountID, slashing.Spans]
	spanSlash              *storage.DoubleMapping[darwinia.AccountID, darwinia.SpanIndex, slashing.SpanRecord]
}

// New creates the staking module over st.
func New(st *state.State, cfg Config, deps Deps) *Staking {
	ctx := storage.NewContext(st, "Staking")
	return &Staking{
		cfg:  cfg,
		deps: deps,

		historyDepth:          storage.NewValue[darwinia.EraIndex](ctx, "HistoryDepth"),
		validatorCount:        storage.NewValue[uint32](ctx, "ValidatorCount"),
		minimumValidatorCount: storage.NewValue[uint32](ctx, "MinimumValidatorCount"),
		invulnerables:         storage.NewValue[[]darwinia.AccountID](ctx, "Invulnerables"),
		payoutFraction:        storage.NewValue[darwinia.Perbill](ctx, "PayoutFraction"),

		bonded:      storage.NewMapping[darwinia.AccountID, darwinia.AccountID](ctx, "Bonded"),
		ledgers:     storage.NewMapping[darwinia.AccountID, ledger.StakingLedger](ctx, "Ledger"),
		payee:       storage.NewMapping[darwinia.AccountID, RewardDestination](ctx, "Payee"),
		validators:  storage.NewList(ctx, "Validators"),
		prefs:       storage.NewMapping[darwinia.AccountID, ValidatorPrefs](ctx, "ValidatorPrefs"),
		nominators:  storage.NewList(ctx, "Nominators"),
		nominations: storage.NewMapping[darwinia.AccountID, Nominations](ctx, "Nominations"),
		ringPool:    storage.NewValue[darwinia.Balance](ctx, "RingPool"),
		ktonPool:    storage.NewValue[darwinia.Balance](ctx, "KtonPool"),

		currentEra:            storage.NewValue[darwinia.EraIndex](ctx, "CurrentEra"),
		activeEra:             storage.NewValue[ActiveEraInfo](ctx, "ActiveEra"),
		erasStartSessionIndex: storage.NewMapping[darwinia.EraIndex, darwinia.SessionIndex](ctx, "ErasStartSessionIndex"),
		erasElected:           storage.NewMapping[darwinia.EraIndex, []darwinia.AccountID](ctx, "ErasElected"),
		erasStakers:           storage.NewDoubleMapping[darwinia.EraIndex, darwinia.AccountID, Exposure](ctx, "ErasStakers"),
		erasStakersClipped:    storage.NewDoubleMapping[darwinia.EraIndex, darwinia.AccountID, Exposure](ctx, "ErasStakersClipped"),
		erasValidatorPrefs:    storage.NewDoubleMapping[darwinia.EraIndex, darwinia.AccountID, ValidatorPrefs](ctx, "ErasValidatorPrefs"),
		erasValidatorReward:   storage.NewMapping[darwinia.EraIndex, darwinia.Balance](ctx, "ErasValidatorReward"),
		erasRewardPoints:      storage.NewMapping[darwinia.EraIndex, EraRewardPoints](ctx, "ErasRewardPoints"),
		erasTotalStake:        storage.NewMapping[darwinia.EraIndex, darwinia.Power](ctx, "ErasTotalStake"),
		forceEra:              storage.NewValue[Forcing](ctx, "ForceEra"),
		isCurrentSessionFinal: storage.NewValue[bool](ctx, "IsCurrentSessionFinal"),
		livingTime:            storage.NewValue[darwinia.Moment](ctx, "LivingTime"),

		eraElectionStatus:  storage.NewValue[ElectionStatus](ctx, "EraElectionStatus"),
		queuedElected:      storage.NewValue[ElectionResult](ctx, "QueuedElected"),
		queuedScore:        storage.NewValue[phragmen.Score](ctx, "QueuedScore"),
		snapshotValidators: storage.NewValue[[]darwinia.AccountID](ctx, "SnapshotValidators"),
		snapshotNominators: storage.NewValue[[]darwinia.AccountID](ctx, "SnapshotNominators"),

		unappliedSlashes:       storage.NewMapping[darwinia.EraIndex, []UnappliedSlash](ctx, "UnappliedSlashes"),
		earliestUnappliedSlash: storage.NewValue[darwinia.EraIndex](ctx, "EarliestUnappliedSlash"),
		bondedEras:             storage.NewValue[[]BondedEra](ctx, "BondedEras"),
		validatorSlashInEra:    storage.NewDoubleMapping[darwinia.EraIndex, darwinia.AccountID, ValidatorSlash](ctx, "ValidatorSlashInEra"),
		nominatorSlashInEra:    storage.NewDoubleMapping[darwinia.EraIndex, darwinia.AccountID, RK](ctx, "NominatorSlashInEra"),
		slashedInEra:           storage.NewMapping[darwinia.EraIndex, []darwinia.AccountID](ctx, "SlashedInEra"),
		slashingSpans:          storage.NewMapping[darwinia.AccountID, slashing.Spans](ctx, "SlashingSpans"),
		spanSlash:              storage.NewDoubleMapping[darwinia.AccountID, darwinia.SpanIndex, slashing.SpanRecord](ctx, "SpanSlash"),
	}
}

// SetSession wires the session layer. The session layer in turn drives
// staking through SessionManager, so one of the two is wired late.
func (s *Staking) SetSession(sess SessionInterface) {
	s.deps.Session = sess
}

// AccountID is the pot era payouts are minted into.
func (s *Staking) AccountID() darwinia.AccountID {
	return darwinia.StakingModuleID.Account()
}

func (s *Staking) emit(ev event.Event) {
	s.deps.Events.Emit(ev)
}

//
// Getters - no state change
//

// Bonded returns the controller of stash.
func (s *Staking) Bonded(stash darwinia.AccountID) (darwinia.AccountID, bool, error) {
	return s.bonded.Lookup(stash)
}

// Ledger returns the ledger controlled by controller.
func (s *Staking) Ledger(controller darwinia.AccountID) (*ledger.StakingLedger, bool, error) {
	l, ok, err := s.ledgers.Lookup(controller)
	if err != nil || !ok {
		return nil, ok, err
	}
	return &l, true, nil
}

// LedgerOfStash returns the ledger of stash and its controller.
func (s *Staking) LedgerOfStash(stash darwinia.AccountID) (*ledger.StakingLedger, darwinia.AccountID, error) {
	controller, ok, err := s.bonded.Lookup(stash)
	if err != nil {
		return nil, darwinia.AccountID{}, err
	}
	if !ok {
		return nil, darwinia.AccountID{}, ErrNotStash
	}
	l, ok, err := s.Ledger(controller)
	if err != nil {
		return nil, controller, err
	}
	if !ok {
		return nil, controller, ErrNotController
	}
	return l, controller, nil
}

func (s *Staking) Payee(stash darwinia.AccountID) (RewardDestination, error) {
	return s.payee.Get(stash)
}

// Validators returns the declared validators in declaration order.
func (s *Staking) Validators() ([]darwinia.AccountID, error) {
	return s.validators.All()
}

func (s *Staking) ValidatorPrefs(stash darwinia.AccountID) (ValidatorPrefs, error) {
	return s.prefs.Get(stash)
}

// Nominators returns the nominators in nomination order.
func (s *Staking) Nominators() ([]darwinia.AccountID, error) {
	return s.nominators.All()
}

func (s *Staking) Nominations(stash darwinia.AccountID) (Nominations, bool, error) {
	return s.nominations.Lookup(stash)
}

func (s *Staking) RingPool() (darwinia.Balance, error) { return s.ringPool.Get() }
func (s *Staking) KtonPool() (darwinia.Balance, error) { return s.ktonPool.Get() }

// CurrentEra returns the era being planned, if any.
func (s *Staking) CurrentEra() (darwinia.EraIndex, bool, error) {
	return s.currentEra.Lookup()
}

// ActiveEra returns the era being rewarded, if any.
func (s *Staking) ActiveEra() (ActiveEraInfo, bool, error) {
	return s.activeEra.Lookup()
}

func (s *Staking) ErasStartSessionIndex(era darwinia.EraIndex) (darwinia.SessionIndex, bool, error) {
	return s.erasStartSessionIndex.Lookup(era)
}

func (s *Staking) ErasStakers(era darwinia.EraIndex, stash darwinia.AccountID) (Exposure, error) {
	return s.erasStakers.Get(era, stash)
}

func (s *Staking) ErasStakersClipped(era darwinia.EraIndex, stash darwinia.AccountID) (Exposure, error) {
	return s.erasStakersClipped.Get(era, stash)
}

func (s *Staking) ErasValidatorReward(era darwinia.EraIndex) (darwinia.Balance, bool, error) {
	return s.erasValidatorReward.Lookup(era)
}

func (s *Staking) ErasRewardPoints(era darwinia.EraIndex) (EraRewardPoints, error) {
	return s.erasRewardPoints.Get(era)
}

func (s *Staking) ErasTotalStake(era darwinia.EraIndex) (darwinia.Power, error) {
	return s.erasTotalStake.Get(era)
}

// ErasElected returns the validators elected for era.
func (s *Staking) ErasElected(era darwinia.EraIndex) ([]darwinia.AccountID, error) {
	return s.erasElected.Get(era)
}

func (s *Staking) EraElectionStatus() (ElectionStatus, error) {
	return s.eraElectionStatus.Get()
}

func (s *Staking) SnapshotValidators() ([]darwinia.AccountID, bool, error) {
	return s.snapshotValidators.Lookup()
}

func (s *Staking) SnapshotNominators() ([]darwinia.AccountID, bool, error) {
	return s.snapshotNominators.Lookup()
}

func (s *Staking) QueuedScore() (phragmen.Score, bool, error) {
	return s.queuedScore.Lookup()
}

func (s *Staking) UnappliedSlashes(era darwinia.EraIndex) ([]UnappliedSlash, error) {
	return s.unappliedSlashes.Get(era)
}

func (s *Staking) SlashingSpans(stash darwinia.AccountID) (*slashing.Spans, bool, error) {
	spans, ok, err := s.slashingSpans.Lookup(stash)
	if err != nil || !ok {
		return nil, ok, err
	}
	return &spans, true, nil
}

func (s *Staking) SpanSlash(stash darwinia.AccountID, span darwinia.SpanIndex) (slashing.SpanRecord, error) {
	return s.spanSlash.Get(stash, span)
}

func (s *Staking) ValidatorCount() (uint32, error)        { return s.validatorCount.Get() }
func (s *Staking) MinimumValidatorCount() (uint32, error) { return s.minimumValidatorCount.Get() }
func (s *Staking) HistoryDepth() (darwinia.EraIndex, error) {
	return s.historyDepth.Get()
}
func (s *Staking) Invulnerables() ([]darwinia.AccountID, error) { return s.invulnerables.Get() }
func (s *Staking) ForceEra() (Forcing, error)                   { return s.forceEra.Get() }
func (s *Staking) PayoutFraction() (darwinia.Perbill, error)    { return s.payoutFraction.Get() }
func (s *Staking) LivingTime() (darwinia.Moment, error)         { return s.livingTime.Get() }

// PowerOf returns the voting power of stash: its share of each pool scaled
// to half of TotalPower, summed over Ring and Kton.
func (s *Staking) PowerOf(stash darwinia.AccountID) (darwinia.Power, error) {
	controller, ok, err := s.bonded.Lookup(stash)
	if err != nil || !ok {
		return 0, err
	}
	l, ok, err := s.ledgers.Lookup(controller)
	if err != nil || !ok {
		return 0, err
	}
	ringPool, err := s.ringPool.Get()
	if err != nil {
		return 0, err
	}
	ktonPool, err := s.ktonPool.Get()
	if err != nil {
		return 0, err
	}
	return currencyToPower(l.ActiveRing, ringPool) + currencyToPower(l.ActiveKton, ktonPool), nil
}

func currencyToPower(active, pool darwinia.Balance) darwinia.Power {
	share := darwinia.PerquintillFromRational(uint64(active), uint64(max(pool, 1)))
	return darwinia.Power(share.Mul(uint64(darwinia.TotalPower / 2)))
}

// Genesis parameters of staking.
type Genesis struct {
	HistoryDepth          darwinia.EraIndex
	ValidatorCount        uint32
	MinimumValidatorCount uint32
	Invulnerables         []darwinia.AccountID
	PayoutFraction        darwinia.Perbill
	ForceEra              Forcing
}

// InitGenesis stores the genesis parameters. Stakers are bonded through the
// regular calls afterwards.
func (s *Staking) InitGenesis(g Genesis) error {
	if err := s.historyDepth.Set(g.HistoryDepth); err != nil {
		return err
	}
	if err := s.validatorCount.Set(g.ValidatorCount); err != nil {
		return err
	}
	if err := s.minimumValidatorCount.Set(g.MinimumValidatorCount); err != nil {
		return err
	}
	if err := s.invulnerables.Set(g.Invulnerables); err != nil {
		return err
	}
	if err := s.payoutFraction.Set(g.PayoutFraction); err != nil {
		return err
	}
	if err := s.forceEra.Set(g.ForceEra); err != nil {
		return err
	}
	return errors.Wrap(s.eraElectionStatus.Set(ElectionStatus{}), "init election status")
}
