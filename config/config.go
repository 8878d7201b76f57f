// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package config loads the chain configuration from YAML. Values missing
// from the file keep their defaults.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/darwinia-network/darwinia-go/darwinia"
	"github.com/darwinia-network/darwinia-go/feemarket"
	"github.com/darwinia-network/darwinia-go/offchain"
	"github.com/darwinia-network/darwinia-go/runtime"
	"github.com/darwinia-network/darwinia-go/session"
	"github.com/darwinia-network/darwinia-go/staking"
)

// Config is the full configuration.
type Config struct {
	Ring      Currency  `yaml:"ring"`
	Kton      Currency  `yaml:"kton"`
	Staking   Staking   `yaml:"staking"`
	Session   Session   `yaml:"session"`
	FeeMarket FeeMarket `yaml:"feemarket"`
	Offchain  Offchain  `yaml:"offchain"`
	Genesis   Genesis   `yaml:"genesis"`
	Traffic   Traffic   `yaml:"traffic"`
	Log       Log       `yaml:"log"`
	Metrics   Metrics   `yaml:"metrics"`
}

type Currency struct {
	ExistentialDeposit darwinia.Balance `yaml:"existentialDeposit"`
}

type Staking struct {
	SessionsPerEra                   darwinia.SessionIndex `yaml:"sessionsPerEra"`
	BondingDurationInEra             darwinia.EraIndex     `yaml:"bondingDurationInEra"`
	BondingDurationInBlockNumber     darwinia.BlockNumber  `yaml:"bondingDurationInBlockNumber"`
	SlashDeferDuration               darwinia.EraIndex     `yaml:"slashDeferDuration"`
	ElectionLookahead                darwinia.BlockNumber  `yaml:"electionLookahead"`
	MaxNominatorRewardedPerValidator uint32                `yaml:"maxNominatorRewardedPerValidator"`
	Cap                              darwinia.Balance      `yaml:"cap"`
	// percentages
	SlashRewardFraction uint32 `yaml:"slashRewardFraction"`
	PayoutFraction      uint32 `yaml:"payoutFraction"`

	HistoryDepth          darwinia.EraIndex `yaml:"historyDepth"`
	ValidatorCount        uint32            `yaml:"validatorCount"`
	MinimumValidatorCount uint32            `yaml:"minimumValidatorCount"`
	Invulnerables         []Account         `yaml:"invulnerables,omitempty"`
}

type Session struct {
	Period darwinia.BlockNumber `yaml:"period"`
	Offset darwinia.BlockNumber `yaml:"offset"`
	// DisabledThreshold is the percentage of disabled validators that
	// forces a new era.
	DisabledThreshold uint32 `yaml:"disabledThreshold"`
}

type FeeMarket struct {
	MinimumLockCollateral darwinia.Balance       `yaml:"minimumLockCollateral"`
	MinimumRelayFee       darwinia.Balance       `yaml:"minimumRelayFee"`
	CollateralPerOrder    darwinia.Balance       `yaml:"collateralPerOrder"`
	SlotTimes             []darwinia.BlockNumber `yaml:"slotTimes"`
	// percentages
	ForAssignedRelayers uint32           `yaml:"forAssignedRelayers"`
	ForMessageRelayer   uint32           `yaml:"forMessageRelayer"`
	ForConfirmRelayer   uint32           `yaml:"forConfirmRelayer"`
	SlashPerBlock       darwinia.Balance `yaml:"slashPerBlock"`
}

type Offchain struct {
	Enabled bool          `yaml:"enabled"`
	Timeout time.Duration `yaml:"timeout"`
}

// Genesis describes block 0.
type Genesis struct {
	Timestamp darwinia.Moment `yaml:"timestamp"`
	Accounts  []Endowment     `yaml:"accounts"`
	Stakers   []Staker        `yaml:"stakers"`
}

type Endowment struct {
	Account Account          `yaml:"account"`
	Ring    darwinia.Balance `yaml:"ring"`
	Kton    darwinia.Balance `yaml:"kton"`
}

type Staker struct {
	Stash      Account          `yaml:"stash"`
	Controller Account          `yaml:"controller"`
	Ring       darwinia.Balance `yaml:"ring"`
	Kton       darwinia.Balance `yaml:"kton"`
	Validator  bool             `yaml:"validator"`
	Commission uint32           `yaml:"commission"`
	Targets    []Account        `yaml:"targets,omitempty"`
}

// Traffic drives the simulated users of the chain.
type Traffic struct {
	BlockTime darwinia.Moment `yaml:"blockTime"`
	Relayers  []Account       `yaml:"relayers"`
	// Sender pays for a message every MessageInterval blocks; zero sends none.
	Sender          Account              `yaml:"sender"`
	MessageInterval darwinia.BlockNumber `yaml:"messageInterval"`
	// ConfirmDelay is the number of blocks a message waits for confirmation.
	ConfirmDelay darwinia.BlockNumber `yaml:"confirmDelay"`
	// Payout claims the rewards of every validator when an era ends.
	Payout bool `yaml:"payout"`
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type Metrics struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// Account is an account given either as 0x prefixed hex or as a name of a
// well-known development account.
type Account string

// ID resolves the account.
func (a Account) ID() (darwinia.AccountID, error) {
	s := string(a)
	if strings.HasPrefix(s, "0x") {
		return darwinia.ParseAccountID(s)
	}
	if s == "" {
		return darwinia.AccountID{}, errors.New("empty account")
	}
	return darwinia.NamedAccount(s), nil
}

func resolve(accounts []Account) ([]darwinia.AccountID, error) {
	out := make([]darwinia.AccountID, 0, len(accounts))
	for _, a := range accounts {
		id, err := a.ID()
		if err != nil {
			return nil, errors.Wrapf(err, "account %q", a)
		}
		out = append(out, id)
	}
	return out, nil
}

// Load reads path over the defaults and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config")
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Marshal encodes c as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// Validate rejects inconsistent values.
func (c *Config) Validate() error {
	switch {
	case c.Staking.SessionsPerEra == 0:
		return errors.New("staking.sessionsPerEra must not be 0")
	case c.Session.Period == 0:
		return errors.New("session.period must not be 0")
	case c.Staking.ElectionLookahead >= c.Session.Period:
		return errors.New("staking.electionLookahead must be shorter than session.period")
	case c.Staking.ValidatorCount == 0:
		return errors.New("staking.validatorCount must not be 0")
	case c.Staking.MinimumValidatorCount > c.Staking.ValidatorCount:
		return errors.New("staking.minimumValidatorCount exceeds validatorCount")
	case c.Staking.SlashRewardFraction > 100, c.Staking.PayoutFraction > 100, c.Session.DisabledThreshold > 100:
		return errors.New("percentages must not exceed 100")
	}

	fm := c.FeeMarket
	if len(fm.SlotTimes) != feemarket.AssignedRelayersNumber {
		return errors.Errorf("feemarket.slotTimes must have %d entries", feemarket.AssignedRelayersNumber)
	}
	for _, slot := range fm.SlotTimes {
		if slot == 0 {
			return errors.New("feemarket.slotTimes must not contain 0")
		}
	}
	if fm.ForAssignedRelayers > 100 {
		return errors.New("feemarket.forAssignedRelayers must not exceed 100")
	}
	if fm.ForMessageRelayer+fm.ForConfirmRelayer > 100 {
		return errors.New("feemarket message and confirm relayer ratios sum over 100")
	}
	if fm.MinimumLockCollateral < fm.CollateralPerOrder {
		return errors.New("feemarket.minimumLockCollateral is below collateralPerOrder")
	}

	if _, err := c.GenesisConfig(); err != nil {
		return err
	}
	if _, err := resolve(c.Traffic.Relayers); err != nil {
		return errors.Wrap(err, "traffic.relayers")
	}
	if c.Traffic.MessageInterval > 0 {
		if _, err := c.Traffic.Sender.ID(); err != nil {
			return errors.Wrap(err, "traffic.sender")
		}
	}
	return nil
}

// RuntimeConfig returns the module parameters.
func (c *Config) RuntimeConfig() runtime.Config {
	var slots [feemarket.AssignedRelayersNumber]darwinia.BlockNumber
	copy(slots[:], c.FeeMarket.SlotTimes)

	return runtime.Config{
		RingExistentialDeposit: c.Ring.ExistentialDeposit,
		KtonExistentialDeposit: c.Kton.ExistentialDeposit,
		Staking: staking.Config{
			SessionsPerEra:                   c.Staking.SessionsPerEra,
			BondingDurationInEra:             c.Staking.BondingDurationInEra,
			BondingDurationInBlockNumber:     c.Staking.BondingDurationInBlockNumber,
			SlashDeferDuration:               c.Staking.SlashDeferDuration,
			ElectionLookahead:                c.Staking.ElectionLookahead,
			MaxNominatorRewardedPerValidator: c.Staking.MaxNominatorRewardedPerValidator,
			Cap:                              c.Staking.Cap,
			SlashRewardFraction:              darwinia.PerbillFromPercent(c.Staking.SlashRewardFraction),
		},
		Session: session.Config{
			Period:            c.Session.Period,
			Offset:            c.Session.Offset,
			DisabledThreshold: darwinia.PerbillFromPercent(c.Session.DisabledThreshold),
		},
		FeeMarket: feemarket.Config{
			MinimumLockCollateral: c.FeeMarket.MinimumLockCollateral,
			MinimumRelayFee:       c.FeeMarket.MinimumRelayFee,
			CollateralPerOrder:    c.FeeMarket.CollateralPerOrder,
			SlotTimes:             slots,
			ForAssignedRelayers:   darwinia.PermillFromPercent(c.FeeMarket.ForAssignedRelayers),
			ForMessageRelayer:     darwinia.PermillFromPercent(c.FeeMarket.ForMessageRelayer),
			ForConfirmRelayer:     darwinia.PermillFromPercent(c.FeeMarket.ForConfirmRelayer),
			SlashPerBlock:         c.FeeMarket.SlashPerBlock,
		},
	}
}

// GenesisConfig resolves the genesis section.
func (c *Config) GenesisConfig() (runtime.GenesisConfig, error) {
	invulnerables, err := resolve(c.Staking.Invulnerables)
	if err != nil {
		return runtime.GenesisConfig{}, errors.Wrap(err, "staking.invulnerables")
	}
	g := runtime.GenesisConfig{
		Timestamp: c.Genesis.Timestamp,
		Staking: staking.Genesis{
			HistoryDepth:          c.Staking.HistoryDepth,
			ValidatorCount:        c.Staking.ValidatorCount,
			MinimumValidatorCount: c.Staking.MinimumValidatorCount,
			Invulnerables:         invulnerables,
			PayoutFraction:        darwinia.PerbillFromPercent(c.Staking.PayoutFraction),
		},
	}

	endowed := make(map[darwinia.AccountID]bool)
	for i, e := range c.Genesis.Accounts {
		id, err := e.Account.ID()
		if err != nil {
			return runtime.GenesisConfig{}, errors.Wrapf(err, "genesis.accounts[%d]", i)
		}
		endowed[id] = true
		g.Accounts = append(g.Accounts, runtime.GenesisAccount{Account: id, Ring: e.Ring, Kton: e.Kton})
	}
	for i, s := range c.Genesis.Stakers {
		stash, err := s.Stash.ID()
		if err != nil {
			return runtime.GenesisConfig{}, errors.Wrapf(err, "genesis.stakers[%d].stash", i)
		}
		if !endowed[stash] {
			return runtime.GenesisConfig{}, errors.Errorf("genesis.stakers[%d]: stash %s is not endowed", i, s.Stash)
		}
		controller, err := s.Controller.ID()
		if err != nil {
			return runtime.GenesisConfig{}, errors.Wrapf(err, "genesis.stakers[%d].controller", i)
		}
		targets, err := resolve(s.Targets)
		if err != nil {
			return runtime.GenesisConfig{}, errors.Wrapf(err, "genesis.stakers[%d].targets", i)
		}
		if s.Commission > 100 {
			return runtime.GenesisConfig{}, errors.Errorf("genesis.stakers[%d]: commission over 100", i)
		}
		g.Stakers = append(g.Stakers, runtime.GenesisStaker{
			Stash:      stash,
			Controller: controller,
			Ring:       s.Ring,
			Kton:       s.Kton,
			Validator:  s.Validator,
			Commission: darwinia.PerbillFromPercent(s.Commission),
			Targets:    targets,
		})
	}
	return g, nil
}

// OffchainConfig returns the worker configuration for validator.
func (c *Config) OffchainConfig(validator darwinia.AccountID) offchain.Config {
	return offchain.Config{Validator: validator, Timeout: c.Offchain.Timeout}
}
