// Copyright (c) 2025 The Lockpool developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package tier derives a stake's share weight from its amount and lock
// duration. The weight combines a deposit-size tier bonus with a convex
// time bonus, both fixed-point numerators over lockpool.BaseMultiplier.
package tier

import (
	"errors"
	"math/big"

	"github.com/lockpool/lockpool/lockpool"
)

var (
	ErrThresholdOrder = errors.New("tier thresholds must be strictly increasing")
	ErrNoMaxNumerator = errors.New("max numerator must be positive")
	ErrZeroShares     = errors.New("amount too small for any shares")
)

// Config holds the immutable tier and time bonus parameters.
// Bonus values are extra numerator units above lockpool.BaseMultiplier,
// e.g. 50_000 means +5%.
type Config struct {
	SilverThreshold  *big.Int
	GoldThreshold    *big.Int
	DiamondThreshold *big.Int

	SilverBonus  uint64
	GoldBonus    uint64
	DiamondBonus uint64

	// Time bonus = base + LinearScale*lockDays + QuadraticScale*lockDays^2.
	LinearScale    uint64
	QuadraticScale uint64

	// MaxNumerator caps the combined numerator, which is scaled by
	// BaseMultiplier^2 (the product of two BaseMultiplier-scaled bonuses).
	MaxNumerator *big.Int
}

// Schedule is the immutable multiplier calculator built from a Config.
type Schedule struct {
	cfg Config
}

// NewSchedule validates the config and builds a schedule.
func NewSchedule(cfg Config) (*Schedule, error) {
	if cfg.SilverThreshold == nil || cfg.GoldThreshold == nil || cfg.DiamondThreshold == nil {
		return nil, ErrThresholdOrder
	}
	if cfg.SilverThreshold.Sign() <= 0 ||
		cfg.SilverThreshold.Cmp(cfg.GoldThreshold) >= 0 ||
		cfg.GoldThreshold.Cmp(cfg.DiamondThreshold) >= 0 {
		return nil, ErrThresholdOrder
	}
	if cfg.MaxNumerator == nil || cfg.MaxNumerator.Sign() <= 0 {
		return nil, ErrNoMaxNumerator
	}
	cloned := cfg
	cloned.SilverThreshold = new(big.Int).Set(cfg.SilverThreshold)
	cloned.GoldThreshold = new(big.Int).Set(cfg.GoldThreshold)
	cloned.DiamondThreshold = new(big.Int).Set(cfg.DiamondThreshold)
	cloned.MaxNumerator = new(big.Int).Set(cfg.MaxNumerator)
	return &Schedule{cfg: cloned}, nil
}

// tierBonus returns the BaseMultiplier-scaled bonus for the highest tier the
// amount qualifies for. Tiers are mutually exclusive, not cumulative.
func (s *Schedule) tierBonus(amount *big.Int) uint64 {
	switch {
	case amount.Cmp(s.cfg.DiamondThreshold) >= 0:
		return lockpool.BaseMultiplier + s.cfg.DiamondBonus
	case amount.Cmp(s.cfg.GoldThreshold) >= 0:
		return lockpool.BaseMultiplier + s.cfg.GoldBonus
	case amount.Cmp(s.cfg.SilverThreshold) >= 0:
		return lockpool.BaseMultiplier + s.cfg.SilverBonus
	default:
		return lockpool.BaseMultiplier
	}
}

// timeBonus returns the BaseMultiplier-scaled convex time bonus.
func (s *Schedule) timeBonus(lockDays uint32) *big.Int {
	days := new(big.Int).SetUint64(uint64(lockDays))
	bonus := new(big.Int).Mul(days, days)
	bonus.Mul(bonus, new(big.Int).SetUint64(s.cfg.QuadraticScale))
	linear := new(big.Int).Mul(days, new(big.Int).SetUint64(s.cfg.LinearScale))
	bonus.Add(bonus, linear)
	return bonus.Add(bonus, lockpool.BaseMultiplierBig)
}

// Multiplier computes the combined numerator for the given amount and lock
// duration. The result is scaled by BaseMultiplier^2 and clamped to the
// configured maximum. The clamp is applied to the full product, so no
// intermediate truncation can sneak past it.
func (s *Schedule) Multiplier(amount *big.Int, lockDays uint32) *big.Int {
	numerator := s.timeBonus(lockDays)
	numerator.Mul(numerator, new(big.Int).SetUint64(s.tierBonus(amount)))
	if numerator.Cmp(s.cfg.MaxNumerator) > 0 {
		return new(big.Int).Set(s.cfg.MaxNumerator)
	}
	return numerator
}

// Shares converts a deposit into its share weight:
// amount * multiplier / BaseMultiplier^2, floor-divided.
// A non-zero amount that floors to zero shares is rejected rather than
// silently accepted with zero weight.
func (s *Schedule) Shares(amount *big.Int, lockDays uint32) (*big.Int, error) {
	shares := new(big.Int).Mul(amount, s.Multiplier(amount, lockDays))
	shares.Div(shares, lockpool.BaseMultiplierSquared)
	if shares.Sign() == 0 && amount.Sign() > 0 {
		return nil, ErrZeroShares
	}
	return shares, nil
}
