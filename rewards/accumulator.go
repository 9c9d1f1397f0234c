// Copyright (c) 2025 The Lockpool developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package rewards implements the lazy reward accumulator: a single
// monotonically non-decreasing reward-per-share value settled on demand,
// with per-stake debt snapshots. This keeps reward distribution O(1) per
// operation for any number of stakers.
package rewards

import (
	"errors"
	"math/big"

	"github.com/lockpool/lockpool/lockpool"
	"github.com/lockpool/lockpool/stakes"
)

var (
	ErrClockRegression = errors.New("settlement clock moved backwards")
	ErrNegativeShares  = errors.New("total shares would go negative")
)

// Accrued returns the reward earned between last and min(now, end) at the
// given per-second rate.
//
// This is the single source of accrual arithmetic. Both the mutating
// settlement and the read-only preview go through it, so the two paths
// cannot drift apart.
func Accrued(now, last, end uint64, rate *big.Int) *big.Int {
	if now > end {
		now = end
	}
	if now <= last {
		return new(big.Int)
	}
	elapsed := new(big.Int).SetUint64(now - last)
	return elapsed.Mul(elapsed, rate)
}

// Accumulator is the global lazy-settlement state.
type Accumulator struct {
	totalShares *big.Int
	accPerShare *big.Int // cumulative reward per share, RewardScale-scaled
	lastUpdate  uint64
}

// New creates an empty accumulator.
func New() *Accumulator {
	return &Accumulator{
		totalShares: new(big.Int),
		accPerShare: new(big.Int),
	}
}

// Restore rebuilds an accumulator from persisted state.
func Restore(totalShares, accPerShare *big.Int, lastUpdate uint64) *Accumulator {
	return &Accumulator{
		totalShares: new(big.Int).Set(totalShares),
		accPerShare: new(big.Int).Set(accPerShare),
		lastUpdate:  lastUpdate,
	}
}

// TotalShares returns the sum of shares across all live stakes.
func (a *Accumulator) TotalShares() *big.Int {
	return new(big.Int).Set(a.totalShares)
}

// AccPerShare returns the RewardScale-scaled cumulative reward per share.
func (a *Accumulator) AccPerShare() *big.Int {
	return new(big.Int).Set(a.accPerShare)
}

// LastUpdate returns the settlement-clock time of the last advance.
func (a *Accumulator) LastUpdate() uint64 {
	return a.lastUpdate
}

// AddShares grows the share total when a stake is created.
func (a *Accumulator) AddShares(delta *big.Int) {
	a.totalShares.Add(a.totalShares, delta)
}

// SubShares shrinks the share total when a stake is removed.
func (a *Accumulator) SubShares(delta *big.Int) error {
	if a.totalShares.Cmp(delta) < 0 {
		return ErrNegativeShares
	}
	a.totalShares.Sub(a.totalShares, delta)
	return nil
}

// Settle advances the accumulator to now, crediting reward accrued since
// the last settlement, clamped at the period end. When the pool holds no
// shares or is unfunded, lastUpdate still advances so a later funding or
// deposit is never credited retroactively for shareless time.
func (a *Accumulator) Settle(now, end uint64, rate *big.Int, funded bool) error {
	if now == a.lastUpdate {
		return nil
	}
	if now < a.lastUpdate {
		return ErrClockRegression
	}
	if funded && a.totalShares.Sign() > 0 {
		accrued := Accrued(now, a.lastUpdate, end, rate)
		if accrued.Sign() > 0 {
			perShare := accrued.Mul(accrued, lockpool.RewardScale)
			perShare.Div(perShare, a.totalShares)
			a.accPerShare.Add(a.accPerShare, perShare)
		}
	}
	a.lastUpdate = now
	return nil
}

// PreviewPerShare returns what AccPerShare would be after Settle(now),
// without mutating state. It mirrors Settle exactly by sharing Accrued.
func (a *Accumulator) PreviewPerShare(now, end uint64, rate *big.Int, funded bool) *big.Int {
	acc := new(big.Int).Set(a.accPerShare)
	if !funded || a.totalShares.Sign() == 0 || now <= a.lastUpdate {
		return acc
	}
	accrued := Accrued(now, a.lastUpdate, end, rate)
	if accrued.Sign() > 0 {
		perShare := accrued.Mul(accrued, lockpool.RewardScale)
		perShare.Div(perShare, a.totalShares)
		acc.Add(acc, perShare)
	}
	return acc
}

// Pending computes the stake's newly accrued, unclaimed reward against the
// current accumulator value.
func (a *Accumulator) Pending(s *stakes.Stake) *big.Int {
	return pendingAt(s, a.accPerShare)
}

// PendingAt computes a stake's unclaimed reward against an explicit
// accumulator value, e.g. one produced by PreviewPerShare.
func PendingAt(s *stakes.Stake, accPerShare *big.Int) *big.Int {
	return pendingAt(s, accPerShare)
}

func pendingAt(s *stakes.Stake, accPerShare *big.Int) *big.Int {
	credited := new(big.Int).Mul(s.Shares, accPerShare)
	credited.Div(credited, lockpool.RewardScale)
	credited.Sub(credited, s.RewardDebt)
	if credited.Sign() < 0 {
		return new(big.Int)
	}
	return credited
}

// SettleStake credits the stake up to the current accumulator value,
// advancing its debt snapshot, and returns the claimable amount.
func (a *Accumulator) SettleStake(s *stakes.Stake) *big.Int {
	claimable := a.Pending(s)
	debt := new(big.Int).Mul(s.Shares, a.accPerShare)
	s.RewardDebt = debt.Div(debt, lockpool.RewardScale)
	return claimable
}
