// Copyright (c) 2025 The Lockpool developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package stakes holds the per-account stake records and their ledger.
package stakes

import (
	"errors"
	"math/big"

	"github.com/lockpool/lockpool/lockpool"
)

var (
	ErrLedgerFull = errors.New("account stake limit reached")
	ErrIndexRange = errors.New("stake index out of range")
)

// Stake is one deposit event for one account.
type Stake struct {
	Amount       *big.Int // deposit-asset quantity locked
	Shares       *big.Int // weight fixed at deposit time
	DepositTime  uint64   // unix seconds at creation
	LockDuration uint64   // seconds the stake must remain locked
	RewardDebt   *big.Int // scaled accumulator snapshot already credited
}

// UnlockTime returns the first instant the stake may be withdrawn or settled.
func (s *Stake) UnlockTime() uint64 {
	return s.DepositTime + s.LockDuration
}

// Unlocked reports whether the lock gate has opened. The transition is
// one-way and purely a function of elapsed time.
func (s *Stake) Unlocked(now uint64) bool {
	return now >= s.UnlockTime()
}

// Clone returns a deep copy.
func (s *Stake) Clone() *Stake {
	return &Stake{
		Amount:       new(big.Int).Set(s.Amount),
		Shares:       new(big.Int).Set(s.Shares),
		DepositTime:  s.DepositTime,
		LockDuration: s.LockDuration,
		RewardDebt:   new(big.Int).Set(s.RewardDebt),
	}
}

// Ledger is an account's ordered stake collection, bounded at
// lockpool.MaxStakesPerAccount.
//
// Removal is swap-with-last-and-pop: indices are NOT stable across
// removals. Callers must re-resolve any cached index after a removal in
// the same ledger.
type Ledger struct {
	stakes []*Stake
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{}
}

// Len returns the number of stakes held.
func (l *Ledger) Len() int {
	return len(l.stakes)
}

// Get returns the stake at index.
func (l *Ledger) Get(index int) (*Stake, error) {
	if index < 0 || index >= len(l.stakes) {
		return nil, ErrIndexRange
	}
	return l.stakes[index], nil
}

// All returns the stakes in ledger order. The returned slice is a copy;
// the stake pointers are shared.
func (l *Ledger) All() []*Stake {
	out := make([]*Stake, len(l.stakes))
	copy(out, l.stakes)
	return out
}

// Append adds a stake, failing once the account holds the maximum count.
func (l *Ledger) Append(s *Stake) error {
	if len(l.stakes) >= lockpool.MaxStakesPerAccount {
		return ErrLedgerFull
	}
	l.stakes = append(l.stakes, s)
	return nil
}

// RemoveAt removes and returns the stake at index by swapping in the last
// element, relocating the formerly-last stake to index.
func (l *Ledger) RemoveAt(index int) (*Stake, error) {
	if index < 0 || index >= len(l.stakes) {
		return nil, ErrIndexRange
	}
	removed := l.stakes[index]
	last := len(l.stakes) - 1
	l.stakes[index] = l.stakes[last]
	l.stakes[last] = nil
	l.stakes = l.stakes[:last]
	return removed, nil
}

// Clear empties the ledger, returning the removed stakes.
func (l *Ledger) Clear() []*Stake {
	removed := l.stakes
	l.stakes = nil
	return removed
}
