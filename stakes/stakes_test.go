// Copyright (c) 2025 The Lockpool developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stakes

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lockpool/lockpool/lockpool"
)

func newStake(amount int64, depositTime, lockDuration uint64) *Stake {
	return &Stake{
		Amount:       big.NewInt(amount),
		Shares:       big.NewInt(amount),
		DepositTime:  depositTime,
		LockDuration: lockDuration,
		RewardDebt:   big.NewInt(0),
	}
}

func TestLockGate(t *testing.T) {
	s := newStake(1000, 100, 50)

	assert.False(t, s.Unlocked(100))
	assert.False(t, s.Unlocked(149))
	assert.True(t, s.Unlocked(150)) // boundary is inclusive
	assert.True(t, s.Unlocked(1e9))
	assert.Equal(t, uint64(150), s.UnlockTime())
}

func TestAppendCap(t *testing.T) {
	l := NewLedger()
	for i := range lockpool.MaxStakesPerAccount {
		require.NoError(t, l.Append(newStake(int64(i+1), 0, 0)))
	}
	assert.Equal(t, lockpool.MaxStakesPerAccount, l.Len())
	assert.ErrorIs(t, l.Append(newStake(999, 0, 0)), ErrLedgerFull)
}

func TestRemoveAtSwapsLast(t *testing.T) {
	l := NewLedger()
	for i := int64(1); i <= 4; i++ {
		require.NoError(t, l.Append(newStake(i*100, 0, 0)))
	}

	removed, err := l.RemoveAt(1)
	require.NoError(t, err)
	assert.Equal(t, int64(200), removed.Amount.Int64())

	// the formerly-last stake (400) now occupies index 1
	relocated, err := l.Get(1)
	require.NoError(t, err)
	assert.Equal(t, int64(400), relocated.Amount.Int64())
	assert.Equal(t, 3, l.Len())

	// the original index of the former last stake is now out of range
	_, err = l.Get(3)
	assert.ErrorIs(t, err, ErrIndexRange)
	_, err = l.RemoveAt(3)
	assert.ErrorIs(t, err, ErrIndexRange)
}

func TestRemoveAtBounds(t *testing.T) {
	l := NewLedger()
	require.NoError(t, l.Append(newStake(100, 0, 0)))

	_, err := l.RemoveAt(-1)
	assert.ErrorIs(t, err, ErrIndexRange)
	_, err = l.RemoveAt(1)
	assert.ErrorIs(t, err, ErrIndexRange)

	removed, err := l.RemoveAt(0)
	require.NoError(t, err)
	assert.Equal(t, int64(100), removed.Amount.Int64())
	assert.Zero(t, l.Len())
}

func TestClear(t *testing.T) {
	l := NewLedger()
	for i := int64(1); i <= 3; i++ {
		require.NoError(t, l.Append(newStake(i, 0, 0)))
	}

	removed := l.Clear()
	assert.Len(t, removed, 3)
	assert.Zero(t, l.Len())
	assert.Empty(t, l.All())
}

func TestClone(t *testing.T) {
	s := newStake(1000, 7, 14)
	c := s.Clone()
	c.Amount.SetInt64(5)
	c.RewardDebt.SetInt64(9)

	assert.Equal(t, int64(1000), s.Amount.Int64())
	assert.Equal(t, int64(0), s.RewardDebt.Int64())
}
