// Copyright (c) 2025 The Lockpool developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking_test

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lockpool/lockpool/lockpool"
	"github.com/lockpool/lockpool/period"
	"github.com/lockpool/lockpool/staking"
)

func TestDepositPreconditions(t *testing.T) {
	e := newEnv(t)

	// unfunded
	err := e.engine.Deposit(alice, big.NewInt(1000), 0)
	assert.ErrorIs(t, err, period.ErrNotFunded)

	require.NoError(t, e.engine.AddFunding(ownerAddr, big.NewInt(periodRewards)))
	require.NoError(t, e.engine.SetPeriod(ownerAddr, periodDays, periodStart))

	// configured but not started
	err = e.engine.Deposit(alice, big.NewInt(1000), 0)
	assert.ErrorIs(t, err, period.ErrNotStarted)

	e.now = periodStart
	assert.ErrorIs(t, e.engine.Deposit(alice, big.NewInt(0), 0), staking.ErrZeroAmount)
	assert.ErrorIs(t, e.engine.Deposit(alice, nil, 0), staking.ErrZeroAmount)

	require.NoError(t, e.engine.Deposit(alice, big.NewInt(1000), 0))
	assert.Len(t, e.engine.Stakes(alice), 1)
}

func TestDepositLockPastEndRejectedBeforeTransfer(t *testing.T) {
	e := newEnv(t)
	e.start()

	before := e.depositBalance(alice)
	// 3-day lock inside a 2-day period
	err := e.engine.Deposit(alice, big.NewInt(1000), 3)
	assert.ErrorIs(t, err, staking.ErrLockPastEnd)
	assert.Equal(t, before, e.depositBalance(alice), "rejection must precede any transfer")
	assert.Empty(t, e.engine.Stakes(alice))
}

func TestDepositCap(t *testing.T) {
	e := newEnv(t)
	e.start()

	for range lockpool.MaxStakesPerAccount {
		require.NoError(t, e.engine.Deposit(alice, big.NewInt(100), 0))
	}
	before := e.depositBalance(alice)
	assert.ErrorIs(t, e.engine.Deposit(alice, big.NewInt(100), 0), staking.ErrTooManyStakes)
	assert.Equal(t, before, e.depositBalance(alice))
}

func TestProportionalRewards(t *testing.T) {
	e := newEnv(t)
	e.start()

	// two deposits at the same instant, same (zero) lock, different amounts
	require.NoError(t, e.engine.Deposit(alice, big.NewInt(2000), 0))
	require.NoError(t, e.engine.Deposit(bob, big.NewInt(4000), 0))

	e.now = e.engine.Period().EndTime
	require.NoError(t, e.engine.Claim(alice))
	require.NoError(t, e.engine.Claim(bob))

	got1, got2 := e.rewardBalance(alice), e.rewardBalance(bob)
	assert.InDelta(t, float64(2*got1), float64(got2), 2, "4000 stake should earn ~2x the 2000 stake")

	// aggregate never exceeds the budget
	assert.LessOrEqual(t, got1+got2, periodRewards)
}

func TestPreviewMatchesImmediateClaim(t *testing.T) {
	e := newEnv(t)
	e.start()

	require.NoError(t, e.engine.Deposit(alice, big.NewInt(7000), 0))
	require.NoError(t, e.engine.Deposit(bob, big.NewInt(11000), 0))
	e.advance(12_345)

	preview := e.engine.PendingReward(alice)
	require.NoError(t, e.engine.Claim(alice))
	assert.Equal(t, preview.Int64(), e.rewardBalance(alice))

	// idempotence: an immediate second claim pays zero
	require.NoError(t, e.engine.Claim(alice))
	assert.Equal(t, preview.Int64(), e.rewardBalance(alice))
	assert.Zero(t, e.engine.PendingReward(alice).Sign())
}

func TestLockedStakeSkippedThenPreserved(t *testing.T) {
	e := newEnv(t)
	e.start()

	require.NoError(t, e.engine.Deposit(alice, big.NewInt(3000), 1)) // locked one day
	require.NoError(t, e.engine.Deposit(bob, big.NewInt(3000), 0))

	e.advance(43_200) // half a day: alice still locked
	assert.Zero(t, e.engine.PendingReward(alice).Sign())
	require.NoError(t, e.engine.Claim(alice)) // zero-value no-op
	assert.Zero(t, e.rewardBalance(alice))

	// after unlock the full accrual since deposit is claimable: the locked
	// stake's shares never left the pool, so nothing was forfeited
	e.advance(43_200)
	pending := e.engine.PendingReward(alice)
	assert.True(t, pending.Sign() > 0)

	bobPending := e.engine.PendingReward(bob)
	// alice locked for a full day earns a time bonus, so her shares and
	// accrual strictly exceed bob's for the same amount
	assert.True(t, pending.Cmp(bobPending) > 0)

	require.NoError(t, e.engine.Claim(alice))
	assert.Equal(t, pending.Int64(), e.rewardBalance(alice))
}

func TestWithdraw(t *testing.T) {
	e := newEnv(t)
	e.start()

	require.NoError(t, e.engine.Deposit(alice, big.NewInt(5000), 1))

	assert.ErrorIs(t, e.engine.Withdraw(alice, 1), staking.ErrInvalidIndex)
	assert.ErrorIs(t, e.engine.Withdraw(alice, 0), staking.ErrStakeLocked)

	e.advance(86_400)
	before := e.depositBalance(alice)
	require.NoError(t, e.engine.Withdraw(alice, 0))
	assert.Equal(t, before+5000, e.depositBalance(alice))
	assert.True(t, e.rewardBalance(alice) > 0, "withdraw settles the stake's reward")
	assert.Empty(t, e.engine.Stakes(alice))
	assert.Zero(t, e.engine.TotalShares().Sign())
}

func TestWithdrawIndicesNotStable(t *testing.T) {
	e := newEnv(t)
	e.start()

	for _, amount := range []int64{100, 200, 300} {
		require.NoError(t, e.engine.Deposit(alice, big.NewInt(amount), 0))
	}

	// removing index 0 swaps the last stake (300) into its place
	require.NoError(t, e.engine.Withdraw(alice, 0))

	// the former last stake's original index is gone: a caller reusing a
	// stale index must fail, not silently hit the wrong record
	assert.ErrorIs(t, e.engine.Withdraw(alice, 2), staking.ErrInvalidIndex)

	list := e.engine.Stakes(alice)
	require.Len(t, list, 2)
	assert.Equal(t, int64(300), list[0].Amount.Int64())
	assert.Equal(t, int64(200), list[1].Amount.Int64())
}

func TestEmergencyWithdrawAll(t *testing.T) {
	e := newEnv(t)
	e.start()

	assert.ErrorIs(t, e.engine.EmergencyWithdrawAll(alice), staking.ErrNoStakes)

	for _, amount := range []int64{1000, 2000, 3000} {
		require.NoError(t, e.engine.Deposit(alice, big.NewInt(amount), 1)) // all locked
	}
	e.advance(3600)

	before := e.depositBalance(alice)
	require.NoError(t, e.engine.EmergencyWithdrawAll(alice))

	assert.Equal(t, before+6000, e.depositBalance(alice), "exact principal sum returned")
	assert.Zero(t, e.rewardBalance(alice), "unsettled reward is forfeited")
	assert.Empty(t, e.engine.Stakes(alice))
	assert.Zero(t, e.engine.TotalShares().Sign())

	assert.ErrorIs(t, e.engine.EmergencyWithdrawAll(alice), staking.ErrNoStakes)
}

func TestEmergencyStopFreezesAccrual(t *testing.T) {
	e := newEnv(t)
	e.start()

	require.NoError(t, e.engine.Deposit(alice, big.NewInt(1000), 0))
	e.advance(1000)
	require.NoError(t, e.engine.EmergencyStop(ownerAddr))
	stopPending := e.engine.PendingReward(alice)

	// the stop is one-shot
	assert.ErrorIs(t, e.engine.EmergencyStop(ownerAddr), period.ErrStopUsed)

	// time after the stop accrues nothing
	e.advance(50_000)
	assert.Equal(t, stopPending, e.engine.PendingReward(alice))
	require.NoError(t, e.engine.Claim(alice))
	assert.Equal(t, stopPending.Int64(), e.rewardBalance(alice))
}

func TestNeverOverDistributes(t *testing.T) {
	e := newEnv(t)
	e.start()

	require.NoError(t, e.engine.Deposit(alice, big.NewInt(2357), 0))
	require.NoError(t, e.engine.Deposit(bob, big.NewInt(6101), 0))
	e.advance(10_007)
	require.NoError(t, e.engine.Deposit(carol, big.NewInt(20000), 1))
	e.advance(30_011)
	require.NoError(t, e.engine.Claim(alice))
	require.NoError(t, e.engine.Withdraw(bob, 0))
	e.advance(86_400)
	require.NoError(t, e.engine.Claim(carol))

	e.now = e.engine.Period().EndTime + 1
	for _, addr := range []lockpool.Address{alice, bob, carol} {
		require.NoError(t, e.engine.Claim(addr))
	}

	distributed := e.rewardBalance(alice) + e.rewardBalance(bob) + e.rewardBalance(carol)
	assert.LessOrEqual(t, distributed, periodRewards)
}

func TestPauseBlocksMutations(t *testing.T) {
	e := newEnv(t)
	e.start()
	require.NoError(t, e.engine.Deposit(alice, big.NewInt(1000), 0))

	require.NoError(t, e.engine.SetPaused(ownerAddr, true))
	assert.ErrorIs(t, e.engine.Deposit(alice, big.NewInt(1000), 0), staking.ErrPaused)
	assert.ErrorIs(t, e.engine.Withdraw(alice, 0), staking.ErrPaused)
	assert.ErrorIs(t, e.engine.Claim(alice), staking.ErrPaused)
	assert.ErrorIs(t, e.engine.EmergencyWithdrawAll(alice), staking.ErrPaused)

	// reads still work
	assert.Len(t, e.engine.Stakes(alice), 1)

	require.NoError(t, e.engine.SetPaused(ownerAddr, false))
	assert.NoError(t, e.engine.Claim(alice))
}

func TestReentrancyRejected(t *testing.T) {
	e := newEnv(t)
	e.start()

	var reentrantErr error
	e.dep.onTransferFrom = func() {
		reentrantErr = e.engine.Claim(alice)
	}
	require.NoError(t, e.engine.Deposit(alice, big.NewInt(1000), 0))
	assert.ErrorIs(t, reentrantErr, staking.ErrReentrancy)
}

func TestOwnership(t *testing.T) {
	e := newEnv(t)

	assert.ErrorIs(t, e.engine.SetPaused(alice, true), staking.ErrNotOwner)
	assert.ErrorIs(t, e.engine.AddFunding(alice, big.NewInt(1)), staking.ErrNotOwner)
	assert.ErrorIs(t, e.engine.SetPeriod(alice, 1, 5000), staking.ErrNotOwner)
	assert.ErrorIs(t, e.engine.EmergencyStop(alice), staking.ErrNotOwner)
	assert.ErrorIs(t, e.engine.SweepDust(alice), staking.ErrNotOwner)

	// two-step handover
	require.NoError(t, e.engine.TransferOwnership(ownerAddr, bob))
	assert.Equal(t, ownerAddr, e.engine.Owner(), "ownership unchanged until accepted")
	assert.ErrorIs(t, e.engine.AcceptOwnership(carol), staking.ErrNotCandidate)
	require.NoError(t, e.engine.AcceptOwnership(bob))
	assert.Equal(t, bob, e.engine.Owner())

	assert.ErrorIs(t, e.engine.SetPaused(ownerAddr, true), staking.ErrNotOwner)
	assert.NoError(t, e.engine.SetPaused(bob, true))
}

func TestFundingMovesRewardAsset(t *testing.T) {
	e := newEnv(t)

	require.NoError(t, e.engine.AddFunding(ownerAddr, big.NewInt(500_000)))
	assert.Equal(t, int64(500_000), e.rewardBalance(poolAddr))

	require.NoError(t, e.engine.RemoveFunding(ownerAddr, big.NewInt(200_000)))
	assert.Equal(t, int64(300_000), e.rewardBalance(poolAddr))
	assert.Equal(t, int64(300_000), e.engine.Period().TotalRewards.Int64())

	assert.ErrorIs(t, e.engine.RemoveFunding(ownerAddr, big.NewInt(400_000)), period.ErrFundingExceeded)

	// a funding pull larger than the owner's balance fails atomically
	err := e.engine.AddFunding(ownerAddr, big.NewInt(1_000_000_000))
	assert.Error(t, err)
	assert.Equal(t, int64(300_000), e.engine.Period().TotalRewards.Int64())
	assert.Equal(t, int64(300_000), e.rewardBalance(poolAddr))
}

func TestSweepDust(t *testing.T) {
	e := newEnv(t)
	e.start()
	require.NoError(t, e.engine.Deposit(alice, big.NewInt(2357), 0))

	end := e.engine.Period().EndTime
	e.now = end + 1
	require.NoError(t, e.engine.Claim(alice))

	assert.ErrorIs(t, e.engine.SweepDust(ownerAddr), period.ErrSweepUnavailable)

	e.now = end + lockpool.SweepDelay
	leftover := e.rewardBalance(poolAddr)
	ownerBefore := e.rewardBalance(ownerAddr)
	require.NoError(t, e.engine.SweepDust(ownerAddr))

	assert.Zero(t, e.rewardBalance(poolAddr))
	assert.Equal(t, ownerBefore+leftover, e.rewardBalance(ownerAddr))
}

func TestSnapshotRestore(t *testing.T) {
	e := newEnv(t)
	e.start()
	require.NoError(t, e.engine.Deposit(alice, big.NewInt(7000), 0))
	require.NoError(t, e.engine.Deposit(bob, big.NewInt(12000), 1))
	e.advance(5000)

	snap := e.engine.Snapshot()

	restored, err := staking.New(staking.Options{
		Self:         poolAddr,
		Owner:        ownerAddr,
		DepositToken: e.dep,
		RewardToken:  e.rwd,
		Schedule:     testSchedule(t),
		Now:          func() uint64 { return e.now },
	})
	require.NoError(t, err)
	require.NoError(t, restored.RestoreSnapshot(snap))

	assert.Equal(t, e.engine.TotalShares(), restored.TotalShares())
	assert.Equal(t, e.engine.PendingReward(alice), restored.PendingReward(alice))
	assert.Equal(t, e.engine.RewardRate(), restored.RewardRate())
	require.Len(t, restored.Stakes(bob), 1)
	assert.Equal(t, int64(12000), restored.Stakes(bob)[0].Amount.Int64())
}
