// Copyright (c) 2025 The Lockpool developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tier

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lockpool/lockpool/lockpool"
)

func testConfig() Config {
	return Config{
		SilverThreshold:  big.NewInt(5000),
		GoldThreshold:    big.NewInt(10000),
		DiamondThreshold: big.NewInt(20000),
		SilverBonus:      50_000,  // +5%
		GoldBonus:        100_000, // +10%
		DiamondBonus:     200_000, // +20%
		LinearScale:      10_000,
		QuadraticScale:   20,
		MaxNumerator:     new(big.Int).Mul(big.NewInt(3_000_000), big.NewInt(1_000_000)),
	}
}

func TestNewScheduleRejectsBadThresholds(t *testing.T) {
	cfg := testConfig()
	cfg.GoldThreshold = big.NewInt(5000) // equal to silver
	_, err := NewSchedule(cfg)
	assert.ErrorIs(t, err, ErrThresholdOrder)

	cfg = testConfig()
	cfg.DiamondThreshold = big.NewInt(9999) // below gold
	_, err = NewSchedule(cfg)
	assert.ErrorIs(t, err, ErrThresholdOrder)

	cfg = testConfig()
	cfg.MaxNumerator = big.NewInt(0)
	_, err = NewSchedule(cfg)
	assert.ErrorIs(t, err, ErrNoMaxNumerator)
}

func TestTierSelection(t *testing.T) {
	s, err := NewSchedule(testConfig())
	require.NoError(t, err)

	tests := []struct {
		amount int64
		bonus  uint64
	}{
		{4999, lockpool.BaseMultiplier},
		{5000, lockpool.BaseMultiplier + 50_000},
		{6000, lockpool.BaseMultiplier + 50_000}, // silver, not gold/diamond
		{10000, lockpool.BaseMultiplier + 100_000},
		{19999, lockpool.BaseMultiplier + 100_000},
		{20000, lockpool.BaseMultiplier + 200_000},
		{1_000_000, lockpool.BaseMultiplier + 200_000}, // highest tier only, not cumulative
	}
	for _, tt := range tests {
		assert.Equal(t, tt.bonus, s.tierBonus(big.NewInt(tt.amount)), "amount %d", tt.amount)
	}
}

func TestSilverScenario(t *testing.T) {
	// depositing 6000 for 7 days must select the silver tier
	s, err := NewSchedule(testConfig())
	require.NoError(t, err)

	timeBonus := uint64(1_000_000 + 10_000*7 + 20*7*7) // 1_070_980
	expected := new(big.Int).Mul(
		new(big.Int).SetUint64(timeBonus),
		new(big.Int).SetUint64(1_050_000),
	)
	assert.Equal(t, expected, s.Multiplier(big.NewInt(6000), 7))
}

func TestTierMonotonicity(t *testing.T) {
	// for fixed lock duration, shares(amount) is non-decreasing with strict
	// jumps at each threshold
	s, err := NewSchedule(testConfig())
	require.NoError(t, err)

	prev := big.NewInt(0)
	for amount := int64(1000); amount <= 25000; amount += 250 {
		shares, err := s.Shares(big.NewInt(amount), 30)
		require.NoError(t, err)
		assert.True(t, shares.Cmp(prev) >= 0, "shares regressed at amount %d", amount)
		prev = shares
	}

	for _, threshold := range []int64{5000, 10000, 20000} {
		below, err := s.Shares(big.NewInt(threshold-1), 30)
		require.NoError(t, err)
		at, err := s.Shares(big.NewInt(threshold), 30)
		require.NoError(t, err)
		// the tier bonus jump dominates the +1 amount step
		gap := new(big.Int).Sub(at, below)
		assert.True(t, gap.Cmp(big.NewInt(1)) > 0, "no strict jump at threshold %d", threshold)
	}
}

func TestTimeMonotonicity(t *testing.T) {
	s, err := NewSchedule(testConfig())
	require.NoError(t, err)

	amount := big.NewInt(8000)
	prev, err := s.Shares(amount, 0)
	require.NoError(t, err)
	for days := uint32(1); days <= 365; days++ {
		shares, err := s.Shares(amount, days)
		require.NoError(t, err)
		assert.True(t, shares.Cmp(prev) > 0, "shares not strictly increasing at %d days", days)
		prev = shares
	}
}

func TestMultiplierCap(t *testing.T) {
	s, err := NewSchedule(testConfig())
	require.NoError(t, err)

	// long enough lock to blow past the 3x cap:
	// time bonus at 365 days = 1e6 + 3.65e6 + 2.6645e6 > 7e6
	capped := s.Multiplier(big.NewInt(50000), 365)
	assert.Equal(t, 0, capped.Cmp(testConfig().MaxNumerator))

	// the cap is on the combined product, so even a no-tier deposit hits it
	capped = s.Multiplier(big.NewInt(1), 365)
	assert.Equal(t, 0, capped.Cmp(testConfig().MaxNumerator))
}

func TestDustRejected(t *testing.T) {
	s, err := NewSchedule(testConfig())
	require.NoError(t, err)

	// zero amount yields zero shares without error
	shares, err := s.Shares(big.NewInt(0), 7)
	require.NoError(t, err)
	assert.Equal(t, 0, shares.Sign())

	// the combined numerator never drops below BaseMultiplier^2, so the
	// smallest non-zero deposit still floors to at least one share
	one, err := s.Shares(big.NewInt(1), 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), one.Int64())
}
