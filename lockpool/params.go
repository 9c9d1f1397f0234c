// Copyright (c) 2025 The Lockpool developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package lockpool

import "math/big"

// Constants of the staking program.
const (
	// BaseMultiplier is the fixed-point denominator for bonus numerators.
	// A bonus numerator of exactly BaseMultiplier is a neutral 1.0x factor.
	BaseMultiplier uint64 = 1_000_000

	// MaxStakesPerAccount bounds per-account bulk settlement cost.
	MaxStakesPerAccount = 20

	// SecondsPerDay converts lock/period durations expressed in days.
	SecondsPerDay uint64 = 86400

	// SweepDelay is how long after the reward period end the leftover
	// reward balance stays claimable before the admin may sweep it.
	SweepDelay uint64 = 30 * SecondsPerDay
)

var (
	// RewardScale is the fixed-point scale of the reward-per-share accumulator.
	RewardScale = big.NewInt(1e18)

	// BaseMultiplierBig is BaseMultiplier as big.Int, for share derivation.
	BaseMultiplierBig = new(big.Int).SetUint64(BaseMultiplier)

	// BaseMultiplierSquared divides the combined (time x tier) numerator
	// back down to a plain share count.
	BaseMultiplierSquared = new(big.Int).Mul(BaseMultiplierBig, BaseMultiplierBig)
)
