// Copyright (c) 2025 The Lockpool developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import "github.com/lockpool/lockpool/staking/reverts"

// Named rejections surfaced by the engine entry points. All are
// caller-correctable; none leaves partial effects behind.
var (
	ErrPaused        = reverts.New("paused")
	ErrReentrancy    = reverts.New("reentrant call")
	ErrZeroAmount    = reverts.New("amount is zero")
	ErrZeroShares    = reverts.New("deposit too small for any shares")
	ErrLockPastEnd   = reverts.New("lock extends past reward period end")
	ErrTooManyStakes = reverts.New("account stake limit reached")
	ErrInvalidIndex  = reverts.New("invalid stake index")
	ErrStakeLocked   = reverts.New("stake is locked")
	ErrNoStakes      = reverts.New("no stakes")
	ErrNotOwner      = reverts.New("caller is not the owner")
	ErrNotCandidate  = reverts.New("caller is not the pending owner")
)
