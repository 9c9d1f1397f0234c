// Copyright (c) 2025 The Lockpool developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"math/big"

	"github.com/lockpool/lockpool/lockpool"
)

// Token is the external fungible-asset collaborator. Implementations must
// be all-or-nothing: a returned error means no balance moved.
type Token interface {
	// Transfer moves amount from the engine's own holdings to `to`.
	Transfer(to lockpool.Address, amount *big.Int) error

	// TransferFrom moves amount from `from` into `to`, subject to the
	// asset's own allowance rules.
	TransferFrom(from, to lockpool.Address, amount *big.Int) error

	// BalanceOf reports the asset balance held by addr.
	BalanceOf(addr lockpool.Address) (*big.Int, error)
}
