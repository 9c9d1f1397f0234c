// Copyright (c) 2025 The Lockpool developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"bytes"
	"sort"

	"math/big"

	"github.com/lockpool/lockpool/lockpool"
	"github.com/lockpool/lockpool/period"
	"github.com/lockpool/lockpool/rewards"
	"github.com/lockpool/lockpool/stakes"
)

// AccountState is one account's ledger in a snapshot.
type AccountState struct {
	Address lockpool.Address
	Stakes  []*stakes.Stake
}

// Snapshot is the engine's complete persistable state.
type Snapshot struct {
	TotalShares *big.Int
	AccPerShare *big.Int
	LastUpdate  uint64

	TotalRewards *big.Int
	StartTime    uint64
	EndTime      uint64
	NaturalEnd   uint64
	Funded       bool
	Configured   bool
	Stopped      bool

	Paused bool
	Owner  lockpool.Address

	Accounts []AccountState
}

// Snapshot captures the engine state. Accounts are ordered by address so
// the encoding is deterministic.
func (e *Engine) Snapshot() *Snapshot {
	accounts := make([]AccountState, 0, len(e.ledgers))
	for addr, ledger := range e.ledgers {
		if ledger.Len() == 0 {
			continue
		}
		all := ledger.All()
		cloned := make([]*stakes.Stake, len(all))
		for i, stake := range all {
			cloned[i] = stake.Clone()
		}
		accounts = append(accounts, AccountState{Address: addr, Stakes: cloned})
	}
	sort.Slice(accounts, func(i, j int) bool {
		return bytes.Compare(accounts[i].Address.Bytes(), accounts[j].Address.Bytes()) < 0
	})

	return &Snapshot{
		TotalShares:  e.acc.TotalShares(),
		AccPerShare:  e.acc.AccPerShare(),
		LastUpdate:   e.acc.LastUpdate(),
		TotalRewards: e.ctrl.TotalRewards(),
		StartTime:    e.ctrl.StartTime(),
		EndTime:      e.ctrl.EndTime(),
		NaturalEnd:   e.ctrl.NaturalEnd(),
		Funded:       e.ctrl.Funded(),
		Configured:   e.ctrl.Configured(),
		Stopped:      e.ctrl.Stopped(),
		Paused:       e.paused,
		Owner:        e.owner,
		Accounts:     accounts,
	}
}

// RestoreSnapshot replaces the engine state with a previously captured
// snapshot.
func (e *Engine) RestoreSnapshot(snap *Snapshot) error {
	if err := e.enter(); err != nil {
		return err
	}
	defer e.exit()

	e.acc = rewards.Restore(snap.TotalShares, snap.AccPerShare, snap.LastUpdate)
	e.ctrl = period.Restore(snap.TotalRewards, snap.StartTime, snap.EndTime, snap.NaturalEnd,
		snap.Funded, snap.Configured, snap.Stopped)
	e.paused = snap.Paused
	e.owner = snap.Owner
	e.pendingOwner = nil

	e.ledgers = make(map[lockpool.Address]*stakes.Ledger, len(snap.Accounts))
	for _, account := range snap.Accounts {
		ledger := stakes.NewLedger()
		for _, stake := range account.Stakes {
			if err := ledger.Append(stake.Clone()); err != nil {
				return err
			}
		}
		e.ledgers[account.Address] = ledger
	}
	return nil
}
