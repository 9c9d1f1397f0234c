// Copyright (c) 2025 The Lockpool developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package ledgerdb persists engine snapshots. Pool-level state and the
// per-account stake ledgers are RLP encoded into separate kv buckets so a
// snapshot write replaces exactly the accounts it carries.
package ledgerdb

import (
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"
	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"

	"github.com/lockpool/lockpool/kv"
	"github.com/lockpool/lockpool/lockpool"
	"github.com/lockpool/lockpool/stakes"
	"github.com/lockpool/lockpool/staking"
)

var (
	poolBucket    = kv.Bucket("p")
	accountBucket = kv.Bucket("a")

	poolKey = []byte("pool")
)

const accountCacheSize = 512

// poolState is the RLP layout of the pool-level snapshot fields.
type poolState struct {
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
}

// LedgerDB reads and writes engine snapshots on a kv store.
type LedgerDB struct {
	store    kv.Store
	pool     kv.Store
	accounts kv.Store
	cache    *lru.Cache // address -> []*stakes.Stake
}

// New wraps the given kv store.
func New(store kv.Store) (*LedgerDB, error) {
	cache, err := lru.New(accountCacheSize)
	if err != nil {
		return nil, err
	}
	return &LedgerDB{
		store:    store,
		pool:     poolBucket.NewStore(store),
		accounts: accountBucket.NewStore(store),
		cache:    cache,
	}, nil
}

// SaveSnapshot atomically replaces the persisted state with snap. Accounts
// absent from snap are deleted.
func (db *LedgerDB) SaveSnapshot(snap *staking.Snapshot) error {
	batch := db.store.NewBatch()
	poolPutter := poolBucket.NewPutter(batch)
	accountPutter := accountBucket.NewPutter(batch)

	raw, err := rlp.EncodeToBytes(&poolState{
		TotalShares:  snap.TotalShares,
		AccPerShare:  snap.AccPerShare,
		LastUpdate:   snap.LastUpdate,
		TotalRewards: snap.TotalRewards,
		StartTime:    snap.StartTime,
		EndTime:      snap.EndTime,
		NaturalEnd:   snap.NaturalEnd,
		Funded:       snap.Funded,
		Configured:   snap.Configured,
		Stopped:      snap.Stopped,
		Paused:       snap.Paused,
		Owner:        snap.Owner,
	})
	if err != nil {
		return errors.Wrap(err, "encode pool state")
	}
	if err := poolPutter.Put(poolKey, raw); err != nil {
		return err
	}

	live := make(map[lockpool.Address]bool, len(snap.Accounts))
	for _, account := range snap.Accounts {
		live[account.Address] = true
	}

	iter := db.accounts.NewIterator(kv.Range{})
	for iter.Next() {
		addr := lockpool.BytesToAddress(iter.Key())
		if !live[addr] {
			if err := accountPutter.Delete(addr.Bytes()); err != nil {
				iter.Release()
				return err
			}
		}
	}
	if err := iter.Error(); err != nil {
		iter.Release()
		return errors.Wrap(err, "iterate accounts")
	}
	iter.Release()

	for _, account := range snap.Accounts {
		raw, err := rlp.EncodeToBytes(account.Stakes)
		if err != nil {
			return errors.Wrap(err, "encode account ledger")
		}
		if err := accountPutter.Put(account.Address.Bytes(), raw); err != nil {
			return err
		}
	}

	if err := batch.Write(); err != nil {
		return errors.Wrap(err, "write snapshot")
	}

	for _, key := range db.cache.Keys() {
		if addr := key.(lockpool.Address); !live[addr] {
			db.cache.Remove(addr)
		}
	}
	for _, account := range snap.Accounts {
		db.cache.Add(account.Address, cloneStakes(account.Stakes))
	}
	return nil
}

// Account returns the persisted stake ledger for addr, or nil when the
// account holds no stakes. Reads are served from the cache when warm.
func (db *LedgerDB) Account(addr lockpool.Address) ([]*stakes.Stake, error) {
	if cached, ok := db.cache.Get(addr); ok {
		return cloneStakes(cached.([]*stakes.Stake)), nil
	}
	raw, err := db.accounts.Get(addr.Bytes())
	if err != nil {
		if db.accounts.IsNotFound(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "get account ledger")
	}
	var list []*stakes.Stake
	if err := rlp.DecodeBytes(raw, &list); err != nil {
		return nil, errors.Wrap(err, "decode account ledger")
	}
	db.cache.Add(addr, cloneStakes(list))
	return list, nil
}

// LoadSnapshot reads the persisted snapshot. The second return is false
// when nothing has been saved yet.
func (db *LedgerDB) LoadSnapshot() (*staking.Snapshot, bool, error) {
	raw, err := db.pool.Get(poolKey)
	if err != nil {
		if db.pool.IsNotFound(err) {
			return nil, false, nil
		}
		return nil, false, errors.Wrap(err, "get pool state")
	}
	var state poolState
	if err := rlp.DecodeBytes(raw, &state); err != nil {
		return nil, false, errors.Wrap(err, "decode pool state")
	}

	snap := &staking.Snapshot{
		TotalShares:  state.TotalShares,
		AccPerShare:  state.AccPerShare,
		LastUpdate:   state.LastUpdate,
		TotalRewards: state.TotalRewards,
		StartTime:    state.StartTime,
		EndTime:      state.EndTime,
		NaturalEnd:   state.NaturalEnd,
		Funded:       state.Funded,
		Configured:   state.Configured,
		Stopped:      state.Stopped,
		Paused:       state.Paused,
		Owner:        state.Owner,
	}

	// iteration order is key order, which keeps accounts sorted by address
	iter := db.accounts.NewIterator(kv.Range{})
	defer iter.Release()
	for iter.Next() {
		addr := lockpool.BytesToAddress(iter.Key())
		list, err := db.Account(addr)
		if err != nil {
			return nil, false, err
		}
		snap.Accounts = append(snap.Accounts, staking.AccountState{Address: addr, Stakes: list})
	}
	if err := iter.Error(); err != nil {
		return nil, false, errors.Wrap(err, "iterate accounts")
	}
	return snap, true, nil
}

func cloneStakes(list []*stakes.Stake) []*stakes.Stake {
	out := make([]*stakes.Stake, len(list))
	for i, s := range list {
		out[i] = s.Clone()
	}
	return out
}
