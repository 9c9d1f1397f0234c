// Copyright (c) 2025 The Lockpool developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking_test

import (
	"math/big"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/lockpool/lockpool/lockpool"
	"github.com/lockpool/lockpool/staking"
	"github.com/lockpool/lockpool/tier"
)

var (
	poolAddr  = lockpool.BytesToAddress([]byte("pool"))
	ownerAddr = lockpool.BytesToAddress([]byte("owner"))
	alice     = lockpool.BytesToAddress([]byte("alice"))
	bob       = lockpool.BytesToAddress([]byte("bob"))
	carol     = lockpool.BytesToAddress([]byte("carol"))
)

// memToken is an in-memory Token collaborator. Transfers are atomic:
// any failure moves no balance.
type memToken struct {
	self     lockpool.Address
	balances map[lockpool.Address]*big.Int

	// onTransferFrom lets tests hook the middle of a transfer,
	// e.g. to attempt a re-entrant engine call.
	onTransferFrom func()
}

func newMemToken(self lockpool.Address) *memToken {
	return &memToken{
		self:     self,
		balances: make(map[lockpool.Address]*big.Int),
	}
}

func (t *memToken) Mint(addr lockpool.Address, amount int64) {
	t.balanceOf(addr).Add(t.balanceOf(addr), big.NewInt(amount))
}

func (t *memToken) balanceOf(addr lockpool.Address) *big.Int {
	if _, ok := t.balances[addr]; !ok {
		t.balances[addr] = new(big.Int)
	}
	return t.balances[addr]
}

func (t *memToken) Transfer(to lockpool.Address, amount *big.Int) error {
	return t.move(t.self, to, amount)
}

func (t *memToken) TransferFrom(from, to lockpool.Address, amount *big.Int) error {
	if t.onTransferFrom != nil {
		t.onTransferFrom()
	}
	return t.move(from, to, amount)
}

func (t *memToken) move(from, to lockpool.Address, amount *big.Int) error {
	balance := t.balanceOf(from)
	if balance.Cmp(amount) < 0 {
		return errors.New("insufficient balance")
	}
	if from == to {
		return nil
	}
	balance.Sub(balance, amount)
	t.balanceOf(to).Add(t.balanceOf(to), amount)
	return nil
}

func (t *memToken) BalanceOf(addr lockpool.Address) (*big.Int, error) {
	return new(big.Int).Set(t.balanceOf(addr)), nil
}

// env wires an engine with in-memory tokens and a manual settlement clock.
type env struct {
	t      *testing.T
	engine *staking.Engine
	dep    *memToken
	rwd    *memToken
	now    uint64
}

func testSchedule(t *testing.T) *tier.Schedule {
	t.Helper()
	schedule, err := tier.NewSchedule(tier.Config{
		SilverThreshold:  big.NewInt(5000),
		GoldThreshold:    big.NewInt(10000),
		DiamondThreshold: big.NewInt(20000),
		SilverBonus:      50_000,
		GoldBonus:        100_000,
		DiamondBonus:     200_000,
		LinearScale:      10_000,
		QuadraticScale:   20,
		MaxNumerator:     new(big.Int).Mul(big.NewInt(3_000_000), big.NewInt(1_000_000)),
	})
	require.NoError(t, err)
	return schedule
}

func newEnv(t *testing.T) *env {
	e := &env{t: t, now: 1000}
	e.dep = newMemToken(poolAddr)
	e.rwd = newMemToken(poolAddr)

	engine, err := staking.New(staking.Options{
		Self:         poolAddr,
		Owner:        ownerAddr,
		DepositToken: e.dep,
		RewardToken:  e.rwd,
		Schedule:     testSchedule(t),
		Now:          func() uint64 { return e.now },
	})
	require.NoError(t, err)
	e.engine = engine

	for _, addr := range []lockpool.Address{alice, bob, carol} {
		e.dep.Mint(addr, 1_000_000)
	}
	e.rwd.Mint(ownerAddr, 200_000_000)
	return e
}

const (
	periodStart   = uint64(2000)
	periodDays    = uint32(2)
	periodRewards = int64(2 * 86_400_000) // rate 1000/s over two days
)

// start funds and configures a two-day period, then advances the clock to
// its opening instant.
func (e *env) start() {
	require.NoError(e.t, e.engine.AddFunding(ownerAddr, big.NewInt(periodRewards)))
	require.NoError(e.t, e.engine.SetPeriod(ownerAddr, periodDays, periodStart))
	e.now = periodStart
}

func (e *env) advance(seconds uint64) {
	e.now += seconds
}

func (e *env) depositBalance(addr lockpool.Address) int64 {
	balance, err := e.dep.BalanceOf(addr)
	require.NoError(e.t, err)
	return balance.Int64()
}

func (e *env) rewardBalance(addr lockpool.Address) int64 {
	balance, err := e.rwd.BalanceOf(addr)
	require.NoError(e.t, err)
	return balance.Int64()
}
