// Copyright (c) 2025 The Lockpool developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package staking implements the pooled staking engine: deposits locked for
// a chosen duration accrue a share of a fixed reward budget, weighted by
// the tier/time multiplier fixed at deposit.
//
// Every state-mutating entry point follows the same shape: reject bad
// preconditions, settle the global accumulator up to now, perform the
// external asset transfers, and only then mutate the engine's own state.
// A failed call therefore leaves the engine unchanged.
package staking

import (
	"math/big"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"

	"github.com/lockpool/lockpool/lockpool"
	"github.com/lockpool/lockpool/log"
	"github.com/lockpool/lockpool/metrics"
	"github.com/lockpool/lockpool/period"
	"github.com/lockpool/lockpool/rewards"
	"github.com/lockpool/lockpool/stakes"
	"github.com/lockpool/lockpool/tier"
)

var logger = log.WithContext("pkg", "staking")

// SetLogger replaces the package logger.
func SetLogger(l log.Logger) {
	logger = l
}

var (
	metricDepositCount   = metrics.Counter("deposit_count")
	metricWithdrawCount  = metrics.Counter("withdraw_count")
	metricClaimCount     = metrics.Counter("claim_count")
	metricEmergencyCount = metrics.Counter("emergency_withdraw_count")
	metricTotalShares    = metrics.Gauge("total_shares")
	metricAccPerShare    = metrics.Gauge("acc_per_share")
)

// Options configures a new Engine.
type Options struct {
	Self         lockpool.Address // account holding the pooled assets
	Owner        lockpool.Address
	DepositToken Token
	RewardToken  Token
	Schedule     *tier.Schedule

	// Now is the settlement clock in unix seconds. Defaults to wall clock.
	Now func() uint64
}

// Engine is the staking engine facade. Its methods are the only mutation
// paths; external calls must not interleave (re-entrant calls are
// rejected, concurrent callers must serialize).
type Engine struct {
	self         lockpool.Address
	owner        lockpool.Address
	pendingOwner *lockpool.Address

	depositToken Token
	rewardToken  Token
	schedule     *tier.Schedule

	acc     *rewards.Accumulator
	ctrl    *period.Controller
	ledgers map[lockpool.Address]*stakes.Ledger

	paused  bool
	entered atomic.Bool
	now     func() uint64
}

// New creates an engine with an empty pool.
func New(opts Options) (*Engine, error) {
	if opts.DepositToken == nil || opts.RewardToken == nil {
		return nil, errors.New("token collaborators are required")
	}
	if opts.Schedule == nil {
		return nil, errors.New("multiplier schedule is required")
	}
	now := opts.Now
	if now == nil {
		now = func() uint64 { return uint64(time.Now().Unix()) }
	}
	return &Engine{
		self:         opts.Self,
		owner:        opts.Owner,
		depositToken: opts.DepositToken,
		rewardToken:  opts.RewardToken,
		schedule:     opts.Schedule,
		acc:          rewards.New(),
		ctrl:         period.New(),
		ledgers:      make(map[lockpool.Address]*stakes.Ledger),
		now:          now,
	}, nil
}

// enter rejects re-entrant calls into the engine. The guard doubles as the
// single-writer gate: a second caller arriving mid-operation is refused,
// not queued.
func (e *Engine) enter() error {
	if !e.entered.CompareAndSwap(false, true) {
		return ErrReentrancy
	}
	return nil
}

func (e *Engine) exit() {
	e.entered.Store(false)
}

func (e *Engine) requireNotPaused() error {
	if e.paused {
		return ErrPaused
	}
	return nil
}

func (e *Engine) requireOwner(caller lockpool.Address) error {
	if caller != e.owner {
		return ErrNotOwner
	}
	return nil
}

// settleGlobal advances the accumulator to now within the reward window.
func (e *Engine) settleGlobal(now uint64) error {
	return e.acc.Settle(now, e.ctrl.EndTime(), e.ctrl.RewardRate(), e.ctrl.Funded())
}

func (e *Engine) ledger(account lockpool.Address) *stakes.Ledger {
	if l, ok := e.ledgers[account]; ok {
		return l
	}
	l := stakes.NewLedger()
	e.ledgers[account] = l
	return l
}

//
// Staking entry points
//

// Deposit locks amount of the deposit asset for lockDays, fixing the
// stake's share weight for its lifetime. The caller's prior unlocked
// stakes are settled as a side effect.
func (e *Engine) Deposit(caller lockpool.Address, amount *big.Int, lockDays uint32) error {
	if err := e.enter(); err != nil {
		return err
	}
	defer e.exit()
	logger.Debug("deposit", "caller", caller, "amount", amount, "lockDays", lockDays)

	now := e.now()
	if err := e.requireNotPaused(); err != nil {
		return err
	}
	if err := e.ctrl.RequireActive(now); err != nil {
		return err
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrZeroAmount
	}
	ledger := e.ledger(caller)
	if ledger.Len() >= lockpool.MaxStakesPerAccount {
		return ErrTooManyStakes
	}
	lockDuration := uint64(lockDays) * lockpool.SecondsPerDay
	if now+lockDuration > e.ctrl.EndTime() {
		return ErrLockPastEnd
	}
	shares, err := e.schedule.Shares(amount, lockDays)
	if err != nil {
		return ErrZeroShares
	}

	if err := e.settleGlobal(now); err != nil {
		return err
	}
	payout := e.pendingUnlocked(ledger, now, e.acc.AccPerShare())

	// all transfers precede any ledger mutation
	if err := e.depositToken.TransferFrom(caller, e.self, amount); err != nil {
		logger.Info("deposit transfer failed", "caller", caller, "error", err)
		return err
	}
	if payout.Sign() > 0 {
		if err := e.rewardToken.Transfer(caller, payout); err != nil {
			logger.Info("deposit reward payout failed", "caller", caller, "error", err)
			return err
		}
	}

	e.settleUnlocked(ledger, now)
	stake := &stakes.Stake{
		Amount:       new(big.Int).Set(amount),
		Shares:       shares,
		DepositTime:  now,
		LockDuration: lockDuration,
		RewardDebt:   e.debtFor(shares),
	}
	if err := ledger.Append(stake); err != nil {
		return ErrTooManyStakes
	}
	e.acc.AddShares(shares)

	metricDepositCount.Add(1)
	e.gaugeShares()
	logger.Info("deposited", "caller", caller, "amount", amount, "shares", shares, "unlockAt", stake.UnlockTime())
	return nil
}

// Withdraw settles and removes the stake at index, returning its
// principal. Indices are not stable: a removal relocates the formerly-last
// stake, so callers must re-resolve indices between calls.
func (e *Engine) Withdraw(caller lockpool.Address, index int) error {
	if err := e.enter(); err != nil {
		return err
	}
	defer e.exit()
	logger.Debug("withdraw", "caller", caller, "index", index)

	now := e.now()
	if err := e.requireNotPaused(); err != nil {
		return err
	}
	if err := e.settleGlobal(now); err != nil {
		return err
	}
	ledger := e.ledger(caller)
	stake, err := ledger.Get(index)
	if err != nil {
		return ErrInvalidIndex
	}
	if !stake.Unlocked(now) {
		return ErrStakeLocked
	}

	payout := e.acc.Pending(stake)
	if payout.Sign() > 0 {
		if err := e.rewardToken.Transfer(caller, payout); err != nil {
			logger.Info("withdraw reward payout failed", "caller", caller, "error", err)
			return err
		}
	}
	if err := e.depositToken.Transfer(caller, stake.Amount); err != nil {
		logger.Info("withdraw principal transfer failed", "caller", caller, "error", err)
		return err
	}

	if _, err := ledger.RemoveAt(index); err != nil {
		return ErrInvalidIndex
	}
	if err := e.acc.SubShares(stake.Shares); err != nil {
		return err
	}

	metricWithdrawCount.Add(1)
	e.gaugeShares()
	logger.Info("withdrew", "caller", caller, "amount", stake.Amount, "reward", payout)
	return nil
}

// Claim pays out all currently-unlocked, unsettled reward for the caller.
// A caller with nothing claimable gets a zero-value no-op.
func (e *Engine) Claim(caller lockpool.Address) error {
	if err := e.enter(); err != nil {
		return err
	}
	defer e.exit()
	logger.Debug("claim", "caller", caller)

	now := e.now()
	if err := e.requireNotPaused(); err != nil {
		return err
	}
	if err := e.settleGlobal(now); err != nil {
		return err
	}
	ledger := e.ledger(caller)
	payout := e.pendingUnlocked(ledger, now, e.acc.AccPerShare())
	if payout.Sign() == 0 {
		return nil
	}

	if err := e.rewardToken.Transfer(caller, payout); err != nil {
		logger.Info("claim payout failed", "caller", caller, "error", err)
		return err
	}
	e.settleUnlocked(ledger, now)

	metricClaimCount.Add(1)
	logger.Info("claimed", "caller", caller, "reward", payout)
	return nil
}

// EmergencyWithdrawAll returns all principal across the caller's stakes,
// ignoring lock state and forfeiting all unsettled reward.
func (e *Engine) EmergencyWithdrawAll(caller lockpool.Address) error {
	if err := e.enter(); err != nil {
		return err
	}
	defer e.exit()
	logger.Debug("emergency withdraw", "caller", caller)

	now := e.now()
	if err := e.requireNotPaused(); err != nil {
		return err
	}
	ledger := e.ledger(caller)
	if ledger.Len() == 0 {
		return ErrNoStakes
	}
	if err := e.settleGlobal(now); err != nil {
		return err
	}

	principal := new(big.Int)
	shares := new(big.Int)
	for _, stake := range ledger.All() {
		principal.Add(principal, stake.Amount)
		shares.Add(shares, stake.Shares)
	}

	if err := e.depositToken.Transfer(caller, principal); err != nil {
		logger.Info("emergency withdraw transfer failed", "caller", caller, "error", err)
		return err
	}

	ledger.Clear()
	if err := e.acc.SubShares(shares); err != nil {
		return err
	}

	metricEmergencyCount.Add(1)
	e.gaugeShares()
	logger.Info("emergency withdrew", "caller", caller, "principal", principal, "forfeitedShares", shares)
	return nil
}

//
// Getters - no state change
//

// Stakes returns a snapshot of the account's stake list in ledger order.
func (e *Engine) Stakes(account lockpool.Address) []*stakes.Stake {
	ledger, ok := e.ledgers[account]
	if !ok {
		return nil
	}
	all := ledger.All()
	out := make([]*stakes.Stake, len(all))
	for i, stake := range all {
		out[i] = stake.Clone()
	}
	return out
}

// PendingReward previews what Claim would pay the account right now. It
// routes through the same accrual arithmetic as settlement, so the
// preview and an immediate claim cannot diverge.
func (e *Engine) PendingReward(account lockpool.Address) *big.Int {
	ledger, ok := e.ledgers[account]
	if !ok {
		return new(big.Int)
	}
	now := e.now()
	perShare := e.acc.PreviewPerShare(now, e.ctrl.EndTime(), e.ctrl.RewardRate(), e.ctrl.Funded())
	return e.pendingUnlocked(ledger, now, perShare)
}

// RewardRate returns the fixed per-second reward emission.
func (e *Engine) RewardRate() *big.Int {
	return e.ctrl.RewardRate()
}

// TotalShares returns the pool-wide share total.
func (e *Engine) TotalShares() *big.Int {
	return e.acc.TotalShares()
}

// PeriodInfo is a read-only view of the reward period.
type PeriodInfo struct {
	Status       period.Status
	TotalRewards *big.Int
	RewardRate   *big.Int
	StartTime    uint64
	EndTime      uint64
	Funded       bool
	Stopped      bool
	Paused       bool
}

// Period reports the reward period configuration and lifecycle state.
func (e *Engine) Period() *PeriodInfo {
	return &PeriodInfo{
		Status:       e.ctrl.Status(e.now()),
		TotalRewards: e.ctrl.TotalRewards(),
		RewardRate:   e.ctrl.RewardRate(),
		StartTime:    e.ctrl.StartTime(),
		EndTime:      e.ctrl.EndTime(),
		Funded:       e.ctrl.Funded(),
		Stopped:      e.ctrl.Stopped(),
		Paused:       e.paused,
	}
}

// Owner returns the current admin account.
func (e *Engine) Owner() lockpool.Address {
	return e.owner
}

// Self returns the account holding the pooled assets.
func (e *Engine) Self() lockpool.Address {
	return e.self
}

//
// Admin entry points
//

// AddFunding pulls amount of the reward asset from the owner and grows the
// budget. Permitted only strictly before the rewards start.
func (e *Engine) AddFunding(caller lockpool.Address, amount *big.Int) error {
	if err := e.enter(); err != nil {
		return err
	}
	defer e.exit()
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrZeroAmount
	}
	now := e.now()
	if err := e.ctrl.AddFunding(now, amount); err != nil {
		return err
	}
	if err := e.rewardToken.TransferFrom(caller, e.self, amount); err != nil {
		// keep budget and balance in step
		if rerr := e.ctrl.RemoveFunding(now, amount); rerr != nil {
			return rerr
		}
		return err
	}
	logger.Info("funding added", "amount", amount, "totalRewards", e.ctrl.TotalRewards())
	return nil
}

// RemoveFunding shrinks the budget and returns the reward asset to the
// owner. Permitted only strictly before the rewards start.
func (e *Engine) RemoveFunding(caller lockpool.Address, amount *big.Int) error {
	if err := e.enter(); err != nil {
		return err
	}
	defer e.exit()
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrZeroAmount
	}
	now := e.now()
	if err := e.ctrl.RemoveFunding(now, amount); err != nil {
		return err
	}
	if err := e.rewardToken.Transfer(caller, amount); err != nil {
		if rerr := e.ctrl.AddFunding(now, amount); rerr != nil {
			return rerr
		}
		return err
	}
	logger.Info("funding removed", "amount", amount, "totalRewards", e.ctrl.TotalRewards())
	return nil
}

// SetPeriod fixes the reward window; startTime must be strictly in the
// future and the window must not have opened yet.
func (e *Engine) SetPeriod(caller lockpool.Address, durationDays uint32, startTime uint64) error {
	if err := e.enter(); err != nil {
		return err
	}
	defer e.exit()
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	if err := e.ctrl.SetPeriod(e.now(), durationDays, startTime); err != nil {
		return err
	}
	logger.Info("period configured", "start", e.ctrl.StartTime(), "end", e.ctrl.EndTime(), "rate", e.ctrl.RewardRate())
	return nil
}

// EmergencyStop settles the pool and cuts the reward window to end now.
// One-shot, only while the period is active.
func (e *Engine) EmergencyStop(caller lockpool.Address) error {
	if err := e.enter(); err != nil {
		return err
	}
	defer e.exit()
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	now := e.now()
	if err := e.settleGlobal(now); err != nil {
		return err
	}
	if err := e.ctrl.EmergencyStop(now); err != nil {
		return err
	}
	logger.Warn("emergency stopped", "end", now)
	return nil
}

// SweepDust transfers the engine's entire remaining reward-asset balance
// to the owner. Available 30 days after the period end; intentionally also
// recovers floor-division dust and reward stranded while the pool held no
// shares.
func (e *Engine) SweepDust(caller lockpool.Address) error {
	if err := e.enter(); err != nil {
		return err
	}
	defer e.exit()
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	if err := e.ctrl.SweepEligible(e.now()); err != nil {
		return err
	}
	balance, err := e.rewardToken.BalanceOf(e.self)
	if err != nil {
		return err
	}
	if balance.Sign() == 0 {
		return nil
	}
	if err := e.rewardToken.Transfer(e.owner, balance); err != nil {
		return err
	}
	logger.Info("swept dust", "amount", balance)
	return nil
}

// SetPaused toggles the switch blocking the state-mutating staking entry
// points.
func (e *Engine) SetPaused(caller lockpool.Address, paused bool) error {
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	e.paused = paused
	logger.Info("pause switched", "paused", paused)
	return nil
}

// TransferOwnership starts the two-step handover to newOwner.
func (e *Engine) TransferOwnership(caller, newOwner lockpool.Address) error {
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	e.pendingOwner = &newOwner
	logger.Info("ownership transfer started", "pendingOwner", newOwner)
	return nil
}

// AcceptOwnership completes the handover; only the pending owner may call.
func (e *Engine) AcceptOwnership(caller lockpool.Address) error {
	if e.pendingOwner == nil || caller != *e.pendingOwner {
		return ErrNotCandidate
	}
	e.owner = caller
	e.pendingOwner = nil
	logger.Info("ownership transferred", "owner", caller)
	return nil
}

//
// internals
//

// pendingUnlocked sums claimable reward over the ledger's unlocked stakes
// against the given accumulator value. Locked stakes are skipped entirely;
// their shares stayed in totalShares, so their accrual is preserved until
// they unlock.
func (e *Engine) pendingUnlocked(ledger *stakes.Ledger, now uint64, perShare *big.Int) *big.Int {
	total := new(big.Int)
	for _, stake := range ledger.All() {
		if !stake.Unlocked(now) {
			continue
		}
		total.Add(total, rewards.PendingAt(stake, perShare))
	}
	return total
}

// settleUnlocked advances the debt snapshot of every unlocked stake.
func (e *Engine) settleUnlocked(ledger *stakes.Ledger, now uint64) {
	for _, stake := range ledger.All() {
		if !stake.Unlocked(now) {
			continue
		}
		e.acc.SettleStake(stake)
	}
}

func (e *Engine) debtFor(shares *big.Int) *big.Int {
	debt := new(big.Int).Mul(shares, e.acc.AccPerShare())
	return debt.Div(debt, lockpool.RewardScale)
}

func (e *Engine) gaugeShares() {
	if shares := e.acc.TotalShares(); shares.IsInt64() {
		metricTotalShares.Set(shares.Int64())
	}
	if acc := e.acc.AccPerShare(); acc.IsInt64() {
		metricAccPerShare.Set(acc.Int64())
	}
}
