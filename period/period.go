// Copyright (c) 2025 The Lockpool developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package period manages the reward budget and the time window the
// accumulator operates within.
package period

import (
	"math/big"

	"github.com/lockpool/lockpool/lockpool"
	"github.com/lockpool/lockpool/staking/reverts"
)

type Status uint8

const (
	StatusUnconfigured Status = iota
	StatusNotStarted          // configured, rewards not yet started
	StatusActive
	StatusEnded // past end time, naturally or via emergency stop
)

func (s Status) String() string {
	switch s {
	case StatusUnconfigured:
		return "unconfigured"
	case StatusNotStarted:
		return "notStarted"
	case StatusActive:
		return "active"
	case StatusEnded:
		return "ended"
	default:
		return "unknown"
	}
}

var (
	ErrAlreadyStarted   = reverts.New("rewards already started")
	ErrZeroDuration     = reverts.New("duration is zero")
	ErrStartNotFuture   = reverts.New("start time must be in the future")
	ErrNotStarted       = reverts.New("rewards not started")
	ErrNotFunded        = reverts.New("no rewards available")
	ErrStopUsed         = reverts.New("emergency stop already used")
	ErrStopNotActive    = reverts.New("no active reward period to stop")
	ErrSweepUnavailable = reverts.New("sweep not yet available")
	ErrFundingExceeded  = reverts.New("removal exceeds funded rewards")
)

// Controller is the reward-period lifecycle state machine:
// Unconfigured -> NotStarted -> Active -> Ended. The end may arrive early
// through a one-shot emergency stop.
type Controller struct {
	totalRewards *big.Int
	startTime    uint64
	endTime      uint64
	naturalEnd   uint64 // end as originally configured; endTime may be cut short
	funded       bool
	configured   bool
	stopped      bool
}

// New creates an unconfigured controller with an empty budget.
func New() *Controller {
	return &Controller{totalRewards: new(big.Int)}
}

// Restore rebuilds a controller from persisted state.
func Restore(totalRewards *big.Int, startTime, endTime, naturalEnd uint64, funded, configured, stopped bool) *Controller {
	return &Controller{
		totalRewards: new(big.Int).Set(totalRewards),
		startTime:    startTime,
		endTime:      endTime,
		naturalEnd:   naturalEnd,
		funded:       funded,
		configured:   configured,
		stopped:      stopped,
	}
}

// Status derives the lifecycle state at the given instant.
func (c *Controller) Status(now uint64) Status {
	switch {
	case !c.configured:
		return StatusUnconfigured
	case now < c.startTime:
		return StatusNotStarted
	case now < c.endTime:
		return StatusActive
	default:
		return StatusEnded
	}
}

func (c *Controller) TotalRewards() *big.Int {
	return new(big.Int).Set(c.totalRewards)
}

func (c *Controller) StartTime() uint64  { return c.startTime }
func (c *Controller) EndTime() uint64    { return c.endTime }
func (c *Controller) NaturalEnd() uint64 { return c.naturalEnd }
func (c *Controller) Funded() bool       { return c.funded }
func (c *Controller) Configured() bool   { return c.configured }
func (c *Controller) Stopped() bool      { return c.stopped }

// RewardRate is the fixed per-second emission: totalRewards over the full
// configured window, floor-divided. Zero until the period is configured.
// The rate is computed from the original window even after an emergency
// stop shortens the end.
func (c *Controller) RewardRate() *big.Int {
	if !c.configured {
		return new(big.Int)
	}
	window := c.naturalEnd - c.startTime
	if window == 0 {
		return new(big.Int)
	}
	return new(big.Int).Div(c.totalRewards, new(big.Int).SetUint64(window))
}

// AddFunding grows the reward budget. Permitted only strictly before the
// rewards start.
func (c *Controller) AddFunding(now uint64, amount *big.Int) error {
	if err := c.requireBeforeStart(now); err != nil {
		return err
	}
	c.totalRewards.Add(c.totalRewards, amount)
	c.funded = c.totalRewards.Sign() > 0
	return nil
}

// RemoveFunding shrinks the reward budget. Permitted only strictly before
// the rewards start.
func (c *Controller) RemoveFunding(now uint64, amount *big.Int) error {
	if err := c.requireBeforeStart(now); err != nil {
		return err
	}
	if amount.Cmp(c.totalRewards) > 0 {
		return ErrFundingExceeded
	}
	c.totalRewards.Sub(c.totalRewards, amount)
	c.funded = c.totalRewards.Sign() > 0
	return nil
}

// SetPeriod fixes the reward window. Permitted only before the rewards
// start; startTime must be strictly in the future.
func (c *Controller) SetPeriod(now uint64, durationDays uint32, startTime uint64) error {
	if err := c.requireBeforeStart(now); err != nil {
		return err
	}
	if durationDays == 0 {
		return ErrZeroDuration
	}
	if startTime <= now {
		return ErrStartNotFuture
	}
	c.startTime = startTime
	c.endTime = startTime + uint64(durationDays)*lockpool.SecondsPerDay
	c.naturalEnd = c.endTime
	c.configured = true
	return nil
}

// EmergencyStop shortens the reward window to end now. It may be invoked
// exactly once, only while the period is active.
func (c *Controller) EmergencyStop(now uint64) error {
	if c.stopped {
		return ErrStopUsed
	}
	if c.Status(now) != StatusActive {
		return ErrStopNotActive
	}
	c.endTime = now
	c.stopped = true
	return nil
}

// SweepEligible reports whether the admin may sweep the residual reward
// balance: only once a period was ever configured and the end is at least
// lockpool.SweepDelay in the past.
func (c *Controller) SweepEligible(now uint64) error {
	if !c.configured || now < c.endTime+lockpool.SweepDelay {
		return ErrSweepUnavailable
	}
	return nil
}

// RequireActive gates the staking entry points: the pool must be funded
// and the reward window must have opened.
func (c *Controller) RequireActive(now uint64) error {
	if !c.funded {
		return ErrNotFunded
	}
	if !c.configured || now < c.startTime {
		return ErrNotStarted
	}
	return nil
}

func (c *Controller) requireBeforeStart(now uint64) error {
	if c.configured && now >= c.startTime {
		return ErrAlreadyStarted
	}
	return nil
}
