// Copyright (c) 2025 The Lockpool developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"math/big"

	"github.com/lockpool/lockpool/stakes"
	"github.com/lockpool/lockpool/staking"
)

// Stake is one stake record. Index is positional and not stable across
// withdrawals; re-fetch the list after any removal.
type Stake struct {
	Index        int    `json:"index"`
	Amount       string `json:"amount"`
	Shares       string `json:"shares"`
	DepositTime  uint64 `json:"depositTime"`
	LockDuration uint64 `json:"lockDuration"`
	UnlockTime   uint64 `json:"unlockTime"`
}

func convertStake(index int, s *stakes.Stake) *Stake {
	return &Stake{
		Index:        index,
		Amount:       s.Amount.String(),
		Shares:       s.Shares.String(),
		DepositTime:  s.DepositTime,
		LockDuration: s.LockDuration,
		UnlockTime:   s.UnlockTime(),
	}
}

// Pending is a claimable-reward preview.
type Pending struct {
	Pending string `json:"pending"`
}

// Period reports the reward period configuration and lifecycle state.
type Period struct {
	Status       string `json:"status"`
	TotalRewards string `json:"totalRewards"`
	RewardRate   string `json:"rewardRate"`
	StartTime    uint64 `json:"startTime"`
	EndTime      uint64 `json:"endTime"`
	Funded       bool   `json:"funded"`
	Stopped      bool   `json:"stopped"`
	Paused       bool   `json:"paused"`
}

func convertPeriod(info *staking.PeriodInfo) *Period {
	return &Period{
		Status:       info.Status.String(),
		TotalRewards: info.TotalRewards.String(),
		RewardRate:   info.RewardRate.String(),
		StartTime:    info.StartTime,
		EndTime:      info.EndTime,
		Funded:       info.Funded,
		Stopped:      info.Stopped,
		Paused:       info.Paused,
	}
}

// DepositRequest is the deposit action payload.
type DepositRequest struct {
	Amount   string `json:"amount"`
	LockDays uint32 `json:"lockDays"`
}

// WithdrawRequest is the withdraw action payload.
type WithdrawRequest struct {
	Index int `json:"index"`
}

func parseAmount(s string) (*big.Int, bool) {
	return new(big.Int).SetString(s, 10)
}
