// Copyright (c) 2025 The Lockpool developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package staking exposes the staking entry points over HTTP.
package staking

import (
	"net/http"
	"sync"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/lockpool/lockpool/api/utils"
	"github.com/lockpool/lockpool/lockpool"
	"github.com/lockpool/lockpool/period"
	"github.com/lockpool/lockpool/staking"
	"github.com/lockpool/lockpool/staking/reverts"
)

// Staking routes staking reads and actions to the engine. The engine
// rejects interleaved calls, so all calls are serialized through mu.
type Staking struct {
	engine *staking.Engine
	mu     *sync.RWMutex
}

// New creates the handler group. mu must be the same lock the admin
// handlers use.
func New(engine *staking.Engine, mu *sync.RWMutex) *Staking {
	return &Staking{engine, mu}
}

// ConvertError maps engine failures onto http statuses: named rejections
// are the caller's fault, everything else is internal.
func ConvertError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, staking.ErrNotOwner), errors.Is(err, staking.ErrNotCandidate):
		return utils.Forbidden(err)
	case errors.Is(err, period.ErrNotStarted), errors.Is(err, period.ErrNotFunded),
		errors.Is(err, period.ErrSweepUnavailable), errors.Is(err, staking.ErrPaused):
		return utils.Forbidden(err)
	case reverts.IsRevertErr(err):
		return utils.BadRequest(err)
	default:
		return err
	}
}

func accountVar(req *http.Request) (lockpool.Address, error) {
	addr, err := lockpool.ParseAddress(mux.Vars(req)["address"])
	if err != nil {
		return lockpool.Address{}, utils.BadRequest(errors.WithMessage(err, "address"))
	}
	return *addr, nil
}

func (s *Staking) handleGetStakes(w http.ResponseWriter, req *http.Request) error {
	addr, err := accountVar(req)
	if err != nil {
		return err
	}
	s.mu.RLock()
	list := s.engine.Stakes(addr)
	s.mu.RUnlock()

	out := make([]*Stake, len(list))
	for i, stake := range list {
		out[i] = convertStake(i, stake)
	}
	return utils.WriteJSON(w, out)
}

func (s *Staking) handleGetPending(w http.ResponseWriter, req *http.Request) error {
	addr, err := accountVar(req)
	if err != nil {
		return err
	}
	s.mu.RLock()
	pending := s.engine.PendingReward(addr)
	s.mu.RUnlock()

	return utils.WriteJSON(w, &Pending{Pending: pending.String()})
}

func (s *Staking) handleGetPeriod(w http.ResponseWriter, _ *http.Request) error {
	s.mu.RLock()
	info := s.engine.Period()
	s.mu.RUnlock()

	return utils.WriteJSON(w, convertPeriod(info))
}

func (s *Staking) handleDeposit(w http.ResponseWriter, req *http.Request) error {
	addr, err := accountVar(req)
	if err != nil {
		return err
	}
	var body DepositRequest
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	amount, ok := parseAmount(body.Amount)
	if !ok {
		return utils.BadRequest(errors.New("amount: malformed decimal"))
	}

	s.mu.Lock()
	err = s.engine.Deposit(addr, amount, body.LockDays)
	s.mu.Unlock()
	if err != nil {
		return ConvertError(err)
	}
	return utils.WriteJSON(w, utils.M{"ok": true})
}

func (s *Staking) handleWithdraw(w http.ResponseWriter, req *http.Request) error {
	addr, err := accountVar(req)
	if err != nil {
		return err
	}
	var body WithdrawRequest
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}

	s.mu.Lock()
	err = s.engine.Withdraw(addr, body.Index)
	s.mu.Unlock()
	if err != nil {
		return ConvertError(err)
	}
	return utils.WriteJSON(w, utils.M{"ok": true})
}

func (s *Staking) handleClaim(w http.ResponseWriter, req *http.Request) error {
	addr, err := accountVar(req)
	if err != nil {
		return err
	}
	s.mu.Lock()
	err = s.engine.Claim(addr)
	s.mu.Unlock()
	if err != nil {
		return ConvertError(err)
	}
	return utils.WriteJSON(w, utils.M{"ok": true})
}

func (s *Staking) handleEmergencyWithdraw(w http.ResponseWriter, req *http.Request) error {
	addr, err := accountVar(req)
	if err != nil {
		return err
	}
	s.mu.Lock()
	err = s.engine.EmergencyWithdrawAll(addr)
	s.mu.Unlock()
	if err != nil {
		return ConvertError(err)
	}
	return utils.WriteJSON(w, utils.M{"ok": true})
}

func (s *Staking) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/accounts/{address}/stakes").Methods(http.MethodGet).HandlerFunc(utils.WrapHandlerFunc(s.handleGetStakes))
	sub.Path("/accounts/{address}/pending").Methods(http.MethodGet).HandlerFunc(utils.WrapHandlerFunc(s.handleGetPending))
	sub.Path("/period").Methods(http.MethodGet).HandlerFunc(utils.WrapHandlerFunc(s.handleGetPeriod))
	sub.Path("/accounts/{address}/deposits").Methods(http.MethodPost).HandlerFunc(utils.WrapHandlerFunc(s.handleDeposit))
	sub.Path("/accounts/{address}/withdrawals").Methods(http.MethodPost).HandlerFunc(utils.WrapHandlerFunc(s.handleWithdraw))
	sub.Path("/accounts/{address}/claims").Methods(http.MethodPost).HandlerFunc(utils.WrapHandlerFunc(s.handleClaim))
	sub.Path("/accounts/{address}/emergency-withdrawals").Methods(http.MethodPost).HandlerFunc(utils.WrapHandlerFunc(s.handleEmergencyWithdraw))
}
