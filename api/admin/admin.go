// Copyright (c) 2025 The Lockpool developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package admin exposes the owner-only operations over HTTP. The handlers
// act as the configured admin account; access control for the route itself
// belongs to the deployment (bind to localhost or front with auth).
package admin

import (
	"math/big"
	"net/http"
	"sync"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	apistaking "github.com/lockpool/lockpool/api/staking"
	"github.com/lockpool/lockpool/api/utils"
	"github.com/lockpool/lockpool/lockpool"
	"github.com/lockpool/lockpool/staking"
)

// FundingRequest grows or shrinks the reward budget.
type FundingRequest struct {
	Amount string `json:"amount"`
	Remove bool   `json:"remove"`
}

// PeriodRequest fixes the reward window.
type PeriodRequest struct {
	DurationDays uint32 `json:"durationDays"`
	StartTime    uint64 `json:"startTime"`
}

// PauseRequest toggles the pause switch.
type PauseRequest struct {
	Paused bool `json:"paused"`
}

// Admin routes owner operations to the engine.
type Admin struct {
	engine *staking.Engine
	caller lockpool.Address
	mu     *sync.RWMutex
}

// New creates the handler group acting as caller. mu must be the same lock
// the staking handlers use.
func New(engine *staking.Engine, caller lockpool.Address, mu *sync.RWMutex) *Admin {
	return &Admin{engine, caller, mu}
}

func (a *Admin) handleFunding(w http.ResponseWriter, req *http.Request) error {
	var body FundingRequest
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	amount, ok := new(big.Int).SetString(body.Amount, 10)
	if !ok {
		return utils.BadRequest(errors.New("amount: malformed decimal"))
	}

	a.mu.Lock()
	var err error
	if body.Remove {
		err = a.engine.RemoveFunding(a.caller, amount)
	} else {
		err = a.engine.AddFunding(a.caller, amount)
	}
	info := a.engine.Period()
	a.mu.Unlock()
	if err != nil {
		return apistaking.ConvertError(err)
	}
	return utils.WriteJSON(w, utils.M{"totalRewards": info.TotalRewards.String()})
}

func (a *Admin) handlePeriod(w http.ResponseWriter, req *http.Request) error {
	var body PeriodRequest
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}

	a.mu.Lock()
	err := a.engine.SetPeriod(a.caller, body.DurationDays, body.StartTime)
	info := a.engine.Period()
	a.mu.Unlock()
	if err != nil {
		return apistaking.ConvertError(err)
	}
	return utils.WriteJSON(w, utils.M{
		"startTime":  info.StartTime,
		"endTime":    info.EndTime,
		"rewardRate": info.RewardRate.String(),
	})
}

func (a *Admin) handleEmergencyStop(w http.ResponseWriter, _ *http.Request) error {
	a.mu.Lock()
	err := a.engine.EmergencyStop(a.caller)
	info := a.engine.Period()
	a.mu.Unlock()
	if err != nil {
		return apistaking.ConvertError(err)
	}
	return utils.WriteJSON(w, utils.M{"endTime": info.EndTime})
}

func (a *Admin) handleSweep(w http.ResponseWriter, _ *http.Request) error {
	a.mu.Lock()
	err := a.engine.SweepDust(a.caller)
	a.mu.Unlock()
	if err != nil {
		return apistaking.ConvertError(err)
	}
	return utils.WriteJSON(w, utils.M{"ok": true})
}

func (a *Admin) handlePause(w http.ResponseWriter, req *http.Request) error {
	var body PauseRequest
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}

	a.mu.Lock()
	err := a.engine.SetPaused(a.caller, body.Paused)
	a.mu.Unlock()
	if err != nil {
		return apistaking.ConvertError(err)
	}
	return utils.WriteJSON(w, utils.M{"paused": body.Paused})
}

func (a *Admin) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/funding").Methods(http.MethodPost).HandlerFunc(utils.WrapHandlerFunc(a.handleFunding))
	sub.Path("/period").Methods(http.MethodPost).HandlerFunc(utils.WrapHandlerFunc(a.handlePeriod))
	sub.Path("/emergency-stop").Methods(http.MethodPost).HandlerFunc(utils.WrapHandlerFunc(a.handleEmergencyStop))
	sub.Path("/sweep").Methods(http.MethodPost).HandlerFunc(utils.WrapHandlerFunc(a.handleSweep))
	sub.Path("/pause").Methods(http.MethodPost).HandlerFunc(utils.WrapHandlerFunc(a.handlePause))
}
