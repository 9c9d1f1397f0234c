// Copyright (c) 2025 The Lockpool developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package api assembles the HTTP surface: staking reads and actions,
// owner-only admin operations and the metrics endpoint.
package api

import (
	"net/http"
	"sync"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	apiadmin "github.com/lockpool/lockpool/api/admin"
	apistaking "github.com/lockpool/lockpool/api/staking"
	"github.com/lockpool/lockpool/lockpool"
	"github.com/lockpool/lockpool/metrics"
	"github.com/lockpool/lockpool/staking"
)

// Options configures the HTTP handler.
type Options struct {
	Engine *staking.Engine

	// Admin is the account the admin routes act as; the routes are
	// disabled when left zero.
	Admin lockpool.Address

	AllowedOrigins []string

	// Mu serializes engine access. Callers touching the engine outside
	// the API must share it; created when nil.
	Mu *sync.RWMutex
}

// New assembles the complete API handler.
func New(opts Options) http.Handler {
	router := mux.NewRouter()

	// the engine refuses interleaved calls; one lock serializes every route
	mu := opts.Mu
	if mu == nil {
		mu = new(sync.RWMutex)
	}
	apistaking.New(opts.Engine, mu).Mount(router, "/staking")
	if !opts.Admin.IsZero() {
		apiadmin.New(opts.Engine, opts.Admin, mu).Mount(router, "/admin")
	}
	router.Path("/metrics").Handler(metrics.HTTPHandler())

	handler := handlers.CompressHandler(router)
	handler = handlers.CORS(
		handlers.AllowedOrigins(opts.AllowedOrigins),
		handlers.AllowedHeaders([]string{"content-type"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost}),
	)(handler)
	return metricsHandler(handler)
}
