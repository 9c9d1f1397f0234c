// Copyright (c) 2025 The Lockpool developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"fmt"
	"math/big"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/lockpool/lockpool/api"
	"github.com/lockpool/lockpool/ledgerdb"
	"github.com/lockpool/lockpool/lockpool"
	"github.com/lockpool/lockpool/log"
	"github.com/lockpool/lockpool/metrics"
	"github.com/lockpool/lockpool/staking"
	"github.com/lockpool/lockpool/token"
)

var (
	version   string
	gitCommit string

	logger = log.WithContext("pkg", "main")

	// poolAddr is the account custodying the pooled assets.
	poolAddr = lockpool.BytesToAddress([]byte("lockpool"))
)

func fullVersion() string {
	if gitCommit == "" {
		return version + "-dev"
	}
	return fmt.Sprintf("%s-%s", version, gitCommit)
}

func main() {
	app := cli.App{
		Version:   fullVersion(),
		Name:      "Lockpool",
		Usage:     "Pooled staking reward accounting service",
		Copyright: "2025 The Lockpool developers",
		Flags: []cli.Flag{
			apiAddrFlag,
			apiCorsFlag,
			dataDirFlag,
			memFlag,
			verbosityFlag,
			ownerFlag,
			persistIntervalFlag,
			devFlag,
			silverThresholdFlag,
			goldThresholdFlag,
			diamondThresholdFlag,
			silverBonusFlag,
			goldBonusFlag,
			diamondBonusFlag,
			linearScaleFlag,
			quadraticScaleFlag,
			maxMultiplierFlag,
		},
		Action: defaultAction,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func defaultAction(ctx *cli.Context) error {
	defer func() { logger.Info("exited") }()

	initLogger(ctx)
	metrics.InitializePrometheusMetrics()

	parsed, err := lockpool.ParseAddress(ctx.String(ownerFlag.Name))
	if err != nil {
		return errors.WithMessagef(err, "-%s", ownerFlag.Name)
	}
	owner := *parsed

	schedule, err := makeSchedule(ctx)
	if err != nil {
		return err
	}

	store, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer func() { logger.Info("closing ledger database..."); store.Close() }()

	db, err := ledgerdb.New(store)
	if err != nil {
		return err
	}

	depositBook := token.New(store, "deposit", poolAddr)
	rewardBook := token.New(store, "reward", poolAddr)
	if ctx.Bool(devFlag.Name) {
		if err := mintDevBalances(owner, depositBook, rewardBook); err != nil {
			return err
		}
	}

	engine, err := staking.New(staking.Options{
		Self:         poolAddr,
		Owner:        owner,
		DepositToken: depositBook,
		RewardToken:  rewardBook,
		Schedule:     schedule,
	})
	if err != nil {
		return err
	}

	snap, found, err := db.LoadSnapshot()
	if err != nil {
		return err
	}
	if found {
		if err := engine.RestoreSnapshot(snap); err != nil {
			return errors.Wrap(err, "restore snapshot")
		}
		logger.Info("ledger restored", "accounts", len(snap.Accounts), "totalShares", snap.TotalShares, "owner", engine.Owner())
	}

	var mu sync.RWMutex
	handler := api.New(api.Options{
		Engine:         engine,
		Admin:          owner,
		AllowedOrigins: parseOrigins(ctx),
		Mu:             &mu,
	})

	srv := &http.Server{Addr: ctx.String(apiAddrFlag.Name), Handler: handler}
	persistInterval := time.Duration(ctx.Uint64(persistIntervalFlag.Name)) * time.Second

	exitCtx := handleExitSignal()
	group, groupCtx := errgroup.WithContext(exitCtx)

	group.Go(func() error {
		logger.Info("API server started", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			return errors.Wrap(err, "api server")
		}
		return nil
	})
	group.Go(func() error {
		ticker := time.NewTicker(persistInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := persist(db, engine, &mu); err != nil {
					logger.Error("snapshot persist failed", "error", err)
				}
			case <-groupCtx.Done():
				return nil
			}
		}
	})
	group.Go(func() error {
		<-groupCtx.Done()
		logger.Info("stopping API server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	err = group.Wait()

	// final snapshot regardless of how the group ended
	if perr := persist(db, engine, &mu); perr != nil {
		logger.Error("final snapshot persist failed", "error", perr)
		if err == nil {
			err = perr
		}
	}
	return err
}

func persist(db *ledgerdb.LedgerDB, engine *staking.Engine, mu *sync.RWMutex) error {
	mu.RLock()
	snap := engine.Snapshot()
	mu.RUnlock()
	return db.SaveSnapshot(snap)
}

// mintDevBalances seeds throwaway balances so the service is usable right
// away in development.
func mintDevBalances(owner lockpool.Address, depositBook, rewardBook *token.Book) error {
	devAccounts := []lockpool.Address{
		lockpool.BytesToAddress([]byte("dev1")),
		lockpool.BytesToAddress([]byte("dev2")),
		lockpool.BytesToAddress([]byte("dev3")),
	}
	for _, addr := range devAccounts {
		if err := depositBook.Mint(addr, big.NewInt(1_000_000)); err != nil {
			return err
		}
	}
	if err := rewardBook.Mint(owner, new(big.Int).SetUint64(1_000_000_000)); err != nil {
		return err
	}
	logger.Info("dev balances minted", "accounts", len(devAccounts), "owner", owner)
	return nil
}
