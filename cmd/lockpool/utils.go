// Copyright (c) 2025 The Lockpool developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"log/slog"
	"math/big"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/lockpool/lockpool/kv"
	"github.com/lockpool/lockpool/lockpool"
	"github.com/lockpool/lockpool/log"
	"github.com/lockpool/lockpool/lvldb"
	"github.com/lockpool/lockpool/tier"
)

func initLogger(ctx *cli.Context) {
	var level slog.Level
	switch ctx.Int(verbosityFlag.Name) {
	case 0:
		level = slog.LevelError + 4 // silent
	case 1:
		level = slog.LevelError
	case 2:
		level = slog.LevelWarn
	case 3:
		level = slog.LevelInfo
	case 4:
		level = slog.LevelDebug
	default:
		level = log.LevelTrace
	}
	lvl := new(slog.LevelVar)
	lvl.Set(level)
	useColor := isatty.IsTerminal(os.Stderr.Fd())
	log.SetDefault(log.New(log.NewTerminalHandlerWithLevel(os.Stderr, lvl, useColor)))
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "Lockpool")
	case "windows":
		return filepath.Join(home, "AppData", "Roaming", "Lockpool")
	default:
		return filepath.Join(home, ".lockpool")
	}
}

func openStore(ctx *cli.Context) (kv.StoreCloser, error) {
	if ctx.Bool(memFlag.Name) {
		return lvldb.NewMem()
	}
	dataDir := ctx.String(dataDirFlag.Name)
	if dataDir == "" {
		return nil, errors.Errorf("unable to infer a data dir, use -%s to specify one", dataDirFlag.Name)
	}
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, errors.Wrapf(err, "create data dir at '%v'", dataDir)
	}
	return lvldb.New(filepath.Join(dataDir, "ledger.db"), lvldb.Options{})
}

func makeSchedule(ctx *cli.Context) (*tier.Schedule, error) {
	parse := func(flag cli.StringFlag) (*big.Int, error) {
		v, ok := new(big.Int).SetString(ctx.String(flag.Name), 10)
		if !ok {
			return nil, errors.Errorf("-%s: malformed decimal", flag.Name)
		}
		return v, nil
	}
	silver, err := parse(silverThresholdFlag)
	if err != nil {
		return nil, err
	}
	gold, err := parse(goldThresholdFlag)
	if err != nil {
		return nil, err
	}
	diamond, err := parse(diamondThresholdFlag)
	if err != nil {
		return nil, err
	}
	maxNumerator := new(big.Int).SetUint64(ctx.Uint64(maxMultiplierFlag.Name))
	maxNumerator.Mul(maxNumerator, lockpool.BaseMultiplierBig)

	return tier.NewSchedule(tier.Config{
		SilverThreshold:  silver,
		GoldThreshold:    gold,
		DiamondThreshold: diamond,
		SilverBonus:      ctx.Uint64(silverBonusFlag.Name),
		GoldBonus:        ctx.Uint64(goldBonusFlag.Name),
		DiamondBonus:     ctx.Uint64(diamondBonusFlag.Name),
		LinearScale:      ctx.Uint64(linearScaleFlag.Name),
		QuadraticScale:   ctx.Uint64(quadraticScaleFlag.Name),
		MaxNumerator:     maxNumerator,
	})
}

func parseOrigins(ctx *cli.Context) []string {
	raw := strings.TrimSpace(ctx.String(apiCorsFlag.Name))
	if raw == "" {
		return nil
	}
	origins := strings.Split(raw, ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}
	return origins
}

// handleExitSignal returns a context canceled on interrupt or terminate.
func handleExitSignal() context.Context {
	ctx, _ := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	return ctx
}
