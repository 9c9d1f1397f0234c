// Copyright (c) 2025 The Lockpool developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	cli "gopkg.in/urfave/cli.v1"
)

var (
	apiAddrFlag = cli.StringFlag{
		Name:  "api-addr",
		Value: "localhost:8668",
		Usage: "API service listening address",
	}
	apiCorsFlag = cli.StringFlag{
		Name:  "api-cors",
		Value: "",
		Usage: "comma separated list of domains from which to accept cross origin requests to API",
	}
	dataDirFlag = cli.StringFlag{
		Name:  "data-dir",
		Value: defaultDataDir(),
		Usage: "directory for the ledger database",
	}
	memFlag = cli.BoolFlag{
		Name:  "mem",
		Usage: "keep the ledger in memory, nothing is persisted",
	}
	verbosityFlag = cli.IntFlag{
		Name:  "verbosity",
		Value: 3,
		Usage: "log verbosity (0-5)",
	}
	ownerFlag = cli.StringFlag{
		Name:  "owner",
		Usage: "address of the pool owner, acts on the admin routes",
	}
	persistIntervalFlag = cli.Uint64Flag{
		Name:  "persist-interval",
		Value: 60,
		Usage: "seconds between ledger snapshots",
	}
	devFlag = cli.BoolFlag{
		Name:  "dev",
		Usage: "mint development balances into the asset books",
	}

	silverThresholdFlag = cli.StringFlag{
		Name:  "tier-silver",
		Value: "5000",
		Usage: "minimum deposit for the silver tier",
	}
	goldThresholdFlag = cli.StringFlag{
		Name:  "tier-gold",
		Value: "10000",
		Usage: "minimum deposit for the gold tier",
	}
	diamondThresholdFlag = cli.StringFlag{
		Name:  "tier-diamond",
		Value: "20000",
		Usage: "minimum deposit for the diamond tier",
	}
	silverBonusFlag = cli.Uint64Flag{
		Name:  "bonus-silver",
		Value: 50_000,
		Usage: "silver tier bonus, in millionths",
	}
	goldBonusFlag = cli.Uint64Flag{
		Name:  "bonus-gold",
		Value: 100_000,
		Usage: "gold tier bonus, in millionths",
	}
	diamondBonusFlag = cli.Uint64Flag{
		Name:  "bonus-diamond",
		Value: 200_000,
		Usage: "diamond tier bonus, in millionths",
	}
	linearScaleFlag = cli.Uint64Flag{
		Name:  "time-linear",
		Value: 10_000,
		Usage: "linear time bonus per locked day, in millionths",
	}
	quadraticScaleFlag = cli.Uint64Flag{
		Name:  "time-quadratic",
		Value: 20,
		Usage: "quadratic time bonus per locked day squared, in millionths",
	}
	maxMultiplierFlag = cli.Uint64Flag{
		Name:  "max-multiplier",
		Value: 3_000_000,
		Usage: "combined multiplier cap, in millionths",
	}
)
