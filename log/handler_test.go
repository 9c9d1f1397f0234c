// Copyright (c) 2025 The Lockpool developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package log

import (
	"bytes"
	"log/slog"
	"math/big"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTerminalHandler(t *testing.T) {
	var buf bytes.Buffer
	logger := New(NewTerminalHandler(&buf, false))

	logger.Info("settled pool", "shares", big.NewInt(12345), "elapsed", 7)

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "[INFO]"))
	assert.Contains(t, out, "settled pool")
	assert.Contains(t, out, "shares=12345")
	assert.Contains(t, out, "elapsed=7")
}

func TestHandlerLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	var lvl slog.LevelVar
	lvl.Set(LevelWarn)
	logger := New(NewTerminalHandlerWithLevel(&buf, &lvl, false))

	logger.Debug("dropped")
	logger.Info("dropped too")
	logger.Warn("kept")

	out := buf.String()
	assert.NotContains(t, out, "dropped")
	assert.Contains(t, out, "kept")
}

func TestWithContext(t *testing.T) {
	var buf bytes.Buffer
	SetDefault(New(NewTerminalHandler(&buf, false)))

	WithContext("pkg", "staking").Info("deposit accepted")
	assert.Contains(t, buf.String(), "pkg=staking")
}
