// Copyright (c) 2025 The Lockpool developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"sync"
	"time"
)

const timeFormat = "Jan 02 15:04:05"

// TerminalHandler formats records for human readability on a terminal:
//
//	[LEVEL] [TIME] MESSAGE key=value key=value ...
type TerminalHandler struct {
	mu       sync.Mutex
	wr       io.Writer
	lvl      *slog.LevelVar
	useColor bool
	attrs    []slog.Attr
}

// NewTerminalHandler returns a terminal handler with max verbosity.
func NewTerminalHandler(wr io.Writer, useColor bool) *TerminalHandler {
	var level slog.LevelVar
	level.Set(LevelTrace)
	return NewTerminalHandlerWithLevel(wr, &level, useColor)
}

// NewTerminalHandlerWithLevel returns a terminal handler limited to records
// at the given level or above.
func NewTerminalHandlerWithLevel(wr io.Writer, lvl *slog.LevelVar, useColor bool) *TerminalHandler {
	return &TerminalHandler{
		wr:       wr,
		lvl:      lvl,
		useColor: useColor,
	}
}

func (h *TerminalHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.lvl.Level()
}

func (h *TerminalHandler) WithGroup(_ string) slog.Handler {
	panic("not implemented")
}

func (h *TerminalHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &TerminalHandler{
		wr:       h.wr,
		lvl:      h.lvl,
		useColor: h.useColor,
		attrs:    append(append([]slog.Attr{}, h.attrs...), attrs...),
	}
}

func (h *TerminalHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	buf := make([]byte, 0, 128)
	lvl, color := levelString(r.Level)
	if h.useColor && color > 0 {
		buf = fmt.Appendf(buf, "\x1b[%dm%s\x1b[0m", color, lvl)
	} else {
		buf = append(buf, lvl...)
	}
	buf = fmt.Appendf(buf, " [%s] %s", r.Time.Format(timeFormat), r.Message)

	for _, attr := range h.attrs {
		buf = appendAttr(buf, attr)
	}
	r.Attrs(func(attr slog.Attr) bool {
		buf = appendAttr(buf, attr)
		return true
	})
	buf = append(buf, '\n')

	_, err := h.wr.Write(buf)
	return err
}

func appendAttr(buf []byte, attr slog.Attr) []byte {
	return fmt.Appendf(buf, " %s=%s", attr.Key, formatValue(attr.Value))
}

func formatValue(v slog.Value) string {
	v = v.Resolve()
	switch v.Kind() {
	case slog.KindTime:
		return v.Time().Format(timeFormat)
	case slog.KindAny:
		if b, ok := v.Any().(*big.Int); ok && b != nil {
			return b.String()
		}
		if d, ok := v.Any().(time.Duration); ok {
			return d.String()
		}
	}
	return v.String()
}

func levelString(l slog.Level) (string, int) {
	switch {
	case l <= LevelTrace:
		return "[TRCE]", 0
	case l <= LevelDebug:
		return "[DBUG]", 36
	case l <= LevelInfo:
		return "[INFO]", 32
	case l <= LevelWarn:
		return "[WARN]", 33
	default:
		return "[EROR]", 31
	}
}
