package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/yanet-platform/mlog"
	"github.com/yanet-platform/mlog/internal/bitset"
)

// recordPrinter renders one decoded record as a line of text, with
// optional columns gated by the cmd's show-* flags.
type recordPrinter struct {
	cmd   Cmd
	count int
}

func (p *recordPrinter) print(info mlog.Info, payload []byte) bool {
	var b strings.Builder

	fmt.Fprint(&b, time.UnixMicro(info.TimeUS).Format(p.cmd.DateFormat))

	if p.cmd.ShowLevel {
		fmt.Fprintf(&b, " L%d", info.Level)
	}
	if p.cmd.ShowCategory {
		fmt.Fprintf(&b, " C%d", info.Category)
	}
	if p.cmd.ShowPID {
		fmt.Fprintf(&b, " pid=%d", info.PID)
	}
	if p.cmd.ShowThread {
		if info.ThreadName != "" {
			fmt.Fprintf(&b, " @%d:%s", info.ThreadID, info.ThreadName)
		} else {
			fmt.Fprintf(&b, " @%d", info.ThreadID)
		}
	}
	if p.cmd.ShowSource && info.SourceName != "" {
		fmt.Fprintf(&b, " %s:%d", info.SourceName, info.SourceLine)
	}
	if info.MiniData != 0 {
		fmt.Fprint(&b, " ")
		fmt.Fprintf(&b, p.cmd.MiniFormat, info.MiniData)
	}

	fmt.Fprintf(&b, " #%d: %s", info.WeakOrder, trimTrailingNUL(payload))

	fmt.Fprintln(os.Stdout, b.String())
	p.count++
	return true
}

// trimTrailingNUL drops a single trailing NUL byte, the terminator
// mlog.Writer.PutString appends after its string payload.
func trimTrailingNUL(b []byte) string {
	if n := len(b); n > 0 && b[n-1] == 0 {
		b = b[:n-1]
	}
	return string(b)
}

// matches evaluates every filter flag against a candidate record's Info.
// It runs as the Choice callback during each partition's tail walk, before
// the k-way merge, so rejected records never reach the priority queue.
func matches(
	info mlog.Info,
	c Cmd,
	categories *bitset.TinyBitset,
	pids, threads map[uint32]bool,
	orderMax uint32, hasOrderMax bool,
	timeMax int64, hasTimeMax bool,
) bool {
	if c.HasLevel && info.Level > uint32(c.Level) {
		return false
	}
	if categories != nil && !categories.Contains(info.Category) {
		return false
	}
	if pids != nil && !pids[info.PID] {
		return false
	}
	if threads != nil && !threads[info.ThreadID] {
		return false
	}
	if hasOrderMax && info.WeakOrder > orderMax {
		return false
	}
	if hasTimeMax && info.TimeUS > timeMax {
		return false
	}
	return true
}

// parseOrderRange interprets --order's 0, 1, or 2 values as
// (orderMin, no upper bound), (orderMin, no upper bound), or an inclusive
// [beg, end] range respectively.
func parseOrderRange(vals []uint) (orderMin, orderMax uint32, hasMax bool, err error) {
	switch len(vals) {
	case 0:
		return 0, 0, false, nil
	case 1:
		return uint32(vals[0]), 0, false, nil
	case 2:
		if vals[1] < vals[0] {
			return 0, 0, false, fmt.Errorf("mlogcat: --order end %d is before begin %d", vals[1], vals[0])
		}
		return uint32(vals[0]), uint32(vals[1]), true, nil
	default:
		return 0, 0, false, fmt.Errorf("mlogcat: --order takes at most 2 values, got %d", len(vals))
	}
}

// parseDateRange interprets --date's 0, 1, or 2 values, each parsed with
// layout, as (timeMin, no upper bound) or an inclusive [beg, end] range.
func parseDateRange(vals []string, layout string) (timeMin, timeMax int64, hasMax bool, err error) {
	parse := func(s string) (int64, error) {
		t, err := time.Parse(layout, s)
		if err != nil {
			return 0, fmt.Errorf("mlogcat: --date value %q does not match layout %q: %w", s, layout, err)
		}
		return t.UnixMicro(), nil
	}

	switch len(vals) {
	case 0:
		return 0, 0, false, nil
	case 1:
		v, err := parse(vals[0])
		return v, 0, false, err
	case 2:
		beg, err := parse(vals[0])
		if err != nil {
			return 0, 0, false, err
		}
		end, err := parse(vals[1])
		if err != nil {
			return 0, 0, false, err
		}
		if end < beg {
			return 0, 0, false, fmt.Errorf("mlogcat: --date end %q is before begin %q", vals[1], vals[0])
		}
		return beg, end, true, nil
	default:
		return 0, 0, false, fmt.Errorf("mlogcat: --date takes at most 2 values, got %d", len(vals))
	}
}
