package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"

	"github.com/yanet-platform/mlog"
	"github.com/yanet-platform/mlog/internal/xcmd"
)

// loadAndPrint loads name once, scans it, and optionally clears it
// afterward (--clear). It is the non-follow path of run.
func loadAndPrint(name string, log *zap.SugaredLogger, maxCount int, orderMin uint32, timeMin int64, choice mlog.Choice, access mlog.Access, clear bool) error {
	r, err := mlog.LoadWithLogger(name, log)
	if err != nil {
		return fmt.Errorf("mlogcat: %w", err)
	}

	r.Scan(maxCount, orderMin, timeMin, choice, access)

	if clear {
		if err := mlog.ClearFile(name); err != nil {
			return fmt.Errorf("mlogcat: %w", err)
		}
	}
	return nil
}

// followPollInterval is how often --follow re-opens and re-scans the file
// for records published since the last poll. A shared mmap file offers
// nothing to block on, so tailing is a poll loop.
const followPollInterval = 200 * time.Millisecond

// followAndPrint opens name, retrying with exponential backoff while the
// file does not yet exist (a writer process may not have started), then
// polls it on followPollInterval, delivering only records with
// order > the highest order already seen, until maxCount records have been
// delivered or the process receives SIGINT/SIGTERM.
func followAndPrint(name string, log *zap.SugaredLogger, maxCount int, orderMin uint32, timeMin int64, choice mlog.Choice, access mlog.Access) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	interrupted := make(chan error, 1)
	go func() { interrupted <- xcmd.WaitInterrupted(ctx) }()

	b := backoff.ExponentialBackOff{
		InitialInterval:     backoff.DefaultInitialInterval,
		RandomizationFactor: backoff.DefaultRandomizationFactor,
		Multiplier:          backoff.DefaultMultiplier,
		MaxInterval:         5 * time.Second,
	}
	b.Reset()

	var lastOrder uint32
	if orderMin > 0 {
		lastOrder = orderMin - 1
	}
	printed := 0

	for {
		r, err := mlog.LoadWithLogger(name, log)
		if err != nil {
			log.Debugw("follow: open failed, retrying", "name", name, "error", err)
			select {
			case <-time.After(b.NextBackOff()):
			case sig := <-interrupted:
				return stopErr(sig)
			}
			continue
		}
		b.Reset()

		r.Scan(0, lastOrder+1, timeMin, choice, func(info mlog.Info, payload []byte) bool {
			if maxCount > 0 && printed >= maxCount {
				return false
			}
			if !access(info, payload) {
				return false
			}
			if info.WeakOrder > lastOrder {
				lastOrder = info.WeakOrder
			}
			printed++
			return true
		})

		if maxCount > 0 && printed >= maxCount {
			return nil
		}

		select {
		case <-time.After(followPollInterval):
		case sig := <-interrupted:
			return stopErr(sig)
		}
	}
}

// stopErr turns a clean SIGINT/SIGTERM stop of --follow into a nil error
// (Ctrl-C is the expected way to end a tail, not a failure); any other
// error from xcmd.WaitInterrupted (e.g. context cancellation, which never
// actually happens here since nothing else cancels ctx) is propagated.
func stopErr(err error) error {
	var interrupted xcmd.Interrupted
	if errors.As(err, &interrupted) {
		return nil
	}
	return err
}
