// Package xcmd holds CLI-lifecycle helpers: waiting for an interrupt
// signal alongside whatever other work a command is doing, so
// cmd/mlogcat's --follow loop can stop cleanly on Ctrl-C without its own
// signal-handling glue.
package xcmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// Interrupted wraps the signal that ended a WaitInterrupted call.
type Interrupted struct {
	os.Signal
}

func (m Interrupted) Error() string {
	return m.String()
}

// WaitInterrupted blocks until either SIGINT or SIGTERM is received or the
// provided context is canceled.
func WaitInterrupted(ctx context.Context) error {
	ch := make(chan os.Signal, 1)

	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	select {
	case v := <-ch:
		return Interrupted{Signal: v}
	case <-ctx.Done():
		return ctx.Err()
	}
}
