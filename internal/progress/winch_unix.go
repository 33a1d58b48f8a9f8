//go:build !windows

package progress

import (
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
)

// watchResize marks stale whenever SIGWINCH is received
func watchResize(stale *atomic.Bool) func() {
	sigCh := make(chan os.Signal, 1)
	done := make(chan struct{})
	signal.Notify(sigCh, syscall.SIGWINCH)

	go func() {
		for {
			select {
			case <-sigCh:
				stale.Store(true)
			case <-done:
				return
			}
		}
	}()

	return func() {
		signal.Stop(sigCh)
		close(done)
	}
}
