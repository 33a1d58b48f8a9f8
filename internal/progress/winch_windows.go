//go:build windows

package progress

import "sync/atomic"

// watchResize is a no-op on Windows, which has no SIGWINCH. The width is
// queried once.
func watchResize(stale *atomic.Bool) func() {
	return func() {}
}
