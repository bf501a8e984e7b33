// Package killswitch coordinates process shutdown. The switch fires at most
// once, whether the trigger comes from the operator command channel, the
// inactivity monitor, or an OS signal handled by the supervisor.
package killswitch

import (
	"bufio"
	"context"
	"io"
	"log"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// TerminateKeyword is the line the operator types to shut the service down.
const TerminateKeyword = "terminate"

// KillSwitch is a one-shot shutdown flag with observers. The zero value is
// not usable; use New.
type KillSwitch struct {
	once         sync.Once
	done         chan struct{}
	lastActivity atomic.Int64 // unix nanos of the most recent request
}

// New creates a kill switch in the RUNNING state.
func New() *KillSwitch {
	ks := &KillSwitch{done: make(chan struct{})}
	ks.Touch()
	return ks
}

// Trigger transitions to SHUTTING_DOWN. Idempotent and safe to call from any
// goroutine; all waiters observe the same transition exactly once.
func (ks *KillSwitch) Trigger() {
	ks.once.Do(func() {
		close(ks.done)
		log.Println("Kill switch triggered, shutting down")
	})
}

// Triggered reports whether the switch has fired.
func (ks *KillSwitch) Triggered() bool {
	select {
	case <-ks.done:
		return true
	default:
		return false
	}
}

// Done returns a channel closed when the switch fires.
func (ks *KillSwitch) Done() <-chan struct{} {
	return ks.done
}

// Wait blocks until the switch fires or ctx is cancelled. Returns ctx.Err()
// only for the latter.
func (ks *KillSwitch) Wait(ctx context.Context) error {
	select {
	case <-ks.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ListenForCommand reads lines from r until the terminate keyword arrives,
// then triggers the switch. Comparison is case-insensitive after trimming.
// Returns when the keyword matches, the switch fires elsewhere, or r reaches
// EOF; none of these are errors.
func (ks *KillSwitch) ListenForCommand(r io.Reader) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if ks.Triggered() {
			return
		}
		if strings.EqualFold(strings.TrimSpace(scanner.Text()), TerminateKeyword) {
			log.Printf("%q command received", TerminateKeyword)
			ks.Trigger()
			return
		}
	}
}

// Touch records request activity for the inactivity monitor.
func (ks *KillSwitch) Touch() {
	ks.lastActivity.Store(time.Now().UnixNano())
}

// InactivityMonitor triggers the switch when no activity has been recorded
// for longer than timeout. Checks every five seconds; returns when the switch
// fires or ctx is cancelled.
func (ks *KillSwitch) InactivityMonitor(ctx context.Context, timeout time.Duration) {
	log.Printf("Inactivity monitor started (timeout %s)", timeout)
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			last := time.Unix(0, ks.lastActivity.Load())
			if time.Since(last) > timeout {
				log.Println("Inactivity timeout reached")
				ks.Trigger()
				return
			}
		case <-ks.done:
			return
		case <-ctx.Done():
			return
		}
	}
}
