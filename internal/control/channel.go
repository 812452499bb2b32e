// Package control delivers operator intents to the active worker. The
// primary mechanism is a sentinel file at a path the worker learns through
// its environment at spawn time: the host creates it, the worker polls for
// it, deletes it, and answers with SKIP_ACK on stdout. A legacy stdin
// channel ("skip\n") is written best-effort alongside for workers that
// still read their input stream.
package control

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// SkipPayload is the sentinel file content, mirroring the stdin protocol
// so the worker can treat both channels identically.
const SkipPayload = "skip\n"

// Channel owns the sentinel file for one run. Only the host side writes
// and removes it; absence always means "no pending skip".
type Channel struct {
	sentinelPath string

	mu     sync.Mutex
	stdin  io.Writer
	active bool
}

func NewChannel(sentinelPath string) *Channel {
	return &Channel{sentinelPath: sentinelPath}
}

func (c *Channel) SentinelPath() string {
	return c.sentinelPath
}

// Attach marks a worker as live. stdin may be nil when the worker's input
// stream is not writable.
func (c *Channel) Attach(stdin io.Writer) {
	c.mu.Lock()
	c.stdin = stdin
	c.active = true
	c.mu.Unlock()
}

// Detach marks the worker as gone. Skip requests after this are no-ops.
func (c *Channel) Detach() {
	c.mu.Lock()
	c.stdin = nil
	c.active = false
	c.mu.Unlock()
}

// RequestSkip asks the active worker to abandon its current stage. With no
// active worker nothing is written. An already-pending sentinel is left
// alone, so repeated requests collapse into one.
func (c *Channel) RequestSkip() error {
	c.mu.Lock()
	stdin := c.stdin
	active := c.active
	c.mu.Unlock()
	if !active {
		return nil
	}

	f, err := os.OpenFile(c.sentinelPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return nil // one pending skip at a time
		}
		return fmt.Errorf("write skip sentinel %s: %w", c.sentinelPath, err)
	}
	_, writeErr := io.WriteString(f, SkipPayload)
	if closeErr := f.Close(); writeErr == nil {
		writeErr = closeErr
	}
	if writeErr != nil {
		_ = os.Remove(c.sentinelPath)
		return fmt.Errorf("write skip sentinel %s: %w", c.sentinelPath, writeErr)
	}

	if stdin != nil {
		// Legacy channel; the worker may have stopped reading stdin.
		_, _ = io.WriteString(stdin, SkipPayload)
	}
	return nil
}

// Clear removes the sentinel file. A missing file is not an error.
func (c *Channel) Clear() error {
	if err := os.Remove(c.sentinelPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove skip sentinel %s: %w", c.sentinelPath, err)
	}
	return nil
}
