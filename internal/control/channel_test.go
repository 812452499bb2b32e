package control

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestChannel(t *testing.T) *Channel {
	t.Helper()
	return NewChannel(filepath.Join(t.TempDir(), "skip.request"))
}

func TestRequestSkip_NoActiveWorkerIsNoop(t *testing.T) {
	c := newTestChannel(t)

	if err := c.RequestSkip(); err != nil {
		t.Fatalf("skip with no worker: %v", err)
	}
	if _, err := os.Stat(c.SentinelPath()); !os.IsNotExist(err) {
		t.Fatalf("sentinel written without an active worker")
	}
}

func TestRequestSkip_WritesSentinelOnce(t *testing.T) {
	c := newTestChannel(t)
	c.Attach(nil)

	if err := c.RequestSkip(); err != nil {
		t.Fatalf("first skip: %v", err)
	}
	if err := c.RequestSkip(); err != nil {
		t.Fatalf("second skip should be idempotent: %v", err)
	}

	data, err := os.ReadFile(c.SentinelPath())
	if err != nil {
		t.Fatalf("read sentinel: %v", err)
	}
	if string(data) != SkipPayload {
		t.Fatalf("unexpected sentinel payload: %q", data)
	}
}

func TestRequestSkip_WritesLegacyStdinChannel(t *testing.T) {
	c := newTestChannel(t)
	var stdin strings.Builder
	c.Attach(&stdin)

	if err := c.RequestSkip(); err != nil {
		t.Fatalf("skip: %v", err)
	}
	if stdin.String() != SkipPayload {
		t.Fatalf("stdin channel not written: %q", stdin.String())
	}
}

func TestRequestSkip_AfterDetachIsNoop(t *testing.T) {
	c := newTestChannel(t)
	c.Attach(nil)
	c.Detach()

	if err := c.RequestSkip(); err != nil {
		t.Fatalf("skip after detach: %v", err)
	}
	if _, err := os.Stat(c.SentinelPath()); !os.IsNotExist(err) {
		t.Fatalf("sentinel written after detach")
	}
}

func TestClear_MissingSentinelIsNotAnError(t *testing.T) {
	c := newTestChannel(t)
	if err := c.Clear(); err != nil {
		t.Fatalf("clear with no sentinel: %v", err)
	}
}

func TestClear_RemovesSentinel(t *testing.T) {
	c := newTestChannel(t)
	c.Attach(nil)
	if err := c.RequestSkip(); err != nil {
		t.Fatalf("skip: %v", err)
	}
	if err := c.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, err := os.Stat(c.SentinelPath()); !os.IsNotExist(err) {
		t.Fatalf("sentinel still present after clear")
	}
}

func TestRequestSkip_RoundTripPayload(t *testing.T) {
	c := newTestChannel(t)
	c.Attach(nil)
	if err := c.RequestSkip(); err != nil {
		t.Fatalf("skip: %v", err)
	}
	data, err := os.ReadFile(c.SentinelPath())
	if err != nil {
		t.Fatalf("read back sentinel: %v", err)
	}
	if string(data) != SkipPayload {
		t.Fatalf("round trip mismatch: got %q want %q", data, SkipPayload)
	}
}
