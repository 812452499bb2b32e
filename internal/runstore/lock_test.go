package runstore

import (
	"path/filepath"
	"testing"
)

func TestAcquireRunLock_BlocksConcurrentAcquire(t *testing.T) {
	workDir := t.TempDir()

	lock, err := AcquireRunLock(workDir)
	if err != nil {
		t.Fatalf("acquire first lock: %v", err)
	}
	defer func() {
		_ = lock.Release()
	}()

	if _, err := AcquireRunLock(workDir); err == nil {
		t.Fatalf("expected second acquire to fail")
	}

	if err := lock.Release(); err != nil {
		t.Fatalf("release lock: %v", err)
	}

	lock2, err := AcquireRunLock(workDir)
	if err != nil {
		t.Fatalf("acquire after release: %v", err)
	}
	if err := lock2.Release(); err != nil {
		t.Fatalf("release second lock: %v", err)
	}
}

func TestAcquireRunLock_RequiresWorkDir(t *testing.T) {
	if _, err := AcquireRunLock("  "); err == nil {
		t.Fatalf("expected error for empty work dir")
	}
}

func TestItemLogPath_SanitizesID(t *testing.T) {
	got := ItemLogPath("logs", 3, "abc/..\\123")
	want := filepath.Join("logs", "0003_abc123.log")
	if got != want {
		t.Fatalf("unexpected log path: got %q want %q", got, want)
	}

	got = ItemLogPath("logs", 7, "  ")
	want = filepath.Join("logs", "0007_unknown_7.log")
	if got != want {
		t.Fatalf("unexpected fallback log path: got %q want %q", got, want)
	}
}
