package runstore

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
)

const runLockName = ".miner.lock"

// RunLock guards the work directory so only one host drives workers at a
// time, matching the one-active-worker policy.
type RunLock struct {
	lock *flock.Flock
}

func AcquireRunLock(workDir string) (*RunLock, error) {
	target := strings.TrimSpace(workDir)
	if target == "" {
		return nil, fmt.Errorf("work directory is required")
	}

	lock := flock.New(filepath.Join(target, runLockName))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire run lock for %s: %w", target, err)
	}
	if !locked {
		return nil, fmt.Errorf("work directory is locked by another run: %s", target)
	}
	return &RunLock{lock: lock}, nil
}

func (l *RunLock) Release() error {
	if l == nil || l.lock == nil {
		return nil
	}
	if err := l.lock.Unlock(); err != nil {
		return fmt.Errorf("release run lock %s: %w", l.lock.Path(), err)
	}
	return nil
}
