// Package runstore manages the run's on-disk state: the work directory,
// per-item log files, and the single-instance run lock.
package runstore

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func Mkdir(path string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("create directory %s: %w", path, err)
	}
	return nil
}

// ItemLogPath names the per-item log file inside logsDir.
func ItemLogPath(logsDir string, index int, videoID string) string {
	return filepath.Join(logsDir, fmt.Sprintf("%04d_%s.log", index, safeFileID(videoID, index)))
}

func safeFileID(id string, idx int) string {
	id = strings.TrimSpace(id)
	var b strings.Builder
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return fmt.Sprintf("unknown_%d", idx)
	}
	return b.String()
}
