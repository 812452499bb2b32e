package model

import "strings"

const (
	StorageModeLocal = "local"
	StorageModeDB    = "db"
)

// KnownStages are the processing stages the worker understands, in the
// order it executes them.
var KnownStages = []string{"metadata", "audio", "video", "emotions"}

// RunConfig is the immutable per-run configuration. It is constructed once
// before the queue starts and read-only afterwards.
type RunConfig struct {
	Stages       []string // empty means all stages
	StorageMode  string   // "local" or "db"
	CleanupAfter bool
	CookiesPath  string
	SyncOnly     bool
	DBURL        string
}

func (c RunConfig) Validate() error {
	switch c.StorageMode {
	case StorageModeLocal, StorageModeDB:
	default:
		return &ConfigError{Field: "mode", Value: c.StorageMode}
	}
	for _, s := range c.Stages {
		if !isKnownStage(s) {
			return &ConfigError{Field: "stages", Value: s}
		}
	}
	if c.SyncOnly && c.StorageMode != StorageModeDB {
		return &ConfigError{Field: "mode", Value: c.StorageMode + " (sync requires db mode)"}
	}
	return nil
}

// ConfigError reports a rejected run configuration value.
type ConfigError struct {
	Field string
	Value string
}

func (e *ConfigError) Error() string {
	return "invalid run configuration: " + e.Field + "=" + e.Value
}

func isKnownStage(name string) bool {
	for _, s := range KnownStages {
		if s == name {
			return true
		}
	}
	return false
}

// ParseStages normalizes a comma-separated stage selection. "all" or an
// empty selection yields nil, meaning every stage.
func ParseStages(raw string) ([]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, "all") {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	stages := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		if p == "all" {
			return nil, nil
		}
		if !isKnownStage(p) {
			return nil, &ConfigError{Field: "stages", Value: p}
		}
		stages = append(stages, p)
	}
	if len(stages) == 0 {
		return nil, nil
	}
	return stages, nil
}

// ItemResult records the outcome of one queue item.
type ItemResult struct {
	Index   int    // 1-based position in the queue
	URL     string
	VideoID string
	Status  WorkerState // completed, failed, or killed
	Err     string      // empty for success and for suppressed skips
}

// RunSummary is the final rollup for a whole run.
type RunSummary struct {
	Total      int
	Completed  int
	Failed     int
	Killed     int
	Terminated bool
	Items      []ItemResult
}

// VideoID extracts the watch id from a YouTube-style URL. Other URLs fall
// back to their last path segment.
func VideoID(url string) string {
	if i := strings.Index(url, "v="); i >= 0 {
		id := url[i+2:]
		if j := strings.IndexAny(id, "&#"); j >= 0 {
			id = id[:j]
		}
		return id
	}
	trimmed := strings.TrimRight(url, "/")
	if i := strings.IndexAny(trimmed, "?#"); i >= 0 {
		trimmed = trimmed[:i]
	}
	if i := strings.LastIndex(trimmed, "/"); i >= 0 {
		trimmed = trimmed[i+1:]
	}
	return trimmed
}
