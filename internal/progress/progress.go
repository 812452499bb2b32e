// Package progress holds the in-memory run progress state: one overall
// counter across the queue and one counter for the stage the active worker
// is in. It knows nothing about processes, protocols, or terminals.
package progress

import "sync"

// Snapshot is a render-ready copy of the progress state.
type Snapshot struct {
	OverallCurrent int
	OverallTotal   int
	Stage          string
	StageCurrent   float64
	StageTotal     float64
	StageText      string // textual status shown instead of a numeric bar
	Done           bool
}

// OverallPercent is in [0,1].
func (s Snapshot) OverallPercent() float64 {
	if s.OverallTotal <= 0 {
		return 0
	}
	return float64(s.OverallCurrent) / float64(s.OverallTotal)
}

// StagePercent is in [0,1].
func (s Snapshot) StagePercent() float64 {
	if s.StageTotal <= 0 {
		return 0
	}
	return s.StageCurrent / s.StageTotal
}

// Model is the mutable progress state. All operations are pure state
// transitions; the change callback is the only side effect and may be
// throttled by the consumer.
type Model struct {
	mu       sync.Mutex
	snap     Snapshot
	onChange func(Snapshot)
}

func New(onChange func(Snapshot)) *Model {
	return &Model{onChange: onChange}
}

// SetOverallTotal fixes the queue length. Called once at run start.
func (m *Model) SetOverallTotal(n int) {
	m.mu.Lock()
	m.snap.OverallTotal = n
	if m.snap.OverallCurrent > n {
		m.snap.OverallCurrent = n
	}
	m.notifyLocked()
}

// AdvanceOverall counts one completed item, success or failure. The
// counter never exceeds the queue length.
func (m *Model) AdvanceOverall() {
	m.mu.Lock()
	if m.snap.OverallCurrent < m.snap.OverallTotal {
		m.snap.OverallCurrent++
	}
	m.notifyLocked()
}

// BeginStage resets the stage counter and sets its label.
func (m *Model) BeginStage(label string) {
	m.mu.Lock()
	m.snap.Stage = label
	m.snap.StageCurrent = 0
	m.snap.StageTotal = 0
	m.snap.StageText = ""
	m.notifyLocked()
}

// UpdateStage records a numeric stage update. A changed total re-baselines
// the stage: the percentage is recomputed against the new total, never
// extrapolated from the old one.
func (m *Model) UpdateStage(current, total float64, label string) {
	m.mu.Lock()
	if label != m.snap.Stage || total != m.snap.StageTotal {
		m.snap.Stage = label
		m.snap.StageTotal = total
	}
	m.snap.StageText = ""
	m.snap.StageCurrent = clamp(current, total)
	m.notifyLocked()
}

// UpdateStageText records a textual stage status while still adopting the
// stage's nominal total.
func (m *Model) UpdateStageText(label, text string, total float64) {
	m.mu.Lock()
	if label != m.snap.Stage || total != m.snap.StageTotal {
		m.snap.Stage = label
		m.snap.StageTotal = total
		m.snap.StageCurrent = 0
	}
	m.snap.StageText = text
	m.notifyLocked()
}

// CompleteStage forces the stage to 100% under a terminal label such as
// "Done" or "Skipped".
func (m *Model) CompleteStage(label string) {
	m.mu.Lock()
	m.snap.Stage = label
	if m.snap.StageTotal <= 0 {
		m.snap.StageTotal = 100
	}
	m.snap.StageCurrent = m.snap.StageTotal
	m.snap.StageText = ""
	m.notifyLocked()
}

// MarkDone flags the whole run as finished.
func (m *Model) MarkDone() {
	m.mu.Lock()
	m.snap.Done = true
	m.notifyLocked()
}

func (m *Model) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snap
}

// notifyLocked releases the lock before invoking the callback so that the
// callback may read the model.
func (m *Model) notifyLocked() {
	snap := m.snap
	m.mu.Unlock()
	if m.onChange != nil {
		m.onChange(snap)
	}
}

func clamp(current, total float64) float64 {
	if current < 0 {
		return 0
	}
	if total > 0 && current > total {
		return total
	}
	return current
}
