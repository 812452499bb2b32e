package model

import "fmt"

// WorkerState tracks the lifecycle of one supervised worker process.
type WorkerState string

const (
	WorkerIdle      WorkerState = "idle"
	WorkerSpawning  WorkerState = "spawning"
	WorkerRunning   WorkerState = "running"
	WorkerCompleted WorkerState = "completed"
	WorkerFailed    WorkerState = "failed"
	WorkerKilled    WorkerState = "killed"
)

var allowedTransitions = map[WorkerState]map[WorkerState]bool{
	WorkerIdle: {
		WorkerSpawning: true,
	},
	WorkerSpawning: {
		WorkerRunning: true,
		WorkerFailed:  true, // executable missing or unstartable
	},
	WorkerRunning: {
		WorkerCompleted: true,
		WorkerFailed:    true,
		WorkerKilled:    true,
	},
	// Completed, failed, and killed are terminal.
	WorkerCompleted: {},
	WorkerFailed:    {},
	WorkerKilled:    {},
}

func IsKnownWorkerState(state WorkerState) bool {
	_, ok := allowedTransitions[state]
	return ok
}

func CanTransition(from, to WorkerState) bool {
	next, ok := allowedTransitions[from]
	if !ok {
		return false
	}
	return next[to]
}

func TransitionWorkerState(state *WorkerState, to WorkerState) error {
	from := *state
	if !CanTransition(from, to) {
		return fmt.Errorf("invalid worker state transition: %q -> %q", from, to)
	}
	*state = to
	return nil
}
