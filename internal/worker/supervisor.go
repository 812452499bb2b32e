// Package worker owns the lifecycle of one external miner process at a
// time: argv/env construction, stream consumption, exit interpretation,
// and forced termination.
package worker

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"

	"song-miner/internal/model"
	"song-miner/internal/protocol"
)

// ErrSkipped reports a worker that died from a host-initiated kill. The
// scheduler suppresses it so an operator action is never logged as a
// failure.
var ErrSkipped = errors.New("skipped video")

// Environment contract shared with the worker.
const (
	EnvDBURL    = "MINER_DB_URL"
	EnvSkipFile = "MINER_SKIP_FILE"
)

var commandContext = exec.CommandContext

// Options describes one worker invocation.
type Options struct {
	Python       string
	Script       string
	URL          string
	Config       model.RunConfig
	ModelsDir    string
	SentinelPath string
	Log          io.Writer // raw worker output, may be nil
}

// Handle supervises one spawned worker. Events arrive on Events() in
// receipt order; the channel closes when both output streams are drained.
type Handle struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	events chan protocol.Event

	mu     sync.Mutex
	state  model.WorkerState
	killed bool

	logMu sync.Mutex
	log   io.Writer

	streams  sync.WaitGroup
	waitOnce sync.Once
	waitErr  error
}

// Start spawns the worker for one queue item. A start failure is fatal for
// the item only, never for the run.
func Start(ctx context.Context, opts Options) (*Handle, error) {
	h := &Handle{
		state:  model.WorkerIdle,
		events: make(chan protocol.Event, 64),
		log:    opts.Log,
	}
	if err := model.TransitionWorkerState(&h.state, model.WorkerSpawning); err != nil {
		return nil, err
	}

	cmd := commandContext(ctx, opts.Python, buildArgs(opts)...)
	cmd.Env = buildEnv(os.Environ(), opts)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("setup stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("setup stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("setup stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		_ = model.TransitionWorkerState(&h.state, model.WorkerFailed)
		return nil, fmt.Errorf("start worker %s: %w", opts.Python, err)
	}
	h.cmd = cmd
	h.stdin = stdin
	_ = model.TransitionWorkerState(&h.state, model.WorkerRunning)

	h.streams.Add(2)
	go h.consumeStdout(stdout)
	go h.consumeStderr(stderr)
	go func() {
		h.streams.Wait()
		close(h.events)
	}()
	return h, nil
}

// Events yields decoded protocol events in receipt order. Closed once both
// streams end.
func (h *Handle) Events() <-chan protocol.Event {
	return h.events
}

// Stdin exposes the worker's input stream for the legacy skip channel.
func (h *Handle) Stdin() io.Writer {
	return h.stdin
}

func (h *Handle) State() model.WorkerState {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Wait blocks until the output streams are drained and the process has
// exited, then resolves exactly once: nil on exit 0, ErrSkipped when the
// host killed the process, an exit error otherwise.
func (h *Handle) Wait() error {
	h.waitOnce.Do(func() {
		h.streams.Wait()
		err := h.cmd.Wait()

		h.mu.Lock()
		killed := h.killed
		h.mu.Unlock()

		switch {
		case err == nil:
			h.setState(model.WorkerCompleted)
		case killed:
			h.setState(model.WorkerKilled)
			h.waitErr = ErrSkipped
		default:
			h.setState(model.WorkerFailed)
			h.waitErr = fmt.Errorf("worker exited abnormally: %w", err)
		}
	})
	return h.waitErr
}

// Kill requests immediate termination. Calling it after the process has
// exited is a no-op.
func (h *Handle) Kill() error {
	h.mu.Lock()
	if h.state != model.WorkerRunning {
		h.mu.Unlock()
		return nil
	}
	h.killed = true
	proc := h.cmd.Process
	h.mu.Unlock()

	if proc == nil {
		return nil
	}
	if err := proc.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("kill worker: %w", err)
	}
	return nil
}

func (h *Handle) setState(to model.WorkerState) {
	h.mu.Lock()
	_ = model.TransitionWorkerState(&h.state, to)
	h.mu.Unlock()
}

func (h *Handle) consumeStdout(r io.Reader) {
	defer h.streams.Done()
	var dec protocol.Decoder
	buf := make([]byte, 32*1024)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			h.writeLog(buf[:n])
			for _, ev := range dec.Feed(buf[:n]) {
				h.events <- ev
			}
		}
		if err != nil {
			for _, ev := range dec.Flush() {
				h.events <- ev
			}
			return
		}
	}
}

func (h *Handle) consumeStderr(r io.Reader) {
	defer h.streams.Done()
	scanner := bufio.NewScanner(r)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		h.writeLog([]byte(line + "\n"))
		if isBenignStderr(line) {
			continue
		}
		h.events <- protocol.LogLine{Severity: protocol.SeverityError, Text: line}
	}
}

func (h *Handle) writeLog(p []byte) {
	if h.log == nil {
		return
	}
	h.logMu.Lock()
	_, _ = h.log.Write(p)
	h.logMu.Unlock()
}

func buildArgs(opts Options) []string {
	cfg := opts.Config
	args := []string{opts.Script, "--url", opts.URL}
	if !cfg.SyncOnly {
		for _, stage := range cfg.Stages {
			args = append(args, "--process", stage)
		}
	}
	args = append(args, "--mode", cfg.StorageMode, "--non-interactive")
	if cfg.CleanupAfter {
		args = append(args, "--cleanup")
	}
	if cfg.CookiesPath != "" {
		args = append(args, "--cookies", cfg.CookiesPath)
	}
	if cfg.SyncOnly {
		args = append(args, "--sync_only")
	}
	if opts.ModelsDir != "" {
		args = append(args, "--models_dir", opts.ModelsDir)
	}
	return args
}

func buildEnv(base []string, opts Options) []string {
	return append(base,
		"PYTHONUNBUFFERED=1",
		"PYTHONIOENCODING=utf-8",
		EnvDBURL+"="+opts.Config.DBURL,
		EnvSkipFile+"="+opts.SentinelPath,
	)
}

// Known-benign Python/ML chatter on stderr that would otherwise drown the
// log in pseudo-errors.
var benignStderr = []string{
	"FutureWarning",
	"UserWarning",
	"DeprecationWarning",
	"warnings.warn",
	"TqdmExperimentalWarning",
	"Some weights of",
	"CUDA initialization",
	"TensorFloat",
}

func isBenignStderr(line string) bool {
	for _, marker := range benignStderr {
		if strings.Contains(line, marker) {
			return true
		}
	}
	return false
}
