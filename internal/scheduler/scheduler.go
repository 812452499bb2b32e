// Package scheduler drives the job queue to completion: one worker process
// per item, strictly in order, never two at once. Decoded worker events
// and operator control signals are drained by a single loop, which keeps
// their ordering reproducible.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"os"

	"song-miner/internal/config"
	"song-miner/internal/control"
	"song-miner/internal/model"
	"song-miner/internal/progress"
	"song-miner/internal/protocol"
	"song-miner/internal/runstore"
	"song-miner/internal/worker"
)

// Signal is an operator intent for the active worker.
type Signal int

const (
	// SignalSkip asks the worker to abandon its current stage. The item
	// still counts as completed once the worker exits.
	SignalSkip Signal = iota
	// SignalTerminate kills the active worker and ends the whole run.
	SignalTerminate
)

// Notifier receives everything the presentation layer needs. All methods
// are called from the scheduler goroutine, one at a time.
type Notifier interface {
	RunStarted(total int)
	ItemStarted(index, total int, url string)
	ItemFinished(res model.ItemResult)
	Progress(snap progress.Snapshot)
	Log(sev protocol.Severity, text string)
	RunFinished(sum model.RunSummary)
}

// Scheduler owns the queue for one run.
type Scheduler struct {
	settings config.Settings
	cfg      model.RunConfig
	queue    []string
	ctrl     *control.Channel
	logsDir  string

	signals    chan Signal
	terminated bool
}

func New(settings config.Settings, cfg model.RunConfig, queue []string, ctrl *control.Channel, logsDir string) *Scheduler {
	return &Scheduler{
		settings: settings,
		cfg:      cfg,
		queue:    queue,
		ctrl:     ctrl,
		logsDir:  logsDir,
		signals:  make(chan Signal, 1),
	}
}

// Notify hands a control signal to the scheduler loop. Non-blocking: a
// skip that finds no room is dropped and the operator may retry. A
// terminate is never lost behind an unserviced skip; it replaces it.
func (s *Scheduler) Notify(sig Signal) {
	select {
	case s.signals <- sig:
		return
	default:
	}
	if sig != SignalTerminate {
		return
	}
	select {
	case <-s.signals:
	default:
	}
	select {
	case s.signals <- sig:
	default:
	}
}

// Run walks the queue once. Per-item failures are reported and the loop
// continues; only operator termination stops it early. Always returns a
// complete summary, never an error: a fully walked queue is a successful
// run.
func (s *Scheduler) Run(ctx context.Context, notifier Notifier) model.RunSummary {
	prog := progress.New(notifier.Progress)
	prog.SetOverallTotal(len(s.queue))
	notifier.RunStarted(len(s.queue))

	sum := model.RunSummary{Total: len(s.queue)}
	for i, url := range s.queue {
		if s.terminated || ctx.Err() != nil {
			break
		}
		s.drainStaleSignals()
		res := s.runItem(ctx, prog, notifier, i+1, url)
		sum.Items = append(sum.Items, res)
		switch res.Status {
		case model.WorkerCompleted:
			sum.Completed++
		case model.WorkerKilled:
			sum.Killed++
		default:
			sum.Failed++
		}
	}
	sum.Terminated = s.terminated

	prog.MarkDone()
	if err := s.ctrl.Clear(); err != nil {
		notifier.Log(protocol.SeverityWarn, fmt.Sprintf("cleanup: %v", err))
	}
	notifier.RunFinished(sum)
	return sum
}

func (s *Scheduler) runItem(ctx context.Context, prog *progress.Model, notifier Notifier, index int, url string) model.ItemResult {
	total := len(s.queue)
	videoID := model.VideoID(url)
	res := model.ItemResult{Index: index, URL: url, VideoID: videoID}

	notifier.ItemStarted(index, total, url)
	prog.BeginStage("Starting")

	var logFile *os.File
	if s.logsDir != "" {
		f, err := os.Create(runstore.ItemLogPath(s.logsDir, index, videoID))
		if err != nil {
			notifier.Log(protocol.SeverityWarn, fmt.Sprintf("item log unavailable: %v", err))
		} else {
			logFile = f
			defer func() {
				_ = logFile.Close()
			}()
		}
	}

	h, err := worker.Start(ctx, worker.Options{
		Python:       s.settings.Python,
		Script:       s.settings.WorkerScript,
		URL:          url,
		Config:       s.cfg,
		ModelsDir:    s.settings.ModelsDir,
		SentinelPath: s.ctrl.SentinelPath(),
		Log:          logFile,
	})
	if err != nil {
		// Fatal for this item only; the queue keeps moving.
		notifier.Log(protocol.SeverityError, fmt.Sprintf("[%d/%d] %s: %v", index, total, videoID, err))
		res.Status = model.WorkerFailed
		res.Err = err.Error()
		prog.AdvanceOverall()
		notifier.ItemFinished(res)
		return res
	}

	s.ctrl.Attach(h.Stdin())
	events := h.Events()
	for events != nil {
		select {
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			s.handleEvent(ev, prog, notifier)
		case sig := <-s.signals:
			s.handleSignal(sig, h, notifier)
		}
	}
	s.ctrl.Detach()
	// A sentinel the worker never consumed must not reach the next item.
	if err := s.ctrl.Clear(); err != nil {
		notifier.Log(protocol.SeverityWarn, fmt.Sprintf("cleanup: %v", err))
	}

	waitErr := h.Wait()
	switch {
	case waitErr == nil:
		prog.CompleteStage("Done")
		res.Status = model.WorkerCompleted
	case errors.Is(waitErr, worker.ErrSkipped):
		// Operator action, not an error.
		prog.CompleteStage("Skipped")
		res.Status = model.WorkerKilled
	default:
		res.Status = model.WorkerFailed
		res.Err = waitErr.Error()
		notifier.Log(protocol.SeverityError, fmt.Sprintf("[%d/%d] %s: %v", index, total, videoID, waitErr))
	}

	prog.AdvanceOverall()
	notifier.ItemFinished(res)
	return res
}

func (s *Scheduler) handleEvent(ev protocol.Event, prog *progress.Model, notifier Notifier) {
	switch ev := ev.(type) {
	case protocol.StageProgress:
		prog.UpdateStage(ev.Current, ev.Total, ev.Stage)
	case protocol.StageStatus:
		prog.UpdateStageText(ev.Stage, ev.Text, ev.Total)
	case protocol.SkipAck:
		prog.CompleteStage("Skipped")
		notifier.Log(protocol.SeverityOK, "stage skipped")
	case protocol.LogLine:
		notifier.Log(ev.Severity, ev.Text)
	}
}

func (s *Scheduler) handleSignal(sig Signal, h *worker.Handle, notifier Notifier) {
	switch sig {
	case SignalSkip:
		if err := s.ctrl.RequestSkip(); err != nil {
			// Not fatal: the request was simply not delivered.
			notifier.Log(protocol.SeverityWarn, fmt.Sprintf("skip not delivered: %v", err))
		}
	case SignalTerminate:
		s.terminated = true
		if err := h.Kill(); err != nil {
			notifier.Log(protocol.SeverityWarn, fmt.Sprintf("terminate: %v", err))
		}
	}
}

// drainStaleSignals discards signals that arrived with no active worker;
// control signals are never queued across items.
func (s *Scheduler) drainStaleSignals() {
	for {
		select {
		case <-s.signals:
		default:
			return
		}
	}
}
