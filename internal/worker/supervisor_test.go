package worker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"song-miner/internal/model"
	"song-miner/internal/protocol"
)

func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fake_miner.sh")
	if err := os.WriteFile(path, []byte("#!/usr/bin/env bash\n"+body), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func startScript(t *testing.T, body string, cfg model.RunConfig) *Handle {
	t.Helper()
	h, err := Start(context.Background(), Options{
		Python: "bash",
		Script: writeScript(t, body),
		URL:    "https://www.youtube.com/watch?v=abc123",
		Config: cfg,
	})
	if err != nil {
		t.Fatalf("start worker: %v", err)
	}
	return h
}

func drain(h *Handle) []protocol.Event {
	var events []protocol.Event
	for ev := range h.Events() {
		events = append(events, ev)
	}
	return events
}

func TestStart_StreamsEventsInOrder(t *testing.T) {
	h := startScript(t, `
echo "PRG:Downloading:50:100"
echo "SKIP_ACK"
echo "❌ Engine Error: boom"
exit 0
`, model.RunConfig{StorageMode: model.StorageModeLocal})

	events := drain(h)
	if err := h.Wait(); err != nil {
		t.Fatalf("wait: %v", err)
	}
	if h.State() != model.WorkerCompleted {
		t.Fatalf("unexpected final state: %q", h.State())
	}

	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d: %#v", len(events), events)
	}
	if events[0] != (protocol.StageProgress{Stage: "Downloading", Current: 50, Total: 100}) {
		t.Fatalf("unexpected first event: %#v", events[0])
	}
	if _, ok := events[1].(protocol.SkipAck); !ok {
		t.Fatalf("unexpected second event: %#v", events[1])
	}
	log, ok := events[2].(protocol.LogLine)
	if !ok || log.Severity != protocol.SeverityError {
		t.Fatalf("unexpected third event: %#v", events[2])
	}
}

func TestWait_ReportsNonZeroExit(t *testing.T) {
	h := startScript(t, `
echo "PRG:Metadata:10:100"
exit 3
`, model.RunConfig{StorageMode: model.StorageModeLocal})

	drain(h)
	err := h.Wait()
	if err == nil {
		t.Fatalf("expected exit error")
	}
	if errors.Is(err, ErrSkipped) {
		t.Fatalf("plain failure misreported as skip: %v", err)
	}
	if h.State() != model.WorkerFailed {
		t.Fatalf("unexpected final state: %q", h.State())
	}

	// Exactly one resolution per spawned process.
	if err2 := h.Wait(); err2 != err {
		t.Fatalf("wait resolved twice: %v then %v", err, err2)
	}
}

func TestKill_ReportsSkipSentinel(t *testing.T) {
	h := startScript(t, `
echo "PRG:Video:1:100"
exec sleep 30
`, model.RunConfig{StorageMode: model.StorageModeLocal})

	// Let the worker come up before killing it.
	select {
	case <-h.Events():
	case <-time.After(10 * time.Second):
		t.Fatalf("worker produced no output")
	}

	if err := h.Kill(); err != nil {
		t.Fatalf("kill: %v", err)
	}
	drain(h)
	if err := h.Wait(); !errors.Is(err, ErrSkipped) {
		t.Fatalf("expected ErrSkipped, got %v", err)
	}
	if h.State() != model.WorkerKilled {
		t.Fatalf("unexpected final state: %q", h.State())
	}

	if err := h.Kill(); err != nil {
		t.Fatalf("kill after exit should be a no-op: %v", err)
	}
}

func TestStderr_FiltersBenignWarnings(t *testing.T) {
	h := startScript(t, `
echo "FutureWarning: torch.load will change" >&2
echo "Some weights of the model were not used" >&2
echo "psycopg2 connection refused" >&2
exit 0
`, model.RunConfig{StorageMode: model.StorageModeLocal})

	events := drain(h)
	if err := h.Wait(); err != nil {
		t.Fatalf("wait: %v", err)
	}

	if len(events) != 1 {
		t.Fatalf("expected only the actionable stderr line, got %#v", events)
	}
	log, ok := events[0].(protocol.LogLine)
	if !ok || log.Severity != protocol.SeverityError || !strings.Contains(log.Text, "psycopg2") {
		t.Fatalf("unexpected stderr event: %#v", events[0])
	}
}

func TestStart_MissingExecutableFails(t *testing.T) {
	_, err := Start(context.Background(), Options{
		Python: "definitely-not-a-real-interpreter",
		Script: "miner.py",
		URL:    "https://example.com/watch?v=x",
		Config: model.RunConfig{StorageMode: model.StorageModeLocal},
	})
	if err == nil {
		t.Fatalf("expected spawn failure")
	}
}

func TestStart_PassesContractEnv(t *testing.T) {
	h, err := Start(context.Background(), Options{
		Python:       "bash",
		Script:       writeScript(t, `echo "env $MINER_SKIP_FILE $MINER_DB_URL $PYTHONUNBUFFERED"`),
		URL:          "https://www.youtube.com/watch?v=abc123",
		Config:       model.RunConfig{StorageMode: model.StorageModeDB, DBURL: "postgres://db/songs"},
		SentinelPath: "/tmp/skip.request",
	})
	if err != nil {
		t.Fatalf("start worker: %v", err)
	}

	events := drain(h)
	if err := h.Wait(); err != nil {
		t.Fatalf("wait: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected one log event, got %#v", events)
	}
	log := events[0].(protocol.LogLine)
	want := "env /tmp/skip.request postgres://db/songs 1"
	if log.Text != want {
		t.Fatalf("env contract broken: got %q want %q", log.Text, want)
	}
}

func TestBuildArgs(t *testing.T) {
	opts := Options{
		Script: "miner.py",
		URL:    "https://www.youtube.com/watch?v=abc",
		Config: model.RunConfig{
			Stages:       []string{"audio", "video"},
			StorageMode:  model.StorageModeDB,
			CleanupAfter: true,
			CookiesPath:  "/tmp/cookies.txt",
		},
		ModelsDir: "/models",
	}
	got := strings.Join(buildArgs(opts), " ")
	want := "miner.py --url https://www.youtube.com/watch?v=abc" +
		" --process audio --process video --mode db --non-interactive" +
		" --cleanup --cookies /tmp/cookies.txt --models_dir /models"
	if got != want {
		t.Fatalf("unexpected argv:\n got %q\nwant %q", got, want)
	}
}

func TestBuildArgs_SyncOnlyOmitsStages(t *testing.T) {
	opts := Options{
		Script: "miner.py",
		URL:    "u",
		Config: model.RunConfig{
			Stages:      []string{"audio"},
			StorageMode: model.StorageModeDB,
			SyncOnly:    true,
		},
	}
	got := strings.Join(buildArgs(opts), " ")
	if strings.Contains(got, "--process") {
		t.Fatalf("sync-only invocation should omit stage flags: %q", got)
	}
	if !strings.Contains(got, "--sync_only") {
		t.Fatalf("sync-only flag missing: %q", got)
	}
}

func TestRawOutputWrittenToLog(t *testing.T) {
	var log strings.Builder
	h, err := Start(context.Background(), Options{
		Python: "bash",
		Script: writeScript(t, `
echo "PRG:Audio:5:100"
echo "UserWarning: benign" >&2
`),
		URL:    "https://www.youtube.com/watch?v=abc123",
		Config: model.RunConfig{StorageMode: model.StorageModeLocal},
		Log:    &log,
	})
	if err != nil {
		t.Fatalf("start worker: %v", err)
	}
	drain(h)
	if err := h.Wait(); err != nil {
		t.Fatalf("wait: %v", err)
	}

	if !strings.Contains(log.String(), "PRG:Audio:5:100") {
		t.Fatalf("stdout missing from raw log: %q", log.String())
	}
	if !strings.Contains(log.String(), "UserWarning: benign") {
		t.Fatalf("filtered stderr should still reach the raw log: %q", log.String())
	}
}
