package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"song-miner/internal/model"
	"song-miner/internal/progress"
	"song-miner/internal/protocol"
)

// Relay forwards scheduler notifications into a bubbletea program as
// messages. Send is safe from the scheduler goroutine.
type Relay struct {
	program *tea.Program
}

func (r *Relay) RunStarted(total int) {
	r.program.Send(runStartedMsg(total))
}

func (r *Relay) ItemStarted(index, total int, url string) {
	r.program.Send(itemStartedMsg{index: index, total: total, url: url})
}

func (r *Relay) ItemFinished(res model.ItemResult) {
	r.program.Send(itemFinishedMsg(res))
}

func (r *Relay) Progress(snap progress.Snapshot) {
	r.program.Send(progressMsg(snap))
}

func (r *Relay) Log(sev protocol.Severity, text string) {
	r.program.Send(logMsg{sev: sev, text: text})
}

func (r *Relay) RunFinished(sum model.RunSummary) {
	r.program.Send(runFinishedMsg(sum))
}
