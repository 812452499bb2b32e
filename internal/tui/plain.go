package tui

import (
	"fmt"
	"io"

	"song-miner/internal/model"
	"song-miner/internal/progress"
	"song-miner/internal/protocol"
)

// Plain writes run notifications as log lines for non-TTY output. Stage
// progress is reduced to stage transitions so piped output stays readable.
type Plain struct {
	w         io.Writer
	index     int
	total     int
	lastStage string
}

func NewPlain(w io.Writer) *Plain {
	return &Plain{w: w}
}

func (p *Plain) RunStarted(total int) {
	p.total = total
	fmt.Fprintf(p.w, "queue: %d item(s)\n", total)
}

func (p *Plain) ItemStarted(index, total int, url string) {
	p.index = index
	p.total = total
	p.lastStage = ""
	fmt.Fprintf(p.w, "[%d/%d] start %s\n", index, total, model.VideoID(url))
}

func (p *Plain) ItemFinished(res model.ItemResult) {
	switch res.Status {
	case model.WorkerCompleted:
		fmt.Fprintf(p.w, "[%d/%d] done  %s\n", res.Index, p.total, res.VideoID)
	case model.WorkerKilled:
		fmt.Fprintf(p.w, "[%d/%d] killed %s\n", res.Index, p.total, res.VideoID)
	default:
		fmt.Fprintf(p.w, "[%d/%d] fail  %s (%s)\n", res.Index, p.total, res.VideoID, res.Err)
	}
}

func (p *Plain) Progress(snap progress.Snapshot) {
	if snap.Stage == "" || snap.Stage == p.lastStage {
		return
	}
	p.lastStage = snap.Stage
	fmt.Fprintf(p.w, "[%d/%d] stage %s\n", p.index, p.total, snap.Stage)
}

func (p *Plain) Log(sev protocol.Severity, text string) {
	fmt.Fprintf(p.w, "[%d/%d] %s %s\n", p.index, p.total, sev, text)
}

func (p *Plain) RunFinished(sum model.RunSummary) {
	if sum.Terminated {
		fmt.Fprintf(p.w, "run terminated by operator after %d of %d item(s)\n", len(sum.Items), sum.Total)
		return
	}
	fmt.Fprintf(p.w, "run complete: %d ok, %d failed, %d killed of %d\n",
		sum.Completed, sum.Failed, sum.Killed, sum.Total)
}
