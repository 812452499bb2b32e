// Package tui renders the run: an interactive bubbletea view on a TTY and
// a plain line writer otherwise. It is presentation only; all state comes
// from scheduler notifications.
package tui

import (
	"context"
	"fmt"
	"strings"

	progressbar "github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"song-miner/internal/model"
	"song-miner/internal/progress"
	"song-miner/internal/protocol"
	"song-miner/internal/scheduler"
)

const logTail = 8

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)
	footerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).MarginTop(1)
)

type runStartedMsg int

type itemStartedMsg struct {
	index int
	total int
	url   string
}

type itemFinishedMsg model.ItemResult

type progressMsg progress.Snapshot

type logMsg struct {
	sev  protocol.Severity
	text string
}

type runFinishedMsg model.RunSummary

type runModel struct {
	notify func(scheduler.Signal)

	overall progressbar.Model
	stage   progressbar.Model

	snap  progress.Snapshot
	index int
	total int
	item  string
	logs  []logMsg
	done  bool
	width int
}

func newRunModel(notify func(scheduler.Signal)) runModel {
	return runModel{
		notify:  notify,
		overall: progressbar.New(progressbar.WithDefaultGradient()),
		stage:   progressbar.New(progressbar.WithSolidFill("62")),
	}
}

func (m runModel) Init() tea.Cmd {
	return nil
}

func (m runModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		barWidth := msg.Width - 8
		if barWidth > 60 {
			barWidth = 60
		}
		if barWidth > 0 {
			m.overall.Width = barWidth
			m.stage.Width = barWidth
		}
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "s", "S":
			m.notify(scheduler.SignalSkip)
		case "k", "K", "ctrl+c":
			m.notify(scheduler.SignalTerminate)
		}
		return m, nil
	case runStartedMsg:
		m.total = int(msg)
		return m, nil
	case itemStartedMsg:
		m.index = msg.index
		m.total = msg.total
		m.item = model.VideoID(msg.url)
		return m, nil
	case itemFinishedMsg:
		return m, nil
	case progressMsg:
		m.snap = progress.Snapshot(msg)
		return m, nil
	case logMsg:
		m.logs = append(m.logs, msg)
		if len(m.logs) > logTail {
			m.logs = m.logs[len(m.logs)-logTail:]
		}
		return m, nil
	case runFinishedMsg:
		m.done = true
		return m, tea.Quit
	}
	return m, nil
}

func (m runModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("song-miner") + "\n\n")

	if m.index > 0 {
		b.WriteString(fmt.Sprintf("Item %d/%d  %s\n", m.index, m.total, mutedStyle.Render(m.item)))
	} else {
		b.WriteString(mutedStyle.Render("waiting for first item...") + "\n")
	}
	b.WriteString(m.overall.ViewAs(m.snap.OverallPercent()) + "\n\n")

	b.WriteString(stageLine(m.snap) + "\n")
	if m.snap.StageText == "" {
		b.WriteString(m.stage.ViewAs(m.snap.StagePercent()) + "\n")
	}

	if len(m.logs) > 0 {
		b.WriteString("\n")
		for _, l := range m.logs {
			b.WriteString(severityStyle(l.sev).Render(l.text) + "\n")
		}
	}

	b.WriteString(footerStyle.Render("s skip stage · k terminate run"))
	return b.String()
}

// stageLine is the stage label plus either its textual status or its
// percentage.
func stageLine(snap progress.Snapshot) string {
	if snap.Stage == "" {
		return mutedStyle.Render("idle")
	}
	if snap.StageText != "" {
		return fmt.Sprintf("%s  %s", snap.Stage, mutedStyle.Render(snap.StageText))
	}
	return fmt.Sprintf("%s  %.0f%%", snap.Stage, snap.StagePercent()*100)
}

func severityStyle(sev protocol.Severity) lipgloss.Style {
	switch sev {
	case protocol.SeverityError:
		return errorStyle
	case protocol.SeverityWarn:
		return warnStyle
	case protocol.SeverityOK:
		return okStyle
	default:
		return mutedStyle
	}
}

// RunInteractive drives the scheduler under a bubbletea program: scheduler
// notifications become messages, keypresses become control signals.
func RunInteractive(ctx context.Context, cancel context.CancelFunc, sched *scheduler.Scheduler) (model.RunSummary, error) {
	p := tea.NewProgram(newRunModel(sched.Notify))

	var sum model.RunSummary
	done := make(chan struct{})
	go func() {
		sum = sched.Run(ctx, &Relay{program: p})
		close(done)
	}()

	if _, err := p.Run(); err != nil {
		cancel()
		<-done
		return sum, fmt.Errorf("run progress view: %w", err)
	}
	<-done
	return sum, nil
}
