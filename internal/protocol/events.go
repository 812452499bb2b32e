package protocol

// Severity categorizes a worker log line for presentation.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityOK
	SeverityWarn
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityOK:
		return "ok"
	case SeverityWarn:
		return "warn"
	case SeverityError:
		return "error"
	default:
		return "info"
	}
}

// Event is one decoded unit from the worker's stdout stream. Exactly one
// event is produced per complete line; events carry no I/O of their own.
type Event interface {
	isEvent()
}

// StageProgress is a numeric progress update for one stage.
type StageProgress struct {
	Stage   string
	Current float64
	Total   float64
}

// StageStatus is a textual progress update ("Loading AI Model...") that
// still carries the stage's nominal total.
type StageStatus struct {
	Stage string
	Text  string
	Total float64
}

// SkipAck confirms the worker abandoned the current stage after a skip
// request.
type SkipAck struct{}

// LogLine is any other non-empty output line.
type LogLine struct {
	Severity Severity
	Text     string
}

func (StageProgress) isEvent() {}
func (StageStatus) isEvent()   {}
func (SkipAck) isEvent()       {}
func (LogLine) isEvent()       {}
