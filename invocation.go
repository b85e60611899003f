package stemshell

import "time"

// Outcome classifies how a dispatched line ended.
type Outcome string

const (
	OutcomeOK         Outcome = "ok"
	OutcomeNotFound   Outcome = "not_found"
	OutcomeParseError Outcome = "parse_error"
	OutcomeHelp       Outcome = "help"
	OutcomeFailed     Outcome = "failed"
)

// Invocation describes one dispatched command line.
type Invocation struct {
	Command  string
	Args     []string
	Outcome  Outcome
	Err      string
	Start    time.Time
	Duration time.Duration
}

// Recorder receives every dispatched invocation. Recording errors are logged
// and never affect the session.
type Recorder interface {
	Record(inv Invocation) error
}
