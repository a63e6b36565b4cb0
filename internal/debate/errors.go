package debate

import (
	"errors"
	"fmt"
)

// ValidationError rejects malformed session-creation input before anything
// is persisted. The caller can retry with corrected input.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return "debate: " + e.Msg }

var (
	// ErrRunConflict means a run was requested against a session that is
	// already running. Nothing changes; the first run keeps going.
	ErrRunConflict = errors.New("debate: run already in progress")

	// ErrSessionFinished means the session already reached a terminal status.
	// Runs are not restartable.
	ErrSessionFinished = errors.New("debate: session already finished")
)

// Severity decides how the run loop reacts to a mid-run failure.
type Severity uint8

const (
	// SeverityFatal ends the session as failed immediately (config defects:
	// broken persona template, vanished panel member).
	SeverityFatal Severity = iota
	// SeverityRecoverable stops the loop early but keeps everything already
	// produced and still attempts synthesis over the partial transcript.
	SeverityRecoverable
	// SeveritySoft is logged and otherwise ignored; the session still
	// completes.
	SeveritySoft
)

const (
	stageRender     = "render"
	stageGenerate   = "generate"
	stageSynthesize = "synthesize"
)

// Failure policy, in one place: a malformed persona is a configuration
// defect, a failed generation call truncates but preserves, a failed
// synthesis costs only the summary.
var severityByStage = map[string]Severity{
	stageRender:     SeverityFatal,
	stageGenerate:   SeverityRecoverable,
	stageSynthesize: SeveritySoft,
}

// RunError wraps a mid-run failure with the stage it occurred in.
type RunError struct {
	Stage string
	Err   error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("debate: %s failed: %v", e.Stage, e.Err)
}

func (e *RunError) Unwrap() error { return e.Err }

func (e *RunError) Severity() Severity {
	if s, ok := severityByStage[e.Stage]; ok {
		return s
	}
	return SeverityFatal
}

func runErr(stage string, err error) *RunError {
	return &RunError{Stage: stage, Err: err}
}
