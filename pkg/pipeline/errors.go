package pipeline

import (
	"fmt"
	"strings"
)

// MissingCollaboratorError means a required external stage script is absent.
// It is raised at startup, before any stage runs.
type MissingCollaboratorError struct {
	Stage  string
	Script string
}

func (e *MissingCollaboratorError) Error() string {
	return fmt.Sprintf("stage %s: missing collaborator script %s", e.Stage, e.Script)
}

// PreconditionError means a stage's required input artifact is missing when
// the stage is about to run. It fails that stage and halts the run.
type PreconditionError struct {
	Stage string
	Path  string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("stage %s: required input %s is missing or empty", e.Stage, e.Path)
}

// StageExecutionError means an external stage exited non-zero (or failed to
// launch). Its captured stderr is surfaced in logs.
type StageExecutionError struct {
	Stage    string
	ExitCode int
	Stderr   string
}

func (e *StageExecutionError) Error() string {
	msg := fmt.Sprintf("stage %s exited with status %d", e.Stage, e.ExitCode)
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		msg += ": " + stderr
	}
	return msg
}
