package executor

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
	"time"

	"github.com/tunedata/qaforge/pkg/stage"
)

// Result is the outcome of one stage attempt. Skipped distinguishes
// "bypassed because already satisfied" from "executed".
type Result struct {
	Stage    string
	Success  bool
	Skipped  bool
	Command  []string
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration
}

// Local runs stage scripts as child processes, blocking until they exit.
// It inspects no files; verifying outputs is the reconciler's job.
type Local struct {
	// Interpreter overrides the run context's interpreter when set.
	Interpreter string
	Logf        func(format string, args ...any)
}

// Run spawns the stage's script with the descriptor's argument contract and
// captures exit status and diagnostic output. Launch failures (command not
// found, permission denied) are folded into a failure Result; nothing
// escapes the executor's boundary.
func (l *Local) Run(ctx context.Context, desc stage.Descriptor, rc *stage.RunContext) *Result {
	res := &Result{Stage: desc.Name, ExitCode: -1}

	args, err := desc.BuildArgs(rc)
	if err != nil {
		res.Stderr = err.Error()
		return res
	}

	interpreter := l.Interpreter
	if interpreter == "" {
		interpreter = rc.Interpreter
	}

	argv := append([]string{interpreter, rc.ScriptPath(desc.Script)}, args...)
	res.Command = argv

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = rc.WorkDir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	l.logf("stage %s: running %s", desc.Name, strings.Join(argv, " "))

	start := time.Now()
	runErr := cmd.Run()
	res.Duration = time.Since(start)
	res.Stdout = stdout.String()
	res.Stderr = stderr.String()

	if runErr != nil {
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
		} else {
			res.Stderr = strings.TrimSpace(res.Stderr + "\n" + runErr.Error())
		}
		return res
	}

	res.ExitCode = 0
	res.Success = true
	return res
}

func (l *Local) logf(format string, args ...any) {
	if l.Logf != nil {
		l.Logf(format, args...)
	}
}
