package stage

import (
	"os"
	"path/filepath"

	"github.com/tunedata/qaforge/pkg/artifact"
)

// RunContext carries per-run state: the source document, the chosen output
// directory, the skip-existing policy, and everything needed to resolve a
// descriptor's relative artifact paths to concrete files. It is owned by a
// single run and never shared across runs.
type RunContext struct {
	PDFPath   string
	OutputDir string
	// WorkDir is where stage processes run and where the reconciler looks
	// for strays. Defaults to the process working directory.
	WorkDir      string
	ScriptsDir   string
	Interpreter  string
	SkipExisting bool
}

// NewRunContext builds a run context with absolute paths and the defaults
// the original pipeline used (output dir "output", python3 collaborators).
func NewRunContext(pdfPath, outputDir string, skipExisting bool) (*RunContext, error) {
	if outputDir == "" {
		outputDir = "output"
	}
	absOut, err := filepath.Abs(outputDir)
	if err != nil {
		return nil, err
	}
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	return &RunContext{
		PDFPath:      pdfPath,
		OutputDir:    absOut,
		WorkDir:      cwd,
		ScriptsDir:   cwd,
		Interpreter:  "python3",
		SkipExisting: skipExisting,
	}, nil
}

// EnsureOutputDir creates the output directory tree if needed.
func (rc *RunContext) EnsureOutputDir() error {
	return os.MkdirAll(rc.OutputDir, 0755)
}

// Resolve returns the concrete path for an artifact name relative to the
// run's output directory.
func (rc *RunContext) Resolve(rel string) string {
	return filepath.Join(rc.OutputDir, rel)
}

// ScriptPath resolves a stage script against the scripts directory.
func (rc *RunContext) ScriptPath(script string) string {
	if filepath.IsAbs(script) {
		return script
	}
	return filepath.Join(rc.ScriptsDir, script)
}

func (rc *RunContext) resolveRefs(refs []artifact.Ref) map[string]string {
	resolved := make(map[string]string, len(refs))
	for _, ref := range refs {
		resolved[ref.Key] = rc.Resolve(ref.RelPath)
	}
	return resolved
}
