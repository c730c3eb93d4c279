package reconcile

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tunedata/qaforge/pkg/artifact"
	"github.com/tunedata/qaforge/pkg/stage"
)

// Method records how a declared output was satisfied.
type Method int

const (
	// MethodInPlace means the artifact was already at its declared path.
	MethodInPlace Method = iota
	// MethodMove means a stray was renamed into place.
	MethodMove
	// MethodCopy means the rename failed and the stray was copied byte for
	// byte, then removed.
	MethodCopy
)

func (m Method) String() string {
	switch m {
	case MethodMove:
		return "move"
	case MethodCopy:
		return "copy"
	default:
		return "in-place"
	}
}

// Relocation describes where a declared output was found and how it was
// brought to its declared path.
type Relocation struct {
	Declared string
	Source   string
	Method   Method
}

// Failure reports a declared output that could not be located or relocated.
// A zero stage exit code is necessary but not sufficient for success; this
// error downgrades an apparently-successful stage to failed.
type Failure struct {
	Declared string
	Tried    []string
	Err      error
}

func (f *Failure) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("reconcile %s: %v", f.Declared, f.Err)
	}
	if len(f.Tried) == 0 {
		return fmt.Sprintf("declared output %s not found", f.Declared)
	}
	return fmt.Sprintf("declared output %s not found (also tried %s)",
		f.Declared, strings.Join(f.Tried, ", "))
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// renameFile is swapped in tests to force the copy fallback.
var renameFile = os.Rename

// Resolve locates a declared artifact. If the declared path already holds a
// non-empty file, nothing happens. Otherwise candidates are tried in order
// and the first match is relocated: rename preferred, byte copy plus source
// removal when the rename fails (cross-volume moves). No match is a Failure.
func Resolve(declared string, candidates []string) (*Relocation, error) {
	if artifact.Exists(declared) {
		return &Relocation{Declared: declared, Source: declared, Method: MethodInPlace}, nil
	}

	tried := make([]string, 0, len(candidates))
	for _, candidate := range candidates {
		tried = append(tried, candidate)
		if !artifact.Exists(candidate) {
			continue
		}
		method, err := relocate(candidate, declared)
		if err != nil {
			return nil, &Failure{Declared: declared, Tried: tried, Err: err}
		}
		return &Relocation{Declared: declared, Source: candidate, Method: method}, nil
	}

	return nil, &Failure{Declared: declared, Tried: tried}
}

// relocate moves src to dst, falling back to copy-then-remove.
func relocate(src, dst string) (Method, error) {
	if err := renameFile(src, dst); err == nil {
		return MethodMove, nil
	}
	if err := copyFile(src, dst); err != nil {
		return MethodCopy, err
	}
	// The declared copy is in place; a stale source is not worth failing
	// the stage over.
	_ = os.Remove(src)
	return MethodCopy, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// Reconciler verifies declared stage outputs after a successful execution
// and relocates strays. External stages are free to write outputs with
// their own conventions; this is the seam that tolerates that.
type Reconciler struct {
	Logf func(format string, args ...any)
}

// Candidates returns the fallback locations searched for a declared output:
// the same filename in the working directory, then documented legacy names
// in the output directory and the working directory.
func Candidates(ref artifact.Ref, rc *stage.RunContext) []string {
	candidates := []string{filepath.Join(rc.WorkDir, filepath.Base(ref.RelPath))}
	for _, legacy := range ref.LegacyNames {
		candidates = append(candidates, rc.Resolve(legacy), filepath.Join(rc.WorkDir, legacy))
	}
	return candidates
}

// ReconcileStage checks every declared output of desc and relocates any it
// finds elsewhere. The first output that cannot be resolved fails the stage.
func (r *Reconciler) ReconcileStage(desc stage.Descriptor, rc *stage.RunContext) ([]Relocation, error) {
	relocations := make([]Relocation, 0, len(desc.Outputs))
	for _, ref := range desc.Outputs {
		declared := rc.Resolve(ref.RelPath)
		rel, err := Resolve(declared, Candidates(ref, rc))
		if err != nil {
			return relocations, err
		}
		if rel.Method != MethodInPlace {
			r.logf("stage %s: relocated %s from %s (%s)", desc.Name, declared, rel.Source, rel.Method)
		}
		relocations = append(relocations, *rel)
	}
	return relocations, nil
}

// SweepReports relocates side reports matching glob from fromDir into toDir.
// The stage is not required to emit any, so an empty sweep is fine. Reports
// already present in toDir are replaced; the fresh run is authoritative.
func (r *Reconciler) SweepReports(glob, fromDir, toDir string) ([]Relocation, error) {
	matches, err := filepath.Glob(filepath.Join(fromDir, glob))
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)

	var relocations []Relocation
	for _, match := range matches {
		declared := filepath.Join(toDir, filepath.Base(match))
		if declared == match {
			continue
		}
		method, err := relocate(match, declared)
		if err != nil {
			return relocations, &Failure{Declared: declared, Tried: []string{match}, Err: err}
		}
		r.logf("swept report %s into %s (%s)", filepath.Base(match), toDir, method)
		relocations = append(relocations, Relocation{Declared: declared, Source: match, Method: method})
	}
	return relocations, nil
}

func (r *Reconciler) logf(format string, args ...any) {
	if r.Logf != nil {
		r.Logf(format, args...)
	}
}
