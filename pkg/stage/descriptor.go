package stage

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/tunedata/qaforge/pkg/artifact"
)

// Descriptor identifies one pipeline stage: the external script it invokes
// and the artifacts it consumes and must produce. Immutable once built; the
// orchestrator consumes an ordered list of these, so adding or reordering
// stages is a data change.
type Descriptor struct {
	Name   string
	Script string
	// Args are text/template fragments expanded per run, e.g.
	// "{{ .In.segments }}" or "{{ .OutputDir }}".
	Args    []string
	Inputs  []artifact.Ref
	Outputs []artifact.Ref
	// ReportGlob names side reports the stage may drop in the working
	// directory; the orchestrator sweeps matches into the output directory.
	ReportGlob string
	// RequiresSource marks the stage that reads the original document
	// instead of a predecessor artifact. It is bypassed entirely when no
	// source path was supplied for the run.
	RequiresSource bool
}

// argData is the template context for argument expansion.
type argData struct {
	PDF       string
	OutputDir string
	In        map[string]string
	Out       map[string]string
}

// BuildArgs expands the descriptor's argument templates against the run
// context's resolved artifact paths.
func (d Descriptor) BuildArgs(rc *RunContext) ([]string, error) {
	data := argData{
		PDF:       rc.PDFPath,
		OutputDir: rc.OutputDir,
		In:        rc.resolveRefs(d.Inputs),
		Out:       rc.resolveRefs(d.Outputs),
	}

	args := make([]string, 0, len(d.Args))
	for _, raw := range d.Args {
		tmpl, err := template.New("arg").Option("missingkey=error").Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("stage %s: parse arg %q: %w", d.Name, raw, err)
		}
		var sb strings.Builder
		if err := tmpl.Execute(&sb, data); err != nil {
			return nil, fmt.Errorf("stage %s: expand arg %q: %w", d.Name, raw, err)
		}
		args = append(args, sb.String())
	}
	return args, nil
}

// InputPaths returns the resolved required input paths in declaration order.
func (d Descriptor) InputPaths(rc *RunContext) []string {
	return resolvePaths(d.Inputs, rc)
}

// OutputPaths returns the resolved declared output paths in declaration order.
func (d Descriptor) OutputPaths(rc *RunContext) []string {
	return resolvePaths(d.Outputs, rc)
}

func resolvePaths(refs []artifact.Ref, rc *RunContext) []string {
	paths := make([]string, 0, len(refs))
	for _, ref := range refs {
		paths = append(paths, rc.Resolve(ref.RelPath))
	}
	return paths
}
