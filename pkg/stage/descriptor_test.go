package stage

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/tunedata/qaforge/pkg/artifact"
)

func testContext(t *testing.T) *RunContext {
	t.Helper()
	dir := t.TempDir()
	return &RunContext{
		PDFPath:     filepath.Join(dir, "source.pdf"),
		OutputDir:   filepath.Join(dir, "output"),
		WorkDir:     dir,
		ScriptsDir:  dir,
		Interpreter: "python3",
	}
}

func TestBuildArgsResolvesPaths(t *testing.T) {
	rc := testContext(t)
	desc := Descriptor{
		Name:   "generate",
		Script: "generate.py",
		Args:   []string{"--input", "{{ .In.segments }}", "--output_dir", "{{ .OutputDir }}"},
		Inputs: []artifact.Ref{{Key: "segments", RelPath: "segmented_content.json"}},
	}

	args, err := desc.BuildArgs(rc)
	if err != nil {
		t.Fatalf("build args: %v", err)
	}
	want := []string{
		"--input", rc.Resolve("segmented_content.json"),
		"--output_dir", rc.OutputDir,
	}
	if len(args) != len(want) {
		t.Fatalf("expected %d args, got %v", len(want), args)
	}
	for i := range want {
		if args[i] != want[i] {
			t.Fatalf("arg %d: expected %q, got %q", i, want[i], args[i])
		}
	}
}

func TestBuildArgsUnknownKey(t *testing.T) {
	rc := testContext(t)
	desc := Descriptor{
		Name: "generate",
		Args: []string{"{{ .In.nonexistent }}"},
	}

	if _, err := desc.BuildArgs(rc); err == nil {
		t.Fatalf("expected error for unresolved artifact key")
	}
}

func TestBuildArgsSourceDocument(t *testing.T) {
	rc := testContext(t)
	desc := Descriptor{
		Name:    "extract",
		Args:    []string{"--pdf", "{{ .PDF }}", "--output", "{{ .Out.content }}"},
		Outputs: []artifact.Ref{{Key: "content", RelPath: "processed_content.txt"}},
	}

	args, err := desc.BuildArgs(rc)
	if err != nil {
		t.Fatalf("build args: %v", err)
	}
	if args[1] != rc.PDFPath {
		t.Fatalf("expected pdf path %q, got %q", rc.PDFPath, args[1])
	}
	if !strings.HasSuffix(args[3], "processed_content.txt") {
		t.Fatalf("expected output path, got %q", args[3])
	}
}

func TestScriptPathResolution(t *testing.T) {
	rc := testContext(t)

	resolved := rc.ScriptPath("segment.py")
	if resolved != filepath.Join(rc.ScriptsDir, "segment.py") {
		t.Fatalf("unexpected script path: %s", resolved)
	}

	abs := filepath.Join(rc.WorkDir, "elsewhere", "segment.py")
	if rc.ScriptPath(abs) != abs {
		t.Fatalf("absolute script paths must pass through")
	}
}
