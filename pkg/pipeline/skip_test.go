package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/tunedata/qaforge/pkg/stage"
)

func TestShouldSkipPolicyOff(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "qa.json")
	if err := os.WriteFile(path, []byte("[]"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if ShouldSkip(false, []string{path}) {
		t.Fatalf("must never skip when the policy is off")
	}
}

func TestShouldSkipAllOutputsPresent(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "qa.json")
	b := filepath.Join(dir, "qa.jsonl")
	for _, p := range []string{a, b} {
		if err := os.WriteFile(p, []byte("x"), 0644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	if !ShouldSkip(true, []string{a, b}) {
		t.Fatalf("expected skip when every output exists and is non-empty")
	}
}

func TestShouldSkipRejectsEmptyFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "qa.json")
	if err := os.WriteFile(path, nil, 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if ShouldSkip(true, []string{path}) {
		t.Fatalf("empty outputs must not satisfy the gate")
	}
}

// Partial existence never skips, for every multi-output stage descriptor.
func TestShouldSkipRejectsPartialOutputSets(t *testing.T) {
	for _, desc := range stage.DefaultStages() {
		if len(desc.Outputs) < 2 {
			continue
		}
		rc := &stage.RunContext{OutputDir: t.TempDir()}
		outputs := desc.OutputPaths(rc)
		for leaveOut := range outputs {
			for i, path := range outputs {
				if i == leaveOut {
					continue
				}
				if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
					t.Fatalf("write: %v", err)
				}
			}
			if ShouldSkip(true, outputs) {
				t.Fatalf("stage %s: skipped with %s missing", desc.Name, outputs[leaveOut])
			}
			for _, path := range outputs {
				os.Remove(path)
			}
		}
	}
}
