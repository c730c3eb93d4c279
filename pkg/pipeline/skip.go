package pipeline

import "github.com/tunedata/qaforge/pkg/artifact"

// ShouldSkip reports whether a stage can be bypassed entirely: skip-existing
// is on and every declared output already exists and is non-empty. Partial
// output sets always fall through to full re-execution; a partially-produced
// set is not trusted to be consistent.
func ShouldSkip(skipExisting bool, outputs []string) bool {
	if !skipExisting || len(outputs) == 0 {
		return false
	}
	for _, path := range outputs {
		if !artifact.Exists(path) {
			return false
		}
	}
	return true
}
