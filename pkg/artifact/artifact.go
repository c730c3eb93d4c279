package artifact

import (
	"fmt"
	"os"
)

// Format describes how an artifact's records are encoded on disk.
type Format int

const (
	// Text is an opaque text file; it holds no countable records.
	Text Format = iota
	// JSONArray is a single JSON array of records.
	JSONArray
	// JSONLines is one JSON object per line.
	JSONLines
)

// String returns the format name used in manifests and digests.
func (f Format) String() string {
	switch f {
	case JSONArray:
		return "json"
	case JSONLines:
		return "jsonl"
	default:
		return "text"
	}
}

// ParseFormat converts a manifest format name to a Format.
func ParseFormat(name string) (Format, error) {
	switch name {
	case "", "text":
		return Text, nil
	case "json":
		return JSONArray, nil
	case "jsonl":
		return JSONLines, nil
	default:
		return Text, fmt.Errorf("unknown artifact format %q", name)
	}
}

// Ref declares one artifact a stage consumes or must produce. RelPath is
// the filename relative to the run's output directory; LegacyNames are
// documented filenames older stage versions wrote instead.
type Ref struct {
	Key         string
	RelPath     string
	Format      Format
	LegacyNames []string
}

// Exists reports whether path resolves to an existing, non-empty regular
// file. Empty files are never trusted as satisfied outputs.
func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular() && info.Size() > 0
}
