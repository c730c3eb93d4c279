package evidence

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// RunRecord captures run-level metadata.
type RunRecord struct {
	ID           string            `json:"id"`
	Timestamp    time.Time         `json:"timestamp"`
	SourcePDF    string            `json:"source_pdf,omitempty"`
	OutputDir    string            `json:"output_dir"`
	SkipExisting bool              `json:"skip_existing"`
	ToolVersions map[string]string `json:"tool_versions,omitempty"`
}

// StageRecord captures how one stage resolved, for post-run inspection.
type StageRecord struct {
	Name           string             `json:"name"`
	Skipped        bool               `json:"skipped"`
	Command        []string           `json:"command,omitempty"`
	ExitCode       int                `json:"exit_code"`
	Stderr         string             `json:"stderr,omitempty"`
	Relocations    []RelocationRecord `json:"relocations,omitempty"`
	Artifacts      map[string]string  `json:"artifacts,omitempty"`
	DurationMillis int64              `json:"duration_ms"`
}

// RelocationRecord mirrors a reconciler relocation.
type RelocationRecord struct {
	Declared string `json:"declared"`
	Source   string `json:"source"`
	Method   string `json:"method"`
}

// Writer writes run evidence to disk.
type Writer struct {
	baseDir string
	runDir  string
}

// NewWriter creates a new evidence writer rooted at baseDir/runID.
func NewWriter(baseDir, runID string) (*Writer, error) {
	if baseDir == "" {
		return nil, fmt.Errorf("base directory is required")
	}
	if runID == "" {
		return nil, fmt.Errorf("run ID is required")
	}

	runDir := filepath.Join(baseDir, runID)
	if err := os.MkdirAll(filepath.Join(runDir, "stages"), 0755); err != nil {
		return nil, err
	}

	return &Writer{baseDir: baseDir, runDir: runDir}, nil
}

// RunDir returns the run directory path.
func (w *Writer) RunDir() string {
	return w.runDir
}

// WriteRun writes run metadata to run.json.
func (w *Writer) WriteRun(record RunRecord) error {
	return writeJSON(filepath.Join(w.runDir, "run.json"), record)
}

// WriteStage writes a stage record to stages/<stage>.json.
func (w *Writer) WriteStage(record StageRecord) error {
	path := filepath.Join(w.runDir, "stages", fmt.Sprintf("%s.json", record.Name))
	return writeJSON(path, record)
}

// HashFile returns a short sha256 of a file's contents, or empty when the
// file cannot be read.
func HashFile(path string) string {
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return ""
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}

func writeJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
