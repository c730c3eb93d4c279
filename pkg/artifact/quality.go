package artifact

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
)

// ReportGlob matches the per-file scoring summaries the quality-check
// stage writes alongside its outputs.
const ReportGlob = "quality_report_*.json"

// QualityReport summarizes quality-check scoring for one source file.
type QualityReport struct {
	Filename          string         `json:"filename"`
	AverageScore      float64        `json:"average_score"`
	TotalPairs        int            `json:"total_pairs"`
	ScoreDistribution ScoreBuckets   `json:"score_distribution"`
	CommonIssues      map[string]int `json:"common_issues,omitempty"`
}

// ScoreBuckets holds the score-distribution counts the reporter surfaces.
type ScoreBuckets struct {
	Excellent int `json:"excellent"`
}

// LoadQualityReport reads and decodes a single quality report.
func LoadQualityReport(path string) (*QualityReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var report QualityReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	return &report, nil
}

// DiscoverReports returns the quality report paths under dir, sorted by
// name. The quality-check stage does not hand back report references, so
// discovery is by filename pattern.
func DiscoverReports(dir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, ReportGlob))
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	return matches, nil
}
