package stats

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"text/tabwriter"

	"github.com/tunedata/qaforge/pkg/artifact"
	"github.com/tunedata/qaforge/pkg/stage"
)

// ArtifactStat is one digest line for a declared artifact. Present
// distinguishes "produced but empty" from "not yet produced"; Err records a
// per-artifact parse failure without aborting the rest of the digest.
type ArtifactStat struct {
	Name    string
	Format  artifact.Format
	Present bool
	Count   int
	Err     string
}

// ReportSummary is one quality-report line keyed by the report's declared
// source filename.
type ReportSummary struct {
	Path   string
	Report *artifact.QualityReport
	Err    string
}

// Digest aggregates run statistics across the declared artifacts and any
// discovered quality reports.
type Digest struct {
	Artifacts []ArtifactStat
	Reports   []ReportSummary
}

// Reporter loads the artifacts a stage list declares and counts their
// records. It runs after the pipeline's pass/fail outcome is already fixed
// and never fails a run.
type Reporter struct {
	// ReportDir overrides where quality reports are discovered. Empty means
	// the run's output directory, where the orchestrator sweeps them.
	ReportDir string
}

// Collect builds a digest for the run: one entry per declared output
// artifact in stage order, plus a summary per discovered quality report.
func (r *Reporter) Collect(stages []stage.Descriptor, rc *stage.RunContext) *Digest {
	digest := &Digest{}

	seen := make(map[string]struct{})
	for _, desc := range stages {
		for _, ref := range desc.Outputs {
			if _, ok := seen[ref.RelPath]; ok {
				continue
			}
			seen[ref.RelPath] = struct{}{}

			stat := ArtifactStat{Name: ref.RelPath, Format: ref.Format}
			path := rc.Resolve(ref.RelPath)
			if artifact.Exists(path) {
				stat.Present = true
				count, err := artifact.CountRecords(path, ref.Format)
				if err != nil {
					stat.Err = err.Error()
				} else {
					stat.Count = count
				}
			}
			digest.Artifacts = append(digest.Artifacts, stat)
		}
	}

	reportDir := r.ReportDir
	if reportDir == "" {
		reportDir = rc.OutputDir
	}
	paths, err := artifact.DiscoverReports(reportDir)
	if err != nil {
		return digest
	}
	for _, path := range paths {
		summary := ReportSummary{Path: path}
		report, err := artifact.LoadQualityReport(path)
		if err != nil {
			summary.Err = err.Error()
		} else {
			summary.Report = report
		}
		digest.Reports = append(digest.Reports, summary)
	}

	return digest
}

// Render writes a human-readable digest.
func Render(w io.Writer, digest *Digest) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ARTIFACT\tSTATUS\tCOUNT")
	for _, stat := range digest.Artifacts {
		status := "absent"
		count := "-"
		switch {
		case stat.Err != "":
			status = "parse error"
		case stat.Present:
			status = "present"
			if stat.Format != artifact.Text {
				count = strconv.Itoa(stat.Count)
			}
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", stat.Name, status, count)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(digest.Reports) == 0 {
		return nil
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Quality reports:")
	for _, summary := range digest.Reports {
		if summary.Err != "" {
			fmt.Fprintf(w, "  %s: %s\n", filepath.Base(summary.Path), summary.Err)
			continue
		}
		report := summary.Report
		fmt.Fprintf(w, "  %s: average score %.1f, %d pairs, %d excellent\n",
			filepath.Base(report.Filename), report.AverageScore, report.TotalPairs,
			report.ScoreDistribution.Excellent)
		if mismatch, ok := report.CommonIssues["question_answer_mismatch"]; ok {
			fmt.Fprintf(w, "    question/answer mismatches: %d, topic mismatches: %d\n",
				mismatch, report.CommonIssues["topic_mismatch"])
		}
	}
	return nil
}
