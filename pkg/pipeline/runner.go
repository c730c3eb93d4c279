package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/tunedata/qaforge/pkg/artifact"
	"github.com/tunedata/qaforge/pkg/evidence"
	"github.com/tunedata/qaforge/pkg/executor"
	"github.com/tunedata/qaforge/pkg/reconcile"
	"github.com/tunedata/qaforge/pkg/stage"
)

// Executor runs one stage attempt. *executor.Local is the production
// implementation; tests substitute call-counting fakes.
type Executor interface {
	Run(ctx context.Context, desc stage.Descriptor, rc *stage.RunContext) *executor.Result
}

// RunOptions configures pipeline execution.
type RunOptions struct {
	Executor Executor
	Logger   func(format string, args ...any)
	// EvidenceDir overrides where run records go. Empty means
	// <output>/.qaforge/runs.
	EvidenceDir string
}

// StageResult captures how one stage resolved.
type StageResult struct {
	Name        string
	Skipped     bool
	Relocations []reconcile.Relocation
	Duration    time.Duration
}

// RunResult captures a full pipeline run.
type RunResult struct {
	RunID       string
	EvidenceDir string
	Stages      []*StageResult
}

// Run drives the ordered stage list over a single run context. Each stage
// transition is skip gate, then executor, then reconciler; a stage resolves
// to success by skip or by execution plus reconciliation. The run halts on
// the first stage that does not resolve, leaving earlier artifacts in place
// for inspection.
func Run(ctx context.Context, stages []stage.Descriptor, rc *stage.RunContext, opts RunOptions) (*RunResult, error) {
	if len(stages) == 0 {
		return nil, fmt.Errorf("no stages configured")
	}

	logf := opts.Logger
	if logf == nil {
		logf = func(string, ...any) {}
	}
	exec := opts.Executor
	if exec == nil {
		exec = &executor.Local{Logf: logf}
	}

	if err := rc.EnsureOutputDir(); err != nil {
		return nil, err
	}

	// Every collaborator must be present before the first stage runs.
	for _, desc := range stages {
		script := rc.ScriptPath(desc.Script)
		if _, err := os.Stat(script); err != nil {
			return nil, &MissingCollaboratorError{Stage: desc.Name, Script: script}
		}
	}

	writer, err := prepareEvidenceWriter(opts.EvidenceDir, rc.OutputDir)
	if err != nil {
		return nil, err
	}
	runID := filepath.Base(writer.RunDir())
	if err := writer.WriteRun(evidence.RunRecord{
		ID:           runID,
		Timestamp:    time.Now().UTC(),
		SourcePDF:    rc.PDFPath,
		OutputDir:    rc.OutputDir,
		SkipExisting: rc.SkipExisting,
		ToolVersions: map[string]string{"go": runtime.Version()},
	}); err != nil {
		return nil, err
	}

	rec := &reconcile.Reconciler{Logf: logf}
	result := &RunResult{RunID: runID, EvidenceDir: writer.RunDir()}

	for _, desc := range stages {
		if desc.RequiresSource && rc.PDFPath == "" {
			logf("no source document supplied; stage %s not invoked", desc.Name)
			continue
		}

		stageResult, record, err := runStage(ctx, desc, rc, exec, rec, logf)
		if record != nil {
			record.Name = desc.Name
			if werr := writer.WriteStage(*record); werr != nil {
				return nil, werr
			}
		}
		if err != nil {
			logf("stage %s failed: %v", desc.Name, err)
			return nil, err
		}
		result.Stages = append(result.Stages, stageResult)
	}

	return result, nil
}

func runStage(
	ctx context.Context,
	desc stage.Descriptor,
	rc *stage.RunContext,
	exec Executor,
	rec *reconcile.Reconciler,
	logf func(format string, args ...any),
) (*StageResult, *evidence.StageRecord, error) {
	start := time.Now()
	record := &evidence.StageRecord{}
	outputs := desc.OutputPaths(rc)

	if ShouldSkip(rc.SkipExisting, outputs) {
		logf("stage %s: outputs already satisfied, skipping", desc.Name)
		record.Skipped = true
		record.Artifacts = hashArtifacts(outputs)
		record.DurationMillis = time.Since(start).Milliseconds()
		return &StageResult{Name: desc.Name, Skipped: true, Duration: time.Since(start)}, record, nil
	}

	if desc.RequiresSource && !artifact.Exists(rc.PDFPath) {
		return nil, record, &PreconditionError{Stage: desc.Name, Path: rc.PDFPath}
	}
	for _, input := range desc.InputPaths(rc) {
		if !artifact.Exists(input) {
			return nil, record, &PreconditionError{Stage: desc.Name, Path: input}
		}
	}

	res := exec.Run(ctx, desc, rc)
	record.Command = res.Command
	record.ExitCode = res.ExitCode
	record.Stderr = truncate(res.Stderr, 4096)

	if !res.Success {
		return nil, record, &StageExecutionError{Stage: desc.Name, ExitCode: res.ExitCode, Stderr: res.Stderr}
	}

	relocations, err := rec.ReconcileStage(desc, rc)
	record.Relocations = relocationRecords(relocations)
	if err != nil {
		return nil, record, fmt.Errorf("stage %s: %w", desc.Name, err)
	}

	if desc.ReportGlob != "" {
		swept, sweepErr := rec.SweepReports(desc.ReportGlob, rc.WorkDir, rc.OutputDir)
		record.Relocations = append(record.Relocations, relocationRecords(swept)...)
		if sweepErr != nil {
			// Reports are advisory; a failed sweep never fails the stage.
			logf("stage %s: report sweep: %v", desc.Name, sweepErr)
		}
	}

	record.Artifacts = hashArtifacts(outputs)
	record.DurationMillis = time.Since(start).Milliseconds()

	return &StageResult{
		Name:        desc.Name,
		Relocations: relocations,
		Duration:    time.Since(start),
	}, record, nil
}

func prepareEvidenceWriter(baseDir, outputDir string) (*evidence.Writer, error) {
	if baseDir == "" {
		baseDir = filepath.Join(outputDir, ".qaforge", "runs")
	}
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, err
	}

	runID := fmt.Sprintf("%s-%s", time.Now().UTC().Format("20060102T150405Z"), randomSuffix())
	return evidence.NewWriter(baseDir, runID)
}

func relocationRecords(relocations []reconcile.Relocation) []evidence.RelocationRecord {
	records := make([]evidence.RelocationRecord, 0, len(relocations))
	for _, rel := range relocations {
		if rel.Method == reconcile.MethodInPlace {
			continue
		}
		records = append(records, evidence.RelocationRecord{
			Declared: rel.Declared,
			Source:   rel.Source,
			Method:   rel.Method.String(),
		})
	}
	return records
}

func hashArtifacts(paths []string) map[string]string {
	hashes := make(map[string]string, len(paths))
	for _, path := range paths {
		if h := evidence.HashFile(path); h != "" {
			hashes[filepath.Base(path)] = h
		}
	}
	return hashes
}

func truncate(value string, limit int) string {
	if limit <= 0 || len(value) <= limit {
		return value
	}
	return value[:limit]
}

func randomSuffix() string {
	now := time.Now().UTC().UnixNano()
	sum := sha256.Sum256([]byte(fmt.Sprintf("%d", now)))
	return hex.EncodeToString(sum[:4])
}
