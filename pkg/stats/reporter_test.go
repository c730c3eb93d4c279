package stats

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/tunedata/qaforge/pkg/stage"
)

func testRun(t *testing.T) ([]stage.Descriptor, *stage.RunContext) {
	t.Helper()
	dir := t.TempDir()
	rc := &stage.RunContext{
		OutputDir: filepath.Join(dir, "output"),
		WorkDir:   dir,
	}
	if err := rc.EnsureOutputDir(); err != nil {
		t.Fatalf("ensure output dir: %v", err)
	}
	return stage.DefaultStages(), rc
}

func write(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func statByName(t *testing.T, digest *Digest, name string) ArtifactStat {
	t.Helper()
	for _, stat := range digest.Artifacts {
		if stat.Name == name {
			return stat
		}
	}
	t.Fatalf("artifact %s not in digest", name)
	return ArtifactStat{}
}

func TestCollectCountsRecords(t *testing.T) {
	stages, rc := testRun(t)
	write(t, rc.Resolve("segmented_content.json"), `[{"s":1},{"s":2},{"s":3},{"s":4}]`)
	write(t, rc.Resolve("qa_instructions_chatglm_robust.jsonl"), "{\"q\":1}\n{\"q\":2}\n")

	reporter := &Reporter{}
	digest := reporter.Collect(stages, rc)

	segments := statByName(t, digest, "segmented_content.json")
	if !segments.Present || segments.Count != 4 {
		t.Fatalf("expected 4 segments, got %+v", segments)
	}
	jsonl := statByName(t, digest, "qa_instructions_chatglm_robust.jsonl")
	if !jsonl.Present || jsonl.Count != 2 {
		t.Fatalf("expected 2 jsonl records, got %+v", jsonl)
	}
}

func TestCollectAbsentIsNotZero(t *testing.T) {
	stages, rc := testRun(t)
	write(t, rc.Resolve("segmented_content.json"), `[]`)

	reporter := &Reporter{}
	digest := reporter.Collect(stages, rc)

	segments := statByName(t, digest, "segmented_content.json")
	if !segments.Present || segments.Count != 0 {
		t.Fatalf("empty array must be present with count 0, got %+v", segments)
	}
	missing := statByName(t, digest, "high_quality_qa.json")
	if missing.Present {
		t.Fatalf("missing artifact must be reported absent")
	}
}

func TestCollectMalformedArtifactIsIsolated(t *testing.T) {
	stages, rc := testRun(t)
	write(t, rc.Resolve("segmented_content.json"), `{"broken"`)
	write(t, rc.Resolve("high_quality_qa.json"), `[{"q":1}]`)

	reporter := &Reporter{}
	digest := reporter.Collect(stages, rc)

	broken := statByName(t, digest, "segmented_content.json")
	if broken.Err == "" {
		t.Fatalf("expected parse failure recorded")
	}
	ok := statByName(t, digest, "high_quality_qa.json")
	if ok.Err != "" || ok.Count != 1 {
		t.Fatalf("other artifacts must still be counted, got %+v", ok)
	}
}

func TestCollectQualityReports(t *testing.T) {
	stages, rc := testRun(t)
	write(t, rc.Resolve("quality_report_doc.json"), `{
		"filename": "doc.json", "average_score": 7.5,
		"total_pairs": 10, "score_distribution": {"excellent": 3}
	}`)
	write(t, rc.Resolve("quality_report_bad.json"), `nope`)

	reporter := &Reporter{}
	digest := reporter.Collect(stages, rc)

	if len(digest.Reports) != 2 {
		t.Fatalf("expected 2 reports, got %d", len(digest.Reports))
	}
	if digest.Reports[0].Err == "" {
		t.Fatalf("malformed report must record a parse failure")
	}
	good := digest.Reports[1]
	if good.Report == nil || good.Report.TotalPairs != 10 {
		t.Fatalf("unexpected report summary: %+v", good)
	}
}

func TestCollectReportDirOverride(t *testing.T) {
	stages, rc := testRun(t)
	elsewhere := t.TempDir()
	write(t, filepath.Join(elsewhere, "quality_report_doc.json"), `{"filename":"doc.json","total_pairs":1}`)

	reporter := &Reporter{ReportDir: elsewhere}
	digest := reporter.Collect(stages, rc)
	if len(digest.Reports) != 1 {
		t.Fatalf("expected report from override dir, got %d", len(digest.Reports))
	}
}

func TestCollectIsDeterministic(t *testing.T) {
	stages, rc := testRun(t)
	write(t, rc.Resolve("segmented_content.json"), `[{"s":1}]`)
	write(t, rc.Resolve("quality_report_doc.json"), `{"filename":"doc.json"}`)

	reporter := &Reporter{}
	first := reporter.Collect(stages, rc)
	second := reporter.Collect(stages, rc)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("digest must be identical across repeated collections")
	}
}

func TestRenderDigest(t *testing.T) {
	stages, rc := testRun(t)
	write(t, rc.Resolve("segmented_content.json"), `[{"s":1},{"s":2}]`)
	write(t, rc.Resolve("quality_report_doc.json"), `{
		"filename": "doc.json", "average_score": 8.0,
		"total_pairs": 5, "score_distribution": {"excellent": 2}
	}`)

	reporter := &Reporter{}
	var sb strings.Builder
	if err := Render(&sb, reporter.Collect(stages, rc)); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := sb.String()

	if !strings.Contains(out, "segmented_content.json") {
		t.Fatalf("digest missing artifact line:\n%s", out)
	}
	if !strings.Contains(out, "absent") {
		t.Fatalf("digest must mark missing artifacts absent:\n%s", out)
	}
	if !strings.Contains(out, "average score 8.0, 5 pairs, 2 excellent") {
		t.Fatalf("digest missing report summary:\n%s", out)
	}
}
