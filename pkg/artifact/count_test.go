package artifact

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestCountRecordsJSONArray(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "records.json", `[{"q":"a"},{"q":"b"},{"q":"c"}]`)

	count, err := CountRecords(path, JSONArray)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 records, got %d", count)
	}
}

func TestCountRecordsEmptyArray(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "records.json", `[]`)

	count, err := CountRecords(path, JSONArray)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected 0 records, got %d", count)
	}
}

func TestCountRecordsMalformedJSON(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "records.json", `{"not":"an array"`)

	_, err := CountRecords(path, JSONArray)
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected ParseError, got %v", err)
	}
	if parseErr.Path != path {
		t.Fatalf("unexpected path in error: %s", parseErr.Path)
	}
}

func TestCountRecordsJSONLines(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "records.jsonl", "{\"q\":1}\n\n{\"q\":2}\n")

	count, err := CountRecords(path, JSONLines)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 records, got %d", count)
	}
}

func TestCountRecordsText(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "content.txt", "some extracted text")

	count, err := CountRecords(path, Text)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Fatalf("text artifacts hold no records, got %d", count)
	}
}

func TestExists(t *testing.T) {
	dir := t.TempDir()

	if Exists(filepath.Join(dir, "missing.json")) {
		t.Fatalf("missing file should not exist")
	}

	empty := writeFile(t, dir, "empty.json", "")
	if Exists(empty) {
		t.Fatalf("empty file must not count as satisfied")
	}

	full := writeFile(t, dir, "full.json", "[]")
	if !Exists(full) {
		t.Fatalf("non-empty file should exist")
	}
}
