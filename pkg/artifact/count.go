package artifact

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// ParseError marks a single artifact whose contents could not be decoded.
// It is recovered locally by the stats reporter and never halts a run.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse artifact %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// CountRecords returns the number of records in the artifact at path.
// JSON arrays count elements, JSONL files count non-blank lines, and text
// artifacts always count zero (presence is what matters for them).
func CountRecords(path string, format Format) (int, error) {
	switch format {
	case JSONArray:
		data, err := os.ReadFile(path)
		if err != nil {
			return 0, err
		}
		var records []json.RawMessage
		if err := json.Unmarshal(data, &records); err != nil {
			return 0, &ParseError{Path: path, Err: err}
		}
		return len(records), nil
	case JSONLines:
		f, err := os.Open(path)
		if err != nil {
			return 0, err
		}
		defer f.Close()

		count := 0
		scanner := bufio.NewScanner(f)
		scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
		for scanner.Scan() {
			if strings.TrimSpace(scanner.Text()) != "" {
				count++
			}
		}
		if err := scanner.Err(); err != nil {
			return 0, &ParseError{Path: path, Err: err}
		}
		return count, nil
	default:
		return 0, nil
	}
}
