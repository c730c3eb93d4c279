package stage

import "github.com/tunedata/qaforge/pkg/artifact"

// Stage names in the fixed processing sequence.
const (
	Extract  = "extract"
	Segment  = "segment"
	Generate = "generate"
	Fix      = "fix"
	Quality  = "quality-check"
)

// DefaultStages returns the ordered stage list for the QA fine-tuning
// pipeline, with the artifact filenames the collaborator scripts use.
func DefaultStages() []Descriptor {
	content := artifact.Ref{Key: "content", RelPath: "processed_content.txt", Format: artifact.Text}
	segments := artifact.Ref{Key: "segments", RelPath: "segmented_content.json", Format: artifact.JSONArray}
	qaJSON := artifact.Ref{Key: "qa_json", RelPath: "qa_instructions_robust.json", Format: artifact.JSONArray}
	qaJSONL := artifact.Ref{Key: "qa_jsonl", RelPath: "qa_instructions_chatglm_robust.jsonl", Format: artifact.JSONLines}
	fixedJSON := artifact.Ref{
		Key:         "fixed_json",
		RelPath:     "qa_instructions_fixed_improved.json",
		Format:      artifact.JSONArray,
		LegacyNames: []string{"qa_instructions_robust_improved.json"},
	}
	fixedJSONL := artifact.Ref{
		Key:         "fixed_jsonl",
		RelPath:     "qa_instructions_chatglm_fixed_improved.jsonl",
		Format:      artifact.JSONLines,
		LegacyNames: []string{"qa_instructions_chatglm_robust_improved.jsonl"},
	}
	hqJSON := artifact.Ref{Key: "hq_json", RelPath: "high_quality_qa.json", Format: artifact.JSONArray}
	hqJSONL := artifact.Ref{Key: "hq_jsonl", RelPath: "high_quality_qa.jsonl", Format: artifact.JSONLines}

	return []Descriptor{
		{
			Name:           Extract,
			Script:         "tunning.py",
			Args:           []string{"--pdf", "{{ .PDF }}", "--output", "{{ .Out.content }}"},
			Outputs:        []artifact.Ref{content},
			RequiresSource: true,
		},
		{
			Name:    Segment,
			Script:  "segment.py",
			Args:    []string{"--input", "{{ .In.content }}", "--output", "{{ .Out.segments }}"},
			Inputs:  []artifact.Ref{content},
			Outputs: []artifact.Ref{segments},
		},
		{
			Name:    Generate,
			Script:  "generate_qa_pairs_improved.py",
			Args:    []string{"--input", "{{ .In.segments }}", "--output_dir", "{{ .OutputDir }}"},
			Inputs:  []artifact.Ref{segments},
			Outputs: []artifact.Ref{qaJSON, qaJSONL},
		},
		{
			Name:   Fix,
			Script: "fix_qa_pairs_improved.py",
			Args: []string{
				"--input_json", "{{ .In.qa_json }}",
				"--input_jsonl", "{{ .In.qa_jsonl }}",
				"--output_dir", "{{ .OutputDir }}",
			},
			Inputs:  []artifact.Ref{qaJSON, qaJSONL},
			Outputs: []artifact.Ref{fixedJSON, fixedJSONL},
		},
		{
			Name:   Quality,
			Script: "ensure_high_quality.py",
			Args: []string{
				"--input_json", "{{ .In.fixed_json }}",
				"--input_jsonl", "{{ .In.fixed_jsonl }}",
				"--output_dir", "{{ .OutputDir }}",
			},
			Inputs:     []artifact.Ref{fixedJSON, fixedJSONL},
			Outputs:    []artifact.Ref{hqJSON, hqJSONL},
			ReportGlob: artifact.ReportGlob,
		},
	}
}
