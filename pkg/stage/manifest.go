package stage

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/tunedata/qaforge/pkg/artifact"
)

// Manifest is an optional YAML override of the built-in stage list.
type Manifest struct {
	Name   string          `yaml:"name"`
	Stages []ManifestStage `yaml:"stages"`
}

// ManifestStage mirrors Descriptor in manifest form.
type ManifestStage struct {
	Name           string         `yaml:"name"`
	Script         string         `yaml:"script"`
	Args           []string       `yaml:"args"`
	Inputs         []ManifestFile `yaml:"inputs,omitempty"`
	Outputs        []ManifestFile `yaml:"outputs"`
	ReportGlob     string         `yaml:"report_glob,omitempty"`
	RequiresSource bool           `yaml:"requires_source,omitempty"`
}

// ManifestFile declares one artifact in manifest form.
type ManifestFile struct {
	Key    string   `yaml:"key"`
	Path   string   `yaml:"path"`
	Format string   `yaml:"format,omitempty"`
	Legacy []string `yaml:"legacy,omitempty"`
}

// LoadManifest reads a stage-list definition from a YAML file and converts
// it to descriptors.
func LoadManifest(path string) ([]Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var manifest Manifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	if err := manifest.Validate(); err != nil {
		return nil, err
	}
	return manifest.Descriptors()
}

// Validate checks the manifest for errors: every stage needs a unique name,
// a script, and at least one output, and every input must be produced by an
// earlier stage (the flow is strictly linear).
func (m *Manifest) Validate() error {
	if m.Name == "" {
		return fmt.Errorf("manifest name is required")
	}
	if len(m.Stages) == 0 {
		return fmt.Errorf("manifest must define at least one stage")
	}

	seen := make(map[string]struct{})
	produced := make(map[string]struct{})
	for _, st := range m.Stages {
		if st.Name == "" {
			return fmt.Errorf("stage name is required")
		}
		if _, ok := seen[st.Name]; ok {
			return fmt.Errorf("duplicate stage name: %s", st.Name)
		}
		seen[st.Name] = struct{}{}

		if st.Script == "" {
			return fmt.Errorf("stage %s must name a script", st.Name)
		}
		if len(st.Outputs) == 0 {
			return fmt.Errorf("stage %s must declare at least one output", st.Name)
		}

		for _, in := range st.Inputs {
			if in.Key == "" || in.Path == "" {
				return fmt.Errorf("stage %s has an input without key or path", st.Name)
			}
			if _, ok := produced[in.Key]; !ok {
				return fmt.Errorf("stage %s input %s is not produced by an earlier stage", st.Name, in.Key)
			}
		}
		for _, out := range st.Outputs {
			if out.Key == "" || out.Path == "" {
				return fmt.Errorf("stage %s has an output without key or path", st.Name)
			}
			if _, err := artifact.ParseFormat(out.Format); err != nil {
				return fmt.Errorf("stage %s output %s: %w", st.Name, out.Key, err)
			}
			produced[out.Key] = struct{}{}
		}
	}

	return nil
}

// Descriptors converts a validated manifest to the orchestrator's stage list.
func (m *Manifest) Descriptors() ([]Descriptor, error) {
	descriptors := make([]Descriptor, 0, len(m.Stages))
	for _, st := range m.Stages {
		inputs, err := toRefs(st.Inputs)
		if err != nil {
			return nil, fmt.Errorf("stage %s: %w", st.Name, err)
		}
		outputs, err := toRefs(st.Outputs)
		if err != nil {
			return nil, fmt.Errorf("stage %s: %w", st.Name, err)
		}
		descriptors = append(descriptors, Descriptor{
			Name:           st.Name,
			Script:         st.Script,
			Args:           st.Args,
			Inputs:         inputs,
			Outputs:        outputs,
			ReportGlob:     st.ReportGlob,
			RequiresSource: st.RequiresSource,
		})
	}
	return descriptors, nil
}

func toRefs(files []ManifestFile) ([]artifact.Ref, error) {
	refs := make([]artifact.Ref, 0, len(files))
	for _, f := range files {
		format, err := artifact.ParseFormat(f.Format)
		if err != nil {
			return nil, err
		}
		refs = append(refs, artifact.Ref{
			Key:         f.Key,
			RelPath:     f.Path,
			Format:      format,
			LegacyNames: f.Legacy,
		})
	}
	return refs, nil
}
