package ruleset

import (
	"fmt"
	"io/ioutil"

	"github.com/go-yaml/yaml"
)

// RuleSpec is one rule's YAML representation, the on-disk counterpart of
// SimpleRule minus the fields a loader cannot populate (Payload, Matcher,
// Workflow, Shells). Grounded on the teacher's definitions/component.go
// Rule/Component YAML shapes, narrowed to what SimpleRule.Run needs.
type RuleSpec struct {
	Name    string   `yaml:"name"`
	Input   []string `yaml:"input"`
	Output  []string `yaml:"output"`
	Threads int      `yaml:"threads"`
	Message string   `yaml:"message"`
	Shell   string   `yaml:"shell"`
	Depends []string `yaml:"depends"`
	Image   string   `yaml:"image"`
	Dynamic []string `yaml:"dynamic"`
}

// Manifest is an ordered set of rule definitions loaded from YAML.
type Manifest struct {
	Rules []RuleSpec `yaml:"rules"`
}

// LoadManifest parses a manifest document. Rules may reference a Depends
// name defined anywhere in the document; forward references are resolved in
// Build, not here.
func LoadManifest(text []byte) (*Manifest, error) {
	m := &Manifest{}
	if err := yaml.Unmarshal(text, m); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	return m, nil
}

// LoadManifestFile reads and parses a manifest from path.
func LoadManifestFile(path string) (*Manifest, error) {
	text, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest %s: %w", path, err)
	}
	return LoadManifest(text)
}

// Build turns every RuleSpec into a SimpleRule, wiring Depends references by
// name, and returns them keyed by rule name. Payloads are left nil: a
// manifest-loaded rule only declares inputs/outputs/shell command. The shell
// command becomes the job's ShellCmd, which is shown in the job's message
// but not executed; running such a job through job.RunWrapper fails with a
// "no runnable payload" error.
func (m *Manifest) Build() (map[string]*SimpleRule, error) {
	rules := make(map[string]*SimpleRule, len(m.Rules))
	for _, spec := range m.Rules {
		if _, dup := rules[spec.Name]; dup {
			return nil, fmt.Errorf("duplicate rule name: %s", spec.Name)
		}
		r := &SimpleRule{
			RuleName:   spec.Name,
			Inputs:     spec.Input,
			Outputs:    spec.Output,
			NumThreads: spec.Threads,
			Message:    spec.Message,
			ShellCmd:   spec.Shell,
			Image:      spec.Image,
		}
		for _, dyn := range spec.Dynamic {
			r.SetDynamic(dyn, true)
		}
		rules[spec.Name] = r
	}
	for _, spec := range m.Rules {
		r := rules[spec.Name]
		for _, depName := range spec.Depends {
			dep, ok := rules[depName]
			if !ok {
				return nil, fmt.Errorf("rule %s depends on undefined rule %s", spec.Name, depName)
			}
			r.Depends = append(r.Depends, dep)
		}
	}
	return rules, nil
}
