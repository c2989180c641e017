package catalog

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/five82/stagehand/internal/results"
)

// Catalog is the declarative set of stage and operational actions.
type Catalog struct {
	Stages     []Stage     `yaml:"stages"`
	Operations []Operation `yaml:"operations,omitempty"`
}

// Stage is a mission stage. Its id names the result store shared by every
// action beneath it.
type Stage struct {
	ID     string  `yaml:"id"`
	Title  string  `yaml:"title"`
	Groups []Group `yaml:"groups"`
}

// Group clusters related actions inside a stage for display.
type Group struct {
	ID      string   `yaml:"id"`
	Title   string   `yaml:"title"`
	Actions []Action `yaml:"actions"`
}

// Action describes one stage action. An empty Endpoint means /alpha/<id>.
type Action struct {
	ID       string    `yaml:"id"`
	Label    string    `yaml:"label"`
	Endpoint string    `yaml:"endpoint,omitempty"`
	Fallback *Fallback `yaml:"fallback,omitempty"`
}

// Fallback is metadata shown before the first dispatch and used when a
// response omits a field.
type Fallback struct {
	Status      string            `yaml:"status,omitempty"`
	RunID       string            `yaml:"run_id,omitempty"`
	LogDir      string            `yaml:"log_dir,omitempty"`
	SummaryPath string            `yaml:"summary_path,omitempty"`
	StdoutPath  string            `yaml:"stdout_path,omitempty"`
	StderrPath  string            `yaml:"stderr_path,omitempty"`
	Metrics     map[string]any    `yaml:"metrics,omitempty"`
	Artifacts   map[string]string `yaml:"artifacts,omitempty"`
}

// Operation is a one-shot call without result tracking.
type Operation struct {
	ID       string `yaml:"id"`
	Label    string `yaml:"label"`
	Endpoint string `yaml:"endpoint"`
	// Key is the UI hotkey.
	Key string `yaml:"key,omitempty"`
	// Prompt, when set, asks the operator for text sent as {"query": text}.
	Prompt string `yaml:"prompt,omitempty"`
	// Stream forwards response lines into the operator log as they arrive.
	Stream bool `yaml:"stream,omitempty"`
}

// EndpointFor returns the action endpoint, defaulting to /alpha/<id>.
func (a Action) EndpointFor() string {
	if ep := strings.TrimSpace(a.Endpoint); ep != "" {
		return ep
	}
	return "/alpha/" + a.ID
}

// DisplayLabel returns the label, or the id when no label is set.
func (a Action) DisplayLabel() string {
	if l := strings.TrimSpace(a.Label); l != "" {
		return l
	}
	return a.ID
}

// ResultFallback converts the YAML fallback into store metadata.
func (a Action) ResultFallback() (results.Fallback, error) {
	if a.Fallback == nil {
		return results.Fallback{}, nil
	}
	f := a.Fallback
	out := results.Fallback{
		Status:      results.Status(strings.ToLower(strings.TrimSpace(f.Status))),
		RunID:       f.RunID,
		LogDir:      f.LogDir,
		SummaryPath: f.SummaryPath,
		StdoutPath:  f.StdoutPath,
		StderrPath:  f.StderrPath,
	}
	switch out.Status {
	case "", results.StatusIdle, results.StatusSuccess, results.StatusError:
	default:
		return results.Fallback{}, errors.Errorf("action %s: fallback status %q is not idle, success or error", a.ID, f.Status)
	}
	if len(f.Metrics) > 0 {
		b, err := json.Marshal(f.Metrics)
		if err != nil {
			return results.Fallback{}, errors.Wrapf(err, "action %s: encode fallback metrics", a.ID)
		}
		out.Metrics = b
	}
	if len(f.Artifacts) > 0 {
		out.Artifacts = make(map[string]string, len(f.Artifacts))
		for k, v := range f.Artifacts {
			out.Artifacts[k] = v
		}
	}
	return out, nil
}

// Validate checks that action and operation ids are unique and stages are
// named.
func (c *Catalog) Validate() error {
	if c == nil {
		return errors.New("catalog is nil")
	}
	stages := map[string]struct{}{}
	actions := map[string]string{}
	for _, st := range c.Stages {
		if strings.TrimSpace(st.ID) == "" {
			return errors.Errorf("stage %q has no id", st.Title)
		}
		if _, dup := stages[st.ID]; dup {
			return errors.Errorf("duplicate stage id %q", st.ID)
		}
		stages[st.ID] = struct{}{}
		for _, g := range st.Groups {
			for _, a := range g.Actions {
				if a.ID == "" {
					continue
				}
				if prev, dup := actions[a.ID]; dup {
					return errors.Errorf("duplicate action id %q in %s and %s", a.ID, prev, st.ID)
				}
				actions[a.ID] = st.ID
				if _, err := a.ResultFallback(); err != nil {
					return err
				}
			}
		}
	}
	ops := map[string]struct{}{}
	for _, op := range c.Operations {
		if strings.TrimSpace(op.ID) == "" {
			return errors.Errorf("operation %q has no id", op.Label)
		}
		if _, dup := ops[op.ID]; dup {
			return errors.Errorf("duplicate operation id %q", op.ID)
		}
		if strings.TrimSpace(op.Endpoint) == "" {
			return errors.Errorf("operation %q has no endpoint", op.ID)
		}
		ops[op.ID] = struct{}{}
	}
	return nil
}

// ActionCount returns the number of actions with an id.
func (c *Catalog) ActionCount() int {
	n := 0
	for _, st := range c.Stages {
		for _, g := range st.Groups {
			for _, a := range g.Actions {
				if a.ID != "" {
					n++
				}
			}
		}
	}
	return n
}

// Parse decodes a YAML catalog. Unknown keys are rejected.
func Parse(data []byte) (*Catalog, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var c Catalog
	if err := dec.Decode(&c); err != nil && err != io.EOF {
		return nil, errors.Wrap(err, "parse catalog yaml")
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Load reads the catalog at path. An empty path returns Default().
func Load(path string) (*Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read catalog")
	}
	return Parse(b)
}

// Marshal renders the catalog as YAML.
func (c *Catalog) Marshal() ([]byte, error) {
	b, err := yaml.Marshal(c)
	if err != nil {
		return nil, errors.Wrap(err, "encode catalog yaml")
	}
	return b, nil
}
