package fsmdef

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Definition is the declarative form of a machine. Guards, reducers and
// actions are referenced by name and resolved against a Registry by Build.
type Definition struct {
	Name    string              `yaml:"name" toml:"name"`
	Initial string              `yaml:"initial" toml:"initial"`
	States  map[string]StateDef `yaml:"states" toml:"states"`
}

// StateDef maps event types to candidate transitions, in declaration order.
type StateDef struct {
	On map[string][]TransitionDef `yaml:"on,omitempty" toml:"on,omitempty"`
}

type TransitionDef struct {
	Target   string   `yaml:"target" toml:"target"`
	Guards   []string `yaml:"guards,omitempty" toml:"guards,omitempty"`
	Reducers []string `yaml:"reducers,omitempty" toml:"reducers,omitempty"`
	Actions  []string `yaml:"actions,omitempty" toml:"actions,omitempty"`
}

// Parse decodes and validates a YAML definition. Unknown keys are rejected.
func Parse(data []byte) (*Definition, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var def Definition
	if err := dec.Decode(&def); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyDefinition
		}
		return nil, errors.Join(ErrFailedToParseYAML, err)
	}

	if err := def.Validate(); err != nil {
		return nil, err
	}
	return &def, nil
}

// ParseTOML is Parse for TOML documents.
func ParseTOML(data []byte) (*Definition, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyDefinition
	}

	var def Definition
	if err := toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields().Decode(&def); err != nil {
		return nil, errors.Join(ErrFailedToParseTOML, err)
	}

	if err := def.Validate(); err != nil {
		return nil, err
	}
	return &def, nil
}

// ParseFile reads and parses the definition at path. Files ending in .toml
// are decoded as TOML, everything else as YAML.
func ParseFile(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Join(ErrFailedToReadFile, err)
	}
	return parseByExt(path, data)
}

// ParseFS is ParseFile for embedded or virtual filesystems.
func ParseFS(fsys fs.FS, name string) (*Definition, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, errors.Join(ErrFailedToReadFile, err)
	}
	return parseByExt(name, data)
}

func parseByExt(name string, data []byte) (*Definition, error) {
	if strings.EqualFold(filepath.Ext(name), ".toml") {
		return ParseTOML(data)
	}
	return Parse(data)
}

// Validate reports every structural problem at once: missing name, missing
// or unknown initial state, empty state set, and transitions without a
// target or pointing at an undeclared state.
func (d *Definition) Validate() error {
	var errs []error

	if d.Name == "" {
		errs = append(errs, errors.New("name is required"))
	}
	if len(d.States) == 0 {
		errs = append(errs, errors.New("at least one state is required"))
	}
	switch _, ok := d.States[d.Initial]; {
	case d.Initial == "":
		errs = append(errs, errors.New("initial state is required"))
	case !ok && len(d.States) > 0:
		errs = append(errs, fmt.Errorf("initial state %q is not declared", d.Initial))
	}

	for _, state := range slices.Sorted(maps.Keys(d.States)) {
		on := d.States[state].On
		for _, event := range slices.Sorted(maps.Keys(on)) {
			for i, t := range on[event] {
				switch _, ok := d.States[t.Target]; {
				case t.Target == "":
					errs = append(errs, fmt.Errorf("state %q event %q transition %d: target is required", state, event, i))
				case !ok:
					errs = append(errs, fmt.Errorf("state %q event %q transition %d: unknown target %q", state, event, i, t.Target))
				}
			}
		}
	}

	if len(errs) > 0 {
		return errors.Join(append([]error{ErrInvalidDefinition}, errs...)...)
	}
	return nil
}

// Marshal renders d back to YAML.
func (d *Definition) Marshal() ([]byte, error) {
	return yaml.Marshal(d)
}
