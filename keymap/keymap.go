// Package keymap loads the editor's key-binding configuration: a YAML
// file mapping key-chord text (key.Parse's syntax) to macro names,
// feeding the mode dispatcher's ExecuteMacro path, the way
// conformance.LoadAllTests reads a YAML fixture tree into typed Go
// values.
package keymap

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"ped/key"
)

// File is the on-disk shape of a key-map document: each mode's chord ->
// macro-name bindings, keyed by mode name ("normal", "insert",
// "command").
type File struct {
	Binds map[string]map[string]string `yaml:"binds"`
}

// Binding is one parsed chord -> macro-name pair.
type Binding struct {
	Key   key.Key
	Macro string
}

// Map holds every mode's parsed bindings, ready for a mode.Handler to
// consult when it sees a key it doesn't otherwise recognize.
type Map struct {
	byMode map[string][]Binding
}

// Load reads and parses a key-map YAML file at path.
func Load(path string) (*Map, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes a key-map document already read into memory, rejecting
// any chord text key.Parse can't fully consume.
func Parse(data []byte) (*Map, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}

	m := &Map{byMode: make(map[string][]Binding, len(f.Binds))}
	for modeName, chords := range f.Binds {
		for chordText, macro := range chords {
			k, rest, err := key.Parse(chordText)
			if err != nil {
				return nil, fmt.Errorf("keymap: mode %q: chord %q: %w", modeName, chordText, err)
			}
			if rest != "" {
				return nil, fmt.Errorf("keymap: mode %q: chord %q has trailing input %q", modeName, chordText, rest)
			}
			m.byMode[modeName] = append(m.byMode[modeName], Binding{Key: k, Macro: macro})
		}
	}
	return m, nil
}

// Lookup returns the macro name bound to k in modeName, if any.
func (m *Map) Lookup(modeName string, k key.Key) (string, bool) {
	for _, b := range m.byMode[modeName] {
		if b.Key.Equal(k) {
			return b.Macro, true
		}
	}
	return "", false
}
