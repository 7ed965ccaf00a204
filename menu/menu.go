// Package menu holds the menu definitions and the two-level navigation state
// machine driven by the input subsystem.
package menu

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Definition is one category: a display title and its selectable values.
type Definition struct {
	Title  string   `yaml:"title"`
	Values []string `yaml:"values"`
}

// LegacyValueCount is the fixed per-channel value count of the original
// six-knob text format.
const LegacyValueCount = 12

// legacyChannels is the channel order of the legacy format. CH3 and CH7 are
// reserved for the two buttons and carry no menu.
var legacyChannels = []string{"CH0", "CH1", "CH2", "CH4", "CH5", "CH6"}

// menusFile is the flexible format: an ordered list of menus, any number of
// values each. Blank values are filtered out at load; the navigator appends
// its own trailing blank slot.
type menusFile struct {
	Menus []Definition `yaml:"menus"`
}

// legacyEntry is one channel of the legacy fixed format.
type legacyEntry struct {
	Title  string   `yaml:"title"`
	Values []string `yaml:"values"`
}

// LoadFile reads a menus file in either format. A document with a top-level
// `menus` list is the flexible format; a mapping of channel names is the
// legacy six-knob format. The legacy files were JSON, which decodes as YAML
// unchanged.
func LoadFile(path string) ([]Definition, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read menus file: %w", err)
	}
	menus, err := Decode(b)
	if err != nil {
		return nil, fmt.Errorf("menus file %s: %w", path, err)
	}
	return menus, nil
}

// Decode parses menus from YAML bytes, detecting the format.
func Decode(b []byte) ([]Definition, error) {
	var probe struct {
		Menus []yaml.Node `yaml:"menus"`
	}
	if err := yaml.Unmarshal(b, &probe); err != nil {
		return nil, fmt.Errorf("decode menus yaml: %w", err)
	}
	if probe.Menus != nil {
		return decodeFlexible(b)
	}
	return decodeLegacy(b)
}

func decodeFlexible(b []byte) ([]Definition, error) {
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	var f menusFile
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode menus yaml: %w", err)
	}

	menus := make([]Definition, 0, len(f.Menus))
	for i, m := range f.Menus {
		if m.Title == "" {
			return nil, fmt.Errorf("menu %d has no title", i)
		}
		values := make([]string, 0, len(m.Values))
		for _, v := range m.Values {
			if v != "" {
				values = append(values, v)
			}
		}
		if len(values) == 0 {
			return nil, fmt.Errorf("menu %q has no non-blank values", m.Title)
		}
		menus = append(menus, Definition{Title: m.Title, Values: values})
	}
	if len(menus) == 0 {
		return nil, fmt.Errorf("menus file defines no menus")
	}
	return menus, nil
}

func decodeLegacy(b []byte) ([]Definition, error) {
	var entries map[string]legacyEntry
	if err := yaml.Unmarshal(b, &entries); err != nil {
		return nil, fmt.Errorf("decode legacy menus: %w", err)
	}

	menus := make([]Definition, 0, len(legacyChannels))
	for _, ch := range legacyChannels {
		e, ok := entries[ch]
		if !ok {
			return nil, fmt.Errorf("legacy menus: missing channel %s", ch)
		}
		if e.Title == "" {
			return nil, fmt.Errorf("legacy menus: channel %s has no title", ch)
		}
		if len(e.Values) != LegacyValueCount {
			return nil, fmt.Errorf("legacy menus: channel %s has %d values, need exactly %d",
				ch, len(e.Values), LegacyValueCount)
		}
		menus = append(menus, Definition{Title: e.Title, Values: e.Values})
	}
	return menus, nil
}
