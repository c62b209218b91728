package crm

import (
	"bytes"
	"encoding/json"
	"strings"

	"gopkg.in/yaml.v3"
)

// Location is either structured (city/state/country) or a free-form string.
type Location struct {
	City    string `json:"city,omitempty" yaml:"city,omitempty"`
	State   string `json:"state,omitempty" yaml:"state,omitempty"`
	Country string `json:"country,omitempty" yaml:"country,omitempty"`
	Text    string `json:"text,omitempty" yaml:"text,omitempty"`
}

type locationFields Location

// String renders the location for display and search.
func (l Location) String() string {
	if l.Text != "" {
		return l.Text
	}
	parts := make([]string, 0, 3)
	for _, p := range []string{l.City, l.State, l.Country} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// UnmarshalJSON accepts a string or an object.
func (l *Location) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*l = Location{}
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*l = Location{Text: s}
		return nil
	}
	var f locationFields
	if err := json.Unmarshal(data, &f); err != nil {
		// malformed location degrades to empty
		*l = Location{}
		return nil
	}
	*l = Location(f)
	return nil
}

// UnmarshalYAML accepts a scalar or a mapping.
func (l *Location) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		*l = Location{Text: node.Value}
		return nil
	}
	var f locationFields
	if err := node.Decode(&f); err != nil {
		*l = Location{}
		return nil
	}
	*l = Location(f)
	return nil
}
