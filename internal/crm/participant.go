package crm

import (
	"bytes"
	"encoding/json"
	"strings"

	"gopkg.in/yaml.v3"
)

// Participant is one attendee of a conversation.
type Participant struct {
	Name string `json:"name" yaml:"name"`
	Role string `json:"role,omitempty" yaml:"role,omitempty"`
}

type participantFields Participant

// ParseParticipant splits the legacy "Name (Role)" form.
func ParseParticipant(s string) Participant {
	s = strings.TrimSpace(s)
	open := strings.LastIndex(s, "(")
	if open > 0 && strings.HasSuffix(s, ")") {
		return Participant{
			Name: strings.TrimSpace(s[:open]),
			Role: strings.TrimSpace(s[open+1 : len(s)-1]),
		}
	}
	return Participant{Name: s}
}

// String renders the participant in the legacy form.
func (p Participant) String() string {
	if p.Role == "" {
		return p.Name
	}
	return p.Name + " (" + p.Role + ")"
}

// UnmarshalJSON accepts a legacy string or an object.
func (p *Participant) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*p = ParseParticipant(s)
		return nil
	}
	var f participantFields
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*p = Participant(f)
	return nil
}

// UnmarshalYAML accepts a legacy scalar or a mapping.
func (p *Participant) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		*p = ParseParticipant(node.Value)
		return nil
	}
	var f participantFields
	if err := node.Decode(&f); err != nil {
		return err
	}
	*p = Participant(f)
	return nil
}
