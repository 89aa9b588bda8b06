package luck

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/rollkeeper/internal/dice"
)

// Record is one persisted roll as handed over by the caller.
type Record struct {
	ID             int64            `json:"id" yaml:"id"`
	EntityID       int64            `json:"entity_id" yaml:"entity_id"`
	EntityName     string           `json:"entity_name" yaml:"entity_name"`
	CollectionID   int64            `json:"collection_id" yaml:"collection_id"`
	CollectionName string           `json:"collection_name" yaml:"collection_name"`
	Formula        string           `json:"formula" yaml:"formula"`
	FinalResult    int              `json:"final_result" yaml:"final_result"`
	LuckIndex      *float64         `json:"luck_index,omitempty" yaml:"luck_index"`
	RolledAt       time.Time        `json:"rolled_at" yaml:"rolled_at"`
	Components     StoredComponents `json:"components" yaml:"components"`
}

// ErrNotComponentList is returned when stored component data is valid JSON
// but not a list of components.
var ErrNotComponentList = errors.New("stored components are not a list")

// StoredComponents holds a record's component list either already decoded
// or in its textual encoding. The zero value holds no components.
type StoredComponents struct {
	structured []dice.Component
	encoded    []byte
	isEncoded  bool
}

// Structured wraps an already-decoded component list.
func Structured(components []dice.Component) StoredComponents {
	return StoredComponents{structured: components}
}

// Encoded wraps the textual encoding of a component list: a JSON array, or a
// JSON string whose content is that array.
func Encoded(text string) StoredComponents {
	return StoredComponents{encoded: []byte(text), isEncoded: true}
}

// EncodedBytes is Encoded for raw column bytes.
func EncodedBytes(b []byte) StoredComponents {
	return StoredComponents{encoded: append([]byte(nil), b...), isEncoded: true}
}

// Decode returns the canonical component list.
//
// Postcondition: null, empty and empty-object encodings decode to no
// components without error; anything else that is not a component list
// returns an error.
func (s StoredComponents) Decode() ([]dice.Component, error) {
	if !s.isEncoded {
		return s.structured, nil
	}
	return decodeComponents(s.encoded, true)
}

func decodeComponents(b []byte, allowUnwrap bool) ([]dice.Component, error) {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0, bytes.Equal(b, []byte("null")), bytes.Equal(b, []byte("{}")):
		return nil, nil
	case b[0] == '"' && allowUnwrap:
		var inner string
		if err := json.Unmarshal(b, &inner); err != nil {
			return nil, fmt.Errorf("decoding component string: %w", err)
		}
		return decodeComponents([]byte(inner), false)
	case b[0] != '[':
		if !json.Valid(b) {
			return nil, fmt.Errorf("decoding components: invalid JSON")
		}
		return nil, ErrNotComponentList
	}

	var out []dice.Component
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("decoding components: %w", err)
	}
	return out, nil
}

// MarshalJSON writes the component list as a JSON array. Encoded data that is
// not valid JSON is written as a JSON string so it survives a round trip.
func (s StoredComponents) MarshalJSON() ([]byte, error) {
	if !s.isEncoded {
		if s.structured == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(s.structured)
	}
	trimmed := bytes.TrimSpace(s.encoded)
	if len(trimmed) > 0 && json.Valid(trimmed) {
		return trimmed, nil
	}
	return json.Marshal(string(s.encoded))
}

// UnmarshalJSON keeps the raw bytes; decoding is deferred to Load.
func (s *StoredComponents) UnmarshalJSON(b []byte) error {
	*s = EncodedBytes(b)
	return nil
}

// UnmarshalYAML accepts a YAML sequence of components or a string holding
// their JSON encoding.
func (s *StoredComponents) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		var text string
		if err := node.Decode(&text); err != nil {
			return err
		}
		*s = Encoded(text)
		return nil
	}
	var generic any
	if err := node.Decode(&generic); err != nil {
		return err
	}
	b, err := json.Marshal(generic)
	if err != nil {
		return fmt.Errorf("re-encoding yaml components: %w", err)
	}
	*s = EncodedBytes(b)
	return nil
}
