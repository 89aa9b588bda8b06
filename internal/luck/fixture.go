package luck

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// recordFile is the on-disk layout of a record fixture.
type recordFile struct {
	Records []Record `json:"records" yaml:"records"`
}

// ReadRecordsYAML decodes a fixture of the form "records: [...]".
// Components may be given as a YAML sequence or as JSON text.
func ReadRecordsYAML(r io.Reader) ([]Record, error) {
	var f recordFile
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("decoding yaml records: %w", err)
	}
	return f.Records, nil
}

// ReadRecordsJSON decodes a fixture of the form {"records": [...]}.
func ReadRecordsJSON(r io.Reader) ([]Record, error) {
	var f recordFile
	if err := json.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("decoding json records: %w", err)
	}
	return f.Records, nil
}
