package models

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// ParseSnapshotYAML reads a desired model written by hand. Unknown keys are
// rejected; columns may carry old_name to mark a rename.
func ParseSnapshotYAML(data []byte) (*ModelSnapshot, error) {
	snapshot := NewModelSnapshot()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(snapshot); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse model: %w", err)
	}
	if snapshot.Version == "" {
		snapshot.Version = SnapshotVersion
	}
	if snapshot.Tables == nil {
		snapshot.Tables = make(map[string]*TableSnapshot)
	}
	for name, table := range snapshot.Tables {
		if table == nil {
			return nil, fmt.Errorf("failed to parse model: table %s has no definition", name)
		}
		for _, c := range table.Columns {
			if err := CheckNotEmpty(c.Name, "name"); err != nil {
				return nil, fmt.Errorf("failed to parse model: table %s: %w", name, err)
			}
		}
	}
	return snapshot, nil
}
