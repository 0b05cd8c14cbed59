package models

import (
	"bytes"
	"compress/gzip"
	"crypto/md5"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
)

const SnapshotVersion = "1.0.0"

// ModelSnapshot is the shape of the schema after a migration. Migrations
// carry it as an opaque blob (see Encode) so the next scaffold knows where
// the previous one left off.
type ModelSnapshot struct {
	Version  string                    `json:"version" yaml:"version,omitempty"`
	Tables   map[string]*TableSnapshot `json:"tables" yaml:"tables"`
	Checksum string                    `json:"checksum,omitempty" yaml:"-"`
}

type TableSnapshot struct {
	Columns     []ColumnSnapshot     `json:"columns" yaml:"columns"`
	PrimaryKey  *KeySnapshot         `json:"primary_key,omitempty" yaml:"primary_key,omitempty"`
	ForeignKeys []ForeignKeySnapshot `json:"foreign_keys,omitempty" yaml:"foreign_keys,omitempty"`
	Indexes     []IndexSnapshot      `json:"indexes,omitempty" yaml:"indexes,omitempty"`
}

type ColumnSnapshot struct {
	Name string `json:"name" yaml:"name"`
	// OldName marks a rename in a desired model; it is never persisted.
	OldName     string            `json:"-" yaml:"old_name,omitempty"`
	Type        PrimitiveTypeKind `json:"type" yaml:"type"`
	Nullable    *bool             `json:"nullable,omitempty" yaml:"nullable,omitempty"`
	Identity    bool              `json:"identity,omitempty" yaml:"identity,omitempty"`
	Timestamp   bool              `json:"timestamp,omitempty" yaml:"timestamp,omitempty"`
	MaxLength   *int              `json:"max_length,omitempty" yaml:"max_length,omitempty"`
	Precision   *uint8            `json:"precision,omitempty" yaml:"precision,omitempty"`
	Scale       *uint8            `json:"scale,omitempty" yaml:"scale,omitempty"`
	FixedLength *bool             `json:"fixed_length,omitempty" yaml:"fixed_length,omitempty"`
	Unicode     *bool             `json:"unicode,omitempty" yaml:"unicode,omitempty"`
	DefaultSQL  string            `json:"default_sql,omitempty" yaml:"default_sql,omitempty"`
	StoreType   string            `json:"store_type,omitempty" yaml:"store_type,omitempty"`
}

type KeySnapshot struct {
	Name      string   `json:"name,omitempty" yaml:"name,omitempty"`
	Columns   []string `json:"columns" yaml:"columns"`
	Clustered *bool    `json:"clustered,omitempty" yaml:"clustered,omitempty"`
}

type ForeignKeySnapshot struct {
	Name             string   `json:"name,omitempty" yaml:"name,omitempty"`
	Columns          []string `json:"columns" yaml:"columns"`
	PrincipalTable   string   `json:"principal_table" yaml:"principal_table"`
	PrincipalColumns []string `json:"principal_columns,omitempty" yaml:"principal_columns,omitempty"`
	CascadeDelete    bool     `json:"cascade_delete,omitempty" yaml:"cascade_delete,omitempty"`
}

type IndexSnapshot struct {
	Name      string   `json:"name,omitempty" yaml:"name,omitempty"`
	Columns   []string `json:"columns" yaml:"columns"`
	Unique    bool     `json:"unique,omitempty" yaml:"unique,omitempty"`
	Clustered bool     `json:"clustered,omitempty" yaml:"clustered,omitempty"`
}

func NewModelSnapshot() *ModelSnapshot {
	return &ModelSnapshot{
		Version: SnapshotVersion,
		Tables:  make(map[string]*TableSnapshot),
	}
}

func (s *ModelSnapshot) calculateChecksum() string {
	data := map[string]interface{}{
		"version": s.Version,
		"tables":  s.Tables,
	}
	jsonData, _ := json.Marshal(data)
	return fmt.Sprintf("%x", md5.Sum(jsonData))
}

// Clone returns a deep copy of s.
func (s *ModelSnapshot) Clone() *ModelSnapshot {
	clone := NewModelSnapshot()
	if s == nil {
		return clone
	}
	data, _ := json.Marshal(s)
	_ = json.Unmarshal(data, clone)
	if clone.Tables == nil {
		clone.Tables = make(map[string]*TableSnapshot)
	}
	return clone
}

// Encode seals the snapshot with its checksum and returns it as base64 of
// gzip'd JSON.
func (s *ModelSnapshot) Encode() (string, error) {
	if s.Version == "" {
		s.Version = SnapshotVersion
	}
	s.Checksum = s.calculateChecksum()
	data, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		return "", fmt.Errorf("failed to compress snapshot: %w", err)
	}
	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("failed to compress snapshot: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// DecodeSnapshot reverses Encode and verifies the checksum. An empty blob
// decodes to an empty snapshot.
func DecodeSnapshot(blob string) (*ModelSnapshot, error) {
	if blob == "" {
		return NewModelSnapshot(), nil
	}
	raw, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	zr, err := gzip.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to decompress snapshot: %w", err)
	}
	defer zr.Close()
	data, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress snapshot: %w", err)
	}
	snapshot := NewModelSnapshot()
	if err := json.Unmarshal(data, snapshot); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	if snapshot.Tables == nil {
		snapshot.Tables = make(map[string]*TableSnapshot)
	}
	if snapshot.Checksum != "" && snapshot.Checksum != snapshot.calculateChecksum() {
		return nil, fmt.Errorf("snapshot checksum mismatch")
	}
	return snapshot, nil
}

func SnapshotColumn(c *ColumnModel) ColumnSnapshot {
	return ColumnSnapshot{
		Name:        c.Name,
		Type:        c.Type,
		Nullable:    clonePtr(c.IsNullable),
		Identity:    c.IsIdentity,
		Timestamp:   c.IsTimestamp,
		MaxLength:   clonePtr(c.MaxLength),
		Precision:   clonePtr(c.Precision),
		Scale:       clonePtr(c.Scale),
		FixedLength: clonePtr(c.IsFixedLength),
		Unicode:     clonePtr(c.IsUnicode),
		DefaultSQL:  c.DefaultValueSQL,
		StoreType:   c.StoreType,
	}
}

func (cs ColumnSnapshot) Model() *ColumnModel {
	return &ColumnModel{
		PropertyModel: PropertyModel{
			Type:            cs.Type,
			Name:            cs.Name,
			MaxLength:       clonePtr(cs.MaxLength),
			Precision:       clonePtr(cs.Precision),
			Scale:           clonePtr(cs.Scale),
			IsFixedLength:   clonePtr(cs.FixedLength),
			IsUnicode:       clonePtr(cs.Unicode),
			DefaultValueSQL: cs.DefaultSQL,
			StoreType:       cs.StoreType,
		},
		IsNullable:  clonePtr(cs.Nullable),
		IsIdentity:  cs.Identity,
		IsTimestamp: cs.Timestamp,
	}
}

func (t *TableSnapshot) column(name string) (int, *ColumnSnapshot) {
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			return i, &t.Columns[i]
		}
	}
	return -1, nil
}

// Apply folds operations into the snapshot. Operations on tables the
// snapshot does not know about are ignored, as are procedures and raw SQL.
func (s *ModelSnapshot) Apply(ops ...MigrationOperation) {
	if s.Tables == nil {
		s.Tables = make(map[string]*TableSnapshot)
	}
	for _, op := range ops {
		s.apply(op)
	}
}

func (s *ModelSnapshot) apply(op MigrationOperation) {
	switch o := op.(type) {
	case *CreateTableOperation:
		table := &TableSnapshot{}
		for _, c := range o.Columns {
			table.Columns = append(table.Columns, SnapshotColumn(c))
		}
		if o.PrimaryKey != nil {
			table.PrimaryKey = keySnapshot(&o.PrimaryKey.PrimaryKeyOperation)
		}
		s.Tables[o.Name] = table
	case *DropTableOperation:
		delete(s.Tables, o.Name)
	case *AddColumnOperation:
		if t := s.Tables[o.Table]; t != nil {
			t.Columns = append(t.Columns, SnapshotColumn(o.Column))
		}
	case *DropColumnOperation:
		if t := s.Tables[o.Table]; t != nil {
			if i, _ := t.column(o.Name); i >= 0 {
				t.Columns = append(t.Columns[:i], t.Columns[i+1:]...)
			}
		}
	case *AlterColumnOperation:
		if t := s.Tables[o.Table]; t != nil {
			if i, _ := t.column(o.Column.Name); i >= 0 {
				t.Columns[i] = SnapshotColumn(o.Column)
			}
		}
	case *RenameColumnOperation:
		if t := s.Tables[o.Table]; t != nil {
			t.renameColumn(o.Name, o.NewName)
		}
	case *RenameTableOperation:
		s.moveTable(o.Name, DatabaseName{Schema: ParseDatabaseName(o.Name).Schema, Name: o.NewName}.String())
	case *MoveTableOperation:
		s.moveTable(o.Name, DatabaseName{Schema: o.NewSchema, Name: ParseDatabaseName(o.Name).Name}.String())
	case *AddPrimaryKeyOperation:
		if t := s.Tables[o.Table]; t != nil {
			t.PrimaryKey = keySnapshot(&o.PrimaryKeyOperation)
		}
	case *DropPrimaryKeyOperation:
		if t := s.Tables[o.Table]; t != nil {
			t.PrimaryKey = nil
		}
	case *AddForeignKeyOperation:
		if t := s.Tables[o.DependentTable]; t != nil {
			t.ForeignKeys = append(t.ForeignKeys, ForeignKeySnapshot{
				Name:             o.EffectiveName(),
				Columns:          append([]string(nil), o.DependentColumns...),
				PrincipalTable:   o.PrincipalTable,
				PrincipalColumns: append([]string(nil), o.PrincipalColumns...),
				CascadeDelete:    o.CascadeDelete,
			})
		}
	case *DropForeignKeyOperation:
		if t := s.Tables[o.DependentTable]; t != nil {
			name := o.EffectiveName()
			kept := t.ForeignKeys[:0]
			for _, fk := range t.ForeignKeys {
				if fk.effectiveName(o.DependentTable) != name {
					kept = append(kept, fk)
				}
			}
			t.ForeignKeys = kept
		}
	case *CreateIndexOperation:
		if t := s.Tables[o.Table]; t != nil {
			t.Indexes = append(t.Indexes, IndexSnapshot{
				Name:      o.EffectiveName(),
				Columns:   append([]string(nil), o.Columns...),
				Unique:    o.IsUnique,
				Clustered: o.IsClustered,
			})
		}
	case *DropIndexOperation:
		if t := s.Tables[o.Table]; t != nil {
			name := o.EffectiveName()
			kept := t.Indexes[:0]
			for _, ix := range t.Indexes {
				if ix.effectiveName() != name {
					kept = append(kept, ix)
				}
			}
			t.Indexes = kept
		}
	case *RenameIndexOperation:
		if t := s.Tables[o.Table]; t != nil {
			for i := range t.Indexes {
				if t.Indexes[i].effectiveName() == o.Name {
					t.Indexes[i].Name = o.NewName
				}
			}
		}
	}
}

func (s *ModelSnapshot) moveTable(from, to string) {
	t, ok := s.Tables[from]
	if !ok || from == to {
		return
	}
	delete(s.Tables, from)
	s.Tables[to] = t
	for _, other := range s.Tables {
		for i := range other.ForeignKeys {
			if other.ForeignKeys[i].PrincipalTable == from {
				other.ForeignKeys[i].PrincipalTable = to
			}
		}
	}
}

func (t *TableSnapshot) renameColumn(from, to string) {
	if _, c := t.column(from); c != nil {
		c.Name = to
	}
	rename := func(cols []string) {
		for i := range cols {
			if cols[i] == from {
				cols[i] = to
			}
		}
	}
	if t.PrimaryKey != nil {
		rename(t.PrimaryKey.Columns)
	}
	for i := range t.ForeignKeys {
		rename(t.ForeignKeys[i].Columns)
	}
	for i := range t.Indexes {
		rename(t.Indexes[i].Columns)
	}
}

func keySnapshot(pk *PrimaryKeyOperation) *KeySnapshot {
	clustered := pk.IsClustered
	return &KeySnapshot{
		Name:      pk.EffectiveName(),
		Columns:   append([]string(nil), pk.Columns...),
		Clustered: &clustered,
	}
}

func (fk ForeignKeySnapshot) effectiveName(table string) string {
	if fk.Name != "" {
		return fk.Name
	}
	return DefaultForeignKeyName(table, fk.PrincipalTable, fk.Columns)
}

func (ix IndexSnapshot) effectiveName() string {
	if ix.Name != "" {
		return ix.Name
	}
	return DefaultIndexName(ix.Columns)
}
