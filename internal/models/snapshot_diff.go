package models

import (
	"reflect"
	"sort"
)

// Compare returns the operations that turn previous into s. Drops carry
// their inverse so the generated Down can restore what they remove. Columns
// in s with an OldName matching a previous column become renames.
func (s *ModelSnapshot) Compare(previous *ModelSnapshot) []MigrationOperation {
	if previous == nil {
		previous = NewModelSnapshot()
	}

	var creates, alters, foreignKeys, drops []MigrationOperation

	for _, name := range sortedTableNames(s.Tables) {
		desired := s.Tables[name]
		current, exists := previous.Tables[name]
		if !exists {
			createTable := &CreateTableOperation{Name: name}
			for _, c := range desired.Columns {
				createTable.Columns = append(createTable.Columns, c.Model())
			}
			if desired.PrimaryKey != nil {
				createTable.PrimaryKey = addPrimaryKey(name, desired.PrimaryKey)
			}
			creates = append(creates, createTable)
			for _, ix := range desired.Indexes {
				creates = append(creates, createIndex(name, ix))
			}
			for _, fk := range desired.ForeignKeys {
				foreignKeys = append(foreignKeys, addForeignKey(name, fk))
			}
			continue
		}
		tableAlters, tableForeignKeys, tableDrops := compareTables(name, desired, current)
		alters = append(alters, tableAlters...)
		foreignKeys = append(foreignKeys, tableForeignKeys...)
		drops = append(drops, tableDrops...)
	}

	for _, name := range sortedTableNames(previous.Tables) {
		if _, exists := s.Tables[name]; exists {
			continue
		}
		current := previous.Tables[name]
		for _, fk := range current.ForeignKeys {
			drops = append(drops, dropForeignKey(name, fk))
		}
		inverse := &CreateTableOperation{Name: name}
		for _, c := range current.Columns {
			inverse.Columns = append(inverse.Columns, c.Model())
		}
		if current.PrimaryKey != nil {
			inverse.PrimaryKey = addPrimaryKey(name, current.PrimaryKey)
		}
		drops = append(drops, &DropTableOperation{
			Name:                     name,
			RemovedAnnotations:       map[string]any{},
			RemovedColumnAnnotations: map[string]map[string]any{},
			Inverse:                  inverse,
		})
	}

	ops := make([]MigrationOperation, 0, len(creates)+len(alters)+len(foreignKeys)+len(drops))
	ops = append(ops, creates...)
	ops = append(ops, alters...)
	ops = append(ops, foreignKeys...)
	return append(ops, drops...)
}

func compareTables(table string, desired, current *TableSnapshot) (alters, foreignKeys, drops []MigrationOperation) {
	renamed := make(map[string]bool)
	for _, c := range desired.Columns {
		if c.OldName == "" || c.OldName == c.Name {
			continue
		}
		if _, old := current.column(c.OldName); old != nil {
			alters = append(alters, &RenameColumnOperation{Table: table, Name: c.OldName, NewName: c.Name})
			renamed[c.OldName] = true
		}
	}

	for _, c := range desired.Columns {
		previousName := c.Name
		if renamed[c.OldName] {
			previousName = c.OldName
		}
		_, old := current.column(previousName)
		if old == nil {
			alters = append(alters, &AddColumnOperation{Table: table, Column: c.Model()})
			continue
		}
		if !sameColumn(c, *old) {
			oldColumn := old.Model()
			oldColumn.Name = c.Name
			alters = append(alters, &AlterColumnOperation{
				Table:             table,
				Column:            c.Model(),
				DestructiveChange: narrows(*old, c),
				Inverse:           &AlterColumnOperation{Table: table, Column: oldColumn},
			})
		}
	}

	for _, old := range current.Columns {
		if renamed[old.Name] {
			continue
		}
		if _, c := desired.column(old.Name); c == nil {
			drops = append(drops, &DropColumnOperation{
				Table:              table,
				Name:               old.Name,
				RemovedAnnotations: map[string]any{},
				Inverse:            &AddColumnOperation{Table: table, Column: old.Model()},
			})
		}
	}

	if !reflect.DeepEqual(normalizedKey(desired.PrimaryKey), normalizedKey(current.PrimaryKey)) {
		if current.PrimaryKey != nil {
			add := addPrimaryKey(table, current.PrimaryKey)
			alters = append(alters, &DropPrimaryKeyOperation{PrimaryKeyOperation: add.PrimaryKeyOperation, Inverse: add})
		}
		if desired.PrimaryKey != nil {
			alters = append(alters, addPrimaryKey(table, desired.PrimaryKey))
		}
	}

	currentIndexes := make(map[string]IndexSnapshot)
	for _, ix := range current.Indexes {
		currentIndexes[ix.effectiveName()] = ix
	}
	desiredIndexes := make(map[string]IndexSnapshot)
	for _, ix := range desired.Indexes {
		desiredIndexes[ix.effectiveName()] = ix
	}
	for _, ix := range current.Indexes {
		if want, ok := desiredIndexes[ix.effectiveName()]; !ok || !sameIndex(want, ix) {
			drop := &DropIndexOperation{
				IndexOperation: IndexOperation{Table: table, Columns: ix.Columns, Name: ix.Name},
				Inverse:        createIndex(table, ix),
			}
			alters = append(alters, drop)
		}
	}
	for _, ix := range desired.Indexes {
		if have, ok := currentIndexes[ix.effectiveName()]; !ok || !sameIndex(have, ix) {
			alters = append(alters, createIndex(table, ix))
		}
	}

	currentKeys := make(map[string]ForeignKeySnapshot)
	for _, fk := range current.ForeignKeys {
		currentKeys[fk.effectiveName(table)] = fk
	}
	desiredKeys := make(map[string]ForeignKeySnapshot)
	for _, fk := range desired.ForeignKeys {
		desiredKeys[fk.effectiveName(table)] = fk
	}
	for _, fk := range current.ForeignKeys {
		if want, ok := desiredKeys[fk.effectiveName(table)]; !ok || !reflect.DeepEqual(want, fk) {
			drops = append([]MigrationOperation{dropForeignKey(table, fk)}, drops...)
		}
	}
	for _, fk := range desired.ForeignKeys {
		if have, ok := currentKeys[fk.effectiveName(table)]; !ok || !reflect.DeepEqual(have, fk) {
			foreignKeys = append(foreignKeys, addForeignKey(table, fk))
		}
	}
	return alters, foreignKeys, drops
}

func sameColumn(a, b ColumnSnapshot) bool {
	a.OldName, b.OldName = "", ""
	a.Name, b.Name = "", ""
	return reflect.DeepEqual(a, b)
}

func sameIndex(a, b IndexSnapshot) bool {
	return reflect.DeepEqual(a.Columns, b.Columns) && a.Unique == b.Unique && a.Clustered == b.Clustered
}

// narrows reports whether moving a column from old to next can lose data.
func narrows(old, next ColumnSnapshot) bool {
	if old.Type != next.Type {
		return true
	}
	oldNullable := old.Nullable == nil || *old.Nullable
	nextNullable := next.Nullable == nil || *next.Nullable
	if oldNullable && !nextNullable {
		return true
	}
	if next.MaxLength != nil && (old.MaxLength == nil || *next.MaxLength < *old.MaxLength) {
		return true
	}
	return false
}

func normalizedKey(k *KeySnapshot) *KeySnapshot {
	if k == nil {
		return nil
	}
	clustered := k.Clustered == nil || *k.Clustered
	return &KeySnapshot{Name: k.Name, Columns: k.Columns, Clustered: &clustered}
}

func addPrimaryKey(table string, k *KeySnapshot) *AddPrimaryKeyOperation {
	return &AddPrimaryKeyOperation{PrimaryKeyOperation: PrimaryKeyOperation{
		Table:       table,
		Columns:     append([]string(nil), k.Columns...),
		Name:        k.Name,
		IsClustered: k.Clustered == nil || *k.Clustered,
	}}
}

func createIndex(table string, ix IndexSnapshot) *CreateIndexOperation {
	return &CreateIndexOperation{
		IndexOperation: IndexOperation{Table: table, Columns: append([]string(nil), ix.Columns...), Name: ix.Name},
		IsUnique:       ix.Unique,
		IsClustered:    ix.Clustered,
	}
}

func addForeignKey(table string, fk ForeignKeySnapshot) *AddForeignKeyOperation {
	return &AddForeignKeyOperation{
		ForeignKeyOperation: ForeignKeyOperation{
			DependentTable:   table,
			DependentColumns: append([]string(nil), fk.Columns...),
			PrincipalTable:   fk.PrincipalTable,
			PrincipalColumns: append([]string(nil), fk.PrincipalColumns...),
			Name:             fk.Name,
		},
		CascadeDelete: fk.CascadeDelete,
	}
}

func dropForeignKey(table string, fk ForeignKeySnapshot) *DropForeignKeyOperation {
	add := addForeignKey(table, fk)
	return &DropForeignKeyOperation{ForeignKeyOperation: add.ForeignKeyOperation, Inverse: add}
}

func sortedTableNames(tables map[string]*TableSnapshot) []string {
	names := make([]string, 0, len(tables))
	for name := range tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
