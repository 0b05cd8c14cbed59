package models

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Tabler overrides the table name of an entity.
type Tabler interface {
	TableName() string
}

var (
	timeType     = reflect.TypeOf(time.Time{})
	durationType = reflect.TypeOf(time.Duration(0))
	uuidType     = reflect.TypeOf(uuid.UUID{})
)

// SnapshotFromEntities builds the model of a set of entity structs. Columns
// come from exported fields, configured with `efmigrate` or `gorm` struct
// tags: column, type, size, precision, scale, primaryKey, autoIncrement,
// not null, unique, uniqueIndex, index, default and old_name. A field tagged
// "-" is skipped.
func SnapshotFromEntities(entities ...any) (*ModelSnapshot, error) {
	snapshot := NewModelSnapshot()
	for _, entity := range entities {
		name, table, err := entityTable(entity)
		if err != nil {
			return nil, err
		}
		if _, exists := snapshot.Tables[name]; exists {
			return nil, fmt.Errorf("table %s is mapped by more than one entity", name)
		}
		snapshot.Tables[name] = table
	}
	return snapshot, nil
}

func entityTable(entity any) (string, *TableSnapshot, error) {
	entityType := reflect.TypeOf(entity)
	if entityType == nil {
		return "", nil, &ArgumentError{Param: "entity", Reason: "entity is nil"}
	}
	if entityType.Kind() == reflect.Ptr {
		entityType = entityType.Elem()
	}
	if entityType.Kind() != reflect.Struct {
		return "", nil, fmt.Errorf("entity %s is not a struct", entityType)
	}

	name := entityType.Name()
	if tabler, ok := reflect.New(entityType).Interface().(Tabler); ok {
		name = tabler.TableName()
	}

	table := &TableSnapshot{}
	var keys []ColumnSnapshot
	if err := addFields(table, entityType, name, &keys); err != nil {
		return "", nil, err
	}
	if len(table.Columns) == 0 {
		return "", nil, fmt.Errorf("entity %s has no columns", entityType)
	}
	if len(keys) > 0 {
		key := &KeySnapshot{}
		for _, c := range keys {
			key.Columns = append(key.Columns, c.Name)
		}
		table.PrimaryKey = key
	}
	return name, table, nil
}

func addFields(table *TableSnapshot, entityType reflect.Type, tableName string, keys *[]ColumnSnapshot) error {
	for i := 0; i < entityType.NumField(); i++ {
		field := entityType.Field(i)
		tags := fieldTags(field)
		if _, skip := tags["-"]; skip {
			continue
		}
		// Embedded structs contribute their fields, exported or not.
		if field.Anonymous && field.Type.Kind() == reflect.Struct && field.Type != timeType {
			if err := addFields(table, field.Type, tableName, keys); err != nil {
				return err
			}
			continue
		}
		if field.PkgPath != "" {
			continue
		}

		column, ok, err := fieldColumn(field, tags)
		if err != nil {
			return fmt.Errorf("field %s.%s: %w", entityType.Name(), field.Name, err)
		}
		if !ok {
			continue
		}
		table.Columns = append(table.Columns, column)
		if hasTag(tags, "primarykey", "primary_key") {
			*keys = append(*keys, column)
		}
		if hasTag(tags, "uniqueindex", "unique") {
			table.Indexes = append(table.Indexes, IndexSnapshot{Name: "IX_" + tableName + "_" + column.Name, Columns: []string{column.Name}, Unique: true})
		} else if hasTag(tags, "index") {
			table.Indexes = append(table.Indexes, IndexSnapshot{Name: "IX_" + tableName + "_" + column.Name, Columns: []string{column.Name}})
		}
	}
	return nil
}

// fieldColumn maps a field onto a column. Fields of types with no column
// kind, such as navigation structs and slices, are skipped.
func fieldColumn(field reflect.StructField, tags map[string]string) (ColumnSnapshot, bool, error) {
	goType := field.Type
	nullable := false
	if goType.Kind() == reflect.Ptr {
		goType = goType.Elem()
		nullable = true
	}
	kind, ok := kindOf(goType)
	if !ok {
		return ColumnSnapshot{}, false, nil
	}

	column := ColumnSnapshot{Name: field.Name, Type: kind}
	if name := tags["column"]; name != "" {
		column.Name = name
	}
	primary := hasTag(tags, "primarykey", "primary_key")
	if primary || hasTag(tags, "not null", "not_null") {
		nullable = false
	}
	if kind == Binary {
		nullable = !primary && !hasTag(tags, "not null", "not_null")
	}
	column.Nullable = &nullable

	switch auto, set := tags["autoincrement"]; {
	case set && auto != "false":
		column.Identity = true
	case !set && primary && (kind == Int16 || kind == Int32 || kind == Int64):
		column.Identity = true
	}

	if storeType := tags["type"]; storeType != "" {
		column.StoreType = storeType
	}
	if def, ok := tags["default"]; ok {
		column.DefaultSQL = def
	}
	column.OldName = tags["old_name"]

	var err error
	if column.MaxLength, err = intTag(tags, "size"); err != nil {
		return ColumnSnapshot{}, false, err
	}
	precision, err := intTag(tags, "precision")
	if err != nil {
		return ColumnSnapshot{}, false, err
	}
	if precision != nil {
		if *precision > 255 {
			return ColumnSnapshot{}, false, fmt.Errorf("invalid precision %d", *precision)
		}
		p := uint8(*precision)
		column.Precision = &p
	}
	scale, err := intTag(tags, "scale")
	if err != nil {
		return ColumnSnapshot{}, false, err
	}
	if scale != nil {
		if *scale > 255 {
			return ColumnSnapshot{}, false, fmt.Errorf("invalid scale %d", *scale)
		}
		s := uint8(*scale)
		column.Scale = &s
	}
	return column, true, nil
}

func kindOf(t reflect.Type) (PrimitiveTypeKind, bool) {
	switch t {
	case timeType:
		return DateTime, true
	case durationType:
		return Time, true
	case uuidType:
		return Guid, true
	}
	switch t.Kind() {
	case reflect.String:
		return String, true
	case reflect.Bool:
		return Boolean, true
	case reflect.Uint8:
		return Byte, true
	case reflect.Int8, reflect.Int16:
		return Int16, true
	case reflect.Int32, reflect.Uint16:
		return Int32, true
	case reflect.Int, reflect.Int64, reflect.Uint, reflect.Uint32, reflect.Uint64:
		return Int64, true
	case reflect.Float32:
		return Single, true
	case reflect.Float64:
		return Double, true
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			return Binary, true
		}
	}
	return 0, false
}

// fieldTags merges the gorm and efmigrate tags of a field; efmigrate wins.
// Keys are lower-cased.
func fieldTags(field reflect.StructField) map[string]string {
	tags := make(map[string]string)
	for _, key := range []string{"gorm", "efmigrate"} {
		tag, ok := field.Tag.Lookup(key)
		if !ok {
			continue
		}
		if strings.TrimSpace(tag) == "-" {
			tags["-"] = ""
			continue
		}
		parseTags(tag, tags)
	}
	return tags
}

func parseTags(tagStr string, tags map[string]string) {
	for _, part := range strings.Split(tagStr, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if k, v, found := strings.Cut(part, ":"); found {
			tags[strings.ToLower(strings.TrimSpace(k))] = strings.TrimSpace(v)
		} else {
			tags[strings.ToLower(part)] = ""
		}
	}
}

func hasTag(tags map[string]string, keys ...string) bool {
	for _, k := range keys {
		if _, ok := tags[k]; ok {
			return true
		}
	}
	return false
}

func intTag(tags map[string]string, key string) (*int, error) {
	raw, ok := tags[key]
	if !ok {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return nil, fmt.Errorf("invalid %s %q", key, raw)
	}
	return &n, nil
}
