package models

import "strings"

// MaxConstraintNameLength bounds generated key and index names.
const MaxConstraintNameLength = 128

func DefaultPrimaryKeyName(table string) string {
	return restrictTo("PK_"+table, MaxConstraintNameLength)
}

func DefaultForeignKeyName(dependentTable, principalTable string, dependentColumns []string) string {
	return restrictTo("FK_"+dependentTable+"_"+principalTable+"_"+strings.Join(dependentColumns, "_"), MaxConstraintNameLength)
}

func DefaultIndexName(columns []string) string {
	return restrictTo("IX_"+strings.Join(columns, "_"), MaxConstraintNameLength)
}

func restrictTo(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// DatabaseName is an optionally schema-qualified object name.
type DatabaseName struct {
	Schema string
	Name   string
}

// ParseDatabaseName splits "schema.name" at the last dot.
func ParseDatabaseName(qualified string) DatabaseName {
	if i := strings.LastIndex(qualified, "."); i >= 0 {
		return DatabaseName{Schema: qualified[:i], Name: qualified[i+1:]}
	}
	return DatabaseName{Name: qualified}
}

func (n DatabaseName) String() string {
	if n.Schema == "" {
		return n.Name
	}
	return n.Schema + "." + n.Name
}
