package drivers

import "gorm.io/gorm/schema"

// NamingStrategy keeps struct and field names as written, so the history
// table reads "__MigrationHistory" with PascalCase columns on every
// dialect.
type NamingStrategy struct {
	schema.NamingStrategy
}

func NewNamingStrategy() *NamingStrategy {
	return &NamingStrategy{}
}

func (ns *NamingStrategy) TableName(table string) string {
	return table
}

func (ns *NamingStrategy) ColumnName(table, column string) string {
	return column
}

func (ns *NamingStrategy) JoinTableName(joinTable string) string {
	return joinTable
}

func (ns *NamingStrategy) IndexName(table, column string) string {
	return "IX_" + table + "_" + column
}
