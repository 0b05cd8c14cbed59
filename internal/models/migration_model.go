package models

import "fmt"

// OperationKind identifies a MigrationOperation variant.
type OperationKind int

const (
	CreateTable OperationKind = iota
	DropTable
	AddColumn
	DropColumn
	AlterColumn
	AlterTable
	AddPrimaryKey
	DropPrimaryKey
	AddForeignKey
	DropForeignKey
	CreateIndex
	DropIndex
	RenameTable
	RenameColumn
	RenameIndex
	MoveTable
	CreateProcedure
	AlterProcedure
	DropProcedure
	RenameProcedure
	MoveProcedure
	Sql
)

var operationKindNames = [...]string{
	CreateTable:     "CreateTable",
	DropTable:       "DropTable",
	AddColumn:       "AddColumn",
	DropColumn:      "DropColumn",
	AlterColumn:     "AlterColumn",
	AlterTable:      "AlterTable",
	AddPrimaryKey:   "AddPrimaryKey",
	DropPrimaryKey:  "DropPrimaryKey",
	AddForeignKey:   "AddForeignKey",
	DropForeignKey:  "DropForeignKey",
	CreateIndex:     "CreateIndex",
	DropIndex:       "DropIndex",
	RenameTable:     "RenameTable",
	RenameColumn:    "RenameColumn",
	RenameIndex:     "RenameIndex",
	MoveTable:       "MoveTable",
	CreateProcedure: "CreateProcedure",
	AlterProcedure:  "AlterProcedure",
	DropProcedure:   "DropProcedure",
	RenameProcedure: "RenameProcedure",
	MoveProcedure:   "MoveProcedure",
	Sql:             "Sql",
}

func (k OperationKind) String() string {
	if k >= 0 && int(k) < len(operationKindNames) {
		return operationKindNames[k]
	}
	return fmt.Sprintf("OperationKind(%d)", int(k))
}

// MigrationOperation is a single schema change. The set of implementations is
// closed: only this package can declare new ones.
type MigrationOperation interface {
	Kind() OperationKind
	// IsDestructiveChange reports whether applying the operation may lose data.
	IsDestructiveChange() bool
	Arguments() map[string]any
	SetArgument(key string, value any)
	operation()
}

type operationBase struct {
	AnonymousArguments map[string]any
}

func (b *operationBase) Arguments() map[string]any { return b.AnonymousArguments }

func (b *operationBase) SetArgument(key string, value any) {
	if b.AnonymousArguments == nil {
		b.AnonymousArguments = make(map[string]any)
	}
	b.AnonymousArguments[key] = value
}

func (*operationBase) IsDestructiveChange() bool { return false }

func (*operationBase) operation() {}

type CreateTableOperation struct {
	operationBase
	Name        string
	Columns     []*ColumnModel
	PrimaryKey  *AddPrimaryKeyOperation
	Annotations map[string]any
}

func (*CreateTableOperation) Kind() OperationKind { return CreateTable }

// Column returns the column with the given name, or nil.
func (o *CreateTableOperation) Column(name string) *ColumnModel {
	for _, c := range o.Columns {
		if c.Name == name {
			return c
		}
	}
	return nil
}

type DropTableOperation struct {
	operationBase
	Name                     string
	RemovedAnnotations       map[string]any
	RemovedColumnAnnotations map[string]map[string]any
	Inverse                  *CreateTableOperation
}

func (*DropTableOperation) Kind() OperationKind { return DropTable }

func (*DropTableOperation) IsDestructiveChange() bool { return true }

type AddColumnOperation struct {
	operationBase
	Table  string
	Column *ColumnModel
}

func (*AddColumnOperation) Kind() OperationKind { return AddColumn }

type DropColumnOperation struct {
	operationBase
	Table              string
	Name               string
	RemovedAnnotations map[string]any
	Inverse            *AddColumnOperation
}

func (*DropColumnOperation) Kind() OperationKind { return DropColumn }

func (*DropColumnOperation) IsDestructiveChange() bool { return true }

type AlterColumnOperation struct {
	operationBase
	Table             string
	Column            *ColumnModel
	DestructiveChange bool
	Inverse           *AlterColumnOperation
}

func (*AlterColumnOperation) Kind() OperationKind { return AlterColumn }

func (o *AlterColumnOperation) IsDestructiveChange() bool { return o.DestructiveChange }

// AlterTableOperation changes table and column annotations. Columns are
// carried so annotation renderers have the full column context.
type AlterTableOperation struct {
	operationBase
	Name        string
	Columns     []*ColumnModel
	Annotations map[string]AnnotationValues
}

func (*AlterTableOperation) Kind() OperationKind { return AlterTable }

type PrimaryKeyOperation struct {
	operationBase
	Table       string
	Columns     []string
	Name        string
	IsClustered bool
}

func (o *PrimaryKeyOperation) DefaultName() string { return DefaultPrimaryKeyName(o.Table) }

// EffectiveName returns Name, or the default name when Name is empty.
func (o *PrimaryKeyOperation) EffectiveName() string {
	if o.Name == "" {
		return o.DefaultName()
	}
	return o.Name
}

func (o *PrimaryKeyOperation) HasDefaultName() bool { return o.EffectiveName() == o.DefaultName() }

type AddPrimaryKeyOperation struct {
	PrimaryKeyOperation
}

func (*AddPrimaryKeyOperation) Kind() OperationKind { return AddPrimaryKey }

type DropPrimaryKeyOperation struct {
	PrimaryKeyOperation
	Inverse *AddPrimaryKeyOperation
}

func (*DropPrimaryKeyOperation) Kind() OperationKind { return DropPrimaryKey }

type ForeignKeyOperation struct {
	operationBase
	DependentTable   string
	DependentColumns []string
	PrincipalTable   string
	PrincipalColumns []string
	Name             string
}

func (o *ForeignKeyOperation) DefaultName() string {
	return DefaultForeignKeyName(o.DependentTable, o.PrincipalTable, o.DependentColumns)
}

func (o *ForeignKeyOperation) EffectiveName() string {
	if o.Name == "" {
		return o.DefaultName()
	}
	return o.Name
}

func (o *ForeignKeyOperation) HasDefaultName() bool { return o.EffectiveName() == o.DefaultName() }

type AddForeignKeyOperation struct {
	ForeignKeyOperation
	CascadeDelete bool
}

func (*AddForeignKeyOperation) Kind() OperationKind { return AddForeignKey }

// CreateIndexOperation returns a non-unique index over the dependent columns.
func (o *AddForeignKeyOperation) CreateIndexOperation() *CreateIndexOperation {
	return &CreateIndexOperation{
		IndexOperation: IndexOperation{
			Table:   o.DependentTable,
			Columns: append([]string(nil), o.DependentColumns...),
		},
	}
}

type DropForeignKeyOperation struct {
	ForeignKeyOperation
	Inverse *AddForeignKeyOperation
}

func (*DropForeignKeyOperation) Kind() OperationKind { return DropForeignKey }

// DropIndexOperation returns the drop of the index CreateIndexOperation on
// the matching AddForeignKeyOperation would create.
func (o *DropForeignKeyOperation) DropIndexOperation() *DropIndexOperation {
	drop := &DropIndexOperation{
		IndexOperation: IndexOperation{
			Table:   o.DependentTable,
			Columns: append([]string(nil), o.DependentColumns...),
		},
	}
	if o.Inverse != nil {
		drop.Inverse = o.Inverse.CreateIndexOperation()
	}
	return drop
}

type IndexOperation struct {
	operationBase
	Table   string
	Columns []string
	Name    string
}

func (o *IndexOperation) DefaultName() string { return DefaultIndexName(o.Columns) }

func (o *IndexOperation) EffectiveName() string {
	if o.Name == "" {
		return o.DefaultName()
	}
	return o.Name
}

func (o *IndexOperation) HasDefaultName() bool { return o.EffectiveName() == o.DefaultName() }

type CreateIndexOperation struct {
	IndexOperation
	IsUnique    bool
	IsClustered bool
}

func (*CreateIndexOperation) Kind() OperationKind { return CreateIndex }

type DropIndexOperation struct {
	IndexOperation
	Inverse *CreateIndexOperation
}

func (*DropIndexOperation) Kind() OperationKind { return DropIndex }

type RenameTableOperation struct {
	operationBase
	Name    string
	NewName string
}

func (*RenameTableOperation) Kind() OperationKind { return RenameTable }

type RenameColumnOperation struct {
	operationBase
	Table   string
	Name    string
	NewName string
}

func (*RenameColumnOperation) Kind() OperationKind { return RenameColumn }

type RenameIndexOperation struct {
	operationBase
	Table   string
	Name    string
	NewName string
}

func (*RenameIndexOperation) Kind() OperationKind { return RenameIndex }

// MoveTableOperation moves a table to another schema. An empty NewSchema
// means the default schema.
type MoveTableOperation struct {
	operationBase
	Name      string
	NewSchema string
}

func (*MoveTableOperation) Kind() OperationKind { return MoveTable }

type ProcedureOperation struct {
	operationBase
	Name       string
	BodySQL    string
	Parameters []*ParameterModel
}

type CreateProcedureOperation struct {
	ProcedureOperation
}

func (*CreateProcedureOperation) Kind() OperationKind { return CreateProcedure }

type AlterProcedureOperation struct {
	ProcedureOperation
}

func (*AlterProcedureOperation) Kind() OperationKind { return AlterProcedure }

type DropProcedureOperation struct {
	operationBase
	Name string
}

func (*DropProcedureOperation) Kind() OperationKind { return DropProcedure }

type RenameProcedureOperation struct {
	operationBase
	Name    string
	NewName string
}

func (*RenameProcedureOperation) Kind() OperationKind { return RenameProcedure }

type MoveProcedureOperation struct {
	operationBase
	Name      string
	NewSchema string
}

func (*MoveProcedureOperation) Kind() OperationKind { return MoveProcedure }

type SqlOperation struct {
	operationBase
	SQL                 string
	SuppressTransaction bool
}

func (*SqlOperation) Kind() OperationKind { return Sql }

func (*SqlOperation) IsDestructiveChange() bool { return true }

// TableOf returns the table op changes, or "" when op changes no single
// table.
func TableOf(op MigrationOperation) string {
	switch o := op.(type) {
	case *CreateTableOperation:
		return o.Name
	case *DropTableOperation:
		return o.Name
	case *AlterTableOperation:
		return o.Name
	case *RenameTableOperation:
		return o.Name
	case *MoveTableOperation:
		return o.Name
	case *AddColumnOperation:
		return o.Table
	case *DropColumnOperation:
		return o.Table
	case *AlterColumnOperation:
		return o.Table
	case *RenameColumnOperation:
		return o.Table
	case *AddPrimaryKeyOperation:
		return o.Table
	case *DropPrimaryKeyOperation:
		return o.Table
	case *AddForeignKeyOperation:
		return o.DependentTable
	case *DropForeignKeyOperation:
		return o.DependentTable
	case *CreateIndexOperation:
		return o.Table
	case *DropIndexOperation:
		return o.Table
	case *RenameIndexOperation:
		return o.Table
	}
	return ""
}
