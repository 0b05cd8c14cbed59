// Package inverse derives the Down counterpart of migration operations.
package inverse

import "github.com/shepherrrd/efmigrate/internal/models"

// ResultKind is the outcome of inverting one operation.
type ResultKind int

const (
	// None means Down has nothing to do for the operation.
	None ResultKind = iota
	// Derived means Operation undoes the operation.
	Derived
	// Unsupported means the operation cannot be undone automatically.
	Unsupported
)

func (k ResultKind) String() string {
	switch k {
	case None:
		return "None"
	case Derived:
		return "Derived"
	case Unsupported:
		return "Unsupported"
	}
	return "Unknown"
}

type Result struct {
	Kind      ResultKind
	Operation models.MigrationOperation
	// Unsupported holds the kind of operation that could not be inverted.
	Unsupported models.OperationKind
}

func derived(op models.MigrationOperation) Result {
	return Result{Kind: Derived, Operation: op}
}

func unsupported(kind models.OperationKind) Result {
	return Result{Kind: Unsupported, Unsupported: kind}
}

// Of returns the inverse of op.
func Of(op models.MigrationOperation) Result {
	switch o := op.(type) {
	case *models.CreateTableOperation:
		return derived(dropTable(o))
	case *models.DropTableOperation:
		if o.Inverse == nil {
			return Result{}
		}
		return derived(o.Inverse)
	case *models.AddColumnOperation:
		return derived(dropColumn(o))
	case *models.DropColumnOperation:
		if o.Inverse == nil {
			return Result{}
		}
		return derived(o.Inverse)
	case *models.AlterColumnOperation:
		if o.Inverse == nil {
			return Result{}
		}
		return derived(o.Inverse)
	case *models.AlterTableOperation:
		return derived(alterTable(o))
	case *models.AddPrimaryKeyOperation:
		return derived(&models.DropPrimaryKeyOperation{
			PrimaryKeyOperation: models.PrimaryKeyOperation{
				Table:       o.Table,
				Columns:     append([]string(nil), o.Columns...),
				Name:        o.Name,
				IsClustered: o.IsClustered,
			},
			Inverse: o,
		})
	case *models.DropPrimaryKeyOperation:
		if o.Inverse == nil {
			return Result{}
		}
		return derived(o.Inverse)
	case *models.AddForeignKeyOperation:
		return derived(&models.DropForeignKeyOperation{
			ForeignKeyOperation: models.ForeignKeyOperation{
				DependentTable:   o.DependentTable,
				DependentColumns: append([]string(nil), o.DependentColumns...),
				PrincipalTable:   o.PrincipalTable,
				PrincipalColumns: append([]string(nil), o.PrincipalColumns...),
				Name:             o.Name,
			},
			Inverse: o,
		})
	case *models.DropForeignKeyOperation:
		if o.Inverse == nil {
			return Result{}
		}
		return derived(o.Inverse)
	case *models.CreateIndexOperation:
		drop := &models.DropIndexOperation{
			IndexOperation: models.IndexOperation{Table: o.Table, Name: o.Name},
			Inverse:        o,
		}
		if o.Name == "" {
			drop.Columns = append([]string(nil), o.Columns...)
		}
		return derived(drop)
	case *models.DropIndexOperation:
		if o.Inverse == nil {
			return Result{}
		}
		return derived(o.Inverse)
	case *models.RenameTableOperation:
		return derived(&models.RenameTableOperation{
			Name:    sibling(o.Name, o.NewName),
			NewName: models.ParseDatabaseName(o.Name).Name,
		})
	case *models.RenameColumnOperation:
		return derived(&models.RenameColumnOperation{Table: o.Table, Name: o.NewName, NewName: o.Name})
	case *models.RenameIndexOperation:
		return derived(&models.RenameIndexOperation{Table: o.Table, Name: o.NewName, NewName: o.Name})
	case *models.MoveTableOperation:
		name, schema := moveBack(o.Name, o.NewSchema)
		return derived(&models.MoveTableOperation{Name: name, NewSchema: schema})
	case *models.CreateProcedureOperation:
		return derived(&models.DropProcedureOperation{Name: o.Name})
	case *models.RenameProcedureOperation:
		return derived(&models.RenameProcedureOperation{
			Name:    sibling(o.Name, o.NewName),
			NewName: models.ParseDatabaseName(o.Name).Name,
		})
	case *models.MoveProcedureOperation:
		name, schema := moveBack(o.Name, o.NewSchema)
		return derived(&models.MoveProcedureOperation{Name: name, NewSchema: schema})
	case *models.AlterProcedureOperation, *models.DropProcedureOperation, *models.SqlOperation:
		return unsupported(op.Kind())
	}
	return Result{}
}

// All inverts ops for a Down body: the results come in reverse order and
// operations without an inverse are left out.
func All(ops []models.MigrationOperation) []Result {
	results := make([]Result, 0, len(ops))
	for i := len(ops) - 1; i >= 0; i-- {
		if r := Of(ops[i]); r.Kind != None {
			results = append(results, r)
		}
	}
	return results
}

func dropTable(o *models.CreateTableOperation) *models.DropTableOperation {
	drop := &models.DropTableOperation{
		Name:                     o.Name,
		RemovedAnnotations:       make(map[string]any, len(o.Annotations)),
		RemovedColumnAnnotations: make(map[string]map[string]any),
		Inverse:                  o,
	}
	for k, v := range o.Annotations {
		drop.RemovedAnnotations[k] = v
	}
	for _, c := range o.Columns {
		if len(c.Annotations) == 0 {
			continue
		}
		drop.RemovedColumnAnnotations[c.Name] = newValues(c.Annotations)
	}
	return drop
}

func dropColumn(o *models.AddColumnOperation) *models.DropColumnOperation {
	drop := &models.DropColumnOperation{
		Table:              o.Table,
		RemovedAnnotations: make(map[string]any),
		Inverse:            o,
	}
	if o.Column != nil {
		drop.Name = o.Column.Name
		drop.RemovedAnnotations = newValues(o.Column.Annotations)
	}
	return drop
}

func alterTable(o *models.AlterTableOperation) *models.AlterTableOperation {
	alter := &models.AlterTableOperation{
		Name:        o.Name,
		Columns:     o.Columns,
		Annotations: make(map[string]models.AnnotationValues, len(o.Annotations)),
	}
	for k, v := range o.Annotations {
		alter.Annotations[k] = models.AnnotationValues{Old: v.New, New: v.Old}
	}
	return alter
}

func newValues(annotations map[string]models.AnnotationValues) map[string]any {
	values := make(map[string]any, len(annotations))
	for k, v := range annotations {
		values[k] = v.New
	}
	return values
}

// sibling qualifies name with the schema of qualified.
func sibling(qualified, name string) string {
	return models.DatabaseName{Schema: models.ParseDatabaseName(qualified).Schema, Name: name}.String()
}

// moveBack returns the arguments that move name back from newSchema to the
// schema it was in.
func moveBack(name, newSchema string) (string, string) {
	parsed := models.ParseDatabaseName(name)
	return models.DatabaseName{Schema: newSchema, Name: parsed.Name}.String(), parsed.Schema
}
