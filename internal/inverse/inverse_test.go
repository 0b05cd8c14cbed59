package inverse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/shepherrrd/efmigrate/internal/models"
)

func TestCreateTableInvertsToDropTable(t *testing.T) {
	name := models.NewColumnModel(models.String)
	name.Name = "Name"
	name.Annotations = map[string]models.AnnotationValues{"Collation": {Old: "a", New: "b"}}
	id := models.NewColumnModel(models.Int32)
	id.Name = "Id"
	create := &models.CreateTableOperation{
		Name:        "Customers",
		Columns:     []*models.ColumnModel{id, name},
		Annotations: map[string]any{"Comment": "c"},
	}

	r := Of(create)
	require.Equal(t, Derived, r.Kind)
	drop, ok := r.Operation.(*models.DropTableOperation)
	require.True(t, ok)
	assert.Equal(t, "Customers", drop.Name)
	assert.Equal(t, map[string]any{"Comment": "c"}, drop.RemovedAnnotations)
	assert.Equal(t, map[string]map[string]any{"Name": {"Collation": "b"}}, drop.RemovedColumnAnnotations)
	assert.Same(t, create, drop.Inverse)

	again := Of(drop)
	assert.Same(t, create, again.Operation)
}

func TestAddColumnInvertsToDropColumn(t *testing.T) {
	column := models.NewColumnModel(models.Decimal)
	column.Name = "Price"
	column.Annotations = map[string]models.AnnotationValues{"Precision": {New: 2}}
	add := &models.AddColumnOperation{Table: "Products", Column: column}

	r := Of(add)
	require.Equal(t, Derived, r.Kind)
	drop := r.Operation.(*models.DropColumnOperation)
	assert.Equal(t, "Products", drop.Table)
	assert.Equal(t, "Price", drop.Name)
	assert.Equal(t, map[string]any{"Precision": 2}, drop.RemovedAnnotations)
	assert.Same(t, add, drop.Inverse)
}

func TestDropsWithoutInverseAreOmitted(t *testing.T) {
	ops := []models.MigrationOperation{
		&models.DropColumnOperation{Table: "Customers", Name: "Foo", RemovedAnnotations: map[string]any{"Blue": "Lips"}},
		&models.DropTableOperation{Name: "T"},
		&models.DropIndexOperation{IndexOperation: models.IndexOperation{Table: "T", Name: "IX"}},
		&models.DropForeignKeyOperation{ForeignKeyOperation: models.ForeignKeyOperation{DependentTable: "T", Name: "FK"}},
		&models.DropPrimaryKeyOperation{PrimaryKeyOperation: models.PrimaryKeyOperation{Table: "T"}},
		&models.AlterColumnOperation{Table: "T", Column: models.NewColumnModel(models.Int32)},
	}
	for _, op := range ops {
		assert.Equal(t, None, Of(op).Kind, op.Kind().String())
	}
	assert.Empty(t, All(ops))
}

func TestStoredInversesAreReturned(t *testing.T) {
	alterBack := &models.AlterColumnOperation{Table: "T", Column: models.NewColumnModel(models.Int64)}
	alter := &models.AlterColumnOperation{Table: "T", Column: models.NewColumnModel(models.Int32), Inverse: alterBack}
	assert.Same(t, alterBack, Of(alter).Operation)

	pk := &models.AddPrimaryKeyOperation{PrimaryKeyOperation: models.PrimaryKeyOperation{Table: "T", Columns: []string{"Id"}}}
	dropPK := &models.DropPrimaryKeyOperation{PrimaryKeyOperation: models.PrimaryKeyOperation{Table: "T"}, Inverse: pk}
	assert.Same(t, pk, Of(dropPK).Operation)
}

func TestAddForeignKeyKeepsNameDistinction(t *testing.T) {
	defaulted := &models.AddForeignKeyOperation{
		ForeignKeyOperation: models.ForeignKeyOperation{
			DependentTable:   "Orders",
			DependentColumns: []string{"CustomerId"},
			PrincipalTable:   "Customers",
			PrincipalColumns: []string{"Id"},
		},
		CascadeDelete: true,
	}
	drop := Of(defaulted).Operation.(*models.DropForeignKeyOperation)
	assert.Equal(t, "Orders", drop.DependentTable)
	assert.Equal(t, []string{"CustomerId"}, drop.DependentColumns)
	assert.Equal(t, "Customers", drop.PrincipalTable)
	assert.Empty(t, drop.Name)
	assert.True(t, drop.HasDefaultName())
	assert.Same(t, defaulted, drop.Inverse)

	named := *defaulted
	named.Name = "FK1"
	drop = Of(&named).Operation.(*models.DropForeignKeyOperation)
	assert.Equal(t, "FK1", drop.Name)
	assert.False(t, drop.HasDefaultName())
}

func TestAddPrimaryKeyInverse(t *testing.T) {
	pk := &models.AddPrimaryKeyOperation{PrimaryKeyOperation: models.PrimaryKeyOperation{
		Table: "T", Columns: []string{"A", "B"}, Name: "PK", IsClustered: false,
	}}
	drop := Of(pk).Operation.(*models.DropPrimaryKeyOperation)
	assert.Equal(t, "PK", drop.Name)
	assert.Equal(t, []string{"A", "B"}, drop.Columns)
	assert.False(t, drop.IsClustered)
}

func TestCreateIndexDropsByNameOrColumns(t *testing.T) {
	byColumns := &models.CreateIndexOperation{IndexOperation: models.IndexOperation{Table: "T", Columns: []string{"A"}}}
	drop := Of(byColumns).Operation.(*models.DropIndexOperation)
	assert.Equal(t, []string{"A"}, drop.Columns)
	assert.Empty(t, drop.Name)
	assert.Equal(t, "IX_A", drop.EffectiveName())

	byName := &models.CreateIndexOperation{IndexOperation: models.IndexOperation{Table: "T", Columns: []string{"A"}, Name: "IX_Custom"}}
	drop = Of(byName).Operation.(*models.DropIndexOperation)
	assert.Empty(t, drop.Columns)
	assert.Equal(t, "IX_Custom", drop.Name)
}

func TestAlterTableSwapsAnnotations(t *testing.T) {
	alter := &models.AlterTableOperation{
		Name:        "T",
		Annotations: map[string]models.AnnotationValues{"A": {Old: 1, New: 2}, "B": {New: "x"}},
	}
	back := Of(alter).Operation.(*models.AlterTableOperation)
	assert.Equal(t, map[string]models.AnnotationValues{"A": {Old: 2, New: 1}, "B": {Old: "x"}}, back.Annotations)
}

func TestRenamesKeepSchema(t *testing.T) {
	table := Of(&models.RenameTableOperation{Name: "dbo.Customers", NewName: "Clients"}).Operation
	assert.Equal(t, &models.RenameTableOperation{Name: "dbo.Clients", NewName: "Customers"}, table)

	procedure := Of(&models.RenameProcedureOperation{Name: "crm.Insert", NewName: "Add"}).Operation
	assert.Equal(t, &models.RenameProcedureOperation{Name: "crm.Add", NewName: "Insert"}, procedure)

	column := Of(&models.RenameColumnOperation{Table: "T", Name: "A", NewName: "B"}).Operation
	assert.Equal(t, &models.RenameColumnOperation{Table: "T", Name: "B", NewName: "A"}, column)

	index := Of(&models.RenameIndexOperation{Table: "T", Name: "IX_A", NewName: "IX_B"}).Operation
	assert.Equal(t, &models.RenameIndexOperation{Table: "T", Name: "IX_B", NewName: "IX_A"}, index)
}

func TestMovesGoBack(t *testing.T) {
	procedure := Of(&models.MoveProcedureOperation{Name: "Insert_Customers", NewSchema: "foo"}).Operation
	assert.Equal(t, &models.MoveProcedureOperation{Name: "foo.Insert_Customers", NewSchema: ""}, procedure)

	table := Of(&models.MoveTableOperation{Name: "dbo.Customers", NewSchema: "crm"}).Operation
	assert.Equal(t, &models.MoveTableOperation{Name: "crm.Customers", NewSchema: "dbo"}, table)
}

func TestUnsupportedInverses(t *testing.T) {
	ops := []models.MigrationOperation{
		&models.AlterProcedureOperation{ProcedureOperation: models.ProcedureOperation{Name: "P"}},
		&models.DropProcedureOperation{Name: "P"},
		&models.SqlOperation{SQL: "select 1"},
	}
	for _, op := range ops {
		r := Of(op)
		assert.Equal(t, Unsupported, r.Kind)
		assert.Equal(t, op.Kind(), r.Unsupported)
		assert.Nil(t, r.Operation)
	}
}

func TestCreateProcedureInvertsToDrop(t *testing.T) {
	r := Of(&models.CreateProcedureOperation{ProcedureOperation: models.ProcedureOperation{Name: "dbo.P", BodySQL: "x"}})
	assert.Equal(t, &models.DropProcedureOperation{Name: "dbo.P"}, r.Operation)
}

func TestAllReversesOrder(t *testing.T) {
	ops := []models.MigrationOperation{
		&models.CreateTableOperation{Name: "A"},
		&models.DropColumnOperation{Table: "A", Name: "X"},
		&models.SqlOperation{SQL: "select 1"},
		&models.RenameTableOperation{Name: "A", NewName: "B"},
	}
	results := All(ops)
	require.Len(t, results, 3)
	assert.Equal(t, models.RenameTable, results[0].Operation.Kind())
	assert.Equal(t, Unsupported, results[1].Kind)
	assert.Equal(t, models.DropTable, results[2].Operation.Kind())
}

func identifier() *rapid.Generator[string] {
	return rapid.StringMatching(`[A-Za-z_][A-Za-z0-9_]{0,12}`)
}

func qualified() *rapid.Generator[string] {
	return rapid.Custom(func(t *rapid.T) string {
		name := identifier().Draw(t, "name")
		if rapid.Bool().Draw(t, "qualified") {
			return identifier().Draw(t, "schema") + "." + name
		}
		return name
	})
}

func TestRenameInverseIsInvolutionRapid(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		var op models.MigrationOperation
		switch rapid.IntRange(0, 5).Draw(t, "kind") {
		case 0:
			op = &models.RenameTableOperation{Name: qualified().Draw(t, "name"), NewName: identifier().Draw(t, "new")}
		case 1:
			op = &models.RenameColumnOperation{Table: qualified().Draw(t, "table"), Name: identifier().Draw(t, "name"), NewName: identifier().Draw(t, "new")}
		case 2:
			op = &models.RenameIndexOperation{Table: qualified().Draw(t, "table"), Name: identifier().Draw(t, "name"), NewName: identifier().Draw(t, "new")}
		case 3:
			op = &models.RenameProcedureOperation{Name: qualified().Draw(t, "name"), NewName: identifier().Draw(t, "new")}
		case 4:
			op = &models.MoveTableOperation{Name: qualified().Draw(t, "name"), NewSchema: rapid.OneOf(rapid.Just(""), identifier()).Draw(t, "schema")}
		default:
			op = &models.MoveProcedureOperation{Name: qualified().Draw(t, "name"), NewSchema: rapid.OneOf(rapid.Just(""), identifier()).Draw(t, "schema")}
		}

		once := Of(op)
		if once.Kind != Derived {
			t.Fatalf("%s: expected a derived inverse, got %s", op.Kind(), once.Kind)
		}
		twice := Of(once.Operation)
		if twice.Kind != Derived {
			t.Fatalf("%s: expected a derived inverse of the inverse, got %s", op.Kind(), twice.Kind)
		}
		if !assert.ObjectsAreEqual(op, twice.Operation) {
			t.Fatalf("inverse is not an involution: %#v became %#v", op, twice.Operation)
		}
	})
}
