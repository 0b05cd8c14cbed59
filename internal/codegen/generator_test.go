package codegen

import (
	"encoding/base64"
	"fmt"
	"go/parser"
	"go/token"
	"math/rand"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/shepherrrd/efmigrate/internal/annotations"
	"github.com/shepherrrd/efmigrate/internal/models"
)

func boolPtr(b bool) *bool { return &b }

func intPtr(n int) *int { return &n }

func uint8Ptr(n uint8) *uint8 { return &n }

func column(name string, kind models.PrimitiveTypeKind) *models.ColumnModel {
	c := models.NewColumnModel(kind)
	c.Name = name
	return c
}

func customersTable() *models.CreateTableOperation {
	id := column("Id", models.Int32)
	id.IsNullable = boolPtr(false)
	id.IsIdentity = true
	return &models.CreateTableOperation{
		Name:        "Customers",
		Columns:     []*models.ColumnModel{id, column("Name", models.String)},
		Annotations: map[string]any{},
		PrimaryKey: &models.AddPrimaryKeyOperation{PrimaryKeyOperation: models.PrimaryKeyOperation{
			Table: "Customers", Columns: []string{"Id"}, IsClustered: true,
		}},
	}
}

func generate(t *testing.T, ops ...models.MigrationOperation) *ScaffoldedMigration {
	t.Helper()
	migration, err := New().Generate("20150101000000_Migration", ops, "", "Target", "", "Migration")
	require.NoError(t, err)
	return migration
}

func requireParses(t *testing.T, code string) {
	t.Helper()
	_, err := parser.ParseFile(token.NewFileSet(), "migration.go", code, parser.AllErrors)
	require.NoError(t, err, code)
}

func TestGenerateCreateTable(t *testing.T) {
	migration, err := New().Generate("20150101000000_AddCustomers", []models.MigrationOperation{customersTable()}, "", "Target", "Contoso.Migrations", "AddCustomers")
	require.NoError(t, err)

	assert.Equal(t, `package migrations

import "github.com/shepherrrd/efmigrate"

type AddCustomers struct {
	efmigrate.DbMigration
}

func (m *AddCustomers) Up() {
	m.CreateTable(
		"Customers",
		func(c *efmigrate.ColumnBuilder) []efmigrate.Column {
			return []efmigrate.Column{
				efmigrate.Col("Id", c.Int(efmigrate.Nullable(false), efmigrate.Identity())),
				efmigrate.Col("Name", c.String()),
			}
		},
	).
		PrimaryKey([]string{"Id"})
}

func (m *AddCustomers) Down() {
	m.DropTable("Customers")
}
`, migration.UserCode)

	assert.Equal(t, `// Code generated by efmigrate. DO NOT EDIT.

package migrations

import "github.com/shepherrrd/efmigrate"

var addCustomersResources = map[string]string{
	"Target": "Target",
}

func (m *AddCustomers) ID() string { return "20150101000000_AddCustomers" }

func (m *AddCustomers) Source() string { return addCustomersResources["Source"] }

func (m *AddCustomers) Target() string { return addCustomersResources["Target"] }

func init() {
	efmigrate.Register(&AddCustomers{})
}
`, migration.DesignerCode)

	assert.Equal(t, "go", migration.Language)
	assert.Equal(t, map[string]string{"Target": "Target"}, migration.Resources)
}

func TestGenerateAddColumn(t *testing.T) {
	price := column("Price", models.Decimal)
	price.Precision = uint8Ptr(18)
	price.Scale = uint8Ptr(2)
	price.DefaultValue = 0.0

	migration := generate(t, &models.AddColumnOperation{Table: "Products", Column: price})

	assert.Contains(t, migration.UserCode, `func (m *Migration) Up() {
	m.AddColumn("Products", "Price", func(c *efmigrate.ColumnBuilder) *efmigrate.ColumnModel {
		return c.Decimal(efmigrate.Precision(18), efmigrate.Scale(2), efmigrate.Default(0.0))
	})
}`)
	assert.Contains(t, migration.UserCode, `func (m *Migration) Down() {
	m.DropColumn("Products", "Price")
}`)
}

func TestGenerateForeignKeyKeepsNameDistinction(t *testing.T) {
	fk := &models.AddForeignKeyOperation{
		ForeignKeyOperation: models.ForeignKeyOperation{
			DependentTable:   "Orders",
			DependentColumns: []string{"CustomerId"},
			PrincipalTable:   "Customers",
			PrincipalColumns: []string{"Id"},
		},
		CascadeDelete: true,
	}
	migration := generate(t, fk)
	assert.Contains(t, migration.UserCode, `	m.AddForeignKey(
		"Orders",
		[]string{"CustomerId"},
		"Customers",
		[]string{"Id"},
		efmigrate.CascadeDelete(true),
	)`)
	assert.Contains(t, migration.UserCode, `	m.DropForeignKey("Orders", []string{"CustomerId"}, "Customers")`)

	named := *fk
	named.Name = "FK1"
	migration = generate(t, &named)
	assert.Contains(t, migration.UserCode, `	m.AddForeignKey(
		"Orders",
		[]string{"CustomerId"},
		"Customers",
		[]string{"Id"},
		efmigrate.CascadeDelete(true),
		efmigrate.Name("FK1"),
	)`)
	assert.Contains(t, migration.UserCode, `	m.DropForeignKeyByName("Orders", "FK1")`)
}

func TestGenerateDropColumnWithoutInverse(t *testing.T) {
	migration := generate(t, &models.DropColumnOperation{
		Table:              "Customers",
		Name:               "Foo",
		RemovedAnnotations: map[string]any{"Blue": "Lips"},
	})

	assert.Contains(t, migration.UserCode, `	m.DropColumn("Customers", "Foo", efmigrate.RemovedAnnotation("Blue", "Lips"))`)
	assert.Contains(t, migration.UserCode, "func (m *Migration) Down() {\n}\n")
}

func TestGenerateUnsupportedInverses(t *testing.T) {
	migration := generate(t,
		&models.AlterProcedureOperation{ProcedureOperation: models.ProcedureOperation{Name: "dbo.P", BodySQL: "return 1"}},
		&models.DropProcedureOperation{Name: "dbo.P"},
		&models.SqlOperation{SQL: "update T set A = 1", SuppressTransaction: true},
	)

	assert.Contains(t, migration.UserCode, `func (m *Migration) Down() {
	m.NotSupported("Sql")
	m.NotSupported("DropProcedure")
	m.NotSupported("AlterProcedure")
}`)
	assert.Contains(t, migration.UserCode, "\tm.SQL(`update T set A = 1`, efmigrate.SuppressTransaction())\n")
	requireParses(t, migration.UserCode)
}

func TestGenerateInlinesForeignKeysAndIndexes(t *testing.T) {
	blogID := column("BlogId", models.Int32)
	id := column("I.d", models.Int32)
	posts := &models.CreateTableOperation{
		Name:        "Posts",
		Columns:     []*models.ColumnModel{id, blogID},
		Annotations: map[string]any{"Comment": "posts"},
		PrimaryKey: &models.AddPrimaryKeyOperation{PrimaryKeyOperation: models.PrimaryKeyOperation{
			Table: "Posts", Columns: []string{"I.d"}, Name: "MyPK", IsClustered: true,
		}},
	}
	fk := &models.AddForeignKeyOperation{
		ForeignKeyOperation: models.ForeignKeyOperation{
			DependentTable: "posts", DependentColumns: []string{"BlogId"}, PrincipalTable: "Blogs",
		},
		CascadeDelete: true,
	}
	index := &models.CreateIndexOperation{IndexOperation: models.IndexOperation{Table: "Posts", Columns: []string{"BlogId"}}}

	migration := generate(t, posts, fk, index)

	assert.Contains(t, migration.UserCode, `func (m *Migration) Up() {
	m.CreateTable(
		"Posts",
		func(c *efmigrate.ColumnBuilder) []efmigrate.Column {
			return []efmigrate.Column{
				efmigrate.Col("Id", c.Int(efmigrate.Name("I.d"))),
				efmigrate.Col("BlogId", c.Int()),
			}
		},
		efmigrate.TableAnnotation("Comment", "posts"),
	).
		PrimaryKey([]string{"Id"}, efmigrate.Name("MyPK")).
		ForeignKey("Blogs", []string{"BlogId"}, efmigrate.CascadeDelete(true), efmigrate.Name("FK_posts_Blogs_BlogId")).
		Index([]string{"BlogId"})
}`)
	assert.NotContains(t, migration.UserCode, "m.AddForeignKey(")
	assert.Contains(t, migration.UserCode, `func (m *Migration) Down() {
	m.DropIndex("Posts", []string{"BlogId"})
	m.DropForeignKey("posts", []string{"BlogId"}, "Blogs")
	m.DropTable("Posts", efmigrate.RemovedAnnotation("Comment", "posts"))
}`)
}

func TestGenerateDoesNotInlineBeforePrincipalExists(t *testing.T) {
	fk := &models.AddForeignKeyOperation{ForeignKeyOperation: models.ForeignKeyOperation{
		DependentTable: "Posts", DependentColumns: []string{"BlogId"}, PrincipalTable: "Blogs",
	}}
	migration := generate(t,
		&models.CreateTableOperation{Name: "Posts", Columns: []*models.ColumnModel{column("BlogId", models.Int32)}},
		&models.CreateTableOperation{Name: "Blogs", Columns: []*models.ColumnModel{column("Id", models.Int32)}},
		fk,
	)
	assert.Contains(t, migration.UserCode, `	m.AddForeignKey("Posts", []string{"BlogId"}, "Blogs", nil)`)
}

func TestGenerateKeepsOrderAfterColumnChange(t *testing.T) {
	migration := generate(t,
		&models.CreateTableOperation{Name: "T", Columns: []*models.ColumnModel{column("Id", models.Int32)}},
		&models.AddColumnOperation{Table: "T", Column: column("X", models.Int32)},
		&models.CreateIndexOperation{IndexOperation: models.IndexOperation{Table: "T", Columns: []string{"X"}}},
		&models.AddForeignKeyOperation{ForeignKeyOperation: models.ForeignKeyOperation{
			DependentTable: "T", DependentColumns: []string{"X"}, PrincipalTable: "Blogs",
		}},
	)

	up := migration.UserCode[:strings.Index(migration.UserCode, "Down()")]
	assert.NotContains(t, up, ".Index(")
	assert.NotContains(t, up, ".ForeignKey(")
	addColumn := strings.Index(up, "m.AddColumn(")
	createIndex := strings.Index(up, "m.CreateIndex(")
	addForeignKey := strings.Index(up, "m.AddForeignKey(")
	require.NotEqual(t, -1, addColumn)
	assert.Less(t, addColumn, createIndex)
	assert.Less(t, createIndex, addForeignKey)
}

func TestGenerateStopsChainAtSql(t *testing.T) {
	migration := generate(t,
		&models.CreateTableOperation{Name: "T", Columns: []*models.ColumnModel{column("Id", models.Int32)}},
		&models.SqlOperation{SQL: "UPDATE T SET Id = 1"},
		&models.CreateIndexOperation{IndexOperation: models.IndexOperation{Table: "T", Columns: []string{"Id"}}},
	)
	assert.Contains(t, migration.UserCode, `m.CreateIndex("T", []string{"Id"})`)
}

func TestGenerateAnnotationsAreSorted(t *testing.T) {
	name := column("Name", models.String)
	name.Annotations = map[string]models.AnnotationValues{
		"Zeta":  {New: "z"},
		"Alpha": {Old: 1, New: 2},
		annotations.IndexAnnotationName: {New: annotations.NewIndexAnnotation(
			annotations.NewIndexAttribute("IX_Name").Unique(true),
		)},
	}
	migration := generate(t,
		&models.AddColumnOperation{Table: "T", Column: name},
		&models.DropTableOperation{
			Name:               "Old",
			RemovedAnnotations: map[string]any{"b": 2, "a": 1},
			RemovedColumnAnnotations: map[string]map[string]any{
				"Y": {"k2": "v", "k1": "v"},
				"X": {"k": "v"},
			},
		},
	)

	assert.Contains(t, migration.UserCode, `	m.AddColumn("T", "Name", func(c *efmigrate.ColumnBuilder) *efmigrate.ColumnModel {
		return c.String(
			efmigrate.Annotation("Alpha", 1, 2),
			efmigrate.Annotation("Index", nil, efmigrate.MustParseIndexAnnotation("{ Name: IX_Name, IsUnique: True }")),
			efmigrate.Annotation("Zeta", nil, "z"),
		)
	})`)
	assert.Contains(t, migration.UserCode, `	m.DropTable(
		"Old",
		efmigrate.RemovedAnnotation("a", 1),
		efmigrate.RemovedAnnotation("b", 2),
		efmigrate.RemovedColumnAnnotation("X", "k", "v"),
		efmigrate.RemovedColumnAnnotation("Y", "k1", "v"),
		efmigrate.RemovedColumnAnnotation("Y", "k2", "v"),
	)`)
	assert.Contains(t, migration.UserCode, `	m.DropColumn(
		"T",
		"Name",
		efmigrate.RemovedAnnotation("Alpha", 2),
		efmigrate.RemovedAnnotation("Index", efmigrate.MustParseIndexAnnotation("{ Name: IX_Name, IsUnique: True }")),
		efmigrate.RemovedAnnotation("Zeta", "z"),
	)`)
	requireParses(t, migration.UserCode)
}

type collationRenderer struct{}

func (collationRenderer) Imports() []string { return []string{"example.com/collation"} }

func (collationRenderer) Render(value any) (string, error) {
	return fmt.Sprintf("collation.Named(%q)", value), nil
}

func TestGenerateUsesRegisteredRenderer(t *testing.T) {
	g := New()
	g.RegisterAnnotation("Collation", collationRenderer{})

	name := column("Name", models.String)
	name.Annotations = map[string]models.AnnotationValues{"Collation": {New: "latin1"}}
	migration, err := g.Generate("20150101000000_M", []models.MigrationOperation{
		&models.AlterColumnOperation{Table: "T", Column: name},
	}, "", "Target", "", "M")
	require.NoError(t, err)

	assert.Contains(t, migration.UserCode, `import (
	"example.com/collation"
	"github.com/shepherrrd/efmigrate"
)`)
	assert.Contains(t, migration.UserCode, `efmigrate.Annotation("Collation", nil, collation.Named("latin1")),`)
}

func TestGenerateDefaultValueLiterals(t *testing.T) {
	columns := []*models.ColumnModel{
		column("Double", models.Double),
		column("Single", models.Single),
		column("Whole", models.Double),
		column("Big", models.Double),
		column("When", models.DateTime),
		column("Key", models.Guid),
		column("Blob", models.Binary),
		column("Location", models.Geography),
		column("Shape", models.Geometry),
		column("Wait", models.Time),
	}
	columns[0].DefaultValue = 1.5
	columns[1].DefaultValue = float32(2.25)
	columns[2].DefaultValue = 1000.0
	columns[3].DefaultValue = 1e21
	columns[4].DefaultValue = time.Date(2024, time.March, 4, 5, 6, 7, 8, time.UTC)
	columns[5].DefaultValue = uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	columns[6].DefaultValue = []byte{1, 255}
	columns[7].DefaultValue = models.GeographyFromText("POINT (1 2)")
	columns[8].DefaultValue = models.GeometryFromText("POINT (1 2)", 27700)
	columns[9].DefaultValue = 90 * time.Second

	migration := generate(t, &models.CreateTableOperation{Name: "Defaults", Columns: columns})
	code := migration.UserCode

	for _, want := range []string{
		`efmigrate.Default(1.5)`,
		`efmigrate.Default(float32(2.25))`,
		`efmigrate.Default(1000.0)`,
		`efmigrate.Default(1e+21)`,
		`efmigrate.Default(time.Date(2024, time.March, 4, 5, 6, 7, 8, time.UTC))`,
		`efmigrate.Default(uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8"))`,
		`efmigrate.Default([]byte{0x01, 0xff})`,
		`efmigrate.Default(efmigrate.GeographyFromText("POINT (1 2)"))`,
		`efmigrate.Default(efmigrate.GeometryFromText("POINT (1 2)", 27700))`,
		`efmigrate.Default(time.Duration(90000000000))`,
	} {
		assert.Contains(t, code, want)
	}
	assert.Contains(t, code, `import (
	"time"

	"github.com/google/uuid"
	"github.com/shepherrrd/efmigrate"
)`)
	requireParses(t, code)
}

func TestGenerateIsCultureInvariant(t *testing.T) {
	price := column("Price", models.Decimal)
	price.DefaultValue = 1234.5
	migration := generate(t, &models.AddColumnOperation{Table: "Products", Column: price})

	assert.Contains(t, migration.UserCode, "efmigrate.Default(1234.5)")

	dutch := message.NewPrinter(language.Dutch).Sprint(1234.5)
	if dutch != "1234.5" {
		assert.NotContains(t, migration.UserCode, dutch)
	}
}

func TestGenerateRejectsUnrenderableDefault(t *testing.T) {
	c := column("C", models.String)
	c.DefaultValue = struct{}{}
	_, err := New().Generate("1_M", []models.MigrationOperation{&models.AddColumnOperation{Table: "T", Column: c}}, "", "Target", "", "M")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot render a value of type struct {}")
}

func TestGenerateChecksArguments(t *testing.T) {
	g := New()
	for _, tt := range []struct {
		id, target, class, param string
	}{
		{"", "T", "C", "migrationId"},
		{"1_M", " ", "C", "targetModel"},
		{"1_M", "T", "", "className"},
	} {
		_, err := g.Generate(tt.id, nil, "", tt.target, "", tt.class)
		var argErr *models.ArgumentError
		require.ErrorAs(t, err, &argErr)
		assert.Equal(t, tt.param, argErr.Param)
	}
}

func TestGenerateSourceResource(t *testing.T) {
	migration, err := New().Generate("1_M", nil, "Source", "Target", "", "M")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"Source": "Source", "Target": "Target"}, migration.Resources)
	assert.Contains(t, migration.DesignerCode, `	"Source": "Source",
	"Target": "Target",
`)

	migration, err = New().Generate("1_M", nil, "", "Target", "", "M")
	require.NoError(t, err)
	assert.NotContains(t, migration.DesignerCode, `"Source":`)
	assert.Contains(t, migration.UserCode, "package migrations\n")
}

func TestDesignerLinesStayUnderLimit(t *testing.T) {
	raw := make([]byte, 7500)
	rand.New(rand.NewSource(1)).Read(raw)
	blob := base64.StdEncoding.EncodeToString(raw)
	require.Len(t, blob, 10000)

	g := New()
	migration, err := g.Generate("20150101000000_Big", nil, blob, blob, "", "Big")
	require.NoError(t, err)

	for i, line := range strings.Split(migration.DesignerCode, "\n") {
		assert.LessOrEqual(t, len(line), DefaultMaxLineLength, "line %d", i+1)
	}
	assert.Equal(t, blob, resource(t, migration.DesignerCode, "Target"))
	assert.Equal(t, blob, resource(t, migration.DesignerCode, "Source"))
	requireParses(t, migration.DesignerCode)

	g.MaxLineLength = 80
	migration, err = g.Generate("20150101000000_Big", nil, "", blob+"\"é\\", "", "Big")
	require.NoError(t, err)
	for _, line := range strings.Split(migration.DesignerCode, "\n") {
		assert.LessOrEqual(t, len(line), 80)
	}
	assert.Equal(t, blob+"\"é\\", resource(t, migration.DesignerCode, "Target"))
	assert.Contains(t, migration.DesignerCode, `func (m *Big) ID() string { return "20150101000000_Big" }`)
}

func TestDesignerWrapsLongID(t *testing.T) {
	id := "20150101000000_" + strings.Repeat("Big", 60)
	g := New()
	g.MaxLineLength = 80

	migration, err := g.Generate(id, nil, "", "Target", "", "Big")
	require.NoError(t, err)

	for _, line := range strings.Split(migration.DesignerCode, "\n") {
		assert.LessOrEqual(t, len(line), 80, line)
	}
	assert.Contains(t, migration.DesignerCode, "func (m *Big) ID() string {\n\treturn \"20150101000000_")
	joined := strings.ReplaceAll(migration.DesignerCode, "\" +\n\t\t\"", "")
	assert.Contains(t, joined, "\treturn "+strconv.Quote(id)+"\n}")
	requireParses(t, migration.DesignerCode)
}

// resource reassembles a blob from its designer map entry.
func resource(t *testing.T, designer, key string) string {
	t.Helper()
	var b strings.Builder
	inside := false
	for _, line := range strings.Split(designer, "\n") {
		trimmed := strings.TrimSpace(line)
		if !inside {
			prefix := strconv.Quote(key) + ": "
			if !strings.HasPrefix(trimmed, prefix) {
				continue
			}
			inside = true
			trimmed = strings.TrimPrefix(trimmed, prefix)
		}
		last := strings.HasSuffix(trimmed, ",")
		trimmed = strings.TrimSuffix(strings.TrimSuffix(trimmed, " +"), ",")
		part, err := strconv.Unquote(trimmed)
		require.NoError(t, err, trimmed)
		b.WriteString(part)
		if last {
			return b.String()
		}
	}
	t.Fatalf("resource %s not found", key)
	return ""
}

func TestScrubName(t *testing.T) {
	tests := map[string]string{
		"AddCustomers": "AddCustomers",
		"1$%^&DFDSH":   "_1DFDSH",
		"while":        "while",
		"func":         "_func",
		"I.d":          "Id",
		"Ünïcödé":      "Ünïcödé",
		"a‿b":          "a_b",
		"$%":           "Migration",
		"-":            "Migration",
		"":             "Migration",
		"_":            "__",
	}
	for in, want := range tests {
		assert.Equal(t, want, ScrubName(in), in)
	}
}

func TestPackageName(t *testing.T) {
	tests := map[string]string{
		"":                        "migrations",
		"Contoso.Data.Migrations": "migrations",
		"contoso/data/Schema":     "schema",
		"Foo.ÄBC":                 "äbc",
		"Foo.Type":                "_type",
		"Contoso.$$$":             "migrations",
		"Contoso.-":               "migrations",
	}
	for in, want := range tests {
		assert.Equal(t, want, PackageName(in), in)
	}
}

func TestGenerateWithoutIdentifierCharacters(t *testing.T) {
	migration, err := New().Generate("20150101000000_$$$", nil, "", "Target", "Contoso.$$$", "$$$")
	require.NoError(t, err)

	assert.Contains(t, migration.UserCode, "package migrations\n")
	assert.Contains(t, migration.UserCode, "type Migration struct {")
	assert.Contains(t, migration.DesignerCode, "func (m *Migration) ID() string")
	assert.NotContains(t, migration.UserCode, "type _ struct")
	requireParses(t, migration.UserCode)
	requireParses(t, migration.DesignerCode)
}

func TestGenerateAllOperationsParse(t *testing.T) {
	nameColumn := column("Name", models.String)
	nameColumn.MaxLength = intPtr(128)
	nameColumn.IsUnicode = boolPtr(true)
	nameColumn.IsFixedLength = boolPtr(false)
	nameColumn.DefaultValueSQL = "''"
	nameColumn.StoreType = "nvarchar"
	stamp := column("Stamp", models.Binary)
	stamp.IsTimestamp = true

	idParam := models.NewParameterModel(models.Int32)
	idParam.Name = "Id"
	outParam := models.NewParameterModel(models.String)
	outParam.Name = "Result"
	outParam.IsOutParameter = true

	sql := &models.SqlOperation{SQL: "select '`'\r\n"}
	sql.SetArgument("Provider", "postgres")

	migration := generate(t,
		customersTable(),
		&models.AddColumnOperation{Table: "Customers", Column: nameColumn},
		&models.AlterColumnOperation{Table: "Customers", Column: stamp},
		&models.AlterTableOperation{
			Name:        "Customers",
			Columns:     []*models.ColumnModel{nameColumn},
			Annotations: map[string]models.AnnotationValues{"Comment": {Old: "a", New: "b"}},
		},
		&models.AddPrimaryKeyOperation{PrimaryKeyOperation: models.PrimaryKeyOperation{Table: "T", Columns: []string{"A", "B"}, IsClustered: false}},
		&models.DropPrimaryKeyOperation{PrimaryKeyOperation: models.PrimaryKeyOperation{Table: "T", Name: "PK_Custom"}},
		&models.CreateIndexOperation{IndexOperation: models.IndexOperation{Table: "T", Columns: []string{"A"}, Name: "IX_Custom"}, IsUnique: true, IsClustered: true},
		&models.DropIndexOperation{IndexOperation: models.IndexOperation{Table: "T", Columns: []string{"B"}}},
		&models.RenameTableOperation{Name: "dbo.T", NewName: "U"},
		&models.RenameColumnOperation{Table: "U", Name: "A", NewName: "C"},
		&models.RenameIndexOperation{Table: "U", Name: "IX_Custom", NewName: "IX_C"},
		&models.MoveTableOperation{Name: "dbo.U", NewSchema: "crm"},
		&models.CreateProcedureOperation{ProcedureOperation: models.ProcedureOperation{
			Name: "dbo.Insert", BodySQL: "insert into U values (@Id)\nselect 1", Parameters: []*models.ParameterModel{idParam, outParam},
		}},
		&models.RenameProcedureOperation{Name: "dbo.Insert", NewName: "Add"},
		&models.MoveProcedureOperation{Name: "dbo.Add", NewSchema: ""},
		sql,
	)

	requireParses(t, migration.UserCode)
	requireParses(t, migration.DesignerCode)
	for _, want := range []string{
		`c.String(efmigrate.MaxLength(128), efmigrate.FixedLength(false), efmigrate.Unicode(true), efmigrate.DefaultSQL("''"), efmigrate.StoreType("nvarchar"))`,
		`c.Binary(efmigrate.Timestamp())`,
		`efmigrate.Annotation("Comment", "a", "b"),`,
		`m.AddPrimaryKey("T", []string{"A", "B"}, efmigrate.Clustered(false))`,
		`m.DropPrimaryKey("T", efmigrate.Name("PK_Custom"))`,
		`	m.CreateIndex(
		"T",
		[]string{"A"},
		efmigrate.Name("IX_Custom"),
		efmigrate.Unique(true),
		efmigrate.Clustered(true),
	)`,
		`m.DropIndex("T", []string{"B"})`,
		`m.RenameTable("dbo.T", "U")`,
		`m.MoveTable("dbo.U", "crm")`,
		`efmigrate.Param("Result", p.String(efmigrate.Out())),`,
		"`insert into U values (@Id)\nselect 1`,",
		`m.SQL("select '` + "`" + `'\r\n", efmigrate.AnonymousArgument("Provider", "postgres"))`,
		`m.MoveStoredProcedure("Add", "dbo")`,
		`m.RenameStoredProcedure("dbo.Add", "Insert")`,
		`m.MoveTable("crm.U", "dbo")`,
		`m.DropStoredProcedure("dbo.Insert")`,
		`m.DropIndexByName("T", "IX_Custom")`,
		`efmigrate.Annotation("Comment", "b", "a"),`,
	} {
		assert.Contains(t, migration.UserCode, want)
	}
}
