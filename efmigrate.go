// Package efmigrate builds, scaffolds and applies schema migrations.
//
// Migrations embed DbMigration and describe their schema changes in Up and
// Down. Scaffolded designer files register them with Register, and a
// project binary that imports its migrations package and calls Execute gets
// the efmigrate command line.
package efmigrate

import (
	"github.com/shepherrrd/efmigrate/internal/annotations"
	"github.com/shepherrrd/efmigrate/internal/cli"
	"github.com/shepherrrd/efmigrate/internal/codegen"
	"github.com/shepherrrd/efmigrate/internal/drivers"
	"github.com/shepherrrd/efmigrate/internal/history"
	"github.com/shepherrrd/efmigrate/internal/migrations"
	"github.com/shepherrrd/efmigrate/internal/models"
)

type (
	DbMigration      = migrations.DbMigration
	Migration        = migrations.Migration
	Migrator         = migrations.Migrator
	MigratorOption   = migrations.MigratorOption
	Registry         = migrations.Registry
	TableBuilder     = migrations.TableBuilder
	ColumnBuilder    = migrations.ColumnBuilder
	Column           = migrations.Column
	ParameterBuilder = migrations.ParameterBuilder
	Parameter        = migrations.Parameter
	Option           = migrations.Option

	ColumnModel        = models.ColumnModel
	ParameterModel     = models.ParameterModel
	MigrationOperation = models.MigrationOperation
	ModelSnapshot      = models.ModelSnapshot
	SpatialValue       = models.SpatialValue

	IndexAnnotation     = annotations.IndexAnnotation
	ScaffoldedMigration = codegen.ScaffoldedMigration
	HistoryOptions      = history.Options
)

// InitialDatabase is the Update target that reverts every migration.
const InitialDatabase = migrations.InitialDatabase

func Col(property string, model *ColumnModel) Column { return migrations.Col(property, model) }

func Param(property string, model *ParameterModel) Parameter {
	return migrations.Param(property, model)
}

func Name(name string) Option { return migrations.Name(name) }
func Nullable(nullable bool) Option { return migrations.Nullable(nullable) }
func Identity() Option { return migrations.Identity() }
func MaxLength(n int) Option { return migrations.MaxLength(n) }
func FixedLength(fixed bool) Option { return migrations.FixedLength(fixed) }
func Unicode(unicode bool) Option { return migrations.Unicode(unicode) }
func Precision(p int) Option { return migrations.Precision(p) }
func Scale(s int) Option { return migrations.Scale(s) }
func Timestamp() Option { return migrations.Timestamp() }
func Default(value any) Option { return migrations.Default(value) }
func DefaultSQL(sql string) Option { return migrations.DefaultSQL(sql) }
func StoreType(storeType string) Option { return migrations.StoreType(storeType) }
func Out() Option { return migrations.Out() }
func Clustered(clustered bool) Option { return migrations.Clustered(clustered) }
func Unique(unique bool) Option { return migrations.Unique(unique) }
func CascadeDelete(cascade bool) Option { return migrations.CascadeDelete(cascade) }
func WithIndex() Option { return migrations.WithIndex() }
func SuppressTransaction() Option { return migrations.SuppressTransaction() }
func PrincipalColumns(columns ...string) Option {
	return migrations.PrincipalColumns(columns...)
}

func Annotation(name string, oldValue, newValue any) Option {
	return migrations.Annotation(name, oldValue, newValue)
}

func TableAnnotation(name string, value any) Option {
	return migrations.TableAnnotation(name, value)
}

func RemovedAnnotation(name string, value any) Option {
	return migrations.RemovedAnnotation(name, value)
}

func RemovedColumnAnnotation(column, name string, value any) Option {
	return migrations.RemovedColumnAnnotation(column, name, value)
}

func AnonymousArgument(key string, value any) Option {
	return migrations.AnonymousArgument(key, value)
}

// GeographyFromText is a geography default value in well-known text. The SRID
// defaults to 4326.
func GeographyFromText(wkt string, srid ...int) SpatialValue {
	return models.GeographyFromText(wkt, srid...)
}

// GeometryFromText is a geometry default value in well-known text. The SRID
// defaults to 0.
func GeometryFromText(wkt string, srid ...int) SpatialValue {
	return models.GeometryFromText(wkt, srid...)
}

// MustParseIndexAnnotation decodes a serialized index annotation and panics
// on malformed input. Generated code uses it for index annotation values.
func MustParseIndexAnnotation(value string) *IndexAnnotation {
	return annotations.MustParseIndexAnnotation(value)
}

// Register adds m to the migrations Execute and NewMigrator use. Generated
// designer files call it from init.
func Register(m Migration) { migrations.Register(m) }

// RegisterEntity adds T to the model migration add diffs against when no
// model file is given.
func RegisterEntity[T any]() {
	var zero T
	migrations.RegisterEntity(zero)
}

// Registered returns the registered migrations sorted by ID.
func Registered() []Migration { return migrations.Registered() }

// Generate renders the user and designer source of a migration.
func Generate(id string, ops []MigrationOperation, sourceModel, targetModel, namespace, className string) (*ScaffoldedMigration, error) {
	return codegen.New().Generate(id, ops, sourceModel, targetModel, namespace, className)
}

// Open connects to a database with the named driver (postgres, mysql or
// sqlite) and returns a Migrator over the registered migrations.
func Open(connectionString, driverName string, opts ...MigratorOption) (*Migrator, func() error, error) {
	driver, err := drivers.ByName(driverName)
	if err != nil {
		return nil, nil, err
	}
	h, err := history.Open(HistoryOptions{ConnectionString: connectionString, Driver: driver})
	if err != nil {
		return nil, nil, err
	}
	return migrations.NewMigrator(h, opts...), h.Close, nil
}

func WithRegistry(r *Registry) MigratorOption { return migrations.WithRegistry(r) }

func NewRegistry() *Registry { return migrations.NewRegistry() }

// Execute runs the efmigrate command line against the registered migrations.
func Execute() error { return cli.Execute() }
