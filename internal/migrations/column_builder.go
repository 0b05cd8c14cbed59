package migrations

import "github.com/shepherrrd/efmigrate/internal/models"

// Column pairs a property name used in key and index expressions with the
// column model it describes. The column name defaults to the property name.
type Column struct {
	Property string
	Model    *models.ColumnModel
}

func Col(property string, model *models.ColumnModel) Column {
	return Column{Property: property, Model: model}
}

// ColumnBuilder creates column models inside AddColumn, AlterColumn,
// CreateTable and AlterTableAnnotations callbacks.
type ColumnBuilder struct {
	err error
}

func (b *ColumnBuilder) build(kind models.PrimitiveTypeKind, opts []Option) *models.ColumnModel {
	o := collect(opts)
	if o.err != nil && b.err == nil {
		b.err = o.err
	}
	column := models.NewColumnModel(kind)
	o.applyColumn(column)
	return column
}

func (b *ColumnBuilder) Binary(opts ...Option) *models.ColumnModel {
	return b.build(models.Binary, opts)
}

func (b *ColumnBuilder) Boolean(opts ...Option) *models.ColumnModel {
	return b.build(models.Boolean, opts)
}

func (b *ColumnBuilder) Byte(opts ...Option) *models.ColumnModel {
	return b.build(models.Byte, opts)
}

func (b *ColumnBuilder) DateTime(opts ...Option) *models.ColumnModel {
	return b.build(models.DateTime, opts)
}

func (b *ColumnBuilder) DateTimeOffset(opts ...Option) *models.ColumnModel {
	return b.build(models.DateTimeOffset, opts)
}

func (b *ColumnBuilder) Decimal(opts ...Option) *models.ColumnModel {
	return b.build(models.Decimal, opts)
}

func (b *ColumnBuilder) Double(opts ...Option) *models.ColumnModel {
	return b.build(models.Double, opts)
}

func (b *ColumnBuilder) Guid(opts ...Option) *models.ColumnModel {
	return b.build(models.Guid, opts)
}

func (b *ColumnBuilder) Single(opts ...Option) *models.ColumnModel {
	return b.build(models.Single, opts)
}

func (b *ColumnBuilder) Short(opts ...Option) *models.ColumnModel {
	return b.build(models.Int16, opts)
}

func (b *ColumnBuilder) Int(opts ...Option) *models.ColumnModel {
	return b.build(models.Int32, opts)
}

func (b *ColumnBuilder) Long(opts ...Option) *models.ColumnModel {
	return b.build(models.Int64, opts)
}

func (b *ColumnBuilder) String(opts ...Option) *models.ColumnModel {
	return b.build(models.String, opts)
}

func (b *ColumnBuilder) Time(opts ...Option) *models.ColumnModel {
	return b.build(models.Time, opts)
}

func (b *ColumnBuilder) Geography(opts ...Option) *models.ColumnModel {
	return b.build(models.Geography, opts)
}

func (b *ColumnBuilder) Geometry(opts ...Option) *models.ColumnModel {
	return b.build(models.Geometry, opts)
}

// Parameter pairs a property name with a stored procedure parameter model.
type Parameter struct {
	Property string
	Model    *models.ParameterModel
}

func Param(property string, model *models.ParameterModel) Parameter {
	return Parameter{Property: property, Model: model}
}

// ParameterBuilder creates parameter models for stored procedures.
type ParameterBuilder struct {
	err error
}

func (b *ParameterBuilder) build(kind models.PrimitiveTypeKind, opts []Option) *models.ParameterModel {
	o := collect(opts)
	if o.err != nil && b.err == nil {
		b.err = o.err
	}
	parameter := models.NewParameterModel(kind)
	o.applyProperty(&parameter.PropertyModel)
	parameter.IsOutParameter = o.out
	return parameter
}

func (b *ParameterBuilder) Binary(opts ...Option) *models.ParameterModel {
	return b.build(models.Binary, opts)
}

func (b *ParameterBuilder) Boolean(opts ...Option) *models.ParameterModel {
	return b.build(models.Boolean, opts)
}

func (b *ParameterBuilder) Byte(opts ...Option) *models.ParameterModel {
	return b.build(models.Byte, opts)
}

func (b *ParameterBuilder) DateTime(opts ...Option) *models.ParameterModel {
	return b.build(models.DateTime, opts)
}

func (b *ParameterBuilder) DateTimeOffset(opts ...Option) *models.ParameterModel {
	return b.build(models.DateTimeOffset, opts)
}

func (b *ParameterBuilder) Decimal(opts ...Option) *models.ParameterModel {
	return b.build(models.Decimal, opts)
}

func (b *ParameterBuilder) Double(opts ...Option) *models.ParameterModel {
	return b.build(models.Double, opts)
}

func (b *ParameterBuilder) Guid(opts ...Option) *models.ParameterModel {
	return b.build(models.Guid, opts)
}

func (b *ParameterBuilder) Single(opts ...Option) *models.ParameterModel {
	return b.build(models.Single, opts)
}

func (b *ParameterBuilder) Short(opts ...Option) *models.ParameterModel {
	return b.build(models.Int16, opts)
}

func (b *ParameterBuilder) Int(opts ...Option) *models.ParameterModel {
	return b.build(models.Int32, opts)
}

func (b *ParameterBuilder) Long(opts ...Option) *models.ParameterModel {
	return b.build(models.Int64, opts)
}

func (b *ParameterBuilder) String(opts ...Option) *models.ParameterModel {
	return b.build(models.String, opts)
}

func (b *ParameterBuilder) Time(opts ...Option) *models.ParameterModel {
	return b.build(models.Time, opts)
}

func (b *ParameterBuilder) Geography(opts ...Option) *models.ParameterModel {
	return b.build(models.Geography, opts)
}

func (b *ParameterBuilder) Geometry(opts ...Option) *models.ParameterModel {
	return b.build(models.Geometry, opts)
}
