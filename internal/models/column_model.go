package models

import (
	"fmt"
	"strings"
)

// PrimitiveTypeKind is the store-independent type of a column or parameter.
type PrimitiveTypeKind int

const (
	Binary PrimitiveTypeKind = iota
	Boolean
	Byte
	DateTime
	DateTimeOffset
	Decimal
	Double
	Guid
	Single
	Int16
	Int32
	Int64
	String
	Time
	Geography
	Geometry
)

var primitiveTypeNames = [...]string{
	Binary:         "Binary",
	Boolean:        "Boolean",
	Byte:           "Byte",
	DateTime:       "DateTime",
	DateTimeOffset: "DateTimeOffset",
	Decimal:        "Decimal",
	Double:         "Double",
	Guid:           "Guid",
	Single:         "Single",
	Int16:          "Int16",
	Int32:          "Int32",
	Int64:          "Int64",
	String:         "String",
	Time:           "Time",
	Geography:      "Geography",
	Geometry:       "Geometry",
}

func (k PrimitiveTypeKind) String() string {
	if k >= 0 && int(k) < len(primitiveTypeNames) {
		return primitiveTypeNames[k]
	}
	return fmt.Sprintf("PrimitiveTypeKind(%d)", int(k))
}

func (k PrimitiveTypeKind) MarshalText() ([]byte, error) {
	if k < 0 || int(k) >= len(primitiveTypeNames) {
		return nil, fmt.Errorf("unknown primitive type %d", int(k))
	}
	return []byte(primitiveTypeNames[k]), nil
}

func (k *PrimitiveTypeKind) UnmarshalText(text []byte) error {
	kind, err := ParsePrimitiveTypeKind(string(text))
	if err != nil {
		return err
	}
	*k = kind
	return nil
}

// ParsePrimitiveTypeKind parses a type name case-insensitively. "Int" and
// "Short"/"Long" are accepted for Int32, Int16 and Int64.
func ParsePrimitiveTypeKind(name string) (PrimitiveTypeKind, error) {
	trimmed := strings.TrimSpace(name)
	for i, n := range primitiveTypeNames {
		if strings.EqualFold(n, trimmed) {
			return PrimitiveTypeKind(i), nil
		}
	}
	switch strings.ToLower(trimmed) {
	case "int":
		return Int32, nil
	case "short":
		return Int16, nil
	case "long":
		return Int64, nil
	case "bool":
		return Boolean, nil
	case "float":
		return Single, nil
	}
	return 0, fmt.Errorf("unknown primitive type %q", name)
}

// AnnotationValues is the old and new value of an annotation in an
// alter-style change. A nil Old means the annotation is being added; a nil New
// means it is being removed.
type AnnotationValues struct {
	Old any
	New any
}

// PropertyModel holds the facets shared by columns and procedure parameters.
type PropertyModel struct {
	Type            PrimitiveTypeKind
	Name            string
	MaxLength       *int
	Precision       *uint8
	Scale           *uint8
	IsFixedLength   *bool
	IsUnicode       *bool
	DefaultValue    any
	DefaultValueSQL string
	StoreType       string
}

type ColumnModel struct {
	PropertyModel
	IsNullable  *bool
	IsIdentity  bool
	IsTimestamp bool
	Annotations map[string]AnnotationValues
}

func NewColumnModel(kind PrimitiveTypeKind) *ColumnModel {
	return &ColumnModel{PropertyModel: PropertyModel{Type: kind}}
}

// Nullable reports the effective nullability; an unset value is nullable.
func (c *ColumnModel) Nullable() bool {
	return c.IsNullable == nil || *c.IsNullable
}

// Clone returns a copy that shares no maps or pointers with c.
func (c *ColumnModel) Clone() *ColumnModel {
	if c == nil {
		return nil
	}
	clone := *c
	clone.MaxLength = clonePtr(c.MaxLength)
	clone.Precision = clonePtr(c.Precision)
	clone.Scale = clonePtr(c.Scale)
	clone.IsFixedLength = clonePtr(c.IsFixedLength)
	clone.IsUnicode = clonePtr(c.IsUnicode)
	clone.IsNullable = clonePtr(c.IsNullable)
	if c.Annotations != nil {
		clone.Annotations = make(map[string]AnnotationValues, len(c.Annotations))
		for k, v := range c.Annotations {
			clone.Annotations[k] = v
		}
	}
	return &clone
}

type ParameterModel struct {
	PropertyModel
	IsOutParameter bool
}

func NewParameterModel(kind PrimitiveTypeKind) *ParameterModel {
	return &ParameterModel{PropertyModel: PropertyModel{Type: kind}}
}

// SpatialValue is a geography or geometry literal in well-known text form.
type SpatialValue struct {
	Kind          PrimitiveTypeKind
	WellKnownText string
	SRID          int
}

const (
	DefaultGeographySRID = 4326
	DefaultGeometrySRID  = 0
)

func GeographyFromText(wkt string, srid ...int) SpatialValue {
	v := SpatialValue{Kind: Geography, WellKnownText: wkt, SRID: DefaultGeographySRID}
	if len(srid) > 0 {
		v.SRID = srid[0]
	}
	return v
}

func GeometryFromText(wkt string, srid ...int) SpatialValue {
	v := SpatialValue{Kind: Geometry, WellKnownText: wkt, SRID: DefaultGeometrySRID}
	if len(srid) > 0 {
		v.SRID = srid[0]
	}
	return v
}

func (v SpatialValue) String() string {
	return fmt.Sprintf("SRID=%d;%s", v.SRID, v.WellKnownText)
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
