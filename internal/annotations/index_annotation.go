package annotations

import (
	"math"
	"strings"

	"github.com/shepherrrd/efmigrate/internal/models"
)

// IndexAnnotationName is the annotation key index annotations are stored under.
const IndexAnnotationName = "Index"

// UnspecifiedOrder marks an IndexAttribute without a column order.
const UnspecifiedOrder = -1

// IndexAttribute describes one index a column takes part in. Nil IsClustered
// and IsUnique mean the flag was never configured.
type IndexAttribute struct {
	Name        string
	Order       int
	IsClustered *bool
	IsUnique    *bool
}

func NewIndexAttribute(name string) IndexAttribute {
	return IndexAttribute{Name: name, Order: UnspecifiedOrder}
}

// WithOrder returns a copy of a with the column order set. Orders are
// zero-based and must fit in 32 bits.
func (a IndexAttribute) WithOrder(order int) (IndexAttribute, error) {
	if order < 0 || order > math.MaxInt32 {
		return a, models.OutOfRange("order", order)
	}
	a.Order = order
	return a, nil
}

func (a IndexAttribute) Clustered(clustered bool) IndexAttribute {
	a.IsClustered = &clustered
	return a
}

func (a IndexAttribute) Unique(unique bool) IndexAttribute {
	a.IsUnique = &unique
	return a
}

// validate rejects attributes the parser could not read back unchanged.
func (a IndexAttribute) validate() error {
	if a.Order < UnspecifiedOrder || a.Order > math.MaxInt32 {
		return models.OutOfRange("order", a.Order)
	}
	if a.Name != "" && strings.TrimSpace(a.Name) == "" {
		return &models.ArgumentError{Param: "name", Reason: "name is whitespace only"}
	}
	if a.Name != strings.TrimSpace(a.Name) {
		return &models.ArgumentError{Param: "name", Reason: "name has leading or trailing whitespace"}
	}
	return nil
}

// IndexAnnotation is the ordered set of indexes attached to a column.
type IndexAnnotation struct {
	Indexes []IndexAttribute
}

func NewIndexAnnotation(indexes ...IndexAttribute) *IndexAnnotation {
	return &IndexAnnotation{Indexes: append([]IndexAttribute(nil), indexes...)}
}
