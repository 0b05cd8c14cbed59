package migrations

import "github.com/shepherrrd/efmigrate/internal/models"

// Option configures a column, parameter, key, index or operation while it
// is being built. Options that do not apply to a call are ignored.
type Option func(*options)

type options struct {
	name                     string
	nullable                 *bool
	identity                 bool
	maxLength                *int
	fixedLength              *bool
	unicode                  *bool
	precision                *uint8
	scale                    *uint8
	timestamp                bool
	defaultValue             any
	defaultSQL               string
	storeType                string
	out                      bool
	clustered                *bool
	unique                   bool
	cascadeDelete            bool
	principalColumns         []string
	withIndex                bool
	suppressTransaction      bool
	annotations              map[string]models.AnnotationValues
	tableAnnotations         map[string]any
	removedAnnotations       map[string]any
	removedColumnAnnotations map[string]map[string]any
	arguments                map[string]any
	err                      error
}

func collect(opts []Option) *options {
	o := &options{}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o
}

func (o *options) fail(err error) {
	if o.err == nil {
		o.err = err
	}
}

func (o *options) applyProperty(p *models.PropertyModel) {
	if o.name != "" {
		p.Name = o.name
	}
	p.MaxLength = o.maxLength
	p.IsFixedLength = o.fixedLength
	p.IsUnicode = o.unicode
	p.Precision = o.precision
	p.Scale = o.scale
	p.DefaultValue = o.defaultValue
	p.DefaultValueSQL = o.defaultSQL
	p.StoreType = o.storeType
}

func (o *options) applyColumn(c *models.ColumnModel) {
	o.applyProperty(&c.PropertyModel)
	c.IsNullable = o.nullable
	c.IsIdentity = o.identity
	c.IsTimestamp = o.timestamp
	if len(o.annotations) > 0 {
		c.Annotations = o.annotations
	}
}

func (o *options) applyArguments(op models.MigrationOperation) {
	for k, v := range o.arguments {
		op.SetArgument(k, v)
	}
}

// Name sets an explicit column, parameter, key or index name.
func Name(name string) Option {
	return func(o *options) {
		if err := models.CheckNotEmpty(name, "name"); err != nil {
			o.fail(err)
			return
		}
		o.name = name
	}
}

func Nullable(nullable bool) Option {
	return func(o *options) { o.nullable = &nullable }
}

func Identity() Option {
	return func(o *options) { o.identity = true }
}

func MaxLength(n int) Option {
	return func(o *options) {
		if n <= 0 {
			o.fail(models.OutOfRange("maxLength", n))
			return
		}
		o.maxLength = &n
	}
}

func FixedLength(fixed bool) Option {
	return func(o *options) { o.fixedLength = &fixed }
}

func Unicode(unicode bool) Option {
	return func(o *options) { o.unicode = &unicode }
}

func Precision(p int) Option {
	return func(o *options) {
		v, err := facet("precision", p)
		if err != nil {
			o.fail(err)
			return
		}
		o.precision = &v
	}
}

func Scale(s int) Option {
	return func(o *options) {
		v, err := facet("scale", s)
		if err != nil {
			o.fail(err)
			return
		}
		o.scale = &v
	}
}

func facet(param string, n int) (uint8, error) {
	if n < 0 || n > 255 {
		return 0, models.OutOfRange(param, n)
	}
	return uint8(n), nil
}

// Timestamp marks a binary column as a row version.
func Timestamp() Option {
	return func(o *options) { o.timestamp = true }
}

func Default(value any) Option {
	return func(o *options) { o.defaultValue = value }
}

func DefaultSQL(sql string) Option {
	return func(o *options) { o.defaultSQL = sql }
}

func StoreType(storeType string) Option {
	return func(o *options) { o.storeType = storeType }
}

// Out marks a stored procedure parameter as an output parameter.
func Out() Option {
	return func(o *options) { o.out = true }
}

func Clustered(clustered bool) Option {
	return func(o *options) { o.clustered = &clustered }
}

func Unique(unique bool) Option {
	return func(o *options) { o.unique = unique }
}

func CascadeDelete(cascade bool) Option {
	return func(o *options) { o.cascadeDelete = cascade }
}

// PrincipalColumns names the referenced columns of a foreign key. Without
// it the key references the principal table's primary key.
func PrincipalColumns(columns ...string) Option {
	return func(o *options) { o.principalColumns = append([]string(nil), columns...) }
}

// WithIndex makes AddForeignKey also create an index over the dependent
// columns.
func WithIndex() Option {
	return func(o *options) { o.withIndex = true }
}

func SuppressTransaction() Option {
	return func(o *options) { o.suppressTransaction = true }
}

// Annotation adds an old/new annotation pair to a column or, for
// AlterTableAnnotations, to the table.
func Annotation(name string, oldValue, newValue any) Option {
	return func(o *options) {
		if err := models.CheckNotEmpty(name, "annotationName"); err != nil {
			o.fail(err)
			return
		}
		if o.annotations == nil {
			o.annotations = make(map[string]models.AnnotationValues)
		}
		o.annotations[name] = models.AnnotationValues{Old: oldValue, New: newValue}
	}
}

// TableAnnotation adds an annotation to a table being created.
func TableAnnotation(name string, value any) Option {
	return func(o *options) {
		if err := models.CheckNotEmpty(name, "annotationName"); err != nil {
			o.fail(err)
			return
		}
		if o.tableAnnotations == nil {
			o.tableAnnotations = make(map[string]any)
		}
		o.tableAnnotations[name] = value
	}
}

// RemovedAnnotation records an annotation dropped with a table or column.
func RemovedAnnotation(name string, value any) Option {
	return func(o *options) {
		if err := models.CheckNotEmpty(name, "annotationName"); err != nil {
			o.fail(err)
			return
		}
		if o.removedAnnotations == nil {
			o.removedAnnotations = make(map[string]any)
		}
		o.removedAnnotations[name] = value
	}
}

// RemovedColumnAnnotation records an annotation of a column dropped with its
// table.
func RemovedColumnAnnotation(column, name string, value any) Option {
	return func(o *options) {
		if err := models.CheckNotEmpty(column, "columnName"); err != nil {
			o.fail(err)
			return
		}
		if err := models.CheckNotEmpty(name, "annotationName"); err != nil {
			o.fail(err)
			return
		}
		if o.removedColumnAnnotations == nil {
			o.removedColumnAnnotations = make(map[string]map[string]any)
		}
		if o.removedColumnAnnotations[column] == nil {
			o.removedColumnAnnotations[column] = make(map[string]any)
		}
		o.removedColumnAnnotations[column][name] = value
	}
}

// AnonymousArgument attaches a provider-specific argument to the operation.
func AnonymousArgument(key string, value any) Option {
	return func(o *options) {
		if err := models.CheckNotEmpty(key, "key"); err != nil {
			o.fail(err)
			return
		}
		if o.arguments == nil {
			o.arguments = make(map[string]any)
		}
		o.arguments[key] = value
	}
}
