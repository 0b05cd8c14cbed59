package codegen

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/shepherrrd/efmigrate/internal/models"
)

// step is one statement of a method body: an operation, or a call to
// NotSupported for an operation whose inverse is unknown.
type step struct {
	op          models.MigrationOperation
	unsupported models.OperationKind
}

var builderMethods = [...]string{
	models.Binary:         "Binary",
	models.Boolean:        "Boolean",
	models.Byte:           "Byte",
	models.DateTime:       "DateTime",
	models.DateTimeOffset: "DateTimeOffset",
	models.Decimal:        "Decimal",
	models.Double:         "Double",
	models.Guid:           "Guid",
	models.Single:         "Single",
	models.Int16:          "Short",
	models.Int32:          "Int",
	models.Int64:          "Long",
	models.String:         "String",
	models.Time:           "Time",
	models.Geography:      "Geography",
	models.Geometry:       "Geometry",
}

func builderMethod(kind models.PrimitiveTypeKind) (string, error) {
	if kind < 0 || int(kind) >= len(builderMethods) {
		return "", fmt.Errorf("unknown primitive type %s", kind)
	}
	return builderMethods[kind], nil
}

// body renders steps as the statements of Up or Down.
func (g *Generator) body(steps []step) (*source, error) {
	s := newSource()
	chains, skip := planChains(steps)
	for i, st := range steps {
		if skip[i] {
			continue
		}
		if st.op == nil {
			s.call(1, "NotSupported", quote(st.unsupported.String()))
			continue
		}
		var err error
		if create, ok := st.op.(*models.CreateTableOperation); ok {
			var chained []models.MigrationOperation
			for _, j := range chains[i] {
				chained = append(chained, steps[j].op)
			}
			err = g.createTable(s, create, chained)
		} else {
			err = g.operation(s, st.op)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to render %s: %w", st.op.Kind(), err)
		}
	}
	return s, nil
}

// planChains finds the foreign keys and indexes that can be written as
// calls chained on the CreateTable of their table. The search for a table
// stops at the first operation on it that cannot be chained, including a
// foreign key whose principal table is created in between, and at raw SQL.
func planChains(steps []step) (map[int][]int, map[int]bool) {
	chains := make(map[int][]int)
	skip := make(map[int]bool)
	for i, st := range steps {
		create, ok := st.op.(*models.CreateTableOperation)
		if !ok {
			continue
		}
	scan:
		for j := i + 1; j < len(steps); j++ {
			if skip[j] {
				continue
			}
			op := steps[j].op
			if _, ok := op.(*models.SqlOperation); ok {
				break scan
			}
			if !strings.EqualFold(models.TableOf(op), create.Name) {
				continue
			}
			switch o := op.(type) {
			case *models.AddForeignKeyOperation:
				if createdBetween(steps, i, j, o.PrincipalTable) {
					break scan
				}
			case *models.CreateIndexOperation:
			default:
				break scan
			}
			chains[i] = append(chains[i], j)
			skip[j] = true
		}
	}
	return chains, skip
}

func createdBetween(steps []step, from, to int, table string) bool {
	for k := from + 1; k < to; k++ {
		if create, ok := steps[k].op.(*models.CreateTableOperation); ok && strings.EqualFold(create.Name, table) {
			return true
		}
	}
	return false
}

func (g *Generator) operation(s *source, op models.MigrationOperation) error {
	args, err := g.arguments(s, op)
	if err != nil {
		return err
	}
	switch o := op.(type) {
	case *models.DropTableOperation:
		opts, err := g.removedAnnotations(s, o.RemovedAnnotations)
		if err != nil {
			return err
		}
		columnOpts, err := g.removedColumnAnnotations(s, o.RemovedColumnAnnotations)
		if err != nil {
			return err
		}
		s.call(1, "DropTable", concat([]string{quote(o.Name)}, opts, columnOpts, args)...)
	case *models.AddColumnOperation:
		return g.columnCall(s, "AddColumn", o.Table, o.Column, args)
	case *models.AlterColumnOperation:
		return g.columnCall(s, "AlterColumn", o.Table, o.Column, args)
	case *models.DropColumnOperation:
		opts, err := g.removedAnnotations(s, o.RemovedAnnotations)
		if err != nil {
			return err
		}
		s.call(1, "DropColumn", concat([]string{quote(o.Table), quote(o.Name)}, opts, args)...)
	case *models.AlterTableOperation:
		return g.alterTable(s, o, args)
	case *models.AddPrimaryKeyOperation:
		s.call(1, "AddPrimaryKey", concat([]string{quote(o.Table), stringSlice(o.Columns)}, primaryKeyOptions(&o.PrimaryKeyOperation), args)...)
	case *models.DropPrimaryKeyOperation:
		call := []string{quote(o.Table)}
		if !o.HasDefaultName() {
			call = append(call, option("Name", quote(o.Name)))
		}
		s.call(1, "DropPrimaryKey", concat(call, args)...)
	case *models.AddForeignKeyOperation:
		var opts []string
		if o.CascadeDelete {
			opts = append(opts, option("CascadeDelete", "true"))
		}
		if !o.HasDefaultName() {
			opts = append(opts, option("Name", quote(o.Name)))
		}
		s.call(1, "AddForeignKey", concat([]string{
			quote(o.DependentTable), stringSlice(o.DependentColumns), quote(o.PrincipalTable), stringSlice(o.PrincipalColumns),
		}, opts, args)...)
	case *models.DropForeignKeyOperation:
		if !o.HasDefaultName() || len(o.DependentColumns) == 0 {
			s.call(1, "DropForeignKeyByName", concat([]string{quote(o.DependentTable), quote(o.EffectiveName())}, args)...)
			return nil
		}
		s.call(1, "DropForeignKey", concat([]string{quote(o.DependentTable), stringSlice(o.DependentColumns), quote(o.PrincipalTable)}, args)...)
	case *models.CreateIndexOperation:
		s.call(1, "CreateIndex", concat([]string{quote(o.Table), stringSlice(o.Columns)}, indexOptions(o), args)...)
	case *models.DropIndexOperation:
		if !o.HasDefaultName() || len(o.Columns) == 0 {
			s.call(1, "DropIndexByName", concat([]string{quote(o.Table), quote(o.EffectiveName())}, args)...)
			return nil
		}
		s.call(1, "DropIndex", concat([]string{quote(o.Table), stringSlice(o.Columns)}, args)...)
	case *models.RenameTableOperation:
		s.call(1, "RenameTable", concat([]string{quote(o.Name), quote(o.NewName)}, args)...)
	case *models.RenameColumnOperation:
		s.call(1, "RenameColumn", concat([]string{quote(o.Table), quote(o.Name), quote(o.NewName)}, args)...)
	case *models.RenameIndexOperation:
		s.call(1, "RenameIndex", concat([]string{quote(o.Table), quote(o.Name), quote(o.NewName)}, args)...)
	case *models.MoveTableOperation:
		s.call(1, "MoveTable", concat([]string{quote(o.Name), quote(o.NewSchema)}, args)...)
	case *models.CreateProcedureOperation:
		return g.procedure(s, "CreateStoredProcedure", &o.ProcedureOperation, args)
	case *models.AlterProcedureOperation:
		return g.procedure(s, "AlterStoredProcedure", &o.ProcedureOperation, args)
	case *models.DropProcedureOperation:
		s.call(1, "DropStoredProcedure", concat([]string{quote(o.Name)}, args)...)
	case *models.RenameProcedureOperation:
		s.call(1, "RenameStoredProcedure", concat([]string{quote(o.Name), quote(o.NewName)}, args)...)
	case *models.MoveProcedureOperation:
		s.call(1, "MoveStoredProcedure", concat([]string{quote(o.Name), quote(o.NewSchema)}, args)...)
	case *models.SqlOperation:
		call := []string{quoteBody(o.SQL)}
		if o.SuppressTransaction {
			call = append(call, option("SuppressTransaction"))
		}
		s.call(1, "SQL", concat(call, args)...)
	case *models.CreateTableOperation:
		return g.createTable(s, o, nil)
	default:
		return fmt.Errorf("unsupported operation %T", op)
	}
	return nil
}

func (g *Generator) createTable(s *source, create *models.CreateTableOperation, chained []models.MigrationOperation) error {
	properties := propertyNames(create.Columns)
	resolve := func(columns []string) []string {
		resolved := make([]string, len(columns))
		for i, c := range columns {
			if p, ok := properties[c]; ok {
				resolved[i] = p
			} else {
				resolved[i] = c
			}
		}
		return resolved
	}

	s.linef(1, "m.CreateTable(")
	s.linef(2, "%s,", quote(create.Name))
	if err := g.columns(s, 2, create.Columns, properties); err != nil {
		return err
	}
	for _, k := range sortedKeys(create.Annotations) {
		value, err := g.annotationValue(s, k, create.Annotations[k])
		if err != nil {
			return err
		}
		s.linef(2, "%s,", option("TableAnnotation", quote(k), value))
	}
	args, err := g.arguments(s, create)
	if err != nil {
		return err
	}
	for _, a := range args {
		s.linef(2, "%s,", a)
	}

	var calls []string
	if pk := create.PrimaryKey; pk != nil {
		pkArgs, err := g.arguments(s, pk)
		if err != nil {
			return err
		}
		calls = append(calls, chain("PrimaryKey", concat([]string{stringSlice(resolve(pk.Columns))}, primaryKeyOptions(&pk.PrimaryKeyOperation), pkArgs)))
	}
	for _, op := range chained {
		opArgs, err := g.arguments(s, op)
		if err != nil {
			return err
		}
		switch o := op.(type) {
		case *models.AddForeignKeyOperation:
			var opts []string
			if len(o.PrincipalColumns) > 0 {
				opts = append(opts, option("PrincipalColumns", quoteAll(o.PrincipalColumns)...))
			}
			if o.CascadeDelete {
				opts = append(opts, option("CascadeDelete", "true"))
			}
			// The default name is derived from the dependent table, which
			// the chained call takes from CreateTable.
			if !o.HasDefaultName() || o.DependentTable != create.Name {
				opts = append(opts, option("Name", quote(o.EffectiveName())))
			}
			calls = append(calls, chain("ForeignKey", concat([]string{quote(o.PrincipalTable), stringSlice(resolve(o.DependentColumns))}, opts, opArgs)))
		case *models.CreateIndexOperation:
			calls = append(calls, chain("Index", concat([]string{stringSlice(resolve(o.Columns))}, indexOptions(o), opArgs)))
		}
	}

	if len(calls) == 0 {
		s.linef(1, ")")
		return nil
	}
	s.linef(1, ").")
	for i, c := range calls {
		if i < len(calls)-1 {
			c += "."
		}
		s.linef(2, "%s", c)
	}
	return nil
}

func (g *Generator) alterTable(s *source, alter *models.AlterTableOperation, args []string) error {
	s.linef(1, "m.AlterTableAnnotations(")
	s.linef(2, "%s,", quote(alter.Name))
	if err := g.columns(s, 2, alter.Columns, propertyNames(alter.Columns)); err != nil {
		return err
	}
	for _, k := range sortedKeys(alter.Annotations) {
		pair, err := g.annotationPair(s, k, alter.Annotations[k])
		if err != nil {
			return err
		}
		s.linef(2, "%s,", pair)
	}
	for _, a := range args {
		s.linef(2, "%s,", a)
	}
	s.linef(1, ")")
	return nil
}

// columns writes the func literal that builds a table's columns.
func (g *Generator) columns(s *source, indent int, columns []*models.ColumnModel, properties map[string]string) error {
	s.linef(indent, "func(c *%sColumnBuilder) []%sColumn {", qualifier, qualifier)
	if len(columns) == 0 {
		s.linef(indent+1, "return nil")
		s.linef(indent, "},")
		return nil
	}
	s.linef(indent+1, "return []%sColumn{", qualifier)
	for _, c := range columns {
		property := properties[c.Name]
		method, opts, multiline, err := g.column(s, c, property != c.Name)
		if err != nil {
			return err
		}
		if !multiline {
			s.linef(indent+2, "%sCol(%s, c.%s(%s)),", qualifier, quote(property), method, strings.Join(opts, ", "))
			continue
		}
		s.linef(indent+2, "%sCol(%s, c.%s(", qualifier, quote(property), method)
		for _, o := range opts {
			s.linef(indent+3, "%s,", o)
		}
		s.linef(indent+2, ")),")
	}
	s.linef(indent+1, "}")
	s.linef(indent, "},")
	return nil
}

// columnCall writes AddColumn or AlterColumn with its column func literal.
func (g *Generator) columnCall(s *source, method, table string, column *models.ColumnModel, args []string) error {
	if column == nil {
		return fmt.Errorf("%s on %s has no column", method, table)
	}
	builder, opts, multiline, err := g.column(s, column, false)
	if err != nil {
		return err
	}
	s.linef(1, "m.%s(%s, %s, func(c *%sColumnBuilder) *%sColumnModel {", method, quote(table), quote(column.Name), qualifier, qualifier)
	if multiline {
		s.linef(2, "return c.%s(", builder)
		for _, o := range opts {
			s.linef(3, "%s,", o)
		}
		s.linef(2, ")")
	} else {
		s.linef(2, "return c.%s(%s)", builder, strings.Join(opts, ", "))
	}
	if len(args) == 0 {
		s.linef(1, "})")
	} else {
		s.linef(1, "}, %s)", strings.Join(args, ", "))
	}
	return nil
}

// column returns the builder method and options for a column. Columns with
// annotations are written one option per line.
func (g *Generator) column(s *source, c *models.ColumnModel, withName bool) (string, []string, bool, error) {
	method, err := builderMethod(c.Type)
	if err != nil {
		return "", nil, false, err
	}
	var opts []string
	if withName {
		opts = append(opts, option("Name", quote(c.Name)))
	}
	if c.IsNullable != nil {
		opts = append(opts, option("Nullable", strconv.FormatBool(*c.IsNullable)))
	}
	facets, err := g.facets(s, &c.PropertyModel, c.IsIdentity)
	if err != nil {
		return "", nil, false, err
	}
	opts = append(opts, facets...)
	if c.IsTimestamp {
		opts = append(opts, option("Timestamp"))
	}
	if c.StoreType != "" {
		opts = append(opts, option("StoreType", quote(c.StoreType)))
	}
	for _, k := range sortedKeys(c.Annotations) {
		pair, err := g.annotationPair(s, k, c.Annotations[k])
		if err != nil {
			return "", nil, false, err
		}
		opts = append(opts, pair)
	}
	return method, opts, len(c.Annotations) > 0, nil
}

// facets renders the options shared by columns and parameters, in the order
// MaxLength, Precision, Scale, FixedLength, Unicode, Identity, Default,
// DefaultSQL.
func (g *Generator) facets(s *source, p *models.PropertyModel, identity bool) ([]string, error) {
	var opts []string
	if p.MaxLength != nil {
		opts = append(opts, option("MaxLength", strconv.Itoa(*p.MaxLength)))
	}
	if p.Precision != nil {
		opts = append(opts, option("Precision", strconv.Itoa(int(*p.Precision))))
	}
	if p.Scale != nil {
		opts = append(opts, option("Scale", strconv.Itoa(int(*p.Scale))))
	}
	if p.IsFixedLength != nil {
		opts = append(opts, option("FixedLength", strconv.FormatBool(*p.IsFixedLength)))
	}
	if p.IsUnicode != nil {
		opts = append(opts, option("Unicode", strconv.FormatBool(*p.IsUnicode)))
	}
	if identity {
		opts = append(opts, option("Identity"))
	}
	if p.DefaultValue != nil {
		value, err := literal(s, p.DefaultValue)
		if err != nil {
			return nil, fmt.Errorf("default value of %s: %w", p.Name, err)
		}
		opts = append(opts, option("Default", value))
	}
	if p.DefaultValueSQL != "" {
		opts = append(opts, option("DefaultSQL", quote(p.DefaultValueSQL)))
	}
	return opts, nil
}

func (g *Generator) procedure(s *source, method string, p *models.ProcedureOperation, args []string) error {
	s.linef(1, "m.%s(", method)
	s.linef(2, "%s,", quote(p.Name))
	if len(p.Parameters) == 0 {
		s.linef(2, "nil,")
	} else {
		s.linef(2, "func(p *%sParameterBuilder) []%sParameter {", qualifier, qualifier)
		s.linef(3, "return []%sParameter{", qualifier)
		seen := make(map[string]bool)
		for _, param := range p.Parameters {
			builder, err := builderMethod(param.Type)
			if err != nil {
				return err
			}
			property := uniqueProperty(param.Name, seen)
			var opts []string
			if property != param.Name {
				opts = append(opts, option("Name", quote(param.Name)))
			}
			facets, err := g.facets(s, &param.PropertyModel, false)
			if err != nil {
				return err
			}
			opts = append(opts, facets...)
			if param.StoreType != "" {
				opts = append(opts, option("StoreType", quote(param.StoreType)))
			}
			if param.IsOutParameter {
				opts = append(opts, option("Out"))
			}
			s.linef(4, "%sParam(%s, p.%s(%s)),", qualifier, quote(property), builder, strings.Join(opts, ", "))
		}
		s.linef(3, "}")
		s.linef(2, "},")
	}
	s.linef(2, "%s,", quoteBody(p.BodySQL))
	for _, a := range args {
		s.linef(2, "%s,", a)
	}
	s.linef(1, ")")
	return nil
}

// annotationPair renders an Annotation option for an old/new pair.
func (g *Generator) annotationPair(s *source, name string, values models.AnnotationValues) (string, error) {
	oldValue, err := g.annotationValue(s, name, values.Old)
	if err != nil {
		return "", err
	}
	newValue, err := g.annotationValue(s, name, values.New)
	if err != nil {
		return "", err
	}
	return option("Annotation", quote(name), oldValue, newValue), nil
}

func (g *Generator) annotationValue(s *source, name string, value any) (string, error) {
	if value == nil {
		return "nil", nil
	}
	if r, ok := g.renderers[name]; ok {
		s.use(r.Imports()...)
		rendered, err := r.Render(value)
		if err != nil {
			return "", fmt.Errorf("failed to render annotation %s: %w", name, err)
		}
		return rendered, nil
	}
	rendered, err := literal(s, value)
	if err != nil {
		return "", fmt.Errorf("failed to render annotation %s: %w", name, err)
	}
	return rendered, nil
}

func (g *Generator) removedAnnotations(s *source, annotations map[string]any) ([]string, error) {
	var opts []string
	for _, k := range sortedKeys(annotations) {
		value, err := g.annotationValue(s, k, annotations[k])
		if err != nil {
			return nil, err
		}
		opts = append(opts, option("RemovedAnnotation", quote(k), value))
	}
	return opts, nil
}

func (g *Generator) removedColumnAnnotations(s *source, annotations map[string]map[string]any) ([]string, error) {
	var opts []string
	for _, column := range sortedKeys(annotations) {
		for _, k := range sortedKeys(annotations[column]) {
			value, err := g.annotationValue(s, k, annotations[column][k])
			if err != nil {
				return nil, err
			}
			opts = append(opts, option("RemovedColumnAnnotation", quote(column), quote(k), value))
		}
	}
	return opts, nil
}

// arguments renders the anonymous arguments of op.
func (g *Generator) arguments(s *source, op models.MigrationOperation) ([]string, error) {
	var opts []string
	arguments := op.Arguments()
	for _, k := range sortedKeys(arguments) {
		value, err := literal(s, arguments[k])
		if err != nil {
			return nil, fmt.Errorf("argument %s: %w", k, err)
		}
		opts = append(opts, option("AnonymousArgument", quote(k), value))
	}
	return opts, nil
}

func primaryKeyOptions(pk *models.PrimaryKeyOperation) []string {
	var opts []string
	if !pk.HasDefaultName() {
		opts = append(opts, option("Name", quote(pk.Name)))
	}
	if !pk.IsClustered {
		opts = append(opts, option("Clustered", "false"))
	}
	return opts
}

func indexOptions(ix *models.CreateIndexOperation) []string {
	var opts []string
	if !ix.HasDefaultName() {
		opts = append(opts, option("Name", quote(ix.Name)))
	}
	if ix.IsUnique {
		opts = append(opts, option("Unique", "true"))
	}
	if ix.IsClustered {
		opts = append(opts, option("Clustered", "true"))
	}
	return opts
}

// propertyNames maps column names to unique scrubbed property names.
func propertyNames(columns []*models.ColumnModel) map[string]string {
	properties := make(map[string]string, len(columns))
	seen := make(map[string]bool, len(columns))
	for _, c := range columns {
		properties[c.Name] = uniqueProperty(c.Name, seen)
	}
	return properties
}

func uniqueProperty(name string, seen map[string]bool) string {
	base := ScrubName(name)
	property := base
	for i := 1; seen[property]; i++ {
		property = base + strconv.Itoa(i)
	}
	seen[property] = true
	return property
}

func option(name string, args ...string) string {
	return qualifier + name + "(" + strings.Join(args, ", ") + ")"
}

func chain(method string, args []string) string {
	return method + "(" + strings.Join(args, ", ") + ")"
}

func concat(parts ...[]string) []string {
	var all []string
	for _, p := range parts {
		all = append(all, p...)
	}
	return all
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
