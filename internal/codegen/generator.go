// Package codegen writes migrations as Go source: a user file with Up and
// Down, and a designer file with the migration's identity and model
// snapshots.
package codegen

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/shepherrrd/efmigrate/internal/annotations"
	"github.com/shepherrrd/efmigrate/internal/inverse"
	"github.com/shepherrrd/efmigrate/internal/models"
)

const (
	// ImportPath is the package generated migrations build on.
	ImportPath = "github.com/shepherrrd/efmigrate"
	qualifier  = "efmigrate."

	// DefaultMaxLineLength bounds the lines of designer files that carry
	// string literals. Declarations made only of identifiers grow with the
	// class name and are not wrapped.
	DefaultMaxLineLength = 1100
	minLineLength        = 40

	Language = "go"

	SourceResource = "Source"
	TargetResource = "Target"
)

// ScaffoldedMigration is the generated code of one migration.
type ScaffoldedMigration struct {
	MigrationID  string
	UserCode     string
	DesignerCode string
	Language     string
	// Resources holds the encoded target model and, when there is one, the
	// encoded source model.
	Resources map[string]string
}

// AnnotationRenderer renders the values of one annotation as Go
// expressions.
type AnnotationRenderer interface {
	// Imports lists the import paths the rendered expressions use.
	Imports() []string
	Render(value any) (string, error)
}

// Generator renders migrations. Register annotation renderers before
// generating; the registry is not safe for concurrent mutation.
type Generator struct {
	MaxLineLength int
	renderers     map[string]AnnotationRenderer
}

// New returns a Generator with the index annotation renderer registered.
func New() *Generator {
	g := &Generator{
		MaxLineLength: DefaultMaxLineLength,
		renderers:     make(map[string]AnnotationRenderer),
	}
	g.RegisterAnnotation(annotations.IndexAnnotationName, IndexAnnotationRenderer{})
	return g
}

// RegisterAnnotation sets the renderer for annotations called name.
func (g *Generator) RegisterAnnotation(name string, r AnnotationRenderer) {
	if g.renderers == nil {
		g.renderers = make(map[string]AnnotationRenderer)
	}
	g.renderers[name] = r
}

func (g *Generator) lineLength() int {
	switch {
	case g.MaxLineLength <= 0:
		return DefaultMaxLineLength
	case g.MaxLineLength < minLineLength:
		return minLineLength
	}
	return g.MaxLineLength
}

// Generate renders the migration id with operations ops. sourceModel may be
// empty for the first migration; an empty namespace puts the code in
// package migrations.
func (g *Generator) Generate(id string, ops []models.MigrationOperation, sourceModel, targetModel, namespace, className string) (*ScaffoldedMigration, error) {
	if err := models.CheckNotEmpty(id, "migrationId"); err != nil {
		return nil, err
	}
	if err := models.CheckNotEmpty(targetModel, "targetModel"); err != nil {
		return nil, err
	}
	if err := models.CheckNotEmpty(className, "className"); err != nil {
		return nil, err
	}

	class := ScrubName(className)
	packageName := PackageName(namespace)

	upSteps := make([]step, 0, len(ops))
	for _, op := range ops {
		if op == nil {
			return nil, &models.ArgumentError{Param: "operations", Reason: "operation is nil"}
		}
		upSteps = append(upSteps, step{op: op})
	}
	var downSteps []step
	for _, r := range inverse.All(ops) {
		downSteps = append(downSteps, step{op: r.Operation, unsupported: r.Unsupported})
	}

	up, err := g.body(upSteps)
	if err != nil {
		return nil, fmt.Errorf("failed to generate Up: %w", err)
	}
	down, err := g.body(downSteps)
	if err != nil {
		return nil, fmt.Errorf("failed to generate Down: %w", err)
	}

	resources := map[string]string{TargetResource: targetModel}
	if strings.TrimSpace(sourceModel) != "" {
		resources[SourceResource] = sourceModel
	}

	return &ScaffoldedMigration{
		MigrationID:  id,
		UserCode:     userCode(packageName, class, up, down),
		DesignerCode: g.designerCode(packageName, class, id, resources),
		Language:     Language,
		Resources:    resources,
	}, nil
}

func userCode(packageName, class string, up, down *source) string {
	imports := map[string]struct{}{ImportPath: {}}
	for p := range up.imports {
		imports[p] = struct{}{}
	}
	for p := range down.imports {
		imports[p] = struct{}{}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "package %s\n\n", packageName)
	writeImports(&b, imports)
	fmt.Fprintf(&b, "type %s struct {\n\t%sDbMigration\n}\n\n", class, qualifier)
	fmt.Fprintf(&b, "func (m *%s) Up() {\n%s}\n\n", class, up.String())
	fmt.Fprintf(&b, "func (m *%s) Down() {\n%s}\n", class, down.String())
	return b.String()
}

func (g *Generator) designerCode(packageName, class, id string, resources map[string]string) string {
	variable := resourcesVariable(class)

	var b strings.Builder
	b.WriteString("// Code generated by efmigrate. DO NOT EDIT.\n\n")
	fmt.Fprintf(&b, "package %s\n\n", packageName)
	fmt.Fprintf(&b, "import %q\n\n", ImportPath)
	fmt.Fprintf(&b, "var %s = map[string]string{\n", variable)
	for _, key := range []string{SourceResource, TargetResource} {
		if value, ok := resources[key]; ok {
			g.writeBlob(&b, key, value)
		}
	}
	b.WriteString("}\n\n")
	g.writeID(&b, class, id)
	fmt.Fprintf(&b, "func (m *%s) Source() string { return %s[%q] }\n\n", class, variable, SourceResource)
	fmt.Fprintf(&b, "func (m *%s) Target() string { return %s[%q] }\n\n", class, variable, TargetResource)
	fmt.Fprintf(&b, "func init() {\n\t%sRegister(&%s{})\n}\n", qualifier, class)
	return b.String()
}

// writeBlob writes one resource entry, split into "+"-joined string
// literals so that no line is longer than the line length.
func (g *Generator) writeBlob(b *strings.Builder, key, value string) {
	limit := g.lineLength()
	prefix := "\t" + quote(key) + ": "
	// Each line also carries the two quotes and " +" or ",".
	chunks := splitQuoted(value, limit-len(prefix)-4, limit-6)
	for i, c := range chunks {
		lead := "\t\t"
		if i == 0 {
			lead = prefix
		}
		end := " +"
		if i == len(chunks)-1 {
			end = ","
		}
		b.WriteString(lead + strconv.Quote(c) + end + "\n")
	}
}

// writeID writes the ID method, moving a long ID onto "+"-joined literals.
func (g *Generator) writeID(b *strings.Builder, class, id string) {
	limit := g.lineLength()
	line := fmt.Sprintf("func (m *%s) ID() string { return %s }", class, quote(id))
	if len(line) <= limit {
		b.WriteString(line + "\n\n")
		return
	}
	fmt.Fprintf(b, "func (m *%s) ID() string {\n", class)
	chunks := splitQuoted(id, limit-len("\treturn ")-4, limit-6)
	for i, c := range chunks {
		lead := "\t\t"
		if i == 0 {
			lead = "\treturn "
		}
		end := " +"
		if i == len(chunks)-1 {
			end = ""
		}
		b.WriteString(lead + strconv.Quote(c) + end + "\n")
	}
	b.WriteString("}\n\n")
}

// splitQuoted cuts s into pieces whose quoted form, without the quotes, is
// at most first bytes for the first piece and rest bytes for the others.
// Multi-byte characters and escapes are never split.
func splitQuoted(s string, first, rest int) []string {
	var chunks []string
	limit := first
	start, size := 0, 0
	for i := 0; i < len(s); {
		_, width := utf8.DecodeRuneInString(s[i:])
		quoted := len(strconv.Quote(s[i:i+width])) - 2
		if size > 0 && size+quoted > limit {
			chunks = append(chunks, s[start:i])
			start, size, limit = i, 0, rest
		}
		size += quoted
		i += width
	}
	return append(chunks, s[start:])
}

func resourcesVariable(class string) string {
	r, width := utf8.DecodeRuneInString(class)
	return string(unicode.ToLower(r)) + class[width:] + "Resources"
}

// IndexAnnotationRenderer renders index annotations through their
// serialized form.
type IndexAnnotationRenderer struct{}

func (IndexAnnotationRenderer) Imports() []string { return []string{ImportPath} }

func (IndexAnnotationRenderer) Render(value any) (string, error) {
	var text string
	switch v := value.(type) {
	case string:
		if _, err := annotations.ParseIndexAnnotation(v); err != nil {
			return "", err
		}
		text = v
	default:
		serialized, err := annotations.IndexSerializer{}.Serialize(annotations.IndexAnnotationName, value)
		if err != nil {
			return "", err
		}
		text = serialized
	}
	return qualifier + "MustParseIndexAnnotation(" + quote(text) + ")", nil
}
