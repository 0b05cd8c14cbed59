// Package discovery finds scaffolded migrations on disk without compiling
// them.
package discovery

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/afero"
)

// DesignerSuffix ends the file names of generated designer files.
const DesignerSuffix = ".designer.go"

// MigrationInfo describes a migration found in a designer file
type MigrationInfo struct {
	ID          string
	TypeName    string
	PackageName string
	FilePath    string
	// Resources holds the model blobs of the designer's resource map
	Resources map[string]string
}

// MigrationScanner scans designer files for migration types
type MigrationScanner struct {
	fs afero.Fs
}

// NewMigrationScanner creates a scanner reading from fs
func NewMigrationScanner(fs afero.Fs) *MigrationScanner {
	return &MigrationScanner{fs: fs}
}

// Scan walks dir and returns the migrations it finds, sorted by ID. A
// missing dir holds no migrations.
func (ms *MigrationScanner) Scan(dir string) ([]MigrationInfo, error) {
	var migrations []MigrationInfo

	exists, err := afero.DirExists(ms.fs, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", dir, err)
	}
	if !exists {
		return nil, nil
	}

	err = afero.Walk(ms.fs, dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		// Only designer files carry the identity of a migration
		if info.IsDir() || !strings.HasSuffix(path, DesignerSuffix) {
			return nil
		}

		src, err := afero.ReadFile(ms.fs, path)
		if err != nil {
			return err
		}
		fset := token.NewFileSet()
		file, err := parser.ParseFile(fset, path, src, 0)
		if err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}

		migrations = append(migrations, ms.findMigrationsInFile(file, path)...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", dir, err)
	}

	sort.Slice(migrations, func(i, j int) bool { return migrations[i].ID < migrations[j].ID })
	return migrations, nil
}

// Last returns the migration with the greatest ID in dir, or nil
func (ms *MigrationScanner) Last(dir string) (*MigrationInfo, error) {
	migrations, err := ms.Scan(dir)
	if err != nil {
		return nil, err
	}
	if len(migrations) == 0 {
		return nil, nil
	}
	return &migrations[len(migrations)-1], nil
}

// findMigrationsInFile finds types with an ID method returning a string
// literal
func (ms *MigrationScanner) findMigrationsInFile(file *ast.File, filePath string) []MigrationInfo {
	var migrations []MigrationInfo
	resources := resourceMaps(file)

	for _, decl := range file.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if !ok || fn.Name.Name != "ID" || fn.Recv == nil || len(fn.Recv.List) != 1 {
			continue
		}
		id, ok := returnedString(fn)
		if !ok {
			continue
		}
		migrations = append(migrations, MigrationInfo{
			ID:          id,
			TypeName:    receiverName(fn.Recv.List[0].Type),
			PackageName: file.Name.Name,
			FilePath:    filePath,
			Resources:   resources,
		})
	}
	return migrations
}

// returnedString reports the literal of a body that is a single return
func returnedString(fn *ast.FuncDecl) (string, bool) {
	if fn.Body == nil || len(fn.Body.List) != 1 {
		return "", false
	}
	ret, ok := fn.Body.List[0].(*ast.ReturnStmt)
	if !ok || len(ret.Results) != 1 {
		return "", false
	}
	return stringValue(ret.Results[0])
}

func receiverName(expr ast.Expr) string {
	if star, ok := expr.(*ast.StarExpr); ok {
		expr = star.X
	}
	if ident, ok := expr.(*ast.Ident); ok {
		return ident.Name
	}
	return ""
}

// resourceMaps collects the entries of package-level map[string]string
// literals
func resourceMaps(file *ast.File) map[string]string {
	resources := make(map[string]string)
	for _, decl := range file.Decls {
		gen, ok := decl.(*ast.GenDecl)
		if !ok || gen.Tok != token.VAR {
			continue
		}
		for _, spec := range gen.Specs {
			for _, value := range spec.(*ast.ValueSpec).Values {
				lit, ok := value.(*ast.CompositeLit)
				if !ok {
					continue
				}
				if _, ok := lit.Type.(*ast.MapType); !ok {
					continue
				}
				for _, elt := range lit.Elts {
					kv, ok := elt.(*ast.KeyValueExpr)
					if !ok {
						continue
					}
					key, okKey := stringValue(kv.Key)
					val, okVal := stringValue(kv.Value)
					if okKey && okVal {
						resources[key] = val
					}
				}
			}
		}
	}
	return resources
}

// stringValue evaluates a string literal or a "+" concatenation of them
func stringValue(expr ast.Expr) (string, bool) {
	switch e := expr.(type) {
	case *ast.BasicLit:
		if e.Kind != token.STRING {
			return "", false
		}
		s, err := strconv.Unquote(e.Value)
		return s, err == nil
	case *ast.BinaryExpr:
		if e.Op != token.ADD {
			return "", false
		}
		left, ok := stringValue(e.X)
		if !ok {
			return "", false
		}
		right, ok := stringValue(e.Y)
		if !ok {
			return "", false
		}
		return left + right, true
	case *ast.ParenExpr:
		return stringValue(e.X)
	}
	return "", false
}
