package migrations

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/spf13/afero"
)

// SQLFile runs the SQL in a file. The file is read when SQLFile is called;
// a relative path is resolved against BaseDir.
func (m *DbMigration) SQLFile(path string, opts ...Option) {
	if !m.require(path, "sqlFile") {
		return
	}
	fsys := m.FS
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	if m.BaseDir != "" && !filepath.IsAbs(path) {
		path = filepath.Join(m.BaseDir, path)
	}
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		m.fail(fmt.Errorf("failed to read sql file %s: %w", path, err))
		return
	}
	m.SQL(string(data), opts...)
}

// SQLResource runs the SQL stored under name in resources, typically an
// embed.FS. A nil resources falls back to the migration's Resources.
func (m *DbMigration) SQLResource(name string, resources fs.FS, opts ...Option) {
	if !m.require(name, "sqlResource") {
		return
	}
	if resources == nil {
		resources = m.Resources
	}
	if resources == nil {
		m.fail(fmt.Errorf("resource %q not found: %w", name, fs.ErrNotExist))
		return
	}
	data, err := afero.ReadFile(afero.FromIOFS{FS: resources}, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			m.fail(fmt.Errorf("resource %q not found: %w", name, err))
		} else {
			m.fail(fmt.Errorf("failed to read resource %q: %w", name, err))
		}
		return
	}
	m.SQL(string(data), opts...)
}
