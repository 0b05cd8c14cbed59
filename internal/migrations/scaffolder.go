package migrations

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/shepherrrd/efmigrate/internal/codegen"
	"github.com/shepherrrd/efmigrate/internal/discovery"
	"github.com/shepherrrd/efmigrate/internal/models"
)

// Scaffolder writes new migrations as Go source files.
type Scaffolder struct {
	FS        afero.Fs
	Dir       string
	Namespace string
	Generator *codegen.Generator
	Logger    *slog.Logger
	// Now stamps migration IDs.
	Now func() time.Time
}

func NewScaffolder(fs afero.Fs, dir, namespace string) *Scaffolder {
	return &Scaffolder{
		FS:        fs,
		Dir:       dir,
		Namespace: namespace,
		Generator: codegen.New(),
		Logger:    slog.Default(),
		Now:       time.Now,
	}
}

// ScaffoldResult is a migration written to disk.
type ScaffoldResult struct {
	*codegen.ScaffoldedMigration
	UserFile     string
	DesignerFile string
}

// LastModel returns the target model of the newest scaffolded migration and
// its encoded form, or an empty model and "" when there is none.
func (s *Scaffolder) LastModel() (*models.ModelSnapshot, string, error) {
	last, err := discovery.NewMigrationScanner(s.FS).Last(s.Dir)
	if err != nil {
		return nil, "", err
	}
	if last == nil {
		return models.NewModelSnapshot(), "", nil
	}
	blob := last.Resources[codegen.TargetResource]
	if blob == "" {
		return nil, "", fmt.Errorf("migration %s has no target model", last.ID)
	}
	snapshot, err := models.DecodeSnapshot(blob)
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode the model of %s: %w", last.ID, err)
	}
	return snapshot, blob, nil
}

// Add scaffolds a migration named name that runs ops. The target model is
// the last scaffolded model with ops applied.
func (s *Scaffolder) Add(name string, ops []models.MigrationOperation) (*ScaffoldResult, error) {
	if err := models.CheckNotEmpty(name, "name"); err != nil {
		return nil, err
	}
	source, sourceBlob, err := s.LastModel()
	if err != nil {
		return nil, err
	}
	target := source.Clone()
	target.Apply(ops...)
	return s.write(name, ops, sourceBlob, target)
}

// AddFromModel scaffolds the operations that turn the last scaffolded model
// into desired. It returns nil when the models do not differ.
func (s *Scaffolder) AddFromModel(name string, desired *models.ModelSnapshot) (*ScaffoldResult, error) {
	if err := models.CheckNotEmpty(name, "name"); err != nil {
		return nil, err
	}
	source, sourceBlob, err := s.LastModel()
	if err != nil {
		return nil, err
	}
	ops := desired.Compare(source)
	if len(ops) == 0 {
		s.logger().Info("no model changes", "name", name)
		return nil, nil
	}
	return s.write(name, ops, sourceBlob, desired)
}

func (s *Scaffolder) write(name string, ops []models.MigrationOperation, sourceBlob string, target *models.ModelSnapshot) (*ScaffoldResult, error) {
	targetBlob, err := target.Encode()
	if err != nil {
		return nil, fmt.Errorf("failed to encode target model: %w", err)
	}

	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	class := codegen.ScrubName(name)
	if err := s.checkNameFree(class); err != nil {
		return nil, err
	}
	id := NewID(class, now())

	generator := s.Generator
	if generator == nil {
		generator = codegen.New()
	}
	scaffolded, err := generator.Generate(id, ops, sourceBlob, targetBlob, s.Namespace, class)
	if err != nil {
		return nil, fmt.Errorf("failed to generate migration %s: %w", id, err)
	}

	if err := s.FS.MkdirAll(s.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", s.Dir, err)
	}
	result := &ScaffoldResult{
		ScaffoldedMigration: scaffolded,
		UserFile:            filepath.Join(s.Dir, id+".go"),
		DesignerFile:        filepath.Join(s.Dir, id+discovery.DesignerSuffix),
	}
	if err := afero.WriteFile(s.FS, result.UserFile, []byte(scaffolded.UserCode), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", result.UserFile, err)
	}
	if err := afero.WriteFile(s.FS, result.DesignerFile, []byte(scaffolded.DesignerCode), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", result.DesignerFile, err)
	}

	s.logger().Info("scaffolded migration", "migration_id", id, "user_file", result.UserFile, "designer_file", result.DesignerFile)
	return result, nil
}

// checkNameFree fails when a scaffolded migration already uses class as its
// type or name.
func (s *Scaffolder) checkNameFree(class string) error {
	existing, err := discovery.NewMigrationScanner(s.FS).Scan(s.Dir)
	if err != nil {
		return err
	}
	for _, m := range existing {
		if strings.EqualFold(m.TypeName, class) || strings.EqualFold(NameOf(m.ID), class) {
			return &models.ArgumentError{
				Param:  "name",
				Reason: fmt.Sprintf("migration name %q is already used by %s", class, m.ID),
			}
		}
	}
	return nil
}

func (s *Scaffolder) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

// RemoveLast deletes the files of the newest scaffolded migration and
// returns it, or nil when there is none.
func (s *Scaffolder) RemoveLast() (*discovery.MigrationInfo, error) {
	last, err := discovery.NewMigrationScanner(s.FS).Last(s.Dir)
	if err != nil || last == nil {
		return nil, err
	}
	userFile := strings.TrimSuffix(last.FilePath, discovery.DesignerSuffix) + ".go"
	for _, path := range []string{userFile, last.FilePath} {
		if err := s.FS.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to remove %s: %w", path, err)
		}
	}
	s.logger().Info("removed migration", "migration_id", last.ID)
	return last, nil
}
