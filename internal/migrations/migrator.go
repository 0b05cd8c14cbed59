package migrations

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shepherrrd/efmigrate/internal/history"
	"github.com/shepherrrd/efmigrate/internal/sqlgen"
)

// InitialDatabase is the Update target that reverts every migration.
const InitialDatabase = "0"

// Migrator applies and reverts registered migrations against the database of
// a history context.
type Migrator struct {
	history  *history.Context
	registry *Registry
	sql      *sqlgen.Generator
	logger   *slog.Logger
}

type MigratorOption func(*Migrator)

// WithRegistry sets the migrations to apply. The default is the registry
// generated designer files register with.
func WithRegistry(r *Registry) MigratorOption {
	return func(m *Migrator) { m.registry = r }
}

func WithLogger(l *slog.Logger) MigratorOption {
	return func(m *Migrator) { m.logger = l }
}

func NewMigrator(h *history.Context, opts ...MigratorOption) *Migrator {
	m := &Migrator{
		history:  h,
		registry: defaultRegistry,
		sql:      sqlgen.New(h.Driver()),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Applied returns the history rows of applied migrations, oldest first.
func (m *Migrator) Applied(ctx context.Context) ([]history.Row, error) {
	if err := m.history.EnsureCreated(ctx); err != nil {
		return nil, err
	}
	return m.history.Applied(ctx)
}

// Pending returns the registered migrations that have not been applied.
func (m *Migrator) Pending(ctx context.Context) ([]Migration, error) {
	applied, err := m.appliedSet(ctx)
	if err != nil {
		return nil, err
	}
	var pending []Migration
	for _, mig := range m.registry.All() {
		if !applied[mig.ID()] {
			pending = append(pending, mig)
		}
	}
	return pending, nil
}

func (m *Migrator) appliedSet(ctx context.Context) (map[string]bool, error) {
	rows, err := m.Applied(ctx)
	if err != nil {
		return nil, err
	}
	set := make(map[string]bool, len(rows))
	for _, r := range rows {
		set[r.MigrationID] = true
	}
	return set, nil
}

// resolve finds the registered migration a target names, by full ID or by
// name. The empty target is the latest migration.
func (m *Migrator) resolve(target string) (string, error) {
	all := m.registry.All()
	switch target {
	case "":
		if len(all) == 0 {
			return "", nil
		}
		return all[len(all)-1].ID(), nil
	case InitialDatabase:
		return "", nil
	}
	var match string
	for _, mig := range all {
		if mig.ID() == target {
			return target, nil
		}
		if strings.EqualFold(NameOf(mig.ID()), target) {
			if match != "" {
				return "", fmt.Errorf("migration name %q is ambiguous", target)
			}
			match = mig.ID()
		}
	}
	if match == "" {
		return "", fmt.Errorf("migration %q not found", target)
	}
	return match, nil
}

// plan returns the migrations to revert, newest first, and to apply, oldest
// first, to bring the database to target.
func (m *Migrator) plan(ctx context.Context, target string) (revert []history.Row, apply []Migration, err error) {
	targetID, err := m.resolve(target)
	if err != nil {
		return nil, nil, err
	}
	rows, err := m.Applied(ctx)
	if err != nil {
		return nil, nil, err
	}
	applied := make(map[string]bool, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		applied[rows[i].MigrationID] = true
		// The latest target only ever applies.
		if target != "" && rows[i].MigrationID > targetID {
			revert = append(revert, rows[i])
		}
	}
	if target == "" && targetID == "" {
		return nil, nil, nil
	}
	for _, mig := range m.registry.All() {
		if mig.ID() <= targetID && !applied[mig.ID()] {
			apply = append(apply, mig)
		}
	}
	return revert, apply, nil
}

// Update brings the database to target: pending migrations up to and
// including target are applied and applied migrations after it are
// reverted. It returns the IDs it applied or reverted, in order.
func (m *Migrator) Update(ctx context.Context, target string) ([]string, error) {
	revert, apply, err := m.plan(ctx, target)
	if err != nil {
		return nil, err
	}
	batch := uuid.NewString()
	var done []string
	for _, row := range revert {
		if err := m.revert(ctx, row.MigrationID, batch); err != nil {
			return done, err
		}
		done = append(done, row.MigrationID)
	}
	for _, mig := range apply {
		if err := m.apply(ctx, mig, batch); err != nil {
			return done, err
		}
		done = append(done, mig.ID())
	}
	return done, nil
}

// Rollback reverts the last steps applied migrations.
func (m *Migrator) Rollback(ctx context.Context, steps int) ([]string, error) {
	if steps <= 0 {
		return nil, fmt.Errorf("steps must be positive, got %d", steps)
	}
	rows, err := m.Applied(ctx)
	if err != nil {
		return nil, err
	}
	batch := uuid.NewString()
	var reverted []string
	for i := len(rows) - 1; i >= 0 && len(reverted) < steps; i-- {
		if err := m.revert(ctx, rows[i].MigrationID, batch); err != nil {
			return reverted, err
		}
		reverted = append(reverted, rows[i].MigrationID)
	}
	return reverted, nil
}

// Script returns the SQL Update would run for target, history changes
// included, without touching the schema.
func (m *Migrator) Script(ctx context.Context, target string) (string, error) {
	revert, apply, err := m.plan(ctx, target)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, row := range revert {
		mig, ok := m.registry.Get(row.MigrationID)
		if !ok {
			return "", fmt.Errorf("applied migration %s is not registered", row.MigrationID)
		}
		statements, err := m.statements(mig, false)
		if err != nil {
			return "", err
		}
		writeScript(&b, "Revert "+mig.ID(), statements)
		fmt.Fprintf(&b, "DELETE FROM %s WHERE %s = %s AND %s = %s;\n\n",
			m.history.Driver().Quote(history.TableName),
			m.history.Driver().QuoteIdentifier("MigrationId"), quoteLiteral(mig.ID()),
			m.history.Driver().QuoteIdentifier("ContextKey"), quoteLiteral(m.history.ContextKey()))
	}
	for _, mig := range apply {
		statements, err := m.statements(mig, true)
		if err != nil {
			return "", err
		}
		writeScript(&b, "Apply "+mig.ID(), statements)
		b.WriteString(m.history.InsertSQL(history.Row{MigrationID: mig.ID(), Model: mig.Target()}))
		b.WriteString(";\n\n")
	}
	return b.String(), nil
}

func writeScript(b *strings.Builder, title string, statements []sqlgen.Statement) {
	fmt.Fprintf(b, "-- %s\n", title)
	for _, s := range statements {
		b.WriteString(s.SQL)
		b.WriteString(";\n")
	}
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// statements runs Up or Down of mig and translates the operations.
func (m *Migrator) statements(mig Migration, up bool) ([]sqlgen.Statement, error) {
	mig.Reset()
	if up {
		mig.Up()
	} else {
		mig.Down()
	}
	if err := mig.Err(); err != nil {
		return nil, fmt.Errorf("failed to build migration %s: %w", mig.ID(), err)
	}
	statements, err := m.sql.Generate(mig.Operations())
	if err != nil {
		return nil, fmt.Errorf("failed to generate sql for migration %s: %w", mig.ID(), err)
	}
	return statements, nil
}

func (m *Migrator) apply(ctx context.Context, mig Migration, batch string) error {
	statements, err := m.statements(mig, true)
	if err != nil {
		return err
	}
	err = m.run(ctx, statements, func(tx *gorm.DB) error {
		return m.history.Record(tx, history.Row{MigrationID: mig.ID(), Model: mig.Target(), BatchID: batch})
	})
	if err != nil {
		return fmt.Errorf("failed to apply migration %s: %w", mig.ID(), err)
	}
	m.logger.Info("applied migration", "migration_id", mig.ID(), "batch", batch, "statements", len(statements))
	return nil
}

func (m *Migrator) revert(ctx context.Context, id, batch string) error {
	mig, ok := m.registry.Get(id)
	if !ok {
		return fmt.Errorf("applied migration %s is not registered", id)
	}
	statements, err := m.statements(mig, false)
	if err != nil {
		return err
	}
	err = m.run(ctx, statements, func(tx *gorm.DB) error {
		return m.history.Forget(tx, id)
	})
	if err != nil {
		return fmt.Errorf("failed to revert migration %s: %w", id, err)
	}
	m.logger.Info("reverted migration", "migration_id", id, "batch", batch, "statements", len(statements))
	return nil
}

// run executes statements followed by the history change in one
// transaction, or one by one when a statement suppresses transactions.
func (m *Migrator) run(ctx context.Context, statements []sqlgen.Statement, record func(tx *gorm.DB) error) error {
	work := func(tx *gorm.DB) error {
		for _, s := range statements {
			if err := tx.Exec(s.SQL).Error; err != nil {
				return fmt.Errorf("failed to execute %q: %w", s.SQL, err)
			}
		}
		return record(tx)
	}

	transactional := m.history.Driver().SupportsTransactions()
	for _, s := range statements {
		if s.SuppressTransaction {
			transactional = false
		}
	}
	if !transactional {
		return work(m.history.DB().WithContext(ctx))
	}
	return m.history.Transaction(ctx, work)
}
