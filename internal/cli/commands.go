package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/shepherrrd/efmigrate/internal/discovery"
	"github.com/shepherrrd/efmigrate/internal/migrations"
	"github.com/shepherrrd/efmigrate/internal/models"
)

func (a *app) runMigrationAdd(_ context.Context, _ *cobra.Command, args []string) error {
	name := args[0]
	a.printf("🔄 Adding migration: %s\n", name)

	scaffolder := a.newScaffolder()
	modelPath := a.cfg.Model
	var (
		result *migrations.ScaffoldResult
		err    error
	)
	switch {
	case modelPath != "":
		desired, rerr := a.readModel(modelPath)
		if rerr != nil {
			return rerr
		}
		result, err = scaffolder.AddFromModel(name, desired)
	case len(a.entities) > 0:
		desired, rerr := models.SnapshotFromEntities(a.entities...)
		if rerr != nil {
			return rerr
		}
		result, err = scaffolder.AddFromModel(name, desired)
	default:
		result, err = scaffolder.Add(name, nil)
	}
	if err != nil {
		return fmt.Errorf("failed to add migration: %w", err)
	}
	if result == nil {
		a.printf("✅ No model changes since the last migration\n")
		return nil
	}

	a.printf("✅ Migration '%s' added successfully!\n", result.MigrationID)
	a.printf("📁 Files created:\n")
	a.printf("   • %s\n", result.UserFile)
	a.printf("   • %s\n", result.DesignerFile)
	return nil
}

func (a *app) runMigrationList(ctx context.Context, _ *cobra.Command, _ []string) error {
	a.printf("📋 Listing migrations...\n")

	infos, err := discovery.NewMigrationScanner(a.fs).Scan(a.cfg.MigrationsDir)
	if err != nil {
		return err
	}

	// Status is only known when the database is reachable.
	var applied map[string]bool
	if h, err := a.openHistory(); err == nil {
		defer h.Close()
		rows, err := a.newMigrator(h).Applied(ctx)
		if err != nil {
			return err
		}
		applied = make(map[string]bool, len(rows))
		for _, row := range rows {
			applied[row.MigrationID] = true
		}
	} else {
		a.logger.Warn("migration status unavailable", "error", err)
	}

	t := table.NewWriter()
	t.SetOutputMirror(a.out)
	t.AppendHeader(table.Row{"Migration", "Name", "Type", "Status"})
	for _, info := range infos {
		status := "Unknown"
		if applied != nil {
			status = "Pending"
			if applied[info.ID] {
				status = "Applied"
			}
		}
		t.AppendRow(table.Row{info.ID, migrations.NameOf(info.ID), info.TypeName, status})
	}
	t.Render()
	return nil
}

func (a *app) runMigrationRemove(ctx context.Context, _ *cobra.Command, _ []string) error {
	a.printf("🗑️  Removing last migration...\n")

	scaffolder := a.newScaffolder()
	last, err := discovery.NewMigrationScanner(a.fs).Last(a.cfg.MigrationsDir)
	if err != nil {
		return err
	}
	if last == nil {
		a.printf("✅ No migrations to remove\n")
		return nil
	}
	if h, err := a.openHistory(); err == nil {
		defer h.Close()
		rows, err := a.newMigrator(h).Applied(ctx)
		if err != nil {
			return err
		}
		for _, row := range rows {
			if row.MigrationID == last.ID {
				return fmt.Errorf("migration %s is applied; roll it back first", last.ID)
			}
		}
	}

	removed, err := scaffolder.RemoveLast()
	if err != nil {
		return err
	}
	a.printf("✅ Migration '%s' removed successfully!\n", removed.ID)
	return nil
}

func (a *app) runDatabaseUpdate(ctx context.Context, _ *cobra.Command, args []string) error {
	target := ""
	if len(args) == 1 {
		target = args[0]
	}
	a.printf("🔄 Updating database...\n")

	h, err := a.openHistory()
	if err != nil {
		return err
	}
	defer h.Close()

	done, err := a.newMigrator(h).Update(ctx, target)
	for _, id := range done {
		a.printf("   • %s\n", id)
	}
	if err != nil {
		return fmt.Errorf("failed to update database: %w", err)
	}
	if len(done) == 0 {
		a.printf("✅ Database is already up to date\n")
		return nil
	}
	a.printf("✅ Database updated successfully!\n")
	return nil
}

func (a *app) runDatabaseRollback(ctx context.Context, cmd *cobra.Command, _ []string) error {
	steps, err := cmd.Flags().GetInt("steps")
	if err != nil {
		return err
	}
	a.printf("↩️  Rolling back %d migration(s)...\n", steps)

	h, err := a.openHistory()
	if err != nil {
		return err
	}
	defer h.Close()

	reverted, err := a.newMigrator(h).Rollback(ctx, steps)
	for _, id := range reverted {
		a.printf("   • %s\n", id)
	}
	if err != nil {
		return fmt.Errorf("failed to roll back database: %w", err)
	}
	a.printf("✅ Rolled back %d migration(s) successfully!\n", len(reverted))
	return nil
}

func (a *app) runDatabaseScript(ctx context.Context, cmd *cobra.Command, args []string) error {
	target := ""
	if len(args) == 1 {
		target = args[0]
	}
	output, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	h, err := a.openHistory()
	if err != nil {
		return err
	}
	defer h.Close()

	script, err := a.newMigrator(h).Script(ctx, target)
	if err != nil {
		return fmt.Errorf("failed to script migrations: %w", err)
	}
	if output == "" {
		a.printf("%s", script)
		return nil
	}
	if err := a.fs.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(output), err)
	}
	if err := afero.WriteFile(a.fs, output, []byte(script), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", output, err)
	}
	a.printf("✅ Script written to %s\n", output)
	return nil
}

func (a *app) runDatabaseHistory(ctx context.Context, _ *cobra.Command, _ []string) error {
	h, err := a.openHistory()
	if err != nil {
		return err
	}
	defer h.Close()

	rows, err := a.newMigrator(h).Applied(ctx)
	if err != nil {
		return err
	}

	t := table.NewWriter()
	t.SetOutputMirror(a.out)
	t.AppendHeader(table.Row{"Migration", "Product Version", "Batch", "Applied At"})
	for _, row := range rows {
		t.AppendRow(table.Row{row.MigrationID, row.ProductVersion, row.BatchID, row.AppliedAt.Format("2006-01-02 15:04:05")})
	}
	t.Render()
	return nil
}
