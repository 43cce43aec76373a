package migrator

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/Rana718/sqlir/internal/resolver"
	"github.com/Rana718/sqlir/internal/utils"
)

// Migration is one migration file.
type Migration struct {
	Name string
	Path string
	Up   string
}

// Executor runs a script of one or more statements.
type Executor interface {
	Execute(ctx context.Context, sql string) error
}

// Migrator applies migration files to a scratch database so the catalog can
// be read back from it. Nothing is recorded: every build starts over.
type Migrator struct {
	db      Executor
	files   utils.FileUtils
	printer *utils.Printer
}

// NewMigrator creates a new migrator instance
func NewMigrator(db Executor, printer *utils.Printer) *Migrator {
	return &Migrator{db: db, printer: printer}
}

// Load reads the migrations matched by patterns, sorted by path.
func (m *Migrator) Load(patterns []string) ([]Migration, error) {
	files, err := m.files.ReadFiles(patterns)
	if err != nil {
		return nil, err
	}

	migrations := make([]Migration, 0, len(files))
	for _, file := range files {
		migrations = append(migrations, Migration{
			Name: strings.TrimSuffix(filepath.Base(file.Path), filepath.Ext(file.Path)),
			Path: file.Path,
			Up:   file.Content,
		})
	}
	return migrations, nil
}

// Apply runs every migration matched by patterns in path order, one file per
// round trip. The first failure stops it and is reported against the file.
func (m *Migrator) Apply(ctx context.Context, patterns []string) (int, error) {
	migrations, err := m.Load(patterns)
	if err != nil {
		return 0, err
	}

	for i, migration := range migrations {
		if strings.TrimSpace(migration.Up) == "" {
			continue
		}
		m.printer.Info("  applying %s", migration.Name)
		if err := m.db.Execute(ctx, migration.Up); err != nil {
			return i, resolver.NewDatabaseError(migration.Path, 1, migration.Up, migration.Up, nil, err)
		}
	}
	return len(migrations), nil
}
