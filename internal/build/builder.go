package build

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/Rana718/sqlir/internal/config"
	"github.com/Rana718/sqlir/internal/database"
	"github.com/Rana718/sqlir/internal/migrator"
	"github.com/Rana718/sqlir/internal/parser"
	"github.com/Rana718/sqlir/internal/plugin"
	"github.com/Rana718/sqlir/internal/plugin/golang"
	"github.com/Rana718/sqlir/internal/resolver"
	"github.com/Rana718/sqlir/internal/schema"
	"github.com/Rana718/sqlir/internal/types"
	"github.com/Rana718/sqlir/internal/utils"
)

// OpenFunc connects to the configured database.
type OpenFunc func(ctx context.Context, cfg config.Database) (database.Introspector, error)

// Builder runs the whole pipeline for one config: migrate, introspect,
// resolve queries, generate.
type Builder struct {
	cfg     *config.Config
	printer *utils.Printer
	open    OpenFunc
	builtin plugin.Module
}

func NewBuilder(cfg *config.Config, printer *utils.Printer) *Builder {
	return &Builder{
		cfg:     cfg,
		printer: printer,
		open:    database.Open,
		builtin: golang.New(),
	}
}

// WithOpen replaces how the database is opened.
func (b *Builder) WithOpen(open OpenFunc) *Builder {
	b.open = open
	return b
}

// Result summarizes a finished build.
type Result struct {
	Migrations int
	Queries    int
	Files      []string
	Duration   time.Duration
}

// Run performs one build. The database is closed on every path out and a
// failure to close it fails the build.
func (b *Builder) Run(ctx context.Context) (result *Result, err error) {
	start := time.Now()

	db, err := b.open(ctx, b.cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			result, err = nil, errors.Join(err, fmt.Errorf("failed to close database: %w", cerr))
		}
	}()

	migrations, err := migrator.NewMigrator(db, b.printer).Apply(ctx, b.cfg.MigrationPatterns())
	if err != nil {
		return nil, err
	}

	catalog, queries, err := b.Compile(ctx, db)
	if err != nil {
		return nil, err
	}

	files, err := b.generate(ctx, catalog, queries)
	if err != nil {
		return nil, err
	}

	return &Result{
		Migrations: migrations,
		Queries:    len(queries),
		Files:      files,
		Duration:   time.Since(start),
	}, nil
}

// Compile reads the catalog from a migrated database and resolves every
// exported statement against it.
func (b *Builder) Compile(ctx context.Context, db database.Introspector) (*types.Catalog, []types.Query, error) {
	typeCatalog := resolver.NewTypeCatalog()
	if err := typeCatalog.Load(ctx, db); err != nil {
		return nil, nil, err
	}

	extractor := schema.NewExtractor(db)
	catalog, err := extractor.Extract(ctx)
	if err != nil {
		return nil, nil, err
	}
	overrides, err := b.cfg.Codegen.EnumOverrides()
	if err != nil {
		return nil, nil, err
	}
	if err := extractor.ApplyEnums(ctx, catalog, overrides); err != nil {
		return nil, nil, err
	}
	schema.ExcludeModels(catalog, b.cfg.Codegen.ExcludeModels)

	raws, err := parser.NewCollector().Collect(b.cfg.QueryPatterns())
	if err != nil {
		return nil, nil, err
	}

	r := resolver.New(db, typeCatalog)
	queries := make([]types.Query, 0, len(raws))
	for _, raw := range raws {
		if !parser.IsExported(parser.ParseAnnotations(&raw)) {
			continue
		}
		query, err := r.Resolve(ctx, raw)
		if err != nil {
			return nil, nil, err
		}
		queries = append(queries, *query)
	}
	return catalog, queries, nil
}

func (b *Builder) generate(ctx context.Context, catalog *types.Catalog, queries []types.Query) (files []string, err error) {
	cacheDir := ""
	if !b.cfg.DisableCache {
		cacheDir = filepath.Join(b.cfg.PluginCacheDir(), "compiled")
	}
	engine, err := plugin.NewWasmEngine(ctx, cacheDir)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := engine.Close(ctx); cerr != nil {
			files, err = nil, errors.Join(err, fmt.Errorf("failed to close generator runtime: %w", cerr))
		}
	}()

	host := plugin.NewHost(plugin.NewLoader(b.cfg, b.printer), engine, b.builtin, b.printer)
	return host.Generate(ctx, b.cfg.Codegen, b.cfg.OutDir(), catalog, queries)
}
