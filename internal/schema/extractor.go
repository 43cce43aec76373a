package schema

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/Rana718/sqlir/internal/config"
	"github.com/Rana718/sqlir/internal/database/common"
	"github.com/Rana718/sqlir/internal/types"
)

const defaultSchema = "public"

type Querier interface {
	Query(ctx context.Context, sql string, args ...interface{}) (*common.QueryResult, error)
}

// Extractor reads the catalog of the database migrations were applied to.
type Extractor struct {
	db Querier
	qb squirrel.StatementBuilderType
}

func NewExtractor(db Querier) *Extractor {
	return &Extractor{
		db: db,
		qb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Extract runs the catalog query. Schemas, enums and models come back
// sorted by name and columns in table order.
func (e *Extractor) Extract(ctx context.Context) (*types.Catalog, error) {
	result, err := e.db.Query(ctx, catalogQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to extract catalog: %w", err)
	}
	if len(result.Rows) != 1 {
		return nil, fmt.Errorf("failed to extract catalog: expected one row, got %d", len(result.Rows))
	}

	raw, ok := result.Rows[0]["result"].(string)
	if !ok {
		return nil, fmt.Errorf("failed to extract catalog: unexpected result %T", result.Rows[0]["result"])
	}

	var catalog types.Catalog
	if err := json.Unmarshal([]byte(raw), &catalog); err != nil {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}
	normalize(&catalog)
	return &catalog, nil
}

// ApplyEnums adds the configured enums to the catalog. A table-backed enum
// takes its values from the first column of the table, and a model with the
// enum's name is dropped from its schema.
func (e *Extractor) ApplyEnums(ctx context.Context, catalog *types.Catalog, overrides []config.EnumOverride) error {
	for _, override := range overrides {
		values := override.Values
		if override.Table != "" {
			var err error
			values, err = e.tableValues(ctx, override.Table)
			if err != nil {
				return err
			}
		}

		schemaName, name := identifierParts(override.Name)
		schema := catalog.FindSchema(schemaName)
		if schema == nil {
			catalog.Schemas = append(catalog.Schemas, types.Schema{Name: schemaName, Enums: []types.Enum{}, Models: []types.Model{}})
			schema = &catalog.Schemas[len(catalog.Schemas)-1]
		}

		schema.Enums = append(schema.Enums, types.Enum{Name: name, Values: values})
		schema.Models = removeModel(schema.Models, name)
	}
	return nil
}

func (e *Extractor) tableValues(ctx context.Context, table string) ([]string, error) {
	schemaName, name := identifierParts(table)
	sql, _, err := e.qb.Select("*").
		From(pq.QuoteIdentifier(schemaName) + "." + pq.QuoteIdentifier(name)).
		OrderBy("1").
		ToSql()
	if err != nil {
		return nil, err
	}

	result, err := e.db.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("failed to read enum table %s: %w", table, err)
	}
	if len(result.Columns) == 0 {
		return nil, fmt.Errorf("enum table %s has no columns", table)
	}

	first := result.Columns[0]
	values := make([]string, 0, len(result.Rows))
	for _, row := range result.Rows {
		if v, ok := row[first]; ok && v != nil {
			values = append(values, fmt.Sprint(v))
		}
	}
	return values, nil
}

// ExcludeModels removes the named models. A name without a schema refers to
// the public schema.
func ExcludeModels(catalog *types.Catalog, names []string) {
	for _, qualified := range names {
		schemaName, name := identifierParts(qualified)
		if schema := catalog.FindSchema(schemaName); schema != nil {
			schema.Models = removeModel(schema.Models, name)
		}
	}
}

func removeModel(models []types.Model, name string) []types.Model {
	kept := models[:0]
	for _, m := range models {
		if m.Name != name {
			kept = append(kept, m)
		}
	}
	return kept
}

// identifierParts splits "schema.name" (or "name") into its schema and name.
func identifierParts(identifier string) (string, string) {
	if schema, name, ok := strings.Cut(identifier, "."); ok {
		return schema, name
	}
	return defaultSchema, identifier
}

func normalize(catalog *types.Catalog) {
	if catalog.Schemas == nil {
		catalog.Schemas = []types.Schema{}
	}
	for i := range catalog.Schemas {
		s := &catalog.Schemas[i]
		if s.Enums == nil {
			s.Enums = []types.Enum{}
		}
		if s.Models == nil {
			s.Models = []types.Model{}
		}
		for j := range s.Models {
			if s.Models[j].Columns == nil {
				s.Models[j].Columns = []types.Column{}
			}
		}
	}
}
