package resolver

import (
	"context"
	"fmt"

	"github.com/Rana718/sqlir/internal/database/common"
	"github.com/Rana718/sqlir/internal/types"
)

const typesQuery = `SELECT t.oid::int8 AS id, n.nspname AS schema, t.typname AS name
FROM pg_catalog.pg_type t
JOIN pg_catalog.pg_namespace n ON n.oid = t.typnamespace
ORDER BY t.oid`

// Querier runs a row-returning query.
type Querier interface {
	Query(ctx context.Context, sql string, args ...interface{}) (*common.QueryResult, error)
}

// TypeCatalog maps database type ids to their schema-qualified names. It is
// built per build and passed explicitly to whoever needs it.
type TypeCatalog struct {
	types map[int64]types.SQLType
}

func NewTypeCatalog() *TypeCatalog {
	return &TypeCatalog{types: make(map[int64]types.SQLType)}
}

// Load reads every type the database knows. Calling it again (after
// migrations created new types) adds to the mapping and refreshes existing
// ids; values handed out earlier stay valid since they are copies.
func (c *TypeCatalog) Load(ctx context.Context, db Querier) error {
	result, err := db.Query(ctx, typesQuery)
	if err != nil {
		return fmt.Errorf("failed to load type catalog: %w", err)
	}

	for _, row := range result.Rows {
		id, ok := toInt64(row["id"])
		if !ok {
			return fmt.Errorf("failed to load type catalog: unexpected id %v (%T)", row["id"], row["id"])
		}
		schema, _ := row["schema"].(string)
		name, _ := row["name"].(string)
		c.Add(types.SQLType{ID: id, Schema: schema, Name: name})
	}
	return nil
}

func (c *TypeCatalog) Add(t types.SQLType) {
	c.types[t.ID] = t
}

func (c *TypeCatalog) Lookup(id int64) (types.SQLType, bool) {
	t, ok := c.types[id]
	return t, ok
}

func (c *TypeCatalog) Len() int {
	return len(c.types)
}

func toInt64(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int32:
		return int64(n), true
	case int:
		return int64(n), true
	case uint32:
		return int64(n), true
	default:
		return 0, false
	}
}
