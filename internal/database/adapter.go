package database

import (
	"context"

	"github.com/Rana718/sqlir/internal/database/common"
)

// Introspector is the database capability the compiler needs. It is used from
// one goroutine at a time: a single connection serves every call.
type Introspector interface {
	// Describe prepares sql without executing it and reports the parameter
	// and result column type ids.
	Describe(ctx context.Context, sql string) (*common.Description, error)
	Query(ctx context.Context, sql string, args ...interface{}) (*common.QueryResult, error)
	// Execute runs sql, which may hold several statements.
	Execute(ctx context.Context, sql string) error
	Close() error
}
