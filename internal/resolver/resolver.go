package resolver

import (
	"context"
	"fmt"
	"strings"

	"github.com/Rana718/sqlir/internal/database/common"
	"github.com/Rana718/sqlir/internal/parser"
	"github.com/Rana718/sqlir/internal/types"
)

// Describer plans a statement without executing it.
type Describer interface {
	Describe(ctx context.Context, sql string) (*common.Description, error)
}

// Resolver turns exported statements into typed queries. The catalog must be
// loaded before the first Resolve.
type Resolver struct {
	db      Describer
	catalog *TypeCatalog
}

func New(db Describer, catalog *TypeCatalog) *Resolver {
	return &Resolver{db: db, catalog: catalog}
}

// Resolve types one statement. The statement must carry a @name directive;
// callers skip the ones that do not (see parser.IsExported).
func (r *Resolver) Resolve(ctx context.Context, raw parser.RawQuery) (*types.Query, error) {
	annotations := parser.ParseAnnotations(&raw)
	name, command, err := parser.ParseName(&raw, annotations)
	if err != nil {
		return nil, err
	}

	rw := parser.RewriteParameters(raw.SQL)
	desc, err := r.db.Describe(ctx, rw.SQL)
	if err != nil {
		return nil, NewDatabaseError(raw.Path, raw.StartLine, raw.SQL, rw.SQL, rw.SourceOffset, err)
	}

	if len(desc.Inputs) != len(rw.Params) {
		return nil, &TypeResolutionError{
			Path:    raw.Path,
			Line:    raw.Line,
			Message: fmt.Sprintf("query %s declares %d parameters but the database reports %d", name, len(rw.Params), len(desc.Inputs)),
		}
	}

	query := &types.Query{
		Name:        name,
		Command:     command,
		SQL:         strings.TrimSpace(rw.SQL),
		Path:        raw.Path,
		Line:        raw.Line,
		Annotations: annotations,
		Parameters:  make([]types.Parameter, len(rw.Params)),
		Outputs:     make([]types.OutputColumn, len(desc.Outputs)),
	}

	for i, param := range rw.Params {
		t, err := r.lookup(raw, desc.Inputs[i])
		if err != nil {
			return nil, err
		}
		query.Parameters[i] = types.Parameter{Name: param.Name, Type: t, NotNull: param.NotNull}
	}

	for i, field := range desc.Outputs {
		t, err := r.lookup(raw, field.TypeID)
		if err != nil {
			return nil, err
		}
		query.Outputs[i] = types.OutputColumn{Name: field.Name, Type: t}
	}

	return query, nil
}

func (r *Resolver) lookup(raw parser.RawQuery, id int64) (types.SQLType, error) {
	t, ok := r.catalog.Lookup(id)
	if !ok {
		return types.SQLType{}, &TypeResolutionError{
			Path:    raw.Path,
			Line:    raw.Line,
			TypeID:  id,
			Message: fmt.Sprintf("unknown type id %d", id),
		}
	}
	return t, nil
}
