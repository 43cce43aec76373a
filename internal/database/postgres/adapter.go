package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Rana718/sqlir/internal/database/common"
)

// Adapter talks to PostgreSQL over a single connection. Describe and Query
// share it, so calls must not overlap.
type Adapter struct {
	conn *pgx.Conn
}

func New() *Adapter {
	return &Adapter{}
}

func (p *Adapter) Connect(ctx context.Context, url string) error {
	config, err := pgx.ParseConfig(url)
	if err != nil {
		return fmt.Errorf("failed to parse connection URL: %w", err)
	}

	// Unprepared statements only; Describe manages the unnamed statement itself.
	config.DefaultQueryExecMode = pgx.QueryExecModeExec

	conn, err := pgx.ConnectConfig(ctx, config)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	p.conn = conn
	return nil
}

func (p *Adapter) Close() error {
	if p.conn == nil {
		return nil
	}
	// Close only needs enough time to send the terminate message.
	err := p.conn.Close(context.Background())
	p.conn = nil
	return err
}

func (p *Adapter) Ping(ctx context.Context) error {
	return p.conn.Ping(ctx)
}

// Describe prepares sql as the unnamed statement, which the server replaces
// on the next prepare, so nothing accumulates across calls.
func (p *Adapter) Describe(ctx context.Context, sql string) (*common.Description, error) {
	sd, err := p.conn.PgConn().Prepare(ctx, "", sql, nil)
	if err != nil {
		return nil, statementError(err)
	}

	desc := &common.Description{
		Inputs:  make([]int64, len(sd.ParamOIDs)),
		Outputs: make([]common.Field, len(sd.Fields)),
	}
	for i, oid := range sd.ParamOIDs {
		desc.Inputs[i] = int64(oid)
	}
	for i, field := range sd.Fields {
		desc.Outputs[i] = common.Field{Name: field.Name, TypeID: int64(field.DataTypeOID)}
	}
	return desc, nil
}

func (p *Adapter) Query(ctx context.Context, sql string, args ...interface{}) (*common.QueryResult, error) {
	rows, err := p.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, statementError(err)
	}

	fields := rows.FieldDescriptions()
	columns := make([]string, len(fields))
	for i, field := range fields {
		columns[i] = field.Name
	}

	data, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, statementError(err)
	}

	return &common.QueryResult{Columns: columns, Rows: data}, nil
}

// Execute runs sql through the simple query protocol so a whole migration
// file with many statements goes in one round trip.
func (p *Adapter) Execute(ctx context.Context, sql string) error {
	if _, err := p.conn.PgConn().Exec(ctx, sql).ReadAll(); err != nil {
		return statementError(err)
	}
	return nil
}

func statementError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	return &common.StatementError{
		Message:  pgErr.Message,
		Detail:   pgErr.Detail,
		Hint:     pgErr.Hint,
		Position: int(pgErr.Position),
	}
}
