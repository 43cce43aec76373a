package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rana718/sqlir/internal/database/common"
)

func TestStatementError(t *testing.T) {
	pgErr := &pgconn.PgError{
		Severity: "ERROR",
		Code:     "42703",
		Message:  `column "nam" does not exist`,
		Hint:     `Perhaps you meant to reference the column "users.name".`,
		Position: 8,
	}

	err := statementError(fmt.Errorf("prepare: %w", pgErr))

	var stmtErr *common.StatementError
	require.True(t, errors.As(err, &stmtErr))
	assert.Equal(t, `column "nam" does not exist`, stmtErr.Message)
	assert.Equal(t, 8, stmtErr.Position)
	assert.Equal(t, pgErr.Hint, stmtErr.Hint)
	assert.Equal(t, `column "nam" does not exist (at character 8)`, err.Error())
}

func TestStatementErrorPassesOtherErrors(t *testing.T) {
	plain := errors.New("conn closed")
	assert.Same(t, plain, statementError(plain))
}

func TestCloseWithoutConnect(t *testing.T) {
	assert.NoError(t, New().Close())
}
