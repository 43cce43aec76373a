package parser

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rana718/sqlir/internal/types"
)

func TestParseAnnotations(t *testing.T) {
	q := &RawQuery{
		SQL:       "\n-- @name: getUser :one\n--   @deprecated\n-- plain comment\nSELECT 1;",
		Path:      "users.sql",
		StartLine: 10,
		Line:      10,
	}

	got := ParseAnnotations(q)
	require.Len(t, got, 2)
	assert.Equal(t, types.Annotation{Value: "getUser :one", Line: 11}, got["name"])
	assert.Equal(t, types.Annotation{Value: "", Line: 12}, got["deprecated"])
}

func TestParseName(t *testing.T) {
	tests := []struct {
		value   string
		name    string
		command types.Command
	}{
		{"getUser :one", "getUser", types.CommandOne},
		{"listUsers :many", "listUsers", types.CommandMany},
		{"delete_user   :exec", "delete_user", types.CommandExec},
		{"countUsers :val", "countUsers", types.CommandVal},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			q := &RawQuery{SQL: "-- @name: " + tt.value + "\nSELECT 1;", Path: "q.sql", StartLine: 3, Line: 3}
			name, command, err := ParseName(q, ParseAnnotations(q))
			require.NoError(t, err)
			assert.Equal(t, tt.name, name)
			assert.Equal(t, tt.command, command)
		})
	}
}

func TestParseNameAdvancesLine(t *testing.T) {
	q := &RawQuery{SQL: "\n\n-- @name: getUser :one\nSELECT 1;", Path: "q.sql", StartLine: 4, Line: 4}
	_, _, err := ParseName(q, ParseAnnotations(q))
	require.NoError(t, err)
	assert.Equal(t, 6, q.Line)
	assert.Equal(t, 4, q.StartLine)
}

func TestParseNameInvalid(t *testing.T) {
	for _, directive := range []string{
		"-- @name: getUser :oops",
		"-- @name: getUser",
		"-- @name: :one",
		"-- @name: get-user :one",
		"-- @name: getUser :one extra",
		"-- @name getUser :one",
		"-- @name : getUser :one",
		"--@name",
	} {
		t.Run(directive, func(t *testing.T) {
			q := &RawQuery{SQL: "\n" + directive + "\nSELECT 1;", Path: "q.sql", StartLine: 7, Line: 7}
			require.True(t, IsExported(ParseAnnotations(q)))
			_, _, err := ParseName(q, ParseAnnotations(q))
			require.Error(t, err)

			var annErr *AnnotationError
			require.True(t, errors.As(err, &annErr))
			assert.Equal(t, "q.sql", annErr.Path)
			assert.Equal(t, 8, annErr.Line)
			assert.Contains(t, err.Error(), "q.sql:8")
			assert.Equal(t, 7, q.Line)
		})
	}
}

func TestUnnamedStatementIsNotExported(t *testing.T) {
	q := &RawQuery{SQL: "-- just a comment\nCREATE TEMP TABLE x (id int);", StartLine: 1, Line: 1}
	assert.False(t, IsExported(ParseAnnotations(q)))

	q = &RawQuery{SQL: "-- @named: getUser :one\nSELECT 1;", StartLine: 1, Line: 1}
	got := ParseAnnotations(q)
	assert.False(t, IsExported(got))
	assert.Contains(t, got, "named")
}
