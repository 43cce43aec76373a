package build

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/Rana718/sqlir/internal/config"
	"github.com/Rana718/sqlir/internal/database"
	"github.com/Rana718/sqlir/internal/migrator"
	"github.com/Rana718/sqlir/internal/resolver"
	"github.com/Rana718/sqlir/internal/schema"
	"github.com/Rana718/sqlir/internal/types"
	"github.com/Rana718/sqlir/internal/utils"
)

const e2eMigration = `
CREATE TYPE user_role AS ENUM ('admin', 'member');

CREATE TABLE users (
    id    serial PRIMARY KEY,
    name  text NOT NULL,
    email text UNIQUE,
    role  user_role NOT NULL DEFAULT 'member'
);

CREATE TABLE posts (
    id      serial PRIMARY KEY,
    user_id int NOT NULL REFERENCES users (id),
    title   text NOT NULL
);
`

const e2eQueries = `-- @name: GetUser :one
SELECT id, name, email, role FROM users WHERE id = $id;

-- @name: FindByEmail :many
SELECT id, name FROM users WHERE email = ?(email) OR name = $name;

-- @name: CountPosts :val
SELECT count(*) FROM posts WHERE user_id = $(user.id);

-- @name: DeleteUser :exec
DELETE FROM users WHERE id = $id;
`

func startPostgres(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)
	ctx := context.Background()

	container, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("sqlir"),
		postgres.WithUsername("sqlir"),
		postgres.WithPassword("sqlir"),
		postgres.BasicWaitStrategies(),
	)
	require.NoError(t, err, "failed to start PostgreSQL container")
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	url, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	return url
}

func e2eProject(t *testing.T, url string, queries string) *config.Config {
	return writeProject(t, map[string]string{
		"sqlir.yaml": `version: "1"
cache_dir: .cache
queries: ["queries/*.sql"]
database:
  url: "` + url + `"
  migrations: ["migrations/*.sql"]
codegen:
  out: gen
`,
		"migrations/001_init.sql": e2eMigration,
		"queries/users.sql":       queries,
	})
}

func TestBuildAgainstPostgres(t *testing.T) {
	url := startPostgres(t)
	ctx := context.Background()
	cfg := e2eProject(t, url, e2eQueries)
	printer := &utils.Printer{Out: &bytes.Buffer{}, Err: &bytes.Buffer{}}

	db, err := database.Open(ctx, cfg.Database)
	require.NoError(t, err)
	defer db.Close()

	applied, err := migrator.NewMigrator(db, printer).Apply(ctx, cfg.MigrationPatterns())
	require.NoError(t, err)
	require.Equal(t, 1, applied)

	b := NewBuilder(cfg, printer)
	catalog, queries, err := b.Compile(ctx, db)
	require.NoError(t, err)

	t.Run("catalog", func(t *testing.T) {
		public := catalog.FindSchema("public")
		require.NotNil(t, public)
		assert.Equal(t, []types.Enum{{Name: "user_role", Values: []string{"admin", "member"}}}, public.Enums)

		require.Len(t, public.Models, 2)
		posts, users := public.Models[0], public.Models[1]
		assert.Equal(t, "posts", posts.Name)
		assert.Equal(t, "users", users.Name)
		assert.Equal(t, types.KindTable, users.Kind)

		names := make([]string, len(users.Columns))
		for i, c := range users.Columns {
			names[i] = c.Name
		}
		assert.Equal(t, []string{"id", "name", "email", "role"}, names)
		assert.True(t, users.Columns[0].IsPrimaryKey)
		assert.True(t, users.Columns[2].IsNullable)
		assert.True(t, users.Columns[2].IsUnique)
		assert.Equal(t, "user_role", users.Columns[3].Type.Name)

		userID := posts.Columns[1]
		assert.True(t, userID.IsForeignKey)
		require.NotNil(t, userID.ForeignTableName)
		assert.Equal(t, "users", *userID.ForeignTableName)
	})

	t.Run("catalog is byte stable", func(t *testing.T) {
		extractor := schema.NewExtractor(db)
		first, err := extractor.Extract(ctx)
		require.NoError(t, err)
		second, err := extractor.Extract(ctx)
		require.NoError(t, err)

		firstJSON, err := json.Marshal(first)
		require.NoError(t, err)
		secondJSON, err := json.Marshal(second)
		require.NoError(t, err)
		assert.Equal(t, string(firstJSON), string(secondJSON))
	})

	t.Run("queries", func(t *testing.T) {
		require.Len(t, queries, 4)

		get := queries[0]
		assert.Equal(t, "GetUser", get.Name)
		assert.Equal(t, "SELECT id, name, email, role FROM users WHERE id = $1;", get.SQL)
		require.Len(t, get.Parameters, 1)
		assert.Equal(t, "int4", get.Parameters[0].Type.Name)
		assert.True(t, get.Parameters[0].NotNull)
		require.Len(t, get.Outputs, 4)
		assert.Equal(t, types.SQLType{ID: get.Outputs[3].Type.ID, Schema: "public", Name: "user_role"}, get.Outputs[3].Type)

		find := queries[1]
		require.Len(t, find.Parameters, 2)
		assert.Equal(t, "email", find.Parameters[0].Name)
		assert.False(t, find.Parameters[0].NotNull)
		assert.Equal(t, "text", find.Parameters[0].Type.Name)
		assert.True(t, find.Parameters[1].NotNull)

		count := queries[2]
		require.Len(t, count.Parameters, 1)
		assert.Equal(t, "user.id", count.Parameters[0].Name)
		assert.Equal(t, "int8", count.Outputs[0].Type.Name)

		del := queries[3]
		assert.Equal(t, types.CommandExec, del.Command)
		assert.Empty(t, del.Outputs)
	})

	t.Run("generate", func(t *testing.T) {
		// The database is already migrated.
		cfg.Database.Migrations = nil
		b := NewBuilder(cfg, printer).WithOpen(func(ctx context.Context, cfg config.Database) (database.Introspector, error) {
			return database.Open(ctx, cfg)
		})

		result, err := b.Run(ctx)
		require.NoError(t, err)
		assert.Equal(t, 4, result.Queries)

		code, err := os.ReadFile(filepath.Join(cfg.OutDir(), "users.sql.go"))
		require.NoError(t, err)
		assert.Contains(t, string(code), "GetUser(ctx context.Context, id int32) (GetUserRow, error)")
		assert.Contains(t, string(code), "FindByEmail(ctx context.Context, email *string, name string) ([]FindByEmailRow, error)")
		assert.Contains(t, string(code), "CountPosts(ctx context.Context, userID int32) (int64, error)")

		models, err := os.ReadFile(filepath.Join(cfg.OutDir(), "models.go"))
		require.NoError(t, err)
		assert.Contains(t, string(models), "type UserRole string")
		assert.Contains(t, string(models), "Email *string")
	})
}

func TestBuildReportsDatabaseErrorPosition(t *testing.T) {
	url := startPostgres(t)
	cfg := e2eProject(t, url, "-- @name: Broken :one\nSELECT id,\n       nope\nFROM users;\n")
	printer := &utils.Printer{Out: &bytes.Buffer{}, Err: &bytes.Buffer{}}

	_, err := NewBuilder(cfg, printer).Run(context.Background())

	var dbErr *resolver.DatabaseError
	require.True(t, errors.As(err, &dbErr), "got %v", err)
	assert.Equal(t, 3, dbErr.Line)
	assert.Equal(t, 8, dbErr.Column)
	assert.Contains(t, dbErr.Message, `"nope"`)
	assert.Contains(t, dbErr.Snippet, "nope")
}
