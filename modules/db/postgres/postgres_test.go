package postgres

import (
	"io/fs"
	"net/url"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDSN(t *testing.T) {
	cfg := PoolConfig{
		Host:     "db.internal",
		Port:     6432,
		User:     "app",
		Password: "p@ss/word",
		Database: "uiconfig",
		SSLMode:  "require",
	}

	u := dsn(&cfg, url.Values{"pool_max_conns": {"7"}})
	assert.Equal(t, "postgres", u.Scheme)
	assert.Equal(t, "db.internal:6432", u.Host)
	assert.Equal(t, "/uiconfig", u.Path)
	assert.Equal(t, "require", u.Query().Get("sslmode"))
	assert.Equal(t, "7", u.Query().Get("pool_max_conns"))

	pw, ok := u.User.Password()
	require.True(t, ok)
	assert.Equal(t, "p@ss/word", pw)
	assert.NotContains(t, u.Redacted(), "p@ss")
}

func TestDSNWithoutExtraParams(t *testing.T) {
	u := dsn(&PoolConfig{Host: "localhost", Port: 5432, Database: "postgres"}, nil)
	assert.Empty(t, u.RawQuery)
}

func TestMigrationsAreEmbedded(t *testing.T) {
	files, err := fs.Glob(migrationsFS, "migrations/*.sql")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	body, err := fs.ReadFile(migrationsFS, files[0])
	require.NoError(t, err)
	assert.Contains(t, string(body), "-- migrate:up")
	assert.Contains(t, string(body), "-- migrate:down")
}

func TestOptions(t *testing.T) {
	assert.Empty(t, (&PostgresConfig{}).Options().WriterOptions)

	opts := (&PostgresConfig{PgBouncer: true}).Options()
	assert.Len(t, opts.WriterOptions, 1)
	assert.Len(t, opts.ReaderOptions, 1)

	opts = (&PostgresConfig{ApplicationName: "uiconfig", StatementTimeout: 2 * time.Second}).Options()
	require.Len(t, opts.WriterOptions, 2)

	cfg, err := pgxpool.ParseConfig("postgres://u:p@localhost:5432/db")
	require.NoError(t, err)
	for _, opt := range opts.WriterOptions {
		opt(cfg)
	}
	assert.Equal(t, "uiconfig", cfg.ConnConfig.RuntimeParams["application_name"])
	assert.Equal(t, "2000", cfg.ConnConfig.RuntimeParams["statement_timeout"])
}

func TestPgBouncerOption(t *testing.T) {
	cfg, err := pgxpool.ParseConfig("postgres://u:p@localhost:5432/db")
	require.NoError(t, err)
	WithPgBouncerSimpleProtocol()(cfg)
	assert.Equal(t, pgx.QueryExecModeSimpleProtocol, cfg.ConnConfig.DefaultQueryExecMode)
}
