package migrations

import (
	"io/fs"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	entries, err := fs.ReadDir(migrationsFS, "migrations")
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	ups := map[string]bool{}
	downs := map[string]bool{}
	for _, e := range entries {
		name := e.Name()
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			ups[strings.TrimSuffix(name, ".up.sql")] = true
		case strings.HasSuffix(name, ".down.sql"):
			downs[strings.TrimSuffix(name, ".down.sql")] = true
		}
	}

	assert.Equal(t, ups, downs)
}

func TestCreateLinksMigration(t *testing.T) {
	data, err := fs.ReadFile(migrationsFS, "migrations/000001_create_links.up.sql")
	require.NoError(t, err)

	sql := string(data)
	assert.Contains(t, sql, "clicks       JSONB NOT NULL DEFAULT '{}'::jsonb")
	assert.Contains(t, sql, "UNIQUE (hash)")
	assert.Contains(t, sql, "deleted_at   TIMESTAMPTZ NULL")
}

func TestPreviousVersion(t *testing.T) {
	fsys := fstest.MapFS{
		"m/000001_first.up.sql":    {Data: []byte("SELECT 1;")},
		"m/000001_first.down.sql":  {Data: []byte("SELECT 1;")},
		"m/000002_second.up.sql":   {Data: []byte("SELECT 2;")},
		"m/000002_second.down.sql": {Data: []byte("SELECT 2;")},
	}
	src, err := iofs.New(fsys, "m")
	require.NoError(t, err)
	defer src.Close()

	prev, err := previousVersion(src, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, prev, "a dirty second migration is retried from the first")

	prev, err = previousVersion(src, 1)
	require.NoError(t, err)
	assert.Equal(t, database.NilVersion, prev, "a dirty first migration is retried from scratch")
}

func TestEmbeddedMigrationsAreReapplicable(t *testing.T) {
	entries, err := fs.ReadDir(migrationsFS, "migrations")
	require.NoError(t, err)

	for _, e := range entries {
		if !strings.HasSuffix(e.Name(), ".up.sql") {
			continue
		}
		data, err := fs.ReadFile(migrationsFS, "migrations/"+e.Name())
		require.NoError(t, err)
		for _, stmt := range strings.Split(string(data), ";") {
			stmt = strings.TrimSpace(stmt)
			if stmt == "" {
				continue
			}
			assert.Contains(t, stmt, "IF NOT EXISTS", "%s: %q", e.Name(), stmt)
		}
	}
}
