package database

import (
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/atul-gupta2002/Custom-Event-Calendar/internal/config"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testConfig = config.Database{
	Host:   "db.local",
	Port:   5433,
	User:   "calendar",
	Pass:   `p'a\ss word`,
	Name:   "events",
	Schema: "calendar",
}

func TestConnString(t *testing.T) {
	t.Run("should be accepted by pgx with every setting intact", func(t *testing.T) {
		poolConfig, err := pgxpool.ParseConfig(connString(testConfig))

		require.NoError(t, err)
		conn := poolConfig.ConnConfig
		assert.Equal(t, "db.local", conn.Host)
		assert.Equal(t, uint16(5433), conn.Port)
		assert.Equal(t, "calendar", conn.User)
		assert.Equal(t, `p'a\ss word`, conn.Password)
		assert.Equal(t, "events", conn.Database)
		assert.Equal(t, "-c search_path=calendar", conn.RuntimeParams["options"])
	})
}

func TestMigrationURL(t *testing.T) {
	u, err := url.Parse(migrationURL(testConfig))

	require.NoError(t, err)
	assert.Equal(t, "postgres", u.Scheme)
	assert.Equal(t, "db.local:5433", u.Host)
	assert.Equal(t, "/events", u.Path)
	password, ok := u.User.Password()
	assert.True(t, ok)
	assert.Equal(t, `p'a\ss word`, password)
	assert.Equal(t, "calendar", u.Query().Get("search_path"))
	assert.Equal(t, "disable", u.Query().Get("sslmode"))
}

func TestMigrationsDir(t *testing.T) {
	t.Run("should find the directory above the working directory", func(t *testing.T) {
		dir, err := migrationsDir()

		require.NoError(t, err)
		_, err = os.Stat(filepath.Join(dir, "000001_create_calendar_event.up.sql"))
		assert.NoError(t, err)
	})

	t.Run("should fail when there is none", func(t *testing.T) {
		t.Chdir(t.TempDir())

		_, err := migrationsDir()

		assert.ErrorContains(t, err, "no migrations directory")
	})
}
