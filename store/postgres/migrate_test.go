package postgres

import (
	"errors"
	"strings"
	"testing"

	"github.com/golang-migrate/migrate/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockMigrate struct {
	upErr          error
	downErr        error
	versionVal     uint
	versionErr     error
	dirty          bool
	closeSourceErr error
	closeDBErr     error
}

func (m *mockMigrate) Up() error                    { return m.upErr }
func (m *mockMigrate) Down() error                  { return m.downErr }
func (m *mockMigrate) Version() (uint, bool, error) { return m.versionVal, m.dirty, m.versionErr }
func (m *mockMigrate) Close() (error, error)        { return m.closeSourceErr, m.closeDBErr }

func TestNewMigratorRejectsUnknownScheme(t *testing.T) {
	_, err := NewMigrator("invalid://url")
	require.Error(t, err)
	assertCode(t, err, "MIGRATION_INIT_FAILED")
}

func TestMigrateURL(t *testing.T) {
	assert.Equal(t, "pgx5://u:p@db:5432/auth", migrateURL("postgres://u:p@db:5432/auth"))
	assert.Equal(t, "pgx5://db/auth", migrateURL("postgresql://db/auth"))
	assert.Equal(t, "pgx5://db/auth", migrateURL("pgx5://db/auth"))
}

func TestMigratorUpDown(t *testing.T) {
	require.NoError(t, (&Migrator{m: &mockMigrate{}}).Up())
	require.NoError(t, (&Migrator{m: &mockMigrate{upErr: migrate.ErrNoChange}}).Up())
	require.NoError(t, (&Migrator{m: &mockMigrate{downErr: migrate.ErrNoChange}}).Down())

	err := (&Migrator{m: &mockMigrate{upErr: errors.New("syntax error")}}).Up()
	assertCode(t, err, "MIGRATION_UP_FAILED")

	err = (&Migrator{m: &mockMigrate{downErr: errors.New("locked")}}).Down()
	assertCode(t, err, "MIGRATION_DOWN_FAILED")
}

func TestMigratorVersion(t *testing.T) {
	v, dirty, err := (&Migrator{m: &mockMigrate{versionErr: migrate.ErrNilVersion}}).Version()
	require.NoError(t, err)
	assert.Zero(t, v)
	assert.False(t, dirty)

	v, dirty, err = (&Migrator{m: &mockMigrate{versionVal: 1, dirty: true}}).Version()
	require.NoError(t, err)
	assert.Equal(t, uint(1), v)
	assert.True(t, dirty)

	_, _, err = (&Migrator{m: &mockMigrate{versionErr: errors.New("boom")}}).Version()
	assertCode(t, err, "MIGRATION_VERSION_FAILED")
}

func TestMigratorCloseJoinsErrors(t *testing.T) {
	err := (&Migrator{m: &mockMigrate{closeSourceErr: errors.New("src"), closeDBErr: errors.New("db")}}).Close()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "src")
	assert.Contains(t, err.Error(), "db")
	assertCode(t, err, "MIGRATION_CLOSE_FAILED")
}

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	entries, err := migrationsFS.ReadDir("migrations")
	require.NoError(t, err)

	ups, downs := map[string]bool{}, map[string]bool{}
	for _, e := range entries {
		name := e.Name()
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			ups[strings.TrimSuffix(name, ".up.sql")] = true
		case strings.HasSuffix(name, ".down.sql"):
			downs[strings.TrimSuffix(name, ".down.sql")] = true
		default:
			t.Errorf("unexpected file %s", name)
		}
	}
	assert.NotEmpty(t, ups)
	assert.Equal(t, ups, downs)
}
