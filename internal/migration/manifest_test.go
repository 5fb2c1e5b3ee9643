package migration

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadManifest(t *testing.T) {
	m, err := loadManifest()
	require.NoError(t, err)

	assert.EqualValues(t, 2, m.Latest)
	assert.Len(t, m.Checksum, 64, "sha256 hex")

	again, err := loadManifest()
	require.NoError(t, err)
	assert.Equal(t, m.Checksum, again.Checksum, "checksum is deterministic")
}

func TestMigrationVersion(t *testing.T) {
	v, err := migrationVersion("0001_core.up.sql")
	require.NoError(t, err)
	assert.EqualValues(t, 1, v)

	_, err = migrationVersion("core.up.sql")
	require.Error(t, err)

	_, err = migrationVersion("abc_core.up.sql")
	require.Error(t, err)

	_, err = migrationVersion("0000_core.up.sql")
	require.Error(t, err)
}
