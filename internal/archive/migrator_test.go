package archive

import (
	"io/fs"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListMigrations_SortsAndFilters(t *testing.T) {
	fsys := fstest.MapFS{
		"0002_b.up.sql":   {Data: []byte("SELECT 2;")},
		"0001_a.up.sql":   {Data: []byte("SELECT 1;")},
		"0001_a.down.sql": {Data: []byte("SELECT 0;")},
		"README.md":       {Data: []byte("docs")},
		"nested/x.up.sql": {Data: []byte("SELECT 3;")},
	}

	names, err := ListMigrations(fsys, ".")
	require.NoError(t, err)
	assert.Equal(t, []string{"0001_a.up.sql", "0002_b.up.sql"}, names)
}

func TestEmbeddedMigrations_CreateOrdersTable(t *testing.T) {
	sub, err := fs.Sub(embeddedMigrations, "migrations")
	require.NoError(t, err)

	names, err := ListMigrations(sub, ".")
	require.NoError(t, err)
	require.NotEmpty(t, names)

	data, err := fs.ReadFile(sub, names[0])
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "CREATE TABLE IF NOT EXISTS orders"))
}
