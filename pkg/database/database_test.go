package database

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/Madhu097/realestate-fraud-detection/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolConfig(t *testing.T) {
	cfg := &config.DatabaseConfig{
		Host:     "db.internal",
		Port:     "5433",
		User:     "fraud",
		Password: "secret",
		DBName:   "listings",
		SSLMode:  "disable",
		MaxConns: 12,
		MinConns: 2,
	}

	poolConfig, err := PoolConfig(cfg)
	require.NoError(t, err)

	assert.Equal(t, "db.internal", poolConfig.ConnConfig.Host)
	assert.Equal(t, uint16(5433), poolConfig.ConnConfig.Port)
	assert.Equal(t, "fraud", poolConfig.ConnConfig.User)
	assert.Equal(t, "listings", poolConfig.ConnConfig.Database)
	assert.Equal(t, int32(12), poolConfig.MaxConns)
	assert.Equal(t, int32(2), poolConfig.MinConns)
}

func TestPoolConfig_KeepsDefaultsWhenUnset(t *testing.T) {
	cfg := &config.DatabaseConfig{Host: "localhost", Port: "5432", User: "u", Password: "p", DBName: "d", SSLMode: "disable"}

	poolConfig, err := PoolConfig(cfg)
	require.NoError(t, err)
	assert.Positive(t, poolConfig.MaxConns)
}

func TestPoolConfig_InvalidPort(t *testing.T) {
	cfg := &config.DatabaseConfig{Host: "localhost", Port: "not-a-port", User: "u", Password: "p", DBName: "d", SSLMode: "disable"}

	_, err := PoolConfig(cfg)
	assert.Error(t, err)
}

func TestSourceURL(t *testing.T) {
	assert.Equal(t, "file://db/migrations", SourceURL(""))
	assert.Equal(t, "file:///srv/migrations", SourceURL("/srv/migrations"))
	assert.Equal(t, "file://custom", SourceURL("file://custom"))
}

func TestMigrationFilesArePaired(t *testing.T) {
	dir := filepath.Join("..", "..", DefaultMigrationsDir)
	files, err := os.ReadDir(dir)
	require.NoError(t, err)

	ups := map[string]bool{}
	downs := map[string]bool{}
	for _, f := range files {
		name := f.Name()
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			ups[strings.TrimSuffix(name, ".up.sql")] = true
		case strings.HasSuffix(name, ".down.sql"):
			downs[strings.TrimSuffix(name, ".down.sql")] = true
		}
	}

	require.NotEmpty(t, ups)
	assert.Equal(t, keys(ups), keys(downs))
}

func TestMigrationsCreateQueriedTables(t *testing.T) {
	dir := filepath.Join("..", "..", DefaultMigrationsDir)
	matches, err := filepath.Glob(filepath.Join(dir, "*.up.sql"))
	require.NoError(t, err)

	var schema strings.Builder
	for _, m := range matches {
		b, err := os.ReadFile(m)
		require.NoError(t, err)
		schema.Write(b)
	}

	for _, table := range []string{"locality_references", "comparable_listings", "text_corpus", "image_fingerprints", "listing_analyses"} {
		assert.Contains(t, schema.String(), "CREATE TABLE IF NOT EXISTS "+table, table)
	}
}

func keys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
