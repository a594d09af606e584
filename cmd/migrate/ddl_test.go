package main

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDatabasePath(t *testing.T) {
	db, err := parseDatabasePath("projects/p/instances/i/databases/d")
	require.NoError(t, err)
	assert.Equal(t, databasePath{Project: "p", InstanceID: "i", DatabaseID: "d"}, db)
	assert.Equal(t, "projects/p/instances/i", db.Instance())
	assert.Equal(t, "projects/p/instances/i/databases/d", db.String())

	for _, bad := range []string{"", "projects/p", "projects/p/instances/i/databases/", "p/x/i/y/d/z"} {
		_, err := parseDatabasePath(bad)
		assert.Error(t, err, bad)
	}
}

func TestSplitDDLStatements(t *testing.T) {
	content := `-- header
CREATE TABLE a (
  id STRING(36) NOT NULL,
) PRIMARY KEY (id);

CREATE INDEX a_by_id ON a(id);
`
	assert.Equal(t, []string{
		"CREATE TABLE a (\nid STRING(36) NOT NULL,\n) PRIMARY KEY (id)",
		"CREATE INDEX a_by_id ON a(id)",
	}, splitDDLStatements(content))
}

func TestPendingStatements(t *testing.T) {
	existing := objectNames([]string{
		"CREATE TABLE products (\n sku STRING(256) NOT NULL,\n) PRIMARY KEY (sku)",
		"CREATE NULL_FILTERED INDEX products_by_synced_at ON products(synced_at)",
	})
	assert.Equal(t, map[string]bool{"TABLE products": true, "INDEX products_by_synced_at": true}, existing)

	statements := []string{
		"CREATE TABLE products (sku STRING(256) NOT NULL) PRIMARY KEY (sku)",
		"CREATE INDEX products_by_synced_at ON products(synced_at)",
		"CREATE TABLE shops (shop_name STRING(256) NOT NULL) PRIMARY KEY (shop_name)",
		"ALTER TABLE products ADD COLUMN note STRING(MAX)",
	}

	assert.Equal(t, statements[2:], pendingStatements(statements, existing))
	assert.Empty(t, pendingStatements(statements[:2], existing))
}

func TestInitialSchemaCreatesEveryTable(t *testing.T) {
	content, err := os.ReadFile("../../migrations/001_initial_schema.sql")
	require.NoError(t, err)

	names := objectNames(splitDDLStatements(string(content)))
	for _, table := range []string{"products", "product_images", "product_variants", "shops", "chat_watches", "sync_jobs", "chat_messages"} {
		assert.True(t, names["TABLE "+table], table)
	}
	assert.True(t, names["INDEX sync_jobs_by_status"])
	assert.True(t, names["INDEX chat_watches_by_shop"])
}
