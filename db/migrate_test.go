package db

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrate(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL is not set")
	}
	conn, err := Connect(dsn, 5*time.Second)
	require.NoError(t, err)
	defer conn.Close()

	ctx := context.Background()
	require.NoError(t, Migrate(ctx, conn))
	// Повторный запуск ничего не делает.
	require.NoError(t, Migrate(ctx, conn))

	for _, table := range []string{"championships", "teams", "matches"} {
		var exists bool
		err := conn.QueryRowContext(ctx, `SELECT to_regclass($1) IS NOT NULL`, "public."+table).Scan(&exists)
		require.NoError(t, err)
		assert.True(t, exists, "table %q not found", table)
	}

	var indexName string
	err = conn.QueryRowContext(ctx,
		`SELECT indexname FROM pg_indexes WHERE tablename = 'matches' AND indexname = 'matches_single_final_idx'`,
	).Scan(&indexName)
	require.NoError(t, err)
}
