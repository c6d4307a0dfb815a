package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/Dosada05/league-bracket/db"
	"github.com/Dosada05/league-bracket/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Тесты Postgres запускаются только с TEST_DATABASE_URL.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL is not set")
	}
	conn, err := db.Connect(dsn, 5*time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, db.Migrate(context.Background(), conn))
	return conn
}

func seedPostgres(t *testing.T, conn *sql.DB) (models.BracketKey, []int) {
	t.Helper()
	ctx := context.Background()

	var champID int
	require.NoError(t, conn.QueryRowContext(ctx,
		`INSERT INTO championships (name, status) VALUES ($1, 'ongoing') RETURNING id`, t.Name()).Scan(&champID))

	teams := make([]int, 4)
	for i := range teams {
		require.NoError(t, conn.QueryRowContext(ctx,
			`INSERT INTO teams (name, grade, gender) VALUES ($1, '10', 'male') RETURNING id`,
			fmt.Sprintf("%s team %d", t.Name(), i)).Scan(&teams[i]))
	}
	return models.BracketKey{ChampionshipID: champID, SportType: "basketball", Gender: models.GenderMale}, teams
}

func TestPostgresClaimAndFinalsConstraint(t *testing.T) {
	conn := openTestDB(t)
	key, _ := seedPostgres(t, conn)
	store := NewPostgresBracketStore(conn, slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx := context.Background()

	var finalID int
	require.NoError(t, store.InTx(ctx, key, func(tx BracketTx) error {
		m := placeholder(key, models.StageFinals)
		if err := tx.InsertMatch(ctx, m); err != nil {
			return err
		}
		finalID = m.ID
		for i, want := range []bool{true, true, false} {
			ok, err := tx.ClaimSlot(ctx, m.ID)
			if err != nil {
				return err
			}
			assert.Equal(t, want, ok, "claim #%d", i+1)
		}
		return nil
	}))

	err := store.InTx(ctx, key, func(tx BracketTx) error {
		return tx.InsertMatch(ctx, placeholder(key, models.StageFinals))
	})
	require.ErrorIs(t, err, ErrFinalsConflict)

	finalsStage := models.StageFinals
	finals, err := NewPostgresMatchRepository(conn).ListByBracket(ctx, key, MatchFilter{Stage: &finalsStage})
	require.NoError(t, err)
	require.Len(t, finals, 1)
	assert.Equal(t, finalID, finals[0].ID)
	assert.Equal(t, 2, finals[0].FeederCount)
}

func TestPostgresFillSlotConcurrently(t *testing.T) {
	conn := openTestDB(t)
	key, teams := seedPostgres(t, conn)
	store := NewPostgresBracketStore(conn, slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx := context.Background()

	var semiID int
	require.NoError(t, store.InTx(ctx, key, func(tx BracketTx) error {
		m := placeholder(key, models.StageSemiFinals)
		err := tx.InsertMatch(ctx, m)
		semiID = m.ID
		return err
	}))

	var wg sync.WaitGroup
	slots := make([]models.Slot, 2)
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = store.InTx(ctx, key, func(tx BracketTx) error {
				slot, err := tx.FillSlot(ctx, semiID, teams[i])
				slots[i] = slot
				return err
			})
		}(i)
	}
	wg.Wait()
	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.ElementsMatch(t, []models.Slot{models.SlotA, models.SlotB}, slots)

	require.NoError(t, store.InTx(ctx, key, func(tx BracketTx) error {
		slot, err := tx.FillSlot(ctx, semiID, teams[2])
		assert.Equal(t, models.SlotNone, slot)
		return err
	}))
}
