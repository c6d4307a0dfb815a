package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Dosada05/league-bracket/models"
)

// BracketTx - операции записи сетки внутри одной транзакции. Все методы,
// принимающие решение по текущему состоянию (свободный слот, число фидеров),
// выполняются одним условным UPDATE, а не чтением с последующей записью.
type BracketTx interface {
	// FindClaimableMatch возвращает первый (по id) матч стадии, у которого меньше
	// двух фидеров, или nil.
	FindClaimableMatch(ctx context.Context, key models.BracketKey, stage models.Stage) (*models.Match, error)
	// FindFinal возвращает финал сетки или nil.
	FindFinal(ctx context.Context, key models.BracketKey) (*models.Match, error)
	// ClaimSlot атомарно увеличивает feeder_count, только если он меньше двух.
	ClaimSlot(ctx context.Context, matchID int) (bool, error)
	InsertMatch(ctx context.Context, match *models.Match) error
	GetMatchForUpdate(ctx context.Context, id int) (*models.Match, error)
	// SetResult помечает матч сыгранным. Победитель должен быть одной из команд.
	SetResult(ctx context.Context, matchID, winnerID int, scoreA, scoreB *int) error
	// FillSlot ставит команду в первый свободный слот (team_a, затем team_b)
	// условным UPDATE ... WHERE slot IS NULL. SlotNone - оба слота заняты.
	FillSlot(ctx context.Context, matchID, teamID int) (models.Slot, error)
}

// BracketStore запускает транзакции, сериализованные по сетке: две транзакции
// с одинаковым ключом никогда не выполняются одновременно.
type BracketStore interface {
	InTx(ctx context.Context, key models.BracketKey, fn func(tx BracketTx) error) error
}

type postgresBracketStore struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewPostgresBracketStore(db *sql.DB, logger *slog.Logger) BracketStore {
	return &postgresBracketStore{db: db, logger: logger}
}

func (s *postgresBracketStore) InTx(ctx context.Context, key models.BracketKey, fn func(tx BracketTx) error) (txErr error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		} else if txErr != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				s.logger.Error("bracket tx rollback failed", slog.String("bracket", key.String()), slog.Any("error", rbErr))
				txErr = fmt.Errorf("transaction processing error: %w (rollback also failed: %v)", txErr, rbErr)
			}
		} else if cErr := tx.Commit(); cErr != nil {
			txErr = fmt.Errorf("failed to commit bracket transaction: %w", handleMatchError(cErr))
		}
	}()

	// Блокировка на всю транзакцию: все выделения слотов одной сетки идут по очереди.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, key.String()); err != nil {
		return fmt.Errorf("failed to lock bracket %s: %w", key, handleMatchError(err))
	}

	return fn(&postgresBracketTx{tx: tx})
}

type postgresBracketTx struct {
	tx *sql.Tx
}

func (t *postgresBracketTx) FindClaimableMatch(ctx context.Context, key models.BracketKey, stage models.Stage) (*models.Match, error) {
	query := `SELECT ` + matchColumns + `
		FROM matches
		WHERE championship_id = $1 AND sport_type = $2 AND gender = $3 AND stage = $4 AND feeder_count < 2
		ORDER BY id ASC
		LIMIT 1
		FOR UPDATE`

	m, err := scanMatch(t.tx.QueryRowContext(ctx, query, key.ChampionshipID, key.SportType, key.Gender, stage))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("FindClaimableMatch: %w", handleMatchError(err))
	}
	return m, nil
}

func (t *postgresBracketTx) FindFinal(ctx context.Context, key models.BracketKey) (*models.Match, error) {
	query := `SELECT ` + matchColumns + `
		FROM matches
		WHERE championship_id = $1 AND sport_type = $2 AND gender = $3 AND stage = $4
		ORDER BY id ASC
		LIMIT 1
		FOR UPDATE`

	m, err := scanMatch(t.tx.QueryRowContext(ctx, query, key.ChampionshipID, key.SportType, key.Gender, models.StageFinals))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("FindFinal: %w", handleMatchError(err))
	}
	return m, nil
}

func (t *postgresBracketTx) ClaimSlot(ctx context.Context, matchID int) (bool, error) {
	query := `
		UPDATE matches
		SET feeder_count = feeder_count + 1, updated_at = NOW()
		WHERE id = $1 AND feeder_count < 2`

	result, err := t.tx.ExecContext(ctx, query, matchID)
	if err != nil {
		return false, fmt.Errorf("ClaimSlot: failed to execute query for match %d: %w", matchID, handleMatchError(err))
	}
	return affectedOne(result)
}

func (t *postgresBracketTx) InsertMatch(ctx context.Context, m *models.Match) error {
	query := `
		INSERT INTO matches
			(championship_id, sport_type, gender, stage, team_a_id, team_b_id,
			 status, winner_id, next_match_id, feeder_count, score_a, score_b)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at, updated_at`

	err := t.tx.QueryRowContext(ctx, query,
		m.ChampionshipID,
		m.SportType,
		m.Gender,
		m.Stage,
		m.TeamAID,
		m.TeamBID,
		m.Status,
		m.WinnerID,
		m.NextMatchID,
		m.FeederCount,
		m.ScoreA,
		m.ScoreB,
	).Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)

	return handleMatchError(err)
}

func (t *postgresBracketTx) GetMatchForUpdate(ctx context.Context, id int) (*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1 FOR UPDATE`

	m, err := scanMatch(t.tx.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("GetMatchForUpdate %d: %w", id, handleMatchError(err))
	}
	return m, nil
}

func (t *postgresBracketTx) SetResult(ctx context.Context, matchID, winnerID int, scoreA, scoreB *int) error {
	query := `
		UPDATE matches
		SET status = $2, winner_id = $3,
		    score_a = COALESCE($4, score_a), score_b = COALESCE($5, score_b),
		    updated_at = NOW()
		WHERE id = $1 AND winner_id IS NULL AND $3 IN (team_a_id, team_b_id)`

	result, err := t.tx.ExecContext(ctx, query, matchID, models.MatchStatusPlayed, winnerID, scoreA, scoreB)
	if err != nil {
		return fmt.Errorf("SetResult: failed to execute query for match %d: %w", matchID, handleMatchError(err))
	}
	return checkAffectedRows(result, ErrMatchWinnerInvalid)
}

func (t *postgresBracketTx) FillSlot(ctx context.Context, matchID, teamID int) (models.Slot, error) {
	queries := []struct {
		slot  models.Slot
		query string
	}{
		{models.SlotA, `UPDATE matches SET team_a_id = $2, updated_at = NOW() WHERE id = $1 AND team_a_id IS NULL`},
		{models.SlotB, `UPDATE matches SET team_b_id = $2, updated_at = NOW() WHERE id = $1 AND team_b_id IS NULL`},
	}
	for _, q := range queries {
		result, err := t.tx.ExecContext(ctx, q.query, matchID, teamID)
		if err != nil {
			return models.SlotNone, fmt.Errorf("FillSlot: failed to set %s of match %d: %w", q.slot, matchID, handleMatchError(err))
		}
		ok, err := affectedOne(result)
		if err != nil {
			return models.SlotNone, err
		}
		if ok {
			return q.slot, nil
		}
	}
	return models.SlotNone, nil
}
