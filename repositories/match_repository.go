package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Dosada05/league-bracket/models"
	"github.com/lib/pq"
)

var (
	ErrMatchNotFound            = errors.New("match not found")
	ErrMatchChampionshipInvalid = errors.New("match championship conflict or invalid")
	ErrMatchTeamInvalid         = errors.New("match team conflict or invalid")
	ErrMatchWinnerInvalid       = errors.New("match winner must be one of its teams")
	ErrMatchNextInvalid         = errors.New("match next_match_id conflict or invalid")
	ErrFinalsConflict           = errors.New("bracket already has a finals match")
	ErrFeederLimit              = errors.New("match already has two feeders")
)

// MatchFilter - необязательные фильтры выборки матчей сетки.
type MatchFilter struct {
	Status *models.MatchStatus
	Stage  *models.Stage
}

// MatchRepository - сторона чтения хранилища сетки.
type MatchRepository interface {
	GetByID(ctx context.Context, id int) (*models.Match, error)
	ListByBracket(ctx context.Context, key models.BracketKey, filter MatchFilter) ([]*models.Match, error)
}

const matchColumns = `id, championship_id, sport_type, gender, stage, team_a_id, team_b_id, status,
		       winner_id, next_match_id, feeder_count, score_a, score_b, created_at, updated_at`

func scanMatch(row rowScanner) (*models.Match, error) {
	var m models.Match
	err := row.Scan(
		&m.ID,
		&m.ChampionshipID,
		&m.SportType,
		&m.Gender,
		&m.Stage,
		&m.TeamAID,
		&m.TeamBID,
		&m.Status,
		&m.WinnerID,
		&m.NextMatchID,
		&m.FeederCount,
		&m.ScoreA,
		&m.ScoreB,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func scanMatches(rows *sql.Rows) ([]*models.Match, error) {
	defer rows.Close()
	matches := make([]*models.Match, 0)
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan match row: %w", err)
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during match rows iteration: %w", err)
	}
	return matches, nil
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, id int) (*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1`

	m, err := scanMatch(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to scan match by id %d: %w", id, err)
	}
	return m, nil
}

func (r *postgresMatchRepository) ListByBracket(ctx context.Context, key models.BracketKey, filter MatchFilter) ([]*models.Match, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + matchColumns + `
		FROM matches
		WHERE championship_id = $1 AND sport_type = $2 AND gender = $3`)

	args := []interface{}{key.ChampionshipID, key.SportType, key.Gender}
	placeholderIndex := 4

	if filter.Status != nil {
		queryBuilder.WriteString(" AND status = $")
		queryBuilder.WriteString(strconv.Itoa(placeholderIndex))
		args = append(args, *filter.Status)
		placeholderIndex++
	}
	if filter.Stage != nil {
		queryBuilder.WriteString(" AND stage = $")
		queryBuilder.WriteString(strconv.Itoa(placeholderIndex))
		args = append(args, *filter.Stage)
	}

	queryBuilder.WriteString(" ORDER BY id ASC")

	rows, err := r.db.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches for bracket %s: %w", key, err)
	}
	return scanMatches(rows)
}

func handleMatchError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch pqErr.Constraint {
	case "matches_championship_id_fkey":
		return ErrMatchChampionshipInvalid
	case "matches_team_a_id_fkey", "matches_team_b_id_fkey":
		return ErrMatchTeamInvalid
	case "matches_next_match_id_fkey", "matches_final_no_next":
		return ErrMatchNextInvalid
	case "matches_winner_check", "matches_winner_id_fkey":
		return ErrMatchWinnerInvalid
	case "matches_single_final_idx":
		return ErrFinalsConflict
	case "matches_feeder_count_check":
		return ErrFeederLimit
	}
	if isRetryable(err) {
		return fmt.Errorf("%w: %v", ErrConflict, err)
	}
	return err
}
