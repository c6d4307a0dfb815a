package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/league-bracket/models"
)

var ErrTeamNotFound = errors.New("team not found")

// TeamRepository только читает команды: ими управляет внешняя часть системы.
type TeamRepository interface {
	GetByID(ctx context.Context, id int) (*models.Team, error)
}

type postgresTeamRepository struct {
	db *sql.DB
}

func NewPostgresTeamRepository(db *sql.DB) TeamRepository {
	return &postgresTeamRepository{db: db}
}

func (r *postgresTeamRepository) GetByID(ctx context.Context, id int) (*models.Team, error) {
	query := `SELECT id, name, grade, gender, created_at FROM teams WHERE id = $1`

	var team models.Team
	err := r.db.QueryRowContext(ctx, query, id).Scan(&team.ID, &team.Name, &team.Grade, &team.Gender, &team.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to scan team by id %d: %w", id, err)
	}
	return &team, nil
}
