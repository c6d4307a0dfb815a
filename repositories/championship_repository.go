package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/league-bracket/models"
)

var ErrChampionshipNotFound = errors.New("championship not found")

type ChampionshipRepository interface {
	GetByID(ctx context.Context, id int) (*models.Championship, error)
}

type postgresChampionshipRepository struct {
	db *sql.DB
}

func NewPostgresChampionshipRepository(db *sql.DB) ChampionshipRepository {
	return &postgresChampionshipRepository{db: db}
}

func (r *postgresChampionshipRepository) GetByID(ctx context.Context, id int) (*models.Championship, error) {
	query := `SELECT id, name, status, created_at FROM championships WHERE id = $1`

	c := &models.Championship{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&c.ID, &c.Name, &c.Status, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrChampionshipNotFound
		}
		return nil, fmt.Errorf("failed to scan championship by id %d: %w", id, err)
	}
	return c, nil
}
