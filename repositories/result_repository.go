package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/beloteo/tournament-engine/models"
)

var ErrResultNotFound = errors.New("tournament result not found")

type ResultRepository interface {
	// Create inserts the archival record unless one already exists for the
	// tournament, reporting whether this call was the one that wrote it.
	Create(ctx context.Context, exec SQLExecutor, result *models.TournamentResult) (bool, error)

	GetByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) (*models.TournamentResult, error)
}

type postgresResultRepository struct {
	db *sql.DB
}

func NewPostgresResultRepository(db *sql.DB) ResultRepository {
	return &postgresResultRepository{db: db}
}

func (r *postgresResultRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresResultRepository) Create(ctx context.Context, exec SQLExecutor, result *models.TournamentResult) (bool, error) {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO tournament_results (id, tournament_id, podium, archived_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (tournament_id) DO NOTHING`

	res, err := executor.ExecContext(ctx, query, result.ID, result.TournamentID, result.Podium)
	if err != nil {
		return false, fmt.Errorf("failed to archive result for tournament %d: %w", result.TournamentID, err)
	}
	return rowsWereAffected(res)
}

func (r *postgresResultRepository) GetByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) (*models.TournamentResult, error) {
	executor := r.getExecutor(exec)
	query := `SELECT id, tournament_id, podium, archived_at FROM tournament_results WHERE tournament_id = $1`

	result := &models.TournamentResult{}
	err := executor.QueryRowContext(ctx, query, tournamentID).Scan(
		&result.ID, &result.TournamentID, &result.Podium, &result.ArchivedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrResultNotFound
		}
		return nil, fmt.Errorf("failed to scan result for tournament %d: %w", tournamentID, err)
	}
	return result, nil
}
