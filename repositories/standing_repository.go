package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/beloteo/tournament-engine/models"
)

var ErrStandingNotFound = errors.New("standing not found")

type StandingRepository interface {
	// ApplyDelta upserts one participant's standing, accumulating the delta
	// on conflict. A single statement keeps concurrent finishers from losing
	// increments to read-modify-write races.
	ApplyDelta(ctx context.Context, exec SQLExecutor, tournamentID int, participantID string, kind models.ParticipantKind, delta models.StandingDelta) error

	GetByParticipant(ctx context.Context, exec SQLExecutor, tournamentID int, participantID string) (*models.Standing, error)
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int, kind *models.ParticipantKind) ([]*models.Standing, error)
}

type postgresStandingRepository struct {
	db *sql.DB
}

func NewPostgresStandingRepository(db *sql.DB) StandingRepository {
	return &postgresStandingRepository{db: db}
}

func (r *postgresStandingRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresStandingRepository) ApplyDelta(ctx context.Context, exec SQLExecutor, tournamentID int, participantID string, kind models.ParticipantKind, delta models.StandingDelta) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO standings
			(tournament_id, participant_id, kind, games_played, wins, losses,
			 points_scored, points_conceded, contracts, coinches, shutouts, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW())
		ON CONFLICT (tournament_id, participant_id) DO UPDATE SET
			games_played    = standings.games_played + EXCLUDED.games_played,
			wins            = standings.wins + EXCLUDED.wins,
			losses          = standings.losses + EXCLUDED.losses,
			points_scored   = standings.points_scored + EXCLUDED.points_scored,
			points_conceded = standings.points_conceded + EXCLUDED.points_conceded,
			contracts       = standings.contracts + EXCLUDED.contracts,
			coinches        = standings.coinches + EXCLUDED.coinches,
			shutouts        = standings.shutouts + EXCLUDED.shutouts,
			updated_at      = NOW()`

	_, err := executor.ExecContext(ctx, query,
		tournamentID, participantID, kind,
		delta.GamesPlayed, delta.Wins, delta.Losses,
		delta.PointsScored, delta.PointsConceded,
		delta.Contracts, delta.Coinches, delta.Shutouts,
	)
	if err != nil {
		return fmt.Errorf("ApplyDelta: failed for tournament %d participant %s: %w", tournamentID, participantID, err)
	}
	return nil
}

func (r *postgresStandingRepository) scanStanding(rowScanner interface{ Scan(...interface{}) error }) (*models.Standing, error) {
	s := &models.Standing{}
	err := rowScanner.Scan(
		&s.ID, &s.TournamentID, &s.ParticipantID, &s.Kind,
		&s.GamesPlayed, &s.Wins, &s.Losses,
		&s.PointsScored, &s.PointsConceded,
		&s.Contracts, &s.Coinches, &s.Shutouts,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStandingNotFound
		}
		return nil, fmt.Errorf("failed to scan standing: %w", err)
	}
	return s, nil
}

func (r *postgresStandingRepository) GetByParticipant(ctx context.Context, exec SQLExecutor, tournamentID int, participantID string) (*models.Standing, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT id, tournament_id, participant_id, kind, games_played, wins, losses,
		       points_scored, points_conceded, contracts, coinches, shutouts, updated_at
		FROM standings
		WHERE tournament_id = $1 AND participant_id = $2`
	return r.scanStanding(executor.QueryRowContext(ctx, query, tournamentID, participantID))
}

func (r *postgresStandingRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int, kind *models.ParticipantKind) ([]*models.Standing, error) {
	executor := r.getExecutor(exec)

	query := `
		SELECT id, tournament_id, participant_id, kind, games_played, wins, losses,
		       points_scored, points_conceded, contracts, coinches, shutouts, updated_at
		FROM standings
		WHERE tournament_id = $1`
	args := []interface{}{tournamentID}
	if kind != nil {
		query += ` AND kind = $2`
		args = append(args, *kind)
	}
	query += ` ORDER BY wins DESC, points_scored - points_conceded DESC, participant_id ASC`

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list standings for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	standings := make([]*models.Standing, 0)
	for rows.Next() {
		s, scanErr := r.scanStanding(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		standings = append(standings, s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during standing rows iteration: %w", err)
	}
	return standings, nil
}
