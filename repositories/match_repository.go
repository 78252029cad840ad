package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/lib/pq"

	"github.com/beloteo/tournament-engine/models"
)

var (
	ErrMatchNotFound          = errors.New("match not found")
	ErrMatchTournamentInvalid = errors.New("match tournament conflict or invalid")
	ErrMatchTeamInvalid       = errors.New("match team conflict or invalid")
	ErrMatchPositionTaken     = errors.New("a match already occupies this bracket position")
)

const matchColumns = `
	id, tournament_id, round, order_in_round, bracket,
	team1_id, team2_id, roster1, roster2, score1, score2,
	status, best_of, next_winner_match_id, next_winner_slot,
	next_loser_match_id, next_loser_slot, changed, created_at`

type MatchRepository interface {
	Create(ctx context.Context, exec SQLExecutor, match *models.Match) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Match, error)
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int, round *int, status *models.MatchStatus) ([]*models.Match, error)
	UpdateNextPointers(ctx context.Context, exec SQLExecutor, matchID int, winnerMatchID, winnerSlot, loserMatchID, loserSlot *int) error

	// MarkOngoing transitions pending -> ongoing. It reports false without
	// error when the guard failed because the match already left pending;
	// the caller re-reads to decide which conflict to surface.
	MarkOngoing(ctx context.Context, exec SQLExecutor, id int) (bool, error)

	// Finish atomically writes status, scores and roster snapshots, guarded
	// against a match that is already finished.
	Finish(ctx context.Context, exec SQLExecutor, id int, score1, score2 int, roster1, roster2 models.Roster) (bool, error)

	// FillSlot writes a team into one side of a match only if that side is
	// still empty, and reports whether the write happened. This is the
	// conditional update that keeps concurrent propagations from clobbering
	// each other.
	FillSlot(ctx context.Context, exec SQLExecutor, matchID, slot int, teamID int, roster models.Roster) (bool, error)
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

func (r *postgresMatchRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresMatchRepository) Create(ctx context.Context, exec SQLExecutor, match *models.Match) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO matches
			(tournament_id, round, order_in_round, bracket,
			 team1_id, team2_id, roster1, roster2, score1, score2,
			 status, best_of, next_winner_match_id, next_winner_slot,
			 next_loser_match_id, next_loser_slot, changed)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING id, created_at`

	err := executor.QueryRowContext(ctx, query,
		match.TournamentID,
		match.Round,
		match.OrderInRound,
		match.Bracket,
		match.Team1ID,
		match.Team2ID,
		match.Roster1,
		match.Roster2,
		match.Score1,
		match.Score2,
		match.Status,
		match.BestOf,
		match.NextWinnerMatchID,
		match.NextWinnerSlot,
		match.NextLoserMatchID,
		match.NextLoserSlot,
		match.Changed,
	).Scan(&match.ID, &match.CreatedAt)

	return r.handleMatchError(err)
}

func (r *postgresMatchRepository) scanMatch(rowScanner interface{ Scan(...interface{}) error }) (*models.Match, error) {
	match := &models.Match{}
	err := rowScanner.Scan(
		&match.ID,
		&match.TournamentID,
		&match.Round,
		&match.OrderInRound,
		&match.Bracket,
		&match.Team1ID,
		&match.Team2ID,
		&match.Roster1,
		&match.Roster2,
		&match.Score1,
		&match.Score2,
		&match.Status,
		&match.BestOf,
		&match.NextWinnerMatchID,
		&match.NextWinnerSlot,
		&match.NextLoserMatchID,
		&match.NextLoserSlot,
		&match.Changed,
		&match.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to scan match: %w", err)
	}
	return match, nil
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Match, error) {
	executor := r.getExecutor(exec)
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1`
	return r.scanMatch(executor.QueryRowContext(ctx, query, id))
}

func (r *postgresMatchRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int, roundFilter *int, statusFilter *models.MatchStatus) ([]*models.Match, error) {
	executor := r.getExecutor(exec)

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + matchColumns + ` FROM matches WHERE tournament_id = $1`)

	args := []interface{}{tournamentID}
	placeholderIndex := 2

	if roundFilter != nil {
		queryBuilder.WriteString(" AND round = $" + strconv.Itoa(placeholderIndex))
		args = append(args, *roundFilter)
		placeholderIndex++
	}
	if statusFilter != nil {
		queryBuilder.WriteString(" AND status = $" + strconv.Itoa(placeholderIndex))
		args = append(args, *statusFilter)
		placeholderIndex++
	}
	queryBuilder.WriteString(" ORDER BY round ASC, bracket ASC, order_in_round ASC")

	rows, err := executor.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	matches := make([]*models.Match, 0)
	for rows.Next() {
		match, scanErr := r.scanMatch(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		matches = append(matches, match)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during match rows iteration: %w", err)
	}
	return matches, nil
}

func (r *postgresMatchRepository) UpdateNextPointers(ctx context.Context, exec SQLExecutor, matchID int, winnerMatchID, winnerSlot, loserMatchID, loserSlot *int) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE matches
		SET next_winner_match_id = $1, next_winner_slot = $2,
		    next_loser_match_id = $3, next_loser_slot = $4
		WHERE id = $5`
	result, err := executor.ExecContext(ctx, query, winnerMatchID, winnerSlot, loserMatchID, loserSlot, matchID)
	if err != nil {
		return fmt.Errorf("UpdateNextPointers: failed to execute query for match %d: %w", matchID, err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) MarkOngoing(ctx context.Context, exec SQLExecutor, id int) (bool, error) {
	executor := r.getExecutor(exec)
	query := `UPDATE matches SET status = $1 WHERE id = $2 AND status = $3`
	result, err := executor.ExecContext(ctx, query, models.MatchStatusOngoing, id, models.MatchStatusPending)
	if err != nil {
		return false, fmt.Errorf("MarkOngoing: failed to execute query for match %d: %w", id, err)
	}
	return rowsWereAffected(result)
}

func (r *postgresMatchRepository) Finish(ctx context.Context, exec SQLExecutor, id int, score1, score2 int, roster1, roster2 models.Roster) (bool, error) {
	executor := r.getExecutor(exec)
	query := `
		UPDATE matches
		SET status = $1, score1 = $2, score2 = $3, roster1 = $4, roster2 = $5
		WHERE id = $6 AND status <> $1`
	result, err := executor.ExecContext(ctx, query, models.MatchStatusFinished, score1, score2, roster1, roster2, id)
	if err != nil {
		return false, fmt.Errorf("Finish: failed to execute query for match %d: %w", id, err)
	}
	return rowsWereAffected(result)
}

func (r *postgresMatchRepository) FillSlot(ctx context.Context, exec SQLExecutor, matchID, slot int, teamID int, roster models.Roster) (bool, error) {
	executor := r.getExecutor(exec)

	var query string
	switch slot {
	case 1:
		query = `UPDATE matches SET team1_id = $1, roster1 = $2 WHERE id = $3 AND team1_id IS NULL`
	case 2:
		query = `UPDATE matches SET team2_id = $1, roster2 = $2 WHERE id = $3 AND team2_id IS NULL`
	default:
		return false, fmt.Errorf("FillSlot: invalid slot %d for match %d", slot, matchID)
	}

	result, err := executor.ExecContext(ctx, query, teamID, roster, matchID)
	if err != nil {
		return false, fmt.Errorf("FillSlot: failed to execute query for match %d slot %d: %w", matchID, slot, err)
	}
	return rowsWereAffected(result)
}

func (r *postgresMatchRepository) handleMatchError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Constraint {
		case "matches_tournament_id_fkey":
			return ErrMatchTournamentInvalid
		case "matches_team1_id_fkey", "matches_team2_id_fkey":
			return ErrMatchTeamInvalid
		case "matches_tournament_id_bracket_round_order_in_round_key":
			return ErrMatchPositionTaken
		}
	}
	return err
}
