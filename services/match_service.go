package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/beloteo/tournament-engine/models"
	"github.com/beloteo/tournament-engine/repositories"
)

// FinishMatchInput is a completed match's outcome as reported by the
// score-keeping layer: the final score pair plus the opaque domain counters
// for each side.
type FinishMatchInput struct {
	Score1 int       `json:"score1"`
	Score2 int       `json:"score2"`
	Stats1 SideStats `json:"stats1"`
	Stats2 SideStats `json:"stats2"`
}

type MatchService interface {
	GetMatch(ctx context.Context, id int) (*models.Match, error)
	ListByTournament(ctx context.Context, tournamentID int) ([]*models.Match, error)

	// StartMatch is the single concurrency guard of the engine: the
	// pending -> ongoing transition is a conditional write, so the second of
	// two racing clients gets ErrMatchAlreadyStarted.
	StartMatch(ctx context.Context, id int) (*models.Match, error)

	FinishMatch(ctx context.Context, id int, input FinishMatchInput) (*models.Match, error)

	// ForfeitMatch resolves a match without play: the forfeiting side takes
	// 0, the other side the tournament's target points, and the result flows
	// through standings and propagation like any other finish.
	ForfeitMatch(ctx context.Context, id int, forfeitSlot int) (*models.Match, error)
}

type matchService struct {
	matchRepo      repositories.MatchRepository
	tournamentRepo repositories.TournamentRepository
	progression    ProgressionService
	standings      StandingsService
	bracketSvc     BracketService
	logger         *slog.Logger
}

func NewMatchService(
	matchRepo repositories.MatchRepository,
	tournamentRepo repositories.TournamentRepository,
	progression ProgressionService,
	standings StandingsService,
	bracketSvc BracketService,
	logger *slog.Logger,
) MatchService {
	return &matchService{
		matchRepo:      matchRepo,
		tournamentRepo: tournamentRepo,
		progression:    progression,
		standings:      standings,
		bracketSvc:     bracketSvc,
		logger:         logger,
	}
}

func (s *matchService) GetMatch(ctx context.Context, id int) (*models.Match, error) {
	match, err := s.matchRepo.GetByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	return match, nil
}

func (s *matchService) ListByTournament(ctx context.Context, tournamentID int) ([]*models.Match, error) {
	matches, err := s.matchRepo.ListByTournament(ctx, nil, tournamentID, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches for tournament %d: %w", tournamentID, err)
	}
	return matches, nil
}

func (s *matchService) StartMatch(ctx context.Context, id int) (*models.Match, error) {
	match, err := s.GetMatch(ctx, id)
	if err != nil {
		return nil, err
	}
	switch match.Status {
	case models.MatchStatusOngoing:
		return nil, ErrMatchAlreadyStarted
	case models.MatchStatusFinished:
		return nil, ErrMatchAlreadyFinished
	}
	if !match.SideFilled(1) || !match.SideFilled(2) {
		return nil, ErrMatchNotReady
	}

	started, err := s.matchRepo.MarkOngoing(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	if !started {
		// Lost the race between our read and the conditional write.
		current, readErr := s.GetMatch(ctx, id)
		if readErr == nil && current.Status == models.MatchStatusFinished {
			return nil, ErrMatchAlreadyFinished
		}
		return nil, ErrMatchAlreadyStarted
	}

	match.Status = models.MatchStatusOngoing
	return match, nil
}

func (s *matchService) FinishMatch(ctx context.Context, id int, input FinishMatchInput) (*models.Match, error) {
	if input.Score1 < 0 || input.Score2 < 0 {
		return nil, ErrInvalidScore
	}
	if input.Score1 == input.Score2 {
		return nil, ErrTiedScore
	}

	match, tournament, err := s.loadMutable(ctx, id)
	if err != nil {
		return nil, err
	}
	if !match.SideFilled(1) || !match.SideFilled(2) {
		return nil, ErrMatchNotReady
	}

	finished, err := s.matchRepo.Finish(ctx, nil, id, input.Score1, input.Score2, match.Roster1, match.Roster2)
	if err != nil {
		return nil, err
	}
	if !finished {
		return nil, ErrMatchAlreadyFinished
	}
	match.Score1, match.Score2 = &input.Score1, &input.Score2
	match.Status = models.MatchStatusFinished

	if err := s.standings.RecordResult(ctx, tournament, match, input.Stats1, input.Stats2); err != nil {
		// The finish is committed; surface the bookkeeping failure without
		// pretending the match is still open.
		return match, fmt.Errorf("match %d finished but standings update failed: %w", id, err)
	}

	return match, s.afterFinish(ctx, tournament, match)
}

func (s *matchService) ForfeitMatch(ctx context.Context, id int, forfeitSlot int) (*models.Match, error) {
	if forfeitSlot != 1 && forfeitSlot != 2 {
		return nil, ErrInvalidForfeitSide
	}

	match, tournament, err := s.loadMutable(ctx, id)
	if err != nil {
		return nil, err
	}
	if !match.SideFilled(1) || !match.SideFilled(2) {
		return nil, ErrMatchNotReady
	}

	score1, score2 := tournament.TargetPoints, 0
	if forfeitSlot == 1 {
		score1, score2 = 0, tournament.TargetPoints
	}

	finished, err := s.matchRepo.Finish(ctx, nil, id, score1, score2, match.Roster1, match.Roster2)
	if err != nil {
		return nil, err
	}
	if !finished {
		return nil, ErrMatchAlreadyFinished
	}
	match.Score1, match.Score2 = &score1, &score2
	match.Status = models.MatchStatusFinished

	s.logger.Info("match forfeited",
		slog.Int("match_id", id),
		slog.Int("forfeit_slot", forfeitSlot),
		slog.Int("tournament_id", tournament.ID),
	)

	if err := s.standings.RecordForfeit(ctx, tournament, match, forfeitSlot); err != nil {
		return match, fmt.Errorf("match %d forfeited but standings update failed: %w", id, err)
	}

	return match, s.afterFinish(ctx, tournament, match)
}

// loadMutable fetches a match and its tournament, rejecting mutations on
// matches that already finished or tournaments that are frozen.
func (s *matchService) loadMutable(ctx context.Context, id int) (*models.Match, *models.Tournament, error) {
	match, err := s.GetMatch(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if match.Status == models.MatchStatusFinished {
		return nil, nil, ErrMatchAlreadyFinished
	}

	tournament, err := s.tournamentRepo.GetByID(ctx, nil, match.TournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, nil, ErrTournamentNotFound
		}
		return nil, nil, err
	}
	if tournament.Status == models.TournamentStatusFinished {
		return nil, nil, ErrTournamentFinished
	}
	return match, tournament, nil
}

// afterFinish runs the downstream consequences of a committed finish:
// propagation (elimination formats), the completion predicate, and lazy swiss
// round generation. None of these roll back the finish; failures are
// reported to the caller and logged.
func (s *matchService) afterFinish(ctx context.Context, tournament *models.Tournament, match *models.Match) error {
	var errs []error

	if tournament.Format != models.FormatSwiss {
		if err := s.progression.Propagate(ctx, match); err != nil {
			s.logger.Error("result propagation failed",
				slog.Int("match_id", match.ID), slog.Any("error", err))
			errs = append(errs, err)
		}
	}

	complete, err := s.standings.CheckAndFinalize(ctx, tournament)
	if err != nil {
		s.logger.Error("completion check failed",
			slog.Int("tournament_id", tournament.ID), slog.Any("error", err))
		errs = append(errs, err)
	}

	if tournament.Format == models.FormatSwiss && !complete {
		if _, err := s.bracketSvc.EnsureNextSwissRound(ctx, tournament); err != nil {
			s.logger.Error("swiss round generation failed",
				slog.Int("tournament_id", tournament.ID), slog.Any("error", err))
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
