package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/beloteo/tournament-engine/brackets"
	"github.com/beloteo/tournament-engine/models"
	"github.com/beloteo/tournament-engine/repositories"
)

type BracketService interface {
	// BuildAndPersist generates the full initial match graph for the
	// tournament and stores it through exec. Matches are created first, then
	// linked, so UIDs can be resolved to database identifiers; the caller
	// owns the transaction and nothing partial survives a failure.
	BuildAndPersist(ctx context.Context, exec repositories.SQLExecutor, tournament *models.Tournament, teams []*models.Team) ([]*models.Match, error)

	// EnsureNextSwissRound generates the next swiss round once every match
	// of the current round is finished and the per-team cap still allows
	// another. Returns the newly created matches, nil when nothing was due.
	EnsureNextSwissRound(ctx context.Context, tournament *models.Tournament) ([]*models.Match, error)
}

type bracketService struct {
	matchRepo    repositories.MatchRepository
	teamRepo     repositories.TeamRepository
	standingRepo repositories.StandingRepository
	logger       *slog.Logger
}

func NewBracketService(
	matchRepo repositories.MatchRepository,
	teamRepo repositories.TeamRepository,
	standingRepo repositories.StandingRepository,
	logger *slog.Logger,
) BracketService {
	return &bracketService{
		matchRepo:    matchRepo,
		teamRepo:     teamRepo,
		standingRepo: standingRepo,
		logger:       logger,
	}
}

func (s *bracketService) BuildAndPersist(ctx context.Context, exec repositories.SQLExecutor, tournament *models.Tournament, teams []*models.Team) ([]*models.Match, error) {
	generator, err := brackets.ForFormat(tournament.Format)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidTopologyInput, err)
	}

	blueprints, err := generator.Generate(ctx, brackets.GenerateParams{
		Tournament: tournament,
		Teams:      teams,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidTopologyInput, err)
	}

	s.logger.Info("bracket generated",
		slog.Int("tournament_id", tournament.ID),
		slog.String("generator", generator.Name()),
		slog.Int("matches", len(blueprints)),
	)

	rosters := teamRostersByID(teams)

	// First pass: create every match row and remember UID -> database ID.
	idByUID := make(map[string]int, len(blueprints))
	matchByUID := make(map[string]*models.Match, len(blueprints))
	created := make([]*models.Match, 0, len(blueprints))

	for _, bp := range blueprints {
		match := &models.Match{
			TournamentID: tournament.ID,
			Round:        bp.Round,
			OrderInRound: bp.OrderInRound,
			Bracket:      bp.Bracket,
			Team1ID:      bp.Team1ID,
			Team2ID:      bp.Team2ID,
			Status:       models.MatchStatusPending,
			BestOf:       tournament.BestOf,
			Changed:      bp.Changed,
		}
		if bp.Team1ID != nil {
			match.Roster1 = rosters[*bp.Team1ID]
		}
		if bp.Team2ID != nil {
			match.Roster2 = rosters[*bp.Team2ID]
		}
		if err := s.matchRepo.Create(ctx, exec, match); err != nil {
			return nil, fmt.Errorf("failed to create match %s for tournament %d: %w", bp.UID, tournament.ID, err)
		}
		idByUID[bp.UID] = match.ID
		matchByUID[bp.UID] = match
		created = append(created, match)
	}

	// Second pass: resolve blueprint UIDs into downstream pointers.
	for _, bp := range blueprints {
		if bp.WinnerTargetUID == nil && bp.LoserTargetUID == nil {
			continue
		}
		match := matchByUID[bp.UID]

		if bp.WinnerTargetUID != nil {
			targetID, ok := idByUID[*bp.WinnerTargetUID]
			if !ok {
				return nil, fmt.Errorf("bracket blueprint %s references unknown winner target %s", bp.UID, *bp.WinnerTargetUID)
			}
			slot := bp.WinnerSlot
			match.NextWinnerMatchID = &targetID
			match.NextWinnerSlot = &slot
		}
		if bp.LoserTargetUID != nil {
			targetID, ok := idByUID[*bp.LoserTargetUID]
			if !ok {
				return nil, fmt.Errorf("bracket blueprint %s references unknown loser target %s", bp.UID, *bp.LoserTargetUID)
			}
			slot := bp.LoserSlot
			match.NextLoserMatchID = &targetID
			match.NextLoserSlot = &slot
		}

		if err := s.matchRepo.UpdateNextPointers(ctx, exec, match.ID,
			match.NextWinnerMatchID, match.NextWinnerSlot,
			match.NextLoserMatchID, match.NextLoserSlot,
		); err != nil {
			return nil, fmt.Errorf("failed to link match %s: %w", bp.UID, err)
		}
	}

	return created, nil
}

func (s *bracketService) EnsureNextSwissRound(ctx context.Context, tournament *models.Tournament) ([]*models.Match, error) {
	if tournament.Format != models.FormatSwiss {
		return nil, nil
	}

	matches, err := s.matchRepo.ListByTournament(ctx, nil, tournament.ID, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches for swiss round check: %w", err)
	}
	if len(matches) == 0 {
		return nil, nil
	}

	currentRound := 0
	for _, m := range matches {
		if m.Round > currentRound {
			currentRound = m.Round
		}
	}
	if currentRound >= tournament.EffectiveSwissRounds() {
		return nil, nil
	}
	for _, m := range matches {
		if m.Round == currentRound && m.Status != models.MatchStatusFinished {
			return nil, nil
		}
	}

	teams, err := s.teamRepo.ListByTournament(ctx, nil, tournament.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams for swiss pairing: %w", err)
	}
	orderedIDs := s.teamIDsByStanding(ctx, tournament.ID, teams)

	played := make(map[brackets.PairKey]bool, len(matches))
	for _, m := range matches {
		if m.Team1ID != nil && m.Team2ID != nil {
			played[brackets.NewPairKey(*m.Team1ID, *m.Team2ID)] = true
		}
	}

	// Two finishers of the last matches of a round can both reach this point
	// and pair round currentRound+1 twice. The unique constraint on
	// (tournament_id, bracket, round, order_in_round) rejects the second
	// insert; the loser of that race backs off below.
	blueprints := brackets.NextSwissRound(orderedIDs, played, currentRound+1)
	if len(blueprints) == 0 {
		return nil, nil
	}

	rosters := teamRostersByID(teams)
	created := make([]*models.Match, 0, len(blueprints))
	for _, bp := range blueprints {
		match := &models.Match{
			TournamentID: tournament.ID,
			Round:        bp.Round,
			OrderInRound: bp.OrderInRound,
			Bracket:      models.BracketSwiss,
			Team1ID:      bp.Team1ID,
			Team2ID:      bp.Team2ID,
			Roster1:      rosters[*bp.Team1ID],
			Roster2:      rosters[*bp.Team2ID],
			Status:       models.MatchStatusPending,
			BestOf:       tournament.BestOf,
			Changed:      true,
		}
		if err := s.matchRepo.Create(ctx, nil, match); err != nil {
			if errors.Is(err, repositories.ErrMatchPositionTaken) {
				s.logger.Info("swiss round already generated concurrently",
					slog.Int("tournament_id", tournament.ID),
					slog.Int("round", bp.Round),
				)
				return nil, nil
			}
			return nil, fmt.Errorf("failed to create swiss round %d match: %w", bp.Round, err)
		}
		created = append(created, match)
	}

	s.logger.Info("swiss round generated",
		slog.Int("tournament_id", tournament.ID),
		slog.Int("round", currentRound+1),
		slog.Int("matches", len(created)),
	)
	return created, nil
}

// teamIDsByStanding orders team identifiers by current standing so pairing
// preference follows cumulative record; teams without a standing row yet keep
// their creation order at the tail.
func (s *bracketService) teamIDsByStanding(ctx context.Context, tournamentID int, teams []*models.Team) []int {
	ordered := make([]int, 0, len(teams))
	seen := make(map[int]bool, len(teams))

	kind := models.ParticipantTeam
	standings, err := s.standingRepo.ListByTournament(ctx, nil, tournamentID, &kind)
	if err != nil {
		s.logger.Warn("failed to load standings for swiss pairing, using creation order",
			slog.Int("tournament_id", tournamentID), slog.Any("error", err))
	} else {
		for _, st := range standings {
			if id, convErr := strconv.Atoi(st.ParticipantID); convErr == nil {
				ordered = append(ordered, id)
				seen[id] = true
			}
		}
	}
	for _, t := range teams {
		if !seen[t.ID] {
			ordered = append(ordered, t.ID)
		}
	}
	return ordered
}

func teamRostersByID(teams []*models.Team) map[int]models.Roster {
	rosters := make(map[int]models.Roster, len(teams))
	for _, t := range teams {
		rosters[t.ID] = t.Members
	}
	return rosters
}
