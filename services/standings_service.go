package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"

	"github.com/google/uuid"

	"github.com/beloteo/tournament-engine/brackets"
	"github.com/beloteo/tournament-engine/models"
	"github.com/beloteo/tournament-engine/repositories"
)

// SideStats are the domain counters the score-keeping layer forwards for one
// side of a finished match. The engine accumulates them without interpreting
// them.
type SideStats struct {
	Contracts int `json:"contracts"`
	Coinches  int `json:"coinches"`
	Shutouts  int `json:"shutouts"`
}

type StandingsService interface {
	// RecordResult applies one finished match to the standings of both
	// teams and every player in their rosters.
	RecordResult(ctx context.Context, tournament *models.Tournament, match *models.Match, stats1, stats2 SideStats) error

	// RecordForfeit credits half the target score to each side (scored for
	// the winner, conceded for the loser) so forfeits do not distort
	// average-points statistics.
	RecordForfeit(ctx context.Context, tournament *models.Tournament, match *models.Match, forfeitSlot int) error

	// CheckAndFinalize re-derives the completion predicate from scratch and,
	// when it holds, archives the top-3 podium exactly once and freezes the
	// tournament. Reports whether the tournament is complete.
	CheckAndFinalize(ctx context.Context, tournament *models.Tournament) (bool, error)

	ListByTournament(ctx context.Context, tournamentID int, kind *models.ParticipantKind) ([]*models.Standing, error)
	Result(ctx context.Context, tournamentID int) (*models.TournamentResult, error)
}

type standingsService struct {
	matchRepo      repositories.MatchRepository
	teamRepo       repositories.TeamRepository
	standingRepo   repositories.StandingRepository
	resultRepo     repositories.ResultRepository
	tournamentRepo repositories.TournamentRepository
	logger         *slog.Logger
}

func NewStandingsService(
	matchRepo repositories.MatchRepository,
	teamRepo repositories.TeamRepository,
	standingRepo repositories.StandingRepository,
	resultRepo repositories.ResultRepository,
	tournamentRepo repositories.TournamentRepository,
	logger *slog.Logger,
) StandingsService {
	return &standingsService{
		matchRepo:      matchRepo,
		teamRepo:       teamRepo,
		standingRepo:   standingRepo,
		resultRepo:     resultRepo,
		tournamentRepo: tournamentRepo,
		logger:         logger,
	}
}

func teamParticipantID(teamID int) string {
	return strconv.Itoa(teamID)
}

func (s *standingsService) RecordResult(ctx context.Context, tournament *models.Tournament, match *models.Match, stats1, stats2 SideStats) error {
	winnerSlot := match.WinnerSlot()
	if winnerSlot == 0 {
		return ErrTiedScore
	}

	for slot := 1; slot <= 2; slot++ {
		own, opp := *scoreOf(match, slot), *scoreOf(match, 3-slot)
		stats := stats1
		if slot == 2 {
			stats = stats2
		}
		delta := models.StandingDelta{
			GamesPlayed:    1,
			PointsScored:   own,
			PointsConceded: opp,
			Contracts:      stats.Contracts,
			Coinches:       stats.Coinches,
			Shutouts:       stats.Shutouts,
		}
		if slot == winnerSlot {
			delta.Wins = 1
		} else {
			delta.Losses = 1
		}
		if err := s.applySide(ctx, tournament.ID, match, slot, delta); err != nil {
			return err
		}
	}
	return nil
}

func (s *standingsService) RecordForfeit(ctx context.Context, tournament *models.Tournament, match *models.Match, forfeitSlot int) error {
	half := tournament.TargetPoints / 2

	for slot := 1; slot <= 2; slot++ {
		delta := models.StandingDelta{GamesPlayed: 1}
		if slot == forfeitSlot {
			delta.Losses = 1
			delta.PointsConceded = half
		} else {
			delta.Wins = 1
			delta.PointsScored = half
		}
		if err := s.applySide(ctx, tournament.ID, match, slot, delta); err != nil {
			return err
		}
	}
	return nil
}

// applySide upserts one side's delta for the team and each rostered player.
func (s *standingsService) applySide(ctx context.Context, tournamentID int, match *models.Match, slot int, delta models.StandingDelta) error {
	teamID, roster := sideOf(match, slot)
	if teamID == nil {
		return fmt.Errorf("match %d side %d has no team to credit", match.ID, slot)
	}

	if err := s.standingRepo.ApplyDelta(ctx, nil, tournamentID, teamParticipantID(*teamID), models.ParticipantTeam, delta); err != nil {
		return err
	}
	for _, player := range roster {
		if err := s.standingRepo.ApplyDelta(ctx, nil, tournamentID, player.UserID, models.ParticipantPlayer, delta); err != nil {
			return err
		}
	}
	return nil
}

func (s *standingsService) CheckAndFinalize(ctx context.Context, tournament *models.Tournament) (bool, error) {
	if tournament.Status == models.TournamentStatusFinished {
		return true, nil
	}

	matches, err := s.matchRepo.ListByTournament(ctx, nil, tournament.ID, nil, nil)
	if err != nil {
		return false, fmt.Errorf("failed to list matches for completion check: %w", err)
	}
	if !tournamentComplete(tournament, matches) {
		return false, nil
	}

	if err := s.finalize(ctx, tournament); err != nil {
		return true, err
	}
	return true, nil
}

// tournamentComplete is the termination predicate, recomputed from scratch on
// every call. Elimination formats finish when every generated match is
// finished; swiss finishes when the number of distinct unordered team pairs
// played reaches teamCount/2 * cap.
func tournamentComplete(tournament *models.Tournament, matches []*models.Match) bool {
	if len(matches) == 0 {
		return false
	}

	if tournament.Format == models.FormatSwiss {
		pairs := make(map[brackets.PairKey]bool)
		for _, m := range matches {
			if m.Status == models.MatchStatusFinished && m.Team1ID != nil && m.Team2ID != nil {
				pairs[brackets.NewPairKey(*m.Team1ID, *m.Team2ID)] = true
			}
		}
		required := tournament.TeamCount / 2 * tournament.EffectiveSwissRounds()
		return required > 0 && len(pairs) >= required
	}

	for _, m := range matches {
		if m.Status != models.MatchStatusFinished {
			return false
		}
	}
	return true
}

func (s *standingsService) finalize(ctx context.Context, tournament *models.Tournament) error {
	kind := models.ParticipantTeam
	standings, err := s.standingRepo.ListByTournament(ctx, nil, tournament.ID, &kind)
	if err != nil {
		return fmt.Errorf("failed to load standings for podium: %w", err)
	}
	teams, err := s.teamRepo.ListByTournament(ctx, nil, tournament.ID)
	if err != nil {
		return fmt.Errorf("failed to load teams for podium: %w", err)
	}
	namesByID := make(map[int]string, len(teams))
	for _, t := range teams {
		namesByID[t.ID] = t.Name
	}

	sort.SliceStable(standings, func(i, j int) bool {
		si, sj := standings[i].RankingScore(), standings[j].RankingScore()
		if si != sj {
			return si > sj
		}
		return standings[i].ParticipantID < standings[j].ParticipantID
	})

	podium := make(models.Podium, 0, 3)
	for i, st := range standings {
		if i == 3 {
			break
		}
		teamID, _ := strconv.Atoi(st.ParticipantID)
		podium = append(podium, models.PodiumEntry{
			TeamID:   teamID,
			TeamName: namesByID[teamID],
			Rank:     i + 1,
			Score:    st.RankingScore(),
			Wins:     st.Wins,
		})
	}

	result := &models.TournamentResult{
		ID:           uuid.NewString(),
		TournamentID: tournament.ID,
		Podium:       podium,
	}
	created, err := s.resultRepo.Create(ctx, nil, result)
	if err != nil {
		return fmt.Errorf("failed to archive tournament %d result: %w", tournament.ID, err)
	}
	if !created {
		// Another finisher archived first; nothing left to do.
		return nil
	}

	if err := s.tournamentRepo.UpdateStatus(ctx, nil, tournament.ID, models.TournamentStatusFinished); err != nil {
		return fmt.Errorf("failed to mark tournament %d finished: %w", tournament.ID, err)
	}
	tournament.Status = models.TournamentStatusFinished

	s.logger.Info("tournament archived",
		slog.Int("tournament_id", tournament.ID),
		slog.Int("podium_size", len(podium)),
	)
	return nil
}

func (s *standingsService) ListByTournament(ctx context.Context, tournamentID int, kind *models.ParticipantKind) ([]*models.Standing, error) {
	standings, err := s.standingRepo.ListByTournament(ctx, nil, tournamentID, kind)
	if err != nil {
		return nil, fmt.Errorf("failed to list standings: %w", err)
	}
	return standings, nil
}

func (s *standingsService) Result(ctx context.Context, tournamentID int) (*models.TournamentResult, error) {
	result, err := s.resultRepo.GetByTournament(ctx, nil, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrResultNotFound) {
			return nil, ErrResultNotFound
		}
		return nil, err
	}
	return result, nil
}

func scoreOf(match *models.Match, slot int) *int {
	if slot == 1 {
		return match.Score1
	}
	return match.Score2
}
