package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/beloteo/tournament-engine/models"
)

// engine wires the full service stack over the in-memory repositories.
type engine struct {
	matchRepo      *fakeMatchRepo
	tournamentRepo *fakeTournamentRepo
	teamRepo       *fakeTeamRepo
	standingRepo   *fakeStandingRepo
	resultRepo     *fakeResultRepo

	brackets    BracketService
	progression ProgressionService
	standings   StandingsService
	matches     MatchService
}

func newEngine() *engine {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	e := &engine{
		matchRepo:      newFakeMatchRepo(),
		tournamentRepo: newFakeTournamentRepo(),
		teamRepo:       newFakeTeamRepo(),
		standingRepo:   newFakeStandingRepo(),
		resultRepo:     newFakeResultRepo(),
	}
	e.brackets = NewBracketService(e.matchRepo, e.teamRepo, e.standingRepo, logger)
	e.progression = NewProgressionService(e.matchRepo, logger)
	e.standings = NewStandingsService(e.matchRepo, e.teamRepo, e.standingRepo, e.resultRepo, e.tournamentRepo, logger)
	e.matches = NewMatchService(e.matchRepo, e.tournamentRepo, e.progression, e.standings, e.brackets, logger)
	return e
}

func pairRoster(teamIdx int) models.Roster {
	return models.Roster{
		{UserID: fmt.Sprintf("u%d-a", teamIdx), DisplayName: fmt.Sprintf("Player %d-a", teamIdx)},
		{UserID: fmt.Sprintf("u%d-b", teamIdx), DisplayName: fmt.Sprintf("Player %d-b", teamIdx)},
	}
}

// seedTournament creates a tournament with teamCount two-player teams and a
// fully persisted bracket.
func (e *engine) seedTournament(t *testing.T, format models.TournamentFormat, teamCount int, swissRounds *int) (*models.Tournament, []*models.Match) {
	t.Helper()
	ctx := context.Background()

	tournament := &models.Tournament{
		Name:           "test",
		Format:         format,
		TeamCount:      teamCount,
		PlayersPerTeam: 2,
		SwissRounds:    swissRounds,
		TargetPoints:   1000,
		BestOf:         1,
		Status:         models.TournamentStatusOngoing,
	}
	require.NoError(t, e.tournamentRepo.Create(ctx, nil, tournament))

	teams := make([]*models.Team, teamCount)
	for i := range teams {
		teams[i] = &models.Team{
			TournamentID: tournament.ID,
			Name:         fmt.Sprintf("Team %d", i+1),
			Members:      pairRoster(i + 1),
		}
		require.NoError(t, e.teamRepo.Create(ctx, nil, teams[i]))
	}

	matches, err := e.brackets.BuildAndPersist(ctx, nil, tournament, teams)
	require.NoError(t, err)
	return tournament, matches
}

// playMatch starts and finishes one match with the given scores.
func (e *engine) playMatch(t *testing.T, id int, score1, score2 int) *models.Match {
	t.Helper()
	ctx := context.Background()

	_, err := e.matches.StartMatch(ctx, id)
	require.NoError(t, err)
	match, err := e.matches.FinishMatch(ctx, id, FinishMatchInput{Score1: score1, Score2: score2})
	require.NoError(t, err)
	return match
}

func (e *engine) mustGetMatch(t *testing.T, id int) *models.Match {
	t.Helper()
	match, err := e.matches.GetMatch(context.Background(), id)
	require.NoError(t, err)
	return match
}
