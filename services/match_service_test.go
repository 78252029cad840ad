package services

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beloteo/tournament-engine/models"
)

// TestStartMatch_PendingToOngoing tests the normal lifecycle transition and
// the guard against starting twice
func TestStartMatch_PendingToOngoing(t *testing.T) {
	e := newEngine()
	_, matches := e.seedTournament(t, models.FormatSingleElimination, 4, nil)
	ctx := context.Background()

	started, err := e.matches.StartMatch(ctx, matches[0].ID)
	require.NoError(t, err)
	assert.Equal(t, models.MatchStatusOngoing, started.Status)

	_, err = e.matches.StartMatch(ctx, matches[0].ID)
	assert.ErrorIs(t, err, ErrMatchAlreadyStarted)
}

// TestStartMatch_NotReady tests that a match missing a side cannot start
func TestStartMatch_NotReady(t *testing.T) {
	e := newEngine()
	_, matches := e.seedTournament(t, models.FormatSingleElimination, 4, nil)
	ctx := context.Background()

	// The final match waits on two earlier winners
	final := matches[len(matches)-1]
	_, err := e.matches.StartMatch(ctx, final.ID)
	assert.ErrorIs(t, err, ErrMatchNotReady)
}

// TestFinishMatch_ScoreValidation tests score rejection before any write
func TestFinishMatch_ScoreValidation(t *testing.T) {
	e := newEngine()
	_, matches := e.seedTournament(t, models.FormatSingleElimination, 4, nil)
	ctx := context.Background()

	_, err := e.matches.FinishMatch(ctx, matches[0].ID, FinishMatchInput{Score1: -1, Score2: 500})
	assert.ErrorIs(t, err, ErrInvalidScore)

	_, err = e.matches.FinishMatch(ctx, matches[0].ID, FinishMatchInput{Score1: 700, Score2: 700})
	assert.ErrorIs(t, err, ErrTiedScore)

	// Neither attempt touched the match
	assert.Equal(t, models.MatchStatusPending, e.mustGetMatch(t, matches[0].ID).Status)
}

// TestFinishMatch_Idempotence tests that a duplicate finish is rejected and
// standings are not double counted
func TestFinishMatch_Idempotence(t *testing.T) {
	e := newEngine()
	tournament, matches := e.seedTournament(t, models.FormatSingleElimination, 4, nil)
	ctx := context.Background()

	e.playMatch(t, matches[0].ID, 1000, 720)

	_, err := e.matches.FinishMatch(ctx, matches[0].ID, FinishMatchInput{Score1: 900, Score2: 800})
	assert.ErrorIs(t, err, ErrMatchAlreadyFinished)

	winnerID := teamParticipantID(*e.mustGetMatch(t, matches[0].ID).Team1ID)
	st, err := e.standingRepo.GetByParticipant(ctx, nil, tournament.ID, winnerID)
	require.NoError(t, err)
	assert.Equal(t, 1, st.GamesPlayed)
	assert.Equal(t, 1, st.Wins)
	assert.Equal(t, 1000, st.PointsScored)
	assert.Equal(t, 720, st.PointsConceded)
}

// TestFinishMatch_FrozenTournament tests that a finished tournament rejects
// further mutations
func TestFinishMatch_FrozenTournament(t *testing.T) {
	e := newEngine()
	tournament, matches := e.seedTournament(t, models.FormatSingleElimination, 4, nil)
	ctx := context.Background()

	e.tournamentRepo.tournaments[tournament.ID].Status = models.TournamentStatusFinished

	_, err := e.matches.FinishMatch(ctx, matches[0].ID, FinishMatchInput{Score1: 1000, Score2: 400})
	assert.ErrorIs(t, err, ErrTournamentFinished)
}

// TestForfeitMatch tests forfeit scoring: loser takes zero, winner takes the
// target, and standings are credited half the target each
func TestForfeitMatch(t *testing.T) {
	e := newEngine()
	tournament, matches := e.seedTournament(t, models.FormatSingleElimination, 4, nil)
	ctx := context.Background()

	match, err := e.matches.ForfeitMatch(ctx, matches[0].ID, 2)
	require.NoError(t, err)
	require.NotNil(t, match.Score1)
	require.NotNil(t, match.Score2)
	assert.Equal(t, 1000, *match.Score1)
	assert.Equal(t, 0, *match.Score2)
	assert.Equal(t, models.MatchStatusFinished, match.Status)

	winner, err := e.standingRepo.GetByParticipant(ctx, nil, tournament.ID, teamParticipantID(*match.Team1ID))
	require.NoError(t, err)
	assert.Equal(t, 1, winner.Wins)
	assert.Equal(t, 500, winner.PointsScored)
	assert.Equal(t, 0, winner.PointsConceded)

	loser, err := e.standingRepo.GetByParticipant(ctx, nil, tournament.ID, teamParticipantID(*match.Team2ID))
	require.NoError(t, err)
	assert.Equal(t, 1, loser.Losses)
	assert.Equal(t, 0, loser.PointsScored)
	assert.Equal(t, 500, loser.PointsConceded)
}

// TestForfeitMatch_InvalidSlot tests the side argument guard
func TestForfeitMatch_InvalidSlot(t *testing.T) {
	e := newEngine()
	_, matches := e.seedTournament(t, models.FormatSingleElimination, 4, nil)

	_, err := e.matches.ForfeitMatch(context.Background(), matches[0].ID, 3)
	assert.ErrorIs(t, err, ErrInvalidForfeitSide)
}

// TestSwiss_LazyRoundGeneration tests that finishing the last match of a
// swiss round creates the next round with fresh pairings
func TestSwiss_LazyRoundGeneration(t *testing.T) {
	cap := 2
	e := newEngine()
	tournament, matches := e.seedTournament(t, models.FormatSwiss, 4, &cap)
	require.Len(t, matches, 2)

	e.playMatch(t, matches[0].ID, 1000, 600)

	// Round 2 must not exist until the whole round is finished
	all, err := e.matches.ListByTournament(context.Background(), tournament.ID)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	e.playMatch(t, matches[1].ID, 1000, 450)

	all, err = e.matches.ListByTournament(context.Background(), tournament.ID)
	require.NoError(t, err)
	require.Len(t, all, 4)

	played := map[[2]int]bool{}
	for _, m := range all[:2] {
		key := orderedPair(*m.Team1ID, *m.Team2ID)
		played[key] = true
	}
	for _, m := range all[2:] {
		assert.Equal(t, 2, m.Round)
		assert.True(t, m.Changed, "lazily generated matches must carry the changed flag")
		assert.False(t, played[orderedPair(*m.Team1ID, *m.Team2ID)], "round 2 repeated a round 1 pairing")
	}
}

// TestSwiss_FinishesAtCap tests the swiss completion predicate: the
// tournament archives once distinct pairs reach teams/2 * cap
func TestSwiss_FinishesAtCap(t *testing.T) {
	cap := 1
	e := newEngine()
	tournament, matches := e.seedTournament(t, models.FormatSwiss, 4, &cap)
	require.Len(t, matches, 2)

	e.playMatch(t, matches[0].ID, 1000, 820)
	result, err := e.standings.Result(context.Background(), tournament.ID)
	assert.ErrorIs(t, err, ErrResultNotFound)
	assert.Nil(t, result)

	e.playMatch(t, matches[1].ID, 1000, 640)

	result, err = e.standings.Result(context.Background(), tournament.ID)
	require.NoError(t, err)
	assert.Equal(t, tournament.ID, result.TournamentID)

	stored, err := e.tournamentRepo.GetByID(context.Background(), nil, tournament.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TournamentStatusFinished, stored.Status)
}

// TestSwiss_NextRoundLostRace tests that a generator pairing the next round
// from a snapshot that predates a concurrent insert backs off instead of
// failing or duplicating the round
func TestSwiss_NextRoundLostRace(t *testing.T) {
	cap := 2
	e := newEngine()
	tournament, matches := e.seedTournament(t, models.FormatSwiss, 4, &cap)
	require.Len(t, matches, 2)

	// Finishing round 1 creates round 2 through the normal path
	e.playMatch(t, matches[0].ID, 1000, 600)
	e.playMatch(t, matches[1].ID, 1000, 450)

	// A second generator still sees only round 1 and tries to pair round 2
	// again; the position constraint makes it lose the race quietly
	stale := &staleMatchRepo{fakeMatchRepo: e.matchRepo, visibleRound: 1}
	svc := NewBracketService(stale, e.teamRepo, e.standingRepo, slog.New(slog.NewTextHandler(io.Discard, nil)))

	created, err := svc.EnsureNextSwissRound(context.Background(), tournament)
	require.NoError(t, err)
	assert.Nil(t, created)

	all, err := e.matches.ListByTournament(context.Background(), tournament.ID)
	require.NoError(t, err)
	assert.Len(t, all, 4, "the lost race must not add matches")
}

func orderedPair(a, b int) [2]int {
	if a > b {
		a, b = b, a
	}
	return [2]int{a, b}
}
