package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beloteo/tournament-engine/models"
)

func identityShuffle(int, func(i, j int)) {}

func newDeterministicRosterService(teamRepo *fakeTeamRepo) RosterService {
	svc := NewRosterService(teamRepo).(*rosterService)
	svc.shuffle = identityShuffle
	return svc
}

func rosterOf(n int) []PlayerEntry {
	entries := make([]PlayerEntry, n)
	for i := range entries {
		entries[i] = PlayerEntry{
			UserID:      string(rune('a' + i)),
			DisplayName: string(rune('A' + i)),
		}
	}
	return entries
}

// TestAssignTeams_RandomChunks tests random assignment: teams of the right
// size, every player placed exactly once
func TestAssignTeams_RandomChunks(t *testing.T) {
	teamRepo := newFakeTeamRepo()
	svc := newDeterministicRosterService(teamRepo)
	tournament := &models.Tournament{ID: 1, TeamCount: 3, PlayersPerTeam: 2}

	teams, err := svc.AssignTeams(context.Background(), nil, tournament, rosterOf(6), nil)
	require.NoError(t, err)
	require.Len(t, teams, 3)

	seen := map[string]bool{}
	for _, team := range teams {
		require.Len(t, team.Members, 2)
		assert.NotZero(t, team.ID, "teams must be persisted")
		assert.NotEmpty(t, team.Name)
		for _, p := range team.Members {
			assert.False(t, seen[p.UserID], "player %s assigned twice", p.UserID)
			seen[p.UserID] = true
		}
	}
	assert.Len(t, seen, 6)
}

// TestAssignTeams_SoloMode tests one-player teams
func TestAssignTeams_SoloMode(t *testing.T) {
	teamRepo := newFakeTeamRepo()
	svc := newDeterministicRosterService(teamRepo)
	tournament := &models.Tournament{ID: 1, TeamCount: 4, PlayersPerTeam: 1}

	teams, err := svc.AssignTeams(context.Background(), nil, tournament, rosterOf(4), nil)
	require.NoError(t, err)
	require.Len(t, teams, 4)
	for _, team := range teams {
		assert.Len(t, team.Members, 1)
		assert.Equal(t, team.Members[0].DisplayName, team.Name)
	}
}

// TestAssignTeams_GuestsGetSyntheticIDs tests that players without an
// account identifier are tagged as guests with generated ids
func TestAssignTeams_GuestsGetSyntheticIDs(t *testing.T) {
	teamRepo := newFakeTeamRepo()
	svc := newDeterministicRosterService(teamRepo)
	tournament := &models.Tournament{ID: 1, TeamCount: 1, PlayersPerTeam: 2}

	roster := []PlayerEntry{
		{UserID: "registered", DisplayName: "Anna"},
		{DisplayName: "Walk-in"},
	}
	teams, err := svc.AssignTeams(context.Background(), nil, tournament, roster, nil)
	require.NoError(t, err)
	require.Len(t, teams, 1)

	members := teams[0].Members
	require.Len(t, members, 2)
	assert.Equal(t, "registered", members[0].UserID)
	assert.False(t, members[0].IsGuest)
	assert.NotEmpty(t, members[1].UserID, "guests need an identifier for standings")
	assert.True(t, members[1].IsGuest)
}

// TestAssignTeams_ManualGroups tests explicit group composition by roster
// index
func TestAssignTeams_ManualGroups(t *testing.T) {
	teamRepo := newFakeTeamRepo()
	svc := newDeterministicRosterService(teamRepo)
	tournament := &models.Tournament{ID: 1, TeamCount: 2, PlayersPerTeam: 2}

	teams, err := svc.AssignTeams(context.Background(), nil, tournament, rosterOf(4), [][]int{{0, 2}, {1, 3}})
	require.NoError(t, err)
	require.Len(t, teams, 2)
	assert.Equal(t, "A / C", teams[0].Name)
	assert.Equal(t, "B / D", teams[1].Name)
}

// TestAssignTeams_ManualGroupValidation tests rejected group layouts
func TestAssignTeams_ManualGroupValidation(t *testing.T) {
	tournament := &models.Tournament{ID: 1, TeamCount: 2, PlayersPerTeam: 2}
	cases := []struct {
		name   string
		groups [][]int
	}{
		{"wrong group size", [][]int{{0, 1, 2}, {3}}},
		{"duplicate index", [][]int{{0, 1}, {1, 3}}},
		{"index out of range", [][]int{{0, 1}, {2, 9}}},
		{"player left out", [][]int{{0, 1}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := newDeterministicRosterService(newFakeTeamRepo())
			_, err := svc.AssignTeams(context.Background(), nil, tournament, rosterOf(4), tc.groups)
			assert.ErrorIs(t, err, ErrManualGroupsInvalid)
		})
	}
}

// TestAssignTeams_SizeChecks tests roster arithmetic guards
func TestAssignTeams_SizeChecks(t *testing.T) {
	svc := newDeterministicRosterService(newFakeTeamRepo())

	_, err := svc.AssignTeams(context.Background(), nil,
		&models.Tournament{ID: 1, TeamCount: 2, PlayersPerTeam: 2}, rosterOf(3), nil)
	assert.ErrorIs(t, err, ErrRosterSizeMismatch)

	_, err = svc.AssignTeams(context.Background(), nil,
		&models.Tournament{ID: 1, TeamCount: 2, PlayersPerTeam: 3}, rosterOf(6), nil)
	assert.ErrorIs(t, err, ErrTeamSizeInvalid)
}
