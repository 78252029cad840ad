package brackets

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beloteo/tournament-engine/models"
)

// TestDoubleElimination_FourTeams tests the full 4-team graph: three
// winner-bracket matches, two loser-bracket matches and a grand final
func TestDoubleElimination_FourTeams(t *testing.T) {
	gen := NewDoubleEliminationGenerator()
	matches, err := gen.Generate(context.Background(), GenerateParams{Teams: makeTeams(4)})
	require.NoError(t, err)
	require.Len(t, matches, 6)

	perSection := map[models.BracketSection]int{}
	for _, bp := range matches {
		perSection[bp.Bracket]++
	}
	// The grand final sits in the winner section
	assert.Equal(t, 4, perSection[models.BracketWinner])
	assert.Equal(t, 2, perSection[models.BracketLoser])

	byUID := blueprintsByUID(matches)
	gf := byUID["GF"]
	require.NotNil(t, gf)
	assert.Nil(t, gf.WinnerTargetUID)
	assert.Nil(t, gf.LoserTargetUID)

	// Both bracket champions flow into the grand final on distinct sides
	wbFinal := byUID["W2-1"]
	lbFinal := byUID["L2-1"]
	require.NotNil(t, wbFinal)
	require.NotNil(t, lbFinal)
	require.NotNil(t, wbFinal.WinnerTargetUID)
	require.NotNil(t, lbFinal.WinnerTargetUID)
	assert.Equal(t, "GF", *wbFinal.WinnerTargetUID)
	assert.Equal(t, "GF", *lbFinal.WinnerTargetUID)
	assert.NotEqual(t, wbFinal.WinnerSlot, lbFinal.WinnerSlot)
}

// TestDoubleElimination_EveryLoserDropsOnce tests that each winner-bracket
// match routes its loser to exactly one loser-bracket slot, and that
// loser-bracket matches never route a loser anywhere
func TestDoubleElimination_EveryLoserDropsOnce(t *testing.T) {
	gen := NewDoubleEliminationGenerator()
	matches, err := gen.Generate(context.Background(), GenerateParams{Teams: makeTeams(8)})
	require.NoError(t, err)

	byUID := blueprintsByUID(matches)
	for _, bp := range matches {
		switch {
		case bp.UID == "GF":
			assert.Nil(t, bp.LoserTargetUID)
		case bp.Bracket == models.BracketWinner:
			require.NotNil(t, bp.LoserTargetUID, "winner-bracket match %s must feed the loser bracket", bp.UID)
			target, ok := byUID[*bp.LoserTargetUID]
			require.True(t, ok)
			assert.Equal(t, models.BracketLoser, target.Bracket)
			assert.Contains(t, []int{1, 2}, bp.LoserSlot)
		case bp.Bracket == models.BracketLoser:
			assert.Nil(t, bp.LoserTargetUID, "a loser-bracket loss is final")
		}
	}
}

// TestDoubleElimination_SlotOccupancy tests that no downstream side is
// promised to two sources across winner and loser pointers combined
func TestDoubleElimination_SlotOccupancy(t *testing.T) {
	gen := NewDoubleEliminationGenerator()
	matches, err := gen.Generate(context.Background(), GenerateParams{Teams: makeTeams(8)})
	require.NoError(t, err)

	type side struct {
		uid  string
		slot int
	}
	claimed := map[side]string{}
	claim := func(target string, slot int, source string) {
		key := side{target, slot}
		prev, taken := claimed[key]
		assert.False(t, taken, "side %d of %s fed by both %s and %s", slot, target, prev, source)
		claimed[key] = source
	}

	for _, bp := range matches {
		if bp.WinnerTargetUID != nil {
			claim(*bp.WinnerTargetUID, bp.WinnerSlot, bp.UID)
		}
		if bp.LoserTargetUID != nil {
			claim(*bp.LoserTargetUID, bp.LoserSlot, bp.UID)
		}
	}

	// Sides not pre-seeded with a team must all be claimed by a pointer
	for _, bp := range matches {
		if bp.Team1ID == nil {
			_, ok := claimed[side{bp.UID, 1}]
			assert.True(t, ok, "side 1 of %s has neither a team nor a source", bp.UID)
		}
		if bp.Team2ID == nil {
			_, ok := claimed[side{bp.UID, 2}]
			assert.True(t, ok, "side 2 of %s has neither a team nor a source", bp.UID)
		}
	}
}

// TestDoubleElimination_TooFewTeams tests that two teams cannot form a loser
// bracket
func TestDoubleElimination_TooFewTeams(t *testing.T) {
	gen := NewDoubleEliminationGenerator()
	_, err := gen.Generate(context.Background(), GenerateParams{Teams: makeTeams(2)})
	assert.ErrorIs(t, err, ErrDoubleTooFewTeams)

	_, err = gen.Generate(context.Background(), GenerateParams{Teams: makeTeams(1)})
	assert.ErrorIs(t, err, ErrNotEnoughTeams)
}
