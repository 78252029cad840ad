package brackets

import (
	"context"
	"fmt"

	"github.com/beloteo/tournament-engine/models"
)

// PairKey identifies an unordered team pair.
type PairKey [2]int

func NewPairKey(a, b int) PairKey {
	if a > b {
		a, b = b, a
	}
	return PairKey{a, b}
}

type SwissGenerator struct{}

func NewSwissGenerator() Generator {
	return &SwissGenerator{}
}

func (g *SwissGenerator) Name() string {
	return "Swiss"
}

// ValidateSwissCap checks the per-team match cap. The cap cannot exceed
// teamCount-1 (a team has only that many distinct opponents, so a larger cap
// can never be reached by distinct pairings), and the parity rule must hold:
// teamCount/2 matches per round times cap rounds must be an even total.
func ValidateSwissCap(teamCount, cap int) error {
	if cap < 1 || cap > teamCount-1 {
		return ErrSwissInvalidCap
	}
	if (teamCount/2*cap)%2 != 0 {
		return ErrSwissInvalidCap
	}
	return nil
}

// Generate emits round 1 only. Later rounds depend on results and are
// produced lazily through NextSwissRound as earlier rounds complete.
func (g *SwissGenerator) Generate(_ context.Context, params GenerateParams) ([]*Blueprint, error) {
	teams := params.Teams
	n := len(teams)
	if n < 2 {
		return nil, ErrNotEnoughTeams
	}
	if n%2 != 0 {
		return nil, ErrSwissOddTeamCount
	}
	if params.Tournament != nil && params.Tournament.SwissRounds != nil {
		if err := ValidateSwissCap(n, *params.Tournament.SwissRounds); err != nil {
			return nil, err
		}
	}

	matches := make([]*Blueprint, 0, n/2)
	for i := 0; i+1 < n; i += 2 {
		t1, t2 := teams[i].ID, teams[i+1].ID
		matches = append(matches, &Blueprint{
			UID:          fmt.Sprintf("S1-%d", i/2+1),
			Round:        1,
			OrderInRound: i/2 + 1,
			Bracket:      models.BracketSwiss,
			Team1ID:      &t1,
			Team2ID:      &t2,
		})
	}
	return matches, nil
}

// NextSwissRound pairs teamIDs for a follow-up round, preferring opponents
// the teams have not faced yet. Callers pass teamIDs in the order they want
// pairing preference applied (typically current standings order). When no
// fresh opponent remains for a team, a repeat pairing is allowed rather than
// leaving teams unpaired. Matches are flagged Changed to mark them as
// generated after the initial batch.
func NextSwissRound(teamIDs []int, played map[PairKey]bool, round int) []*Blueprint {
	paired := make(map[int]bool, len(teamIDs))
	matches := make([]*Blueprint, 0, len(teamIDs)/2)
	order := 0

	for i, a := range teamIDs {
		if paired[a] {
			continue
		}
		opponent := -1
		for j := i + 1; j < len(teamIDs); j++ {
			b := teamIDs[j]
			if paired[b] {
				continue
			}
			if !played[NewPairKey(a, b)] {
				opponent = b
				break
			}
			if opponent == -1 {
				opponent = b
			}
		}
		if opponent == -1 {
			continue
		}

		paired[a], paired[opponent] = true, true
		order++
		t1, t2 := a, opponent
		matches = append(matches, &Blueprint{
			UID:          fmt.Sprintf("S%d-%d", round, order),
			Round:        round,
			OrderInRound: order,
			Bracket:      models.BracketSwiss,
			Team1ID:      &t1,
			Team2ID:      &t2,
			Changed:      true,
		})
	}

	return matches
}
