package brackets

import (
	"context"
	"fmt"

	"github.com/beloteo/tournament-engine/models"
)

type DoubleEliminationGenerator struct{}

func NewDoubleEliminationGenerator() Generator {
	return &DoubleEliminationGenerator{}
}

func (g *DoubleEliminationGenerator) Name() string {
	return "DoubleElimination"
}

// Generate builds the winner bracket exactly like single elimination, then a
// loser bracket fed by winner-bracket losers. Losers accumulate in a pool;
// after each winner-bracket round the pool is paired two at a time into a new
// loser-bracket round, loser-bracket winners flowing back into the pool.
// Each team enters the loser bracket at most once. The two bracket champions
// meet in a grand final.
func (g *DoubleEliminationGenerator) Generate(_ context.Context, params GenerateParams) ([]*Blueprint, error) {
	n := len(params.Teams)
	if n < 2 {
		return nil, ErrNotEnoughTeams
	}
	if n < 3 {
		return nil, ErrDoubleTooFewTeams
	}

	byUID := make(map[string]*Blueprint)
	wbChampion, matches := buildEliminationRounds(teamNodes(params.Teams), 1, models.BracketWinner, "W", byUID)

	// Winner-bracket losers, grouped by the round they fall out of.
	maxWBRound := 0
	losersByRound := make(map[int][]*node)
	for _, bp := range matches {
		if bp.Round > maxWBRound {
			maxWBRound = bp.Round
		}
		uid := bp.UID
		losersByRound[bp.Round] = append(losersByRound[bp.Round], &node{loserOfUID: &uid})
	}

	pool := make([]*node, 0, n-1)
	lbRound := 0
	pairPool := func() {
		if len(pool) < 2 {
			return
		}
		lbRound++
		next := make([]*node, 0, (len(pool)+1)/2)
		order := 0
		for i := 0; i+1 < len(pool); i += 2 {
			order++
			uid := fmt.Sprintf("L%d-%d", lbRound, order)
			bp := &Blueprint{
				UID:          uid,
				Round:        lbRound,
				OrderInRound: order,
				Bracket:      models.BracketLoser,
			}
			byUID[uid] = bp
			attachNode(bp, 1, pool[i], byUID)
			attachNode(bp, 2, pool[i+1], byUID)
			matches = append(matches, bp)
			next = append(next, &node{winnerOfUID: &uid})
		}
		if len(pool)%2 == 1 {
			next = append(next, pool[len(pool)-1])
		}
		pool = next
	}

	for r := 1; r <= maxWBRound; r++ {
		pool = append(pool, losersByRound[r]...)
		pairPool()
	}
	for len(pool) > 1 {
		pairPool()
	}

	if lbRound == 0 {
		return nil, ErrDoubleTooFewTeams
	}
	lbChampion := pool[0]

	final := &Blueprint{
		UID:          "GF",
		Round:        maxRoundOf(maxWBRound, lbRound) + 1,
		OrderInRound: 1,
		Bracket:      models.BracketWinner,
	}
	byUID[final.UID] = final
	attachNode(final, 1, wbChampion, byUID)
	attachNode(final, 2, lbChampion, byUID)
	matches = append(matches, final)

	return matches, nil
}

func maxRoundOf(a, b int) int {
	if a > b {
		return a
	}
	return b
}
