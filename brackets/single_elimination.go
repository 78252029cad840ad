package brackets

import (
	"context"
	"fmt"

	"github.com/beloteo/tournament-engine/models"
)

// node is one occupant of a bracket position while rounds are being built:
// either a known team, the future winner of an earlier match, or the future
// loser of a winner-bracket match (double elimination only).
type node struct {
	teamID      *int
	winnerOfUID *string
	loserOfUID  *string
}

type SingleEliminationGenerator struct{}

func NewSingleEliminationGenerator() Generator {
	return &SingleEliminationGenerator{}
}

func (g *SingleEliminationGenerator) Name() string {
	return "SingleElimination"
}

func (g *SingleEliminationGenerator) Generate(_ context.Context, params GenerateParams) ([]*Blueprint, error) {
	n := len(params.Teams)
	if n < 2 {
		return nil, ErrNotEnoughTeams
	}

	entries := teamNodes(params.Teams)
	byUID := make(map[string]*Blueprint)
	_, matches := buildEliminationRounds(entries, 1, models.BracketNone, "R", byUID)
	return matches, nil
}

func teamNodes(teams []*models.Team) []*node {
	entries := make([]*node, len(teams))
	for i, t := range teams {
		id := t.ID
		entries[i] = &node{teamID: &id}
	}
	return entries
}

// buildEliminationRounds pairs entries index-wise round after round until a
// single node remains. An odd entry count gives the trailing node a bye: it
// carries into the next round unchanged and no match row is produced for it.
// Returns the champion node and the generated matches in round order.
func buildEliminationRounds(entries []*node, startRound int, section models.BracketSection, uidPrefix string, byUID map[string]*Blueprint) (*node, []*Blueprint) {
	matches := make([]*Blueprint, 0, len(entries))
	round := startRound

	for len(entries) > 1 {
		next := make([]*node, 0, (len(entries)+1)/2)
		order := 0

		for i := 0; i+1 < len(entries); i += 2 {
			order++
			uid := fmt.Sprintf("%s%d-%d", uidPrefix, round, order)
			bp := &Blueprint{
				UID:          uid,
				Round:        round,
				OrderInRound: order,
				Bracket:      section,
			}
			byUID[uid] = bp
			attachNode(bp, 1, entries[i], byUID)
			attachNode(bp, 2, entries[i+1], byUID)

			matches = append(matches, bp)
			next = append(next, &node{winnerOfUID: &uid})
		}

		if len(entries)%2 == 1 {
			next = append(next, entries[len(entries)-1])
		}

		entries = next
		round++
	}

	return entries[0], matches
}

// attachNode places a node into one side of a match. Known teams are written
// directly; for match references the source match's outbound pointer and slot
// are fixed here, so propagation later never has to guess the target side.
func attachNode(bp *Blueprint, slot int, nd *node, byUID map[string]*Blueprint) {
	switch {
	case nd.teamID != nil:
		if slot == 1 {
			bp.Team1ID = nd.teamID
		} else {
			bp.Team2ID = nd.teamID
		}
	case nd.winnerOfUID != nil:
		src := byUID[*nd.winnerOfUID]
		target := bp.UID
		src.WinnerTargetUID = &target
		src.WinnerSlot = slot
	case nd.loserOfUID != nil:
		src := byUID[*nd.loserOfUID]
		target := bp.UID
		src.LoserTargetUID = &target
		src.LoserSlot = slot
	}
}
