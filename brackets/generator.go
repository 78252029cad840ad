package brackets

import (
	"context"
	"errors"

	"github.com/beloteo/tournament-engine/models"
)

var (
	ErrNotEnoughTeams      = errors.New("not enough teams to generate a bracket (minimum 2)")
	ErrSwissOddTeamCount   = errors.New("swiss format requires an even team count")
	ErrSwissInvalidCap     = errors.New("swiss match cap is invalid: must be between 1 and teams-1 with (teams/2 * cap) even")
	ErrDoubleTooFewTeams   = errors.New("double elimination requires at least 3 teams for a loser bracket round")
	ErrUnsupportedTopology = errors.New("unsupported bracket topology")
)

type GenerateParams struct {
	Tournament *models.Tournament
	Teams      []*models.Team
}

// Blueprint is one bracket match before persistence. Matches reference each
// other by UID; the bracket service resolves UIDs to database identifiers
// after the first insert pass.
//
// WinnerTargetUID / WinnerSlot name the match and side the winner advances
// to; LoserTargetUID / LoserSlot do the same for the loser (double
// elimination only). Slot identity is decided here, at construction time,
// never re-derived during propagation.
type Blueprint struct {
	UID          string
	Round        int
	OrderInRound int
	Bracket      models.BracketSection

	Team1ID *int
	Team2ID *int

	WinnerTargetUID *string
	WinnerSlot      int
	LoserTargetUID  *string
	LoserSlot       int

	// Changed marks a swiss match generated after the initial batch.
	Changed bool
}

type Generator interface {
	Generate(ctx context.Context, params GenerateParams) ([]*Blueprint, error)

	Name() string
}

// ForFormat selects the generator matching a tournament's declared topology.
func ForFormat(format models.TournamentFormat) (Generator, error) {
	switch format {
	case models.FormatSingleElimination:
		return NewSingleEliminationGenerator(), nil
	case models.FormatDoubleElimination:
		return NewDoubleEliminationGenerator(), nil
	case models.FormatSwiss:
		return NewSwissGenerator(), nil
	default:
		return nil, ErrUnsupportedTopology
	}
}
