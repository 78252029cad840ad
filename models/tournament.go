package models

import "time"

type TournamentFormat string

const (
	FormatSingleElimination TournamentFormat = "single"
	FormatDoubleElimination TournamentFormat = "double"
	FormatSwiss             TournamentFormat = "swiss"
)

type TournamentStatus string

const (
	TournamentStatusPending  TournamentStatus = "pending"
	TournamentStatusOngoing  TournamentStatus = "ongoing"
	TournamentStatusFinished TournamentStatus = "finished"
)

// Tournament is the root record of one bracket. Once its status reaches
// finished it is never mutated again.
type Tournament struct {
	ID             int              `json:"id" db:"id"`
	Name           string           `json:"name" db:"name"`
	Format         TournamentFormat `json:"format" db:"format"`
	TeamCount      int              `json:"team_count" db:"team_count"`
	PlayersPerTeam int              `json:"players_per_team" db:"players_per_team"`
	// SwissRounds is the per-team match cap. Only meaningful for the swiss
	// format; nil selects the default of teamCount/2 - 1.
	SwissRounds  *int             `json:"swiss_rounds,omitempty" db:"swiss_rounds"`
	TargetPoints int              `json:"target_points" db:"target_points"`
	BestOf       int              `json:"best_of" db:"best_of"`
	Status       TournamentStatus `json:"status" db:"status"`
	CreatedAt    time.Time        `json:"created_at" db:"created_at"`

	// Optional linked data, populated by the service layer, not mapped to columns.
	Teams     []Team            `json:"teams,omitempty" db:"-"`
	Matches   []Match           `json:"matches,omitempty" db:"-"`
	Standings []Standing        `json:"standings,omitempty" db:"-"`
	Result    *TournamentResult `json:"result,omitempty" db:"-"`
}

// EffectiveSwissRounds resolves the per-team match cap, falling back to the
// default when none was configured. The default always satisfies the parity
// rule (teamCount/2 * cap even) because it is a product of two consecutive
// integers.
func (t *Tournament) EffectiveSwissRounds() int {
	if t.SwissRounds != nil {
		return *t.SwissRounds
	}
	return t.TeamCount/2 - 1
}
