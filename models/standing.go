package models

import "time"

type ParticipantKind string

const (
	ParticipantTeam   ParticipantKind = "team"
	ParticipantPlayer ParticipantKind = "player"
)

// Standing accumulates per-team and per-player statistics over one
// tournament. The domain counters (contracts, coinches, shutouts) arrive from
// the score-keeping layer and are opaque here; they only feed the final
// ranking formula.
type Standing struct {
	ID            int             `json:"id" db:"id"`
	TournamentID  int             `json:"tournament_id" db:"tournament_id"`
	ParticipantID string          `json:"participant_id" db:"participant_id"`
	Kind          ParticipantKind `json:"kind" db:"kind"`

	GamesPlayed    int `json:"games_played" db:"games_played"`
	Wins           int `json:"wins" db:"wins"`
	Losses         int `json:"losses" db:"losses"`
	PointsScored   int `json:"points_scored" db:"points_scored"`
	PointsConceded int `json:"points_conceded" db:"points_conceded"`

	Contracts int `json:"contracts" db:"contracts"`
	Coinches  int `json:"coinches" db:"coinches"`
	Shutouts  int `json:"shutouts" db:"shutouts"`

	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// RankingScore is the weighted score the final top-3 is sorted by.
func (s *Standing) RankingScore() float64 {
	return 3*float64(s.Wins) + 0.01*float64(s.PointsScored-s.PointsConceded)
}

// StandingDelta is one finished match's contribution to a participant's
// standing, applied as an atomic upsert.
type StandingDelta struct {
	GamesPlayed    int `json:"games_played"`
	Wins           int `json:"wins"`
	Losses         int `json:"losses"`
	PointsScored   int `json:"points_scored"`
	PointsConceded int `json:"points_conceded"`
	Contracts      int `json:"contracts"`
	Coinches       int `json:"coinches"`
	Shutouts       int `json:"shutouts"`
}
