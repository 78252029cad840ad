package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// PodiumEntry is one line of the final ranking.
type PodiumEntry struct {
	TeamID   int     `json:"team_id"`
	TeamName string  `json:"team_name"`
	Rank     int     `json:"rank"`
	Score    float64 `json:"score"`
	Wins     int     `json:"wins"`
}

type Podium []PodiumEntry

func (p Podium) Value() (driver.Value, error) {
	if p == nil {
		return nil, nil
	}
	return json.Marshal(p)
}

func (p *Podium) Scan(src interface{}) error {
	if src == nil {
		*p = nil
		return nil
	}
	b, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("podium: cannot scan type %T", src)
	}
	return json.Unmarshal(b, p)
}

// TournamentResult is the immutable archival record written exactly once when
// the completion predicate fires.
type TournamentResult struct {
	ID           string    `json:"id" db:"id"`
	TournamentID int       `json:"tournament_id" db:"tournament_id"`
	Podium       Podium    `json:"podium" db:"podium"`
	ArchivedAt   time.Time `json:"archived_at" db:"archived_at"`
}
