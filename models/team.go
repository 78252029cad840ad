package models

import "time"

// Team groups 1-2 players for the duration of a single tournament. Teams are
// derived at assignment time and only their identifier and membership persist.
type Team struct {
	ID           int       `json:"id" db:"id"`
	TournamentID int       `json:"tournament_id" db:"tournament_id"`
	Name         string    `json:"name" db:"name"`
	Members      Roster    `json:"members" db:"members"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}
