package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Player is one roster entry inside a match side or a team. Guests without an
// account get a synthetic UUID assigned by the roster service, so UserID is
// always set by the time a player reaches a match record.
type Player struct {
	UserID      string  `json:"user_id"`
	DisplayName string  `json:"display_name"`
	AvatarKey   *string `json:"-"`
	AvatarURL   *string `json:"avatar_url,omitempty"`
	IsGuest     bool    `json:"is_guest,omitempty"`
}

// Roster is the ordered list of 1-2 players on one side of a match, stored as
// a JSONB snapshot so a finished match keeps the lineup it was played with.
type Roster []Player

func (r Roster) Value() (driver.Value, error) {
	if r == nil {
		return nil, nil
	}
	return json.Marshal(r)
}

func (r *Roster) Scan(src interface{}) error {
	if src == nil {
		*r = nil
		return nil
	}
	b, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("roster: cannot scan type %T", src)
	}
	return json.Unmarshal(b, r)
}
