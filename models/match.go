package models

import "time"

type MatchStatus string

const (
	MatchStatusPending  MatchStatus = "pending"
	MatchStatusOngoing  MatchStatus = "ongoing"
	MatchStatusFinished MatchStatus = "finished"
)

type BracketSection string

const (
	BracketWinner BracketSection = "winner"
	BracketLoser  BracketSection = "loser"
	BracketSwiss  BracketSection = "swiss"
	// BracketNone marks single elimination matches, which need no section tag.
	BracketNone BracketSection = ""
)

// Match is one node of the bracket graph. A side is "filled" once both its
// team ID and roster snapshot are set; filling is monotonic and enforced by a
// conditional update in the repository.
//
// Downstream routing is fixed at construction time: NextWinnerMatchID /
// NextWinnerSlot say where the winner goes, NextLoserMatchID / NextLoserSlot
// where the loser goes (double elimination only). Terminal matches and swiss
// matches carry no pointers.
type Match struct {
	ID           int            `json:"id" db:"id"`
	TournamentID int            `json:"tournament_id" db:"tournament_id"`
	Round        int            `json:"round" db:"round"`
	OrderInRound int            `json:"order_in_round" db:"order_in_round"`
	Bracket      BracketSection `json:"bracket,omitempty" db:"bracket"`

	Team1ID *int   `json:"team1_id,omitempty" db:"team1_id"`
	Team2ID *int   `json:"team2_id,omitempty" db:"team2_id"`
	Roster1 Roster `json:"roster1,omitempty" db:"roster1"`
	Roster2 Roster `json:"roster2,omitempty" db:"roster2"`

	Score1 *int `json:"score1,omitempty" db:"score1"`
	Score2 *int `json:"score2,omitempty" db:"score2"`

	Status MatchStatus `json:"status" db:"status"`
	BestOf int         `json:"best_of" db:"best_of"`

	NextWinnerMatchID *int `json:"next_winner_match_id,omitempty" db:"next_winner_match_id"`
	NextWinnerSlot    *int `json:"next_winner_slot,omitempty" db:"next_winner_slot"`
	NextLoserMatchID  *int `json:"next_loser_match_id,omitempty" db:"next_loser_match_id"`
	NextLoserSlot     *int `json:"next_loser_slot,omitempty" db:"next_loser_slot"`

	// Changed marks a swiss match generated lazily after round 1.
	Changed bool `json:"changed,omitempty" db:"changed"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// SideFilled reports whether the given slot (1 or 2) already holds a team.
func (m *Match) SideFilled(slot int) bool {
	if slot == 1 {
		return m.Team1ID != nil && len(m.Roster1) > 0
	}
	return m.Team2ID != nil && len(m.Roster2) > 0
}

// WinnerSlot returns the slot (1 or 2) holding the strictly higher score, or
// 0 when the match has no decided winner yet.
func (m *Match) WinnerSlot() int {
	if m.Score1 == nil || m.Score2 == nil {
		return 0
	}
	switch {
	case *m.Score1 > *m.Score2:
		return 1
	case *m.Score2 > *m.Score1:
		return 2
	default:
		return 0
	}
}
