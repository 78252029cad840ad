package services

import (
	"context"
	"fmt"
	"math/rand"
	"strings"

	"github.com/google/uuid"

	"github.com/beloteo/tournament-engine/models"
	"github.com/beloteo/tournament-engine/repositories"
)

// PlayerEntry is one roster line as supplied by the caller. UserID may be
// empty for guests; the service assigns a synthetic identifier so every
// player downstream of assignment has one.
type PlayerEntry struct {
	UserID      string  `json:"user_id,omitempty"`
	DisplayName string  `json:"display_name"`
	AvatarKey   *string `json:"avatar_key,omitempty"`
}

type RosterService interface {
	// AssignTeams partitions the flat roster into teams of
	// tournament.PlayersPerTeam and persists them. With manualGroups nil the
	// roster is shuffled and chunked; otherwise each group lists roster
	// indices and must cover the roster exactly.
	AssignTeams(ctx context.Context, exec repositories.SQLExecutor, tournament *models.Tournament, roster []PlayerEntry, manualGroups [][]int) ([]*models.Team, error)
}

type rosterService struct {
	teamRepo repositories.TeamRepository
	shuffle  func(n int, swap func(i, j int))
}

func NewRosterService(teamRepo repositories.TeamRepository) RosterService {
	return &rosterService{
		teamRepo: teamRepo,
		shuffle:  rand.Shuffle,
	}
}

func (s *rosterService) AssignTeams(ctx context.Context, exec repositories.SQLExecutor, tournament *models.Tournament, roster []PlayerEntry, manualGroups [][]int) ([]*models.Team, error) {
	size := tournament.PlayersPerTeam
	if size < 1 || size > 2 {
		return nil, ErrTeamSizeInvalid
	}
	if len(roster) != tournament.TeamCount*size {
		return nil, fmt.Errorf("%w: got %d players for %d teams of %d", ErrRosterSizeMismatch, len(roster), tournament.TeamCount, size)
	}

	players := make([]models.Player, len(roster))
	for i, entry := range roster {
		p := models.Player{
			UserID:      entry.UserID,
			DisplayName: entry.DisplayName,
			AvatarKey:   entry.AvatarKey,
		}
		if p.UserID == "" {
			p.UserID = uuid.NewString()
			p.IsGuest = true
		}
		players[i] = p
	}

	var groups [][]int
	if manualGroups != nil {
		if err := validateManualGroups(manualGroups, len(players), size); err != nil {
			return nil, err
		}
		groups = manualGroups
	} else {
		order := make([]int, len(players))
		for i := range order {
			order[i] = i
		}
		s.shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
		for i := 0; i < len(order); i += size {
			groups = append(groups, order[i:i+size])
		}
	}

	teams := make([]*models.Team, 0, len(groups))
	for _, group := range groups {
		members := make(models.Roster, 0, len(group))
		names := make([]string, 0, len(group))
		for _, idx := range group {
			members = append(members, players[idx])
			names = append(names, players[idx].DisplayName)
		}
		team := &models.Team{
			TournamentID: tournament.ID,
			Name:         strings.Join(names, " / "),
			Members:      members,
		}
		if err := s.teamRepo.Create(ctx, exec, team); err != nil {
			return nil, fmt.Errorf("failed to persist team %q: %w", team.Name, err)
		}
		teams = append(teams, team)
	}

	return teams, nil
}

func validateManualGroups(groups [][]int, rosterLen, teamSize int) error {
	seen := make(map[int]bool, rosterLen)
	for _, group := range groups {
		if len(group) != teamSize {
			return fmt.Errorf("%w: group of %d players, expected %d", ErrManualGroupsInvalid, len(group), teamSize)
		}
		for _, idx := range group {
			if idx < 0 || idx >= rosterLen || seen[idx] {
				return fmt.Errorf("%w: bad or duplicate roster index %d", ErrManualGroupsInvalid, idx)
			}
			seen[idx] = true
		}
	}
	if len(seen) != rosterLen {
		return fmt.Errorf("%w: %d of %d players assigned", ErrManualGroupsInvalid, len(seen), rosterLen)
	}
	return nil
}
