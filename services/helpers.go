package services

import (
	"fmt"

	"github.com/beloteo/tournament-engine/brackets"
	"github.com/beloteo/tournament-engine/models"
	"github.com/beloteo/tournament-engine/storage"
)

// validateTopology mirrors the generators' structural checks so a malformed
// configuration is rejected before any record is created.
func validateTopology(tournament *models.Tournament) error {
	n := tournament.TeamCount
	if n < 2 {
		return fmt.Errorf("%w: %w", ErrInvalidTopologyInput, brackets.ErrNotEnoughTeams)
	}

	switch tournament.Format {
	case models.FormatSingleElimination:
		return nil
	case models.FormatDoubleElimination:
		if n < 3 {
			return fmt.Errorf("%w: %w", ErrInvalidTopologyInput, brackets.ErrDoubleTooFewTeams)
		}
		return nil
	case models.FormatSwiss:
		if n%2 != 0 {
			return fmt.Errorf("%w: %w", ErrInvalidTopologyInput, brackets.ErrSwissOddTeamCount)
		}
		if tournament.SwissRounds != nil {
			if err := brackets.ValidateSwissCap(n, *tournament.SwissRounds); err != nil {
				return fmt.Errorf("%w: %w", ErrInvalidTopologyInput, err)
			}
		}
		return nil
	default:
		return fmt.Errorf("%w: %w", ErrInvalidTopologyInput, brackets.ErrUnsupportedTopology)
	}
}

func populateRosterAvatars(roster models.Roster, uploader storage.FileUploader) {
	for i := range roster {
		if roster[i].AvatarKey != nil && *roster[i].AvatarKey != "" {
			url := uploader.GetPublicURL(*roster[i].AvatarKey)
			roster[i].AvatarURL = &url
		}
	}
}

func dereferenceTeams(slice []*models.Team) []models.Team {
	if slice == nil {
		return []models.Team{}
	}
	result := make([]models.Team, len(slice))
	for i, ptr := range slice {
		if ptr != nil {
			result[i] = *ptr
		}
	}
	return result
}

func dereferenceMatches(slice []*models.Match) []models.Match {
	if slice == nil {
		return []models.Match{}
	}
	result := make([]models.Match, len(slice))
	for i, ptr := range slice {
		if ptr != nil {
			result[i] = *ptr
		}
	}
	return result
}

func dereferenceStandings(slice []*models.Standing) []models.Standing {
	if slice == nil {
		return []models.Standing{}
	}
	result := make([]models.Standing, len(slice))
	for i, ptr := range slice {
		if ptr != nil {
			result[i] = *ptr
		}
	}
	return result
}
