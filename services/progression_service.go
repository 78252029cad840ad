package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/beloteo/tournament-engine/models"
	"github.com/beloteo/tournament-engine/repositories"
)

// ProgressionService routes a finished match's winner (and, for double
// elimination, its loser) into the downstream matches named by the pointers
// fixed at bracket construction time.
type ProgressionService interface {
	// Propagate is safe to race: every slot write is a conditional
	// fill-only-if-empty update, so two matches finishing simultaneously
	// cannot overwrite each other. Failures are reported but never roll back
	// the already-committed finish of the source match.
	Propagate(ctx context.Context, match *models.Match) error
}

type progressionService struct {
	matchRepo repositories.MatchRepository
	logger    *slog.Logger
}

func NewProgressionService(matchRepo repositories.MatchRepository, logger *slog.Logger) ProgressionService {
	return &progressionService{matchRepo: matchRepo, logger: logger}
}

func (s *progressionService) Propagate(ctx context.Context, match *models.Match) error {
	if match.Bracket == models.BracketSwiss {
		return nil
	}

	winnerSlot := match.WinnerSlot()
	if winnerSlot == 0 {
		return fmt.Errorf("cannot propagate match %d without a decided winner", match.ID)
	}

	winnerTeam, winnerRoster := sideOf(match, winnerSlot)
	loserTeam, loserRoster := sideOf(match, 3-winnerSlot)

	var errs []error
	if match.NextWinnerMatchID != nil {
		if err := s.fillDownstream(ctx, match.ID, *match.NextWinnerMatchID, *match.NextWinnerSlot, winnerTeam, winnerRoster); err != nil {
			errs = append(errs, fmt.Errorf("winner path of match %d: %w", match.ID, err))
		}
	}
	if match.NextLoserMatchID != nil {
		if err := s.fillDownstream(ctx, match.ID, *match.NextLoserMatchID, *match.NextLoserSlot, loserTeam, loserRoster); err != nil {
			errs = append(errs, fmt.Errorf("loser path of match %d: %w", match.ID, err))
		}
	}
	return errors.Join(errs...)
}

// fillDownstream writes a team into the destined slot of the target match.
// The target is re-read immediately before writing; the conditional update is
// the final authority on whether the slot was still free. When the destined
// slot is taken the alternate side is tried once, with a diagnostic, before
// the conflict is surfaced.
func (s *progressionService) fillDownstream(ctx context.Context, sourceID, targetID, slot int, teamID *int, roster models.Roster) error {
	if teamID == nil || len(roster) == 0 {
		return fmt.Errorf("source match %d has no roster to advance", sourceID)
	}

	target, err := s.matchRepo.GetByID(ctx, nil, targetID)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return fmt.Errorf("%w: match %d", ErrDownstreamMatchNotFound, targetID)
		}
		return fmt.Errorf("failed to read downstream match %d: %w", targetID, err)
	}

	// The destined side may already hold this team if the caller retried a
	// finish; that is not a conflict.
	if sideHolds(target, slot, *teamID) {
		return nil
	}

	filled, err := s.matchRepo.FillSlot(ctx, nil, targetID, slot, *teamID, roster)
	if err != nil {
		return err
	}
	if filled {
		return nil
	}

	alternate := 3 - slot
	if sideHolds(target, alternate, *teamID) {
		return nil
	}
	s.logger.Warn("destined slot occupied, trying alternate",
		slog.Int("source_match_id", sourceID),
		slog.Int("target_match_id", targetID),
		slog.Int("slot", slot),
	)
	filled, err = s.matchRepo.FillSlot(ctx, nil, targetID, alternate, *teamID, roster)
	if err != nil {
		return err
	}
	if filled {
		return nil
	}

	s.logger.Error("both downstream slots occupied",
		slog.Int("source_match_id", sourceID),
		slog.Int("target_match_id", targetID),
	)
	return fmt.Errorf("%w: match %d", ErrSlotConflict, targetID)
}

func sideOf(match *models.Match, slot int) (*int, models.Roster) {
	if slot == 1 {
		return match.Team1ID, match.Roster1
	}
	return match.Team2ID, match.Roster2
}

func sideHolds(match *models.Match, slot int, teamID int) bool {
	id, _ := sideOf(match, slot)
	return id != nil && *id == teamID
}
