package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/beloteo/tournament-engine/models"
	"github.com/beloteo/tournament-engine/repositories"
	"github.com/beloteo/tournament-engine/storage"
)

const (
	defaultTargetPoints = 1000
	defaultBestOf       = 1
)

// CreateTournamentInput is everything the engine needs to stand up a
// tournament: the declared topology plus the flat player roster to partition
// into teams. ManualTeams, when set, lists roster indices per team; otherwise
// teams are drawn at random.
type CreateTournamentInput struct {
	Name           string                  `json:"name"`
	Format         models.TournamentFormat `json:"format"`
	PlayersPerTeam int                     `json:"players_per_team"`
	TargetPoints   int                     `json:"target_points,omitempty"`
	BestOf         int                     `json:"best_of,omitempty"`
	SwissRounds    *int                    `json:"swiss_rounds,omitempty"`
	Players        []PlayerEntry           `json:"players"`
	ManualTeams    [][]int                 `json:"manual_teams,omitempty"`
}

type TournamentService interface {
	// CreateTournament validates the bracket configuration up front, then
	// creates the tournament, its teams and the full initial match graph in
	// one transaction. A structural failure leaves no records behind.
	CreateTournament(ctx context.Context, input CreateTournamentInput) (*models.Tournament, error)

	// GetFullTournament assembles the tournament with teams, matches,
	// standings and the archival result (when present), resolving avatar
	// asset keys to public URLs.
	GetFullTournament(ctx context.Context, id int) (*models.Tournament, error)
}

type tournamentService struct {
	db             *sql.DB
	tournamentRepo repositories.TournamentRepository
	teamRepo       repositories.TeamRepository
	matchRepo      repositories.MatchRepository
	standingRepo   repositories.StandingRepository
	resultRepo     repositories.ResultRepository
	rosterSvc      RosterService
	bracketSvc     BracketService
	uploader       storage.FileUploader
	logger         *slog.Logger
}

func NewTournamentService(
	db *sql.DB,
	tournamentRepo repositories.TournamentRepository,
	teamRepo repositories.TeamRepository,
	matchRepo repositories.MatchRepository,
	standingRepo repositories.StandingRepository,
	resultRepo repositories.ResultRepository,
	rosterSvc RosterService,
	bracketSvc BracketService,
	uploader storage.FileUploader,
	logger *slog.Logger,
) TournamentService {
	return &tournamentService{
		db:             db,
		tournamentRepo: tournamentRepo,
		teamRepo:       teamRepo,
		matchRepo:      matchRepo,
		standingRepo:   standingRepo,
		resultRepo:     resultRepo,
		rosterSvc:      rosterSvc,
		bracketSvc:     bracketSvc,
		uploader:       uploader,
		logger:         logger,
	}
}

func (s *tournamentService) CreateTournament(ctx context.Context, input CreateTournamentInput) (*models.Tournament, error) {
	if input.PlayersPerTeam < 1 || input.PlayersPerTeam > 2 {
		return nil, ErrTeamSizeInvalid
	}
	if len(input.Players) == 0 || len(input.Players)%input.PlayersPerTeam != 0 {
		return nil, fmt.Errorf("%w: %d players for teams of %d", ErrRosterSizeMismatch, len(input.Players), input.PlayersPerTeam)
	}
	teamCount := len(input.Players) / input.PlayersPerTeam

	tournament := &models.Tournament{
		Name:           input.Name,
		Format:         input.Format,
		TeamCount:      teamCount,
		PlayersPerTeam: input.PlayersPerTeam,
		SwissRounds:    input.SwissRounds,
		TargetPoints:   input.TargetPoints,
		BestOf:         input.BestOf,
		Status:         models.TournamentStatusPending,
	}
	if tournament.TargetPoints <= 0 {
		tournament.TargetPoints = defaultTargetPoints
	}
	if tournament.BestOf <= 0 {
		tournament.BestOf = defaultBestOf
	}

	// Reject malformed configurations before any record exists.
	if err := validateTopology(tournament); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	var txErr error
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		} else if txErr != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				s.logger.Error("rollback failed", slog.Any("error", rbErr))
			}
		}
	}()

	if txErr = s.tournamentRepo.Create(ctx, tx, tournament); txErr != nil {
		return nil, txErr
	}

	teams, assignErr := s.rosterSvc.AssignTeams(ctx, tx, tournament, input.Players, input.ManualTeams)
	if assignErr != nil {
		txErr = assignErr
		return nil, txErr
	}

	matches, buildErr := s.bracketSvc.BuildAndPersist(ctx, tx, tournament, teams)
	if buildErr != nil {
		txErr = buildErr
		return nil, txErr
	}

	if txErr = s.tournamentRepo.UpdateStatus(ctx, tx, tournament.ID, models.TournamentStatusOngoing); txErr != nil {
		return nil, txErr
	}
	tournament.Status = models.TournamentStatusOngoing

	if txErr = tx.Commit(); txErr != nil {
		return nil, fmt.Errorf("failed to commit tournament creation: %w", txErr)
	}

	s.logger.Info("tournament created",
		slog.Int("tournament_id", tournament.ID),
		slog.String("format", string(tournament.Format)),
		slog.Int("teams", len(teams)),
		slog.Int("matches", len(matches)),
	)

	tournament.Teams = dereferenceTeams(teams)
	tournament.Matches = dereferenceMatches(matches)
	s.populateAvatarURLs(tournament)
	return tournament, nil
}

func (s *tournamentService) GetFullTournament(ctx context.Context, id int) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		teams, err := s.teamRepo.ListByTournament(gCtx, nil, id)
		if err != nil {
			return fmt.Errorf("failed to fetch teams: %w", err)
		}
		tournament.Teams = dereferenceTeams(teams)
		return nil
	})
	g.Go(func() error {
		matches, err := s.matchRepo.ListByTournament(gCtx, nil, id, nil, nil)
		if err != nil {
			return fmt.Errorf("failed to fetch matches: %w", err)
		}
		tournament.Matches = dereferenceMatches(matches)
		return nil
	})
	g.Go(func() error {
		standings, err := s.standingRepo.ListByTournament(gCtx, nil, id, nil)
		if err != nil {
			return fmt.Errorf("failed to fetch standings: %w", err)
		}
		tournament.Standings = dereferenceStandings(standings)
		return nil
	})
	g.Go(func() error {
		result, err := s.resultRepo.GetByTournament(gCtx, nil, id)
		if err != nil {
			if errors.Is(err, repositories.ErrResultNotFound) {
				return nil
			}
			return fmt.Errorf("failed to fetch result: %w", err)
		}
		tournament.Result = result
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.populateAvatarURLs(tournament)
	return tournament, nil
}

// populateAvatarURLs resolves stored avatar keys into public URLs on every
// roster the view carries. Best effort: a missing uploader leaves keys unset.
func (s *tournamentService) populateAvatarURLs(tournament *models.Tournament) {
	if s.uploader == nil {
		return
	}
	for i := range tournament.Teams {
		populateRosterAvatars(tournament.Teams[i].Members, s.uploader)
	}
	for i := range tournament.Matches {
		populateRosterAvatars(tournament.Matches[i].Roster1, s.uploader)
		populateRosterAvatars(tournament.Matches[i].Roster2, s.uploader)
	}
}
