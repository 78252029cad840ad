package services

import (
	"context"
	"sync"

	"github.com/beloteo/tournament-engine/models"
	"github.com/beloteo/tournament-engine/repositories"
)

// In-memory repositories mimicking the conditional-update semantics of the
// postgres layer, so the services can be exercised without a database.

type fakeMatchRepo struct {
	mu      sync.Mutex
	nextID  int
	matches map[int]*models.Match
}

func newFakeMatchRepo() *fakeMatchRepo {
	return &fakeMatchRepo{matches: make(map[int]*models.Match)}
}

func (r *fakeMatchRepo) Create(_ context.Context, _ repositories.SQLExecutor, match *models.Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.matches {
		if m.TournamentID == match.TournamentID && m.Bracket == match.Bracket &&
			m.Round == match.Round && m.OrderInRound == match.OrderInRound {
			return repositories.ErrMatchPositionTaken
		}
	}
	r.nextID++
	match.ID = r.nextID
	if match.Status == "" {
		match.Status = models.MatchStatusPending
	}
	stored := *match
	r.matches[match.ID] = &stored
	return nil
}

func (r *fakeMatchRepo) GetByID(_ context.Context, _ repositories.SQLExecutor, id int) (*models.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.matches[id]
	if !ok {
		return nil, repositories.ErrMatchNotFound
	}
	copied := *m
	return &copied, nil
}

func (r *fakeMatchRepo) ListByTournament(_ context.Context, _ repositories.SQLExecutor, tournamentID int, round *int, status *models.MatchStatus) ([]*models.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Match
	for id := 1; id <= r.nextID; id++ {
		m, ok := r.matches[id]
		if !ok || m.TournamentID != tournamentID {
			continue
		}
		if round != nil && m.Round != *round {
			continue
		}
		if status != nil && m.Status != *status {
			continue
		}
		copied := *m
		out = append(out, &copied)
	}
	return out, nil
}

func (r *fakeMatchRepo) UpdateNextPointers(_ context.Context, _ repositories.SQLExecutor, matchID int, winnerMatchID, winnerSlot, loserMatchID, loserSlot *int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.matches[matchID]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	m.NextWinnerMatchID = winnerMatchID
	m.NextWinnerSlot = winnerSlot
	m.NextLoserMatchID = loserMatchID
	m.NextLoserSlot = loserSlot
	return nil
}

func (r *fakeMatchRepo) MarkOngoing(_ context.Context, _ repositories.SQLExecutor, id int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.matches[id]
	if !ok {
		return false, repositories.ErrMatchNotFound
	}
	if m.Status != models.MatchStatusPending {
		return false, nil
	}
	m.Status = models.MatchStatusOngoing
	return true, nil
}

func (r *fakeMatchRepo) Finish(_ context.Context, _ repositories.SQLExecutor, id int, score1, score2 int, roster1, roster2 models.Roster) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.matches[id]
	if !ok {
		return false, repositories.ErrMatchNotFound
	}
	if m.Status == models.MatchStatusFinished {
		return false, nil
	}
	m.Score1, m.Score2 = &score1, &score2
	m.Roster1, m.Roster2 = roster1, roster2
	m.Status = models.MatchStatusFinished
	return true, nil
}

func (r *fakeMatchRepo) FillSlot(_ context.Context, _ repositories.SQLExecutor, matchID, slot int, teamID int, roster models.Roster) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.matches[matchID]
	if !ok {
		return false, repositories.ErrMatchNotFound
	}
	if slot == 1 {
		if m.Team1ID != nil {
			return false, nil
		}
		m.Team1ID = &teamID
		m.Roster1 = roster
		return true, nil
	}
	if m.Team2ID != nil {
		return false, nil
	}
	m.Team2ID = &teamID
	m.Roster2 = roster
	return true, nil
}

// staleMatchRepo caps list reads at a fixed round, emulating a reader that
// paired the next round from a snapshot taken before a concurrent writer
// inserted it.
type staleMatchRepo struct {
	*fakeMatchRepo
	visibleRound int
}

func (r *staleMatchRepo) ListByTournament(ctx context.Context, exec repositories.SQLExecutor, tournamentID int, round *int, status *models.MatchStatus) ([]*models.Match, error) {
	all, err := r.fakeMatchRepo.ListByTournament(ctx, exec, tournamentID, round, status)
	if err != nil {
		return nil, err
	}
	var out []*models.Match
	for _, m := range all {
		if m.Round <= r.visibleRound {
			out = append(out, m)
		}
	}
	return out, nil
}

type fakeTournamentRepo struct {
	mu          sync.Mutex
	nextID      int
	tournaments map[int]*models.Tournament
}

func newFakeTournamentRepo() *fakeTournamentRepo {
	return &fakeTournamentRepo{tournaments: make(map[int]*models.Tournament)}
}

func (r *fakeTournamentRepo) Create(_ context.Context, _ repositories.SQLExecutor, tournament *models.Tournament) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	tournament.ID = r.nextID
	stored := *tournament
	r.tournaments[tournament.ID] = &stored
	return nil
}

func (r *fakeTournamentRepo) GetByID(_ context.Context, _ repositories.SQLExecutor, id int) (*models.Tournament, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tournaments[id]
	if !ok {
		return nil, repositories.ErrTournamentNotFound
	}
	copied := *t
	return &copied, nil
}

func (r *fakeTournamentRepo) UpdateStatus(_ context.Context, _ repositories.SQLExecutor, id int, status models.TournamentStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	if t.Status == models.TournamentStatusFinished {
		return nil
	}
	t.Status = status
	return nil
}

type fakeTeamRepo struct {
	mu     sync.Mutex
	nextID int
	teams  map[int]*models.Team
}

func newFakeTeamRepo() *fakeTeamRepo {
	return &fakeTeamRepo{teams: make(map[int]*models.Team)}
}

func (r *fakeTeamRepo) Create(_ context.Context, _ repositories.SQLExecutor, team *models.Team) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	team.ID = r.nextID
	stored := *team
	r.teams[team.ID] = &stored
	return nil
}

func (r *fakeTeamRepo) GetByID(_ context.Context, _ repositories.SQLExecutor, id int) (*models.Team, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.teams[id]
	if !ok {
		return nil, repositories.ErrTeamNotFound
	}
	copied := *t
	return &copied, nil
}

func (r *fakeTeamRepo) ListByTournament(_ context.Context, _ repositories.SQLExecutor, tournamentID int) ([]*models.Team, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Team
	for id := 1; id <= r.nextID; id++ {
		t, ok := r.teams[id]
		if !ok || t.TournamentID != tournamentID {
			continue
		}
		copied := *t
		out = append(out, &copied)
	}
	return out, nil
}

type standingKey struct {
	tournamentID  int
	participantID string
}

type fakeStandingRepo struct {
	mu        sync.Mutex
	standings map[standingKey]*models.Standing
	order     []standingKey
}

func newFakeStandingRepo() *fakeStandingRepo {
	return &fakeStandingRepo{standings: make(map[standingKey]*models.Standing)}
}

func (r *fakeStandingRepo) ApplyDelta(_ context.Context, _ repositories.SQLExecutor, tournamentID int, participantID string, kind models.ParticipantKind, delta models.StandingDelta) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := standingKey{tournamentID, participantID}
	st, ok := r.standings[key]
	if !ok {
		st = &models.Standing{
			TournamentID:  tournamentID,
			ParticipantID: participantID,
			Kind:          kind,
		}
		r.standings[key] = st
		r.order = append(r.order, key)
	}
	st.GamesPlayed += delta.GamesPlayed
	st.Wins += delta.Wins
	st.Losses += delta.Losses
	st.PointsScored += delta.PointsScored
	st.PointsConceded += delta.PointsConceded
	st.Contracts += delta.Contracts
	st.Coinches += delta.Coinches
	st.Shutouts += delta.Shutouts
	return nil
}

func (r *fakeStandingRepo) GetByParticipant(_ context.Context, _ repositories.SQLExecutor, tournamentID int, participantID string) (*models.Standing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.standings[standingKey{tournamentID, participantID}]
	if !ok {
		return nil, repositories.ErrStandingNotFound
	}
	copied := *st
	return &copied, nil
}

func (r *fakeStandingRepo) ListByTournament(_ context.Context, _ repositories.SQLExecutor, tournamentID int, kind *models.ParticipantKind) ([]*models.Standing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Standing
	for _, key := range r.order {
		st := r.standings[key]
		if st.TournamentID != tournamentID {
			continue
		}
		if kind != nil && st.Kind != *kind {
			continue
		}
		copied := *st
		out = append(out, &copied)
	}
	return out, nil
}

type fakeResultRepo struct {
	mu      sync.Mutex
	results map[int]*models.TournamentResult
}

func newFakeResultRepo() *fakeResultRepo {
	return &fakeResultRepo{results: make(map[int]*models.TournamentResult)}
}

func (r *fakeResultRepo) Create(_ context.Context, _ repositories.SQLExecutor, result *models.TournamentResult) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.results[result.TournamentID]; exists {
		return false, nil
	}
	stored := *result
	r.results[result.TournamentID] = &stored
	return true, nil
}

func (r *fakeResultRepo) GetByTournament(_ context.Context, _ repositories.SQLExecutor, tournamentID int) (*models.TournamentResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res, ok := r.results[tournamentID]
	if !ok {
		return nil, repositories.ErrResultNotFound
	}
	copied := *res
	return &copied, nil
}
