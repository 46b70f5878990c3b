package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/Dosada05/sabo-bracket/brackets"
	"github.com/Dosada05/sabo-bracket/models"
	"github.com/Dosada05/sabo-bracket/repositories"
	"github.com/Dosada05/sabo-bracket/storage"
	"github.com/stretchr/testify/require"
)

const fixtureTournamentID = "9b2f7d0e-4b3a-4f53-8d7c-2c1e5a6b7f80"

var organizer = models.Actor{ID: "organizer-1", Role: models.RoleOrganizer}

type fixture struct {
	gateway  *repositories.MemoryGateway
	ratings  *repositories.MemoryRatingRepository
	uploader *storage.MemoryUploader
	advancer *countingAdvancer
	brackets BracketService
	matches  MatchService
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newFixture(t *testing.T, players int, allowByes bool) *fixture {
	t.Helper()
	return newFixtureWithGateway(t, players, allowByes, nil)
}

func newFixtureWithGateway(t *testing.T, players int, allowByes bool, wrap func(repositories.Gateway) repositories.Gateway) *fixture {
	t.Helper()
	gw := repositories.NewMemoryGateway()
	ratings := repositories.NewMemoryRatingRepository()

	tour := &models.Tournament{ID: fixtureTournamentID, Name: "Saturday Open 9-Ball", Status: models.StatusRegistration}
	for i := 1; i <= players; i++ {
		id := fmt.Sprintf("player-%02d", i)
		tour.Entrants = append(tour.Entrants, &models.Entrant{
			ID:           id,
			TournamentID: fixtureTournamentID,
			DisplayName:  fmt.Sprintf("Player %d", i),
		})
		ratings.Set(id, 2000-i*10)
	}
	gw.AddTournament(tour)

	var gateway repositories.Gateway = gw
	if wrap != nil {
		gateway = wrap(gw)
	}

	locker := NewTournamentLocker()
	uploader := storage.NewMemoryUploader("https://cdn.example.com")
	advancer := &countingAdvancer{engine: brackets.NewEngine(nil)}
	logger := discardLogger()

	return &fixture{
		gateway:  gw,
		ratings:  ratings,
		uploader: uploader,
		advancer: advancer,
		brackets: NewBracketService(gateway, ratings, locker, BracketServiceConfig{AllowByes: allowByes}, logger),
		matches: NewMatchService(gateway, advancer, locker, NewSnapshotArchiver(uploader),
			MatchServiceConfig{MaxRetries: 3, RetryBackoff: time.Millisecond}, logger),
	}
}

func (f *fixture) build(t *testing.T) *models.Snapshot {
	t.Helper()
	snap, created, err := f.brackets.CreateBracket(context.Background(), fixtureTournamentID, organizer)
	require.NoError(t, err)
	require.True(t, created)
	return snap
}

func (f *fixture) match(t *testing.T, round, n int) *models.Match {
	t.Helper()
	tour, err := f.gateway.LoadTournament(context.Background(), fixtureTournamentID)
	require.NoError(t, err)
	m := tour.MatchAt(round, n)
	require.NotNil(t, m)
	return m
}

// play has slot 1 submit and slot 2 confirm.
func (f *fixture) play(t *testing.T, m *models.Match, slot1Wins bool) *ConfirmResult {
	t.Helper()
	ctx := context.Background()
	s1, s2 := 3, 7
	if slot1Wins {
		s1, s2 = 7, 3
	}
	_, err := f.matches.SubmitScore(ctx, m.ID, s1, s2, models.Actor{ID: *m.Slot1, Role: models.RolePlayer})
	require.NoError(t, err)
	res, err := f.matches.ConfirmScore(ctx, m.ID, models.Actor{ID: *m.Slot2, Role: models.RolePlayer})
	require.NoError(t, err)
	return res
}

type countingAdvancer struct {
	mu     sync.Mutex
	calls  int
	engine *brackets.Engine
}

func (a *countingAdvancer) Advance(t *models.Tournament, matchID, winnerID string) (*brackets.AdvanceResult, error) {
	a.mu.Lock()
	a.calls++
	a.mu.Unlock()
	return a.engine.Advance(t, matchID, winnerID)
}

func (a *countingAdvancer) Calls() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls
}

// flakyGateway fails the next n saves with a version conflict.
type flakyGateway struct {
	repositories.Gateway
	mu       sync.Mutex
	failures int
	saves    int
}

func (g *flakyGateway) SaveChanges(ctx context.Context, cs repositories.ChangeSet) error {
	g.mu.Lock()
	g.saves++
	if g.failures > 0 {
		g.failures--
		g.mu.Unlock()
		return fmt.Errorf("simulated: %w", repositories.ErrConflict)
	}
	g.mu.Unlock()
	return g.Gateway.SaveChanges(ctx, cs)
}
