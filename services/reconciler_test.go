package services

import (
	"context"
	"testing"
	"time"

	"github.com/Dosada05/sabo-bracket/brackets"
	"github.com/Dosada05/sabo-bracket/models"
	"github.com/Dosada05/sabo-bracket/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// loseAdvancement stores a confirmed result for R1M<n> without advancing it,
// as if the process died between the two steps.
func loseAdvancement(t *testing.T, f *fixture, n int) *models.Match {
	t.Helper()
	ctx := context.Background()
	tour, err := f.gateway.LoadTournament(ctx, fixtureTournamentID)
	require.NoError(t, err)

	m := tour.MatchAt(1, n)
	wf := brackets.NewWorkflow()
	require.NoError(t, wf.Submit(m, 4, 2, organizer))
	require.NoError(t, wf.Confirm(m, organizer))
	require.NoError(t, f.gateway.SaveChanges(ctx, repositories.ChangeSet{Matches: []*models.Match{m}}))
	return m
}

func TestReconcilerSweepRepairs(t *testing.T) {
	f := newFixture(t, 16, false)
	f.build(t)
	ctx := context.Background()

	lost := loseAdvancement(t, f, 1)

	r := NewReconciler(f.gateway, f.matches, time.Minute, discardLogger())
	n, err := r.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	assert.Equal(t, *lost.Slot1, *f.match(t, 2, 1).Slot1)
	assert.Equal(t, *lost.Slot2, *f.match(t, 101, 1).Slot1)

	tour, err := f.gateway.LoadTournament(ctx, fixtureTournamentID)
	require.NoError(t, err)
	require.NoError(t, brackets.CheckInvariants(tour, nil))

	n, err = r.Sweep(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestReconcilerDuplicateConfirmRepairs(t *testing.T) {
	f := newFixture(t, 16, false)
	f.build(t)

	lost := loseAdvancement(t, f, 2)
	res, err := f.matches.ConfirmScore(context.Background(), lost.ID, organizer)
	require.NoError(t, err)
	assert.True(t, res.Duplicate)
	assert.Len(t, res.Advanced, 2)
	assert.Equal(t, *lost.Slot1, *f.match(t, 2, 1).Slot2)
}

func TestReconcilerStartAndShutdown(t *testing.T) {
	f := newFixture(t, 16, false)
	r := NewReconciler(f.gateway, f.matches, time.Hour, discardLogger())
	require.NoError(t, r.Start())
	assert.NoError(t, r.Shutdown())
}

func TestTournamentLocker(t *testing.T) {
	l := NewTournamentLocker()
	ctx := context.Background()

	unlock, err := l.Lock(ctx, "a")
	require.NoError(t, err)

	other, err := l.Lock(ctx, "b")
	require.NoError(t, err)
	other()

	timeout, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	_, err = l.Lock(timeout, "a")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	unlock()
	assert.Zero(t, l.size())

	again, err := l.Lock(ctx, "a")
	require.NoError(t, err)
	again()
}
