package brackets

import (
	"math/rand"
	"testing"

	"github.com/Dosada05/sabo-bracket/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runToCompletion keeps playing scheduled matches until none are left.
// choose picks the next match, slot1Wins decides it.
func runToCompletion(t *testing.T, eng *Engine, tour *models.Tournament,
	choose func([]Position) Position, slot1Wins func(*models.Match) bool,
	afterEach func(*AdvanceResult),
) int {
	t.Helper()
	played := 0
	for {
		open := playable(tour, eng.Topology())
		if len(open) == 0 {
			return played
		}
		pos := choose(open)
		m := tour.MatchAt(pos.Round, pos.Match)
		res := play(t, eng, tour, pos.Round, pos.Match, slot1Wins(m))
		if afterEach != nil {
			afterEach(res)
		}
		played++
		require.LessOrEqual(t, played, TotalMatches)
	}
}

func seedOf(tour *models.Tournament, id *string) int {
	return tour.EntrantByID(*id).Seed
}

func TestAdvanceHigherSeedAlwaysWins(t *testing.T) {
	eng := NewEngine(nil)
	tour := newTournament(t)
	seedOne := entrantBySeed(t, tour, 1).ID

	played := runToCompletion(t, eng, tour,
		func(open []Position) Position { return open[0] },
		func(m *models.Match) bool { return seedOf(tour, m.Slot1) < seedOf(tour, m.Slot2) },
		nil,
	)
	assert.Equal(t, TotalMatches, played)

	require.Equal(t, models.StatusCompleted, tour.Status)
	require.NotNil(t, tour.ChampionID)
	assert.Equal(t, seedOne, *tour.ChampionID)

	final := tour.MatchAt(FinalRound, 1)
	assert.Equal(t, 1, seedOf(tour, final.Slot1))
	assert.Equal(t, 2, seedOf(tour, final.Slot2))

	for _, m := range tour.Matches {
		if m.Segment == models.SegmentLoserBranchA || m.Segment == models.SegmentLoserBranchB {
			assert.False(t, m.HasEntrant(seedOne), "seed 1 appeared in R%dM%d", m.Round, m.MatchNumber)
		}
	}
	assert.Zero(t, tour.EntrantByID(seedOne).Losses)
}

func TestAdvanceFirstRoundUpset(t *testing.T) {
	eng := NewEngine(nil)
	tour := newTournament(t)
	seedOne := entrantBySeed(t, tour, 1)
	seedSixteen := entrantBySeed(t, tour, 16)

	res := play(t, eng, tour, 1, 1, false)

	assert.False(t, res.Duplicate)
	assert.Empty(t, res.Eliminated)
	assert.Equal(t, seedSixteen.ID, *tour.MatchAt(2, 1).Slot1)
	assert.Equal(t, seedOne.ID, *tour.MatchAt(101, 1).Slot1)

	one := tour.EntrantByID(seedOne.ID)
	assert.Equal(t, 1, one.Losses)
	assert.False(t, one.Eliminated)

	require.Len(t, res.Entrants, 1)
	assert.Equal(t, seedOne.ID, res.Entrants[0].ID)
	require.Len(t, res.Matches, 2)
	assert.Equal(t, 2, res.Matches[0].Round)
	assert.Equal(t, 101, res.Matches[1].Round)
	assert.Equal(t, models.MatchStatusPendingParticipants, res.Matches[0].Status)
}

func TestAdvanceSchedulesWhenBothSlotsFilled(t *testing.T) {
	eng := NewEngine(nil)
	tour := newTournament(t)

	play(t, eng, tour, 1, 1, true)
	assert.Equal(t, models.MatchStatusPendingParticipants, tour.MatchAt(2, 1).Status)

	res := play(t, eng, tour, 1, 2, true)
	assert.Equal(t, models.MatchStatusScheduled, tour.MatchAt(2, 1).Status)
	assert.Equal(t, models.MatchStatusScheduled, tour.MatchAt(101, 1).Status)
	assert.Len(t, res.Matches, 2)
}

func TestAdvanceIsIdempotent(t *testing.T) {
	eng := NewEngine(nil)
	tour := newTournament(t)

	play(t, eng, tour, 1, 1, true)
	m := tour.MatchAt(1, 1)
	before := tour.Clone()

	res, err := eng.Advance(tour, m.ID, *m.Winner)
	require.NoError(t, err)
	assert.True(t, res.Duplicate)
	assert.Empty(t, res.Matches)
	assert.Empty(t, res.Entrants)
	assert.Equal(t, before, tour)
}

func TestAdvanceFinalIsIdempotent(t *testing.T) {
	eng := NewEngine(nil)
	tour := newTournament(t)
	runToCompletion(t, eng, tour,
		func(open []Position) Position { return open[len(open)-1] },
		func(*models.Match) bool { return true },
		nil,
	)
	require.Equal(t, models.StatusCompleted, tour.Status)
	before := tour.Clone()

	final := tour.MatchAt(FinalRound, 1)
	res, err := eng.Advance(tour, final.ID, *final.Winner)
	require.NoError(t, err)
	assert.True(t, res.Duplicate)
	assert.False(t, res.Completed)
	assert.Equal(t, *before.ChampionID, res.ChampionID)
	assert.Equal(t, before, tour)
}

func TestAdvanceRejects(t *testing.T) {
	eng := NewEngine(nil)

	t.Run("unknown match", func(t *testing.T) {
		tour := newTournament(t)
		_, err := eng.Advance(tour, "nope", "p01")
		assert.ErrorIs(t, err, ErrMatchNotFound)
	})

	t.Run("not confirmed", func(t *testing.T) {
		tour := newTournament(t)
		m := tour.MatchAt(1, 1)
		require.NoError(t, NewWorkflow().Submit(m, 3, 1, operator))
		_, err := eng.Advance(tour, m.ID, *m.Slot1)
		assert.ErrorIs(t, err, ErrMatchNotConfirmed)
	})

	t.Run("winner mismatch", func(t *testing.T) {
		tour := newTournament(t)
		play(t, eng, tour, 1, 1, true)
		m := tour.MatchAt(1, 1)
		_, err := eng.Advance(tour, m.ID, *m.Slot2)
		assert.ErrorIs(t, err, ErrWinnerNotInMatch)
		_, err = eng.Advance(tour, m.ID, "p99")
		assert.ErrorIs(t, err, ErrWinnerNotInMatch)
	})

	t.Run("slot conflict leaves state untouched", func(t *testing.T) {
		tour := newTournament(t)
		play(t, eng, tour, 1, 1, true)
		m := tour.MatchAt(1, 1)
		m.Winner = m.Slot2
		before := tour.Clone()

		_, err := eng.Advance(tour, m.ID, *m.Slot2)
		assert.ErrorIs(t, err, ErrSlotConflict)
		assert.Equal(t, before, tour)
	})
}

func TestRandomSimulations(t *testing.T) {
	eng := NewEngine(nil)
	rng := rand.New(rand.NewSource(16))

	for run := 0; run < 200; run++ {
		tour := newTournament(t)
		played := runToCompletion(t, eng, tour,
			func(open []Position) Position { return open[rng.Intn(len(open))] },
			func(*models.Match) bool { return rng.Intn(2) == 0 },
			func(res *AdvanceResult) {
				for _, m := range res.Matches {
					for _, id := range []*string{m.Slot1, m.Slot2} {
						if id != nil {
							assert.False(t, tour.EntrantByID(*id).Eliminated, "eliminated entrant %s placed in R%dM%d", *id, m.Round, m.MatchNumber)
						}
					}
				}
			},
		)
		require.Equal(t, TotalMatches, played)
		require.Equal(t, models.StatusCompleted, tour.Status, "run %d", run)

		var alive []string
		for _, e := range tour.Entrants {
			assert.LessOrEqual(t, e.Losses, 2)
			if !e.Eliminated {
				alive = append(alive, e.ID)
			}
		}
		require.Len(t, alive, 1, "run %d", run)
		assert.Equal(t, alive[0], *tour.ChampionID)

		final := tour.MatchAt(FinalRound, 1)
		assert.Equal(t, models.ScoreStatusConfirmed, final.ScoreStatus)
		assert.Equal(t, *tour.ChampionID, *final.Winner)
		for _, m := range tour.Matches {
			assert.True(t, m.IsResolved(), "R%dM%d left open in run %d", m.Round, m.MatchNumber, run)
		}
	}
}

func TestResolveByes(t *testing.T) {
	eng := NewEngine(nil)
	seeded, err := SeedWithByes(newEntrants(12))
	require.NoError(t, err)
	tour := buildTournament(t, seeded)

	res, err := eng.ResolveByes(tour)
	require.NoError(t, err)
	require.NoError(t, CheckInvariants(tour, nil))
	assert.False(t, res.Duplicate)

	for i := 1; i <= 4; i++ {
		m := tour.MatchAt(1, i)
		assert.True(t, m.AutoResolved, "R1M%d", i)
		assert.Equal(t, entrantBySeed(t, tour, i).ID, *m.Winner)
	}
	for i := 5; i <= 8; i++ {
		assert.False(t, tour.MatchAt(1, i).AutoResolved)
	}
	// Byes that lost in round one meet each other in branch A and cascade.
	assert.True(t, tour.MatchAt(101, 1).AutoResolved)
	assert.True(t, tour.MatchAt(101, 2).AutoResolved)
	assert.True(t, tour.MatchAt(102, 1).AutoResolved)
	assert.Equal(t, models.MatchStatusScheduled, tour.MatchAt(2, 1).Status)
	assert.Equal(t, models.MatchStatusScheduled, tour.MatchAt(2, 2).Status)

	again, err := eng.ResolveByes(tour)
	require.NoError(t, err)
	assert.True(t, again.Duplicate)

	rng := rand.New(rand.NewSource(7))
	runToCompletion(t, eng, tour,
		func(open []Position) Position { return open[rng.Intn(len(open))] },
		func(*models.Match) bool { return rng.Intn(2) == 0 },
		nil,
	)
	require.Equal(t, models.StatusCompleted, tour.Status)
	assert.False(t, tour.EntrantByID(*tour.ChampionID).IsBye)
}
