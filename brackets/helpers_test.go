package brackets

import (
	"fmt"
	"testing"

	"github.com/Dosada05/sabo-bracket/models"
	"github.com/stretchr/testify/require"
)

const testTournamentID = "3f1c9a52-6d0b-4c36-9b7e-0f2d6a1c7e11"

var operator = models.Actor{ID: "organizer-1", Role: models.RoleOrganizer}

// newEntrants returns n players whose rating decreases with the index, so
// player p01 ends up as seed 1.
func newEntrants(n int) []*models.Entrant {
	out := make([]*models.Entrant, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, &models.Entrant{
			ID:           fmt.Sprintf("p%02d", i+1),
			TournamentID: testTournamentID,
			DisplayName:  fmt.Sprintf("Player %d", i+1),
			Rating:       2000 - i*25,
		})
	}
	return out
}

func newTournament(t *testing.T) *models.Tournament {
	t.Helper()
	seeded, err := Seed(newEntrants(EntrantCount))
	require.NoError(t, err)
	return buildTournament(t, seeded)
}

func buildTournament(t *testing.T, seeded []*models.Entrant) *models.Tournament {
	t.Helper()
	matches, err := NewBuilder(nil).Build(testTournamentID, seeded)
	require.NoError(t, err)
	return &models.Tournament{
		ID:       testTournamentID,
		Name:     "Friday Open",
		Status:   models.StatusActive,
		Entrants: seeded,
		Matches:  matches,
	}
}

func entrantBySeed(t *testing.T, tour *models.Tournament, seed int) *models.Entrant {
	t.Helper()
	for _, e := range tour.Entrants {
		if e.Seed == seed {
			return e
		}
	}
	t.Fatalf("no entrant with seed %d", seed)
	return nil
}

// play submits and confirms a result through the workflow and advances it.
func play(t *testing.T, eng *Engine, tour *models.Tournament, round, n int, slot1Wins bool) *AdvanceResult {
	t.Helper()
	m := tour.MatchAt(round, n)
	require.NotNil(t, m, "R%dM%d", round, n)

	s1, s2 := 2, 5
	if slot1Wins {
		s1, s2 = 5, 2
	}
	wf := NewWorkflow()
	require.NoError(t, wf.Submit(m, s1, s2, operator))
	require.NoError(t, wf.Confirm(m, operator))

	res, err := eng.Advance(tour, m.ID, *m.Winner)
	require.NoError(t, err)
	require.NoError(t, CheckInvariants(tour, eng.Topology()))
	return res
}

// playable lists the positions of matches ready for a score, in topology order.
func playable(tour *models.Tournament, topology *Topology) []Position {
	var out []Position
	for _, pos := range topology.Positions() {
		if m := tour.MatchAt(pos.Round, pos.Match); m != nil && m.Status == models.MatchStatusScheduled {
			out = append(out, pos)
		}
	}
	return out
}
