package brackets

import (
	"testing"

	"github.com/Dosada05/sabo-bracket/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckInvariantsDetectsCorruption(t *testing.T) {
	tests := []struct {
		name    string
		corrupt func(tour *models.Tournament)
	}{
		{"missing match", func(tour *models.Tournament) {
			tour.Matches = tour.Matches[1:]
		}},
		{"duplicate seed", func(tour *models.Tournament) {
			tour.Entrants[1].Seed = 1
		}},
		{"winner without confirmation", func(tour *models.Tournament) {
			m := tour.MatchAt(1, 1)
			m.Winner = m.Slot1
		}},
		{"eliminated entrant still scheduled", func(tour *models.Tournament) {
			tour.Entrants[0].Eliminated = true
			tour.Entrants[0].Losses = 2
		}},
		{"two losses but active", func(tour *models.Tournament) {
			tour.Entrants[3].Losses = 2
		}},
		{"loser still in winner bracket", func(tour *models.Tournament) {
			tour.Entrants[5].Losses = 1
		}},
		{"entrant in two open matches", func(tour *models.Tournament) {
			tour.MatchAt(2, 1).SetSlot(1, tour.Entrants[0].ID)
		}},
		{"wrong segment", func(tour *models.Tournament) {
			tour.MatchAt(101, 1).Segment = models.SegmentWinnerBracket
		}},
		{"completed without champion", func(tour *models.Tournament) {
			tour.Status = models.StatusCompleted
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tour := newTournament(t)
			require.NoError(t, CheckInvariants(tour, nil))
			tt.corrupt(tour)
			assert.ErrorIs(t, CheckInvariants(tour, nil), ErrInvariantViolation)
		})
	}
}

func TestCheckInvariantsSkipsEmptyRegistration(t *testing.T) {
	tour := &models.Tournament{ID: testTournamentID, Status: models.StatusRegistration}
	assert.NoError(t, CheckInvariants(tour, nil))
}
