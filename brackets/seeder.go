package brackets

import (
	"fmt"
	"sort"

	"github.com/Dosada05/sabo-bracket/models"
)

const byeIDPrefix = "bye-"

// Seed orders exactly 16 entrants by descending rating and assigns seeds
// 1..16. Ties keep their input order. The input slice is not modified.
func Seed(entrants []*models.Entrant) ([]*models.Entrant, error) {
	if len(entrants) != EntrantCount {
		return nil, fmt.Errorf("%w: got %d, need %d", ErrInvalidEntrantCount, len(entrants), EntrantCount)
	}
	return seed(entrants)
}

// SeedWithByes seeds between 2 and 16 real entrants and fills the remaining
// seeds with bye placeholders that lose every match they are drawn into.
func SeedWithByes(entrants []*models.Entrant) ([]*models.Entrant, error) {
	if len(entrants) < 2 || len(entrants) > EntrantCount {
		return nil, fmt.Errorf("%w: got %d, need between 2 and %d", ErrInvalidEntrantCount, len(entrants), EntrantCount)
	}
	seeded, err := seed(entrants)
	if err != nil {
		return nil, err
	}
	tournamentID := seeded[0].TournamentID
	for s := len(seeded) + 1; s <= EntrantCount; s++ {
		seeded = append(seeded, NewBye(tournamentID, s))
	}
	return seeded, nil
}

func NewBye(tournamentID string, seed int) *models.Entrant {
	return &models.Entrant{
		ID:           fmt.Sprintf("%s%d", byeIDPrefix, seed),
		TournamentID: tournamentID,
		DisplayName:  "BYE",
		Seed:         seed,
		IsBye:        true,
	}
}

func seed(entrants []*models.Entrant) ([]*models.Entrant, error) {
	seen := make(map[string]struct{}, len(entrants))
	out := make([]*models.Entrant, 0, len(entrants))
	for i, e := range entrants {
		if e == nil || e.ID == "" {
			return nil, fmt.Errorf("%w: entrant %d has no id", ErrInvalidEntrantCount, i)
		}
		if _, dup := seen[e.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate entrant %s", ErrInvalidEntrantCount, e.ID)
		}
		seen[e.ID] = struct{}{}
		out = append(out, e.Clone())
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Rating > out[j].Rating
	})
	for i, e := range out {
		e.Seed = i + 1
		e.Losses = 0
		e.Eliminated = false
	}
	return out, nil
}
