package brackets

import (
	"fmt"
	"strings"

	"github.com/Dosada05/sabo-bracket/models"
)

// CheckInvariants verifies a tournament's bracket state against the topology.
// Services run it on the candidate state before anything is committed.
func CheckInvariants(t *models.Tournament, topology *Topology) error {
	if topology == nil {
		topology = SABO16()
	}
	if t.Status == models.StatusRegistration && len(t.Matches) == 0 {
		return nil
	}

	var problems []string
	addf := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	seeds := make(map[int]string, len(t.Entrants))
	for _, e := range t.Entrants {
		if e.Seed < 1 || e.Seed > EntrantCount {
			addf("entrant %s has seed %d", e.ID, e.Seed)
		} else if other, dup := seeds[e.Seed]; dup {
			addf("seed %d held by %s and %s", e.Seed, other, e.ID)
		}
		seeds[e.Seed] = e.ID
		if e.Losses >= 2 && !e.Eliminated {
			addf("entrant %s has %d losses but is not eliminated", e.ID, e.Losses)
		}
		if e.Losses > 2 {
			addf("entrant %s has %d losses", e.ID, e.Losses)
		}
	}
	if len(t.Entrants) != EntrantCount {
		addf("%d entrants, want %d", len(t.Entrants), EntrantCount)
	}

	if len(t.Matches) != topology.MatchCount() {
		addf("%d matches, want %d", len(t.Matches), topology.MatchCount())
	}
	seen := make(map[Position]bool, len(t.Matches))
	for _, m := range t.Matches {
		pos := Position{Round: m.Round, Match: m.MatchNumber}
		if !topology.has(pos) {
			addf("match %s at unknown position %s", m.ID, pos)
			continue
		}
		if seen[pos] {
			addf("position %s appears twice", pos)
		}
		seen[pos] = true
		if seg, _ := topology.SegmentOf(m.Round); seg != m.Segment {
			addf("match %s is in %s, want %s", pos, m.Segment, seg)
		}

		completed := m.Status == models.MatchStatusCompleted && m.ScoreStatus == models.ScoreStatusConfirmed
		switch {
		case m.Winner != nil && !completed:
			addf("match %s has a winner but is %s/%s", pos, m.Status, m.ScoreStatus)
		case m.Winner == nil && completed:
			addf("match %s is completed without a winner", pos)
		case m.Winner != nil && !m.HasEntrant(*m.Winner):
			addf("match %s winner %s is not in the match", pos, *m.Winner)
		}
		if m.Status != models.MatchStatusPendingParticipants && !m.HasBothSlots() {
			addf("match %s is %s with an empty slot", pos, m.Status)
		}
		if m.Slot1 != nil && m.Slot2 != nil && *m.Slot1 == *m.Slot2 {
			addf("match %s pits %s against itself", pos, *m.Slot1)
		}
	}

	if t.Status != models.StatusRegistration {
		checkPlacement(t, addf)
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvariantViolation, strings.Join(problems, "; "))
	}
	return nil
}

// checkPlacement enforces that an eliminated entrant sits in no open match and
// every active entrant waits in exactly one, never in the winner bracket once
// it has lost.
func checkPlacement(t *models.Tournament, addf func(string, ...any)) {
	open := make(map[string][]*models.Match)
	for _, m := range t.Matches {
		if m.IsResolved() {
			continue
		}
		for _, id := range []*string{m.Slot1, m.Slot2} {
			if id != nil {
				open[*id] = append(open[*id], m)
			}
		}
	}

	active := 0
	for _, e := range t.Entrants {
		placed := open[e.ID]
		if e.Eliminated {
			if len(placed) > 0 {
				addf("eliminated entrant %s is still in %d open matches", e.ID, len(placed))
			}
			continue
		}
		active++
		for _, m := range placed {
			if e.Losses > 0 && m.Segment == models.SegmentWinnerBracket {
				addf("entrant %s with a loss is in winner bracket match R%dM%d", e.ID, m.Round, m.MatchNumber)
			}
		}
		if t.Status == models.StatusCompleted {
			if len(placed) != 0 {
				addf("entrant %s still has open matches after completion", e.ID)
			}
			continue
		}
		if len(placed) != 1 {
			addf("active entrant %s is in %d open matches", e.ID, len(placed))
		}
	}

	if t.Status == models.StatusCompleted {
		if t.ChampionID == nil {
			addf("completed tournament has no champion")
		} else if active != 1 {
			addf("completed tournament has %d active entrants", active)
		}
	}
}
