package services

import (
	"math"
	"time"

	"github.com/Dosada05/sabo-bracket/brackets"
	"github.com/Dosada05/sabo-bracket/models"
)

// BuildSnapshot projects a tournament into its read-only view.
func BuildSnapshot(t *models.Tournament, now time.Time) *models.Snapshot {
	snap := &models.Snapshot{
		TournamentID: t.ID,
		Name:         t.Name,
		Status:       t.Status,
		Entrants:     make([]models.Entrant, 0, len(t.Entrants)),
		Matches:      make([]models.Match, 0, len(t.Matches)),
		Progress:     buildProgress(t.Matches),
		GeneratedAt:  now,
	}
	for _, e := range t.Entrants {
		snap.Entrants = append(snap.Entrants, *e.Clone())
	}
	for _, m := range t.Matches {
		snap.Matches = append(snap.Matches, *m.Clone())
	}
	if t.ChampionID != nil {
		if e := t.EntrantByID(*t.ChampionID); e != nil {
			snap.Champion = e.Clone()
		}
	}
	return snap
}

func buildProgress(matches []*models.Match) models.Progress {
	p := models.Progress{
		TotalMatches: brackets.TotalMatches,
		NextActions:  []string{},
		Segments:     make(map[models.BracketSegment]models.SegmentProgress),
	}
	var semis, final models.SegmentProgress
	for _, m := range matches {
		sp := p.Segments[m.Segment]
		sp.Total++
		done := m.IsResolved()
		if done {
			sp.Completed++
			p.CompletedMatches++
		}
		p.Segments[m.Segment] = sp

		switch m.Round {
		case brackets.SemifinalRound:
			semis.Total++
			if done {
				semis.Completed++
			}
		case brackets.FinalRound:
			final.Total++
			if done {
				final.Completed++
			}
		}
	}
	p.ProgressPercentage = int(math.Round(float64(p.CompletedMatches) / float64(p.TotalMatches) * 100))

	finished := func(sp models.SegmentProgress) bool { return sp.Total > 0 && sp.Completed == sp.Total }
	wb := p.Segments[models.SegmentWinnerBracket]
	a := p.Segments[models.SegmentLoserBranchA]
	b := p.Segments[models.SegmentLoserBranchB]

	switch {
	case finished(final):
		p.CurrentStage = models.StageComplete
	case finished(semis):
		p.CurrentStage = models.StageFinal
		p.NextActions = append(p.NextActions, "complete the final")
	case finished(wb) && finished(a) && finished(b):
		p.CurrentStage = models.StageSemifinals
		p.NextActions = append(p.NextActions, "play the semifinals")
	case finished(wb):
		p.CurrentStage = models.StageLoserBranches
		if !finished(a) {
			p.NextActions = append(p.NextActions, "complete loser branch A")
		}
		if !finished(b) {
			p.NextActions = append(p.NextActions, "complete loser branch B")
		}
	default:
		p.CurrentStage = models.StageWinnersBracket
		p.NextActions = append(p.NextActions, "complete winner bracket matches")
	}
	return p
}

// playableMatches returns matches that are waiting for a score, in bracket order.
func playableMatches(t *models.Tournament) []*models.Match {
	out := make([]*models.Match, 0)
	for _, pos := range brackets.SABO16().Positions() {
		m := t.MatchAt(pos.Round, pos.Match)
		if m != nil && m.Status == models.MatchStatusScheduled && m.HasBothSlots() {
			out = append(out, m)
		}
	}
	return out
}
