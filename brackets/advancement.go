package brackets

import (
	"fmt"
	"sort"
	"time"

	"github.com/Dosada05/sabo-bracket/models"
)

// AdvanceResult lists everything an advancement changed so the caller can
// persist exactly that change set.
type AdvanceResult struct {
	MatchID    string
	Duplicate  bool
	Matches    []*models.Match
	Entrants   []*models.Entrant
	Eliminated []string
	ChampionID string
	Completed  bool
}

// Engine moves winners and losers of confirmed matches through a topology.
// It knows nothing about bracket shape beyond what the topology declares.
type Engine struct {
	topology *Topology
	now      func() time.Time
}

func NewEngine(topology *Topology) *Engine {
	if topology == nil {
		topology = SABO16()
	}
	return &Engine{topology: topology, now: time.Now}
}

func (e *Engine) Topology() *Topology {
	return e.topology
}

// Advance applies the result of a confirmed match to t. Re-applying the same
// result is a no-op reported through AdvanceResult.Duplicate. On error t is
// left untouched.
func (e *Engine) Advance(t *models.Tournament, matchID, winnerID string) (*AdvanceResult, error) {
	m := t.MatchByID(matchID)
	if m == nil {
		return nil, fmt.Errorf("%w: %s", ErrMatchNotFound, matchID)
	}
	if !m.IsResolved() {
		return nil, fmt.Errorf("%w: match %s is %s/%s", ErrMatchNotConfirmed, matchID, m.Status, m.ScoreStatus)
	}
	if !m.HasEntrant(winnerID) {
		return nil, fmt.Errorf("%w: %s in match %s", ErrWinnerNotInMatch, winnerID, matchID)
	}
	if *m.Winner != winnerID {
		return nil, fmt.Errorf("%w: match %s was confirmed for %s, not %s", ErrWinnerNotInMatch, matchID, *m.Winner, winnerID)
	}

	work := t.Clone()
	res := &AdvanceResult{MatchID: matchID}
	if err := e.run(work, []string{matchID}, res); err != nil {
		return nil, err
	}
	*t = *work
	return res, nil
}

// ResolveByes settles every scheduled match that has a bye in it and
// advances the results. Used right after a padded bracket is built.
func (e *Engine) ResolveByes(t *models.Tournament) (*AdvanceResult, error) {
	work := t.Clone()
	res := &AdvanceResult{}
	tr := newTracker(work)

	var queue []string
	for _, m := range work.Matches {
		if e.resolveBye(work, m) {
			tr.match(m)
			queue = append(queue, m.ID)
		}
	}
	if err := e.runTracked(work, queue, res, tr); err != nil {
		return nil, err
	}
	*t = *work
	return res, nil
}

func (e *Engine) run(work *models.Tournament, queue []string, res *AdvanceResult) error {
	return e.runTracked(work, queue, res, newTracker(work))
}

func (e *Engine) runTracked(work *models.Tournament, queue []string, res *AdvanceResult, tr *tracker) error {
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]

		m := work.MatchByID(id)
		pos := Position{Round: m.Round, Match: m.MatchNumber}
		edge, ok := e.topology.Edge(pos)
		if !ok {
			return fmt.Errorf("%w: no edge for %s", ErrTopologyMismatch, pos)
		}
		winner := *m.Winner
		loser, ok := m.Opponent(winner)
		if !ok {
			return fmt.Errorf("%w: match %s has no opponent for %s", ErrWinnerNotInMatch, m.ID, winner)
		}

		next, err := e.route(work, edge.OnWin, winner, false, tr)
		if err != nil {
			return fmt.Errorf("advancing winner of %s: %w", pos, err)
		}
		if next != "" {
			queue = append(queue, next)
		}
		next, err = e.route(work, edge.OnLoss, loser, true, tr)
		if err != nil {
			return fmt.Errorf("advancing loser of %s: %w", pos, err)
		}
		if next != "" {
			queue = append(queue, next)
		}
	}

	tr.fill(res)
	return nil
}

// route applies one edge for one entrant. It returns the id of a destination
// match that got auto-resolved and must be advanced in turn.
func (e *Engine) route(work *models.Tournament, r Route, entrantID string, isLoss bool, tr *tracker) (string, error) {
	entrant := work.EntrantByID(entrantID)
	if entrant == nil {
		return "", fmt.Errorf("%w: unknown entrant %s", ErrInvariantViolation, entrantID)
	}

	switch r.Kind {
	case RouteEliminate:
		if !entrant.Eliminated {
			entrant.Losses++
			entrant.Eliminated = true
			tr.entrant(entrant)
			tr.eliminated = append(tr.eliminated, entrant.ID)
		}
		return "", nil

	case RouteChampion:
		if work.Status == models.StatusCompleted && work.ChampionID != nil {
			if *work.ChampionID != entrantID {
				return "", fmt.Errorf("%w: tournament already won by %s", ErrSlotConflict, *work.ChampionID)
			}
			return "", nil
		}
		now := e.now()
		id := entrantID
		work.Status = models.StatusCompleted
		work.ChampionID = &id
		work.CompletedAt = &now
		tr.completed = true
		return "", nil

	case RouteAdvance:
		dest := work.MatchAt(r.To.Round, r.To.Match)
		if dest == nil {
			return "", fmt.Errorf("%w: missing destination %s", ErrTopologyMismatch, r.To.Position())
		}
		current := dest.Slot(r.To.Slot)
		switch {
		case current == nil:
			dest.SetSlot(r.To.Slot, entrantID)
			if isLoss {
				entrant.Losses++
				tr.entrant(entrant)
			}
			tr.match(dest)
		case *current != entrantID:
			return "", fmt.Errorf("%w: %s slot %d holds %s, refusing %s", ErrSlotConflict, r.To.Position(), r.To.Slot, *current, entrantID)
		}

		if dest.Status == models.MatchStatusPendingParticipants && dest.HasBothSlots() {
			dest.Status = models.MatchStatusScheduled
			tr.match(dest)
		}
		if e.resolveBye(work, dest) {
			tr.match(dest)
			return dest.ID, nil
		}
		return "", nil
	}
	return "", fmt.Errorf("%w: unknown route kind %v", ErrTopologyMismatch, r.Kind)
}

// resolveBye settles a scheduled match against a bye placeholder. The real
// entrant wins 1-0; two byes resolve in favour of slot 1.
func (e *Engine) resolveBye(work *models.Tournament, m *models.Match) bool {
	if m.Status != models.MatchStatusScheduled || !m.HasBothSlots() {
		return false
	}
	p1, p2 := work.EntrantByID(*m.Slot1), work.EntrantByID(*m.Slot2)
	if p1 == nil || p2 == nil || (!p1.IsBye && !p2.IsBye) {
		return false
	}

	winner := p1.ID
	s1, s2 := 1, 0
	if p1.IsBye && !p2.IsBye {
		winner = p2.ID
		s1, s2 = 0, 1
	}
	m.ScoreSlot1 = &s1
	m.ScoreSlot2 = &s2
	m.Winner = &winner
	m.Status = models.MatchStatusCompleted
	m.ScoreStatus = models.ScoreStatusConfirmed
	m.AutoResolved = true
	m.UpdatedAt = e.now()
	return true
}

type tracker struct {
	matches    map[string]*models.Match
	entrants   map[string]*models.Entrant
	eliminated []string
	completed  bool
	champion   func() *string
}

func newTracker(work *models.Tournament) *tracker {
	return &tracker{
		matches:  make(map[string]*models.Match),
		entrants: make(map[string]*models.Entrant),
		champion: func() *string { return work.ChampionID },
	}
}

func (tr *tracker) match(m *models.Match)     { tr.matches[m.ID] = m }
func (tr *tracker) entrant(e *models.Entrant) { tr.entrants[e.ID] = e }

func (tr *tracker) fill(res *AdvanceResult) {
	for _, m := range tr.matches {
		res.Matches = append(res.Matches, m)
	}
	sort.Slice(res.Matches, func(i, j int) bool {
		if res.Matches[i].Round != res.Matches[j].Round {
			return res.Matches[i].Round < res.Matches[j].Round
		}
		return res.Matches[i].MatchNumber < res.Matches[j].MatchNumber
	})
	for _, e := range tr.entrants {
		res.Entrants = append(res.Entrants, e)
	}
	sort.Slice(res.Entrants, func(i, j int) bool { return res.Entrants[i].Seed < res.Entrants[j].Seed })
	res.Eliminated = append(res.Eliminated, tr.eliminated...)
	res.Completed = tr.completed
	if c := tr.champion(); c != nil {
		res.ChampionID = *c
	}
	res.Duplicate = len(tr.matches) == 0 && len(tr.entrants) == 0 && !tr.completed
}
