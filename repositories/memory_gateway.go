package repositories

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Dosada05/sabo-bracket/models"
)

// MemoryGateway keeps tournaments in process memory. Reads hand out deep
// copies so callers can never mutate stored state without SaveChanges.
type MemoryGateway struct {
	mu          sync.RWMutex
	tournaments map[string]*models.Tournament
	matchIndex  map[string]string
}

var _ Gateway = (*MemoryGateway)(nil)

func NewMemoryGateway() *MemoryGateway {
	return &MemoryGateway{
		tournaments: make(map[string]*models.Tournament),
		matchIndex:  make(map[string]string),
	}
}

// AddTournament registers a tournament together with its entrants and any
// matches it already has.
func (g *MemoryGateway) AddTournament(t *models.Tournament) {
	g.mu.Lock()
	defer g.mu.Unlock()

	c := t.Clone()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	if c.Status == "" {
		c.Status = models.StatusRegistration
	}
	g.tournaments[c.ID] = c
	for _, m := range c.Matches {
		g.matchIndex[m.ID] = c.ID
	}
}

func (g *MemoryGateway) LoadTournament(ctx context.Context, id string) (*models.Tournament, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	g.mu.RLock()
	defer g.mu.RUnlock()

	t, ok := g.tournaments[id]
	if !ok {
		return nil, ErrTournamentNotFound
	}
	return t.Clone(), nil
}

func (g *MemoryGateway) LoadEntrants(ctx context.Context, tournamentID string) ([]*models.Entrant, error) {
	t, err := g.LoadTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	return t.Entrants, nil
}

func (g *MemoryGateway) TournamentIDForMatch(ctx context.Context, matchID string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	g.mu.RLock()
	defer g.mu.RUnlock()

	id, ok := g.matchIndex[matchID]
	if !ok {
		return "", ErrMatchNotFound
	}
	return id, nil
}

func (g *MemoryGateway) CreateBracket(ctx context.Context, t *models.Tournament) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	stored, ok := g.tournaments[t.ID]
	if !ok {
		return ErrTournamentNotFound
	}
	if len(stored.Matches) > 0 || stored.Status != models.StatusRegistration {
		return fmt.Errorf("%w: %s", ErrBracketExists, t.ID)
	}

	c := t.Clone()
	stored.Status = c.Status
	stored.ChampionID = c.ChampionID
	stored.CompletedAt = c.CompletedAt
	stored.Entrants = c.Entrants
	stored.Matches = c.Matches
	for _, m := range stored.Matches {
		g.matchIndex[m.ID] = stored.ID
	}
	return nil
}

func (g *MemoryGateway) SaveChanges(ctx context.Context, cs ChangeSet) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if cs.Empty() {
		return nil
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	stored, ok := g.tournaments[cs.tournamentID()]
	if !ok {
		return ErrTournamentNotFound
	}

	// Check every version before writing anything.
	for _, m := range cs.Matches {
		current := stored.MatchByID(m.ID)
		if current == nil {
			return fmt.Errorf("%w: %s", ErrMatchNotFound, m.ID)
		}
		if current.Version != m.Version {
			return fmt.Errorf("%w: match %s at version %d, have %d", ErrConflict, m.ID, current.Version, m.Version)
		}
	}
	for _, e := range cs.Entrants {
		if stored.EntrantByID(e.ID) == nil {
			return fmt.Errorf("%w: unknown entrant %s", ErrConflict, e.ID)
		}
	}

	for _, m := range cs.Matches {
		next := m.Clone()
		next.Version++
		for i, current := range stored.Matches {
			if current.ID == m.ID {
				stored.Matches[i] = next
				break
			}
		}
	}
	for _, e := range cs.Entrants {
		for i, current := range stored.Entrants {
			if current.ID == e.ID {
				stored.Entrants[i] = e.Clone()
				break
			}
		}
	}
	if cs.Tournament != nil {
		stored.Status = cs.Tournament.Status
		stored.ChampionID = nil
		if cs.Tournament.ChampionID != nil {
			id := *cs.Tournament.ChampionID
			stored.ChampionID = &id
		}
		if cs.Tournament.CompletedAt != nil {
			at := *cs.Tournament.CompletedAt
			stored.CompletedAt = &at
		}
	}
	bumpVersions(cs.Matches)
	return nil
}

func (g *MemoryGateway) ListActiveTournamentIDs(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	g.mu.RLock()
	defer g.mu.RUnlock()

	ids := make([]string, 0, len(g.tournaments))
	for id, t := range g.tournaments {
		if t.Status == models.StatusActive {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}
