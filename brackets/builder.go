package brackets

import (
	"context"
	"fmt"

	"github.com/Dosada05/sabo-bracket/models"
	"github.com/google/uuid"
)

const GeneratorSABO16 = "SABO16"

type Builder struct {
	topology *Topology
}

func NewBuilder(topology *Topology) *Builder {
	if topology == nil {
		topology = SABO16()
	}
	return &Builder{topology: topology}
}

func (b *Builder) GetName() string {
	return GeneratorSABO16
}

func (b *Builder) GenerateBracket(ctx context.Context, params GenerateBracketParams) ([]*models.Match, error) {
	if params.Tournament == nil {
		return nil, fmt.Errorf("%s: tournament is required", b.GetName())
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return b.Build(params.Tournament.ID, params.Entrants)
}

// Build materialises every match of the topology. First-round matches get
// their entrants from the seed pairing; all others start empty. The output
// depends only on the tournament id and the seeds, so rebuilding yields the
// same ids and slots.
func (b *Builder) Build(tournamentID string, seeded []*models.Entrant) ([]*models.Match, error) {
	if err := b.topology.Validate(); err != nil {
		return nil, err
	}
	if len(seeded) != EntrantCount {
		return nil, fmt.Errorf("%w: got %d seeded entrants, need %d", ErrInvalidEntrantCount, len(seeded), EntrantCount)
	}

	bySeed := make(map[int]*models.Entrant, EntrantCount)
	for _, e := range seeded {
		if e.Seed < 1 || e.Seed > EntrantCount {
			return nil, fmt.Errorf("%w: entrant %s has seed %d", ErrInvalidEntrantCount, e.ID, e.Seed)
		}
		if _, dup := bySeed[e.Seed]; dup {
			return nil, fmt.Errorf("%w: seed %d assigned twice", ErrInvalidEntrantCount, e.Seed)
		}
		bySeed[e.Seed] = e
	}

	matches := make([]*models.Match, 0, TotalMatches)
	for _, pos := range b.topology.Positions() {
		segment, _ := b.topology.SegmentOf(pos.Round)
		m := &models.Match{
			ID:           MatchID(tournamentID, pos),
			TournamentID: tournamentID,
			Round:        pos.Round,
			MatchNumber:  pos.Match,
			Segment:      segment,
			Status:       models.MatchStatusPendingParticipants,
			ScoreStatus:  models.ScoreStatusNone,
		}
		if pos.Round == firstWBRound {
			s1, s2 := SeedPairing(pos.Match)
			m.SetSlot(1, bySeed[s1].ID)
			m.SetSlot(2, bySeed[s2].ID)
			m.Status = models.MatchStatusScheduled
		}
		matches = append(matches, m)
	}
	return matches, nil
}

// MatchID derives a stable UUIDv5 for a bracket position.
func MatchID(tournamentID string, pos Position) string {
	ns := uuid.NewSHA1(uuid.NameSpaceOID, []byte(tournamentID))
	return uuid.NewSHA1(ns, []byte(pos.String())).String()
}
