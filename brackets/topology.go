package brackets

import (
	"fmt"
	"sort"

	"github.com/Dosada05/sabo-bracket/models"
)

const (
	EntrantCount   = 16
	TotalMatches   = 27
	SemifinalRound = 250
	FinalRound     = 300
	firstWBRound   = 1
)

// RouteKind tags where a winner or loser goes after a match.
type RouteKind int

const (
	RouteAdvance RouteKind = iota
	RouteEliminate
	RouteChampion
)

func (k RouteKind) String() string {
	switch k {
	case RouteAdvance:
		return "advance"
	case RouteEliminate:
		return "eliminate"
	case RouteChampion:
		return "champion"
	}
	return fmt.Sprintf("RouteKind(%d)", int(k))
}

type Position struct {
	Round int
	Match int
}

func (p Position) String() string {
	return fmt.Sprintf("R%dM%d", p.Round, p.Match)
}

type Destination struct {
	Round int
	Match int
	Slot  int
}

func (d Destination) Position() Position {
	return Position{Round: d.Round, Match: d.Match}
}

type Route struct {
	Kind RouteKind
	To   Destination
}

func advanceTo(round, match, slot int) Route {
	return Route{Kind: RouteAdvance, To: Destination{Round: round, Match: match, Slot: slot}}
}

var (
	eliminate = Route{Kind: RouteEliminate}
	champion  = Route{Kind: RouteChampion}
)

type Edge struct {
	From   Position
	OnWin  Route
	OnLoss Route
}

type RoundSpec struct {
	Round   int
	Segment models.BracketSegment
	Matches int
}

// SlotSource describes where a slot's occupant comes from.
type SlotSource struct {
	Seed      int      // non-zero for seed pairing in the first winner-bracket round
	From      Position // feeding match otherwise
	FromLoser bool
}

// Topology is the static shape of a bracket: its rounds and, for every
// match, where the winner and loser go next.
type Topology struct {
	rounds []RoundSpec
	edges  map[Position]Edge
}

func NewTopology(rounds []RoundSpec, edges []Edge) *Topology {
	t := &Topology{
		rounds: append([]RoundSpec(nil), rounds...),
		edges:  make(map[Position]Edge, len(edges)),
	}
	sort.SliceStable(t.rounds, func(i, j int) bool { return t.rounds[i].Round < t.rounds[j].Round })
	for _, e := range edges {
		t.edges[e.From] = e
	}
	return t
}

func (t *Topology) Rounds() []RoundSpec {
	return append([]RoundSpec(nil), t.rounds...)
}

func (t *Topology) Edge(pos Position) (Edge, bool) {
	e, ok := t.edges[pos]
	return e, ok
}

// SegmentOf maps a round identifier to its bracket segment.
func (t *Topology) SegmentOf(round int) (models.BracketSegment, bool) {
	for _, r := range t.rounds {
		if r.Round == round {
			return r.Segment, true
		}
	}
	return "", false
}

func (t *Topology) MatchCount() int {
	n := 0
	for _, r := range t.rounds {
		n += r.Matches
	}
	return n
}

// Positions lists every match position ordered by round then match number.
func (t *Topology) Positions() []Position {
	out := make([]Position, 0, t.MatchCount())
	for _, r := range t.rounds {
		for m := 1; m <= r.Matches; m++ {
			out = append(out, Position{Round: r.Round, Match: m})
		}
	}
	return out
}

func (t *Topology) has(pos Position) bool {
	for _, r := range t.rounds {
		if r.Round == pos.Round {
			return pos.Match >= 1 && pos.Match <= r.Matches
		}
	}
	return false
}

// SeedPairing returns the seeds placed in slot 1 and slot 2 of first-round
// match i: seed i against seed 17-i.
func SeedPairing(match int) (int, int) {
	return match, EntrantCount + 1 - match
}

// Inputs derives the provenance of both slots of a match.
func (t *Topology) Inputs(pos Position) [2]SlotSource {
	var in [2]SlotSource
	if pos.Round == firstWBRound {
		s1, s2 := SeedPairing(pos.Match)
		in[0] = SlotSource{Seed: s1}
		in[1] = SlotSource{Seed: s2}
		return in
	}
	for _, p := range t.Positions() {
		e := t.edges[p]
		if e.OnWin.Kind == RouteAdvance && e.OnWin.To.Position() == pos {
			in[e.OnWin.To.Slot-1] = SlotSource{From: p}
		}
		if e.OnLoss.Kind == RouteAdvance && e.OnLoss.To.Position() == pos {
			in[e.OnLoss.To.Slot-1] = SlotSource{From: p, FromLoser: true}
		}
	}
	return in
}

var expectedDistribution = map[models.BracketSegment][]int{
	models.SegmentWinnerBracket: {8, 4, 2},
	models.SegmentLoserBranchA:  {4, 2, 1},
	models.SegmentLoserBranchB:  {2, 1},
	models.SegmentFinals:        {2, 1},
}

// Validate checks the table for internal consistency. It only fails when the
// table definition itself is corrupt.
func (t *Topology) Validate() error {
	if n := t.MatchCount(); n != TotalMatches {
		return fmt.Errorf("%w: declared %d matches, want %d", ErrTopologyMismatch, n, TotalMatches)
	}

	got := make(map[models.BracketSegment][]int)
	for _, r := range t.rounds {
		got[r.Segment] = append(got[r.Segment], r.Matches)
	}
	for seg, want := range expectedDistribution {
		if fmt.Sprint(got[seg]) != fmt.Sprint(want) {
			return fmt.Errorf("%w: segment %s has rounds %v, want %v", ErrTopologyMismatch, seg, got[seg], want)
		}
	}

	fed := make(map[Destination]int)
	champions := 0
	for _, p := range t.Positions() {
		e, ok := t.edges[p]
		if !ok {
			return fmt.Errorf("%w: no edge for %s", ErrTopologyMismatch, p)
		}
		for _, r := range []Route{e.OnWin, e.OnLoss} {
			switch r.Kind {
			case RouteAdvance:
				if !t.has(r.To.Position()) || r.To.Slot < 1 || r.To.Slot > 2 {
					return fmt.Errorf("%w: %s routes to missing %s slot %d", ErrTopologyMismatch, p, r.To.Position(), r.To.Slot)
				}
				if r.To.Round == firstWBRound {
					return fmt.Errorf("%w: %s routes into seeded round", ErrTopologyMismatch, p)
				}
				fed[r.To]++
			case RouteChampion:
				champions++
			}
		}
		if e.OnLoss.Kind == RouteChampion {
			return fmt.Errorf("%w: loser of %s cannot be champion", ErrTopologyMismatch, p)
		}
	}
	if champions != 1 {
		return fmt.Errorf("%w: %d champion routes, want 1", ErrTopologyMismatch, champions)
	}

	for _, p := range t.Positions() {
		if p.Round == firstWBRound {
			continue
		}
		for slot := 1; slot <= 2; slot++ {
			d := Destination{Round: p.Round, Match: p.Match, Slot: slot}
			if fed[d] != 1 {
				return fmt.Errorf("%w: %s slot %d fed %d times", ErrTopologyMismatch, p, slot, fed[d])
			}
		}
	}
	return nil
}

// half maps match i of a round to the match and slot it feeds in a round
// with half as many matches: odd numbers take slot 1, even numbers slot 2.
func half(i int) (int, int) {
	return (i + 1) / 2, 2 - i%2
}

var sabo16 = buildSABO16()

// SABO16 returns the fixed 16-player double-elimination topology.
func SABO16() *Topology {
	return sabo16
}

func buildSABO16() *Topology {
	rounds := []RoundSpec{
		{Round: 1, Segment: models.SegmentWinnerBracket, Matches: 8},
		{Round: 2, Segment: models.SegmentWinnerBracket, Matches: 4},
		{Round: 3, Segment: models.SegmentWinnerBracket, Matches: 2},
		{Round: 101, Segment: models.SegmentLoserBranchA, Matches: 4},
		{Round: 102, Segment: models.SegmentLoserBranchA, Matches: 2},
		{Round: 103, Segment: models.SegmentLoserBranchA, Matches: 1},
		{Round: 201, Segment: models.SegmentLoserBranchB, Matches: 2},
		{Round: 202, Segment: models.SegmentLoserBranchB, Matches: 1},
		{Round: 250, Segment: models.SegmentFinals, Matches: 2},
		{Round: 300, Segment: models.SegmentFinals, Matches: 1},
	}

	var edges []Edge
	add := func(round, match int, onWin, onLoss Route) {
		edges = append(edges, Edge{From: Position{Round: round, Match: match}, OnWin: onWin, OnLoss: onLoss})
	}

	// Winner bracket. R1 losers feed branch A, R2 losers feed branch B.
	for i := 1; i <= 8; i++ {
		m, s := half(i)
		add(1, i, advanceTo(2, m, s), advanceTo(101, m, s))
	}
	for i := 1; i <= 4; i++ {
		m, s := half(i)
		add(2, i, advanceTo(3, m, s), advanceTo(201, m, s))
	}
	// WB finalists go straight across into the semifinals.
	for i := 1; i <= 2; i++ {
		add(3, i, advanceTo(SemifinalRound, i, 1), eliminate)
	}

	// Loser branch A.
	for i := 1; i <= 4; i++ {
		m, s := half(i)
		add(101, i, advanceTo(102, m, s), eliminate)
	}
	for i := 1; i <= 2; i++ {
		add(102, i, advanceTo(103, 1, i), eliminate)
	}
	add(103, 1, advanceTo(SemifinalRound, 1, 2), eliminate)

	// Loser branch B.
	for i := 1; i <= 2; i++ {
		add(201, i, advanceTo(202, 1, i), eliminate)
	}
	add(202, 1, advanceTo(SemifinalRound, 2, 2), eliminate)

	for i := 1; i <= 2; i++ {
		add(SemifinalRound, i, advanceTo(FinalRound, 1, i), eliminate)
	}
	add(FinalRound, 1, champion, eliminate)

	t := NewTopology(rounds, edges)
	if err := t.Validate(); err != nil {
		panic(err)
	}
	return t
}
