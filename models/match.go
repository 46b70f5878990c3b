package models

import "time"

type MatchStatus string

const (
	MatchStatusPendingParticipants  MatchStatus = "pending_participants"
	MatchStatusScheduled            MatchStatus = "scheduled"
	MatchStatusAwaitingConfirmation MatchStatus = "awaiting_confirmation"
	MatchStatusCompleted            MatchStatus = "completed"
)

type ScoreStatus string

const (
	ScoreStatusNone      ScoreStatus = "none"
	ScoreStatusSubmitted ScoreStatus = "submitted"
	ScoreStatusConfirmed ScoreStatus = "confirmed"
)

type BracketSegment string

const (
	SegmentWinnerBracket BracketSegment = "winner_bracket"
	SegmentLoserBranchA  BracketSegment = "loser_branch_a"
	SegmentLoserBranchB  BracketSegment = "loser_branch_b"
	SegmentFinals        BracketSegment = "finals"
)

// Match is one game of the bracket. Round values are topology identifiers
// (1-3, 101-103, 201-202, 250, 300), not sequence indices.
type Match struct {
	ID           string         `json:"id" db:"id"`
	TournamentID string         `json:"tournament_id" db:"tournament_id"`
	Round        int            `json:"round_number" db:"round"`
	MatchNumber  int            `json:"match_number" db:"match_number"`
	Segment      BracketSegment `json:"bracket_segment" db:"segment"`
	Slot1        *string        `json:"slot1,omitempty" db:"slot1"`
	Slot2        *string        `json:"slot2,omitempty" db:"slot2"`
	Winner       *string        `json:"winner,omitempty" db:"winner"`
	Status       MatchStatus    `json:"status" db:"status"`
	ScoreSlot1   *int           `json:"score_slot1,omitempty" db:"score_slot1"`
	ScoreSlot2   *int           `json:"score_slot2,omitempty" db:"score_slot2"`
	ScoreStatus  ScoreStatus    `json:"score_status" db:"score_status"`
	SubmittedBy  *string        `json:"submitted_by,omitempty" db:"submitted_by"`
	ConfirmedBy  *string        `json:"confirmed_by,omitempty" db:"confirmed_by"`
	AutoResolved bool           `json:"auto_resolved,omitempty" db:"auto_resolved"`
	Version      int            `json:"version" db:"version"`
	UpdatedAt    time.Time      `json:"updated_at" db:"updated_at"`
}

// Slot returns the entrant in slot 1 or 2, or nil when the slot is empty.
func (m *Match) Slot(n int) *string {
	switch n {
	case 1:
		return m.Slot1
	case 2:
		return m.Slot2
	}
	return nil
}

func (m *Match) SetSlot(n int, entrantID string) {
	id := entrantID
	switch n {
	case 1:
		m.Slot1 = &id
	case 2:
		m.Slot2 = &id
	}
}

func (m *Match) HasBothSlots() bool {
	return m.Slot1 != nil && m.Slot2 != nil
}

// HasEntrant reports whether entrantID occupies either slot.
func (m *Match) HasEntrant(entrantID string) bool {
	return (m.Slot1 != nil && *m.Slot1 == entrantID) || (m.Slot2 != nil && *m.Slot2 == entrantID)
}

// Opponent returns the other participant of the match.
func (m *Match) Opponent(entrantID string) (string, bool) {
	switch {
	case m.Slot1 != nil && *m.Slot1 == entrantID && m.Slot2 != nil:
		return *m.Slot2, true
	case m.Slot2 != nil && *m.Slot2 == entrantID && m.Slot1 != nil:
		return *m.Slot1, true
	}
	return "", false
}

// IsResolved reports whether the match has a confirmed winner.
func (m *Match) IsResolved() bool {
	return m.Status == MatchStatusCompleted && m.ScoreStatus == ScoreStatusConfirmed && m.Winner != nil
}

func (m *Match) Clone() *Match {
	if m == nil {
		return nil
	}
	c := *m
	c.Slot1 = cloneString(m.Slot1)
	c.Slot2 = cloneString(m.Slot2)
	c.Winner = cloneString(m.Winner)
	c.ScoreSlot1 = cloneInt(m.ScoreSlot1)
	c.ScoreSlot2 = cloneInt(m.ScoreSlot2)
	c.SubmittedBy = cloneString(m.SubmittedBy)
	c.ConfirmedBy = cloneString(m.ConfirmedBy)
	return &c
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneInt(i *int) *int {
	if i == nil {
		return nil
	}
	v := *i
	return &v
}
