package brackets

import (
	"fmt"
	"time"

	"github.com/Dosada05/sabo-bracket/models"
)

// Workflow drives the score lifecycle of a single match:
// scheduled -> awaiting_confirmation -> completed, with dispute sending a
// submission back to scheduled. It never touches other matches.
type Workflow struct {
	now func() time.Time
}

func NewWorkflow() *Workflow {
	return &Workflow{now: time.Now}
}

func (w *Workflow) Submit(m *models.Match, scoreSlot1, scoreSlot2 int, actor models.Actor) error {
	if m.Status != models.MatchStatusScheduled {
		if m.Status == models.MatchStatusPendingParticipants {
			return fmt.Errorf("%w: match %s", ErrMatchNotReady, m.ID)
		}
		return fmt.Errorf("%w: cannot submit a score for a %s match", ErrInvalidTransition, m.Status)
	}
	if !m.HasBothSlots() {
		return fmt.Errorf("%w: match %s", ErrMatchNotReady, m.ID)
	}
	if scoreSlot1 < 0 || scoreSlot2 < 0 {
		return fmt.Errorf("%w: scores must not be negative", ErrInvalidScore)
	}
	if scoreSlot1 == scoreSlot2 {
		return fmt.Errorf("%w: draws are not allowed", ErrInvalidScore)
	}
	if !actor.IsOperator() && !m.HasEntrant(actor.ID) {
		return fmt.Errorf("%w: %s does not play in match %s", ErrNotAuthorized, actor.ID, m.ID)
	}

	s1, s2 := scoreSlot1, scoreSlot2
	by := actor.ID
	m.ScoreSlot1 = &s1
	m.ScoreSlot2 = &s2
	m.SubmittedBy = &by
	m.Status = models.MatchStatusAwaitingConfirmation
	m.ScoreStatus = models.ScoreStatusSubmitted
	m.UpdatedAt = w.now()
	return nil
}

// Confirm accepts a submitted score and fixes the winner. The caller must
// advance the match exactly once afterwards.
func (w *Workflow) Confirm(m *models.Match, actor models.Actor) error {
	if m.Status != models.MatchStatusAwaitingConfirmation || m.ScoreStatus != models.ScoreStatusSubmitted {
		return fmt.Errorf("%w: cannot confirm a %s match", ErrInvalidTransition, m.Status)
	}
	if !actor.IsOperator() {
		if !m.HasEntrant(actor.ID) {
			return fmt.Errorf("%w: %s does not play in match %s", ErrNotAuthorized, actor.ID, m.ID)
		}
		if m.SubmittedBy != nil && *m.SubmittedBy == actor.ID {
			return fmt.Errorf("%w: the submitter cannot confirm their own score", ErrNotAuthorized)
		}
	}
	if m.ScoreSlot1 == nil || m.ScoreSlot2 == nil || *m.ScoreSlot1 == *m.ScoreSlot2 {
		return fmt.Errorf("%w: match %s has no decisive score", ErrInvalidScore, m.ID)
	}

	winner := *m.Slot1
	if *m.ScoreSlot2 > *m.ScoreSlot1 {
		winner = *m.Slot2
	}
	by := actor.ID
	m.Winner = &winner
	m.ConfirmedBy = &by
	m.Status = models.MatchStatusCompleted
	m.ScoreStatus = models.ScoreStatusConfirmed
	m.UpdatedAt = w.now()
	return nil
}

func (w *Workflow) Dispute(m *models.Match, actor models.Actor) error {
	if m.Status != models.MatchStatusAwaitingConfirmation {
		return fmt.Errorf("%w: cannot dispute a %s match", ErrInvalidTransition, m.Status)
	}
	if !actor.IsOperator() && !m.HasEntrant(actor.ID) {
		return fmt.Errorf("%w: %s does not play in match %s", ErrNotAuthorized, actor.ID, m.ID)
	}

	m.ScoreSlot1 = nil
	m.ScoreSlot2 = nil
	m.SubmittedBy = nil
	m.Status = models.MatchStatusScheduled
	m.ScoreStatus = models.ScoreStatusNone
	m.UpdatedAt = w.now()
	return nil
}
