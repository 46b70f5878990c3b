package models

import "time"

// TournamentStatus представляет статусы турнира, соответствующие ENUM в БД.
type TournamentStatus string

const (
	StatusRegistration TournamentStatus = "registration"
	StatusActive       TournamentStatus = "active"
	StatusCompleted    TournamentStatus = "completed"
)

// Tournament owns its entrants and matches; neither outlives it.
type Tournament struct {
	ID          string           `json:"id" db:"id"`
	Name        string           `json:"name" db:"name"`
	Status      TournamentStatus `json:"status" db:"status"`
	ChampionID  *string          `json:"champion_id,omitempty" db:"champion_id"`
	CreatedAt   time.Time        `json:"created_at" db:"created_at"`
	CompletedAt *time.Time       `json:"completed_at,omitempty" db:"completed_at"`

	Entrants []*Entrant `json:"entrants,omitempty" db:"-"`
	Matches  []*Match   `json:"matches,omitempty" db:"-"`
}

func (t *Tournament) MatchByID(id string) *Match {
	for _, m := range t.Matches {
		if m.ID == id {
			return m
		}
	}
	return nil
}

func (t *Tournament) MatchAt(round, matchNumber int) *Match {
	for _, m := range t.Matches {
		if m.Round == round && m.MatchNumber == matchNumber {
			return m
		}
	}
	return nil
}

func (t *Tournament) EntrantByID(id string) *Entrant {
	for _, e := range t.Entrants {
		if e.ID == id {
			return e
		}
	}
	return nil
}

// Clone returns a deep copy so transitions can be applied and discarded.
func (t *Tournament) Clone() *Tournament {
	if t == nil {
		return nil
	}
	c := *t
	c.ChampionID = cloneString(t.ChampionID)
	if t.CompletedAt != nil {
		at := *t.CompletedAt
		c.CompletedAt = &at
	}
	c.Entrants = make([]*Entrant, len(t.Entrants))
	for i, e := range t.Entrants {
		c.Entrants[i] = e.Clone()
	}
	c.Matches = make([]*Match, len(t.Matches))
	for i, m := range t.Matches {
		c.Matches[i] = m.Clone()
	}
	return &c
}
