package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Dosada05/sabo-bracket/models"
)

type SQLExecutor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

var (
	ErrTournamentNotFound = errors.New("tournament not found")
	ErrMatchNotFound      = errors.New("match not found")
	ErrConflict           = errors.New("match was modified concurrently")
	ErrBracketExists      = errors.New("bracket already exists for tournament")
	ErrRatingNotFound     = errors.New("rating not found")
)

// ChangeSet is everything one confirmation or advancement touched. It is
// committed atomically or not at all.
type ChangeSet struct {
	Tournament *models.Tournament
	Matches    []*models.Match
	Entrants   []*models.Entrant
}

func (cs ChangeSet) tournamentID() string {
	switch {
	case cs.Tournament != nil:
		return cs.Tournament.ID
	case len(cs.Matches) > 0:
		return cs.Matches[0].TournamentID
	case len(cs.Entrants) > 0:
		return cs.Entrants[0].TournamentID
	}
	return ""
}

func (cs ChangeSet) Empty() bool {
	return cs.Tournament == nil && len(cs.Matches) == 0 && len(cs.Entrants) == 0
}

// Gateway is the persistence boundary of the bracket engine.
type Gateway interface {
	LoadTournament(ctx context.Context, id string) (*models.Tournament, error)
	LoadEntrants(ctx context.Context, tournamentID string) ([]*models.Entrant, error)
	TournamentIDForMatch(ctx context.Context, matchID string) (string, error)
	// CreateBracket stores seeds and all matches and activates the tournament.
	// It fails with ErrBracketExists if the tournament already has a bracket.
	CreateBracket(ctx context.Context, t *models.Tournament) error
	// SaveChanges writes each match only if its stored version still equals
	// Match.Version, otherwise nothing is written and ErrConflict is returned.
	// On success every saved match has its Version incremented.
	SaveChanges(ctx context.Context, cs ChangeSet) error
	ListActiveTournamentIDs(ctx context.Context) ([]string, error)
}
