package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Dosada05/sabo-bracket/models"
	"github.com/lib/pq"
)

type postgresGateway struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewPostgresGateway(db *sql.DB, logger *slog.Logger) Gateway {
	return &postgresGateway{db: db, logger: logger}
}

const matchColumns = `
	id, tournament_id, round, match_number, segment, slot1, slot2, winner, status,
	score_slot1, score_slot2, score_status, submitted_by, confirmed_by, auto_resolved, version, updated_at`

func (g *postgresGateway) LoadTournament(ctx context.Context, id string) (*models.Tournament, error) {
	query := `
		SELECT id, name, status, champion_id, created_at, completed_at
		FROM tournaments
		WHERE id = $1`

	t := &models.Tournament{}
	err := g.db.QueryRowContext(ctx, query, id).Scan(
		&t.ID,
		&t.Name,
		&t.Status,
		&t.ChampionID,
		&t.CreatedAt,
		&t.CompletedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to scan tournament %s: %w", id, err)
	}

	if t.Entrants, err = g.listEntrants(ctx, g.db, id); err != nil {
		return nil, err
	}
	if t.Matches, err = g.listMatches(ctx, g.db, id); err != nil {
		return nil, err
	}
	return t, nil
}

func (g *postgresGateway) LoadEntrants(ctx context.Context, tournamentID string) ([]*models.Entrant, error) {
	var exists bool
	err := g.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM tournaments WHERE id = $1)`, tournamentID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to check tournament %s: %w", tournamentID, err)
	}
	if !exists {
		return nil, ErrTournamentNotFound
	}
	return g.listEntrants(ctx, g.db, tournamentID)
}

func (g *postgresGateway) listEntrants(ctx context.Context, exec SQLExecutor, tournamentID string) ([]*models.Entrant, error) {
	query := `
		SELECT id, tournament_id, display_name, rating, seed, is_bye, losses, eliminated
		FROM entrants
		WHERE tournament_id = $1
		ORDER BY seed = 0, seed ASC, registered_at ASC, id ASC`

	rows, err := exec.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query entrants for tournament %s: %w", tournamentID, err)
	}
	defer rows.Close()

	entrants := make([]*models.Entrant, 0, 16)
	for rows.Next() {
		var e models.Entrant
		if scanErr := rows.Scan(
			&e.ID,
			&e.TournamentID,
			&e.DisplayName,
			&e.Rating,
			&e.Seed,
			&e.IsBye,
			&e.Losses,
			&e.Eliminated,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan entrant row: %w", scanErr)
		}
		entrants = append(entrants, &e)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during entrant rows iteration: %w", err)
	}
	return entrants, nil
}

func (g *postgresGateway) listMatches(ctx context.Context, exec SQLExecutor, tournamentID string) ([]*models.Match, error) {
	query := `SELECT` + matchColumns + `
		FROM matches
		WHERE tournament_id = $1
		ORDER BY round ASC, match_number ASC`

	rows, err := exec.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches for tournament %s: %w", tournamentID, err)
	}
	defer rows.Close()

	matches := make([]*models.Match, 0, 27)
	for rows.Next() {
		var m models.Match
		if scanErr := rows.Scan(
			&m.ID,
			&m.TournamentID,
			&m.Round,
			&m.MatchNumber,
			&m.Segment,
			&m.Slot1,
			&m.Slot2,
			&m.Winner,
			&m.Status,
			&m.ScoreSlot1,
			&m.ScoreSlot2,
			&m.ScoreStatus,
			&m.SubmittedBy,
			&m.ConfirmedBy,
			&m.AutoResolved,
			&m.Version,
			&m.UpdatedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan match row: %w", scanErr)
		}
		matches = append(matches, &m)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during match rows iteration: %w", err)
	}
	return matches, nil
}

func (g *postgresGateway) TournamentIDForMatch(ctx context.Context, matchID string) (string, error) {
	var id string
	err := g.db.QueryRowContext(ctx, `SELECT tournament_id FROM matches WHERE id = $1`, matchID).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrMatchNotFound
		}
		return "", fmt.Errorf("failed to look up tournament for match %s: %w", matchID, err)
	}
	return id, nil
}

func (g *postgresGateway) CreateBracket(ctx context.Context, t *models.Tournament) (txErr error) {
	tx, err := g.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		txErr = g.finishTx(tx, txErr, "create bracket", t.ID)
	}()

	var status models.TournamentStatus
	err = tx.QueryRowContext(ctx, `SELECT status FROM tournaments WHERE id = $1 FOR UPDATE`, t.ID).Scan(&status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrTournamentNotFound
		}
		return fmt.Errorf("failed to lock tournament %s: %w", t.ID, err)
	}
	if status != models.StatusRegistration {
		return fmt.Errorf("%w: %s is %s", ErrBracketExists, t.ID, status)
	}

	upsertEntrant := `
		INSERT INTO entrants (tournament_id, id, display_name, rating, seed, is_bye, losses, eliminated)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (tournament_id, id) DO UPDATE
		SET rating = EXCLUDED.rating, seed = EXCLUDED.seed, is_bye = EXCLUDED.is_bye,
		    losses = EXCLUDED.losses, eliminated = EXCLUDED.eliminated`
	for _, e := range t.Entrants {
		if _, err = tx.ExecContext(ctx, upsertEntrant,
			t.ID, e.ID, e.DisplayName, e.Rating, e.Seed, e.IsBye, e.Losses, e.Eliminated,
		); err != nil {
			return g.handleError(err)
		}
	}

	insertMatch := `INSERT INTO matches (` + matchColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`
	for _, m := range t.Matches {
		if _, err = tx.ExecContext(ctx, insertMatch,
			m.ID, t.ID, m.Round, m.MatchNumber, m.Segment, m.Slot1, m.Slot2, m.Winner, m.Status,
			m.ScoreSlot1, m.ScoreSlot2, m.ScoreStatus, m.SubmittedBy, m.ConfirmedBy, m.AutoResolved,
			m.Version, m.UpdatedAt,
		); err != nil {
			return g.handleError(err)
		}
	}

	if err = g.updateTournament(ctx, tx, t); err != nil {
		return err
	}
	return nil
}

func (g *postgresGateway) SaveChanges(ctx context.Context, cs ChangeSet) (txErr error) {
	if cs.Empty() {
		return nil
	}
	tx, err := g.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		txErr = g.finishTx(tx, txErr, "save changes", cs.tournamentID())
		if txErr == nil {
			bumpVersions(cs.Matches)
		}
	}()

	query := `
		UPDATE matches
		SET slot1 = $1, slot2 = $2, winner = $3, status = $4, score_slot1 = $5, score_slot2 = $6,
		    score_status = $7, submitted_by = $8, confirmed_by = $9, auto_resolved = $10,
		    updated_at = $11, version = version + 1
		WHERE id = $12 AND version = $13`
	for _, m := range cs.Matches {
		result, execErr := tx.ExecContext(ctx, query,
			m.Slot1, m.Slot2, m.Winner, m.Status, m.ScoreSlot1, m.ScoreSlot2,
			m.ScoreStatus, m.SubmittedBy, m.ConfirmedBy, m.AutoResolved,
			m.UpdatedAt, m.ID, m.Version,
		)
		if execErr != nil {
			return g.handleError(execErr)
		}
		if err = checkAffectedRows(result, ErrConflict); err != nil {
			return fmt.Errorf("match %s version %d: %w", m.ID, m.Version, err)
		}
	}

	if len(cs.Entrants) > 0 {
		if err = g.updateEntrants(ctx, tx, cs.Entrants); err != nil {
			return err
		}
	}
	if cs.Tournament != nil {
		if err = g.updateTournament(ctx, tx, cs.Tournament); err != nil {
			return err
		}
	}
	return nil
}

// updateEntrants writes loss records for a batch of entrants in one statement.
func (g *postgresGateway) updateEntrants(ctx context.Context, exec SQLExecutor, entrants []*models.Entrant) error {
	ids := make([]string, len(entrants))
	losses := make([]int64, len(entrants))
	eliminated := make([]bool, len(entrants))
	for i, e := range entrants {
		ids[i] = e.ID
		losses[i] = int64(e.Losses)
		eliminated[i] = e.Eliminated
	}

	query := `
		UPDATE entrants AS e
		SET losses = u.losses, eliminated = u.eliminated
		FROM unnest($2::text[], $3::int[], $4::bool[]) AS u(id, losses, eliminated)
		WHERE e.tournament_id = $1 AND e.id = u.id`
	result, err := exec.ExecContext(ctx, query,
		entrants[0].TournamentID, pq.Array(ids), pq.Array(losses), pq.Array(eliminated),
	)
	if err != nil {
		return fmt.Errorf("failed to update entrants: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if int(n) != len(entrants) {
		return fmt.Errorf("%w: updated %d of %d entrants", ErrConflict, n, len(entrants))
	}
	return nil
}

func (g *postgresGateway) updateTournament(ctx context.Context, exec SQLExecutor, t *models.Tournament) error {
	query := `UPDATE tournaments SET status = $1, champion_id = $2, completed_at = $3 WHERE id = $4`
	result, err := exec.ExecContext(ctx, query, t.Status, t.ChampionID, t.CompletedAt, t.ID)
	if err != nil {
		return fmt.Errorf("failed to update tournament %s: %w", t.ID, err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (g *postgresGateway) ListActiveTournamentIDs(ctx context.Context) ([]string, error) {
	rows, err := g.db.QueryContext(ctx, `SELECT id FROM tournaments WHERE status = $1 ORDER BY id`, models.StatusActive)
	if err != nil {
		return nil, fmt.Errorf("failed to list active tournaments: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan tournament id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (g *postgresGateway) finishTx(tx *sql.Tx, txErr error, op, tournamentID string) error {
	if txErr != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			g.logger.Error("rollback failed", slog.String("op", op), slog.String("tournament_id", tournamentID), slog.Any("error", rbErr))
			return fmt.Errorf("%s: %w (rollback also failed: %v)", op, txErr, rbErr)
		}
		return txErr
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit %s for tournament %s: %w", op, tournamentID, err)
	}
	return nil
}

func (g *postgresGateway) handleError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		// "23505": unique_violation, "23503": foreign_key_violation
		switch pqErr.Constraint {
		case "matches_pkey", "matches_tournament_round_match_key":
			return fmt.Errorf("%w: %s", ErrBracketExists, pqErr.Detail)
		case "matches_tournament_id_fkey", "entrants_tournament_id_fkey":
			return ErrTournamentNotFound
		}
		if pqErr.Code == "40001" {
			return fmt.Errorf("%w: %s", ErrConflict, pqErr.Message)
		}
	}
	return err
}
