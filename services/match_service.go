package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Dosada05/sabo-bracket/brackets"
	"github.com/Dosada05/sabo-bracket/models"
	"github.com/Dosada05/sabo-bracket/repositories"
)

// Advancer applies a confirmed result to the rest of the bracket.
type Advancer interface {
	Advance(t *models.Tournament, matchID, winnerID string) (*brackets.AdvanceResult, error)
}

type ConfirmResult struct {
	Match      *models.Match   `json:"match"`
	Duplicate  bool            `json:"duplicate"`
	Advanced   []*models.Match `json:"advanced"`
	Eliminated []string        `json:"eliminated"`
	ChampionID string          `json:"champion_id,omitempty"`
	Completed  bool            `json:"completed"`
}

type MatchService interface {
	SubmitScore(ctx context.Context, matchID string, scoreSlot1, scoreSlot2 int, actor models.Actor) (*models.Match, error)
	ConfirmScore(ctx context.Context, matchID string, actor models.Actor) (*ConfirmResult, error)
	DisputeScore(ctx context.Context, matchID string, actor models.Actor) (*models.Match, error)
	// ReapplyConfirmed re-runs advancement for every confirmed match of a
	// tournament and returns how many of them still had something to apply.
	ReapplyConfirmed(ctx context.Context, tournamentID string) (int, error)
}

type MatchServiceConfig struct {
	MaxRetries   int
	RetryBackoff time.Duration
}

type matchService struct {
	gateway  repositories.Gateway
	advancer Advancer
	topology *brackets.Topology
	workflow *brackets.Workflow
	locker   *TournamentLocker
	archiver *SnapshotArchiver
	cfg      MatchServiceConfig
	logger   *slog.Logger
}

func NewMatchService(
	gateway repositories.Gateway,
	advancer Advancer,
	locker *TournamentLocker,
	archiver *SnapshotArchiver,
	cfg MatchServiceConfig,
	logger *slog.Logger,
) MatchService {
	if advancer == nil {
		advancer = brackets.NewEngine(nil)
	}
	if cfg.MaxRetries < 1 {
		cfg.MaxRetries = 1
	}
	return &matchService{
		gateway:  gateway,
		advancer: advancer,
		topology: brackets.SABO16(),
		workflow: brackets.NewWorkflow(),
		locker:   locker,
		archiver: archiver,
		cfg:      cfg,
		logger:   logger,
	}
}

func (s *matchService) SubmitScore(ctx context.Context, matchID string, scoreSlot1, scoreSlot2 int, actor models.Actor) (*models.Match, error) {
	var out *models.Match
	_, err := s.mutateMatch(ctx, matchID, func(t *models.Tournament) (repositories.ChangeSet, error) {
		m := t.MatchByID(matchID)
		if err := s.workflow.Submit(m, scoreSlot1, scoreSlot2, actor); err != nil {
			return repositories.ChangeSet{}, err
		}
		out = m
		return repositories.ChangeSet{Matches: []*models.Match{m}}, nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("score submitted",
		slog.String("match_id", matchID),
		slog.String("actor", actor.ID),
		slog.Int("score_slot1", scoreSlot1),
		slog.Int("score_slot2", scoreSlot2),
	)
	return out, nil
}

func (s *matchService) DisputeScore(ctx context.Context, matchID string, actor models.Actor) (*models.Match, error) {
	var out *models.Match
	_, err := s.mutateMatch(ctx, matchID, func(t *models.Tournament) (repositories.ChangeSet, error) {
		m := t.MatchByID(matchID)
		if err := s.workflow.Dispute(m, actor); err != nil {
			return repositories.ChangeSet{}, err
		}
		out = m
		return repositories.ChangeSet{Matches: []*models.Match{m}}, nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("score disputed", slog.String("match_id", matchID), slog.String("actor", actor.ID))
	return out, nil
}

// ConfirmScore confirms a submitted score and advances the match exactly
// once. Confirming an already confirmed match re-applies its advancement,
// which repairs a half-applied earlier attempt and is otherwise a no-op.
func (s *matchService) ConfirmScore(ctx context.Context, matchID string, actor models.Actor) (*ConfirmResult, error) {
	var result *ConfirmResult
	t, err := s.mutateMatch(ctx, matchID, func(t *models.Tournament) (repositories.ChangeSet, error) {
		result = &ConfirmResult{}
		m := t.MatchByID(matchID)
		if m.IsResolved() {
			result.Duplicate = true
		} else if err := s.workflow.Confirm(m, actor); err != nil {
			return repositories.ChangeSet{}, err
		}

		adv, err := s.advancer.Advance(t, matchID, *m.Winner)
		if err != nil {
			return repositories.ChangeSet{}, err
		}

		cs := changeSet(t, adv)
		result.Match = t.MatchByID(matchID)
		result.Advanced = cs.Matches
		result.Eliminated = adv.Eliminated
		result.ChampionID = adv.ChampionID
		result.Completed = adv.Completed
		if !result.Duplicate {
			cs.Matches = append([]*models.Match{result.Match}, cs.Matches...)
		}
		return cs, nil
	})
	if err != nil {
		return nil, err
	}

	if result.Duplicate {
		s.logger.Info("duplicate advancement",
			slog.String("match_id", matchID),
			slog.String("actor", actor.ID),
			slog.Int("repaired_matches", len(result.Advanced)),
		)
	} else {
		s.logger.Info("score confirmed",
			slog.String("match_id", matchID),
			slog.String("actor", actor.ID),
			slog.String("winner", derefString(result.Match.Winner)),
			slog.Int("advanced_matches", len(result.Advanced)),
		)
	}
	if result.Completed {
		s.logger.Info("tournament completed",
			slog.String("tournament_id", t.ID),
			slog.String("champion_id", result.ChampionID),
		)
		s.archive(ctx, t)
	}
	return result, nil
}

func (s *matchService) ReapplyConfirmed(ctx context.Context, tournamentID string) (int, error) {
	repaired := 0
	_, err := s.mutateTournament(ctx, tournamentID, func(t *models.Tournament) (repositories.ChangeSet, error) {
		repaired = 0
		if t.Status != models.StatusActive {
			return repositories.ChangeSet{}, nil
		}

		matchIDs := make(map[string]struct{})
		entrantIDs := make(map[string]struct{})
		completed := false
		for _, pos := range s.topology.Positions() {
			m := t.MatchAt(pos.Round, pos.Match)
			if m == nil || !m.IsResolved() {
				continue
			}
			adv, err := s.advancer.Advance(t, m.ID, *m.Winner)
			if err != nil {
				return repositories.ChangeSet{}, fmt.Errorf("reapplying %s: %w", pos, err)
			}
			if adv.Duplicate {
				continue
			}
			repaired++
			for _, am := range adv.Matches {
				matchIDs[am.ID] = struct{}{}
			}
			for _, ae := range adv.Entrants {
				entrantIDs[ae.ID] = struct{}{}
			}
			completed = completed || adv.Completed
		}

		var cs repositories.ChangeSet
		for _, m := range t.Matches {
			if _, ok := matchIDs[m.ID]; ok {
				cs.Matches = append(cs.Matches, m)
			}
		}
		for _, e := range t.Entrants {
			if _, ok := entrantIDs[e.ID]; ok {
				cs.Entrants = append(cs.Entrants, e)
			}
		}
		if completed {
			cs.Tournament = t
		}
		return cs, nil
	})
	if err != nil {
		return 0, err
	}
	return repaired, nil
}

// changeSet collects the state Advance touched. Advance swaps the
// tournament's contents, so everything is re-read from t by id.
func changeSet(t *models.Tournament, adv *brackets.AdvanceResult) repositories.ChangeSet {
	var cs repositories.ChangeSet
	for _, m := range adv.Matches {
		cs.Matches = append(cs.Matches, t.MatchByID(m.ID))
	}
	for _, e := range adv.Entrants {
		cs.Entrants = append(cs.Entrants, t.EntrantByID(e.ID))
	}
	if adv.Completed {
		cs.Tournament = t
	}
	return cs
}

func (s *matchService) mutateMatch(ctx context.Context, matchID string, fn func(t *models.Tournament) (repositories.ChangeSet, error)) (*models.Tournament, error) {
	tournamentID, err := s.gateway.TournamentIDForMatch(ctx, matchID)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	return s.mutateTournament(ctx, tournamentID, func(t *models.Tournament) (repositories.ChangeSet, error) {
		if t.MatchByID(matchID) == nil {
			return repositories.ChangeSet{}, fmt.Errorf("%w: %s", ErrMatchNotFound, matchID)
		}
		return fn(t)
	})
}

// mutateTournament serialises work on one tournament and retries fn on
// fresh state whenever the optimistic save loses a race.
func (s *matchService) mutateTournament(ctx context.Context, tournamentID string, fn func(t *models.Tournament) (repositories.ChangeSet, error)) (*models.Tournament, error) {
	unlock, err := s.locker.Lock(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	for attempt := 1; ; attempt++ {
		t, err := s.gateway.LoadTournament(ctx, tournamentID)
		if err != nil {
			return nil, handleRepositoryError(err)
		}
		if len(t.Matches) == 0 {
			return nil, ErrNoBracket
		}

		cs, err := fn(t)
		if err != nil {
			return nil, err
		}
		if cs.Empty() {
			return t, nil
		}
		if err := brackets.CheckInvariants(t, s.topology); err != nil {
			s.logger.Error("rejected change set",
				slog.String("tournament_id", tournamentID),
				slog.Any("error", err),
			)
			return nil, err
		}

		err = s.gateway.SaveChanges(ctx, cs)
		if err == nil {
			return t, nil
		}
		if !errors.Is(err, repositories.ErrConflict) {
			return nil, handleRepositoryError(err)
		}

		s.logger.Warn("concurrent modification, retrying",
			slog.String("tournament_id", tournamentID),
			slog.Int("attempt", attempt),
			slog.Any("error", err),
		)
		if attempt >= s.cfg.MaxRetries {
			return nil, fmt.Errorf("%w after %d attempts: %w", ErrRetriesExhausted, attempt, err)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(s.cfg.RetryBackoff * time.Duration(attempt)):
		}
	}
}

func (s *matchService) archive(ctx context.Context, t *models.Tournament) {
	if s.archiver == nil {
		return
	}
	location, err := s.archiver.Archive(ctx, BuildSnapshot(t, time.Now()))
	if err != nil {
		s.logger.Error("failed to archive snapshot",
			slog.String("tournament_id", t.ID),
			slog.Any("error", err),
		)
		return
	}
	s.logger.Info("snapshot archived",
		slog.String("tournament_id", t.ID),
		slog.String("location", location),
	)
}
