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
	"golang.org/x/sync/errgroup"
)

const ratingLookupConcurrency = 4

// RatingLookup supplies the rating used to seed a player.
type RatingLookup interface {
	RatingFor(ctx context.Context, playerID string) (int, error)
}

type BracketService interface {
	// CreateBracket seeds and builds the bracket of a tournament. Calling it
	// again for a tournament that already has a bracket returns the existing
	// one with created=false.
	CreateBracket(ctx context.Context, tournamentID string, actor models.Actor) (snap *models.Snapshot, created bool, err error)
	GetSnapshot(ctx context.Context, tournamentID string) (*models.Snapshot, error)
	PlayableMatches(ctx context.Context, tournamentID string) ([]*models.Match, error)
}

type BracketServiceConfig struct {
	AllowByes bool
}

type bracketService struct {
	gateway   repositories.Gateway
	ratings   RatingLookup
	generator brackets.BracketGenerator
	engine    *brackets.Engine
	locker    *TournamentLocker
	cfg       BracketServiceConfig
	logger    *slog.Logger
	now       func() time.Time
}

func NewBracketService(
	gateway repositories.Gateway,
	ratings RatingLookup,
	locker *TournamentLocker,
	cfg BracketServiceConfig,
	logger *slog.Logger,
) BracketService {
	return &bracketService{
		gateway:   gateway,
		ratings:   ratings,
		generator: brackets.NewBuilder(nil),
		engine:    brackets.NewEngine(nil),
		locker:    locker,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *bracketService) CreateBracket(ctx context.Context, tournamentID string, actor models.Actor) (*models.Snapshot, bool, error) {
	if !actor.IsOperator() {
		return nil, false, fmt.Errorf("%w: only organizers can build brackets", brackets.ErrNotAuthorized)
	}

	unlock, err := s.locker.Lock(ctx, tournamentID)
	if err != nil {
		return nil, false, err
	}
	defer unlock()

	tournament, err := s.gateway.LoadTournament(ctx, tournamentID)
	if err != nil {
		return nil, false, handleRepositoryError(err)
	}
	if len(tournament.Matches) > 0 {
		s.logger.Info("bracket already exists", slog.String("tournament_id", tournamentID))
		return BuildSnapshot(tournament, s.now()), false, nil
	}
	if !isValidStatusTransition(tournament.Status, models.StatusActive) {
		return nil, false, fmt.Errorf("%w: tournament is %s", ErrBracketExists, tournament.Status)
	}

	entrants, err := s.gateway.LoadEntrants(ctx, tournamentID)
	if err != nil {
		return nil, false, handleRepositoryError(err)
	}
	entrants = withoutByes(entrants)
	if err := s.checkEntrantCount(len(entrants)); err != nil {
		return nil, false, err
	}
	if err := s.loadRatings(ctx, entrants); err != nil {
		return nil, false, err
	}

	var seeded []*models.Entrant
	if s.cfg.AllowByes {
		seeded, err = brackets.SeedWithByes(entrants)
	} else {
		seeded, err = brackets.Seed(entrants)
	}
	if err != nil {
		return nil, false, err
	}
	for _, e := range seeded {
		e.TournamentID = tournamentID
	}

	matches, err := s.generator.GenerateBracket(ctx, brackets.GenerateBracketParams{Tournament: tournament, Entrants: seeded})
	if err != nil {
		return nil, false, fmt.Errorf("failed to generate bracket for tournament %s: %w", tournamentID, err)
	}
	now := s.now()
	for _, m := range matches {
		m.UpdatedAt = now
	}

	tournament.Entrants = seeded
	tournament.Matches = matches
	tournament.Status = models.StatusActive

	if res, err := s.engine.ResolveByes(tournament); err != nil {
		return nil, false, fmt.Errorf("failed to resolve byes: %w", err)
	} else if !res.Duplicate {
		s.logger.Info("byes resolved",
			slog.String("tournament_id", tournamentID),
			slog.Int("matches", len(res.Matches)),
		)
	}
	if err := brackets.CheckInvariants(tournament, s.engine.Topology()); err != nil {
		return nil, false, err
	}

	if err := s.gateway.CreateBracket(ctx, tournament); err != nil {
		return nil, false, handleRepositoryError(err)
	}

	s.logger.Info("bracket created",
		slog.String("tournament_id", tournamentID),
		slog.String("generator", s.generator.GetName()),
		slog.Int("entrants", len(entrants)),
		slog.Int("matches", len(matches)),
	)
	return BuildSnapshot(tournament, now), true, nil
}

func (s *bracketService) checkEntrantCount(n int) error {
	if s.cfg.AllowByes {
		if n < 2 || n > brackets.EntrantCount {
			return fmt.Errorf("%w: %d registered, need between 2 and %d", brackets.ErrInvalidEntrantCount, n, brackets.EntrantCount)
		}
		return nil
	}
	if n != brackets.EntrantCount {
		return fmt.Errorf("%w: %d registered, need exactly %d", brackets.ErrInvalidEntrantCount, n, brackets.EntrantCount)
	}
	return nil
}

// loadRatings fetches all ratings concurrently; one missing rating aborts
// the whole seeding.
func (s *bracketService) loadRatings(ctx context.Context, entrants []*models.Entrant) error {
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(ratingLookupConcurrency)

	for _, e := range entrants {
		g.Go(func() error {
			rating, err := s.ratings.RatingFor(gCtx, e.ID)
			if err != nil {
				if errors.Is(err, repositories.ErrRatingNotFound) {
					return fmt.Errorf("%w: player %s", ErrRatingUnavailable, e.ID)
				}
				return fmt.Errorf("failed to look up rating for player %s: %w", e.ID, err)
			}
			e.Rating = rating
			return nil
		})
	}
	return g.Wait()
}

func withoutByes(entrants []*models.Entrant) []*models.Entrant {
	out := make([]*models.Entrant, 0, len(entrants))
	for _, e := range entrants {
		if !e.IsBye {
			out = append(out, e)
		}
	}
	return out
}

func (s *bracketService) GetSnapshot(ctx context.Context, tournamentID string) (*models.Snapshot, error) {
	tournament, err := s.gateway.LoadTournament(ctx, tournamentID)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	if len(tournament.Matches) == 0 {
		return nil, ErrNoBracket
	}
	return BuildSnapshot(tournament, s.now()), nil
}

func (s *bracketService) PlayableMatches(ctx context.Context, tournamentID string) ([]*models.Match, error) {
	tournament, err := s.gateway.LoadTournament(ctx, tournamentID)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	if len(tournament.Matches) == 0 {
		return nil, ErrNoBracket
	}
	return playableMatches(tournament), nil
}
