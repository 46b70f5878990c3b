package services

import (
	"errors"
	"fmt"

	"github.com/Dosada05/sabo-bracket/brackets"
	"github.com/Dosada05/sabo-bracket/repositories"
)

// Общие ошибки, используемые в разных сервисах и маппинге HTTP.
var (
	// Ресурс не найден
	ErrTournamentNotFound = errors.New("tournament not found")
	ErrMatchNotFound      = errors.New("match not found")

	// Ошибки конфликтов
	ErrBracketExists    = errors.New("bracket already exists for this tournament")
	ErrRetriesExhausted = errors.New("gave up after repeated concurrent modifications")
	ErrNoBracket        = errors.New("tournament has no bracket yet")

	// Seeding cannot proceed without every rating.
	ErrRatingUnavailable = fmt.Errorf("rating unavailable: %w", brackets.ErrInvalidEntrantCount)
)

func handleRepositoryError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrTournamentNotFound):
		return fmt.Errorf("%w: %w", ErrTournamentNotFound, err)
	case errors.Is(err, repositories.ErrMatchNotFound):
		return fmt.Errorf("%w: %w", ErrMatchNotFound, err)
	case errors.Is(err, repositories.ErrBracketExists):
		return fmt.Errorf("%w: %w", ErrBracketExists, err)
	}
	return err
}
