package brackets

import (
	"context"

	"github.com/Dosada05/sabo-bracket/models"
)

type GenerateBracketParams struct {
	Tournament *models.Tournament
	Entrants   []*models.Entrant // already seeded
}

type BracketGenerator interface {
	GenerateBracket(ctx context.Context, params GenerateBracketParams) ([]*models.Match, error)

	GetName() string
}
