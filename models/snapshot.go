package models

import "time"

type Stage string

const (
	StageWinnersBracket Stage = "winners_bracket_active"
	StageLoserBranches  Stage = "loser_branches_active"
	StageSemifinals     Stage = "semifinals_ready"
	StageFinal          Stage = "final"
	StageComplete       Stage = "complete"
)

type SegmentProgress struct {
	Completed int `json:"completed"`
	Total     int `json:"total"`
}

type Progress struct {
	TotalMatches       int                                `json:"total_matches"`
	CompletedMatches   int                                `json:"completed_matches"`
	ProgressPercentage int                                `json:"progress_percentage"`
	CurrentStage       Stage                              `json:"current_stage"`
	NextActions        []string                           `json:"next_actions"`
	Segments           map[BracketSegment]SegmentProgress `json:"segments"`
}

// Snapshot is a read-only projection of a tournament for any presentation layer.
type Snapshot struct {
	TournamentID string           `json:"tournament_id"`
	Name         string           `json:"name"`
	Status       TournamentStatus `json:"status"`
	Champion     *Entrant         `json:"champion,omitempty"`
	Entrants     []Entrant        `json:"entrants"`
	Matches      []Match          `json:"matches"`
	Progress     Progress         `json:"progress"`
	GeneratedAt  time.Time        `json:"generated_at"`
}
