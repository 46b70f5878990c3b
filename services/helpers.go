package services

import (
	"github.com/Dosada05/sabo-bracket/models"
)

// --- Общие хелперы ---

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// isValidStatusTransition: registration -> active -> completed, без возврата назад.
func isValidStatusTransition(current, next models.TournamentStatus) bool {
	allowedTransitions := map[models.TournamentStatus][]models.TournamentStatus{
		models.StatusRegistration: {models.StatusActive},
		models.StatusActive:       {models.StatusCompleted},
		models.StatusCompleted:    {},
	}
	for _, allowedNextStatus := range allowedTransitions[current] {
		if next == allowedNextStatus {
			return true
		}
	}
	return false
}
