package models

type UserRole string

const (
	RoleAdmin     UserRole = "admin"
	RoleOrganizer UserRole = "organizer"
	RolePlayer    UserRole = "player"
)

// Actor is whoever triggers a score submission, confirmation or dispute.
// Identity comes from the caller's token; the engine never looks users up.
type Actor struct {
	ID   string   `json:"id"`
	Role UserRole `json:"role"`
}

// IsOperator reports whether the actor may act on any match regardless of
// participation.
func (a Actor) IsOperator() bool {
	return a.Role == RoleAdmin || a.Role == RoleOrganizer
}
