package models

type Entrant struct {
	ID           string `json:"id"`
	TournamentID string `json:"tournament_id"`
	DisplayName  string `json:"display_name,omitempty"`
	Rating       int    `json:"rating"`
	Seed         int    `json:"seed"`
	IsBye        bool   `json:"is_bye,omitempty"`
	Losses       int    `json:"losses"`
	Eliminated   bool   `json:"eliminated"`
}

func (e *Entrant) Clone() *Entrant {
	if e == nil {
		return nil
	}
	c := *e
	return &c
}
