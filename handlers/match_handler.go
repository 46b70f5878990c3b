package handlers

import (
	"net/http"

	"github.com/Dosada05/sabo-bracket/middleware"
	"github.com/Dosada05/sabo-bracket/models"
	"github.com/Dosada05/sabo-bracket/services"
)

type MatchHandler struct {
	matchService services.MatchService
}

func NewMatchHandler(matchService services.MatchService) *MatchHandler {
	return &MatchHandler{matchService: matchService}
}

type submitScoreRequest struct {
	ScoreSlot1 *int `json:"score_slot1"`
	ScoreSlot2 *int `json:"score_slot2"`
}

func (h *MatchHandler) SubmitScoreHandler(w http.ResponseWriter, r *http.Request) {
	matchID, actor, ok := h.matchRequest(w, r)
	if !ok {
		return
	}

	var input submitScoreRequest
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	problems := make(map[string]string)
	if input.ScoreSlot1 == nil {
		problems["score_slot1"] = "must be provided"
	}
	if input.ScoreSlot2 == nil {
		problems["score_slot2"] = "must be provided"
	}
	if len(problems) > 0 {
		failedValidationResponse(w, r, problems)
		return
	}

	match, err := h.matchService.SubmitScore(r.Context(), matchID, *input.ScoreSlot1, *input.ScoreSlot2, actor)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchHandler) ConfirmScoreHandler(w http.ResponseWriter, r *http.Request) {
	matchID, actor, ok := h.matchRequest(w, r)
	if !ok {
		return
	}

	result, err := h.matchService.ConfirmScore(r.Context(), matchID, actor)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"result": result}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchHandler) DisputeScoreHandler(w http.ResponseWriter, r *http.Request) {
	matchID, actor, ok := h.matchRequest(w, r)
	if !ok {
		return
	}

	match, err := h.matchService.DisputeScore(r.Context(), matchID, actor)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchHandler) matchRequest(w http.ResponseWriter, r *http.Request) (string, models.Actor, bool) {
	matchID, err := getUUIDParam(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return "", models.Actor{}, false
	}
	actor, err := middleware.ActorFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return "", models.Actor{}, false
	}
	return matchID, actor, true
}
