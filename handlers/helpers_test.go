package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Dosada05/sabo-bracket/brackets"
	"github.com/Dosada05/sabo-bracket/services"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapServiceErrorToHTTP(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{services.ErrTournamentNotFound, http.StatusNotFound},
		{services.ErrMatchNotFound, http.StatusNotFound},
		{services.ErrNoBracket, http.StatusNotFound},
		{fmt.Errorf("wrapped: %w", brackets.ErrInvalidScore), http.StatusUnprocessableEntity},
		{services.ErrRatingUnavailable, http.StatusUnprocessableEntity},
		{brackets.ErrInvalidTransition, http.StatusConflict},
		{brackets.ErrMatchNotReady, http.StatusConflict},
		{brackets.ErrSlotConflict, http.StatusConflict},
		{services.ErrBracketExists, http.StatusConflict},
		{services.ErrRetriesExhausted, http.StatusConflict},
		{brackets.ErrNotAuthorized, http.StatusForbidden},
		{brackets.ErrInvariantViolation, http.StatusInternalServerError},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			rec := httptest.NewRecorder()
			mapServiceErrorToHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil), tc.err)
			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		})
	}
}

func TestServerErrorHidesDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	mapServiceErrorToHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil), errors.New("pq: connection refused"))
	assert.NotContains(t, rec.Body.String(), "connection refused")
}

func TestReadJSON(t *testing.T) {
	var dst struct {
		A int `json:"a"`
	}
	cases := map[string]string{
		"empty":         "",
		"malformed":     `{"a":`,
		"wrong type":    `{"a":"x"}`,
		"unknown field": `{"b":1}`,
		"two values":    `{"a":1}{"a":2}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
			assert.Error(t, readJSON(httptest.NewRecorder(), req, &dst))
		})
	}

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"a":7}`))
	require.NoError(t, readJSON(httptest.NewRecorder(), req, &dst))
	assert.Equal(t, 7, dst.A)
}

func TestGetUUIDParam(t *testing.T) {
	router := chi.NewRouter()
	var got string
	var gotErr error
	router.Get("/m/{matchID}", func(w http.ResponseWriter, r *http.Request) {
		got, gotErr = getUUIDParam(r, "matchID")
	})

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/m/6F9619FF-8B86-D011-B42D-00C04FC964FF", nil))
	require.NoError(t, gotErr)
	assert.Equal(t, "6f9619ff-8b86-d011-b42d-00c04fc964ff", got)

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/m/R1M1", nil))
	assert.Error(t, gotErr)
}
