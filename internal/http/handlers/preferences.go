package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"endorsement/internal/domain"
	"endorsement/internal/preferences"
)

type themeRequest struct {
	Theme string `json:"theme"`
}

type themeResponse struct {
	Theme string `json:"theme"`
}

func (a *App) GetTheme(w http.ResponseWriter, r *http.Request) {
	theme, err := preferences.Theme(r.Context(), a.Preferences)
	if err != nil {
		a.Logger.Error().Err(err).Msg("preferences: read theme")
		a.localizedError(w, r, http.StatusInternalServerError, "internal", domain.MsgInternal)
		return
	}
	a.json(w, http.StatusOK, themeResponse{Theme: theme})
}

func (a *App) PutTheme(w http.ResponseWriter, r *http.Request) {
	var req themeRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<10)).Decode(&req); err != nil {
		a.localizedError(w, r, http.StatusBadRequest, "bad_request", domain.MsgInvalidTheme)
		return
	}
	theme, err := preferences.SetTheme(r.Context(), a.Preferences, req.Theme)
	if err != nil {
		a.themeError(w, r, err)
		return
	}
	a.json(w, http.StatusOK, themeResponse{Theme: theme})
}

func (a *App) ToggleTheme(w http.ResponseWriter, r *http.Request) {
	theme, err := preferences.ToggleTheme(r.Context(), a.Preferences)
	if err != nil {
		a.themeError(w, r, err)
		return
	}
	a.json(w, http.StatusOK, themeResponse{Theme: theme})
}

func (a *App) themeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, domain.ErrInvalidPreference) {
		a.localizedError(w, r, http.StatusBadRequest, "invalid_theme", domain.MsgInvalidTheme)
		return
	}
	a.Logger.Error().Err(err).Msg("preferences: write theme")
	a.localizedError(w, r, http.StatusInternalServerError, "internal", domain.MsgInternal)
}
