package prefs

import (
	"encoding/json"
	"net/http"

	"github.com/user/lojinha-go/apperror"
	"github.com/user/lojinha-go/auth"
)

// ThemeResponse is the payload of the theme endpoints.
type ThemeResponse struct {
	Theme string `json:"tema"`
}

// ThemeRequest is the body of PUT /preferencias/tema.
type ThemeRequest struct {
	Theme string `json:"tema"`
}

// Handlers exposes preferences over HTTP.
type Handlers struct {
	service *Service
}

// NewHandlers creates prefs Handlers.
func NewHandlers(service *Service) *Handlers {
	return &Handlers{service: service}
}

// HandleGetTheme godoc
// @Summary Get the theme
// @Tags Preferencias
// @Produce json
// @Success 200 {object} prefs.ThemeResponse
// @Router /preferencias/tema [get]
func (h *Handlers) HandleGetTheme() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		auth.WriteJSON(w, http.StatusOK, ThemeResponse{Theme: h.service.Theme()})
	}
}

// HandleSetTheme godoc
// @Summary Set the theme
// @Tags Preferencias
// @Accept json
// @Produce json
// @Param request body prefs.ThemeRequest true "Theme (light or dark)"
// @Success 200 {object} prefs.ThemeResponse
// @Failure 400 {object} apperror.ErrorResponse
// @Router /preferencias/tema [put]
func (h *Handlers) HandleSetTheme() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ThemeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			auth.WriteError(w, r, apperror.NewBadRequestError("invalid request body: "+err.Error(), nil))
			return
		}
		if err := h.service.SetTheme(req.Theme); err != nil {
			auth.WriteError(w, r, err)
			return
		}
		auth.WriteJSON(w, http.StatusOK, ThemeResponse{Theme: h.service.Theme()})
	}
}

// HandleToggleTheme godoc
// @Summary Toggle the theme
// @Tags Preferencias
// @Produce json
// @Success 200 {object} prefs.ThemeResponse
// @Router /preferencias/tema/alternar [post]
func (h *Handlers) HandleToggleTheme() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		auth.WriteJSON(w, http.StatusOK, ThemeResponse{Theme: h.service.ToggleTheme()})
	}
}

// HandleGetSort godoc
// @Summary Get the sort preference
// @Tags Preferencias
// @Produce json
// @Success 200 {object} prefs.SortPref
// @Router /preferencias/ordenacao [get]
func (h *Handlers) HandleGetSort() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		auth.WriteJSON(w, http.StatusOK, h.service.Sort())
	}
}

// HandleSetSort godoc
// @Summary Set the sort preference
// @Tags Preferencias
// @Accept json
// @Produce json
// @Param request body prefs.SortPref true "Sort field and order"
// @Success 200 {object} prefs.SortPref
// @Failure 400 {object} apperror.ErrorResponse
// @Router /preferencias/ordenacao [put]
func (h *Handlers) HandleSetSort() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SortPref
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			auth.WriteError(w, r, apperror.NewBadRequestError("invalid request body: "+err.Error(), nil))
			return
		}
		if err := h.service.SetSort(req); err != nil {
			auth.WriteError(w, r, err)
			return
		}
		auth.WriteJSON(w, http.StatusOK, req)
	}
}
