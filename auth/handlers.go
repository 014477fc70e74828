package auth

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/user/lojinha-go/apperror"
)

// Handlers exposes authentication over HTTP.
type Handlers struct {
	service  *Service
	validate *validator.Validate
}

// NewHandlers creates auth Handlers.
func NewHandlers(service *Service) *Handlers {
	return &Handlers{service: service, validate: validator.New()}
}

// HandleRegister godoc
// @Summary Register
// @Description Creates an account and starts a session. Falls back to the local user directory when the backend is unreachable.
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body auth.RegisterRequest true "Registration details"
// @Success 201 {object} auth.SessionSnapshot
// @Failure 400 {object} apperror.ErrorResponse
// @Failure 409 {object} apperror.ErrorResponse
// @Router /auth/register [post]
func (h *Handlers) HandleRegister() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RegisterRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, r, apperror.NewBadRequestError("invalid request body: "+err.Error(), nil))
			return
		}
		defer r.Body.Close()

		if err := h.validate.Struct(req); err != nil {
			WriteError(w, r, apperror.NewValidationError("validation failed: "+err.Error(), err))
			return
		}

		snap, err := h.service.Register(r.Context(), req)
		if err != nil {
			WriteError(w, r, err)
			return
		}
		WriteJSON(w, http.StatusCreated, snap)
	}
}

// HandleLogin godoc
// @Summary Login
// @Description Authenticates and starts a session. Falls back to the local user directory when the backend is unreachable.
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body auth.LoginRequest true "Credentials"
// @Success 200 {object} auth.SessionSnapshot
// @Failure 401 {object} apperror.ErrorResponse
// @Router /auth/login [post]
func (h *Handlers) HandleLogin() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, r, apperror.NewBadRequestError("invalid request body: "+err.Error(), nil))
			return
		}
		defer r.Body.Close()

		if err := h.validate.Struct(req); err != nil {
			WriteError(w, r, apperror.NewValidationError("validation failed: "+err.Error(), err))
			return
		}

		snap, err := h.service.Login(r.Context(), req)
		if err != nil {
			WriteError(w, r, err)
			return
		}
		WriteJSON(w, http.StatusOK, snap)
	}
}

// HandleLogout godoc
// @Summary Logout
// @Tags Auth
// @Produce json
// @Success 204 "No Content"
// @Router /auth/logout [post]
func (h *Handlers) HandleLogout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.service.Logout()
		w.WriteHeader(http.StatusNoContent)
	}
}

// HandleSession godoc
// @Summary Current session
// @Description Returns the session state without requiring a token; an anonymous caller gets isAuthenticated=false.
// @Tags Auth
// @Produce json
// @Success 200 {object} auth.SessionSnapshot
// @Router /auth/session [get]
func (h *Handlers) HandleSession() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, h.service.Session())
	}
}
