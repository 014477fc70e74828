// Package users exposes the authenticated user's profile and avatar over
// HTTP. The business logic lives in the auth service; this package is the
// route surface for /users.
package users

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/user/lojinha-go/apperror"
	"github.com/user/lojinha-go/auth"
)

// Handlers exposes profile endpoints. All routes except the avatar download
// require the auth middleware.
type Handlers struct {
	service  *auth.Service
	validate *validator.Validate
}

// NewHandlers creates users Handlers.
func NewHandlers(service *auth.Service) *Handlers {
	return &Handlers{service: service, validate: validator.New()}
}

// HandleGetProfile godoc
// @Summary Get own profile
// @Tags Users
// @Produce json
// @Success 200 {object} upstream.User
// @Failure 401 {object} apperror.ErrorResponse
// @Security BearerAuth
// @Router /users/me [get]
func (h *Handlers) HandleGetProfile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := auth.ClaimsFromContext(r.Context())
		if !ok {
			auth.WriteError(w, r, apperror.NewAuthError("no authentication context found", nil))
			return
		}

		user, err := h.service.Profile(r.Context(), claims)
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}
		auth.WriteJSON(w, http.StatusOK, user)
	}
}

// HandleUpdateProfile godoc
// @Summary Update own profile
// @Description Applies a partial update; absent fields are left unchanged.
// @Tags Users
// @Accept json
// @Produce json
// @Param request body auth.UpdateProfileRequest true "Fields to change"
// @Success 200 {object} upstream.User
// @Failure 401 {object} apperror.ErrorResponse
// @Security BearerAuth
// @Router /users/me [put]
func (h *Handlers) HandleUpdateProfile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := auth.ClaimsFromContext(r.Context())
		if !ok {
			auth.WriteError(w, r, apperror.NewAuthError("no authentication context found", nil))
			return
		}

		var req auth.UpdateProfileRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			auth.WriteError(w, r, apperror.NewBadRequestError("invalid request body: "+err.Error(), nil))
			return
		}
		defer r.Body.Close()

		if err := h.validate.Struct(req); err != nil {
			auth.WriteError(w, r, apperror.NewValidationError("validation failed: "+err.Error(), err))
			return
		}

		user, err := h.service.UpdateProfile(r.Context(), claims, req)
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}
		auth.WriteJSON(w, http.StatusOK, user)
	}
}

// HandleUploadAvatar godoc
// @Summary Upload an avatar
// @Description Accepts a multipart upload with an "avatar" file field. Images only, up to 5MB.
// @Tags Users
// @Accept multipart/form-data
// @Produce json
// @Param avatar formData file true "Avatar image"
// @Success 200 {object} upstream.AvatarResponse
// @Failure 400 {object} apperror.ErrorResponse
// @Security BearerAuth
// @Router /users/avatar [post]
func (h *Handlers) HandleUploadAvatar() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := auth.ClaimsFromContext(r.Context())
		if !ok {
			auth.WriteError(w, r, apperror.NewAuthError("no authentication context found", nil))
			return
		}

		if err := r.ParseMultipartForm(auth.MaxAvatarSize); err != nil {
			auth.WriteError(w, r, apperror.NewBadRequestError("invalid multipart form: "+err.Error(), nil))
			return
		}

		file, header, err := r.FormFile("avatar")
		if err != nil {
			auth.WriteError(w, r, apperror.NewBadRequestError("avatar file field is required", err))
			return
		}
		defer file.Close()

		data, err := io.ReadAll(io.LimitReader(file, auth.MaxAvatarSize+1))
		if err != nil {
			auth.WriteError(w, r, apperror.NewInternalError("failed to read upload", err))
			return
		}

		resp, err := h.service.UploadAvatar(r.Context(), claims, header.Filename, header.Header.Get("Content-Type"), data)
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}
		auth.WriteJSON(w, http.StatusOK, resp)
	}
}

// HandleGetAvatar godoc
// @Summary Download a stored avatar
// @Description Serves avatars kept by the local fallback path. Backend-hosted avatars are served by the backend itself.
// @Tags Users
// @Produce image/*
// @Param filename path string true "Avatar filename"
// @Success 200
// @Failure 404 {object} apperror.ErrorResponse
// @Router /users/avatar/{filename} [get]
func (h *Handlers) HandleGetAvatar() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filename := chi.URLParam(r, "filename")
		data, contentType, err := h.service.Avatar(filename)
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}

		if contentType == "" {
			contentType = "application/octet-stream"
		}
		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}
