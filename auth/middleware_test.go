package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGuardedRouter(svc *Service) *chi.Mux {
	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(Middleware(svc))
		r.Get("/me", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		})
		r.With(RequireAdmin).Post("/admin/acao", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		})
	})
	return r
}

func TestMiddlewareRejectsBadHeaders(t *testing.T) {
	svc, _ := newTestAuth(t)
	router := newGuardedRouter(svc)

	cases := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not bearer", "Basic abc123"},
		{"garbage token", "Bearer not-a-jwt"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	svc, _ := newTestAuth(t)
	router := newGuardedRouter(svc)

	adminSnap, err := svc.Login(context.Background(), LoginRequest{
		Email:    "admin@loja.com",
		Password: "admin123",
	})
	require.NoError(t, err)

	studentSnap, err := svc.Register(context.Background(), RegisterRequest{
		Name:     "Aluna Comum",
		Email:    "aluna@escola.com",
		Password: "segredo1",
	})
	require.NoError(t, err)

	t.Run("admin passes", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/admin/acao", nil)
		req.Header.Set("Authorization", "Bearer "+adminSnap.Token)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("regular user is forbidden", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/admin/acao", nil)
		req.Header.Set("Authorization", "Bearer "+studentSnap.Token)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Contains(t, rec.Body.String(), "acesso restrito a administradores")
	})

	t.Run("authenticated routes still open to everyone", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+studentSnap.Token)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})
}
