package auth

import (
	"net/http"
	"strings"

	"github.com/user/lojinha-go/apperror"
)

// Middleware returns a chi-compatible middleware that validates the bearer
// token and stores the claims and raw token in the request context.
func Middleware(service *Service) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				WriteError(w, r, apperror.NewAuthError("Authorization header is missing", nil))
				return
			}

			parts := strings.Split(header, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				WriteError(w, r, apperror.NewAuthError("Authorization header format must be Bearer {token}", nil))
				return
			}

			claims, err := service.VerifyToken(parts[1])
			if err != nil {
				WriteError(w, r, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(NewContextWithClaims(r.Context(), claims, parts[1])))
		})
	}
}

// RequireAdmin guards admin-only routes. It must run after Middleware.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			WriteError(w, r, apperror.NewAuthError("no authentication context found", nil))
			return
		}
		if !claims.IsAdmin {
			WriteError(w, r, apperror.NewUnauthorizedError("acesso restrito a administradores", nil))
			return
		}
		next.ServeHTTP(w, r)
	})
}
