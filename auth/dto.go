package auth

import "github.com/user/lojinha-go/upstream"

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	Name     string  `json:"nome" validate:"required,min=2"`
	Email    string  `json:"email" validate:"required,email"`
	Password string  `json:"senha" validate:"required,min=6"`
	Phone    *string `json:"telefone,omitempty"`
	Address  *string `json:"endereco,omitempty"`
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"senha" validate:"required"`
}

// UpdateProfileRequest is the body of PUT /users/me. Absent fields are left
// unchanged.
type UpdateProfileRequest struct {
	Name    *string `json:"nome,omitempty" validate:"omitempty,min=2"`
	Phone   *string `json:"telefone,omitempty"`
	Address *string `json:"endereco,omitempty"`
}

// SessionSnapshot is the externally visible authentication state, also pushed
// to session listeners on every change.
type SessionSnapshot struct {
	IsAuthenticated bool           `json:"isAuthenticated"`
	User            *upstream.User `json:"user"`
	Token           string         `json:"access_token,omitempty"`
	TokenType       string         `json:"token_type,omitempty"`
}
