// Package upstream implements the client for the storefront's backend API and
// its embedded mock fallback. The wire format is the backend's (Portuguese
// field names); these types are shared by the catalog, cart and auth modules.
package upstream

import "time"

// Product is a catalog product as served by GET /produtos.
type Product struct {
	ID            int64     `json:"id"`
	Name          string    `json:"nome"`
	Description   string    `json:"descricao"`
	Price         float64   `json:"preco"`
	Stock         int       `json:"estoque"`
	Category      string    `json:"categoria"`
	SKU           string    `json:"sku"`
	ImageFilename string    `json:"imagem_filename"`
	CreatedAt     time.Time `json:"criado_em"`
	UpdatedAt     time.Time `json:"atualizado_em"`
}

// User is a storefront user as served by the auth and profile endpoints.
// Passwords never appear here; the mock directory keeps its hashes in a
// separate record type inside the auth package.
type User struct {
	ID             int64   `json:"id"`
	Email          string  `json:"email"`
	Name           string  `json:"nome"`
	Phone          *string `json:"telefone"`
	Address        *string `json:"endereco"`
	AvatarFilename *string `json:"avatar_filename"`
	IsAdmin        bool    `json:"is_admin"`
	CreatedAt      string  `json:"criado_em"`
	UpdatedAt      string  `json:"atualizado_em"`
}

// TokenResponse is the payload of POST /auth/register and /auth/login.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	User        *User  `json:"user"`
}

// RegisterPayload is the body of POST /auth/register.
type RegisterPayload struct {
	Email    string  `json:"email"`
	Password string  `json:"senha"`
	Name     string  `json:"nome"`
	Phone    *string `json:"telefone,omitempty"`
	Address  *string `json:"endereco,omitempty"`
}

// LoginPayload is the body of POST /auth/login.
type LoginPayload struct {
	Email    string `json:"email"`
	Password string `json:"senha"`
}

// ProfileUpdatePayload is the body of PUT /users/me. Nil fields are untouched.
type ProfileUpdatePayload struct {
	Name    *string `json:"nome,omitempty"`
	Phone   *string `json:"telefone,omitempty"`
	Address *string `json:"endereco,omitempty"`
}

// OrderItem is one line of a POST /carrinho/confirmar payload.
type OrderItem struct {
	ProductID int64 `json:"produto_id"`
	Quantity  int   `json:"quantidade"`
}

// OrderPayload is the body of POST /carrinho/confirmar.
type OrderPayload struct {
	Items  []OrderItem `json:"itens"`
	Coupon *string     `json:"cupom"`
}

// OrderResponseItem is one confirmed line in an order response.
type OrderResponseItem struct {
	ProductID int64   `json:"produto_id"`
	Name      string  `json:"nome"`
	UnitPrice float64 `json:"preco_unitario"`
	Quantity  int     `json:"quantidade"`
	Subtotal  float64 `json:"subtotal"`
}

// OrderResponse is the payload of a confirmed order.
type OrderResponse struct {
	ID         string              `json:"id"`
	Subtotal   float64             `json:"total_bruto"`
	Discount   float64             `json:"desconto"`
	Total      float64             `json:"total_final"`
	CouponUsed *string             `json:"cupom_usado"`
	Items      []OrderResponseItem `json:"itens"`
	// Offline marks an order that never reached the backend and was completed
	// locally. The backend itself never sets it.
	Offline bool `json:"offline,omitempty"`
}

// HealthStatus is the payload of GET /health.
type HealthStatus struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Version string `json:"version,omitempty"`
}

// Filters are the query parameters accepted by GET /produtos.
type Filters struct {
	Search   string
	Category string
	Sort     string
	Order    string
}
