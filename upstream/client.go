package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/user/lojinha-go/apperror"
	"github.com/user/lojinha-go/config"
)

// ErrBackendUnavailable marks failures where the backend was never reached,
// either because mock mode is forced or because the health prober has marked
// it down. Callers use it to pick their mock fallback path without waiting on
// a doomed network call.
var ErrBackendUnavailable = errors.New("upstream: backend unavailable")

// errorBody matches the backend's error payload shape.
type errorBody struct {
	Detail string `json:"detail"`
	Error  string `json:"error"`
}

// AvatarResponse is the payload of POST /users/avatar.
type AvatarResponse struct {
	Message        string `json:"message"`
	AvatarFilename string `json:"avatar_filename"`
}

// Client talks to the storefront backend. Catalog reads fall back to the
// embedded mock dataset on any failure; write and auth operations surface
// their errors so the owning service can run its own mock fallback.
type Client struct {
	baseURL   string
	http      *http.Client
	logger    *zap.Logger
	forceMock bool
	// live tracks whether the backend answered its last health probe.
	live atomic.Bool
}

// NewClient builds a Client from configuration. When cfg.MockMode is set the
// client never touches the network.
func NewClient(cfg *config.UpstreamConfig, logger *zap.Logger) *Client {
	c := &Client{
		baseURL:   cfg.BaseURL,
		http:      &http.Client{Timeout: cfg.Timeout},
		logger:    logger,
		forceMock: cfg.MockMode,
	}
	// Optimistic until the first probe says otherwise.
	c.live.Store(!cfg.MockMode)
	return c
}

// Live reports whether the client currently believes the backend is reachable.
func (c *Client) Live() bool {
	return !c.forceMock && c.live.Load()
}

// SetLive records the latest health probe verdict. A no-op in forced mock mode.
func (c *Client) SetLive(up bool) {
	c.live.Store(up)
}

// Health probes GET /health. Unlike the catalog reads it never falls back, the
// prober needs the real answer.
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	if c.forceMock {
		return nil, apperror.NewUpstreamError("mock mode is forced", ErrBackendUnavailable)
	}
	var status HealthStatus
	if err := c.doJSON(ctx, http.MethodGet, "/health", "", nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// FetchProducts lists products, pushing the filters down to the backend when it
// is reachable. On any failure it degrades to the embedded mock dataset; the
// caller re-applies filtering locally either way, so the unfiltered mock list
// is a correct substitute.
func (c *Client) FetchProducts(ctx context.Context, filters Filters) ([]Product, error) {
	if c.Live() {
		q := url.Values{}
		if filters.Search != "" {
			q.Set("search", filters.Search)
		}
		if filters.Category != "" {
			q.Set("categoria", filters.Category)
		}
		if filters.Sort != "" {
			q.Set("sort", filters.Sort)
		}
		if filters.Order != "" {
			q.Set("order", filters.Order)
		}
		path := "/produtos"
		if encoded := q.Encode(); encoded != "" {
			path += "?" + encoded
		}

		var products []Product
		err := c.doJSON(ctx, http.MethodGet, path, "", nil, &products)
		if err == nil {
			return products, nil
		}
		c.logger.Warn("backend unavailable, serving mock products", zap.Error(err))
	}
	return MockProducts(), nil
}

// FetchCategories lists distinct categories, degrading to the mock list.
func (c *Client) FetchCategories(ctx context.Context) ([]string, error) {
	if c.Live() {
		var categories []string
		err := c.doJSON(ctx, http.MethodGet, "/categorias", "", nil, &categories)
		if err == nil {
			return categories, nil
		}
		c.logger.Warn("backend unavailable, serving mock categories", zap.Error(err))
	}
	return MockCategories(), nil
}

// ConfirmOrder posts the cart to POST /carrinho/confirmar. No fallback here:
// the cart service owns the offline completion behavior.
func (c *Client) ConfirmOrder(ctx context.Context, payload OrderPayload) (*OrderResponse, error) {
	if !c.Live() {
		return nil, apperror.NewUpstreamError("backend indisponível", ErrBackendUnavailable)
	}
	var resp OrderResponse
	if err := c.doJSON(ctx, http.MethodPost, "/carrinho/confirmar", "", payload, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Register creates an account via POST /auth/register.
func (c *Client) Register(ctx context.Context, payload RegisterPayload) (*TokenResponse, error) {
	if !c.Live() {
		return nil, apperror.NewUpstreamError("backend indisponível", ErrBackendUnavailable)
	}
	var resp TokenResponse
	if err := c.doJSON(ctx, http.MethodPost, "/auth/register", "", payload, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Login authenticates via POST /auth/login.
func (c *Client) Login(ctx context.Context, payload LoginPayload) (*TokenResponse, error) {
	if !c.Live() {
		return nil, apperror.NewUpstreamError("backend indisponível", ErrBackendUnavailable)
	}
	var resp TokenResponse
	if err := c.doJSON(ctx, http.MethodPost, "/auth/login", "", payload, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetProfile fetches the authenticated user via GET /users/me.
func (c *Client) GetProfile(ctx context.Context, token string) (*User, error) {
	if !c.Live() {
		return nil, apperror.NewUpstreamError("backend indisponível", ErrBackendUnavailable)
	}
	var user User
	if err := c.doJSON(ctx, http.MethodGet, "/users/me", token, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateProfile updates the authenticated user via PUT /users/me.
func (c *Client) UpdateProfile(ctx context.Context, token string, payload ProfileUpdatePayload) (*User, error) {
	if !c.Live() {
		return nil, apperror.NewUpstreamError("backend indisponível", ErrBackendUnavailable)
	}
	var user User
	if err := c.doJSON(ctx, http.MethodPut, "/users/me", token, payload, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UploadAvatar sends an avatar image via multipart POST /users/avatar.
func (c *Client) UploadAvatar(ctx context.Context, token, filename, contentType string, data []byte) (*AvatarResponse, error) {
	if !c.Live() {
		return nil, apperror.NewUpstreamError("backend indisponível", ErrBackendUnavailable)
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, apperror.NewInternalError("failed to build multipart body", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, apperror.NewInternalError("failed to build multipart body", err)
	}
	if err := writer.Close(); err != nil {
		return nil, apperror.NewInternalError("failed to build multipart body", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/users/avatar", &body)
	if err != nil {
		return nil, apperror.NewInternalError("failed to build upstream request", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, apperror.NewUpstreamError("falha ao enviar avatar", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, c.statusError(resp)
	}
	var out AvatarResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, apperror.NewUpstreamError("resposta inválida do backend", err)
	}
	return &out, nil
}

// doJSON performs one JSON request/response round trip against the backend.
func (c *Client) doJSON(ctx context.Context, method, path, token string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return apperror.NewInternalError("failed to encode upstream request", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return apperror.NewInternalError("failed to build upstream request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return apperror.NewUpstreamError("backend indisponível", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.statusError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperror.NewUpstreamError("resposta inválida do backend", err)
	}
	return nil
}

// statusError maps a non-success backend response onto the error taxonomy,
// keeping the backend's own message when it sent one.
func (c *Client) statusError(resp *http.Response) error {
	message := fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	var parsed errorBody
	if raw, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024)); err == nil {
		if json.Unmarshal(raw, &parsed) == nil {
			if parsed.Detail != "" {
				message = parsed.Detail
			} else if parsed.Error != "" {
				message = parsed.Error
			}
		}
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return apperror.NewAuthError(message, nil)
	case http.StatusForbidden:
		return apperror.NewUnauthorizedError(message, nil)
	case http.StatusNotFound:
		return apperror.NewNotFoundError(message, nil)
	case http.StatusBadRequest:
		return apperror.NewBadRequestError(message, nil)
	case http.StatusConflict:
		return apperror.NewConflictError(message, nil)
	case http.StatusUnprocessableEntity:
		return apperror.NewStockError(message, nil)
	default:
		return apperror.NewUpstreamError(message, nil)
	}
}
