package upstream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/user/lojinha-go/apperror"
	"github.com/user/lojinha-go/config"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewClient(&config.UpstreamConfig{
		BaseURL: server.URL,
		Timeout: time.Second,
	}, zap.NewNop())
}

func TestFetchProductsFromBackend(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/produtos", r.URL.Path)
		assert.Equal(t, "caderno", r.URL.Query().Get("search"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":1,"nome":"Caderno","preco":10.5,"estoque":3,"categoria":"Material Escolar"}]`))
	}))

	products, err := client.FetchProducts(context.Background(), Filters{Search: "caderno"})
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "Caderno", products[0].Name)
	assert.Equal(t, 3, products[0].Stock)
}

func TestFetchProductsFallsBackToMock(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // Nothing listening anymore.

	client := NewClient(&config.UpstreamConfig{
		BaseURL: server.URL,
		Timeout: 100 * time.Millisecond,
	}, zap.NewNop())

	products, err := client.FetchProducts(context.Background(), Filters{})
	require.NoError(t, err)
	assert.Len(t, products, len(MockProducts()))
}

func TestFetchProductsMockWhenNotLive(t *testing.T) {
	client := NewClient(&config.UpstreamConfig{
		BaseURL: "http://localhost:0",
		Timeout: time.Second,
	}, zap.NewNop())
	client.SetLive(false)

	products, err := client.FetchProducts(context.Background(), Filters{})
	require.NoError(t, err)
	assert.Len(t, products, len(MockProducts()))
}

func TestFetchCategoriesFallsBackToMock(t *testing.T) {
	client := NewClient(&config.UpstreamConfig{
		BaseURL: "http://localhost:0",
		Timeout: time.Second,
	}, zap.NewNop())
	client.SetLive(false)

	categories, err := client.FetchCategories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, MockCategories(), categories)
}

func TestConfirmOrderNoFallback(t *testing.T) {
	client := NewClient(&config.UpstreamConfig{
		BaseURL: "http://localhost:0",
		Timeout: time.Second,
	}, zap.NewNop())
	client.SetLive(false)

	_, err := client.ConfirmOrder(context.Background(), OrderPayload{})
	require.Error(t, err)
	assert.True(t, apperror.IsUpstreamError(err))
	assert.ErrorIs(t, err, ErrBackendUnavailable)
}

func TestMockModeForcedOffline(t *testing.T) {
	client := NewClient(&config.UpstreamConfig{
		BaseURL:  "http://localhost:0",
		Timeout:  time.Second,
		MockMode: true,
	}, zap.NewNop())

	assert.False(t, client.Live())

	// SetLive cannot override forced mock mode.
	client.SetLive(true)
	assert.False(t, client.Live())

	_, err := client.Health(context.Background())
	assert.True(t, apperror.IsUpstreamError(err))
}

func TestStatusErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		check  func(error) bool
		msg    string
	}{
		{"unauthorized", http.StatusUnauthorized, `{"detail":"credenciais inválidas"}`, apperror.IsAuthError, "credenciais inválidas"},
		{"not found", http.StatusNotFound, `{"detail":"não encontrado"}`, apperror.IsNotFound, "não encontrado"},
		{"conflict", http.StatusConflict, `{"detail":"e-mail já existe"}`, apperror.IsConflictError, "e-mail já existe"},
		{"stock", http.StatusUnprocessableEntity, `{"detail":"estoque insuficiente"}`, apperror.IsStockError, "estoque insuficiente"},
		{"error key body", http.StatusBadRequest, `{"error":"payload ruim"}`, func(err error) bool {
			ae, ok := apperror.FromError(err)
			return ok && ae.StatusCode() == http.StatusBadRequest
		}, "payload ruim"},
		{"server error", http.StatusInternalServerError, ``, apperror.IsUpstreamError, "HTTP 500"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))

			_, err := client.Login(context.Background(), LoginPayload{Email: "x@y.z", Password: "p"})
			require.Error(t, err)
			assert.True(t, tc.check(err), "unexpected error type: %v", err)
			assert.Contains(t, err.Error(), tc.msg)
		})
	}
}

func TestLoginSuccess(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/auth/login", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"tok","token_type":"bearer","user":{"id":7,"email":"x@y.z","nome":"X"}}`))
	}))

	resp, err := client.Login(context.Background(), LoginPayload{Email: "x@y.z", Password: "p"})
	require.NoError(t, err)
	assert.Equal(t, "tok", resp.AccessToken)
	require.NotNil(t, resp.User)
	assert.Equal(t, int64(7), resp.User.ID)
}

func TestGetProfileSendsBearerToken(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":7,"email":"x@y.z","nome":"X"}`))
	}))

	user, err := client.GetProfile(context.Background(), "tok-123")
	require.NoError(t, err)
	assert.Equal(t, "x@y.z", user.Email)
}

func TestHealth(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok","message":"up"}`))
	}))

	status, err := client.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", status.Status)
}

func TestMockDatasetShape(t *testing.T) {
	products := MockProducts()
	require.Len(t, products, 10)

	soldOut := 0
	for _, p := range products {
		assert.NotEmpty(t, p.Name)
		assert.Positive(t, p.Price)
		if p.Stock == 0 {
			soldOut++
		}
	}
	// Exactly one product ships sold out.
	assert.Equal(t, 1, soldOut)
}
