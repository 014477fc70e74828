package cart

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/user/lojinha-go/apperror"
	"github.com/user/lojinha-go/catalog"
	"github.com/user/lojinha-go/config"
	"github.com/user/lojinha-go/events"
	"github.com/user/lojinha-go/localstore"
	"github.com/user/lojinha-go/upstream"
)

func newTestCart(t *testing.T) (*Service, *localstore.Store) {
	t.Helper()

	store, err := localstore.Open(":memory:", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	client := upstream.NewClient(&config.UpstreamConfig{
		BaseURL:  "http://localhost:0",
		Timeout:  time.Second,
		MockMode: true,
	}, zap.NewNop())
	bus := events.NewBroadcaster(zap.NewNop())

	catalogSvc := catalog.NewService(client, store, bus, 9, 0, zap.NewNop())
	require.NoError(t, catalogSvc.Load(context.Background()))

	cartSvc := NewService(catalogSvc, client, store, bus, "ALUNO10", 0.10, zap.NewNop())
	catalogSvc.SetReservations(cartSvc)
	return cartSvc, store
}

func TestAddCreatesAndIncrementsLine(t *testing.T) {
	svc, _ := newTestCart(t)

	require.NoError(t, svc.Add(1, 2))
	require.NoError(t, svc.Add(1, 1))

	lines := svc.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, 3, lines[0].Quantity)
	assert.Equal(t, "Matemática - 6º Ano", lines[0].Name)
	assert.Equal(t, 3, svc.ItemCount())
}

func TestAddRejectsNonPositiveQuantity(t *testing.T) {
	svc, _ := newTestCart(t)

	err := svc.Add(1, 0)
	assert.True(t, apperror.IsValidationError(err))

	err = svc.Add(1, -2)
	assert.True(t, apperror.IsValidationError(err))
	assert.Empty(t, svc.Lines())
}

func TestAddRejectsUnknownProduct(t *testing.T) {
	svc, _ := newTestCart(t)

	err := svc.Add(999, 1)
	assert.True(t, apperror.IsNotFound(err))
}

func TestAddRejectsSoldOutProduct(t *testing.T) {
	svc, _ := newTestCart(t)

	// Product 9 ships with zero stock.
	err := svc.Add(9, 1)
	require.True(t, apperror.IsStockError(err))
	assert.Contains(t, err.Error(), "fora de estoque")
}

func TestAddEnforcesStockCeiling(t *testing.T) {
	svc, _ := newTestCart(t)

	// Tablet (id 4) has stock 8. Five in the cart leaves three available.
	require.NoError(t, svc.Add(4, 5))

	err := svc.Add(4, 4)
	require.True(t, apperror.IsStockError(err))
	assert.Contains(t, err.Error(), "Quantidade máxima disponível: 3")

	// The failed add changed nothing.
	assert.Equal(t, 5, svc.Reserved(4))

	// Exactly the remaining three is fine.
	require.NoError(t, svc.Add(4, 3))
	assert.Equal(t, 8, svc.Reserved(4))
}

func TestRemoveRestoresAvailability(t *testing.T) {
	svc, _ := newTestCart(t)

	require.NoError(t, svc.Add(4, 8))
	assert.Equal(t, 8, svc.Reserved(4))

	require.NoError(t, svc.Remove(4))
	assert.Equal(t, 0, svc.Reserved(4))

	// Full quantity can be added again.
	assert.NoError(t, svc.Add(4, 8))
}

func TestRemoveMissingLine(t *testing.T) {
	svc, _ := newTestCart(t)

	err := svc.Remove(4)
	assert.True(t, apperror.IsNotFound(err))
}

func TestUpdateQuantity(t *testing.T) {
	svc, _ := newTestCart(t)
	require.NoError(t, svc.Add(4, 2))

	t.Run("increase within stock", func(t *testing.T) {
		require.NoError(t, svc.UpdateQuantity(4, 6))
		assert.Equal(t, 6, svc.Reserved(4))
	})

	t.Run("increase past stock fails", func(t *testing.T) {
		err := svc.UpdateQuantity(4, 9)
		require.True(t, apperror.IsStockError(err))
		assert.Equal(t, 6, svc.Reserved(4))
	})

	t.Run("decrease", func(t *testing.T) {
		require.NoError(t, svc.UpdateQuantity(4, 1))
		assert.Equal(t, 1, svc.Reserved(4))
	})

	t.Run("zero removes the line", func(t *testing.T) {
		require.NoError(t, svc.UpdateQuantity(4, 0))
		assert.Empty(t, svc.Lines())
	})
}

func TestTotalsWithoutCoupon(t *testing.T) {
	svc, _ := newTestCart(t)

	require.NoError(t, svc.Add(1, 2)) // 2 x 89.90
	require.NoError(t, svc.Add(2, 1)) // 1 x 42.90

	totals := svc.Totals("")
	assert.InDelta(t, 222.70, totals.Subtotal, 0.001)
	assert.Zero(t, totals.Discount)
	assert.InDelta(t, 222.70, totals.Total, 0.001)
}

func TestTotalsWithCoupon(t *testing.T) {
	svc, _ := newTestCart(t)

	require.NoError(t, svc.Add(1, 2)) // subtotal 179.80

	totals := svc.Totals("ALUNO10")
	assert.InDelta(t, 179.80, totals.Subtotal, 0.001)
	assert.InDelta(t, 17.98, totals.Discount, 0.001)
	assert.InDelta(t, 161.82, totals.Total, 0.001)
}

func TestCouponIsCaseInsensitive(t *testing.T) {
	svc, _ := newTestCart(t)
	require.NoError(t, svc.Add(1, 1))

	assert.NotZero(t, svc.Totals("aluno10").Discount)
	assert.NotZero(t, svc.Totals(" Aluno10 ").Discount)
	assert.Zero(t, svc.Totals("ALUNO20").Discount)
}

func TestApplyCoupon(t *testing.T) {
	svc, _ := newTestCart(t)
	require.NoError(t, svc.Add(1, 1))

	totals, err := svc.ApplyCoupon("aluno10")
	require.NoError(t, err)
	assert.NotZero(t, totals.Discount)
	assert.Equal(t, "ALUNO10", svc.Coupon())
}

func TestApplyInvalidCoupon(t *testing.T) {
	svc, _ := newTestCart(t)

	_, err := svc.ApplyCoupon("DESCONTO50")
	require.True(t, apperror.IsValidationError(err))
	assert.Contains(t, err.Error(), "Cupom inválido")
	assert.Empty(t, svc.Coupon())
}

func TestConfirmEmptyCart(t *testing.T) {
	svc, _ := newTestCart(t)

	_, err := svc.Confirm(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "carrinho está vazio")
}

func TestConfirmOfflineCompletesAndClears(t *testing.T) {
	svc, store := newTestCart(t)

	require.NoError(t, svc.Add(1, 2))
	_, err := svc.ApplyCoupon("ALUNO10")
	require.NoError(t, err)

	// Mock mode means the backend is unreachable; confirmation completes
	// locally and says so.
	order, err := svc.Confirm(context.Background())
	require.NoError(t, err)
	assert.True(t, order.Offline)
	assert.True(t, strings.HasPrefix(order.ID, "local-"))
	assert.InDelta(t, 179.80, order.Subtotal, 0.001)
	assert.InDelta(t, 17.98, order.Discount, 0.001)
	assert.InDelta(t, 161.82, order.Total, 0.001)
	require.NotNil(t, order.CouponUsed)
	assert.Equal(t, "ALUNO10", *order.CouponUsed)
	require.Len(t, order.Items, 1)
	assert.Equal(t, 2, order.Items[0].Quantity)

	// Cart is emptied in memory and in the store.
	assert.Empty(t, svc.Lines())
	assert.Empty(t, svc.Coupon())
	var persisted []Line
	require.NoError(t, store.GetJSON(localstore.KeyCart, &persisted))
	assert.Empty(t, persisted)
}

func TestCartPersistsAcrossServices(t *testing.T) {
	svc, store := newTestCart(t)
	require.NoError(t, svc.Add(4, 3))

	client := upstream.NewClient(&config.UpstreamConfig{
		BaseURL:  "http://localhost:0",
		Timeout:  time.Second,
		MockMode: true,
	}, zap.NewNop())
	bus := events.NewBroadcaster(zap.NewNop())
	catalogSvc := catalog.NewService(client, store, bus, 9, 0, zap.NewNop())
	require.NoError(t, catalogSvc.Load(context.Background()))

	restored := NewService(catalogSvc, client, store, bus, "ALUNO10", 0.10, zap.NewNop())
	assert.Equal(t, 3, restored.Reserved(4))
}

func TestAddPublishesCartEvent(t *testing.T) {
	store, err := localstore.Open(":memory:", zap.NewNop())
	require.NoError(t, err)
	defer store.Close()

	client := upstream.NewClient(&config.UpstreamConfig{
		BaseURL:  "http://localhost:0",
		Timeout:  time.Second,
		MockMode: true,
	}, zap.NewNop())
	bus := events.NewBroadcaster(zap.NewNop())
	_, ch := bus.Subscribe()

	catalogSvc := catalog.NewService(client, store, bus, 9, 0, zap.NewNop())
	require.NoError(t, catalogSvc.Load(context.Background()))
	svc := NewService(catalogSvc, client, store, bus, "ALUNO10", 0.10, zap.NewNop())

	require.NoError(t, svc.Add(1, 1))

	event := <-ch
	assert.Equal(t, events.TypeCart, event.Type)
	assert.Contains(t, event.Message, "adicionado ao carrinho")
}

func TestConfirmClearsOnlyOrderedLines(t *testing.T) {
	store, err := localstore.Open(":memory:", zap.NewNop())
	require.NoError(t, err)
	defer store.Close()

	// The stub backend drops a new line into the cart while the confirmation
	// round trip is in flight, then answers the order.
	var svc *Service
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/carrinho/confirmar" {
			http.NotFound(w, r)
			return
		}
		require.NoError(t, svc.Add(2, 1))
		_ = json.NewEncoder(w).Encode(upstream.OrderResponse{ID: "pedido-42"})
	}))
	defer backend.Close()

	client := upstream.NewClient(&config.UpstreamConfig{
		BaseURL: backend.URL,
		Timeout: time.Second,
	}, zap.NewNop())
	bus := events.NewBroadcaster(zap.NewNop())
	catalogSvc := catalog.NewService(client, store, bus, 9, 0, zap.NewNop())
	require.NoError(t, catalogSvc.Load(context.Background()))
	svc = NewService(catalogSvc, client, store, bus, "ALUNO10", 0.10, zap.NewNop())
	catalogSvc.SetReservations(svc)

	require.NoError(t, svc.Add(1, 2))

	result, err := svc.Confirm(context.Background())
	require.NoError(t, err)
	assert.False(t, result.Offline)
	assert.Equal(t, "pedido-42", result.ID)

	// The ordered line is gone; the one added mid-flight survives.
	lines := svc.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, int64(2), lines[0].ProductID)
	assert.Equal(t, 1, lines[0].Quantity)

	var stored []Line
	require.NoError(t, store.GetJSON(localstore.KeyCart, &stored))
	require.Len(t, stored, 1)
	assert.Equal(t, int64(2), stored[0].ProductID)
}
