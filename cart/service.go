// Package cart manages the shopping cart: lines, the stock ceiling, coupon
// totals and order confirmation. Availability is derived from the catalog's
// loaded stock minus the quantities held here; the product list itself is
// never mutated by cart activity.
package cart

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/user/lojinha-go/apperror"
	"github.com/user/lojinha-go/catalog"
	"github.com/user/lojinha-go/events"
	"github.com/user/lojinha-go/localstore"
	"github.com/user/lojinha-go/upstream"
)

// Service owns the cart state. Methods never call into the catalog while
// holding the cart mutex; products are resolved first, then the mutation runs
// under lock. That keeps the catalog-then-cart lock order the only one in the
// program.
type Service struct {
	catalog *catalog.Service
	client  *upstream.Client
	store   *localstore.Store
	bus     *events.Broadcaster
	logger  *zap.Logger

	couponCode     string
	couponDiscount float64

	mu     sync.RWMutex
	lines  []Line
	coupon string // applied coupon code, empty when none
}

// NewService creates the cart service and restores persisted lines from the
// store. A corrupt stored cart is logged and dropped rather than failing
// startup.
func NewService(cat *catalog.Service, client *upstream.Client, store *localstore.Store, bus *events.Broadcaster, couponCode string, couponDiscount float64, logger *zap.Logger) *Service {
	s := &Service{
		catalog:        cat,
		client:         client,
		store:          store,
		bus:            bus,
		logger:         logger,
		couponCode:     couponCode,
		couponDiscount: couponDiscount,
	}

	var lines []Line
	if err := store.GetJSON(localstore.KeyCart, &lines); err == nil {
		s.lines = lines
	} else if !errors.Is(err, localstore.ErrKeyNotFound) {
		logger.Warn("failed to restore cart from store", zap.Error(err))
	}
	return s
}

// Reserved reports how many units of a product the cart currently holds.
// It implements catalog.ReservationSource.
func (s *Service) Reserved(productID int64) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reservedLocked(productID)
}

func (s *Service) reservedLocked(productID int64) int {
	for _, line := range s.lines {
		if line.ProductID == productID {
			return line.Quantity
		}
	}
	return 0
}

// Lines returns a copy of the current cart lines.
func (s *Service) Lines() []Line {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Line, len(s.lines))
	copy(out, s.lines)
	return out
}

// ItemCount is the total quantity across all lines (the cart badge number).
func (s *Service) ItemCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, line := range s.lines {
		count += line.Quantity
	}
	return count
}

// Coupon returns the currently applied coupon code, empty when none.
func (s *Service) Coupon() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.coupon
}

// Add puts qty units of a product into the cart, incrementing an existing line
// or creating one. The quantity is ceiling-checked against derived
// availability; violations abort the operation with a user-facing message and
// leave the cart unchanged.
func (s *Service) Add(productID int64, qty int) error {
	if qty <= 0 {
		return apperror.NewValidationError("quantidade deve ser um inteiro positivo", nil)
	}

	product, ok := s.catalog.ProductByID(productID)
	if !ok {
		return apperror.NewNotFoundError("Produto não encontrado", nil)
	}
	if product.Stock == 0 {
		return apperror.NewStockError("Produto fora de estoque", nil)
	}

	s.mu.Lock()
	available := product.Stock - s.reservedLocked(productID)
	if qty > available {
		s.mu.Unlock()
		return apperror.NewStockError(fmt.Sprintf("Quantidade máxima disponível: %d", available), nil)
	}

	found := false
	for i := range s.lines {
		if s.lines[i].ProductID == productID {
			s.lines[i].Quantity += qty
			found = true
			break
		}
	}
	if !found {
		s.lines = append(s.lines, Line{
			ProductID: productID,
			Name:      product.Name,
			UnitPrice: product.Price,
			Quantity:  qty,
		})
	}
	s.persistLocked()
	s.mu.Unlock()

	s.bus.Publish(events.NewEvent(events.TypeCart, fmt.Sprintf("%s adicionado ao carrinho", product.Name)))
	return nil
}

// Remove deletes a product's line entirely; availability recovers by
// derivation since the reservation disappears with the line.
func (s *Service) Remove(productID int64) error {
	s.mu.Lock()
	var removed *Line
	for i := range s.lines {
		if s.lines[i].ProductID == productID {
			line := s.lines[i]
			removed = &line
			s.lines = append(s.lines[:i], s.lines[i+1:]...)
			break
		}
	}
	if removed == nil {
		s.mu.Unlock()
		return apperror.NewNotFoundError("item não está no carrinho", nil)
	}
	s.persistLocked()
	s.mu.Unlock()

	s.bus.Publish(events.NewEvent(events.TypeCart, fmt.Sprintf("%s removido do carrinho", removed.Name)))
	return nil
}

// UpdateQuantity sets a line to a new absolute quantity. Zero or negative
// delegates to Remove; increases are ceiling-checked against availability.
func (s *Service) UpdateQuantity(productID int64, newQty int) error {
	if newQty <= 0 {
		return s.Remove(productID)
	}

	product, ok := s.catalog.ProductByID(productID)
	if !ok {
		return apperror.NewNotFoundError("Produto não encontrado", nil)
	}

	s.mu.Lock()
	var line *Line
	for i := range s.lines {
		if s.lines[i].ProductID == productID {
			line = &s.lines[i]
			break
		}
	}
	if line == nil {
		s.mu.Unlock()
		return apperror.NewNotFoundError("item não está no carrinho", nil)
	}

	diff := newQty - line.Quantity
	if diff > 0 {
		available := product.Stock - s.reservedLocked(productID)
		if diff > available {
			s.mu.Unlock()
			return apperror.NewStockError(fmt.Sprintf("Quantidade máxima disponível: %d", available), nil)
		}
	}
	line.Quantity = newQty
	s.persistLocked()
	s.mu.Unlock()

	s.bus.Publish(events.NewEvent(events.TypeCart, fmt.Sprintf("Quantidade atualizada para %d", newQty)))
	return nil
}

// Totals computes subtotal, discount and total for the given coupon code. The
// one accepted code grants a flat discount; any other value grants none. All
// three figures are rounded half-up to two decimal places.
func (s *Service) Totals(coupon string) Totals {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.totalsLocked(coupon)
}

func (s *Service) totalsLocked(coupon string) Totals {
	subtotal := 0.0
	for _, line := range s.lines {
		subtotal += line.UnitPrice * float64(line.Quantity)
	}

	discount := 0.0
	if s.couponMatches(coupon) {
		discount = subtotal * s.couponDiscount
	}

	return Totals{
		Subtotal: round2(subtotal),
		Discount: round2(discount),
		Total:    round2(subtotal - discount),
	}
}

// couponMatches compares case-insensitively, like the backend does.
func (s *Service) couponMatches(coupon string) bool {
	return coupon != "" && strings.EqualFold(strings.TrimSpace(coupon), s.couponCode)
}

// ApplyCoupon validates a coupon code and remembers it on the cart. An invalid
// code is a validation error with the original feedback message.
func (s *Service) ApplyCoupon(code string) (Totals, error) {
	if !s.couponMatches(code) {
		return Totals{}, apperror.NewValidationError("Cupom inválido", nil)
	}

	s.mu.Lock()
	s.coupon = strings.ToUpper(strings.TrimSpace(code))
	totals := s.totalsLocked(s.coupon)
	s.mu.Unlock()

	s.bus.Publish(events.NewEvent(events.TypeSuccess,
		fmt.Sprintf("Cupom aplicado! %d%% de desconto", int(math.Round(s.couponDiscount*100)))))
	return totals, nil
}

// Confirm packages the cart into an order, attempts the backend call and, on
// any failure, completes the purchase locally with an offline marker. Only the
// snapshotted quantities are cleared afterwards; a line that lands while the
// confirmation round trip is in flight stays in the cart. An empty cart is
// rejected before any of that.
func (s *Service) Confirm(ctx context.Context) (*upstream.OrderResponse, error) {
	s.mu.RLock()
	lines := make([]Line, len(s.lines))
	copy(lines, s.lines)
	coupon := s.coupon
	s.mu.RUnlock()

	if len(lines) == 0 {
		return nil, apperror.NewBadRequestError("Seu carrinho está vazio. Adicione produtos antes de confirmar.", nil)
	}

	payload := upstream.OrderPayload{Items: make([]upstream.OrderItem, 0, len(lines))}
	for _, line := range lines {
		payload.Items = append(payload.Items, upstream.OrderItem{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
		})
	}
	if coupon != "" {
		payload.Coupon = &coupon
	}

	result, err := s.client.ConfirmOrder(ctx, payload)
	if err != nil {
		// Backend unreachable or rejected the order. The storefront completes
		// the purchase locally; the offline flag and this warning are what
		// keep the failure from being silently masked.
		s.logger.Warn("order confirmation failed, completing offline", zap.Error(err))
		result = s.offlineOrder(lines, coupon)
	}

	s.mu.Lock()
	s.clearOrderedLocked(lines)
	s.coupon = ""
	s.persistLocked()
	s.mu.Unlock()

	s.bus.Publish(events.NewEvent(events.TypeOrder, "Parabéns! Compra confirmada com sucesso!"))
	return result, nil
}

// clearOrderedLocked subtracts the ordered quantities from the current lines,
// dropping any line that reaches zero. Quantities added after the order
// snapshot was taken survive. Caller must hold s.mu.
func (s *Service) clearOrderedLocked(ordered []Line) {
	orderedQty := make(map[int64]int, len(ordered))
	for _, line := range ordered {
		orderedQty[line.ProductID] = line.Quantity
	}

	kept := s.lines[:0]
	for _, line := range s.lines {
		line.Quantity -= orderedQty[line.ProductID]
		if line.Quantity > 0 {
			kept = append(kept, line)
		}
	}
	if len(kept) == 0 {
		kept = nil
	}
	s.lines = kept
}

// offlineOrder builds the deterministic local substitute for a confirmed
// order, with totals computed the same way the backend would.
func (s *Service) offlineOrder(lines []Line, coupon string) *upstream.OrderResponse {
	items := make([]upstream.OrderResponseItem, 0, len(lines))
	subtotal := 0.0
	for _, line := range lines {
		lineSubtotal := line.UnitPrice * float64(line.Quantity)
		subtotal += lineSubtotal
		items = append(items, upstream.OrderResponseItem{
			ProductID: line.ProductID,
			Name:      line.Name,
			UnitPrice: line.UnitPrice,
			Quantity:  line.Quantity,
			Subtotal:  round2(lineSubtotal),
		})
	}

	discount := 0.0
	var couponUsed *string
	if s.couponMatches(coupon) {
		discount = subtotal * s.couponDiscount
		code := strings.ToUpper(strings.TrimSpace(coupon))
		couponUsed = &code
	}

	return &upstream.OrderResponse{
		ID:         "local-" + uuid.New().String(),
		Subtotal:   round2(subtotal),
		Discount:   round2(discount),
		Total:      round2(subtotal - discount),
		CouponUsed: couponUsed,
		Items:      items,
		Offline:    true,
	}
}

// persistLocked writes the cart through to the store. Caller must hold s.mu.
// Persistence failures are logged, not fatal: the in-memory cart stays
// authoritative for the session.
func (s *Service) persistLocked() {
	if err := s.store.PutJSON(localstore.KeyCart, s.lines); err != nil {
		s.logger.Error("failed to persist cart", zap.Error(err))
	}
}

// round2 rounds half away from zero to two decimal places, matching the
// original's toFixed(2).
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
