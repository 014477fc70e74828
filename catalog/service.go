// Package catalog holds the product list and the derived filtered, sorted and
// paginated view of it that the storefront presents. The full list is loaded
// once at startup from the backend (or the embedded mock data) and the view is
// recomputed whenever search text, category, sort key or page changes.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/user/lojinha-go/apperror"
	"github.com/user/lojinha-go/events"
	"github.com/user/lojinha-go/localstore"
	"github.com/user/lojinha-go/prefs"
	"github.com/user/lojinha-go/upstream"
)

// ReservationSource reports how many units of a product are currently held in
// the cart. Availability shown on product cards is derived from it, the
// product's own stock count is never mutated by cart activity.
type ReservationSource interface {
	Reserved(productID int64) int
}

// Filters is the current view configuration.
type Filters struct {
	Search   string
	Category string
	Sort     string
	Order    string
}

// Service owns the product list and its derived view.
type Service struct {
	client *upstream.Client
	store  *localstore.Store
	bus    *events.Broadcaster
	logger *zap.Logger

	mu       sync.RWMutex
	products []upstream.Product
	filtered []upstream.Product
	filters  Filters
	page     int
	pageSize int

	reservations ReservationSource
	debouncer    *debouncer
}

// NewService creates a catalog service. The sort preference is restored from
// the store; a missing or corrupt preference falls back to name ascending.
func NewService(client *upstream.Client, store *localstore.Store, bus *events.Broadcaster, pageSize int, searchDebounce time.Duration, logger *zap.Logger) *Service {
	def := prefs.DefaultSort()
	s := &Service{
		client:   client,
		store:    store,
		bus:      bus,
		logger:   logger,
		filters:  Filters{Sort: def.Field, Order: def.Order},
		page:     1,
		pageSize: pageSize,
	}
	s.debouncer = newDebouncer(searchDebounce)

	var pref prefs.SortPref
	if err := store.GetJSON(localstore.KeySortPref, &pref); err == nil {
		if prefs.ValidSortField(pref.Field) && prefs.ValidSortOrder(pref.Order) {
			s.filters.Sort = pref.Field
			s.filters.Order = pref.Order
		}
	} else if !errors.Is(err, localstore.ErrKeyNotFound) {
		logger.Warn("failed to restore sort preference", zap.Error(err))
	}
	return s
}

// SetReservations wires in the cart's reservation view. Done after
// construction because the cart service itself needs the catalog.
func (s *Service) SetReservations(r ReservationSource) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reservations = r
}

// Load fetches the product list from the backend (or mock data) and recomputes
// the view. Called at startup and again on an admin-triggered reload; a failure
// leaves the previous list in place and is surfaced to the caller.
func (s *Service) Load(ctx context.Context) error {
	products, err := s.client.FetchProducts(ctx, upstream.Filters{})
	if err != nil {
		return apperror.NewUpstreamError("Erro ao carregar produtos. Verifique sua conexão.", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.products = products
	s.applyFiltersLocked()
	s.logger.Info("catalog loaded", zap.Int("products", len(products)))
	return nil
}

// Categories lists the distinct categories, preferring the backend's answer
// and falling back to the categories present in the loaded list.
func (s *Service) Categories(ctx context.Context) []string {
	if categories, err := s.client.FetchCategories(ctx); err == nil && len(categories) > 0 {
		return categories
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[string]bool)
	var categories []string
	for _, p := range s.products {
		if p.Category != "" && !seen[p.Category] {
			seen[p.Category] = true
			categories = append(categories, p.Category)
		}
	}
	sort.Strings(categories)
	return categories
}

// ProductByID looks a product up in the loaded list.
func (s *Service) ProductByID(id int64) (upstream.Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.products {
		if p.ID == id {
			return p, true
		}
	}
	return upstream.Product{}, false
}

// Available derives the remaining stock of a product: its loaded stock minus
// whatever the cart currently holds.
func (s *Service) Available(productID int64) int {
	p, ok := s.ProductByID(productID)
	if !ok {
		return 0
	}
	return s.availableOf(p)
}

func (s *Service) availableOf(p upstream.Product) int {
	reserved := 0
	s.mu.RLock()
	r := s.reservations
	s.mu.RUnlock()
	if r != nil {
		reserved = r.Reserved(p.ID)
	}
	available := p.Stock - reserved
	if available < 0 {
		available = 0
	}
	return available
}

// Configure applies a partial filter update immediately and returns the new
// view. Empty strings leave the corresponding filter untouched except for
// search and category, which are cleared by an explicit empty value when
// present is true for them.
func (s *Service) Configure(update ViewRequest) ViewResponse {
	s.mu.Lock()
	if update.Search != nil {
		s.filters.Search = *update.Search
		s.page = 1
	}
	if update.Category != nil {
		s.filters.Category = *update.Category
		s.page = 1
	}
	if update.Sort != nil && *update.Sort != "" {
		s.filters.Sort = *update.Sort
		if update.Order != nil && *update.Order != "" {
			s.filters.Order = *update.Order
		}
		s.persistSortLocked()
	} else if update.Order != nil && *update.Order != "" {
		s.filters.Order = *update.Order
		s.persistSortLocked()
	}
	if update.Page != nil && *update.Page >= 1 {
		s.page = *update.Page
	}
	s.applyFiltersLocked()
	s.mu.Unlock()
	return s.View()
}

// SearchDebounced schedules a search-term update after the configured quiet
// interval, superseding any pending one. The recomputed result count is
// announced on the event stream once it lands.
func (s *Service) SearchDebounced(term string) {
	s.debouncer.trigger(func() {
		s.mu.Lock()
		s.filters.Search = term
		s.page = 1
		s.applyFiltersLocked()
		count := len(s.filtered)
		s.mu.Unlock()

		message := fmt.Sprintf("%d produtos encontrados", count)
		if term != "" {
			message = fmt.Sprintf("%d produtos encontrados para %q", count, term)
		}
		s.bus.Publish(events.NewEvent(events.TypeInfo, message))
	})
}

// View renders the current page of the filtered list with derived availability.
func (s *Service) View() ViewResponse {
	s.mu.RLock()
	defer s.mu.RUnlock()

	totalPages := int(math.Ceil(float64(len(s.filtered)) / float64(s.pageSize)))
	if totalPages < 1 {
		totalPages = 1
	}
	page := s.page
	if page > totalPages {
		page = totalPages
	}

	start := (page - 1) * s.pageSize
	end := start + s.pageSize
	if start > len(s.filtered) {
		start = len(s.filtered)
	}
	if end > len(s.filtered) {
		end = len(s.filtered)
	}

	items := make([]ProductView, 0, end-start)
	for _, p := range s.filtered[start:end] {
		items = append(items, ProductView{
			Product:   p,
			Available: s.availableLockedOf(p),
		})
	}

	return ViewResponse{
		Items:      items,
		Total:      len(s.filtered),
		Page:       page,
		TotalPages: totalPages,
		PageSize:   s.pageSize,
		Search:     s.filters.Search,
		Category:   s.filters.Category,
		Sort:       s.filters.Sort,
		Order:      s.filters.Order,
	}
}

// availableLockedOf derives availability while s.mu is already held (read).
func (s *Service) availableLockedOf(p upstream.Product) int {
	reserved := 0
	if s.reservations != nil {
		reserved = s.reservations.Reserved(p.ID)
	}
	available := p.Stock - reserved
	if available < 0 {
		available = 0
	}
	return available
}

// applyFiltersLocked recomputes the filtered/sorted list and clamps the page.
// Caller must hold s.mu.
func (s *Service) applyFiltersLocked() {
	filtered := make([]upstream.Product, 0, len(s.products))

	search := strings.ToLower(strings.TrimSpace(s.filters.Search))
	for _, p := range s.products {
		if search != "" &&
			!strings.Contains(strings.ToLower(p.Name), search) &&
			!strings.Contains(strings.ToLower(p.Description), search) {
			continue
		}
		if s.filters.Category != "" && p.Category != s.filters.Category {
			continue
		}
		filtered = append(filtered, p)
	}

	field := s.filters.Sort
	desc := s.filters.Order == "desc"
	sort.SliceStable(filtered, func(i, j int) bool {
		var less bool
		switch field {
		case "preco":
			less = filtered[i].Price < filtered[j].Price
		case "categoria":
			less = strings.ToLower(filtered[i].Category) < strings.ToLower(filtered[j].Category)
		default: // nome
			less = strings.ToLower(filtered[i].Name) < strings.ToLower(filtered[j].Name)
		}
		if desc {
			return !less && !s.equalField(filtered[i], filtered[j], field)
		}
		return less
	})

	s.filtered = filtered

	totalPages := int(math.Ceil(float64(len(filtered)) / float64(s.pageSize)))
	if totalPages < 1 {
		totalPages = 1
	}
	if s.page > totalPages {
		s.page = totalPages
	}
	if s.page < 1 {
		s.page = 1
	}
}

// equalField keeps descending sorts stable for equal keys.
func (s *Service) equalField(a, b upstream.Product, field string) bool {
	switch field {
	case "preco":
		return a.Price == b.Price
	case "categoria":
		return strings.EqualFold(a.Category, b.Category)
	default:
		return strings.EqualFold(a.Name, b.Name)
	}
}

// persistSortLocked writes the sort preference through to the store.
// Caller must hold s.mu.
func (s *Service) persistSortLocked() {
	pref := prefs.SortPref{Field: s.filters.Sort, Order: s.filters.Order}
	if err := s.store.PutJSON(localstore.KeySortPref, pref); err != nil {
		s.logger.Warn("failed to persist sort preference", zap.Error(err))
	}
}
