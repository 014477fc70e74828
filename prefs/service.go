// Package prefs persists user interface preferences: the color theme and the
// catalog sort order. Both survive restarts through the key-value store.
package prefs

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/user/lojinha-go/apperror"
	"github.com/user/lojinha-go/events"
	"github.com/user/lojinha-go/localstore"
)

// Theme values.
const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

var (
	validSortFields = map[string]bool{"nome": true, "preco": true, "categoria": true}
	validSortOrders = map[string]bool{"asc": true, "desc": true}
)

// SortPref is the persisted catalog ordering preference. This package owns the
// type and its validation; the catalog consumes it.
type SortPref struct {
	Field string `json:"field"`
	Order string `json:"order"`
}

// DefaultSort is the ordering used when nothing valid is stored.
func DefaultSort() SortPref {
	return SortPref{Field: "nome", Order: "asc"}
}

// ValidSortField reports whether field is an accepted sort field.
func ValidSortField(field string) bool {
	return validSortFields[field]
}

// ValidSortOrder reports whether order is an accepted sort direction.
func ValidSortOrder(order string) bool {
	return validSortOrders[order]
}

// Service owns preference state.
type Service struct {
	store  *localstore.Store
	bus    *events.Broadcaster
	logger *zap.Logger

	mu    sync.RWMutex
	theme string
}

// NewService creates the prefs service and restores the persisted theme.
// An unknown stored value falls back to light.
func NewService(store *localstore.Store, bus *events.Broadcaster, logger *zap.Logger) *Service {
	s := &Service{store: store, bus: bus, logger: logger, theme: ThemeLight}

	theme, err := store.Get(localstore.KeyTheme)
	switch {
	case err == nil && (theme == ThemeLight || theme == ThemeDark):
		s.theme = theme
	case err != nil && !errors.Is(err, localstore.ErrKeyNotFound):
		logger.Warn("failed to restore theme", zap.Error(err))
	}
	return s
}

// Theme returns the current theme.
func (s *Service) Theme() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.theme
}

// SetTheme switches to an explicit theme value.
func (s *Service) SetTheme(theme string) error {
	if theme != ThemeLight && theme != ThemeDark {
		return apperror.NewValidationError("tema deve ser light ou dark", nil)
	}
	s.applyTheme(theme)
	return nil
}

// ToggleTheme flips between light and dark and returns the new value.
func (s *Service) ToggleTheme() string {
	s.mu.RLock()
	current := s.theme
	s.mu.RUnlock()

	next := ThemeDark
	if current == ThemeDark {
		next = ThemeLight
	}
	s.applyTheme(next)
	return next
}

func (s *Service) applyTheme(theme string) {
	s.mu.Lock()
	s.theme = theme
	s.mu.Unlock()

	if err := s.store.Put(localstore.KeyTheme, theme); err != nil {
		s.logger.Error("failed to persist theme", zap.Error(err))
	}

	label := "claro"
	if theme == ThemeDark {
		label = "escuro"
	}
	s.bus.Publish(events.NewEvent(events.TypeTheme, fmt.Sprintf("Tema alterado para %s", label)))
}

// Sort returns the persisted sort preference, or the default nome/asc when
// none is stored.
func (s *Service) Sort() SortPref {
	var pref SortPref
	if err := s.store.GetJSON(localstore.KeySortPref, &pref); err != nil {
		if !errors.Is(err, localstore.ErrKeyNotFound) {
			s.logger.Warn("failed to restore sort preference", zap.Error(err))
		}
		return DefaultSort()
	}
	if !ValidSortField(pref.Field) || !ValidSortOrder(pref.Order) {
		return DefaultSort()
	}
	return pref
}

// SetSort validates and persists the sort preference. The catalog reads the
// same key, so the stored value drives both surfaces.
func (s *Service) SetSort(pref SortPref) error {
	if !ValidSortField(pref.Field) {
		return apperror.NewValidationError("campo de ordenação deve ser nome, preco ou categoria", nil)
	}
	if !ValidSortOrder(pref.Order) {
		return apperror.NewValidationError("ordem deve ser asc ou desc", nil)
	}
	if err := s.store.PutJSON(localstore.KeySortPref, pref); err != nil {
		return apperror.NewStorageError("failed to persist sort preference", err)
	}
	return nil
}
