package catalog

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/user/lojinha-go/apperror"
	"github.com/user/lojinha-go/auth"
	"github.com/user/lojinha-go/prefs"
)

// Handlers exposes the catalog over HTTP.
type Handlers struct {
	service *Service
}

// NewHandlers creates catalog Handlers.
func NewHandlers(service *Service) *Handlers {
	return &Handlers{service: service}
}

// HandleListProducts godoc
// @Summary List products
// @Description Returns the current page of the filtered, sorted catalog. Query parameters update the view configuration.
// @Tags Produtos
// @Produce json
// @Param search query string false "Substring match on name and description"
// @Param categoria query string false "Exact category match"
// @Param sort query string false "Sort field (nome, preco, categoria)"
// @Param order query string false "Sort order (asc, desc)"
// @Param page query int false "Page number"
// @Success 200 {object} catalog.ViewResponse
// @Router /produtos [get]
func (h *Handlers) HandleListProducts() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		var update ViewRequest
		if q.Has("search") {
			v := q.Get("search")
			update.Search = &v
		}
		if q.Has("categoria") {
			v := q.Get("categoria")
			update.Category = &v
		}
		if v := q.Get("sort"); v != "" {
			if !prefs.ValidSortField(v) {
				auth.WriteError(w, r, apperror.NewValidationError("campo de ordenação deve ser nome, preco ou categoria", nil))
				return
			}
			update.Sort = &v
		}
		if v := q.Get("order"); v != "" {
			if !prefs.ValidSortOrder(v) {
				auth.WriteError(w, r, apperror.NewValidationError("ordem deve ser asc ou desc", nil))
				return
			}
			update.Order = &v
		}
		if v := q.Get("page"); v != "" {
			page, err := strconv.Atoi(v)
			if err != nil || page < 1 {
				auth.WriteError(w, r, apperror.NewBadRequestError("page deve ser um inteiro positivo", err))
				return
			}
			update.Page = &page
		}

		auth.WriteJSON(w, http.StatusOK, h.service.Configure(update))
	}
}

// HandleGetProduct godoc
// @Summary Get one product
// @Tags Produtos
// @Produce json
// @Param id path int true "Product ID"
// @Success 200 {object} catalog.ProductView
// @Failure 404 {object} apperror.ErrorResponse
// @Router /produtos/{id} [get]
func (h *Handlers) HandleGetProduct() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			auth.WriteError(w, r, apperror.NewBadRequestError("id de produto inválido", err))
			return
		}

		product, ok := h.service.ProductByID(id)
		if !ok {
			auth.WriteError(w, r, apperror.NewNotFoundError("Produto não encontrado", nil))
			return
		}

		auth.WriteJSON(w, http.StatusOK, ProductView{
			Product:   product,
			Available: h.service.Available(id),
		})
	}
}

// HandleListCategories godoc
// @Summary List categories
// @Tags Produtos
// @Produce json
// @Success 200 {array} string
// @Router /categorias [get]
func (h *Handlers) HandleListCategories() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		auth.WriteJSON(w, http.StatusOK, h.service.Categories(r.Context()))
	}
}

// HandleSearch godoc
// @Summary Debounced search update
// @Description Schedules a search-term update after the configured quiet interval; the recomputed result count is announced on the event stream.
// @Tags Produtos
// @Accept json
// @Success 202 "Accepted"
// @Failure 400 {object} apperror.ErrorResponse
// @Router /catalogo/busca [put]
func (h *Handlers) HandleSearch() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SearchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			auth.WriteError(w, r, apperror.NewBadRequestError("invalid request body: "+err.Error(), nil))
			return
		}
		defer r.Body.Close()

		h.service.SearchDebounced(req.Term)
		w.WriteHeader(http.StatusAccepted)
	}
}

// HandleReload godoc
// @Summary Reload the catalog
// @Description Refetches the product list from the backend (or mock data) and recomputes the view. Admin only.
// @Tags Admin
// @Security BearerAuth
// @Success 204 "No Content"
// @Failure 401 {object} apperror.ErrorResponse
// @Failure 403 {object} apperror.ErrorResponse
// @Router /admin/catalogo/recarregar [post]
func (h *Handlers) HandleReload() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h.service.Load(r.Context()); err != nil {
			auth.WriteError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
