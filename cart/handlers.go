package cart

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/user/lojinha-go/apperror"
	"github.com/user/lojinha-go/auth"
)

// Handlers exposes the cart over HTTP.
type Handlers struct {
	service  *Service
	validate *validator.Validate
}

// NewHandlers creates cart Handlers.
func NewHandlers(service *Service) *Handlers {
	return &Handlers{service: service, validate: validator.New()}
}

func (h *Handlers) cartResponse(coupon string) CartResponse {
	return CartResponse{
		Items:     h.service.Lines(),
		ItemCount: h.service.ItemCount(),
		Coupon:    coupon,
		Totals:    h.service.Totals(coupon),
	}
}

// HandleGetCart godoc
// @Summary Get the cart
// @Description Returns lines, item count and totals. An optional cupom query parameter previews totals for a code without applying it.
// @Tags Carrinho
// @Produce json
// @Param cupom query string false "Coupon code to compute totals with"
// @Success 200 {object} cart.CartResponse
// @Router /carrinho [get]
func (h *Handlers) HandleGetCart() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		coupon := r.URL.Query().Get("cupom")
		if coupon == "" {
			coupon = h.service.Coupon()
		}
		auth.WriteJSON(w, http.StatusOK, h.cartResponse(coupon))
	}
}

// HandleAddItem godoc
// @Summary Add a product to the cart
// @Tags Carrinho
// @Accept json
// @Produce json
// @Param request body cart.AddItemRequest true "Product and quantity"
// @Success 201 {object} cart.CartResponse
// @Failure 404 {object} apperror.ErrorResponse
// @Failure 422 {object} apperror.ErrorResponse
// @Router /carrinho/itens [post]
func (h *Handlers) HandleAddItem() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AddItemRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			auth.WriteError(w, r, apperror.NewBadRequestError("invalid request body: "+err.Error(), nil))
			return
		}
		if err := h.validate.Struct(req); err != nil {
			auth.WriteError(w, r, apperror.NewValidationError("validation failed: "+err.Error(), err))
			return
		}

		if err := h.service.Add(req.ProductID, req.Quantity); err != nil {
			auth.WriteError(w, r, err)
			return
		}
		auth.WriteJSON(w, http.StatusCreated, h.cartResponse(h.service.Coupon()))
	}
}

// HandleUpdateItem godoc
// @Summary Set a cart line's quantity
// @Description Sets the absolute quantity for a line. Zero removes the line.
// @Tags Carrinho
// @Accept json
// @Produce json
// @Param id path int true "Product ID"
// @Param request body cart.UpdateItemRequest true "New quantity"
// @Success 200 {object} cart.CartResponse
// @Failure 404 {object} apperror.ErrorResponse
// @Failure 422 {object} apperror.ErrorResponse
// @Router /carrinho/itens/{id} [put]
func (h *Handlers) HandleUpdateItem() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			auth.WriteError(w, r, apperror.NewBadRequestError("id de produto inválido", err))
			return
		}

		var req UpdateItemRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			auth.WriteError(w, r, apperror.NewBadRequestError("invalid request body: "+err.Error(), nil))
			return
		}
		if req.Quantity < 0 {
			auth.WriteError(w, r, apperror.NewValidationError("quantidade não pode ser negativa", nil))
			return
		}

		if err := h.service.UpdateQuantity(id, req.Quantity); err != nil {
			auth.WriteError(w, r, err)
			return
		}
		auth.WriteJSON(w, http.StatusOK, h.cartResponse(h.service.Coupon()))
	}
}

// HandleRemoveItem godoc
// @Summary Remove a product from the cart
// @Tags Carrinho
// @Produce json
// @Param id path int true "Product ID"
// @Success 200 {object} cart.CartResponse
// @Failure 404 {object} apperror.ErrorResponse
// @Router /carrinho/itens/{id} [delete]
func (h *Handlers) HandleRemoveItem() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			auth.WriteError(w, r, apperror.NewBadRequestError("id de produto inválido", err))
			return
		}

		if err := h.service.Remove(id); err != nil {
			auth.WriteError(w, r, err)
			return
		}
		auth.WriteJSON(w, http.StatusOK, h.cartResponse(h.service.Coupon()))
	}
}

// HandleApplyCoupon godoc
// @Summary Apply a coupon
// @Tags Carrinho
// @Accept json
// @Produce json
// @Param request body cart.ApplyCouponRequest true "Coupon code"
// @Success 200 {object} cart.Totals
// @Failure 400 {object} apperror.ErrorResponse
// @Router /carrinho/cupom [post]
func (h *Handlers) HandleApplyCoupon() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ApplyCouponRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			auth.WriteError(w, r, apperror.NewBadRequestError("invalid request body: "+err.Error(), nil))
			return
		}
		if err := h.validate.Struct(req); err != nil {
			auth.WriteError(w, r, apperror.NewValidationError("validation failed: "+err.Error(), err))
			return
		}

		totals, err := h.service.ApplyCoupon(req.Code)
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}
		auth.WriteJSON(w, http.StatusOK, totals)
	}
}

// HandleConfirm godoc
// @Summary Confirm the order
// @Description Sends the cart to the backend. When the backend is unavailable the order completes locally and carries offline=true. The cart is cleared either way.
// @Tags Carrinho
// @Produce json
// @Success 201 {object} upstream.OrderResponse
// @Failure 400 {object} apperror.ErrorResponse
// @Router /carrinho/confirmar [post]
func (h *Handlers) HandleConfirm() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		order, err := h.service.Confirm(r.Context())
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}
		auth.WriteJSON(w, http.StatusCreated, order)
	}
}
