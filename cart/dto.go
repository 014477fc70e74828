package cart

// AddItemRequest is the body of POST /carrinho/itens.
type AddItemRequest struct {
	ProductID int64 `json:"produto_id" validate:"required,min=1"`
	Quantity  int   `json:"quantidade" validate:"required,min=1"`
}

// UpdateItemRequest is the body of PUT /carrinho/itens/{id}. A quantity of
// zero removes the line.
type UpdateItemRequest struct {
	Quantity int `json:"quantidade" validate:"min=0"`
}

// ApplyCouponRequest is the body of POST /carrinho/cupom.
type ApplyCouponRequest struct {
	Code string `json:"cupom" validate:"required"`
}

// CartResponse is the full cart view: lines, item count and totals computed
// for the applied (or query-supplied) coupon.
type CartResponse struct {
	Items     []Line `json:"itens"`
	ItemCount int    `json:"total_itens"`
	Coupon    string `json:"cupom,omitempty"`
	Totals
}
