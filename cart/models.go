package cart

// Line is one product's aggregated quantity within the active cart. The unit
// price is a snapshot taken when the product was first added; the JSON keys
// match the shape the original storefront persisted, so an old stored cart
// still loads.
type Line struct {
	ProductID int64   `json:"productId"`
	Name      string  `json:"nome"`
	UnitPrice float64 `json:"preco"`
	Quantity  int     `json:"quantity"`
}

// Totals are the computed cart totals, each rounded to two decimal places.
type Totals struct {
	Subtotal float64 `json:"subtotal"`
	Discount float64 `json:"desconto"`
	Total    float64 `json:"total"`
}
