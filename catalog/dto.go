package catalog

import "github.com/user/lojinha-go/upstream"

// ProductView is a product as presented on the storefront: the loaded product
// plus its derived availability (stock minus cart reservations).
type ProductView struct {
	upstream.Product
	Available int `json:"estoque_disponivel"`
}

// ViewRequest is a partial update of the catalog view configuration.
// Nil fields leave the corresponding setting untouched; a pointer to an empty
// string clears search or category.
type ViewRequest struct {
	Search   *string `json:"search,omitempty"`
	Category *string `json:"categoria,omitempty"`
	Sort     *string `json:"sort,omitempty"`
	Order    *string `json:"order,omitempty"`
	Page     *int    `json:"page,omitempty"`
}

// SearchRequest is the body of the debounced search endpoint.
type SearchRequest struct {
	Term string `json:"termo"`
}

// ViewResponse is one page of the filtered catalog plus pagination metadata.
type ViewResponse struct {
	Items      []ProductView `json:"items"`
	Total      int           `json:"total"`
	Page       int           `json:"page"`
	TotalPages int           `json:"total_pages"`
	PageSize   int           `json:"page_size"`
	Search     string        `json:"search,omitempty"`
	Category   string        `json:"categoria,omitempty"`
	Sort       string        `json:"sort"`
	Order      string        `json:"order"`
}
