// internal/domain/product/dto.go
package product

// ListParams selects a page of products.
type ListParams struct {
	Page     *int
	Size     *int
	Category *int64
	Sort     string
}

// CreateRequest is the artist-dashboard payload for a new listing.
type CreateRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Stock       int     `json:"stock"`
	CategoryID  int64   `json:"categoryId"`
	ImageURL    string  `json:"imageUrl,omitempty"`
}

// UpdateRequest carries the mutable listing fields.
type UpdateRequest struct {
	Title       string   `json:"title,omitempty"`
	Description string   `json:"description,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	Stock       *int     `json:"stock,omitempty"`
	CategoryID  *int64   `json:"categoryId,omitempty"`
	ImageURL    string   `json:"imageUrl,omitempty"`
}
