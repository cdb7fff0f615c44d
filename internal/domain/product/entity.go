// internal/domain/product/entity.go
package product

// Category groups artworks for browsing and filtering.
type Category struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Product is a single artwork listing. Stock is the purchase ceiling the
// cart clamps against; it is a point-in-time value and can go stale relative
// to the server.
type Product struct {
	ID          int64    `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Price       float64  `json:"price"`
	Stock       int      `json:"stock"`
	ArtistID    int64    `json:"artistId"`
	ArtistName  string   `json:"artistName"`
	Category    Category `json:"category"`
	ImageURL    string   `json:"imageUrl,omitempty"`
	CreatedAt   string   `json:"createdAt"`
	UpdatedAt   string   `json:"updatedAt"`
}
