// internal/domain/cart/entity.go
package cart

import (
	"encoding/json"

	"kalakriti-client/internal/domain/product"
)

// Line is one cart entry: a denormalized product snapshot plus a quantity.
// The snapshot is NOT a live reference; price and stock can go stale relative
// to the server between add-to-cart and checkout.
type Line struct {
	Product  product.Product `json:"product"`
	Quantity int             `json:"quantity"`
}

// The persisted snapshot shape has changed across versions of the storefront,
// so restoring goes through a loose intermediate form that accepts the legacy
// field names and fills in what it can.
type rawArtist struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
}

type rawCategory struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type rawProduct struct {
	ID            int64        `json:"id"`
	Title         string       `json:"title"`
	Name          string       `json:"name"` // legacy alias for Title
	Description   string       `json:"description"`
	Price         *float64     `json:"price"`
	Amount        *float64     `json:"amount"` // legacy alias for Price
	Stock         *int         `json:"stock"`
	StockQuantity *int         `json:"stockQuantity"` // legacy alias for Stock
	ArtistID      int64        `json:"artistId"`
	ArtistName    string       `json:"artistName"`
	Artist        *rawArtist   `json:"artist"`
	CategoryID    int64        `json:"categoryId"`
	CategoryName  string       `json:"categoryName"`
	Category      *rawCategory `json:"category"`
	ImageURL      string       `json:"imageUrl"`
	CreatedAt     string       `json:"createdAt"`
	UpdatedAt     string       `json:"updatedAt"`
}

type rawLine struct {
	Product  *rawProduct `json:"product"`
	Quantity *int        `json:"quantity"`
}

func (r *rawProduct) normalize() product.Product {
	p := product.Product{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		ArtistID:    r.ArtistID,
		ArtistName:  r.ArtistName,
		ImageURL:    r.ImageURL,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}

	if p.Title == "" {
		p.Title = r.Name
	}

	if r.Price != nil {
		p.Price = *r.Price
	} else if r.Amount != nil {
		p.Price = *r.Amount
	}

	if r.Stock != nil {
		p.Stock = *r.Stock
	} else if r.StockQuantity != nil {
		p.Stock = *r.StockQuantity
	}

	if r.Artist != nil {
		if p.ArtistID == 0 {
			p.ArtistID = r.Artist.ID
		}
		if p.ArtistName == "" {
			p.ArtistName = r.Artist.Name
		}
		if p.ArtistName == "" {
			p.ArtistName = r.Artist.Username
		}
	}

	p.Category = product.Category{ID: r.CategoryID, Name: r.CategoryName}
	if r.Category != nil {
		if p.Category.ID == 0 {
			p.Category.ID = r.Category.ID
		}
		if p.Category.Name == "" {
			p.Category.Name = r.Category.Name
		}
	}

	return p
}

// DecodeLines restores a persisted cart snapshot. Entries with a missing or
// zero product id, or an unparseable shape, are dropped rather than failing
// the whole load. A snapshot that is not a JSON array decodes as empty.
func DecodeLines(data []byte) []Line {
	if len(data) == 0 {
		return nil
	}

	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil
	}

	lines := make([]Line, 0, len(raws))
	for _, raw := range raws {
		var rl rawLine
		if err := json.Unmarshal(raw, &rl); err != nil {
			continue
		}
		if rl.Product == nil || rl.Product.ID == 0 {
			continue
		}

		quantity := 1
		if rl.Quantity != nil && *rl.Quantity > 1 {
			quantity = *rl.Quantity
		}

		lines = append(lines, Line{Product: rl.Product.normalize(), Quantity: quantity})
	}
	return lines
}

// EncodeLines serializes the cart for persistence.
func EncodeLines(lines []Line) ([]byte, error) {
	if lines == nil {
		lines = []Line{}
	}
	return json.Marshal(lines)
}
