// internal/service/catalog/catalog.go
package catalog

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"kalakriti-client/internal/domain/product"
	"kalakriti-client/internal/gateway"
	"kalakriti-client/internal/pkg/cache"
)

// Service is the storefront's read/write path for products and categories.
// Listing reads are TTL-cached; single-product reads always go to the
// backend because the cart clamps against live stock.
type Service struct {
	api    *gateway.Client
	logger *zap.Logger

	products   *cache.TTLCache[string, []product.Product]
	categories *cache.TTLCache[string, []product.Category]
}

func NewService(api *gateway.Client, cacheTTL time.Duration, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		api:        api,
		logger:     logger,
		products:   cache.New[string, []product.Product](cacheTTL),
		categories: cache.New[string, []product.Category](cacheTTL),
	}
}

// Products returns a page of listings; both bare-array and envelope
// responses come back as a plain slice.
func (s *Service) Products(ctx context.Context, params product.ListParams) ([]product.Product, error) {
	query := url.Values{}
	if params.Page != nil {
		query.Set("page", strconv.Itoa(*params.Page))
	}
	if params.Size != nil {
		query.Set("size", strconv.Itoa(*params.Size))
	}
	if params.Category != nil {
		query.Set("category", strconv.FormatInt(*params.Category, 10))
	}
	if params.Sort != "" {
		query.Set("sort", params.Sort)
	}

	endpoint := "/api/products"
	if encoded := query.Encode(); encoded != "" {
		endpoint += "?" + encoded
	}

	if cached, ok := s.products.Get(endpoint); ok {
		return cached, nil
	}

	list, err := gateway.GetList[product.Product](ctx, s.api, endpoint)
	if err != nil {
		return nil, err
	}
	s.products.Set(endpoint, list)
	return list, nil
}

// Product fetches a single listing, uncached.
func (s *Service) Product(ctx context.Context, id int64) (*product.Product, error) {
	var p product.Product
	if err := s.api.Get(ctx, fmt.Sprintf("/api/products/%d", id), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Search finds listings by name, uncached (queries vary too much to be worth
// holding).
func (s *Service) Search(ctx context.Context, name string) ([]product.Product, error) {
	endpoint := "/api/products/search?name=" + url.QueryEscape(name)
	return gateway.GetList[product.Product](ctx, s.api, endpoint)
}

// Categories returns all categories, cached.
func (s *Service) Categories(ctx context.Context) ([]product.Category, error) {
	const endpoint = "/api/categories"

	if cached, ok := s.categories.Get(endpoint); ok {
		return cached, nil
	}

	list, err := gateway.GetList[product.Category](ctx, s.api, endpoint)
	if err != nil {
		return nil, err
	}
	s.categories.Set(endpoint, list)
	return list, nil
}

// CreateProduct publishes a new listing (artist dashboard) and drops the
// listing caches.
func (s *Service) CreateProduct(ctx context.Context, req product.CreateRequest) (*product.Product, error) {
	var created product.Product
	if err := s.api.Post(ctx, "/api/products", req, &created); err != nil {
		return nil, err
	}
	s.products.Clear()
	return &created, nil
}

// UpdateProduct edits a listing and drops the listing caches.
func (s *Service) UpdateProduct(ctx context.Context, id int64, req product.UpdateRequest) (*product.Product, error) {
	var updated product.Product
	if err := s.api.Put(ctx, fmt.Sprintf("/api/products/%d", id), req, &updated); err != nil {
		return nil, err
	}
	s.products.Clear()
	return &updated, nil
}

// DeleteProduct removes a listing and drops the listing caches.
func (s *Service) DeleteProduct(ctx context.Context, id int64) error {
	if err := s.api.Delete(ctx, fmt.Sprintf("/api/products/%d", id)); err != nil {
		return err
	}
	s.products.Clear()
	return nil
}

// CreateCategory adds a category (admin dashboard) and drops the category
// cache.
func (s *Service) CreateCategory(ctx context.Context, name, description string) (*product.Category, error) {
	body := map[string]string{"name": name}
	if description != "" {
		body["description"] = description
	}

	var created product.Category
	if err := s.api.Post(ctx, "/api/categories", body, &created); err != nil {
		return nil, err
	}
	s.categories.Clear()
	return &created, nil
}
