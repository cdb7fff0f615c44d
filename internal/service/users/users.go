// internal/service/users/users.go
package users

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"go.uber.org/zap"

	"kalakriti-client/internal/domain/user"
	"kalakriti-client/internal/gateway"
)

// Service covers the user endpoints backing the profile page and the admin
// user table.
type Service struct {
	api    *gateway.Client
	logger *zap.Logger
}

func NewService(api *gateway.Client, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{api: api, logger: logger}
}

// Me fetches the authenticated user's profile.
func (s *Service) Me(ctx context.Context) (*user.User, error) {
	var u user.User
	if err := s.api.Get(ctx, "/api/users/me", &u); err != nil {
		return nil, err
	}
	normalized := u.Merge(nil)
	return &normalized, nil
}

// List returns a page of users (admin dashboard).
func (s *Service) List(ctx context.Context, params user.ListParams) ([]user.User, error) {
	query := url.Values{}
	if params.Page != nil {
		query.Set("page", strconv.Itoa(*params.Page))
	}
	if params.Size != nil {
		query.Set("size", strconv.Itoa(*params.Size))
	}
	if params.Sort != "" {
		query.Set("sort", params.Sort)
	}

	endpoint := "/api/users"
	if encoded := query.Encode(); encoded != "" {
		endpoint += "?" + encoded
	}
	return s.normalizeAll(gateway.GetList[user.User](ctx, s.api, endpoint))
}

// ByID fetches a single user.
func (s *Service) ByID(ctx context.Context, id int64) (*user.User, error) {
	var u user.User
	if err := s.api.Get(ctx, fmt.Sprintf("/api/users/%d", id), &u); err != nil {
		return nil, err
	}
	normalized := u.Merge(nil)
	return &normalized, nil
}

// ByRole lists users holding a role, e.g. the artists directory.
func (s *Service) ByRole(ctx context.Context, role user.Role) ([]user.User, error) {
	endpoint := "/api/users/role/" + url.PathEscape(string(user.NormalizeRole(string(role))))
	return s.normalizeAll(gateway.GetList[user.User](ctx, s.api, endpoint))
}

// Update edits a user's mutable profile fields.
func (s *Service) Update(ctx context.Context, id int64, req user.UpdateRequest) (*user.User, error) {
	var updated user.User
	if err := s.api.Put(ctx, fmt.Sprintf("/api/users/%d", id), req, &updated); err != nil {
		return nil, err
	}
	normalized := updated.Merge(nil)
	return &normalized, nil
}

// Delete removes a user (admin dashboard).
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.api.Delete(ctx, fmt.Sprintf("/api/users/%d", id))
}

// The backend has shipped both plain and prefixed role strings; normalize at
// the boundary so nothing downstream compares raw wire values.
func (s *Service) normalizeAll(list []user.User, err error) ([]user.User, error) {
	if err != nil {
		return nil, err
	}
	for i := range list {
		list[i] = list[i].Merge(nil)
	}
	return list, nil
}
