// internal/domain/user/dto.go
package user

// UpdateRequest carries profile fields an account holder (or admin) may
// change. Role and username are immutable through this endpoint.
type UpdateRequest struct {
	Email     string `json:"email,omitempty"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Enabled   *bool  `json:"enabled,omitempty"`
}

// ListParams selects a page of users.
type ListParams struct {
	Page *int
	Size *int
	Sort string
}
