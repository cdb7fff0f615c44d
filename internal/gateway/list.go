// internal/gateway/list.go
package gateway

import (
	"context"
	"encoding/json"
)

// Some backend list endpoints return a bare JSON array, others a Spring-style
// envelope {"content": [...]}. GetList accepts both and always hands callers
// a plain slice; the envelope shape never leaks upward.
func GetList[T any](ctx context.Context, c *Client, endpoint string, opts ...Option) ([]T, error) {
	var raw json.RawMessage
	if err := c.Get(ctx, endpoint, &raw, opts...); err != nil {
		return nil, err
	}
	return normalizeList[T](raw), nil
}

func normalizeList[T any](raw json.RawMessage) []T {
	if len(raw) == 0 {
		return []T{}
	}

	var bare []T
	if err := json.Unmarshal(raw, &bare); err == nil {
		if bare == nil {
			bare = []T{}
		}
		return bare
	}

	var envelope struct {
		Content []T `json:"content"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Content != nil {
		return envelope.Content
	}

	return []T{}
}
