package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/mcoot/gamehub-console/internal/model"
)

// ListQuery is the page/limit/sort query of a collection listing
type ListQuery struct {
	Page  int
	Limit int
	Sort  string
}

// Values encodes the query. An empty sort is omitted so the server
// applies its default order.
func (q ListQuery) Values() url.Values {
	v := url.Values{}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Sort != "" {
		v.Set("sort", q.Sort)
	}
	return v
}

// ListResult is one page of a collection
type ListResult struct {
	Items []json.RawMessage
	Total int
}

// LoginResponse is the body of POST /auth/login
type LoginResponse struct {
	Token string     `json:"token"`
	User  model.User `json:"user"`
}

// CollectionPath returns /api/<collection>
func CollectionPath(collection string) string {
	return "/api/" + collection
}

// ItemPath returns /api/<collection>/<id>
func ItemPath(collection, id string) string {
	return "/api/" + collection + "/" + url.PathEscape(id)
}

// Login exchanges credentials for a bearer token
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	req := map[string]string{"email": email, "password": password}
	var resp LoginResponse
	if err := c.Post(ctx, "", "/auth/login", req, &resp); err != nil {
		return nil, err
	}
	if resp.Token == "" {
		return nil, fmt.Errorf("%w: login response has no token", ErrMalformedBody)
	}
	return &resp, nil
}

// Me performs the identity check and returns the user the token belongs to
func (c *Client) Me(ctx context.Context, token string) (model.User, error) {
	var resp struct {
		User model.User `json:"user"`
	}
	if err := c.Get(ctx, token, "/auth/me", nil, &resp); err != nil {
		return model.User{}, err
	}
	return resp.User, nil
}

// List fetches one page of a collection. The body is expected as
// {"<collection>": [...], "total": n}; missing keys yield an empty page.
func (c *Client) List(ctx context.Context, token, collection string, q ListQuery) (*ListResult, error) {
	var body map[string]json.RawMessage
	err := c.Get(ctx, token, CollectionPath(collection), q.Values(), &body)
	if err != nil && !errors.Is(err, ErrMalformedBody) {
		return nil, err
	}

	result := &ListResult{}
	if raw, ok := body[collection]; ok {
		// A non-array value renders as an empty page
		_ = json.Unmarshal(raw, &result.Items)
	}
	if raw, ok := body["total"]; ok {
		var total float64
		if json.Unmarshal(raw, &total) == nil && total > 0 {
			result.Total = int(total)
		}
	}
	return result, nil
}

// GetOne fetches a single entity wrapped as {"<singular>": {...}}
func (c *Client) GetOne(ctx context.Context, token, collection, singular, id string) (json.RawMessage, error) {
	var body map[string]json.RawMessage
	if err := c.Get(ctx, token, ItemPath(collection, id), nil, &body); err != nil {
		return nil, err
	}
	raw, ok := body[singular]
	if !ok || string(raw) == "null" {
		return nil, ErrMissingEntity
	}
	return raw, nil
}

// Create posts a new entity to the collection and returns the raw response
func (c *Client) Create(ctx context.Context, token, collection string, payload any) (map[string]json.RawMessage, error) {
	var body map[string]json.RawMessage
	err := c.Post(ctx, token, CollectionPath(collection), payload, &body)
	if err != nil && !errors.Is(err, ErrMalformedBody) {
		return nil, err
	}
	return body, nil
}

// Update puts changed fields to an entity and returns the raw response
func (c *Client) Update(ctx context.Context, token, collection, id string, payload any) (map[string]json.RawMessage, error) {
	var body map[string]json.RawMessage
	err := c.Put(ctx, token, ItemPath(collection, id), payload, &body)
	if err != nil && !errors.Is(err, ErrMalformedBody) {
		return nil, err
	}
	return body, nil
}

// Remove deletes an entity
func (c *Client) Remove(ctx context.Context, token, collection, id string) error {
	return c.Delete(ctx, token, ItemPath(collection, id))
}

// Stats fetches the aggregate dashboard. A malformed body yields zero values.
func (c *Client) Stats(ctx context.Context, token string) (*model.Stats, error) {
	var stats model.Stats
	err := c.Get(ctx, token, "/api/stats", nil, &stats)
	if err != nil && !errors.Is(err, ErrMalformedBody) {
		return nil, err
	}
	return &stats, nil
}
