package response

import (
	"time"

	"github.com/mcoot/gamehub-console/internal/model"
	"github.com/mcoot/gamehub-console/internal/modules"
)

// Health is the liveness response
type Health struct {
	Status string `json:"status"`
}

// Check is the outcome of one readiness check
type Check struct {
	Name   string `json:"name"`
	OK     bool   `json:"ok"`
	Detail string `json:"detail,omitempty"`
}

// Ready is the readiness response
type Ready struct {
	Status string  `json:"status"`
	Checks []Check `json:"checks"`
}

// Module describes a list module of the console
type Module struct {
	Name            string   `json:"name"`
	Title           string   `json:"title"`
	Collection      string   `json:"collection"`
	DefaultPageSize int      `json:"default_page_size"`
	PageSizes       []int    `json:"page_sizes,omitempty"`
	Sorts           []string `json:"sorts"`
	ResetOnSort     bool     `json:"reset_on_sort"`
	Columns         []string `json:"columns"`
}

// ModuleFromDefinition converts a module definition
func ModuleFromDefinition(d *modules.Definition) Module {
	sorts := make([]string, 0, len(d.SortOptions))
	for _, opt := range d.SortOptions {
		if opt.Value != "" {
			sorts = append(sorts, opt.Value)
		}
	}
	columns := make([]string, len(d.Columns))
	for i, c := range d.Columns {
		columns[i] = c.Key
	}
	return Module{
		Name:            d.Name,
		Title:           d.Title,
		Collection:      d.Collection,
		DefaultPageSize: d.DefaultPageSize,
		PageSizes:       d.PageSizes,
		Sorts:           sorts,
		ResetOnSort:     d.ResetOnSort,
		Columns:         columns,
	}
}

// Modules lists the console modules in menu order
type Modules struct {
	Modules []Module `json:"modules"`
}

// Session describes the console session of the caller. The bearer token
// is never exposed.
type Session struct {
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	IsAdmin   bool      `json:"is_admin"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SessionFromModel converts a console session
func SessionFromModel(s *model.AuthSession) Session {
	return Session{
		UserID:    s.User.ID,
		Username:  s.User.Username,
		Email:     s.User.Email,
		Role:      string(s.User.Role),
		IsAdmin:   s.Capabilities().IsAdmin(),
		ExpiresAt: s.ExpiresAt,
	}
}
