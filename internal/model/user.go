package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// Role is the role string the API assigns to a user
type Role string

const (
	RoleAdmin  Role = "admin"
	RolePlayer Role = "player"
)

// AssignableRoles are the roles offered by the profile role selector
var AssignableRoles = []Role{RolePlayer, RoleAdmin}

// User is the logged-in user's profile snapshot as cached by the console
type User struct {
	ID         string `json:"_id,omitempty"`
	Username   string `json:"username,omitempty"`
	Email      string `json:"email,omitempty"`
	Role       Role   `json:"role,omitempty"`
	TotalScore *int   `json:"totalScore,omitempty"`
	CreatedAt  string `json:"createdAt,omitempty"`
}

// Merge overlays the fields present in patch (a JSON object) onto the user.
// Fields absent from patch keep their current value, and the identifier is
// never cleared.
func (u User) Merge(patch json.RawMessage) (User, error) {
	if len(patch) == 0 {
		return u, nil
	}

	current, err := json.Marshal(u)
	if err != nil {
		return u, err
	}

	fields := make(map[string]json.RawMessage)
	if err := json.Unmarshal(current, &fields); err != nil {
		return u, err
	}

	var overlay map[string]json.RawMessage
	if err := json.Unmarshal(patch, &overlay); err != nil {
		return u, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	for k, v := range overlay {
		fields[k] = v
	}

	combined, err := json.Marshal(fields)
	if err != nil {
		return u, err
	}

	var merged User
	if err := json.Unmarshal(combined, &merged); err != nil {
		return u, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	if merged.ID == "" {
		merged.ID = u.ID
	}
	return merged, nil
}

// AuthSession is the console-side persisted state for one logged-in browser:
// the bearer token and the cached user record
type AuthSession struct {
	ID        string    `json:"id"`
	Token     string    `json:"token"`
	User      User      `json:"user"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Capabilities returns the UI capabilities of the session's user
func (s *AuthSession) Capabilities() Capabilities {
	if s == nil {
		return Capabilities{}
	}
	return CapabilitiesFor(s.User)
}
