package model

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// Ref is a populated reference: a foreign key the API resolved into an
// embedded record. A bare identifier string is accepted as well.
type Ref struct {
	ID       string `json:"_id"`
	Name     string `json:"name,omitempty"`
	Title    string `json:"title,omitempty"`
	Slug     string `json:"slug,omitempty"`
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
}

// UnmarshalJSON accepts either an embedded object or an identifier string
func (r *Ref) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*r = Ref{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var id string
		if err := json.Unmarshal(data, &id); err != nil {
			return err
		}
		*r = Ref{ID: id}
		return nil
	}

	type plain Ref
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*r = Ref(p)
	return nil
}

// Label returns the first non-empty display field, or fallback
func (r Ref) Label(fallback string) string {
	for _, s := range []string{r.Name, r.Title, r.Username, r.Email, r.Slug} {
		if s != "" {
			return s
		}
	}
	return fallback
}

// Game is a catalog game with its genre and platform populated
type Game struct {
	ID       string `json:"_id"`
	Title    string `json:"title"`
	Slug     string `json:"slug"`
	Genre    Ref    `json:"genre"`
	Platform Ref    `json:"platform"`
}

// Genre is a named catalog entity
type Genre struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Platform is a named catalog entity
type Platform struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// PlaySession is one player's session on a game
type PlaySession struct {
	ID              string     `json:"_id"`
	Player          Ref        `json:"player"`
	Game            Ref        `json:"game"`
	Score           int        `json:"score"`
	Active          bool       `json:"active"`
	DurationSeconds Seconds    `json:"durationSeconds"`
	CreatedAt       *time.Time `json:"createdAt,omitempty"`
}

// Player is a player record as served by /api/players
type Player struct {
	ID         string     `json:"_id"`
	Username   string     `json:"username"`
	Email      string     `json:"email"`
	Role       Role       `json:"role"`
	TotalScore int        `json:"totalScore"`
	CreatedAt  *time.Time `json:"createdAt,omitempty"`
}

// Author is a library author
type Author struct {
	ID        string `json:"_id"`
	Name      string `json:"name"`
	BirthYear int    `json:"birthYear"`
}

// Book is a library book with its author populated
type Book struct {
	ID            string `json:"_id"`
	Title         string `json:"title"`
	PublishedYear int    `json:"publishedYear"`
	Author        Ref    `json:"authorId"`
}

// Stats is the aggregate dashboard served by /api/stats
type Stats struct {
	TotalGames     int `json:"totalGames"`
	TotalPlayers   int `json:"totalPlayers"`
	TotalGenres    int `json:"totalGenres"`
	TotalPlatforms int `json:"totalPlatforms"`
	TotalSessions  int `json:"totalSessions"`
	TopFivePlayer  struct {
		Players []Player `json:"players"`
	} `json:"topFivePlayer"`
}

// Seconds is a duration in seconds that may be absent. The API sends a
// number, but numeric strings and empty strings are tolerated.
type Seconds struct {
	Value float64
	Valid bool
}

// UnmarshalJSON implements json.Unmarshaler
func (s *Seconds) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*s = Seconds{}
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '"' {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		raw = strings.TrimSpace(raw)
		if raw == "" {
			return nil
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			// Non-numeric strings count as zero
			*s = Seconds{Valid: true}
			return nil
		}
		*s = Seconds{Value: v, Valid: true}
		return nil
	}

	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*s = Seconds{Value: v, Valid: true}
	return nil
}

// MarshalJSON implements json.Marshaler
func (s Seconds) MarshalJSON() ([]byte, error) {
	if !s.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(s.Value)
}

// Placeholder is shown wherever a value is absent
const Placeholder = "—"

// FormatDuration renders seconds as "1h 2m 5s", "2m 5s" or "5s"
func FormatDuration(s Seconds) string {
	if !s.Valid {
		return Placeholder
	}
	total := int64(0)
	if !math.IsNaN(s.Value) && s.Value > 0 {
		total = int64(math.Floor(s.Value))
	}

	h := total / 3600
	m := (total % 3600) / 60
	sec := total % 60

	switch {
	case h > 0:
		return strconv.FormatInt(h, 10) + "h " + strconv.FormatInt(m, 10) + "m " + strconv.FormatInt(sec, 10) + "s"
	case m > 0:
		return strconv.FormatInt(m, 10) + "m " + strconv.FormatInt(sec, 10) + "s"
	default:
		return strconv.FormatInt(sec, 10) + "s"
	}
}
