package modules

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/mcoot/gamehub-console/internal/model"
)

var activeCells = map[bool]string{true: "✅", false: "❌"}

func decode[T any](raw json.RawMessage, singular string) (T, error) {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, fmt.Errorf("%w: %s: %v", model.ErrMalformedRecord, singular, err)
	}
	return v, nil
}

func orPlaceholder(s string) string {
	if s == "" {
		return model.Placeholder
	}
	return s
}

func year(y int) string {
	if y == 0 {
		return model.Placeholder
	}
	return strconv.Itoa(y)
}

// Games pages five games at a time and keeps its page on sort changes
func Games() *Definition {
	return &Definition{
		Name:            "games",
		Title:           "Games",
		Collection:      "games",
		Singular:        "game",
		DefaultPageSize: 5,
		SortOptions: []Choice{
			{Value: "", Label: "Default order"},
			{Value: "title", Label: "Title (A-Z)"},
			{Value: "-title", Label: "Title (Z-A)"},
		},
		Columns: []Column{
			{Key: "title", Title: "Title"},
			{Key: "genre", Title: "Genre"},
			{Key: "platform", Title: "Platform"},
		},
		EmptyText: "No games found",
		Fields: []Field{
			{Name: "title", Label: "Title", Kind: FieldText, Required: true},
			{Name: "slug", Label: "Slug", Kind: FieldText},
			{Name: "genre", Label: "Genre", Kind: FieldRef, Source: "genres", Required: true},
			{Name: "platform", Label: "Platform", Kind: FieldRef, Source: "platforms", Required: true},
		},
		RenderRow: func(raw json.RawMessage) (Row, error) {
			g, err := decode[model.Game](raw, "game")
			if err != nil {
				return Row{}, err
			}
			return Row{ID: g.ID, Cells: []string{
				orPlaceholder(g.Title),
				g.Genre.Label(model.Placeholder),
				g.Platform.Label(model.Placeholder),
			}}, nil
		},
	}
}

func named(name, title, singular string) *Definition {
	return &Definition{
		Name:            name,
		Title:           title,
		Collection:      name,
		Singular:        singular,
		DefaultPageSize: 10,
		PageSizes:       []int{5, 10, 20},
		ResetOnSort:     true,
		SortOptions: []Choice{
			{Value: "", Label: "Default order"},
			{Value: "name", Label: "Name (A-Z)"},
			{Value: "-name", Label: "Name (Z-A)"},
		},
		Columns: []Column{
			{Key: "name", Title: "Name"},
			{Key: "slug", Title: "Slug"},
		},
		EmptyText: "No " + name + " found",
		Fields: []Field{
			{Name: "name", Label: "Name", Kind: FieldText, Required: true},
			{Name: "slug", Label: "Slug", Kind: FieldText},
		},
		RenderRow: func(raw json.RawMessage) (Row, error) {
			g, err := decode[model.Genre](raw, singular)
			if err != nil {
				return Row{}, err
			}
			return Row{ID: g.ID, Cells: []string{orPlaceholder(g.Name), orPlaceholder(g.Slug)}}, nil
		},
	}
}

// Genres has a page-size selector and returns to page 1 on changes
func Genres() *Definition {
	return named("genres", "Genres", "genre")
}

// Platforms mirrors Genres
func Platforms() *Definition {
	d := named("platforms", "Platforms", "platform")
	d.RenderRow = func(raw json.RawMessage) (Row, error) {
		p, err := decode[model.Platform](raw, "platform")
		if err != nil {
			return Row{}, err
		}
		return Row{ID: p.ID, Cells: []string{orPlaceholder(p.Name), orPlaceholder(p.Slug)}}, nil
	}
	return d
}

// Sessions lists play sessions with populated player and game
func Sessions() *Definition {
	return &Definition{
		Name:            "sessions",
		Title:           "Sessions",
		Collection:      "sessions",
		Singular:        "session",
		DefaultPageSize: 5,
		SortOptions: []Choice{
			{Value: "", Label: "Default order"},
			{Value: "-createdAt", Label: "Newest first"},
			{Value: "createdAt", Label: "Oldest first"},
			{Value: "-score", Label: "Highest score"},
			{Value: "score", Label: "Lowest score"},
		},
		Columns: []Column{
			{Key: "player", Title: "Player"},
			{Key: "game", Title: "Game"},
			{Key: "score", Title: "Score"},
			{Key: "durationSeconds", Title: "Duration"},
			{Key: "active", Title: "Active"},
			{Key: "createdAt", Title: "Created"},
		},
		EmptyText: "No sessions found",
		Fields: []Field{
			{Name: "player", Label: "Player", Kind: FieldRef, Source: "players", Required: true},
			{Name: "game", Label: "Game", Kind: FieldRef, Source: "games", Required: true},
			{Name: "score", Label: "Score", Kind: FieldNumber, Default: "0"},
			{Name: "active", Label: "Active", Kind: FieldBool, Default: "true"},
		},
		RenderRow: func(raw json.RawMessage) (Row, error) {
			s, err := decode[model.PlaySession](raw, "session")
			if err != nil {
				return Row{}, err
			}
			created := model.Placeholder
			if s.CreatedAt != nil {
				created = s.CreatedAt.UTC().Format("2006-01-02 15:04")
			}
			return Row{ID: s.ID, Cells: []string{
				s.Player.Label(model.Placeholder),
				s.Game.Label(model.Placeholder),
				strconv.Itoa(s.Score),
				model.FormatDuration(s.DurationSeconds),
				activeCells[s.Active],
				created,
			}}, nil
		},
	}
}

// Authors is the library author list
func Authors() *Definition {
	return &Definition{
		Name:            "authors",
		Title:           "Authors",
		Collection:      "authors",
		Singular:        "author",
		DefaultPageSize: 5,
		SortOptions: []Choice{
			{Value: "", Label: "Default order"},
			{Value: "name", Label: "Name (A-Z)"},
			{Value: "-name", Label: "Name (Z-A)"},
			{Value: "birthYear", Label: "Birth year"},
		},
		Columns: []Column{
			{Key: "name", Title: "Name"},
			{Key: "birthYear", Title: "Born"},
		},
		EmptyText: "No authors found",
		Fields: []Field{
			{Name: "name", Label: "Name", Kind: FieldText, Required: true},
			{Name: "birthYear", Label: "Birth year", Kind: FieldNumber},
		},
		RenderRow: func(raw json.RawMessage) (Row, error) {
			a, err := decode[model.Author](raw, "author")
			if err != nil {
				return Row{}, err
			}
			return Row{ID: a.ID, Cells: []string{orPlaceholder(a.Name), year(a.BirthYear)}}, nil
		},
	}
}

// Books lists books with their populated author
func Books() *Definition {
	return &Definition{
		Name:            "books",
		Title:           "Books",
		Collection:      "books",
		Singular:        "book",
		DefaultPageSize: 5,
		SortOptions: []Choice{
			{Value: "", Label: "Default order"},
			{Value: "title", Label: "Title (A-Z)"},
			{Value: "-title", Label: "Title (Z-A)"},
			{Value: "-publishedYear", Label: "Newest first"},
		},
		Columns: []Column{
			{Key: "title", Title: "Title"},
			{Key: "publishedYear", Title: "Published"},
			{Key: "authorId", Title: "Author"},
		},
		EmptyText: "No books found",
		Fields: []Field{
			{Name: "title", Label: "Title", Kind: FieldText, Required: true},
			{Name: "publishedYear", Label: "Published year", Kind: FieldNumber},
			{Name: "authorId", Label: "Author", Kind: FieldRef, Source: "authors", Required: true},
		},
		RenderRow: func(raw json.RawMessage) (Row, error) {
			b, err := decode[model.Book](raw, "book")
			if err != nil {
				return Row{}, err
			}
			return Row{ID: b.ID, Cells: []string{
				orPlaceholder(b.Title),
				year(b.PublishedYear),
				b.Author.Label("Unknown"),
			}}, nil
		},
	}
}

// Default returns the console's list modules in menu order
func Default() *Registry {
	return NewRegistry(Games(), Genres(), Platforms(), Sessions(), Authors(), Books())
}
