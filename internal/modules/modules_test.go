package modules

import (
	"encoding/json"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/gamehub-console/internal/model"
)

func TestPager(t *testing.T) {
	tests := []struct {
		page, size, total int
		prev, next        bool
	}{
		{1, 5, 12, false, true},
		{2, 5, 12, true, true},
		{3, 5, 12, true, false},
		{1, 5, 5, false, false},
		{1, 5, 0, false, false},
		{1, 10, 11, false, true},
	}

	for _, tt := range tests {
		p := Pager{Page: tt.page, Size: tt.size, Total: tt.total}
		assert.Equal(t, tt.prev, p.HasPrev(), "prev for %+v", p)
		assert.Equal(t, tt.next, p.HasNext(), "next for %+v", p)
	}
}

func TestRegistryOrderAndLookup(t *testing.T) {
	reg := Default()

	var names []string
	for _, d := range reg.All() {
		names = append(names, d.Name)
	}
	assert.Equal(t, []string{"games", "genres", "platforms", "sessions", "authors", "books"}, names)

	d, err := reg.Get("sessions")
	require.NoError(t, err)
	assert.Equal(t, "session", d.Singular)

	_, err = reg.Get("weapons")
	assert.ErrorIs(t, err, model.ErrUnknownModule)
}

func TestResetOnSortPolicy(t *testing.T) {
	reg := Default()
	want := map[string]bool{
		"games": false, "genres": true, "platforms": true,
		"sessions": false, "authors": false, "books": false,
	}
	for name, reset := range want {
		d, err := reg.Get(name)
		require.NoError(t, err)
		assert.Equal(t, reset, d.ResetOnSort, name)
	}
}

func TestPageSizes(t *testing.T) {
	genres := Genres()
	assert.Equal(t, model.ViewState{Page: 1, PageSize: 10}, genres.InitialState())
	assert.True(t, genres.AllowsPageSize(20))
	assert.False(t, genres.AllowsPageSize(7))

	games := Games()
	assert.Equal(t, 5, games.InitialState().PageSize)
	assert.False(t, games.AllowsPageSize(5), "games has a fixed page size")
}

func TestPayloadConvertsKinds(t *testing.T) {
	values := url.Values{
		"player": {"p1"},
		"game":   {" g1 "},
		"score":  {"abc"},
		"active": {"false"},
	}
	payload := Sessions().Payload(values)

	assert.Equal(t, map[string]any{
		"player": "p1",
		"game":   "g1",
		"score":  0,
		"active": false,
	}, payload)
}

func TestPopulateUsesReferenceIDs(t *testing.T) {
	raw := json.RawMessage(`{"_id":"s1","player":{"_id":"p1","username":"alice"},"game":"g2","score":40,"active":true}`)
	values, err := Sessions().Populate(raw)
	require.NoError(t, err)

	assert.Equal(t, "p1", values["player"])
	assert.Equal(t, "g2", values["game"])
	assert.Equal(t, "40", values["score"])
	assert.Equal(t, "true", values["active"])
}

func TestPopulateKeepsDefaultsForAbsentFields(t *testing.T) {
	values, err := Sessions().Populate(json.RawMessage(`{"_id":"s1"}`))
	require.NoError(t, err)
	assert.Equal(t, "0", values["score"])
	assert.Equal(t, "true", values["active"])

	_, err = Sessions().Populate(json.RawMessage(`"s1"`))
	assert.ErrorIs(t, err, model.ErrMalformedRecord)
}

func TestSessionRow(t *testing.T) {
	raw := json.RawMessage(`{"_id":"s1","player":{"_id":"p1","email":"a@x.io"},"game":{"_id":"g1","slug":"tetris"},"score":7,"active":true,"durationSeconds":3725,"createdAt":"2024-01-01T12:00:00Z"}`)
	row, err := Sessions().RenderRow(raw)
	require.NoError(t, err)

	assert.Equal(t, "s1", row.ID)
	assert.Equal(t, []string{"a@x.io", "tetris", "7", "1h 2m 5s", "✅", "2024-01-01 12:00"}, row.Cells)
}

func TestSessionRowPlaceholders(t *testing.T) {
	row, err := Sessions().RenderRow(json.RawMessage(`{"_id":"s1","player":null}`))
	require.NoError(t, err)
	assert.Equal(t, []string{model.Placeholder, model.Placeholder, "0", model.Placeholder, "❌", model.Placeholder}, row.Cells)
}

func TestGameAndBookRows(t *testing.T) {
	row, err := Games().RenderRow(json.RawMessage(`{"_id":"g1","title":"Doom","genre":{"_id":"x","name":"Shooter"},"platform":{"_id":"y","name":"PC"}}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"Doom", "Shooter", "PC"}, row.Cells)

	row, err = Books().RenderRow(json.RawMessage(`{"_id":"b1","title":"Small Gods","publishedYear":1992,"authorId":null}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"Small Gods", "1992", "Unknown"}, row.Cells)
}

func TestEntityID(t *testing.T) {
	assert.Equal(t, "x1", EntityID(json.RawMessage(`{"_id":"x1"}`)))
	assert.Empty(t, EntityID(json.RawMessage(`[]`)))
}
