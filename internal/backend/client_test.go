package backend_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/gamehub-console/internal/backend"
	"github.com/mcoot/gamehub-console/internal/testutil"
	"github.com/mcoot/gamehub-console/internal/testutil/fakeapi"
)

func newClient(t *testing.T) (*backend.Client, *fakeapi.Server) {
	t.Helper()
	api := fakeapi.New(t)
	client := backend.New(backend.Config{BaseURL: api.URL(), Timeout: 5 * time.Second}, testutil.NopLogger())
	return client, api
}

func TestLoginReturnsTokenAndUser(t *testing.T) {
	client, _ := newClient(t)

	resp, err := client.Login(t.Context(), fakeapi.AdminEmail, fakeapi.AdminPassword)
	require.NoError(t, err)

	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, fakeapi.AdminID, resp.User.ID)
	assert.Equal(t, "admin", string(resp.User.Role))
}

func TestLoginBadCredentials(t *testing.T) {
	client, _ := newClient(t)

	_, err := client.Login(t.Context(), fakeapi.AdminEmail, "wrong")
	require.Error(t, err)
	assert.True(t, errors.Is(err, backend.ErrUnauthorized))
	assert.Equal(t, "Invalid credentials", backend.Message(err, "fallback"))
}

func TestRequestsCarryBearerAndAccept(t *testing.T) {
	client, api := newClient(t)
	token := api.IssueToken(fakeapi.AdminID, time.Hour)

	_, err := client.List(t.Context(), token, "genres", backend.ListQuery{Page: 1, Limit: 5})
	require.NoError(t, err)

	req, ok := api.LastRequest(http.MethodGet)
	require.True(t, ok)
	assert.Equal(t, "Bearer "+token, req.Authorization)
	assert.Empty(t, req.ContentType, "GET without body has no content type")
}

func TestListBuildsQuery(t *testing.T) {
	client, api := newClient(t)
	token := api.IssueToken(fakeapi.AdminID, time.Hour)

	result, err := client.List(t.Context(), token, "games", backend.ListQuery{Page: 2, Limit: 5, Sort: "-title"})
	require.NoError(t, err)

	assert.Equal(t, 12, result.Total)
	assert.Len(t, result.Items, 5)

	req, _ := api.LastRequest(http.MethodGet)
	assert.Equal(t, "2", req.Query.Get("page"))
	assert.Equal(t, "5", req.Query.Get("limit"))
	assert.Equal(t, "-title", req.Query.Get("sort"))
}

func TestListOmitsEmptySort(t *testing.T) {
	client, api := newClient(t)
	token := api.IssueToken(fakeapi.AdminID, time.Hour)

	_, err := client.List(t.Context(), token, "games", backend.ListQuery{Page: 1, Limit: 5})
	require.NoError(t, err)

	req, _ := api.LastRequest(http.MethodGet)
	_, hasSort := req.Query["sort"]
	assert.False(t, hasSort)
}

func TestListDefaultsMissingKeys(t *testing.T) {
	client, api := newClient(t)
	token := api.IssueToken(fakeapi.AdminID, time.Hour)
	api.FailNext(http.StatusOK, `{"unexpected": true}`)

	result, err := client.List(t.Context(), token, "games", backend.ListQuery{Page: 1, Limit: 5})
	require.NoError(t, err)
	assert.Empty(t, result.Items)
	assert.Equal(t, 0, result.Total)
}

func TestListToleratesMalformedBody(t *testing.T) {
	client, api := newClient(t)
	token := api.IssueToken(fakeapi.AdminID, time.Hour)
	api.FailNext(http.StatusOK, `<html>oops</html>`)

	result, err := client.List(t.Context(), token, "games", backend.ListQuery{Page: 1, Limit: 5})
	require.NoError(t, err)
	assert.Empty(t, result.Items)
}

func TestUnauthorizedIsMatched(t *testing.T) {
	client, _ := newClient(t)

	_, err := client.Me(t.Context(), "not-a-token")
	require.Error(t, err)
	assert.ErrorIs(t, err, backend.ErrUnauthorized)

	var apiErr *backend.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
}

func TestErrorMessageShapes(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"message", `{"message":"Title is required"}`, "Title is required"},
		{"error string", `{"error":"Slug taken"}`, "Slug taken"},
		{"error object", `{"error":{"message":"Nested"}}`, "Nested"},
		{"empty body", ``, "Error 422"},
		{"not json", `nope`, "Error 422"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, api := newClient(t)
			token := api.IssueToken(fakeapi.AdminID, time.Hour)
			api.FailNext(http.StatusUnprocessableEntity, tt.body)

			_, err := client.Create(t.Context(), token, "genres", map[string]any{"name": "x"})
			var apiErr *backend.APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, http.StatusUnprocessableEntity, apiErr.Status)
			assert.Equal(t, tt.want, apiErr.Message)
			assert.NotErrorIs(t, err, backend.ErrUnauthorized)
		})
	}
}

func TestCreateSendsJSON(t *testing.T) {
	client, api := newClient(t)
	token := api.IssueToken(fakeapi.AdminID, time.Hour)

	body, err := client.Create(t.Context(), token, "genres", map[string]any{"name": "Roguelike", "slug": "roguelike"})
	require.NoError(t, err)
	assert.Contains(t, body, "genre")

	req, _ := api.LastRequest(http.MethodPost)
	assert.Equal(t, "/api/genres", req.Path)
	assert.Equal(t, "application/json", req.ContentType)
	assert.Equal(t, "Roguelike", req.Body["name"])
	assert.Equal(t, 13, api.Count("genres"))
}

func TestUpdateUsesItemPath(t *testing.T) {
	client, api := newClient(t)
	token := api.IssueToken(fakeapi.AdminID, time.Hour)

	_, err := client.Update(t.Context(), token, "genres", "genre-01", map[string]any{"name": "Arcade"})
	require.NoError(t, err)

	req, _ := api.LastRequest(http.MethodPut)
	assert.Equal(t, "/api/genres/genre-01", req.Path)
	item, _ := api.Item("genres", "genre-01")
	assert.Equal(t, "Arcade", item["name"])
}

func TestGetOneUnwrapsSingular(t *testing.T) {
	client, api := newClient(t)
	token := api.IssueToken(fakeapi.AdminID, time.Hour)

	raw, err := client.GetOne(t.Context(), token, "games", "game", "game-01")
	require.NoError(t, err)
	assert.Contains(t, string(raw), "Tetris")

	api.FailNext(http.StatusOK, `{}`)
	_, err = client.GetOne(t.Context(), token, "games", "game", "game-01")
	assert.ErrorIs(t, err, backend.ErrMissingEntity)
}

func TestRemove(t *testing.T) {
	client, api := newClient(t)
	token := api.IssueToken(fakeapi.AdminID, time.Hour)

	require.NoError(t, client.Remove(t.Context(), token, "books", "book-01"))
	assert.Equal(t, 1, api.Count("books"))

	req, _ := api.LastRequest(http.MethodDelete)
	assert.Empty(t, req.ContentType)
}

func TestStats(t *testing.T) {
	client, api := newClient(t)
	token := api.IssueToken(fakeapi.PlayerID, time.Hour)

	stats, err := client.Stats(t.Context(), token)
	require.NoError(t, err)
	assert.Equal(t, 12, stats.TotalGames)
	assert.Equal(t, 2, stats.TotalPlayers)
	require.Len(t, stats.TopFivePlayer.Players, 2)
	assert.Equal(t, fakeapi.AdminName, stats.TopFivePlayer.Players[0].Username)
}

func TestStatsToleratesWrongLeaderboardShape(t *testing.T) {
	client, api := newClient(t)
	token := api.IssueToken(fakeapi.PlayerID, time.Hour)
	api.FailNext(http.StatusOK, `{"totalGames":3,"topFivePlayer":[]}`)

	stats, err := client.Stats(t.Context(), token)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalGames)
	assert.Empty(t, stats.TopFivePlayer.Players)
}

func TestTransportFailureIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client := backend.New(backend.Config{BaseURL: url, Timeout: time.Second}, nil)
	_, err := client.Me(t.Context(), "token")
	require.Error(t, err)
	assert.ErrorIs(t, err, backend.ErrUnavailable)
	assert.Equal(t, "fallback", backend.Message(err, "fallback"))
}
