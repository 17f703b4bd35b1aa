package forms

import (
	"context"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/gamehub-console/internal/backend"
	"github.com/mcoot/gamehub-console/internal/dependencies/mocks"
	"github.com/mcoot/gamehub-console/internal/model"
	"github.com/mcoot/gamehub-console/internal/modules"
	"github.com/mcoot/gamehub-console/internal/storage/memory"
	"github.com/mcoot/gamehub-console/internal/testutil"
	"github.com/mcoot/gamehub-console/internal/testutil/fakeapi"
)

func TestModeFor(t *testing.T) {
	assert.Equal(t, ModeCreate, ModeFor(""))
	assert.Equal(t, ModeCreate, ModeFor("   "))
	assert.Equal(t, ModeEdit, ModeFor("game-01"))
}

func TestTarget(t *testing.T) {
	tests := []struct {
		name       string
		id         string
		wantMethod string
		wantPath   string
	}{
		{name: "empty id creates", id: "", wantMethod: http.MethodPost, wantPath: "/api/games"},
		{name: "blank id creates", id: " ", wantMethod: http.MethodPost, wantPath: "/api/games"},
		{name: "id updates", id: "game-03", wantMethod: http.MethodPut, wantPath: "/api/games/game-03"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			method, path := Target(modules.Games(), tt.id)
			assert.Equal(t, tt.wantMethod, method)
			assert.Equal(t, tt.wantPath, path)
		})
	}
}

type ServiceSuite struct {
	suite.Suite
	api     *fakeapi.Server
	storage *memory.Storage
	random  *mocks.MockRandom
	binder  *Binder
	service *Service
	admin   *model.AuthSession
	player  *model.AuthSession
	ctx     context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.api = fakeapi.New(s.T())
	client := backend.New(backend.Config{BaseURL: s.api.URL()}, testutil.NopLogger())
	s.storage = memory.New()
	s.random = mocks.NewMockRandom()
	s.binder = NewBinder(s.storage, s.random)
	s.service = New(client, s.binder, testutil.NopLogger())
	s.ctx = context.Background()

	s.admin = &model.AuthSession{
		ID:    "sess-admin",
		Token: s.api.IssueToken(fakeapi.AdminID, time.Hour),
		User:  model.User{ID: fakeapi.AdminID, Role: model.RoleAdmin},
	}
	s.player = &model.AuthSession{
		ID:    "sess-player",
		Token: s.api.IssueToken(fakeapi.PlayerID, time.Hour),
		User:  model.User{ID: fakeapi.PlayerID, Role: model.RolePlayer},
	}
	s.Require().NoError(s.storage.SaveSession(s.ctx, s.admin))
	s.Require().NoError(s.storage.SaveSession(s.ctx, s.player))
}

func (s *ServiceSuite) bindingState(form string) model.BindingState {
	state, err := s.binder.State(s.ctx, s.admin.ID, form)
	s.Require().NoError(err)
	return state
}

// Open tests

func (s *ServiceSuite) TestOpenCreateMode() {
	view, err := s.service.Open(s.ctx, s.admin, modules.Sessions(), "")
	s.Require().NoError(err)

	s.Equal(ModeCreate, view.Mode)
	s.Empty(view.ID)
	s.Equal("0", view.Values["score"])
	s.Equal("true", view.Values["active"])
	s.Equal("tok-1", view.Nonce)
	s.Equal(model.BindingBound, s.bindingState("sessions"))

	_, found := s.api.LastRequest(http.MethodGet)
	s.False(found, "create mode does not fetch")
}

func (s *ServiceSuite) TestOpenEditModeFetchesFresh() {
	view, err := s.service.Open(s.ctx, s.admin, modules.Games(), "game-02")
	s.Require().NoError(err)

	s.Equal(ModeEdit, view.Mode)
	s.Equal("game-02", view.ID)
	s.Equal("Portal", view.Values["title"])
	s.Equal("genre-02", view.Values["genre"], "populated references yield their id")
	s.Equal("platform-02", view.Values["platform"])

	req, _ := s.api.LastRequest(http.MethodGet)
	s.Equal("/api/games/game-02", req.Path)
}

func (s *ServiceSuite) TestOpenEditMissingEntity() {
	_, err := s.service.Open(s.ctx, s.admin, modules.Games(), "game-99")
	var apiErr *backend.APIError
	s.Require().ErrorAs(err, &apiErr)
	s.Equal(http.StatusNotFound, apiErr.Status)
}

func (s *ServiceSuite) TestOpenRequiresAdmin() {
	_, err := s.service.Open(s.ctx, s.player, modules.Games(), "")
	s.ErrorIs(err, ErrNotPermitted)
}

func (s *ServiceSuite) TestReopenReplacesBinding() {
	first, err := s.service.Open(s.ctx, s.admin, modules.Genres(), "")
	s.Require().NoError(err)
	second, err := s.service.Open(s.ctx, s.admin, modules.Genres(), "genre-01")
	s.Require().NoError(err)
	s.NotEqual(first.Nonce, second.Nonce)

	_, err = s.service.Submit(s.ctx, s.admin, modules.Genres(), url.Values{
		"nonce": {first.Nonce},
		"name":  {"Stale"},
	})
	s.ErrorIs(err, ErrStaleForm)

	_, found := s.api.LastRequest(http.MethodPost)
	s.False(found, "a stale submission never reaches the API")
}

// Submit tests

func (s *ServiceSuite) TestSubmitCreatePosts() {
	def := modules.Genres()
	opened, err := s.service.Open(s.ctx, s.admin, def, "")
	s.Require().NoError(err)

	view, err := s.service.Submit(s.ctx, s.admin, def, url.Values{
		"nonce": {opened.Nonce},
		"id":    {""},
		"name":  {"  Roguelike "},
	})
	s.Require().NoError(err)

	s.Equal(StatusSuccess, view.Status.Kind)
	s.Equal("✅ Genre saved!", view.Status.Message)
	s.True(view.Reload)
	s.Equal(ModeCreate, view.Mode)
	s.Empty(view.Values["name"], "the form is reset")
	s.NotEqual(opened.Nonce, view.Nonce)

	req, found := s.api.LastRequest(http.MethodPost)
	s.Require().True(found)
	s.Equal("/api/genres", req.Path)
	s.Equal("application/json", req.ContentType)
	s.Equal("Roguelike", req.Body["name"])
	s.Equal(13, s.api.Count("genres"))
}

func (s *ServiceSuite) TestSubmitEditPuts() {
	def := modules.Sessions()
	opened, err := s.service.Open(s.ctx, s.admin, def, "session-01")
	s.Require().NoError(err)

	_, err = s.service.Submit(s.ctx, s.admin, def, url.Values{
		"nonce":  {opened.Nonce},
		"id":     {"session-01"},
		"player": {fakeapi.PlayerID},
		"game":   {"game-04"},
		"score":  {"77"},
		"active": {"false"},
	})
	s.Require().NoError(err)

	req, found := s.api.LastRequest(http.MethodPut)
	s.Require().True(found)
	s.Equal("/api/sessions/session-01", req.Path)
	s.EqualValues(77, req.Body["score"])
	s.Equal(false, req.Body["active"])

	_, posted := s.api.LastRequest(http.MethodPost)
	s.False(posted)

	item, _ := s.api.Item("sessions", "session-01")
	s.Equal("game-04", item["game"])
}

func (s *ServiceSuite) TestSubmitTwiceRejected() {
	def := modules.Genres()
	opened, err := s.service.Open(s.ctx, s.admin, def, "")
	s.Require().NoError(err)

	form := url.Values{"nonce": {opened.Nonce}, "name": {"Once"}}
	_, err = s.service.Submit(s.ctx, s.admin, def, form)
	s.Require().NoError(err)

	_, err = s.service.Submit(s.ctx, s.admin, def, form)
	s.ErrorIs(err, ErrStaleForm)
	s.Equal(13, s.api.Count("genres"), "only one entity created")
}

func (s *ServiceSuite) TestSubmitValidationErrorRetainsInput() {
	def := modules.Books()
	opened, err := s.service.Open(s.ctx, s.admin, def, "")
	s.Require().NoError(err)

	view, err := s.service.Submit(s.ctx, s.admin, def, url.Values{
		"nonce":         {opened.Nonce},
		"title":         {"Untitled"},
		"publishedYear": {"2001"},
		"authorId":      {""},
	})
	s.Require().NoError(err)

	s.Equal(StatusError, view.Status.Kind)
	s.Equal("authorId is required", view.Status.Message)
	s.False(view.Reload)
	s.Equal("Untitled", view.Values["title"])
	s.Equal("2001", view.Values["publishedYear"])
	s.Equal(model.BindingBound, s.bindingState("books"), "a fresh binding allows a retry")
}

func (s *ServiceSuite) TestSubmitErrorKeyShape() {
	def := modules.Genres()
	opened, err := s.service.Open(s.ctx, s.admin, def, "genre-01")
	s.Require().NoError(err)

	view, err := s.service.Submit(s.ctx, s.admin, def, url.Values{
		"nonce": {opened.Nonce},
		"id":    {"genre-01"},
		"name":  {""},
	})
	s.Require().NoError(err)
	s.Equal("name cannot be empty", view.Status.Message)
	s.Equal(ModeEdit, view.Mode)
	s.Equal("genre-01", view.ID)
}

func (s *ServiceSuite) TestSubmitStatusFallback() {
	def := modules.Platforms()
	opened, err := s.service.Open(s.ctx, s.admin, def, "")
	s.Require().NoError(err)

	s.api.FailNext(http.StatusBadGateway, `not json`)
	view, err := s.service.Submit(s.ctx, s.admin, def, url.Values{
		"nonce": {opened.Nonce},
		"name":  {"Dreamcast"},
	})
	s.Require().NoError(err)
	s.Equal("Error 502", view.Status.Message)
}

func (s *ServiceSuite) TestSubmitUnreachable() {
	client := backend.New(backend.Config{BaseURL: "http://127.0.0.1:1", Timeout: time.Second}, testutil.NopLogger())
	service := New(client, s.binder, testutil.NopLogger())
	def := modules.Genres()

	opened, err := service.Open(s.ctx, s.admin, def, "")
	s.Require().NoError(err)

	view, err := service.Submit(s.ctx, s.admin, def, url.Values{
		"nonce": {opened.Nonce},
		"name":  {"Offline"},
	})
	s.Require().NoError(err)
	s.Equal(UnreachableMessage, view.Status.Message)
	s.Equal("Offline", view.Values["name"])
}

func (s *ServiceSuite) TestSubmitUnauthorizedReturned() {
	def := modules.Genres()
	opened, err := s.service.Open(s.ctx, s.admin, def, "")
	s.Require().NoError(err)

	s.api.Revoke(s.admin.Token)
	_, err = s.service.Submit(s.ctx, s.admin, def, url.Values{
		"nonce": {opened.Nonce},
		"name":  {"Nope"},
	})
	s.ErrorIs(err, backend.ErrUnauthorized)
}

func (s *ServiceSuite) TestSubmitRequiresAdmin() {
	_, err := s.service.Submit(s.ctx, s.player, modules.Genres(), url.Values{"name": {"x"}})
	s.ErrorIs(err, ErrNotPermitted)
}

// Binder tests

func (s *ServiceSuite) TestBinderLifecycle() {
	s.Equal(model.BindingUnbound, s.bindingState("games"))

	nonce, err := s.binder.Bind(s.ctx, s.admin.ID, "games")
	s.Require().NoError(err)
	s.Equal(model.BindingBound, s.bindingState("games"))

	s.ErrorIs(s.binder.Consume(s.ctx, s.admin.ID, "games", "wrong"), ErrStaleForm)
	s.Equal(model.BindingBound, s.bindingState("games"), "a wrong nonce leaves the binding")

	s.Require().NoError(s.binder.Consume(s.ctx, s.admin.ID, "games", nonce))
	s.Equal(model.BindingUnbound, s.bindingState("games"))
}
