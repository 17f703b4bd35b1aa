package web_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/gamehub-console/internal/factory"
	"github.com/mcoot/gamehub-console/internal/model"
	"github.com/mcoot/gamehub-console/internal/testutil"
	"github.com/mcoot/gamehub-console/internal/testutil/fakeapi"
	"github.com/mcoot/gamehub-console/internal/web"
	"github.com/mcoot/gamehub-console/internal/web/middleware"
)

// webTestServer provides a test server for web interface testing
type webTestServer struct {
	t       *testing.T
	handler http.Handler
	app     *factory.TestApp
	api     *fakeapi.Server
	cookies *cookieJar
}

// newWebTestServer creates a console wired to a fresh fake API
func newWebTestServer(t *testing.T) *webTestServer {
	t.Helper()

	api := fakeapi.New(t)
	app := factory.NewTestApp(api.URL())

	router := web.NewRouter(web.RouterConfig{
		Logger:         testutil.NopLogger(),
		AuthService:    app.AuthService,
		ListingService: app.ListingService,
		FormService:    app.FormService,
		ProfileService: app.ProfileService,
		StatsService:   app.StatsService,
		Registry:       app.Registry,
	})

	return &webTestServer{
		t:       t,
		handler: router,
		app:     app,
		api:     api,
		cookies: newCookieJar(),
	}
}

// request makes an HTTP request and returns the response
func (ts *webTestServer) request(method, path string, form url.Values, htmx bool) *httptest.ResponseRecorder {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req := httptest.NewRequest(method, path, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if htmx {
		req.Header.Set("HX-Request", "true")
	}

	// Add cookies from jar
	ts.cookies.addTo(req)

	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)

	// Extract Set-Cookie headers into jar
	ts.cookies.extract(rr)

	return rr
}

// get makes a full-page GET request
func (ts *webTestServer) get(path string) *httptest.ResponseRecorder {
	return ts.request(http.MethodGet, path, nil, false)
}

// getHTMX makes a GET request as HTMX would
func (ts *webTestServer) getHTMX(path string) *httptest.ResponseRecorder {
	return ts.request(http.MethodGet, path, nil, true)
}

// post makes a POST request with form data (non-HTMX)
func (ts *webTestServer) post(path string, form url.Values) *httptest.ResponseRecorder {
	return ts.request(http.MethodPost, path, form, false)
}

// postHTMX makes a POST request with form data as an HTMX request
func (ts *webTestServer) postHTMX(path string, form url.Values) *httptest.ResponseRecorder {
	return ts.request(http.MethodPost, path, form, true)
}

// login signs in through the login form
func (ts *webTestServer) login(email, password string) {
	ts.t.Helper()
	rr := ts.post("/login", url.Values{"email": {email}, "password": {password}})
	require.Equal(ts.t, http.StatusSeeOther, rr.Code, "Expected redirect after login")
	require.Equal(ts.t, "/", rr.Header().Get("Location"))
	require.True(ts.t, ts.cookies.hasSession(), "Expected session cookie to be set")
}

func (ts *webTestServer) loginAdmin() {
	ts.login(fakeapi.AdminEmail, fakeapi.AdminPassword)
}

func (ts *webTestServer) loginPlayer() {
	ts.login(fakeapi.PlayerEmail, fakeapi.PlayerPassword)
}

// session returns the stored console session of the jar's cookie
func (ts *webTestServer) session() *model.AuthSession {
	ts.t.Helper()
	cookie := ts.cookies.cookies[middleware.SessionCookieName]
	require.NotNil(ts.t, cookie)
	session, err := ts.app.AuthService.Current(ts.t.Context(), cookie.Value)
	require.NoError(ts.t, err)
	return session
}

// fragment fetches an HTMX fragment and parses it
func (ts *webTestServer) fragment(path string) *goquery.Document {
	ts.t.Helper()
	rr := ts.getHTMX(path)
	require.Equal(ts.t, http.StatusOK, rr.Code, "GET %s: %s", path, rr.Body.String())
	return parseHTML(ts.t, rr.Body)
}

// formNonce reads the nonce of a rendered form
func formNonce(t *testing.T, doc *goquery.Document, formSelector string) string {
	t.Helper()
	nonce, ok := doc.Find(formSelector + ` input[name="nonce"]`).Attr("value")
	require.True(t, ok, "form %s has no nonce", formSelector)
	require.NotEmpty(t, nonce)
	return nonce
}

// rowIDs returns the data-id of every rendered list row
func rowIDs(doc *goquery.Document) []string {
	var ids []string
	doc.Find("tr[data-id]").Each(func(_ int, s *goquery.Selection) {
		id, _ := s.Attr("data-id")
		ids = append(ids, id)
	})
	return ids
}

// parseHTML parses the response body as HTML
func parseHTML(t *testing.T, r io.Reader) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(r)
	require.NoError(t, err)
	return doc
}

// cookieJar maintains cookies across requests (like a browser would)
type cookieJar struct {
	cookies map[string]*http.Cookie
}

func newCookieJar() *cookieJar {
	return &cookieJar{
		cookies: make(map[string]*http.Cookie),
	}
}

// addTo adds all cookies to the request
func (j *cookieJar) addTo(req *http.Request) {
	for _, cookie := range j.cookies {
		req.AddCookie(&http.Cookie{Name: cookie.Name, Value: cookie.Value})
	}
}

// extract extracts Set-Cookie headers from response
func (j *cookieJar) extract(rr *httptest.ResponseRecorder) {
	for _, cookie := range rr.Result().Cookies() {
		if cookie.MaxAge < 0 || cookie.Value == "" {
			// Cookie being deleted
			delete(j.cookies, cookie.Name)
		} else {
			j.cookies[cookie.Name] = cookie
		}
	}
}

// hasSession returns true if the session cookie is set
func (j *cookieJar) hasSession() bool {
	_, ok := j.cookies[middleware.SessionCookieName]
	return ok
}
