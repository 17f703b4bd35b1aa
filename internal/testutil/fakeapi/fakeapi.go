// Package fakeapi is an in-memory GameHub REST API for tests. It serves the
// collection, identity, login and stats endpoints the console consumes,
// populates references the way the real API does, and records every request.
package fakeapi

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/mux"
)

// Seeded accounts
const (
	AdminID       = "player-admin"
	AdminEmail    = "admin@gamehub.test"
	AdminPassword = "admin-pass"
	AdminName     = "root"

	PlayerID       = "player-alice"
	PlayerEmail    = "alice@gamehub.test"
	PlayerPassword = "alice-pass"
	PlayerName     = "alice"
)

// Record is one stored entity
type Record map[string]any

// Request is a recorded inbound request
type Request struct {
	Method        string
	Path          string
	Query         url.Values
	Authorization string
	ContentType   string
	Body          map[string]any
}

type collection struct {
	singular string
	order    []string
	items    map[string]Record
	required []string
	refs     map[string]string
}

type failure struct {
	status int
	body   string
}

// Server is a fake GameHub API backed by httptest
type Server struct {
	mu          sync.Mutex
	srv         *httptest.Server
	secret      []byte
	collections map[string]*collection
	tokens      map[string]string
	requests    []Request
	failures    []failure
	before      map[string][]func()
	seq         int
	echoPlayer  bool
}

// New starts a seeded fake API. It is closed when the test ends.
func New(t testing.TB) *Server {
	t.Helper()
	s := NewUnstarted()
	s.srv = httptest.NewServer(s.Handler())
	t.Cleanup(s.Close)
	return s
}

// NewUnstarted returns a seeded fake API without a listener
func NewUnstarted() *Server {
	s := &Server{
		secret:     []byte("fakeapi-secret"),
		tokens:     make(map[string]string),
		echoPlayer: true,
		collections: map[string]*collection{
			"genres":    {singular: "genre", required: []string{"name"}},
			"platforms": {singular: "platform", required: []string{"name"}},
			"games": {singular: "game", required: []string{"title", "genre", "platform"},
				refs: map[string]string{"genre": "genres", "platform": "platforms"}},
			"players": {singular: "player", required: []string{"username", "email"}},
			"sessions": {singular: "session", required: []string{"player", "game"},
				refs: map[string]string{"player": "players", "game": "games"}},
			"authors": {singular: "author", required: []string{"name"}},
			"books": {singular: "book", required: []string{"title", "authorId"},
				refs: map[string]string{"authorId": "authors"}},
		},
	}
	for _, c := range s.collections {
		c.items = make(map[string]Record)
	}
	s.seed()
	return s
}

func (s *Server) seed() {
	created := "2024-01-01T12:00:00Z"
	s.put("players", Record{"_id": AdminID, "username": AdminName, "email": AdminEmail,
		"password": AdminPassword, "role": "admin", "totalScore": 120.0, "createdAt": created})
	s.put("players", Record{"_id": PlayerID, "username": PlayerName, "email": PlayerEmail,
		"password": PlayerPassword, "role": "player", "totalScore": 40.0, "createdAt": created})

	for i, name := range []string{"Action", "Adventure", "Puzzle", "RPG", "Racing", "Shooter", "Sports", "Strategy", "Simulation", "Platformer", "Fighting", "Horror"} {
		s.put("genres", Record{"_id": fmt.Sprintf("genre-%02d", i+1), "name": name, "slug": strings.ToLower(name)})
	}
	for i, name := range []string{"PC", "PlayStation 5", "Xbox Series X", "Switch"} {
		s.put("platforms", Record{"_id": fmt.Sprintf("platform-%02d", i+1), "name": name, "slug": strings.ToLower(strings.ReplaceAll(name, " ", "-"))})
	}
	for i, title := range []string{"Tetris", "Portal", "Doom", "Celeste", "Hades", "Outer Wilds", "Factorio", "Forza", "Zelda", "Halo", "FIFA", "Street Fighter"} {
		s.put("games", Record{
			"_id":      fmt.Sprintf("game-%02d", i+1),
			"title":    title,
			"slug":     strings.ToLower(strings.ReplaceAll(title, " ", "-")),
			"genre":    fmt.Sprintf("genre-%02d", i%12+1),
			"platform": fmt.Sprintf("platform-%02d", i%4+1),
		})
	}
	s.put("sessions", Record{"_id": "session-01", "player": PlayerID, "game": "game-01",
		"score": 40.0, "active": true, "durationSeconds": 3725.0, "createdAt": created})
	s.put("sessions", Record{"_id": "session-02", "player": AdminID, "game": "game-02",
		"score": 120.0, "active": false, "durationSeconds": 45.0, "createdAt": created})
	s.put("sessions", Record{"_id": "session-03", "player": "player-gone", "game": "game-03",
		"score": 0.0, "active": false, "createdAt": created})

	for i, name := range []string{"Ursula K. Le Guin", "Terry Pratchett", "Iain M. Banks"} {
		s.put("authors", Record{"_id": fmt.Sprintf("author-%02d", i+1), "name": name, "birthYear": float64(1929 + i*19)})
	}
	s.put("books", Record{"_id": "book-01", "title": "The Dispossessed", "publishedYear": 1974.0, "authorId": "author-01"})
	s.put("books", Record{"_id": "book-02", "title": "Small Gods", "publishedYear": 1992.0, "authorId": "author-02"})
}

func (s *Server) put(name string, r Record) {
	c := s.collections[name]
	id := r["_id"].(string)
	if _, exists := c.items[id]; !exists {
		c.order = append(c.order, id)
	}
	c.items[id] = r
}

// URL returns the base URL of the running server
func (s *Server) URL() string {
	return s.srv.URL
}

// Close shuts the server down. Later calls fail with connection errors.
func (s *Server) Close() {
	if s.srv != nil {
		s.srv.Close()
	}
}

// Handler returns the API router
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(s.record)
	r.HandleFunc("/auth/login", s.handleLogin).Methods(http.MethodPost)
	r.HandleFunc("/auth/me", s.authed(s.handleMe)).Methods(http.MethodGet)
	r.HandleFunc("/api/stats", s.authed(s.handleStats)).Methods(http.MethodGet)
	r.HandleFunc("/api/{collection}", s.authed(s.handleList)).Methods(http.MethodGet)
	r.HandleFunc("/api/{collection}", s.authed(s.handleCreate)).Methods(http.MethodPost)
	r.HandleFunc("/api/{collection}/{id}", s.authed(s.handleGet)).Methods(http.MethodGet)
	r.HandleFunc("/api/{collection}/{id}", s.authed(s.handleUpdate)).Methods(http.MethodPut)
	r.HandleFunc("/api/{collection}/{id}", s.authed(s.handleDelete)).Methods(http.MethodDelete)
	return r
}

// IssueToken signs a token for a seeded or added player
func (s *Server) IssueToken(playerID string, ttl time.Duration) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.issueLocked(playerID, time.Now().Add(ttl))
}

func (s *Server) issueLocked(playerID string, exp time.Time) string {
	s.seq++
	role, _ := s.collections["players"].items[playerID]["role"].(string)
	claims := jwt.MapClaims{
		"sub":  playerID,
		"role": role,
		"exp":  exp.Unix(),
		"jti":  strconv.Itoa(s.seq),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		panic(err)
	}
	s.tokens[token] = playerID
	return token
}

// SetEchoPlayer controls whether PUT /api/players/{id} returns the player
func (s *Server) SetEchoPlayer(echo bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.echoPlayer = echo
}

// Revoke makes the API reject a token with 401
func (s *Server) Revoke(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, token)
}

// FailNext makes the next request answer with status and a raw body
func (s *Server) FailNext(status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = append(s.failures, failure{status: status, body: body})
}

// BeforeNext runs fn once, just before the next request with the given
// method is handled
func (s *Server) BeforeNext(method string, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.before == nil {
		s.before = make(map[string][]func())
	}
	s.before[method] = append(s.before[method], fn)
}

// Requests returns a copy of the recorded requests
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// LastRequest returns the most recent request with the given method
func (s *Server) LastRequest(method string) (Request, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.requests) - 1; i >= 0; i-- {
		if s.requests[i].Method == method {
			return s.requests[i], true
		}
	}
	return Request{}, false
}

// ResetRequests drops the request log
func (s *Server) ResetRequests() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = nil
}

// Count returns the number of records in a collection
func (s *Server) Count(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.collections[name].order)
}

// Item returns a copy of a stored record
func (s *Server) Item(name, id string) (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.collections[name].items[id]
	if !ok {
		return nil, false
	}
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out, true
}

// Add stores a record and returns its id
func (s *Server) Add(name string, r Record) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := r["_id"]; !ok {
		r["_id"] = s.nextID(name)
	}
	s.put(name, r)
	return r["_id"].(string)
}

func (s *Server) nextID(name string) string {
	s.seq++
	return fmt.Sprintf("%s-new-%d", s.collections[name].singular, s.seq)
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req := Request{
			Method:        r.Method,
			Path:          r.URL.Path,
			Query:         r.URL.Query(),
			Authorization: r.Header.Get("Authorization"),
			ContentType:   r.Header.Get("Content-Type"),
		}
		if r.Body != nil {
			data, _ := io.ReadAll(r.Body)
			if len(data) > 0 {
				_ = json.Unmarshal(data, &req.Body)
			}
			r.Body = io.NopCloser(strings.NewReader(string(data)))
		}

		s.mu.Lock()
		s.requests = append(s.requests, req)
		var fail *failure
		if len(s.failures) > 0 {
			fail = &s.failures[0]
			s.failures = s.failures[1:]
		}
		var hook func()
		if queued := s.before[r.Method]; len(queued) > 0 {
			hook = queued[0]
			s.before[r.Method] = queued[1:]
		}
		s.mu.Unlock()

		if hook != nil {
			hook()
		}

		if fail != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(fail.status)
			_, _ = io.WriteString(w, fail.body)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type authedHandler func(w http.ResponseWriter, r *http.Request, caller Record)

func (s *Server) authed(h authedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")

		s.mu.Lock()
		id, ok := s.tokens[token]
		caller := s.collections["players"].items[id]
		s.mu.Unlock()

		if !ok || caller == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "Invalid token"})
			return
		}
		h(w, r, caller)
	}
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"message": "Invalid body"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	players := s.collections["players"]
	for _, id := range players.order {
		p := players.items[id]
		if p["email"] == body.Email && p["password"] == body.Password {
			token := s.issueLocked(id, time.Now().Add(time.Hour))
			writeJSON(w, http.StatusOK, map[string]any{"token": token, "user": s.render("players", p)})
			return
		}
	}
	writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "Invalid credentials"})
}

func (s *Server) handleMe(w http.ResponseWriter, _ *http.Request, caller Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"user": s.render("players", caller)})
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request, _ Record) {
	s.mu.Lock()
	defer s.mu.Unlock()

	players := s.sorted("players", "-totalScore")
	if len(players) > 5 {
		players = players[:5]
	}
	top := make([]Record, 0, len(players))
	for _, p := range players {
		top = append(top, s.render("players", p))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"totalGames":     len(s.collections["games"].order),
		"totalPlayers":   len(s.collections["players"].order),
		"totalGenres":    len(s.collections["genres"].order),
		"totalPlatforms": len(s.collections["platforms"].order),
		"totalSessions":  len(s.collections["sessions"].order),
		"topFivePlayer":  map[string]any{"players": top},
	})
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (string, *collection, bool) {
	name := mux.Vars(r)["collection"]
	c, ok := s.collections[name]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"message": "Unknown collection"})
		return "", nil, false
	}
	return name, c, true
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request, _ Record) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name, _, ok := s.lookup(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(q.Get("limit"))

	all := s.sorted(name, q.Get("sort"))
	items := all
	if limit > 0 {
		start := (page - 1) * limit
		end := start + limit
		if start > len(all) {
			start = len(all)
		}
		if end > len(all) {
			end = len(all)
		}
		items = all[start:end]
	}

	out := make([]Record, 0, len(items))
	for _, item := range items {
		out = append(out, s.render(name, item))
	}
	writeJSON(w, http.StatusOK, map[string]any{name: out, "total": len(all), "page": page})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request, _ Record) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name, c, ok := s.lookup(w, r)
	if !ok {
		return
	}
	item, ok := c.items[mux.Vars(r)["id"]]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"message": "Not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{c.singular: s.render(name, item)})
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request, caller Record) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name, c, ok := s.lookup(w, r)
	if !ok {
		return
	}
	if caller["role"] != "admin" {
		writeJSON(w, http.StatusForbidden, map[string]any{"message": "Admin role required"})
		return
	}

	var body Record
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"message": "Invalid body"})
		return
	}
	for _, field := range c.required {
		if v, present := body[field]; !present || v == nil || v == "" {
			writeJSON(w, http.StatusBadRequest, map[string]any{"message": field + " is required"})
			return
		}
	}

	delete(body, "_id")
	body["_id"] = s.nextID(name)
	s.put(name, body)
	writeJSON(w, http.StatusCreated, map[string]any{c.singular: s.render(name, body)})
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request, caller Record) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name, c, ok := s.lookup(w, r)
	if !ok {
		return
	}
	id := mux.Vars(r)["id"]
	isAdmin := caller["role"] == "admin"
	if !isAdmin && !(name == "players" && caller["_id"] == id) {
		writeJSON(w, http.StatusForbidden, map[string]any{"message": "Admin role required"})
		return
	}

	item, ok := c.items[id]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"message": "Not found"})
		return
	}

	var body Record
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"message": "Invalid body"})
		return
	}
	for _, field := range c.required {
		if v, present := body[field]; present && v == "" {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": field + " cannot be empty"})
			return
		}
	}
	if !isAdmin {
		delete(body, "role")
	}

	for k, v := range body {
		if k == "_id" {
			continue
		}
		item[k] = v
	}

	if name == "players" && !s.echoPlayer {
		writeJSON(w, http.StatusOK, map[string]any{"message": "Player updated"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{c.singular: s.render(name, item)})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request, caller Record) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, c, ok := s.lookup(w, r)
	if !ok {
		return
	}
	if caller["role"] != "admin" {
		writeJSON(w, http.StatusForbidden, map[string]any{"message": "Admin role required"})
		return
	}

	id := mux.Vars(r)["id"]
	if _, ok := c.items[id]; !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"message": "Not found"})
		return
	}
	delete(c.items, id)
	for i, existing := range c.order {
		if existing == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

// sorted returns the records of a collection ordered by a "field" or
// "-field" key. An empty key keeps insertion order.
func (s *Server) sorted(name, key string) []Record {
	c := s.collections[name]
	out := make([]Record, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.items[id])
	}
	if key == "" {
		return out
	}

	desc := strings.HasPrefix(key, "-")
	field := strings.TrimPrefix(key, "-")
	sort.SliceStable(out, func(i, j int) bool {
		if desc {
			return less(out[j][field], out[i][field])
		}
		return less(out[i][field], out[j][field])
	})
	return out
}

func less(a, b any) bool {
	af, aNum := a.(float64)
	bf, bNum := b.(float64)
	if aNum && bNum {
		return af < bf
	}
	return fmt.Sprint(a) < fmt.Sprint(b)
}

// render copies a record, drops secrets and populates references
func (s *Server) render(name string, r Record) Record {
	out := make(Record, len(r))
	for k, v := range r {
		if k == "password" {
			continue
		}
		out[k] = v
	}
	for field, target := range s.collections[name].refs {
		id, ok := r[field].(string)
		if !ok {
			continue
		}
		if ref, found := s.collections[target].items[id]; found {
			out[field] = s.render(target, ref)
		} else {
			out[field] = nil
		}
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
