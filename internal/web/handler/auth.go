package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/mcoot/gamehub-console/internal/backend"
	"github.com/mcoot/gamehub-console/internal/services/auth"
	"github.com/mcoot/gamehub-console/internal/web/middleware"
	"github.com/mcoot/gamehub-console/internal/web/templates"
)

// AuthHandler handles the login page and logout
type AuthHandler struct {
	authService  *auth.Service
	cookieSecure bool
	respond      responder
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(authService *auth.Service, cookieSecure bool, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		cookieSecure: cookieSecure,
		respond:      responder{sessions: authService, logger: logger},
	}
}

// LoginPage renders the login page
func (h *AuthHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	if _, err := h.authService.Current(r.Context(), middleware.SessionID(r)); err == nil {
		// Already logged in
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	h.renderLogin(w, r, http.StatusOK, "", "")
}

// Login exchanges the submitted credentials for a console session
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderLogin(w, r, http.StatusBadRequest, "", "Invalid form data")
		return
	}

	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")

	session, err := h.authService.Login(r.Context(), email, password)
	if err != nil {
		status, msg := loginFailure(err)
		if status >= http.StatusInternalServerError {
			h.respond.logger.Error("login failed", slog.String("error", err.Error()))
		}
		h.renderLogin(w, r, status, email, msg)
		return
	}

	h.respond.logger.Info("console session started", slog.String("user_id", session.User.ID))
	middleware.SetSessionCookie(w, session.ID, session.ExpiresAt, h.cookieSecure)
	middleware.SetFlash(w, "success", "Welcome back, "+displayName(session.User.Username, session.User.Email)+"!")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Logout clears the console session and returns to the login page
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.authService.Clear(r.Context(), middleware.SessionID(r)); err != nil {
		h.respond.logger.Error("failed to clear session", slog.String("error", err.Error()))
	}
	middleware.ClearSessionCookie(w)
	middleware.SetFlash(w, "info", "You have been logged out")
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (h *AuthHandler) renderLogin(w http.ResponseWriter, r *http.Request, status int, email, errorMsg string) {
	data := templates.LoginData{
		PageData: templates.PageData{
			Title: "Login",
			Flash: middleware.GetFlash(r.Context()),
		},
		Email: email,
		Error: errorMsg,
	}
	h.respond.render(w, r, status, templates.Login(data))
}

func loginFailure(err error) (int, string) {
	switch {
	case errors.Is(err, auth.ErrMissingCredentials):
		return http.StatusBadRequest, "Email and password are required"
	case errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Invalid email or password"
	case errors.Is(err, auth.ErrTokenExpired):
		return http.StatusUnauthorized, "The issued token has already expired"
	case errors.Is(err, backend.ErrUnavailable):
		return http.StatusBadGateway, "Could not reach the server"
	default:
		return http.StatusBadGateway, backend.Message(err, "Login failed")
	}
}

func displayName(username, email string) string {
	if username != "" {
		return username
	}
	return email
}
