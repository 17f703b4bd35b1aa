package middleware

import (
	"log/slog"
	"net/http"

	"github.com/mcoot/gamehub-console/internal/middleware"
)

// Recovery creates panic recovery middleware for the console.
// Full pages get an HTML error page; HTMX fragments get an inline error.
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return middleware.Recovery(logger, consolePanicHandler)
}

func consolePanicHandler(w http.ResponseWriter, r *http.Request, _ any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusInternalServerError)
	if IsHTMX(r) {
		_, _ = w.Write([]byte(`<div class="module-error status-error" role="alert">Something went wrong. Please try again.</div>`))
		return
	}
	_, _ = w.Write([]byte(`<!DOCTYPE html>
<html>
<head><title>Error | GameHub Console</title></head>
<body>
<h1>Internal Server Error</h1>
<p>Something went wrong. Please try again later.</p>
<p><a href="/">Return to the console</a></p>
</body>
</html>`))
}
