package middleware

import (
	"net/http"
	"strings"

	"github.com/zenjournal/zenjournal-backend/internal/auth"
	"github.com/zenjournal/zenjournal-backend/internal/metrics"
)

const (
	HomePath  = "/"
	LoginPath = "/login"
)

var publicOnlyPaths = map[string]bool{
	"/login":    true,
	"/register": true,
}

// GateDecision returns where a page navigation must be redirected, or "" to
// let it through. Signed-in users are sent home from /login and /register;
// anonymous users are sent to /login from / and /entry/*.
func GateDecision(path string, authenticated bool) string {
	switch {
	case publicOnlyPaths[path]:
		if authenticated {
			return HomePath
		}
	case isProtectedPage(path):
		if !authenticated {
			return LoginPath
		}
	}
	return ""
}

func isProtectedPage(path string) bool {
	return path == "/" || path == "/entry" || strings.HasPrefix(path, "/entry/")
}

// Gatekeeper redirects page navigations with 307 per GateDecision. It must
// run after Session.
func Gatekeeper(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, authenticated := auth.ClaimsFromContext(r.Context())
		if target := GateDecision(r.URL.Path, authenticated); target != "" {
			metrics.GatekeeperRedirect(target)
			http.Redirect(w, r, target, http.StatusTemporaryRedirect)
			return
		}
		next.ServeHTTP(w, r)
	})
}
