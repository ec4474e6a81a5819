package handlers

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Pages serves the SPA build from webDir. Unknown paths without a file
// extension get index.html so client-side routes like /entry/{id} load.
// With no webDir every page is 404.
func Pages(webDir string) http.Handler {
	if webDir == "" {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeMessage(w, http.StatusNotFound, "Not found")
		})
	}

	files := http.FileServer(http.Dir(webDir))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clean := path.Clean("/" + r.URL.Path)
		if info, err := os.Stat(filepath.Join(webDir, filepath.FromSlash(clean))); err == nil && !info.IsDir() {
			files.ServeHTTP(w, r)
			return
		}
		if path.Ext(clean) != "" || strings.HasPrefix(clean, "/api/") {
			http.NotFound(w, r)
			return
		}
		http.ServeFile(w, r, filepath.Join(webDir, "index.html"))
	})
}
