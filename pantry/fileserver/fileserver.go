// pantry/fileserver/fileserver.go

// Package fileserver serves static assets from an fs.FS, typically an
// embedded one, without directory listings.
package fileserver

import (
	"io/fs"
	"net/http"
	"path"
	"strings"
)

const (
	immutableCache = "public, max-age=31536000, immutable"
	shortCache     = "public, max-age=300"
)

// Handler serves files from fsys under urlPrefix: "/static/site.css" with
// prefix "/static" reads "site.css". Requests carrying a ?v= fingerprint
// are cached as immutable. Directories answer 404.
func Handler(urlPrefix string, fsys fs.FS) http.Handler {
	files := http.FileServerFS(fsys)

	return http.StripPrefix(urlPrefix, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(path.Clean("/"+r.URL.Path), "/")
		if name == "" || name == "." {
			http.NotFound(w, r)
			return
		}
		info, err := fs.Stat(fsys, name)
		if err != nil || info.IsDir() {
			http.NotFound(w, r)
			return
		}

		if r.URL.Query().Get("v") != "" {
			w.Header().Set("Cache-Control", immutableCache)
		} else {
			w.Header().Set("Cache-Control", shortCache)
		}
		files.ServeHTTP(w, r)
	}))
}
