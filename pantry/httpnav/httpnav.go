// pantry/httpnav/httpnav.go
package httpnav

import (
	"net/http"
	"net/url"
	"strings"
)

// ResolveBackURL returns a safe local URL to send the visitor back to,
// taken from the "return" form or query value or a same-host Referer.
// fallback is used otherwise and must itself be local.
func ResolveBackURL(r *http.Request, fallback string) string {
	if !IsLocal(fallback) {
		fallback = "/"
	}
	if ret := strings.TrimSpace(r.FormValue("return")); IsLocal(ret) {
		return ret
	}
	if ref := r.Header.Get("Referer"); ref != "" {
		if u, err := url.Parse(ref); err == nil && (u.Host == "" || u.Host == r.Host) {
			p := u.Path
			if u.RawQuery != "" {
				p += "?" + u.RawQuery
			}
			if IsLocal(p) {
				return p
			}
		}
	}
	return fallback
}

// IsLocal accepts absolute paths on this host. "//host" and "/\host" are
// rejected because browsers treat them as off-site.
func IsLocal(p string) bool {
	return strings.HasPrefix(p, "/") &&
		!strings.HasPrefix(p, "//") &&
		!strings.HasPrefix(p, "/\\")
}
