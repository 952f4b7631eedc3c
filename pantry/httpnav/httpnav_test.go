package httpnav

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func TestResolveBackURL(t *testing.T) {
	tests := []struct {
		name    string
		form    url.Values
		referer string
		want    string
	}{
		{"fallback", nil, "", "/contact"},
		{"return field", url.Values{"return": {"/services"}}, "", "/services"},
		{"protocol-relative return", url.Values{"return": {"//evil.example"}}, "", "/contact"},
		{"same-host referer", nil, "http://caligben.example/about?x=1", "/about?x=1"},
		{"foreign referer", nil, "https://evil.example/phish", "/contact"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "http://caligben.example/contact/dismiss",
				strings.NewReader(tt.form.Encode()))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			if tt.referer != "" {
				req.Header.Set("Referer", tt.referer)
			}
			if got := ResolveBackURL(req, "/contact"); got != tt.want {
				t.Errorf("ResolveBackURL = %q, want %q", got, tt.want)
			}
		})
	}
}
