package server

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestIsValidHost(t *testing.T) {
	tests := []struct {
		host string
		want bool
	}{
		{"example.com", true},
		{"example.com:8443", true},
		{"[::1]:8080", true},
		{"", false},
		{"example.com:99999", false},
		{"evil.com\r\nX-Injected: 1", false},
		{"http://evil.com", false},
		{"/path", false},
		{"[nothost]:80", false},
	}
	for _, tt := range tests {
		if got := isValidHost(tt.host); got != tt.want {
			t.Errorf("isValidHost(%q) = %v, want %v", tt.host, got, tt.want)
		}
	}
}

func TestHTTPRedirectHandler(t *testing.T) {
	h := httpRedirectHandler()

	req := httptest.NewRequest(http.MethodGet, "http://caligben.example/contact?x=1", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusMovedPermanently {
		t.Fatalf("status = %d, want 301", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "https://caligben.example/contact?x=1" {
		t.Errorf("Location = %q", loc)
	}
}

func TestValidateTLSFiles(t *testing.T) {
	dir := t.TempDir()
	cert := filepath.Join(dir, "cert.pem")
	key := filepath.Join(dir, "key.pem")
	if err := os.WriteFile(cert, []byte("cert"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(key, []byte("key"), 0o600); err != nil {
		t.Fatal(err)
	}

	if err := validateTLSFiles(cert, key); err != nil {
		t.Fatalf("valid files rejected: %v", err)
	}
	if err := validateTLSFiles(cert, filepath.Join(dir, "missing.pem")); err == nil {
		t.Error("missing key accepted")
	}
	if err := validateTLSFiles(dir, key); err == nil {
		t.Error("directory accepted as cert")
	}

	if runtime.GOOS == "windows" {
		return
	}
	if err := os.Chmod(key, 0o644); err != nil {
		t.Fatal(err)
	}
	var perm *permissionError
	if err := validateTLSFiles(cert, key); !errors.As(err, &perm) {
		t.Errorf("world-readable key: err = %v, want permissionError", err)
	}
}
