package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/caligben/internal/contact"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestTruncateUTF8(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"hello", 10, "hello"},
		{"hello", 3, "hel"},
		{"héllo", 2, "h"},
		{"abc", 0, ""},
	}
	for _, tt := range tests {
		if got := truncateUTF8(tt.in, tt.max); got != tt.want {
			t.Errorf("truncateUTF8(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}

func TestHTTPMetrics_UsesRoutePattern(t *testing.T) {
	reqDuration.Reset()

	r := chi.NewRouter()
	r.Use(HTTPMetrics)
	r.Get("/static/*", func(w http.ResponseWriter, r *http.Request) {})

	for _, p := range []string{"/static/site.css", "/static/logo.svg", "/static/site.css"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, p, nil))
	}

	if n := testutil.CollectAndCount(reqDuration); n != 1 {
		t.Errorf("series = %d, want 1 (one route pattern)", n)
	}
}

func TestContactObserver(t *testing.T) {
	var obs ContactObserver

	accepted := testutil.ToFloat64(contactSubmissions.WithLabelValues("accepted"))
	rejected := testutil.ToFloat64(contactSubmissions.WithLabelValues("rejected"))
	nameRequired := testutil.ToFloat64(contactFieldErrors.WithLabelValues("name", "required"))
	expired := testutil.ToFloat64(contactReversions.WithLabelValues("expired"))

	obs.Attempted(contact.Validate(contact.Fields{}))
	obs.Attempted(contact.Validate(contact.Fields{
		Name:    "Ada Lovelace",
		Email:   "ada@example.com",
		Service: "tutoring",
		Message: "I would like a tutoring session.",
	}))
	obs.Reverted(contact.RevertExpired)

	if got := testutil.ToFloat64(contactSubmissions.WithLabelValues("accepted")) - accepted; got != 1 {
		t.Errorf("accepted delta = %v, want 1", got)
	}
	if got := testutil.ToFloat64(contactSubmissions.WithLabelValues("rejected")) - rejected; got != 1 {
		t.Errorf("rejected delta = %v, want 1", got)
	}
	if got := testutil.ToFloat64(contactFieldErrors.WithLabelValues("name", "required")) - nameRequired; got != 1 {
		t.Errorf("name/required delta = %v, want 1", got)
	}
	if got := testutil.ToFloat64(contactReversions.WithLabelValues("expired")) - expired; got != 1 {
		t.Errorf("expired delta = %v, want 1", got)
	}
}
