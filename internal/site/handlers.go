package site

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dalemusser/caligben/httputil"
	"github.com/dalemusser/caligben/internal/contact"
	"github.com/dalemusser/caligben/pantry/httpnav"
	"github.com/dalemusser/caligben/pantry/session"
	"go.uber.org/zap"
)

// pageData is the root value of every page template.
type pageData struct {
	Title        string
	SiteName     string
	AssetVersion string
	Nav          []NavLink
	Services     []Service
	Form         contact.Snapshot
	// RefreshAfter, when positive, makes the page reload itself after that
	// many seconds (while a confirmation is showing).
	RefreshAfter time.Duration
}

func (s *Site) pageData(r *http.Request, title string) pageData {
	return pageData{
		Title:        title,
		SiteName:     s.cfg.SiteName,
		AssetVersion: s.assetVersion,
		Nav:          NavLinks(r.URL.Path),
		Services:     Services,
	}
}

func (s *Site) page(name, title string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.engine.Render(w, http.StatusOK, name, s.pageData(r, title))
	}
}

// visitor returns the form state of the request's session.
func (s *Site) visitor(r *http.Request) (*Visitor, *session.Session) {
	sess := session.FromContext(r.Context())
	return s.visitors.Get(sess.ID()), sess
}

func (s *Site) renderContact(w http.ResponseWriter, r *http.Request, status int, vis *Visitor) {
	data := s.pageData(r, "Contact")
	data.Form = vis.Page.Snapshot()
	if left, ok := vis.Controller.Remaining(); ok && data.Form.SuccessVisible {
		data.RefreshAfter = max(left, time.Second)
	}
	s.engine.Render(w, status, "contact", data)
}

func (s *Site) contactPage(w http.ResponseWriter, r *http.Request) {
	vis, _ := s.visitor(r)
	s.renderContact(w, r, http.StatusOK, vis)
}

// submitContact handles the HTML form. Invalid input re-renders the page
// with 422; an accepted submission redirects back to /contact, which then
// shows the confirmation until it reverts.
func (s *Site) submitContact(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "malformed form body", http.StatusBadRequest)
		return
	}

	vis, sess := s.visitor(r)
	res := vis.Controller.SubmitAttempt(r.Context(), contact.FieldsFromForm(r.PostForm))
	if !res.Valid {
		s.renderContact(w, r, http.StatusUnprocessableEntity, vis)
		return
	}

	s.countSubmission(sess)
	http.Redirect(w, r, "/contact", http.StatusSeeOther)
}

func (s *Site) dismissContact(w http.ResponseWriter, r *http.Request) {
	vis, _ := s.visitor(r)
	vis.Controller.Dismiss()
	http.Redirect(w, r, httpnav.ResolveBackURL(r, "/contact"), http.StatusSeeOther)
}

// contactResponse is the body of POST /api/contact.
type contactResponse struct {
	Valid    bool              `json:"valid"`
	Errors   map[string]string `json:"errors"`
	State    string            `json:"state"`
	RevertAt *time.Time        `json:"revert_at,omitempty"`
}

func (s *Site) submitContactAPI(w http.ResponseWriter, r *http.Request) {
	var fields contact.Fields
	if err := httputil.BindJSON(r, &fields); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, httputil.ErrBodyTooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		httputil.JSONError(w, status, "invalid_request", err.Error())
		return
	}

	vis, sess := s.visitor(r)
	res := vis.Controller.SubmitAttempt(r.Context(), fields)

	resp := contactResponse{
		Valid:  res.Valid,
		Errors: res.Messages(),
		State:  vis.Controller.State().String(),
	}
	if !res.Valid {
		httputil.WriteJSON(w, http.StatusUnprocessableEntity, resp)
		return
	}
	if rev := vis.Controller.Pending(); rev != nil {
		at := rev.At().UTC()
		resp.RevertAt = &at
	}
	s.countSubmission(sess)
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// countSubmission tracks accepted submissions per visitor in the session.
func (s *Site) countSubmission(sess *session.Session) {
	n := sess.GetInt("submissions") + 1
	sess.Set("submissions", n)
	s.logger.Debug("visitor submission counted", zap.Int("submissions", n))
}

func (s *Site) rateLimited(w http.ResponseWriter, r *http.Request) {
	s.logger.Info("contact submission rate limited", zap.String("remote_ip", r.RemoteAddr))
	if strings.HasPrefix(r.URL.Path, "/api/") {
		httputil.JSONError(w, http.StatusTooManyRequests, "rate_limited",
			"Too many submissions. Please try again shortly.")
		return
	}
	http.Error(w, "Too many submissions. Please try again shortly.", http.StatusTooManyRequests)
}
