// session/session.go
package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// Session is one visitor's cookie-backed key/value bag.
type Session struct {
	mu        sync.RWMutex
	id        string
	data      map[string]any
	isNew     bool
	modified  bool
	createdAt time.Time
	expiresAt time.Time
}

func (s *Session) ID() string { return s.id }

// IsNew reports whether the session was created for this request.
func (s *Session) IsNew() bool { return s.isNew }

func (s *Session) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	return v, ok
}

func (s *Session) GetString(key string) string {
	v, _ := s.Get(key)
	str, _ := v.(string)
	return str
}

// GetInt also accepts float64, which is what JSON-backed stores return.
func (s *Session) GetInt(key string) int {
	v, _ := s.Get(key)
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return 0
}

func (s *Session) Set(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	s.modified = true
}

func (s *Session) Modified() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.modified
}

func (s *Session) ExpiresAt() time.Time { return s.expiresAt }

// Store persists session data.
type Store interface {
	// Load returns ErrNotFound or ErrExpired for unusable IDs.
	Load(ctx context.Context, id string) (*SessionData, error)
	Save(ctx context.Context, data *SessionData) error
	Delete(ctx context.Context, id string) error
	Close() error
}

// SessionData is the serialized form kept by a Store.
type SessionData struct {
	ID        string         `json:"id"`
	Data      map[string]any `json:"data"`
	ExpiresAt time.Time      `json:"expires_at"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func (s *SessionData) MarshalBinary() ([]byte, error) { return json.Marshal(s) }

func (s *SessionData) UnmarshalBinary(data []byte) error { return json.Unmarshal(data, s) }

var (
	ErrNotFound = errors.New("session: not found")
	ErrExpired  = errors.New("session: expired")
)

func generateID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("session: generate id: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// Config controls the session cookie.
type Config struct {
	CookieName string        // default "caligben_visitor"
	MaxAge     time.Duration // default 24h
	Path       string        // default "/"
	Secure     bool
	SameSite   http.SameSite // default Lax
	// IDGenerator defaults to 32 random bytes, base64url encoded.
	IDGenerator func() (string, error)
}

// Manager loads, creates and saves sessions against a Store.
type Manager struct {
	store  Store
	config Config
}

// NewManager fills unset Config fields with defaults.
func NewManager(store Store, cfg Config) *Manager {
	if cfg.CookieName == "" {
		cfg.CookieName = "caligben_visitor"
	}
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = 24 * time.Hour
	}
	if cfg.Path == "" {
		cfg.Path = "/"
	}
	if cfg.SameSite == 0 {
		cfg.SameSite = http.SameSiteLaxMode
	}
	if cfg.IDGenerator == nil {
		cfg.IDGenerator = generateID
	}
	return &Manager{store: store, config: cfg}
}

// MaxAge is the configured session lifetime.
func (m *Manager) MaxAge() time.Duration { return m.config.MaxAge }

// Get returns the request's session, or a new one when the cookie is
// missing, unknown or expired. Store failures other than not-found are
// returned alongside a fresh session.
func (m *Manager) Get(r *http.Request) (*Session, error) {
	cookie, err := r.Cookie(m.config.CookieName)
	if err != nil || cookie.Value == "" {
		return m.New()
	}

	data, err := m.store.Load(r.Context(), cookie.Value)
	switch {
	case err == nil && time.Now().Before(data.ExpiresAt):
		return &Session{
			id:        data.ID,
			data:      data.Data,
			createdAt: data.CreatedAt,
			expiresAt: data.ExpiresAt,
		}, nil
	case err == nil, errors.Is(err, ErrExpired):
		_ = m.store.Delete(r.Context(), cookie.Value)
	case !errors.Is(err, ErrNotFound):
		s, nerr := m.New()
		if nerr != nil {
			return nil, nerr
		}
		return s, fmt.Errorf("session: load: %w", err)
	}
	return m.New()
}

// New creates an unsaved session.
func (m *Manager) New() (*Session, error) {
	id, err := m.config.IDGenerator()
	if err != nil {
		return nil, err
	}
	now := time.Now()
	return &Session{
		id:        id,
		data:      make(map[string]any),
		isNew:     true,
		modified:  true,
		createdAt: now,
		expiresAt: now.Add(m.config.MaxAge),
	}, nil
}

// Save writes the session to the store, slides its expiry and sets the cookie.
func (m *Manager) Save(w http.ResponseWriter, r *http.Request, s *Session) error {
	now := time.Now()

	s.mu.Lock()
	s.expiresAt = now.Add(m.config.MaxAge)
	data := &SessionData{
		ID:        s.id,
		Data:      s.data,
		ExpiresAt: s.expiresAt,
		CreatedAt: s.createdAt,
		UpdatedAt: now,
	}
	err := m.store.Save(r.Context(), data)
	if err == nil {
		s.modified = false
	}
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("session: save: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     m.config.CookieName,
		Value:    s.id,
		Path:     m.config.Path,
		MaxAge:   int(m.config.MaxAge.Seconds()),
		Secure:   m.config.Secure,
		HttpOnly: true,
		SameSite: m.config.SameSite,
	})
	return nil
}

// Close closes the underlying store.
func (m *Manager) Close() error {
	return m.store.Close()
}
