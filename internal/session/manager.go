package session

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/buscador/internal/models"
)

// Session is the per-request view of a stored session.
type Session struct {
	ID string
	Data
	dirty bool
}

// Login records an authenticated account and rotates nothing else.
func (s *Session) Login(acc *models.Account) {
	s.Username = acc.Username
	s.Role = acc.Role
	s.Permissions = acc.Permissions
	s.LoggedIn = true
	s.dirty = true
}

// AddFlash queues a message for the next rendered page.
func (s *Session) AddFlash(category, message string) {
	s.Flashes = append(s.Flashes, Flash{Category: category, Message: message})
	s.dirty = true
}

// PopFlashes returns and clears queued messages.
func (s *Session) PopFlashes() []Flash {
	f := s.Flashes
	if len(f) > 0 {
		s.Flashes = nil
		s.dirty = true
	}
	return f
}

// Dirty reports whether the session changed since it was loaded.
func (s *Session) Dirty() bool {
	return s.dirty
}

// Manager issues and verifies session cookies. The cookie carries only the
// session id and its HMAC-SHA256 signature; state lives in the Store.
type Manager struct {
	store  Store
	key    []byte
	ttl    time.Duration
	cookie string
	secure bool
	logger *zap.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithTTL sets the session lifetime. Default 8 hours.
func WithTTL(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.ttl = d
		}
	}
}

// WithCookieName sets the cookie name.
func WithCookieName(name string) Option {
	return func(m *Manager) {
		if name != "" {
			m.cookie = name
		}
	}
}

// WithSecureCookie marks the cookie Secure.
func WithSecureCookie(secure bool) Option {
	return func(m *Manager) { m.secure = secure }
}

// WithLogger sets a logger.
func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// NewManager creates a manager signing cookies with secret.
func NewManager(store Store, secret string, opts ...Option) (*Manager, error) {
	if secret == "" {
		return nil, fmt.Errorf("%w: session secret key is required", models.ErrConfig)
	}
	m := &Manager{
		store:  store,
		key:    []byte(secret),
		ttl:    8 * time.Hour,
		cookie: "buscador_session",
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

func (m *Manager) sign(id string) string {
	mac := hmac.New(sha256.New, m.key)
	mac.Write([]byte(id))
	return id + "." + base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// verify returns the id carried by a signed cookie value.
func (m *Manager) verify(value string) (string, bool) {
	id, sig, ok := strings.Cut(value, ".")
	if !ok || id == "" {
		return "", false
	}
	got, err := base64.RawURLEncoding.DecodeString(sig)
	if err != nil {
		return "", false
	}
	mac := hmac.New(sha256.New, m.key)
	mac.Write([]byte(id))
	if !hmac.Equal(got, mac.Sum(nil)) {
		return "", false
	}
	return id, true
}

func newSession() *Session {
	return &Session{ID: uuid.New().String()}
}

// Load returns the session named by the request cookie. A missing, tampered,
// or expired cookie yields a fresh anonymous session that is stored only once
// saved.
func (m *Manager) Load(r *http.Request) *Session {
	c, err := r.Cookie(m.cookie)
	if err != nil {
		return newSession()
	}
	id, ok := m.verify(c.Value)
	if !ok {
		m.logger.Debug("session cookie rejected", zap.String("remote", r.RemoteAddr))
		return newSession()
	}
	d, err := m.store.Get(r.Context(), id)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			m.logger.Warn("session load failed", zap.Error(err))
		}
		return newSession()
	}
	return &Session{ID: id, Data: *d}
}

// Save persists s and writes the cookie. Call before the response body is written.
func (m *Manager) Save(ctx context.Context, w http.ResponseWriter, s *Session) error {
	if err := m.store.Save(ctx, s.ID, &s.Data, m.ttl); err != nil {
		return err
	}
	s.dirty = false
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookie,
		Value:    m.sign(s.ID),
		Path:     "/",
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Renew replaces s with a fresh id, keeping its data, so a login never reuses
// an id issued before authentication.
func (m *Manager) Renew(ctx context.Context, s *Session) {
	if err := m.store.Delete(ctx, s.ID); err != nil {
		m.logger.Warn("session delete failed", zap.Error(err))
	}
	s.ID = uuid.New().String()
	s.dirty = true
}

// Destroy deletes the stored session and returns a fresh anonymous one, which
// the caller may use for a flash message before saving.
func (m *Manager) Destroy(ctx context.Context, w http.ResponseWriter, s *Session) *Session {
	if err := m.store.Delete(ctx, s.ID); err != nil {
		m.logger.Warn("session delete failed", zap.Error(err))
	}
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return newSession()
}
