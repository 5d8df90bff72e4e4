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
)

// DefaultLifetime matches the permanent session lifetime of the hosted app.
const DefaultLifetime = 8 * time.Hour

// Config wires a Manager. Secret signs cookie values; an empty secret is a
// configuration error.
type Config struct {
	Store      Store
	Secret     string
	CookieName string
	Lifetime   time.Duration
	Secure     bool
}

// Manager issues and resolves session cookies. The cookie value is the
// session id plus an HMAC; the session content never leaves the server.
type Manager struct {
	store      Store
	secret     []byte
	cookieName string
	lifetime   time.Duration
	secure     bool
}

func NewManager(config Config) (*Manager, error) {
	if config.Store == nil {
		return nil, errors.New("session: store is required")
	}
	if config.Secret == "" {
		return nil, errors.New("session: signing secret is required")
	}
	if config.CookieName == "" {
		config.CookieName = "notify_admin_session"
	}
	if config.Lifetime <= 0 {
		config.Lifetime = DefaultLifetime
	}
	return &Manager{
		store:      config.Store,
		secret:     []byte(config.Secret),
		cookieName: config.CookieName,
		lifetime:   config.Lifetime,
		secure:     config.Secure,
	}, nil
}

// Load resolves the request's session. A missing, tampered or expired
// cookie yields a fresh empty session rather than an error.
func (m *Manager) Load(r *http.Request) *Session {
	cookie, err := r.Cookie(m.cookieName)
	if err != nil {
		return New()
	}
	id, err := m.verify(cookie.Value)
	if err != nil {
		return New()
	}
	session, err := m.store.Load(r.Context(), id)
	if err != nil {
		return New()
	}
	return session
}

// Save persists the session and refreshes the cookie. Every save extends
// the lifetime, making the session permanent in the rolling sense.
func (m *Manager) Save(ctx context.Context, w http.ResponseWriter, session *Session) error {
	if err := m.store.Save(ctx, session, m.lifetime); err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    m.sign(session.ID),
		Path:     "/",
		MaxAge:   int(m.lifetime / time.Second),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Persist saves the session server-side without touching the cookie, for
// handlers that mutate slots after the cookie was already refreshed.
func (m *Manager) Persist(ctx context.Context, session *Session) error {
	return m.store.Save(ctx, session, m.lifetime)
}

// Destroy removes the server-side record and expires the cookie.
func (m *Manager) Destroy(ctx context.Context, w http.ResponseWriter, session *Session) error {
	if err := m.store.Delete(ctx, session.ID); err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Rotate re-keys the session under a new id and deletes the old record.
func (m *Manager) Rotate(ctx context.Context, session *Session) {
	old := session.ID
	session.Rotate()
	_ = m.store.Delete(ctx, old)
}

func (m *Manager) sign(id string) string {
	mac := hmac.New(sha256.New, m.secret)
	mac.Write([]byte(id))
	return id + "." + base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

func (m *Manager) verify(value string) (string, error) {
	id, _, ok := strings.Cut(value, ".")
	if !ok || id == "" {
		return "", errors.New("malformed session cookie")
	}
	if !hmac.Equal([]byte(value), []byte(m.sign(id))) {
		return "", fmt.Errorf("session cookie signature mismatch")
	}
	return id, nil
}
