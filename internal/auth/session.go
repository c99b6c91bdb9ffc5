package auth

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"time"
)

const cookieName = "crm_session"

// ErrNoSession means the request carries no valid session.
var ErrNoSession = errors.New("no valid session")

// SessionStore manages sessions in SQLite.
type SessionStore struct {
	db     *sql.DB
	ttl    time.Duration
	secure bool
}

// NewSessionStore creates a session store. secure marks cookies HTTPS-only.
func NewSessionStore(db *sql.DB, ttl time.Duration, secure bool) *SessionStore {
	return &SessionStore{db: db, ttl: ttl, secure: secure}
}

// Create starts a session for id and sets the cookie.
func (s *SessionStore) Create(w http.ResponseWriter, r *http.Request, id Identity) error {
	sid, err := generateSessionID()
	if err != nil {
		return fmt.Errorf("generating session ID: %w", err)
	}

	expiresAt := time.Now().Add(s.ttl)

	if _, err := s.db.ExecContext(r.Context(),
		"INSERT INTO sessions (id, legajo, role, expires_at) VALUES (?, ?, ?, ?)",
		sid, id.Legajo, string(id.Role), expiresAt,
	); err != nil {
		return fmt.Errorf("storing session: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    sid,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})

	return nil
}

// Validate checks the session cookie and returns its identity.
func (s *SessionStore) Validate(r *http.Request) (Identity, error) {
	cookie, err := r.Cookie(cookieName)
	if err != nil {
		return Identity{}, ErrNoSession
	}

	var id Identity
	var role string
	var expiresAt time.Time

	err = s.db.QueryRowContext(r.Context(),
		"SELECT legajo, role, expires_at FROM sessions WHERE id = ?",
		cookie.Value,
	).Scan(&id.Legajo, &role, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Identity{}, ErrNoSession
	}
	if err != nil {
		return Identity{}, fmt.Errorf("querying session: %w", err)
	}

	if time.Now().After(expiresAt) {
		if _, delErr := s.db.ExecContext(r.Context(), "DELETE FROM sessions WHERE id = ?", cookie.Value); delErr != nil {
			return Identity{}, fmt.Errorf("deleting expired session: %w", delErr)
		}
		return Identity{}, ErrNoSession
	}

	id.Role = Role(role)
	if !id.Role.IsValid() {
		return Identity{}, ErrNoSession
	}

	return id, nil
}

// Destroy removes the session and clears the cookie.
func (s *SessionStore) Destroy(w http.ResponseWriter, r *http.Request) error {
	cookie, err := r.Cookie(cookieName)
	if err != nil {
		return nil
	}

	if _, err := s.db.ExecContext(r.Context(), "DELETE FROM sessions WHERE id = ?", cookie.Value); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})

	return nil
}

// Cleanup removes expired sessions.
func (s *SessionStore) Cleanup() error {
	if _, err := s.db.Exec(
		"DELETE FROM sessions WHERE expires_at < ?",
		time.Now(),
	); err != nil {
		return fmt.Errorf("cleaning up sessions: %w", err)
	}
	return nil
}

func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
