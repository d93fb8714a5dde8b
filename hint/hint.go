package hint

import (
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultCookieName is the liveness cookie written by the backend on sign-in.
const DefaultCookieName = "auth_session"

// Hint is the parsed liveness flag.
type Hint struct {
	Present   bool
	Subject   string
	ExpiresAt time.Time
}

// Valid reports whether the hint is present and not expired at now.
func (h Hint) Valid(now time.Time) bool {
	if !h.Present {
		return false
	}
	return h.ExpiresAt.IsZero() || now.Before(h.ExpiresAt)
}

// Parse interprets a raw cookie value. Unknown values yield an absent hint.
func Parse(value string) Hint {
	value = strings.TrimSpace(value)
	if value == "" {
		return Hint{}
	}

	switch strings.ToLower(value) {
	case "true", "1", "yes":
		return Hint{Present: true}
	case "false", "0", "no":
		return Hint{}
	}

	if strings.Count(value, ".") != 2 {
		return Hint{}
	}

	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(value, &claims); err != nil {
		return Hint{}
	}

	h := Hint{Present: true, Subject: claims.Subject}
	if claims.ExpiresAt != nil {
		h.ExpiresAt = claims.ExpiresAt.Time
	}
	return h
}

// FromRequest reads the hint cookie name from r.
func FromRequest(r *http.Request, name string) Hint {
	if r == nil {
		return Hint{}
	}
	if name == "" {
		name = DefaultCookieName
	}
	c, err := r.Cookie(name)
	if err != nil {
		return Hint{}
	}
	return Parse(c.Value)
}

// Set writes a plain liveness flag valid for ttl. ttl <= 0 writes a session cookie.
func Set(w http.ResponseWriter, name string, ttl time.Duration) {
	if name == "" {
		name = DefaultCookieName
	}
	c := &http.Cookie{
		Name:     name,
		Value:    "true",
		Path:     "/",
		SameSite: http.SameSiteLaxMode,
	}
	if ttl > 0 {
		c.MaxAge = int(ttl / time.Second)
		c.Expires = time.Now().Add(ttl)
	}
	http.SetCookie(w, c)
}

// Clear expires the hint cookie on the client.
func Clear(w http.ResponseWriter, name string) {
	if name == "" {
		name = DefaultCookieName
	}
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		SameSite: http.SameSiteLaxMode,
	})
}
