package backend

import (
	"net/http"

	"github.com/MrEthical07/goGuard/session"
)

// SessionStatus is the payload of the session-status endpoint.
type SessionStatus struct {
	ActiveSessions int `json:"activeSessions"`
}

// LogoutAllResponse is the payload of the logout-all endpoint.
type LogoutAllResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// CallbackResponse is the raw, unfollowed response of the OAuth callback endpoint.
type CallbackResponse struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Location returns the raw Location header value.
func (r *CallbackResponse) Location() string {
	if r == nil || r.Header == nil {
		return ""
	}
	return r.Header.Get("Location")
}

// SetCookies returns every Set-Cookie header value in order.
func (r *CallbackResponse) SetCookies() []string {
	if r == nil || r.Header == nil {
		return nil
	}
	return r.Header.Values("Set-Cookie")
}

type envelope[T any] struct {
	Success *bool `json:"success"`
	Data    *T    `json:"data"`
}

type profilePayload struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	Role        string `json:"role"`
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
	AvatarURL   string `json:"avatarUrl"`
	Picture     string `json:"picture"`
}

func (p profilePayload) toProfile() session.UserProfile {
	name := p.DisplayName
	if name == "" {
		name = p.Name
	}
	avatar := p.AvatarURL
	if avatar == "" {
		avatar = p.Picture
	}
	return session.UserProfile{
		ID:          p.ID,
		Email:       p.Email,
		Role:        session.ParseRole(p.Role),
		DisplayName: name,
		AvatarURL:   avatar,
	}
}
