package session

import (
	"strings"
	"time"
)

// Role is the authorization role reported by the backend profile endpoint.
type Role string

const (
	// RoleUser is a regular account.
	RoleUser Role = "USER"
	// RoleAdmin is an elevated account. It is necessary but not sufficient for admin routes.
	RoleAdmin Role = "ADMIN"
)

// ParseRole normalizes backend role strings ("admin", " Admin ") to a [Role].
// Unknown values map to RoleUser.
func ParseRole(raw string) Role {
	switch Role(strings.ToUpper(strings.TrimSpace(raw))) {
	case RoleAdmin:
		return RoleAdmin
	default:
		return RoleUser
	}
}

// VerificationSource records where the authenticated flag of a [Session] came from.
type VerificationSource uint8

const (
	// SourceNone is the empty session.
	SourceNone VerificationSource = iota
	// SourceUnverifiedHint is derived from a script-readable liveness flag or a cached copy.
	SourceUnverifiedHint
	// SourceServerVerified is the result of a successful authoritative profile fetch.
	SourceServerVerified
)

func (s VerificationSource) String() string {
	switch s {
	case SourceUnverifiedHint:
		return "UNVERIFIED_HINT"
	case SourceServerVerified:
		return "SERVER_VERIFIED"
	default:
		return "NONE"
	}
}

// UserProfile is the identity returned by the backend. It is replaced wholesale on
// re-verification and never patched.
type UserProfile struct {
	ID          string `json:"id" yaml:"id"`
	Email       string `json:"email" yaml:"email"`
	Role        Role   `json:"role" yaml:"role"`
	DisplayName string `json:"displayName,omitempty" yaml:"display_name,omitempty"`
	AvatarURL   string `json:"avatarUrl,omitempty" yaml:"avatar_url,omitempty"`
}

// Session is the authorization snapshot held by [Store].
type Session struct {
	Authenticated bool
	VerifiedAt    time.Time
	Source        VerificationSource
	User          *UserProfile
}

// Verified builds a server-verified session for profile at now.
func Verified(profile UserProfile, now time.Time) Session {
	p := profile
	return Session{
		Authenticated: true,
		VerifiedAt:    now,
		Source:        SourceServerVerified,
		User:          &p,
	}
}

// Hinted builds an unverified session from a liveness hint. profile may be nil.
func Hinted(profile *UserProfile) Session {
	return Session{
		Authenticated: true,
		Source:        SourceUnverifiedHint,
		User:          cloneProfile(profile),
	}
}

// IsZero reports whether s is the empty session.
func (s Session) IsZero() bool {
	return !s.Authenticated && s.Source == SourceNone && s.User == nil && s.VerifiedAt.IsZero()
}

// EffectiveSource applies the staleness bound: a server-verified session older than
// staleAfter counts as an unverified hint. staleAfter <= 0 disables the bound.
func (s Session) EffectiveSource(now time.Time, staleAfter time.Duration) VerificationSource {
	if !s.Authenticated {
		return SourceNone
	}
	if s.Source != SourceServerVerified {
		return SourceUnverifiedHint
	}
	if staleAfter > 0 && now.Sub(s.VerifiedAt) > staleAfter {
		return SourceUnverifiedHint
	}
	return SourceServerVerified
}

// Email returns the profile email or "".
func (s Session) Email() string {
	if s.User == nil {
		return ""
	}
	return s.User.Email
}

func cloneProfile(p *UserProfile) *UserProfile {
	if p == nil {
		return nil
	}
	out := *p
	return &out
}

func (s Session) clone() Session {
	s.User = cloneProfile(s.User)
	return s
}

// BlockStatus mirrors the backend lockout counters for one identifier.
type BlockStatus struct {
	Identifier       string     `json:"email"`
	IsBlocked        bool       `json:"isBlocked"`
	Attempts         int        `json:"attempts"`
	RemainingMinutes int        `json:"remainingMinutes"`
	BlockedAt        *time.Time `json:"blockedAt,omitempty"`
	ExpiresAt        *time.Time `json:"expiresAt,omitempty"`
}

// Normalize clamps negative counters to zero.
func (b BlockStatus) Normalize() BlockStatus {
	if b.Attempts < 0 {
		b.Attempts = 0
	}
	if b.RemainingMinutes < 0 {
		b.RemainingMinutes = 0
	}
	return b
}

// Remaining returns the countdown to display at now. It prefers ExpiresAt and falls
// back to RemainingMinutes. Unblocked statuses always return zero.
func (b BlockStatus) Remaining(now time.Time) time.Duration {
	if !b.IsBlocked {
		return 0
	}
	if b.ExpiresAt != nil {
		if d := b.ExpiresAt.Sub(now); d > 0 {
			return d
		}
		return 0
	}
	return time.Duration(b.RemainingMinutes) * time.Minute
}
