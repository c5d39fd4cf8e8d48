package domain

import (
	"fmt"
	"time"
)

// Platform identifies the class of client a session was opened from. The
// single-session policy is enforced per (principal, platform) pair, so a web
// sign-in never disturbs a live mobile session.
type Platform string

const (
	PlatformWeb     Platform = "web"
	PlatformMobile  Platform = "mobile"
	PlatformDesktop Platform = "desktop"
)

// ParsePlatform validates a client-supplied platform string.
func ParsePlatform(s string) (Platform, error) {
	switch Platform(s) {
	case PlatformWeb, PlatformMobile, PlatformDesktop:
		return Platform(s), nil
	}
	return "", fmt.Errorf("unknown platform %q", s)
}

// Session is one authenticated device/browser context. It owns exactly one
// live token pair at any instant; rotation replaces the pair but never moves
// EndsAt, only a fresh sign-in resets the validity window. A session that is
// tombstoned or past EndsAt is terminal and never revived.
type Session struct {
	ID                  string   `bson:"_id,omitempty" json:"id"`
	PrincipalID         string   `bson:"principal_id" json:"principal_id"`
	ClientIP            string   `bson:"client_ip,omitempty" json:"client_ip,omitempty"`
	UserAgent           string   `bson:"user_agent,omitempty" json:"user_agent,omitempty"`
	Platform            Platform `bson:"platform" json:"platform"`
	CurrentAccessToken  string   `bson:"current_access_token" json:"current_access_token"`
	CurrentRefreshToken string   `bson:"current_refresh_token" json:"current_refresh_token"`
	StartedAt           int64    `bson:"started_at" json:"started_at"`
	EndsAt              int64    `bson:"ends_at" json:"ends_at"`

	Lifecycle `bson:",inline"`
}

// Expired reports whether the session's validity window has closed.
func (s *Session) Expired(now time.Time) bool { return now.Unix() >= s.EndsAt }

// Live reports whether the session can still authenticate requests.
func (s *Session) Live(now time.Time) bool { return !s.Deleted() && !s.Expired(now) }

// TokenPair is the access/refresh pair currently bound to a session.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// Matches reports whether the presented pair equals, byte for byte, the pair
// stored on the session. Equality here beats signature validity: a token that
// is cryptographically fine but no longer current is rejected immediately.
func (s *Session) Matches(pair TokenPair) bool {
	return s.CurrentAccessToken == pair.AccessToken && s.CurrentRefreshToken == pair.RefreshToken
}
