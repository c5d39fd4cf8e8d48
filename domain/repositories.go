package domain

import (
	"context"
	"errors"
	"time"
)

// Store-level sentinels. The session service maps these to the coded error
// taxonomy; repositories stay transport-agnostic.
var (
	// ErrSessionNotFound is returned when a session id matches no record.
	ErrSessionNotFound = errors.New("session not found")
	// ErrTokenPairConflict is returned when a conditional token-pair swap
	// finds the stored pair no longer matching the expected one, meaning a
	// concurrent rotation already won.
	ErrTokenPairConflict = errors.New("token pair conflict")
	// ErrPrincipalNotFound is returned when a lookup identifier or principal
	// id matches no directory record. The session service maps it to the
	// credential rejection; any other lookup failure is infrastructure.
	ErrPrincipalNotFound = errors.New("principal not found")
)

// SessionFilter narrows session listings.
type SessionFilter struct {
	Platform    Platform
	IncludeDead bool
	From        time.Time
	To          time.Time
}

// SessionRepository is the durable session store. The session service is the
// single writer per record; rotation must go through SwapTokenPair, the
// store's native atomic conditional update.
type SessionRepository interface {
	StoreSession(ctx context.Context, session *Session) error
	GetSessionByID(ctx context.Context, id string) (*Session, error)
	// SwapTokenPair atomically replaces the session's token pair, conditioned
	// on the stored pair still equalling previous and the session not being
	// tombstoned. Returns ErrTokenPairConflict if the condition fails.
	SwapTokenPair(ctx context.Context, sessionID string, previous, next TokenPair) error
	// RevokeSession tombstones a session. Revoking an already-terminal
	// session succeeds with revoked=false; a missing session returns
	// ErrSessionNotFound. revoked is true only when this call moved a live
	// session to terminal.
	RevokeSession(ctx context.Context, id string) (revoked bool, err error)
	// RevokePlatformSessions tombstones every live session for the
	// (principal, platform) pair, except the listed ids. Returns the ids of
	// the sessions it revoked so callers can evict derived state such as
	// cache entries.
	RevokePlatformSessions(ctx context.Context, principalID string, platform Platform, exceptIDs ...string) ([]string, error)
	ListSessionsByPrincipal(ctx context.Context, principalID string, filter SessionFilter) ([]*Session, error)
}

// PrincipalLookup is the narrow capability interface onto the external
// user/role subsystem. The core depends on it, never the reverse, which keeps
// identity, authentication and authorization free of import cycles.
type PrincipalLookup interface {
	// PrincipalByIdentifier resolves a sign-in identifier (email, username)
	// to the principal record, including the opaque password hash.
	PrincipalByIdentifier(ctx context.Context, identifier string) (*PrincipalRecord, error)
	// GrantSetByPrincipal returns the principal's aggregated role/user
	// grants, with role definitions already expanded.
	GrantSetByPrincipal(ctx context.Context, principalID string) (*GrantSet, error)
}

// SignInEvent describes a completed sign-in for notification purposes.
type SignInEvent struct {
	PrincipalID string
	SessionID   string
	Platform    Platform
	ClientIP    string
	UserAgent   string
	At          time.Time
}

// Notifier is a fire-and-forget sink for security notifications (new device
// sign-in notices and the like). The core never awaits it.
type Notifier interface {
	SessionStarted(ctx context.Context, event SignInEvent)
}
