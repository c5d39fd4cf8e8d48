package services

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/authcore-io/authcore/cache"
	"github.com/authcore-io/authcore/domain"
	serrors "github.com/authcore-io/authcore/errors"
	"github.com/authcore-io/authcore/internal/audit"
	"github.com/authcore-io/authcore/internal/crypto"
	"github.com/authcore-io/authcore/internal/metrics"
	"github.com/authcore-io/authcore/token"
)

// SessionService orchestrates the session lifecycle: sign-in, per-request
// verification, rotation and sign-out. It is the single writer for session
// records; the store's conditional swap is the only rotation path.
type SessionService struct {
	sessions   domain.SessionRepository
	cache      cache.SessionCache
	principals domain.PrincipalLookup
	notifier   domain.Notifier
	hasher     domain.PasswordHasher
	codec      *token.Codec
	cipher     *crypto.TransportCipher

	sessionTTL   time.Duration
	storeTimeout time.Duration
}

// NewSessionService creates a new SessionService. All dependencies are
// explicit; nothing here reads ambient globals.
func NewSessionService(
	sessions domain.SessionRepository,
	sessionCache cache.SessionCache,
	principals domain.PrincipalLookup,
	notifier domain.Notifier,
	hasher domain.PasswordHasher,
	codec *token.Codec,
	cipher *crypto.TransportCipher,
	sessionTTL time.Duration,
	storeTimeout time.Duration,
) *SessionService {
	return &SessionService{
		sessions:     sessions,
		cache:        sessionCache,
		principals:   principals,
		notifier:     notifier,
		hasher:       hasher,
		codec:        codec,
		cipher:       cipher,
		sessionTTL:   sessionTTL,
		storeTimeout: storeTimeout,
	}
}

// Credentials carries everything a sign-in attempt presents.
type Credentials struct {
	Identifier string
	Secret     string
	ClientIP   string
	UserAgent  string
	Platform   domain.Platform
}

// SessionGrant is what a successful sign-in or refresh hands back. SessionID
// and both tokens are already wrapped by the transport cipher; the service
// never returns plaintext credentials.
type SessionGrant struct {
	SessionID    string
	AccessToken  string
	RefreshToken string
	EndsAt       int64
	Principal    domain.Principal
}

func (s *SessionService) storeCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.storeTimeout)
}

// SignIn verifies credentials, supersedes other live sessions on the same
// (principal, platform) pair, and opens a fresh session with a new token pair.
// Unknown identifier and wrong secret fail identically, so the endpoint cannot
// be used to enumerate accounts.
func (s *SessionService) SignIn(ctx context.Context, creds Credentials) (*SessionGrant, error) {
	lookupCtx, cancel := s.storeCtx(ctx)
	record, err := s.principals.PrincipalByIdentifier(lookupCtx, creds.Identifier)
	cancel()
	if err != nil {
		// Only a definite miss is a credential rejection. Timeouts and any
		// other lookup failure mean the directory could not answer, which
		// must stay retryable and never read as "wrong password".
		if !errors.Is(err, domain.ErrPrincipalNotFound) {
			return nil, serrors.ErrInfrastructure.WithCause(err)
		}
		log.Debug().Str("identifier", creds.Identifier).Msg("sign-in: unknown identifier")
		metrics.SignInFailureTotal.Inc()
		return nil, serrors.ErrInvalidCredentials
	}

	if err := s.hasher.Verify(record.PasswordHash, creds.Secret); err != nil {
		log.Debug().Str("principalID", record.ID).Msg("sign-in: secret mismatch")
		audit.Log(audit.ActionSignIn, record.ID, "", "secret mismatch", false, nil)
		metrics.SignInFailureTotal.Inc()
		return nil, serrors.ErrInvalidCredentials
	}

	// Single-session-per-platform: everything else live on this platform dies
	// before the new session is born. Under concurrent sign-ins convergence
	// is last-writer-wins.
	revokeCtx, cancel := s.storeCtx(ctx)
	revokedIDs, err := s.sessions.RevokePlatformSessions(revokeCtx, record.ID, creds.Platform)
	cancel()
	if err != nil {
		return nil, serrors.ErrInfrastructure.WithCause(err)
	}
	if len(revokedIDs) > 0 {
		// The cache reads through on verification, so a tombstoned session
		// must leave the cache with its store record or it would keep
		// authenticating until its entry expired.
		for _, id := range revokedIDs {
			s.cacheDelete(ctx, id)
		}
		log.Info().Str("principalID", record.ID).Str("platform", string(creds.Platform)).
			Int("revoked", len(revokedIDs)).Msg("sign-in superseded live sessions")
		metrics.ActiveSessionsGauge.Sub(float64(len(revokedIDs)))
	}

	accessToken, err := s.codec.IssueAccessToken(record.Principal)
	if err != nil {
		return nil, serrors.ErrInfrastructure.WithCause(err)
	}
	refreshToken, err := s.codec.IssueRefreshToken(record.Principal, accessToken)
	if err != nil {
		return nil, serrors.ErrInfrastructure.WithCause(err)
	}

	now := time.Now()
	session := &domain.Session{
		PrincipalID:         record.ID,
		ClientIP:            creds.ClientIP,
		UserAgent:           creds.UserAgent,
		Platform:            creds.Platform,
		CurrentAccessToken:  accessToken,
		CurrentRefreshToken: refreshToken,
		StartedAt:           now.Unix(),
		EndsAt:              now.Add(s.sessionTTL).Unix(),
	}

	storeCtx, cancel := s.storeCtx(ctx)
	err = s.sessions.StoreSession(storeCtx, session)
	cancel()
	if err != nil {
		return nil, serrors.ErrInfrastructure.WithCause(err)
	}

	s.cacheSet(ctx, session)

	// Fire-and-forget; the sink is never awaited.
	go s.notifier.SessionStarted(context.WithoutCancel(ctx), domain.SignInEvent{
		PrincipalID: record.ID,
		SessionID:   session.ID,
		Platform:    creds.Platform,
		ClientIP:    creds.ClientIP,
		UserAgent:   creds.UserAgent,
		At:          now,
	})

	audit.Log(audit.ActionSignIn, record.ID, session.ID, "session opened", true, nil)
	metrics.SignInSuccessTotal.Inc()
	metrics.ActiveSessionsGauge.Inc()

	return s.seal(session, record.Principal)
}

// seal wraps the grant's opaque parts with the transport cipher.
func (s *SessionService) seal(session *domain.Session, principal domain.Principal) (*SessionGrant, error) {
	sealedID, err := s.cipher.Encrypt(session.ID)
	if err != nil {
		return nil, serrors.ErrInfrastructure.WithCause(err)
	}
	sealedAccess, err := s.cipher.Encrypt(session.CurrentAccessToken)
	if err != nil {
		return nil, serrors.ErrInfrastructure.WithCause(err)
	}
	sealedRefresh, err := s.cipher.Encrypt(session.CurrentRefreshToken)
	if err != nil {
		return nil, serrors.ErrInfrastructure.WithCause(err)
	}
	return &SessionGrant{
		SessionID:    sealedID,
		AccessToken:  sealedAccess,
		RefreshToken: sealedRefresh,
		EndsAt:       session.EndsAt,
		Principal:    principal,
	}, nil
}

func (s *SessionService) cacheSet(ctx context.Context, session *domain.Session) {
	cacheCtx, cancel := s.storeCtx(ctx)
	defer cancel()
	if err := s.cache.Set(cacheCtx, session); err != nil {
		log.Warn().Err(err).Str("sessionID", session.ID).Msg("failed to cache session")
	}
}

func (s *SessionService) cacheDelete(ctx context.Context, id string) {
	cacheCtx, cancel := s.storeCtx(ctx)
	defer cancel()
	if err := s.cache.Delete(cacheCtx, id); err != nil {
		log.Warn().Err(err).Str("sessionID", id).Msg("failed to evict cached session")
	}
}

// loadSession reads through the cache to the durable store. fresh skips the
// cache for paths that must see the authoritative record.
func (s *SessionService) loadSession(ctx context.Context, id string, fresh bool) (*domain.Session, error) {
	if !fresh {
		cacheCtx, cancel := s.storeCtx(ctx)
		session, err := s.cache.Get(cacheCtx, id)
		cancel()
		if err == nil {
			return session, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			log.Warn().Err(err).Str("sessionID", id).Msg("session cache read failed, falling back to store")
		}
	}

	storeCtx, cancel := s.storeCtx(ctx)
	defer cancel()
	session, err := s.sessions.GetSessionByID(storeCtx, id)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return nil, serrors.ErrSessionNotFound
		}
		return nil, serrors.ErrInfrastructure.WithCause(err)
	}
	return session, nil
}

// VerifyRequest authenticates one request from its encrypted session id and
// encrypted access token. On success the caller attaches the returned
// principal snapshot to the request context.
func (s *SessionService) VerifyRequest(ctx context.Context, sealedSessionID, sealedAccessToken string) (*domain.Principal, string, error) {
	sessionID, err := s.cipher.Decrypt(sealedSessionID)
	if err != nil {
		return nil, "", serrors.ErrTamperedToken
	}
	accessToken, err := s.cipher.Decrypt(sealedAccessToken)
	if err != nil {
		return nil, "", serrors.ErrTamperedToken
	}

	session, err := s.loadSession(ctx, sessionID, false)
	if err != nil {
		return nil, "", err
	}
	if session.Deleted() {
		return nil, "", serrors.ErrSessionNotFound
	}
	if session.Expired(time.Now()) {
		return nil, "", serrors.ErrSessionExpired
	}

	// Exact-match against the stored token beats signature validity: a stale
	// or stolen token that lost a rotation is rejected here, no matter how
	// valid its signature still is.
	if session.CurrentAccessToken != accessToken {
		return nil, "", serrors.ErrInvalidAccessToken
	}

	claims, err := s.codec.Verify(accessToken)
	if err != nil {
		if errors.Is(err, token.ErrExpired) {
			return nil, "", serrors.ErrExpiredAccessToken
		}
		return nil, "", serrors.ErrInvalidAccessToken
	}

	return &claims.Principal, sessionID, nil
}

// Refresh rotates the session's token pair. The presented triple must match
// the stored pair exactly, the refresh token must verify and be bound to the
// presented access token, and the swap is a compare-and-swap in the store:
// when two refreshes race, exactly one wins and the loser fails
// INVALID_REFRESH_TOKEN.
func (s *SessionService) Refresh(ctx context.Context, sealedSessionID, sealedAccessToken, sealedRefreshToken string) (*SessionGrant, error) {
	sessionID, err := s.cipher.Decrypt(sealedSessionID)
	if err != nil {
		return nil, serrors.ErrTamperedToken
	}
	accessToken, err := s.cipher.Decrypt(sealedAccessToken)
	if err != nil {
		return nil, serrors.ErrTamperedToken
	}
	refreshToken, err := s.cipher.Decrypt(sealedRefreshToken)
	if err != nil {
		return nil, serrors.ErrTamperedToken
	}

	// Rotation always reads the authoritative record, never the cache.
	session, err := s.loadSession(ctx, sessionID, true)
	if err != nil {
		return nil, err
	}
	if session.Deleted() {
		return nil, serrors.ErrSessionNotFound
	}
	if session.Expired(time.Now()) {
		return nil, serrors.ErrSessionExpired
	}

	// Refresh-token equality is checked first so that replaying a whole
	// superseded triple fails INVALID_REFRESH_TOKEN, the same way a lost
	// rotation race does.
	if session.CurrentRefreshToken != refreshToken {
		return nil, serrors.ErrInvalidRefreshToken
	}
	if session.CurrentAccessToken != accessToken {
		return nil, serrors.ErrInvalidAccessToken
	}

	claims, err := s.codec.Verify(refreshToken)
	if err != nil {
		if errors.Is(err, token.ErrExpired) {
			return nil, serrors.ErrExpiredRefreshToken
		}
		return nil, serrors.ErrInvalidRefreshToken
	}
	if claims.AccessToken != accessToken {
		return nil, serrors.ErrInvalidRefreshToken
	}

	newAccess, err := s.codec.IssueAccessToken(claims.Principal)
	if err != nil {
		return nil, serrors.ErrInfrastructure.WithCause(err)
	}
	newRefresh, err := s.codec.IssueRefreshToken(claims.Principal, newAccess)
	if err != nil {
		return nil, serrors.ErrInfrastructure.WithCause(err)
	}

	previous := domain.TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}
	next := domain.TokenPair{AccessToken: newAccess, RefreshToken: newRefresh}

	swapCtx, cancel := s.storeCtx(ctx)
	err = s.sessions.SwapTokenPair(swapCtx, sessionID, previous, next)
	cancel()
	if err != nil {
		if errors.Is(err, domain.ErrTokenPairConflict) {
			// A concurrent refresh already won; this caller's pair is spent.
			metrics.RotationConflictsTotal.Inc()
			s.cacheDelete(ctx, sessionID)
			return nil, serrors.ErrInvalidRefreshToken
		}
		return nil, serrors.ErrInfrastructure.WithCause(err)
	}

	session.CurrentAccessToken = newAccess
	session.CurrentRefreshToken = newRefresh
	s.cacheSet(ctx, session)

	metrics.TokenRotationsTotal.Inc()
	log.Debug().Str("sessionID", sessionID).Msg("token pair rotated")

	// Rotation keeps the session id and the validity window; only the pair
	// changes.
	return s.seal(session, claims.Principal)
}

// SignOut tombstones the session. Signing out an already-terminal session
// succeeds; only an unknown id fails.
func (s *SessionService) SignOut(ctx context.Context, sealedSessionID string) error {
	sessionID, err := s.cipher.Decrypt(sealedSessionID)
	if err != nil {
		return serrors.ErrTamperedToken
	}

	storeCtx, cancel := s.storeCtx(ctx)
	revoked, err := s.sessions.RevokeSession(storeCtx, sessionID)
	cancel()
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return serrors.ErrSessionNotFound
		}
		return serrors.ErrInfrastructure.WithCause(err)
	}

	s.cacheDelete(ctx, sessionID)
	audit.Log(audit.ActionSignOut, "", sessionID, "session revoked", true, nil)
	// Repeat sign-outs succeed but only the live-to-terminal transition
	// moves the gauge.
	if revoked {
		metrics.ActiveSessionsGauge.Dec()
	}
	return nil
}

// ListSessions returns the principal's sessions, live ones only unless the
// filter says otherwise.
func (s *SessionService) ListSessions(ctx context.Context, principalID string, filter domain.SessionFilter) ([]*domain.Session, error) {
	storeCtx, cancel := s.storeCtx(ctx)
	defer cancel()
	sessions, err := s.sessions.ListSessionsByPrincipal(storeCtx, principalID, filter)
	if err != nil {
		return nil, serrors.ErrInfrastructure.WithCause(err)
	}
	return sessions, nil
}

// RevokeSessions tombstones the principal's live sessions on a platform,
// keeping any listed ids (commonly the caller's own session).
func (s *SessionService) RevokeSessions(ctx context.Context, principalID string, platform domain.Platform, exceptIDs ...string) (int64, error) {
	storeCtx, cancel := s.storeCtx(ctx)
	revokedIDs, err := s.sessions.RevokePlatformSessions(storeCtx, principalID, platform, exceptIDs...)
	cancel()
	if err != nil {
		return 0, serrors.ErrInfrastructure.WithCause(err)
	}
	for _, id := range revokedIDs {
		s.cacheDelete(ctx, id)
	}
	if len(revokedIDs) > 0 {
		metrics.ActiveSessionsGauge.Sub(float64(len(revokedIDs)))
	}
	audit.Log(audit.ActionSessionsCleared, principalID, "", "platform sessions revoked", true, nil)
	return int64(len(revokedIDs)), nil
}

// GrantSetFor fetches the principal's aggregated grants through the lookup
// provider. Authorization middleware calls this before resolving permissions.
func (s *SessionService) GrantSetFor(ctx context.Context, principalID string) (*domain.GrantSet, error) {
	lookupCtx, cancel := s.storeCtx(ctx)
	defer cancel()
	grants, err := s.principals.GrantSetByPrincipal(lookupCtx, principalID)
	if err != nil {
		return nil, serrors.ErrInfrastructure.WithCause(err)
	}
	return grants, nil
}
