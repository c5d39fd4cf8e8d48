// Package token issues and verifies the signed, time-boxed access and refresh
// tokens carried by sessions.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/authcore-io/authcore/domain"
)

// Codec-level sentinels. The session service maps these onto the coded error
// taxonomy; raw jwt errors never cross the component boundary.
var (
	ErrExpired = errors.New("token expired")
	ErrInvalid = errors.New("token invalid")
)

// Claims is the payload of both token classes. Refresh tokens additionally
// carry, in AccessToken, the exact access token string they were issued
// alongside. Binding the pair at issuance lets the session service detect a
// mismatched or stale pair without a second store lookup.
type Claims struct {
	Principal   domain.Principal `json:"principal"`
	AccessToken string           `json:"ath,omitempty"`
	jwt.RegisteredClaims
}

// Codec creates and verifies signed tokens. It is stateless and safe for
// concurrent use; the signing secret is read-only after construction.
type Codec struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewCodec builds a codec signing with HMAC-SHA256.
func NewCodec(secret []byte, issuer string, accessTTL, refreshTTL time.Duration) *Codec {
	return &Codec{
		secret:     secret,
		issuer:     issuer,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

func (c *Codec) sign(claims Claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
}

func (c *Codec) registered(ttl time.Duration) jwt.RegisteredClaims {
	now := time.Now()
	return jwt.RegisteredClaims{
		Issuer:    c.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		ID:        uuid.NewString(),
	}
}

// IssueAccessToken signs a short-lived access token for the principal.
func (c *Codec) IssueAccessToken(principal domain.Principal) (string, error) {
	claims := Claims{
		Principal:        principal,
		RegisteredClaims: c.registered(c.accessTTL),
	}
	claims.Subject = principal.ID
	return c.sign(claims)
}

// IssueRefreshToken signs a refresh token bound to accessToken.
func (c *Codec) IssueRefreshToken(principal domain.Principal, accessToken string) (string, error) {
	claims := Claims{
		Principal:        principal,
		AccessToken:      accessToken,
		RegisteredClaims: c.registered(c.refreshTTL),
	}
	claims.Subject = principal.ID
	return c.sign(claims)
}

// Verify checks signature and time bounds, returning the payload. Expired
// tokens fail ErrExpired; everything else fails ErrInvalid.
func (c *Codec) Verify(signed string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(signed, claims, func(t *jwt.Token) (any, error) {
		return c.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(c.issuer))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpired
		}
		return nil, ErrInvalid
	}
	return claims, nil
}
