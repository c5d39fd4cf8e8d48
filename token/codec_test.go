package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/authcore-io/authcore/domain"
)

var testPrincipal = domain.Principal{
	ID:          "principal-1",
	Email:       "ada@example.com",
	DisplayName: "Ada",
}

func newTestCodec() *Codec {
	return NewCodec([]byte("codec-test-secret"), "authcore-test", 15*time.Minute, 7*24*time.Hour)
}

func TestCodec_AccessTokenRoundTrip(t *testing.T) {
	c := newTestCodec()

	signed, err := c.IssueAccessToken(testPrincipal)
	require.NoError(t, err)

	claims, err := c.Verify(signed)
	require.NoError(t, err)
	assert.Equal(t, testPrincipal, claims.Principal)
	assert.Equal(t, testPrincipal.ID, claims.Subject)
	assert.Empty(t, claims.AccessToken)
	assert.NotEmpty(t, claims.ID)
}

func TestCodec_RefreshTokenBindsAccessToken(t *testing.T) {
	c := newTestCodec()

	access, err := c.IssueAccessToken(testPrincipal)
	require.NoError(t, err)
	refresh, err := c.IssueRefreshToken(testPrincipal, access)
	require.NoError(t, err)

	claims, err := c.Verify(refresh)
	require.NoError(t, err)
	assert.Equal(t, access, claims.AccessToken)
}

func TestCodec_UniqueTokenIDs(t *testing.T) {
	c := newTestCodec()

	first, err := c.IssueAccessToken(testPrincipal)
	require.NoError(t, err)
	second, err := c.IssueAccessToken(testPrincipal)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestCodec_Expired(t *testing.T) {
	c := NewCodec([]byte("codec-test-secret"), "authcore-test", -time.Minute, -time.Minute)

	signed, err := c.IssueAccessToken(testPrincipal)
	require.NoError(t, err)

	_, err = c.Verify(signed)
	assert.ErrorIs(t, err, ErrExpired)
}

func TestCodec_WrongSecret(t *testing.T) {
	signed, err := newTestCodec().IssueAccessToken(testPrincipal)
	require.NoError(t, err)

	other := NewCodec([]byte("a different secret"), "authcore-test", time.Minute, time.Hour)
	_, err = other.Verify(signed)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestCodec_WrongIssuer(t *testing.T) {
	signed, err := NewCodec([]byte("codec-test-secret"), "someone-else", time.Minute, time.Hour).
		IssueAccessToken(testPrincipal)
	require.NoError(t, err)

	_, err = newTestCodec().Verify(signed)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestCodec_Garbage(t *testing.T) {
	c := newTestCodec()
	for _, signed := range []string{"", "not-a-jwt", "a.b.c"} {
		_, err := c.Verify(signed)
		assert.ErrorIs(t, err, ErrInvalid)
	}
}
