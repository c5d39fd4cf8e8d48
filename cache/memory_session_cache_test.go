package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/authcore-io/authcore/domain"
)

func testSession(id string, endsAt time.Time) *domain.Session {
	return &domain.Session{
		ID:                  id,
		PrincipalID:         "principal-1",
		Platform:            domain.PlatformWeb,
		CurrentAccessToken:  "at",
		CurrentRefreshToken: "rt",
		StartedAt:           time.Now().Unix(),
		EndsAt:              endsAt.Unix(),
	}
}

func TestMemorySessionCache_SetGetDelete(t *testing.T) {
	c := NewMemorySessionCache()
	defer c.Stop()
	ctx := context.Background()

	session := testSession("s1", time.Now().Add(time.Hour))
	require.NoError(t, c.Set(ctx, session))

	got, err := c.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, session, got)

	require.NoError(t, c.Delete(ctx, "s1"))
	_, err = c.Get(ctx, "s1")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMemorySessionCache_MissForUnknown(t *testing.T) {
	c := NewMemorySessionCache()
	defer c.Stop()

	_, err := c.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMemorySessionCache_ExpiredSessionNotCached(t *testing.T) {
	c := NewMemorySessionCache()
	defer c.Stop()
	ctx := context.Background()

	session := testSession("stale", time.Now().Add(-time.Minute))
	require.NoError(t, c.Set(ctx, session))

	_, err := c.Get(ctx, "stale")
	assert.ErrorIs(t, err, ErrCacheMiss)
}
