// Package cache provides the read-through session cache in front of the
// durable store. The cache is advisory: rotation and sign-out always go to the
// store first, and mutate their cache entry only after the store accepted the
// write.
package cache

import (
	"context"
	"errors"

	"github.com/authcore-io/authcore/domain"
)

// ErrCacheMiss is returned by Get when the session is not cached. Callers fall
// back to the durable store.
var ErrCacheMiss = errors.New("session not cached")

//go:generate mockgen -source=$GOFILE -destination=../../mocks/mock_$GOPACKAGE/mock_$GOFILE -package=mock_$GOPACKAGE
type SessionCache interface {
	// Set caches the session until its validity window closes.
	Set(ctx context.Context, session *domain.Session) error
	Get(ctx context.Context, id string) (*domain.Session, error)
	Delete(ctx context.Context, id string) error
}
