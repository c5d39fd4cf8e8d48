// Package notify delivers security notifications raised by the session
// core. Delivery is best-effort and never blocks sign-in.
package notify

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/authcore-io/authcore/domain"
)

// LogNotifier writes sign-in notices to the structured log. It stands in
// for a mail or push channel in deployments that have none configured.
type LogNotifier struct {
	logger zerolog.Logger
}

// NewLogNotifier creates a notifier that records events via the given logger.
func NewLogNotifier(logger zerolog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.With().Str("component", "notify").Logger()}
}

// SessionStarted logs a new sign-in notice.
func (n *LogNotifier) SessionStarted(ctx context.Context, event domain.SignInEvent) {
	n.logger.Info().
		Str("principal_id", event.PrincipalID).
		Str("session_id", event.SessionID).
		Str("platform", string(event.Platform)).
		Str("client_ip", event.ClientIP).
		Str("user_agent", event.UserAgent).
		Time("at", event.At).
		Msg("new sign-in")
}

var _ domain.Notifier = (*LogNotifier)(nil)
