// Package audit records security-relevant lifecycle events on a dedicated
// structured stream, separate from operational logging.
package audit

import (
	"encoding/json"
	"os"
	"time"

	"github.com/rs/zerolog/log"
)

// Actions recorded by the authentication core.
const (
	ActionSignIn          = "SIGN_IN"
	ActionSignOut         = "SIGN_OUT"
	ActionSessionsCleared = "SESSIONS_CLEARED"
)

// Event represents an audit log event.
type Event struct {
	Timestamp   time.Time `json:"timestamp"`
	Action      string    `json:"action"`
	PrincipalID string    `json:"principal_id,omitempty"`
	SessionID   string    `json:"session_id,omitempty"`
	Details     string    `json:"details,omitempty"`
	Success     bool      `json:"success"`
	Error       string    `json:"error,omitempty"`
}

var auditLogger = log.Output(os.Stdout).With().Logger()

// Log records an audit event. Failures to serialize fall back to the
// operational logger rather than dropping the event.
func Log(action, principalID, sessionID, details string, success bool, err error) {
	event := Event{
		Timestamp:   time.Now().UTC(),
		Action:      action,
		PrincipalID: principalID,
		SessionID:   sessionID,
		Details:     details,
		Success:     success,
	}
	if err != nil {
		event.Error = err.Error()
	}

	entry, marshalErr := json.Marshal(event)
	if marshalErr != nil {
		auditLogger.Error().
			Str("action", action).
			Str("principal_id", principalID).
			Str("session_id", sessionID).
			Str("details", details).
			Bool("success", success).
			Err(err).
			Msg("Audit Log (fallback)")
		return
	}
	auditLogger.Log().RawJSON("audit_event", entry).Msg("")
}
