package mongodb

// SessionsCollection holds login sessions.
const SessionsCollection = "auth_sessions"

// PrincipalsCollection holds the read-only principal directory used for
// sign-in lookups and grant resolution.
const PrincipalsCollection = "principals"
