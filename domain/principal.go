package domain

// Principal is the minimal identity snapshot embedded in token claims. It is
// deliberately small: anything beyond id and display fields belongs behind the
// lookup provider, not inside a signed token.
type Principal struct {
	ID          string `json:"id"`
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
}

// PrincipalRecord is what the external lookup provider returns for a sign-in
// attempt: the snapshot plus the opaque password hash to verify against.
type PrincipalRecord struct {
	Principal
	PasswordHash string
}
