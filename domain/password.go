package domain

// PasswordHasher verifies sign-in secrets against stored hashes. The hash
// format is opaque to the session service.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(hashedPassword, password string) error
}
