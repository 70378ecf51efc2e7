package services

// PasswordHasher turns a plaintext password into the value stored in the
// users table.
type PasswordHasher interface {
	// Hash returns an encoded, salted hash of password.
	Hash(password string) (string, error)
}
