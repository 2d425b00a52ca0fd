package auth

import "golang.org/x/crypto/bcrypt"

// bcryptCost matches the original deployment; bcrypt.DefaultCost today,
// kept explicit so a cost bump is a deliberate change.
const bcryptCost = 10

// HashPassword returns a salted bcrypt hash of plain. Plaintext is
// never persisted; callers hash before anything reaches the store.
func HashPassword(plain string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// CheckPassword reports whether plain matches the stored bcrypt hash.
// Also used for refresh tokens, which are hashed the same way.
func CheckPassword(plain, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
