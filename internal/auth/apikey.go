package auth

import "golang.org/x/crypto/bcrypt"

// HashAPIKey derives the bcrypt hash an operator stores in config in
// place of the raw key.
func HashAPIKey(key string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

// VerifyAPIKey checks a presented key against the stored bcrypt hash.
func VerifyAPIKey(hash, key string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(key)) == nil
}
