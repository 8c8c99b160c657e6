package account

import (
	"golang.org/x/crypto/bcrypt"
)

// hashSecret hashes a password or security answer using bcrypt
func hashSecret(secret string, cost int) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(secret), cost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// checkSecretHash verifies a secret against a bcrypt hash
func checkSecretHash(secret, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret))
	return err == nil
}
