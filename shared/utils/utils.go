package utils

import (
	"fmt"

	nanoid "github.com/matoous/go-nanoid/v2"
	"golang.org/x/crypto/bcrypt"
)

const idAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateID generates a unique ID with the given prefix, e.g. "prd-Xk3p9QaZ1b".
func GenerateID(prefix string) (string, error) {
	id, err := nanoid.Generate(idAlphabet, 10)
	if err != nil {
		return "", fmt.Errorf("generating id: %w", err)
	}
	return prefix + "-" + id, nil
}

// HashPassword hashes a password using bcrypt. Every call uses a fresh salt.
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

// CheckPassword checks if a password matches a hash. The comparison is
// constant-time with respect to the password.
func CheckPassword(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
