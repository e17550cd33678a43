package utils

import (
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

// PasswordHashCost is lowered by tests that create many operators.
var PasswordHashCost = 14

// MinOperatorPasswordLen applies to hashes created by seeding and future
// operator provisioning. bcrypt itself ignores bytes past 72.
const MinOperatorPasswordLen = 8

// HashPassword bcrypt-hashes an operator password.
func HashPassword(password string) (string, error) {
	if utf8.RuneCountInString(password) < MinOperatorPasswordLen {
		return "", &ValidationError{Field: "password", Reason: "is too short"}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), PasswordHashCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPasswordHash reports whether password matches a stored bcrypt hash.
func CheckPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
