// Package validation holds input rules shared by handlers and services.
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	MaxNameLength   = 100
	MaxGenderLength = 20
	maxEmailLength  = 254
)

var emailRegex = regexp.MustCompile(`^[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}$`)

// NormalizeEmail trims and lowercases email and checks its shape.
func NormalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", fmt.Errorf("email is required")
	}
	if len(email) > maxEmailLength || !emailRegex.MatchString(email) {
		return "", fmt.Errorf("email is not a valid address")
	}
	return email, nil
}

// ValidateDisplayName returns the trimmed name or an error when it is empty
// or longer than MaxNameLength characters.
func ValidateDisplayName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > MaxNameLength {
		return "", fmt.Errorf("name must be 1-%d characters", MaxNameLength)
	}
	return name, nil
}

// ValidateGender accepts any free-form value up to MaxGenderLength characters.
func ValidateGender(gender string) (string, error) {
	gender = strings.TrimSpace(gender)
	if utf8.RuneCountInString(gender) > MaxGenderLength {
		return "", fmt.Errorf("gender too long (max %d characters)", MaxGenderLength)
	}
	return gender, nil
}
