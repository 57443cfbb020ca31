// Package validation holds input rules shared by the services.
package validation

import (
	"errors"
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	MinPasswordLength    = 8
	MaxPasswordLength    = 128
	MaxEmailLength       = 254
	MinDisplayNameLength = 2
	MaxDisplayNameLength = 40
	MaxBioLength         = 280
	MaxMessageLength     = 1024
)

var usernameRegex = regexp.MustCompile(`^[A-Za-z0-9_]{3,20}$`)

// ValidateEmail checks that email is a bare address of at most 254 bytes.
func ValidateEmail(email string) error {
	if email == "" {
		return errors.New("email is required")
	}
	if len(email) > MaxEmailLength {
		return fmt.Errorf("email must be at most %d characters", MaxEmailLength)
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || addr.Name != "" {
		return errors.New("email is invalid")
	}
	at := strings.LastIndex(email, "@")
	domain := email[at+1:]
	if !strings.Contains(domain, ".") || strings.HasSuffix(domain, ".") || strings.HasPrefix(domain, ".") {
		return errors.New("email is invalid")
	}
	return nil
}

// ValidatePassword requires 8 to 128 characters with at least one letter and one digit.
func ValidatePassword(password string) error {
	n := utf8.RuneCountInString(password)
	if n < MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	}
	if n > MaxPasswordLength {
		return fmt.Errorf("password must be at most %d characters", MaxPasswordLength)
	}

	var hasLetter, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasLetter || !hasDigit {
		return errors.New("password must contain at least one letter and one number")
	}
	return nil
}

// ValidateUsername allows 3 to 20 letters, digits or underscores.
func ValidateUsername(username string) error {
	if !usernameRegex.MatchString(username) {
		return errors.New("username must be 3-20 characters of letters, numbers, or underscores")
	}
	return nil
}

// ValidateDisplayName checks an already trimmed display name.
func ValidateDisplayName(name string) error {
	n := utf8.RuneCountInString(name)
	if n < MinDisplayNameLength || n > MaxDisplayNameLength {
		return fmt.Errorf("display name must be %d-%d characters", MinDisplayNameLength, MaxDisplayNameLength)
	}
	return nil
}

// ValidateBio checks an already trimmed bio.
func ValidateBio(bio string) error {
	if utf8.RuneCountInString(bio) > MaxBioLength {
		return fmt.Errorf("bio must be at most %d characters", MaxBioLength)
	}
	return nil
}

// ValidateMessage checks an already trimmed direct message.
func ValidateMessage(content string) error {
	n := utf8.RuneCountInString(content)
	if n == 0 {
		return errors.New("message cannot be empty")
	}
	if n > MaxMessageLength {
		return fmt.Errorf("message must be at most %d characters", MaxMessageLength)
	}
	return nil
}

// ValidateImageURL accepts absolute http(s) URLs and site-relative paths.
func ValidateImageURL(raw string) error {
	if raw == "" {
		return errors.New("image url is required")
	}
	if strings.ContainsAny(raw, " \t\r\n") {
		return errors.New("image url cannot contain whitespace")
	}
	if strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "https://") || strings.HasPrefix(raw, "http://") {
		return nil
	}
	return errors.New("image url must be an http(s) URL or a site path")
}
