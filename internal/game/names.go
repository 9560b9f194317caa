package game

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
)

// NameKey folds a display name into the form used for every name comparison.
func NameKey(name string) string {
	return cases.Fold().String(strings.TrimSpace(name))
}

// SameName reports whether two names refer to the same player.
func SameName(a, b string) bool {
	return NameKey(a) == NameKey(b)
}

// NameRules configures username validation.
type NameRules struct {
	MinLength int
	MaxLength int
	Reserved  []string
	Blocked   []string
}

// NameValidator applies NameRules to candidate usernames.
type NameValidator struct {
	min, max int
	reserved map[string]struct{}
	blocked  []string
}

func NewNameValidator(rules NameRules) *NameValidator {
	v := &NameValidator{
		min:      rules.MinLength,
		max:      rules.MaxLength,
		reserved: make(map[string]struct{}, len(rules.Reserved)),
	}
	if v.min <= 0 {
		v.min = 3
	}
	if v.max < v.min {
		v.max = 20
	}
	for _, name := range rules.Reserved {
		if key := NameKey(name); key != "" {
			v.reserved[key] = struct{}{}
		}
	}
	for _, word := range rules.Blocked {
		if key := NameKey(word); key != "" {
			v.blocked = append(v.blocked, key)
		}
	}
	return v
}

// Validate checks name and returns a user-facing error describing the first
// rule it breaks. A non-empty note is advisory and does not reject the name.
func (v *NameValidator) Validate(name string) (note string, err error) {
	if name == "" {
		return "", errors.New("Username cannot be empty.")
	}
	n := utf8.RuneCountInString(name)
	if n < v.min {
		return "", fmt.Errorf("Username must be at least %d characters long.", v.min)
	}
	if n > v.max {
		return "", fmt.Errorf("Username must be no more than %d characters long.", v.max)
	}
	for _, r := range name {
		if !validNameRune(r) {
			return "", errors.New("Username can only contain letters, numbers, underscores, and hyphens.")
		}
	}
	key := NameKey(name)
	if _, ok := v.reserved[key]; ok {
		return "", errors.New("That username is reserved. Please choose another.")
	}
	for _, word := range v.blocked {
		if strings.Contains(key, word) {
			return "", errors.New("That username is not allowed. Please choose another.")
		}
	}
	if name[0] >= '0' && name[0] <= '9' {
		note = "Note: usernames that start with a number can be hard for others to type."
	}
	return note, nil
}

func validNameRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == '_' || r == '-':
		return true
	}
	return false
}

// ValidatePassword applies the rules for name protection passwords.
func ValidatePassword(password string) error {
	if password == "" {
		return errors.New("Password cannot be blank.")
	}
	if utf8.RuneCountInString(password) < 6 {
		return errors.New("Password must be at least 6 characters.")
	}
	return nil
}
