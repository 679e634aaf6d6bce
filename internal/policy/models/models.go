// Package models defines the password policy domain types shared by the
// rule catalog, evaluator, stores, and transport layer.
package models

import (
	"time"
	"unicode"

	dErrors "passgate/pkg/domain-errors"
)

// ErrorKind identifies one violated policy rule. Evaluation results are
// ordered lists of kinds with each kind appearing at most once.
type ErrorKind string

const (
	// ErrTooShort: password length below the configured minimum
	ErrTooShort ErrorKind = "TOO_SHORT"
	// ErrTooLong: password length above the configured maximum
	ErrTooLong ErrorKind = "TOO_LONG"
	// ErrInsufficientCharacteristics: fewer character classes satisfied than required
	ErrInsufficientCharacteristics ErrorKind = "INSUFFICIENT_CHARACTERISTICS"
	// ErrRepeatedCharacters: a run of one repeated character exceeds the allowed maximum
	ErrRepeatedCharacters ErrorKind = "REPEATED_CHARACTERS"
	// ErrDictionaryMatch: password contains a configured weak word
	ErrDictionaryMatch ErrorKind = "DICTIONARY_MATCH"
	// ErrExpired: password older than the configured expiration window
	ErrExpired ErrorKind = "EXPIRED"
)

// IsValid checks if the error kind is one of the supported enum values.
func (k ErrorKind) IsValid() bool {
	switch k {
	case ErrTooShort, ErrTooLong, ErrInsufficientCharacteristics,
		ErrRepeatedCharacters, ErrDictionaryMatch, ErrExpired:
		return true
	}
	return false
}

// String returns the string representation.
func (k ErrorKind) String() string {
	return string(k)
}

// AllErrorKinds returns every kind in result order. The evaluator
// appends violations in exactly this order.
func AllErrorKinds() []ErrorKind {
	return []ErrorKind{
		ErrTooShort,
		ErrTooLong,
		ErrInsufficientCharacteristics,
		ErrRepeatedCharacters,
		ErrDictionaryMatch,
		ErrExpired,
	}
}

// CharacterClass names a category of characters used in composition rules.
type CharacterClass string

const (
	ClassAlphabetical CharacterClass = "Alphabetical"
	ClassDigit        CharacterClass = "Digit"
	ClassUpperCase    CharacterClass = "UpperCase"
	ClassLowerCase    CharacterClass = "LowerCase"
	ClassSpecial      CharacterClass = "Special"
)

// specialChars is the set of symbols counted as the Special class.
const specialChars = "!@#$%^&*()_+-=[]{}|;':\",./<>?`~"

// ParseCharacterClass creates a CharacterClass from a string, validating it.
// Returns an invalid-config error when the name is not recognized.
func ParseCharacterClass(s string) (CharacterClass, error) {
	c := CharacterClass(s)
	if !c.IsValid() {
		return "", dErrors.Newf(dErrors.CodeInvalidConfig, "unrecognized character class %q", s)
	}
	return c, nil
}

// IsValid checks if the character class is one of the supported values.
func (c CharacterClass) IsValid() bool {
	switch c {
	case ClassAlphabetical, ClassDigit, ClassUpperCase, ClassLowerCase, ClassSpecial:
		return true
	}
	return false
}

// String returns the string representation.
func (c CharacterClass) String() string {
	return string(c)
}

// Matches reports whether the rune belongs to this class.
func (c CharacterClass) Matches(r rune) bool {
	switch c {
	case ClassAlphabetical:
		return unicode.IsLetter(r)
	case ClassDigit:
		return unicode.IsDigit(r)
	case ClassUpperCase:
		return unicode.IsUpper(r)
	case ClassLowerCase:
		return unicode.IsLower(r)
	case ClassSpecial:
		for _, s := range specialChars {
			if s == r {
				return true
			}
		}
	}
	return false
}

// CharacterClassRule requires a minimum number of occurrences of one
// character class within a password. Immutable once constructed.
type CharacterClassRule struct {
	Class    CharacterClass `json:"class"`
	MinCount int            `json:"min_count"`
}

// Satisfied reports whether the password contains at least MinCount
// characters of the rule's class.
func (r CharacterClassRule) Satisfied(password string) bool {
	count := 0
	for _, ch := range password {
		if r.Class.Matches(ch) {
			count++
			if count >= r.MinCount {
				return true
			}
		}
	}
	return count >= r.MinCount
}

// EvaluationContext carries per-check runtime inputs that are not part
// of the policy itself. A zero LastModified means the credential age is
// unknown and expiration is not evaluated.
type EvaluationContext struct {
	LastModified time.Time
}

// Requirement is one row of the requirements checklist rendered by UI
// collaborators: which rule, whether the last evaluation satisfied it,
// and the human-readable text.
type Requirement struct {
	Kind      ErrorKind `json:"kind"`
	Satisfied bool      `json:"satisfied"`
	Text      string    `json:"text"`
}
