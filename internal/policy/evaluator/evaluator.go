// Package evaluator runs a candidate password through every configured
// policy check and reports the complete set of violations. It is a pure
// function of its inputs: no caching, no I/O, safe for concurrent use.
package evaluator

import (
	"time"
	"unicode"
	"unicode/utf8"

	"passgate/internal/policy/config"
	"passgate/internal/policy/dictionary"
	"passgate/internal/policy/models"
	"passgate/internal/policy/strength"
)

// Evaluator binds a validated policy config to its preloaded
// dictionary. Construct once per policy version and share across calls.
type Evaluator struct {
	cfg  config.Config
	dict *dictionary.Dictionary
}

// New validates the config and returns an evaluator. A structurally
// invalid config fails here, at construction, never during a
// per-password call.
func New(cfg config.Config, dict *dictionary.Dictionary) (*Evaluator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Evaluator{cfg: cfg.Clone(), dict: dict}, nil
}

// Config returns the evaluator's policy config.
func (e *Evaluator) Config() config.Config {
	return e.cfg.Clone()
}

// Evaluate checks the password against every applicable rule and
// returns all violated kinds, deduplicated, in fixed order:
// TOO_SHORT/TOO_LONG, INSUFFICIENT_CHARACTERISTICS,
// REPEATED_CHARACTERS, DICTIONARY_MATCH, EXPIRED. An empty result means
// the password is accepted. Checks never short-circuit each other: a
// too-short password is still checked for dictionary words.
func (e *Evaluator) Evaluate(password string, evalCtx models.EvaluationContext) []models.ErrorKind {
	violations := make([]models.ErrorKind, 0, 4)

	// Good-strength waiver: a password scoring at or above the
	// threshold is accepted outright. Expiration is a property of the
	// credential's age, not its strength, so it stays active when
	// ExpirationOverridesStrength is set.
	if strength.MeetsThreshold(password, e.cfg.GoodStrength) {
		if e.cfg.ExpirationOverridesStrength && e.expired(password, evalCtx) {
			violations = append(violations, models.ErrExpired)
		}
		return violations
	}

	length := utf8.RuneCountInString(password)
	if e.cfg.MinLength > 0 && length < e.cfg.MinLength {
		violations = append(violations, models.ErrTooShort)
	}
	if e.cfg.MaxLength > 0 && length > e.cfg.MaxLength {
		violations = append(violations, models.ErrTooLong)
	}

	if e.cfg.MinCharacteristics > 0 && !e.characteristicsMet(password) {
		violations = append(violations, models.ErrInsufficientCharacteristics)
	}

	if longestRun(password) > e.cfg.MaxRepeatingCharacters {
		violations = append(violations, models.ErrRepeatedCharacters)
	}

	if e.dict.Contains(password) {
		violations = append(violations, models.ErrDictionaryMatch)
	}

	if e.expired(password, evalCtx) {
		violations = append(violations, models.ErrExpired)
	}

	return violations
}

// characteristicsMet counts how many character rules the password
// satisfies and compares against the required minimum. Rules are
// satisfied by count, not position, so rule order never changes the
// outcome.
func (e *Evaluator) characteristicsMet(password string) bool {
	satisfied := 0
	for _, rule := range e.cfg.CharacterRules {
		if rule.Satisfied(password) {
			satisfied++
		}
	}
	return satisfied >= e.cfg.MinCharacteristics
}

// expired reports whether the credential's age exceeds the expiration
// window. Passwords at or above the grace length are exempt; an
// unknown modification time is never expired.
func (e *Evaluator) expired(password string, evalCtx models.EvaluationContext) bool {
	if e.cfg.ExpirationDays <= 0 || evalCtx.LastModified.IsZero() {
		return false
	}
	if e.cfg.ExpirationGraceLength > 0 && utf8.RuneCountInString(password) >= e.cfg.ExpirationGraceLength {
		return false
	}
	cutoff := time.Now().AddDate(0, 0, -e.cfg.ExpirationDays)
	return evalCtx.LastModified.Before(cutoff)
}

// longestRun finds the longest run of one repeated character.
// Whitespace breaks a run and never forms one itself, so "000 000"
// contains two runs of three, not one of six.
func longestRun(password string) int {
	longest, current := 0, 0
	var prev rune
	for _, r := range password {
		switch {
		case unicode.IsSpace(r):
			current = 0
		case r == prev && current > 0:
			current++
		default:
			current = 1
		}
		prev = r
		if current > longest {
			longest = current
		}
	}
	return longest
}

// Evaluate is a convenience for one-off checks: it constructs an
// evaluator (validating cfg) and runs a single evaluation.
func Evaluate(password string, cfg config.Config, dict *dictionary.Dictionary, evalCtx models.EvaluationContext) ([]models.ErrorKind, error) {
	e, err := New(cfg, dict)
	if err != nil {
		return nil, err
	}
	return e.Evaluate(password, evalCtx), nil
}
