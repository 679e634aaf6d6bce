// Package config defines the tunable password policy parameters and
// their structural invariants.
package config

import (
	"os"
	"strconv"
	"strings"

	"passgate/internal/policy/models"
	"passgate/internal/policy/rules"
	dErrors "passgate/pkg/domain-errors"
)

// Config is one immutable set of policy parameters. It is validated at
// construction and treated as read-only during evaluation; runtime
// updates replace the whole value atomically (see the service layer).
type Config struct {
	// MinLength is the minimum password length (0 = no minimum)
	MinLength int

	// MaxLength is the maximum password length (0 = unbounded)
	MaxLength int

	// CharacterRules is the composition policy; order affects display only
	CharacterRules []models.CharacterClassRule

	// MinCharacteristics is how many character rules must each be satisfied
	MinCharacteristics int

	// MaxRepeatingCharacters is the longest allowed run of one character.
	// Whitespace never counts toward a run.
	MaxRepeatingCharacters int

	// DictionarySources are word-list file paths for weak-password detection
	DictionarySources []string

	// DictionaryCaseSensitive controls dictionary comparison (default insensitive)
	DictionaryCaseSensitive bool

	// GoodStrength is an entropy threshold in bits; passwords scoring at or
	// above it are exempt from all other checks (0 = disabled)
	GoodStrength float64

	// ExpirationDays is the password age limit in days (0 = never expires)
	ExpirationDays int

	// ExpirationGraceLength exempts passwords of at least this length from
	// expiration (0 = no exemption)
	ExpirationGraceLength int

	// ExpirationOverridesStrength keeps the expiration check active even
	// when the good-strength waiver fires
	ExpirationOverridesStrength bool
}

// Default returns the policy the service ships with: the original
// baseline of minimum 8 characters, a letter and a number, no
// expiration.
func Default() Config {
	return Config{
		MinLength:              8,
		MaxLength:              0,
		CharacterRules:         rules.Default(),
		MinCharacteristics:     2,
		MaxRepeatingCharacters: 4,
		GoodStrength:           0,
		ExpirationDays:         0,
	}
}

// Validate enforces structural invariants. A violation is a caller
// configuration bug and fails fast with an invalid-config error, never
// a per-password validation outcome.
func (c Config) Validate() error {
	if c.MinLength < 0 {
		return dErrors.New(dErrors.CodeInvalidConfig, "min length cannot be negative")
	}
	if c.MaxLength < 0 {
		return dErrors.New(dErrors.CodeInvalidConfig, "max length cannot be negative")
	}
	if c.MaxLength > 0 && c.MinLength > c.MaxLength {
		return dErrors.New(dErrors.CodeInvalidConfig, "min length cannot exceed max length")
	}
	if c.MinCharacteristics < 0 {
		return dErrors.New(dErrors.CodeInvalidConfig, "min characteristics cannot be negative")
	}
	if c.MinCharacteristics > len(c.CharacterRules) {
		return dErrors.Newf(dErrors.CodeInvalidConfig,
			"min characteristics %d exceeds the %d configured character rules",
			c.MinCharacteristics, len(c.CharacterRules))
	}
	if c.MaxRepeatingCharacters < 1 {
		return dErrors.New(dErrors.CodeInvalidConfig, "max repeating characters must be at least 1")
	}
	if c.GoodStrength < 0 {
		return dErrors.New(dErrors.CodeInvalidConfig, "good strength cannot be negative")
	}
	if c.ExpirationDays < 0 {
		return dErrors.New(dErrors.CodeInvalidConfig, "expiration days cannot be negative")
	}
	if c.ExpirationGraceLength < 0 {
		return dErrors.New(dErrors.CodeInvalidConfig, "expiration grace length cannot be negative")
	}
	for _, r := range c.CharacterRules {
		if !r.Class.IsValid() {
			return dErrors.Newf(dErrors.CodeInvalidConfig, "unrecognized character class %q", r.Class)
		}
		if r.MinCount < 0 {
			return dErrors.Newf(dErrors.CodeInvalidConfig, "character rule %s has a negative count", r.Class)
		}
	}
	return nil
}

// DictionaryEnabled reports whether any dictionary source is configured.
func (c Config) DictionaryEnabled() bool {
	return len(c.DictionarySources) > 0
}

// Clone returns a deep copy so stored configs cannot be mutated through
// shared slices.
func (c Config) Clone() Config {
	clone := c
	clone.CharacterRules = append([]models.CharacterClassRule(nil), c.CharacterRules...)
	clone.DictionarySources = append([]string(nil), c.DictionarySources...)
	return clone
}

// FromEnv builds a Config from PASSGATE_POLICY_* environment variables,
// falling back to Default() values so main stays lean.
func FromEnv() (Config, error) {
	cfg := Default()

	var err error
	if cfg.MinLength, err = envInt("PASSGATE_POLICY_MIN_LENGTH", cfg.MinLength); err != nil {
		return Config{}, err
	}
	if cfg.MaxLength, err = envInt("PASSGATE_POLICY_MAX_LENGTH", cfg.MaxLength); err != nil {
		return Config{}, err
	}
	if cfg.MinCharacteristics, err = envInt("PASSGATE_POLICY_MIN_CHARACTERISTICS", cfg.MinCharacteristics); err != nil {
		return Config{}, err
	}
	if cfg.MaxRepeatingCharacters, err = envInt("PASSGATE_POLICY_MAX_REPEATING", cfg.MaxRepeatingCharacters); err != nil {
		return Config{}, err
	}
	if cfg.ExpirationDays, err = envInt("PASSGATE_POLICY_EXPIRATION_DAYS", cfg.ExpirationDays); err != nil {
		return Config{}, err
	}
	if cfg.ExpirationGraceLength, err = envInt("PASSGATE_POLICY_EXPIRATION_GRACE_LENGTH", cfg.ExpirationGraceLength); err != nil {
		return Config{}, err
	}

	if v := os.Getenv("PASSGATE_POLICY_GOOD_STRENGTH"); v != "" {
		bits, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return Config{}, dErrors.Newf(dErrors.CodeInvalidConfig, "PASSGATE_POLICY_GOOD_STRENGTH: %v", err)
		}
		cfg.GoodStrength = bits
	}

	if spec := os.Getenv("PASSGATE_POLICY_CHARACTER_RULES"); spec != "" {
		parsed, err := rules.Parse(spec)
		if err != nil {
			return Config{}, err
		}
		cfg.CharacterRules = parsed
	}

	if v := os.Getenv("PASSGATE_POLICY_DICTIONARIES"); v != "" {
		cfg.DictionarySources = strings.Split(v, string(os.PathListSeparator))
	}
	cfg.DictionaryCaseSensitive = os.Getenv("PASSGATE_POLICY_DICTIONARY_CASE_SENSITIVE") == "true"
	cfg.ExpirationOverridesStrength = os.Getenv("PASSGATE_POLICY_EXPIRATION_OVERRIDES_STRENGTH") == "true"

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, dErrors.Newf(dErrors.CodeInvalidConfig, "%s: %v", key, err)
	}
	return n, nil
}
