package models

import (
	"time"

	dErrors "passgate/pkg/domain-errors"
)

type ValidatePasswordRequest struct {
	Password     string     `json:"password"`
	LastModified *time.Time `json:"last_modified,omitempty"`
}

// Follows validation order: Size -> Required -> Syntax -> Semantic.
// The password itself is never normalized; whitespace is significant.
func (r *ValidatePasswordRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}

	// Hard transport cap; the policy's own MaxLength is evaluated, not enforced here.
	if len(r.Password) > 4096 {
		return dErrors.New(dErrors.CodeValidation, "password must be 4096 bytes or less")
	}

	return nil
}

type ValidatePasswordResponse struct {
	Valid        bool          `json:"valid"`
	Errors       []ErrorKind   `json:"errors"`
	Requirements []Requirement `json:"requirements"`
}

type UpdatePolicyRequest struct {
	MinLength                   int      `json:"min_length"`
	MaxLength                   int      `json:"max_length"`
	CharacterRules              string   `json:"character_rules,omitempty"` // e.g. "UpperCase:1,LowerCase:1,Digit:1,Special:1"
	MinCharacteristics          int      `json:"min_characteristics"`
	MaxRepeatingCharacters      int      `json:"max_repeating_characters"`
	DictionarySources           []string `json:"dictionary_sources,omitempty"`
	DictionaryCaseSensitive     bool     `json:"dictionary_case_sensitive"`
	GoodStrength                float64  `json:"good_strength"`
	ExpirationDays              int      `json:"expiration_days"`
	ExpirationGraceLength       int      `json:"expiration_grace_length"`
	ExpirationOverridesStrength bool     `json:"expiration_overrides_strength"`
}

type PolicyResponse struct {
	MinLength                   int                  `json:"min_length"`
	MaxLength                   int                  `json:"max_length"`
	CharacterRules              []CharacterClassRule `json:"character_rules"`
	MinCharacteristics          int                  `json:"min_characteristics"`
	MaxRepeatingCharacters      int                  `json:"max_repeating_characters"`
	DictionarySources           []string             `json:"dictionary_sources"`
	DictionaryCaseSensitive     bool                 `json:"dictionary_case_sensitive"`
	GoodStrength                float64              `json:"good_strength"`
	ExpirationDays              int                  `json:"expiration_days"`
	ExpirationGraceLength       int                  `json:"expiration_grace_length"`
	ExpirationOverridesStrength bool                 `json:"expiration_overrides_strength"`
}

type RequirementsResponse struct {
	Requirements []Requirement `json:"requirements"`
}
