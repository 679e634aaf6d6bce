package evaluator

import (
	"fmt"
	"math"

	"passgate/internal/policy/config"
	"passgate/internal/policy/models"
	"passgate/internal/policy/rules"
)

// DescribeRequirements builds the requirements checklist a UI renders
// next to the password field: one row per active rule, marked satisfied
// or not from a prior evaluation result. It is derived purely from the
// config plus that result and never re-runs rule logic.
func DescribeRequirements(cfg config.Config, violations []models.ErrorKind) []models.Requirement {
	violated := make(map[models.ErrorKind]bool, len(violations))
	for _, kind := range violations {
		violated[kind] = true
	}

	reqs := make([]models.Requirement, 0, 6)
	add := func(kind models.ErrorKind, text string) {
		reqs = append(reqs, models.Requirement{
			Kind:      kind,
			Satisfied: !violated[kind],
			Text:      text,
		})
	}

	if cfg.MinLength > 0 {
		text := fmt.Sprintf("At least %d characters", cfg.MinLength)
		if cfg.GoodStrength > 0 {
			text += fmt.Sprintf(" (passwords scoring %g bits of entropy or more are exempt from all other requirements)", cfg.GoodStrength)
		}
		add(models.ErrTooShort, text)
	}
	if cfg.MaxLength > 0 {
		add(models.ErrTooLong, fmt.Sprintf("At most %d characters", cfg.MaxLength))
	}
	if cfg.MinCharacteristics > 0 {
		add(models.ErrInsufficientCharacteristics,
			fmt.Sprintf("At least %d of the following: %s",
				cfg.MinCharacteristics, rules.RequiredCharactersPhrase(cfg.CharacterRules)))
	}
	if cfg.MaxRepeatingCharacters < math.MaxInt {
		add(models.ErrRepeatedCharacters,
			fmt.Sprintf("No more than %d repeating characters in a row", cfg.MaxRepeatingCharacters))
	}
	if cfg.DictionaryEnabled() {
		add(models.ErrDictionaryMatch, "No dictionary words")
	}
	if cfg.ExpirationDays > 0 {
		add(models.ErrExpired, fmt.Sprintf("Changed within the last %d days", cfg.ExpirationDays))
	}

	return reqs
}
