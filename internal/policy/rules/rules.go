// Package rules is the character rule catalog: it turns the compact
// textual rule configuration into composition rules and provides the
// shipped defaults.
package rules

import (
	"strconv"
	"strings"

	"passgate/internal/policy/models"
	dErrors "passgate/pkg/domain-errors"
)

// UnknownComposition marks a rule-set shape with no canned description.
const UnknownComposition = "UNKNOWN"

// Parse builds composition rules from a config string formatted as
// "UpperCase:1,LowerCase:1,Digit:1,Special:1". Output order matches the
// spec string; order affects display only, never evaluation.
// Fails fast with an invalid-config error on malformed pairs,
// unrecognized class names, or non-numeric counts.
func Parse(spec string) ([]models.CharacterClassRule, error) {
	pairs := strings.Split(spec, ",")
	parsed := make([]models.CharacterClassRule, 0, len(pairs))

	for _, pair := range pairs {
		fields := strings.Split(pair, ":")
		if len(fields) != 2 {
			return nil, dErrors.Newf(dErrors.CodeInvalidConfig,
				"character rule %q must be formatted as Name:Count", pair)
		}

		class, err := models.ParseCharacterClass(strings.TrimSpace(fields[0]))
		if err != nil {
			return nil, err
		}

		count, err := strconv.Atoi(strings.TrimSpace(fields[1]))
		if err != nil {
			return nil, dErrors.Newf(dErrors.CodeInvalidConfig,
				"character rule %q has a non-numeric count", pair)
		}
		if count < 0 {
			return nil, dErrors.Newf(dErrors.CodeInvalidConfig,
				"character rule %q has a negative count", pair)
		}

		parsed = append(parsed, models.CharacterClassRule{Class: class, MinCount: count})
	}

	return parsed, nil
}

// ParseOrDefault parses spec when non-empty, otherwise returns Default().
func ParseOrDefault(spec string) ([]models.CharacterClassRule, error) {
	if spec == "" {
		return Default(), nil
	}
	return Parse(spec)
}

// Format renders rules back into the compact "Name:Count,..." form.
// Format and Parse round-trip, so stores persist the textual form.
func Format(ruleSet []models.CharacterClassRule) string {
	parts := make([]string, 0, len(ruleSet))
	for _, r := range ruleSet {
		parts = append(parts, r.Class.String()+":"+strconv.Itoa(r.MinCount))
	}
	return strings.Join(parts, ",")
}

// Default returns the out-of-the-box composition rules: at least one
// letter and at least one digit.
func Default() []models.CharacterClassRule {
	return []models.CharacterClassRule{
		{Class: models.ClassAlphabetical, MinCount: 1},
		{Class: models.ClassDigit, MinCount: 1},
	}
}

// RequiredCharactersPhrase maps a known rule-set shape to display text
// for the requirements checklist. Unrecognized shapes get an explicit
// marker rather than a guess.
func RequiredCharactersPhrase(ruleSet []models.CharacterClassRule) string {
	switch len(ruleSet) {
	case 2:
		return "a letter and a number"
	case 4:
		return "uppercase, lowercase, numeric, or special characters"
	default:
		return UnknownComposition
	}
}
