package evaluator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"passgate/internal/policy/config"
	"passgate/internal/policy/models"
	"passgate/internal/policy/rules"
)

func fourClassConfig(t *testing.T) config.Config {
	t.Helper()
	level3, err := rules.Parse("UpperCase:1,LowerCase:1,Digit:1,Special:1")
	require.NoError(t, err)
	return config.Config{
		MinLength:              8,
		MaxLength:              64,
		CharacterRules:         level3,
		MinCharacteristics:     3,
		MaxRepeatingCharacters: 4,
		DictionarySources:      []string{"weak_passwords.txt"},
		ExpirationDays:         365,
	}
}

func kinds(reqs []models.Requirement) []models.ErrorKind {
	out := make([]models.ErrorKind, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, r.Kind)
	}
	return out
}

func TestDescribeRequirements(t *testing.T) {
	t.Run("one row per active rule in result order", func(t *testing.T) {
		reqs := DescribeRequirements(fourClassConfig(t), nil)
		assert.Equal(t, []models.ErrorKind{
			models.ErrTooShort,
			models.ErrTooLong,
			models.ErrInsufficientCharacteristics,
			models.ErrRepeatedCharacters,
			models.ErrDictionaryMatch,
			models.ErrExpired,
		}, kinds(reqs))
		for _, req := range reqs {
			assert.True(t, req.Satisfied)
			assert.NotEmpty(t, req.Text)
		}
	})

	t.Run("violations mark their rows unsatisfied", func(t *testing.T) {
		violations := []models.ErrorKind{models.ErrTooShort, models.ErrDictionaryMatch}
		reqs := DescribeRequirements(fourClassConfig(t), violations)
		for _, req := range reqs {
			switch req.Kind {
			case models.ErrTooShort, models.ErrDictionaryMatch:
				assert.False(t, req.Satisfied, "kind %s", req.Kind)
			default:
				assert.True(t, req.Satisfied, "kind %s", req.Kind)
			}
		}
	})

	t.Run("disabled rules are omitted", func(t *testing.T) {
		cfg := fourClassConfig(t)
		cfg.MaxLength = 0
		cfg.DictionarySources = nil
		cfg.ExpirationDays = 0

		reqs := DescribeRequirements(cfg, nil)
		assert.Equal(t, []models.ErrorKind{
			models.ErrTooShort,
			models.ErrInsufficientCharacteristics,
			models.ErrRepeatedCharacters,
		}, kinds(reqs))
	})

	t.Run("characteristics row names the composition", func(t *testing.T) {
		reqs := DescribeRequirements(fourClassConfig(t), nil)
		var found bool
		for _, req := range reqs {
			if req.Kind == models.ErrInsufficientCharacteristics {
				found = true
				assert.Contains(t, req.Text, "uppercase, lowercase, numeric, or special characters")
			}
		}
		assert.True(t, found)
	})

	t.Run("good strength is noted on the length row", func(t *testing.T) {
		cfg := fourClassConfig(t)
		cfg.GoodStrength = 60

		reqs := DescribeRequirements(cfg, nil)
		assert.Contains(t, reqs[0].Text, "exempt")
	})
}
