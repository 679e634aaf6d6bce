// Package dictionary loads weak-password word lists into an immutable
// in-memory matcher. Sources are read once at policy construction;
// evaluation never touches the filesystem.
package dictionary

import (
	"bufio"
	"os"
	"strings"

	dErrors "passgate/pkg/domain-errors"
	platformstrings "passgate/pkg/platform/strings"
)

// Dictionary is an immutable set of weak words. A nil Dictionary is a
// valid empty dictionary; it matches nothing. Safe for concurrent use.
type Dictionary struct {
	words         []string
	caseSensitive bool
}

// Load reads newline-delimited word lists from the given sources.
// An unreadable source is a configuration error surfaced at load time,
// never a silently weakened policy. No sources yields a nil Dictionary.
func Load(caseSensitive bool, sources ...string) (*Dictionary, error) {
	if len(sources) == 0 {
		return nil, nil
	}

	var words []string
	for _, source := range sources {
		file, err := os.Open(source)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInvalidConfig, "open dictionary source")
		}

		scanner := bufio.NewScanner(file)
		for scanner.Scan() {
			words = append(words, scanner.Text())
		}
		scanErr := scanner.Err()
		_ = file.Close()
		if scanErr != nil {
			return nil, dErrors.Wrap(scanErr, dErrors.CodeInvalidConfig, "read dictionary source")
		}
	}

	if caseSensitive {
		words = platformstrings.DedupeAndTrim(words)
	} else {
		words = platformstrings.DedupeAndTrimLower(words)
	}

	return &Dictionary{words: words, caseSensitive: caseSensitive}, nil
}

// FromWords builds a dictionary from an in-memory word list. Used by
// tests and callers that manage their own sources.
func FromWords(caseSensitive bool, words []string) *Dictionary {
	if caseSensitive {
		words = platformstrings.DedupeAndTrim(words)
	} else {
		words = platformstrings.DedupeAndTrimLower(words)
	}
	return &Dictionary{words: words, caseSensitive: caseSensitive}
}

// Contains reports whether the password contains any dictionary word as
// an exact or substring match.
func (d *Dictionary) Contains(password string) bool {
	if d == nil || len(d.words) == 0 {
		return false
	}

	candidate := password
	if !d.caseSensitive {
		candidate = strings.ToLower(password)
	}

	for _, word := range d.words {
		if strings.Contains(candidate, word) {
			return true
		}
	}
	return false
}

// Len returns the number of loaded words.
func (d *Dictionary) Len() int {
	if d == nil {
		return 0
	}
	return len(d.words)
}
