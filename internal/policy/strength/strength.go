// Package strength scores password quality for the good-strength
// waiver. The score is an entropy estimate in bits: deterministic, and
// monotonic in both length and character-set diversity, so raising
// either never lowers the score.
package strength

import (
	passwordvalidator "github.com/wagslane/go-password-validator"
)

// Score returns the estimated entropy of the password in bits.
func Score(password string) float64 {
	return passwordvalidator.GetEntropy(password)
}

// MeetsThreshold reports whether the password's score reaches the
// given threshold. A threshold of zero disables the waiver and always
// reports false.
func MeetsThreshold(password string, threshold float64) bool {
	if threshold <= 0 {
		return false
	}
	return Score(password) >= threshold
}
