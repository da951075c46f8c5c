package auth

import (
	"strings"
	"unicode/utf8"
)

const (
	MinPasswordLen = 8
	// MinValidScore is the lowest score accepted at login and account-creation boundaries.
	MinValidScore = 5
	// MaxScore is the number of structural checks Analyze evaluates.
	MaxScore = 7
)

// Check names reported in PasswordStrengthResult.Checks
const (
	CheckLength           = "length"
	CheckUppercase        = "uppercase"
	CheckLowercase        = "lowercase"
	CheckNumbers          = "numbers"
	CheckSpecial          = "special"
	CheckNoCommonPatterns = "noCommonPatterns"
	CheckNoSequences      = "noSequences"
)

// Strength buckets a password score
type Strength string

const (
	StrengthWeak       Strength = "weak"
	StrengthMedium     Strength = "medium"
	StrengthStrong     Strength = "strong"
	StrengthVeryStrong Strength = "very-strong"
)

// SpecialCharacters is the fixed set satisfying the special-character check
const SpecialCharacters = `!@#$%^&*(),.?":{}|<>`

// sequences is the fixed dictionary of ascending 3-character runs. Matching is
// case-insensitive; no keyboard-layout or locale sequences are included.
var sequences = []string{
	"012", "123", "234", "345", "456", "567", "678", "789", "890",
	"abc", "bcd", "cde", "def", "efg", "fgh", "ghi", "hij", "ijk", "jkl",
	"klm", "lmn", "mno", "nop", "opq", "pqr", "qrs", "rst", "stu", "tuv",
	"uvw", "vwx", "wxy", "xyz",
}

// PasswordStrengthResult is the outcome of Analyze. It is derived fresh per call.
type PasswordStrengthResult struct {
	Score    int             `json:"score"`
	MaxScore int             `json:"maxScore"`
	Strength Strength        `json:"strength"`
	Checks   map[string]bool `json:"checks"`
	IsValid  bool            `json:"isValid"`
}

// Analyze scores a password against the structural rules. Every check is
// evaluated independently against the whole password; the empty string scores 0.
func Analyze(password string) PasswordStrengthResult {
	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, r := range password {
		switch {
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		case r >= 'a' && r <= 'z':
			hasLower = true
		case r >= '0' && r <= '9':
			hasDigit = true
		case strings.ContainsRune(SpecialCharacters, r):
			hasSpecial = true
		}
	}

	checks := map[string]bool{
		CheckLength:           utf8.RuneCountInString(password) >= MinPasswordLen,
		CheckUppercase:        hasUpper,
		CheckLowercase:        hasLower,
		CheckNumbers:          hasDigit,
		CheckSpecial:          hasSpecial,
		CheckNoCommonPatterns: !hasRepeatedRun(password, 3),
		CheckNoSequences:      !hasSequence(password),
	}

	score := 0
	for _, passed := range checks {
		if passed {
			score++
		}
	}

	return PasswordStrengthResult{
		Score:    score,
		MaxScore: MaxScore,
		Strength: strengthForScore(score),
		Checks:   checks,
		IsValid:  score >= MinValidScore,
	}
}

func strengthForScore(score int) Strength {
	switch {
	case score <= 2:
		return StrengthWeak
	case score <= 4:
		return StrengthMedium
	case score <= 6:
		return StrengthStrong
	default:
		return StrengthVeryStrong
	}
}

// hasRepeatedRun reports whether s contains n or more identical consecutive runes
func hasRepeatedRun(s string, n int) bool {
	run := 0
	var prev rune
	for i, r := range s {
		if i > 0 && r == prev {
			run++
		} else {
			run = 1
		}
		if run >= n {
			return true
		}
		prev = r
	}
	return false
}

func hasSequence(s string) bool {
	lowered := strings.ToLower(s)
	for _, seq := range sequences {
		if strings.Contains(lowered, seq) {
			return true
		}
	}
	return false
}
