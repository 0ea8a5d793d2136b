package crypto

import (
	"math"

	"github.com/trustelem/zxcvbn"
)

// SharePasswordMinLength is the hard floor on share password length.
// Anything shorter is rejected outright; everything else gets advisory feedback.
const SharePasswordMinLength = 4

// RecommendedSharePasswordLength is the length suggested to users for
// password-protected links exposed to offline guessing.
const RecommendedSharePasswordLength = 12

// PasswordStrength is the advisory analysis of a share password
type PasswordStrength struct {
	Entropy       float64  `json:"entropy"`
	Score         int      `json:"score"` // zxcvbn 0-4 scale
	Feedback      []string `json:"feedback"`
	AcceptableLen bool     `json:"acceptable_length"`
}

// EvaluateSharePassword analyzes a share password with zxcvbn. The result is
// advisory; only the minimum length is enforced by callers.
func EvaluateSharePassword(password string) *PasswordStrength {
	if password == "" {
		return &PasswordStrength{
			Feedback:      []string{"Password cannot be empty"},
			AcceptableLen: false,
		}
	}

	result := zxcvbn.PasswordStrength(password, nil)

	// Convert zxcvbn guesses to entropy bits: log2(guesses)
	entropyBits := 0.0
	if result.Guesses > 0 {
		entropyBits = math.Log2(result.Guesses)
	}

	feedback := make([]string, 0)
	switch result.Score {
	case 0:
		feedback = append(feedback, "This is a very weak password")
	case 1:
		feedback = append(feedback, "This is a weak password")
	case 2:
		feedback = append(feedback, "This is a fair password")
	}

	if len(password) < RecommendedSharePasswordLength {
		feedback = append(feedback, "Share passwords guard against offline guessing; longer is better")
	}

	for _, seq := range result.Sequence {
		switch seq.Pattern {
		case "dictionary":
			feedback = append(feedback, "Contains common dictionary words")
		case "spatial":
			feedback = append(feedback, "Contains keyboard patterns")
		case "repeat":
			feedback = append(feedback, "Contains repeated characters")
		case "sequence":
			feedback = append(feedback, "Contains sequential patterns")
		}
	}

	if result.Score >= 3 && len(feedback) == 0 {
		feedback = append(feedback, "Strong password")
	}

	return &PasswordStrength{
		Entropy:       entropyBits,
		Score:         result.Score,
		Feedback:      feedback,
		AcceptableLen: len(password) >= SharePasswordMinLength,
	}
}
