package crypto

import (
	"strings"
	"testing"
)

func TestEvaluateSharePassword(t *testing.T) {
	tests := []struct {
		name          string
		password      string
		acceptableLen bool
	}{
		{
			name:          "Empty password",
			password:      "",
			acceptableLen: false,
		},
		{
			name:          "Below minimum length",
			password:      "abc",
			acceptableLen: false,
		},
		{
			name:          "At minimum length",
			password:      "abcd",
			acceptableLen: true,
		},
		{
			name:          "Strong passphrase",
			password:      "correct horse battery staple 77!",
			acceptableLen: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := EvaluateSharePassword(tt.password)

			if result.AcceptableLen != tt.acceptableLen {
				t.Errorf("AcceptableLen = %v, expected %v", result.AcceptableLen, tt.acceptableLen)
			}

			if result.Score < 0 || result.Score > 4 {
				t.Errorf("Score = %d, expected 0-4", result.Score)
			}

			if result.Entropy < 0 {
				t.Errorf("Entropy should not be negative: %.2f", result.Entropy)
			}

			if len(result.Feedback) == 0 {
				t.Error("Feedback should never be empty")
			}

			t.Logf("Password: %q", tt.password)
			t.Logf("Entropy: %.2f bits", result.Entropy)
			t.Logf("Score: %d/4", result.Score)
			t.Logf("Feedback: %v", result.Feedback)
		})
	}
}

func TestEvaluateSharePasswordLengthAdvisory(t *testing.T) {
	// Anything under the recommended length gets the offline-guessing warning,
	// regardless of how it otherwise scores.
	short := EvaluateSharePassword("Kx9#mQ2p")
	if !hasFeedback(short, "longer is better") {
		t.Errorf("Expected length advisory for 8-char password, got: %v", short.Feedback)
	}

	long := EvaluateSharePassword("MyVacation2025PhotosForFamily!ExtraSecure")
	if hasFeedback(long, "longer is better") {
		t.Errorf("Did not expect length advisory for 41-char password, got: %v", long.Feedback)
	}
}

func TestPatternDetection(t *testing.T) {
	tests := []struct {
		name     string
		password string
	}{
		{
			name:     "Repeated characters",
			password: "aaaaabbbbbccccc123",
		},
		{
			name:     "Sequential pattern",
			password: "abcdefg1234567890",
		},
		{
			name:     "Dictionary word",
			password: "password123456789",
		},
		{
			name:     "Keyboard pattern",
			password: "qwerty123456789abc",
		},
	}

	patternHints := []string{
		"dictionary words",
		"keyboard patterns",
		"repeated characters",
		"sequential patterns",
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := EvaluateSharePassword(tt.password)

			found := false
			for _, hint := range patternHints {
				if hasFeedback(result, hint) {
					found = true
					break
				}
			}
			if !found {
				t.Errorf("Expected pattern feedback for %q, got: %v", tt.password, result.Feedback)
			}

			t.Logf("Password: %s", tt.password)
			t.Logf("Feedback: %v", result.Feedback)
			t.Logf("Entropy: %.2f bits", result.Entropy)
		})
	}
}

func TestEntropyOrdering(t *testing.T) {
	weak := EvaluateSharePassword("aaaa")
	strong := EvaluateSharePassword("correct horse battery staple 77!")

	if weak.Entropy >= strong.Entropy {
		t.Errorf("Trivial password entropy (%.2f) should be below a passphrase's (%.2f)",
			weak.Entropy, strong.Entropy)
	}
	if weak.Score >= strong.Score {
		t.Errorf("Trivial password score (%d) should be below a passphrase's (%d)",
			weak.Score, strong.Score)
	}

	t.Logf("Weak password entropy: %.2f bits", weak.Entropy)
	t.Logf("Strong password entropy: %.2f bits", strong.Entropy)
}

func hasFeedback(result *PasswordStrength, substr string) bool {
	for _, f := range result.Feedback {
		if strings.Contains(f, substr) {
			return true
		}
	}
	return false
}
