package chat

import (
	"regexp"
	"strings"

	"github.com/ggonzalez94/arbchat/internal/id"
)

// Verdict classifies a raw user utterance.
type Verdict string

const (
	VerdictGreeting    Verdict = "greeting"
	VerdictInvalid     Verdict = "invalid"
	VerdictProcessable Verdict = "processable"
)

// ValidationResult carries the verdict and, for invalid input, the
// user-facing reason. Validation is a pure function of the text.
type ValidationResult struct {
	Verdict Verdict
	Reason  string
}

var greetings = []string{"hi", "hello", "hey", "greetings", "sup", "yo"}

var percentPattern = regexp.MustCompile(`\d+\.?\d*\s*%`)

// InvalidRequestReason names the two requirements a processable request
// must meet. It is the fixed explanation attached to every invalid verdict.
const InvalidRequestReason = "I couldn't process your request. Please include 2 coins (SOL/Solana, ETH/Ethereum, ZEC/Zcash) and a percentage threshold."

// Validate classifies text as a greeting, an invalid request, or a
// processable monitoring request. Normalization is for matching only; the
// original text is preserved for display and extraction.
func Validate(text string) ValidationResult {
	lower := strings.ToLower(strings.TrimSpace(text))

	for _, g := range greetings {
		if lower == g || strings.HasPrefix(lower, g+" ") || strings.HasPrefix(lower, g+",") {
			return ValidationResult{Verdict: VerdictGreeting}
		}
	}

	hasAssets := len(id.ResolveMentions(lower)) >= 2
	hasPercent := percentPattern.MatchString(lower)
	if !hasAssets || !hasPercent {
		return ValidationResult{Verdict: VerdictInvalid, Reason: InvalidRequestReason}
	}

	return ValidationResult{Verdict: VerdictProcessable}
}
