package chat

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/ggonzalez94/arbchat/internal/id"
	"github.com/ggonzalez94/arbchat/internal/model"
)

// thresholdPattern accepts the same percent tokens the validator does,
// including a trailing dot like "5.%".
var thresholdPattern = regexp.MustCompile(`(\d+\.?\d*)\s*%`)

// defaultThresholdPercent covers the defensive fallback when no percentage
// token parses. Validation guarantees one exists, so this is not a normal
// path.
const defaultThresholdPercent = 2

// Extract derives a structured monitoring intent from a processable
// utterance. It is deterministic: threshold is the first percentage-like
// number, the target resolves ETH-family before SOL-family, and the source
// is always the zcash family in this scope.
func Extract(text string) model.ParsedIntent {
	lower := strings.ToLower(text)

	threshold := float64(defaultThresholdPercent)
	if m := thresholdPattern.FindStringSubmatch(lower); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			threshold = v
		}
	}

	target := id.Ethereum
	if !id.Mentions(lower, id.Ethereum) && id.Mentions(lower, id.Solana) {
		target = id.Solana
	}

	return model.ParsedIntent{
		Action:           model.ActionArbAlertAndSwap,
		SourceAsset:      id.Zcash.ID,
		TargetAsset:      target.ID,
		TargetChain:      target.ID,
		ThresholdPercent: threshold,
		PrivacyMode:      model.PrivacyShielded,
	}
}
