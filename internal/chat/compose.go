package chat

import (
	"fmt"

	"github.com/ggonzalez94/arbchat/internal/arb"
	"github.com/ggonzalez94/arbchat/internal/id"
	"github.com/ggonzalez94/arbchat/internal/model"
)

// usageHint is the example prompt shown whenever the agent needs to teach
// the user the expected shape of a request.
const usageHint = `Try something like: "Alert me if ZEC arbitrages >2% vs ETH on Solana, spend privately"`

const greetingText = "Hey! I watch cross-chain ZEC arbitrage and can execute shielded transfers once you confirm."

// Compose turns pipeline output into the agent's chat message. It is the
// only place display text is generated; values computed upstream are
// attached as-is, never re-derived.
func Compose(result ValidationResult, intent *model.ParsedIntent, eval *arb.Evaluation) model.ChatMessage {
	switch result.Verdict {
	case VerdictGreeting:
		return model.ChatMessage{
			Role: model.RoleAgent,
			Text: greetingText + "\n" + usageHint,
		}
	case VerdictInvalid:
		return model.ChatMessage{
			Role: model.RoleAgent,
			Text: result.Reason + "\n" + usageHint,
		}
	}

	chainName := intent.TargetChain
	if asset, err := id.Parse(intent.TargetChain); err == nil {
		chainName = asset.Name
	}

	headline := fmt.Sprintf("Monitoring %s opportunities. I'll flag spreads above %.4g%% as they appear.", chainName, intent.ThresholdPercent)
	if eval.IsProfitable {
		headline = fmt.Sprintf("I found a profitable opportunity for ZEC on %s.", chainName)
	}

	return model.ChatMessage{
		Role:          model.RoleAgent,
		Text:          headline,
		ParsedIntent:  intent,
		ArbitrageRows: eval.Rows,
	}
}

// ComposeOracleFailure degrades a turn whose price fetch failed into an
// explanatory agent message instead of a hard error.
func ComposeOracleFailure(intent *model.ParsedIntent) model.ChatMessage {
	return model.ChatMessage{
		Role:         model.RoleAgent,
		Text:         "I parsed your request, but the price feed is unavailable right now. Please try again in a moment.",
		ParsedIntent: intent,
	}
}
