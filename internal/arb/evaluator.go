package arb

import (
	"fmt"

	clierr "github.com/ggonzalez94/arbchat/internal/errors"
	"github.com/ggonzalez94/arbchat/internal/model"
)

// Evaluation is the profitability verdict for one intent against one quote.
// ProfitPercent is nil when the spread is not strictly positive; callers
// must treat absence as absence, not zero.
type Evaluation struct {
	IsProfitable  bool
	ProfitPercent *float64
	Rows          []model.ArbitrageRow
}

// Evaluate computes the spread of the target chain's price relative to the
// source asset's price. The intent's threshold is carried for future
// alerting and does not gate the verdict: any strictly positive spread is
// profitable.
func Evaluate(intent model.ParsedIntent, quote model.PriceQuote) (Evaluation, error) {
	sourcePrice, ok := quote.USD(intent.SourceAsset)
	if !ok {
		return Evaluation{}, clierr.New(clierr.CodeInternal, "quote missing source asset price")
	}
	targetPrice, ok := quote.USD(intent.TargetAsset)
	if !ok {
		return Evaluation{}, clierr.New(clierr.CodeInternal, "quote missing target asset price")
	}
	if sourcePrice <= 0 {
		return Evaluation{}, clierr.New(clierr.CodeInternal, "non-positive source price")
	}

	spread := (targetPrice - sourcePrice) / sourcePrice * 100

	eval := Evaluation{
		IsProfitable: spread > 0,
		Rows: []model.ArbitrageRow{
			{Chain: intent.SourceAsset, PriceUSD: sourcePrice, SpreadPercent: "0%"},
			{Chain: intent.TargetChain, PriceUSD: targetPrice, SpreadPercent: formatSpread(spread)},
		},
	}
	if eval.IsProfitable {
		p := spread
		eval.ProfitPercent = &p
	}
	return eval, nil
}

func formatSpread(spread float64) string {
	if spread > 0 {
		return fmt.Sprintf("+%.2f%%", spread)
	}
	return fmt.Sprintf("%.2f%%", spread)
}
