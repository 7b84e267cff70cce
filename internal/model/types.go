package model

import "time"

const EnvelopeVersion = "v1"

// Role identifies the author of a chat message.
type Role string

const (
	RoleUser  Role = "user"
	RoleAgent Role = "agent"
)

// ActionArbAlertAndSwap is the fixed intent tag for "monitor and alert,
// then optionally swap". Parsing never produces any other action today.
const ActionArbAlertAndSwap = "arb_alert_and_swap"

// PrivacyShielded is the only privacy mode in scope. The field is a string
// so future modes do not require a schema change.
const PrivacyShielded = "shielded"

type Envelope struct {
	Version  string       `json:"version"`
	Success  bool         `json:"success"`
	Data     any          `json:"data,omitempty"`
	Error    *ErrorBody   `json:"error"`
	Warnings []string     `json:"warnings,omitempty"`
	Meta     EnvelopeMeta `json:"meta"`
}

type ErrorBody struct {
	Code    int    `json:"code"`
	Type    string `json:"type"`
	Message string `json:"message"`
}

type EnvelopeMeta struct {
	RequestID string    `json:"request_id"`
	Timestamp time.Time `json:"timestamp"`
	Command   string    `json:"command"`
}

// ChatMessage is one entry of the append-only conversation history.
// A message is immutable once appended; user messages never carry
// ParsedIntent or ArbitrageRows.
type ChatMessage struct {
	ID            string         `json:"id"`
	Role          Role           `json:"role"`
	Text          string         `json:"text"`
	CreatedAt     time.Time      `json:"created_at"`
	ParsedIntent  *ParsedIntent  `json:"parsed_intent,omitempty"`
	ArbitrageRows []ArbitrageRow `json:"arbitrage_rows,omitempty"`
}

// ParsedIntent is the structured monitoring intent derived from user text.
type ParsedIntent struct {
	Action           string  `json:"action"`
	SourceAsset      string  `json:"source_asset"`
	TargetAsset      string  `json:"target_asset"`
	TargetChain      string  `json:"target_chain"`
	ThresholdPercent float64 `json:"threshold_percent"`
	PrivacyMode      string  `json:"privacy_mode"`
}

// PriceQuote is a single atomic snapshot of USD prices for the fixed asset
// set. All three prices are fetched in one call so comparisons are
// internally consistent.
type PriceQuote struct {
	ZcashUSD    float64   `json:"zcash_usd"`
	EthereumUSD float64   `json:"ethereum_usd"`
	SolanaUSD   float64   `json:"solana_usd"`
	FetchedAt   time.Time `json:"fetched_at"`
}

// USD returns the quoted price for an asset identifier, or false when the
// asset is outside the fixed set.
func (q PriceQuote) USD(assetID string) (float64, bool) {
	switch assetID {
	case "zcash":
		return q.ZcashUSD, true
	case "ethereum":
		return q.EthereumUSD, true
	case "solana":
		return q.SolanaUSD, true
	default:
		return 0, false
	}
}

// ArbitrageRow is one display row of an evaluation: the chain, its price,
// and the signed spread relative to the source asset.
type ArbitrageRow struct {
	Chain         string  `json:"chain"`
	PriceUSD      float64 `json:"price_usd"`
	SpreadPercent string  `json:"spread_percent"`
}

// TxIntent is a confirmed private transfer request bound to a signer
// account. Immutable once created; appended to the tx log, never mutated.
type TxIntent struct {
	ID          string    `json:"id"`
	Hash        string    `json:"hash"`
	SourceAsset string    `json:"source_asset"`
	Amount      string    `json:"amount"`
	Recipient   string    `json:"recipient"`
	PrivacyMode string    `json:"privacy_mode"`
	AccountID   string    `json:"account_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// PriceScan is one background poll observation for the live-scan display.
type PriceScan struct {
	Timestamp   time.Time `json:"timestamp"`
	ZcashUSD    float64   `json:"zcash_usd"`
	EthereumUSD float64   `json:"ethereum_usd"`
	SolanaUSD   float64   `json:"solana_usd"`
	ArbPercent  float64   `json:"arb_percent"`
}
