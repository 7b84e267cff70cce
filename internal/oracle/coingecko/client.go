package coingecko

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	clierr "github.com/ggonzalez94/arbchat/internal/errors"
	"github.com/ggonzalez94/arbchat/internal/httpx"
	"github.com/ggonzalez94/arbchat/internal/model"
)

const defaultAPIBase = "https://api.coingecko.com/api/v3"

// assetIDs is the fixed set requested on every fetch. All three prices come
// from one call so the quote is a single consistent snapshot.
const assetIDs = "zcash,ethereum,solana"

const apiKeyHeader = "x-cg-demo-api-key"

type Client struct {
	http    *httpx.Client
	apiBase string
	apiKey  string
	now     func() time.Time
}

func New(httpClient *httpx.Client, apiBase, apiKey string) *Client {
	if strings.TrimSpace(apiBase) == "" {
		apiBase = defaultAPIBase
	}
	return &Client{
		http:    httpClient,
		apiBase: strings.TrimRight(apiBase, "/"),
		apiKey:  apiKey,
		now:     time.Now,
	}
}

type priceEntry struct {
	USD *float64 `json:"usd"`
}

// FetchQuote retrieves the current USD prices for the fixed asset set.
// Any response that does not carry a positive usd price for every asset is
// a hard failure; the caller decides retry policy.
func (c *Client) FetchQuote(ctx context.Context) (model.PriceQuote, error) {
	url := fmt.Sprintf("%s/simple/price?ids=%s&vs_currencies=usd", c.apiBase, assetIDs)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return model.PriceQuote{}, clierr.Wrap(clierr.CodeInternal, "build price request", err)
	}
	if c.apiKey != "" {
		req.Header.Set(apiKeyHeader, c.apiKey)
	}

	var resp map[string]priceEntry
	if _, err := c.http.DoJSON(ctx, req, &resp); err != nil {
		return model.PriceQuote{}, err
	}

	quote := model.PriceQuote{FetchedAt: c.now().UTC()}
	for _, want := range []struct {
		id  string
		dst *float64
	}{
		{"zcash", &quote.ZcashUSD},
		{"ethereum", &quote.EthereumUSD},
		{"solana", &quote.SolanaUSD},
	} {
		entry, ok := resp[want.id]
		if !ok || entry.USD == nil {
			return model.PriceQuote{}, clierr.New(clierr.CodeOracleUnavailable, fmt.Sprintf("price feed missing usd price for %s", want.id))
		}
		if *entry.USD <= 0 {
			return model.PriceQuote{}, clierr.New(clierr.CodeOracleUnavailable, fmt.Sprintf("price feed returned non-positive price for %s", want.id))
		}
		*want.dst = *entry.USD
	}
	return quote, nil
}
