// PUBLIC SPOT TICKER CLIENT FOR KRAKEN
// RESTY ONLY + INTERNAL RETRY
package connectors

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
)

// KrakenTickerResponse holds /0/public/Ticker output. Kraken keys the
// result by its own pair naming, so the single entry is read without
// assuming the key.
type KrakenTickerResponse struct {
	Error  []string `json:"error"`
	Result map[string]struct {
		C []string `json:"c"` // last trade closed: [price, lot volume]
	} `json:"result"`
}

type KrakenClient struct {
	http *resty.Client
}

func NewKrakenClient(baseURL string) *KrakenClient {
	return &KrakenClient{http: newRestyClient(baseURL)}
}

// GetCurrentPrice fetches the last trade price for a symbol like BTCUSDT.
func (c *KrakenClient) GetCurrentPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	var out KrakenTickerResponse

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("pair", strings.ToUpper(symbol)).
		SetResult(&out).
		Get("/0/public/Ticker")

	if err != nil {
		return decimal.Zero, priceUnavailable("kraken", symbol, err)
	}
	if resp.IsError() {
		return decimal.Zero, priceUnavailable("kraken", symbol, fmt.Errorf("http status %d", resp.StatusCode()))
	}
	if len(out.Error) > 0 {
		return decimal.Zero, priceUnavailable("kraken", symbol, errors.New(strings.Join(out.Error, "; ")))
	}

	for _, ticker := range out.Result {
		if len(ticker.C) == 0 {
			break
		}
		price, err := decimal.NewFromString(ticker.C[0])
		if err != nil {
			return decimal.Zero, priceUnavailable("kraken", symbol, err)
		}
		return price, nil
	}

	return decimal.Zero, priceUnavailable("kraken", symbol, errors.New("empty ticker result"))
}
