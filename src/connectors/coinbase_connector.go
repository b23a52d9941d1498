// PUBLIC SPOT TICKER CLIENT FOR COINBASE EXCHANGE
// RESTY ONLY + INTERNAL RETRY
package connectors

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
)

type CoinbaseTickerResponse struct {
	TradeID int    `json:"trade_id"`
	Price   string `json:"price"`
	Bid     string `json:"bid"`
	Ask     string `json:"ask"`
	Time    string `json:"time"`
}

type CoinbaseClient struct {
	http *resty.Client
}

func NewCoinbaseClient(baseURL string) *CoinbaseClient {
	return &CoinbaseClient{http: newRestyClient(baseURL)}
}

// GetCurrentPrice fetches the last trade price for a symbol like BTCUSDT.
// Coinbase products are dash-separated (BTC-USDT).
func (c *CoinbaseClient) GetCurrentPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	base, quote, err := splitSymbol(symbol)
	if err != nil {
		return decimal.Zero, err
	}

	var out CoinbaseTickerResponse

	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		Get(fmt.Sprintf("/products/%s-%s/ticker", base, quote))

	if err != nil {
		return decimal.Zero, priceUnavailable("coinbase", symbol, err)
	}
	if resp.IsError() {
		return decimal.Zero, priceUnavailable("coinbase", symbol, fmt.Errorf("http status %d", resp.StatusCode()))
	}

	price, err := decimal.NewFromString(out.Price)
	if err != nil {
		return decimal.Zero, priceUnavailable("coinbase", symbol, err)
	}
	return price, nil
}
