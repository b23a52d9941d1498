// PUBLIC SPOT TICKER CLIENT FOR OKX
// RESTY ONLY + INTERNAL RETRY
package connectors

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
)

type OkexTickerResponse struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
	Data []struct {
		InstID string `json:"instId"`
		Last   string `json:"last"`
	} `json:"data"`
}

type OkexClient struct {
	http *resty.Client
}

func NewOkexClient(baseURL string) *OkexClient {
	return &OkexClient{http: newRestyClient(baseURL)}
}

// GetCurrentPrice fetches the last trade price for a symbol like BTCUSDT.
// OKX instruments are dash-separated (BTC-USDT).
func (c *OkexClient) GetCurrentPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	base, quote, err := splitSymbol(symbol)
	if err != nil {
		return decimal.Zero, err
	}

	var out OkexTickerResponse

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("instId", base+"-"+quote).
		SetResult(&out).
		Get("/api/v5/market/ticker")

	if err != nil {
		return decimal.Zero, priceUnavailable("okex", symbol, err)
	}
	if resp.IsError() {
		return decimal.Zero, priceUnavailable("okex", symbol, fmt.Errorf("http status %d", resp.StatusCode()))
	}
	if out.Code != "0" {
		return decimal.Zero, priceUnavailable("okex", symbol, fmt.Errorf("code %s: %s", out.Code, out.Msg))
	}
	if len(out.Data) == 0 {
		return decimal.Zero, priceUnavailable("okex", symbol, errors.New("empty ticker data"))
	}

	price, err := decimal.NewFromString(out.Data[0].Last)
	if err != nil {
		return decimal.Zero, priceUnavailable("okex", symbol, err)
	}
	return price, nil
}
