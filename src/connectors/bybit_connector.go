// PUBLIC SPOT TICKER CLIENT FOR BYBIT (v5 market endpoints)
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

type BybitTickersResponse struct {
	RetCode int    `json:"retCode"`
	RetMsg  string `json:"retMsg"`
	Result  struct {
		Category string `json:"category"`
		List     []struct {
			Symbol    string `json:"symbol"`
			LastPrice string `json:"lastPrice"`
			Bid1Price string `json:"bid1Price"`
			Ask1Price string `json:"ask1Price"`
		} `json:"list"`
	} `json:"result"`
}

type BybitClient struct {
	http *resty.Client
}

func NewBybitClient(baseURL string) *BybitClient {
	return &BybitClient{http: newRestyClient(baseURL)}
}

// GetCurrentPrice fetches the last spot price for a symbol like BTCUSDT.
func (c *BybitClient) GetCurrentPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	var out BybitTickersResponse

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"category": "spot",
			"symbol":   strings.ToUpper(symbol),
		}).
		SetResult(&out).
		Get("/v5/market/tickers")

	if err != nil {
		return decimal.Zero, priceUnavailable("bybit", symbol, err)
	}
	if resp.IsError() {
		return decimal.Zero, priceUnavailable("bybit", symbol, fmt.Errorf("http status %d", resp.StatusCode()))
	}
	if out.RetCode != 0 {
		return decimal.Zero, priceUnavailable("bybit", symbol, fmt.Errorf("retCode %d: %s", out.RetCode, out.RetMsg))
	}
	if len(out.Result.List) == 0 {
		return decimal.Zero, priceUnavailable("bybit", symbol, errors.New("empty ticker list"))
	}

	price, err := decimal.NewFromString(out.Result.List[0].LastPrice)
	if err != nil {
		return decimal.Zero, priceUnavailable("bybit", symbol, err)
	}
	return price, nil
}
