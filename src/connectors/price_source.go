package connectors

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"

	"signaltracker/src/model"
)

// PriceSource is the abstract "get current price for symbol" capability the
// core depends on. Any failure wraps model.ErrPriceUnavailable: the caller
// skips the signal for this cycle and retries on the next one.
type PriceSource interface {
	GetCurrentPrice(ctx context.Context, symbol string) (decimal.Decimal, error)
}

// Registry resolves a PriceSource per exchange, with a default for signals
// that do not name one.
type Registry struct {
	sources         map[model.ExchangeType]PriceSource
	defaultExchange model.ExchangeType
}

// NewRegistry builds a registry with every supported exchange wired.
func NewRegistry() *Registry {
	config := GetConfig()

	return &Registry{
		sources: map[model.ExchangeType]PriceSource{
			model.ExchangeBinance:  NewBinanceSource(),
			model.ExchangeBybit:    NewBybitClient(config.BybitBaseURL),
			model.ExchangeKraken:   NewKrakenClient(config.KrakenBaseURL),
			model.ExchangeCoinbase: NewCoinbaseClient(config.CoinbaseBaseURL),
			model.ExchangeOkex:     NewOkexClient(config.OkexBaseURL),
		},
		defaultExchange: model.ExchangeType(config.DefaultExchange),
	}
}

// NewRegistryWith builds a registry over explicit sources, for tests and
// custom wiring.
func NewRegistryWith(sources map[model.ExchangeType]PriceSource, defaultExchange model.ExchangeType) *Registry {
	return &Registry{sources: sources, defaultExchange: defaultExchange}
}

// Resolve returns the source for an exchange. An empty exchange means
// "unspecified" and falls back to the configured default.
func (r *Registry) Resolve(exchange model.ExchangeType) (PriceSource, error) {
	if exchange == "" {
		exchange = r.defaultExchange
	}
	src, ok := r.sources[exchange]
	if !ok {
		return nil, fmt.Errorf("%w: no price source for exchange %q", model.ErrPriceUnavailable, exchange)
	}
	return src, nil
}

// GetCurrentPrice fetches the current price for a symbol on the given
// exchange (or the default when unspecified).
func (r *Registry) GetCurrentPrice(ctx context.Context, symbol string, exchange model.ExchangeType) (decimal.Decimal, error) {
	src, err := r.Resolve(exchange)
	if err != nil {
		return decimal.Zero, err
	}
	return src.GetCurrentPrice(ctx, symbol)
}

// quoteCurrencies are the quote suffixes we can split a flat pair symbol on,
// longest first so USDT wins over USD.
var quoteCurrencies = []string{"USDT", "USDC", "BUSD", "TUSD", "USD", "EUR", "BTC", "ETH"}

// splitSymbol splits a flat pair like BTCUSDT into base and quote.
func splitSymbol(symbol string) (base, quote string, err error) {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	for _, q := range quoteCurrencies {
		if strings.HasSuffix(s, q) && len(s) > len(q) {
			return strings.TrimSuffix(s, q), q, nil
		}
	}
	return "", "", fmt.Errorf("%w: cannot split symbol %q into base/quote", model.ErrPriceUnavailable, symbol)
}

func newRestyClient(baseURL string) *resty.Client {
	return resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(defaultRequestTimeout).
		SetRetryCount(defaultRetryAttempts - 1).
		SetRetryWaitTime(defaultRetryBaseDelay).
		SetRetryMaxWaitTime(defaultRetryMaxBackoff).
		AddRetryCondition(isRetryableResp)
}

func isRetryableResp(r *resty.Response, err error) bool {
	if err != nil {
		return true
	}
	if r == nil {
		return false
	}
	code := r.StatusCode()
	return code == 429 || code >= 500
}

func priceUnavailable(exchange, symbol string, err error) error {
	logger.WithFields(map[string]interface{}{
		"component": "connectors",
		"exchange":  exchange,
		"symbol":    symbol,
	}).WithError(err).Warn("Price fetch failed")

	return fmt.Errorf("%w: %s %s: %v", model.ErrPriceUnavailable, exchange, symbol, err)
}
