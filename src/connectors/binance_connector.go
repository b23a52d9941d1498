package connectors

import (
	"context"
	"net/http"

	"github.com/nntaoli-project/goex"
	"github.com/nntaoli-project/goex/binance"
	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"
)

// BinanceSource fetches spot tickers from Binance through goex.
type BinanceSource struct {
	exchange goex.API
}

func NewBinanceSource() *BinanceSource {
	apiConfig := &goex.APIConfig{
		HttpClient: http.DefaultClient,
		Endpoint:   binance.GLOBAL_API_BASE_URL,
	}
	return &BinanceSource{exchange: binance.NewWithConfig(apiConfig)}
}

// GetCurrentPrice returns the last traded price for a flat pair symbol
// like BTCUSDT.
func (b *BinanceSource) GetCurrentPrice(_ context.Context, symbol string) (decimal.Decimal, error) {
	base, quote, err := splitSymbol(symbol)
	if err != nil {
		return decimal.Zero, err
	}

	pair := goex.NewCurrencyPair2(base + "_" + quote)

	ticker, err := b.exchange.GetTicker(pair)
	if err != nil {
		return decimal.Zero, priceUnavailable("binance", symbol, err)
	}

	price := decimal.NewFromFloat(ticker.Last)

	logger.WithFields(map[string]interface{}{
		"component": "BinanceSource",
		"symbol":    symbol,
		"price":     price.String(),
	}).Debug("Fetched binance ticker")

	return price, nil
}
