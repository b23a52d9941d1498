package connectors

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	// Default retry configuration
	defaultRetryAttempts   = 5
	defaultRetryBaseDelay  = 500 * time.Millisecond
	defaultRetryMaxBackoff = 8 * time.Second
	defaultRequestTimeout  = 15 * time.Second
)

type Config struct {
	DefaultExchange string `envconfig:"DEFAULT_EXCHANGE" default:"binance"`
	BybitBaseURL    string `envconfig:"BYBIT_BASE_URL" default:"https://api.bybit.com"`
	KrakenBaseURL   string `envconfig:"KRAKEN_BASE_URL" default:"https://api.kraken.com"`
	CoinbaseBaseURL string `envconfig:"COINBASE_BASE_URL" default:"https://api.exchange.coinbase.com"`
	OkexBaseURL     string `envconfig:"OKEX_BASE_URL" default:"https://www.okx.com"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
