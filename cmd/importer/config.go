package importer

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	CSVPath            string `envconfig:"IMPORT_CSV_PATH" default:"signals.csv"`
	AutoCreateChannels bool   `envconfig:"IMPORT_AUTO_CREATE_CHANNELS" default:"true"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
