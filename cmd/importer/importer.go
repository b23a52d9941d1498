package importer

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"signaltracker/src/database"
	"signaltracker/src/importer"
	"signaltracker/src/repository"
)

type Importer struct{}

// Start imports signals from the configured CSV file.
func (t *Importer) Start() error {
	config := GetConfig()

	if err := database.InitMainDB(); err != nil {
		logrus.WithError(err).Fatal("Failed to connect to main database")
		return err
	}

	file, err := os.Open(config.CSVPath)
	if err != nil {
		logrus.WithError(err).WithField("path", config.CSVPath).Error("Failed to open import file")
		return err
	}
	defer file.Close()

	im := importer.NewImporter(
		repository.NewSignalRepository(),
		repository.NewChannelRepository(),
	)

	result, err := im.ImportCSV(context.Background(), file, config.AutoCreateChannels)
	if err != nil {
		logrus.WithError(err).Error("Import failed")
		return err
	}

	logrus.WithFields(map[string]interface{}{
		"total":            result.TotalRows,
		"imported":         result.Imported,
		"skipped":          result.Skipped,
		"channels_created": len(result.ChannelsCreated),
	}).Info("Import finished")

	for _, e := range result.Errors {
		fmt.Fprintln(os.Stderr, e)
	}

	return nil
}
