package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	logger "github.com/sirupsen/logrus"

	"signaltracker/src/mapper"
	"signaltracker/src/model"
)

type signalStore interface {
	Create(ctx context.Context, sig *model.Signal) error
}

type channelStore interface {
	FindByName(ctx context.Context, name string) (*model.Channel, error)
	Create(ctx context.Context, channel *model.Channel) error
}

// Importer loads signals from a tabular CSV source. Columns are matched by
// header name: channel_name, symbol, take_profit and stop_loss are
// required; name, exchange, target_price, condition and active are
// optional. Invalid rows are reported and skipped without aborting the
// batch.
type Importer struct {
	signals  signalStore
	channels channelStore
}

func NewImporter(signals signalStore, channels channelStore) *Importer {
	return &Importer{signals: signals, channels: channels}
}

// ImportResult reports what happened to each row of a batch.
type ImportResult struct {
	TotalRows       int      `json:"total_rows"`
	Imported        int      `json:"imported"`
	Skipped         int      `json:"skipped"`
	Errors          []string `json:"errors,omitempty"`
	ChannelsCreated []string `json:"channels_created,omitempty"`
}

// ImportCSV reads the whole source and imports every valid active row,
// auto-creating missing channels when requested.
func (im *Importer) ImportCSV(ctx context.Context, source io.Reader, autoCreateChannels bool) (*ImportResult, error) {
	result := &ImportResult{}

	reader := csv.NewReader(source)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return result, fmt.Errorf("%w: cannot read header row: %v", model.ErrValidation, err)
	}

	columns := make(map[string]int, len(header))
	for i, h := range header {
		columns[strings.ToLower(strings.TrimSpace(h))] = i
	}

	known := make(map[string]struct{})

	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// a malformed record is still a row: TotalRows always equals
			// Imported + Skipped
			result.TotalRows++
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", line, err))
			continue
		}

		result.TotalRows++

		cell := func(name string) string {
			idx, ok := columns[name]
			if !ok || idx >= len(record) {
				return ""
			}
			return record[idx]
		}

		if !mapper.RowActive(cell("active")) {
			logger.WithFields(map[string]interface{}{
				"component": "Importer",
				"row":       line,
			}).Debug("Skipping inactive row")
			result.Skipped++
			continue
		}

		sig, err := mapper.MapRowToSignal(mapper.SignalRow{
			Name:        cell("name"),
			ChannelName: cell("channel_name"),
			Symbol:      cell("symbol"),
			Exchange:    cell("exchange"),
			TakeProfit:  cell("take_profit"),
			StopLoss:    cell("stop_loss"),
			TargetPrice: cell("target_price"),
			Condition:   cell("condition"),
		})
		if err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", line, err))
			logger.WithFields(map[string]interface{}{
				"component": "Importer",
				"row":       line,
			}).WithError(err).Warn("Rejected import row")
			continue
		}

		if autoCreateChannels {
			created, err := im.ensureChannel(ctx, sig.ChannelName, known)
			if err != nil {
				result.Skipped++
				result.Errors = append(result.Errors, fmt.Sprintf("row %d: channel: %v", line, err))
				continue
			}
			if created {
				result.ChannelsCreated = append(result.ChannelsCreated, sig.ChannelName)
			}
		}

		if err := im.signals.Create(ctx, sig); err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", line, err))
			continue
		}

		result.Imported++
	}

	logger.WithFields(map[string]interface{}{
		"component": "Importer",
		"total":     result.TotalRows,
		"imported":  result.Imported,
		"skipped":   result.Skipped,
	}).Info("Import complete")

	return result, nil
}

// ensureChannel creates the channel on first sight. Returns whether a new
// channel was created.
func (im *Importer) ensureChannel(ctx context.Context, name string, known map[string]struct{}) (bool, error) {
	if _, ok := known[name]; ok {
		return false, nil
	}

	existing, err := im.channels.FindByName(ctx, name)
	if err != nil {
		return false, err
	}
	if existing != nil {
		known[name] = struct{}{}
		return false, nil
	}

	channel := &model.Channel{
		Name:        name,
		Description: "Auto-imported",
		IsActive:    true,
	}
	if err := im.channels.Create(ctx, channel); err != nil {
		return false, err
	}

	logger.WithFields(map[string]interface{}{
		"component": "Importer",
		"channel":   name,
	}).Info("Created channel during import")

	known[name] = struct{}{}
	return true, nil
}
