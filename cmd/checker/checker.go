package checker

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"signaltracker/src/checker"
	"signaltracker/src/connectors"
	"signaltracker/src/database"
	"signaltracker/src/repository"
	"signaltracker/src/stats"
)

type Checker struct{}

// Start wires the polling checker and runs it until interrupted.
func (t *Checker) Start() error {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()

	if err := database.InitMainDB(); err != nil {
		logrus.WithError(err).Fatal("Failed to connect to main database")
		return err
	}

	signals := repository.NewSignalRepository()
	snapshots := repository.NewStatsRepository()

	c := checker.NewChecker(
		signals,
		connectors.NewRegistry(),
		stats.NewCalculator(signals),
		stats.NewCache(0),
		snapshots,
	)

	if err := checker.StartLoop(ctx, c); err != nil {
		logrus.WithError(err).Error("Failed to run checker loop")
		return err
	}

	return nil
}
