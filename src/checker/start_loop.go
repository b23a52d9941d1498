package checker

import (
	"context"
	"time"

	logger "github.com/sirupsen/logrus"
)

// StartLoop runs evaluation cycles on a fixed ticker until the context is
// cancelled. One immediate cycle runs before the first tick so a freshly
// started checker does not sit idle for a full period.
func StartLoop(ctx context.Context, c *Checker) error {
	config := GetConfig()

	ticker := time.NewTicker(config.LoopPeriod)
	defer ticker.Stop()

	logger.WithField("loop_period", config.LoopPeriod.String()).Info("Starting checker loop")

	if _, err := c.RunCycle(ctx); err != nil {
		logger.WithError(err).Error("Initial check cycle failed")
		return err
	}

	for {
		select {
		case <-ctx.Done():
			logger.Info("checker loop stopped")
			return nil

		case <-ticker.C:
			logger.Info("loop tick")

			if _, err := c.RunCycle(ctx); err != nil {
				logger.WithError(err).Error("Check cycle failed, will exit here")
				return err
			}
		}
	}
}
