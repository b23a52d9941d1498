package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	logger "github.com/sirupsen/logrus"

	"signaltracker/src/database"
	"signaltracker/src/repository"
	"signaltracker/src/server"
	"signaltracker/src/stats"
)

var APP_NAME = os.Getenv("APP_NAME")

func SetupLogger() {
	levelStr := strings.ToLower(os.Getenv("LOG_LEVEL"))

	level, err := logger.ParseLevel(levelStr)
	if err != nil {
		level = logger.DebugLevel // safe fallback
	}

	logger.SetLevel(level)
	logger.SetFormatter(&logger.TextFormatter{
		FullTimestamp: true,
	})
}

func main() {
	_ = godotenv.Load()
	SetupLogger()
	defer handlePanic()

	if err := database.InitMainDB(); err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}

	signals := repository.NewSignalRepository()
	channels := repository.NewChannelRepository()
	config := server.GetConfig()

	deps := server.Deps{
		Signals:    signals,
		Channels:   channels,
		Snapshots:  repository.NewStatsRepository(),
		Calculator: stats.NewCalculator(signals),
		Cache:      stats.NewCache(config.StatsCacheTTL),
	}

	server.StartServer(config.Port, deps)
}

func handlePanic() {
	if r := recover(); r != nil {
		logger.WithError(fmt.Errorf("%+v", r)).Error(fmt.Sprintf("Application %s panic", APP_NAME))
	}
	//nolint
	time.Sleep(time.Second * 5)
}
