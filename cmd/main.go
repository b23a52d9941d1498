package main

import (
	"fmt"
	"os"

	"signaltracker/cmd/checker"
	"signaltracker/cmd/importer"
	"signaltracker/cmd/seed"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"
)

var Version string

func main() {
	app := cli.NewApp()
	app.Name = "SignalTracker CMD"
	app.Usage = "The SignalTracker command line interface"

	app.Commands = []cli.Command{
		checkerCMD,
		importCMD,
		seedCMD,
	}

	if err := app.Run(os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var (
	checkerCMD = cli.Command{
		Name:        "checker",
		Usage:       "run the signal checker loop",
		Action:      checkerAction,
		ArgsUsage:   "",
		Flags:       []cli.Flag{},
		Description: `Poll exchange prices and resolve active signals`,
	}
	importCMD = cli.Command{
		Name:        "import",
		Usage:       "import signals from CSV",
		Action:      importAction,
		ArgsUsage:   "",
		Flags:       []cli.Flag{},
		Description: `Bulk import signals from a CSV export`,
	}
	seedCMD = cli.Command{
		Name:        "seed",
		Usage:       "insert demo data",
		Action:      seedAction,
		ArgsUsage:   "",
		Flags:       []cli.Flag{},
		Description: `Insert demo channels and signals`,
	}
)

func checkerAction(_ *cli.Context) error {

	logrus.Info("Starting checker CMD")
	logrus.WithField("cmd", "checker")

	c := &checker.Checker{}
	err := c.Start()
	if err != nil {
		logrus.WithError(err).Error("Starting cmd")
		return err
	}

	return nil
}

func importAction(_ *cli.Context) error {

	logrus.Info("Starting import CMD")
	logrus.WithField("cmd", "import")

	im := &importer.Importer{}
	err := im.Start()
	if err != nil {
		logrus.WithError(err).Error("Starting cmd")
		return err
	}

	return nil
}

func seedAction(_ *cli.Context) error {

	logrus.Info("Starting seed CMD")
	logrus.WithField("cmd", "seed")

	s := &seed.Seeder{}
	err := s.Start()
	if err != nil {
		logrus.WithError(err).Error("Starting cmd")
		return err
	}

	return nil
}
