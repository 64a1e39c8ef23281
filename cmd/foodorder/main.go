package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func main() {
	cfg, err := parseEnv()
	if err != nil {
		log.Fatal(err)
	}
	logger, err := initLogger(cfg)
	if err != nil {
		log.Fatal(err)
	}

	f := &frontend{cfg: cfg, logger: logger}
	app := &cli.App{
		Name:     appID,
		Usage:    "order food and follow it to your door",
		Commands: f.commands(),
	}
	if err = app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func getKillSignalChan() chan os.Signal {
	osKillSignalChan := make(chan os.Signal, 1)
	signal.Notify(osKillSignalChan, os.Interrupt, syscall.SIGTERM)
	return osKillSignalChan
}

func waitForKillSignalChan(logger log.FieldLogger, killSignalChan <-chan os.Signal) {
	killSignal := <-killSignalChan
	switch killSignal {
	case os.Interrupt:
		logger.Info("Got SIGINT...")
	case syscall.SIGTERM:
		logger.Info("Got SIGTERM...")
	}
}

// contextUntilKilled is cancelled on SIGINT or SIGTERM.
func contextUntilKilled(parent context.Context, logger log.FieldLogger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	killSignalChan := getKillSignalChan()
	go func() {
		defer signal.Stop(killSignalChan)
		select {
		case <-ctx.Done():
		case <-killSignalChan:
			logger.Info("stopping")
			cancel()
		}
	}()
	return ctx, cancel
}
