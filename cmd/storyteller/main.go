package main

import (
	"context"

	"github.com/joho/godotenv"
	"github.com/pixil98/go-log"
	"github.com/pixil98/go-service"

	"github.com/dungeonworks/storyteller/cmd/storyteller/command"
)

func main() {
	logger := log.NewLogger()

	// Secrets (model and archive credentials) come from the environment; a
	// local .env file is a convenience, not a requirement.
	if err := godotenv.Load(); err != nil {
		logger.WithError(err).Debug("no .env file loaded")
	}

	app, err := service.NewApp(&command.Config{}, command.BuildWorkers)
	if err != nil {
		logger.WithError(err).Fatal("creating application")
	}

	err = app.Run(context.Background())
	if err != nil {
		logger.WithError(err).Fatal("running application")
	}

	logger.Info("exiting")
}
