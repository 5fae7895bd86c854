package main

import (
	"context"
	"errors"
	"os"

	"github.com/testivid/testivid/internal/api"
	"github.com/testivid/testivid/internal/capture"
	"github.com/testivid/testivid/internal/repositories"
	"github.com/testivid/testivid/internal/session"
	"github.com/testivid/testivid/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	config := shared.DefaultConfig()
	if _, err := os.Stat("config.toml"); err == nil {
		if loadedConfig, err := shared.LoadConfig("config.toml"); err == nil {
			config = loadedConfig
		}
	}

	apiClient := api.NewClient(config.API.BaseURL, nil)
	factory := capture.NewFFmpegFactory(config.Capture.Binary, config.Capture.VideoDevice, config.Capture.AudioDevice)

	var store session.Store
	db, err := shared.NewDatabase(config.Database.Path)
	if err == nil {
		shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)
		if err := shared.RunMigrations(db); err == nil {
			store = repositories.NewKeystoreRepository(db)
		} else {
			logger.Warn("migrations failed, running without local storage", "error", err)
			db.Close()
			db = nil
		}
	} else {
		logger.Debug("local database unavailable", "error", err)
		db = nil
	}
	if db != nil {
		defer db.Close()
	}

	runner := NewRunner(RunnerOpts{
		Config:  config,
		API:     apiClient,
		Store:   store,
		Factory: factory,
		DB:      db,
		Logger:  logger,
	})

	app := &cli.Command{
		Name:     "testivid",
		Usage:    "Collect and manage video testimonials from the terminal",
		Version:  "0.3.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		err_ := errors.Unwrap(err)
		if errors.Is(err_, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		} else {
			logger.Fatalf("application error: %v", err)
		}
	}
}

func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Initialize the local database and run migrations",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
		},
		Action: r.SetupDatabase,
	}
}
