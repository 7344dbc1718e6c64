package main

import (
	"fmt"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/urfave/cli/v2"

	"github.com/ariclear/backend/config"
	"github.com/ariclear/backend/logging"
)

func main() {
	app := &cli.App{
		Name:  "ariclear",
		Usage: "Check how clearly a landing page reads to people and to AI search",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "path to a YAML config file",
				EnvVars: []string{"ARICLEAR_CONFIG"},
			},
		},
		Commands: []*cli.Command{
			serveCommand(),
			analyzeCommand(),
			migrateCommand(),
		},
		DefaultCommand: "serve",
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup loads the environment and configuration shared by every command.
func setup(c *cli.Context) (*config.Config, *logging.GologLogger, error) {
	envFile := config.LoadEnv()

	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, nil, cli.Exit(fmt.Sprintf("failed to load config: %v", err), 2)
	}
	logger := logging.New(cfg.LogLevel, os.Stderr)
	if envFile == "" {
		logger.Debug("No .env file found, using environment variables")
	} else {
		logger.Debug("Loaded environment from %s", envFile)
	}

	gin.SetMode(cfg.GinMode)
	return cfg, logger, nil
}

const shutdownTimeout = 15 * time.Second
