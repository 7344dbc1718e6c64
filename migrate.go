package main

import (
	"github.com/urfave/cli/v2"
)

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "create the scan store schema",
		Action: func(c *cli.Context) error {
			cfg, logger, err := setup(c)
			if err != nil {
				return err
			}
			store, err := openStore(c.Context, cfg)
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}
			defer store.Close()

			logger.Info("Schema ready (%s store)", cfg.StoreDriver)
			return nil
		},
	}
}
