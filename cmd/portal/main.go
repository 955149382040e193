package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/aldente/internal/client/cli"
	"github.com/dmitrijs2005/aldente/internal/client/config"
	"github.com/dmitrijs2005/aldente/internal/logging"
)

func main() {

	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("%v", err)
	}

	logger := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)

	app, err := cli.NewApp(ctx, cfg, logger, os.Stdin, os.Stdout)
	if err != nil {
		log.Fatalf("%v", err)
	}

	app.Run(ctx)

}
