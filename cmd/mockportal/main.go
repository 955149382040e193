package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/aldente/internal/logging"
	"github.com/dmitrijs2005/aldente/internal/mockportal"
	"github.com/dmitrijs2005/aldente/internal/mockportal/config"
)

func main() {

	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("%v", err)
	}

	app := mockportal.NewApp(cfg, logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat))

	if err := app.Run(ctx); err != nil {
		log.Printf("%v", err)
	}

}
