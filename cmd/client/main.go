package main

import (
	"context"
	"log"

	"github.com/dmitrijs2005/lmsauth/internal/client/cli"
	"github.com/dmitrijs2005/lmsauth/internal/client/config"
	"github.com/dmitrijs2005/lmsauth/internal/logging"
)

func main() {

	ctx := context.Background()

	logger, err := logging.NewCLI()
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer logger.Sync()

	cfg := config.LoadConfig()
	app, err := cli.NewApp(ctx, cfg, logger)

	if err != nil {
		log.Fatalf("%v", err)
	}

	app.Run(ctx)

}
