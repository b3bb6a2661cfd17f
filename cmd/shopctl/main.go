package main

import (
	"context"
	"fmt"

	"github.com/joho/godotenv"

	"github.com/choriweb/shop-api/internal/cli"
	"github.com/choriweb/shop-api/internal/core/ports"
	"github.com/choriweb/shop-api/internal/core/service"
	"github.com/choriweb/shop-api/internal/infrastructure/config"
	mongodb "github.com/choriweb/shop-api/internal/infrastructure/db/mongo"
	"github.com/choriweb/shop-api/pkg/logger"
)

func main() {
	_ = godotenv.Load()
	cli.Execute(openAccounts)
}

// openAccounts wires the auth service against MongoDB. Human verification is
// not used by the operations shopctl exposes.
func openAccounts(ctx context.Context) (ports.AuthService, func(), error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, nil, err
	}
	log := logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: true, Service: "shopctl"})

	client, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		if err := client.Disconnect(context.Background()); err != nil {
			log.Warn().Err(err).Msg("mongo disconnect")
		}
	}

	if err := mongodb.EnsureIndexes(ctx, db); err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("ensure indexes: %w", err)
	}

	tokens, err := service.NewTokenCodec(cfg.Auth.TokenSecret, cfg.Auth.TokenTTL)
	if err != nil {
		closeFn()
		return nil, nil, err
	}

	return service.NewAuthService(mongodb.NewUserRepository(db), tokens, nil, 0, log), closeFn, nil
}
