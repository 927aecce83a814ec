package main

import (
	"context"

	"github.com/go-faster/sdk/app"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	appkg "github.com/northwind-labs/storefront/internal/app"
)

func main() {
	// A missing .env is fine; production sets real environment variables.
	_ = godotenv.Load()

	app.Run(func(ctx context.Context, lg *zap.Logger, m *app.Telemetry) error {
		cfg, err := appkg.LoadConfig()
		if err != nil {
			return err
		}
		return appkg.Run(ctx, lg, m, cfg)
	})
}
