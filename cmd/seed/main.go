package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/storefront-backend/internal/pricing"
	product "github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/migrate"
)

// seed brings the schema up with AutoMigrate and inserts the sample catalog when
// the products table is empty. Running it twice is a no-op.
func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "seed"})

	_ = godotenv.Load()

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "seed",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx = logg.WithField(ctx, "env", cfg.App.Env)

	dbClient, err := db.New(ctx, cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
	requireResource(ctx, logg, "database", err)
	defer dbClient.Close()

	requireResource(ctx, logg, "schema", migrate.AutoMigrate(dbClient.DB()))

	policy, err := pricing.NewPolicy(cfg.Pricing)
	requireResource(ctx, logg, "pricing policy", err)

	svc, err := product.NewService(product.NewRepository(dbClient.DB()), policy)
	requireResource(ctx, logg, "product service", err)

	inserted, err := svc.Seed(ctx)
	requireResource(ctx, logg, "catalog seed", err)

	logg.Info(logg.WithField(ctx, "inserted", inserted), "seed complete")
	fmt.Printf("seeded %d products\n", inserted)
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
