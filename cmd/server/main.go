package main

import (
	"context"
	"database/sql"
	"log"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	auth "github.com/devconnector/go-auth"
)

func main() {
	cfg, err := auth.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		dsn = "file::memory:?cache=shared"
	}

	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	db := bun.NewDB(sqldb, sqlitedialect.New())
	defer db.Close()

	ctx := context.Background()
	if _, err := db.NewCreateTable().Model((*auth.User)(nil)).IfNotExists().Exec(ctx); err != nil {
		log.Fatalf("create users table: %v", err)
	}

	users := auth.NewUsersRepository(db, auth.WithBcryptCost(cfg.GetBcryptCost()))
	provider := auth.NewUserProvider(users)
	tokens := auth.NewTokenService([]byte(cfg.GetSigningKey()), cfg.GetTokenTTL(), nil)
	auther := auth.NewAuthenticator(provider, tokens)

	app := fiber.New(fiber.Config{
		ErrorHandler: auth.NewErrorResponder(nil),
	})

	api := app.Group("/api/auth")
	auth.RegisterAuthRoutes(api,
		auth.WithControllerUsers(users),
		auth.WithControllerAuther(auther),
		auth.WithControllerConfig(cfg),
	)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	if err := app.Listen(":" + port); err != nil {
		log.Fatalf("listen: %v", err)
	}
}
