package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/kunwarabhi7/car-rental/internal/auth"
	"github.com/kunwarabhi7/car-rental/internal/config"
	handlers "github.com/kunwarabhi7/car-rental/internal/http"
	"github.com/kunwarabhi7/car-rental/internal/router"
	"github.com/kunwarabhi7/car-rental/internal/users"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("create pgx pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		slog.Error("ping database", "error", err)
		os.Exit(1)
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler,
	})

	app.Use(router.CorsMiddleware(cfg.CORSOrigin))
	app.Use(requestLogger())

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"message": "Car Rental is running fine"})
	})
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"ok": true})
	})

	userRepo := users.NewPostgresRepository(pool)
	secret := []byte(cfg.JWTSecret)

	authHandler := &handlers.AuthHandler{
		Users:      userRepo,
		Google:     auth.NewGoogleFederation(userRepo, cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.CallbackURL),
		Audit:      pool,
		Secret:     secret,
		ClientURL:  cfg.ClientURL,
		Production: cfg.Production(),
	}

	r := &router.Router{
		AuthHandler: authHandler,
		AuthMW:      auth.Middleware(secret, userRepo),
		AuthLimiter: router.AuthLimiter(cfg.RateLimitAuthMax, time.Duration(cfg.RateLimitAuthWindowSeconds)*time.Second),
	}
	r.RegisterRoutes(app)

	slog.Info("listening", "port", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func requestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		slog.Info("request",
			"method", c.Method(),
			"path", c.Path(),
			"status", c.Response().StatusCode(),
			"duration", time.Since(start),
		)
		return err
	}
}
