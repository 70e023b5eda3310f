package main

import (
	"context"
	"fmt"
	"os"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/openshelf/catalog/cmd/catalog/container"
	catalogmw "github.com/openshelf/catalog/cmd/catalog/middleware"
	"github.com/openshelf/catalog/cmd/catalog/routes"
	"github.com/openshelf/catalog/common/bootstrap"
	"github.com/openshelf/catalog/common/config"
	"github.com/redis/go-redis/v9"
)

func main() {
	ctx := context.Background()

	// The redis client is shared by the queue (when QUEUE_TYPE=redis) and
	// the edit rate limiter, so it is created before bootstrap.
	cfg, err := config.Load("catalog")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	redisRaw := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	// Bootstrap common components (DB, logger, queue, cache, telemetry)
	components, err := bootstrap.Setup(ctx, "catalog",
		bootstrap.WithConfig(cfg),
		bootstrap.WithRedisClient(redisRaw),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap catalog: %v\n", err)
		os.Exit(1)
	}
	defer components.Shutdown(ctx)

	// Initialize service container (singleton pattern - all services created once)
	serviceContainer, err := container.NewContainer(components, redisRaw)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize service container: %v\n", err)
		os.Exit(1)
	}

	e := setupEcho()
	setupMiddleware(e)
	setupHealthCheck(e, serviceContainer)
	registerRoutes(e, serviceContainer)

	startServer(e, components)
}

// setupEcho initializes the Echo server with basic configuration
func setupEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	return e
}

// setupMiddleware configures all middleware for the Echo server
func setupMiddleware(e *echo.Echo) {
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.RequestID())
	e.Use(catalogmw.ExtractEditor())
}

// setupHealthCheck registers the health check endpoint
func setupHealthCheck(e *echo.Echo, c *container.Container) {
	e.GET("/health", func(ctx echo.Context) error {
		if err := c.Components.Health(ctx.Request().Context()); err != nil {
			return ctx.JSON(503, map[string]string{
				"status":  "degraded",
				"service": "catalog",
				"error":   err.Error(),
			})
		}
		return ctx.JSON(200, map[string]string{
			"status":  "ok",
			"service": "catalog",
		})
	})
}

// registerRoutes registers all application routes using the service container
func registerRoutes(e *echo.Echo, serviceContainer *container.Container) {
	routes.RegisterEditionRoutes(e, serviceContainer)
	routes.RegisterWorkRoutes(e, serviceContainer)
	routes.RegisterRevisionRoutes(e, serviceContainer)
	routes.RegisterSubscriptionRoutes(e, serviceContainer)
	routes.RegisterNotificationRoutes(e, serviceContainer)
	routes.RegisterLookupRoutes(e, serviceContainer)
}

// startServer starts the Echo server on the configured port
func startServer(e *echo.Echo, components *bootstrap.Components) {
	port := components.Config.Service.Port
	components.Logger.Info("starting catalog service", "port", port)

	if err := e.Start(fmt.Sprintf(":%d", port)); err != nil {
		components.Logger.Error("server error", "error", err)
		os.Exit(1)
	}
}
