package main

import (
	"log"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/dharmasatrya/flightoffers/internal/app"
	"github.com/dharmasatrya/flightoffers/internal/cache"
	"github.com/dharmasatrya/flightoffers/internal/config"
	"github.com/dharmasatrya/flightoffers/internal/handler"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	e := echo.New()

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.RequestID())

	orchestrator := app.NewOrchestrator(cfg)
	log.Printf("Flight provider configured (base URL: %s)", cfg.BaseURL)

	var offerCache cache.Cache
	if cfg.CacheEnabled {
		redisCfg := cache.DefaultRedisConfig()
		if cfg.RedisHost != "" {
			redisCfg.Host = cfg.RedisHost
		}
		if cfg.RedisPort != "" {
			redisCfg.Port = cfg.RedisPort
		}
		if cfg.RedisTTL > 0 {
			redisCfg.TTL = cfg.RedisTTL
		}
		redisCfg.Password = cfg.RedisPassword

		redisCache, err := cache.NewRedisCache(redisCfg)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		offerCache = redisCache
		log.Printf("Redis cache enabled (host: %s:%s, TTL: %v)", redisCfg.Host, redisCfg.Port, redisCfg.TTL)
	} else {
		offerCache = cache.NewNoOpCache()
		log.Println("Cache disabled")
	}
	defer offerCache.Close()

	searchHandler := handler.NewSearchHandler(orchestrator, offerCache, handler.Config{
		DefaultCurrency: cfg.DefaultCurrency,
		SearchTimeout:   cfg.SearchTimeout,
		RetryMax:        cfg.RetryMax,
	})

	api := e.Group("/api/v1")
	api.POST("/flights/search", searchHandler.Search)
	api.POST("/flights/price", searchHandler.Price)
	api.GET("/locations", searchHandler.Locations)
	e.GET("/health", handler.HealthHandler)

	log.Printf("Starting flight offers server on port %s", cfg.Port)

	if err := e.Start(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
