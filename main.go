package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"carehome-insights/config"
	"carehome-insights/database"
	"carehome-insights/handlers"
	"carehome-insights/metrics"
	"carehome-insights/middleware"
	"carehome-insights/rabbitmq"
	"carehome-insights/refresher"
	"carehome-insights/services/companies"
	"carehome-insights/services/cqc"
	"carehome-insights/services/postcodes"
	ws "carehome-insights/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using system environment variables")
	}

	// Load configuration
	cfg := config.Load()

	// Set log level
	if cfg.LogLevel == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize database
	db, err := database.NewDatabase(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	if err := db.CreateTables(); err != nil {
		log.Fatalf("Failed to create tables: %v", err)
	}

	// Register Prometheus metrics
	metrics.Register()

	// Connect the score update publisher. The service keeps running without
	// one when RabbitMQ is not configured or unreachable.
	var publisher *rabbitmq.Publisher
	if cfg.AMQPURL != "" {
		publisher, err = rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			log.Printf("Failed to connect to RabbitMQ: %v. Continue without publisher.", err)
			publisher = nil
		} else {
			defer publisher.Close()
		}
	}

	// Start the WebSocket hub
	hub := ws.NewHub()
	go hub.Run()

	// Upstream API clients. The database doubles as their lookup cache.
	cqcClient := cqc.NewClient(cfg.CQCBaseURL, cfg.CQCPartnerCode, db)
	companiesClient := companies.NewClient(cfg.CompaniesBaseURL, cfg.CompaniesAPIKey)
	postcodesClient := postcodes.NewClient(cfg.PostcodesBaseURL, db)

	// Start the refresher service
	refreshSvc := refresher.NewService(cfg, db, cqcClient, publisher, hub)
	refreshSvc.Start()

	// Initialize handlers
	h := handlers.NewHandlers(db, cqcClient, companiesClient, postcodesClient, refreshSvc, hub)

	// Setup HTTP server
	router := setupRouter(h, cfg)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Starting HTTP server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start HTTP server:", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Stop the refresher first so no rescore lands mid-shutdown
	refreshSvc.Stop()

	// Create a deadline for server shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Shutdown the HTTP server
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}

func setupRouter(h *handlers.Handlers, cfg *config.Config) *gin.Engine {
	router := gin.Default()

	// Compress API responses. Pin lists and GeoJSON shrink well.
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	// Add CORS middleware
	router.Use(cors.New(cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type"},
		AllowOrigins:     []string{"*"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Count requests per route and status
	router.Use(func(c *gin.Context) {
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.HTTPRequestsTotal.WithLabelValues(path, strconv.Itoa(c.Writer.Status())).Inc()
	})

	// API routes
	api := router.Group("/api/v3")
	api.Use(middleware.RateLimitMiddleware(cfg.RateLimitPerMinute, time.Minute))
	{
		// Stateless scoring endpoint
		api.POST("/score", h.ScoreStateless)

		// Home registry
		api.POST("/homes", h.RegisterHome)
		api.GET("/homes", h.ListHomes)
		api.GET("/homes/:id", h.GetHome)
		api.GET("/homes/:id/score", h.GetHomeScore)
		api.GET("/homes/:id/scores", h.GetScoreHistory)
		api.POST("/homes/:id/reviews", h.IngestReviews)
		api.POST("/homes/:id/refresh", h.RefreshHome)

		// Funding and pricing
		api.POST("/funding/check", h.CheckFunding)
		api.GET("/pricing/bands", h.GetPricingBands)

		// Lookups
		api.GET("/postcodes/:postcode", h.LookupPostcode)
		api.GET("/companies/:number/filings", h.GetCompanyFilings)

		// Map aggregation
		api.POST("/map", h.GetMap)
		api.GET("/map/geojson", h.GetMapGeoJSON)

		// WebSocket endpoint for score update listening
		api.GET("/scores/listen", h.ListenScores)
	}

	// Root health check
	router.GET("/health", h.HealthCheck)

	// Prometheus metrics
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return router
}
