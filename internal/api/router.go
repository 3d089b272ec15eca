// Package api wires together all HTTP routes for the QR dashboard backend.
//
// Route grouping philosophy:
//   - System endpoints (/health, /ready, /version) are unauthenticated so that
//     load balancers and orchestrators can probe the service without credentials.
//   - Account endpoints (/api/auth/register, /api/auth/login) are public but sit
//     behind a strict rate limiter to slow credential stuffing.
//   - Everything under /qr requires a valid bearer token. The authenticated user
//     is the owner for every lifecycle operation; handlers never accept an owner
//     id from the request.
package api

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/qr-dashboard/qr-dashboard/internal/api/accounts"
	"github.com/qr-dashboard/qr-dashboard/internal/api/qrcodes"
	"github.com/qr-dashboard/qr-dashboard/internal/config"
	"github.com/qr-dashboard/qr-dashboard/internal/db/repositories"
	"github.com/qr-dashboard/qr-dashboard/internal/middleware"
	"github.com/qr-dashboard/qr-dashboard/internal/notify"
	"github.com/qr-dashboard/qr-dashboard/internal/qr"
	"github.com/qr-dashboard/qr-dashboard/internal/services"
)

// BackgroundServices holds references to background resources that must be
// stopped during graceful shutdown. The caller (cmd/server) is responsible for
// calling Shutdown() when the process receives a termination signal.
type BackgroundServices struct {
	rateLimiters []*middleware.RateLimiter
}

// Shutdown stops all background goroutines. It should be called after the HTTP
// server has been shut down so that in-flight requests are drained first.
func (bg *BackgroundServices) Shutdown() {
	slog.Info("stopping background services")
	for _, rl := range bg.rateLimiters {
		rl.Stop()
	}
	slog.Info("all background services stopped")
}

// NewRouter creates and configures the Gin router
func NewRouter(cfg *config.Config, db *sql.DB) (*gin.Engine, *BackgroundServices) {
	router := gin.New()

	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)
	qrRepo := repositories.NewQRCodeRepository(sqlx.NewDb(db, "postgres"))

	// Initialize the QR lifecycle service and its collaborators
	encoder := qr.NewPNGEncoder()
	mailer := notify.NewSMTPMailer(&cfg.Notifications)
	qrService := services.NewQRCodeService(qrRepo, encoder, mailer)

	// Initialize handlers
	accountHandlers := accounts.NewHandlers(userRepo, cfg.Auth.TokenTTL)
	qrHandlers := qrcodes.NewHandler(qrService)

	// Initialize rate limiters
	authRateLimiter := middleware.NewRateLimiter(middleware.AuthRateLimitConfig())
	generalRateLimiter := middleware.NewRateLimiter(middleware.DefaultRateLimitConfig())
	shareRateLimiter := middleware.NewRateLimiter(middleware.ShareRateLimitConfig())

	// Add middleware
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.MetricsMiddleware())
	router.Use(LoggerMiddleware())
	router.Use(CORSMiddleware(cfg))
	router.Use(middleware.SecurityHeadersMiddleware(middleware.APISecurityHeadersConfig()))

	// Health check endpoint
	router.GET("/health", healthCheckHandler(db))

	// Readiness check endpoint
	router.GET("/ready", readinessHandler(db))

	// API version
	router.GET("/version", versionHandler())

	// Public authentication endpoints (no auth required, but rate limited)
	authGroup := router.Group("/api/auth")
	authGroup.Use(middleware.RateLimitMiddleware(authRateLimiter))
	{
		authGroup.POST("/register", accountHandlers.Register)
		authGroup.POST("/login", accountHandlers.Login)
		authGroup.GET("/me",
			middleware.AuthMiddleware(userRepo),
			accountHandlers.Me)
	}

	// QR code lifecycle endpoints (require auth)
	qrGroup := router.Group("/qr")
	qrGroup.Use(middleware.AuthMiddleware(userRepo))
	qrGroup.Use(middleware.RateLimitMiddleware(generalRateLimiter))
	{
		qrGroup.POST("/generate", qrHandlers.Generate)
		qrGroup.GET("/history", qrHandlers.History)
		qrGroup.POST("/share/:id",
			middleware.RateLimitMiddleware(shareRateLimiter), // Stricter rate limit for outbound email
			qrHandlers.Share)
		qrGroup.POST("/scan/:id", qrHandlers.Scan)
	}

	bg := &BackgroundServices{
		rateLimiters: []*middleware.RateLimiter{authRateLimiter, generalRateLimiter, shareRateLimiter},
	}

	return router, bg
}

// @Summary      Health check
// @Description  Returns the health status of the service, including database connectivity.
// @Tags         System
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "status: healthy, time: RFC3339 timestamp"
// @Failure      503  {object}  map[string]interface{}  "status: unhealthy, error: database connection failed"
// @Router       /health [get]
// healthCheckHandler returns the health status of the service
func healthCheckHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Check database connection
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unhealthy",
				"error":  "database connection failed",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status": "healthy",
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// @Summary      Readiness check
// @Description  Returns whether the service is ready to accept traffic. Checks database connectivity.
// @Tags         System
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "ready: true, time: RFC3339 timestamp"
// @Failure      503  {object}  map[string]interface{}  "ready: false, error: database not ready"
// @Router       /ready [get]
// readinessHandler returns the readiness status of the service. All durable
// state lives in PostgreSQL, so the database probe is the only readiness gate.
func readinessHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		checks := gin.H{}

		// Check database connection
		if err := db.Ping(); err != nil {
			checks["database"] = "unhealthy"
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"ready":  false,
				"checks": checks,
				"error":  "database not ready",
			})
			return
		}
		checks["database"] = "healthy"

		c.JSON(http.StatusOK, gin.H{
			"ready":  true,
			"checks": checks,
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// @Summary      API version
// @Description  Returns the current API version.
// @Tags         System
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "version, api_version"
// @Router       /version [get]
// versionHandler returns the API version
func versionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":     "0.1.0",
			"api_version": "v1",
		})
	}
}

// LoggerMiddleware emits one structured slog record per request. The output
// form (json or text) is decided by the global slog handler configured in
// telemetry.SetupLogger.
func LoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		logRequest(c, time.Since(start), path, query)
	}
}

// logRequest logs a completed request as a structured slog record.
func logRequest(c *gin.Context, latency time.Duration, path, query string) {
	requestID, _ := c.Get(middleware.RequestIDKey)
	slog.LogAttrs(
		c.Request.Context(),
		slog.LevelInfo,
		"http request",
		slog.String("method", c.Request.Method),
		slog.String("path", path),
		slog.String("query", query),
		slog.Int("status", c.Writer.Status()),
		slog.Int("size", c.Writer.Size()),
		slog.Duration("latency", latency),
		slog.String("ip", c.ClientIP()),
		slog.String("request_id", fmt.Sprintf("%v", requestID)),
		slog.String("user_agent", c.Request.UserAgent()),
	)
}

// CORSMiddleware handles CORS
func CORSMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		// Check if origin is allowed
		allowed := false
		for _, allowedOrigin := range cfg.Security.CORS.AllowedOrigins {
			if allowedOrigin == "*" || allowedOrigin == origin {
				allowed = true
				break
			}
		}

		if allowed {
			if origin == "" {
				c.Header("Access-Control-Allow-Origin", "*")
			} else {
				c.Header("Access-Control-Allow-Origin", origin)
			}
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, X-Requested-With")
			c.Header("Access-Control-Max-Age", "3600")
		}

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
