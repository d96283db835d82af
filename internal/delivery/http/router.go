package http

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	custommiddleware "tradearena/internal/middleware"
)

// RouterConfig holds all dependencies for routing
type RouterConfig struct {
	AuthHandler          *AuthHandler
	ChallengeHandler     *ChallengeHandler
	ParticipationHandler *ParticipationHandler
	TradeHandler         *TradeHandler
	MarketHandler        *MarketHandler
}

// SetupRoutes configures all HTTP routes
func SetupRoutes(e *echo.Echo, config *RouterConfig) {
	// Middleware
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Skipper: func(c echo.Context) bool {
			// Skip logging for high-frequency polling endpoints to reduce noise
			path := c.Request().URL.Path
			return path == "/health" || path == "/api/market/quotes" || path == "/ws/quotes"
		},
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.RequestID())
	e.Use(middleware.Secure())

	// Health check
	e.GET("/health", func(c echo.Context) error {
		return SuccessResponse(c, map[string]interface{}{
			"status":  "healthy",
			"service": "tradearena-api",
		})
	})

	// Websocket quote stream (public)
	e.GET("/ws/quotes", config.MarketHandler.Stream)

	// API group
	api := e.Group("/api")

	// Auth routes (public)
	auth := api.Group("/auth")
	{
		auth.POST("/login", config.AuthHandler.Login)
		auth.POST("/logout", config.AuthHandler.Logout)
		auth.POST("/register", config.AuthHandler.Register)
	}

	// Public market and challenge reads
	api.GET("/market/quotes", config.MarketHandler.Quotes)
	api.GET("/challenges", config.ChallengeHandler.List)
	api.GET("/challenges/:id", config.ChallengeHandler.Get)
	api.GET("/challenges/:id/leaderboard", config.ChallengeHandler.Leaderboard)

	// User routes (protected with AuthMiddleware)
	user := api.Group("/user", custommiddleware.AuthMiddleware)
	{
		user.GET("/me", config.AuthHandler.GetMe)
		user.PATCH("/me", config.AuthHandler.UpdateMe)
	}

	// Challenge entry (protected)
	authed := api.Group("", custommiddleware.AuthMiddleware)
	{
		authed.POST("/create-payment-intent", config.ChallengeHandler.CreatePaymentIntent)
		authed.POST("/challenges/:id/join", config.ChallengeHandler.Join)

		authed.GET("/participations", config.ParticipationHandler.List)
		authed.GET("/participations/active", config.ParticipationHandler.ListActive)
		authed.GET("/participations/:id/trades", config.TradeHandler.List)
		authed.POST("/participations/:id/trades", config.TradeHandler.Open)
		authed.PATCH("/trades/:id/close", config.TradeHandler.Close)

		authed.GET("/activities", config.ParticipationHandler.Activities)
	}
}
