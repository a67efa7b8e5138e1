package router // package router defines how HTTP routes are registered for the admin API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/johngachihi/parkgate/internal/handler"    // handlers implementing the admin endpoints
	"github.com/johngachihi/parkgate/internal/middleware" // JWT middleware for protected routes
)

// RegisterRoutes registers routes that do not require authentication on
// the provided Echo instance: the health check and the operator token
// exchange.
func RegisterRoutes(e *echo.Echo, a *handler.AuthHandler) {
	e.GET("/healthz", handler.Health)
	e.POST("/v1/auth/token", a.Token)
}

// RegisterTariffs registers the tariff settings endpoints. Reading the
// tariffs is public (gate displays use it); overwriting them requires
// an operator token.
func RegisterTariffs(e *echo.Echo, t *handler.TariffHandler, jwtSecret string) {
	e.GET("/v1/settings/tariffs", t.Get)

	admin := e.Group("/v1/settings")
	admin.Use(middleware.JWTAuth(jwtSecret))
	admin.PUT("/tariffs", t.Overwrite)
}
