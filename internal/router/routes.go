package router

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/octobees/hero-savings/api/internal/config"
	"github.com/octobees/hero-savings/api/internal/handler"
	middlewarepkg "github.com/octobees/hero-savings/api/internal/middleware"
)

// Handlers aggregates HTTP handlers used by the router.
type Handlers struct {
	Leads *handler.LeadHandler
}

// Register wires all HTTP routes for the API.
func Register(e *echo.Echo, cfg *config.Config, handlers Handlers) {
	e.GET("/healthz", func(c echo.Context) error {
		return handler.Success(c, http.StatusOK, "service healthy", map[string]any{
			"status":   "ok",
			"crm_sync": cfg.CRM.Enabled(),
		})
	})

	e.POST("/leads", handlers.Leads.Submit, middlewarepkg.PathRateLimiter("/leads", cfg.RateLimitLeads))
}
