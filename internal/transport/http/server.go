package http

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// NewServer builds the echo instance serving h. Request metrics are
// registered on reg and exposed with everything else gathered by gatherer.
func NewServer(h *Handler, reg prometheus.Registerer, gatherer prometheus.Gatherer, logger *zap.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = NewValidator()
	e.HTTPErrorHandler = errorHandler(logger.Named("http"))

	e.Use(middleware.RequestID())
	e.Use(Metrics(reg, "/health", "/metrics"))
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			logger.Error("panic recovered", zap.Error(err), zap.ByteString("stack", stack))
			return err
		},
	}))

	e.GET("/health", h.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	api := e.Group("/api/v1")
	api.POST("/shops", h.ConfigureShop)
	api.POST("/chats/:chat_id/process", h.ProcessChat)
	api.POST("/sync", h.EnqueueSync)
	api.GET("/jobs", h.ListJobs)
	api.GET("/jobs/:job_id", h.GetJob)
	api.GET("/products", h.ListProducts)

	return e
}
