package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"meal-planner/internal/checkout"
	"meal-planner/internal/metrics"
)

// Deps are the collaborators the HTTP surface needs.
type Deps struct {
	Groceries Groceries
	Checkout  SessionBuilder
	Limiter   *checkout.RateLimiter
	Metrics   *metrics.Checkout
	Gatherer  prometheus.Gatherer
	DataDir   string
	Started   time.Time
	Logger    *slog.Logger
}

// NewRouter builds the gin engine with middleware and routes.
func NewRouter(d Deps) *gin.Engine {
	useJSONFieldNames()
	if d.Logger == nil {
		d.Logger = slog.Default()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("meal-planner"))
	router.Use(RequestLogger(d.Logger.With("component", "http")))

	SetupRoutes(router, d)
	return router
}

// SetupRoutes registers every endpoint on router.
func SetupRoutes(router *gin.Engine, d Deps) {
	router.GET("/health", HandleHealth(d.DataDir, d.Started))
	if d.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	api := router.Group("/api")
	{
		groceries := api.Group("/groceries")
		{
			groceries.GET("", HandleGroceryList(d.Groceries))
			groceries.GET("/export", HandleGroceryExport(d.Groceries))
			groceries.GET("/print", HandleGroceryPrint(d.Groceries))
		}

		checkoutRoutes := api.Group("/checkout")
		if d.Limiter != nil {
			checkoutRoutes.Use(RateLimit(d.Limiter, "checkout-session", d.Metrics))
		}
		checkoutRoutes.POST("/session", HandleCreateCheckoutSession(d.Checkout))
	}
}

// Run serves handler on addr until ctx is cancelled, then shuts down gracefully.
func Run(ctx context.Context, addr string, handler http.Handler, logger *slog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down http server: %w", err)
	}
	return nil
}
