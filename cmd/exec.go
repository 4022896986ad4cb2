package cmd

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/plugins/migratecmd"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tickethub/config"
	"tickethub/internal/handlers"
	"tickethub/internal/notify"
	"tickethub/internal/payment"
	"tickethub/internal/services"
	"tickethub/internal/store"
	"tickethub/monitoring"
	"tickethub/security"
	"tickethub/utils"

	_ "tickethub/migrations"
)

func Start() error {
	app := pocketbase.New()

	// Load configuration
	cfg := config.LoadConfig()

	if cfg.Environment == "development" {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}

	// Initialize Redis
	redisClient := utils.NewRedisClient(cfg.RedisURL, cfg.RedisPassword, cfg.RedisDB)
	defer redisClient.Close()

	// Payment provider client
	provider := payment.NewClient(&cfg.Payment)

	// Realtime order updates; dropped silently when keys are absent
	var notifier notify.Notifier = notify.NopNotifier{}
	if cfg.PubNubPublishKey != "" && cfg.PubNubSubscribeKey != "" {
		notifier = notify.NewPubNubNotifier(cfg.PubNubPublishKey, cfg.PubNubSubscribeKey, "tickethub-server")
	}

	var monitor *monitoring.Monitor
	if cfg.EnableMetrics {
		monitor = monitoring.NewMonitor()
	}

	// Stores
	records := store.NewRecordStore(app)
	sessions := store.NewRedisSessionStore(redisClient, cfg.SessionTTL)

	// Services
	inventoryService := services.NewInventoryService(records.TicketTypes(), records.Tickets(), monitor)
	checkoutService := services.NewCheckoutService(
		records.TicketTypes(), records.Tickets(), records.Orders(), sessions,
		provider, notifier, monitor,
	)
	webhookService := services.NewWebhookService(
		records.Orders(), records.Tickets(), records.TicketTypes(), sessions,
		notifier, monitor,
	)

	// Handlers
	checkoutHandler := handlers.NewCheckoutHandler(checkoutService)
	webhookHandler := handlers.NewWebhookHandler(provider, webhookService)
	adminHandler := handlers.NewAdminHandler(inventoryService)

	rateLimiter := security.NewRateLimiter(redisClient)

	// Enable migrations
	migratecmd.MustRegister(app, app.RootCmd, migratecmd.Config{
		Automigrate: true,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup graceful shutdown
	go handleShutdown(cancel)

	if cfg.EnableMetrics {
		go serveMetrics(ctx, cfg.MetricsPort)
	}

	app.OnServe().BindFunc(func(e *core.ServeEvent) error {
		// Checkout endpoints
		e.Router.POST("/api/checkout-sessions", checkoutHandler.CreateCheckoutSession).
			BindFunc(rateLimiter.AntiBotMiddleware()).
			BindFunc(rateLimiter.CheckoutRateLimit(cfg.CheckoutRatePerMinute))
		e.Router.GET("/api/checkout-sessions/{sessionId}", checkoutHandler.GetCheckoutSession)
		e.Router.GET("/api/checkout-sessions/{sessionId}/cancel", checkoutHandler.CancelCheckoutSession)

		// Payment provider webhook
		e.Router.POST("/api/webhooks/payment", webhookHandler.HandlePaymentWebhook)

		// Admin endpoints
		e.Router.POST("/api/admin/ticket-types", adminHandler.CreateTicketType)
		e.Router.PATCH("/api/admin/ticket-types/{ticketTypeId}", adminHandler.ResizeTicketType)
		e.Router.DELETE("/api/admin/ticket-types/{ticketTypeId}", adminHandler.DeleteTicketType)
		e.Router.POST("/api/admin/tickets/{ticketId}/check-in", adminHandler.CheckInTicket)

		// Health check
		e.Router.GET("/health", func(e *core.RequestEvent) error {
			if err := utils.RedisHealthCheck(redisClient); err != nil {
				return e.JSON(http.StatusServiceUnavailable, map[string]string{
					"status": "unhealthy",
					"error":  err.Error(),
				})
			}
			return e.JSON(http.StatusOK, map[string]string{"status": "healthy"})
		})

		log.Println("Server routes registered")

		return e.Next()
	})

	// Start server
	if err := app.Start(); err != nil {
		log.Fatal(err)
	}
	return nil
}

// serveMetrics exposes prometheus metrics on a separate port so the public
// API surface stays clean.
func serveMetrics(ctx context.Context, port string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: ":" + port, Handler: mux}

	go func() {
		<-ctx.Done()
		srv.Shutdown(context.Background())
	}()

	slog.Info("metrics server listening", "port", port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("metrics server stopped", "error", err)
	}
}

// handleShutdown handles graceful shutdown
func handleShutdown(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	log.Println("Shutdown signal received, cleaning up...")
	cancel()
}
