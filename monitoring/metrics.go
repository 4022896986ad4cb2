package monitoring

import (
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	checkoutOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkout_operations_total",
			Help: "Total checkout operations",
		},
		[]string{"operation", "status"},
	)

	webhookEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_events_total",
			Help: "Total payment webhook events by type and outcome",
		},
		[]string{"type", "outcome"},
	)

	inventoryAvailable = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "inventory_available_total",
			Help: "Current available units per ticket type",
		},
		[]string{"ticket_type_id"},
	)

	goroutineCount = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "active_goroutines_total",
			Help: "Current number of active goroutines",
		},
	)

	providerRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "payment_provider_request_duration_seconds",
			Help:    "Duration of payment provider API calls",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 10),
		},
		[]string{"call"},
	)
)

type Monitor struct{}

func NewMonitor() *Monitor {
	monitor := &Monitor{}

	// Start metrics collection
	go monitor.collectMetrics()

	return monitor
}

func (m *Monitor) collectMetrics() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		goroutineCount.Set(float64(runtime.NumGoroutine()))
	}
}

// Track checkout saga operations
func (m *Monitor) TrackCheckoutOperation(operation, status string) {
	checkoutOperations.WithLabelValues(operation, status).Inc()
}

// Track webhook deliveries
func (m *Monitor) TrackWebhookEvent(eventType, outcome string) {
	webhookEvents.WithLabelValues(eventType, outcome).Inc()
}

// Track inventory levels
func (m *Monitor) TrackInventory(ticketTypeID string, available int) {
	inventoryAvailable.WithLabelValues(ticketTypeID).Set(float64(available))
}

// Track provider call latency
func (m *Monitor) TrackProviderRequest(call string, duration time.Duration) {
	providerRequestDuration.WithLabelValues(call).Observe(duration.Seconds())
}
